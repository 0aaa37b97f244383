package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/ircserv/internal/app"
	"github.com/vovakirdan/ircserv/internal/auth"
	"github.com/vovakirdan/ircserv/internal/config"
	applog "github.com/vovakirdan/ircserv/internal/log"
)

type flags struct {
	configPath  string
	writeConfig string
	overrides   config.Config
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var f flags

	root := &cobra.Command{
		Use:           "ircserv [port] [password]",
		Short:         "A small IRC server speaking the classic text protocol",
		Example:       "ircserv 6667 hunter2 --server-name irc.example.org --http-addr 127.0.0.1:8080",
		Version:       app.Version,
		Args:          cobra.MaximumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args, f)
		},
	}

	pf := root.Flags()
	pf.StringVarP(&f.configPath, "config", "c", "", "path to a yaml config file")
	pf.StringVar(&f.writeConfig, "write-config", "", "write the default config to this path and exit")
	pf.StringVar(&f.overrides.LogLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.StringVar(&f.overrides.ServerName, "server-name", "", "name the server announces in replies")
	pf.IntVar(&f.overrides.MaxClients, "max-clients", 0, "maximum concurrent connections")
	pf.StringVar(&f.overrides.HTTPAddr, "http-addr", "", "address for the /health and /stats endpoints")
	pf.StringVar(&f.overrides.ListenHost, "host", "", "interface the IRC listener binds")

	root.AddCommand(newHashPasswordCommand())
	return root
}

func newHashPasswordCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password <password>",
		Short: "Print a bcrypt hash suitable for password_hash",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := auth.HashPassword(args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), hash)
			return err
		},
	}
}

func run(cmd *cobra.Command, args []string, f flags) error {
	if f.writeConfig != "" {
		if err := config.WriteDefault(f.writeConfig); err != nil {
			return reportf(cmd, "write config: %v", err)
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "wrote", f.writeConfig)
		return nil
	}

	bootLogger := applog.New(f.overrides.LogLevel)
	cfg, path, err := config.Load(bootLogger, f.configPath)
	if err != nil {
		return reportf(cmd, "%v", err)
	}

	if len(args) > 0 {
		port, err := strconv.Atoi(args[0])
		if err != nil {
			return reportf(cmd, "invalid port %q", args[0])
		}
		f.overrides.Port = port
	}
	if len(args) > 1 {
		f.overrides.Password = args[1]
		// A password on the command line replaces any configured hash.
		cfg.PasswordHash = ""
	}
	cfg.UpdateFrom(f.overrides)
	if err := cfg.Validate(); err != nil {
		return reportf(cmd, "invalid config: %v", err)
	}

	logger := applog.New(cfg.LogLevel)
	if path != "" {
		logger.Info().Str("path", path).Msg("config loaded")
	}

	application, err := app.New(&cfg, logger)
	if err != nil {
		return reportf(cmd, "%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGHUP)
	defer stop()

	logger.Info().
		Str("addr", cfg.ListenAddr()).
		Str("server_name", cfg.ServerName).
		Int("max_clients", cfg.MaxClients).
		Msg("starting ircserv")
	if err := application.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("server exited with error")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}

func reportf(cmd *cobra.Command, format string, a ...any) error {
	err := fmt.Errorf(format, a...)
	_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "ircserv:", err)
	return err
}
