package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	envPrefix            = "IRCSERV"
	envConfigDefaultPath = "IRCSERV_CONFIG_DEFAULT_PATH"
	defaultConfigName    = "ircserv.yaml"
)

// Load builds configuration from defaults, optional config file, env vars, and returns the resolved path.
// Precedence: defaults < config file < env vars < caller overrides.
// A missing file at the default location is not an error; a missing explicit one is.
func Load(logger *zerolog.Logger, explicitPath string) (Config, string, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v, cfg)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	configPath := resolveConfigPath(explicitPath)
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		missing := errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)
		if !missing || explicitPath != "" {
			return cfg, configPath, fmt.Errorf("read config: %w", err)
		}
		if logger != nil {
			logger.Debug().Str("path", configPath).Msg("no config file, using defaults")
		}
		configPath = ""
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, configPath, fmt.Errorf("unmarshal config: %w", err)
	}

	return cfg, configPath, nil
}

// WriteDefault dumps the default configuration as yaml to path.
func WriteDefault(path string) error {
	return writeConfig(path, Default())
}

func setDefaults(v *viper.Viper, cfg Config) {
	v.SetDefault("listen_host", cfg.ListenHost)
	v.SetDefault("port", cfg.Port)
	v.SetDefault("password", cfg.Password)
	v.SetDefault("password_hash", cfg.PasswordHash)
	v.SetDefault("server_name", cfg.ServerName)
	v.SetDefault("max_clients", cfg.MaxClients)
	v.SetDefault("max_line_length", cfg.MaxLineLength)
	v.SetDefault("send_queue_limit", cfg.SendQueueLimit)
	v.SetDefault("write_timeout", cfg.WriteTimeout)
	v.SetDefault("flood_rate", cfg.FloodRate)
	v.SetDefault("flood_burst", cfg.FloodBurst)
	v.SetDefault("capabilities", cfg.Capabilities)
	v.SetDefault("http_addr", cfg.HTTPAddr)
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("shutdown_timeout", cfg.ShutdownTimeout)
}

func resolveConfigPath(explicitPath string) string {
	if explicitPath != "" {
		return explicitPath
	}

	if base := os.Getenv(envConfigDefaultPath); base != "" {
		return filepath.Join(base, defaultConfigName)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return defaultConfigName
	}
	return filepath.Join(cwd, defaultConfigName)
}

func writeConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
