package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/lrstanley/girc"
)

func main() {
	if err := run(); err != nil {
		log.Printf("irc_smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	server := flag.String("server", "localhost", "IRC server host")
	port := flag.Int("port", 6667, "IRC server port")
	password := flag.String("password", "", "connection password")
	nick := flag.String("nick", "tester", "nickname to register with")
	channel := flag.String("channel", "#general", "channel to join")
	text := flag.String("text", "hello from smoke test", "message text to send")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	client := girc.New(girc.Config{
		Server:     *server,
		Port:       *port,
		ServerPass: *password,
		Nick:       *nick,
		User:       *nick,
		Name:       "ircserv smoke test",
	})

	finished := make(chan error, 1)
	finish := func(err error) {
		select {
		case finished <- err:
		default:
		}
	}
	client.Handlers.AddBg(girc.CONNECTED, func(c *girc.Client, e girc.Event) {
		fmt.Printf("Registered as %s\n", c.GetNick())
		c.Cmd.Join(*channel)
	})
	client.Handlers.AddBg(girc.RPL_ENDOFNAMES, func(c *girc.Client, e girc.Event) {
		fmt.Printf("Joined %s\n", e.Params[1])
		c.Cmd.Message(*channel, *text)
		c.Cmd.Ping("smoke")
	})
	client.Handlers.AddBg(girc.PONG, func(c *girc.Client, e girc.Event) {
		fmt.Printf("Received PONG %s\n", e.Last())
		c.Quit("smoke test done")
		finish(nil)
	})
	client.Handlers.AddBg(girc.ERR_PASSWDMISMATCH, func(c *girc.Client, e girc.Event) {
		finish(errors.New("server rejected the password"))
	})

	go func() {
		if err := client.Connect(); err != nil {
			finish(fmt.Errorf("connect: %w", err))
		}
	}()

	select {
	case err := <-finished:
		client.Close()
		return err
	case <-time.After(*timeout):
		client.Close()
		return errors.New("timed out waiting for the server")
	}
}
