package main

import (
	"fmt"
	"os"

	"github.com/Digigit24/celiyo-new-sub001/internal/config"
	"github.com/Digigit24/celiyo-new-sub001/internal/daemon"
	"github.com/urfave/cli/v2"
	"go.uber.org/fx"
)

func main() {
	app := &cli.App{
		Name:  "inboxd",
		Usage: "conversation sync daemon",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to config file",
				Value:   config.Path(),
				EnvVars: []string{"INBOX_CONFIG"},
			},
			&cli.BoolFlag{
				Name:  "whatsapp",
				Usage: "enable the WhatsApp linked-device feed at the default device store",
			},
		},
		Action: func(c *cli.Context) error {
			fx.New(daemon.Module(daemon.Params{
				ConfigPath: c.String("config"),
				WhatsApp:   c.Bool("whatsapp"),
			})).Run()
			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
