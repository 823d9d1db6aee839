package main

import (
	"fmt"
	"os"

	"github.com/lendora/lendora/internal/config"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var version = "alpha"

func main() {
	app := cli.NewApp()

	app.Version = version
	app.Name = "lendora CLI"
	app.Usage = "P2P loan negotiation over Hydra Head channels"
	app.Commands = append(
		app.Commands,
		&demoCommand,
		&negotiateCommand,
		&healthCommand,
	)

	app.Before = func(ctx *cli.Context) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}
		log.SetLevel(log.Level(cfg.LogLevel))
		ctx.App.Metadata = map[string]interface{}{"config": cfg}
		return nil
	}

	err := app.Run(os.Args)
	if err != nil {
		fmt.Println(fmt.Errorf("error: %v", err))
		os.Exit(1)
	}
}

func configFromContext(ctx *cli.Context) *config.Config {
	return ctx.App.Metadata["config"].(*config.Config)
}
