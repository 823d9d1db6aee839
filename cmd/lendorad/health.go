package main

import (
	"fmt"

	"github.com/lendora/lendora/internal/infrastructure/nodes"
	timescheduler "github.com/lendora/lendora/internal/infrastructure/scheduler/gocron"
	"github.com/urfave/cli/v2"
)

var healthCommand = cli.Command{
	Name:  "health",
	Usage: "probe the configured Hydra nodes and report reachability",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "watch", Usage: "keep probing on the configured interval"},
	},
	Action: healthAction,
}

func healthAction(ctx *cli.Context) error {
	cfg := configFromContext(ctx)
	if cfg.NodesFile == "" {
		return fmt.Errorf("no nodes file configured, set LENDORA_NODES_FILE")
	}

	registry, err := nodes.LoadRegistry(cfg.NodesFile)
	if err != nil {
		return err
	}

	monitor := nodes.NewMonitor(registry, timescheduler.NewScheduler(), cfg.HealthInterval)

	if ctx.Bool("watch") {
		if err := monitor.Start(); err != nil {
			return err
		}
		defer monitor.Stop()
		<-ctx.Context.Done()
		return nil
	}

	monitor.ProbeAll()
	printHealth(monitor)
	return nil
}

func printHealth(monitor *nodes.Monitor) {
	for name, h := range monitor.Snapshot() {
		if h.Reachable {
			fmt.Printf("%-16s reachable  %s  (%s)\n", name, h.Latency, h.Node.URL)
			continue
		}
		fmt.Printf("%-16s UNREACHABLE  (%s)\n", name, h.Node.URL)
	}
	if primary, ok := monitor.Primary(); ok {
		fmt.Printf("\nprimary: %s (%s)\n", primary.Name, primary.URL)
	} else {
		fmt.Println("\nno reachable node")
	}
}
