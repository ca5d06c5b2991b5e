package main

import (
	"context"
	"log"
	"os"

	"github.com/urfave/cli/v3"
)

const (
	configKey     = "config"
	iterationsKey = "iterations"
	logLevelKey   = "log-level"
	htmlKey       = "html"
)

func main() {
	cmd := &cli.Command{
		Name:  "flowbench",
		Usage: "Benchmark and exercise the flowdom render core",
		Commands: []*cli.Command{
			{
				Name:  "bench",
				Usage: "Time the reconciler and the keyed list block",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  configKey,
						Usage: "Optional YAML scenario file",
						Value: "flowbench.yaml",
					},
					&cli.UintFlag{
						Name:  iterationsKey,
						Usage: "Iterations per workload, overrides the scenario file",
					},
				},
				Action: bench,
			},
			{
				Name:  "demo",
				Usage: "Run a scripted todo app against the in-memory document",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  logLevelKey,
						Usage: "Log level, overrides FLOWBENCH_LOG_LEVEL",
					},
					&cli.BoolFlag{
						Name:  htmlKey,
						Usage: "Print the document after every step",
						Value: true,
					},
				},
				Action: demo,
			},
		},
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
