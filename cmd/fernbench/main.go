package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"runtime/pprof"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v3"
)

func main() {
	cmd := &cli.Command{
		Name:  "fernbench",
		Usage: "Reconciliation micro-benchmarks for fern",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "scenarios",
				Usage: "YAML file describing the scenarios to run",
			},
			&cli.IntFlag{
				Name:  "iterations",
				Usage: "Iterations per scenario (scenario files may override)",
				Value: 100,
			},
			&cli.StringFlag{
				Name:  "cpuprofile",
				Usage: "Write a CPU profile to the given path",
			},
		},
		Action: run,
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	scenarios := defaultScenarios()
	if path := cmd.String("scenarios"); path != "" {
		loaded, err := loadScenarios(path)
		if err != nil {
			return err
		}
		scenarios = loaded
	}

	if path := cmd.String("cpuprofile"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return err
		}
		defer pprof.StopCPUProfile()
	}

	iterations := int(cmd.Int("iterations"))
	if iterations <= 0 {
		return fmt.Errorf("iterations must be positive")
	}

	tbl := table.NewWriter()
	tbl.SetTitle("fern reconciliation")
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"scenario", "kind", "nodes", "avg", "min", "p75", "p99", "max"})

	for _, scenario := range scenarios {
		result, err := runScenario(scenario, iterations)
		if err != nil {
			return fmt.Errorf("scenario %q: %w", scenario.Name, err)
		}
		calc := result.Metrics
		tbl.AppendRow(table.Row{
			scenario.Name,
			scenario.Kind,
			humanize.Comma(int64(result.Nodes)),
			calc.Time.Avg,
			calc.Time.Min,
			calc.Time.P75,
			calc.Time.P99,
			calc.Time.Max,
		})
	}

	tbl.Render()
	return nil
}
