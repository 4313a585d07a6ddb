package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/fiber/internal/config"
	"github.com/vango-dev/fiber/pkg/host"
)

func runCmd(flags *globalFlags) *cobra.Command {
	var (
		steps   int
		showOps bool
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Render the demo script and print the committed ops",
		Long: `Render the scripted todo application step by step with the manual
driver and print the host ops each step committed, followed by the
final HTML.

Examples:
  fiber run
  fiber run --steps=3
  fiber run --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			return runScript(cmd.OutOrStdout(), cfg, steps, showOps, asJSON)
		},
	}

	cmd.Flags().IntVarP(&steps, "steps", "n", 0, "Number of steps after mount (default: all)")
	cmd.Flags().BoolVar(&showOps, "ops", true, "Print the ops of each step")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the op log as JSON")

	return cmd
}

func runScript(out io.Writer, cfg *config.Config, steps int, showOps, asJSON bool) error {
	s, err := newSession(cfg, newLogger(cfg, os.Stderr), config.DriverManual)
	if err != nil {
		return err
	}
	defer s.Close()

	if steps <= 0 || steps > len(s.script)-1 {
		steps = len(s.script) - 1
	}
	for i := 0; i < steps; i++ {
		if _, err := s.step(); err != nil {
			return err
		}
	}

	log := s.steps()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(log)
	}

	for _, st := range log {
		success(out, "%s (%d ops)", st.Step, len(st.Ops))
		if !showOps {
			continue
		}
		for _, op := range host.Strings(st.Ops) {
			info(out, "%s", op)
		}
	}
	stats := s.root.Stats()
	fmt.Fprintf(out, "\n%d passes, %d commits, %d units\n\n", stats.Passes, stats.Commits, stats.Units)
	fmt.Fprintln(out, s.mem.HTML())
	return nil
}
