package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/synheart/physiosim/internal/recorder"
)

var (
	recordSession = sessionOptions{Scenario: "vf-arrest"}
	recordOut     string
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record a simulated session to a file",
	Long: `Runs a scenario to completion as fast as possible and writes every sample
event to an NDJSON file. Replays keep the simulated timing.

Examples:
  physiosim sim record --scenario labor --duration 10m --out labor.ndjson
  physiosim sim record --scenario achalasia --seed 7 --out achalasia.ndjson`,
	RunE: runRecord,
}

func init() {
	recordCmd.Flags().StringVar(&recordSession.Scenario, "scenario", recordSession.Scenario, "Scenario to run")
	recordCmd.Flags().StringVar(&recordSession.Duration, "duration", "", "Duration to record (required for unlimited scenarios)")
	recordCmd.Flags().StringVar(&recordSession.Rate, "rate", "", "Tick rate override (e.g., 60hz)")
	recordCmd.Flags().Int64Var(&recordSession.Seed, "seed", defaultSeed(), "Random seed")
	recordCmd.Flags().StringVar(&recordSession.Plugin, "plugin", "", "WASM sample transform")
	recordCmd.Flags().StringVar(&recordOut, "out", "", "Output file (required)")
	recordCmd.MarkFlagRequired("out")
}

func runRecord(cmd *cobra.Command, args []string) error {
	ui := newUI(cmd)
	recordSession.Plugin = stringFlag(cmd, "plugin", recordSession.Plugin, appConfig.Plugin)

	ctx, cancel := signalContext()
	defer cancel()

	sess, err := newSession(ctx, recordSession, nil)
	if err != nil {
		return err
	}
	defer sess.Close(context.Background())

	if _, unlimited := sess.scenario.TotalDuration(); unlimited {
		return fmt.Errorf("scenario '%s' has no end; set --duration", sess.scenario.Name)
	}

	rec, err := recorder.NewRecorder(recordOut)
	if err != nil {
		return fmt.Errorf("failed to create recorder: %w", err)
	}

	ui.Title("Recording session")
	ui.Field("Scenario", sess.scenario.Name)
	ui.Field("Duration", sess.scenario.Duration)
	ui.Field("Seed", recordSession.Seed)
	ui.Field("Output", recordOut)

	total, _ := sess.scenario.TotalDuration()
	for ticks := 1; !sess.engine.IsComplete(); ticks++ {
		if err := ctx.Err(); err != nil {
			break
		}
		for _, event := range sess.generator.Tick(ctx) {
			if err := rec.RecordEvent(event); err != nil {
				rec.Close()
				return err
			}
		}
		if ticks%500 == 0 {
			progress := sess.engine.GetElapsed().Seconds() / total.Seconds()
			ui.Printf("\r%s %d events", renderBar(progress, 30), rec.Count())
		}
	}

	if err := rec.Close(); err != nil {
		return err
	}
	ui.Printf("\r%s %d events\n\n", renderBar(1, 30), rec.Count())

	if errors.Is(ctx.Err(), context.Canceled) {
		ui.Warn("Interrupted at %s; partial recording kept", sess.engine.GetElapsed())
		return nil
	}
	ui.Success("Recording complete: %s", recordOut)
	return nil
}
