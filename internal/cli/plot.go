package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/synheart/physiosim/internal/generator"
	"github.com/synheart/physiosim/internal/scenario"
)

var (
	plotSession = sessionOptions{Scenario: "vf-arrest"}
	plotSignal  string
	plotFrom    time.Duration
	plotSpan    time.Duration
	plotHeight  int
	plotWidth   int
)

// plotDefaults is the signal plotted when --signal is not given.
var plotDefaults = map[scenario.Modality]string{
	scenario.ModalityDefib:      "ecg",
	scenario.ModalityEKG:        "ekg.II",
	scenario.ModalityEEG:        "eeg.O1",
	scenario.ModalityCTG:        "fhr",
	scenario.ModalityManometry:  "pressure",
	scenario.ModalitySpirometry: "volume",
}

var plotCmd = &cobra.Command{
	Use:   "plot",
	Short: "Plot a simulated signal in the terminal",
	Long: `Runs a scenario on simulated time and draws one signal over a window.
Column signals (manometry pressure) are drawn as their peak.

Examples:
  physiosim sim plot --scenario vf-arrest --span 4s
  physiosim sim plot --scenario labor --signal toco --from 2m --span 3m
  physiosim sim plot --scenario stemi --signal ekg.V2`,
	RunE: runPlot,
}

func init() {
	plotCmd.Flags().StringVar(&plotSession.Scenario, "scenario", plotSession.Scenario, "Scenario to run")
	plotCmd.Flags().Int64Var(&plotSession.Seed, "seed", 1, "Random seed")
	plotCmd.Flags().StringVar(&plotSession.Plugin, "plugin", "", "WASM sample transform")
	plotCmd.Flags().StringVar(&plotSignal, "signal", "", "Signal to plot (default depends on the modality)")
	plotCmd.Flags().DurationVar(&plotFrom, "from", 0, "Simulated time at which the window starts")
	plotCmd.Flags().DurationVar(&plotSpan, "span", 5*time.Second, "Length of the window")
	plotCmd.Flags().IntVar(&plotHeight, "height", 12, "Plot height in rows")
	plotCmd.Flags().IntVar(&plotWidth, "width", 100, "Plot width in columns")
}

func runPlot(cmd *cobra.Command, args []string) error {
	if plotSpan <= 0 {
		return fmt.Errorf("--span must be positive")
	}

	ctx := context.Background()
	sess, err := newSession(ctx, plotSession, nil)
	if err != nil {
		return err
	}
	defer sess.Close(ctx)

	name := plotSignal
	if name == "" {
		name = plotDefaults[sess.scenario.Modality]
	}

	tick := sess.generator.TickPeriod()
	window := generator.NewWindow(int(plotSpan / tick))
	end := plotFrom + plotSpan
	for sess.engine.GetElapsed() < end && !sess.engine.IsComplete() {
		inWindow := sess.engine.GetElapsed() >= plotFrom
		for _, event := range sess.generator.Tick(ctx) {
			if inWindow {
				window.Add(event)
			}
		}
	}

	series := window.Series(name)
	if len(series) == 0 {
		return fmt.Errorf("no samples for signal %q; available: %s", name, strings.Join(window.Names(), ", "))
	}

	caption := fmt.Sprintf("%s  %s  %s..%s  seed %d", sess.scenario.Name, name, plotFrom, end, plotSession.Seed)
	if label := sess.generator.CaseLabel(); label != "" {
		caption += "  " + label
	}
	graph := asciigraph.Plot(series,
		asciigraph.Height(plotHeight),
		asciigraph.Width(plotWidth),
		asciigraph.Caption(caption),
	)
	fmt.Fprintln(cmd.OutOrStdout(), graph)
	return nil
}
