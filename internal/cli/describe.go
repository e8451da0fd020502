package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/synheart/physiosim/internal/scenario"
)

var describeCmd = &cobra.Command{
	Use:   "describe <scenario>",
	Short: "Describe a scenario in detail",
	Long:  `Shows a scenario's modality, base parameters and the overrides of each phase on a timeline.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runDescribe,
}

func runDescribe(cmd *cobra.Command, args []string) error {
	ui := newUI(cmd)

	scen, err := loadScenario(args[0], "")
	if err != nil {
		return err
	}

	ui.Title("Scenario: " + scen.Name)
	ui.Field("Description", scen.Description)
	ui.Field("Modality", scen.Modality)
	ui.Field("Duration", scen.Duration)
	rate := scen.Rate
	if rate == "" {
		rate = "50hz"
	}
	ui.Field("Rate", rate)

	ui.Printf("\nParameters:\n%s", indentYAML(scen.Params))

	if len(scen.Phases) == 0 {
		return nil
	}

	total, unlimited := scen.TotalDuration()
	ui.Printf("\nPhases:\n")
	for i, phase := range scen.Phases {
		d, open := scenario.ParseDuration(phase.Duration)
		bar := renderBar(1, 20)
		if !unlimited && !open && total > 0 {
			bar = renderBar(d.Seconds()/total.Seconds(), 20)
		}
		ui.Printf("  %d. %-16s %s %s\n", i+1, phase.Name, bar, phase.Duration)
		if phase.Overrides != nil {
			ui.Printf("%s", indentYAML(phase.Overrides))
		}
	}
	ui.Printf("\n")
	return nil
}

// indentYAML renders v as YAML indented under a list entry.
func indentYAML(v any) string {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Sprintf("     <%v>\n", err)
	}
	var b strings.Builder
	for _, line := range strings.Split(strings.TrimRight(string(data), "\n"), "\n") {
		if line == "{}" {
			continue
		}
		b.WriteString("     " + line + "\n")
	}
	return b.String()
}
