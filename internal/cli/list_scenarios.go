package cli

import (
	"github.com/spf13/cobra"
)

var listScenariosCmd = &cobra.Command{
	Use:   "list-scenarios",
	Short: "List available scenarios",
	Long:  `Lists the built-in scenarios, and those of PHYSIOSIM_SCENARIO_DIR, with their modality and description.`,
	RunE:  runListScenarios,
}

func runListScenarios(cmd *cobra.Command, args []string) error {
	ui := newUI(cmd)

	registry, err := loadRegistry()
	if err != nil {
		return err
	}

	names := registry.List()
	if len(names) == 0 {
		ui.Printf("No scenarios found\n")
		return nil
	}

	ui.Title("Available scenarios")
	for _, name := range names {
		scen, err := registry.Get(name)
		if err != nil {
			continue
		}
		ui.Printf("  %-18s %-11s %s\n", name, scen.Modality, scen.Description)
	}
	ui.Printf("\n")

	return nil
}
