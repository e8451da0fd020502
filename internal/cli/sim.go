package cli

import (
	"github.com/spf13/cobra"
)

var simCmd = &cobra.Command{
	Use:   "sim",
	Short: "Simulation session commands",
	Long:  `Commands for streaming, recording, replaying and inspecting simulated sessions.`,
}

func init() {
	simCmd.AddCommand(startCmd)
	simCmd.AddCommand(recordCmd)
	simCmd.AddCommand(replayCmd)
	simCmd.AddCommand(listScenariosCmd)
	simCmd.AddCommand(describeCmd)
	simCmd.AddCommand(plotCmd)
}
