package cli

import "github.com/synheart/physiosim/internal/config"

// GlobalOptions are shared flags that apply across commands.
type GlobalOptions struct {
	LogLevel  string
	LogFormat string
	NoColor   bool
	Quiet     bool
}

var (
	globalOpts GlobalOptions
	// appConfig is loaded from the environment before any command runs.
	appConfig config.Config
)
