// Command physiosim streams simulated clinical waveforms.
package main

import "github.com/synheart/physiosim/internal/cli"

// version is set at build time via -ldflags.
var version = ""

func main() {
	if version != "" {
		cli.Version = version
	}
	cli.Execute()
}
