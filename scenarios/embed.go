// Package scenarios embeds the built-in session scenarios.
package scenarios

import "embed"

// FS holds every built-in scenario file at its root.
//
//go:embed *.yaml
var FS embed.FS
