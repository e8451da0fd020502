package cli

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/synheart/physiosim/internal/scenario"
	"github.com/synheart/physiosim/scenarios"
)

// loadRegistry loads the built-in scenarios and, when configured, the YAML
// files of the scenario directory on top of them.
func loadRegistry() (*scenario.Registry, error) {
	registry := scenario.NewRegistry()
	if err := registry.LoadFromEmbedded(scenarios.FS, "."); err != nil {
		return nil, err
	}

	if dir := appConfig.ScenarioDir; dir != "" {
		if _, err := os.Stat(dir); err != nil {
			return nil, fmt.Errorf("scenario directory %s: %w", dir, err)
		}
		if err := registry.LoadFromDir(dir); err != nil {
			return nil, fmt.Errorf("failed to load scenarios: %w", err)
		}
	}
	return registry, nil
}

// loadScenario looks up a scenario and applies a duration override.
func loadScenario(name, duration string) (*scenario.Scenario, error) {
	registry, err := loadRegistry()
	if err != nil {
		return nil, err
	}

	scen, err := registry.Get(name)
	if err != nil {
		return nil, fmt.Errorf("failed to load scenario '%s': %w", name, err)
	}

	if duration != "" {
		if d, unlimited := scenario.ParseDuration(duration); !unlimited && d == 0 {
			return nil, fmt.Errorf("invalid duration %q", duration)
		}
		copied := *scen
		copied.Duration = duration
		scen = &copied
	}
	return scen, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// stringFlag returns the flag value, or fallback when the flag was not set.
func stringFlag(cmd *cobra.Command, name, value, fallback string) string {
	if cmd.Flags().Changed(name) || fallback == "" {
		return value
	}
	return fallback
}

// intFlag returns the flag value, or fallback when the flag was not set.
func intFlag(cmd *cobra.Command, name string, value, fallback int) int {
	if cmd.Flags().Changed(name) {
		return value
	}
	return fallback
}

func defaultSeed() int64 {
	return time.Now().UnixNano()
}

func generateToken() (string, error) {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return "ps_" + hex.EncodeToString(bytes), nil
}
