package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute(), errOut.String())
	return out.String()
}

func TestCaseCommandJSON(t *testing.T) {
	out := execute(t, "case", "spirometry", "--type", "obstructive", "--seed", "3", "--json")

	var c struct {
		Diagnosis string `json:"diagnosis"`
		Actual    struct {
			Ratio float64 `json:"ratio"`
		} `json:"actual"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &c))
	assert.Equal(t, "Obstruction", c.Diagnosis)
	assert.Greater(t, c.Actual.Ratio, 0.0)
}

func TestCaseCommandUnknownModality(t *testing.T) {
	rootCmd.SetArgs([]string{"case", "xray"})
	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&bytes.Buffer{})
	assert.Error(t, rootCmd.Execute())
}

func TestPlotCommand(t *testing.T) {
	out := execute(t, "sim", "plot", "--scenario", "labor", "--span", "10s", "--seed", "5")
	assert.Contains(t, out, "labor")
	assert.Contains(t, out, "fhr")
}

func TestVersionCommand(t *testing.T) {
	out := execute(t, "version")
	assert.Contains(t, out, "physiosim v")
	assert.Contains(t, out, "physiosim.sample.v1")
}
