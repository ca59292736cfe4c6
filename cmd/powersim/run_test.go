package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func TestRunCommand(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{
			name: "fixed difficulty",
			args: []string{"--difficulty", "3", "--latency", "lognormal:10s"},
		},
		{
			name: "retargeted difficulty",
			args: []string{"--difficulty", "3", "--min-difficulty", "2", "--retarget-interval", "5", "--latency", "none"},
		},
		{
			name: "zipf latency",
			args: []string{"--latency", "zipf:1.5:10:1m", "--election", "ticket"},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var out bytes.Buffer
			app := &cli.App{Writer: &out, Commands: []*cli.Command{&runCmd}}
			args := append([]string{"powersim", "run", "--seed", "11", "--rounds", "20"}, test.args...)
			require.NoError(t, app.Run(args))

			require.Contains(t, out.String(), "awards:    20\n")
			require.Contains(t, out.String(), "rejected:  0\n")
			require.Contains(t, out.String(), "proofs:    20/20 verified\n")
		})
	}

	t.Run("unknown latency", func(t *testing.T) {
		app := &cli.App{Writer: &bytes.Buffer{}, Commands: []*cli.Command{&runCmd}}
		require.Error(t, app.Run([]string{"powersim", "run", "--latency", "gamma"}))
	})
}
