package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"github.com/synheart/physiosim/internal/encoding"
	"github.com/synheart/physiosim/internal/models"
	"github.com/synheart/physiosim/internal/recorder"
	"github.com/synheart/physiosim/internal/transport"
)

var (
	replayIn     string
	replaySpeed  float64
	replayLoop   bool
	replayHost   string
	replayPort   int
	replayFormat string
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay recorded events",
	Long: `Replay events from a previously recorded NDJSON file over WebSocket and SSE,
keeping the simulated time between samples.

Examples:
  physiosim sim replay --in arrest.ndjson
  physiosim sim replay --in labor.ndjson --speed 4 --loop`,
	RunE: runReplay,
}

func init() {
	replayCmd.Flags().StringVar(&replayIn, "in", "", "Input file to replay (required)")
	replayCmd.Flags().Float64Var(&replaySpeed, "speed", 1.0, "Playback speed multiplier")
	replayCmd.Flags().BoolVar(&replayLoop, "loop", false, "Loop playback continuously")
	replayCmd.Flags().StringVar(&replayHost, "host", "127.0.0.1", "Host to bind to")
	replayCmd.Flags().IntVar(&replayPort, "port", 8787, "WebSocket port; SSE uses the next one")
	replayCmd.Flags().StringVar(&replayFormat, "format", "json", "Wire encoding: json|protobuf")
	replayCmd.MarkFlagRequired("in")
}

func runReplay(cmd *cobra.Command, args []string) error {
	ui := newUI(cmd)
	host := stringFlag(cmd, "host", replayHost, appConfig.Host)
	port := intFlag(cmd, "port", replayPort, appConfig.Port)

	format, err := encoding.ParseFormat(stringFlag(cmd, "format", replayFormat, appConfig.Format))
	if err != nil {
		return err
	}
	if replaySpeed <= 0 {
		return fmt.Errorf("--speed must be positive")
	}

	rep := recorder.NewReplayer(replayIn, replaySpeed, replayLoop)

	count, err := rep.CountEvents()
	if err != nil {
		return fmt.Errorf("failed to read recording: %w", err)
	}

	firstEvent, err := rep.GetFirstEvent()
	if err != nil {
		return fmt.Errorf("failed to read first event: %w", err)
	}
	length, err := rep.Duration()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	encoder := encoding.NewEncoder(format)
	events := make(chan models.Event, appConfig.BufferSize)
	dispatcher := transport.NewDispatcher(events, appConfig.BufferSize)

	broadcasters := []transport.Broadcaster{
		transport.NewWebSocketServer(host, port, encoder, nil),
		transport.NewSSEServer(host, port+1, encoder, nil),
	}
	for _, b := range broadcasters {
		serve(ctx, cancel, b.GetAddress(), b.Start)
		go b.BroadcastFromChannel(ctx, dispatcher.Subscribe())
	}
	go dispatcher.Run(ctx)

	time.Sleep(100 * time.Millisecond)

	ui.Title("Replay session started")
	ui.Field("File", replayIn)
	ui.Field("Events", count)
	ui.Field("Length", length)
	ui.Field("Scenario", firstEvent.Session.Scenario)
	ui.Field("Seed", firstEvent.Session.Seed)
	ui.Field("Speed", fmt.Sprintf("%.1fx", replaySpeed))
	ui.Field("Loop", replayLoop)
	for _, b := range broadcasters {
		ui.Field("Stream", b.GetAddress())
	}
	ui.Hint("\nPress Ctrl+C to stop")

	err = rep.Replay(ctx, events)
	close(events)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("replay error: %w", err)
	}

	slog.Debug("replay finished", "dropped", dispatcher.GetDroppedCount())
	ui.Success("Replay complete")
	return nil
}
