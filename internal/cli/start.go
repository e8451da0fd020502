package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/synheart/physiosim/internal/control"
	"github.com/synheart/physiosim/internal/encoding"
	"github.com/synheart/physiosim/internal/metrics"
	"github.com/synheart/physiosim/internal/models"
	"github.com/synheart/physiosim/internal/recorder"
	"github.com/synheart/physiosim/internal/transport"
)

var (
	startHost         string
	startPort         int
	startSession      = sessionOptions{Scenario: "vf-arrest"}
	startOut          string
	startFormat       string
	startBuffer       int
	startNATSURL      string
	startNATSSubject  string
	startControlPort  int
	startControlToken string
	startSignals      []string
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start simulating and streaming a scenario",
	Long: `Runs a scenario on simulated time and streams its samples over WebSocket,
SSE (port+1) and UDP (port+2), and to NATS when a URL is given.

With --control-port, discrete interventions (shock, drugs, swallows, case
changes) are accepted on an authenticated HTTP API.

Examples:
  physiosim sim start --scenario vf-arrest
  physiosim sim start --scenario labor --format protobuf --seed 42
  physiosim sim start --scenario vf-arrest --control-port 8790
  physiosim sim start --scenario stemi --signals ekg.II,ekg.V2`,
	RunE: runStart,
}

func init() {
	startCmd.Flags().StringVar(&startHost, "host", "127.0.0.1", "Host to bind to")
	startCmd.Flags().IntVar(&startPort, "port", 8787, "WebSocket port; SSE and UDP use the next two")
	startCmd.Flags().StringVar(&startSession.Scenario, "scenario", startSession.Scenario, "Scenario to run")
	startCmd.Flags().StringVar(&startSession.Duration, "duration", "", "Duration to run (e.g., 5m, unlimited)")
	startCmd.Flags().StringVar(&startSession.Rate, "rate", "", "Tick rate override (e.g., 60hz)")
	startCmd.Flags().Int64Var(&startSession.Seed, "seed", defaultSeed(), "Random seed for deterministic output")
	startCmd.Flags().StringVar(&startSession.Plugin, "plugin", "", "WASM sample transform")
	startCmd.Flags().StringVar(&startOut, "out", "", "Record events to file")
	startCmd.Flags().StringVar(&startFormat, "format", "json", "Wire encoding: json|protobuf")
	startCmd.Flags().IntVar(&startBuffer, "buffer", 256, "Per-subscriber event buffer")
	startCmd.Flags().StringVar(&startNATSURL, "nats-url", "", "Publish samples to this NATS server")
	startCmd.Flags().StringVar(&startNATSSubject, "nats-subject", "physiosim.samples", "NATS subject prefix")
	startCmd.Flags().IntVar(&startControlPort, "control-port", 0, "Serve the control API on this port (0 disables)")
	startCmd.Flags().StringVar(&startControlToken, "control-token", "", "Control API bearer token (generated if empty)")
	startCmd.Flags().StringSliceVar(&startSignals, "signals", nil, "Stream only these signals or groups (e.g. ecg,spo2 or ekg); recordings keep all")
}

func runStart(cmd *cobra.Command, args []string) error {
	ui := newUI(cmd)

	host := stringFlag(cmd, "host", startHost, appConfig.Host)
	port := intFlag(cmd, "port", startPort, appConfig.Port)
	buffer := intFlag(cmd, "buffer", startBuffer, appConfig.BufferSize)
	startSession.Plugin = stringFlag(cmd, "plugin", startSession.Plugin, appConfig.Plugin)
	natsURL := stringFlag(cmd, "nats-url", startNATSURL, appConfig.NATSURL)
	natsSubject := stringFlag(cmd, "nats-subject", startNATSSubject, appConfig.NATSSubject)
	controlPort := intFlag(cmd, "control-port", startControlPort, appConfig.ControlPort)
	controlToken := stringFlag(cmd, "control-token", startControlToken, appConfig.ControlToken)

	format, err := encoding.ParseFormat(stringFlag(cmd, "format", startFormat, appConfig.Format))
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	m := metrics.New()
	sess, err := newSession(ctx, startSession, m)
	if err != nil {
		return err
	}
	defer sess.Close(context.Background())

	encoder := encoding.NewEncoder(format)
	events := make(chan models.Event, buffer)
	dispatcher := transport.NewDispatcher(events, buffer)
	dispatcher.SetMetrics(m)

	wsServer := transport.NewWebSocketServer(host, port, encoder, m)
	broadcasters := []transport.Broadcaster{
		wsServer,
		transport.NewSSEServer(host, port+1, encoder, m),
		transport.NewUDPServer(host, port+2, encoder, m),
	}
	if natsURL != "" {
		broadcasters = append(broadcasters, transport.NewNATSPublisher(natsURL, natsSubject, transport.DefaultNATSBatch))
	}

	for _, b := range broadcasters {
		serve(ctx, cancel, b.GetAddress(), b.Start)
		go b.BroadcastFromChannel(ctx, dispatcher.Subscribe(startSignals...))
	}

	var controlServer *control.Server
	if controlPort > 0 {
		if controlToken == "" {
			if controlToken, err = generateToken(); err != nil {
				return fmt.Errorf("failed to generate token: %w", err)
			}
		}
		journal, err := openJournal(cmd)
		if err != nil {
			return err
		}
		defer journal.Close()

		controlServer = control.NewServer(control.Config{
			Host:       host,
			Port:       controlPort,
			Token:      controlToken,
			AcceptGzip: appConfig.ControlGzip,
		}, sess.generator, journal, m)
		serve(ctx, cancel, controlServer.GetAddress(), controlServer.Start)
	}

	recorded := make(chan struct{})
	if startOut != "" {
		rec, err := recorder.NewRecorder(startOut)
		if err != nil {
			return err
		}
		go func() {
			defer close(recorded)
			if err := rec.RecordFromChannel(ctx, dispatcher.Subscribe(), nil); err != nil {
				slog.Error("recording failed", "path", startOut, "error", err)
			}
		}()
	} else {
		close(recorded)
	}

	go dispatcher.Run(ctx)

	time.Sleep(200 * time.Millisecond)

	ui.Title("physiosim session started")
	ui.Field("Scenario", fmt.Sprintf("%s (%s)", sess.scenario.Name, sess.scenario.Modality))
	ui.Field("Seed", startSession.Seed)
	ui.Field("Run", sess.generator.GetRunID())
	ui.Field("Tick", sess.generator.TickPeriod())
	ui.Field("Format", format)
	if len(startSignals) > 0 {
		ui.Field("Signals", strings.Join(startSignals, ", "))
	}
	for _, b := range broadcasters {
		ui.Field("Stream", b.GetAddress())
	}
	ui.Field("Metrics", fmt.Sprintf("http://%s:%d/metrics", host, port))
	if controlServer != nil {
		ui.Field("Control", controlServer.GetAddress())
		ui.Field("Token", controlToken)
	}
	if startOut != "" {
		ui.Field("Recording", startOut)
	}
	if sess.plugin != nil {
		ui.Field("Plugin", startSession.Plugin)
	}
	ui.Hint("\nPress Ctrl+C to stop")

	ticker := time.NewTicker(sess.generator.TickPeriod())
	defer ticker.Stop()
	err = sess.generator.Generate(ctx, ticker, events)
	close(events)
	<-recorded

	switch {
	case err == nil:
		ui.Success("Scenario complete after %s", sess.engine.GetElapsed())
	case errors.Is(err, context.Canceled):
		ui.Printf("\n")
	default:
		return fmt.Errorf("generator error: %w", err)
	}

	if dropped := dispatcher.GetDroppedCount(); dropped > 0 {
		ui.Warn("%d events dropped by slow subscribers", dropped)
		bySignal := dispatcher.DroppedBySignal()
		for _, name := range transport.SortedSignals(bySignal) {
			ui.Field("  "+name, bySignal[name])
		}
	}
	if controlServer != nil {
		stats := controlServer.GetStats()
		ui.Field("Commands", fmt.Sprintf("%d received, %d duplicates, %d errors", stats.TotalReceived, stats.TotalDuplicates, stats.TotalErrors))
	}
	ui.Success("Shutdown complete")
	return nil
}

// serve runs a server until ctx ends. A server that fails stops the session.
func serve(ctx context.Context, cancel context.CancelFunc, addr string, start func(context.Context) error) {
	go func() {
		if err := start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("server failed", "addr", addr, "error", err)
			cancel()
		}
	}()
}

func openJournal(cmd *cobra.Command) (control.Writer, error) {
	if appConfig.ControlJournal == "" {
		return control.NewStdoutWriter(cmd.OutOrStdout(), "ndjson"), nil
	}
	return control.NewFileWriter(appConfig.ControlJournal)
}
