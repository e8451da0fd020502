package cli

import (
	"fmt"
	"net"
	"os"
	"runtime"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check environment and print connection info",
	Long:  `Validates the configuration, loads every scenario, checks port availability and the optional plugin and NATS server, and prints client examples.`,
	RunE:  runDoctor,
}

func runDoctor(cmd *cobra.Command, args []string) error {
	ui := newUI(cmd)
	ui.Title("physiosim environment check")

	ui.Field("Go", runtime.Version())
	ui.Field("OS/Arch", fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH))
	ui.Printf("\n")

	failures := 0

	registry, err := loadRegistry()
	if err != nil {
		ui.Warn("Scenarios failed to load: %v", err)
		failures++
	} else {
		scenarios := registry.ListWithDescriptions()
		ui.Success("%d scenarios loaded", len(scenarios))
		if appConfig.ScenarioDir != "" {
			ui.Hint("  including %s", appConfig.ScenarioDir)
		}
	}

	host := appConfig.Host
	ports := []struct {
		name string
		port int
	}{
		{"WebSocket", appConfig.Port},
		{"SSE", appConfig.Port + 1},
		{"UDP", appConfig.Port + 2},
	}
	if appConfig.ControlPort > 0 {
		ports = append(ports, struct {
			name string
			port int
		}{"Control", appConfig.ControlPort})
	}
	for _, p := range ports {
		if isPortAvailable(host, p.port, p.name == "UDP") {
			ui.Success("%s port %d is available", p.name, p.port)
		} else {
			ui.Warn("%s port %d is in use; use --port to pick another", p.name, p.port)
			failures++
		}
	}

	if appConfig.Plugin != "" {
		if _, err := os.Stat(appConfig.Plugin); err != nil {
			ui.Warn("Plugin %s: %v", appConfig.Plugin, err)
			failures++
		} else {
			ui.Success("Plugin found: %s", appConfig.Plugin)
		}
	}

	if appConfig.NATSURL != "" {
		conn, err := nats.Connect(appConfig.NATSURL, nats.Name("physiosim-doctor"), nats.Timeout(2*time.Second))
		if err != nil {
			ui.Warn("NATS %s: %v", appConfig.NATSURL, err)
			failures++
		} else {
			ui.Success("NATS reachable at %s", conn.ConnectedUrl())
			conn.Close()
		}
	}

	ws := fmt.Sprintf("ws://%s:%d/stream", host, appConfig.Port)
	ui.Printf("\nConnection examples:\n\n")

	ui.Printf("JavaScript:\n")
	ui.Printf("  const ws = new WebSocket('%s');\n", ws)
	ui.Printf("  ws.onmessage = (e) => console.log(JSON.parse(e.data).signal);\n\n")

	ui.Printf("Python:\n")
	ui.Printf("  import json, websocket\n")
	ui.Printf("  ws = websocket.create_connection('%s')\n", ws)
	ui.Printf("  while True: print(json.loads(ws.recv())['signal'])\n\n")

	ui.Printf("Go:\n")
	ui.Printf("  conn, _, err := websocket.DefaultDialer.Dial(%q, nil)\n", ws)
	ui.Printf("  for {\n")
	ui.Printf("    _, message, err := conn.ReadMessage()\n")
	ui.Printf("    var event Event\n")
	ui.Printf("    json.Unmarshal(message, &event)\n")
	ui.Printf("  }\n\n")

	ui.Printf("curl (SSE):\n")
	ui.Printf("  curl -N http://%s:%d/stream/sse\n\n", host, appConfig.Port+1)

	ui.Printf("Control (requires --control-port):\n")
	ui.Printf("  curl -X POST -H \"Authorization: Bearer $TOKEN\" -H 'Content-Type: application/json' \\\n")
	ui.Printf("    -d '{\"type\":\"shock\"}' http://%s:<control-port>/v1/commands\n\n", host)

	if failures > 0 {
		return fmt.Errorf("%d checks failed", failures)
	}
	ui.Success("Environment check complete")
	return nil
}

func isPortAvailable(host string, port int, udp bool) bool {
	addr := net.JoinHostPort(host, fmt.Sprint(port))
	if udp {
		conn, err := net.ListenPacket("udp", addr)
		if err != nil {
			return false
		}
		conn.Close()
		return true
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return false
	}
	listener.Close()
	return true
}
