// Handwire — CLI entry point.
//
// This tool streams per-frame hand-tracking telemetry as MessagePack-encoded
// events inside OSC envelopes, one UDP datagram per frame. The send role
// drives a synthetic frame source (real tracking hardware lives behind the
// same Source boundary); the recv role binds a socket, decodes each datagram
// and prints event summaries.
//
// It can be launched interactively (no flags) or non-interactively via CLI
// flags (-role, -host, -port, -rate, -hands, -lenient, -config).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/pterm/pterm"

	"github.com/yclin/handwire/internal/config"
	"github.com/yclin/handwire/internal/track"
	"github.com/yclin/handwire/internal/transport"
	"github.com/yclin/handwire/internal/util"
)

var version = "dev"

func main() {
	// Root context — cancelled on Ctrl+C.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// CLI flags.
	role := flag.String("role", "", "Role: send or recv")
	host := flag.String("host", "", "Destination host (send) or bind host (recv)")
	port := flag.Int("port", 0, "UDP port, 1~65535")
	rate := flag.Float64("rate", 0, "Synthetic frame rate in Hz (send only)")
	hands := flag.Int("hands", -1, "Hands per synthetic frame, 0~2 (send only)")
	lenient := flag.Bool("lenient", false, "Tolerate trailing record fields when decoding (recv only)")
	configPath := flag.String("config", "", "Path to a TOML config file")
	debugMode := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			util.LogError("%v", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	// Explicit flags win over config file values.
	if *role != "" {
		cfg.Role = config.Role(*role)
	}
	if *host != "" {
		cfg.Host = *host
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if *rate != 0 {
		cfg.Rate = *rate
	}
	if *hands >= 0 {
		cfg.Hands = *hands
	}
	if *lenient {
		cfg.Lenient = true
	}
	if *debugMode {
		cfg.Debug = true
	}
	if cfg.Debug {
		util.EnableDebug()
	}

	pterm.Info.Println(fmt.Sprintf("Handwire — v%s", version))
	pterm.Println()

	if cfg.Role == "" {
		cfg = runInteractive(cfg)
	}
	if err := cfg.Validate(); err != nil {
		util.LogError("%v", err)
		os.Exit(1)
	}

	var err error
	switch cfg.Role {
	case config.RoleSend:
		err = runSend(ctx, cfg)
	case config.RoleRecv:
		err = runRecv(ctx, cfg)
	default:
		util.LogError("invalid -role: must be 'send' or 'recv'")
		os.Exit(1)
	}
	if err != nil {
		util.LogError("%v", err)
		os.Exit(1)
	}

	util.LogInfo("stream closed")
}

// ---------------------------------------------------------------------------
// Run modes
// ---------------------------------------------------------------------------

// runSend streams synthetic tracking events to the configured endpoint until
// the context is cancelled. Per-frame send failures are dropped frames, not
// fatal errors.
func runSend(ctx context.Context, cfg config.Config) error {
	sender, err := transport.Dial(ctx, cfg.Addr())
	if err != nil {
		return err
	}
	defer sender.Close()

	src := track.NewSyntheticSource(cfg.Rate, cfg.Hands)
	defer src.Close()

	util.StartStatsReporter(ctx)
	util.LogInfo("streaming %d-hand frames to %s at %.0f Hz", cfg.Hands, cfg.Addr(), cfg.Rate)

	for {
		ev, err := src.Next(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		if err := sender.Send(ev); err != nil {
			util.LogDebug("frame %d dropped: %v", ev.FrameID, err)
		}
	}
}

// runRecv binds the configured port and prints a summary for each decoded
// event at debug level, with the periodic stats line at info level.
func runRecv(ctx context.Context, cfg config.Config) error {
	recv, err := transport.Listen(cfg.Addr(), cfg.Lenient)
	if err != nil {
		return err
	}

	recv.OnEvent(func(ev *track.Event) {
		summary := fmt.Sprintf("frame %d: %d hand(s)", ev.FrameID, len(ev.Hands))
		for i := range ev.Hands {
			h := &ev.Hands[i]
			side := "right"
			if h.IsLeft {
				side = "left"
			}
			summary += fmt.Sprintf(" | %s id=%d palm=(%.1f, %.1f, %.1f)",
				side, h.ID, h.PalmPosition.X, h.PalmPosition.Y, h.PalmPosition.Z)
		}
		util.LogDebug("%s", summary)
	})

	util.StartStatsReporter(ctx)
	util.LogInfo("listening for tracking events on %s", recv.LocalAddr())

	return recv.Run(ctx)
}

// ---------------------------------------------------------------------------
// Interactive mode
// ---------------------------------------------------------------------------

// runInteractive falls back to interactive prompts when no role is provided
// by flags or config file.
func runInteractive(cfg config.Config) config.Config {
	role, _ := pterm.DefaultInteractiveSelect.
		WithOptions([]string{"Send — Stream synthetic tracking frames", "Recv — Receive and print tracking frames"}).
		WithDefaultText("Select your role").
		Show()

	pterm.Println()

	if strings.HasPrefix(role, "Send") {
		cfg.Role = config.RoleSend
		cfg.Host = askText("Destination host", cfg.Host)
		cfg.Port = askPort("Destination UDP port (1 ~ 65535)", cfg.Port)
	} else {
		cfg.Role = config.RoleRecv
		cfg.Host = ""
		cfg.Port = askPort("UDP port to listen on (1 ~ 65535)", cfg.Port)
	}
	return cfg
}

// askText prompts for a non-empty string, offering a default.
func askText(prompt, def string) string {
	raw, _ := pterm.DefaultInteractiveTextInput.
		WithDefaultText(prompt).
		WithDefaultValue(def).
		Show()

	pterm.Println()
	if s := strings.TrimSpace(raw); s != "" {
		return s
	}
	return def
}

// askPort prompts the user for a port number until a valid one is entered.
func askPort(prompt string, def int) int {
	for {
		raw, _ := pterm.DefaultInteractiveTextInput.
			WithDefaultText(prompt).
			WithDefaultValue(strconv.Itoa(def)).
			Show()

		port, err := strconv.Atoi(strings.TrimSpace(raw))
		if err == nil && port >= 1 && port <= 65535 {
			pterm.Println()
			return port
		}

		util.LogWarning("invalid port number: must be 1 ~ 65535")
		pterm.Println()
	}
}
