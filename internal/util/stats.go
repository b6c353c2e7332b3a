package util

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/pterm/pterm"
)

// ──────────────────────────────────────────────────────────────────────────────
// Global stats singleton
// ──────────────────────────────────────────────────────────────────────────────

// Stats is the process-wide frame/traffic counter. Per-datagram errors are
// counted here instead of failing the producer or receive loop.
var Stats = &stats{}

type stats struct {
	FramesSent    atomic.Int64 // datagrams handed to the socket
	FramesDropped atomic.Int64 // frames lost to send pressure or oversize
	FramesRecv    atomic.Int64 // datagrams successfully unframed + decoded
	FramesBad     atomic.Int64 // datagrams discarded (malformed, foreign address, decode error)
	BytesSent     atomic.Int64
	BytesRecv     atomic.Int64
}

func (s *stats) AddSent(n int)  { s.FramesSent.Add(1); s.BytesSent.Add(int64(n)) }
func (s *stats) AddDropped()    { s.FramesDropped.Add(1) }
func (s *stats) AddRecv(n int)  { s.FramesRecv.Add(1); s.BytesRecv.Add(int64(n)) }
func (s *stats) AddBadFrame()   { s.FramesBad.Add(1) }

// ──────────────────────────────────────────────────────────────────────────────
// Periodic reporter
// ──────────────────────────────────────────────────────────────────────────────

// reportInterval is how often the stats reporter logs a summary line.
const reportInterval = 10 * time.Second

// StartStatsReporter launches a goroutine that logs stream statistics every
// 10 seconds while there is activity. It stops when ctx is cancelled.
func StartStatsReporter(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(reportInterval)
		defer ticker.Stop()

		var prevSent, prevRecv, prevSentB, prevRecvB, prevDropped, prevBad int64
		for {
			select {
			case <-ticker.C:
				sent := Stats.FramesSent.Load()
				recv := Stats.FramesRecv.Load()
				sentB := Stats.BytesSent.Load()
				recvB := Stats.BytesRecv.Load()
				dropped := Stats.FramesDropped.Load()
				bad := Stats.FramesBad.Load()

				secs := reportInterval.Seconds()
				outHz := float64(sent-prevSent) / secs
				inHz := float64(recv-prevRecv) / secs
				outBps := float64(sentB-prevSentB) / secs
				inBps := float64(recvB-prevRecvB) / secs

				if sent != prevSent || recv != prevRecv || dropped != prevDropped || bad != prevBad {
					pterm.DefaultLogger.Info(formatStats(outHz, inHz, outBps, inBps, dropped-prevDropped, bad-prevBad))
				}

				prevSent, prevRecv = sent, recv
				prevSentB, prevRecvB = sentB, recvB
				prevDropped, prevBad = dropped, bad

			case <-ctx.Done():
				return
			}
		}
	}()
}

// byteUnits defines the units for formatting byte counts in a human-readable way.
var byteUnits = []string{"B", "KiB", "MiB", "GiB", "TiB", "PiB"}

// formatBytes formats a byte count into a human-readable string with fixed width (exactly 8 chars)
// for example: "99.0   B", " 1.5 KiB", " 0.1 MiB", "98.9 GiB", etc.
func formatBytes(b float64) string {
	unitIdx := 0

	// to prevent "100.0 KiB", which is 9 chars
	for b > 99 && unitIdx < 5 {
		b /= 1024
		unitIdx++
	}

	return fmt.Sprintf("%4.1f %3s", b, byteUnits[unitIdx])
}

// formatStats returns a formatted string of the current stats for display in the logger.
func formatStats(outHz, inHz, outBps, inBps float64, dropped, bad int64) string {
	return fmt.Sprintf("Out: %5.1f fps %s/s | In: %5.1f fps %s/s | Dropped: %d | Bad: %d",
		outHz,
		formatBytes(outBps),
		inHz,
		formatBytes(inBps),
		dropped,
		bad,
	)
}
