package track

import (
	"context"
	"math"
	"time"

	"github.com/yclin/handwire/internal/geom"
)

// Source is the producer boundary: anything that yields one fully populated
// Event per tracking update, with monotonically non-decreasing FrameID and
// Timestamp. The tracking hardware driver lives behind this interface and
// outside this module.
type Source interface {
	Next(ctx context.Context) (*Event, error)
}

// SyntheticSource generates anatomically plausible moving hands at a fixed
// rate. It stands in for tracking hardware in the demo CLI and in tests.
type SyntheticSource struct {
	hands   int
	ticker  *time.Ticker
	start   time.Time
	frameID int64
}

// NewSyntheticSource creates a source emitting events at rateHz with the
// given number of hands (0–2).
func NewSyntheticSource(rateHz float64, hands int) *SyntheticSource {
	if rateHz <= 0 {
		rateHz = 90
	}
	if hands < 0 {
		hands = 0
	}
	if hands > MaxHands {
		hands = MaxHands
	}
	return &SyntheticSource{
		hands:  hands,
		ticker: time.NewTicker(time.Duration(float64(time.Second) / rateHz)),
		start:  time.Now(),
	}
}

// Next blocks until the next tick and returns a fresh Event. FrameID
// increments per call; Timestamp is microseconds since the source started,
// taken from the monotonic clock.
func (s *SyntheticSource) Next(ctx context.Context) (*Event, error) {
	select {
	case <-s.ticker.C:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	s.frameID++
	t := time.Since(s.start)
	ev := &Event{
		FrameID:   s.frameID,
		Timestamp: t.Microseconds(),
		Hands:     make([]Hand, s.hands),
	}
	for i := range ev.Hands {
		ev.Hands[i] = syntheticHand(int32(i+1), i == 0, t.Seconds())
	}
	return ev, nil
}

// Close stops the tick timer.
func (s *SyntheticSource) Close() {
	s.ticker.Stop()
}

// syntheticHand builds one hand hovering above the origin, waving slowly so
// consecutive frames differ. Units follow the wire contract: millimeters,
// mm/s, with +Y up.
func syntheticHand(id int32, left bool, secs float64) Hand {
	side := float32(1)
	if left {
		side = -1
	}
	sway := float32(math.Sin(secs*2)) * 40

	palm := geom.Vector3{X: side*90 + sway, Y: 220, Z: -30}
	h := Hand{
		ID:            id,
		IsLeft:        left,
		Confidence:    0.95,
		GrabStrength:  float32(math.Abs(math.Sin(secs))) * 0.5,
		PinchStrength: float32(math.Abs(math.Cos(secs))) * 0.3,
		PinchDistance: 40,
		PalmWidth:     85,
		PalmPosition:  palm,
		PalmVelocity:  geom.Vector3{X: float32(math.Cos(secs*2)) * 80},
		PalmNormal:    geom.Vector3{Y: -1},
		Direction:     geom.Vector3{Z: -1},
		WristPosition: geom.Vector3{X: palm.X, Y: palm.Y - 20, Z: palm.Z + 50},
		ElbowPosition: geom.Vector3{X: palm.X, Y: palm.Y - 60, Z: palm.Z + 250},
	}
	for f := range h.Fingers {
		h.Fingers[f] = syntheticFinger(int32(f), palm)
	}
	return h
}

// syntheticFinger chains four bones outward from the palm toward the viewer.
func syntheticFinger(id int32, palm geom.Vector3) Finger {
	spread := float32(id-2) * 18 // fan the digits around the middle finger
	lengths := [BonesPerFinger]float32{60, 40, 25, 18}

	fin := Finger{
		ID:         id,
		IsExtended: true,
	}
	joint := geom.Vector3{X: palm.X + spread, Y: palm.Y, Z: palm.Z}
	for b := range fin.Bones {
		next := geom.Vector3{X: joint.X, Y: joint.Y, Z: joint.Z - lengths[b]}
		fin.Bones[b] = Bone{
			Start:    joint,
			End:      next,
			Center:   geom.Vector3{X: joint.X, Y: joint.Y, Z: (joint.Z + next.Z) / 2},
			Rotation: geom.Quaternion{W: 1},
			Length:   lengths[b],
			Width:    12,
		}
		joint = next
	}
	fin.TipPosition = joint
	return fin
}
