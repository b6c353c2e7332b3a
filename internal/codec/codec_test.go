package codec_test

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/yclin/handwire/internal/codec"
	"github.com/yclin/handwire/internal/geom"
	"github.com/yclin/handwire/internal/track"
)

// makeBone fills a bone with distinct values derived from seed so that any
// field swap or loss shows up in round-trip comparison.
func makeBone(seed float32) track.Bone {
	return track.Bone{
		Start:    geom.Vector3{X: seed, Y: seed + 1, Z: seed + 2},
		End:      geom.Vector3{X: seed + 3, Y: seed + 4, Z: seed + 5},
		Center:   geom.Vector3{X: seed + 1.5, Y: seed + 2.5, Z: seed + 3.5},
		Rotation: geom.Quaternion{X: 0.1, Y: 0.2, Z: 0.3, W: 0.9},
		Length:   seed * 2,
		Width:    12.5,
	}
}

func makeFinger(id int32) track.Finger {
	f := track.Finger{
		ID:          id,
		TipPosition: geom.Vector3{X: float32(id) * 10, Y: 200, Z: -40},
		IsExtended:  id%2 == 0,
	}
	for b := range f.Bones {
		f.Bones[b] = makeBone(float32(id*10 + int32(b)))
	}
	return f
}

func makeHand(id int32, left bool) track.Hand {
	h := track.Hand{
		ID:            id,
		IsLeft:        left,
		Confidence:    0.98,
		GrabStrength:  0.15,
		PinchStrength: 0.05,
		PinchDistance: 45.3,
		PalmWidth:     85.5,
		PalmPosition:  geom.Vector3{X: 120.5, Y: 200.3, Z: -50.2},
		PalmVelocity:  geom.Vector3{X: -12, Y: 3.5, Z: 0.25},
		PalmNormal:    geom.Vector3{Y: -1},
		Direction:     geom.Vector3{Z: -1},
		WristPosition: geom.Vector3{X: 118, Y: 180, Z: 10},
		ElbowPosition: geom.Vector3{X: 110, Y: 120, Z: 240},
	}
	for f := range h.Fingers {
		h.Fingers[f] = makeFinger(int32(f))
	}
	return h
}

func makeEvent(hands int) *track.Event {
	ev := &track.Event{
		FrameID:   12345,
		Timestamp: 1699564823456789,
		Hands:     make([]track.Hand, hands),
	}
	for i := range ev.Hands {
		ev.Hands[i] = makeHand(int32(42+i), i == 0)
	}
	return ev
}

// TestRoundTrip verifies Decode(Encode(e)) == e field-for-field for zero,
// one and two hands.
func TestRoundTrip(t *testing.T) {
	for hands := 0; hands <= track.MaxHands; hands++ {
		t.Run(fmt.Sprintf("%d hands", hands), func(t *testing.T) {
			original := makeEvent(hands)

			data, err := codec.Encode(original)
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}

			decoded, err := codec.Decode(data)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}

			if !decoded.Equal(original) {
				t.Errorf("round-trip mismatch:\ngot  %+v\nwant %+v", decoded, original)
			}
		})
	}
}

// TestZeroHandsDecodesToEmptySlice verifies an empty hands sequence
// round-trips to an empty slice, not nil.
func TestZeroHandsDecodesToEmptySlice(t *testing.T) {
	data, err := codec.Encode(makeEvent(0))
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	decoded, err := codec.Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if decoded.Hands == nil {
		t.Error("Hands is nil, want empty slice")
	}
	if len(decoded.Hands) != 0 {
		t.Errorf("Hands has %d entries, want 0", len(decoded.Hands))
	}
}

// TestEncodeDeterminism verifies equal events produce byte-identical output.
func TestEncodeDeterminism(t *testing.T) {
	a, err := codec.Encode(makeEvent(2))
	if err != nil {
		t.Fatalf("first Encode failed: %v", err)
	}
	b, err := codec.Encode(makeEvent(2))
	if err != nil {
		t.Fatalf("second Encode failed: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Error("equal events encoded to different bytes")
	}
}

// TestBoundaryValues verifies strengths at exactly 0 and 1 and negative
// coordinates round-trip exactly.
func TestBoundaryValues(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*track.Hand)
		check  func(*track.Hand) bool
	}{
		{
			name:   "confidence zero",
			mutate: func(h *track.Hand) { h.Confidence = 0.0 },
			check:  func(h *track.Hand) bool { return h.Confidence == 0.0 },
		},
		{
			name:   "confidence one",
			mutate: func(h *track.Hand) { h.Confidence = 1.0 },
			check:  func(h *track.Hand) bool { return h.Confidence == 1.0 },
		},
		{
			name:   "grab strength zero",
			mutate: func(h *track.Hand) { h.GrabStrength = 0.0 },
			check:  func(h *track.Hand) bool { return h.GrabStrength == 0.0 },
		},
		{
			name:   "pinch strength one",
			mutate: func(h *track.Hand) { h.PinchStrength = 1.0 },
			check:  func(h *track.Hand) bool { return h.PinchStrength == 1.0 },
		},
		{
			name:   "negative coordinates",
			mutate: func(h *track.Hand) { h.PalmPosition = geom.Vector3{X: -120.5, Y: -0.001, Z: -9999} },
			check: func(h *track.Hand) bool {
				return h.PalmPosition == geom.Vector3{X: -120.5, Y: -0.001, Z: -9999}
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			original := makeEvent(1)
			tc.mutate(&original.Hands[0])

			data, err := codec.Encode(original)
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}
			decoded, err := codec.Decode(data)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}

			if !tc.check(&decoded.Hands[0]) {
				t.Errorf("boundary value did not round-trip exactly: %+v", decoded.Hands[0])
			}
			if !decoded.Equal(original) {
				t.Error("full event mismatch after boundary mutation")
			}
		})
	}
}

// TestTruncationSafety verifies that decoding every strict prefix of a valid
// encoding fails with ErrTruncated — never succeeds, never panics.
func TestTruncationSafety(t *testing.T) {
	data, err := codec.Encode(makeEvent(1))
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	for n := 0; n < len(data); n++ {
		_, err := codec.Decode(data[:n])
		if err == nil {
			t.Fatalf("prefix of %d/%d bytes decoded successfully", n, len(data))
		}
		if !errors.Is(err, codec.ErrTruncated) {
			t.Fatalf("prefix of %d/%d bytes: got %v, want ErrTruncated", n, len(data), err)
		}
	}
}

// encodeHandWithFingers writes a hand record whose fingers array has the
// given length, to exercise arity enforcement.
func encodeHandWithFingers(t *testing.T, e *msgpack.Encoder, fingers int) {
	t.Helper()
	h := makeHand(1, true)

	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("craft payload: %v", err)
		}
	}

	must(e.EncodeArrayLen(14))
	must(e.EncodeInt(int64(h.ID)))
	must(e.EncodeBool(h.IsLeft))
	for i := 0; i < 5; i++ {
		must(e.EncodeFloat32(0.5))
	}
	for i := 0; i < 6; i++ {
		encodeVec3(t, e, geom.Vector3{X: 1, Y: 2, Z: 3})
	}
	must(e.EncodeArrayLen(fingers))
	for i := 0; i < fingers; i++ {
		encodeFinger(t, e, int32(i))
	}
}

func encodeFinger(t *testing.T, e *msgpack.Encoder, id int32) {
	t.Helper()
	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("craft payload: %v", err)
		}
	}
	must(e.EncodeArrayLen(4))
	must(e.EncodeInt(int64(id)))
	encodeVec3(t, e, geom.Vector3{X: 9})
	must(e.EncodeBool(true))
	must(e.EncodeArrayLen(4))
	for b := 0; b < 4; b++ {
		must(e.EncodeArrayLen(6))
		for v := 0; v < 3; v++ {
			encodeVec3(t, e, geom.Vector3{})
		}
		must(e.EncodeArrayLen(4))
		for q := 0; q < 4; q++ {
			must(e.EncodeFloat32(0))
		}
		must(e.EncodeFloat32(30))
		must(e.EncodeFloat32(12))
	}
}

func encodeVec3(t *testing.T, e *msgpack.Encoder, v geom.Vector3) {
	t.Helper()
	for _, err := range []error{
		e.EncodeArrayLen(3),
		e.EncodeFloat32(v.X),
		e.EncodeFloat32(v.Y),
		e.EncodeFloat32(v.Z),
	} {
		if err != nil {
			t.Fatalf("craft payload: %v", err)
		}
	}
}

// craftEvent builds a wire payload with a single hand whose fingers array
// has the given length.
func craftEvent(t *testing.T, fingers int) []byte {
	t.Helper()
	var buf bytes.Buffer
	e := msgpack.NewEncoder(&buf)

	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("craft payload: %v", err)
		}
	}
	must(e.EncodeArrayLen(3))
	must(e.EncodeInt(7))
	must(e.EncodeInt(1000))
	must(e.EncodeArrayLen(1))
	encodeHandWithFingers(t, e, fingers)
	return buf.Bytes()
}

// TestArityEnforcement verifies a hand with 4 or 6 fingers is rejected with
// ErrArity in strict AND lenient mode.
func TestArityEnforcement(t *testing.T) {
	for _, fingers := range []int{4, 6} {
		t.Run(fmt.Sprintf("%d fingers", fingers), func(t *testing.T) {
			data := craftEvent(t, fingers)

			for _, mode := range []struct {
				name   string
				decode func([]byte) (*track.Event, error)
			}{
				{"strict", codec.Decode},
				{"lenient", codec.DecodeLenient},
			} {
				_, err := mode.decode(data)
				if !errors.Is(err, codec.ErrArity) {
					t.Errorf("%s: got %v, want ErrArity", mode.name, err)
				}

				var arity *codec.ArityError
				if errors.As(err, &arity) {
					if arity.Path != "hand.fingers" || arity.Got != fingers {
						t.Errorf("%s: unexpected arity detail: %+v", mode.name, arity)
					}
				} else {
					t.Errorf("%s: error is not an *ArityError: %v", mode.name, err)
				}
			}
		})
	}

	// Control: the same crafted layout with 5 fingers decodes fine.
	if _, err := codec.Decode(craftEvent(t, 5)); err != nil {
		t.Fatalf("control payload with 5 fingers failed: %v", err)
	}
}

// TestTooManyHands verifies a three-hand payload is rejected before hand
// decoding begins.
func TestTooManyHands(t *testing.T) {
	var buf bytes.Buffer
	e := msgpack.NewEncoder(&buf)
	if err := e.EncodeArrayLen(3); err != nil {
		t.Fatal(err)
	}
	if err := e.EncodeInt(1); err != nil {
		t.Fatal(err)
	}
	if err := e.EncodeInt(2); err != nil {
		t.Fatal(err)
	}
	if err := e.EncodeArrayLen(3); err != nil { // 3 hands > MaxHands
		t.Fatal(err)
	}

	_, err := codec.Decode(buf.Bytes())
	if !errors.Is(err, codec.ErrArity) {
		t.Fatalf("got %v, want ErrArity", err)
	}
}

// TestTypeMismatch verifies wrong tag bytes are classified as
// ErrTypeMismatch, not truncation.
func TestTypeMismatch(t *testing.T) {
	testCases := []struct {
		name  string
		bytes func(t *testing.T) []byte
	}{
		{
			name: "top level is a string",
			bytes: func(t *testing.T) []byte {
				var buf bytes.Buffer
				if err := msgpack.NewEncoder(&buf).EncodeString("nope"); err != nil {
					t.Fatal(err)
				}
				return buf.Bytes()
			},
		},
		{
			name: "frame id is a bool",
			bytes: func(t *testing.T) []byte {
				var buf bytes.Buffer
				e := msgpack.NewEncoder(&buf)
				for _, err := range []error{e.EncodeArrayLen(3), e.EncodeBool(true)} {
					if err != nil {
						t.Fatal(err)
					}
				}
				return buf.Bytes()
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := codec.Decode(tc.bytes(t))
			if !errors.Is(err, codec.ErrTypeMismatch) {
				t.Errorf("got %v, want ErrTypeMismatch", err)
			}
		})
	}
}

// TestLenientSkipsTrailingFields verifies a future-versioned record (extra
// trailing field) is rejected in strict mode but accepted leniently.
func TestLenientSkipsTrailingFields(t *testing.T) {
	// Event record with a 4th element appended.
	var buf bytes.Buffer
	e := msgpack.NewEncoder(&buf)
	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
	}
	must(e.EncodeArrayLen(4))
	must(e.EncodeInt(99))
	must(e.EncodeInt(123456))
	must(e.EncodeArrayLen(0))
	must(e.EncodeString("future-field"))

	if _, err := codec.Decode(buf.Bytes()); !errors.Is(err, codec.ErrArity) {
		t.Errorf("strict: got %v, want ErrArity", err)
	}

	ev, err := codec.DecodeLenient(buf.Bytes())
	if err != nil {
		t.Fatalf("lenient: %v", err)
	}
	if ev.FrameID != 99 || ev.Timestamp != 123456 || len(ev.Hands) != 0 {
		t.Errorf("lenient decode mismatch: %+v", ev)
	}
}

// TestTrailingData verifies bytes after a complete event fail strict decode.
func TestTrailingData(t *testing.T) {
	data, err := codec.Encode(makeEvent(0))
	if err != nil {
		t.Fatal(err)
	}
	data = append(data, 0x00)

	if _, err := codec.Decode(data); !errors.Is(err, codec.ErrTrailingData) {
		t.Errorf("got %v, want ErrTrailingData", err)
	}
}

// TestEncodeRejectsTooManyHands verifies the encoder enforces the hands
// arity before producing any bytes.
func TestEncodeRejectsTooManyHands(t *testing.T) {
	ev := makeEvent(2)
	ev.Hands = append(ev.Hands, makeHand(99, false))

	if _, err := codec.Encode(ev); !errors.Is(err, codec.ErrArity) {
		t.Errorf("got %v, want ErrArity", err)
	}
}
