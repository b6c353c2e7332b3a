// Package codec implements the wire codec for tracking events: a compact,
// self-describing MessagePack encoding of the Bone → Finger → Hand → Event
// tree.
//
// Every record is a fixed-arity msgpack array in schema field order — no
// string keys appear on the wire. Integers use the smallest msgpack width
// that fits; floats are always the explicit float32 tag. Encoding the same
// logical value twice yields byte-identical output.
//
// The package is stateless and reentrant: concurrent encodes and decodes on
// independent buffers need no locking.
package codec

import (
	"bytes"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/yclin/handwire/internal/geom"
	"github.com/yclin/handwire/internal/track"
)

// Record arities (msgpack array lengths) for each schema level.
const (
	eventArity  = 3  // frame id, timestamp, hands
	handArity   = 14 // id, is_left, 5 scalars, 6 vectors, fingers
	fingerArity = 4  // id, tip, is_extended, bones
	boneArity   = 6  // start, end, center, rotation, length, width
	vec3Arity   = 3
	quatArity   = 4
)

// Encode serializes one tracking event into its wire form. It fails only if
// the event itself violates the hands arity; all other inputs encode
// deterministically.
func Encode(ev *track.Event) ([]byte, error) {
	if len(ev.Hands) > track.MaxHands {
		return nil, arityErr("event.hands", track.MaxHands, len(ev.Hands))
	}

	var buf bytes.Buffer
	e := msgpack.NewEncoder(&buf)
	if err := encodeEvent(e, ev); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeEvent(e *msgpack.Encoder, ev *track.Event) error {
	if err := e.EncodeArrayLen(eventArity); err != nil {
		return err
	}
	if err := e.EncodeInt(ev.FrameID); err != nil {
		return err
	}
	if err := e.EncodeInt(ev.Timestamp); err != nil {
		return err
	}
	if err := e.EncodeArrayLen(len(ev.Hands)); err != nil {
		return err
	}
	for i := range ev.Hands {
		if err := encodeHand(e, &ev.Hands[i]); err != nil {
			return err
		}
	}
	return nil
}

func encodeHand(e *msgpack.Encoder, h *track.Hand) error {
	if err := e.EncodeArrayLen(handArity); err != nil {
		return err
	}
	if err := e.EncodeInt(int64(h.ID)); err != nil {
		return err
	}
	if err := e.EncodeBool(h.IsLeft); err != nil {
		return err
	}
	for _, f := range []float32{h.Confidence, h.GrabStrength, h.PinchStrength, h.PinchDistance, h.PalmWidth} {
		if err := e.EncodeFloat32(f); err != nil {
			return err
		}
	}
	for _, v := range []geom.Vector3{h.PalmPosition, h.PalmVelocity, h.PalmNormal, h.Direction, h.WristPosition, h.ElbowPosition} {
		if err := encodeVec3(e, v); err != nil {
			return err
		}
	}
	if err := e.EncodeArrayLen(track.FingersPerHand); err != nil {
		return err
	}
	for i := range h.Fingers {
		if err := encodeFinger(e, &h.Fingers[i]); err != nil {
			return err
		}
	}
	return nil
}

func encodeFinger(e *msgpack.Encoder, f *track.Finger) error {
	if err := e.EncodeArrayLen(fingerArity); err != nil {
		return err
	}
	if err := e.EncodeInt(int64(f.ID)); err != nil {
		return err
	}
	if err := encodeVec3(e, f.TipPosition); err != nil {
		return err
	}
	if err := e.EncodeBool(f.IsExtended); err != nil {
		return err
	}
	if err := e.EncodeArrayLen(track.BonesPerFinger); err != nil {
		return err
	}
	for i := range f.Bones {
		if err := encodeBone(e, &f.Bones[i]); err != nil {
			return err
		}
	}
	return nil
}

func encodeBone(e *msgpack.Encoder, b *track.Bone) error {
	if err := e.EncodeArrayLen(boneArity); err != nil {
		return err
	}
	for _, v := range []geom.Vector3{b.Start, b.End, b.Center} {
		if err := encodeVec3(e, v); err != nil {
			return err
		}
	}
	if err := encodeQuat(e, b.Rotation); err != nil {
		return err
	}
	if err := e.EncodeFloat32(b.Length); err != nil {
		return err
	}
	return e.EncodeFloat32(b.Width)
}

func encodeVec3(e *msgpack.Encoder, v geom.Vector3) error {
	if err := e.EncodeArrayLen(vec3Arity); err != nil {
		return err
	}
	for _, f := range []float32{v.X, v.Y, v.Z} {
		if err := e.EncodeFloat32(f); err != nil {
			return err
		}
	}
	return nil
}

func encodeQuat(e *msgpack.Encoder, q geom.Quaternion) error {
	if err := e.EncodeArrayLen(quatArity); err != nil {
		return err
	}
	for _, f := range []float32{q.X, q.Y, q.Z, q.W} {
		if err := e.EncodeFloat32(f); err != nil {
			return err
		}
	}
	return nil
}
