package codec

import (
	"bytes"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/yclin/handwire/internal/geom"
	"github.com/yclin/handwire/internal/track"
)

// Decode parses one wire-encoded tracking event in strict mode: the schema
// is closed, so unknown extra record fields and trailing bytes are rejected.
// Strict is the default decode policy.
func Decode(data []byte) (*track.Event, error) {
	return decode(data, false)
}

// DecodeLenient parses one wire-encoded tracking event, skipping
// unrecognized trailing record fields for forward compatibility. Collection
// arities (hands ≤ 2, fingers == 5, bones == 4) are still enforced — lenient
// mode never reshapes anatomy.
func DecodeLenient(data []byte) (*track.Event, error) {
	return decode(data, true)
}

func decode(data []byte, lenient bool) (*track.Event, error) {
	r := bytes.NewReader(data)
	d := msgpack.NewDecoder(r)

	ev, err := decodeEvent(d, lenient)
	if err != nil {
		return nil, err
	}
	if !lenient && r.Len() > 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrTrailingData, r.Len())
	}
	return ev, nil
}

// recordLen reads a record's array header and validates its arity. In
// lenient mode records may carry extra trailing fields; the returned count
// tells the caller how many to skip after the known fields.
func recordLen(d *msgpack.Decoder, path string, want int, lenient bool) (extra int, err error) {
	n, err := d.DecodeArrayLen()
	if err != nil {
		return 0, classify(path, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: reading %s: nil record", ErrTypeMismatch, path)
	}
	if n < want || (!lenient && n != want) {
		return 0, arityErr(path, want, n)
	}
	return n - want, nil
}

// skipExtra discards lenient-mode trailing record fields.
func skipExtra(d *msgpack.Decoder, path string, extra int) error {
	for i := 0; i < extra; i++ {
		if err := d.Skip(); err != nil {
			return classify(path, err)
		}
	}
	return nil
}

func decodeEvent(d *msgpack.Decoder, lenient bool) (*track.Event, error) {
	// Top-level structure is validated before any nested allocation so
	// malformed input cannot drive memory use.
	extra, err := recordLen(d, "event", eventArity, lenient)
	if err != nil {
		return nil, err
	}

	ev := &track.Event{}
	if ev.FrameID, err = d.DecodeInt64(); err != nil {
		return nil, classify("event.frame_id", err)
	}
	if ev.Timestamp, err = d.DecodeInt64(); err != nil {
		return nil, classify("event.timestamp", err)
	}

	numHands, err := d.DecodeArrayLen()
	if err != nil {
		return nil, classify("event.hands", err)
	}
	if numHands < 0 {
		return nil, fmt.Errorf("%w: reading event.hands: nil array", ErrTypeMismatch)
	}
	if numHands > track.MaxHands {
		return nil, arityErr("event.hands", track.MaxHands, numHands)
	}

	ev.Hands = make([]track.Hand, numHands)
	for i := range ev.Hands {
		if err := decodeHand(d, &ev.Hands[i], lenient); err != nil {
			return nil, err
		}
	}

	if err := skipExtra(d, "event", extra); err != nil {
		return nil, err
	}
	return ev, nil
}

func decodeHand(d *msgpack.Decoder, h *track.Hand, lenient bool) error {
	extra, err := recordLen(d, "hand", handArity, lenient)
	if err != nil {
		return err
	}

	id, err := d.DecodeInt64()
	if err != nil {
		return classify("hand.id", err)
	}
	h.ID = int32(id)

	if h.IsLeft, err = d.DecodeBool(); err != nil {
		return classify("hand.is_left", err)
	}
	for _, f := range []*float32{&h.Confidence, &h.GrabStrength, &h.PinchStrength, &h.PinchDistance, &h.PalmWidth} {
		if *f, err = d.DecodeFloat32(); err != nil {
			return classify("hand", err)
		}
	}
	for _, v := range []*geom.Vector3{&h.PalmPosition, &h.PalmVelocity, &h.PalmNormal, &h.Direction, &h.WristPosition, &h.ElbowPosition} {
		if err := decodeVec3(d, v, lenient); err != nil {
			return err
		}
	}

	numFingers, err := d.DecodeArrayLen()
	if err != nil {
		return classify("hand.fingers", err)
	}
	if numFingers != track.FingersPerHand {
		return arityErr("hand.fingers", track.FingersPerHand, numFingers)
	}
	for i := range h.Fingers {
		if err := decodeFinger(d, &h.Fingers[i], lenient); err != nil {
			return err
		}
	}

	return skipExtra(d, "hand", extra)
}

func decodeFinger(d *msgpack.Decoder, f *track.Finger, lenient bool) error {
	extra, err := recordLen(d, "finger", fingerArity, lenient)
	if err != nil {
		return err
	}

	id, err := d.DecodeInt64()
	if err != nil {
		return classify("finger.id", err)
	}
	f.ID = int32(id)

	if err := decodeVec3(d, &f.TipPosition, lenient); err != nil {
		return err
	}
	if f.IsExtended, err = d.DecodeBool(); err != nil {
		return classify("finger.is_extended", err)
	}

	numBones, err := d.DecodeArrayLen()
	if err != nil {
		return classify("finger.bones", err)
	}
	if numBones != track.BonesPerFinger {
		return arityErr("finger.bones", track.BonesPerFinger, numBones)
	}
	for i := range f.Bones {
		if err := decodeBone(d, &f.Bones[i], lenient); err != nil {
			return err
		}
	}

	return skipExtra(d, "finger", extra)
}

func decodeBone(d *msgpack.Decoder, b *track.Bone, lenient bool) error {
	extra, err := recordLen(d, "bone", boneArity, lenient)
	if err != nil {
		return err
	}

	for _, v := range []*geom.Vector3{&b.Start, &b.End, &b.Center} {
		if err := decodeVec3(d, v, lenient); err != nil {
			return err
		}
	}
	if err := decodeQuat(d, &b.Rotation, lenient); err != nil {
		return err
	}
	if b.Length, err = d.DecodeFloat32(); err != nil {
		return classify("bone.length", err)
	}
	if b.Width, err = d.DecodeFloat32(); err != nil {
		return classify("bone.width", err)
	}

	return skipExtra(d, "bone", extra)
}

func decodeVec3(d *msgpack.Decoder, v *geom.Vector3, lenient bool) error {
	extra, err := recordLen(d, "vector3", vec3Arity, lenient)
	if err != nil {
		return err
	}
	for _, f := range []*float32{&v.X, &v.Y, &v.Z} {
		if *f, err = d.DecodeFloat32(); err != nil {
			return classify("vector3", err)
		}
	}
	return skipExtra(d, "vector3", extra)
}

func decodeQuat(d *msgpack.Decoder, q *geom.Quaternion, lenient bool) error {
	extra, err := recordLen(d, "quaternion", quatArity, lenient)
	if err != nil {
		return err
	}
	for _, f := range []*float32{&q.X, &q.Y, &q.Z, &q.W} {
		if *f, err = d.DecodeFloat32(); err != nil {
			return classify("quaternion", err)
		}
	}
	return skipExtra(d, "quaternion", extra)
}
