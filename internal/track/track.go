// Package track defines the hand-tracking data model: the strict
// Bone → Finger → Hand → Event tree that one UDP datagram carries.
// Fingers and bones are fixed-size arrays so the anatomical arity
// (5 fingers, 4 bones) is visible in the types themselves.
package track

import "github.com/yclin/handwire/internal/geom"

// Anatomical finger indices within Hand.Fingers.
const (
	FingerThumb = iota
	FingerIndex
	FingerMiddle
	FingerRing
	FingerPinky

	FingersPerHand = 5
)

// Anatomical bone indices within Finger.Bones.
const (
	BoneMetacarpal = iota
	BoneProximal
	BoneIntermediate
	BoneDistal

	BonesPerFinger = 4
)

// MaxHands is the most hands one Event may carry.
const MaxHands = 2

// Bone is a single finger bone segment. Center is expected to lie between
// Start and End, but that is the producer's responsibility — the codec only
// guarantees lossless round-trip of the fields.
type Bone struct {
	Start    geom.Vector3 // joint closest to the wrist, mm
	End      geom.Vector3 // joint closest to the tip, mm
	Center   geom.Vector3
	Rotation geom.Quaternion
	Length   float32 // mm
	Width    float32 // mm
}

// Finger is one digit with its four bones, ordered metacarpal → distal.
type Finger struct {
	ID          int32 // 0–4, thumb..pinky
	TipPosition geom.Vector3
	IsExtended  bool
	Bones       [BonesPerFinger]Bone
}

// Hand is one tracked hand. ID is persistent across frames while the hand
// stays tracked. Confidence, GrabStrength and PinchStrength are in [0,1];
// PinchDistance and PalmWidth are in mm; PalmVelocity is mm/s.
type Hand struct {
	ID            int32
	IsLeft        bool
	Confidence    float32
	GrabStrength  float32
	PinchStrength float32
	PinchDistance float32
	PalmWidth     float32
	PalmPosition  geom.Vector3
	PalmVelocity  geom.Vector3
	PalmNormal    geom.Vector3
	Direction     geom.Vector3
	WristPosition geom.Vector3
	ElbowPosition geom.Vector3
	Fingers       [FingersPerHand]Finger
}

// Event is one tracking frame — the unit of transport, exactly one per
// datagram. FrameID and Timestamp (microseconds) are monotonically
// non-decreasing across a session but not guaranteed contiguous: consumers
// must tolerate gaps. Hands holds 0–2 entries with no ordering or
// handedness-uniqueness guarantee.
//
// An Event is built fresh per frame by the producer and never mutated after
// construction; a decoded Event is owned exclusively by its consumer.
type Event struct {
	FrameID   int64
	Timestamp int64
	Hands     []Hand
}

// Equal reports field-for-field equality. Hands compare by value; a nil and
// an empty hands slice are considered equal.
func (e *Event) Equal(other *Event) bool {
	if e == nil || other == nil {
		return e == other
	}
	if e.FrameID != other.FrameID || e.Timestamp != other.Timestamp {
		return false
	}
	if len(e.Hands) != len(other.Hands) {
		return false
	}
	for i := range e.Hands {
		if e.Hands[i] != other.Hands[i] {
			return false
		}
	}
	return true
}
