// Package geom defines the fixed-size numeric value types shared by the
// skeletal data model: 3D vectors and quaternions. They carry no behavior
// beyond field access — the codec serializes each component independently
// in declaration order.
package geom

// Vector3 is a position (millimeters) or direction. Direction/normal fields
// should be unit-length, but nothing in this package or the codec enforces
// magnitude.
type Vector3 struct {
	X float32
	Y float32
	Z float32
}

// Quaternion is a bone rotation. The codec passes all four components
// through untouched — no renormalization.
type Quaternion struct {
	X float32
	Y float32
	Z float32
	W float32
}
