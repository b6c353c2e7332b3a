// Package envelope frames an encoded tracking payload for datagram
// transport, using OSC 1.0 message layout: a NUL-terminated address string
// padded to 4 bytes, the type tag string ",b" (one blob argument), then the
// blob as a big-endian int32 length plus 4-byte-padded data.
//
// The convention is deliberately minimal: one address, one blob, no
// batching. All semantic fields live inside the payload.
package envelope

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

// Address is the fixed literal naming the tracking channel.
const Address = "/tracking/event"

// blobTypeTag declares a single binary argument.
const blobTypeTag = ",b"

var (
	// ErrMalformedEnvelope means the bytes are not a structurally valid
	// single-blob message.
	ErrMalformedEnvelope = errors.New("envelope: malformed envelope")

	// ErrUnknownAddress means a well-formed envelope carries an address other
	// than the tracking channel. Receivers skip these rather than fail — a
	// shared port may carry unrelated traffic.
	ErrUnknownAddress = errors.New("envelope: unknown address")
)

// pad4 returns n rounded up to the next multiple of 4.
func pad4(n int) int {
	return (n + 3) &^ 3
}

// Frame wraps one encoded payload as a wire-ready envelope for the given
// address. The address must be a non-empty OSC-style path starting with '/'.
func Frame(address string, payload []byte) ([]byte, error) {
	if address == "" || !strings.HasPrefix(address, "/") || strings.ContainsRune(address, 0) {
		return nil, fmt.Errorf("%w: bad address %q", ErrMalformedEnvelope, address)
	}

	addrLen := pad4(len(address) + 1) // +1 for the NUL terminator
	tagLen := pad4(len(blobTypeTag) + 1)
	blobLen := 4 + pad4(len(payload))

	buf := make([]byte, addrLen+tagLen+blobLen)
	copy(buf, address)
	copy(buf[addrLen:], blobTypeTag)
	binary.BigEndian.PutUint32(buf[addrLen+tagLen:], uint32(len(payload)))
	copy(buf[addrLen+tagLen+4:], payload)
	return buf, nil
}

// Unframe parses a wire envelope back into its address and payload. The
// payload is copied out of the input buffer, so the caller may reuse the
// datagram buffer immediately.
func Unframe(data []byte) (address string, payload []byte, err error) {
	address, rest, err := readPaddedString(data)
	if err != nil {
		return "", nil, err
	}
	if !strings.HasPrefix(address, "/") {
		return "", nil, fmt.Errorf("%w: address %q does not start with '/'", ErrMalformedEnvelope, address)
	}

	tags, rest, err := readPaddedString(rest)
	if err != nil {
		return "", nil, err
	}
	if tags != blobTypeTag {
		return "", nil, fmt.Errorf("%w: type tags %q, want %q", ErrMalformedEnvelope, tags, blobTypeTag)
	}

	if len(rest) < 4 {
		return "", nil, fmt.Errorf("%w: short blob header", ErrMalformedEnvelope)
	}
	size := binary.BigEndian.Uint32(rest)
	rest = rest[4:]
	if size > uint32(len(rest)) {
		return "", nil, fmt.Errorf("%w: blob length %d exceeds %d remaining bytes", ErrMalformedEnvelope, size, len(rest))
	}

	payload = make([]byte, size)
	copy(payload, rest[:size])
	return address, payload, nil
}

// UnframeTracking parses an envelope and additionally routes it: it fails
// with ErrUnknownAddress when the address is not the tracking channel, and
// the payload is not returned in that case.
func UnframeTracking(data []byte) ([]byte, error) {
	address, payload, err := Unframe(data)
	if err != nil {
		return nil, err
	}
	if address != Address {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAddress, address)
	}
	return payload, nil
}

// readPaddedString reads a NUL-terminated string occupying a 4-byte-padded
// slot and returns it with the remaining bytes.
func readPaddedString(data []byte) (s string, rest []byte, err error) {
	for i := 0; i < len(data); i++ {
		if data[i] != 0 {
			continue
		}
		end := pad4(i + 1)
		if end > len(data) {
			return "", nil, fmt.Errorf("%w: string padding runs past buffer", ErrMalformedEnvelope)
		}
		// Padding bytes must all be NUL.
		for j := i; j < end; j++ {
			if data[j] != 0 {
				return "", nil, fmt.Errorf("%w: non-zero string padding", ErrMalformedEnvelope)
			}
		}
		return string(data[:i]), data[end:], nil
	}
	return "", nil, fmt.Errorf("%w: unterminated string", ErrMalformedEnvelope)
}
