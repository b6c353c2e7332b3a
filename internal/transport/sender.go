// Package transport moves framed tracking events over UDP, one event per
// datagram, fire-and-forget. The sender never fragments: an envelope that
// exceeds the datagram limit fails the send. The receiver is a blocking
// read loop that unframes and decodes each datagram and hands the typed
// event to a callback; per-datagram errors are counted and logged, never
// fatal to either loop.
package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/yclin/handwire/internal/codec"
	"github.com/yclin/handwire/internal/envelope"
	"github.com/yclin/handwire/internal/track"
	"github.com/yclin/handwire/internal/util"
)

// DefaultPort is the reference deployment's UDP port.
const DefaultPort = 5005

// Tuning constants.
const (
	// MaxDatagramSize is the largest UDP payload we will send (IPv4
	// theoretical maximum). Larger envelopes fail rather than fragment.
	MaxDatagramSize = 65507

	// sendBufferSize keeps the outbox shallow: stale tracking frames have no
	// value, so pressure is resolved by dropping, not queuing.
	sendBufferSize = 8

	// writeTimeout bounds how long one socket write may stall before the
	// frame is dropped.
	writeTimeout = 50 * time.Millisecond
)

// Send-side error taxonomy. Both are per-frame and non-fatal: the producer
// drops the frame and moves on to the next one.
var (
	// ErrWouldBlock means the outbox was full — the socket is not draining
	// fast enough and the frame was dropped.
	ErrWouldBlock = errors.New("transport: send would block, frame dropped")

	// ErrDatagramTooLarge means the framed event exceeds MaxDatagramSize.
	ErrDatagramTooLarge = errors.New("transport: datagram too large")
)

// Sender encodes, frames and transmits tracking events to one UDP endpoint.
// All socket writes happen on a single goroutine fed by a shallow outbox, so
// Send never blocks the tracking callback that drives it.
type Sender struct {
	conn   *net.UDPConn
	outbox chan []byte
	ctx    context.Context
	cancel context.CancelFunc
}

// Dial connects a Sender to addr (host:port). The writer goroutine runs
// until ctx is cancelled or Close is called.
func Dial(ctx context.Context, addr string) (*Sender, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("transport: resolve %s: %w", addr, err)
	}
	conn, err := net.DialUDP("udp", nil, udpAddr)
	if err != nil {
		return nil, fmt.Errorf("transport: dial %s: %w", addr, err)
	}

	sCtx, sCancel := context.WithCancel(ctx)
	s := &Sender{
		conn:   conn,
		outbox: make(chan []byte, sendBufferSize),
		ctx:    sCtx,
		cancel: sCancel,
	}
	go s.loop()
	return s, nil
}

// Send encodes and frames one event and enqueues the datagram. It returns
// ErrWouldBlock (frame dropped) when the outbox is full, ErrDatagramTooLarge
// for oversize envelopes, or a codec error for an invalid event. It never
// waits on the socket.
func (s *Sender) Send(ev *track.Event) error {
	payload, err := codec.Encode(ev)
	if err != nil {
		return err
	}
	datagram, err := envelope.Frame(envelope.Address, payload)
	if err != nil {
		return err
	}
	if len(datagram) > MaxDatagramSize {
		util.Stats.AddDropped()
		return fmt.Errorf("%w: %d bytes", ErrDatagramTooLarge, len(datagram))
	}

	select {
	case s.outbox <- datagram:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		util.Stats.AddDropped()
		return ErrWouldBlock
	}
}

// Close stops the writer goroutine and closes the socket.
func (s *Sender) Close() error {
	s.cancel()
	return s.conn.Close()
}

// loop is the single-writer goroutine. A bounded write deadline turns a
// stalled socket into a dropped frame instead of a stalled producer.
func (s *Sender) loop() {
	for {
		select {
		case datagram := <-s.outbox:
			s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if _, err := s.conn.Write(datagram); err != nil {
				util.Stats.AddDropped()
				util.LogDebug("send failed (%d bytes): %v", len(datagram), err)
				continue
			}
			util.Stats.AddSent(len(datagram))

		case <-s.ctx.Done():
			return
		}
	}
}
