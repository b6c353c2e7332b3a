package transport

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/yclin/handwire/internal/codec"
	"github.com/yclin/handwire/internal/envelope"
	"github.com/yclin/handwire/internal/track"
	"github.com/yclin/handwire/internal/util"
)

// Receiver binds a UDP socket and turns each arriving datagram into one
// decoded tracking event: parse envelope → decode payload → hand off the
// typed value. Delivery order is whatever the network provides; duplicates
// and gaps are the consumer's problem.
type Receiver struct {
	conn    *net.UDPConn
	handler func(*track.Event)
	lenient bool
}

// Listen binds a Receiver to addr (host:port or ":port"). When lenient is
// true, payloads are decoded with trailing-field tolerance; arity violations
// are still rejected.
func Listen(addr string, lenient bool) (*Receiver, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("transport: resolve %s: %w", addr, err)
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, fmt.Errorf("transport: listen %s: %w", addr, err)
	}
	return &Receiver{conn: conn, lenient: lenient}, nil
}

// LocalAddr returns the bound socket address (useful with ":0").
func (r *Receiver) LocalAddr() net.Addr {
	return r.conn.LocalAddr()
}

// OnEvent registers the callback invoked for every decoded event. It must be
// called before Run. The callback runs on the receive goroutine, so slow
// consumers should hand off to their own worker.
func (r *Receiver) OnEvent(fn func(*track.Event)) {
	r.handler = fn
}

// Run blocks reading datagrams until ctx is cancelled or Close is called.
// Per-datagram failures are local: foreign addresses are skipped silently,
// malformed envelopes and decode errors are logged and counted, and the loop
// always continues.
func (r *Receiver) Run(ctx context.Context) error {
	// Closing the socket is the only cancellation mechanism the blocking
	// read needs.
	go func() {
		<-ctx.Done()
		r.conn.Close()
	}()

	buf := make([]byte, MaxDatagramSize)
	for {
		n, _, err := r.conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("transport: read: %w", err)
		}

		r.dispatch(buf[:n])
	}
}

// Close unblocks Run by closing the socket.
func (r *Receiver) Close() error {
	return r.conn.Close()
}

// dispatch unframes, decodes and delivers a single datagram.
func (r *Receiver) dispatch(datagram []byte) {
	payload, err := envelope.UnframeTracking(datagram)
	if err != nil {
		util.Stats.AddBadFrame()
		if errors.Is(err, envelope.ErrUnknownAddress) {
			// A shared port may carry unrelated traffic.
			util.LogDebug("skipping datagram: %v", err)
		} else {
			util.LogWarning("malformed envelope (%d bytes): %v", len(datagram), err)
		}
		return
	}

	decodeFn := codec.Decode
	if r.lenient {
		decodeFn = codec.DecodeLenient
	}
	ev, err := decodeFn(payload)
	if err != nil {
		util.Stats.AddBadFrame()
		util.LogWarning("discarding payload (%d bytes): %v", len(payload), err)
		return
	}

	util.Stats.AddRecv(len(datagram))
	if r.handler != nil {
		r.handler(ev)
	}
}
