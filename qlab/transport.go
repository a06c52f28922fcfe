package qlab

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/charmbracelet/log"
	"github.com/hypebeast/go-osc/osc"
)

// Transport moves OSC messages to and from QLab. Sends are fire-and-forget
// with no acknowledgement, ordering or retry.
type Transport interface {
	// Send transmits msg without waiting for anything.
	Send(msg *osc.Message) error
	// PollOnce waits for at most one inbound packet and hands it to d. It
	// returns nil when nothing arrived before the poll timeout.
	PollOnce(d osc.Dispatcher) error
	// Close releases the sockets.
	Close() error
}

// UDPTransport sends through a go-osc client and receives on a fixed local
// port, which is how QLab delivers UDP replies. Each poll is a single
// go-osc ReceivePacket bounded by the server's ReadTimeout.
type UDPTransport struct {
	client *osc.Client
	server *osc.Server
	conn   net.PacketConn
}

// NewUDPTransport binds the reply socket immediately so that no reply can
// arrive before something is listening for it.
func NewUDPTransport(cfg Config) (*UDPTransport, error) {
	listenAddr := fmt.Sprintf("%s:%d", cfg.ListenHost, cfg.ReplyPort)
	conn, err := net.ListenPacket("udp", listenAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to bind reply port %s: %w", listenAddr, err)
	}

	pollTimeout := cfg.PollTimeout
	if pollTimeout <= 0 {
		pollTimeout = 250 * time.Millisecond
	}

	log.Debug("OSC transport ready", "qlab", fmt.Sprintf("%s:%d", cfg.Host, cfg.Port), "reply", conn.LocalAddr().String())
	return &UDPTransport{
		client: osc.NewClient(cfg.Host, cfg.Port),
		server: &osc.Server{Addr: listenAddr, ReadTimeout: pollTimeout},
		conn:   conn,
	}, nil
}

// LocalAddr returns the address replies must be sent to.
func (t *UDPTransport) LocalAddr() net.Addr {
	return t.conn.LocalAddr()
}

func (t *UDPTransport) Send(msg *osc.Message) error {
	return t.client.Send(msg)
}

func (t *UDPTransport) PollOnce(d osc.Dispatcher) error {
	packet, err := t.server.ReceivePacket(t.conn)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) {
			if netErr.Timeout() {
				return nil
			}
			return err
		}
		if errors.Is(err, net.ErrClosed) {
			return err
		}
		log.Warn("Dropping malformed OSC packet", "error", err)
		return nil
	}
	if packet == nil {
		return nil
	}
	d.Dispatch(packet)
	return nil
}

func (t *UDPTransport) Close() error {
	return t.conn.Close()
}
