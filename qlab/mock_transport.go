package qlab

import (
	"sync"

	"github.com/hypebeast/go-osc/osc"
)

// MockTransport is an in-memory Transport. Every sent message is answered by
// a MockWorkspace and the replies are queued for PollOnce.
type MockTransport struct {
	Workspace *MockWorkspace

	mu      sync.Mutex
	sent    []*osc.Message
	inbox   []osc.Packet
	dropped map[string]bool
	closed  bool
}

// NewMockTransport creates a transport backed by a fresh MockWorkspace
func NewMockTransport() *MockTransport {
	return &MockTransport{
		Workspace: NewMockWorkspace(),
		dropped:   make(map[string]bool),
	}
}

// NewMockClient returns a client over a MockTransport with timings suited to
// tests.
func NewMockClient(cfg Config) (*Client, *MockTransport) {
	transport := NewMockTransport()
	return NewClient(transport, cfg), transport
}

// Drop makes the workspace stay silent for requests to address
func (t *MockTransport) Drop(address string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.dropped[address] = true
}

// Restore undoes Drop for address
func (t *MockTransport) Restore(address string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.dropped, address)
}

// Inject queues a packet as if it had arrived from QLab
func (t *MockTransport) Inject(packet osc.Packet) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.inbox = append(t.inbox, packet)
}

func (t *MockTransport) Send(msg *osc.Message) error {
	t.mu.Lock()
	t.sent = append(t.sent, msg)
	dropped := t.dropped[msg.Address]
	t.mu.Unlock()

	replies := t.Workspace.Handle(msg)
	if dropped {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	for _, reply := range replies {
		t.inbox = append(t.inbox, reply)
	}
	return nil
}

func (t *MockTransport) PollOnce(d osc.Dispatcher) error {
	t.mu.Lock()
	if len(t.inbox) == 0 {
		t.mu.Unlock()
		return nil
	}
	packet := t.inbox[0]
	t.inbox = t.inbox[1:]
	t.mu.Unlock()

	d.Dispatch(packet)
	return nil
}

func (t *MockTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	return nil
}

// Sent returns every message passed to Send
func (t *MockTransport) Sent() []*osc.Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]*osc.Message{}, t.sent...)
}

// SentAddresses returns the address of every message passed to Send
func (t *MockTransport) SentAddresses() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	addresses := make([]string, len(t.sent))
	for i, msg := range t.sent {
		addresses[i] = msg.Address
	}
	return addresses
}

// Closed reports whether Close was called
func (t *MockTransport) Closed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}
