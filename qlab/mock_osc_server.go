package qlab

import (
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/hypebeast/go-osc/osc"
)

// MockOSCServer serves a MockWorkspace over UDP the way QLab does: requests
// arrive on port and replies go to replyPort on the same host.
type MockOSCServer struct {
	*MockWorkspace

	host      string
	port      int
	replyPort int
	server    *osc.Server
	client    *osc.Client
	replyLag  time.Duration
	mu        sync.Mutex
	isRunning bool
}

// NewMockOSCServer creates a new mock QLab OSC server
func NewMockOSCServer(host string, port, replyPort int) *MockOSCServer {
	return &MockOSCServer{
		MockWorkspace: NewMockWorkspace(),
		host:          host,
		port:          port,
		replyPort:     replyPort,
		client:        osc.NewClient(host, replyPort),
	}
}

// SetReplyLag delays every reply to simulate QLab processing time
func (m *MockOSCServer) SetReplyLag(lag time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replyLag = lag
}

// Dispatch answers every message of a packet
func (m *MockOSCServer) Dispatch(packet osc.Packet) {
	switch p := packet.(type) {
	case *osc.Message:
		m.reply(p)
	case *osc.Bundle:
		for _, msg := range p.Messages {
			m.reply(msg)
		}
	}
}

func (m *MockOSCServer) reply(msg *osc.Message) {
	m.mu.Lock()
	lag := m.replyLag
	m.mu.Unlock()

	for _, reply := range m.Handle(msg) {
		if lag > 0 {
			time.Sleep(lag)
		}
		log.Debugf("Mock server sending reply to %s:%d with address %s", m.host, m.replyPort, reply.Address)
		if err := m.client.Send(reply); err != nil {
			log.Errorf("Failed to send mock reply: %v", err)
		}
	}
}

// Start starts the mock OSC server
func (m *MockOSCServer) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.isRunning {
		return fmt.Errorf("mock server already running")
	}

	m.server = &osc.Server{
		Addr:       fmt.Sprintf("%s:%d", m.host, m.port),
		Dispatcher: m,
	}

	server := m.server
	go func() {
		if err := server.ListenAndServe(); err != nil {
			log.Debugf("Mock OSC server stopped: %v", err)
		}
	}()

	// Give the server time to bind
	time.Sleep(100 * time.Millisecond)

	m.isRunning = true
	log.Infof("Mock QLab OSC server started on %s:%d (reply: %d)", m.host, m.port, m.replyPort)
	return nil
}

// Stop stops the mock OSC server
func (m *MockOSCServer) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.isRunning {
		return nil
	}

	// go-osc races if the connection closes while it is still starting up
	if m.server != nil {
		server := m.server
		m.server = nil
		go func() {
			time.Sleep(100 * time.Millisecond)
			if err := server.CloseConnection(); err != nil {
				log.Warnf("Failed to close mock server: %v", err)
			}
		}()
	}

	m.isRunning = false
	log.Info("Mock QLab OSC server stopped")
	return nil
}
