package qlab

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/hypebeast/go-osc/osc"
)

// getFreePort gets an available UDP port by asking the OS
func getFreePort() (int, error) {
	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = conn.Close() // Ignore error - port is being freed
	}()
	return conn.LocalAddr().(*net.UDPAddr).Port, nil
}

// setupUDPClientWithCleanup starts a mock QLab server and dials it over UDP
func setupUDPClientWithCleanup(t *testing.T) (*Client, *MockOSCServer) {
	t.Helper()

	port, err := getFreePort()
	if err != nil {
		t.Fatalf("Failed to get free port: %v", err)
	}
	replyPort, err := getFreePort()
	if err != nil {
		t.Fatalf("Failed to get free port: %v", err)
	}

	mockServer := NewMockOSCServer("127.0.0.1", port, replyPort)
	if err := mockServer.Start(); err != nil {
		t.Fatalf("Failed to start mock server: %v", err)
	}

	cfg := testConfig()
	cfg.Host = "127.0.0.1"
	cfg.Port = port
	cfg.ListenHost = "127.0.0.1"
	cfg.ReplyPort = replyPort
	cfg.Timeout = 2 * time.Second

	client, err := Dial(cfg)
	if err != nil {
		t.Fatalf("Failed to dial mock server: %v", err)
	}

	t.Cleanup(func() {
		_ = client.Disconnect(context.Background())
		if err := mockServer.Stop(); err != nil {
			t.Logf("Failed to stop mock server: %v", err)
		}
		// Give time for ports to be released and goroutines to finish
		time.Sleep(150 * time.Millisecond)
	})

	return client, mockServer
}

func TestUDPTransportRoundTrip(t *testing.T) {
	client, mockServer := setupUDPClientWithCleanup(t)
	ctx := context.Background()

	if err := client.Connect(ctx); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	group, err := client.NewGroupCue(ctx)
	if err != nil {
		t.Fatalf("NewGroupCue failed: %v", err)
	}
	group.SetName(ctx, "Scene 1").SetNumber(ctx, "S1")
	if err := group.Err(); err != nil {
		t.Fatalf("Group mutators failed: %v", err)
	}

	mock := mockServer.FindCue("group", "Scene 1")
	if mock == nil {
		t.Fatal("Group cue not found in mock workspace")
	}
	if mock.Number != "S1" {
		t.Errorf("Expected number S1, got %q", mock.Number)
	}
}

func TestUDPTransportPollTimeout(t *testing.T) {
	replyPort, err := getFreePort()
	if err != nil {
		t.Fatalf("Failed to get free port: %v", err)
	}

	cfg := testConfig()
	cfg.ListenHost = "127.0.0.1"
	cfg.ReplyPort = replyPort

	transport, err := NewUDPTransport(cfg)
	if err != nil {
		t.Fatalf("NewUDPTransport failed: %v", err)
	}
	defer func() {
		_ = transport.Close()
	}()

	client := NewClient(transport, cfg)
	start := time.Now()
	if err := transport.PollOnce(client.dispatcher); err != nil {
		t.Fatalf("PollOnce should return nil on timeout, got %v", err)
	}
	if elapsed := time.Since(start); elapsed < cfg.PollTimeout {
		t.Errorf("PollOnce returned after %v, before the poll timeout", elapsed)
	}

	// Malformed packets are dropped
	conn, err := net.Dial("udp", transport.LocalAddr().String())
	if err != nil {
		t.Fatalf("Failed to dial transport: %v", err)
	}
	defer func() {
		_ = conn.Close()
	}()
	if _, err := conn.Write([]byte("not osc")); err != nil {
		t.Fatalf("Failed to write packet: %v", err)
	}
	if err := transport.PollOnce(client.dispatcher); err != nil {
		t.Fatalf("PollOnce should drop malformed packets, got %v", err)
	}
	if client.Pending() != 0 {
		t.Errorf("Malformed packet should not be buffered")
	}
}

func TestUDPTransportPollDispatchesReply(t *testing.T) {
	replyPort, err := getFreePort()
	if err != nil {
		t.Fatalf("Failed to get free port: %v", err)
	}

	cfg := testConfig()
	cfg.ListenHost = "127.0.0.1"
	cfg.ReplyPort = replyPort

	transport, err := NewUDPTransport(cfg)
	if err != nil {
		t.Fatalf("NewUDPTransport failed: %v", err)
	}
	client := NewClient(transport, cfg)

	sender := osc.NewClient("127.0.0.1", replyPort)
	if err := sender.Send(replyMessage("/cueLists", `{"status":"ok","data":[]}`)); err != nil {
		t.Fatalf("Failed to send reply: %v", err)
	}

	if err := transport.PollOnce(client.dispatcher); err != nil {
		t.Fatalf("PollOnce failed: %v", err)
	}
	if client.Pending() != 1 {
		t.Fatalf("Expected the reply to be buffered, got %d pending", client.Pending())
	}

	if err := transport.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := transport.PollOnce(client.dispatcher); err == nil {
		t.Error("PollOnce on a closed socket should fail")
	}
}
