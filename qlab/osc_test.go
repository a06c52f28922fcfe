package qlab

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hypebeast/go-osc/osc"
)

// testConfig returns a configuration with short timings and no rate limit
func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Timeout = 200 * time.Millisecond
	cfg.Backoff = time.Millisecond
	cfg.PollTimeout = 10 * time.Millisecond
	cfg.RateLimit = 0
	return cfg
}

// setupMockClient creates a client backed by an in-memory workspace
func setupMockClient(t *testing.T) (*Client, *MockTransport) {
	t.Helper()
	client, transport := NewMockClient(testConfig())
	t.Cleanup(func() {
		_ = client.Disconnect(context.Background())
	})
	return client, transport
}

func replyMessage(address, payload string) *osc.Message {
	return osc.NewMessage("/reply"+address, payload)
}

func TestRequestReturnsReplyData(t *testing.T) {
	client, transport := setupMockClient(t)
	ctx := context.Background()

	id, err := client.RequestString(ctx, "/new", "memo")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if id == "" {
		t.Fatal("Expected a unique ID in the reply data")
	}
	if transport.Workspace.GetCue(id) == nil {
		t.Errorf("Cue %s was not created in the workspace", id)
	}
}

func TestRequestRemoteRejected(t *testing.T) {
	client, transport := setupMockClient(t)
	transport.Workspace.RejectAddress("/new", "workspace is locked")

	_, err := client.Request(context.Background(), "/new", "group")
	if !errors.Is(err, ErrRemoteRejected) {
		t.Fatalf("Expected ErrRemoteRejected, got %v", err)
	}

	var rejected *RemoteRejectedError
	if !errors.As(err, &rejected) {
		t.Fatalf("Expected *RemoteRejectedError, got %T", err)
	}
	if rejected.Status != StatusError {
		t.Errorf("Expected status %q, got %q", StatusError, rejected.Status)
	}
	if rejected.Address != "/new" {
		t.Errorf("Expected address /new, got %q", rejected.Address)
	}
	if !strings.Contains(err.Error(), "workspace is locked") {
		t.Errorf("Expected error payload in message, got %q", err.Error())
	}
	if count := transport.Workspace.GetCueCount(); count != 0 {
		t.Errorf("Rejected request must not create cues, found %d", count)
	}
}

func TestRequestDeniedStatusIsRejected(t *testing.T) {
	client, transport := setupMockClient(t)
	transport.Drop("/cueLists")
	transport.Inject(replyMessage("/cueLists", `{"status":"denied","address":"/cueLists"}`))

	_, err := client.Request(context.Background(), "/cueLists")
	if !errors.Is(err, ErrRemoteRejected) {
		t.Fatalf("Expected ErrRemoteRejected for denied status, got %v", err)
	}
}

func TestRequestBuffersOutOfOrderReplies(t *testing.T) {
	client, transport := setupMockClient(t)
	ctx := context.Background()

	// A reply for a request nobody is waiting on yet
	transport.Inject(replyMessage("/cue_id/EARLY/name", `{"status":"ok","data":"Early Bird"}`))

	if _, err := client.Request(ctx, "/new", "memo"); err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if client.Pending() != 1 {
		t.Fatalf("Expected 1 buffered reply, got %d", client.Pending())
	}

	// QLab stays silent, so only the buffered reply can satisfy this request
	transport.Drop("/cue_id/EARLY/name")
	name, err := client.RequestString(ctx, "/cue_id/EARLY/name")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if name != "Early Bird" {
		t.Errorf("Expected buffered reply data, got %q", name)
	}
	if client.Pending() != 0 {
		t.Errorf("Buffered reply should have been consumed, %d left", client.Pending())
	}
}

func TestRequestBundleReplies(t *testing.T) {
	client, transport := setupMockClient(t)
	transport.Drop("/cue_id/A/name")

	bundle := osc.NewBundle(time.Now())
	if err := bundle.Append(replyMessage("/cue_id/A/name", `{"status":"ok","data":"From Bundle"}`)); err != nil {
		t.Fatalf("Failed to build bundle: %v", err)
	}
	transport.Inject(bundle)

	name, err := client.RequestString(context.Background(), "/cue_id/A/name")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if name != "From Bundle" {
		t.Errorf("Expected reply from bundle, got %q", name)
	}
}

func TestRequestUndecodableReply(t *testing.T) {
	client, transport := setupMockClient(t)
	transport.Drop("/cue_id/A/name")
	transport.Inject(replyMessage("/cue_id/A/name", "not json"))

	_, err := client.Request(context.Background(), "/cue_id/A/name")
	if !errors.Is(err, ErrRemoteRejected) {
		t.Fatalf("Expected ErrRemoteRejected for undecodable payload, got %v", err)
	}
}

func TestRequestTimeout(t *testing.T) {
	cfg := testConfig()
	cfg.Timeout = 30 * time.Millisecond
	client, transport := NewMockClient(cfg)
	transport.Drop("/cueLists")

	start := time.Now()
	_, err := client.Request(context.Background(), "/cueLists")
	if !errors.Is(err, ErrTimeoutStall) {
		t.Fatalf("Expected ErrTimeoutStall, got %v", err)
	}

	var stall *TimeoutStallError
	if !errors.As(err, &stall) {
		t.Fatalf("Expected *TimeoutStallError, got %T", err)
	}
	if stall.Address != "/cueLists" {
		t.Errorf("Expected address /cueLists, got %q", stall.Address)
	}
	if elapsed := time.Since(start); elapsed < cfg.Timeout {
		t.Errorf("Request returned after %v, before the %v timeout", elapsed, cfg.Timeout)
	}
}

func TestLateReplyAfterTimeoutIsDiscarded(t *testing.T) {
	cfg := testConfig()
	cfg.Timeout = 30 * time.Millisecond
	client, transport := NewMockClient(cfg)
	ctx := context.Background()

	transport.Drop("/new")
	if _, err := client.NewCue(ctx, CueTypeGroup); !errors.Is(err, ErrTimeoutStall) {
		t.Fatalf("Expected ErrTimeoutStall, got %v", err)
	}
	group := transport.Workspace.FindCue("group", "")
	if group == nil {
		t.Fatal("Group cue should exist in the workspace despite the lost reply")
	}

	// The group reply shows up after the next /new was sent
	transport.Restore("/new")
	transport.Inject(replyMessage("/new", `{"status":"ok","data":"`+group.UniqueID+`"}`))

	h, err := client.NewCue(ctx, CueTypeAudio)
	if err != nil {
		t.Fatalf("NewCue failed: %v", err)
	}
	if h.UniqueID() == group.UniqueID {
		t.Fatalf("Audio handle wraps the group cue %s", group.UniqueID)
	}
	cue := transport.Workspace.GetCue(h.UniqueID())
	if cue == nil || cue.Type != "audio" {
		t.Fatalf("Expected handle for an audio cue, got %+v", cue)
	}

	memo, err := client.NewCue(ctx, CueTypeMemo)
	if err != nil {
		t.Fatalf("NewCue failed: %v", err)
	}
	if cue := transport.Workspace.GetCue(memo.UniqueID()); cue == nil || cue.Type != "memo" {
		t.Errorf("Expected handle for a memo cue, got %+v", cue)
	}
	if client.Pending() != 0 {
		t.Errorf("Expected no buffered replies, got %d", client.Pending())
	}
}

func TestLostReplyAfterTimeoutDoesNotCascade(t *testing.T) {
	cfg := testConfig()
	cfg.Timeout = 30 * time.Millisecond
	client, transport := NewMockClient(cfg)
	ctx := context.Background()

	transport.Drop("/new")
	if _, err := client.NewCue(ctx, CueTypeGroup); !errors.Is(err, ErrTimeoutStall) {
		t.Fatalf("Expected ErrTimeoutStall, got %v", err)
	}
	transport.Restore("/new")

	// The group reply never arrives, so the next reply is taken for it
	if _, err := client.NewCue(ctx, CueTypeAudio); !errors.Is(err, ErrTimeoutStall) {
		t.Fatalf("Expected ErrTimeoutStall, got %v", err)
	}

	h, err := client.NewCue(ctx, CueTypeMemo)
	if err != nil {
		t.Fatalf("NewCue failed after recovery: %v", err)
	}
	if cue := transport.Workspace.GetCue(h.UniqueID()); cue == nil || cue.Type != "memo" {
		t.Errorf("Expected handle for a memo cue, got %+v", cue)
	}
}

func TestRequestCancelledContext(t *testing.T) {
	cfg := testConfig()
	cfg.Timeout = 0
	client, transport := NewMockClient(cfg)
	transport.Drop("/cueLists")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.Request(ctx, "/cueLists")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Expected context deadline error, got %v", err)
	}
}

func TestRequestDryRun(t *testing.T) {
	client, transport := setupMockClient(t)
	client.SetDryRun(true)
	ctx := context.Background()

	group, err := client.NewGroupCue(ctx)
	if err != nil {
		t.Fatalf("NewGroupCue failed: %v", err)
	}
	if !strings.HasPrefix(group.UniqueID(), DryRunIDPrefix) {
		t.Errorf("Expected dry run ID, got %q", group.UniqueID())
	}

	group.SetName(ctx, "Scene 1").SetNumber(ctx, "S1").Collapse(ctx)
	if err := group.Err(); err != nil {
		t.Errorf("Dry run mutators should not fail: %v", err)
	}
	if sent := transport.Sent(); len(sent) != 0 {
		t.Errorf("Dry run must not send write operations, sent %d", len(sent))
	}

	// Reads still go to QLab
	if _, err := client.Request(ctx, "/cueLists"); err != nil {
		t.Fatalf("Read request failed in dry run: %v", err)
	}
	if sent := transport.SentAddresses(); len(sent) != 1 || sent[0] != "/cueLists" {
		t.Errorf("Expected only /cueLists to be sent, got %v", sent)
	}
}

func TestIsWriteOperation(t *testing.T) {
	tests := []struct {
		address string
		args    []any
		want    bool
	}{
		{"/new", []any{"group"}, true},
		{"/move/ABC", []any{1, "GROUP"}, true},
		{"/cue_id/ABC/name", []any{"Scene 1"}, true},
		{"/cue_id/ABC/name", nil, false},
		{"/cue_id/ABC/collapse", nil, true},
		{"/cue_id/DRYRUN-1/name", nil, true},
		{"/cue/S1/type", nil, false},
		{"/cueLists", nil, false},
	}

	for _, tt := range tests {
		if got := isWriteOperation(tt.address, tt.args); got != tt.want {
			t.Errorf("isWriteOperation(%q, %v) = %v, want %v", tt.address, tt.args, got, tt.want)
		}
	}
}

func TestConnect(t *testing.T) {
	cfg := testConfig()
	cfg.Passcode = "1234"
	client, transport := NewMockClient(cfg)
	transport.Workspace.SetPasscode("1234")

	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	alwaysReply, forgetMeNot, _ := transport.Workspace.Session()
	if !alwaysReply {
		t.Error("Expected alwaysReply to be enabled")
	}
	if !forgetMeNot {
		t.Error("Expected forgetMeNot to be enabled")
	}

	want := []string{"/connect", "/alwaysReply", "/forgetMeNot"}
	if got := transport.SentAddresses(); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("Expected handshake %v, got %v", want, got)
	}
}

func TestConnectWithoutPasscode(t *testing.T) {
	client, transport := setupMockClient(t)

	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	if len(transport.Workspace.GetMessagesForAddress("/connect")) != 0 {
		t.Error("No /connect should be sent without a passcode")
	}
}

func TestConnectBadPasscode(t *testing.T) {
	cfg := testConfig()
	cfg.Passcode = "wrong"
	client, transport := NewMockClient(cfg)
	transport.Workspace.SetPasscode("1234")

	err := client.Connect(context.Background())
	if err == nil || !strings.Contains(err.Error(), "incorrect passcode") {
		t.Fatalf("Expected authentication failure, got %v", err)
	}
}

func TestDisconnectRunsOnce(t *testing.T) {
	client, transport := setupMockClient(t)
	ctx := context.Background()

	if err := client.Connect(ctx); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	if err := client.Disconnect(ctx); err != nil {
		t.Fatalf("Disconnect failed: %v", err)
	}
	if err := client.Disconnect(ctx); err != nil {
		t.Fatalf("Second Disconnect failed: %v", err)
	}

	if n := len(transport.Workspace.GetMessagesForAddress("/disconnect")); n != 1 {
		t.Errorf("Expected exactly one /disconnect, got %d", n)
	}
	_, forgetMeNot, disconnected := transport.Workspace.Session()
	if forgetMeNot {
		t.Error("Expected forgetMeNot to be disabled")
	}
	if !disconnected {
		t.Error("Expected workspace to see the disconnect")
	}
	if !transport.Closed() {
		t.Error("Expected transport to be closed")
	}
}

func TestDisconnectReportsFailures(t *testing.T) {
	cfg := testConfig()
	cfg.Timeout = 20 * time.Millisecond
	client, transport := NewMockClient(cfg)
	transport.Drop("/disconnect")

	err := client.Disconnect(context.Background())
	if !errors.Is(err, ErrTimeoutStall) {
		t.Fatalf("Expected timeout from disconnect, got %v", err)
	}
	if !transport.Closed() {
		t.Error("Transport should close even when disconnect fails")
	}
}
