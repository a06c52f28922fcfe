package qlab

import "time"

// Config holds the connection parameters for a QLab client. Values are
// supplied at startup and never renegotiated while a client is running.
type Config struct {
	// Host is the address QLab listens on.
	Host string `mapstructure:"host" default:"127.0.0.1"`
	// Port is QLab's OSC port.
	Port int `mapstructure:"port" default:"53000"`
	// ListenHost is the local interface the reply socket binds to. Empty binds all interfaces.
	ListenHost string `mapstructure:"listen_host" default:""`
	// ReplyPort is the local port QLab sends UDP replies to.
	ReplyPort int `mapstructure:"reply_port" default:"53001"`
	// Passcode is sent with /connect when set.
	Passcode string `mapstructure:"passcode" default:""`
	// WorkspaceID prefixes workspace level addresses. Empty targets the frontmost workspace.
	WorkspaceID string `mapstructure:"workspace_id" default:""`
	// Timeout bounds the wait for a reply. Zero waits forever.
	Timeout time.Duration `mapstructure:"timeout" default:"10s"`
	// Backoff is the pause between polls while a reply is outstanding.
	Backoff time.Duration `mapstructure:"backoff" default:"100ms"`
	// PollTimeout bounds a single blocking receive.
	PollTimeout time.Duration `mapstructure:"poll_timeout" default:"250ms"`
	// PendingTTL evicts buffered replies nobody asked for after this long.
	PendingTTL time.Duration `mapstructure:"pending_ttl" default:"30s"`
	// MaxPending caps the number of buffered replies.
	MaxPending int `mapstructure:"max_pending" default:"256"`
	// RateLimit is the maximum number of requests per second. Zero disables limiting.
	RateLimit float64 `mapstructure:"rate_limit" default:"50"`
}

// DefaultConfig returns the configuration QLab ships with: OSC on 53000 and
// UDP replies on 53001.
func DefaultConfig() Config {
	return Config{
		Host:        "127.0.0.1",
		Port:        53000,
		ReplyPort:   53001,
		Timeout:     10 * time.Second,
		Backoff:     100 * time.Millisecond,
		PollTimeout: 250 * time.Millisecond,
		PendingTTL:  30 * time.Second,
		MaxPending:  256,
		RateLimit:   50,
	}
}
