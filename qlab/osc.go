package qlab

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/zenibako/qlab-sync/messages"

	"github.com/charmbracelet/log"
	"github.com/hypebeast/go-osc/osc"
	"golang.org/x/time/rate"
)

// Helper functions for pretty JSON logging
func logPrettyJSON(logger *log.Logger, level log.Level, message string, jsonStr string) {
	// First try to pretty print the JSON with indentation
	var jsonData any
	if err := json.Unmarshal([]byte(jsonStr), &jsonData); err != nil {
		// Fallback to raw string if JSON parsing fails
		logger.Log(level, message, "raw", jsonStr)
		return
	}

	prettyBytes, err := json.MarshalIndent(jsonData, "", "  ")
	if err != nil {
		logger.Log(level, message, "data", jsonData)
		return
	}

	logger.Log(level, message+"\n"+string(prettyBytes))
}

// formatErrorWithJSON creates a pretty-printed error message from a JSON string
func formatErrorWithJSON(baseMessage string, jsonStr string) error {
	var jsonData any
	if err := json.Unmarshal([]byte(jsonStr), &jsonData); err != nil {
		return fmt.Errorf("%s: %s", baseMessage, jsonStr)
	}

	prettyBytes, err := json.MarshalIndent(jsonData, "", "  ")
	if err != nil {
		return fmt.Errorf("%s: %v", baseMessage, jsonData)
	}

	return fmt.Errorf("%s:\n%s", baseMessage, string(prettyBytes))
}

// Client turns QLab's fire-and-forget OSC messages into blocking requests.
//
// A Client supports exactly one outstanding request at a time. Replies that
// arrive for addresses other than the one being awaited are buffered and can
// satisfy a later request for that address.
//
// When a request gives up waiting, its address is marked abandoned and the
// next reply for that address within PendingTTL is discarded as the late
// answer to the abandoned request.
type Client struct {
	cfg            Config
	transport      Transport
	dispatcher     *replyDispatcher
	pending        *ReplyTable
	addressBuilder *messages.OSCAddressBuilder
	limiter        *rate.Limiter
	dryRun         bool
	disconnectOnce sync.Once
	disconnectErr  error

	abandoned   map[string]time.Time
	inflight    string
	droppedLate bool
}

// replyDispatcher routes every inbound message to the client, including the
// messages inside bundles.
type replyDispatcher struct {
	handle func(msg *osc.Message)
}

func (d *replyDispatcher) Dispatch(packet osc.Packet) {
	switch p := packet.(type) {
	case *osc.Message:
		d.handle(p)
	case *osc.Bundle:
		for _, msg := range p.Messages {
			d.handle(msg)
		}
		for _, bundle := range p.Bundles {
			d.Dispatch(bundle)
		}
	}
}

// NewClient creates a client on top of an already bound transport.
func NewClient(transport Transport, cfg Config) *Client {
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}

	c := &Client{
		cfg:            cfg,
		transport:      transport,
		pending:        NewReplyTable(cfg.PendingTTL, cfg.MaxPending),
		addressBuilder: messages.NewOSCAddressBuilder(cfg.WorkspaceID),
		limiter:        rate.NewLimiter(limit, 1),
		abandoned:      make(map[string]time.Time),
	}
	c.dispatcher = &replyDispatcher{handle: c.handleMessage}
	return c
}

// Dial binds a UDP transport for cfg and returns a client using it.
func Dial(cfg Config) (*Client, error) {
	transport, err := NewUDPTransport(cfg)
	if err != nil {
		return nil, err
	}
	return NewClient(transport, cfg), nil
}

// SetDryRun sets whether write requests are answered locally instead of being sent
func (c *Client) SetDryRun(dryRun bool) {
	c.dryRun = dryRun
}

// Addresses returns the builder used for every address this client sends.
func (c *Client) Addresses() *messages.OSCAddressBuilder {
	return c.addressBuilder
}

// Pending returns the number of buffered replies nobody has asked for yet.
func (c *Client) Pending() int {
	return c.pending.Len()
}

// Request sends address with args and blocks until QLab replies, the timeout
// expires or ctx is done. It returns the data field of an ok reply, and a
// *RemoteRejectedError for any other status.
func (c *Client) Request(ctx context.Context, address string, args ...any) (any, error) {
	if c.dryRun && isWriteOperation(address, args) {
		log.Infof("[DRY RUN] Would send OSC message: %s %v", address, args)
		return mockDryRunResponse(address), nil
	}

	msg := messages.Build(address, args...)
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	if err := c.transport.Send(msg); err != nil {
		return nil, fmt.Errorf("failed to send OSC message %s: %w", address, err)
	}
	startTime := time.Now()
	log.Debugf("Message sent to %s:%d - %s", c.cfg.Host, c.cfg.Port, msg.String())

	c.inflight = address
	c.droppedLate = false
	defer func() { c.inflight = "" }()

	var deadline <-chan time.Time
	if c.cfg.Timeout > 0 {
		timer := time.NewTimer(c.cfg.Timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	for {
		if err := c.transport.PollOnce(c.dispatcher); err != nil {
			return nil, err
		}

		if reply, ok := c.pending.Take(address); ok {
			log.Debugf("Reply received for %s in %v", address, time.Since(startTime))
			if !reply.OK() {
				return nil, &RemoteRejectedError{
					Address: address,
					Args:    args,
					Status:  reply.Status,
					Payload: reply.Raw,
				}
			}
			return reply.Data, nil
		}

		select {
		case <-ctx.Done():
			c.abandon(address)
			return nil, ctx.Err()
		case <-deadline:
			log.Warnf("Timeout waiting for reply from QLab for address %s", address)
			c.abandon(address)
			return nil, &TimeoutStallError{Address: address, Args: args, Waited: time.Since(startTime)}
		case <-time.After(c.cfg.Backoff):
		}
	}
}

// RequestString is Request for replies whose data is a scalar, such as ids,
// names and numbers.
func (c *Client) RequestString(ctx context.Context, address string, args ...any) (string, error) {
	data, err := c.Request(ctx, address, args...)
	if err != nil {
		return "", err
	}
	return dataString(data), nil
}

func dataString(data any) string {
	switch v := data.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// abandon marks address so its late reply is not handed to the next request.
// If this request already discarded a reply as late, that reply may have been
// its own, so the address is not marked again.
func (c *Client) abandon(address string) {
	if c.droppedLate {
		return
	}
	c.abandoned[address] = time.Now()
}

func (c *Client) handleMessage(msg *osc.Message) {
	request, ok := messages.ParseReplyAddress(msg.Address)
	if !ok {
		log.Debug("Ignoring non-reply message", "address", msg.Address)
		return
	}

	if at, ok := c.abandoned[request]; ok {
		delete(c.abandoned, request)
		if c.cfg.PendingTTL <= 0 || time.Since(at) < c.cfg.PendingTTL {
			log.Warn("Discarding late reply for abandoned request", "address", request)
			if request == c.inflight {
				c.droppedLate = true
			}
			return
		}
	}

	reply := DecodeReply(msg.Arguments)
	if reply.Raw != "" && log.GetLevel() <= log.DebugLevel {
		logPrettyJSON(log.Default(), log.DebugLevel, "Reply for "+request, reply.Raw)
	}
	c.pending.Put(request, reply)
}

// Connect registers this client with QLab: it authenticates when a passcode
// is configured, asks QLab to reply to every message and keeps the
// connection alive until Disconnect.
func (c *Client) Connect(ctx context.Context) error {
	if c.cfg.Passcode != "" {
		data, err := c.RequestString(ctx, c.addressBuilder.BuildAddress(messages.MsgConnect, nil), c.cfg.Passcode)
		if err != nil {
			return fmt.Errorf("QLab connection failed - check passcode and workspace availability: %w", err)
		}
		if data == "badpass" {
			return fmt.Errorf("QLab authentication failed - incorrect passcode")
		}
		log.Info("Connection status", "data", data)
	}

	if _, err := c.Request(ctx, c.addressBuilder.BuildAddress(messages.MsgAlwaysReply, nil), "1"); err != nil {
		return fmt.Errorf("failed to enable alwaysReply: %w", err)
	}
	if _, err := c.Request(ctx, c.addressBuilder.BuildAddress(messages.MsgForgetMeNot, nil), true); err != nil {
		return fmt.Errorf("failed to enable forgetMeNot: %w", err)
	}

	log.Info("Connected to QLab", "host", c.cfg.Host, "port", c.cfg.Port)
	return nil
}

// Disconnect releases the connection. It runs at most once; later calls
// return the result of the first. Failures are reported but not retried.
func (c *Client) Disconnect(ctx context.Context) error {
	c.disconnectOnce.Do(func() {
		var errs []error
		if _, err := c.Request(ctx, c.addressBuilder.BuildAddress(messages.MsgForgetMeNot, nil), false); err != nil {
			errs = append(errs, fmt.Errorf("forgetMeNot: %w", err))
		}
		if _, err := c.Request(ctx, c.addressBuilder.BuildAddress(messages.MsgDisconnect, nil)); err != nil {
			errs = append(errs, fmt.Errorf("disconnect: %w", err))
		}
		if err := c.transport.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close transport: %w", err))
		}

		c.disconnectErr = errors.Join(errs...)
		if c.disconnectErr != nil {
			log.Warn("Disconnect finished with errors", "error", c.disconnectErr)
			return
		}
		log.Info("Disconnected")
	})
	return c.disconnectErr
}
