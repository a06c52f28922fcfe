package qlab

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
)

// Reply statuses sent by QLab
const (
	StatusOK     = "ok"
	StatusError  = "error"
	StatusDenied = "denied"
)

// Reply is the decoded JSON payload QLab sends back on /reply/<address>.
type Reply struct {
	WorkspaceID string `json:"workspace_id,omitempty"`
	Address     string `json:"address,omitempty"`
	Status      string `json:"status"`
	Data        any    `json:"data,omitempty"`

	// Raw is the undecoded payload, kept for error reporting
	Raw string `json:"-"`
}

// OK reports whether QLab accepted the request.
func (r Reply) OK() bool {
	return r.Status == StatusOK
}

// DecodeReply decodes the arguments of a reply message. A payload that is not
// a JSON object is treated as an error reply so the waiting request fails
// with the raw text instead of stalling.
func DecodeReply(args []any) Reply {
	if len(args) == 0 {
		return Reply{Status: StatusOK}
	}

	raw, ok := args[0].(string)
	if !ok {
		return Reply{Status: StatusError, Raw: fmt.Sprintf("%v", args[0])}
	}

	var reply Reply
	if err := json.Unmarshal([]byte(raw), &reply); err != nil {
		log.Warn("Failed to decode QLab reply", "error", err, "raw", raw)
		return Reply{Status: StatusError, Raw: raw}
	}
	if reply.Status == "" {
		reply.Status = StatusError
	}
	reply.Raw = raw
	return reply
}

type pendingReply struct {
	reply    Reply
	received time.Time
}

// ReplyTable buffers replies by the request address they answer. It holds at
// most one reply per address; a second reply for an unconsumed address
// overwrites the first. Entries older than ttl are evicted, and when the table
// grows beyond max the oldest entries go first.
type ReplyTable struct {
	entries map[string]pendingReply
	ttl     time.Duration
	max     int
	now     func() time.Time
}

// NewReplyTable creates a table. A zero ttl or max disables that bound.
func NewReplyTable(ttl time.Duration, max int) *ReplyTable {
	return &ReplyTable{
		entries: make(map[string]pendingReply),
		ttl:     ttl,
		max:     max,
		now:     time.Now,
	}
}

// Put stores reply for address, replacing any unconsumed reply.
func (t *ReplyTable) Put(address string, reply Reply) {
	if _, exists := t.entries[address]; exists {
		log.Debug("Overwriting unconsumed reply", "address", address)
	}
	t.entries[address] = pendingReply{reply: reply, received: t.now()}
	t.evict()
}

// Take removes and returns the reply for address. Replies older than the
// table's ttl are discarded instead of returned.
func (t *ReplyTable) Take(address string) (Reply, bool) {
	entry, ok := t.entries[address]
	if !ok {
		return Reply{}, false
	}
	delete(t.entries, address)
	if t.ttl > 0 && t.now().Sub(entry.received) > t.ttl {
		log.Debug("Discarding stale reply", "address", address, "received", entry.received)
		return Reply{}, false
	}
	return entry.reply, true
}

// Len returns the number of buffered replies.
func (t *ReplyTable) Len() int {
	return len(t.entries)
}

func (t *ReplyTable) evict() {
	if t.ttl > 0 {
		cutoff := t.now().Add(-t.ttl)
		for address, entry := range t.entries {
			if entry.received.Before(cutoff) {
				log.Debug("Evicting stale reply", "address", address, "received", entry.received)
				delete(t.entries, address)
			}
		}
	}

	for t.max > 0 && len(t.entries) > t.max {
		var oldestAddress string
		var oldest time.Time
		for address, entry := range t.entries {
			if oldestAddress == "" || entry.received.Before(oldest) {
				oldestAddress = address
				oldest = entry.received
			}
		}
		log.Debug("Evicting oldest reply", "address", oldestAddress)
		delete(t.entries, oldestAddress)
	}
}
