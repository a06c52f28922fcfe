package main

import (
	"context"
	"fmt"
	"time"

	"github.com/zenibako/qlab-sync/config"
	"github.com/zenibako/qlab-sync/inventory"
	"github.com/zenibako/qlab-sync/qlab"

	"github.com/charmbracelet/log"
)

// disconnectTimeout bounds teardown so an unreachable QLab cannot hang exit
const disconnectTimeout = 5 * time.Second

// session is a connected client plus its teardown
type session struct {
	client *qlab.Client
}

// connect dials QLab and registers the client. The caller must call close,
// which is safe to call more than once.
func connect(ctx context.Context, cfg *config.Config, dryRun bool) (*session, error) {
	client, err := qlab.Dial(cfg.QLab)
	if err != nil {
		return nil, err
	}
	client.SetDryRun(dryRun)

	s := &session{client: client}
	if err := client.Connect(ctx); err != nil {
		s.close()
		return nil, err
	}
	return s, nil
}

func (s *session) close() {
	ctx, cancel := context.WithTimeout(context.Background(), disconnectTimeout)
	defer cancel()
	if err := s.client.Disconnect(ctx); err != nil {
		log.Warn("Failed to disconnect from QLab", "error", err)
	}
}

// state reads the workspace cues with the configured source
func (s *session) state(ctx context.Context, cfg *config.Config) (*inventory.State, []inventory.Record, error) {
	var source inventory.Source = inventory.OSCSource{Client: s.client}
	if cfg.Inventory.Source == config.SourceJXA {
		source = inventory.JXASource{}
	}

	records, err := source.Records(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read QLab cues: %w", err)
	}
	return inventory.NewState(records), records, nil
}
