package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/zenibako/qlab-sync/inventory"
	"github.com/zenibako/qlab-sync/qlab"
	"github.com/zenibako/qlab-sync/templates"

	"github.com/charmbracelet/log"
)

// CueFactory creates cues in QLab. *qlab.Client implements it.
type CueFactory interface {
	NewCue(ctx context.Context, cueType qlab.CueType) (qlab.Handle, error)
	NewGroupCue(ctx context.Context) (*qlab.GroupCue, error)
	NewNetworkCue(ctx context.Context) (*qlab.NetworkCue, error)
}

var _ CueFactory = (*qlab.Client)(nil)

// Apply executes plan in order and records every created cue in state, so
// planning again against the same state yields an empty plan. It stops at
// the first failure; the cues created until then stay in QLab and in state.
func (e *Engine) Apply(ctx context.Context, factory CueFactory, plan Plan, state *inventory.State) (templates.SyncResult, error) {
	result := templates.SyncResult{
		StartedAt: time.Now(),
		Skipped:   plan.Skipped,
	}

	if plan.Count(OpCreateGroup) > 0 || plan.Count(OpCreateAudio) > 0 {
		log.Info("Generating missing groups")
	}
	announcedNetworks := false

	for _, op := range plan.Operations {
		if op.Kind == OpCreateNetwork && !announcedNetworks {
			log.Info("Generating missing network cues")
			announcedNetworks = true
		}

		created, err := e.apply(ctx, factory, op, state)
		if err != nil {
			err = fmt.Errorf("%s for scene %q: %w", op.Kind, op.Scene, err)
			result.Errors = append(result.Errors, err.Error())
			result.Duration = time.Since(result.StartedAt).String()
			return result, err
		}
		log.Debug("Applied operation", "op", op.String(), "uniqueID", created.UniqueID)
		result.CuesCreated = append(result.CuesCreated, created)
	}

	result.Success = true
	result.Duration = time.Since(result.StartedAt).String()
	log.Info("Sync finished", "created", len(result.CuesCreated), "skipped", result.Skipped, "duration", result.Duration)
	return result, nil
}

func (e *Engine) apply(ctx context.Context, factory CueFactory, op Operation, state *inventory.State) (templates.CreatedCue, error) {
	switch op.Kind {
	case OpCreateGroup:
		group, err := factory.NewGroupCue(ctx)
		if err != nil {
			return templates.CreatedCue{}, err
		}
		if err := group.SetName(ctx, op.Scene).Collapse(ctx).Err(); err != nil {
			return templates.CreatedCue{}, err
		}
		state.AddGroup(op.Scene, group.UniqueID())
		return templates.CreatedCue{
			UniqueID: group.UniqueID(),
			Name:     op.Scene,
			Type:     string(qlab.CueTypeGroup),
		}, nil

	case OpCreateAudio:
		groupID, err := groupFor(state, op.Scene)
		if err != nil {
			return templates.CreatedCue{}, err
		}
		h, err := factory.NewCue(ctx, qlab.CueTypeAudio)
		if err != nil {
			return templates.CreatedCue{}, err
		}
		audio, ok := h.(*qlab.Cue)
		if !ok {
			return templates.CreatedCue{}, fmt.Errorf("unexpected handle %T for audio cue", h)
		}
		if err := audio.SetName(ctx, op.Scene).Move(ctx, op.Position, groupID).Err(); err != nil {
			return templates.CreatedCue{}, err
		}
		state.AddAudio(op.Scene)
		return templates.CreatedCue{
			UniqueID: audio.UniqueID(),
			Name:     op.Scene,
			Type:     string(qlab.CueTypeAudio),
			ParentID: groupID,
			Position: op.Position,
		}, nil

	case OpCreateNetwork:
		groupID, err := groupFor(state, op.Scene)
		if err != nil {
			return templates.CreatedCue{}, err
		}
		network, err := factory.NewNetworkCue(ctx)
		if err != nil {
			return templates.CreatedCue{}, err
		}
		network.SetNumber(ctx, op.Number).
			SetPatchNumber(ctx, op.PatchNumber).
			SetParameter(ctx, op.Param, op.ConsoleNumber).
			Move(ctx, op.Position, groupID)
		if err := network.Err(); err != nil {
			return templates.CreatedCue{}, err
		}
		state.AddNetwork(op.Number, op.Scene)
		return templates.CreatedCue{
			UniqueID:  network.UniqueID(),
			CueNumber: op.Number,
			Type:      string(qlab.CueTypeNetwork),
			ParentID:  groupID,
			Position:  op.Position,
		}, nil
	}

	return templates.CreatedCue{}, fmt.Errorf("unknown operation %q", op.Kind)
}

func groupFor(state *inventory.State, scene string) (string, error) {
	groupID, ok := state.Groups[scene]
	if !ok {
		return "", fmt.Errorf("no group for scene %q", scene)
	}
	return groupID, nil
}
