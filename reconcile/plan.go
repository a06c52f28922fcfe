package reconcile

import (
	"fmt"
	"strings"

	"github.com/zenibako/qlab-sync/eos"
	"github.com/zenibako/qlab-sync/inventory"
)

// OpKind identifies what an operation creates
type OpKind string

const (
	OpCreateGroup   OpKind = "create-group"
	OpCreateAudio   OpKind = "create-audio"
	OpCreateNetwork OpKind = "create-network"
)

// Operation is a single cue to create.
type Operation struct {
	Kind OpKind `json:"kind" yaml:"kind"`

	// Scene names the group, and for audio and network cues the group they move into.
	Scene string `json:"scene" yaml:"scene"`

	// Number is the QLab cue number of a network cue.
	Number string `json:"number,omitempty" yaml:"number,omitempty"`

	// ConsoleNumber is the Eos cue number a network cue fires.
	ConsoleNumber string `json:"console_number,omitempty" yaml:"console_number,omitempty"`

	// Position is the one-based position inside the scene group.
	Position int `json:"position,omitempty" yaml:"position,omitempty"`

	PatchNumber int    `json:"patch_number,omitempty" yaml:"patch_number,omitempty"`
	Param       string `json:"param,omitempty" yaml:"param,omitempty"`
}

func (op Operation) String() string {
	switch op.Kind {
	case OpCreateGroup:
		return fmt.Sprintf("%-14s %q (collapsed)", op.Kind, op.Scene)
	case OpCreateAudio:
		return fmt.Sprintf("%-14s %q at position %d", op.Kind, op.Scene, op.Position)
	case OpCreateNetwork:
		return fmt.Sprintf("%-14s %s in %q at position %d (patch %d, %s=%s)",
			op.Kind, op.Number, op.Scene, op.Position, op.PatchNumber, op.Param, op.ConsoleNumber)
	}
	return string(op.Kind)
}

// Plan is the ordered list of cues missing from QLab.
type Plan struct {
	Operations []Operation `json:"operations" yaml:"operations"`

	// Skipped counts groups, audio cues and network cues already in QLab.
	Skipped int `json:"skipped" yaml:"skipped"`
}

// Empty reports whether QLab is already up to date.
func (p Plan) Empty() bool {
	return len(p.Operations) == 0
}

// Count returns the number of operations of kind.
func (p Plan) Count(kind OpKind) int {
	n := 0
	for _, op := range p.Operations {
		if op.Kind == kind {
			n++
		}
	}
	return n
}

// Render formats the plan for display, one operation per line.
func (p Plan) Render() string {
	if p.Empty() {
		return fmt.Sprintf("Nothing to do - QLab is up to date (%d already in QLab)\n", p.Skipped)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Sync plan - groups: %d, audio: %d, network: %d, already in QLab: %d\n",
		p.Count(OpCreateGroup), p.Count(OpCreateAudio), p.Count(OpCreateNetwork), p.Skipped)
	for i, op := range p.Operations {
		fmt.Fprintf(&b, "%3d. %s\n", i+1, op)
	}
	return b.String()
}

// Engine diffs a console export against the workspace.
type Engine struct {
	cfg Config
}

// NewEngine creates an engine
func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// NetworkNumber formats the QLab cue number for a console cue.
func (e *Engine) NetworkNumber(consoleNumber string) string {
	return e.cfg.NetworkPrefix + consoleNumber
}

// Plan lists the cues to create, without touching QLab. For every scene the
// group comes first and then its audio cue; network cues follow in export
// order. The first network cue of a scene sits right after the audio cue.
func (e *Engine) Plan(show *eos.Show, state *inventory.State) Plan {
	var plan Plan
	plannedGroups := make(map[string]bool)
	plannedAudio := make(map[string]bool)

	for _, scene := range show.Scenes {
		if _, exists := state.Groups[scene]; exists || plannedGroups[scene] {
			plan.Skipped++
		} else {
			plan.Operations = append(plan.Operations, Operation{Kind: OpCreateGroup, Scene: scene})
			plannedGroups[scene] = true
		}

		if state.AudioScenes[scene] || plannedAudio[scene] {
			plan.Skipped++
		} else {
			plan.Operations = append(plan.Operations, Operation{
				Kind:     OpCreateAudio,
				Scene:    scene,
				Position: e.cfg.AudioPosition,
			})
			plannedAudio[scene] = true
		}
	}

	for _, slot := range show.Slots {
		number := e.NetworkNumber(slot.CueNumber)
		if _, exists := state.Networks[number]; exists {
			plan.Skipped++
			continue
		}
		plan.Operations = append(plan.Operations, Operation{
			Kind:          OpCreateNetwork,
			Scene:         slot.Scene,
			Number:        number,
			ConsoleNumber: slot.CueNumber,
			Position:      e.cfg.AudioPosition + 1 + slot.Index,
			PatchNumber:   e.cfg.PatchNumber,
			Param:         e.cfg.CueNumberParam,
		})
	}

	return plan
}
