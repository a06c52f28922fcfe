package templates

import "time"

// CreatedCue represents a successfully created cue
type CreatedCue struct {
	UniqueID  string `json:"unique_id" yaml:"unique_id"`
	CueNumber string `json:"cue_number,omitempty" yaml:"cue_number,omitempty"`
	Name      string `json:"name,omitempty" yaml:"name,omitempty"`
	Type      string `json:"type" yaml:"type"`
	ParentID  string `json:"parent_id,omitempty" yaml:"parent_id,omitempty"` // group the cue was moved into
	Position  int    `json:"position,omitempty" yaml:"position,omitempty"`   // one-based position inside the parent
}

// SyncResult represents the result of applying a sync plan
type SyncResult struct {
	Success     bool         `json:"success" yaml:"success"`
	DryRun      bool         `json:"dry_run,omitempty" yaml:"dry_run,omitempty"`
	Export      string       `json:"export,omitempty" yaml:"export,omitempty"`
	StartedAt   time.Time    `json:"started_at" yaml:"started_at"`
	Duration    string       `json:"duration" yaml:"duration"`
	CuesCreated []CreatedCue `json:"cues_created,omitempty" yaml:"cues_created,omitempty"`
	Skipped     int          `json:"skipped" yaml:"skipped"` // scenes and slots already present in QLab
	Errors      []string     `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// Created returns how many cues of cueType were created
func (r *SyncResult) Created(cueType string) int {
	n := 0
	for _, cue := range r.CuesCreated {
		if cue.Type == cueType {
			n++
		}
	}
	return n
}
