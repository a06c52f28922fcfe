// Package inventory reads the cues that already exist in a QLab workspace and
// indexes them the way the reconciliation engine looks them up.
package inventory

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
)

// ErrMalformedInventory is returned when the cue rows cannot be decoded.
var ErrMalformedInventory = errors.New("something went wrong reading QLab cues, are you sure you have a QLab workspace open?")

// Record is one cue of the workspace
type Record struct {
	ID     string `json:"unique_id" yaml:"unique_id"`
	Number string `json:"number" yaml:"number"`
	Name   string `json:"name" yaml:"name"`
	Parent string `json:"parent" yaml:"parent"` // name of the enclosing group or cue list
	Type   string `json:"type" yaml:"type"`
}

// Source lists every cue of the frontmost workspace
type Source interface {
	Records(ctx context.Context) ([]Record, error)
}

// ReadCSV decodes rows of (unique id, number, name, parent name, type)
func ReadCSV(r io.Reader) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 5

	var records []Record
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedInventory, err)
		}
		records = append(records, Record{
			ID:     row[0],
			Number: row[1],
			Name:   row[2],
			Parent: row[3],
			Type:   row[4],
		})
	}
	return records, nil
}

// State is what the reconciliation engine needs to know about the workspace
type State struct {
	Groups      map[string]string `json:"groups" yaml:"groups"`             // group name -> unique ID
	Networks    map[string]string `json:"networks" yaml:"networks"`         // network cue number -> parent name
	AudioScenes map[string]bool   `json:"audio_scenes" yaml:"audio_scenes"` // names of groups holding an audio cue
}

// NewState indexes records. Cue kinds other than group, network and audio
// are ignored.
func NewState(records []Record) *State {
	s := &State{
		Groups:      make(map[string]string),
		Networks:    make(map[string]string),
		AudioScenes: make(map[string]bool),
	}

	for _, r := range records {
		switch strings.ToLower(r.Type) {
		case "group":
			s.AddGroup(r.Name, r.ID)
		case "network":
			s.AddNetwork(r.Number, r.Parent)
		case "audio":
			s.AddAudio(r.Parent)
		}
	}

	log.Info("Extracted cues", "groups", len(s.Groups), "networks", len(s.Networks), "audio", len(s.AudioScenes))
	return s
}

func (s *State) AddGroup(name, id string) {
	s.Groups[name] = id
}

func (s *State) AddNetwork(number, parent string) {
	s.Networks[number] = parent
}

func (s *State) AddAudio(scene string) {
	s.AudioScenes[scene] = true
}

// Summary lists the state in a stable order for display
func (s *State) Summary() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Groups (%d):\n", len(s.Groups))
	for _, name := range sortedKeys(s.Groups) {
		audio := ""
		if s.AudioScenes[name] {
			audio = " [audio]"
		}
		fmt.Fprintf(&b, "  %s (%s)%s\n", name, s.Groups[name], audio)
	}

	fmt.Fprintf(&b, "Network cues (%d):\n", len(s.Networks))
	for _, number := range sortedKeys(s.Networks) {
		fmt.Fprintf(&b, "  %s in %s\n", number, s.Networks[number])
	}
	return b.String()
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
