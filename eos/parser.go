// Package eos reads the cue list exported by an ETC Eos console.
//
// Only the targets section of a CSV show export is used. Every scene becomes
// a scene group and every cue inside a scene becomes a network slot, except
// for cues that follow the previous one.
package eos

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

// Markers surrounding the targets section of an Eos CSV export
const (
	StartMarker = "START_TARGETS"
	EndMarker   = "END_TARGETS"
)

// Column positions inside a target row
const (
	ColCueNumber  = 3
	ColFollow     = 23
	ColSceneStart = 32
	ColSceneEnd   = 33

	minColumns = ColSceneEnd + 1
)

// NetworkSlot is a console cue inside a scene, destined to become a network
// cue in the scene's group.
type NetworkSlot struct {
	CueNumber string `json:"cue_number" yaml:"cue_number"`
	Scene     string `json:"scene" yaml:"scene"`
	// Index is zero-based and counts only the scene's non-follow cues.
	Index int `json:"index" yaml:"index"`
}

// Show is the parsed export: scenes in console order and the network slots
// in encounter order.
type Show struct {
	Scenes []string      `json:"scenes" yaml:"scenes"`
	Slots  []NetworkSlot `json:"slots" yaml:"slots"`
}

// SlotsForScene returns the slots of scene in index order
func (s *Show) SlotsForScene(scene string) []NetworkSlot {
	var slots []NetworkSlot
	for _, slot := range s.Slots {
		if slot.Scene == scene {
			slots = append(slots, slot)
		}
	}
	return slots
}

// ParseFile parses the export at path
func ParseFile(path string) (*Show, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Eos export: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	return Parse(f)
}

// Parse reads an Eos CSV export.
//
// The follow flag of a row suppresses the slot of the row after it. A cue
// number seen twice keeps the position of its first slot and takes the scene
// and index of the last one.
func Parse(r io.Reader) (*Show, error) {
	log.Info("Parsing Eos cues")

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read Eos export: %w", err)
	}

	body, err := targetsSection(string(raw))
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(strings.NewReader(body))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	// Header
	if _, err := reader.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return &Show{}, nil
		}
		return nil, &MalformedExportError{Reason: "unreadable header", Err: err}
	}

	show := &Show{}
	slotPositions := make(map[string]int)
	currentScene := ""
	isFollow := false
	index := 0

	for row := 1; ; row++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &MalformedExportError{Row: row, Reason: "unreadable row", Err: err}
		}
		if len(record) < minColumns {
			return nil, &MalformedExportError{
				Row:    row,
				Reason: fmt.Sprintf("expected at least %d columns, got %d", minColumns, len(record)),
			}
		}

		cueNumber := strings.TrimSpace(record[ColCueNumber])
		follow := isSet(record[ColFollow])
		sceneStart := strings.TrimSpace(record[ColSceneStart])
		sceneEnd := isSet(record[ColSceneEnd])

		if sceneStart != "" {
			currentScene = sceneStart
			show.Scenes = append(show.Scenes, currentScene)
			index = 0
			log.Debug("Scene started", "scene", currentScene, "cue", cueNumber)
		}

		if currentScene != "" && !isFollow {
			slot := NetworkSlot{CueNumber: cueNumber, Scene: currentScene, Index: index}
			if pos, seen := slotPositions[cueNumber]; seen {
				log.Warn("Duplicate cue number in export", "cue", cueNumber, "scene", currentScene)
				show.Slots[pos] = slot
			} else {
				slotPositions[cueNumber] = len(show.Slots)
				show.Slots = append(show.Slots, slot)
			}
			index++
		} else if isFollow {
			log.Debug("Skipping follow cue", "cue", cueNumber)
		}

		if sceneEnd {
			currentScene = ""
		}
		isFollow = follow
	}

	log.Infof("Eos cues parsed, total of %d cues", len(show.Slots))
	return show, nil
}

func targetsSection(raw string) (string, error) {
	start := strings.Index(raw, StartMarker)
	if start < 0 {
		return "", &MalformedExportError{Reason: "missing " + StartMarker + " marker"}
	}
	rest := raw[start+len(StartMarker):]

	end := strings.Index(rest, EndMarker)
	if end < 0 {
		return "", &MalformedExportError{Reason: "missing " + EndMarker + " marker"}
	}
	return strings.TrimSpace(rest[:end]), nil
}

// isSet interprets a boolean-like export field. Eos writes follow times such
// as "F0.5" and leaves the column empty otherwise, so any content counts.
func isSet(field string) bool {
	return strings.TrimSpace(field) != ""
}
