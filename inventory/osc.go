package inventory

import (
	"context"
	"fmt"

	"github.com/zenibako/qlab-sync/messages"

	"github.com/charmbracelet/log"
)

// Requester is the part of the QLab client OSCSource needs
type Requester interface {
	Request(ctx context.Context, address string, args ...any) (any, error)
	Addresses() *messages.OSCAddressBuilder
}

// OSCSource reads the cue tree with /cueLists over the OSC connection, so it
// also works against a QLab on another machine.
type OSCSource struct {
	Client Requester
}

func (s OSCSource) Records(ctx context.Context) ([]Record, error) {
	log.Info("Getting cues from QLab workspace", "source", "osc")

	data, err := s.Client.Request(ctx, s.Client.Addresses().BuildAddress(messages.MsgCueLists, nil))
	if err != nil {
		return nil, fmt.Errorf("failed to get cue lists: %w", err)
	}

	cueLists, ok := data.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected cue lists data %T", ErrMalformedInventory, data)
	}

	var records []Record
	for _, item := range cueLists {
		cueList, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: unexpected cue list %T", ErrMalformedInventory, item)
		}
		flattened, err := flattenCues(cueList["cues"], stringField(cueList, "name"))
		if err != nil {
			return nil, err
		}
		records = append(records, flattened...)
	}

	log.Debug("Flattened cue lists", "cueLists", len(cueLists), "cues", len(records))
	return records, nil
}

// flattenCues walks nested cue data depth first
func flattenCues(raw any, parent string) ([]Record, error) {
	if raw == nil {
		return nil, nil
	}
	cues, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected cues %T under %q", ErrMalformedInventory, raw, parent)
	}

	var records []Record
	for _, item := range cues {
		cue, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: unexpected cue %T under %q", ErrMalformedInventory, item, parent)
		}

		record := Record{
			ID:     stringField(cue, "uniqueID"),
			Number: stringField(cue, "number"),
			Name:   stringField(cue, "name"),
			Parent: parent,
			Type:   stringField(cue, "type"),
		}
		records = append(records, record)

		children, err := flattenCues(cue["cues"], record.Name)
		if err != nil {
			return nil, err
		}
		records = append(records, children...)
	}
	return records, nil
}

func stringField(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}
