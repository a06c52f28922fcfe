package qlab

import (
	"strings"

	"github.com/zenibako/qlab-sync/messages"

	"github.com/google/uuid"
)

// DryRunIDPrefix marks cue ids invented while running in dry-run mode
const DryRunIDPrefix = "DRYRUN-"

// isWriteOperation determines if a request changes the workspace
func isWriteOperation(address string, args []any) bool {
	writeOps := []string{
		"/new",
		"/move/",
		"/delete",
	}

	for _, writeOp := range writeOps {
		if strings.Contains(address, writeOp) {
			return true
		}
	}

	if strings.Contains(address, "/cue_id/") {
		// Cues invented by a dry run do not exist in QLab
		if strings.Contains(address, "/cue_id/"+DryRunIDPrefix) {
			return true
		}
		if strings.HasSuffix(address, "/"+messages.PropCollapse) {
			return true
		}
		// Property setters carry a value, getters do not
		return len(messages.Build(address, args...).Arguments) > 0
	}

	return false
}

// mockDryRunResponse returns the data QLab would send for a write operation
func mockDryRunResponse(address string) any {
	if strings.HasSuffix(address, messages.AddrNew) {
		return DryRunIDPrefix + strings.ToUpper(uuid.NewString())
	}
	return nil
}
