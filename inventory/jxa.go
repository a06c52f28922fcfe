package inventory

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"

	"github.com/charmbracelet/log"
)

// jxaScript prints one quoted CSV row per cue of the frontmost workspace
const jxaScript = `const qlab = Application("QLab");
const workspace = qlab.workspaces[0];
const qLabsCues = workspace.cues();
for (let i = 0; i < qLabsCues.length; i++) {
  const q = qLabsCues[i]
  console.log(` + "`" + `"${[q.uniqueid(), q.qNumber(), q.qName(), q.parent().qName(), q.qType()].join('","')}"` + "`" + `)
}`

// JXASource asks QLab for its cues through AppleScript for JavaScript. It
// only works on the machine running QLab.
type JXASource struct {
	// Command is the osascript binary, "osascript" when empty
	Command string
}

func (s JXASource) Records(ctx context.Context) ([]Record, error) {
	command := s.Command
	if command == "" {
		command = "osascript"
	}

	log.Info("Getting cues from QLab workspace", "source", "jxa")
	// console.log writes to stderr
	out, err := exec.CommandContext(ctx, command, "-l", "JavaScript", "-e", jxaScript).CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("%w: osascript failed: %v: %s", ErrMalformedInventory, err, bytes.TrimSpace(out))
	}

	return ReadCSV(bytes.NewReader(bytes.TrimSpace(out)))
}
