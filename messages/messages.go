package messages

import (
	"fmt"
	"strings"
)

// OSC address constants for the subset of the QLab dictionary used by qlab-sync

// Reply namespace prefixed by QLab to the address of the request it answers
const ReplyPrefix = "/reply"

// Message types
type MessageType string

const (
	// Application messages
	MsgConnect     MessageType = "connect"
	MsgDisconnect  MessageType = "disconnect"
	MsgAlwaysReply MessageType = "always_reply"
	MsgForgetMeNot MessageType = "forget_me_not"

	// Workspace messages
	MsgNew      MessageType = "new"
	MsgCueLists MessageType = "cue_lists"

	// Cue messages (by number)
	MsgCueType     MessageType = "cue_type"
	MsgCueUniqueID MessageType = "cue_unique_id"
)

// OSC Address patterns
const (
	// Application level
	AddrConnect     = "/connect"
	AddrDisconnect  = "/disconnect"
	AddrAlwaysReply = "/alwaysReply"
	AddrForgetMeNot = "/forgetMeNot"

	// Workspace level
	AddrNew      = "/new"
	AddrCueLists = "/cueLists"
	AddrMove     = "/move/{unique_id}"

	// Cue level (by number)
	AddrCueType     = "/cue/{cue_number}/type"
	AddrCueUniqueID = "/cue/{cue_number}/uniqueID"

	// Cue level (by uniqueID)
	AddrCueIDProperty = "/cue_id/{unique_id}/{property}"
)

// Cue properties addressed under /cue_id/{unique_id}
const (
	PropName               = "name"
	PropNumber             = "number"
	PropType               = "type"
	PropCollapse           = "collapse"
	PropNetworkPatchName   = "networkPatchName"
	PropNetworkPatchNumber = "networkPatchNumber"
	PropParameterValues    = "parameterValues"
	PropParameterValue     = "parameterValue"
)

var applicationLevel = map[string]bool{
	AddrConnect:     true,
	AddrDisconnect:  true,
	AddrAlwaysReply: true,
	AddrForgetMeNot: true,
}

// OSCAddressBuilder builds OSC addresses from message types and parameters
type OSCAddressBuilder struct {
	workspaceID string
}

// NewOSCAddressBuilder creates a new address builder. An empty workspace ID
// addresses the frontmost workspace, which is what QLab does for unprefixed
// messages.
func NewOSCAddressBuilder(workspaceID string) *OSCAddressBuilder {
	return &OSCAddressBuilder{
		workspaceID: workspaceID,
	}
}

// BuildAddress builds an OSC address from a message type and parameters
func (b *OSCAddressBuilder) BuildAddress(msgType MessageType, params map[string]string) string {
	var address string

	switch msgType {
	case MsgConnect:
		address = AddrConnect
	case MsgDisconnect:
		address = AddrDisconnect
	case MsgAlwaysReply:
		address = AddrAlwaysReply
	case MsgForgetMeNot:
		address = AddrForgetMeNot
	case MsgNew:
		address = AddrNew
	case MsgCueLists:
		address = AddrCueLists
	case MsgCueType:
		address = AddrCueType
	case MsgCueUniqueID:
		address = AddrCueUniqueID
	default:
		return ""
	}

	for key, value := range params {
		placeholder := fmt.Sprintf("{%s}", key)
		address = strings.ReplaceAll(address, placeholder, value)
	}

	return b.withWorkspace(address)
}

// BuildCuePropertyAddress builds an address for a cue property by uniqueID.
// Extra path segments are appended, e.g. parameterValue/cueNumber.
func (b *OSCAddressBuilder) BuildCuePropertyAddress(uniqueID, property string, extra ...string) string {
	address := fmt.Sprintf("/cue_id/%s/%s", uniqueID, property)
	for _, segment := range extra {
		address += "/" + segment
	}
	return b.withWorkspace(address)
}

// BuildMoveAddress builds the address used to reparent and reorder a cue
func (b *OSCAddressBuilder) BuildMoveAddress(uniqueID string) string {
	return b.withWorkspace(strings.ReplaceAll(AddrMove, "{unique_id}", uniqueID))
}

// BuildReplyAddress builds a reply address for a given request address
func (b *OSCAddressBuilder) BuildReplyAddress(requestAddress string) string {
	return ReplyPrefix + requestAddress
}

// GetWorkspacePrefix returns the workspace prefix for addresses that need it
func (b *OSCAddressBuilder) GetWorkspacePrefix() string {
	if b.workspaceID == "" {
		return ""
	}
	return fmt.Sprintf("/workspace/%s", b.workspaceID)
}

func (b *OSCAddressBuilder) withWorkspace(address string) string {
	if b.workspaceID == "" || applicationLevel[address] {
		return address
	}
	return b.GetWorkspacePrefix() + address
}

// ParseReplyAddress strips the reply namespace from an incoming address and
// returns the request address it answers.
func ParseReplyAddress(address string) (string, bool) {
	if !strings.HasPrefix(address, ReplyPrefix+"/") {
		return "", false
	}
	return strings.TrimPrefix(address, ReplyPrefix), true
}
