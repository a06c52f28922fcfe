package qlab

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/zenibako/qlab-sync/messages"

	"github.com/charmbracelet/log"
	"github.com/hypebeast/go-osc/osc"
)

// ReceivedMessage captures details about received OSC messages for testing
type ReceivedMessage struct {
	Address   string
	Arguments []any
	Timestamp time.Time
}

// MockCue represents a cue in the mock QLab workspace
type MockCue struct {
	UniqueID    string            `json:"uniqueID"`
	Type        string            `json:"type"`
	Name        string            `json:"name,omitempty"`
	Number      string            `json:"number,omitempty"`
	Collapsed   bool              `json:"-"`
	PatchName   string            `json:"-"`
	PatchNumber string            `json:"-"`
	Parameters  map[string]string `json:"-"`
	Parent      string            `json:"-"` // uniqueID of the parent group, empty for the cue list
	Children    []string          `json:"-"` // uniqueIDs of child cues in order
}

// MockWorkspace simulates the parts of a QLab workspace qlab-sync talks to.
// Handle answers one request the way QLab does, so the same model backs the
// in-memory MockTransport and the UDP MockOSCServer.
type MockWorkspace struct {
	mu               sync.Mutex
	workspaceID      string
	passcode         string
	cues             map[string]*MockCue // uniqueID -> cue
	rootCues         []string            // top level cues of the main cue list
	nextCueNumber    int
	alwaysReply      bool
	forgetMeNot      bool
	disconnected     bool
	rejections       map[string]string // request address -> error message
	receivedMessages []ReceivedMessage
}

// NewMockWorkspace creates an empty mock workspace
func NewMockWorkspace() *MockWorkspace {
	return &MockWorkspace{
		workspaceID:   "MOCK-WORKSPACE-ID-1234",
		cues:          make(map[string]*MockCue),
		nextCueNumber: 1,
		rejections:    make(map[string]string),
	}
}

// SetPasscode makes /connect answer "badpass" for any other passcode
func (m *MockWorkspace) SetPasscode(passcode string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.passcode = passcode
}

// RejectAddress makes every request to address fail with an error reply
func (m *MockWorkspace) RejectAddress(address, errorMsg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rejections[address] = errorMsg
}

// AddCue seeds an existing cue. An empty parent adds it to the main cue list.
func (m *MockWorkspace) AddCue(cueType, name, number, parentID string) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	cue := m.newCue(cueType)
	cue.Name = name
	cue.Number = number
	m.attach(cue, parentID, 0)
	return cue.UniqueID
}

func (m *MockWorkspace) newCue(cueType string) *MockCue {
	uniqueID := fmt.Sprintf("MOCK-CUE-%d", m.nextCueNumber)
	m.nextCueNumber++

	cue := &MockCue{
		UniqueID:   uniqueID,
		Type:       cueType,
		Parameters: make(map[string]string),
		Children:   make([]string, 0),
	}
	m.cues[uniqueID] = cue
	m.rootCues = append(m.rootCues, uniqueID)
	return cue
}

// attach moves cue under parentID at the one-based position, appending when
// position is out of range.
func (m *MockWorkspace) attach(cue *MockCue, parentID string, position int) {
	m.detach(cue)

	siblings := &m.rootCues
	if parentID != "" {
		siblings = &m.cues[parentID].Children
	}
	cue.Parent = parentID

	index := position - 1
	if index < 0 || index > len(*siblings) {
		index = len(*siblings)
	}
	*siblings = append(*siblings, "")
	copy((*siblings)[index+1:], (*siblings)[index:])
	(*siblings)[index] = cue.UniqueID
}

func (m *MockWorkspace) detach(cue *MockCue) {
	siblings := &m.rootCues
	if cue.Parent != "" {
		siblings = &m.cues[cue.Parent].Children
	}
	for i, id := range *siblings {
		if id == cue.UniqueID {
			*siblings = append((*siblings)[:i], (*siblings)[i+1:]...)
			return
		}
	}
}

// Handle processes one request and returns the reply messages QLab would send
func (m *MockWorkspace) Handle(msg *osc.Message) []*osc.Message {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.receivedMessages = append(m.receivedMessages, ReceivedMessage{
		Address:   msg.Address,
		Arguments: append([]any{}, msg.Arguments...),
		Timestamp: time.Now(),
	})

	if errorMsg, ok := m.rejections[msg.Address]; ok {
		return []*osc.Message{m.errorReply(msg.Address, errorMsg)}
	}

	address := strings.TrimPrefix(msg.Address, "/workspace/"+m.workspaceID)
	data, err := m.route(address, msg.Arguments)
	if err != nil {
		log.Debug("Mock workspace rejecting request", "address", msg.Address, "error", err)
		return []*osc.Message{m.errorReply(msg.Address, err.Error())}
	}
	return []*osc.Message{m.okReply(msg.Address, data)}
}

func (m *MockWorkspace) route(address string, args []any) (any, error) {
	parts := strings.Split(strings.TrimPrefix(address, "/"), "/")

	switch {
	case address == messages.AddrConnect:
		if m.passcode != "" && (len(args) == 0 || args[0] != m.passcode) {
			return "badpass", nil
		}
		m.disconnected = false
		return "ok:view|edit|control", nil
	case address == messages.AddrAlwaysReply:
		m.alwaysReply = len(args) > 0
		return nil, nil
	case address == messages.AddrForgetMeNot:
		m.forgetMeNot = len(args) > 0 && args[0] == true
		return nil, nil
	case address == messages.AddrDisconnect:
		m.disconnected = true
		return nil, nil
	case address == messages.AddrNew:
		return m.handleNewCue(args)
	case address == messages.AddrCueLists:
		return m.cueListsData(), nil
	case parts[0] == "move" && len(parts) == 2:
		return nil, m.handleMoveCue(parts[1], args)
	case parts[0] == "cue" && len(parts) == 3:
		return m.handleGetByNumber(parts[1], parts[2])
	case parts[0] == "cue_id" && len(parts) >= 3:
		return m.handleCueProperty(parts[1], parts[2:], args)
	}
	return nil, fmt.Errorf("unsupported address %s", address)
}

func (m *MockWorkspace) handleNewCue(args []any) (any, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("no cue type specified")
	}
	cueType, ok := args[0].(string)
	if !ok {
		return nil, fmt.Errorf("invalid cue type")
	}
	if _, err := ParseCueType(cueType); err != nil {
		return nil, err
	}

	cue := m.newCue(cueType)
	log.Debugf("Mock workspace created cue: %s (type: %s)", cue.UniqueID, cueType)
	return cue.UniqueID, nil
}

func (m *MockWorkspace) handleMoveCue(cueID string, args []any) error {
	cue, exists := m.cues[cueID]
	if !exists {
		return fmt.Errorf("cue %s not found", cueID)
	}
	if len(args) != 2 {
		return fmt.Errorf("expected 2 arguments for move, got %d", len(args))
	}

	index, indexOk := args[0].(int32)
	parentID, parentOk := args[1].(string)
	if !indexOk || !parentOk {
		return fmt.Errorf("invalid argument types for move: %T, %T", args[0], args[1])
	}
	parent, exists := m.cues[parentID]
	if !exists || !strings.EqualFold(parent.Type, string(CueTypeGroup)) {
		return fmt.Errorf("parent %s is not a group", parentID)
	}

	m.attach(cue, parentID, int(index))
	return nil
}

func (m *MockWorkspace) handleGetByNumber(number, property string) (any, error) {
	for _, cue := range m.cues {
		if cue.Number != number {
			continue
		}
		switch property {
		case "type":
			return displayType(cue.Type), nil
		case "uniqueID":
			return cue.UniqueID, nil
		case "name":
			return cue.Name, nil
		}
		return nil, fmt.Errorf("unsupported property %s", property)
	}
	return nil, fmt.Errorf("cue %s not found", number)
}

func (m *MockWorkspace) handleCueProperty(cueID string, path []string, args []any) (any, error) {
	cue, exists := m.cues[cueID]
	if !exists {
		return nil, fmt.Errorf("cue %s not found", cueID)
	}

	property := path[0]
	var value string
	isSet := len(args) > 0
	if isSet {
		value = fmt.Sprintf("%v", args[0])
	}

	switch property {
	case messages.PropName:
		if isSet {
			cue.Name = value
		}
		return cue.Name, nil
	case messages.PropNumber:
		if isSet {
			for _, other := range m.cues {
				if other != cue && other.Number == value {
					return nil, fmt.Errorf("cue number %s already in use", value)
				}
			}
			cue.Number = value
		}
		return cue.Number, nil
	case messages.PropType:
		return displayType(cue.Type), nil
	case messages.PropCollapse:
		cue.Collapsed = true
		return nil, nil
	case messages.PropNetworkPatchName:
		if isSet {
			cue.PatchName = value
		}
		return cue.PatchName, nil
	case messages.PropNetworkPatchNumber:
		if isSet {
			cue.PatchNumber = value
		}
		return cue.PatchNumber, nil
	case messages.PropParameterValue:
		if len(path) != 2 {
			return nil, fmt.Errorf("parameterValue requires a parameter name")
		}
		if isSet {
			cue.Parameters[path[1]] = value
		}
		return cue.Parameters[path[1]], nil
	case messages.PropParameterValues:
		values := make(map[string]any, len(cue.Parameters))
		for k, v := range cue.Parameters {
			values[k] = v
		}
		return values, nil
	}
	return nil, fmt.Errorf("unsupported property %s", property)
}

// cueListsData mirrors the shape of QLab's /cueLists reply
func (m *MockWorkspace) cueListsData() []any {
	return []any{
		map[string]any{
			"uniqueID": "MOCK-CUELIST-1",
			"name":     "Main Cue List",
			"type":     "Cue List",
			"cues":     m.cueTree(m.rootCues),
		},
	}
}

func (m *MockWorkspace) cueTree(ids []string) []any {
	cues := make([]any, 0, len(ids))
	for _, id := range ids {
		cue := m.cues[id]
		cueData := map[string]any{
			"uniqueID": cue.UniqueID,
			"type":     displayType(cue.Type),
			"name":     cue.Name,
			"number":   cue.Number,
		}
		if strings.EqualFold(cue.Type, string(CueTypeGroup)) {
			cueData["cues"] = m.cueTree(cue.Children)
		}
		cues = append(cues, cueData)
	}
	return cues
}

// displayType capitalizes a cue type the way QLab reports it
func displayType(cueType string) string {
	if cueType == "" {
		return ""
	}
	return strings.ToUpper(cueType[:1]) + cueType[1:]
}

func (m *MockWorkspace) okReply(address string, data any) *osc.Message {
	return m.reply(address, map[string]any{
		"workspace_id": m.workspaceID,
		"address":      address,
		"status":       StatusOK,
		"data":         data,
	})
}

func (m *MockWorkspace) errorReply(address, errorMsg string) *osc.Message {
	return m.reply(address, map[string]any{
		"workspace_id": m.workspaceID,
		"address":      address,
		"status":       StatusError,
		"data":         errorMsg,
	})
}

func (m *MockWorkspace) reply(address string, payload map[string]any) *osc.Message {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		log.Errorf("Failed to marshal reply data: %v", err)
		jsonData = []byte(`{"status":"error"}`)
	}
	return osc.NewMessage(messages.ReplyPrefix+address, string(jsonData))
}

// GetWorkspaceID returns the mock workspace ID
func (m *MockWorkspace) GetWorkspaceID() string {
	return m.workspaceID
}

// GetCueCount returns the number of cues in the workspace
func (m *MockWorkspace) GetCueCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.cues)
}

// GetCue returns a copy of a cue by its unique ID, or nil
func (m *MockWorkspace) GetCue(uniqueID string) *MockCue {
	m.mu.Lock()
	defer m.mu.Unlock()

	cue, ok := m.cues[uniqueID]
	if !ok {
		return nil
	}
	cp := *cue
	cp.Children = append([]string{}, cue.Children...)
	cp.Parameters = make(map[string]string, len(cue.Parameters))
	for k, v := range cue.Parameters {
		cp.Parameters[k] = v
	}
	return &cp
}

// FindCue returns a copy of the first cue matching type and name
func (m *MockWorkspace) FindCue(cueType, name string) *MockCue {
	m.mu.Lock()
	var found string
	for id, cue := range m.cues {
		if strings.EqualFold(cue.Type, cueType) && cue.Name == name {
			found = id
			break
		}
	}
	m.mu.Unlock()

	if found == "" {
		return nil
	}
	return m.GetCue(found)
}

// CueByNumber returns a copy of the cue with the given number, or nil
func (m *MockWorkspace) CueByNumber(number string) *MockCue {
	m.mu.Lock()
	var found string
	for id, cue := range m.cues {
		if cue.Number == number {
			found = id
			break
		}
	}
	m.mu.Unlock()

	if found == "" {
		return nil
	}
	return m.GetCue(found)
}

// Session reports the alwaysReply, forgetMeNot and disconnected flags
func (m *MockWorkspace) Session() (alwaysReply, forgetMeNot, disconnected bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.alwaysReply, m.forgetMeNot, m.disconnected
}

// GetReceivedMessages returns all captured messages for testing
func (m *MockWorkspace) GetReceivedMessages() []ReceivedMessage {
	m.mu.Lock()
	defer m.mu.Unlock()

	messages := make([]ReceivedMessage, len(m.receivedMessages))
	copy(messages, m.receivedMessages)
	return messages
}

// GetMessagesForAddress returns messages whose address contains addressPattern
func (m *MockWorkspace) GetMessagesForAddress(addressPattern string) []ReceivedMessage {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matches []ReceivedMessage
	for _, msg := range m.receivedMessages {
		if strings.Contains(msg.Address, addressPattern) {
			matches = append(matches, msg)
		}
	}
	return matches
}

// ClearReceivedMessages clears the captured messages
func (m *MockWorkspace) ClearReceivedMessages() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.receivedMessages = make([]ReceivedMessage, 0)
}
