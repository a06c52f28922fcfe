package qlab

import (
	"context"
	"fmt"
	"strings"

	"github.com/zenibako/qlab-sync/messages"

	"github.com/charmbracelet/log"
)

// Handle is the capability every cue handle has.
type Handle interface {
	UniqueID() string
	Kind() CueType
	Err() error
}

// Collapser is implemented by handles whose cue can be collapsed in the cue list.
type Collapser interface {
	Handle
	Collapse(ctx context.Context) *GroupCue
}

// Patcher is implemented by handles that route through a network patch.
type Patcher interface {
	Handle
	SetPatchNumber(ctx context.Context, number int) *NetworkCue
	SetParameter(ctx context.Context, param string, value any) *NetworkCue
}

var (
	_ Handle    = (*Cue)(nil)
	_ Collapser = (*GroupCue)(nil)
	_ Patcher   = (*NetworkCue)(nil)
)

// Cue is a handle to a cue in the QLab workspace.
//
// Mutators issue one request each and return the handle so calls can be
// chained. The first failure is kept in Err and turns every later mutator
// into a no-op.
type Cue struct {
	id      string
	cueType CueType
	client  *Client
	err     error
}

func (c *Cue) UniqueID() string { return c.id }

func (c *Cue) Kind() CueType { return c.cueType }

// Err returns the first error hit by a mutator.
func (c *Cue) Err() error { return c.err }

func (c *Cue) propertyAddress(property string, extra ...string) string {
	return c.client.addressBuilder.BuildCuePropertyAddress(c.id, property, extra...)
}

func (c *Cue) set(ctx context.Context, address string, args ...any) {
	if c.err != nil {
		return
	}
	if _, err := c.client.Request(ctx, address, args...); err != nil {
		c.err = fmt.Errorf("cue %s: %w", c.id, err)
	}
}

func (c *Cue) Name(ctx context.Context) (string, error) {
	return c.client.RequestString(ctx, c.propertyAddress(messages.PropName))
}

func (c *Cue) SetName(ctx context.Context, name string) *Cue {
	c.set(ctx, c.propertyAddress(messages.PropName), name)
	return c
}

func (c *Cue) Number(ctx context.Context) (string, error) {
	return c.client.RequestString(ctx, c.propertyAddress(messages.PropNumber))
}

func (c *Cue) SetNumber(ctx context.Context, number string) *Cue {
	c.set(ctx, c.propertyAddress(messages.PropNumber), number)
	return c
}

// Move reparents the cue under parentID at position index.
func (c *Cue) Move(ctx context.Context, index int, parentID string) *Cue {
	c.set(ctx, c.client.addressBuilder.BuildMoveAddress(c.id), index, parentID)
	return c
}

// GroupCue adds group-only operations.
type GroupCue struct {
	*Cue
}

func (g *GroupCue) SetName(ctx context.Context, name string) *GroupCue {
	g.Cue.SetName(ctx, name)
	return g
}

func (g *GroupCue) SetNumber(ctx context.Context, number string) *GroupCue {
	g.Cue.SetNumber(ctx, number)
	return g
}

func (g *GroupCue) Move(ctx context.Context, index int, parentID string) *GroupCue {
	g.Cue.Move(ctx, index, parentID)
	return g
}

// Collapse folds the group in QLab's cue list view.
func (g *GroupCue) Collapse(ctx context.Context) *GroupCue {
	g.set(ctx, g.propertyAddress(messages.PropCollapse))
	return g
}

// NetworkCue adds network patch and parameter accessors.
type NetworkCue struct {
	*Cue
}

func (n *NetworkCue) SetName(ctx context.Context, name string) *NetworkCue {
	n.Cue.SetName(ctx, name)
	return n
}

func (n *NetworkCue) SetNumber(ctx context.Context, number string) *NetworkCue {
	n.Cue.SetNumber(ctx, number)
	return n
}

func (n *NetworkCue) Move(ctx context.Context, index int, parentID string) *NetworkCue {
	n.Cue.Move(ctx, index, parentID)
	return n
}

func (n *NetworkCue) PatchName(ctx context.Context) (string, error) {
	return n.client.RequestString(ctx, n.propertyAddress(messages.PropNetworkPatchName))
}

func (n *NetworkCue) SetPatchName(ctx context.Context, name string) *NetworkCue {
	n.set(ctx, n.propertyAddress(messages.PropNetworkPatchName), name)
	return n
}

func (n *NetworkCue) PatchNumber(ctx context.Context) (string, error) {
	return n.client.RequestString(ctx, n.propertyAddress(messages.PropNetworkPatchNumber))
}

func (n *NetworkCue) SetPatchNumber(ctx context.Context, number int) *NetworkCue {
	n.set(ctx, n.propertyAddress(messages.PropNetworkPatchNumber), number)
	return n
}

// Parameter returns the value of a single network message parameter.
func (n *NetworkCue) Parameter(ctx context.Context, param string) (string, error) {
	return n.client.RequestString(ctx, n.propertyAddress(messages.PropParameterValue, param))
}

func (n *NetworkCue) SetParameter(ctx context.Context, param string, value any) *NetworkCue {
	n.set(ctx, n.propertyAddress(messages.PropParameterValue, param), value)
	return n
}

// ParameterValues returns every parameter of the cue's network message.
func (n *NetworkCue) ParameterValues(ctx context.Context) (any, error) {
	return n.client.Request(ctx, n.propertyAddress(messages.PropParameterValues))
}

func (c *Client) newHandle(id string, cueType CueType) Handle {
	base := &Cue{id: id, cueType: cueType, client: c}
	switch cueType.Variant() {
	case VariantGroup:
		return &GroupCue{Cue: base}
	case VariantNetwork:
		return &NetworkCue{Cue: base}
	default:
		return base
	}
}

// NewCue creates a cue of kind cueType and returns a handle of the matching
// variant. Unknown kinds are rejected without contacting QLab.
func (c *Client) NewCue(ctx context.Context, cueType CueType) (Handle, error) {
	t, err := ParseCueType(string(cueType))
	if err != nil {
		return nil, err
	}

	id, err := c.RequestString(ctx, c.addressBuilder.BuildAddress(messages.MsgNew, nil), string(t))
	if err != nil {
		return nil, fmt.Errorf("failed to create %s cue: %w", t, err)
	}
	if id == "" {
		return nil, fmt.Errorf("failed to create %s cue: QLab returned no unique ID", t)
	}

	log.Debug("Created cue via OSC", "type", t, "uniqueID", id)
	return c.newHandle(id, t), nil
}

// NewGroupCue creates a group cue.
func (c *Client) NewGroupCue(ctx context.Context) (*GroupCue, error) {
	h, err := c.NewCue(ctx, CueTypeGroup)
	if err != nil {
		return nil, err
	}
	return h.(*GroupCue), nil
}

// NewNetworkCue creates a network cue.
func (c *Client) NewNetworkCue(ctx context.Context) (*NetworkCue, error) {
	h, err := c.NewCue(ctx, CueTypeNetwork)
	if err != nil {
		return nil, err
	}
	return h.(*NetworkCue), nil
}

// LookupCue materializes a handle for an existing cue by its cue number. It
// asks for the type first and then the unique ID. Kinds QLab reports that
// are not in the known set get a base handle.
func (c *Client) LookupCue(ctx context.Context, number string) (Handle, error) {
	params := map[string]string{"cue_number": number}

	rawType, err := c.RequestString(ctx, c.addressBuilder.BuildAddress(messages.MsgCueType, params))
	if err != nil {
		return nil, fmt.Errorf("failed to get type of cue %s: %w", number, err)
	}
	id, err := c.RequestString(ctx, c.addressBuilder.BuildAddress(messages.MsgCueUniqueID, params))
	if err != nil {
		return nil, fmt.Errorf("failed to get unique ID of cue %s: %w", number, err)
	}

	cueType, err := ParseCueType(rawType)
	if err != nil {
		log.Warn("Unknown cue type, using base handle", "number", number, "type", rawType)
		cueType = CueType(strings.ToLower(rawType))
	}
	return c.newHandle(id, cueType), nil
}
