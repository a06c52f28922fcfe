package qlab

import (
	"fmt"
	"strings"
)

// CueType is one of the cue kinds QLab accepts in /new.
type CueType string

// CueType constants for type-safe cue type checking
const (
	CueTypeAudio      CueType = "audio"
	CueTypeMic        CueType = "mic"
	CueTypeVideo      CueType = "video"
	CueTypeCamera     CueType = "camera"
	CueTypeText       CueType = "text"
	CueTypeLight      CueType = "light"
	CueTypeFade       CueType = "fade"
	CueTypeNetwork    CueType = "network"
	CueTypeMIDI       CueType = "midi"
	CueTypeMIDIFile   CueType = "midi file"
	CueTypeTimecode   CueType = "timecode"
	CueTypeGroup      CueType = "group"
	CueTypeStart      CueType = "start"
	CueTypeStop       CueType = "stop"
	CueTypePause      CueType = "pause"
	CueTypeLoad       CueType = "load"
	CueTypeReset      CueType = "reset"
	CueTypeDevamp     CueType = "devamp"
	CueTypeGoto       CueType = "goto"
	CueTypeTarget     CueType = "target"
	CueTypeArm        CueType = "arm"
	CueTypeDisarm     CueType = "disarm"
	CueTypeWait       CueType = "wait"
	CueTypeMemo       CueType = "memo"
	CueTypeScript     CueType = "script"
	CueTypeList       CueType = "list"
	CueTypeCueListAlt CueType = "cuelist"
	CueTypeCueList    CueType = "cue list"
	CueTypeCart       CueType = "cart"
	CueTypeCueCartAlt CueType = "cuecart"
	CueTypeCueCart    CueType = "cue cart"
)

var cueTypes = map[CueType]bool{
	CueTypeAudio: true, CueTypeMic: true, CueTypeVideo: true, CueTypeCamera: true,
	CueTypeText: true, CueTypeLight: true, CueTypeFade: true, CueTypeNetwork: true,
	CueTypeMIDI: true, CueTypeMIDIFile: true, CueTypeTimecode: true, CueTypeGroup: true,
	CueTypeStart: true, CueTypeStop: true, CueTypePause: true, CueTypeLoad: true,
	CueTypeReset: true, CueTypeDevamp: true, CueTypeGoto: true, CueTypeTarget: true,
	CueTypeArm: true, CueTypeDisarm: true, CueTypeWait: true, CueTypeMemo: true,
	CueTypeScript: true, CueTypeList: true, CueTypeCueListAlt: true, CueTypeCueList: true,
	CueTypeCart: true, CueTypeCueCartAlt: true, CueTypeCueCart: true,
}

// ParseCueType validates s against the known cue kinds. Matching is case
// insensitive because QLab reports types capitalized ("Group").
func ParseCueType(s string) (CueType, error) {
	t := CueType(strings.ToLower(strings.TrimSpace(s)))
	if !cueTypes[t] {
		return "", fmt.Errorf("%w: %q", ErrInvalidCueType, s)
	}
	return t, nil
}

// Variant selects which handle type represents a cue kind.
type Variant int

const (
	VariantBase Variant = iota
	VariantGroup
	VariantNetwork
)

func (v Variant) String() string {
	switch v {
	case VariantGroup:
		return "group"
	case VariantNetwork:
		return "network"
	default:
		return "base"
	}
}

// Variant returns the handle variant for t. Kinds without extra capabilities
// use the base variant.
func (t CueType) Variant() Variant {
	switch t {
	case CueTypeGroup:
		return VariantGroup
	case CueTypeNetwork:
		return VariantNetwork
	default:
		return VariantBase
	}
}
