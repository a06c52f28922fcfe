package eos

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testRow struct {
	number     string
	follow     string
	sceneStart string
	sceneEnd   string
}

// buildExport renders rows as the targets section of an Eos export
func buildExport(rows ...testRow) string {
	var b strings.Builder
	b.WriteString("START_FIXTURES\nEND_FIXTURES\n")
	b.WriteString(StartMarker + "\n")
	b.WriteString(strings.Repeat("COLUMN,", minColumns-1) + "COLUMN\n")
	for _, r := range rows {
		fields := make([]string, minColumns)
		fields[0] = "1"
		fields[ColCueNumber] = r.number
		fields[ColFollow] = r.follow
		fields[ColSceneStart] = r.sceneStart
		fields[ColSceneEnd] = r.sceneEnd
		b.WriteString(strings.Join(fields, ",") + "\n")
	}
	b.WriteString(EndMarker + "\n")
	return b.String()
}

func TestParseSingleScene(t *testing.T) {
	export := buildExport(
		testRow{number: "1.5", sceneStart: "SceneA"},
		testRow{number: "2.0", sceneEnd: "1"},
	)

	show, err := Parse(strings.NewReader(export))
	require.NoError(t, err)

	assert.Equal(t, []string{"SceneA"}, show.Scenes)
	assert.Equal(t, []NetworkSlot{
		{CueNumber: "1.5", Scene: "SceneA", Index: 0},
		{CueNumber: "2.0", Scene: "SceneA", Index: 1},
	}, show.Slots)
}

func TestParseMissingStartMarker(t *testing.T) {
	export := strings.Replace(buildExport(testRow{number: "1", sceneStart: "A"}), StartMarker, "", 1)

	_, err := Parse(strings.NewReader(export))
	require.ErrorIs(t, err, ErrMalformedExport)
	assert.Contains(t, err.Error(), StartMarker)
	assert.Contains(t, err.Error(), "includes targets")
}

func TestParseMissingEndMarker(t *testing.T) {
	export := strings.Replace(buildExport(testRow{number: "1", sceneStart: "A"}), EndMarker, "", 1)

	_, err := Parse(strings.NewReader(export))
	require.ErrorIs(t, err, ErrMalformedExport)
	assert.Contains(t, err.Error(), EndMarker)
}

func TestParseTooFewColumns(t *testing.T) {
	export := StartMarker + "\nHEADER\n1,Cue,1,1.5\n" + EndMarker

	_, err := Parse(strings.NewReader(export))
	require.ErrorIs(t, err, ErrMalformedExport)

	var malformed *MalformedExportError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, 1, malformed.Row)
}

func TestParseEmptyTargets(t *testing.T) {
	show, err := Parse(strings.NewReader(StartMarker + "\n" + EndMarker))
	require.NoError(t, err)
	assert.Empty(t, show.Scenes)
	assert.Empty(t, show.Slots)
}

func TestParseFollowSuppression(t *testing.T) {
	export := buildExport(
		testRow{number: "1", sceneStart: "A"},
		testRow{number: "2", follow: "F1"},
		testRow{number: "3"},
		testRow{number: "4", sceneEnd: "1"},
	)

	show, err := Parse(strings.NewReader(export))
	require.NoError(t, err)

	// The row after a follow shares its timing and gets no slot or index
	assert.Equal(t, []NetworkSlot{
		{CueNumber: "1", Scene: "A", Index: 0},
		{CueNumber: "2", Scene: "A", Index: 1},
		{CueNumber: "4", Scene: "A", Index: 2},
	}, show.Slots)
}

func TestParseFollowAnyContent(t *testing.T) {
	export := buildExport(
		testRow{number: "1", sceneStart: "A"},
		testRow{number: "2", follow: "0"},
		testRow{number: "3", sceneEnd: "false"},
		testRow{number: "4"},
	)

	show, err := Parse(strings.NewReader(export))
	require.NoError(t, err)

	// "0" still marks a follow and "false" still closes the scene
	assert.Equal(t, []NetworkSlot{
		{CueNumber: "1", Scene: "A", Index: 0},
		{CueNumber: "2", Scene: "A", Index: 1},
	}, show.Slots)
}

func TestParseCuesOutsideScenes(t *testing.T) {
	export := buildExport(
		testRow{number: "0.5"},
		testRow{number: "1", sceneStart: "A", sceneEnd: "1"},
		testRow{number: "2"},
		testRow{number: "3", sceneStart: "B"},
		testRow{number: "4"},
	)

	show, err := Parse(strings.NewReader(export))
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B"}, show.Scenes)
	assert.Equal(t, []NetworkSlot{
		{CueNumber: "1", Scene: "A", Index: 0},
		{CueNumber: "3", Scene: "B", Index: 0},
		{CueNumber: "4", Scene: "B", Index: 1},
	}, show.Slots)
}

func TestParseDuplicateCueNumber(t *testing.T) {
	export := buildExport(
		testRow{number: "1", sceneStart: "A"},
		testRow{number: "2", sceneEnd: "1"},
		testRow{number: "1", sceneStart: "B"},
	)

	show, err := Parse(strings.NewReader(export))
	require.NoError(t, err)

	assert.Equal(t, []NetworkSlot{
		{CueNumber: "1", Scene: "B", Index: 0},
		{CueNumber: "2", Scene: "A", Index: 1},
	}, show.Slots)
}

func TestParseFile(t *testing.T) {
	show, err := ParseFile("testdata/show.csv")
	require.NoError(t, err)

	assert.Equal(t, []string{"Prologue", "Act One"}, show.Scenes)
	assert.Len(t, show.Slots, 7)
	assert.Equal(t, []NetworkSlot{
		{CueNumber: "4", Scene: "Act One", Index: 0},
		{CueNumber: "5", Scene: "Act One", Index: 1},
		{CueNumber: "6", Scene: "Act One", Index: 2},
		{CueNumber: "8", Scene: "Act One", Index: 3},
	}, show.SlotsForScene("Act One"))
}

func TestParseFileMissing(t *testing.T) {
	_, err := ParseFile("testdata/does-not-exist.csv")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMalformedExport)
}

func TestIsSet(t *testing.T) {
	tests := map[string]bool{
		"":      false,
		"  ":    false,
		"\t":    false,
		"0":     true,
		"false": true,
		"1":     true,
		"F2":    true,
		"F0.5":  true,
	}

	for in, want := range tests {
		assert.Equal(t, want, isSet(in), "isSet(%q)", in)
	}
}
