package records

import (
	"slices"
	"strings"
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const spatA = `<SPAT><timeStamp>1</timeStamp></SPAT>`
const spatB = `<SPAT><timeStamp>2</timeStamp></SPAT>`

func TestConcatenatedRecordsAreSplit(t *testing.T) {
	got := slices.Collect(SPaTScanner().All(spatA + spatB))
	require.Len(t, got, 2)
	assert.Equal(t, spatA, got[0])
	assert.Equal(t, spatB, got[1])

	for _, rec := range got {
		doc := etree.NewDocument()
		assert.NoError(t, doc.ReadFromString(rec))
	}
}

func TestInterleavedAndWrapped(t *testing.T) {
	text := strings.Join([]string{
		"<log><entry ts=\"1\"><value>",
		"<MapData><intersections/></MapData>",
		"</value></entry><entry>",
		spatA,
		"</entry>garbage<entry>",
		spatB,
		"<MapData><second/></MapData>",
		"</entry></log>",
	}, "\n")

	assert.Equal(t, 2, MapScanner().Count(text))
	assert.Equal(t, 2, SPaTScanner().Count(text))

	maps := slices.Collect(MapScanner().All(text))
	require.Len(t, maps, 2)
	assert.Equal(t, "<MapData><intersections/></MapData>", maps[0])
}

func TestUnterminatedRecordStopsScan(t *testing.T) {
	text := spatA + "<SPAT><timeStamp>3</timeStamp>" + spatB
	// The unterminated start marker pairs with spatB's end marker and
	// swallows spatB's own start marker.
	got := slices.Collect(SPaTScanner().All(text))
	require.Len(t, got, 2)
	assert.Equal(t, spatA, got[0])

	got = slices.Collect(SPaTScanner().All(spatA + "<SPAT><timeStamp>"))
	assert.Equal(t, []string{spatA}, got)
}

func TestSequenceIsRestartable(t *testing.T) {
	seq := SPaTScanner().All(spatA + spatB)
	first := slices.Collect(seq)
	second := slices.Collect(seq)
	assert.Equal(t, first, second)
}

func TestEarlyBreak(t *testing.T) {
	n := 0
	for range SPaTScanner().All(spatA + spatB + spatA) {
		n++
		break
	}
	assert.Equal(t, 1, n)
}

func TestCustomDelimiters(t *testing.T) {
	s := Scanner{Start: "<SignalPhaseAndTiming>", End: "</SignalPhaseAndTiming>"}
	require.NoError(t, s.Validate())
	assert.Equal(t, 1, s.Count("x<SignalPhaseAndTiming>y</SignalPhaseAndTiming>z"))

	assert.Error(t, Scanner{Start: "<a>"}.Validate())
	assert.Error(t, Scanner{Start: "x", End: "x"}.Validate())
	assert.Equal(t, 0, Scanner{}.Count(spatA))
}

func TestNoRecords(t *testing.T) {
	assert.Empty(t, slices.Collect(MapScanner().All("")))
	assert.Zero(t, SPaTScanner().Count("nothing here"))
}
