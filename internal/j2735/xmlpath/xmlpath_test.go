package xmlpath

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMalformed(t *testing.T) {
	_, err := Parse("<SPAT><unclosed></SPAT>")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformed))

	_, err = Parse("")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformed))
}

func TestTextTriesPathsInOrder(t *testing.T) {
	root, err := Parse(`<g><id><id>  42 </id></id><name>Main St</name></g>`)
	require.NoError(t, err)

	assert.Equal(t, "42", Text(root, "id/id", "id"))
	assert.Equal(t, "Main St", Text(root, "name", "id/name"))
	assert.Equal(t, "", Text(root, "missing", "also/missing"))

	// The bare "id" wrapper only carries whitespace, so the nested form wins
	// even when the flat path is listed first.
	assert.Equal(t, "42", Text(root, "id", "id/id"))
}

func TestIntRejectsNonNumeric(t *testing.T) {
	root, err := Parse(`<lane><laneID>x7</laneID><other>-3</other></lane>`)
	require.NoError(t, err)

	_, ok := Int(root, "laneID")
	assert.False(t, ok)

	v, ok := Int(root, "other")
	require.True(t, ok)
	assert.Equal(t, -3, v)
}

func TestCounterSearchesDescendants(t *testing.T) {
	tests := []struct {
		name   string
		xml    string
		want   int64
		wantOK bool
	}{
		{"own text", `<timeStamp>58000</timeStamp>`, 58000, true},
		{"nested child", `<timeStamp><msecOfMin>1234</msecOfMin></timeStamp>`, 1234, true},
		{"deep first in document order", `<t><a><b>7</b></a><c>9</c></t>`, 7, true},
		{"signed is not a counter", `<t>-5</t>`, 0, false},
		{"no digits", `<t><a>soon</a></t>`, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root, err := Parse(tt.xml)
			require.NoError(t, err)
			got, ok := Counter(root)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFirstCounter(t *testing.T) {
	root, err := Parse(`<ev><timing><minEndTime>50</minEndTime><likelyTime/></timing></ev>`)
	require.NoError(t, err)

	v, ok := FirstCounter(root, "timing/likelyTime", "timing/minEndTime")
	require.True(t, ok)
	assert.Equal(t, int64(50), v)

	_, ok = FirstCounter(nil, "timing")
	assert.False(t, ok)
}
