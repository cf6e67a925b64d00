package pipeline

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sankeertg21/traffic-wait-timer/internal/detect"
)

func indices(bs []detect.Batch) []int {
	out := []int{}
	for _, b := range bs {
		out = append(out, b.Frame.Index)
	}
	return out
}

func TestAligner(t *testing.T) {
	quietLogs(t)

	stream := `{"frame":1,"t":0}
{"frame":3,"t":0.1}
not json
{"frame":3,"t":0.1}
{"frame":6,"t":0.2}
`
	a := NewAligner(detect.NewSource(strings.NewReader(stream), 30))

	got, err := a.Until(1)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, indices(got))

	got, err = a.Until(2)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = a.Until(3)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 3}, indices(got))
	assert.Equal(t, 1, a.Skipped())
	assert.False(t, a.Done())

	got, err = a.Until(10)
	require.NoError(t, err)
	assert.Equal(t, []int{6}, indices(got))
	assert.True(t, a.Done())

	got, err = a.Until(11)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestAligner_SourceError(t *testing.T) {
	boom := errors.New("boom")
	a := NewAligner(failingSource{boom})
	_, err := a.Until(1)
	assert.ErrorIs(t, err, boom)
}
