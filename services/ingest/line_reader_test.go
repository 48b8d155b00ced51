package ingest

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sstab/models"
)

func drain(ch <-chan models.RawLine) []models.RawLine {
	var out []models.RawLine
	for l := range ch {
		out = append(out, l)
	}
	return out
}

func TestLineReaderNumbersLines(t *testing.T) {
	r := NewLineReader(strings.NewReader("time:1 a:1\n\ntime:2 b:2\n"), 1)
	r.Start(context.Background())

	got := drain(r.Out)

	require.NoError(t, r.Err())
	assert.Equal(t, []models.RawLine{
		{Number: 1, Text: "time:1 a:1"},
		{Number: 2, Text: ""},
		{Number: 3, Text: "time:2 b:2"},
	}, got)
	assert.Equal(t, uint64(3), r.Stats())
}

func TestLineReaderFeedsBatchParser(t *testing.T) {
	captureLogs(t)

	r := NewLineReader(strings.NewReader("time:1 a:1\nbad\ntime:2 b:2"), 0)
	r.Start(context.Background())

	res, err := NewBatchParser(nil, 1).ParseChannel(context.Background(), r.Out)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Parsed())
	assert.Equal(t, 2, res.Failures[0].Line)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk on fire") }

func TestLineReaderReportsReadError(t *testing.T) {
	captureLogs(t)

	r := NewLineReader(io.MultiReader(strings.NewReader("time:1\n"), failingReader{}), 4)
	r.Start(context.Background())

	got := drain(r.Out)
	assert.Len(t, got, 1)
	assert.EqualError(t, r.Err(), "disk on fire")
}

func TestLineReaderCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewLineReader(strings.NewReader(strings.Repeat("time:1\n", 10)), 1)
	r.Start(ctx)
	drain(r.Out)

	assert.LessOrEqual(t, r.Stats(), uint64(10))
}

func TestLineReaderLongLines(t *testing.T) {
	captureLogs(t)

	long := "time:2 junk:" + strings.Repeat("x", 2<<20)
	input := "time:1 rtt:1\r\n" + strings.Repeat("y", 2<<20) + "\n" + long + "\ntime:3 rtt:3"

	r := NewLineReader(strings.NewReader(input), 0)
	r.Start(context.Background())

	res, err := NewBatchParser(nil, 1).ParseChannel(context.Background(), r.Out)
	require.NoError(t, err)
	require.NoError(t, r.Err())

	assert.Equal(t, uint64(4), r.Stats())
	require.Equal(t, 3, res.Parsed())
	require.Len(t, res.Failures, 1)
	assert.Equal(t, 2, res.Failures[0].Line)

	v, ok := res.Records[1].Fields.Get("junk")
	require.True(t, ok)
	assert.Len(t, v.Text, 2<<20)
	rtt, _ := res.Records[0].Fields.Get("rtt")
	assert.Equal(t, 1.0, rtt.Float)
}
