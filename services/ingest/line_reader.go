package ingest

import (
	"bufio"
	"context"
	"io"
	"strings"
	"sync"
	"sync/atomic"

	"sstab/models"
	"sstab/utils"
)

// readBufferBytes sizes the read buffer. Lines longer than this are still
// read whole.
const readBufferBytes = 64 * 1024

// LineReader streams numbered lines from an io.Reader into Out.
// Sends block until consumed. Lines of any length are delivered.
type LineReader struct {
	src  io.Reader
	Out  chan models.RawLine
	read uint64

	mu  sync.Mutex
	err error
}

// NewLineReader returns a reader with an Out buffer of bufferLines (default 1024).
func NewLineReader(src io.Reader, bufferLines int) *LineReader {
	if bufferLines <= 0 {
		bufferLines = 1024
	}
	return &LineReader{
		src: src,
		Out: make(chan models.RawLine, bufferLines),
	}
}

// Start launches the scanning goroutine. Out is closed at EOF, on a read
// error or when ctx is cancelled.
func (r *LineReader) Start(ctx context.Context) {
	go r.run(ctx)
	utils.L().Debug("line reader started  (buffer=%d)", cap(r.Out))
}

func (r *LineReader) run(ctx context.Context) {
	defer close(r.Out)

	br := bufio.NewReaderSize(r.src, readBufferBytes)

	n := 0
	for {
		text, err := br.ReadString('\n')
		if text != "" && (err == nil || err == io.EOF) {
			n++
			select {
			case <-ctx.Done():
				r.setErr(ctx.Err())
				return
			case r.Out <- models.RawLine{Number: n, Text: trimLineEnd(text)}:
				atomic.AddUint64(&r.read, 1)
			}
		}
		if err == io.EOF {
			utils.L().Debug("line reader finished (lines=%d)", n)
			return
		}
		if err != nil {
			r.setErr(err)
			utils.L().Error("line reader stopped at line %d: %v", n+1, err)
			return
		}
	}
}

// trimLineEnd drops a trailing "\n" or "\r\n".
func trimLineEnd(s string) string {
	s = strings.TrimSuffix(s, "\n")
	return strings.TrimSuffix(s, "\r")
}

func (r *LineReader) setErr(err error) {
	r.mu.Lock()
	r.err = err
	r.mu.Unlock()
}

// Err returns the error that stopped the reader, if any. Valid after Out is closed.
func (r *LineReader) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Stats returns the number of lines delivered on Out.
func (r *LineReader) Stats() uint64 {
	return atomic.LoadUint64(&r.read)
}
