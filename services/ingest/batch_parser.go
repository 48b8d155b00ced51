package ingest

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"sstab/models"
	"sstab/utils"
)

// Decoder turns one trimmed, non-blank line into a record.
type Decoder interface {
	Decode(line string) (models.LineRecord, error)
}

// BatchParser decodes a whole input and isolates per-line failures.
// It keeps no state between calls.
type BatchParser struct {
	decoder Decoder
	workers int
}

// NewBatchParser returns a parser using decoder (a default decoder when nil).
// workers > 1 decodes lines in parallel; output order is always input order.
func NewBatchParser(decoder Decoder, workers int) *BatchParser {
	if decoder == nil {
		decoder = NewLineDecoder(nil, "")
	}
	if workers < 1 {
		workers = 1
	}
	return &BatchParser{decoder: decoder, workers: workers}
}

// ParseAll numbers lines from 1 and parses them.
func (p *BatchParser) ParseAll(lines []string) *models.BatchResult {
	raw := make([]models.RawLine, len(lines))
	for i, l := range lines {
		raw[i] = models.RawLine{Number: i + 1, Text: l}
	}
	return p.ParseRaw(raw)
}

// ParseChannel drains ch until it is closed, then parses everything read.
// It returns ctx.Err() if the context ends first.
func (p *BatchParser) ParseChannel(ctx context.Context, ch <-chan models.RawLine) (*models.BatchResult, error) {
	var raw []models.RawLine
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case l, ok := <-ch:
			if !ok {
				return p.ParseRaw(raw), nil
			}
			raw = append(raw, l)
		}
	}
}

// outcome is the per-line slot written by decode workers.
type outcome struct {
	blank   bool
	record  models.LineRecord
	failure *models.ParseFailure
}

// ParseRaw decodes already-numbered lines. Blank lines are counted and
// skipped; every other line yields exactly one record or one failure.
func (p *BatchParser) ParseRaw(lines []models.RawLine) *models.BatchResult {
	slots := make([]outcome, len(lines))

	if p.workers == 1 || len(lines) < 2*p.workers {
		for i := range lines {
			slots[i] = p.decodeOne(lines[i])
		}
	} else {
		chunk := (len(lines) + p.workers - 1) / p.workers
		var g errgroup.Group
		for start := 0; start < len(lines); start += chunk {
			end := min(start+chunk, len(lines))
			g.Go(func() error {
				for i := start; i < end; i++ {
					slots[i] = p.decodeOne(lines[i])
				}
				return nil
			})
		}
		_ = g.Wait() // workers never return errors
	}

	res := &models.BatchResult{Records: make([]models.LineRecord, 0, len(lines))}
	for i := range slots {
		switch {
		case slots[i].blank:
			res.Blank++
		case slots[i].failure != nil:
			f := *slots[i].failure
			utils.L().Warn("error parsing line %d: %s", f.Line, f.Cause)
			if utils.L().Enabled(utils.DEBUG) {
				utils.L().Debug("line content: %s", f.Text)
			}
			res.Failures = append(res.Failures, f)
		default:
			res.Records = append(res.Records, slots[i].record)
		}
	}
	return res
}

func (p *BatchParser) decodeOne(l models.RawLine) (out outcome) {
	text := strings.TrimSpace(l.Text)
	if text == "" {
		return outcome{blank: true}
	}

	defer func() {
		if r := recover(); r != nil {
			out = outcome{failure: &models.ParseFailure{
				Line:  l.Number,
				Cause: fmt.Sprintf("unexpected fault: %v", r),
				Text:  text,
			}}
		}
	}()

	rec, err := p.decoder.Decode(text)
	if err != nil {
		return outcome{failure: &models.ParseFailure{Line: l.Number, Cause: err.Error(), Text: text}}
	}
	return outcome{record: rec}
}
