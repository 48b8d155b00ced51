package controller

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"sstab/models"
	"sstab/services/ingest"
	"sstab/utils"
	"sstab/views"
)

// ErrNoRecords is returned when a log yields no decodable lines.
var ErrNoRecords = errors.New("no data to save")

// Summary describes one parse run.
type Summary struct {
	RunID       string        `json:"run_id"`
	Input       string        `json:"input"`
	Output      string        `json:"output,omitempty"`
	Parsed      int           `json:"parsed"`
	Failed      int           `json:"failed"`
	Blank       int           `json:"blank"`
	Columns     int           `json:"columns"`
	Fingerprint string        `json:"schema_fingerprint"`
	First       time.Time     `json:"first"`
	Last        time.Time     `json:"last"`
	Span        time.Duration `json:"span_ns"`
	Elapsed     time.Duration `json:"elapsed_ns"`
}

// ParseResult is the in-memory output of a parse run.
type ParseResult struct {
	Batch   *models.BatchResult
	Table   *views.Table
	Summary Summary
}

// ParseController reads a log, parses it, flattens the records and
// exports the table.
type ParseController struct {
	cfg     *utils.Config
	metrics *utils.Metrics
	parser  *ingest.BatchParser
	openDB  func(driver, dsn string) (*sql.DB, error)
}

// NewParseController wires the parser from cfg. metrics may be nil.
func NewParseController(cfg *utils.Config, metrics *utils.Metrics) *ParseController {
	typer := ingest.NewTyper(cfg.Parse.RateSuffixes)
	decoder := ingest.NewLineDecoder(typer, cfg.Parse.NestedLabel)
	return &ParseController{
		cfg:     cfg,
		metrics: metrics,
		parser:  ingest.NewBatchParser(decoder, cfg.Parse.Workers),
		openDB:  sql.Open,
	}
}

// Parse reads and decodes input and flattens the records. It does not
// write anything.
func (pc *ParseController) Parse(ctx context.Context, input string) (*ParseResult, error) {
	start := time.Now()

	in, err := utils.OpenInput(input)
	if err != nil {
		return nil, err
	}
	defer in.Close()

	reader := ingest.NewLineReader(in, pc.cfg.Parse.ReaderBuffer)
	reader.Start(ctx)

	batch, err := pc.parser.ParseChannel(ctx, reader.Out)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", input, err)
	}
	if err := reader.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", input, err)
	}

	table := views.Flatten(batch.Records, pc.flattenOptions()...)

	sum := Summary{
		RunID:       utils.NewRunID(),
		Input:       input,
		Parsed:      batch.Parsed(),
		Failed:      batch.Failed(),
		Blank:       batch.Blank,
		Columns:     len(table.Columns),
		Fingerprint: fmt.Sprintf("%016x", table.Fingerprint()),
	}
	if first, last, ok := batch.Span(); ok {
		sum.First, sum.Last, sum.Span = first.UTC(), last.UTC(), last.Sub(first)
	}
	sum.Elapsed = time.Since(start)

	pc.metrics.ObserveRun(sum.Parsed, sum.Failed, sum.Blank, sum.Columns, sum.Elapsed)
	return &ParseResult{Batch: batch, Table: table, Summary: sum}, nil
}

// Run parses input and exports the table to output. An empty output
// selects the default parsed_<stem>.<ext> path; postgres exports ignore it.
func (pc *ParseController) Run(ctx context.Context, input, output string) (*Summary, error) {
	res, err := pc.Parse(ctx, input)
	if err != nil {
		return nil, err
	}
	if res.Batch.Parsed() == 0 {
		utils.L().Warn("no data to save  (input=%s, failed=%d)", input, res.Summary.Failed)
		return &res.Summary, ErrNoRecords
	}

	exp, target, err := pc.newExporter(input, output)
	if err != nil {
		return &res.Summary, err
	}
	if err := exp.Export(res.Table); err != nil {
		_ = exp.Close()
		return &res.Summary, fmt.Errorf("export %s: %w", target, err)
	}
	if err := exp.Close(); err != nil {
		return &res.Summary, fmt.Errorf("close %s: %w", target, err)
	}
	res.Summary.Output = target

	LogSummary(&res.Summary)
	return &res.Summary, nil
}

func (pc *ParseController) flattenOptions() []views.FlattenOption {
	opts := []views.FlattenOption{views.WithNestedPrefix(pc.cfg.Export.NestedPrefix)}
	if pc.cfg.Export.DatetimeColumn {
		opts = append(opts, views.WithDatetimeColumn(""))
	}
	return opts
}

func (pc *ParseController) newExporter(input, output string) (views.TableExporter, string, error) {
	ex := pc.cfg.Export
	switch ex.Format {
	case utils.FormatArrow:
		if output == "" {
			output = utils.DefaultOutputPath(input, "arrow")
		}
		w, err := views.NewArrowWriter(output)
		return w, output, err
	case utils.FormatPostgres:
		db, err := pc.openDB("postgres", ex.Postgres.ConnString)
		if err != nil {
			return nil, "", fmt.Errorf("open postgres: %w", err)
		}
		target := "postgres:" + ex.Postgres.Table
		return &dbExporter{
			SQLWriter: views.NewSQLWriter(db, ex.Postgres.Table, ex.Postgres.BatchSize, ex.Postgres.CreateTable),
			db:        db,
		}, target, nil
	}
	if output == "" {
		output = utils.DefaultOutputPath(input, "csv")
	}
	w, err := views.NewCSVWriter(output, ex.BufferSizeKB*1024)
	return w, output, err
}

// dbExporter closes the database handle it was opened with.
type dbExporter struct {
	*views.SQLWriter
	db *sql.DB
}

func (e *dbExporter) Close() error { return e.db.Close() }

// LogSummary prints the run statistics.
func LogSummary(s *Summary) {
	utils.L().Info("successfully parsed %s and saved to %s", s.Input, s.Output)
	utils.L().Info("processed %d log entries  (failed=%d, blank=%d, run=%s)", s.Parsed, s.Failed, s.Blank, s.RunID)
	utils.L().Info("columns=%d  schema=%s", s.Columns, s.Fingerprint)
	if !s.First.IsZero() {
		utils.L().Info("time span: %s  (%s .. %s)", s.Span, s.First.Format(time.RFC3339Nano), s.Last.Format(time.RFC3339Nano))
	}
}
