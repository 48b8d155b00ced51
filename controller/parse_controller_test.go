package controller

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sstab/utils"
	"sstab/views"
)

func TestParseControllerRunCSV(t *testing.T) {
	captureLogs(t)
	input := writeLog(t, "ss.log", sampleLog)
	out := filepath.Join(t.TempDir(), "out.csv")

	reg := prometheus.NewRegistry()
	metrics := utils.NewMetrics(reg)

	sum, err := NewParseController(testConfig(), metrics).Run(context.Background(), input, out)
	require.NoError(t, err)

	assert.Equal(t, 3, sum.Parsed)
	assert.Equal(t, 1, sum.Failed)
	assert.Equal(t, 1, sum.Blank)
	assert.Equal(t, out, sum.Output)
	assert.Equal(t, 3*time.Second, sum.Span)
	assert.Len(t, sum.Fingerprint, 16)
	assert.NotEmpty(t, sum.RunID)

	want := "cwnd,delivery_rate,lost,nested_bw,nested_mrtt,nested_pacing_gain,rtt,state,timestamp\n" +
		"10,,0.5,,,,15.5,,1000000000\n" +
		",,,12.5,0.2,1,16,ESTAB,2000000000\n" +
		"12,98.1,,,,,,,4000000000\n"
	assert.Equal(t, want, readFile(t, out))
	assert.Equal(t, 9, sum.Columns)

	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.Parsed))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Failed))
}

func TestParseControllerCompressedInputAndBBRPrefix(t *testing.T) {
	captureLogs(t)
	input := writeLog(t, "ss.log.zst", sampleLog)
	out := filepath.Join(t.TempDir(), "out.csv")

	cfg := testConfig()
	cfg.Export.NestedPrefix = "bbr_"
	cfg.Export.DatetimeColumn = true

	_, err := NewParseController(cfg, nil).Run(context.Background(), input, out)
	require.NoError(t, err)

	ds, err := views.ReadDataset(out)
	require.NoError(t, err)
	assert.True(t, ds.HasColumn("bbr_bw"))
	assert.True(t, ds.HasColumn("datetime"))
	assert.Equal(t, "1970-01-01T00:00:01Z", ds.Rows[0][indexOf(ds.Columns, "datetime")])
}

func indexOf(cols []string, c string) int {
	for i, x := range cols {
		if x == c {
			return i
		}
	}
	return -1
}

func TestParseControllerDefaultOutputPath(t *testing.T) {
	captureLogs(t)
	input := writeLog(t, "trace.log", sampleLog)

	wd, err := os.Getwd()
	require.NoError(t, err)
	dir := t.TempDir()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	sum, err := NewParseController(testConfig(), nil).Run(context.Background(), input, "")
	require.NoError(t, err)
	assert.Equal(t, "parsed_trace.csv", sum.Output)
	assert.FileExists(t, filepath.Join(dir, "parsed_trace.csv"))
}

func TestParseControllerArrow(t *testing.T) {
	captureLogs(t)
	input := writeLog(t, "ss.log", sampleLog)
	out := filepath.Join(t.TempDir(), "out.arrow")

	cfg := testConfig()
	cfg.Export.Format = utils.FormatArrow

	sum, err := NewParseController(cfg, nil).Run(context.Background(), input, out)
	require.NoError(t, err)
	assert.Equal(t, out, sum.Output)
	assert.FileExists(t, out)
}

func TestParseControllerPostgres(t *testing.T) {
	captureLogs(t)
	input := writeLog(t, "ss.log", sampleLog)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "ss_records" (ts, cells) VALUES ($1,$2),($3,$4),($5,$6)`)).
		WillReturnResult(sqlmock.NewResult(3, 3))
	mock.ExpectClose()

	cfg := testConfig()
	cfg.Export.Format = utils.FormatPostgres
	cfg.Export.Postgres.ConnString = "postgres://u:p@localhost/db?sslmode=disable"

	pc := NewParseController(cfg, nil)
	pc.openDB = func(driver, dsn string) (*sql.DB, error) {
		assert.Equal(t, "postgres", driver)
		assert.Equal(t, cfg.Export.Postgres.ConnString, dsn)
		return db, nil
	}

	sum, err := pc.Run(context.Background(), input, "ignored.csv")
	require.NoError(t, err)
	assert.Equal(t, "postgres:ss_records", sum.Output)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestParseControllerNoRecords(t *testing.T) {
	captureLogs(t)
	input := writeLog(t, "bad.log", "nothing here\nstill nothing\n")
	out := filepath.Join(t.TempDir(), "out.csv")

	sum, err := NewParseController(testConfig(), nil).Run(context.Background(), input, out)
	require.ErrorIs(t, err, ErrNoRecords)
	assert.Equal(t, 2, sum.Failed)
	assert.NoFileExists(t, out)
}

func TestParseControllerLongLineDoesNotAbort(t *testing.T) {
	captureLogs(t)
	body := "time:1 rtt:1\n" + strings.Repeat("x", 2<<20) + "\ntime:3 rtt:3\n"
	input := writeLog(t, "ss.log", body)

	res, err := NewParseController(testConfig(), nil).Parse(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Summary.Parsed)
	assert.Equal(t, 1, res.Summary.Failed)
	assert.Equal(t, 2, res.Batch.Failures[0].Line)
}

func TestParseControllerMissingInput(t *testing.T) {
	_, err := NewParseController(testConfig(), nil).
		Run(context.Background(), filepath.Join(t.TempDir(), "nope.log"), "")
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseControllerParseOnly(t *testing.T) {
	captureLogs(t)
	input := writeLog(t, "ss.log", sampleLog)

	res, err := NewParseController(testConfig(), nil).Parse(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Table.Len())
	assert.Equal(t, 2, res.Batch.Failures[0].Line)
	assert.Equal(t, time.Unix(1, 0).UTC(), res.Summary.First)
}
