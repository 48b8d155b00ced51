package views

import (
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sstab/models"
)

func TestSQLWriterExport(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS "ss_records" (ts BIGINT NOT NULL, cells JSONB NOT NULL)`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "ss_records" (ts, cells) VALUES ($1,$2),($3,$4)`)).
		WithArgs(int64(1000000000), sqlmock.AnyArg(), int64(2000000000), `{"cwnd":20,"timestamp":2000000000}`).
		WillReturnResult(sqlmock.NewResult(2, 2))

	w := NewSQLWriter(db, "ss_records", 0, true)
	require.NoError(t, w.Export(sampleTable()))
	require.NoError(t, w.Close())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLWriterBatches(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	recs := []models.LineRecord{record(1, "a", 1.0), record(2, "a", 2.0), record(3, "a", 3.0)}

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "t" (ts, cells) VALUES ($1,$2),($3,$4)`)).
		WithArgs(int64(1), `{"a":1,"timestamp":1}`, int64(2), `{"a":2,"timestamp":2}`).
		WillReturnResult(sqlmock.NewResult(2, 2))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "t" (ts, cells) VALUES ($1,$2)`)).
		WithArgs(int64(3), `{"a":3,"timestamp":3}`).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, NewSQLWriter(db, "t", 2, false).Export(Flatten(recs)))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLWriterPropagatesErrors(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO").WillReturnError(errors.New("connection reset"))

	err = NewSQLWriter(db, "t", 10, false).Export(sampleTable())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert rows 1-2")
	assert.Contains(t, err.Error(), "connection reset")
}

func TestSQLWriterEmptyTable(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, NewSQLWriter(db, "t", 10, false).Export(Flatten(nil)))
	require.NoError(t, mock.ExpectationsWereMet())
}
