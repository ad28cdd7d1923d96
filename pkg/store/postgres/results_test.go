package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var timeZero time.Time

type failingQuerier struct {
	sql  string
	args []any
}

func (q *failingQuerier) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	q.sql, q.args = sql, args
	return nil, errors.New("connection refused")
}

func TestSelectQuery_QuotesTable(t *testing.T) {
	assert.Contains(t, selectQuery("results"), `FROM "results"`)
	assert.Contains(t, selectQuery(`evil"; drop`), `FROM "evil""; drop"`)
}

func TestFetchResults_WrapsQueryError(t *testing.T) {
	q := &failingQuerier{}
	src := NewResultSource(q, "")

	_, err := src.FetchResults(context.Background(), "rlcs", timeZero, timeZero)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to query results")
	assert.Contains(t, q.sql, `"results"`)
	assert.Equal(t, "rlcs", q.args[0])
}
