package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRow struct {
	counter int
	err     error
}

func (r stubRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) == 1 {
		if d, ok := dest[0].(*int); ok {
			*d = r.counter
		}
	}
	return nil
}

type stubDB struct {
	row      stubRow
	lastSQL  string
	lastArgs []any
}

func (db *stubDB) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	return nil, nil
}

func (db *stubDB) QueryRow(ctx context.Context, sql string, args ...any) Row {
	db.lastSQL = sql
	db.lastArgs = args
	return db.row
}

func (db *stubDB) Exec(ctx context.Context, sql string, args ...any) (CommandTag, error) {
	return nil, nil
}

func (db *stubDB) Begin(ctx context.Context) (Tx, error) {
	return nil, nil
}

func (db *stubDB) Close() {}

func TestGenerateOrderNumber(t *testing.T) {
	db := &stubDB{row: stubRow{counter: 7}}
	repo := NewOrderRepository(db)

	number, err := repo.GenerateOrderNumber(context.Background())
	require.NoError(t, err)

	day := time.Now().UTC().Format("20060102")
	assert.Equal(t, fmt.Sprintf("ORD_%s_007", day), number)

	// The counter must come from a single atomic upsert, not a count of
	// existing rows that a concurrent create could duplicate.
	assert.Contains(t, db.lastSQL, "ON CONFLICT (day) DO UPDATE")
	assert.Equal(t, []any{day}, db.lastArgs)
}

func TestGenerateOrderNumberPropagatesError(t *testing.T) {
	db := &stubDB{row: stubRow{err: fmt.Errorf("connection reset")}}
	repo := NewOrderRepository(db)

	_, err := repo.GenerateOrderNumber(context.Background())
	require.Error(t, err)
}
