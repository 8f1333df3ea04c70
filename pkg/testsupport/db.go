package testsupport

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/uptrace/bun"

	"github.com/autozen/backend/internal/store"
)

// dbSeq keeps each test's shared in-memory database distinct.
var dbSeq atomic.Int64

// QueryCounter is a bun query hook that counts statements, so tests can
// assert the zero-store-queries property of a cache hit.
type QueryCounter struct {
	mu      sync.Mutex
	selects int
	total   int
}

// BeforeQuery implements bun.QueryHook.
func (qc *QueryCounter) BeforeQuery(ctx context.Context, event *bun.QueryEvent) context.Context {
	return ctx
}

// AfterQuery implements bun.QueryHook.
func (qc *QueryCounter) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	qc.mu.Lock()
	defer qc.mu.Unlock()
	qc.total++
	if strings.HasPrefix(strings.ToUpper(strings.TrimSpace(event.Query)), "SELECT") {
		qc.selects++
	}
}

// Selects returns the number of SELECT statements seen.
func (qc *QueryCounter) Selects() int {
	qc.mu.Lock()
	defer qc.mu.Unlock()
	return qc.selects
}

// Total returns the number of statements seen.
func (qc *QueryCounter) Total() int {
	qc.mu.Lock()
	defer qc.mu.Unlock()
	return qc.total
}

// Reset zeroes the counters.
func (qc *QueryCounter) Reset() {
	qc.mu.Lock()
	defer qc.mu.Unlock()
	qc.selects, qc.total = 0, 0
}

// NewDB opens an in-memory sqlite database, migrates the given models and
// attaches a QueryCounter. The pool is pinned to a single connection so the
// shared in-memory database survives for the whole test.
func NewDB(t *testing.T, models ...any) (*bun.DB, *QueryCounter) {
	t.Helper()

	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", dbSeq.Add(1))
	db, err := store.Open(store.Config{Driver: "sqlite", DSN: dsn})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)

	if err := store.Migrate(context.Background(), db, models...); err != nil {
		t.Fatalf("failed to migrate test schema: %v", err)
	}

	qc := &QueryCounter{}
	db.AddQueryHook(qc)
	t.Cleanup(func() { _ = db.Close() })
	return db, qc
}
