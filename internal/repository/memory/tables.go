// Package memory provides in-process implementations of the repository
// ports. They back the "memory" driver and the package tests.
package memory

import (
	"alcyxob/gym-console/internal/repository"
	"context"
	"reflect"
	"sync"
)

// Op names a Tables operation for error injection.
type Op string

const (
	OpSelect Op = "select"
	OpInsert Op = "insert"
	OpUpdate Op = "update"
	OpUpsert Op = "upsert"
	OpDelete Op = "delete"
)

type injection struct {
	op    Op
	table string
}

// Tables is a map-backed repository.Tables. Rows keep insertion order.
type Tables struct {
	mu       sync.RWMutex
	tables   map[string][]repository.Row
	failures map[injection]error
	calls    []Call
}

// Call records one operation against the fake, in order.
type Call struct {
	Op    Op
	Table string
}

// NewTables creates an empty in-memory table set.
func NewTables() *Tables {
	return &Tables{
		tables:   make(map[string][]repository.Row),
		failures: make(map[injection]error),
	}
}

// FailOn makes every subsequent op on table return err. A nil err clears it.
func (t *Tables) FailOn(op Op, table string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	key := injection{op: op, table: table}
	if err == nil {
		delete(t.failures, key)
		return
	}
	t.failures[key] = err
}

// Rows returns a copy of every row currently stored in table.
func (t *Tables) Rows(table string) []repository.Row {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]repository.Row, 0, len(t.tables[table]))
	for _, r := range t.tables[table] {
		out = append(out, copyRow(r))
	}
	return out
}

// Calls returns the operations performed so far.
func (t *Tables) Calls() []Call {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Call, len(t.calls))
	copy(out, t.calls)
	return out
}

// begin records the call and reports any injected failure. Caller holds the lock.
func (t *Tables) begin(op Op, table string) error {
	t.calls = append(t.calls, Call{Op: op, Table: table})
	return t.failures[injection{op: op, table: table}]
}

// Select implements repository.Tables.
func (t *Tables) Select(ctx context.Context, q repository.Query) ([]repository.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.begin(OpSelect, q.Table); err != nil {
		return nil, err
	}

	var out []repository.Row
	for _, r := range t.tables[q.Table] {
		if !matches(r, q.Filter) {
			continue
		}
		row := copyRow(r)
		t.embed(row, q.Embeds)
		out = append(out, row)
	}
	return out, nil
}

// embed joins related rows into row. Caller holds the lock.
func (t *Tables) embed(row repository.Row, embeds []repository.Embed) {
	for _, e := range embeds {
		local := row[e.LocalKey]
		var related []repository.Row
		if local != nil {
			for _, child := range t.tables[e.Table] {
				if valuesEqual(child[e.ForeignKey], local) {
					c := copyRow(child)
					t.embed(c, e.Embeds)
					related = append(related, c)
				}
			}
		}
		if e.Single {
			if len(related) == 0 {
				row[e.Key()] = nil
			} else {
				row[e.Key()] = related[0]
			}
			continue
		}
		if related == nil {
			related = []repository.Row{}
		}
		row[e.Key()] = related
	}
}

// Insert implements repository.Tables.
func (t *Tables) Insert(ctx context.Context, table string, rows ...repository.Row) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.begin(OpInsert, table); err != nil {
		return err
	}
	for _, r := range rows {
		if id, ok := r["id"]; ok && id != nil {
			for _, existing := range t.tables[table] {
				if valuesEqual(existing["id"], id) {
					return repository.ErrDuplicateKey
				}
			}
		}
	}
	for _, r := range rows {
		t.tables[table] = append(t.tables[table], copyRow(r))
	}
	return nil
}

// Update implements repository.Tables.
func (t *Tables) Update(ctx context.Context, table string, filter repository.Filter, patch repository.Row) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.begin(OpUpdate, table); err != nil {
		return 0, err
	}
	var matched int64
	for _, r := range t.tables[table] {
		if !matches(r, filter) {
			continue
		}
		for k, v := range patch {
			r[k] = v
		}
		matched++
	}
	return matched, nil
}

// Upsert implements repository.Tables.
func (t *Tables) Upsert(ctx context.Context, table string, conflictKey string, rows ...repository.Row) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.begin(OpUpsert, table); err != nil {
		return err
	}
	for _, r := range rows {
		merged := false
		for _, existing := range t.tables[table] {
			if valuesEqual(existing[conflictKey], r[conflictKey]) {
				for k, v := range r {
					existing[k] = v
				}
				merged = true
				break
			}
		}
		if !merged {
			t.tables[table] = append(t.tables[table], copyRow(r))
		}
	}
	return nil
}

// Delete implements repository.Tables.
func (t *Tables) Delete(ctx context.Context, table string, filter repository.Filter) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.begin(OpDelete, table); err != nil {
		return 0, err
	}
	kept := t.tables[table][:0]
	var removed int64
	for _, r := range t.tables[table] {
		if matches(r, filter) {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	t.tables[table] = kept
	return removed, nil
}

func matches(r repository.Row, filter repository.Filter) bool {
	for k, v := range filter {
		if !valuesEqual(r[k], v) {
			return false
		}
	}
	return true
}

func valuesEqual(a, b any) bool {
	return reflect.DeepEqual(a, b)
}

func copyRow(r repository.Row) repository.Row {
	out := make(repository.Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
