package catalog

import (
	"context"
	"fmt"
	"reflect"

	"github.com/koustreak/catalogts/internal/database"
)

// fakeDB replays canned rows and records every query it receives.
type fakeDB struct {
	rows     [][]any
	queryErr error
	scanErr  error

	queries  []string
	args     [][]any
	deadline bool
	closed   int
}

func (f *fakeDB) Ping(context.Context) error { return nil }
func (f *fakeDB) Close()                     {}

func (f *fakeDB) Query(ctx context.Context, sql string, args ...any) (database.Rows, error) {
	f.queries = append(f.queries, sql)
	f.args = append(f.args, args)
	_, f.deadline = ctx.Deadline()
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return &fakeRows{db: f, idx: -1}, nil
}

type fakeRows struct {
	db  *fakeDB
	idx int
}

func (r *fakeRows) Next() bool {
	r.idx++
	return r.idx < len(r.db.rows)
}

func (r *fakeRows) Scan(dest ...any) error {
	if r.db.scanErr != nil {
		return r.db.scanErr
	}
	row := r.db.rows[r.idx]
	if len(row) != len(dest) {
		return fmt.Errorf("row has %d values, scan wants %d", len(row), len(dest))
	}
	for i, v := range row {
		assign(dest[i], v)
	}
	return nil
}

func (r *fakeRows) Close()     { r.db.closed++ }
func (r *fakeRows) Err() error { return nil }

// assign mimics database/sql conversion for the handful of types used here,
// including NULL into pointer destinations.
func assign(dest, v any) {
	dv := reflect.ValueOf(dest).Elem()
	if v == nil {
		dv.Set(reflect.Zero(dv.Type()))
		return
	}
	vv := reflect.ValueOf(v)
	if dv.Kind() == reflect.Ptr {
		p := reflect.New(dv.Type().Elem())
		p.Elem().Set(vv.Convert(dv.Type().Elem()))
		dv.Set(p)
		return
	}
	dv.Set(vv.Convert(dv.Type()))
}
