// Copyright 2022 Stock Parfait

// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at

//     http://www.apache.org/licenses/LICENSE-2.0

// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package db exports tables into a SQLite database file.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/stockparfait/errors"
	"github.com/stockparfait/knack/table"
	"github.com/stockparfait/logging"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// Writer of tables into a SQLite database.
type Writer struct {
	db   *sql.DB
	path string
}

// NewWriter opens the SQLite database at path, creating it if necessary.
func NewWriter(path string) (*Writer, error) {
	db, err := sql.Open("sqlite", "file:"+path)
	if err != nil {
		return nil, errors.Annotate(err, "failed to open %s", path)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Annotate(err, "failed to connect to %s", path)
	}
	return &Writer{db: db, path: path}, nil
}

// Close the database.
func (w *Writer) Close() error {
	if err := w.db.Close(); err != nil {
		return errors.Annotate(err, "failed to close %s", w.path)
	}
	return nil
}

// quote an SQL identifier.
func quote(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// columnNames makes the header valid as SQLite column names, which are case
// insensitive and must be unique and non-empty.
func columnNames(header []string) []string {
	seen := make(map[string]struct{}, len(header))
	res := make([]string, len(header))
	for i, h := range header {
		name := h
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}
		base := name
		for n := 2; ; n++ {
			if _, ok := seen[strings.ToLower(name)]; !ok {
				break
			}
			name = fmt.Sprintf("%s_%d", base, n)
		}
		seen[strings.ToLower(name)] = struct{}{}
		res[i] = name
	}
	return res
}

// WriteTable replaces the table name with the content of t. All columns have
// the TEXT type. Rows are inserted in a single transaction.
func (w *Writer) WriteTable(ctx context.Context, name string, t *table.Table) error {
	if len(t.Header) == 0 {
		return errors.Reason("table %s has no header", name)
	}
	cols := columnNames(t.Header)
	defs := make([]string, len(cols))
	quoted := make([]string, len(cols))
	params := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = quote(c)
		defs[i] = quoted[i] + " TEXT"
		params[i] = "?"
	}
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Annotate(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	stmts := []string{
		fmt.Sprintf("DROP TABLE IF EXISTS %s", quote(name)),
		fmt.Sprintf("CREATE TABLE %s (%s)", quote(name), strings.Join(defs, ", ")),
	}
	for _, s := range stmts {
		if _, err := tx.ExecContext(ctx, s); err != nil {
			return errors.Annotate(err, "failed to execute: %s", s)
		}
	}
	insert, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quote(name), strings.Join(quoted, ", "), strings.Join(params, ", ")))
	if err != nil {
		return errors.Annotate(err, "failed to prepare insert into %s", name)
	}
	defer insert.Close()
	args := make([]any, len(cols))
	for i, r := range t.Rows {
		row := r.CSV()
		if len(row) != len(cols) {
			return errors.Reason("row %d has %d cells, expected %d", i, len(row), len(cols))
		}
		for j, v := range row {
			args[j] = v
		}
		if _, err := insert.ExecContext(ctx, args...); err != nil {
			return errors.Annotate(err, "failed to insert row %d into %s", i, name)
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.Annotate(err, "failed to commit table %s", name)
	}
	logging.Infof(ctx, "wrote %d rows into table %s of %s", len(t.Rows), name, w.path)
	return nil
}

// ReadTable reads back the entire table, in insertion order.
func (w *Writer) ReadTable(ctx context.Context, name string) (*table.Table, error) {
	rows, err := w.db.QueryContext(ctx, fmt.Sprintf("SELECT * FROM %s ORDER BY rowid", quote(name)))
	if err != nil {
		return nil, errors.Annotate(err, "failed to query table %s", name)
	}
	defer rows.Close()
	cols, err := rows.Columns()
	if err != nil {
		return nil, errors.Annotate(err, "failed to read columns of %s", name)
	}
	t := table.NewTable(cols...)
	for rows.Next() {
		cells := make([]sql.NullString, len(cols))
		ptrs := make([]any, len(cols))
		for i := range cells {
			ptrs[i] = &cells[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, errors.Annotate(err, "failed to scan a row of %s", name)
		}
		row := make(table.Strings, len(cols))
		for i, c := range cells {
			row[i] = c.String
		}
		t.AddRow(row)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Annotate(err, "failed to read table %s", name)
	}
	return t, nil
}

// Tables lists the names of the tables in the database.
func (w *Writer) Tables(ctx context.Context) ([]string, error) {
	rows, err := w.db.QueryContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name")
	if err != nil {
		return nil, errors.Annotate(err, "failed to list tables")
	}
	defer rows.Close()
	var res []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, errors.Annotate(err, "failed to scan table name")
		}
		res = append(res, n)
	}
	return res, rows.Err()
}
