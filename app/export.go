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

package app

import (
	"context"
	"os"
	"path/filepath"

	"github.com/stockparfait/errors"
	"github.com/stockparfait/iterator"
	"github.com/stockparfait/knack/db"
	"github.com/stockparfait/knack/records"
	"github.com/stockparfait/knack/table"
	"github.com/stockparfait/logging"
)

// ExportOptions select the records and their presentation.
type ExportOptions struct {
	GetOptions
	FormatKeys   bool // display names rather than field keys
	FormatValues bool // humanized rather than raw values
}

type tableAcc struct {
	b   *table.Builder
	err error
}

// Table of the named container's records. The header is the union of the
// entry names of all the records.
func (a *App) Table(ctx context.Context, name string, opts ExportOptions) (*table.Table, error) {
	recs, err := a.Get(ctx, name, opts.GetOptions)
	if err != nil {
		return nil, err
	}
	acc := iterator.Reduce[*records.Record, tableAcc](
		iterator.FromSlice(recs), tableAcc{b: table.NewBuilder()},
		func(r *records.Record, acc tableAcc) tableAcc {
			if acc.err != nil {
				return acc
			}
			entries := r.Entries(opts.FormatKeys, opts.FormatValues)
			names := make([]string, len(entries))
			values := make([]string, len(entries))
			for i, e := range entries {
				names[i] = e.Name
				values[i] = records.Stringify(e.Value)
			}
			if err := acc.b.Add(names, values); err != nil {
				acc.err = errors.Annotate(err, "bad entries of record %s", r.ID())
			}
			return acc
		})
	if acc.err != nil {
		return nil, acc.err
	}
	return acc.b.Table(), nil
}

// ToCSV writes the named container's records into "<dir>/<container key>.csv"
// and returns the file path.
func (a *App) ToCSV(ctx context.Context, name, dir string, opts ExportOptions, p table.Params) (string, error) {
	c, err := a.container(name)
	if err != nil {
		return "", err
	}
	t, err := a.Table(ctx, c.Key(), opts)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", errors.Annotate(err, "failed to create directory %s", dir)
	}
	path := filepath.Join(dir, c.Key()+".csv")
	f, err := os.Create(path)
	if err != nil {
		return "", errors.Annotate(err, "failed to create %s", path)
	}
	defer f.Close()
	if err := t.WriteCSV(f, p); err != nil {
		return "", errors.Annotate(err, "failed to write %s", path)
	}
	if err := f.Close(); err != nil {
		return "", errors.Annotate(err, "failed to close %s", path)
	}
	logging.Infof(ctx, "wrote %d records of %s to %s", len(t.Rows), c, path)
	return path, nil
}

// ToSQLite writes the named container's records into a table named after the
// container key in the SQLite database at path.
func (a *App) ToSQLite(ctx context.Context, name, path string, opts ExportOptions) error {
	c, err := a.container(name)
	if err != nil {
		return err
	}
	t, err := a.Table(ctx, c.Key(), opts)
	if err != nil {
		return err
	}
	w, err := db.NewWriter(path)
	if err != nil {
		return err
	}
	if err := w.WriteTable(ctx, c.Key(), t); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}
