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

// Package table renders rows of strings as CSV or as aligned text.
package table

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/stockparfait/errors"
)

// Row interface that a table row representation must implement.
type Row interface {
	CSV() []string // an encoding/csv compatible row representation
}

// Strings is a row of ready-made cells.
type Strings []string

var _ Row = Strings{}

func (s Strings) CSV() []string { return s }

// Table container.
//
// A typical use:
//
//	t := NewTable("Name", "Age")
//	t.AddRow(Strings{"John", "25"}, Strings{"Jane", "24"})
//	err := t.WriteCSV(os.Stdout, Params{Delimiter: ';'})
type Table struct {
	Header []string // optional, may be nil
	Rows   []Row
}

// NewTable creates a new Table instance with optional column headers. When
// present, the number of column headers must be the same as the number of
// cells in each Row.
func NewTable(header ...string) *Table {
	return &Table{Header: header}
}

// AddRow adds one or more rows to the table.
func (t *Table) AddRow(rows ...Row) {
	t.Rows = append(t.Rows, rows...)
}

// Builder assembles a table from rows with possibly different sets of named
// columns. The header is the union of all the column names in the order of
// their first appearance; missing cells are empty.
type Builder struct {
	header []string
	index  map[string]int
	rows   []map[int]string
}

// NewBuilder creates an empty Builder.
func NewBuilder() *Builder {
	return &Builder{index: make(map[string]int)}
}

// Add a row of named cells. Names and values must have the same length.
func (b *Builder) Add(names, values []string) error {
	if len(names) != len(values) {
		return errors.Reason("%d names for %d values", len(names), len(values))
	}
	row := make(map[int]string, len(names))
	for i, n := range names {
		col, ok := b.index[n]
		if !ok {
			col = len(b.header)
			b.index[n] = col
			b.header = append(b.header, n)
		}
		row[col] = values[i]
	}
	b.rows = append(b.rows, row)
	return nil
}

// Len is the number of rows added so far.
func (b *Builder) Len() int {
	return len(b.rows)
}

// Table with the union header and all the rows padded to its width.
func (b *Builder) Table() *Table {
	t := NewTable(b.header...)
	for _, r := range b.rows {
		row := make(Strings, len(b.header))
		for col, v := range r {
			row[col] = v
		}
		t.AddRow(row)
	}
	return t
}

// Params are parameters for pretty-printing or CSV export of Table data.
type Params struct {
	Rows        int  // max. number of rows to write; 0 = unlimited (default)
	NoHeader    bool // whether to print the header, default - yes
	MaxColWidth int  // for WriteText only; 0 = unlimited, otherwise must be >= 4
	Delimiter   rune // for WriteCSV only; 0 means ','
}

func (p Params) rows(t *Table) []Row {
	if p.Rows > 0 && p.Rows < len(t.Rows) {
		return t.Rows[:p.Rows]
	}
	return t.Rows
}

// WriteCSV writes the table to w in CSV format.
func (t *Table) WriteCSV(w io.Writer, p Params) error {
	cw := csv.NewWriter(w)
	if p.Delimiter != 0 {
		if p.Delimiter == '"' || p.Delimiter == '\r' || p.Delimiter == '\n' ||
			!utf8.ValidRune(p.Delimiter) {
			return errors.Reason("invalid delimiter %q", p.Delimiter)
		}
		cw.Comma = p.Delimiter
	}
	if !p.NoHeader && len(t.Header) > 0 {
		if err := cw.Write(t.Header); err != nil {
			return errors.Annotate(err, "failed to write header")
		}
	}
	for _, r := range p.rows(t) {
		if err := cw.Write(r.CSV()); err != nil {
			return errors.Annotate(err, "failed to write row")
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return errors.Annotate(err, "failed to flush written rows")
	}
	return nil
}

// WriteText writes the table as right-aligned text columns for ease of
// reading. Cells wider than MaxColWidth are trimmed with "..".
func (t *Table) WriteText(w io.Writer, p Params) error {
	if p.MaxColWidth != 0 && p.MaxColWidth < 4 {
		return errors.Reason("MaxColWidth [%d] must be 0 or >= 4", p.MaxColWidth)
	}
	var lines [][]string
	if !p.NoHeader && len(t.Header) > 0 {
		lines = append(lines, t.Header)
	}
	for _, r := range p.rows(t) {
		lines = append(lines, r.CSV())
	}
	if len(lines) == 0 {
		return nil
	}
	widths := make([]int, len(lines[0]))
	if len(widths) == 0 {
		return errors.Reason("row size = 0")
	}
	for _, l := range lines {
		if len(l) != len(widths) {
			return errors.Reason("row size [%d] != expected size [%d]",
				len(l), len(widths))
		}
		for i, s := range l {
			n := utf8.RuneCountInString(s)
			if p.MaxColWidth > 0 && n > p.MaxColWidth {
				n = p.MaxColWidth
			}
			if n > widths[i] {
				widths[i] = n
			}
		}
	}

	write := func(row []string) error {
		cells := make([]string, len(row))
		for i, s := range row {
			if r := []rune(s); len(r) > widths[i] {
				s = string(r[:widths[i]-2]) + ".."
			}
			pad := widths[i] - utf8.RuneCountInString(s)
			cells[i] = strings.Repeat(" ", pad) + s
		}
		_, err := fmt.Fprintf(w, "%s\n", strings.Join(cells, " | "))
		return err
	}

	for i, l := range lines {
		if err := write(l); err != nil {
			return errors.Annotate(err, "failed to write row")
		}
		if i == 0 && !p.NoHeader && len(t.Header) > 0 {
			dashes := make([]string, len(widths))
			for j, n := range widths {
				dashes[j] = strings.Repeat("-", n)
			}
			if err := write(dashes); err != nil {
				return errors.Annotate(err, "failed to write header separator")
			}
		}
	}
	return nil
}
