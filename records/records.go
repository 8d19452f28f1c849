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

// Package records normalizes raw records of a container: it replaces empty
// strings with nil, corrects the platform's local timestamps, and pairs each
// raw field value with its humanized form.
package records

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/stockparfait/errors"
	"github.com/stockparfait/knack/fields"
	"github.com/stockparfait/knack/knack"
	"github.com/stockparfait/knack/tz"
)

// Entry is a flat named value of a record, for export.
type Entry struct {
	Name  string
	Value any
}

// Field value of a record.
type Field struct {
	Def       *fields.FieldDef
	Raw       any // corrected raw value
	Formatted any // humanized value
}

// Key of the field.
func (f *Field) Key() string { return f.Def.Key }

// Name of the field.
func (f *Field) Name() string { return f.Def.Name }

// Value is either the raw or the formatted value.
func (f *Field) Value(formatted bool) any {
	if formatted {
		return f.Formatted
	}
	return f.Raw
}

// Entries of the field. A mapping value of a field with subfields is expanded
// into one entry per subfield named "<field>_<subfield>".
func (f *Field) Entries(formatKeys, formatValues bool) []Entry {
	name := f.Key()
	if formatKeys {
		name = f.Name()
	}
	v := f.Value(formatValues)
	m, ok := v.(map[string]any)
	if !ok || len(f.Def.Subfields) == 0 {
		return []Entry{{Name: name, Value: v}}
	}
	res := make([]Entry, len(f.Def.Subfields))
	for i, s := range f.Def.Subfields {
		res[i] = Entry{Name: name + "_" + s, Value: m[s]}
	}
	return res
}

// Record is a normalized record of a container.
type Record struct {
	raw    knack.RawRecord
	id     string
	fields []*Field // the ID first, then in definition order
	byKey  map[string]*Field
	byName map[string]*Field
}

// normalize copies the raw record, replacing empty strings with nil and
// correcting the timestamps of date values.
func normalize(raw knack.RawRecord, loc *time.Location) knack.RawRecord {
	res := make(knack.RawRecord, len(raw))
	for k, v := range raw {
		switch x := v.(type) {
		case string:
			if x == "" {
				res[k] = nil
				continue
			}
		case map[string]any:
			if ms, ok := fields.Timestamp(x); ok {
				m := make(map[string]any, len(x))
				for mk, mv := range x {
					m[mk] = mv
				}
				m["unix_timestamp"] = tz.Correct(ms, loc)
				res[k] = m
				continue
			}
		}
		res[k] = v
	}
	return res
}

// New normalizes the raw record given the definitions of the container's
// fields. The raw record is not modified.
func New(raw knack.RawRecord, defs []*fields.FieldDef, loc *time.Location) (*Record, error) {
	id, ok := raw[fields.IDKey].(string)
	if !ok || id == "" {
		return nil, errors.Reason("record has no ID: %v", raw)
	}
	r := &Record{
		raw:    normalize(raw, loc),
		id:     id,
		byKey:  make(map[string]*Field, len(defs)+1),
		byName: make(map[string]*Field, len(defs)+1),
	}
	r.add(&Field{Def: fields.NewIDField(""), Raw: id, Formatted: id})
	for _, d := range defs {
		v := r.selectValue(d)
		f, err := d.Format(v, loc)
		if err != nil {
			return nil, errors.Annotate(err, "failed to normalize record %s", id)
		}
		r.add(&Field{Def: d, Raw: v, Formatted: f})
	}
	return r, nil
}

// selectValue picks the formatter input: the "<key>_raw" value, unless the
// field uses the platform-rendered value, or the raw value is missing.
func (r *Record) selectValue(d *fields.FieldDef) any {
	if !d.UseKnackFormat {
		if v, ok := r.raw[d.Key+"_raw"]; ok {
			return v
		}
	}
	return r.raw[d.Key]
}

func (r *Record) add(f *Field) {
	r.fields = append(r.fields, f)
	r.byKey[f.Key()] = f
	if _, ok := r.byName[f.Name()]; !ok {
		r.byName[f.Name()] = f
	}
}

// Field by its key or, failing that, by its display name.
func (r *Record) Field(key string) (*Field, error) {
	if f, ok := r.byKey[key]; ok {
		return f, nil
	}
	if f, ok := r.byName[key]; ok {
		return f, nil
	}
	return nil, errors.Reason("field '%s' not found in record %s", key, r.id)
}

// Get the raw value of a field by its key or name.
func (r *Record) Get(key string) (any, error) {
	f, err := r.Field(key)
	if err != nil {
		return nil, err
	}
	return f.Raw, nil
}

// Formatted value of a field by its key or name.
func (r *Record) Formatted(key string) (any, error) {
	f, err := r.Field(key)
	if err != nil {
		return nil, err
	}
	return f.Formatted, nil
}

// Fields of the record, the ID first.
func (r *Record) Fields() []*Field {
	return r.fields
}

// Keys of the record's fields.
func (r *Record) Keys() []string {
	res := make([]string, len(r.fields))
	for i, f := range r.fields {
		res[i] = f.Key()
	}
	return res
}

// Names of the record's fields.
func (r *Record) Names() []string {
	res := make([]string, len(r.fields))
	for i, f := range r.fields {
		res[i] = f.Name()
	}
	return res
}

// Len is the number of fields, including the ID.
func (r *Record) Len() int {
	return len(r.fields)
}

// ID of the record.
func (r *Record) ID() string {
	return r.id
}

// Identifier is the formatted value of the identifier field, if any and not
// nil, otherwise the record ID.
func (r *Record) Identifier() string {
	for _, f := range r.fields[1:] {
		if f.Def.Identifier && f.Formatted != nil {
			return Stringify(f.Formatted)
		}
	}
	return r.id
}

// Raw is the normalized copy of the raw record.
func (r *Record) Raw() knack.RawRecord {
	return r.raw
}

func (r *Record) String() string {
	return fmt.Sprintf("<Record '%s'>", r.Identifier())
}

// Entries of all the fields, expanding subfields.
func (r *Record) Entries(formatKeys, formatValues bool) []Entry {
	var res []Entry
	for _, f := range r.fields {
		res = append(res, f.Entries(formatKeys, formatValues)...)
	}
	return res
}

// Stringify a value for flat export: nil is empty, numbers have no trailing
// zeros, and composite values are JSON.
func Stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case bool:
		return strconv.FormatBool(x)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

// Iterator creates records lazily from raw records.
type Iterator struct {
	raws  []knack.RawRecord
	defs  []*fields.FieldDef
	loc   *time.Location
	index int
}

// NewIterator over the raw records of a container with the given fields.
func NewIterator(raws []knack.RawRecord, defs []*fields.FieldDef, loc *time.Location) *Iterator {
	return &Iterator{raws: raws, defs: defs, loc: loc}
}

// Next loads the next record into rec. If there are no more records, the first
// value is false.
func (it *Iterator) Next(rec *Record) (bool, error) {
	if it.index >= len(it.raws) {
		return false, nil
	}
	r, err := New(it.raws[it.index], it.defs, it.loc)
	it.index++
	if err != nil {
		return false, err
	}
	*rec = *r
	return true, nil
}

// Len is the total number of records.
func (it *Iterator) Len() int {
	return len(it.raws)
}

// All the remaining records.
func (it *Iterator) All() ([]*Record, error) {
	var res []*Record
	for {
		var r Record
		ok, err := it.Next(&r)
		if err != nil {
			return nil, err
		}
		if !ok {
			return res, nil
		}
		res = append(res, &r)
	}
}
