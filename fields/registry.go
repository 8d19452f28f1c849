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

package fields

import (
	"github.com/stockparfait/errors"
	"github.com/stockparfait/knack/knack"
)

// Registry of all the field definitions of an application.
type Registry struct {
	defs  []*FieldDef // in metadata order
	byKey map[string]*FieldDef
}

// NewRegistry creates field definitions for all the objects' fields and
// annotates them with the keys of the table views which display them.
func NewRegistry(app *knack.Application) (*Registry, error) {
	r := &Registry{byKey: make(map[string]*FieldDef)}
	for _, obj := range app.Objects {
		for _, f := range obj.Fields {
			js := make(map[string]any, len(f)+2)
			for k, v := range f {
				js[k] = v
			}
			js["obj"] = obj.Key
			// Built-in objects like Accounts may have no identifier.
			js["identifier"] = obj.Identifier != "" && f["key"] == obj.Identifier
			d, err := NewFieldDef(js)
			if err != nil {
				return nil, errors.Annotate(err, "in object %s", obj.Key)
			}
			if _, ok := r.byKey[d.Key]; ok {
				return nil, errors.Reason("duplicate field key %s in object %s", d.Key, obj.Key)
			}
			r.defs = append(r.defs, d)
			r.byKey[d.Key] = d
		}
	}
	for _, scene := range app.Scenes {
		for _, view := range scene.Views {
			if view.Type != "table" {
				continue
			}
			for _, col := range view.Columns {
				if col.Field == nil || col.Field.Key == "" {
					continue // action links and such
				}
				d, ok := r.byKey[col.Field.Key]
				if !ok {
					return nil, errors.Reason("view %s references unknown field %s",
						view.Key, col.Field.Key)
				}
				if !d.InView(view.Key) {
					d.Views = append(d.Views, view.Key)
				}
			}
		}
	}
	return r, nil
}

// Get the field definition by its key.
func (r *Registry) Get(key string) (*FieldDef, error) {
	d, ok := r.byKey[key]
	if !ok {
		return nil, errors.Reason("field %s not found", key)
	}
	return d, nil
}

// ForContainer returns the fields of an object, or the fields displayed by a
// view, in metadata order.
func (r *Registry) ForContainer(key string) []*FieldDef {
	var res []*FieldDef
	for _, d := range r.defs {
		if d.Object == key || d.InView(key) {
			res = append(res, d)
		}
	}
	return res
}

// Identifier field of the container, or nil if the container doesn't have one.
func (r *Registry) Identifier(container string) *FieldDef {
	for _, d := range r.ForContainer(container) {
		if d.Identifier {
			return d
		}
	}
	return nil
}

// All the field definitions in metadata order.
func (r *Registry) All() []*FieldDef {
	return r.defs
}

// Len is the total number of fields.
func (r *Registry) Len() int {
	return len(r.defs)
}
