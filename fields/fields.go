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

// Package fields describes the fields of a Knack application: their types,
// subfields and the formatters which humanize their raw values.
package fields

import (
	"fmt"
	"time"

	"github.com/stockparfait/errors"
	"github.com/stockparfait/knack/message"
	"golang.org/x/exp/slices"
)

// Type of a field as named by the platform.
type Type string

// Field types with specific formatting or subfields. Other types, e.g.
// short_text or number, are passed through as is.
const (
	Address     Type = "address"
	Connection  Type = "connection"
	Date        Type = "date"
	DateTime    Type = "date_time"
	Email       Type = "email"
	File        Type = "file"
	Image       Type = "image"
	Link        Type = "link"
	Phone       Type = "phone"
	Signature   Type = "signature"
	Timer       Type = "timer"
	ShortText   Type = "short_text"
	Number      Type = "number"
	Boolean     Type = "boolean"
	AutoInc     Type = "auto_increment"
	Paragraph   Type = "paragraph_text"
	MultiChoice Type = "multiple_choice"
)

// Subfields of the structured field types, used to flatten their values into
// several columns.
var subfields = map[Type][]string{
	Address: {"street", "street2", "city", "state", "zip", "country", "latitude", "longitude"},
	File:    {"filename", "url"},
	Phone:   {"full", "area", "number", "formatted"},
}

// ReservedNames may not be used as field display names; they are prefixed with
// "_".
var ReservedNames = []string{IDKey}

// ValidName rewrites a display name colliding with a reserved record key.
func ValidName(name string) string {
	if slices.Contains(ReservedNames, name) {
		return "_" + name
	}
	return name
}

// IDKey is the key of the record ID, present in every record.
const IDKey = "id"

// NewIDField is the definition of the synthetic record ID field.
func NewIDField(object string) *FieldDef {
	return &FieldDef{
		Key:       IDKey,
		Name:      IDKey,
		Type:      ShortText,
		Object:    object,
		formatter: defaultFormatter{},
	}
}

// FieldDef is the definition of a field from the application metadata.
type FieldDef struct {
	Key        string `json:"key" required:"true"`
	Name       string `json:"name" required:"true"`
	Type       Type   `json:"type" required:"true"`
	Object     string `json:"obj" required:"true"` // key of the owning object
	Identifier bool   `json:"identifier"`          // the object's identifier field
	// Keys of the table views displaying this field.
	Views []string `json:"-"`
	// Subfields of structured values, if any.
	Subfields []string `json:"-"`
	// UseKnackFormat selects the platform-rendered value rather than the raw
	// one as the formatter input.
	UseKnackFormat bool `json:"-"`

	formatter formatter
}

var _ message.Message = &FieldDef{}

// InitMessage implements message.Message. The platform's field metadata has
// many more attributes, which are ignored.
func (d *FieldDef) InitMessage(js any) error {
	if err := message.InitOptions(d, js, message.Options{IgnoreUnknown: true}); err != nil {
		return err
	}
	d.Name = ValidName(d.Name)
	d.Subfields = subfields[d.Type]
	d.UseKnackFormat = d.Type == Timer
	d.formatter = formatterFor(d.Type)
	return nil
}

// NewFieldDef creates a FieldDef from a generic JSON value. All the missing
// required attributes are reported at once.
func NewFieldDef(js any) (*FieldDef, error) {
	var d FieldDef
	if err := d.InitMessage(js); err != nil {
		if m, ok := js.(map[string]any); ok {
			if k, ok := m["key"].(string); ok {
				return nil, errors.Annotate(err, "invalid definition of field %s", k)
			}
		}
		return nil, errors.Annotate(err, "invalid field definition")
	}
	return &d, nil
}

// Format humanizes the raw value of the field. Date values are rendered in loc.
// A nil raw value formats to nil.
func (d *FieldDef) Format(raw any, loc *time.Location) (any, error) {
	if raw == nil {
		return nil, nil
	}
	v, err := d.formatter.format(raw, loc)
	if err != nil {
		return nil, errors.Annotate(err, "failed to format field %s (%s)", d.Key, d.Type)
	}
	return v, nil
}

// InView checks whether the field is displayed in the view.
func (d *FieldDef) InView(view string) bool {
	return slices.Contains(d.Views, view)
}

func (d *FieldDef) String() string {
	return fmt.Sprintf("<FieldDef %s '%s'>", d.Key, d.Name)
}
