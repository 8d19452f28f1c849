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

package knack

import (
	"context"
	"net/http"

	"github.com/stockparfait/errors"
	"github.com/stockparfait/knack/message"
	"github.com/stockparfait/logging"
)

// Metadata messages ignore unknown attributes: the platform adds new ones
// without notice.
var lenient = message.Options{IgnoreUnknown: true}

// Account which owns the application.
type Account struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

var _ message.Message = &Account{}

func (a *Account) InitMessage(js any) error {
	return message.InitOptions(a, js, lenient)
}

// Settings of the application.
type Settings struct {
	Timezone string `json:"timezone"`
}

var _ message.Message = &Settings{}

func (s *Settings) InitMessage(js any) error {
	return message.InitOptions(s, js, lenient)
}

// Object is a database table of the application.
type Object struct {
	Key        string           `json:"key" required:"true"`
	Name       string           `json:"name" required:"true"`
	Identifier string           `json:"identifier"` // key of the identifier field
	Fields     []map[string]any `json:"fields"`     // decoded by the fields package
}

var _ message.Message = &Object{}

func (o *Object) InitMessage(js any) error {
	return message.InitOptions(o, js, lenient)
}

// ColumnField references a field displayed in a view column.
type ColumnField struct {
	Key string `json:"key"`
}

var _ message.Message = &ColumnField{}

func (f *ColumnField) InitMessage(js any) error {
	return message.InitOptions(f, js, lenient)
}

// Column of a view.
type Column struct {
	Header string       `json:"header"`
	Field  *ColumnField `json:"field"` // nil for action links and such
}

var _ message.Message = &Column{}

func (c *Column) InitMessage(js any) error {
	return message.InitOptions(c, js, lenient)
}

// ViewSource is the object whose records the view displays.
type ViewSource struct {
	Object string `json:"object"`
}

var _ message.Message = &ViewSource{}

func (s *ViewSource) InitMessage(js any) error {
	return message.InitOptions(s, js, lenient)
}

// View is a query of records displayed on a scene.
type View struct {
	Key     string     `json:"key" required:"true"`
	Name    string     `json:"name"`
	Type    string     `json:"type"`
	Source  ViewSource `json:"source"`
	Columns []Column   `json:"columns"`
}

var _ message.Message = &View{}

func (v *View) InitMessage(js any) error {
	return message.InitOptions(v, js, lenient)
}

// Scene is a page of the application.
type Scene struct {
	Key   string `json:"key" required:"true"`
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Views []View `json:"views"`
}

var _ message.Message = &Scene{}

func (s *Scene) InitMessage(js any) error {
	return message.InitOptions(s, js, lenient)
}

// Application metadata: its objects with their field schemas, and its scenes
// with their views.
type Application struct {
	ID       string   `json:"id" required:"true"`
	Name     string   `json:"name" required:"true"`
	Slug     string   `json:"slug"`
	Account  Account  `json:"account"`
	Settings Settings `json:"settings"`
	Objects  []Object `json:"objects"`
	Scenes   []Scene  `json:"scenes"`
}

var _ message.Message = &Application{}

// InitMessage implements message.Message. It accepts both the bare
// application and the API response wrapping it as {"application": {...}}.
func (a *Application) InitMessage(js any) error {
	if m, ok := js.(map[string]any); ok {
		if inner, ok := m["application"]; ok && len(m) == 1 {
			js = inner
		}
	}
	return message.InitOptions(a, js, lenient)
}

// NewApplication decodes application metadata from a generic JSON value.
func NewApplication(js any) (*Application, error) {
	var a Application
	if err := a.InitMessage(js); err != nil {
		return nil, errors.Annotate(err, "invalid application metadata")
	}
	return &a, nil
}

// Object with the given key, or nil.
func (a *Application) Object(key string) *Object {
	for i := range a.Objects {
		if a.Objects[i].Key == key {
			return &a.Objects[i]
		}
	}
	return nil
}

// View with the given key and its scene, or nil.
func (a *Application) View(key string) (*Scene, *View) {
	for i := range a.Scenes {
		s := &a.Scenes[i]
		for j := range s.Views {
			if s.Views[j].Key == key {
				return s, &s.Views[j]
			}
		}
	}
	return nil, nil
}

// FetchMetadata retrieves the application metadata.
func (c *Client) FetchMetadata(ctx context.Context) (*Application, error) {
	uri := c.URL(AppRoute(c.config.AppID))
	var js map[string]any
	if err := c.doJSON(ctx, http.MethodGet, uri, nil, &js); err != nil {
		return nil, err
	}
	app, err := NewApplication(js)
	if err != nil {
		return nil, err
	}
	logging.Infof(ctx, "fetched metadata of '%s': %d objects, %d scenes",
		app.Name, len(app.Objects), len(app.Scenes))
	return app, nil
}
