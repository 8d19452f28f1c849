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

package message

import (
	"testing"

	"github.com/stockparfait/testutil"

	. "github.com/smartystreets/goconvey/convey"
)

type column struct {
	Key      string            `json:"key" required:"true"`
	Name     string            `json:"name" required:"true"`
	Kind     string            `json:"kind" default:"text" choices:"text,number"`
	Width    float64           `json:"width" default:"12.5"`
	Position *int              `json:"position" default:"1"`
	Visible  bool              `json:"visible" default:"true"`
	Sortable bool              `json:"sortable"`
	Size     int64             `json:"size"`
	Children []*column         `json:"children,omitempty"`
	Tags     map[string]string `json:"tags"`
	Attrs    map[string]any    `json:"attrs"`
	Ignored  int               `json:"-"`
	internal int
}

func (c *column) InitMessage(js any) error {
	return Init(c, js)
}

type lenient struct {
	Key string `json:"key" required:"true"`
}

func (l *lenient) InitMessage(js any) error {
	return InitOptions(l, js, Options{IgnoreUnknown: true})
}

type badChoice struct {
	Choice string `choices:"foo,bar"` // no default
}

func (b *badChoice) InitMessage(js any) error {
	return Init(b, js)
}

func TestMessage(t *testing.T) {
	t.Parallel()

	Convey("Init() works", t, func() {
		Convey("with required fields only", func() {
			var c column
			So(c.InitMessage(testutil.JSON(`{"key": "field_1", "name": "Name"}`)), ShouldBeNil)
			So(c.Key, ShouldEqual, "field_1")
			So(c.Name, ShouldEqual, "Name")
			So(c.Kind, ShouldEqual, "text")
			So(c.Width, ShouldEqual, 12.5)
			So(*c.Position, ShouldEqual, 1)
			So(c.Visible, ShouldBeTrue)
			So(c.Sortable, ShouldBeFalse)
			So(len(c.Children), ShouldEqual, 0)
		})

		Convey("with recursive Message entries and pass-through values", func() {
			var c column
			So(c.InitMessage(testutil.JSON(`{
        "key": "field_1", "name": "Parent", "position": null, "visible": false,
        "width": 3, "sortable": true, "size": 1568218440000,
        "tags": {"a": "x", "b": "y"},
        "attrs": {"nested": {"n": 1}, "list": [1, "two"]},
        "children": [
          {"key": "field_2", "name": "Child", "kind": "number"},
          {"key": "field_3", "name": "Other", "position": 3}]
      }`)), ShouldBeNil)
			So(c.Position, ShouldBeNil)
			So(c.Visible, ShouldBeFalse)
			So(c.Width, ShouldEqual, 3.0)
			So(c.Sortable, ShouldBeTrue)
			So(c.Size, ShouldEqual, int64(1568218440000))
			So(c.Tags, ShouldResemble, map[string]string{"a": "x", "b": "y"})
			So(c.Attrs["nested"], ShouldResemble, map[string]any{"n": 1.0})
			So(c.Attrs["list"], ShouldResemble, []any{1.0, "two"})
			So(len(c.Children), ShouldEqual, 2)
			So(c.Children[0].Kind, ShouldEqual, "number")
			So(*c.Children[0].Position, ShouldEqual, 1)
			So(*c.Children[1].Position, ShouldEqual, 3)
			So(c.internal, ShouldEqual, 0)
		})

		Convey("with TOML-style integers", func() {
			var c column
			So(c.InitMessage(map[string]any{
				"key": "k", "name": "n", "width": int64(7), "size": int64(42),
			}), ShouldBeNil)
			So(c.Width, ShouldEqual, 7.0)
			So(c.Size, ShouldEqual, int64(42))
		})

		Convey("reports all missing required fields at once", func() {
			var c column
			err := c.InitMessage(testutil.JSON(`{"width": 1}`))
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "missing required fields: key, name")
		})

		Convey("treats null required fields as missing", func() {
			var c column
			err := c.InitMessage(testutil.JSON(`{"key": null, "name": "n"}`))
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "missing required fields: key")
		})

		Convey("with missing fields in a recursive call", func() {
			var c column
			So(c.InitMessage(testutil.JSON(
				`{"key": "k", "name": "n", "children": [{"key": "c"}]}`)), ShouldNotBeNil)
		})

		Convey("with unknown and ignored fields", func() {
			var c column
			err := c.InitMessage(testutil.JSON(
				`{"key": "k", "name": "n", "Ignored": 5, "internal": 1}`))
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring,
				"unsupported fields for column: Ignored, internal")
		})

		Convey("with unknown fields in lenient mode", func() {
			var l lenient
			So(l.InitMessage(testutil.JSON(`{"key": "k", "whatever": [1, 2]}`)), ShouldBeNil)
			So(l.Key, ShouldEqual, "k")
			So(l.InitMessage(testutil.JSON(`{"whatever": 1}`)), ShouldNotBeNil)
		})

		Convey("with an invalid choice", func() {
			var c column
			err := c.InitMessage(testutil.JSON(`{"key": "k", "name": "n", "kind": "blob"}`))
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring,
				"value for Kind is not in its choice list: 'blob'")
		})

		Convey("with an invalid zero value choice", func() {
			var b badChoice
			err := b.InitMessage(testutil.JSON(`{}`))
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "error setting zero value for Choice")
		})

		Convey("with a wrong value type", func() {
			var c column
			err := c.InitMessage(testutil.JSON(`{"key": 5, "name": "n"}`))
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "error assigning field Key")
		})

		Convey("with a non-map JSON", func() {
			var c column
			So(c.InitMessage(testutil.JSON(`[1, 2]`)), ShouldNotBeNil)
			So(c.InitMessage(nil), ShouldNotBeNil)
		})
	})
}
