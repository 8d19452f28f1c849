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
	"testing"
	"time"

	"github.com/stockparfait/knack/knack"
	"github.com/stockparfait/testutil"

	. "github.com/smartystreets/goconvey/convey"
)

func testDef(t Type) *FieldDef {
	d, err := NewFieldDef(map[string]any{
		"key": "field_1", "name": "Test", "type": string(t), "obj": "object_1",
	})
	if err != nil {
		panic(err)
	}
	return d
}

func TestFieldDef(t *testing.T) {
	t.Parallel()

	Convey("FieldDef", t, func() {
		Convey("is initialized from metadata", func() {
			d, err := NewFieldDef(testutil.JSON(`{
  "key": "field_2", "name": "Location", "type": "address", "obj": "object_1",
  "required": false, "unique": false, "format": {"input": "address"}}`))
			So(err, ShouldBeNil)
			So(d.Key, ShouldEqual, "field_2")
			So(d.Type, ShouldEqual, Address)
			So(d.Identifier, ShouldBeFalse)
			So(d.Subfields, ShouldResemble, []string{
				"street", "street2", "city", "state", "zip", "country", "latitude", "longitude"})
			So(d.UseKnackFormat, ShouldBeFalse)
			So(d.String(), ShouldEqual, "<FieldDef field_2 'Location'>")
		})

		Convey("rewrites reserved names", func() {
			d, err := NewFieldDef(testutil.JSON(`{
  "key": "field_2", "name": "id", "type": "short_text", "obj": "object_1"}`))
			So(err, ShouldBeNil)
			So(d.Name, ShouldEqual, "_id")
			So(ValidName("ID"), ShouldEqual, "ID")
			So(ValidName("Name"), ShouldEqual, "Name")
		})

		Convey("checks view membership", func() {
			d := testDef(ShortText)
			d.Views = []string{"view_1", "view_3"}
			So(d.InView("view_3"), ShouldBeTrue)
			So(d.InView("view_2"), ShouldBeFalse)
			So(testDef(ShortText).InView("view_1"), ShouldBeFalse)
		})

		Convey("timer uses the platform format", func() {
			So(testDef(Timer).UseKnackFormat, ShouldBeTrue)
			So(testDef(Phone).Subfields, ShouldResemble, []string{"full", "area", "number", "formatted"})
			So(testDef(File).Subfields, ShouldResemble, []string{"filename", "url"})
			So(testDef(ShortText).Subfields, ShouldBeNil)
		})

		Convey("lists all missing attributes", func() {
			_, err := NewFieldDef(testutil.JSON(`{"key": "field_3", "format": {}}`))
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "field_3")
			So(err.Error(), ShouldContainSubstring, "missing required fields: name, type, obj")
		})
	})
}

func TestFormatters(t *testing.T) {
	t.Parallel()

	Convey("Formatters", t, func() {
		central, err := time.LoadLocation("US/Central")
		So(err, ShouldBeNil)

		format := func(tp Type, raw any) any {
			v, err := testDef(tp).Format(raw, central)
			So(err, ShouldBeNil)
			return v
		}

		Convey("nil is always nil", func() {
			for _, tp := range []Type{Address, Connection, DateTime, Email, File, Image,
				Link, Phone, Signature, Timer, ShortText} {
				So(format(tp, nil), ShouldBeNil)
			}
		})

		Convey("default", func() {
			So(format(ShortText, "abc"), ShouldEqual, "abc")
			So(format(ShortText, ""), ShouldBeNil)
			So(format(Number, 42.5), ShouldEqual, 42.5)
			So(format("unknown_type", true), ShouldEqual, true)
			for _, v := range []any{"abc", 42.5, true, "2019-09-11"} {
				So(format(ShortText, format(ShortText, v)), ShouldEqual, format(ShortText, v))
			}
		})

		Convey("email", func() {
			So(format(Email, testutil.JSON(`{"email": "a@b.com", "label": "A"}`)),
				ShouldEqual, "a@b.com")
			So(format(Email, "a@b.com"), ShouldBeNil)
			So(format(Email, testutil.JSON(`{"email": 5}`)), ShouldBeNil)
		})

		Convey("link, phone and signature", func() {
			So(format(Link, testutil.JSON(`{"url": "https://x.com"}`)), ShouldEqual, "https://x.com")
			So(format(Phone, testutil.JSON(`{"full": "5125551234", "area": "512"}`)),
				ShouldEqual, "5125551234")
			So(format(Signature, testutil.JSON(`{"base30": "abc", "svg": "<svg/>"}`)),
				ShouldEqual, "abc")
			_, err := testDef(Link).Format("https://x.com", central)
			So(err, ShouldNotBeNil)
		})

		Convey("image and file", func() {
			So(format(Image, testutil.JSON(`{"url": "https://x.com/a.png"}`)),
				ShouldEqual, "https://x.com/a.png")
			So(format(Image, "https://x.com/a.png"), ShouldEqual, "https://x.com/a.png")
			So(format(File, testutil.JSON(`{"url": "https://x.com/a.pdf", "filename": "a.pdf"}`)),
				ShouldEqual, "https://x.com/a.pdf")
		})

		Convey("date", func() {
			So(format(DateTime, testutil.JSON(`{"unix_timestamp": 1568218440000, "date": "09/11/2019"}`)),
				ShouldEqual, "2019-09-11T11:14:00-05:00")
			_, err := testDef(DateTime).Format(testutil.JSON(`{"date": "09/11/2019"}`), central)
			So(err, ShouldNotBeNil)
		})

		Convey("connection", func() {
			So(format(Connection, testutil.JSON(`[
  {"id": "1", "identifier": "First"}, {"id": "2", "identifier": "Second"}]`)),
				ShouldEqual, "First, Second")
			So(format(Connection, testutil.JSON(`[]`)), ShouldBeNil)
			_, err := testDef(Connection).Format("First", central)
			So(err, ShouldNotBeNil)
		})

		Convey("timer", func() {
			So(format(Timer, "<span>09/11/19</span>&nbsp;4:14pm to 5:14pm = 1:00 hours"),
				ShouldEqual, "09/11/19; 4:14pm to 5:14pm = 1:00 hours")
		})

		Convey("address", func() {
			So(format(Address, testutil.JSON(`{
  "street": "123 Fake St", "street2": "APT C", "city": "London",
  "state": "London", "zip": "ABC123", "country": "UK",
  "latitude": 51.5, "longitude": -0.12}`)),
				ShouldEqual, "123 Fake St, APT C, London, London, ABC123, UK")
			So(format(Address, testutil.JSON(`{"street": "1 Main", "street2": "", "city": "Austin"}`)),
				ShouldEqual, "1 Main, Austin")
			So(format(Address, testutil.JSON(`{"latitude": 1}`)), ShouldBeNil)
		})
	})
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	Convey("Registry", t, func() {
		meta := testutil.JSON(`{
  "id": "app1", "name": "Shop",
  "objects": [
    {"key": "object_1", "name": "Orders", "identifier": "field_1", "fields": [
      {"key": "field_1", "name": "Number", "type": "auto_increment"},
      {"key": "field_2", "name": "id", "type": "short_text"},
      {"key": "field_3", "name": "Placed", "type": "date_time"}]},
    {"key": "object_2", "name": "Accounts", "fields": [
      {"key": "field_4", "name": "Email", "type": "email"}]}],
  "scenes": [{"key": "scene_1", "name": "Home", "views": [
    {"key": "view_1", "name": "Recent Orders", "type": "table",
     "columns": [{"field": {"key": "field_3"}}, {"field": {"key": "field_1"}}, {"header": "Edit"}]},
    {"key": "view_2", "name": "Order", "type": "details",
     "columns": [{"field": {"key": "field_2"}}]}]}]}`)

		app, err := knack.NewApplication(meta)
		So(err, ShouldBeNil)
		r, err := NewRegistry(app)
		So(err, ShouldBeNil)

		keys := func(defs []*FieldDef) []string {
			res := make([]string, len(defs))
			for i, d := range defs {
				res[i] = d.Key
			}
			return res
		}

		Convey("creates all definitions", func() {
			So(r.Len(), ShouldEqual, 4)
			So(keys(r.All()), ShouldResemble, []string{"field_1", "field_2", "field_3", "field_4"})
			d, err := r.Get("field_2")
			So(err, ShouldBeNil)
			So(d.Name, ShouldEqual, "_id")
			So(d.Object, ShouldEqual, "object_1")
			_, err = r.Get("field_9")
			So(err, ShouldNotBeNil)
		})

		Convey("flags identifiers", func() {
			So(r.Identifier("object_1").Key, ShouldEqual, "field_1")
			So(r.Identifier("view_1").Key, ShouldEqual, "field_1")
			So(r.Identifier("object_2"), ShouldBeNil)
		})

		Convey("annotates table views only", func() {
			So(keys(r.ForContainer("object_1")), ShouldResemble, []string{"field_1", "field_2", "field_3"})
			So(keys(r.ForContainer("view_1")), ShouldResemble, []string{"field_1", "field_3"})
			So(len(r.ForContainer("view_2")), ShouldEqual, 0)
			d, err := r.Get("field_3")
			So(err, ShouldBeNil)
			So(d.Views, ShouldResemble, []string{"view_1"})
		})

		Convey("rejects unknown field references", func() {
			app.Scenes[0].Views[0].Columns = append(app.Scenes[0].Views[0].Columns,
				knack.Column{Field: &knack.ColumnField{Key: "field_9"}})
			_, err := NewRegistry(app)
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "view_1 references unknown field field_9")
		})

		Convey("reports field errors with their key", func() {
			app.Objects[1].Fields = append(app.Objects[1].Fields, map[string]any{"key": "field_5"})
			_, err := NewRegistry(app)
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "field_5")
			So(err.Error(), ShouldContainSubstring, "missing required fields: name, type")
		})
	})
}
