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

package table

import (
	"bytes"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestTable(t *testing.T) {
	t.Parallel()

	Convey("Table methods work", t, func() {
		t := NewTable("Number", "Status")
		headless := NewTable()

		So(t.Header, ShouldResemble, []string{"Number", "Status"})
		t.AddRow(Strings{"1", "Shipped"}, Strings{"22", "Cancelled; refunded"})
		headless.AddRow(Strings{"1", "Shipped"}, Strings{"22", "Cancelled; refunded"})

		Convey("AddRow worked", func() {
			So(len(t.Rows), ShouldEqual, 2)
			So(len(headless.Rows), ShouldEqual, 2)
		})

		Convey("WriteCSV", func() {
			Convey("Default Params", func() {
				var buf bytes.Buffer
				So(t.WriteCSV(&buf, Params{}), ShouldBeNil)
				So("\n"+buf.String(), ShouldEqual, `
Number,Status
1,Shipped
22,Cancelled; refunded
`)
			})

			Convey("Custom delimiter quotes cells", func() {
				var buf bytes.Buffer
				So(headless.WriteCSV(&buf, Params{Delimiter: ';'}), ShouldBeNil)
				So("\n"+buf.String(), ShouldEqual, `
1;Shipped
22;"Cancelled; refunded"
`)
			})

			Convey("Invalid delimiter", func() {
				var buf bytes.Buffer
				So(t.WriteCSV(&buf, Params{Delimiter: '"'}), ShouldNotBeNil)
			})

			Convey("Limited rows, no header", func() {
				var buf bytes.Buffer
				So(t.WriteCSV(&buf, Params{Rows: 1, NoHeader: true}), ShouldBeNil)
				So("\n"+buf.String(), ShouldEqual, `
1,Shipped
`)
			})
		})

		Convey("WriteText", func() {
			Convey("Default Params", func() {
				var buf bytes.Buffer
				So(t.WriteText(&buf, Params{}), ShouldBeNil)
				So("\n"+buf.String(), ShouldEqual, `
Number |              Status
------ | -------------------
     1 |             Shipped
    22 | Cancelled; refunded
`)
			})

			Convey("Limited rows and width, no header", func() {
				var buf bytes.Buffer
				So(headless.WriteText(&buf, Params{Rows: 1, MaxColWidth: 4}), ShouldBeNil)
				So("\n"+buf.String(), ShouldEqual, `
1 | Sh..
`)
			})

			Convey("Counts runes, not bytes", func() {
				u := NewTable("Città", "Ü")
				u.AddRow(Strings{"Zürich", "ö"})
				var buf bytes.Buffer
				So(u.WriteText(&buf, Params{}), ShouldBeNil)
				So("\n"+buf.String(), ShouldEqual, `
 Città | Ü
------ | -
Zürich | ö
`)
			})

			Convey("Rejects ragged rows", func() {
				t.AddRow(Strings{"3"})
				var buf bytes.Buffer
				So(t.WriteText(&buf, Params{}), ShouldNotBeNil)
			})
		})
	})

	Convey("Builder makes a union header", t, func() {
		b := NewBuilder()
		So(b.Add([]string{"id", "Name"}, []string{"a", "Ann"}), ShouldBeNil)
		So(b.Add([]string{"id", "Email"}, []string{"b", "b@x.com"}), ShouldBeNil)
		So(b.Add([]string{"Name", "id"}, []string{"Cid", "c"}), ShouldBeNil)
		So(b.Add([]string{"id"}, []string{"d", "extra"}), ShouldNotBeNil)
		So(b.Len(), ShouldEqual, 3)

		tbl := b.Table()
		So(tbl.Header, ShouldResemble, []string{"id", "Name", "Email"})
		So(tbl.Rows, ShouldResemble, []Row{
			Strings{"a", "Ann", ""},
			Strings{"b", "", "b@x.com"},
			Strings{"c", "Cid", ""},
		})
	})
}
