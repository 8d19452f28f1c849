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

package tz

import (
	"testing"
	"time"

	"golang.org/x/exp/rand"

	. "github.com/smartystreets/goconvey/convey"
)

func TestTZ(t *testing.T) {
	t.Parallel()

	central, err := time.LoadLocation("US/Central")
	if err != nil {
		t.Fatalf("failed to load US/Central: %s", err.Error())
	}

	Convey("Resolve works", t, func() {
		Convey("for IANA names", func() {
			loc, err := Resolve("US/Central")
			So(err, ShouldBeNil)
			So(loc.String(), ShouldEqual, "US/Central")
		})

		Convey("for display names with and without offsets", func() {
			loc, err := Resolve("(GMT-06:00) Central Time (US & Canada)")
			So(err, ShouldBeNil)
			So(loc.String(), ShouldEqual, "America/Chicago")
			loc, err = Resolve("Eastern Time (US & Canada)")
			So(err, ShouldBeNil)
			So(loc.String(), ShouldEqual, "America/New_York")
		})

		Convey("fails for unknown names", func() {
			_, err := Resolve("Austin, Texas")
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "unknown timezone 'Austin, Texas'")
			_, err = Resolve("  ")
			So(err, ShouldNotBeNil)
		})
	})

	Convey("Correct works", t, func() {
		Convey("outside of DST", func() {
			So(Correct(1577893645000, central), ShouldEqual, int64(1577915245000))
		})

		Convey("during DST", func() {
			So(Correct(1593618445000, central), ShouldEqual, int64(1593636445000))
		})

		Convey("preserves milliseconds", func() {
			So(Correct(1577893645123, central), ShouldEqual, int64(1577915245123))
		})

		Convey("picks standard time for an ambiguous wall clock", func() {
			// 2020-11-01 01:30 happens twice in Chicago.
			wall := time.Date(2020, 11, 1, 1, 30, 0, 0, time.UTC).UnixMilli()
			expected := time.Date(2020, 11, 1, 7, 30, 0, 0, time.UTC).UnixMilli()
			So(Correct(wall, central), ShouldEqual, expected)
		})

		Convey("applies standard offset to a skipped wall clock", func() {
			// 2020-03-08 02:30 never happens in Chicago.
			wall := time.Date(2020, 3, 8, 2, 30, 0, 0, time.UTC).UnixMilli()
			expected := time.Date(2020, 3, 8, 8, 30, 0, 0, time.UTC).UnixMilli()
			So(Correct(wall, central), ShouldEqual, expected)
		})

		Convey("is identity for UTC", func() {
			So(Correct(1568218440000, time.UTC), ShouldEqual, int64(1568218440000))
		})

		Convey("round-trips wall clock digits", func() {
			tokyo, err := time.LoadLocation("Asia/Tokyo")
			So(err, ShouldBeNil)
			r := rand.New(rand.NewSource(42))
			layout := "2006-01-02T15:04:05.000"
			for i := 0; i < 2000; i++ {
				ms := int64(r.Uint64()%4000000000000) + 1
				wall := time.UnixMilli(ms).UTC()
				for _, loc := range []*time.Location{central, tokyo} {
					if loc == central && wall.Hour() == 2 {
						continue // may fall into a DST gap
					}
					got := time.UnixMilli(Correct(ms, loc)).In(loc).Format(layout)
					So(got, ShouldEqual, wall.Format(layout))
				}
			}
		})
	})

	Convey("FormatISO works", t, func() {
		So(FormatISO(1568218440000, central), ShouldEqual, "2019-09-11T11:14:00-05:00")
		So(FormatISO(1577915245000, central), ShouldEqual, "2020-01-01T15:47:25-06:00")
		So(FormatISO(1568218440000, time.UTC), ShouldEqual, "2019-09-11T16:14:00+00:00")
		So(FormatISO(1568218440250, time.UTC), ShouldEqual,
			"2019-09-11T16:14:00.250000+00:00")
	})
}
