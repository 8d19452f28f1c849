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

// Package tz resolves the platform's timezone settings and corrects the
// platform's "local" millisecond timestamps.
//
// The platform returns Unix timestamps in milliseconds which are shifted into
// the application's local time: read as UTC, such a timestamp shows the local
// wall clock, not the actual instant. Correct() recovers the real instant.
package tz

import (
	"strings"
	"time"
	_ "time/tzdata" // embedded zoneinfo, independent of the host

	"github.com/stockparfait/errors"
	"golang.org/x/exp/slices"
)

// names maps the platform's timezone display names to IANA names. Only the
// common entries are listed; IANA names are accepted as is.
var names = map[string]string{
	"Hawaii":                      "Pacific/Honolulu",
	"Alaska":                      "America/Anchorage",
	"Pacific Time (US & Canada)":  "America/Los_Angeles",
	"Arizona":                     "America/Phoenix",
	"Mountain Time (US & Canada)": "America/Denver",
	"Central Time (US & Canada)":  "America/Chicago",
	"Eastern Time (US & Canada)":  "America/New_York",
	"Indiana (East)":              "America/Indiana/Indianapolis",
	"Atlantic Time (Canada)":      "America/Halifax",
	"UTC":                         "UTC",
	"London":                      "Europe/London",
	"Dublin":                      "Europe/Dublin",
	"Paris":                       "Europe/Paris",
	"Berlin":                      "Europe/Berlin",
	"Amsterdam":                   "Europe/Amsterdam",
	"Madrid":                      "Europe/Madrid",
	"Rome":                        "Europe/Rome",
	"Sydney":                      "Australia/Sydney",
	"Tokyo":                       "Asia/Tokyo",
}

// trimOffset removes the "(GMT-06:00) " prefix of a display name, if any.
func trimOffset(name string) string {
	if strings.HasPrefix(name, "(GMT") {
		if i := strings.Index(name, ") "); i >= 0 {
			return name[i+2:]
		}
	}
	return name
}

// Resolve converts a platform timezone display name, with or without its GMT
// offset prefix, or an IANA timezone name to a Location.
func Resolve(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.Reason("empty timezone name")
	}
	if iana, ok := names[trimOffset(name)]; ok {
		name = iana
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, errors.Annotate(err, "unknown timezone '%s'", name)
	}
	return loc, nil
}

// zone is a UTC offset in seconds and whether it is a daylight saving one.
type zone struct {
	offset int
	dst    bool
}

// zoneAt returns the zone of loc in effect at Unix time sec.
func zoneAt(sec int64, loc *time.Location) zone {
	t := time.Unix(sec, 0).In(loc)
	_, off := t.Zone()
	return zone{offset: off, dst: t.IsDST()}
}

// Localize returns the instant at which the clock in loc shows the wall-clock
// digits of naive (its own location is ignored). When the wall clock is
// ambiguous (DST ends) the standard time instant is chosen; when it does not
// exist (DST starts) the standard offset is applied.
func Localize(naive time.Time, loc *time.Location) time.Time {
	y, mo, d := naive.Date()
	h, mi, s := naive.Clock()
	wall := time.Date(y, mo, d, h, mi, s, naive.Nanosecond(), time.UTC)
	sec := wall.Unix()
	at := func(z zone) time.Time {
		return wall.Add(-time.Duration(z.offset) * time.Second).In(loc)
	}

	// Zones in effect a day around the wall clock cover any transition.
	var zones []zone
	for _, probe := range []int64{sec - 86400, sec, sec + 86400} {
		z := zoneAt(probe, loc)
		if !slices.Contains(zones, z) {
			zones = append(zones, z)
		}
	}
	var valid []zone
	for _, z := range zones {
		if zoneAt(sec-int64(z.offset), loc).offset == z.offset {
			valid = append(valid, z)
		}
	}
	if len(valid) == 1 {
		return at(valid[0])
	}
	if len(valid) == 0 {
		valid = zones // skipped wall clock
	}
	for _, z := range valid {
		if !z.dst {
			return at(z)
		}
	}
	return at(valid[0])
}

// Correct converts the platform's local millisecond timestamp to a true Unix
// timestamp in milliseconds, given the application's timezone.
func Correct(ms int64, loc *time.Location) int64 {
	return Localize(time.UnixMilli(ms).UTC(), loc).UnixMilli()
}

// FormatISO formats a true millisecond timestamp in ISO-8601 in the timezone
// loc, e.g. "2019-09-11T11:14:00-05:00". Fractional seconds are printed with
// microsecond precision only when present.
func FormatISO(ms int64, loc *time.Location) string {
	t := time.UnixMilli(ms).In(loc)
	if t.Nanosecond() == 0 {
		return t.Format("2006-01-02T15:04:05-07:00")
	}
	return t.Format("2006-01-02T15:04:05.000000-07:00")
}
