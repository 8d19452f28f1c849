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
	"encoding/json"
)

// Filter operators supported by the API.
const (
	OpIs             = "is"
	OpIsNot          = "is not"
	OpContains       = "contains"
	OpDoesNotContain = "does not contain"
	OpStartsWith     = "starts with"
	OpEndsWith       = "ends with"
	OpIsBlank        = "is blank"
	OpIsNotBlank     = "is not blank"
	OpHigherThan     = "higher than"
	OpLowerThan      = "lower than"
	OpIsBefore       = "is before"
	OpIsAfter        = "is after"
	OpIsToday        = "is today"
)

// FilterRule is a single condition on a field value.
type FilterRule struct {
	Field    string `json:"field"`
	Operator string `json:"operator"`
	Value    any    `json:"value,omitempty"`
}

// Filters is a server-side record filter, passed as JSON in the "filters"
// query parameter.
type Filters struct {
	Match string       `json:"match"` // "and" or "or"
	Rules []FilterRule `json:"rules"`
}

// Rule creates a filter rule.
func Rule(field, operator string, value any) FilterRule {
	return FilterRule{Field: field, Operator: operator, Value: value}
}

// And matches records satisfying all the rules.
func And(rules ...FilterRule) *Filters {
	return &Filters{Match: "and", Rules: rules}
}

// Or matches records satisfying any of the rules.
func Or(rules ...FilterRule) *Filters {
	return &Filters{Match: "or", Rules: rules}
}

// ParseFilters decodes filters from their JSON form. A bare list of rules is
// accepted as an "and" filter.
func ParseFilters(js string) (*Filters, error) {
	var f Filters
	if err := json.Unmarshal([]byte(js), &f); err == nil {
		if f.Match == "" {
			f.Match = "and"
		}
		if err := f.Validate(); err != nil {
			return nil, err
		}
		return &f, nil
	}
	var rules []FilterRule
	if err := json.Unmarshal([]byte(js), &rules); err != nil {
		return nil, configErrorf("invalid filters '%s': %s", js, err)
	}
	f = Filters{Match: "and", Rules: rules}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate the filters.
func (f *Filters) Validate() error {
	if f.Match != "and" && f.Match != "or" {
		return configErrorf("filter match must be 'and' or 'or', got '%s'", f.Match)
	}
	for i, r := range f.Rules {
		if r.Field == "" || r.Operator == "" {
			return configErrorf("filter rule [%d] needs a field and an operator", i)
		}
	}
	return nil
}

// Equal checks whether two filters are identical; nil filters are equal to
// each other only.
func (f *Filters) Equal(g *Filters) bool {
	if f == nil || g == nil {
		return f == g
	}
	a, errA := json.Marshal(f)
	b, errB := json.Marshal(g)
	return errA == nil && errB == nil && string(a) == string(b)
}

// String is the JSON form of the filters.
func (f *Filters) String() string {
	b, err := json.Marshal(f)
	if err != nil {
		return "<invalid filters>"
	}
	return string(b)
}

// Query of records in a container: either an object or a view. The methods
// return a modified copy of the query.
//
// Example:
//
//	q := NewObjectQuery("object_1").Filters(And(Rule("field_1", OpIs, "x"))).Limit(10)
type Query struct {
	object  string
	scene   string
	view    string
	filters *Filters
	limit   int // 0 means no limit
}

// NewQuery creates a query of either the object or the view in the scene.
// Exactly one of object and view must be set, as checked by Validate.
func NewQuery(object, scene, view string) *Query {
	return &Query{object: object, scene: scene, view: view}
}

// NewObjectQuery creates a query of the object's records.
func NewObjectQuery(object string) *Query {
	return NewQuery(object, "", "")
}

// NewViewQuery creates a query of the view's records.
func NewViewQuery(scene, view string) *Query {
	return NewQuery("", scene, view)
}

// Copy returns a shallow copy of the query.
func (q *Query) Copy() *Query {
	q2 := *q
	return &q2
}

// Filters sets the server-side filter.
func (q *Query) Filters(f *Filters) *Query {
	q2 := q.Copy()
	q2.filters = f
	return q2
}

// Limit sets the maximum number of records to fetch; 0 is no limit.
func (q *Query) Limit(n int) *Query {
	q2 := q.Copy()
	q2.limit = n
	return q2
}

// Validate the query.
func (q *Query) Validate() error {
	switch {
	case q.object != "" && (q.scene != "" || q.view != ""):
		return configErrorf("query needs either an object or a view, not both")
	case q.object == "" && q.view == "":
		return configErrorf("query needs an object or a view")
	case q.view != "" && q.scene == "":
		return configErrorf("view %s needs a scene", q.view)
	case q.limit < 0:
		return configErrorf("record limit = %d must be >= 0", q.limit)
	}
	if q.filters != nil {
		return q.filters.Validate()
	}
	return nil
}

// Route is the API route of the query's records.
func (q *Query) Route() string {
	if q.object != "" {
		return ObjectRoute(q.object, "")
	}
	return ViewRoute(q.scene, q.view)
}
