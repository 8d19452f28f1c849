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

// Package message populates Go structs from generic decoded JSON (or TOML)
// values, enforcing required attributes, defaults and value choices declared in
// struct tags.
package message

import (
	"reflect"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/stockparfait/errors"
	"golang.org/x/exp/slices"
)

// Message is a struct pointer which can be initialized from a generic JSON
// value, as produced by json.Unmarshal into an interface{}. A typical
// implementation:
//
//	type Column struct {
//	  Key    string  `json:"key" required:"true"`
//	  Name   string  `json:"name" required:"true"`
//	  Kind   string  `json:"kind" default:"text" choices:"text,number"`
//	  Width  float64 `json:"width" default:"12.5"`
//	  Hidden bool    `json:"-"`
//	  Parent *Column `json:"parent"` // recursively parsed Message
//	  Extra  []Column                // *Column is a Message, so is each item
//	  Attrs  map[string]any          // passed through as is
//	}
//
//	func (c *Column) InitMessage(js any) error {
//	  return message.Init(c, js)
//	}
type Message interface {
	// InitMessage converts a generic JSON value into the specific message. It
	// typically checks for required fields, sets the default values of optional
	// fields, and, unless configured otherwise, rejects unrecognized fields.
	// Nested Messages are initialized recursively.
	InitMessage(js any) error
}

// Options tune the behavior of InitOptions.
type Options struct {
	// IgnoreUnknown accepts JSON keys with no matching struct field. Useful for
	// schemas owned by a third party which may grow new attributes at any time.
	IgnoreUnknown bool
}

var rMessage = reflect.TypeOf((*Message)(nil)).Elem()

func convertToMessage(jv any, t reflect.Type) (reflect.Value, error) {
	var Nil reflect.Value
	if t.Kind() != reflect.Ptr {
		return Nil, errors.Reason(
			"type %s implements Message but is not a pointer", t.Name())
	}
	ptr := reflect.New(t.Elem())
	m := ptr.Interface().(Message)
	if err := m.InitMessage(jv); err != nil {
		return Nil, errors.Annotate(err, "%s.InitMessage() failed", t.Elem().Name())
	}
	return ptr, nil
}

// number extracts a numeric value from the types produced by JSON (float64)
// and TOML (int64) decoders.
func number(jv any) (float64, bool) {
	switch v := jv.(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	case int:
		return float64(v), true
	}
	return 0, false
}

// convertToType recursively converts a generic value jv into a value of type
// t. Pointers to types implementing Message are initialized with their
// InitMessage() method. A nil jv yields the zero value, or the default Message
// value for non-pointer Message structs.
func convertToType(jv any, t reflect.Type) (reflect.Value, error) {
	var Nil reflect.Value
	if t.Implements(rMessage) {
		if jv == nil {
			return reflect.Zero(t), nil
		}
		ptr, err := convertToMessage(jv, t)
		if err != nil {
			return Nil, errors.Annotate(err, "failed to parse Message %s", t.Name())
		}
		return ptr, nil
	}
	if ptrTp := reflect.PtrTo(t); ptrTp.Implements(rMessage) {
		if jv == nil {
			jv = make(map[string]any)
		}
		ptr, err := convertToMessage(jv, ptrTp)
		if err != nil {
			return Nil, errors.Annotate(err, "failed to parse Message %s", t.Name())
		}
		return reflect.Indirect(ptr), nil
	}
	if jv == nil {
		return reflect.Zero(t), nil
	}
	switch t.Kind() {
	case reflect.Interface:
		v := reflect.ValueOf(jv)
		if !v.Type().AssignableTo(t) {
			return Nil, errors.Reason("%T is not assignable to %s", jv, t.String())
		}
		res := reflect.New(t).Elem()
		res.Set(v)
		return res, nil

	case reflect.Ptr:
		v, err := convertToType(jv, t.Elem())
		if err != nil {
			return Nil, err
		}
		ptr := reflect.New(t.Elem())
		ptr.Elem().Set(v)
		return ptr, nil

	case reflect.Bool:
		v2, ok := jv.(bool)
		if !ok {
			return Nil, errors.Reason("not a bool type: %v", jv)
		}
		return reflect.ValueOf(v2), nil

	case reflect.Int, reflect.Int64:
		n, ok := number(jv)
		if !ok {
			return Nil, errors.Reason("not a numeric type: %v", jv)
		}
		return reflect.ValueOf(n).Convert(t), nil

	case reflect.Float64:
		n, ok := number(jv)
		if !ok {
			return Nil, errors.Reason("not a numeric type: %v", jv)
		}
		return reflect.ValueOf(n).Convert(t), nil

	case reflect.String:
		v2, ok := jv.(string)
		if !ok {
			return Nil, errors.Reason("not a string type: %v", jv)
		}
		return reflect.ValueOf(v2).Convert(t), nil

	case reflect.Map:
		if t.Key().Kind() != reflect.String {
			return Nil, errors.Reason(
				"map[%s] is not supported", t.Key().Kind().String())
		}
		v2, ok := jv.(map[string]any)
		if !ok {
			return Nil, errors.Reason("not a map[string] type: %v", jv)
		}
		res := reflect.MakeMap(t)
		for k, v := range v2 {
			el, err := convertToType(v, t.Elem())
			if err != nil {
				return Nil, errors.Annotate(err, "bad value for key '%s'", k)
			}
			res.SetMapIndex(reflect.ValueOf(k).Convert(t.Key()), el)
		}
		return res, nil

	case reflect.Slice:
		v2, ok := jv.([]any)
		if !ok {
			return Nil, errors.Reason("not a slice type: %v", jv)
		}
		res := reflect.MakeSlice(t, len(v2), len(v2))
		for i, v := range v2 {
			el, err := convertToType(v, t.Elem())
			if err != nil {
				return Nil, errors.Annotate(err, "bad element [%d]", i)
			}
			res.Index(i).Set(el)
		}
		return res, nil

	default:
		return Nil, errors.Reason("unsupported type: %s", t.String())
	}
}

// fromString converts a struct tag's default value s to the type t.
func fromString(s string, t reflect.Type) (reflect.Value, error) {
	var Nil reflect.Value
	switch t.Kind() {
	case reflect.Ptr:
		v, err := fromString(s, t.Elem())
		if err != nil {
			return Nil, err
		}
		ptr := reflect.New(t.Elem())
		ptr.Elem().Set(v)
		return ptr, nil
	case reflect.Bool:
		v, err := strconv.ParseBool(s)
		if err != nil {
			return Nil, errors.Annotate(err, "invalid bool value: %s", s)
		}
		return reflect.ValueOf(v), nil
	case reflect.Int, reflect.Int64:
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return Nil, errors.Annotate(err, "invalid int value: %s", s)
		}
		return reflect.ValueOf(v).Convert(t), nil
	case reflect.Float64:
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Nil, errors.Annotate(err, "invalid float64 value: %s", s)
		}
		return reflect.ValueOf(v), nil
	case reflect.String:
		return reflect.ValueOf(s).Convert(t), nil
	}
	return Nil, errors.Reason("type %s is not supported", t.String())
}

// checkSet assigns v to the struct field value fv after checking f's choices.
func checkSet(f reflect.StructField, fv reflect.Value, v reflect.Value) error {
	if choices, ok := f.Tag.Lookup("choices"); ok {
		if f.Type.Kind() != reflect.String {
			return errors.Reason(
				"choices tag applied to a non-string field: %s", f.Name)
		}
		s := v.String()
		if !slices.Contains(strings.Split(choices, ","), s) {
			return errors.Reason(
				"value for %s is not in its choice list: '%s'", f.Name, s)
		}
	}
	fv.Set(v)
	return nil
}

// jsonName returns the JSON key of the struct field f, or "" when the field is
// not part of a message.
func jsonName(f reflect.StructField) string {
	firstChar, _ := utf8.DecodeRuneInString(f.Name)
	if !unicode.IsUpper(firstChar) {
		return ""
	}
	name := f.Name
	if tag := f.Tag.Get("json"); tag != "" {
		parts := strings.Split(tag, ",")
		if parts[0] == "-" {
			return ""
		}
		if parts[0] != "" {
			name = parts[0]
		}
	}
	return name
}

// Init is the generic implementation of Message.InitMessage for struct
// pointers. Unrecognized JSON keys are an error.
//
// Recognized struct tags:
// `json:"field_name" required:"true" default:"value" choices:"one,two,three"`
//
// The `json:` tag follows encoding/json: only exported fields take part, a
// missing tag means the Go field name, and qualifiers like ",omitempty" are
// ignored. All missing required fields are reported in a single error.
func Init(m Message, js any) error {
	return InitOptions(m, js, Options{})
}

// InitOptions is Init with tunable behavior.
func InitOptions(m Message, js any, opts Options) error {
	rt := reflect.TypeOf(m)
	if !(rt.Kind() == reflect.Ptr && rt.Elem().Kind() == reflect.Struct) {
		return errors.Reason(
			"expected Message instance to be a struct pointer, but got %s",
			rt.String())
	}
	if js == nil {
		return errors.Reason("JSON object is nil")
	}
	jsMap, ok := js.(map[string]any)
	if !ok {
		return errors.Reason("JSON object is not a map: %v", js)
	}

	rt = rt.Elem()
	rv := reflect.ValueOf(m).Elem()
	found := make(map[string]struct{})
	missingRequired := []string{}
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		name := jsonName(f)
		if name == "" {
			continue
		}
		rfv := rv.Field(i)
		if jv, ok := jsMap[name]; ok && !(jv == nil && f.Tag.Get("required") == "true") {
			found[name] = struct{}{}
			v, err := convertToType(jv, f.Type)
			if err != nil {
				return errors.Annotate(err, "error assigning field %s", f.Name)
			}
			if err := checkSet(f, rfv, v); err != nil {
				return err
			}
			continue
		}
		found[name] = struct{}{}
		if f.Tag.Get("required") == "true" {
			missingRequired = append(missingRequired, name)
			continue
		}
		if defaultVal, ok := f.Tag.Lookup("default"); ok {
			v, err := fromString(defaultVal, f.Type)
			if err != nil {
				return errors.Annotate(
					err, "error setting default value for %s", f.Name)
			}
			if err := checkSet(f, rfv, v); err != nil {
				return err
			}
			continue
		}
		// Neither required nor defaulted, but a `choices` tag still applies.
		v, err := convertToType(nil, f.Type)
		if err != nil {
			return errors.Annotate(err, "error creating zero value for %s", f.Name)
		}
		if err := checkSet(f, rfv, v); err != nil {
			return errors.Annotate(err, "error setting zero value for %s", f.Name)
		}
	}
	if len(missingRequired) != 0 {
		return errors.Reason(
			"missing required fields: %s", strings.Join(missingRequired, ", "))
	}
	if opts.IgnoreUnknown {
		return nil
	}
	extraFields := []string{}
	for k := range jsMap {
		if _, ok := found[k]; !ok {
			extraFields = append(extraFields, k)
		}
	}
	if len(extraFields) != 0 {
		slices.Sort(extraFields)
		return errors.Reason(
			"unsupported fields for %s: %s",
			rt.Name(), strings.Join(extraFields, ", "))
	}
	return nil
}
