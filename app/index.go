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

package app

import (
	"fmt"
	"strings"

	"github.com/stockparfait/knack/knack"
)

// Container of records: an object, or a view on a scene.
type Container struct {
	Object string // set for objects only
	Scene  string
	View   string
	Name   string
}

// Key of the container, unique within the application.
func (c Container) Key() string {
	if c.View != "" {
		return c.View
	}
	return c.Object
}

// IsView checks whether the container is a view.
func (c Container) IsView() bool {
	return c.View != ""
}

// Query of the container's records.
func (c Container) Query() *knack.Query {
	return knack.NewQuery(c.Object, c.Scene, c.View)
}

func (c Container) String() string {
	if c.IsView() {
		return fmt.Sprintf("view %s '%s' (scene %s)", c.View, c.Name, c.Scene)
	}
	return fmt.Sprintf("object %s '%s'", c.Object, c.Name)
}

// Kind of a name resolution result.
type Kind int

const (
	NotFound Kind = iota
	Unique
	Ambiguous
)

func (k Kind) String() string {
	switch k {
	case Unique:
		return "unique"
	case Ambiguous:
		return "ambiguous"
	}
	return "not found"
}

// Resolution of a container name.
type Resolution struct {
	Kind       Kind
	Name       string
	Candidates []Container // all the matching containers
}

// Container is the resolved container. Valid only for Unique resolutions.
func (r Resolution) Container() Container {
	if r.Kind != Unique {
		return Container{}
	}
	return r.Candidates[0]
}

// Err converts an unsuccessful resolution into an error, or nil for Unique.
func (r Resolution) Err() error {
	switch r.Kind {
	case Unique:
		return nil
	case Ambiguous:
		return &AmbiguousError{Name: r.Name, Candidates: r.Candidates}
	}
	return &NotFoundError{Name: r.Name}
}

// AmbiguousError is returned when a name matches several containers.
type AmbiguousError struct {
	Name       string
	Candidates []Container
}

func (e *AmbiguousError) Error() string {
	c := make([]string, len(e.Candidates))
	for i, x := range e.Candidates {
		c[i] = x.String()
	}
	return fmt.Sprintf("'%s' is ambiguous, use a key instead: %s",
		e.Name, strings.Join(c, "; "))
}

// NotFoundError is returned when a name matches no container.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("container '%s' not found", e.Name)
}

// Index of the containers of an application by their keys and names.
type Index struct {
	containers []Container
}

// NewIndex of all the objects and views of the application.
func NewIndex(app *knack.Application) *Index {
	x := &Index{}
	for _, o := range app.Objects {
		x.containers = append(x.containers, Container{Object: o.Key, Name: o.Name})
	}
	for _, s := range app.Scenes {
		for _, v := range s.Views {
			x.containers = append(x.containers, Container{Scene: s.Key, View: v.Key, Name: v.Name})
		}
	}
	return x
}

// Containers in metadata order, objects first.
func (x *Index) Containers() []Container {
	return x.containers
}

// Resolve a container by its key or name. Keys are unique, but names often are
// not: views are named after their object by default.
func (x *Index) Resolve(name string) Resolution {
	res := Resolution{Name: name}
	if name == "" {
		return res
	}
	for _, c := range x.containers {
		if c.Key() == name || c.Name == name {
			res.Candidates = append(res.Candidates, c)
		}
	}
	switch len(res.Candidates) {
	case 0:
		res.Kind = NotFound
	case 1:
		res.Kind = Unique
	default:
		res.Kind = Ambiguous
	}
	return res
}
