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
	"encoding/json"
	"fmt"

	"github.com/dustin/go-humanize"
)

// Info summarizes the application and the cached records.
type Info struct {
	ID               string
	Name             string
	Timezone         string
	Objects          int
	Scenes           int
	Views            int
	Fields           int
	CachedContainers int
	CachedRecords    int
	CachedSize       uint64 // bytes of cached records as JSON
}

// Info about the application.
func (a *App) Info() Info {
	info := Info{
		ID:       a.meta.ID,
		Name:     a.meta.Name,
		Timezone: a.loc.String(),
		Objects:  len(a.meta.Objects),
		Scenes:   len(a.meta.Scenes),
		Fields:   a.registry.Len(),
	}
	for _, s := range a.meta.Scenes {
		info.Views += len(s.Views)
	}
	for _, e := range a.cache {
		info.CachedContainers++
		info.CachedRecords += len(e.raws)
		if b, err := json.Marshal(e.raws); err == nil {
			info.CachedSize += uint64(len(b))
		}
	}
	return info
}

func (i Info) String() string {
	return fmt.Sprintf(`Application: %s (%s)
Timezone: %s
Objects: %d
Scenes: %d
Views: %d
Fields: %d
Cached: %d records in %d containers (%s)
`, i.Name, i.ID, i.Timezone, i.Objects, i.Scenes, i.Views, i.Fields,
		i.CachedRecords, i.CachedContainers, humanize.Bytes(i.CachedSize))
}
