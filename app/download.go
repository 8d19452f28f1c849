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
	"context"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/stockparfait/errors"
	"github.com/stockparfait/knack/fields"
	"github.com/stockparfait/knack/knack"
	"github.com/stockparfait/knack/records"
	"github.com/stockparfait/logging"
)

// DownloadOptions select the files to download and name them.
type DownloadOptions struct {
	GetOptions
	Field string // key or name of a file or image field
	Dir   string // destination directory
	// Values of these fields, by key or name, prefix the file names.
	LabelFields []string
	Overwrite   bool
}

// fileName of the asset downloaded from uri, prefixed by the record's label
// values.
func fileName(r *records.Record, uri string, labels []string) (string, error) {
	base := "file"
	if u, err := url.Parse(uri); err == nil && path.Base(u.Path) != "/" && path.Base(u.Path) != "." {
		base = path.Base(u.Path)
	}
	parts := make([]string, 0, len(labels)+1)
	for _, l := range labels {
		v, err := r.Formatted(l)
		if err != nil {
			return "", err
		}
		parts = append(parts, records.Stringify(v))
	}
	parts = append(parts, base)
	name := strings.Join(parts, "_")
	return strings.NewReplacer("/", "_", `\`, "_").Replace(name), nil
}

// Download the files of a file or image field of the named container's
// records into a directory. Existing files are skipped unless overwriting.
// Returns the number of downloaded files.
func (a *App) Download(ctx context.Context, name string, opts DownloadOptions) (int, error) {
	recs, err := a.Get(ctx, name, opts.GetOptions)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(opts.Dir, 0755); err != nil {
		return 0, errors.Annotate(err, "failed to create directory %s", opts.Dir)
	}
	count := 0
	var total int64
	for _, r := range recs {
		f, err := r.Field(opts.Field)
		if err != nil {
			return count, err
		}
		if t := f.Def.Type; t != fields.File && t != fields.Image {
			return count, &knack.ConfigError{
				Reason: "field " + f.Key() + " of type " + string(t) + " has no files"}
		}
		uri, ok := f.Formatted.(string)
		if !ok || uri == "" {
			continue
		}
		fn, err := fileName(r, uri, opts.LabelFields)
		if err != nil {
			return count, err
		}
		p := filepath.Join(opts.Dir, fn)
		if _, err := os.Stat(p); err == nil && !opts.Overwrite {
			logging.Warningf(ctx, "%s already exists, skipping", p)
			continue
		}
		n, err := a.download(ctx, uri, p)
		if err != nil {
			return count, err
		}
		count++
		total += n
		logging.Infof(ctx, "downloaded %s (%s)", p, humanize.Bytes(uint64(n)))
	}
	logging.Infof(ctx, "downloaded %d files, %s total", count, humanize.Bytes(uint64(total)))
	return count, nil
}

func (a *App) download(ctx context.Context, uri, p string) (int64, error) {
	out, err := os.Create(p)
	if err != nil {
		return 0, errors.Annotate(err, "failed to create %s", p)
	}
	defer out.Close()
	n, err := a.client.Download(ctx, uri, out)
	if err != nil {
		return n, err
	}
	if err := out.Close(); err != nil {
		return n, errors.Annotate(err, "failed to close %s", p)
	}
	return n, nil
}
