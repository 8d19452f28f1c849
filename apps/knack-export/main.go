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

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-isatty"
	"github.com/stockparfait/errors"
	"github.com/stockparfait/knack/app"
	"github.com/stockparfait/knack/knack"
	"github.com/stockparfait/knack/table"
	"github.com/stockparfait/logging"

	toml "github.com/pelletier/go-toml/v2"
)

type Flags struct {
	Config    string // default: ~/.knack/config.toml
	LogLevel  logging.Level
	Container string // object or view, by key or name
	Out       string // output directory, or database file for sqlite
	Format    string // csv, text or sqlite; default: text on a terminal, csv otherwise
	Limit     int
	Filters   string // JSON
	RawKeys   bool
	RawValues bool
	Delimiter string
	Info      bool
	Download  string // file field to download
	Labels    string // comma-separated fields prefixing downloaded file names
}

func parseFlags(args []string) (*Flags, error) {
	var flags Flags
	fs := flag.NewFlagSet("knack-export", flag.ExitOnError)
	fs.StringVar(&flags.Config, "config",
		filepath.Join(os.Getenv("HOME"), ".knack", "config.toml"),
		"configuration file")
	flags.LogLevel = logging.Info
	fs.Var(&flags.LogLevel, "log-level", "Log level: debug, info, warning, error")
	fs.StringVar(&flags.Container, "container", "", "object or view key or name")
	fs.StringVar(&flags.Out, "out", "",
		"output directory for csv and downloads, database file for sqlite")
	fs.StringVar(&flags.Format, "format", "",
		"csv, text or sqlite; default: text on a terminal, csv otherwise")
	fs.IntVar(&flags.Limit, "limit", 0, "max. number of records; 0 = all")
	fs.StringVar(&flags.Filters, "filters", "", "record filters as JSON")
	fs.BoolVar(&flags.RawKeys, "raw-keys", false, "use field keys instead of names")
	fs.BoolVar(&flags.RawValues, "raw-values", false, "export raw values instead of formatted")
	fs.StringVar(&flags.Delimiter, "delimiter", ",", "CSV delimiter")
	fs.BoolVar(&flags.Info, "info", false, "print application summary")
	fs.StringVar(&flags.Download, "download", "", "file or image field to download files from")
	fs.StringVar(&flags.Labels, "labels", "", "comma-separated fields to prefix downloaded file names with")

	err := fs.Parse(args)
	if err != nil {
		return nil, err
	}
	if flags.Container == "" && !flags.Info {
		return nil, errors.Reason("missing required -container argument")
	}
	switch flags.Format {
	case "", "csv", "text", "sqlite":
	default:
		return nil, errors.Reason("unsupported -format %s", flags.Format)
	}
	if flags.Format == "sqlite" && flags.Out == "" {
		return nil, errors.Reason("-format sqlite requires -out database file")
	}
	if utf8.RuneCountInString(flags.Delimiter) != 1 {
		return nil, errors.Reason("-delimiter must be a single character")
	}
	if flags.Limit < 0 {
		return nil, errors.Reason("-limit must be >= 0")
	}
	return &flags, nil
}

const sampleConfig = `app_id = "YourKnackApplicationID"
api_key = "YourKnackAPIKey"
# timezone = "US/Central"  # overrides the application setting
# timeout = 30
# max_attempts = 5
`

func parseConfig(path string) (*knack.Config, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, errors.Annotate(err,
				"config file '%s' does not exist.\nPlease create config file containing:\n%s",
				path, sampleConfig)
		}
		return nil, errors.Annotate(err, "cannot check config file for existence: '%s'", path)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Annotate(err, "failed to read config file %s", path)
	}
	var js map[string]any
	if err := toml.Unmarshal(b, &js); err != nil {
		return nil, errors.Annotate(err, "failed to parse config file %s", path)
	}
	cfg, err := knack.NewConfig(js)
	if err != nil {
		return nil, errors.Annotate(err, "invalid config file %s", path)
	}
	return cfg, nil
}

func splitList(s string) []string {
	var res []string
	for _, x := range strings.Split(s, ",") {
		if x = strings.TrimSpace(x); x != "" {
			res = append(res, x)
		}
	}
	return res
}

func export(ctx context.Context, flags *Flags, w io.Writer, terminal bool, opts ...app.Option) error {
	cfg, err := parseConfig(flags.Config)
	if err != nil {
		return errors.Annotate(err, "failed to parse config")
	}
	a, err := app.New(ctx, cfg, opts...)
	if err != nil {
		return errors.Annotate(err, "failed to load application %s", cfg.AppID)
	}
	if flags.Info && flags.Container == "" {
		_, err := fmt.Fprint(w, a.Info().String())
		return err
	}
	getOpts := app.GetOptions{RecordLimit: flags.Limit}
	if flags.Filters != "" {
		if getOpts.Filters, err = knack.ParseFilters(flags.Filters); err != nil {
			return err
		}
	}
	if flags.Download != "" {
		dir := flags.Out
		if dir == "" {
			dir = "."
		}
		n, err := a.Download(ctx, flags.Container, app.DownloadOptions{
			GetOptions:  getOpts,
			Field:       flags.Download,
			Dir:         dir,
			LabelFields: splitList(flags.Labels),
		})
		if err != nil {
			return errors.Annotate(err, "failed to download files")
		}
		logging.Infof(ctx, "downloaded %d files into %s", n, dir)
		return nil
	}
	exportOpts := app.ExportOptions{
		GetOptions:   getOpts,
		FormatKeys:   !flags.RawKeys,
		FormatValues: !flags.RawValues,
	}
	delim, _ := utf8.DecodeRuneInString(flags.Delimiter)
	format := flags.Format
	if format == "" {
		format = "csv"
		if terminal && flags.Out == "" {
			format = "text"
		}
	}
	switch {
	case format == "sqlite":
		if err := a.ToSQLite(ctx, flags.Container, flags.Out, exportOpts); err != nil {
			return errors.Annotate(err, "failed to export to %s", flags.Out)
		}
	case format == "csv" && flags.Out != "":
		if _, err := a.ToCSV(ctx, flags.Container, flags.Out, exportOpts,
			table.Params{Delimiter: delim}); err != nil {
			return errors.Annotate(err, "failed to export CSV")
		}
	default:
		tbl, err := a.Table(ctx, flags.Container, exportOpts)
		if err != nil {
			return errors.Annotate(err, "failed to read records")
		}
		if format == "csv" {
			err = tbl.WriteCSV(w, table.Params{Delimiter: delim})
		} else {
			err = tbl.WriteText(w, table.Params{MaxColWidth: 40})
		}
		if err != nil {
			return errors.Annotate(err, "failed to print records")
		}
	}
	if flags.Info {
		_, err := fmt.Fprint(w, a.Info().String())
		return err
	}
	return nil
}

func main() {
	ctx := context.Background()
	flags, err := parseFlags(os.Args[1:])
	if err != nil {
		ctx = logging.Use(ctx, logging.DefaultGoLogger(logging.Info))
		logging.Errorf(ctx, "failed to parse flags: %s", err.Error())
		os.Exit(1)
	}
	ctx = logging.Use(ctx, logging.DefaultGoLogger(flags.LogLevel))

	fd := os.Stdout.Fd()
	terminal := isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
	if err := export(ctx, flags, os.Stdout, terminal); err != nil {
		logging.Errorf(ctx, "%s", err.Error())
		os.Exit(1)
	}
}
