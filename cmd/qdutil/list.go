// Copyright 2026 Ian Lewis
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/rodaine/table"
	"github.com/urfave/cli/v2"

	"github.com/ianlewis/go-quickdic"
)

// dictName returns the name used to select a dictionary on the command line.
func dictName(d *quickdic.Dictionary) string {
	name := filepath.Base(d.Path())
	lower := strings.ToLower(name)
	for _, ext := range []string{quickdic.DictZipExt, quickdic.Ext} {
		if strings.HasSuffix(lower, ext) {
			return name[:len(name)-len(ext)]
		}
	}
	return name
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "list dictionaries",
		Action: func(c *cli.Context) error {
			dicts, err := openDicts(c)
			if err != nil {
				return err
			}
			defer closeDicts(dicts)

			tbl := table.New("Name", "Info", "Created", "Codec", "Entries", "Indices").WithWriter(c.App.Writer)
			for _, d := range dicts {
				var indices []string
				for _, idx := range d.Indices() {
					indices = append(indices, fmt.Sprintf("%s (%d)", idx.ShortName(), idx.EntryCount()))
				}
				tbl.AddRow(
					dictName(d),
					d.Info(),
					d.Created().UTC().Format(time.DateOnly),
					d.Codec(),
					d.PairEntryCount()+d.HTMLEntryCount(),
					strings.Join(indices, ", "),
				)
			}
			tbl.Print()
			return nil
		},
	}
}
