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
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/k3a/html2text"
	"github.com/urfave/cli/v2"

	"github.com/ianlewis/go-quickdic"
	"github.com/ianlewis/go-quickdic/index"
)

func queryCommand() *cli.Command {
	return &cli.Command{
		Name:      "query",
		Usage:     "search dictionaries",
		ArgsUsage: "QUERY",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "index",
				Usage:   "only search indices named `NAME`",
				Aliases: []string{"i"},
			},
			&cli.IntFlag{
				Name:    "rows",
				Usage:   "print `N` rows from the insertion point",
				Aliases: []string{"n"},
				Value:   10,
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("%w: expected a QUERY argument", ErrFlagParse)
			}
			query := c.Args().First()

			dicts, err := openDicts(c)
			if err != nil {
				return err
			}
			defer closeDicts(dicts)

			w := c.App.Writer
			for _, d := range dicts {
				for _, idx := range d.Indices() {
					if name := c.String("index"); name != "" && idx.ShortName() != name {
						continue
					}

					res, err := idx.FindLongestPrefix(c.Context, query)
					if errors.Is(err, index.ErrEmptyIndex) {
						continue
					}
					if err != nil {
						return fmt.Errorf("searching %s [%s]: %w", dictName(d), idx.ShortName(), err)
					}

					match := "prefix"
					if res.Success {
						match = "match"
					}
					fmt.Fprintf(w, "%s [%s] %s %q\n", dictName(d), idx.ShortName(), match, res.LongestPrefixString)
					if err := printRows(w, d, idx, res.InsertionPoint.StartRow, c.Int("rows")); err != nil {
						return err
					}
					fmt.Fprintln(w)
				}
			}
			return nil
		},
	}
}

// printRows prints up to n rows of idx starting at start.
func printRows(w io.Writer, d *quickdic.Dictionary, idx *index.Index, start, n int) error {
	end := min(start+n, idx.RowCount())
	for pos := start; pos < end; pos++ {
		r, err := idx.RowAt(pos)
		if err != nil {
			//nolint:wrapcheck // errors are wrapped by the index.
			return err
		}
		switch r := r.(type) {
		case index.TokenRow:
			fmt.Fprintln(w, r.Entry().Token)
		case index.PairEntryRow:
			p, err := d.PairEntry(r.EntryID())
			if err != nil {
				return fmt.Errorf("row %d: %w", pos, err)
			}
			for _, pair := range p.Pairs {
				src, trg := r.Text(pair)
				fmt.Fprintf(w, "  %s = %s\n", src, trg)
			}
		case index.HTMLEntryRow:
			h, err := d.HTMLEntry(r.EntryID())
			if err != nil {
				return fmt.Errorf("row %d: %w", pos, err)
			}
			text := strings.TrimSpace(html2text.HTML2Text(h.HTML))
			fmt.Fprintf(w, "  %s\n", strings.ReplaceAll(text, "\n", "\n  "))
		}
	}
	return nil
}
