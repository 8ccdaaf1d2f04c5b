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

	"github.com/rodaine/table"
	"github.com/urfave/cli/v2"
	"golang.org/x/time/rate"

	"github.com/ianlewis/go-quickdic"
	"github.com/ianlewis/go-quickdic/index"
)

// findIndex returns the dictionary and index with the given names.
func findIndex(dicts []*quickdic.Dictionary, dict, name string) (*quickdic.Dictionary, *index.Index, error) {
	for _, d := range dicts {
		if dictName(d) != dict {
			continue
		}
		idx, ok := d.Index(name)
		if !ok {
			return nil, nil, fmt.Errorf("%w: index %q in %q", ErrNotFound, name, dict)
		}
		return d, idx, nil
	}
	return nil, nil, fmt.Errorf("%w: dictionary %q", ErrNotFound, dict)
}

func rowsCommand() *cli.Command {
	return &cli.Command{
		Name:  "rows",
		Usage: "print the rows of an index with their tokens",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "dict",
				Usage:    "dictionary `NAME`",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "index",
				Usage:    "index `NAME`",
				Aliases:  []string{"i"},
				Required: true,
			},
			&cli.IntFlag{
				Name:  "start",
				Usage: "first row `POS`",
			},
			&cli.IntFlag{
				Name:    "rows",
				Usage:   "print `N` rows",
				Aliases: []string{"n"},
				Value:   20,
			},
			&cli.BoolFlag{
				Name:  "prewarm",
				Usage: "fill the token row cache before printing",
			},
			&cli.Float64Flag{
				Name:  "prewarm-rate",
				Usage: "prewarm at most `N` batches of rows per second (0 is unlimited)",
			},
		},
		Action: func(c *cli.Context) error {
			dicts, err := openDicts(c)
			if err != nil {
				return err
			}
			defer closeDicts(dicts)

			_, idx, err := findIndex(dicts, c.String("dict"), c.String("index"))
			if err != nil {
				return err
			}

			prewarm := c.Bool("prewarm")
			if prewarm {
				var limiter *rate.Limiter
				if r := c.Float64("prewarm-rate"); r > 0 {
					limiter = rate.NewLimiter(rate.Limit(r), 1)
				}
				if err := idx.Prewarm(c.Context, limiter); err != nil {
					//nolint:wrapcheck // errors are wrapped by the index.
					return err
				}
			}

			tbl := table.New("Row", "Kind", "Token").WithWriter(c.App.Writer)
			start := max(c.Int("start"), 0)
			end := min(start+c.Int("rows"), idx.RowCount())
			for pos := start; pos < end; pos++ {
				r, err := idx.RowAt(pos)
				if err != nil {
					//nolint:wrapcheck // errors are wrapped by the index.
					return err
				}
				// After prewarming every row is cached.
				tr, err := idx.TokenRowFor(pos, !prewarm)
				if err != nil {
					//nolint:wrapcheck // errors are wrapped by the index.
					return err
				}
				tbl.AddRow(pos, r.Kind(), tr.Entry().Token)
			}
			tbl.Print()

			stats := idx.CacheStats()
			fmt.Fprintf(c.App.ErrWriter, "cache hits: %d, misses: %d\n", stats.Hits, stats.Misses)
			return nil
		},
	}
}
