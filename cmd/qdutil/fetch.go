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
	"os"

	"github.com/urfave/cli/v2"

	"github.com/ianlewis/go-quickdic/fetch"
)

func fetchCommand() *cli.Command {
	return &cli.Command{
		Name:      "fetch",
		Usage:     "download dictionaries from S3 compatible storage",
		ArgsUsage: "[PREFIX]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "endpoint",
				Usage:    "storage `HOST[:PORT]`",
				EnvVars:  []string{"QUICKDIC_S3_ENDPOINT"},
				Required: true,
			},
			&cli.StringFlag{
				Name:    "access-key",
				Usage:   "access `KEY` id",
				EnvVars: []string{"QUICKDIC_S3_ACCESS_KEY"},
			},
			&cli.StringFlag{
				Name:    "secret-key",
				Usage:   "secret access `KEY`",
				EnvVars: []string{"QUICKDIC_S3_SECRET_KEY"},
			},
			&cli.StringFlag{
				Name:     "bucket",
				Usage:    "bucket `NAME`",
				Required: true,
			},
			&cli.BoolFlag{
				Name:  "insecure",
				Usage: "connect without TLS",
			},
			&cli.StringFlag{
				Name:     "dest",
				Usage:    "download into `DIR`",
				EnvVars:  []string{"QUICKDIC_DATA_DIR"},
				Required: true,
			},
			&cli.IntFlag{
				Name:  "concurrency",
				Usage: "download `N` files at a time",
				Value: fetch.DefaultOptions.Concurrency,
			},
		},
		Action: func(c *cli.Context) error {
			logger, err := newLogger(c)
			if err != nil {
				return err
			}

			client, err := fetch.NewMinioClient(
				c.String("endpoint"),
				c.String("access-key"),
				c.String("secret-key"),
				!c.Bool("insecure"),
			)
			if err != nil {
				//nolint:wrapcheck // errors are wrapped by fetch.
				return err
			}

			dest := c.String("dest")
			if err := os.MkdirAll(dest, 0o750); err != nil {
				return fmt.Errorf("creating %q: %w", dest, err)
			}

			f := fetch.New(fetch.NewMinioStore(client, c.String("bucket"), ""), dest, &fetch.Options{
				Concurrency: c.Int("concurrency"),
				Logger:      logger,
			})
			paths, err := f.FetchAll(c.Context, c.Args().First())
			if err != nil {
				//nolint:wrapcheck // errors are wrapped by fetch.
				return err
			}
			for _, p := range paths {
				fmt.Fprintln(c.App.Writer, p)
			}
			return nil
		},
	}
}
