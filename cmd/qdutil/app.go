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
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/ianlewis/go-quickdic"
)

const (
	// ExitCodeSuccess is successful error code.
	ExitCodeSuccess int = iota

	// ExitCodeFlagParseError is the exit code for a flag parsing error.
	ExitCodeFlagParseError

	// ExitCodeUnknownError is the exit code for an unknown error.
	ExitCodeUnknownError
)

// ErrQdutil is a parent error for all command errors.
var ErrQdutil = errors.New("qdutil")

// ErrFlagParse is a flag parsing error.
var ErrFlagParse = fmt.Errorf("%w: parsing flags", ErrQdutil)

// ErrNotFound indicates that a requested dictionary or index does not exist.
var ErrNotFound = fmt.Errorf("%w: not found", ErrQdutil)

var copyrightNames = []string{
	"2021 Google LLC",
	"2026 Ian Lewis",
}

//nolint:gochecknoinits // init needed needed for global variable.
func init() {
	// Set the HelpFlag to a random name so that it isn't used. `cli` handles
	// the flag with the root command such that it takes a command name argument
	// but we don't use commands.
	//
	// This flag is hidden by the help output.
	// See: github.com/urfave/cli/issues/1809
	cli.HelpFlag = &cli.BoolFlag{
		// NOTE: Use a random name no one would guess.
		Name:               "d41d8cd98f00b204e980",
		DisableDefaultText: true,
	}
}

// check checks the error and panics if not nil.
func check(err error) {
	if err != nil {
		panic(err)
	}
}

// newLogger returns a logger writing to the app's error writer at the level
// given by the --log-level flag.
func newLogger(c *cli.Context) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.String("log-level"))); err != nil {
		return nil, fmt.Errorf("%w: --log-level: %w", ErrFlagParse, err)
	}
	return slog.New(slog.NewTextHandler(c.App.ErrWriter, &slog.HandlerOptions{
		Level: level,
	})), nil
}

// openDicts opens all dictionaries in the --data-dir directories. Errors for
// individual dictionaries are logged and skipped.
func openDicts(c *cli.Context) ([]*quickdic.Dictionary, error) {
	logger, err := newLogger(c)
	if err != nil {
		return nil, err
	}

	options := &quickdic.Options{
		RowCacheSize:   quickdic.DefaultOptions.RowCacheSize,
		EntryCacheSize: quickdic.DefaultOptions.EntryCacheSize,
		MMap:           c.Bool("mmap"),
		Logger:         logger,
	}

	var dicts []*quickdic.Dictionary
	for _, path := range c.StringSlice("data-dir") {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			logger.Debug("skipping missing data dir", "path", path)
			continue
		}
		openDicts, openErrs := quickdic.OpenAll(path, options)
		dicts = append(dicts, openDicts...)
		for _, err := range openErrs {
			logger.Warn("opening dictionary", "err", err)
		}
	}
	return dicts, nil
}

func closeDicts(dicts []*quickdic.Dictionary) {
	for _, d := range dicts {
		_ = d.Close()
	}
}

func newQdutilApp() *cli.App {
	return &cli.App{
		Name:  filepath.Base(os.Args[0]),
		Usage: "Search QuickDic dictionaries.",
		Description: strings.Join([]string{
			"QuickDic dictionary utility written in Go.",
			"http://github.com/ianlewis/go-quickdic",
		}, "\n"),
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "data-dir",
				Usage:   "include dictionaries in `DIR`",
				Aliases: []string{"d"},
				Value:   cli.NewStringSlice(dictLocations()...),
			},
			&cli.BoolFlag{
				Name:  "mmap",
				Usage: "memory map dictionary files",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "log at `LEVEL` (debug, info, warn, error)",
				Value: "warn",
			},

			// Special flags are shown at the end.
			&cli.BoolFlag{
				Name:               "help",
				Usage:              "print this help text and exit",
				Aliases:            []string{"h"},
				DisableDefaultText: true,
			},
			&cli.BoolFlag{
				Name:               "version",
				Usage:              "print version information and exit",
				Aliases:            []string{"V"},
				DisableDefaultText: true,
			},
		},
		Copyright:       strings.Join(copyrightNames, "\n"),
		HideHelp:        true,
		HideHelpCommand: true,
		OnUsageError: func(_ *cli.Context, err error, _ bool) error {
			return fmt.Errorf("%w: %w", ErrFlagParse, err)
		},
		Action: func(c *cli.Context) error {
			if c.Bool("version") {
				return printVersion(c)
			}

			check(cli.ShowAppHelp(c))
			return nil
		},
		Commands: []*cli.Command{
			listCommand(),
			queryCommand(),
			rowsCommand(),
			fetchCommand(),
		},
	}
}
