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

//go:build unix

package mmap

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

func mmap(f *os.File, size int) ([]byte, error) {
	//nolint:gosec // file descriptors fit in an int.
	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		//nolint:wrapcheck // wrapped by the caller.
		return nil, err
	}
	// Entries are read in random order. The hint is advisory.
	if err := unix.Madvise(data, unix.MADV_RANDOM); err != nil && !errors.Is(err, unix.EINVAL) {
		_ = unix.Munmap(data)
		//nolint:wrapcheck // wrapped by the caller.
		return nil, err
	}
	return data, nil
}

func munmap(data []byte) error {
	//nolint:wrapcheck // wrapped by the caller.
	return unix.Munmap(data)
}
