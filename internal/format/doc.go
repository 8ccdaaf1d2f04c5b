// Copyright 2026 Ian Lewis
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package format implements the binary container used by quickdic files.
//
// All fixed width integers are in network byte order. Strings are a uvarint
// byte length followed by utf-8 data.
//
//	File layout:
//	+--------+---------------+----------------+-----+-----------+
//	| header | section table | section 1      | ... | section n |
//	+--------+---------------+----------------+-----+-----------+
//
//	Header:
//	+------------------+-------------+---------------+---------------------+
//	| magic "QUICKDIC" | version u32 | file size u64 | created millis i64  |
//	+------------------+-------------+---------------+---------------------+
//	| codec u8 | info length u32 | info | section count u32 |
//	+----------+-----------------+------+-------------------+
//
//	Section table entry:
//	+---------+------------+------------+
//	| kind u8 | offset u64 | length u64 |
//	+---------+------------+------------+
//
// Sources sections hold a uvarint count followed by name and uvarint pair
// entry start pairs. Entry table sections (pair entries and HTML entries)
// hold a u32 count, count+1 u64 blob offsets relative to the section start,
// and the blobs themselves, so any entry can be read without reading the
// others. Index sections hold the index names, the sorted index entries and
// the rows.
//
//	Blob:
//	+---------+------------------------------------------+---------+
//	| flag u8 | uncompressed length uvarint (if flag==1) | payload |
//	+---------+------------------------------------------+---------+
package format
