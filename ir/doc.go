// Copyright 2024-2026 The Tracemux Authors
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

// Package ir is the trace intermediate representation: the metadata model
// that describes what a source produces and what every downstream component
// may assume.
//
// The model is built from a [TraceClass] down: a trace class owns stream
// classes, a stream class owns event classes and up to four scope field
// classes, and field classes form a tree describing the shape of every
// field a stream can carry. Clock classes describe the per-stream clocks
// whose snapshots stamp messages.
//
// # Freezing
//
// Objects start out mutable. Installing a field class into a scope, or
// appending it as a child of another composite, freezes it together with
// all of its descendants. A frozen object rejects every mutation; once
// frozen it is safe to share across message boundaries without locking.
// The same discipline applies to clock classes, stream classes and event
// classes once a message referencing them is created.
//
// # MIP versions
//
// A trace class carries the effective Message Interchange Protocol (MIP)
// version of its graph, either 0 or 1. The version selects between the two
// linking models (field paths vs. field locations), between UUID and
// namespace/name/UID identities, and gates the newer field-class kinds
// (BLOBs, nameless variant options, custom clock origins).
package ir
