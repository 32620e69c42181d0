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

// Package msg defines the messages a message iterator transports: the
// discriminated union of the eight message kinds, and the clock snapshots
// which stamp them.
//
// Creating a message freezes the IR objects it references: a message in
// flight only ever points at immutable metadata, so messages may be
// buffered, reordered and shared freely downstream.
//
// The messages an iterator emits for one stream must follow the stream
// lifetime protocol: a stream-beginning message first, then packets,
// events and discarded-item reports, then a stream-end message. The graph
// runtime enforces this shape.
package msg
