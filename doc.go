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

// Package tracemux is the message-iterator runtime of the trace processing
// framework: it transports IR-shaped messages across a directed graph of
// components.
//
// A source component supplies a [SourceIterator]; [NewMessageIterator]
// wraps it into a [MessageIterator], the downstream-facing handle which
// enforces the iterator lifecycle, validates the message protocol, and
// synthesizes seeking when the source only knows how to rewind. A [Muxer]
// merges any number of upstream message iterators into one time-ordered
// sequence.
//
// # Cooperative scheduling
//
// Everything is single-threaded per graph: a sink pulls a batch from its
// iterator, whose Next transitively pulls from upstream iterators on the
// same goroutine. An iterator with no progress to offer returns
// [ErrTryAgain] instead of blocking; the downstream consumer re-enters it
// later. An [Interrupter] lets the application request that the current
// run unwinds at the next cooperative yield point.
package tracemux
