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

package tracemux

import "github.com/tracemux/tracemux/msg"

// SourceIterator is the one method a user message iterator must supply.
//
// The optional behaviors — initialization, seeking, finalization — are
// separate interfaces which the runtime discovers by type assertion:
// [Initializer], [BeginningSeeker], [NsFromOriginSeeker],
// [BeginningSeekChecker], [NsFromOriginSeekChecker], and [Finalizer].
type SourceIterator interface {
	// Next fills msgs with up to len(msgs) messages and returns how many
	// it wrote.
	//
	// Next returns [ErrEnd] once the iterator has delivered every message
	// it ever will, and [ErrTryAgain] when it cannot progress right now
	// without blocking. Any other error is a failure.
	Next(msgs []msg.Message) (int, error)
}

// Initializer is implemented by source iterators which need to run code
// before their first Next call.
type Initializer interface {
	// Initialize prepares the iterator. It must not produce messages; it
	// may configure the iterator through cfg.
	Initialize(cfg *IteratorConfig) error
}

// BeginningSeeker is implemented by source iterators which can rewind to
// their first message.
type BeginningSeeker interface {
	// SeekBeginning repositions the iterator before its first message.
	// It returns [ErrTryAgain] when it cannot progress right now.
	SeekBeginning() error
}

// NsFromOriginSeeker is implemented by source iterators which can
// reposition themselves at an arbitrary point in time natively.
//
// Iterators without this ability are still seekable in time when they
// implement [BeginningSeeker] and report forward seekability: the runtime
// rewinds them and fast-forwards.
type NsFromOriginSeeker interface {
	// SeekNsFromOrigin repositions the iterator so that the next messages
	// are at or after ns nanoseconds from the clock origin.
	SeekNsFromOrigin(ns int64) error
}

// BeginningSeekChecker is implemented by source iterators whose ability
// to seek to the beginning varies; without it, implementing
// [BeginningSeeker] means always being able to.
type BeginningSeekChecker interface {
	CanSeekBeginning() (bool, error)
}

// NsFromOriginSeekChecker is implemented by source iterators whose
// ability to seek to a point in time varies; without it, implementing
// [NsFromOriginSeeker] means always being able to.
type NsFromOriginSeekChecker interface {
	CanSeekNsFromOrigin(ns int64) (bool, error)
}

// Finalizer is implemented by source iterators which need to release
// resources. Finalize runs at most once, and never while another method
// of the iterator is executing.
type Finalizer interface {
	Finalize()
}

// IteratorConfig carries the configuration a source iterator may adjust
// from its Initialize method.
type IteratorConfig struct {
	canSeekForward bool
}

// SetCanSeekForward sets whether the iterator can seek forward: whether
// it supports being fast-forwarded to a later point of its sequence.
func (c *IteratorConfig) SetCanSeekForward(canSeekForward bool) {
	c.canSeekForward = canSeekForward
}
