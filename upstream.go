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

import (
	"errors"

	"github.com/tracemux/tracemux/internal/debug"
	"github.com/tracemux/tracemux/msg"
)

// muxerBatchSize is the batch capacity an upstream message iterator pulls
// with.
const muxerBatchSize = 15

// upstreamMsgIter adapts one upstream [MessageIterator] for the muxer: it
// pulls batches and serves them one message at a time, caching the
// current message's timestamp for the heap comparator.
type upstreamMsgIter struct {
	iter *MessageIterator

	// Position in the muxer's port enumeration order; the comparator's
	// final tie break.
	index int

	buf  [muxerBatchSize]msg.Message
	msgs []msg.Message
	next int

	// Timestamp of the current message, in nanoseconds from origin, or
	// nil when it has none.
	ts *int64
}

func newUpstreamMsgIter(iter *MessageIterator, index int) *upstreamMsgIter {
	return &upstreamMsgIter{iter: iter, index: index}
}

// portName returns the name of the upstream's port.
func (u *upstreamMsgIter) portName() string { return u.iter.PortName() }

// msg returns the current message. There must be one: reload reported
// more messages.
func (u *upstreamMsgIter) msg() msg.Message {
	debug.Assert(u.next < len(u.msgs), "upstream message iterator has no current message (port %q)", u.portName())
	return u.msgs[u.next]
}

// msgTs returns the current message's timestamp, or nil when it has none.
func (u *upstreamMsgIter) msgTs() *int64 { return u.ts }

// discard drops the current message.
func (u *upstreamMsgIter) discard() {
	debug.Assert(u.next < len(u.msgs), "no current message to discard (port %q)", u.portName())
	u.msgs[u.next] = nil
	u.next++
}

// reload makes the next message current, pulling a new batch from the
// upstream iterator if the previous one is exhausted.
//
// It reports whether there is a current message afterwards; false with a
// nil error means the upstream ended. [ErrTryAgain] passes through;
// failures come back wrapped with the upstream's position.
func (u *upstreamMsgIter) reload() (more bool, err error) {
	if u.next >= len(u.msgs) {
		n, err := u.iter.Next(u.buf[:])
		switch {
		case errors.Is(err, ErrEnd):
			return false, nil
		case errors.Is(err, ErrTryAgain) && n == 0:
			return false, ErrTryAgain
		case err != nil && !errors.Is(err, ErrTryAgain):
			return false, wrapCause(err, "upstream message iterator failed (port %q)", u.portName())
		}
		// A batch accompanied by the try-again signal is still a batch:
		// serve it first; the next reload hits the upstream again.
		u.msgs = u.buf[:n]
		u.next = 0
	}
	return true, u.cacheTs()
}

// cacheTs computes and caches the current message's timestamp.
func (u *upstreamMsgIter) cacheTs() error {
	ns, ok, err := messageTimestamp(u.msg())
	if err != nil {
		return wrapCause(err, "cannot compute the timestamp of an upstream message (port %q)", u.portName())
	}
	if ok {
		u.ts = &ns
	} else {
		u.ts = nil
	}
	return nil
}

// resetForSeek forgets any batched messages before a seek.
func (u *upstreamMsgIter) resetForSeek() {
	u.msgs = nil
	u.next = 0
	u.ts = nil
	clear(u.buf[:])
}
