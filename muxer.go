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
	"container/heap"
	"errors"

	"github.com/samber/lo"

	"github.com/tracemux/tracemux/internal/debug"
	"github.com/tracemux/tracemux/msg"
)

// MuxerOptions configures a [Muxer].
type MuxerOptions struct {
	// GraphMIPVersion is the effective MIP version of the graph.
	GraphMIPVersion uint64

	// Interrupter is the graph's interrupter, if any. The muxer checks it
	// before each merge step and surfaces [ErrTryAgain] when it is set.
	Interrupter *Interrupter
}

// Muxer merges the messages of any number of upstream message iterators
// into one sequence ordered by time.
//
// The muxer is itself a [SourceIterator]: wrap it with
// [NewMessageIterator] to plug it into a downstream consumer. Within the
// merged sequence, timestamps never decrease; upstreams whose current
// message carries no timestamp are flushed first, and simultaneous
// messages are ordered by a fixed, deterministic comparison.
type Muxer struct {
	upstreams []*upstreamMsgIter

	// Upstreams with a current message, ordered by the comparator.
	heap muxHeap

	// Upstreams with no current message: brand-new, freshly sought, or
	// blocked on a try-again. Each must reload successfully before
	// rejoining the heap; an upstream which ended leaves both containers
	// for good.
	toReload []*upstreamMsgIter

	corr        *ClockCorrelationValidator
	interrupter *Interrupter

	canSeekForward bool
}

var _ SourceIterator = (*Muxer)(nil)

// NewMuxer creates a muxer over the given upstream message iterators, one
// per connected input port, in port enumeration order.
func NewMuxer(upstreams []*MessageIterator, opts MuxerOptions) *Muxer {
	m := &Muxer{
		corr:        NewClockCorrelationValidator(opts.GraphMIPVersion),
		interrupter: opts.Interrupter,
		canSeekForward: lo.EveryBy(upstreams, func(it *MessageIterator) bool {
			return it.CanSeekForward()
		}),
	}
	for i, it := range upstreams {
		u := newUpstreamMsgIter(it, i)
		m.upstreams = append(m.upstreams, u)
		m.toReload = append(m.toReload, u)
	}
	log.WithField("upstreams", len(m.upstreams)).Trace("created muxer")
	return m
}

// Initialize implements [Initializer]: the muxer can seek forward iff
// every upstream can.
func (m *Muxer) Initialize(cfg *IteratorConfig) error {
	cfg.SetCanSeekForward(m.canSeekForward)
	return nil
}

// Next implements [SourceIterator].
//
// Next returns [ErrTryAgain], possibly along with a partial batch, when
// an upstream is blocked or the graph is interrupted; the accumulated
// messages are valid and the caller re-enters later.
func (m *Muxer) Next(msgs []msg.Message) (int, error) {
	// Make sure every loadable upstream is part of the heap.
	if err := m.ensureFullHeap(); err != nil {
		return 0, err
	}

	n := 0
	for n < len(msgs) {
		if m.interrupter.IsSet() {
			log.Trace("muxer interrupted")
			return n, ErrTryAgain
		}
		if m.heap.Len() == 0 {
			// No more upstream messages.
			if n > 0 {
				return n, nil
			}
			return 0, ErrEnd
		}

		oldest := m.heap.top()

		// All messages of one stream share its default clock class: only
		// the anchoring message kinds are actually inspected.
		if err := m.corr.Validate(oldest.msg()); err != nil {
			return 0, wrapCause(err, "muxer: cannot make messages of upstream message iterator (port %q) part of the sequence",
				oldest.portName())
		}

		msgs[n] = oldest.msg()
		n++
		oldest.discard()

		// Immediately reload the upstream we just took from: with a new
		// current message it sinks back into the heap with a single
		// rebalance; ended, it leaves the heap; blocked, it moves to the
		// to-reload set and the try-again bubbles up with the partial
		// batch preserved.
		more, err := oldest.reload()
		switch {
		case errors.Is(err, ErrTryAgain):
			heap.Pop(&m.heap)
			m.toReload = append(m.toReload, oldest)
			return n, ErrTryAgain
		case err != nil:
			return 0, err
		case more:
			heap.Fix(&m.heap, 0)
		default:
			heap.Pop(&m.heap)
		}
	}
	return n, nil
}

// ensureFullHeap reloads the upstreams of the to-reload set and moves
// them into the heap. An upstream which ended is dropped; one which
// cannot progress stays in the set and the try-again bubbles up.
func (m *Muxer) ensureFullHeap() error {
	for len(m.toReload) > 0 {
		u := m.toReload[0]
		more, err := u.reload()
		if err != nil {
			// ErrTryAgain included: u stays in the to-reload set.
			return err
		}
		m.toReload = m.toReload[1:]
		if more {
			heap.Push(&m.heap, u)
			log.WithFields(map[string]any{"port": u.portName(), "heap-len": m.heap.Len()}).
				Trace("muxer upstream joined heap")
		}
	}
	return nil
}

// CanSeekBeginning implements [BeginningSeekChecker]: the muxer can seek
// its beginning iff every upstream can.
func (m *Muxer) CanSeekBeginning() (bool, error) {
	for _, u := range m.upstreams {
		can, err := u.iter.CanSeekBeginning()
		if err != nil || !can {
			return false, err
		}
	}
	return true, nil
}

// SeekBeginning implements [BeginningSeeker].
//
// The operation is all-or-nothing: the merge state is cleared first, then
// every upstream seeks. If any upstream reports [ErrTryAgain] or fails,
// the muxer stays cleared and the caller must retry the seek — the
// upstreams which already sought will simply seek again.
func (m *Muxer) SeekBeginning() error {
	m.heap.clear()
	m.toReload = nil

	for _, u := range m.upstreams {
		u.resetForSeek()
		if err := u.iter.SeekBeginning(); err != nil {
			if isStatus(err) {
				return err
			}
			return wrapCause(err, "muxer: upstream message iterator cannot seek beginning (port %q)", u.portName())
		}
	}

	// All sought successfully; the next call to Next repopulates the
	// heap.
	m.toReload = append(m.toReload, m.upstreams...)
	return nil
}

// CanSeekNsFromOrigin implements [NsFromOriginSeekChecker]: the muxer
// delegates a seek in time iff every upstream supports one (natively or
// through its own rewind-and-fast-forward fallback). Otherwise the
// muxer's own wrapper falls back to rewinding the whole merge.
func (m *Muxer) CanSeekNsFromOrigin(ns int64) (bool, error) {
	for _, u := range m.upstreams {
		can, err := u.iter.CanSeekNsFromOrigin(ns)
		if err != nil || !can {
			return false, err
		}
	}
	return true, nil
}

// SeekNsFromOrigin implements [NsFromOriginSeeker] by delegating to every
// upstream, with the same all-or-nothing contract as
// [Muxer.SeekBeginning].
func (m *Muxer) SeekNsFromOrigin(ns int64) error {
	m.heap.clear()
	m.toReload = nil

	for _, u := range m.upstreams {
		u.resetForSeek()
		if err := u.iter.SeekNsFromOrigin(ns); err != nil {
			if isStatus(err) {
				return err
			}
			return wrapCause(err, "muxer: upstream message iterator cannot seek nanoseconds from origin (port %q)", u.portName())
		}
	}

	m.toReload = append(m.toReload, m.upstreams...)
	return nil
}

// muxHeap is a min-heap of upstream message iterators, the top being the
// one holding the oldest current message.
type muxHeap struct {
	items []*upstreamMsgIter
}

var _ heap.Interface = (*muxHeap)(nil)

func (h *muxHeap) top() *upstreamMsgIter {
	debug.Assert(len(h.items) > 0, "empty muxer heap")
	return h.items[0]
}

func (h *muxHeap) clear() { h.items = nil }

// Len implements [heap.Interface].
func (h *muxHeap) Len() int { return len(h.items) }

// Less implements [heap.Interface]: whether upstream i's current message
// is older than upstream j's.
//
// Both timestamped: the smaller timestamp wins. One timestamped: the
// upstream without a timestamp wins, because its timeless messages must
// be consumed before a timestamp can be reached and compared. Otherwise
// the deterministic fallback decides, with the port order as the final
// tie break.
func (h *muxHeap) Less(i, j int) bool {
	a, b := h.items[i], h.items[j]
	tsA, tsB := a.msgTs(), b.msgTs()
	switch {
	case tsA != nil && tsB != nil:
		if *tsA != *tsB {
			return *tsA < *tsB
		}
	case tsA != nil:
		return false
	case tsB != nil:
		return true
	}
	if c := compareMessages(a.msg(), b.msg()); c != 0 {
		return c < 0
	}
	return a.index < b.index
}

// Swap implements [heap.Interface].
func (h *muxHeap) Swap(i, j int) { h.items[i], h.items[j] = h.items[j], h.items[i] }

// Push implements [heap.Interface].
func (h *muxHeap) Push(x any) { h.items = append(h.items, x.(*upstreamMsgIter)) }

// Pop implements [heap.Interface].
func (h *muxHeap) Pop() any {
	last := len(h.items) - 1
	u := h.items[last]
	h.items[last] = nil
	h.items = h.items[:last]
	return u
}
