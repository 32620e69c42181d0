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
	"math"

	"github.com/tracemux/tracemux/internal/debug"
	"github.com/tracemux/tracemux/msg"
)

// iteratorState is the lifecycle state of a [MessageIterator].
type iteratorState int

const (
	stateNonInitialized iteratorState = iota
	stateActive
	stateSeeking
	stateEnded
	stateLastSeekReturnedAgain
	stateLastSeekReturnedError
	stateFinalized
)

func (s iteratorState) String() string {
	switch s {
	case stateNonInitialized:
		return "non-initialized"
	case stateActive:
		return "active"
	case stateSeeking:
		return "seeking"
	case stateEnded:
		return "ended"
	case stateLastSeekReturnedAgain:
		return "last-seek-returned-again"
	case stateLastSeekReturnedError:
		return "last-seek-returned-error"
	case stateFinalized:
		return "finalized"
	default:
		return "unknown"
	}
}

// IteratorOptions configures a [MessageIterator].
type IteratorOptions struct {
	// PortName names the output port the iterator was created on; it
	// appears in error causes.
	PortName string

	// GraphMIPVersion is the effective MIP version of the graph.
	GraphMIPVersion uint64

	// Interrupter is the graph's interrupter, if any.
	Interrupter *Interrupter
}

// MessageIterator is the downstream-facing handle on a source iterator.
//
// It enforces the iterator lifecycle, validates every pulled batch in
// development mode, and synthesizes seek-to-time on top of a source which
// only knows how to rewind.
type MessageIterator struct {
	user        SourceIterator
	portName    string
	mip         uint64
	interrupter *Interrupter

	state          iteratorState
	canSeekForward bool

	// Messages synthesized by an auto-seek, drained by Next before the
	// user's method runs again.
	autoSeekMsgs []msg.Message

	// The timestamp every subsequent message must be at or after.
	lastNs int64

	// Development-mode postcondition state.
	tracker *streamProtocolTracker
	corr    *ClockCorrelationValidator

	finalizing bool
}

// NewMessageIterator wraps user into a message iterator and initializes
// it.
//
// If user implements [Initializer], its Initialize method runs now; on
// success the iterator is active and ready for [MessageIterator.Next].
func NewMessageIterator(user SourceIterator, opts IteratorOptions) (*MessageIterator, error) {
	it := &MessageIterator{
		user:        user,
		portName:    opts.PortName,
		mip:         opts.GraphMIPVersion,
		interrupter: opts.Interrupter,
		state:       stateNonInitialized,
		lastNs:      math.MinInt64,
		tracker:     newStreamProtocolTracker(),
		corr:        NewClockCorrelationValidator(opts.GraphMIPVersion),
	}

	cfg := &IteratorConfig{}
	if init, ok := user.(Initializer); ok {
		if err := init.Initialize(cfg); err != nil {
			return nil, wrapCause(err, "cannot initialize message iterator (port %q)", it.portName)
		}
	}
	it.canSeekForward = cfg.canSeekForward
	it.state = stateActive
	log.WithField("port", it.portName).Trace("created message iterator")
	return it, nil
}

// PortName returns the name of the output port this iterator was created
// on.
func (it *MessageIterator) PortName() string { return it.portName }

// GraphMIPVersion returns the effective MIP version of the graph.
func (it *MessageIterator) GraphMIPVersion() uint64 { return it.mip }

// IsInterrupted reports whether the graph's interrupter is set.
func (it *MessageIterator) IsInterrupted() bool { return it.interrupter.IsSet() }

// CanSeekForward reports whether this iterator supports being
// fast-forwarded to a later point of its sequence.
func (it *MessageIterator) CanSeekForward() bool { return it.canSeekForward }

// Next fills msgs with up to len(msgs) messages.
//
// It returns the number of messages written, [ErrEnd] once the sequence
// is over, [ErrTryAgain] when the source cannot progress right now, or a
// failure. The iterator must be active: after a seek returned
// [ErrTryAgain] or an error, the seek must be retried before Next.
func (it *MessageIterator) Next(msgs []msg.Message) (int, error) {
	debug.Assert(it.state == stateActive,
		"\"next\" called in state %s", it.state)
	debug.Assert(len(msgs) > 0, "empty message batch")

	// Drain any prefix synthesized by an auto-seek first.
	if len(it.autoSeekMsgs) > 0 {
		n := copy(msgs, it.autoSeekMsgs)
		it.autoSeekMsgs = it.autoSeekMsgs[n:]
		if len(it.autoSeekMsgs) == 0 {
			it.autoSeekMsgs = nil
		}
		it.checkBatch(msgs[:n])
		return n, nil
	}

	n, err := it.user.Next(msgs)
	switch {
	case err == nil:
		debug.Assert(n <= len(msgs),
			"invalid returned message count: greater than batch capacity: count=%d, capacity=%d", n, len(msgs))
		it.checkBatch(msgs[:n])
		return n, nil
	case errors.Is(err, ErrEnd):
		it.state = stateEnded
		if debug.Enabled {
			if endErr := it.tracker.checkEnded(); endErr != nil {
				debug.Assert(false, "%v", endErr)
			}
		}
		log.WithField("port", it.portName).Trace("message iterator ended")
		return 0, ErrEnd
	case errors.Is(err, ErrTryAgain):
		// A source may hand back an incomplete batch together with the
		// try-again signal; the messages are valid and must be consumed
		// before re-entering.
		it.checkBatch(msgs[:n])
		return n, ErrTryAgain
	default:
		return 0, wrapCause(err, "message iterator's \"next\" method failed (port %q)", it.portName)
	}
}

// checkBatch applies the development-mode postconditions to a successful
// batch: clock correlation, per-stream protocol, and timestamp
// monotonicity.
func (it *MessageIterator) checkBatch(msgs []msg.Message) {
	if !debug.Enabled {
		return
	}
	for _, m := range msgs {
		if err := it.corr.Validate(m); err != nil {
			debug.Assert(false, "clock classes are not correlatable: %v", err)
		}
		if err := it.tracker.check(m); err != nil {
			debug.Assert(false, "unexpected message sequence: %v", err)
		}
		ns, ok, err := messageTimestamp(m)
		if err != nil {
			debug.Assert(false, "cannot compute message timestamp: %v", err)
		}
		if ok {
			debug.Assert(ns >= it.lastNs,
				"clock snapshots are not monotonic: ns=%d, last-ns=%d", ns, it.lastNs)
			it.lastNs = ns
		}
	}
}

// CanSeekBeginning reports whether this iterator can seek back to its
// first message.
func (it *MessageIterator) CanSeekBeginning() (bool, error) {
	it.checkStateToSeek("can seek beginning")
	if checker, ok := it.user.(BeginningSeekChecker); ok {
		can, err := checker.CanSeekBeginning()
		if err != nil {
			return false, wrapCause(err, "message iterator's \"can seek beginning\" method failed (port %q)", it.portName)
		}
		return can, nil
	}
	_, ok := it.user.(BeginningSeeker)
	return ok, nil
}

// CanSeekNsFromOrigin reports whether this iterator can seek the point in
// time ns, natively or through the seek-to-beginning fallback.
func (it *MessageIterator) CanSeekNsFromOrigin(ns int64) (bool, error) {
	it.checkStateToSeek("can seek ns from origin")
	can, err := it.canSeekNsByItself(ns)
	if err != nil || can {
		return can, err
	}

	// Automatic seeking fallback: seeking the beginning and then
	// fast-forwarding reaches any timestamp.
	can, err = it.CanSeekBeginning()
	if err != nil {
		return false, err
	}
	return can && it.canSeekForward, nil
}

func (it *MessageIterator) canSeekNsByItself(ns int64) (bool, error) {
	if checker, ok := it.user.(NsFromOriginSeekChecker); ok {
		can, err := checker.CanSeekNsFromOrigin(ns)
		if err != nil {
			return false, wrapCause(err, "message iterator's \"can seek ns from origin\" method failed (port %q)", it.portName)
		}
		return can, nil
	}
	_, ok := it.user.(NsFromOriginSeeker)
	return ok, nil
}

// SeekBeginning repositions the iterator before its first message.
//
// On [ErrTryAgain] or a failure the caller must retry the seek, and must
// not call [MessageIterator.Next], until a seek succeeds.
func (it *MessageIterator) SeekBeginning() error {
	it.checkStateToSeek("seek beginning")
	if debug.Enabled {
		can, err := it.CanSeekBeginning()
		debug.Assert(err == nil && can, "message iterator cannot seek beginning (port %q)", it.portName)
	}
	seeker, ok := it.user.(BeginningSeeker)
	debug.Assert(ok, "message iterator has no \"seek beginning\" method (port %q)", it.portName)

	it.resetExpectations()
	it.state = stateSeeking
	log.WithField("port", it.portName).Trace("seeking beginning")

	err := seeker.SeekBeginning()
	it.tracker.reset()
	it.autoSeekMsgs = nil
	it.setStateAfterSeek(err)
	if err != nil && !isStatus(err) {
		return wrapCause(err, "message iterator's \"seek beginning\" method failed (port %q)", it.portName)
	}
	return err
}

// SeekNsFromOrigin repositions the iterator so that the next messages are
// at or after ns nanoseconds from the clock origin.
//
// When the source does not seek in time natively, the iterator seeks to
// the beginning and fast-forwards, replaying for every stream alive at
// the seek point the minimal message prefix that restores its state.
func (it *MessageIterator) SeekNsFromOrigin(ns int64) error {
	it.checkStateToSeek("seek ns from origin")
	if debug.Enabled {
		can, err := it.CanSeekNsFromOrigin(ns)
		debug.Assert(err == nil && can,
			"message iterator cannot seek nanoseconds from origin (port %q, ns=%d)", it.portName, ns)
	}

	it.resetExpectations()
	it.state = stateSeeking
	log.WithFields(map[string]any{"port": it.portName, "ns": ns}).Trace("seeking ns from origin")

	byItself, err := it.canSeekNsByItself(ns)
	if err != nil {
		it.setStateAfterSeek(err)
		return err
	}

	if byItself {
		seeker, ok := it.user.(NsFromOriginSeeker)
		debug.Assert(ok, "message iterator has no \"seek ns from origin\" method (port %q)", it.portName)
		err = seeker.SeekNsFromOrigin(ns)
		it.tracker.reset()
		it.autoSeekMsgs = nil
		if err != nil && !isStatus(err) {
			err = wrapCause(err, "message iterator's \"seek ns from origin\" method failed (port %q)", it.portName)
		}
	} else {
		err = it.autoSeek(ns)
	}

	it.setStateAfterSeek(err)
	if err == nil {
		// The following messages must be at or after the seek point.
		it.lastNs = ns
	}
	return err
}

// resetExpectations forgets what the iterator expects of its next
// messages; a seek invalidates any prior timeline.
func (it *MessageIterator) resetExpectations() {
	it.lastNs = math.MinInt64
}

// setStateAfterSeek moves the iterator to the state matching a seek
// outcome.
func (it *MessageIterator) setStateAfterSeek(err error) {
	switch {
	case err == nil:
		it.state = stateActive
	case errors.Is(err, ErrEnd):
		it.state = stateEnded
	case errors.Is(err, ErrTryAgain):
		it.state = stateLastSeekReturnedAgain
	default:
		it.state = stateLastSeekReturnedError
	}
}

func (it *MessageIterator) checkStateToSeek(op string) {
	debug.Assert(it.state == stateActive ||
		it.state == stateEnded ||
		it.state == stateLastSeekReturnedAgain ||
		it.state == stateLastSeekReturnedError,
		"%q called in state %s", op, it.state)
}

// Finalize runs the source's finalization, at most once.
//
// Finalization never cascades into further lifecycle changes: the
// iterator is pinned for the duration of the callback, and afterwards
// only Finalize may be called again (as a no-op).
func (it *MessageIterator) Finalize() {
	if it.state == stateFinalized {
		return
	}
	debug.Assert(!it.finalizing, "message iterator finalization reentered")
	it.finalizing = true
	if f, ok := it.user.(Finalizer); ok {
		f.Finalize()
	}
	it.finalizing = false
	it.state = stateFinalized
	log.WithField("port", it.portName).Trace("finalized message iterator")
}
