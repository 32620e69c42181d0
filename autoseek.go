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
	"sort"

	"github.com/tracemux/tracemux/internal/debug"
	"github.com/tracemux/tracemux/ir"
	"github.com/tracemux/tracemux/msg"
)

// autoSeekBatchSize is the batch capacity used while fast-forwarding.
const autoSeekBatchSize = 15

// autoSeekStreamState records where one stream stands during the
// fast-forward phase of an auto-seek.
//
//	time --->
//	[SB]  1  [PB]  2  [PE]  1  [SE]
//
// At point 1 the stream needs a stream-beginning message to be restored;
// at point 2 a stream-beginning and a packet-beginning. Before the
// stream-beginning and after the stream-end, the stream does not exist
// and needs nothing.
type autoSeekStreamState struct {
	packetBegan bool

	// The open packet when packetBegan.
	packet *ir.Packet

	// Whether any skipped message carried a clock snapshot. Only then is
	// it known that the seek time lies within the clock's range, making
	// it safe to stamp the synthesized messages with it.
	seenClockSnapshot bool
}

// autoSeek implements seek-ns-from-origin on top of a source which can
// only seek to its beginning: rewind, fast-forward to the first message
// at or after ns, and queue a synthetic prefix which restores the state
// of every stream alive at the cut point.
func (it *MessageIterator) autoSeek(ns int64) error {
	seeker, ok := it.user.(BeginningSeeker)
	debug.Assert(ok, "auto-seek requires a \"seek beginning\" method (port %q)", it.portName)
	debug.Assert(it.canSeekForward, "auto-seek requires a forward-seekable iterator (port %q)", it.portName)

	if err := seeker.SeekBeginning(); err != nil {
		if isStatus(err) {
			return err
		}
		return wrapCause(err, "message iterator's \"seek beginning\" method failed (port %q)", it.portName)
	}
	it.tracker.reset()
	it.autoSeekMsgs = nil

	states := make(map[*ir.Stream]*autoSeekStreamState)
	err := it.autoSeekFastForward(ns, states)
	switch {
	case errors.Is(err, ErrEnd):
		// The source ran out before the seek point: the synthetic prefix
		// (if any) is all there is, and the next "next" call reports the
		// end itself.
		err = nil
	case err != nil:
		return err
	}

	return it.autoSeekSynthesizePrefix(ns, states)
}

// autoSeekFastForward pulls messages until the first one with a timestamp
// at or after ns, tracking per-stream state; that message and everything
// already pulled after it go to the auto-seek queue.
func (it *MessageIterator) autoSeekFastForward(ns int64, states map[*ir.Stream]*autoSeekStreamState) error {
	buf := make([]msg.Message, autoSeekBatchSize)
	gotFirst := false
	for !gotFirst {
		n, nextErr := it.user.Next(buf)
		debug.Assert(n <= len(buf),
			"invalid returned message count: greater than batch capacity: count=%d, capacity=%d", n, len(buf))

		// A batch may accompany a try-again signal; account for its
		// messages before acting on the status.
		for _, m := range buf[:n] {
			if gotFirst {
				it.autoSeekMsgs = append(it.autoSeekMsgs, m)
				continue
			}
			push, first, err := it.autoSeekHandleMessage(ns, m, states)
			if err != nil {
				return err
			}
			if push {
				it.autoSeekMsgs = append(it.autoSeekMsgs, m)
			}
			gotFirst = first
		}

		if nextErr != nil && !gotFirst {
			if isStatus(nextErr) {
				return nextErr
			}
			return wrapCause(nextErr, "message iterator's \"next\" method failed (port %q)", it.portName)
		}
	}
	return nil
}

// autoSeekHandleMessage classifies one message during fast-forward.
//
// push reports whether m is part of the post-seek sequence; first reports
// whether m is the first message at or after ns (a pushed
// discarded-items message straddling the seek point is clamped to it and
// pushed without ending the fast-forward). A message that is not pushed
// updates the per-stream state instead.
func (it *MessageIterator) autoSeekHandleMessage(ns int64, m msg.Message, states map[*ir.Stream]*autoSeekStreamState) (push, first bool, err error) {
	var cs *msg.ClockSnapshot
	switch m := m.(type) {
	case *msg.Event:
		cs = m.ClockSnapshot()
		debug.Assert(cs != nil, "event message has no default clock snapshot")
	case *msg.MessageIteratorInactivity:
		s := m.ClockSnapshot()
		cs = &s
	case *msg.PacketBeginning:
		if m.Stream().Class().PacketsHaveBeginningClockSnapshot() {
			cs = m.ClockSnapshot()
		}
	case *msg.PacketEnd:
		if m.Stream().Class().PacketsHaveEndClockSnapshot() {
			cs = m.ClockSnapshot()
		}
	case *msg.DiscardedEvents:
		if m.Stream().Class().DiscardedEventsHaveClockSnapshots() {
			return it.autoSeekHandleDiscarded(ns, m, states)
		}
	case *msg.DiscardedPackets:
		if m.Stream().Class().DiscardedPacketsHaveClockSnapshots() {
			return it.autoSeekHandleDiscarded(ns, m, states)
		}
	case *msg.StreamBeginning:
		cs = m.ClockSnapshot()
	case *msg.StreamEnd:
		cs = m.ClockSnapshot()
	}

	if cs != nil {
		msgNs, err := cs.NsFromOrigin()
		if err != nil {
			return false, false, wrapCause(err, "cannot compute message timestamp (port %q)", it.portName)
		}
		if msgNs >= ns {
			return true, true, nil
		}
	}

	it.autoSeekSkipMessage(m, states)
	return false, false, nil
}

// autoSeekSkipMessage records the effect of a message which will not be
// sent downstream.
func (it *MessageIterator) autoSeekSkipMessage(m msg.Message, states map[*ir.Stream]*autoSeekStreamState) {
	switch m := m.(type) {
	case *msg.StreamBeginning:
		debug.Assert(states[m.Stream()] == nil, "stream began twice during auto-seek")
		states[m.Stream()] = &autoSeekStreamState{
			seenClockSnapshot: m.ClockSnapshot() != nil,
		}
	case *msg.PacketBeginning:
		st := states[m.Stream()]
		debug.Assert(st != nil && !st.packetBegan, "packet began in an invalid stream state")
		st.packetBegan = true
		st.packet = m.Packet()
		if m.Stream().Class().PacketsHaveBeginningClockSnapshot() {
			st.seenClockSnapshot = true
		}
	case *msg.Event:
		st := states[m.Stream()]
		debug.Assert(st != nil, "event in an unknown stream")
		st.seenClockSnapshot = true
	case *msg.PacketEnd:
		st := states[m.Stream()]
		debug.Assert(st != nil && st.packetBegan, "packet ended in an invalid stream state")
		st.packetBegan = false
		st.packet = nil
		if m.Stream().Class().PacketsHaveEndClockSnapshot() {
			st.seenClockSnapshot = true
		}
	case *msg.StreamEnd:
		st := states[m.Stream()]
		debug.Assert(st != nil && !st.packetBegan, "stream ended in an invalid stream state")
		delete(states, m.Stream())
	case *msg.DiscardedEvents:
		st := states[m.Stream()]
		debug.Assert(st != nil, "discarded events in an unknown stream")
		if m.Stream().Class().DiscardedEventsHaveClockSnapshots() {
			st.seenClockSnapshot = true
		}
	case *msg.DiscardedPackets:
		st := states[m.Stream()]
		debug.Assert(st != nil, "discarded packets in an unknown stream")
		if m.Stream().Class().DiscardedPacketsHaveClockSnapshots() {
			st.seenClockSnapshot = true
		}
	}
}

// discardedMessage is the shape the two discarded-item message kinds
// share.
type discardedMessage interface {
	msg.Message
	BeginClockSnapshot() *msg.ClockSnapshot
	EndClockSnapshot() *msg.ClockSnapshot
	ClampBeginning(value uint64)
}

// autoSeekHandleDiscarded classifies a discarded-items message with clock
// snapshots during fast-forward.
//
// A message entirely at or after the seek point is the fast-forward's
// first kept message. A message straddling it is clamped: its beginning
// becomes the seek time and its count unknown, and it is kept without
// ending the fast-forward, as the following messages may still be older
// than the seek point.
func (it *MessageIterator) autoSeekHandleDiscarded(ns int64, m discardedMessage, states map[*ir.Stream]*autoSeekStreamState) (push, first bool, err error) {
	begin, end := m.BeginClockSnapshot(), m.EndClockSnapshot()
	debug.Assert(begin != nil && end != nil,
		"discarded-items message has no default clock snapshots")

	beginNs, err := begin.NsFromOrigin()
	if err != nil {
		return false, false, wrapCause(err, "cannot compute message timestamp (port %q)", it.portName)
	}
	if beginNs >= ns {
		return true, true, nil
	}

	endNs, err := end.NsFromOrigin()
	if err != nil {
		return false, false, wrapCause(err, "cannot compute message timestamp (port %q)", it.portName)
	}
	if endNs >= ns {
		value, err := end.ClockClass().CyclesFromNsFromOrigin(ns)
		if err != nil {
			return false, false, wrapCause(err, "cannot convert nanoseconds from origin to a clock value (port %q, ns=%d)", it.portName, ns)
		}
		m.ClampBeginning(value)
		return true, false, nil
	}

	it.autoSeekSkipMessage(m, states)
	return false, false, nil
}

// autoSeekSynthesizePrefix queues, ahead of whatever the fast-forward
// kept, the minimal message prefix which restores each live stream: a
// stream-beginning message, then the open packet's beginning if there is
// one. The messages carry the seek time as their snapshot when a snapshot
// was seen during fast-forward.
func (it *MessageIterator) autoSeekSynthesizePrefix(ns int64, states map[*ir.Stream]*autoSeekStreamState) error {
	streams := make([]*ir.Stream, 0, len(states))
	for stream := range states {
		streams = append(streams, stream)
	}
	// Prefix order across streams is arbitrary; fix it for repeatability.
	sort.Slice(streams, func(i, j int) bool {
		a, b := streams[i], streams[j]
		if a.Class().ID() != b.Class().ID() {
			return a.Class().ID() < b.Class().ID()
		}
		return a.ID() < b.ID()
	})

	var prefix []msg.Message
	for _, stream := range streams {
		st := states[stream]

		var value uint64
		if st.seenClockSnapshot {
			cc := stream.Class().DefaultClockClass()
			debug.Assert(cc != nil, "clock snapshot seen on a stream with no default clock class")
			var err error
			value, err = cc.CyclesFromNsFromOrigin(ns)
			if err != nil {
				return wrapCause(err, "cannot convert nanoseconds from origin to a clock value (port %q, ns=%d)", it.portName, ns)
			}
		}

		if st.seenClockSnapshot {
			prefix = append(prefix, msg.NewStreamBeginningWithClockSnapshot(stream, value))
		} else {
			prefix = append(prefix, msg.NewStreamBeginning(stream))
		}
		if st.packetBegan {
			if stream.Class().PacketsHaveBeginningClockSnapshot() {
				// A skipped packet-beginning message with snapshot support
				// implies a snapshot was seen.
				debug.Assert(st.seenClockSnapshot, "packet began without a clock snapshot")
				prefix = append(prefix, msg.NewPacketBeginningWithClockSnapshot(st.packet, value))
			} else {
				prefix = append(prefix, msg.NewPacketBeginning(st.packet))
			}
		}
	}

	it.autoSeekMsgs = append(prefix, it.autoSeekMsgs...)
	return nil
}
