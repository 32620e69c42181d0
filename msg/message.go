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

package msg

import (
	"strings"

	"github.com/tracemux/tracemux/internal/debug"
	"github.com/tracemux/tracemux/ir"
)

// Kind identifies one of the eight message kinds.
//
// Kinds are single bits so that sets of kinds (such as the kinds a stream
// may produce next) are plain bit masks.
type Kind uint

const (
	KindStreamBeginning Kind = 1 << iota
	KindStreamEnd
	KindEvent
	KindPacketBeginning
	KindPacketEnd
	KindDiscardedEvents
	KindDiscardedPackets
	KindMessageIteratorInactivity
)

var kindNames = []struct {
	kind Kind
	name string
}{
	{KindStreamBeginning, "stream-beginning"},
	{KindStreamEnd, "stream-end"},
	{KindEvent, "event"},
	{KindPacketBeginning, "packet-beginning"},
	{KindPacketEnd, "packet-end"},
	{KindDiscardedEvents, "discarded-events"},
	{KindDiscardedPackets, "discarded-packets"},
	{KindMessageIteratorInactivity, "message-iterator-inactivity"},
}

// String implements [fmt.Stringer]. A set of several kinds renders as the
// individual kinds joined with "|".
func (k Kind) String() string {
	var parts []string
	for _, e := range kindNames {
		if k&e.kind != 0 {
			parts = append(parts, e.name)
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// Message is one message of an iterator's sequence.
//
// Message is a closed interface: its implementations are the eight types
// of this package.
type Message interface {
	// Kind returns the message's kind.
	Kind() Kind

	// Stream returns the stream this message relates to, or nil for a
	// [MessageIteratorInactivity] message.
	Stream() *ir.Stream

	isMessage()
}

// StreamBeginning reports that a stream begins.
type StreamBeginning struct {
	stream *ir.Stream
	cs     *ClockSnapshot
}

// NewStreamBeginning creates a stream-beginning message for stream,
// freezing it.
func NewStreamBeginning(stream *ir.Stream) *StreamBeginning {
	stream.Freeze()
	return &StreamBeginning{stream: stream}
}

// NewStreamBeginningWithClockSnapshot creates a stream-beginning message
// for stream, freezing it, with a default clock snapshot at value cycles.
//
// The stream's class must have a default clock class.
func NewStreamBeginningWithClockSnapshot(stream *ir.Stream, value uint64) *StreamBeginning {
	m := NewStreamBeginning(stream)
	m.cs = defaultSnapshot(stream, value)
	return m
}

// Kind implements [Message].
func (m *StreamBeginning) Kind() Kind { return KindStreamBeginning }

// Stream implements [Message].
func (m *StreamBeginning) Stream() *ir.Stream { return m.stream }

// ClockSnapshot returns the message's default clock snapshot, or nil.
func (m *StreamBeginning) ClockSnapshot() *ClockSnapshot { return m.cs }

func (m *StreamBeginning) isMessage() {}

// StreamEnd reports that a stream ends.
type StreamEnd struct {
	stream *ir.Stream
	cs     *ClockSnapshot
}

// NewStreamEnd creates a stream-end message for stream, freezing it.
func NewStreamEnd(stream *ir.Stream) *StreamEnd {
	stream.Freeze()
	return &StreamEnd{stream: stream}
}

// NewStreamEndWithClockSnapshot creates a stream-end message for stream,
// freezing it, with a default clock snapshot at value cycles.
//
// The stream's class must have a default clock class.
func NewStreamEndWithClockSnapshot(stream *ir.Stream, value uint64) *StreamEnd {
	m := NewStreamEnd(stream)
	m.cs = defaultSnapshot(stream, value)
	return m
}

// Kind implements [Message].
func (m *StreamEnd) Kind() Kind { return KindStreamEnd }

// Stream implements [Message].
func (m *StreamEnd) Stream() *ir.Stream { return m.stream }

// ClockSnapshot returns the message's default clock snapshot, or nil.
func (m *StreamEnd) ClockSnapshot() *ClockSnapshot { return m.cs }

func (m *StreamEnd) isMessage() {}

// PacketBeginning reports that a packet of a stream begins.
type PacketBeginning struct {
	packet *ir.Packet
	cs     *ClockSnapshot
}

// NewPacketBeginning creates a packet-beginning message for packet,
// freezing its stream.
//
// The stream's class must not expect packet-beginning clock snapshots.
func NewPacketBeginning(packet *ir.Packet) *PacketBeginning {
	debug.Assert(!packet.Stream().Class().PacketsHaveBeginningClockSnapshot(),
		"stream class expects a packet-beginning clock snapshot")
	packet.Stream().Freeze()
	return &PacketBeginning{packet: packet}
}

// NewPacketBeginningWithClockSnapshot creates a packet-beginning message
// for packet, freezing its stream, with a default clock snapshot at value
// cycles.
func NewPacketBeginningWithClockSnapshot(packet *ir.Packet, value uint64) *PacketBeginning {
	debug.Assert(packet.Stream().Class().PacketsHaveBeginningClockSnapshot(),
		"stream class does not expect a packet-beginning clock snapshot")
	packet.Stream().Freeze()
	return &PacketBeginning{packet: packet, cs: defaultSnapshot(packet.Stream(), value)}
}

// Kind implements [Message].
func (m *PacketBeginning) Kind() Kind { return KindPacketBeginning }

// Stream implements [Message].
func (m *PacketBeginning) Stream() *ir.Stream { return m.packet.Stream() }

// Packet returns the packet which begins.
func (m *PacketBeginning) Packet() *ir.Packet { return m.packet }

// ClockSnapshot returns the message's default clock snapshot, or nil.
func (m *PacketBeginning) ClockSnapshot() *ClockSnapshot { return m.cs }

func (m *PacketBeginning) isMessage() {}

// PacketEnd reports that the current packet of a stream ends.
type PacketEnd struct {
	packet *ir.Packet
	cs     *ClockSnapshot
}

// NewPacketEnd creates a packet-end message for packet, freezing its
// stream.
//
// The stream's class must not expect packet-end clock snapshots.
func NewPacketEnd(packet *ir.Packet) *PacketEnd {
	debug.Assert(!packet.Stream().Class().PacketsHaveEndClockSnapshot(),
		"stream class expects a packet-end clock snapshot")
	packet.Stream().Freeze()
	return &PacketEnd{packet: packet}
}

// NewPacketEndWithClockSnapshot creates a packet-end message for packet,
// freezing its stream, with a default clock snapshot at value cycles.
func NewPacketEndWithClockSnapshot(packet *ir.Packet, value uint64) *PacketEnd {
	debug.Assert(packet.Stream().Class().PacketsHaveEndClockSnapshot(),
		"stream class does not expect a packet-end clock snapshot")
	packet.Stream().Freeze()
	return &PacketEnd{packet: packet, cs: defaultSnapshot(packet.Stream(), value)}
}

// Kind implements [Message].
func (m *PacketEnd) Kind() Kind { return KindPacketEnd }

// Stream implements [Message].
func (m *PacketEnd) Stream() *ir.Stream { return m.packet.Stream() }

// Packet returns the packet which ends.
func (m *PacketEnd) Packet() *ir.Packet { return m.packet }

// ClockSnapshot returns the message's default clock snapshot, or nil.
func (m *PacketEnd) ClockSnapshot() *ClockSnapshot { return m.cs }

func (m *PacketEnd) isMessage() {}

// Event reports one occurrence of an event class.
type Event struct {
	event *ir.Event
	cs    *ClockSnapshot
}

// NewEvent creates an event message for event, freezing its stream.
//
// The stream's class must not have a default clock class.
func NewEvent(event *ir.Event) *Event {
	debug.Assert(event.Stream().Class().DefaultClockClass() == nil,
		"stream class expects a default clock snapshot on event messages")
	event.Stream().Freeze()
	return &Event{event: event}
}

// NewEventWithClockSnapshot creates an event message for event, freezing
// its stream, with a default clock snapshot at value cycles.
//
// The stream's class must have a default clock class.
func NewEventWithClockSnapshot(event *ir.Event, value uint64) *Event {
	event.Stream().Freeze()
	return &Event{event: event, cs: defaultSnapshot(event.Stream(), value)}
}

// Kind implements [Message].
func (m *Event) Kind() Kind { return KindEvent }

// Stream implements [Message].
func (m *Event) Stream() *ir.Stream { return m.event.Stream() }

// Event returns the event which occurred.
func (m *Event) Event() *ir.Event { return m.event }

// ClockSnapshot returns the message's default clock snapshot, or nil.
func (m *Event) ClockSnapshot() *ClockSnapshot { return m.cs }

func (m *Event) isMessage() {}

// DiscardedEvents reports that events of a stream were discarded within a
// time range.
type DiscardedEvents struct {
	discardedItems
}

// NewDiscardedEvents creates a discarded-events message for stream,
// freezing it.
//
// The stream's class must support discarded events and must not expect
// discarded-events clock snapshots.
func NewDiscardedEvents(stream *ir.Stream) *DiscardedEvents {
	debug.Assert(stream.Class().SupportsDiscardedEvents(),
		"stream class does not support discarded events")
	debug.Assert(!stream.Class().DiscardedEventsHaveClockSnapshots(),
		"stream class expects discarded-events clock snapshots")
	stream.Freeze()
	return &DiscardedEvents{discardedItems{stream: stream}}
}

// NewDiscardedEventsWithClockSnapshots creates a discarded-events message
// for stream, freezing it, covering the clock values [begin, end].
func NewDiscardedEventsWithClockSnapshots(stream *ir.Stream, begin, end uint64) *DiscardedEvents {
	debug.Assert(stream.Class().SupportsDiscardedEvents(),
		"stream class does not support discarded events")
	debug.Assert(stream.Class().DiscardedEventsHaveClockSnapshots(),
		"stream class does not expect discarded-events clock snapshots")
	stream.Freeze()
	return &DiscardedEvents{newDiscardedItems(stream, begin, end)}
}

// Kind implements [Message].
func (m *DiscardedEvents) Kind() Kind { return KindDiscardedEvents }

func (m *DiscardedEvents) isMessage() {}

// DiscardedPackets reports that packets of a stream were discarded within
// a time range.
type DiscardedPackets struct {
	discardedItems
}

// NewDiscardedPackets creates a discarded-packets message for stream,
// freezing it.
//
// The stream's class must support discarded packets and must not expect
// discarded-packets clock snapshots.
func NewDiscardedPackets(stream *ir.Stream) *DiscardedPackets {
	debug.Assert(stream.Class().SupportsDiscardedPackets(),
		"stream class does not support discarded packets")
	debug.Assert(!stream.Class().DiscardedPacketsHaveClockSnapshots(),
		"stream class expects discarded-packets clock snapshots")
	stream.Freeze()
	return &DiscardedPackets{discardedItems{stream: stream}}
}

// NewDiscardedPacketsWithClockSnapshots creates a discarded-packets
// message for stream, freezing it, covering the clock values [begin,
// end].
func NewDiscardedPacketsWithClockSnapshots(stream *ir.Stream, begin, end uint64) *DiscardedPackets {
	debug.Assert(stream.Class().SupportsDiscardedPackets(),
		"stream class does not support discarded packets")
	debug.Assert(stream.Class().DiscardedPacketsHaveClockSnapshots(),
		"stream class does not expect discarded-packets clock snapshots")
	stream.Freeze()
	return &DiscardedPackets{newDiscardedItems(stream, begin, end)}
}

// Kind implements [Message].
func (m *DiscardedPackets) Kind() Kind { return KindDiscardedPackets }

func (m *DiscardedPackets) isMessage() {}

// discardedItems is the state shared by the two discarded-item message
// kinds.
type discardedItems struct {
	stream  *ir.Stream
	beginCS *ClockSnapshot
	endCS   *ClockSnapshot
	count   *uint64
}

func newDiscardedItems(stream *ir.Stream, begin, end uint64) discardedItems {
	b := defaultSnapshot(stream, begin)
	e := defaultSnapshot(stream, end)
	return discardedItems{stream: stream, beginCS: b, endCS: e}
}

// Stream implements [Message].
func (m *discardedItems) Stream() *ir.Stream { return m.stream }

// BeginClockSnapshot returns the snapshot at the beginning of the
// discarded time range, or nil.
func (m *discardedItems) BeginClockSnapshot() *ClockSnapshot { return m.beginCS }

// EndClockSnapshot returns the snapshot at the end of the discarded time
// range, or nil.
func (m *discardedItems) EndClockSnapshot() *ClockSnapshot { return m.endCS }

// Count returns the number of discarded items, or false when it is
// unknown.
func (m *discardedItems) Count() (uint64, bool) {
	if m.count == nil {
		return 0, false
	}
	return *m.count, true
}

// SetCount sets the number of discarded items. count must be greater than
// zero.
func (m *discardedItems) SetCount(count uint64) {
	debug.Assert(count > 0, "discarded item count must be greater than zero")
	m.count = &count
}

// ClampBeginning rewrites the beginning snapshot's value to value and
// makes the discarded count unknown.
//
// Seeking iterators use this to trim a message which straddles the seek
// point: the original count cannot be attributed to the narrowed range.
func (m *discardedItems) ClampBeginning(value uint64) {
	debug.Assert(m.beginCS != nil, "discarded-items message has no clock snapshots")
	cs := NewClockSnapshot(m.beginCS.ClockClass(), value)
	m.beginCS = &cs
	m.count = nil
}

// MessageIteratorInactivity reports that an iterator with nothing to
// deliver has still observed time passing: its clock reached the carried
// snapshot.
type MessageIteratorInactivity struct {
	cs ClockSnapshot
}

// NewMessageIteratorInactivity creates a message-iterator-inactivity
// message with a snapshot of a clock of class cc at value cycles,
// freezing cc.
func NewMessageIteratorInactivity(cc *ir.ClockClass, value uint64) *MessageIteratorInactivity {
	cc.Freeze()
	return &MessageIteratorInactivity{cs: NewClockSnapshot(cc, value)}
}

// Kind implements [Message].
func (m *MessageIteratorInactivity) Kind() Kind { return KindMessageIteratorInactivity }

// Stream implements [Message]. It returns nil: an inactivity message
// relates to no stream.
func (m *MessageIteratorInactivity) Stream() *ir.Stream { return nil }

// ClockClass returns the class of the clock the snapshot was taken from.
func (m *MessageIteratorInactivity) ClockClass() *ir.ClockClass { return m.cs.ClockClass() }

// ClockSnapshot returns the message's clock snapshot.
func (m *MessageIteratorInactivity) ClockSnapshot() ClockSnapshot { return m.cs }

func (m *MessageIteratorInactivity) isMessage() {}

// defaultSnapshot returns a snapshot of stream's default clock at value
// cycles.
func defaultSnapshot(stream *ir.Stream, value uint64) *ClockSnapshot {
	cc := stream.Class().DefaultClockClass()
	debug.Assert(cc != nil, "stream class %d has no default clock class", stream.Class().ID())
	cs := NewClockSnapshot(cc, value)
	return &cs
}
