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

package ir

import (
	"github.com/tracemux/tracemux/internal/debug"
)

// Stream is an instance of a [StreamClass]: one sequence of packets and
// events within a trace.
type Stream struct {
	userAttrs

	class *StreamClass
	trace *Trace
	id    uint64
	name  string

	frozen bool
}

// Class returns the stream's class.
func (s *Stream) Class() *StreamClass { return s.class }

// Trace returns the trace which owns this stream.
func (s *Stream) Trace() *Trace { return s.trace }

// ID returns the stream's id, unique among its trace's streams of the
// same class.
func (s *Stream) ID() uint64 { return s.id }

// Name returns the stream's name, or the empty string.
func (s *Stream) Name() string { return s.name }

// SetName sets the stream's name.
func (s *Stream) SetName(name string) {
	s.checkMutable("set name")
	s.name = name
}

// SetUserAttributes replaces this stream's user attributes with a deep
// copy of attrs.
func (s *Stream) SetUserAttributes(attrs Attributes) error {
	s.checkMutable("set user attributes")
	return s.setUserAttributes(attrs)
}

// NewPacket creates a packet of this stream. The stream's class must
// support packets.
func (s *Stream) NewPacket() *Packet {
	debug.Assert(s.class.supportsPackets, "stream class %d does not support packets", s.class.id)
	return &Packet{stream: s}
}

// Freeze freezes this stream, its class, its trace, and the trace's
// class. Creating a message referencing the stream freezes it.
func (s *Stream) Freeze() {
	if s.frozen {
		return
	}
	s.frozen = true
	s.class.freeze()
	s.trace.freeze()
}

// Frozen reports whether this stream has been frozen.
func (s *Stream) Frozen() bool { return s.frozen }

func (s *Stream) checkMutable(op string) {
	debug.Assert(!s.frozen, "cannot %s: stream %d is frozen", op, s.id)
}

// Packet is one packet of a stream.
type Packet struct {
	userAttrs

	stream *Stream
}

// Stream returns the stream this packet belongs to.
func (p *Packet) Stream() *Stream { return p.stream }

// SetUserAttributes replaces this packet's user attributes with a deep
// copy of attrs.
func (p *Packet) SetUserAttributes(attrs Attributes) error {
	return p.setUserAttributes(attrs)
}

// Event is one occurrence of an [EventClass] within a stream.
type Event struct {
	class  *EventClass
	stream *Stream
	packet *Packet
}

// NewEvent creates an event of class ec within stream s.
//
// ec must belong to s's stream class.
func NewEvent(ec *EventClass, s *Stream) *Event {
	debug.Assert(ec.streamClass == s.class, "event class belongs to another stream class")
	return &Event{class: ec, stream: s}
}

// NewEventInPacket creates an event of class ec within packet p.
func NewEventInPacket(ec *EventClass, p *Packet) *Event {
	debug.Assert(ec.streamClass == p.stream.class, "event class belongs to another stream class")
	return &Event{class: ec, stream: p.stream, packet: p}
}

// Class returns the event's class.
func (e *Event) Class() *EventClass { return e.class }

// Stream returns the stream this event belongs to.
func (e *Event) Stream() *Stream { return e.stream }

// Packet returns the packet this event belongs to, or nil when its stream
// class does not support packets.
func (e *Event) Packet() *Packet { return e.packet }
