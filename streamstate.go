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
	"fmt"

	"github.com/tracemux/tracemux/ir"
	"github.com/tracemux/tracemux/msg"
)

// perStreamState tracks one live stream of an iterator: the kinds of
// message the stream may produce next and, within a packet, the packet
// itself so that events and the packet-end message can be checked against
// it.
type perStreamState struct {
	expected  msg.Kind
	curPacket *ir.Packet
}

// streamProtocolTracker checks that the messages an iterator delivers
// follow, per stream, the stream lifetime protocol: stream-beginning,
// then packets, events and discarded-item reports as the stream class
// permits, then stream-end.
//
// A stream with no entry yet is in its initial state and accepts only a
// stream-beginning message.
type streamProtocolTracker struct {
	states map[*ir.Stream]*perStreamState
}

func newStreamProtocolTracker() *streamProtocolTracker {
	return &streamProtocolTracker{states: make(map[*ir.Stream]*perStreamState)}
}

func (t *streamProtocolTracker) state(stream *ir.Stream) *perStreamState {
	s := t.states[stream]
	if s == nil {
		s = &perStreamState{expected: msg.KindStreamBeginning}
		t.states[stream] = s
	}
	return s
}

// check validates m against its stream's state and advances it. Messages
// with no stream pass through.
func (t *streamProtocolTracker) check(m msg.Message) error {
	stream := m.Stream()
	if stream == nil {
		return nil
	}
	s := t.state(stream)

	if m.Kind()&s.expected == 0 {
		return fmt.Errorf("tracemux: unexpected %s message: stream-id=%d, stream-class-id=%d, expected-msg-kinds=%s",
			m.Kind(), stream.ID(), stream.Class().ID(), s.expected)
	}
	if err := t.checkPacket(s, m); err != nil {
		return err
	}
	s.update(stream.Class(), m)
	return nil
}

// checkPacket validates the packet invariant: an event or packet-end
// message must carry the packet installed by the preceding
// packet-beginning message.
func (t *streamProtocolTracker) checkPacket(s *perStreamState, m msg.Message) error {
	var actual, expected *ir.Packet
	switch m := m.(type) {
	case *msg.PacketBeginning:
		if s.curPacket != nil {
			return fmt.Errorf("tracemux: packet-beginning message while a packet is already open: stream-id=%d",
				m.Stream().ID())
		}
		s.curPacket = m.Packet()
		return nil
	case *msg.PacketEnd:
		actual, expected = m.Packet(), s.curPacket
		s.curPacket = nil
	case *msg.Event:
		actual, expected = m.Event().Packet(), s.curPacket
	default:
		return nil
	}
	if actual != expected {
		return fmt.Errorf("tracemux: %s message's packet is not the stream's current packet: stream-id=%d",
			m.Kind(), m.Stream().ID())
	}
	return nil
}

// update recomputes the stream's acceptable next message kinds after m.
func (s *perStreamState) update(sc *ir.StreamClass, m msg.Message) {
	switch m.Kind() {
	case msg.KindStreamBeginning:
		s.expected = msg.KindStreamEnd
		if sc.SupportsPackets() {
			s.expected |= msg.KindPacketBeginning
			if sc.SupportsDiscardedPackets() {
				s.expected |= msg.KindDiscardedPackets
			}
		} else {
			s.expected |= msg.KindEvent
		}
		if sc.SupportsDiscardedEvents() {
			s.expected |= msg.KindDiscardedEvents
		}

	case msg.KindStreamEnd:
		s.expected = 0

	case msg.KindEvent:
		s.expected = msg.KindEvent
		if sc.SupportsPackets() {
			s.expected |= msg.KindPacketEnd
		} else {
			s.expected |= msg.KindStreamEnd
		}
		if sc.SupportsDiscardedEvents() {
			s.expected |= msg.KindDiscardedEvents
		}

	case msg.KindPacketBeginning:
		s.expected = msg.KindEvent | msg.KindPacketEnd
		if sc.SupportsDiscardedEvents() {
			s.expected |= msg.KindDiscardedEvents
		}

	case msg.KindPacketEnd:
		s.expected = msg.KindPacketBeginning | msg.KindStreamEnd
		if sc.SupportsDiscardedEvents() {
			s.expected |= msg.KindDiscardedEvents
		}
		if sc.SupportsDiscardedPackets() {
			s.expected |= msg.KindDiscardedPackets
		}

	case msg.KindDiscardedEvents:
		// A discarded-events message leaves the stream where it was: inside
		// the current packet, or between packets / events otherwise.
		s.expected = msg.KindDiscardedEvents
		if s.curPacket != nil {
			s.expected |= msg.KindEvent | msg.KindPacketEnd
		} else {
			s.expected |= msg.KindStreamEnd
			if sc.SupportsPackets() {
				s.expected |= msg.KindPacketBeginning
				if sc.SupportsDiscardedPackets() {
					s.expected |= msg.KindDiscardedPackets
				}
			} else {
				s.expected |= msg.KindEvent
			}
		}

	case msg.KindDiscardedPackets:
		s.expected = msg.KindDiscardedPackets | msg.KindPacketBeginning | msg.KindStreamEnd
		if sc.SupportsDiscardedEvents() {
			s.expected |= msg.KindDiscardedEvents
		}
	}
}

// checkEnded verifies that every stream which began has ended; it runs
// when the iterator reports the end of iteration.
func (t *streamProtocolTracker) checkEnded() error {
	for stream, s := range t.states {
		if s.expected != 0 {
			return fmt.Errorf("tracemux: iterator ended but stream is not ended: stream-id=%d, expected-msg-kinds=%s",
				stream.ID(), s.expected)
		}
	}
	return nil
}

// reset forgets every per-stream state; it runs after a seek.
func (t *streamProtocolTracker) reset() {
	clear(t.states)
}
