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

// StreamClass describes a class of streams: the scope field classes its
// packets and events carry, its default clock class, and which message
// kinds its streams support.
type StreamClass struct {
	userAttrs

	traceClass *TraceClass
	id         uint64
	name       string

	packetContext      *StructureFieldClass
	eventCommonContext *StructureFieldClass

	defaultClockClass *ClockClass

	supportsPackets                    bool
	packetsHaveBeginningClockSnapshot  bool
	packetsHaveEndClockSnapshot        bool
	supportsDiscardedEvents            bool
	discardedEventsHaveClockSnapshots  bool
	supportsDiscardedPackets           bool
	discardedPacketsHaveClockSnapshots bool

	eventClasses     []*EventClass
	eventClassByID   map[uint64]*EventClass
	nextEventClassID uint64

	frozen bool
}

// TraceClass returns the trace class which owns this stream class.
func (sc *StreamClass) TraceClass() *TraceClass { return sc.traceClass }

// ID returns this stream class's numeric id, unique within its trace
// class.
func (sc *StreamClass) ID() uint64 { return sc.id }

// Name returns this stream class's name, or the empty string.
func (sc *StreamClass) Name() string { return sc.name }

// SetName sets this stream class's name.
func (sc *StreamClass) SetName(name string) {
	sc.checkMutable("set name")
	sc.name = name
}

// SetUserAttributes replaces this stream class's user attributes with a
// deep copy of attrs.
func (sc *StreamClass) SetUserAttributes(attrs Attributes) error {
	sc.checkMutable("set user attributes")
	return sc.setUserAttributes(attrs)
}

// PacketContextFieldClass returns the packet context field class, or nil.
func (sc *StreamClass) PacketContextFieldClass() *StructureFieldClass { return sc.packetContext }

// SetPacketContextFieldClass installs fc as the packet context of this
// stream class's packets.
//
// fc must not already be part of a trace class; it is frozen together with
// its descendants, and under MIP 0 the field paths of its dependent field
// classes are resolved.
func (sc *StreamClass) SetPacketContextFieldClass(fc *StructureFieldClass) error {
	sc.checkMutable("set packet context field class")
	debug.Assert(sc.supportsPackets, "stream class does not support packets")
	if err := sc.installScope(nil, ScopePacketContext, fc); err != nil {
		return err
	}
	sc.packetContext = fc
	return nil
}

// EventCommonContextFieldClass returns the event common context field
// class, or nil.
func (sc *StreamClass) EventCommonContextFieldClass() *StructureFieldClass {
	return sc.eventCommonContext
}

// SetEventCommonContextFieldClass installs fc as the context common to all
// events of this stream class's streams.
//
// fc must not already be part of a trace class; it is frozen together with
// its descendants, and under MIP 0 the field paths of its dependent field
// classes are resolved.
func (sc *StreamClass) SetEventCommonContextFieldClass(fc *StructureFieldClass) error {
	sc.checkMutable("set event common context field class")
	if err := sc.installScope(nil, ScopeEventCommonContext, fc); err != nil {
		return err
	}
	sc.eventCommonContext = fc
	return nil
}

// installScope validates, resolves (MIP 0), freezes, and marks fc as part
// of the trace class. ec is nil for stream-class scopes.
func (sc *StreamClass) installScope(ec *EventClass, scope Scope, fc *StructureFieldClass) error {
	if fc.partOfTraceClass {
		return &InstallError{
			Op:    "install scope field class",
			Class: fc,
			Cause: "field class is already part of a trace class",
		}
	}
	if err := resolveScope(sc, ec, scope, fc); err != nil {
		return err
	}
	freezeFieldClass(fc)
	setPartOfTraceClass(fc)
	return nil
}

// DefaultClockClass returns the default clock class of this stream
// class's streams, or nil.
func (sc *StreamClass) DefaultClockClass() *ClockClass { return sc.defaultClockClass }

// SetDefaultClockClass sets the default clock class of this stream
// class's streams and freezes it.
func (sc *StreamClass) SetDefaultClockClass(cc *ClockClass) {
	sc.checkMutable("set default clock class")
	cc.freeze()
	sc.defaultClockClass = cc
}

// SupportsPackets reports whether this stream class's streams carry
// packets.
func (sc *StreamClass) SupportsPackets() bool { return sc.supportsPackets }

// PacketsHaveBeginningClockSnapshot reports whether packet-beginning
// messages carry a default clock snapshot.
func (sc *StreamClass) PacketsHaveBeginningClockSnapshot() bool {
	return sc.packetsHaveBeginningClockSnapshot
}

// PacketsHaveEndClockSnapshot reports whether packet-end messages carry a
// default clock snapshot.
func (sc *StreamClass) PacketsHaveEndClockSnapshot() bool { return sc.packetsHaveEndClockSnapshot }

// SetSupportsPackets sets whether this stream class's streams carry
// packets and whether packet beginning/end messages carry default clock
// snapshots.
//
// Clock snapshot support requires a default clock class.
func (sc *StreamClass) SetSupportsPackets(supports, withBeginningCS, withEndCS bool) {
	sc.checkMutable("set supports packets")
	debug.Assert(supports || (!withBeginningCS && !withEndCS),
		"packet clock snapshots require packet support")
	debug.Assert((!withBeginningCS && !withEndCS) || sc.defaultClockClass != nil,
		"packet clock snapshots require a default clock class")
	sc.supportsPackets = supports
	sc.packetsHaveBeginningClockSnapshot = withBeginningCS
	sc.packetsHaveEndClockSnapshot = withEndCS
}

// SupportsDiscardedEvents reports whether this stream class's streams may
// report discarded events.
func (sc *StreamClass) SupportsDiscardedEvents() bool { return sc.supportsDiscardedEvents }

// DiscardedEventsHaveClockSnapshots reports whether discarded-events
// messages carry beginning and end default clock snapshots.
func (sc *StreamClass) DiscardedEventsHaveClockSnapshots() bool {
	return sc.discardedEventsHaveClockSnapshots
}

// SetSupportsDiscardedEvents sets whether this stream class's streams may
// report discarded events and whether those messages carry clock
// snapshots.
func (sc *StreamClass) SetSupportsDiscardedEvents(supports, withCS bool) {
	sc.checkMutable("set supports discarded events")
	debug.Assert(supports || !withCS, "discarded events clock snapshots require support")
	debug.Assert(!withCS || sc.defaultClockClass != nil,
		"discarded events clock snapshots require a default clock class")
	sc.supportsDiscardedEvents = supports
	sc.discardedEventsHaveClockSnapshots = withCS
}

// SupportsDiscardedPackets reports whether this stream class's streams may
// report discarded packets.
func (sc *StreamClass) SupportsDiscardedPackets() bool { return sc.supportsDiscardedPackets }

// DiscardedPacketsHaveClockSnapshots reports whether discarded-packets
// messages carry beginning and end default clock snapshots.
func (sc *StreamClass) DiscardedPacketsHaveClockSnapshots() bool {
	return sc.discardedPacketsHaveClockSnapshots
}

// SetSupportsDiscardedPackets sets whether this stream class's streams may
// report discarded packets and whether those messages carry clock
// snapshots.
func (sc *StreamClass) SetSupportsDiscardedPackets(supports, withCS bool) {
	sc.checkMutable("set supports discarded packets")
	debug.Assert(!supports || sc.supportsPackets,
		"discarded packets support requires packet support")
	debug.Assert(supports || !withCS, "discarded packets clock snapshots require support")
	debug.Assert(!withCS || sc.defaultClockClass != nil,
		"discarded packets clock snapshots require a default clock class")
	sc.supportsDiscardedPackets = supports
	sc.discardedPacketsHaveClockSnapshots = withCS
}

// EventClassCount returns the number of event classes of this stream
// class.
func (sc *StreamClass) EventClassCount() int { return len(sc.eventClasses) }

// EventClass returns the i-th event class, in creation order.
func (sc *StreamClass) EventClass(i int) *EventClass { return sc.eventClasses[i] }

// EventClassByID returns the event class with the given id, or nil if
// there is none.
func (sc *StreamClass) EventClassByID(id uint64) *EventClass {
	if sc.eventClassByID == nil {
		return nil
	}
	return sc.eventClassByID[id]
}

// NewEventClass creates an event class with an automatic id.
func (sc *StreamClass) NewEventClass() *EventClass {
	id := sc.nextEventClassID
	sc.nextEventClassID++
	return sc.addEventClass(id)
}

// NewEventClassWithID creates an event class with the given id, which
// must not already be used by another event class of this stream class.
func (sc *StreamClass) NewEventClassWithID(id uint64) *EventClass {
	debug.Assert(sc.EventClassByID(id) == nil, "duplicate event class id %d", id)
	return sc.addEventClass(id)
}

func (sc *StreamClass) addEventClass(id uint64) *EventClass {
	sc.checkMutable("add event class")
	ec := &EventClass{
		streamClass: sc,
		id:          id,
		logLevel:    LogLevelNone,
	}
	if sc.eventClassByID == nil {
		sc.eventClassByID = make(map[uint64]*EventClass)
	}
	sc.eventClasses = append(sc.eventClasses, ec)
	sc.eventClassByID[id] = ec
	return ec
}

// Frozen reports whether this stream class has been frozen.
func (sc *StreamClass) Frozen() bool { return sc.frozen }

func (sc *StreamClass) freeze() {
	if sc.frozen {
		return
	}
	sc.frozen = true
	for _, ec := range sc.eventClasses {
		ec.freeze()
	}
	if sc.defaultClockClass != nil {
		sc.defaultClockClass.freeze()
	}
}

func (sc *StreamClass) checkMutable(op string) {
	debug.Assert(!sc.frozen, "cannot %s: stream class %d is frozen", op, sc.id)
}
