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
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/tracemux/tracemux/internal/debug"
)

// Trace is an instance of a [TraceClass]: a set of streams produced
// together, with an environment describing where they come from.
type Trace struct {
	userAttrs

	class *TraceClass

	// MIP ≥ 1 naming.
	namespace, name string

	// MIP 0 carries a UUID; MIP ≥ 1 carries a UID.
	uuid *uuid.UUID
	uid  string

	environment map[string]any

	streams      []*Stream
	nextStreamID map[uint64]uint64

	listeners     []DestructionListener
	inDestruction bool

	frozen bool
}

// DestructionListener is called when the trace it was added to is
// destroyed.
//
// A listener must not add or remove destruction listeners of the trace,
// nor retain the trace beyond the call.
type DestructionListener func(*Trace)

// NewTrace instantiates this trace class.
func (tc *TraceClass) NewTrace() *Trace {
	return &Trace{
		class:        tc,
		environment:  make(map[string]any),
		nextStreamID: make(map[uint64]uint64),
	}
}

// Class returns the trace's class.
func (t *Trace) Class() *TraceClass { return t.class }

// Namespace returns the trace's namespace, or the empty string. MIP ≥ 1
// only.
func (t *Trace) Namespace() string { return t.namespace }

// SetNamespace sets the trace's namespace. MIP ≥ 1 only.
func (t *Trace) SetNamespace(namespace string) {
	t.checkMutable("set namespace")
	debug.Assert(t.class.mip >= 1, "trace namespaces require MIP >= 1")
	t.namespace = namespace
}

// Name returns the trace's name, or the empty string.
func (t *Trace) Name() string { return t.name }

// SetName sets the trace's name.
func (t *Trace) SetName(name string) {
	t.checkMutable("set name")
	t.name = name
}

// UUID returns the trace's UUID, or nil. MIP 0 only.
func (t *Trace) UUID() *uuid.UUID { return t.uuid }

// SetUUID sets the trace's UUID. MIP 0 only.
func (t *Trace) SetUUID(id uuid.UUID) {
	t.checkMutable("set UUID")
	debug.Assert(t.class.mip == 0, "trace UUIDs require MIP 0")
	t.uuid = &id
}

// UID returns the trace's UID, or the empty string. MIP ≥ 1 only.
func (t *Trace) UID() string { return t.uid }

// SetUID sets the trace's UID. MIP ≥ 1 only.
func (t *Trace) SetUID(uid string) {
	t.checkMutable("set UID")
	debug.Assert(t.class.mip >= 1, "trace UIDs require MIP >= 1")
	t.uid = uid
}

// SetUserAttributes replaces this trace's user attributes with a deep
// copy of attrs.
func (t *Trace) SetUserAttributes(attrs Attributes) error {
	t.checkMutable("set user attributes")
	return t.setUserAttributes(attrs)
}

// SetEnvironmentEntry sets the environment entry named name to value,
// which must be an int64 or a string.
//
// Once the trace is frozen, only entries whose key does not exist yet may
// be set: an existing entry is immutable.
func (t *Trace) SetEnvironmentEntry(name string, value any) error {
	switch value.(type) {
	case int64, string:
	default:
		return fmt.Errorf("tracemux/ir: invalid environment entry %q: value must be an int64 or a string, not %T",
			name, value)
	}
	if t.frozen {
		if _, ok := t.environment[name]; ok {
			return fmt.Errorf("tracemux/ir: cannot replace environment entry %q: trace is frozen", name)
		}
	}
	t.environment[name] = value
	return nil
}

// EnvironmentEntry returns the value of the environment entry named name,
// or false if there is none.
func (t *Trace) EnvironmentEntry(name string) (any, bool) {
	v, ok := t.environment[name]
	return v, ok
}

// EnvironmentEntryNames returns the names of the trace's environment
// entries, sorted.
func (t *Trace) EnvironmentEntryNames() []string {
	names := make([]string, 0, len(t.environment))
	for name := range t.environment {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// StreamCount returns the number of streams of this trace.
func (t *Trace) StreamCount() int { return len(t.streams) }

// Stream returns the i-th stream, in creation order.
func (t *Trace) Stream(i int) *Stream { return t.streams[i] }

// NewStream creates a stream of class sc within this trace, with an id
// unique among this trace's streams of that class.
func (t *Trace) NewStream(sc *StreamClass) *Stream {
	debug.Assert(sc.traceClass == t.class, "stream class belongs to another trace class")
	id := t.nextStreamID[sc.id]
	t.nextStreamID[sc.id] = id + 1
	return t.addStream(sc, id)
}

// NewStreamWithID creates a stream of class sc within this trace with the
// given id, which must be unique among this trace's streams of that
// class.
func (t *Trace) NewStreamWithID(sc *StreamClass, id uint64) *Stream {
	debug.Assert(sc.traceClass == t.class, "stream class belongs to another trace class")
	for _, s := range t.streams {
		debug.Assert(s.class != sc || s.id != id, "duplicate stream id %d", id)
	}
	return t.addStream(sc, id)
}

func (t *Trace) addStream(sc *StreamClass, id uint64) *Stream {
	s := &Stream{class: sc, trace: t, id: id}
	t.streams = append(t.streams, s)
	return s
}

// AddDestructionListener registers listener to be called when this trace
// is destroyed and returns its id.
//
// Listener ids are dense: removed listeners leave a slot which later
// additions reuse.
func (t *Trace) AddDestructionListener(listener DestructionListener) uint64 {
	debug.Assert(!t.inDestruction, "cannot add a destruction listener during destruction")
	for i, l := range t.listeners {
		if l == nil {
			t.listeners[i] = listener
			return uint64(i)
		}
	}
	t.listeners = append(t.listeners, listener)
	return uint64(len(t.listeners) - 1)
}

// RemoveDestructionListener removes the destruction listener with the
// given id.
func (t *Trace) RemoveDestructionListener(id uint64) {
	debug.Assert(!t.inDestruction, "cannot remove a destruction listener during destruction")
	debug.Assert(id < uint64(len(t.listeners)) && t.listeners[id] != nil,
		"no destruction listener with id %d", id)
	t.listeners[id] = nil
}

// Destroy notifies this trace's destruction listeners, in id order. The
// trace must not be used afterwards.
func (t *Trace) Destroy() {
	debug.Assert(!t.inDestruction, "trace is already being destroyed")
	t.inDestruction = true
	for _, l := range t.listeners {
		if l != nil {
			l(t)
		}
	}
	t.listeners = nil
}

// Frozen reports whether this trace has been frozen.
func (t *Trace) Frozen() bool { return t.frozen }

func (t *Trace) freeze() {
	if t.frozen {
		return
	}
	t.frozen = true
	t.class.freeze()
}

func (t *Trace) checkMutable(op string) {
	debug.Assert(!t.frozen, "cannot %s: trace is frozen", op)
}
