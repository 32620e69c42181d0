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

// TraceClass is the root of the metadata model: it owns stream classes and
// is the factory for every field class of its trace.
//
// A trace class carries the effective MIP version of the graph it was
// created for; every descendant object inherits it.
type TraceClass struct {
	userAttrs

	mip                      uint64
	assignsAutoStreamClassID bool
	streamClasses            []*StreamClass
	byID                     map[uint64]*StreamClass
	nextStreamClassID        uint64
	frozen                   bool
}

// NewTraceClass creates a trace class for a graph with the given MIP
// version (0 or 1).
//
// The new trace class assigns automatic stream class ids.
func NewTraceClass(mipVersion uint64) *TraceClass {
	debug.Assert(mipVersion <= 1, "unsupported MIP version %d", mipVersion)
	return &TraceClass{
		mip:                      mipVersion,
		assignsAutoStreamClassID: true,
		byID:                     make(map[uint64]*StreamClass),
	}
}

func (tc *TraceClass) newFieldClassBase(typ FieldClassType) fieldClassBase {
	return fieldClassBase{typ: typ, mip: tc.mip}
}

// GraphMIPVersion returns the effective MIP version of this trace class's
// graph.
func (tc *TraceClass) GraphMIPVersion() uint64 { return tc.mip }

// AssignsAutomaticStreamClassID reports whether this trace class assigns
// ids to new stream classes itself.
func (tc *TraceClass) AssignsAutomaticStreamClassID() bool { return tc.assignsAutoStreamClassID }

// SetAssignsAutomaticStreamClassID sets whether this trace class assigns
// ids to new stream classes itself.
func (tc *TraceClass) SetAssignsAutomaticStreamClassID(auto bool) {
	tc.checkMutable("set assigns automatic stream class id")
	tc.assignsAutoStreamClassID = auto
}

// SetUserAttributes replaces this trace class's user attributes with a
// deep copy of attrs.
func (tc *TraceClass) SetUserAttributes(attrs Attributes) error {
	tc.checkMutable("set user attributes")
	return tc.setUserAttributes(attrs)
}

// NewStreamClass creates a stream class with an automatic id.
//
// The trace class must assign automatic stream class ids.
func (tc *TraceClass) NewStreamClass() *StreamClass {
	debug.Assert(tc.assignsAutoStreamClassID,
		"trace class does not assign automatic stream class ids")
	id := tc.nextStreamClassID
	tc.nextStreamClassID++
	return tc.addStreamClass(id)
}

// NewStreamClassWithID creates a stream class with the given id.
//
// The trace class must not assign automatic stream class ids, and id must
// not already be used by another of its stream classes.
func (tc *TraceClass) NewStreamClassWithID(id uint64) *StreamClass {
	debug.Assert(!tc.assignsAutoStreamClassID,
		"trace class assigns automatic stream class ids")
	debug.Assert(tc.byID[id] == nil, "duplicate stream class id %d", id)
	return tc.addStreamClass(id)
}

func (tc *TraceClass) addStreamClass(id uint64) *StreamClass {
	tc.checkMutable("add stream class")
	sc := &StreamClass{
		traceClass: tc,
		id:         id,
	}
	tc.streamClasses = append(tc.streamClasses, sc)
	tc.byID[id] = sc
	return sc
}

// StreamClassCount returns the number of stream classes of this trace
// class.
func (tc *TraceClass) StreamClassCount() int { return len(tc.streamClasses) }

// StreamClass returns the i-th stream class, in creation order.
func (tc *TraceClass) StreamClass(i int) *StreamClass { return tc.streamClasses[i] }

// StreamClassByID returns the stream class with the given id, or nil if
// there is none.
func (tc *TraceClass) StreamClassByID(id uint64) *StreamClass { return tc.byID[id] }

// Frozen reports whether this trace class has been frozen.
func (tc *TraceClass) Frozen() bool { return tc.frozen }

func (tc *TraceClass) freeze() {
	if tc.frozen {
		return
	}
	tc.frozen = true
	for _, sc := range tc.streamClasses {
		sc.freeze()
	}
}

func (tc *TraceClass) checkMutable(op string) {
	debug.Assert(!tc.frozen, "cannot %s: trace class is frozen", op)
}
