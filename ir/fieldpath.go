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
	"strings"

	"github.com/tracemux/tracemux/internal/debug"
)

// Scope is one of the four roots a field path or field location starts
// from.
type Scope int

const (
	ScopePacketContext Scope = iota
	ScopeEventCommonContext
	ScopeEventSpecificContext
	ScopeEventPayload
)

// String implements [fmt.Stringer].
func (s Scope) String() string {
	switch s {
	case ScopePacketContext:
		return "packet-context"
	case ScopeEventCommonContext:
		return "event-common-context"
	case ScopeEventSpecificContext:
		return "event-specific-context"
	case ScopeEventPayload:
		return "event-payload"
	default:
		return fmt.Sprintf("scope(%d)", int(s))
	}
}

// FieldPath designates a field by its root scope and the structure member
// indexes to follow from it. MIP 0 only.
//
// Field paths are not built by hand: the library resolves them from the
// linked field class when the enclosing scope is installed into a stream
// class or event class.
type FieldPath struct {
	root    Scope
	indexes []uint64
}

// RootScope returns the scope the path starts from.
func (p *FieldPath) RootScope() Scope { return p.root }

// Length returns the number of hops in the path.
func (p *FieldPath) Length() int { return len(p.indexes) }

// Index returns the i-th structure member index of the path.
func (p *FieldPath) Index(i int) uint64 { return p.indexes[i] }

// Indexes returns the path's member indexes. The returned slice must not
// be modified.
func (p *FieldPath) Indexes() []uint64 { return p.indexes }

// String implements [fmt.Stringer].
func (p *FieldPath) String() string {
	var sb strings.Builder
	sb.WriteString(p.root.String())
	sb.WriteString(": [")
	for i, idx := range p.indexes {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%d", idx)
	}
	sb.WriteString("]")
	return sb.String()
}

// FieldLocation designates a field by its root scope and the member names
// to follow from it. MIP ≥ 1 only.
//
// Unlike a field path, a location is supplied at construction time and may
// traverse variant field classes: a hop descends either into the named
// member of a structure or into any option of a variant containing a
// matching member.
type FieldLocation struct {
	root  Scope
	items []string
}

// NewFieldLocation returns the field location starting at root and
// following items. items must not be empty.
func NewFieldLocation(root Scope, items []string) *FieldLocation {
	debug.Assert(len(items) > 0, "empty field location")
	return &FieldLocation{root: root, items: append([]string(nil), items...)}
}

// RootScope returns the scope the location starts from.
func (l *FieldLocation) RootScope() Scope { return l.root }

// Length returns the number of hops in the location.
func (l *FieldLocation) Length() int { return len(l.items) }

// Item returns the i-th member name of the location.
func (l *FieldLocation) Item(i int) string { return l.items[i] }

// Items returns the location's member names. The returned slice must not
// be modified.
func (l *FieldLocation) Items() []string { return l.items }

// String implements [fmt.Stringer].
func (l *FieldLocation) String() string {
	return l.root.String() + ": [" + strings.Join(l.items, ", ") + "]"
}

// fieldLink records how a dependent field class (dynamic array or BLOB
// with a length field, option or variant with a selector field) finds its
// anterior linked field.
//
// Exactly one linking model is in use, fixed at construction: under MIP 0
// the link holds the class of the linked field and the resolver fills in
// the field path at install time; under MIP ≥ 1 the link holds a field
// location supplied at construction.
type fieldLink struct {
	targetClass FieldClass
	path        *FieldPath
	location    *FieldLocation
}
