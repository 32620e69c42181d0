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

	"github.com/tracemux/tracemux/internal/debug"
)

// RangeValue is the set of integer types a [Range] may be built over.
type RangeValue interface {
	~uint64 | ~int64
}

// Range is an inclusive integer interval [Lower, Upper].
type Range[T RangeValue] struct {
	Lower, Upper T
}

// NewRange returns the range [lower, upper]. lower must not be greater
// than upper.
func NewRange[T RangeValue](lower, upper T) Range[T] {
	debug.Assert(lower <= upper, "invalid range: lower %v > upper %v", lower, upper)
	return Range[T]{Lower: lower, Upper: upper}
}

// Contains reports whether v falls within this range.
func (r Range[T]) Contains(v T) bool {
	return v >= r.Lower && v <= r.Upper
}

// Overlaps reports whether this range and other share at least one value.
func (r Range[T]) Overlaps(other Range[T]) bool {
	return r.Lower <= other.Upper && other.Lower <= r.Upper
}

// Format implements [fmt.Formatter].
func (r Range[T]) Format(f fmt.State, verb rune) {
	fmt.Fprintf(f, "[%v, %v]", r.Lower, r.Upper)
}

// RangeSet is an ordered collection of same-signedness integer ranges.
//
// A range set is a value object: it has no owner and participates in no
// reference cycles. Attaching it to an enumeration mapping, a variant
// option or an option field class freezes it; a frozen set rejects
// further additions.
type RangeSet[T RangeValue] struct {
	ranges []Range[T]
	frozen bool
}

// UnsignedRangeSet is a set of ranges over unsigned 64-bit values.
type UnsignedRangeSet = RangeSet[uint64]

// SignedRangeSet is a set of ranges over signed 64-bit values.
type SignedRangeSet = RangeSet[int64]

// NewUnsignedRangeSet returns an empty, unfrozen unsigned range set.
func NewUnsignedRangeSet() *UnsignedRangeSet { return new(UnsignedRangeSet) }

// NewSignedRangeSet returns an empty, unfrozen signed range set.
func NewSignedRangeSet() *SignedRangeSet { return new(SignedRangeSet) }

// AddRange appends the range [lower, upper] to this set.
func (s *RangeSet[T]) AddRange(lower, upper T) error {
	if lower > upper {
		return fmt.Errorf("tracemux/ir: invalid range: lower bound %v is greater than upper bound %v", lower, upper)
	}
	s.checkMutable()
	s.ranges = append(s.ranges, Range[T]{Lower: lower, Upper: upper})
	return nil
}

// Len returns the number of ranges in this set.
func (s *RangeSet[T]) Len() int { return len(s.ranges) }

// Range returns the i-th range, in insertion order.
func (s *RangeSet[T]) Range(i int) Range[T] { return s.ranges[i] }

// Ranges returns the ranges of this set in insertion order. The returned
// slice must not be mutated.
func (s *RangeSet[T]) Ranges() []Range[T] { return s.ranges }

// ContainsValue reports whether any range of this set contains v.
func (s *RangeSet[T]) ContainsValue(v T) bool {
	for _, r := range s.ranges {
		if r.Contains(v) {
			return true
		}
	}
	return false
}

// Overlaps reports whether this set and other share at least one value.
func (s *RangeSet[T]) Overlaps(other *RangeSet[T]) bool {
	for _, a := range s.ranges {
		for _, b := range other.ranges {
			if a.Overlaps(b) {
				return true
			}
		}
	}
	return false
}

func (s *RangeSet[T]) freeze() { s.frozen = true }

func (s *RangeSet[T]) checkMutable() {
	debug.Assert(!s.frozen, "range set is frozen")
}
