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

// BoolFieldClass describes a boolean field.
type BoolFieldClass struct {
	fieldClassBase
}

// NewBoolFieldClass creates a boolean field class.
func (tc *TraceClass) NewBoolFieldClass() *BoolFieldClass {
	return &BoolFieldClass{fieldClassBase: tc.newFieldClassBase(FieldClassTypeBool)}
}

// BitArrayFlag is a named set of bit indexes of a bit-array field class.
//
// A flag is active in a field value iff at least one of its indexes is a
// set bit of the value.
type BitArrayFlag struct {
	label  string
	ranges *UnsignedRangeSet

	// OR of 1<<i for every index i covered by ranges, precomputed when the
	// flag is added.
	mask uint64
}

// Label returns the flag's label, unique within its bit-array class.
func (f *BitArrayFlag) Label() string { return f.label }

// IndexRanges returns the bit index ranges of this flag.
func (f *BitArrayFlag) IndexRanges() *UnsignedRangeSet { return f.ranges }

// Mask returns the OR of 1<<i for every bit index i of this flag.
func (f *BitArrayFlag) Mask() uint64 { return f.mask }

// BitArrayFieldClass describes a fixed-length array of bits, optionally
// carrying named flags over bit indexes.
type BitArrayFieldClass struct {
	fieldClassBase

	length  uint64
	flags   []BitArrayFlag
	byLabel map[string]int
}

// NewBitArrayFieldClass creates a bit-array field class of the given
// length in bits. length must be in [1, 64].
func (tc *TraceClass) NewBitArrayFieldClass(length uint64) *BitArrayFieldClass {
	debug.Assert(length >= 1 && length <= 64, "invalid bit array length %d", length)
	return &BitArrayFieldClass{
		fieldClassBase: tc.newFieldClassBase(FieldClassTypeBitArray),
		length:         length,
		byLabel:        make(map[string]int),
	}
}

// Length returns the number of bits in this bit array.
func (fc *BitArrayFieldClass) Length() uint64 { return fc.length }

// AddFlag adds a flag named label covering the bit indexes of ranges.
//
// Every index must be less than the bit array's length, and label must not
// already name a flag of this class. The range set is frozen.
func (fc *BitArrayFieldClass) AddFlag(label string, ranges *UnsignedRangeSet) error {
	fc.checkMutable("add flag")
	if _, ok := fc.byLabel[label]; ok {
		return &DuplicateLabelError{Container: fc.typ, Label: label}
	}
	var mask uint64
	for _, r := range ranges.Ranges() {
		if r.Upper >= fc.length {
			return fmt.Errorf("tracemux/ir: flag %q has bit index %d, which is not less than the bit array length %d",
				label, r.Upper, fc.length)
		}
		for i := r.Lower; i <= r.Upper; i++ {
			mask |= 1 << i
		}
	}
	ranges.freeze()
	fc.byLabel[label] = len(fc.flags)
	fc.flags = append(fc.flags, BitArrayFlag{label: label, ranges: ranges, mask: mask})
	return nil
}

// FlagCount returns the number of flags of this class.
func (fc *BitArrayFieldClass) FlagCount() int { return len(fc.flags) }

// Flag returns the i-th flag, in insertion order.
func (fc *BitArrayFieldClass) Flag(i int) *BitArrayFlag { return &fc.flags[i] }

// FlagByLabel returns the flag named label, or nil if there is none.
func (fc *BitArrayFieldClass) FlagByLabel(label string) *BitArrayFlag {
	i, ok := fc.byLabel[label]
	if !ok {
		return nil
	}
	return &fc.flags[i]
}

// ActiveFlagLabelsForValue returns, in insertion order, the labels of the
// flags which are active in value.
func (fc *BitArrayFieldClass) ActiveFlagLabelsForValue(value uint64) []string {
	var labels []string
	for i := range fc.flags {
		if value&fc.flags[i].mask != 0 {
			labels = append(labels, fc.flags[i].label)
		}
	}
	return labels
}

// DisplayBase is the preferred base in which to display an integer field's
// value.
type DisplayBase int

const (
	DisplayBaseBinary      DisplayBase = 2
	DisplayBaseOctal       DisplayBase = 8
	DisplayBaseDecimal     DisplayBase = 10
	DisplayBaseHexadecimal DisplayBase = 16
)

// FieldValueHints is a bit set of hints about the values an integer field
// is expected to hold. MIP ≥ 1 only.
type FieldValueHints uint64

const (
	// FieldValueHintSmall hints that field values are expected to be
	// small, close to zero.
	FieldValueHintSmall FieldValueHints = 1 << 0
)

// IntegerFieldClass describes an integer field of up to 64 bits.
//
// Use the [UnsignedIntegerFieldClass] and [SignedIntegerFieldClass]
// instantiations.
type IntegerFieldClass[T RangeValue] struct {
	fieldClassBase

	fieldValueRange uint64
	preferredBase   DisplayBase
	hints           FieldValueHints
}

// UnsignedIntegerFieldClass describes an unsigned integer field.
type UnsignedIntegerFieldClass = IntegerFieldClass[uint64]

// SignedIntegerFieldClass describes a signed integer field.
type SignedIntegerFieldClass = IntegerFieldClass[int64]

func newIntegerFieldClass[T RangeValue](tc *TraceClass, typ FieldClassType) IntegerFieldClass[T] {
	return IntegerFieldClass[T]{
		fieldClassBase:  tc.newFieldClassBase(typ),
		fieldValueRange: 64,
		preferredBase:   DisplayBaseDecimal,
	}
}

// NewUnsignedIntegerFieldClass creates an unsigned integer field class.
//
// The new class has a field value range of 64 bits and a decimal preferred
// display base.
func (tc *TraceClass) NewUnsignedIntegerFieldClass() *UnsignedIntegerFieldClass {
	fc := newIntegerFieldClass[uint64](tc, FieldClassTypeUnsignedInteger)
	return &fc
}

// NewSignedIntegerFieldClass creates a signed integer field class.
//
// The new class has a field value range of 64 bits and a decimal preferred
// display base.
func (tc *TraceClass) NewSignedIntegerFieldClass() *SignedIntegerFieldClass {
	fc := newIntegerFieldClass[int64](tc, FieldClassTypeSignedInteger)
	return &fc
}

// FieldValueRange returns the number of bits needed to represent any value
// of a field described by this class, in [1, 64].
func (fc *IntegerFieldClass[T]) FieldValueRange() uint64 { return fc.fieldValueRange }

// SetFieldValueRange sets the effective bit width of field values. n must
// be in [1, 64].
func (fc *IntegerFieldClass[T]) SetFieldValueRange(n uint64) {
	fc.checkMutable("set field value range")
	debug.Assert(n >= 1 && n <= 64, "invalid field value range %d", n)
	fc.fieldValueRange = n
}

// PreferredDisplayBase returns the preferred base in which to display
// field values.
func (fc *IntegerFieldClass[T]) PreferredDisplayBase() DisplayBase { return fc.preferredBase }

// SetPreferredDisplayBase sets the preferred display base.
func (fc *IntegerFieldClass[T]) SetPreferredDisplayBase(base DisplayBase) {
	fc.checkMutable("set preferred display base")
	switch base {
	case DisplayBaseBinary, DisplayBaseOctal, DisplayBaseDecimal, DisplayBaseHexadecimal:
	default:
		debug.Assert(false, "invalid display base %d", base)
	}
	fc.preferredBase = base
}

// FieldValueHints returns the hints set on this class.
func (fc *IntegerFieldClass[T]) FieldValueHints() FieldValueHints { return fc.hints }

// SetFieldValueHints sets the hints of this class. MIP ≥ 1 only.
func (fc *IntegerFieldClass[T]) SetFieldValueHints(hints FieldValueHints) {
	fc.checkMutable("set field value hints")
	debug.Assert(fc.mip >= 1, "field value hints require MIP >= 1")
	fc.hints = hints
}

// EnumerationMapping associates a label with a set of integer ranges of an
// enumeration field class.
type EnumerationMapping[T RangeValue] struct {
	label  string
	ranges *RangeSet[T]
}

// Label returns the mapping's label, unique within its enumeration class.
func (m *EnumerationMapping[T]) Label() string { return m.label }

// Ranges returns the mapping's value ranges.
func (m *EnumerationMapping[T]) Ranges() *RangeSet[T] { return m.ranges }

// EnumerationFieldClass describes an integer field whose values map to
// labels.
//
// Use the [UnsignedEnumerationFieldClass] and [SignedEnumerationFieldClass]
// instantiations.
type EnumerationFieldClass[T RangeValue] struct {
	IntegerFieldClass[T]

	mappings []EnumerationMapping[T]
	byLabel  map[string]int
}

// UnsignedEnumerationFieldClass describes an unsigned enumeration field.
type UnsignedEnumerationFieldClass = EnumerationFieldClass[uint64]

// SignedEnumerationFieldClass describes a signed enumeration field.
type SignedEnumerationFieldClass = EnumerationFieldClass[int64]

// NewUnsignedEnumerationFieldClass creates an unsigned enumeration field
// class with no mappings.
func (tc *TraceClass) NewUnsignedEnumerationFieldClass() *UnsignedEnumerationFieldClass {
	return &UnsignedEnumerationFieldClass{
		IntegerFieldClass: newIntegerFieldClass[uint64](tc, FieldClassTypeUnsignedEnumeration),
		byLabel:           make(map[string]int),
	}
}

// NewSignedEnumerationFieldClass creates a signed enumeration field class
// with no mappings.
func (tc *TraceClass) NewSignedEnumerationFieldClass() *SignedEnumerationFieldClass {
	return &SignedEnumerationFieldClass{
		IntegerFieldClass: newIntegerFieldClass[int64](tc, FieldClassTypeSignedEnumeration),
		byLabel:           make(map[string]int),
	}
}

// AddMapping adds a mapping from label to ranges.
//
// label must not already name a mapping of this class. Ranges of distinct
// mappings may overlap. The range set is frozen.
func (fc *EnumerationFieldClass[T]) AddMapping(label string, ranges *RangeSet[T]) error {
	fc.checkMutable("add mapping")
	if _, ok := fc.byLabel[label]; ok {
		return &DuplicateLabelError{Container: fc.typ, Label: label}
	}
	ranges.freeze()
	fc.byLabel[label] = len(fc.mappings)
	fc.mappings = append(fc.mappings, EnumerationMapping[T]{label: label, ranges: ranges})
	return nil
}

// MappingCount returns the number of mappings of this class.
func (fc *EnumerationFieldClass[T]) MappingCount() int { return len(fc.mappings) }

// Mapping returns the i-th mapping, in insertion order.
func (fc *EnumerationFieldClass[T]) Mapping(i int) *EnumerationMapping[T] { return &fc.mappings[i] }

// MappingByLabel returns the mapping named label, or nil if there is none.
func (fc *EnumerationFieldClass[T]) MappingByLabel(label string) *EnumerationMapping[T] {
	i, ok := fc.byLabel[label]
	if !ok {
		return nil
	}
	return &fc.mappings[i]
}

// MappingLabelsForValue returns, in insertion order, the labels of the
// mappings with at least one range containing value.
func (fc *EnumerationFieldClass[T]) MappingLabelsForValue(value T) []string {
	var labels []string
	for i := range fc.mappings {
		if fc.mappings[i].ranges.ContainsValue(value) {
			labels = append(labels, fc.mappings[i].label)
		}
	}
	return labels
}

// SinglePrecisionRealFieldClass describes an IEEE 754 single-precision
// real field.
type SinglePrecisionRealFieldClass struct {
	fieldClassBase
}

// NewSinglePrecisionRealFieldClass creates a single-precision real field
// class.
func (tc *TraceClass) NewSinglePrecisionRealFieldClass() *SinglePrecisionRealFieldClass {
	return &SinglePrecisionRealFieldClass{fieldClassBase: tc.newFieldClassBase(FieldClassTypeSinglePrecisionReal)}
}

// DoublePrecisionRealFieldClass describes an IEEE 754 double-precision
// real field.
type DoublePrecisionRealFieldClass struct {
	fieldClassBase
}

// NewDoublePrecisionRealFieldClass creates a double-precision real field
// class.
func (tc *TraceClass) NewDoublePrecisionRealFieldClass() *DoublePrecisionRealFieldClass {
	return &DoublePrecisionRealFieldClass{fieldClassBase: tc.newFieldClassBase(FieldClassTypeDoublePrecisionReal)}
}

// StringFieldClass describes a UTF-8 string field with no fixed length.
type StringFieldClass struct {
	fieldClassBase
}

// NewStringFieldClass creates a string field class.
func (tc *TraceClass) NewStringFieldClass() *StringFieldClass {
	return &StringFieldClass{fieldClassBase: tc.newFieldClassBase(FieldClassTypeString)}
}
