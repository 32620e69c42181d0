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

// StaticArrayFieldClass describes an array field with a fixed number of
// elements.
type StaticArrayFieldClass struct {
	fieldClassBase

	element FieldClass
	length  uint64
}

// NewStaticArrayFieldClass creates a static array field class of length
// elements of class element.
//
// element must not already be part of a trace class; it is frozen.
func (tc *TraceClass) NewStaticArrayFieldClass(element FieldClass, length uint64) (*StaticArrayFieldClass, error) {
	fc := &StaticArrayFieldClass{
		fieldClassBase: tc.newFieldClassBase(FieldClassTypeStaticArray),
		element:        element,
		length:         length,
	}
	if err := adoptChild(fc, element); err != nil {
		return nil, err
	}
	return fc, nil
}

// ElementFieldClass returns the class of the array's elements.
func (fc *StaticArrayFieldClass) ElementFieldClass() FieldClass { return fc.element }

// Length returns the number of elements in the array.
func (fc *StaticArrayFieldClass) Length() uint64 { return fc.length }

// DynamicArrayFieldClass describes an array field whose number of elements
// varies per instance.
//
// The length either comes with the field data itself (no link) or is read
// from an anterior unsigned integer field designated by a field path
// (MIP 0) or a field location (MIP ≥ 1).
type DynamicArrayFieldClass struct {
	fieldClassBase
	fieldLink

	element FieldClass
}

func (tc *TraceClass) newDynamicArray(element FieldClass, typ FieldClassType) (*DynamicArrayFieldClass, error) {
	fc := &DynamicArrayFieldClass{
		fieldClassBase: tc.newFieldClassBase(typ),
		element:        element,
	}
	if err := adoptChild(fc, element); err != nil {
		return nil, err
	}
	return fc, nil
}

// NewDynamicArrayFieldClass creates a dynamic array field class without a
// length link: each field records its own length.
//
// element must not already be part of a trace class; it is frozen.
func (tc *TraceClass) NewDynamicArrayFieldClass(element FieldClass) (*DynamicArrayFieldClass, error) {
	return tc.newDynamicArray(element, FieldClassTypeDynamicArray)
}

// NewDynamicArrayFieldClassWithLengthFieldClass creates a dynamic array
// field class whose length is read from an anterior field of class length.
// MIP 0 only; the length field path is resolved when the enclosing scope
// is installed.
func (tc *TraceClass) NewDynamicArrayFieldClassWithLengthFieldClass(element FieldClass, length *UnsignedIntegerFieldClass) (*DynamicArrayFieldClass, error) {
	debug.Assert(tc.mip == 0, "length field classes require MIP 0; use a field location")
	fc, err := tc.newDynamicArray(element, FieldClassTypeDynamicArrayWithLengthField)
	if err != nil {
		return nil, err
	}
	fc.targetClass = length
	return fc, nil
}

// NewDynamicArrayFieldClassWithLengthFieldLocation creates a dynamic array
// field class whose length is read from the anterior field designated by
// location. MIP ≥ 1 only.
func (tc *TraceClass) NewDynamicArrayFieldClassWithLengthFieldLocation(element FieldClass, location *FieldLocation) (*DynamicArrayFieldClass, error) {
	debug.Assert(tc.mip >= 1, "field locations require MIP >= 1")
	fc, err := tc.newDynamicArray(element, FieldClassTypeDynamicArrayWithLengthField)
	if err != nil {
		return nil, err
	}
	fc.location = location
	return fc, nil
}

// ElementFieldClass returns the class of the array's elements.
func (fc *DynamicArrayFieldClass) ElementFieldClass() FieldClass { return fc.element }

// LengthFieldPath returns the resolved field path of the length field, or
// nil before the enclosing scope is installed or when the class has no
// length link. MIP 0 only.
func (fc *DynamicArrayFieldClass) LengthFieldPath() *FieldPath { return fc.path }

// LengthFieldLocation returns the field location of the length field, or
// nil when the class has no length link. MIP ≥ 1 only.
func (fc *DynamicArrayFieldClass) LengthFieldLocation() *FieldLocation { return fc.location }

// StructureMember is a named member of a structure field class.
type StructureMember struct {
	userAttrs

	name  string
	class FieldClass
}

// Name returns the member's name, unique within its structure.
func (m *StructureMember) Name() string { return m.name }

// FieldClass returns the member's field class.
func (m *StructureMember) FieldClass() FieldClass { return m.class }

// SetUserAttributes replaces the member's user attributes with a deep copy
// of attrs.
func (m *StructureMember) SetUserAttributes(attrs Attributes) error {
	return m.setUserAttributes(attrs)
}

// StructureFieldClass describes a field holding an ordered list of named
// members.
type StructureFieldClass struct {
	fieldClassBase

	members []StructureMember
	byName  map[string]int
}

// NewStructureFieldClass creates a structure field class with no members.
func (tc *TraceClass) NewStructureFieldClass() *StructureFieldClass {
	return &StructureFieldClass{
		fieldClassBase: tc.newFieldClassBase(FieldClassTypeStructure),
		byName:         make(map[string]int),
	}
}

// AppendMember appends a member named name of class class.
//
// name must not already name a member of this structure, and class must
// not already be part of a trace class; class is frozen.
func (fc *StructureFieldClass) AppendMember(name string, class FieldClass) error {
	fc.checkMutable("append member")
	if _, ok := fc.byName[name]; ok {
		return &DuplicateLabelError{Container: fc.typ, Label: name}
	}
	if err := adoptChild(fc, class); err != nil {
		return err
	}
	fc.byName[name] = len(fc.members)
	fc.members = append(fc.members, StructureMember{name: name, class: class})
	return nil
}

// MemberCount returns the number of members of this structure.
func (fc *StructureFieldClass) MemberCount() int { return len(fc.members) }

// Member returns the i-th member, in insertion order.
func (fc *StructureFieldClass) Member(i int) *StructureMember { return &fc.members[i] }

// MemberByName returns the member named name, or nil if there is none.
func (fc *StructureFieldClass) MemberByName(name string) *StructureMember {
	i, ok := fc.byName[name]
	if !ok {
		return nil
	}
	return &fc.members[i]
}

// OptionWithoutSelectorFieldClass describes an optional field whose
// presence comes with the field data itself.
type OptionWithoutSelectorFieldClass struct {
	fieldClassBase

	content FieldClass
}

// NewOptionFieldClassWithoutSelector creates an option field class without
// a selector link wrapping content.
//
// content must not already be part of a trace class; it is frozen.
func (tc *TraceClass) NewOptionFieldClassWithoutSelector(content FieldClass) (*OptionWithoutSelectorFieldClass, error) {
	fc := &OptionWithoutSelectorFieldClass{
		fieldClassBase: tc.newFieldClassBase(FieldClassTypeOptionWithoutSelectorField),
		content:        content,
	}
	if err := adoptChild(fc, content); err != nil {
		return nil, err
	}
	return fc, nil
}

// ContentFieldClass returns the class of the optional field.
func (fc *OptionWithoutSelectorFieldClass) ContentFieldClass() FieldClass { return fc.content }

// OptionWithBoolSelectorFieldClass describes an optional field whose
// presence is controlled by an anterior boolean field.
type OptionWithBoolSelectorFieldClass struct {
	fieldClassBase
	fieldLink

	content  FieldClass
	reversed bool
}

// NewOptionFieldClassWithBoolSelectorFieldClass creates an option field
// class wrapping content whose presence is controlled by an anterior field
// of class selector. MIP 0 only.
func (tc *TraceClass) NewOptionFieldClassWithBoolSelectorFieldClass(content FieldClass, selector *BoolFieldClass) (*OptionWithBoolSelectorFieldClass, error) {
	debug.Assert(tc.mip == 0, "selector field classes require MIP 0; use a field location")
	fc := &OptionWithBoolSelectorFieldClass{
		fieldClassBase: tc.newFieldClassBase(FieldClassTypeOptionWithBoolSelectorField),
		content:        content,
	}
	fc.targetClass = selector
	if err := adoptChild(fc, content); err != nil {
		return nil, err
	}
	return fc, nil
}

// NewOptionFieldClassWithBoolSelectorFieldLocation creates an option field
// class wrapping content whose presence is controlled by the anterior
// boolean field designated by location. MIP ≥ 1 only.
func (tc *TraceClass) NewOptionFieldClassWithBoolSelectorFieldLocation(content FieldClass, location *FieldLocation) (*OptionWithBoolSelectorFieldClass, error) {
	debug.Assert(tc.mip >= 1, "field locations require MIP >= 1")
	fc := &OptionWithBoolSelectorFieldClass{
		fieldClassBase: tc.newFieldClassBase(FieldClassTypeOptionWithBoolSelectorField),
		content:        content,
	}
	fc.location = location
	if err := adoptChild(fc, content); err != nil {
		return nil, err
	}
	return fc, nil
}

// ContentFieldClass returns the class of the optional field.
func (fc *OptionWithBoolSelectorFieldClass) ContentFieldClass() FieldClass { return fc.content }

// SelectorIsReversed reports whether a false selector value makes the
// option present.
func (fc *OptionWithBoolSelectorFieldClass) SelectorIsReversed() bool { return fc.reversed }

// SetSelectorIsReversed sets whether a false selector value makes the
// option present.
func (fc *OptionWithBoolSelectorFieldClass) SetSelectorIsReversed(reversed bool) {
	fc.checkMutable("set selector is reversed")
	fc.reversed = reversed
}

// SelectorFieldPath returns the resolved field path of the selector field,
// or nil before the enclosing scope is installed. MIP 0 only.
func (fc *OptionWithBoolSelectorFieldClass) SelectorFieldPath() *FieldPath { return fc.path }

// SelectorFieldLocation returns the field location of the selector field.
// MIP ≥ 1 only.
func (fc *OptionWithBoolSelectorFieldClass) SelectorFieldLocation() *FieldLocation {
	return fc.location
}

// OptionWithIntegerSelectorFieldClass describes an optional field whose
// presence is controlled by an anterior integer field: the option is
// present iff the selector's value falls within the class's ranges.
//
// Use the [OptionWithUnsignedIntegerSelectorFieldClass] and
// [OptionWithSignedIntegerSelectorFieldClass] instantiations.
type OptionWithIntegerSelectorFieldClass[T RangeValue] struct {
	fieldClassBase
	fieldLink

	content FieldClass
	ranges  *RangeSet[T]
}

// OptionWithUnsignedIntegerSelectorFieldClass describes an option field
// selected by an unsigned integer field.
type OptionWithUnsignedIntegerSelectorFieldClass = OptionWithIntegerSelectorFieldClass[uint64]

// OptionWithSignedIntegerSelectorFieldClass describes an option field
// selected by a signed integer field.
type OptionWithSignedIntegerSelectorFieldClass = OptionWithIntegerSelectorFieldClass[int64]

func newOptionWithIntegerSelector[T RangeValue](tc *TraceClass, typ FieldClassType, content FieldClass, ranges *RangeSet[T]) (*OptionWithIntegerSelectorFieldClass[T], error) {
	debug.Assert(ranges.Len() > 0, "option selector range set is empty")
	fc := &OptionWithIntegerSelectorFieldClass[T]{
		fieldClassBase: tc.newFieldClassBase(typ),
		content:        content,
		ranges:         ranges,
	}
	if err := adoptChild(fc, content); err != nil {
		return nil, err
	}
	ranges.freeze()
	return fc, nil
}

// NewOptionFieldClassWithUnsignedIntegerSelectorFieldClass creates an
// option field class wrapping content, present iff the anterior field of
// class selector holds a value within ranges. MIP 0 only.
func (tc *TraceClass) NewOptionFieldClassWithUnsignedIntegerSelectorFieldClass(content FieldClass, selector *UnsignedIntegerFieldClass, ranges *UnsignedRangeSet) (*OptionWithUnsignedIntegerSelectorFieldClass, error) {
	debug.Assert(tc.mip == 0, "selector field classes require MIP 0; use a field location")
	fc, err := newOptionWithIntegerSelector(tc, FieldClassTypeOptionWithUnsignedIntegerSelectorField, content, ranges)
	if err != nil {
		return nil, err
	}
	fc.targetClass = selector
	return fc, nil
}

// NewOptionFieldClassWithSignedIntegerSelectorFieldClass creates an option
// field class wrapping content, present iff the anterior field of class
// selector holds a value within ranges. MIP 0 only.
func (tc *TraceClass) NewOptionFieldClassWithSignedIntegerSelectorFieldClass(content FieldClass, selector *SignedIntegerFieldClass, ranges *SignedRangeSet) (*OptionWithSignedIntegerSelectorFieldClass, error) {
	debug.Assert(tc.mip == 0, "selector field classes require MIP 0; use a field location")
	fc, err := newOptionWithIntegerSelector(tc, FieldClassTypeOptionWithSignedIntegerSelectorField, content, ranges)
	if err != nil {
		return nil, err
	}
	fc.targetClass = selector
	return fc, nil
}

// NewOptionFieldClassWithUnsignedIntegerSelectorFieldLocation creates an
// option field class wrapping content, present iff the anterior field
// designated by location holds a value within ranges. MIP ≥ 1 only.
func (tc *TraceClass) NewOptionFieldClassWithUnsignedIntegerSelectorFieldLocation(content FieldClass, location *FieldLocation, ranges *UnsignedRangeSet) (*OptionWithUnsignedIntegerSelectorFieldClass, error) {
	debug.Assert(tc.mip >= 1, "field locations require MIP >= 1")
	fc, err := newOptionWithIntegerSelector(tc, FieldClassTypeOptionWithUnsignedIntegerSelectorField, content, ranges)
	if err != nil {
		return nil, err
	}
	fc.location = location
	return fc, nil
}

// NewOptionFieldClassWithSignedIntegerSelectorFieldLocation creates an
// option field class wrapping content, present iff the anterior field
// designated by location holds a value within ranges. MIP ≥ 1 only.
func (tc *TraceClass) NewOptionFieldClassWithSignedIntegerSelectorFieldLocation(content FieldClass, location *FieldLocation, ranges *SignedRangeSet) (*OptionWithSignedIntegerSelectorFieldClass, error) {
	debug.Assert(tc.mip >= 1, "field locations require MIP >= 1")
	fc, err := newOptionWithIntegerSelector(tc, FieldClassTypeOptionWithSignedIntegerSelectorField, content, ranges)
	if err != nil {
		return nil, err
	}
	fc.location = location
	return fc, nil
}

// ContentFieldClass returns the class of the optional field.
func (fc *OptionWithIntegerSelectorFieldClass[T]) ContentFieldClass() FieldClass { return fc.content }

// SelectorRanges returns the selector values for which the option is
// present.
func (fc *OptionWithIntegerSelectorFieldClass[T]) SelectorRanges() *RangeSet[T] { return fc.ranges }

// SelectorFieldPath returns the resolved field path of the selector field,
// or nil before the enclosing scope is installed. MIP 0 only.
func (fc *OptionWithIntegerSelectorFieldClass[T]) SelectorFieldPath() *FieldPath { return fc.path }

// SelectorFieldLocation returns the field location of the selector field.
// MIP ≥ 1 only.
func (fc *OptionWithIntegerSelectorFieldClass[T]) SelectorFieldLocation() *FieldLocation {
	return fc.location
}
