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

// VariantOption is an option of a variant field class without a selector.
type VariantOption struct {
	userAttrs

	name  string
	class FieldClass
}

// Name returns the option's name. Under MIP ≥ 1 an option may be nameless,
// in which case Name returns the empty string.
func (o *VariantOption) Name() string { return o.name }

// FieldClass returns the option's field class.
func (o *VariantOption) FieldClass() FieldClass { return o.class }

// SetUserAttributes replaces the option's user attributes with a deep copy
// of attrs.
func (o *VariantOption) SetUserAttributes(attrs Attributes) error {
	return o.setUserAttributes(attrs)
}

// VariantWithoutSelectorFieldClass describes a field holding one of
// several possible alternatives, the choice coming with the field data
// itself.
type VariantWithoutSelectorFieldClass struct {
	fieldClassBase

	options []VariantOption
	byName  map[string]int
}

// NewVariantFieldClassWithoutSelector creates a variant field class
// without a selector link and with no options.
func (tc *TraceClass) NewVariantFieldClassWithoutSelector() *VariantWithoutSelectorFieldClass {
	return &VariantWithoutSelectorFieldClass{
		fieldClassBase: tc.newFieldClassBase(FieldClassTypeVariantWithoutSelectorField),
		byName:         make(map[string]int),
	}
}

// AppendOption appends an option named name of class class.
//
// Under MIP ≥ 1, name may be empty to append a nameless option, which the
// name table then omits. A non-empty name must not already name an option
// of this variant. class must not already be part of a trace class; it is
// frozen.
func (fc *VariantWithoutSelectorFieldClass) AppendOption(name string, class FieldClass) error {
	fc.checkMutable("append option")
	if name == "" {
		debug.Assert(fc.mip >= 1, "nameless variant options require MIP >= 1")
	} else if _, ok := fc.byName[name]; ok {
		return &DuplicateLabelError{Container: fc.typ, Label: name}
	}
	if err := adoptChild(fc, class); err != nil {
		return err
	}
	if name != "" {
		fc.byName[name] = len(fc.options)
	}
	fc.options = append(fc.options, VariantOption{name: name, class: class})
	return nil
}

// OptionCount returns the number of options of this variant.
func (fc *VariantWithoutSelectorFieldClass) OptionCount() int { return len(fc.options) }

// Option returns the i-th option, in insertion order.
func (fc *VariantWithoutSelectorFieldClass) Option(i int) *VariantOption { return &fc.options[i] }

// OptionByName returns the option named name, or nil if there is none.
func (fc *VariantWithoutSelectorFieldClass) OptionByName(name string) *VariantOption {
	i, ok := fc.byName[name]
	if !ok {
		return nil
	}
	return &fc.options[i]
}

// VariantWithSelectorOption is an option of a variant field class with an
// integer selector. It carries the selector values for which it is the
// selected option.
type VariantWithSelectorOption[T RangeValue] struct {
	userAttrs

	name   string
	class  FieldClass
	ranges *RangeSet[T]
}

// Name returns the option's name. Under MIP ≥ 1 an option may be nameless,
// in which case Name returns the empty string.
func (o *VariantWithSelectorOption[T]) Name() string { return o.name }

// FieldClass returns the option's field class.
func (o *VariantWithSelectorOption[T]) FieldClass() FieldClass { return o.class }

// Ranges returns the selector values for which this option is selected.
func (o *VariantWithSelectorOption[T]) Ranges() *RangeSet[T] { return o.ranges }

// SetUserAttributes replaces the option's user attributes with a deep copy
// of attrs.
func (o *VariantWithSelectorOption[T]) SetUserAttributes(attrs Attributes) error {
	return o.setUserAttributes(attrs)
}

// VariantWithSelectorFieldClass describes a field holding one of several
// possible alternatives, chosen by the value of an anterior integer field:
// the selected option is the one whose ranges contain the selector value.
//
// Use the [VariantWithUnsignedIntegerSelectorFieldClass] and
// [VariantWithSignedIntegerSelectorFieldClass] instantiations.
type VariantWithSelectorFieldClass[T RangeValue] struct {
	fieldClassBase
	fieldLink

	options []VariantWithSelectorOption[T]
	byName  map[string]int
}

// VariantWithUnsignedIntegerSelectorFieldClass describes a variant field
// selected by an unsigned integer field.
type VariantWithUnsignedIntegerSelectorFieldClass = VariantWithSelectorFieldClass[uint64]

// VariantWithSignedIntegerSelectorFieldClass describes a variant field
// selected by a signed integer field.
type VariantWithSignedIntegerSelectorFieldClass = VariantWithSelectorFieldClass[int64]

func newVariantWithSelector[T RangeValue](tc *TraceClass, typ FieldClassType) *VariantWithSelectorFieldClass[T] {
	return &VariantWithSelectorFieldClass[T]{
		fieldClassBase: tc.newFieldClassBase(typ),
		byName:         make(map[string]int),
	}
}

// NewVariantFieldClassWithUnsignedIntegerSelectorFieldClass creates a
// variant field class with no options whose alternative is chosen by an
// anterior field of class selector. MIP 0 only.
func (tc *TraceClass) NewVariantFieldClassWithUnsignedIntegerSelectorFieldClass(selector *UnsignedIntegerFieldClass) *VariantWithUnsignedIntegerSelectorFieldClass {
	debug.Assert(tc.mip == 0, "selector field classes require MIP 0; use a field location")
	fc := newVariantWithSelector[uint64](tc, FieldClassTypeVariantWithUnsignedIntegerSelectorField)
	fc.targetClass = selector
	return fc
}

// NewVariantFieldClassWithSignedIntegerSelectorFieldClass creates a
// variant field class with no options whose alternative is chosen by an
// anterior field of class selector. MIP 0 only.
func (tc *TraceClass) NewVariantFieldClassWithSignedIntegerSelectorFieldClass(selector *SignedIntegerFieldClass) *VariantWithSignedIntegerSelectorFieldClass {
	debug.Assert(tc.mip == 0, "selector field classes require MIP 0; use a field location")
	fc := newVariantWithSelector[int64](tc, FieldClassTypeVariantWithSignedIntegerSelectorField)
	fc.targetClass = selector
	return fc
}

// NewVariantFieldClassWithUnsignedIntegerSelectorFieldLocation creates a
// variant field class with no options whose alternative is chosen by the
// anterior field designated by location. MIP ≥ 1 only.
func (tc *TraceClass) NewVariantFieldClassWithUnsignedIntegerSelectorFieldLocation(location *FieldLocation) *VariantWithUnsignedIntegerSelectorFieldClass {
	debug.Assert(tc.mip >= 1, "field locations require MIP >= 1")
	fc := newVariantWithSelector[uint64](tc, FieldClassTypeVariantWithUnsignedIntegerSelectorField)
	fc.location = location
	return fc
}

// NewVariantFieldClassWithSignedIntegerSelectorFieldLocation creates a
// variant field class with no options whose alternative is chosen by the
// anterior field designated by location. MIP ≥ 1 only.
func (tc *TraceClass) NewVariantFieldClassWithSignedIntegerSelectorFieldLocation(location *FieldLocation) *VariantWithSignedIntegerSelectorFieldClass {
	debug.Assert(tc.mip >= 1, "field locations require MIP >= 1")
	fc := newVariantWithSelector[int64](tc, FieldClassTypeVariantWithSignedIntegerSelectorField)
	fc.location = location
	return fc
}

// AppendOption appends an option named name of class class, selected for
// the values of ranges.
//
// ranges must be disjoint from the union of the ranges of every option
// already appended; on failure the variant is left unchanged. Under
// MIP ≥ 1, name may be empty to append a nameless option. class must not
// already be part of a trace class; it is frozen, as is ranges.
func (fc *VariantWithSelectorFieldClass[T]) AppendOption(name string, class FieldClass, ranges *RangeSet[T]) error {
	fc.checkMutable("append option")
	debug.Assert(ranges.Len() > 0, "variant option range set is empty")
	if name == "" {
		debug.Assert(fc.mip >= 1, "nameless variant options require MIP >= 1")
	} else if _, ok := fc.byName[name]; ok {
		return &DuplicateLabelError{Container: fc.typ, Label: name}
	}
	for i := range fc.options {
		if fc.options[i].ranges.Overlaps(ranges) {
			return &RangeOverlapError{Container: fc.typ, Label: name}
		}
	}
	if err := adoptChild(fc, class); err != nil {
		return err
	}
	ranges.freeze()
	if name != "" {
		fc.byName[name] = len(fc.options)
	}
	fc.options = append(fc.options, VariantWithSelectorOption[T]{name: name, class: class, ranges: ranges})
	return nil
}

// OptionCount returns the number of options of this variant.
func (fc *VariantWithSelectorFieldClass[T]) OptionCount() int { return len(fc.options) }

// Option returns the i-th option, in insertion order.
func (fc *VariantWithSelectorFieldClass[T]) Option(i int) *VariantWithSelectorOption[T] {
	return &fc.options[i]
}

// OptionByName returns the option named name, or nil if there is none.
func (fc *VariantWithSelectorFieldClass[T]) OptionByName(name string) *VariantWithSelectorOption[T] {
	i, ok := fc.byName[name]
	if !ok {
		return nil
	}
	return &fc.options[i]
}

// SelectedOptionForValue returns the option whose ranges contain value, or
// nil if there is none.
func (fc *VariantWithSelectorFieldClass[T]) SelectedOptionForValue(value T) *VariantWithSelectorOption[T] {
	for i := range fc.options {
		if fc.options[i].ranges.ContainsValue(value) {
			return &fc.options[i]
		}
	}
	return nil
}

// SelectorFieldPath returns the resolved field path of the selector field,
// or nil before the enclosing scope is installed. MIP 0 only.
func (fc *VariantWithSelectorFieldClass[T]) SelectorFieldPath() *FieldPath { return fc.path }

// SelectorFieldLocation returns the field location of the selector field.
// MIP ≥ 1 only.
func (fc *VariantWithSelectorFieldClass[T]) SelectorFieldLocation() *FieldLocation {
	return fc.location
}
