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
	"strings"

	"github.com/tracemux/tracemux/internal/debug"
)

// FieldClassType identifies the shape a [FieldClass] describes.
//
// The type is a 64-bit bitfield in which "is-a" is bitmask containment:
// a concrete type T is-a supertype S iff T&S == S. The abstract types
// ([FieldClassTypeInteger], [FieldClassTypeReal], [FieldClassTypeArray],
// and friends) exist only as operands of [FieldClass.IsA]; no field class
// ever has a pure abstract type.
type FieldClassType uint64

const (
	FieldClassTypeBool     FieldClassType = 1 << 0
	FieldClassTypeBitArray FieldClassType = 1 << 1

	// FieldClassTypeInteger is abstract.
	FieldClassTypeInteger         FieldClassType = 1 << 2
	FieldClassTypeUnsignedInteger FieldClassType = FieldClassTypeInteger | 1<<3
	FieldClassTypeSignedInteger   FieldClassType = FieldClassTypeInteger | 1<<4

	// FieldClassTypeEnumeration is abstract.
	FieldClassTypeEnumeration         FieldClassType = 1 << 5
	FieldClassTypeUnsignedEnumeration FieldClassType = FieldClassTypeEnumeration | FieldClassTypeUnsignedInteger
	FieldClassTypeSignedEnumeration   FieldClassType = FieldClassTypeEnumeration | FieldClassTypeSignedInteger

	// FieldClassTypeReal is abstract.
	FieldClassTypeReal                FieldClassType = 1 << 6
	FieldClassTypeSinglePrecisionReal FieldClassType = FieldClassTypeReal | 1<<7
	FieldClassTypeDoublePrecisionReal FieldClassType = FieldClassTypeReal | 1<<8

	FieldClassTypeString FieldClassType = 1 << 9

	FieldClassTypeStructure FieldClassType = 1 << 10

	// FieldClassTypeArray is abstract.
	FieldClassTypeArray                       FieldClassType = 1 << 11
	FieldClassTypeStaticArray                 FieldClassType = FieldClassTypeArray | 1<<12
	FieldClassTypeDynamicArray                FieldClassType = FieldClassTypeArray | 1<<13
	FieldClassTypeDynamicArrayWithLengthField FieldClassType = FieldClassTypeDynamicArray | 1<<14

	// FieldClassTypeOption is abstract, as are
	// FieldClassTypeOptionWithSelectorField and
	// FieldClassTypeOptionWithIntegerSelectorField.
	FieldClassTypeOption                                 FieldClassType = 1 << 15
	FieldClassTypeOptionWithoutSelectorField             FieldClassType = FieldClassTypeOption | 1<<16
	FieldClassTypeOptionWithSelectorField                FieldClassType = FieldClassTypeOption | 1<<17
	FieldClassTypeOptionWithBoolSelectorField            FieldClassType = FieldClassTypeOptionWithSelectorField | 1<<18
	FieldClassTypeOptionWithIntegerSelectorField         FieldClassType = FieldClassTypeOptionWithSelectorField | 1<<19
	FieldClassTypeOptionWithUnsignedIntegerSelectorField FieldClassType = FieldClassTypeOptionWithIntegerSelectorField | 1<<20
	FieldClassTypeOptionWithSignedIntegerSelectorField   FieldClassType = FieldClassTypeOptionWithIntegerSelectorField | 1<<21

	// FieldClassTypeVariant is abstract, as are
	// FieldClassTypeVariantWithSelectorField and
	// FieldClassTypeVariantWithIntegerSelectorField.
	FieldClassTypeVariant                                 FieldClassType = 1 << 22
	FieldClassTypeVariantWithoutSelectorField             FieldClassType = FieldClassTypeVariant | 1<<23
	FieldClassTypeVariantWithSelectorField                FieldClassType = FieldClassTypeVariant | 1<<24
	FieldClassTypeVariantWithIntegerSelectorField         FieldClassType = FieldClassTypeVariantWithSelectorField | 1<<25
	FieldClassTypeVariantWithUnsignedIntegerSelectorField FieldClassType = FieldClassTypeVariantWithIntegerSelectorField | 1<<26
	FieldClassTypeVariantWithSignedIntegerSelectorField   FieldClassType = FieldClassTypeVariantWithIntegerSelectorField | 1<<27

	// FieldClassTypeBlob is abstract. BLOB field classes exist under
	// MIP ≥ 1 only.
	FieldClassTypeBlob                       FieldClassType = 1 << 28
	FieldClassTypeStaticBlob                 FieldClassType = FieldClassTypeBlob | 1<<29
	FieldClassTypeDynamicBlob                FieldClassType = FieldClassTypeBlob | 1<<30
	FieldClassTypeDynamicBlobWithLengthField FieldClassType = FieldClassTypeDynamicBlob | 1<<31
)

var fieldClassTypeNames = []struct {
	typ  FieldClassType
	name string
}{
	{FieldClassTypeBool, "bool"},
	{FieldClassTypeBitArray, "bit-array"},
	{FieldClassTypeUnsignedEnumeration, "unsigned-enumeration"},
	{FieldClassTypeSignedEnumeration, "signed-enumeration"},
	{FieldClassTypeUnsignedInteger, "unsigned-integer"},
	{FieldClassTypeSignedInteger, "signed-integer"},
	{FieldClassTypeSinglePrecisionReal, "single-precision-real"},
	{FieldClassTypeDoublePrecisionReal, "double-precision-real"},
	{FieldClassTypeString, "string"},
	{FieldClassTypeStructure, "structure"},
	{FieldClassTypeStaticArray, "static-array"},
	{FieldClassTypeDynamicArrayWithLengthField, "dynamic-array-with-length-field"},
	{FieldClassTypeDynamicArray, "dynamic-array"},
	{FieldClassTypeOptionWithoutSelectorField, "option-without-selector-field"},
	{FieldClassTypeOptionWithBoolSelectorField, "option-with-bool-selector-field"},
	{FieldClassTypeOptionWithUnsignedIntegerSelectorField, "option-with-unsigned-integer-selector-field"},
	{FieldClassTypeOptionWithSignedIntegerSelectorField, "option-with-signed-integer-selector-field"},
	{FieldClassTypeVariantWithoutSelectorField, "variant-without-selector-field"},
	{FieldClassTypeVariantWithUnsignedIntegerSelectorField, "variant-with-unsigned-integer-selector-field"},
	{FieldClassTypeVariantWithSignedIntegerSelectorField, "variant-with-signed-integer-selector-field"},
	{FieldClassTypeStaticBlob, "static-blob"},
	{FieldClassTypeDynamicBlobWithLengthField, "dynamic-blob-with-length-field"},
	{FieldClassTypeDynamicBlob, "dynamic-blob"},
}

// String returns a human-readable name for t. Abstract types render as the
// union of the concrete types they cover.
func (t FieldClassType) String() string {
	var parts []string
	rest := t
	for _, e := range fieldClassTypeNames {
		if rest&e.typ == e.typ {
			parts = append(parts, e.name)
			rest &^= e.typ
		}
	}
	if len(parts) == 0 {
		return "unknown"
	}
	return strings.Join(parts, "|")
}

// Is reports whether t is-a super, that is, whether t contains every bit
// of super.
func (t FieldClassType) Is(super FieldClassType) bool {
	return t&super == super
}

// FieldClass describes the shape of a field.
//
// Field classes form a tree: composites own their child classes. A field
// class is created unfrozen through one of the [TraceClass] creation
// methods and becomes frozen, together with all of its descendants, when
// it is appended to a composite or installed into one of the four trace-IR
// scopes.
type FieldClass interface {
	// Type returns the concrete type of this field class.
	Type() FieldClassType

	// IsA reports whether this field class's type is-a t.
	IsA(t FieldClassType) bool

	// GraphMIPVersion returns the effective MIP version of the trace class
	// this field class was created from.
	GraphMIPVersion() uint64

	// Frozen reports whether this field class has been frozen.
	Frozen() bool

	// UserAttributes returns this field class's user attributes. The
	// returned map must not be modified.
	UserAttributes() Attributes

	// SetUserAttributes replaces this field class's user attributes with a
	// deep copy of attrs. The field class must not be frozen.
	SetUserAttributes(attrs Attributes) error

	base() *fieldClassBase
}

// fieldClassBase is the state shared by every field class.
type fieldClassBase struct {
	userAttrs

	typ    FieldClassType
	mip    uint64
	frozen bool

	// Set once this class is installed, directly or through an ancestor,
	// into one of a trace class's scopes. A class that is part of a trace
	// class may not be installed into another.
	partOfTraceClass bool

	// Child field classes, in a single list so that freezing and
	// trace-class membership propagate without per-kind walks.
	children []FieldClass
}

func (b *fieldClassBase) Type() FieldClassType        { return b.typ }
func (b *fieldClassBase) IsA(t FieldClassType) bool   { return b.typ.Is(t) }
func (b *fieldClassBase) GraphMIPVersion() uint64     { return b.mip }
func (b *fieldClassBase) Frozen() bool                { return b.frozen }
func (b *fieldClassBase) base() *fieldClassBase       { return b }

// SetUserAttributes replaces this field class's user attributes with a
// deep copy of attrs. The field class must not be frozen.
func (b *fieldClassBase) SetUserAttributes(attrs Attributes) error {
	b.checkMutable("set user attributes")
	return b.setUserAttributes(attrs)
}

func (b *fieldClassBase) checkMutable(op string) {
	debug.Assert(!b.frozen, "cannot %s: %s field class is frozen", op, b.typ)
}

// freezeFieldClass freezes fc and all of its descendants.
func freezeFieldClass(fc FieldClass) {
	b := fc.base()
	if b.frozen {
		return
	}
	b.frozen = true
	for _, child := range b.children {
		freezeFieldClass(child)
	}
}

// setPartOfTraceClass flags fc and all of its descendants as belonging to
// a trace class.
func setPartOfTraceClass(fc FieldClass) {
	b := fc.base()
	if b.partOfTraceClass {
		return
	}
	b.partOfTraceClass = true
	for _, child := range b.children {
		setPartOfTraceClass(child)
	}
}

// adoptChild makes child a child class of parent, freezing it.
//
// Returns an error if child already belongs to a trace class.
func adoptChild(parent FieldClass, child FieldClass) error {
	if child.base().partOfTraceClass {
		return &InstallError{
			Op:    "append child field class",
			Class: child,
			Cause: "field class is already part of a trace class",
		}
	}
	parent.base().children = append(parent.base().children, child)
	freezeFieldClass(child)
	return nil
}
