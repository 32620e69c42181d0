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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFieldClassTypeIs(t *testing.T) {
	t.Parallel()

	tc := NewTraceClass(1)
	uenum := tc.NewUnsignedEnumerationFieldClass()
	senum := tc.NewSignedEnumerationFieldClass()
	array, err := tc.NewStaticArrayFieldClass(tc.NewBoolFieldClass(), 4)
	require.NoError(t, err)

	tests := []struct {
		name  string
		typ   FieldClassType
		super FieldClassType
		want  bool
	}{
		{"uint-is-integer", tc.NewUnsignedIntegerFieldClass().Type(), FieldClassTypeInteger, true},
		{"sint-is-integer", tc.NewSignedIntegerFieldClass().Type(), FieldClassTypeInteger, true},
		{"uenum-is-integer", uenum.Type(), FieldClassTypeInteger, true},
		{"uenum-is-enumeration", uenum.Type(), FieldClassTypeEnumeration, true},
		{"uenum-is-uint", uenum.Type(), FieldClassTypeUnsignedInteger, true},
		{"senum-is-sint", senum.Type(), FieldClassTypeSignedInteger, true},
		{"uenum-is-not-sint", uenum.Type(), FieldClassTypeSignedInteger, false},
		{"single-is-real", tc.NewSinglePrecisionRealFieldClass().Type(), FieldClassTypeReal, true},
		{"double-is-real", tc.NewDoublePrecisionRealFieldClass().Type(), FieldClassTypeReal, true},
		{"single-is-not-integer", tc.NewSinglePrecisionRealFieldClass().Type(), FieldClassTypeInteger, false},
		{"static-array-is-array", array.Type(), FieldClassTypeArray, true},
		{"bool-is-not-integer", tc.NewBoolFieldClass().Type(), FieldClassTypeInteger, false},
		{"string-is-not-blob", tc.NewStringFieldClass().Type(), FieldClassTypeBlob, false},
		{"static-blob-is-blob", tc.NewStaticBlobFieldClass(8).Type(), FieldClassTypeBlob, true},
		{"dynamic-blob-is-blob", tc.NewDynamicBlobFieldClass().Type(), FieldClassTypeBlob, true},
		{"struct-is-not-variant", tc.NewStructureFieldClass().Type(), FieldClassTypeVariant, false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, test.want, test.typ.Is(test.super))
		})
	}
}

func TestFieldClassTypeIsSelectorHierarchy(t *testing.T) {
	t.Parallel()

	tc := NewTraceClass(0)
	sel := tc.NewUnsignedIntegerFieldClass()
	variant := tc.NewVariantFieldClassWithUnsignedIntegerSelectorFieldClass(sel)

	require.True(t, variant.IsA(FieldClassTypeVariant))
	require.True(t, variant.IsA(FieldClassTypeVariantWithSelectorField))
	require.True(t, variant.IsA(FieldClassTypeVariantWithIntegerSelectorField))
	require.False(t, variant.IsA(FieldClassTypeVariantWithSignedIntegerSelectorField))
	require.False(t, variant.IsA(FieldClassTypeOption))

	ranges := NewUnsignedRangeSet()
	require.NoError(t, ranges.AddRange(0, 0))
	opt, err := tc.NewOptionFieldClassWithUnsignedIntegerSelectorFieldClass(
		tc.NewStringFieldClass(), sel, ranges)
	require.NoError(t, err)
	require.True(t, opt.IsA(FieldClassTypeOption))
	require.True(t, opt.IsA(FieldClassTypeOptionWithSelectorField))
	require.False(t, opt.IsA(FieldClassTypeVariant))
}

func TestBitArrayFlags(t *testing.T) {
	t.Parallel()

	tc := NewTraceClass(1)
	ba := tc.NewBitArrayFieldClass(16)
	require.EqualValues(t, 16, ba.Length())

	carry := NewUnsignedRangeSet()
	require.NoError(t, carry.AddRange(0, 1))
	require.NoError(t, ba.AddFlag("carry", carry))

	overflow := NewUnsignedRangeSet()
	require.NoError(t, overflow.AddRange(3, 3))
	require.NoError(t, overflow.AddRange(8, 10))
	require.NoError(t, ba.AddFlag("overflow", overflow))

	require.Equal(t, 2, ba.FlagCount())
	require.Equal(t, "carry", ba.Flag(0).Label())
	require.EqualValues(t, 0b11, ba.Flag(0).Mask())
	require.EqualValues(t, 0b111_0000_1000, ba.Flag(1).Mask())
	require.Nil(t, ba.FlagByLabel("zero"))
	require.NotNil(t, ba.FlagByLabel("overflow"))
}

func TestBitArrayFlagBounds(t *testing.T) {
	t.Parallel()

	tc := NewTraceClass(1)
	ba := tc.NewBitArrayFieldClass(8)

	out := NewUnsignedRangeSet()
	require.NoError(t, out.AddRange(6, 8))
	require.Error(t, ba.AddFlag("oops", out))
	require.Equal(t, 0, ba.FlagCount())
}

func TestBitArrayDuplicateFlagLabel(t *testing.T) {
	t.Parallel()

	tc := NewTraceClass(1)
	ba := tc.NewBitArrayFieldClass(8)

	a := NewUnsignedRangeSet()
	require.NoError(t, a.AddRange(0, 0))
	require.NoError(t, ba.AddFlag("x", a))

	b := NewUnsignedRangeSet()
	require.NoError(t, b.AddRange(1, 1))
	err := ba.AddFlag("x", b)
	var dup *DuplicateLabelError
	require.ErrorAs(t, err, &dup)
	require.Equal(t, "x", dup.Label)
}

func TestBitArrayActiveFlagLabels(t *testing.T) {
	t.Parallel()

	tc := NewTraceClass(1)
	ba := tc.NewBitArrayFieldClass(8)

	low := NewUnsignedRangeSet()
	require.NoError(t, low.AddRange(0, 3))
	require.NoError(t, ba.AddFlag("low", low))

	high := NewUnsignedRangeSet()
	require.NoError(t, high.AddRange(4, 7))
	require.NoError(t, ba.AddFlag("high", high))

	require.Equal(t, []string{"low"}, ba.ActiveFlagLabelsForValue(0b0000_0001))
	require.Equal(t, []string{"high"}, ba.ActiveFlagLabelsForValue(0b0001_0000))
	require.Equal(t, []string{"low", "high"}, ba.ActiveFlagLabelsForValue(0b1000_1000))
	require.Empty(t, ba.ActiveFlagLabelsForValue(0))
}

func TestEnumerationMappings(t *testing.T) {
	t.Parallel()

	tc := NewTraceClass(0)
	enum := tc.NewSignedEnumerationFieldClass()

	neg := NewSignedRangeSet()
	require.NoError(t, neg.AddRange(-100, -1))
	require.NoError(t, enum.AddMapping("negative", neg))

	small := NewSignedRangeSet()
	require.NoError(t, small.AddRange(-10, 10))
	require.NoError(t, enum.AddMapping("small", small))

	// Overlapping ranges across mappings are fine; duplicate labels are
	// not.
	dup := NewSignedRangeSet()
	require.NoError(t, dup.AddRange(0, 0))
	require.Error(t, enum.AddMapping("small", dup))

	require.Equal(t, 2, enum.MappingCount())
	require.Equal(t, []string{"negative", "small"}, enum.MappingLabelsForValue(-5))
	require.Equal(t, []string{"negative"}, enum.MappingLabelsForValue(-50))
	require.Equal(t, []string{"small"}, enum.MappingLabelsForValue(10))
	require.Empty(t, enum.MappingLabelsForValue(1000))
	require.NotNil(t, enum.MappingByLabel("negative"))
	require.Nil(t, enum.MappingByLabel("positive"))
}

func TestStructureMembers(t *testing.T) {
	t.Parallel()

	tc := NewTraceClass(0)
	st := tc.NewStructureFieldClass()
	require.NoError(t, st.AppendMember("id", tc.NewUnsignedIntegerFieldClass()))
	require.NoError(t, st.AppendMember("name", tc.NewStringFieldClass()))

	require.Equal(t, 2, st.MemberCount())
	require.Equal(t, "id", st.Member(0).Name())
	require.Equal(t, "name", st.Member(1).Name())
	require.NotNil(t, st.MemberByName("id"))
	require.Nil(t, st.MemberByName("missing"))

	err := st.AppendMember("id", tc.NewBoolFieldClass())
	var dup *DuplicateLabelError
	require.ErrorAs(t, err, &dup)

	// Appending freezes the member's class.
	require.True(t, st.Member(0).FieldClass().Frozen())
	require.False(t, st.Frozen())
}

func TestVariantSelectorRangeOverlap(t *testing.T) {
	t.Parallel()

	tc := NewTraceClass(0)
	sel := tc.NewUnsignedIntegerFieldClass()
	variant := tc.NewVariantFieldClassWithUnsignedIntegerSelectorFieldClass(sel)

	x := NewUnsignedRangeSet()
	require.NoError(t, x.AddRange(1, 3))
	require.NoError(t, variant.AppendOption("x", tc.NewStringFieldClass(), x))

	// [3, 5] overlaps [1, 3]: the append fails and the variant keeps only
	// its first option.
	y := NewUnsignedRangeSet()
	require.NoError(t, y.AddRange(3, 5))
	err := variant.AppendOption("y", tc.NewStringFieldClass(), y)
	var overlap *RangeOverlapError
	require.ErrorAs(t, err, &overlap)
	require.Equal(t, 1, variant.OptionCount())
	require.Nil(t, variant.OptionByName("y"))

	z := NewUnsignedRangeSet()
	require.NoError(t, z.AddRange(4, 5))
	require.NoError(t, variant.AppendOption("z", tc.NewStringFieldClass(), z))
	require.Equal(t, 2, variant.OptionCount())

	require.Equal(t, "x", variant.SelectedOptionForValue(2).Name())
	require.Equal(t, "z", variant.SelectedOptionForValue(5).Name())
	require.Nil(t, variant.SelectedOptionForValue(9))
}

func TestVariantNamelessOptions(t *testing.T) {
	t.Parallel()

	tc := NewTraceClass(1)
	variant := tc.NewVariantFieldClassWithoutSelector()
	require.NoError(t, variant.AppendOption("", tc.NewStringFieldClass()))
	require.NoError(t, variant.AppendOption("named", tc.NewBoolFieldClass()))
	require.NoError(t, variant.AppendOption("", tc.NewStringFieldClass()))

	require.Equal(t, 3, variant.OptionCount())
	require.Equal(t, "", variant.Option(0).Name())
	require.NotNil(t, variant.OptionByName("named"))
	require.Nil(t, variant.OptionByName(""))
}

func TestFieldClassChildAlreadyInTraceClass(t *testing.T) {
	t.Parallel()

	tc := NewTraceClass(0)
	sc := tc.NewStreamClass()
	sc.SetSupportsPackets(true, false, false)

	elem := tc.NewUnsignedIntegerFieldClass()
	root := tc.NewStructureFieldClass()
	require.NoError(t, root.AppendMember("n", elem))
	require.NoError(t, sc.SetPacketContextFieldClass(root))

	// elem now belongs to a trace class; it cannot be adopted again.
	_, err := tc.NewStaticArrayFieldClass(elem, 3)
	var install *InstallError
	require.ErrorAs(t, err, &install)
}

func TestScopeInstallFreezesTransitively(t *testing.T) {
	t.Parallel()

	tc := NewTraceClass(0)
	sc := tc.NewStreamClass()
	ec := sc.NewEventClass()

	inner := tc.NewStructureFieldClass()
	leaf := tc.NewUnsignedIntegerFieldClass()
	require.NoError(t, inner.AppendMember("leaf", leaf))

	arr, err := tc.NewStaticArrayFieldClass(tc.NewStringFieldClass(), 2)
	require.NoError(t, err)

	root := tc.NewStructureFieldClass()
	require.NoError(t, root.AppendMember("inner", inner))
	require.NoError(t, root.AppendMember("arr", arr))

	require.False(t, root.Frozen())
	require.NoError(t, ec.SetPayloadFieldClass(root))

	require.True(t, root.Frozen())
	require.True(t, inner.Frozen())
	require.True(t, leaf.Frozen())
	require.True(t, arr.Frozen())
	require.True(t, arr.ElementFieldClass().Frozen())

	// Installing the same class into another scope must fail.
	sc2 := tc.NewStreamClass()
	err = sc2.SetEventCommonContextFieldClass(root)
	var install *InstallError
	require.ErrorAs(t, err, &install)
}

func TestIntegerFieldClassDefaults(t *testing.T) {
	t.Parallel()

	tc := NewTraceClass(1)
	fc := tc.NewUnsignedIntegerFieldClass()
	require.EqualValues(t, 64, fc.FieldValueRange())
	require.Equal(t, DisplayBaseDecimal, fc.PreferredDisplayBase())

	fc.SetFieldValueRange(12)
	fc.SetPreferredDisplayBase(DisplayBaseHexadecimal)
	fc.SetFieldValueHints(FieldValueHintSmall)
	require.EqualValues(t, 12, fc.FieldValueRange())
	require.Equal(t, DisplayBaseHexadecimal, fc.PreferredDisplayBase())
	require.Equal(t, FieldValueHintSmall, fc.FieldValueHints())
}

func TestBlobFieldClasses(t *testing.T) {
	t.Parallel()

	tc := NewTraceClass(1)

	static := tc.NewStaticBlobFieldClass(128)
	require.EqualValues(t, 128, static.Length())
	require.Equal(t, DefaultBlobMediaType, static.MediaType())
	static.SetMediaType("image/png")
	require.Equal(t, "image/png", static.MediaType())

	dyn := tc.NewDynamicBlobFieldClass()
	require.Nil(t, dyn.LengthFieldLocation())
	require.True(t, dyn.IsA(FieldClassTypeDynamicBlob))
	require.False(t, dyn.IsA(FieldClassTypeDynamicBlobWithLengthField))

	loc := NewFieldLocation(ScopeEventPayload, []string{"len"})
	linked := tc.NewDynamicBlobFieldClassWithLengthFieldLocation(loc)
	require.Same(t, loc, linked.LengthFieldLocation())
	require.True(t, linked.IsA(FieldClassTypeDynamicBlobWithLengthField))
}

func TestUserAttributesCopied(t *testing.T) {
	t.Parallel()

	tc := NewTraceClass(0)
	fc := tc.NewStringFieldClass()

	attrs := Attributes{"owner": "net", "ids": []any{int64(1), int64(2)}}
	require.NoError(t, fc.SetUserAttributes(attrs))

	// Later mutation of the caller's map must not show through.
	attrs["owner"] = "fs"
	require.Equal(t, "net", fc.UserAttributes()["owner"])
}
