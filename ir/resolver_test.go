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

func TestResolveLengthFieldPathSameScope(t *testing.T) {
	t.Parallel()

	tc := NewTraceClass(0)
	sc := tc.NewStreamClass()
	ec := sc.NewEventClass()

	length := tc.NewUnsignedIntegerFieldClass()
	arr, err := tc.NewDynamicArrayFieldClassWithLengthFieldClass(tc.NewStringFieldClass(), length)
	require.NoError(t, err)
	require.Nil(t, arr.LengthFieldPath())

	payload := tc.NewStructureFieldClass()
	require.NoError(t, payload.AppendMember("count", length))
	require.NoError(t, payload.AppendMember("names", arr))
	require.NoError(t, ec.SetPayloadFieldClass(payload))

	path := arr.LengthFieldPath()
	require.NotNil(t, path)
	require.Equal(t, ScopeEventPayload, path.RootScope())
	require.Equal(t, []uint64{0}, path.Indexes())
	require.Equal(t, "event-payload: [0]", path.String())
}

func TestResolveSelectorFieldPathAcrossScopes(t *testing.T) {
	t.Parallel()

	tc := NewTraceClass(0)
	sc := tc.NewStreamClass()

	sel := tc.NewBoolFieldClass()
	common := tc.NewStructureFieldClass()
	inner := tc.NewStructureFieldClass()
	require.NoError(t, inner.AppendMember("has_extra", sel))
	require.NoError(t, common.AppendMember("flags", inner))
	require.NoError(t, sc.SetEventCommonContextFieldClass(common))

	ec := sc.NewEventClass()
	opt, err := tc.NewOptionFieldClassWithBoolSelectorFieldClass(tc.NewStringFieldClass(), sel)
	require.NoError(t, err)

	payload := tc.NewStructureFieldClass()
	require.NoError(t, payload.AppendMember("extra", opt))
	require.NoError(t, ec.SetPayloadFieldClass(payload))

	path := opt.SelectorFieldPath()
	require.NotNil(t, path)
	require.Equal(t, ScopeEventCommonContext, path.RootScope())
	require.Equal(t, []uint64{0, 0}, path.Indexes())
}

func TestResolveLinkedFieldMustPrecede(t *testing.T) {
	t.Parallel()

	tc := NewTraceClass(0)
	sc := tc.NewStreamClass()
	ec := sc.NewEventClass()

	length := tc.NewUnsignedIntegerFieldClass()
	arr, err := tc.NewDynamicArrayFieldClassWithLengthFieldClass(tc.NewStringFieldClass(), length)
	require.NoError(t, err)

	// The length field comes after the array: invalid.
	payload := tc.NewStructureFieldClass()
	require.NoError(t, payload.AppendMember("names", arr))
	require.NoError(t, payload.AppendMember("count", length))

	var resolve *ResolveError
	require.ErrorAs(t, ec.SetPayloadFieldClass(payload), &resolve)
	require.Nil(t, ec.PayloadFieldClass())
}

func TestResolveLinkedFieldMissing(t *testing.T) {
	t.Parallel()

	tc := NewTraceClass(0)
	sc := tc.NewStreamClass()
	ec := sc.NewEventClass()

	length := tc.NewUnsignedIntegerFieldClass()
	arr, err := tc.NewDynamicArrayFieldClassWithLengthFieldClass(tc.NewStringFieldClass(), length)
	require.NoError(t, err)

	payload := tc.NewStructureFieldClass()
	require.NoError(t, payload.AppendMember("names", arr))

	var resolve *ResolveError
	require.ErrorAs(t, ec.SetPayloadFieldClass(payload), &resolve)
}

func TestResolveLaterScopeNotVisible(t *testing.T) {
	t.Parallel()

	tc := NewTraceClass(0)
	sc := tc.NewStreamClass()
	sc.SetSupportsPackets(true, false, false)

	// The selector lives in the event payload, which a packet-context
	// field cannot see.
	sel := tc.NewUnsignedIntegerFieldClass()
	ranges := NewUnsignedRangeSet()
	require.NoError(t, ranges.AddRange(1, 1))
	opt, err := tc.NewOptionFieldClassWithUnsignedIntegerSelectorFieldClass(
		tc.NewStringFieldClass(), sel, ranges)
	require.NoError(t, err)

	ec := sc.NewEventClass()
	payload := tc.NewStructureFieldClass()
	require.NoError(t, payload.AppendMember("sel", sel))
	require.NoError(t, ec.SetPayloadFieldClass(payload))

	pktCtx := tc.NewStructureFieldClass()
	require.NoError(t, pktCtx.AppendMember("maybe", opt))

	var resolve *ResolveError
	require.ErrorAs(t, sc.SetPacketContextFieldClass(pktCtx), &resolve)
}

func TestValidateFieldLocation(t *testing.T) {
	t.Parallel()

	tc := NewTraceClass(1)
	sc := tc.NewStreamClass()
	ec := sc.NewEventClass()

	loc := NewFieldLocation(ScopeEventPayload, []string{"count"})
	arr, err := tc.NewDynamicArrayFieldClassWithLengthFieldLocation(tc.NewStringFieldClass(), loc)
	require.NoError(t, err)

	payload := tc.NewStructureFieldClass()
	require.NoError(t, payload.AppendMember("count", tc.NewUnsignedIntegerFieldClass()))
	require.NoError(t, payload.AppendMember("names", arr))
	require.NoError(t, ec.SetPayloadFieldClass(payload))
	require.Same(t, loc, arr.LengthFieldLocation())
}

func TestValidateFieldLocationThroughVariant(t *testing.T) {
	t.Parallel()

	tc := NewTraceClass(1)
	sc := tc.NewStreamClass()
	ec := sc.NewEventClass()

	// The length field sits inside every option of a variant; the
	// location traverses the variant transparently.
	variant := tc.NewVariantFieldClassWithoutSelector()
	optA := tc.NewStructureFieldClass()
	require.NoError(t, optA.AppendMember("len", tc.NewUnsignedIntegerFieldClass()))
	require.NoError(t, variant.AppendOption("a", optA))
	optB := tc.NewStructureFieldClass()
	require.NoError(t, optB.AppendMember("len", tc.NewUnsignedIntegerFieldClass()))
	require.NoError(t, variant.AppendOption("b", optB))

	loc := NewFieldLocation(ScopeEventPayload, []string{"header", "len"})
	arr, err := tc.NewDynamicArrayFieldClassWithLengthFieldLocation(tc.NewBoolFieldClass(), loc)
	require.NoError(t, err)

	payload := tc.NewStructureFieldClass()
	require.NoError(t, payload.AppendMember("header", variant))
	require.NoError(t, payload.AppendMember("data", arr))
	require.NoError(t, ec.SetPayloadFieldClass(payload))
}

func TestValidateFieldLocationWrongKind(t *testing.T) {
	t.Parallel()

	tc := NewTraceClass(1)
	sc := tc.NewStreamClass()
	ec := sc.NewEventClass()

	// A dynamic array length must designate an unsigned integer field,
	// not a string field.
	loc := NewFieldLocation(ScopeEventPayload, []string{"name"})
	arr, err := tc.NewDynamicArrayFieldClassWithLengthFieldLocation(tc.NewBoolFieldClass(), loc)
	require.NoError(t, err)

	payload := tc.NewStructureFieldClass()
	require.NoError(t, payload.AppendMember("name", tc.NewStringFieldClass()))
	require.NoError(t, payload.AppendMember("data", arr))

	var resolve *ResolveError
	require.ErrorAs(t, ec.SetPayloadFieldClass(payload), &resolve)
}

func TestValidateFieldLocationNoField(t *testing.T) {
	t.Parallel()

	tc := NewTraceClass(1)
	sc := tc.NewStreamClass()
	ec := sc.NewEventClass()

	loc := NewFieldLocation(ScopeEventPayload, []string{"nope"})
	arr, err := tc.NewDynamicArrayFieldClassWithLengthFieldLocation(tc.NewBoolFieldClass(), loc)
	require.NoError(t, err)

	payload := tc.NewStructureFieldClass()
	require.NoError(t, payload.AppendMember("data", arr))

	var resolve *ResolveError
	require.ErrorAs(t, ec.SetPayloadFieldClass(payload), &resolve)
}
