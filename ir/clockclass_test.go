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
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestClockClassDefaults(t *testing.T) {
	t.Parallel()

	cc := NewClockClass(0)
	require.EqualValues(t, 1_000_000_000, cc.Frequency())
	seconds, cycles := cc.Offset()
	require.Zero(t, seconds)
	require.Zero(t, cycles)
	require.True(t, cc.Origin().IsUnixEpoch())
	_, ok := cc.Precision()
	require.False(t, ok)
}

func TestCyclesToNsFromOrigin(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		frequency     uint64
		offsetSeconds int64
		offsetCycles  uint64
		value         uint64
		want          int64
	}{
		{"gigahertz-identity", 1_000_000_000, 0, 0, 12345, 12345},
		{"kilohertz", 1000, 0, 0, 2, 2_000_000},
		{"negative-offset", 1000, -10, 500, 2000, -7_500_000_000},
		{"offset-cycles-only", 1_000_000_000, 0, 999, 1, 1000},
		{"positive-offset-seconds", 1000, 3, 0, 0, 3_000_000_000},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			cc := NewClockClass(0)
			cc.SetFrequency(test.frequency)
			cc.SetOffset(test.offsetSeconds, test.offsetCycles)
			ns, err := cc.CyclesToNsFromOrigin(test.value)
			require.NoError(t, err)
			require.Equal(t, test.want, ns)
		})
	}
}

func TestCyclesToNsFromOriginOverflow(t *testing.T) {
	t.Parallel()

	cc := NewClockClass(0)
	_, err := cc.CyclesToNsFromOrigin(math.MaxUint64)
	require.ErrorIs(t, err, ErrOverflow)

	cc2 := NewClockClass(0)
	cc2.SetOffset(math.MaxInt64/1_000_000_000+1, 0)
	_, err = cc2.CyclesToNsFromOrigin(0)
	require.ErrorIs(t, err, ErrOverflow)
}

func TestCyclesToNsFromOriginOrdering(t *testing.T) {
	t.Parallel()

	// Distinct cycle values convert to distinct, identically ordered
	// nanosecond values when the frequency does not fold them together.
	cc := NewClockClass(0)
	cc.SetFrequency(1_000_000_000)
	cc.SetOffset(-3, 7)

	var last int64
	for i, v := range []uint64{0, 1, 500, 10_000, 1 << 40} {
		ns, err := cc.CyclesToNsFromOrigin(v)
		require.NoError(t, err)
		if i > 0 {
			require.Greater(t, ns, last)
		}
		last = ns
	}
}

func TestCyclesFromNsFromOriginRoundTrip(t *testing.T) {
	t.Parallel()

	cc := NewClockClass(0)
	cc.SetFrequency(1000)
	cc.SetOffset(-10, 500)

	ns, err := cc.CyclesToNsFromOrigin(2000)
	require.NoError(t, err)
	value, err := cc.CyclesFromNsFromOrigin(ns)
	require.NoError(t, err)
	require.EqualValues(t, 2000, value)

	// Before the zero-cycle instant: not representable.
	_, err = cc.CyclesFromNsFromOrigin(math.MinInt64 / 2)
	require.ErrorIs(t, err, ErrOverflow)
}

func TestClockClassIdentityMIP1(t *testing.T) {
	t.Parallel()

	newCC := func(ns, name, uid string) *ClockClass {
		cc := NewClockClass(1)
		cc.SetNamespace(ns)
		cc.SetName(name)
		cc.SetUID(uid)
		return cc
	}

	a := newCC("lttng.org", "monotonic", "abc")
	b := newCC("lttng.org", "monotonic", "abc")
	require.True(t, a.SameIdentity(b))
	require.True(t, a.HasIdentity())

	require.False(t, a.SameIdentity(newCC("lttng.org", "monotonic", "def")))
	require.False(t, a.SameIdentity(newCC("other.org", "monotonic", "abc")))

	// Identity requires a non-empty name and UID on both sides.
	empty := NewClockClass(1)
	require.False(t, empty.HasIdentity())
	require.False(t, a.SameIdentity(empty))
}

func TestClockClassIdentityMIP0(t *testing.T) {
	t.Parallel()

	id := uuid.MustParse("2a75c8b8-0f0f-4b18-ac53-41ff64dd5f1c")

	a := NewClockClass(0)
	require.False(t, a.HasIdentity())
	a.SetUUID(id)
	require.True(t, a.HasIdentity())

	b := NewClockClass(0)
	b.SetUUID(id)
	require.True(t, a.SameIdentity(b))

	c := NewClockClass(0)
	c.SetUUID(uuid.MustParse("87c9db42-4a44-4ca4-a0a3-771212b4cbce"))
	require.False(t, a.SameIdentity(c))
}

func TestClockClassOrigins(t *testing.T) {
	t.Parallel()

	require.True(t, ClockOriginUnixEpoch.IsKnown())
	require.True(t, ClockOriginUnixEpoch.IsUnixEpoch())
	require.False(t, ClockOriginUnknown.IsKnown())

	custom := NewCustomClockOrigin("acme.com", "boot", "u-1")
	require.True(t, custom.IsKnown())
	require.False(t, custom.IsUnixEpoch())
	require.True(t, custom.Equal(NewCustomClockOrigin("acme.com", "boot", "u-1")))
	require.False(t, custom.Equal(NewCustomClockOrigin("acme.com", "boot", "u-2")))
	require.False(t, custom.Equal(ClockOriginUnixEpoch))

	cc := NewClockClass(1)
	cc.SetOrigin(custom)
	require.Equal(t, custom, cc.Origin())
}
