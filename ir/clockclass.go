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

	"github.com/google/uuid"

	"github.com/tracemux/tracemux/internal/arith128"
	"github.com/tracemux/tracemux/internal/debug"
)

const nsPerSecond = 1_000_000_000

// ClockOrigin is the origin of a clock class: the instant its streams'
// clocks count from.
type ClockOrigin struct {
	known     bool
	unixEpoch bool

	// Custom origin identity (MIP ≥ 1).
	namespace, name, uid string
}

// ClockOriginUnknown is the origin of clock classes whose streams' clocks
// count from an undefined instant.
var ClockOriginUnknown = ClockOrigin{}

// ClockOriginUnixEpoch is the origin of clock classes whose streams'
// clocks count from the Unix epoch.
var ClockOriginUnixEpoch = ClockOrigin{known: true, unixEpoch: true}

// NewCustomClockOrigin returns a custom, known clock origin identified by
// (namespace, name, uid). MIP ≥ 1 only.
func NewCustomClockOrigin(namespace, name, uid string) ClockOrigin {
	return ClockOrigin{known: true, namespace: namespace, name: name, uid: uid}
}

// IsKnown reports whether this origin is a defined instant.
func (o ClockOrigin) IsKnown() bool { return o.known }

// IsUnixEpoch reports whether this origin is the Unix epoch.
func (o ClockOrigin) IsUnixEpoch() bool { return o.unixEpoch }

// Namespace returns the namespace of a custom origin.
func (o ClockOrigin) Namespace() string { return o.namespace }

// Name returns the name of a custom origin.
func (o ClockOrigin) Name() string { return o.name }

// UID returns the UID of a custom origin.
func (o ClockOrigin) UID() string { return o.uid }

// Equal reports whether o and other are the same origin.
func (o ClockOrigin) Equal(other ClockOrigin) bool { return o == other }

// String implements [fmt.Stringer].
func (o ClockOrigin) String() string {
	switch {
	case o.unixEpoch:
		return "unix-epoch"
	case !o.known:
		return "unknown"
	default:
		return fmt.Sprintf("custom(namespace=%q, name=%q, uid=%q)", o.namespace, o.name, o.uid)
	}
}

// ClockClass describes the class of the per-stream clocks whose snapshots
// stamp messages: frequency, offset from origin, origin, and identity.
type ClockClass struct {
	userAttrs

	mip uint64

	frequency     uint64
	offsetSeconds int64
	offsetCycles  uint64
	precision     *uint64
	accuracy      *uint64
	origin        ClockOrigin
	description   string

	// Identity: name and UUID under MIP 0; namespace, name and UID under
	// MIP ≥ 1.
	name      string
	uuid      *uuid.UUID
	namespace string
	uid       string

	frozen bool
}

// NewClockClass creates a clock class for a graph with the given MIP
// version.
//
// The new class has a frequency of 1 GHz, a zero offset, and a Unix epoch
// origin.
func NewClockClass(mipVersion uint64) *ClockClass {
	debug.Assert(mipVersion <= 1, "unsupported MIP version %d", mipVersion)
	return &ClockClass{
		mip:       mipVersion,
		frequency: nsPerSecond,
		origin:    ClockOriginUnixEpoch,
	}
}

// GraphMIPVersion returns the effective MIP version of this clock class's
// graph.
func (cc *ClockClass) GraphMIPVersion() uint64 { return cc.mip }

// Frequency returns the clock's frequency in Hz.
func (cc *ClockClass) Frequency() uint64 { return cc.frequency }

// SetFrequency sets the clock's frequency in Hz. frequency must not be
// zero and must be greater than the cycles part of the offset.
func (cc *ClockClass) SetFrequency(frequency uint64) {
	cc.checkMutable("set frequency")
	debug.Assert(frequency != 0, "zero clock class frequency")
	debug.Assert(frequency > cc.offsetCycles,
		"frequency %d is not greater than the offset cycles %d", frequency, cc.offsetCycles)
	cc.frequency = frequency
}

// Offset returns the clock's offset from its origin, as whole seconds and
// a cycle remainder.
func (cc *ClockClass) Offset() (seconds int64, cycles uint64) {
	return cc.offsetSeconds, cc.offsetCycles
}

// SetOffset sets the clock's offset from its origin. cycles must be less
// than the frequency.
func (cc *ClockClass) SetOffset(seconds int64, cycles uint64) {
	cc.checkMutable("set offset")
	debug.Assert(cycles < cc.frequency,
		"offset cycles %d is not less than the frequency %d", cycles, cc.frequency)
	cc.offsetSeconds = seconds
	cc.offsetCycles = cycles
}

// Precision returns the clock's precision in cycles, or false if unset.
func (cc *ClockClass) Precision() (uint64, bool) {
	if cc.precision == nil {
		return 0, false
	}
	return *cc.precision, true
}

// SetPrecision sets the clock's precision in cycles.
func (cc *ClockClass) SetPrecision(precision uint64) {
	cc.checkMutable("set precision")
	cc.precision = &precision
}

// Accuracy returns the clock's accuracy in cycles, or false if unset.
// MIP ≥ 1 only.
func (cc *ClockClass) Accuracy() (uint64, bool) {
	if cc.accuracy == nil {
		return 0, false
	}
	return *cc.accuracy, true
}

// SetAccuracy sets the clock's accuracy in cycles. MIP ≥ 1 only.
func (cc *ClockClass) SetAccuracy(accuracy uint64) {
	cc.checkMutable("set accuracy")
	debug.Assert(cc.mip >= 1, "clock class accuracy requires MIP >= 1")
	cc.accuracy = &accuracy
}

// Origin returns the clock's origin.
func (cc *ClockClass) Origin() ClockOrigin { return cc.origin }

// SetOrigin sets the clock's origin. Custom origins require MIP ≥ 1.
func (cc *ClockClass) SetOrigin(origin ClockOrigin) {
	cc.checkMutable("set origin")
	debug.Assert(cc.mip >= 1 || !origin.known || origin.unixEpoch,
		"custom clock origins require MIP >= 1")
	cc.origin = origin
}

// Name returns the clock class's name, or the empty string.
func (cc *ClockClass) Name() string { return cc.name }

// SetName sets the clock class's name.
func (cc *ClockClass) SetName(name string) {
	cc.checkMutable("set name")
	cc.name = name
}

// Description returns the clock class's description, or the empty string.
func (cc *ClockClass) Description() string { return cc.description }

// SetDescription sets the clock class's description.
func (cc *ClockClass) SetDescription(description string) {
	cc.checkMutable("set description")
	cc.description = description
}

// UUID returns the clock class's UUID, or nil. MIP 0 only.
func (cc *ClockClass) UUID() *uuid.UUID { return cc.uuid }

// SetUUID sets the clock class's UUID. MIP 0 only.
func (cc *ClockClass) SetUUID(id uuid.UUID) {
	cc.checkMutable("set UUID")
	debug.Assert(cc.mip == 0, "clock class UUIDs require MIP 0")
	cc.uuid = &id
}

// Namespace returns the clock class's namespace, or the empty string.
// MIP ≥ 1 only.
func (cc *ClockClass) Namespace() string { return cc.namespace }

// SetNamespace sets the clock class's namespace. MIP ≥ 1 only.
func (cc *ClockClass) SetNamespace(namespace string) {
	cc.checkMutable("set namespace")
	debug.Assert(cc.mip >= 1, "clock class namespaces require MIP >= 1")
	cc.namespace = namespace
}

// UID returns the clock class's UID, or the empty string. MIP ≥ 1 only.
func (cc *ClockClass) UID() string { return cc.uid }

// SetUID sets the clock class's UID. MIP ≥ 1 only.
func (cc *ClockClass) SetUID(uid string) {
	cc.checkMutable("set UID")
	debug.Assert(cc.mip >= 1, "clock class UIDs require MIP >= 1")
	cc.uid = uid
}

// SetUserAttributes replaces this clock class's user attributes with a
// deep copy of attrs.
func (cc *ClockClass) SetUserAttributes(attrs Attributes) error {
	cc.checkMutable("set user attributes")
	return cc.setUserAttributes(attrs)
}

// HasIdentity reports whether this clock class carries a complete
// identity: a UUID under MIP 0, a name and UID under MIP ≥ 1.
func (cc *ClockClass) HasIdentity() bool {
	if cc.mip == 0 {
		return cc.uuid != nil
	}
	return cc.name != "" && cc.uid != ""
}

// SameIdentity reports whether cc and other share the same identity.
//
// Under MIP ≥ 1 two clock classes share identity iff both have a
// non-empty name and UID and their (namespace, name, UID) triples are
// equal. Under MIP 0 both must have a UUID and the UUIDs must be equal.
func (cc *ClockClass) SameIdentity(other *ClockClass) bool {
	if cc.mip == 0 {
		return cc.uuid != nil && other.uuid != nil && *cc.uuid == *other.uuid
	}
	if !cc.HasIdentity() || !other.HasIdentity() {
		return false
	}
	return cc.namespace == other.namespace && cc.name == other.name && cc.uid == other.uid
}

// CyclesToNsFromOrigin converts a value of a clock of this class to
// nanoseconds from the clock's origin:
//
//	ns = offsetSeconds*1e9 + (offsetCycles+value)*1e9/frequency
//
// The intermediate math is 128 bits wide; [ErrOverflow] is returned when
// the result does not fit in an int64.
func (cc *ClockClass) CyclesToNsFromOrigin(value uint64) (int64, error) {
	valNs, err := cc.cyclesToNs(value)
	if err != nil {
		return 0, err
	}
	offsetNs, ok := arith128.MulI64(cc.offsetSeconds, nsPerSecond)
	if !ok {
		return 0, cc.overflowError(value)
	}
	ns, ok := arith128.AddI64(offsetNs, valNs)
	if !ok {
		return 0, cc.overflowError(value)
	}
	return ns, nil
}

func (cc *ClockClass) cyclesToNs(value uint64) (int64, error) {
	sum := cc.offsetCycles + value
	if sum < value {
		return 0, cc.overflowError(value)
	}
	q, ok := arith128.MulDiv64(sum, nsPerSecond, cc.frequency)
	if !ok {
		return 0, cc.overflowError(value)
	}
	ns, ok := arith128.U64ToI64(q)
	if !ok {
		return 0, cc.overflowError(value)
	}
	return ns, nil
}

func (cc *ClockClass) overflowError(value uint64) error {
	return fmt.Errorf("tracemux/ir: cannot convert %d cycles to nanoseconds from origin (frequency=%d, offset-seconds=%d, offset-cycles=%d): %w",
		value, cc.frequency, cc.offsetSeconds, cc.offsetCycles, ErrOverflow)
}

// CyclesFromNsFromOrigin converts nanoseconds from this clock class's
// origin back to a clock value in cycles.
//
// The conversion fails with [ErrOverflow] when ns lies before the instant
// a zero-valued clock of this class represents, or when the result does
// not fit in a uint64.
func (cc *ClockClass) CyclesFromNsFromOrigin(ns int64) (uint64, error) {
	offsetNs, ok := arith128.MulI64(cc.offsetSeconds, nsPerSecond)
	if !ok {
		return 0, ErrOverflow
	}
	rel, ok := arith128.SubI64(ns, offsetNs)
	if !ok {
		return 0, ErrOverflow
	}
	if rel < 0 {
		return 0, ErrOverflow
	}
	cycles, ok := arith128.MulDiv64(uint64(rel), cc.frequency, nsPerSecond)
	if !ok {
		return 0, ErrOverflow
	}
	if cycles < cc.offsetCycles {
		return 0, ErrOverflow
	}
	return cycles - cc.offsetCycles, nil
}

// Frozen reports whether this clock class has been frozen.
func (cc *ClockClass) Frozen() bool { return cc.frozen }

// Freeze freezes this clock class. Creating a message referencing the
// clock class freezes it.
func (cc *ClockClass) Freeze() { cc.frozen = true }

func (cc *ClockClass) checkMutable(op string) {
	debug.Assert(!cc.frozen, "cannot %s: clock class is frozen", op)
}
