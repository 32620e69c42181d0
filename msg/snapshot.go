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

package msg

import (
	"fmt"

	"github.com/tracemux/tracemux/ir"
)

// ClockSnapshot is a single recorded value of a stream clock: a clock
// class and a value in cycles.
//
// A snapshot is not a shared object; it belongs to the message carrying
// it.
type ClockSnapshot struct {
	clockClass *ir.ClockClass
	value      uint64
}

// NewClockSnapshot returns the snapshot of a clock of class cc at value
// cycles.
func NewClockSnapshot(cc *ir.ClockClass, value uint64) ClockSnapshot {
	return ClockSnapshot{clockClass: cc, value: value}
}

// ClockClass returns the class of the clock this snapshot was taken from.
func (cs ClockSnapshot) ClockClass() *ir.ClockClass { return cs.clockClass }

// Value returns the snapshot's value in cycles.
func (cs ClockSnapshot) Value() uint64 { return cs.value }

// NsFromOrigin returns the snapshot's value as nanoseconds from the
// clock's origin.
func (cs ClockSnapshot) NsFromOrigin() (int64, error) {
	return cs.clockClass.CyclesToNsFromOrigin(cs.value)
}

// String implements [fmt.Stringer].
func (cs ClockSnapshot) String() string {
	return fmt.Sprintf("%d cycles", cs.value)
}
