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

package tracemux

import (
	"github.com/tracemux/tracemux/msg"
)

// messageTimestamp returns m's timestamp in nanoseconds from the clock
// origin, when it has one.
//
// Inactivity messages always carry a snapshot; event messages carry one
// when they were created with one; packet and discarded-item messages
// carry one when their stream class says so (a discarded-item message is
// stamped by its beginning snapshot); stream messages carry one
// optionally.
func messageTimestamp(m msg.Message) (ns int64, ok bool, err error) {
	var cs *msg.ClockSnapshot
	switch m := m.(type) {
	case *msg.Event:
		cs = m.ClockSnapshot()
	case *msg.MessageIteratorInactivity:
		s := m.ClockSnapshot()
		cs = &s
	case *msg.PacketBeginning:
		if m.Stream().Class().PacketsHaveBeginningClockSnapshot() {
			cs = m.ClockSnapshot()
		}
	case *msg.PacketEnd:
		if m.Stream().Class().PacketsHaveEndClockSnapshot() {
			cs = m.ClockSnapshot()
		}
	case *msg.DiscardedEvents:
		if m.Stream().Class().DiscardedEventsHaveClockSnapshots() {
			cs = m.BeginClockSnapshot()
		}
	case *msg.DiscardedPackets:
		if m.Stream().Class().DiscardedPacketsHaveClockSnapshots() {
			cs = m.BeginClockSnapshot()
		}
	case *msg.StreamBeginning:
		cs = m.ClockSnapshot()
	case *msg.StreamEnd:
		cs = m.ClockSnapshot()
	}
	if cs == nil {
		return 0, false, nil
	}
	ns, err = cs.NsFromOrigin()
	if err != nil {
		return 0, false, err
	}
	return ns, true, nil
}
