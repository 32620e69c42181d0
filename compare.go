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
	"cmp"

	"github.com/tracemux/tracemux/msg"
)

// kindRank orders message kinds along the natural stream lifetime, so
// that simultaneous messages of one instant sort the way a single stream
// would have produced them.
func kindRank(k msg.Kind) int {
	switch k {
	case msg.KindStreamBeginning:
		return 0
	case msg.KindPacketBeginning:
		return 1
	case msg.KindDiscardedEvents:
		return 2
	case msg.KindDiscardedPackets:
		return 3
	case msg.KindEvent:
		return 4
	case msg.KindPacketEnd:
		return 5
	case msg.KindStreamEnd:
		return 6
	default: // msg.KindMessageIteratorInactivity
		return 7
	}
}

// compareMessages is the deterministic fallback ordering used when
// timestamps cannot decide: a fixed, value-based total order over message
// kind, stream identity, event class and snapshot value.
//
// It returns a negative value when a is considered older than b. Zero
// means the comparison is inconclusive; the caller must break the tie
// with something iterator-specific (the muxer uses the upstream port
// order).
func compareMessages(a, b msg.Message) int {
	if c := cmp.Compare(kindRank(a.Kind()), kindRank(b.Kind())); c != 0 {
		return c
	}

	sa, sb := a.Stream(), b.Stream()
	if sa != nil && sb != nil {
		if c := cmp.Compare(sa.Class().ID(), sb.Class().ID()); c != 0 {
			return c
		}
		if c := cmp.Compare(sa.ID(), sb.ID()); c != 0 {
			return c
		}
	}

	if ea, ok := a.(*msg.Event); ok {
		eb := b.(*msg.Event)
		if c := cmp.Compare(ea.Event().Class().ID(), eb.Event().Class().ID()); c != 0 {
			return c
		}
	}

	ca, oka := messageSnapshotValue(a)
	cb, okb := messageSnapshotValue(b)
	switch {
	case oka && okb:
		return cmp.Compare(ca, cb)
	case oka:
		return 1
	case okb:
		return -1
	default:
		return 0
	}
}

// messageSnapshotValue returns the raw cycle value of m's clock snapshot,
// when it has one.
func messageSnapshotValue(m msg.Message) (uint64, bool) {
	type snapshotted interface {
		ClockSnapshot() *msg.ClockSnapshot
	}
	switch m := m.(type) {
	case *msg.MessageIteratorInactivity:
		return m.ClockSnapshot().Value(), true
	case snapshotted:
		if cs := m.ClockSnapshot(); cs != nil {
			return cs.Value(), true
		}
	}
	return 0, false
}
