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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tracemux/tracemux/msg"
)

func TestCompareMessagesKindRank(t *testing.T) {
	t.Parallel()

	e := newStreamEnv(t)
	begin := e.streamBegin(5)
	event := e.event(5)
	end := e.streamEnd(5)

	// Along one instant, messages order the way a single stream would
	// have produced them.
	require.Negative(t, compareMessages(begin, event))
	require.Negative(t, compareMessages(event, end))
	require.Negative(t, compareMessages(begin, end))
	require.Positive(t, compareMessages(end, begin))
}

func TestCompareMessagesStreamIdentity(t *testing.T) {
	t.Parallel()

	tc := ir0WithTwoStreams(t)
	s0, s1 := tc[0], tc[1]

	require.Negative(t, compareMessages(s0.streamBegin(5), s1.streamBegin(5)))
	require.Positive(t, compareMessages(s1.streamBegin(5), s0.streamBegin(5)))
}

// ir0WithTwoStreams builds two streams of the same class so their stream
// ids differ.
func ir0WithTwoStreams(t *testing.T) [2]*testStreamEnv {
	t.Helper()
	e0 := newStreamEnv(t)
	e1 := &testStreamEnv{
		traceClass:  e0.traceClass,
		streamClass: e0.streamClass,
		eventClass:  e0.eventClass,
		clockClass:  e0.clockClass,
		stream:      e0.stream.Trace().NewStream(e0.streamClass),
	}
	return [2]*testStreamEnv{e0, e1}
}

func TestCompareMessagesSnapshotValue(t *testing.T) {
	t.Parallel()

	// Same kind, same stream: the raw snapshot value decides.
	e := newStreamEnv(t)
	require.Negative(t, compareMessages(e.event(3), e.event(9)))
	require.Zero(t, compareMessages(e.event(3), e.event(3)))
}

func TestCompareMessagesIsAntisymmetric(t *testing.T) {
	t.Parallel()

	e := newStreamEnv(t)
	msgs := []msg.Message{
		e.streamBegin(1),
		e.event(2),
		e.event(3),
		e.streamEnd(4),
		msg.NewMessageIteratorInactivity(e.clockClass, 5),
	}
	for _, a := range msgs {
		for _, b := range msgs {
			require.Equal(t, compareMessages(a, b), -compareMessages(b, a))
		}
	}
}
