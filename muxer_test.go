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

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/tracemux/tracemux/ir"
	"github.com/tracemux/tracemux/msg"
)

// muxOver wraps sources into message iterators, builds a muxer over
// them, and wraps the muxer itself into a message iterator.
func muxOver(t *testing.T, opts MuxerOptions, sources ...SourceIterator) *MessageIterator {
	t.Helper()
	var upstreams []*MessageIterator
	for i, src := range sources {
		it, err := NewMessageIterator(src, IteratorOptions{
			PortName:        string(rune('a' + i)),
			GraphMIPVersion: opts.GraphMIPVersion,
			Interrupter:     opts.Interrupter,
		})
		require.NoError(t, err)
		upstreams = append(upstreams, it)
	}
	out, err := NewMessageIterator(NewMuxer(upstreams, opts), IteratorOptions{
		PortName:        "muxed",
		GraphMIPVersion: opts.GraphMIPVersion,
		Interrupter:     opts.Interrupter,
	})
	require.NoError(t, err)
	return out
}

// streamsOf maps each merged message to the stream env which produced it.
func streamsOf(envs []*testStreamEnv, msgs []msg.Message) []int {
	out := make([]int, len(msgs))
	for i, m := range msgs {
		out[i] = -1
		for j, e := range envs {
			if m.Stream() == e.stream {
				out[i] = j
			}
		}
	}
	return out
}

func TestMuxerMergesTwoSimultaneousStreams(t *testing.T) {
	t.Parallel()

	a := newStreamEnv(t)
	b := newStreamEnv(t)
	srcA := &fakeSource{steps: []fakeStep{
		{msgs: []msg.Message{a.streamBegin(5), a.event(5), a.streamEnd(5)}},
	}}
	srcB := &fakeSource{steps: []fakeStep{
		{msgs: []msg.Message{b.streamBegin(5), b.event(5), b.streamEnd(5)}},
	}}

	it := muxOver(t, MuxerOptions{}, srcA, srcB)
	got, err := pull(t, it, 16)
	require.ErrorIs(t, err, ErrEnd)

	require.Len(t, got, 6)
	require.Equal(t, []msg.Kind{
		msg.KindStreamBeginning, msg.KindStreamBeginning,
		msg.KindEvent, msg.KindEvent,
		msg.KindStreamEnd, msg.KindStreamEnd,
	}, kindsOf(got))
	// The comparator is a total order: ties break on port order, so the
	// first-port stream always leads.
	require.Equal(t, []int{0, 1, 0, 1, 0, 1}, streamsOf([]*testStreamEnv{a, b}, got))
}

func TestMuxerOrdersByTimestamp(t *testing.T) {
	t.Parallel()

	a := newStreamEnv(t)
	b := newStreamEnv(t)
	srcA := &fakeSource{steps: []fakeStep{
		{msgs: []msg.Message{a.streamBegin(10), a.event(40), a.streamEnd(60)}},
	}}
	srcB := &fakeSource{steps: []fakeStep{
		{msgs: []msg.Message{b.streamBegin(20), b.event(30), b.streamEnd(50)}},
	}}

	it := muxOver(t, MuxerOptions{}, srcA, srcB)
	got, err := pull(t, it, 16)
	require.ErrorIs(t, err, ErrEnd)

	var lastNs int64
	for i, m := range got {
		ns, ok, err := messageTimestamp(m)
		require.NoError(t, err)
		require.True(t, ok)
		if i > 0 {
			require.GreaterOrEqual(t, ns, lastNs)
		}
		lastNs = ns
	}
	require.Equal(t, []int{0, 1, 1, 0, 1, 0}, streamsOf([]*testStreamEnv{a, b}, got))
}

func TestMuxerDeterminism(t *testing.T) {
	t.Parallel()

	run := func() []msg.Kind {
		a := newStreamEnv(t)
		b := newStreamEnv(t)
		c := newStreamEnv(t)
		it := muxOver(t, MuxerOptions{},
			&fakeSource{steps: []fakeStep{{msgs: []msg.Message{a.streamBegin(5), a.event(7), a.streamEnd(9)}}}},
			&fakeSource{steps: []fakeStep{{msgs: []msg.Message{b.streamBegin(5), b.event(7), b.streamEnd(9)}}}},
			&fakeSource{steps: []fakeStep{{msgs: []msg.Message{c.streamBegin(5), c.event(7), c.streamEnd(9)}}}},
		)
		got, err := pull(t, it, 4)
		require.ErrorIs(t, err, ErrEnd)
		return kindsOf(got)
	}

	first := run()
	for range 5 {
		require.Equal(t, first, run())
	}
}

func TestMuxerInactivityOrdersBeforeLaterMessages(t *testing.T) {
	t.Parallel()

	// An inactivity message at t=100 must come out before a peer's
	// stream-beginning at t=150.
	cc := ir.NewClockClass(0)
	srcA := &fakeSource{steps: []fakeStep{
		{msgs: []msg.Message{msg.NewMessageIteratorInactivity(cc, 100)}},
	}}
	b := newStreamEnv(t)
	srcB := &fakeSource{steps: []fakeStep{
		{msgs: []msg.Message{b.streamBegin(150), b.event(150), b.streamEnd(150)}},
	}}

	it := muxOver(t, MuxerOptions{}, srcA, srcB)
	got, err := pull(t, it, 16)
	require.ErrorIs(t, err, ErrEnd)
	require.Equal(t, []msg.Kind{
		msg.KindMessageIteratorInactivity,
		msg.KindStreamBeginning, msg.KindEvent, msg.KindStreamEnd,
	}, kindsOf(got))
}

func TestMuxerUntimedMessagesFlushFirst(t *testing.T) {
	t.Parallel()

	// Stream A's messages carry no clock snapshot: they have no timestamps
	// and must be flushed before timestamped peers.
	a := newStreamEnv(t, withoutClock())
	b := newStreamEnv(t)
	srcA := &fakeSource{steps: []fakeStep{
		{msgs: []msg.Message{a.streamBegin(0), a.event(0), a.streamEnd(0)}},
	}}
	srcB := &fakeSource{steps: []fakeStep{
		{msgs: []msg.Message{b.streamBegin(1), b.event(2), b.streamEnd(3)}},
	}}

	it := muxOver(t, MuxerOptions{}, srcA, srcB)
	got, err := pull(t, it, 16)
	require.ErrorIs(t, err, ErrEnd)
	require.Equal(t, []int{0, 0, 0, 1, 1, 1}, streamsOf([]*testStreamEnv{a, b}, got))
}

func TestMuxerTryAgainPreservesBatch(t *testing.T) {
	t.Parallel()

	a := newStreamEnv(t)
	b := newStreamEnv(t)
	srcA := &fakeSource{steps: []fakeStep{
		{msgs: []msg.Message{a.streamBegin(1)}},
		{err: ErrTryAgain},
		{msgs: []msg.Message{a.event(10), a.streamEnd(11)}},
	}}
	srcB := &fakeSource{steps: []fakeStep{
		{msgs: []msg.Message{b.streamBegin(2), b.event(3), b.streamEnd(4)}},
	}}

	it := muxOver(t, MuxerOptions{}, srcA, srcB)

	var got []msg.Message
	buf := make([]msg.Message, 16)
	sawAgain := false
	for range 100 {
		n, err := it.Next(buf)
		got = append(got, buf[:n]...)
		if err == ErrTryAgain {
			sawAgain = true
			continue
		}
		if err == ErrEnd {
			break
		}
		require.NoError(t, err)
	}

	require.True(t, sawAgain)
	require.Len(t, got, 6)
	require.Equal(t, []int{0, 1, 1, 1, 0, 0}, streamsOf([]*testStreamEnv{a, b}, got))
}

func TestMuxerClockMismatchSurfacesError(t *testing.T) {
	t.Parallel()

	// Two unknown-origin clocks with different UUIDs cannot be
	// correlated: the muxer's next reports the mismatch.
	mkSource := func(t *testing.T, id string) (*testStreamEnv, *fakeSource) {
		cc := ir.NewClockClass(0)
		cc.SetOrigin(ir.ClockOriginUnknown)
		cc.SetUUID(uuid.MustParse(id))
		e := newStreamEnv(t, withClock(cc))
		return e, &fakeSource{steps: []fakeStep{
			{msgs: []msg.Message{e.streamBegin(10), e.streamEnd(10)}},
		}}
	}

	_, srcA := mkSource(t, "21c70a23-4c87-4e11-8bd4-5e8b41b8d4ad")
	_, srcB := mkSource(t, "f84c2f6a-6e2e-4b30-9c9c-9a2de17f85cf")

	it := muxOver(t, MuxerOptions{}, srcA, srcB)
	_, err := pull(t, it, 16)
	var corr *ClockCorrelationError
	require.ErrorAs(t, err, &corr)
	require.Contains(t, err.Error(),
		"Expecting a clock class with an unknown origin and a specific UUID, got one with a different UUID")
}

func TestMuxerSeekBeginningIsRepeatable(t *testing.T) {
	t.Parallel()

	a := newStreamEnv(t)
	b := newStreamEnv(t)
	srcA := &rewindableSource{fakeSource: fakeSource{steps: []fakeStep{
		{msgs: []msg.Message{a.streamBegin(1), a.event(5), a.streamEnd(9)}},
	}}}
	srcB := &rewindableSource{fakeSource: fakeSource{steps: []fakeStep{
		{msgs: []msg.Message{b.streamBegin(2), b.event(4), b.streamEnd(8)}},
	}}}

	it := muxOver(t, MuxerOptions{}, srcA, srcB)

	can, err := it.CanSeekBeginning()
	require.NoError(t, err)
	require.True(t, can)

	first, err := pull(t, it, 16)
	require.ErrorIs(t, err, ErrEnd)

	require.NoError(t, it.SeekBeginning())
	second, err := pull(t, it, 16)
	require.ErrorIs(t, err, ErrEnd)

	require.Equal(t, kindsOf(first), kindsOf(second))
	require.Equal(t,
		streamsOf([]*testStreamEnv{a, b}, first),
		streamsOf([]*testStreamEnv{a, b}, second))
}

func TestMuxerSeekBeginningRetriesAfterAgain(t *testing.T) {
	t.Parallel()

	a := newStreamEnv(t)
	srcA := &rewindableSource{
		fakeSource: fakeSource{steps: []fakeStep{
			{msgs: []msg.Message{a.streamBegin(1), a.streamEnd(2)}},
		}},
		seekErrs: []error{ErrTryAgain},
	}

	it := muxOver(t, MuxerOptions{}, srcA)
	_, err := pull(t, it, 4)
	require.ErrorIs(t, err, ErrEnd)

	require.ErrorIs(t, it.SeekBeginning(), ErrTryAgain)
	require.NoError(t, it.SeekBeginning())

	got, err := pull(t, it, 4)
	require.ErrorIs(t, err, ErrEnd)
	require.Len(t, got, 2)
	// The upstream sought twice: once for the failed muxer seek, once for
	// the retry.
	require.Equal(t, 2, srcA.seekCalls)
}

func TestMuxerInterruption(t *testing.T) {
	t.Parallel()

	a := newStreamEnv(t)
	srcA := &fakeSource{steps: []fakeStep{
		{msgs: []msg.Message{a.streamBegin(1), a.event(2), a.streamEnd(3)}},
	}}

	intr := NewInterrupter()
	it := muxOver(t, MuxerOptions{Interrupter: intr}, srcA)

	intr.Set()
	n, err := it.Next(make([]msg.Message, 8))
	require.Zero(t, n)
	require.ErrorIs(t, err, ErrTryAgain)

	intr.Reset()
	got, err := pull(t, it, 8)
	require.ErrorIs(t, err, ErrEnd)
	require.Len(t, got, 3)
}

func TestMuxerSeekNsFromOriginDelegates(t *testing.T) {
	t.Parallel()

	a := newStreamEnv(t)
	b := newStreamEnv(t)
	srcA := &rewindableSource{fakeSource: fakeSource{steps: []fakeStep{
		{msgs: []msg.Message{a.streamBegin(10), a.event(150), a.event(260), a.streamEnd(300)}},
	}}}
	srcB := &rewindableSource{fakeSource: fakeSource{steps: []fakeStep{
		{msgs: []msg.Message{b.streamBegin(20), b.event(250), b.streamEnd(310)}},
	}}}

	it := muxOver(t, MuxerOptions{}, srcA, srcB)

	can, err := it.CanSeekNsFromOrigin(200)
	require.NoError(t, err)
	require.True(t, can)
	require.NoError(t, it.SeekNsFromOrigin(200))

	got, err := pull(t, it, 16)
	require.ErrorIs(t, err, ErrEnd)

	// Each upstream auto-sought: the merge restarts from the synthesized
	// stream-beginnings at the seek time and stays time-ordered.
	require.Equal(t, []msg.Kind{
		msg.KindStreamBeginning, msg.KindStreamBeginning,
		msg.KindEvent, msg.KindEvent,
		msg.KindStreamEnd, msg.KindStreamEnd,
	}, kindsOf(got))
	require.Equal(t, []int{0, 1, 1, 0, 0, 1}, streamsOf([]*testStreamEnv{a, b}, got))
}

func TestMuxerEmptyUpstreams(t *testing.T) {
	t.Parallel()

	it := muxOver(t, MuxerOptions{}, &fakeSource{})
	_, err := pull(t, it, 4)
	require.ErrorIs(t, err, ErrEnd)
}
