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
	"fmt"
	"strings"

	"github.com/tracemux/tracemux/ir"
	"github.com/tracemux/tracemux/msg"
)

// ClockCorrelationErrorType classifies how a message's clock class failed
// to correlate with the clock classes seen before it.
type ClockCorrelationErrorType int

const (
	ExpectingNoClockClassGotOne ClockCorrelationErrorType = iota
	ExpectingOriginKnownGotNoClockClass
	ExpectingOriginKnownGotUnknownOrigin
	ExpectingOriginKnownGotOtherOrigin
	ExpectingOriginUnknownWithIDGotNoClockClass
	ExpectingOriginUnknownWithIDGotKnownOrigin
	ExpectingOriginUnknownWithIDGotWithoutID
	ExpectingOriginUnknownWithIDGotOtherID
	ExpectingOriginUnknownWithoutIDGotNoClockClass
	ExpectingOriginUnknownWithoutIDGotOtherClockClass
)

// ClockCorrelationError reports that a message's clock class cannot be
// correlated with the reference clock class its iterator established.
type ClockCorrelationError struct {
	Type ClockCorrelationErrorType

	// ActualClockClass is the offending message's clock class; nil when
	// the message has none.
	ActualClockClass *ir.ClockClass

	// RefClockClass is the reference clock class; nil when the reference
	// expectation is "no clock class".
	RefClockClass *ir.ClockClass

	// StreamClass is the offending stream's class, when the message has a
	// stream.
	StreamClass *ir.StreamClass

	mip uint64
}

// Error implements [error].
func (e *ClockCorrelationError) Error() string {
	var sb strings.Builder
	sb.WriteString("tracemux: ")

	switch e.Type {
	case ExpectingNoClockClassGotOne:
		sb.WriteString("Expecting no clock class, got one")
	case ExpectingOriginKnownGotNoClockClass:
		if e.mip == 0 {
			sb.WriteString("Expecting a clock class with a Unix epoch origin, got none")
		} else {
			sb.WriteString("Expecting a clock class with a known origin, got none")
		}
	case ExpectingOriginKnownGotUnknownOrigin:
		if e.mip == 0 {
			sb.WriteString("Expecting a clock class with a Unix epoch origin, got one with an unknown origin")
		} else {
			sb.WriteString("Expecting a clock class with a known origin, got one with an unknown origin")
		}
	case ExpectingOriginKnownGotOtherOrigin:
		sb.WriteString("Expecting a clock class with a known origin, got one with a wrong origin")
	case ExpectingOriginUnknownWithIDGotNoClockClass:
		sb.WriteString(e.expectingUnknownWithID() + ", got none")
	case ExpectingOriginUnknownWithIDGotKnownOrigin:
		if e.mip == 0 {
			sb.WriteString(e.expectingUnknownWithID() + ", got one with a Unix epoch origin")
		} else {
			sb.WriteString(e.expectingUnknownWithID() + ", got one with a known origin")
		}
	case ExpectingOriginUnknownWithIDGotWithoutID:
		if e.mip == 0 {
			sb.WriteString(e.expectingUnknownWithID() + ", got one without a UUID")
		} else {
			sb.WriteString(e.expectingUnknownWithID() + ", got one without identity")
		}
	case ExpectingOriginUnknownWithIDGotOtherID:
		if e.mip == 0 {
			sb.WriteString(e.expectingUnknownWithID() + ", got one with a different UUID")
		} else {
			sb.WriteString(e.expectingUnknownWithID() + ", got one with a different identity")
		}
	case ExpectingOriginUnknownWithoutIDGotNoClockClass:
		sb.WriteString("Expecting a clock class, got none")
	case ExpectingOriginUnknownWithoutIDGotOtherClockClass:
		sb.WriteString("Unexpected clock class")
	}

	if e.StreamClass != nil {
		fmt.Fprintf(&sb, ": stream-class-id=%d", e.StreamClass.ID())
		if name := e.StreamClass.Name(); name != "" {
			fmt.Fprintf(&sb, ", stream-class-name=%q", name)
		}
	}
	if e.ActualClockClass != nil {
		sb.WriteString(", ")
		formatClockClass(&sb, e.ActualClockClass, "", e.mip)
	}
	if e.RefClockClass != nil {
		sb.WriteString(", ")
		formatClockClass(&sb, e.RefClockClass, "expected-", e.mip)
	}
	return sb.String()
}

func (e *ClockCorrelationError) expectingUnknownWithID() string {
	if e.mip == 0 {
		return "Expecting a clock class with an unknown origin and a specific UUID"
	}
	return "Expecting a clock class with an unknown origin and a specific identity"
}

func formatClockClass(sb *strings.Builder, cc *ir.ClockClass, prefix string, mip uint64) {
	if mip == 0 {
		if id := cc.UUID(); id != nil {
			fmt.Fprintf(sb, "%sclock-class-uuid=%s", prefix, id)
		} else {
			fmt.Fprintf(sb, "%sclock-class-uuid=(none)", prefix)
		}
		if name := cc.Name(); name != "" {
			fmt.Fprintf(sb, ", %sclock-class-name=%q", prefix, name)
		}
	} else {
		fmt.Fprintf(sb, "%sclock-class-ns=%q, %sclock-class-name=%q, %sclock-class-uid=%q",
			prefix, cc.Namespace(), prefix, cc.Name(), prefix, cc.UID())
	}
	fmt.Fprintf(sb, ", %sclock-class-origin=%s", prefix, cc.Origin())
}

// clockExpectation is what the validator has learned to expect from the
// clock classes of subsequent messages.
type clockExpectation int

const (
	// No anchoring message seen yet.
	clockExpectationNone clockExpectation = iota
	clockExpectationNoClockClass
	clockExpectationOriginKnown
	clockExpectationOriginUnknownWithID
	clockExpectationOriginUnknownWithoutID
)

// ClockCorrelationValidator checks that every message of one iterator's
// sequence carries clock classes which downstream components can
// correlate with one another.
//
// Stream-beginning messages anchor the expectation, as do
// message-iterator-inactivity messages; other message kinds share their
// stream's clock class and are skipped.
type ClockCorrelationValidator struct {
	mip         uint64
	expectation clockExpectation
	refClock    *ir.ClockClass
}

// NewClockCorrelationValidator returns a validator for a graph with the
// given MIP version.
func NewClockCorrelationValidator(mipVersion uint64) *ClockCorrelationValidator {
	return &ClockCorrelationValidator{mip: mipVersion}
}

// Reset forgets the recorded reference; the next anchoring message
// establishes a new one.
func (v *ClockCorrelationValidator) Reset() {
	v.expectation = clockExpectationNone
	v.refClock = nil
}

// Validate checks m against the recorded reference clock class. The first
// anchoring message is always accepted and becomes the reference.
func (v *ClockCorrelationValidator) Validate(m msg.Message) error {
	var (
		cc          *ir.ClockClass
		streamClass *ir.StreamClass
	)
	switch m := m.(type) {
	case *msg.StreamBeginning:
		streamClass = m.Stream().Class()
		cc = streamClass.DefaultClockClass()
	case *msg.MessageIteratorInactivity:
		cc = m.ClockClass()
	default:
		return nil
	}

	switch v.expectation {
	case clockExpectationNone:
		// First anchoring message: record the expectation.
		switch {
		case cc == nil:
			v.expectation = clockExpectationNoClockClass
		case cc.Origin().IsKnown():
			v.expectation = clockExpectationOriginKnown
		case cc.HasIdentity():
			v.expectation = clockExpectationOriginUnknownWithID
		default:
			v.expectation = clockExpectationOriginUnknownWithoutID
		}
		v.refClock = cc
		return nil

	case clockExpectationNoClockClass:
		if cc == nil {
			return nil
		}
		return v.err(ExpectingNoClockClassGotOne, cc, streamClass)

	case clockExpectationOriginKnown:
		switch {
		case cc == nil:
			return v.err(ExpectingOriginKnownGotNoClockClass, nil, streamClass)
		case !cc.Origin().IsKnown():
			return v.err(ExpectingOriginKnownGotUnknownOrigin, cc, streamClass)
		case !cc.Origin().Equal(v.refClock.Origin()):
			// Distinct known origins can only exist under MIP >= 1, where
			// custom origins are available.
			return v.err(ExpectingOriginKnownGotOtherOrigin, cc, streamClass)
		}
		return nil

	case clockExpectationOriginUnknownWithID:
		switch {
		case cc == nil:
			return v.err(ExpectingOriginUnknownWithIDGotNoClockClass, nil, streamClass)
		case cc.Origin().IsKnown():
			return v.err(ExpectingOriginUnknownWithIDGotKnownOrigin, cc, streamClass)
		case !cc.HasIdentity():
			return v.err(ExpectingOriginUnknownWithIDGotWithoutID, cc, streamClass)
		case !cc.SameIdentity(v.refClock):
			return v.err(ExpectingOriginUnknownWithIDGotOtherID, cc, streamClass)
		}
		return nil

	default: // clockExpectationOriginUnknownWithoutID
		switch {
		case cc == nil:
			return v.err(ExpectingOriginUnknownWithoutIDGotNoClockClass, nil, streamClass)
		case cc != v.refClock:
			// Without an identity, correlation is only defined for the very
			// same clock class.
			return v.err(ExpectingOriginUnknownWithoutIDGotOtherClockClass, cc, streamClass)
		}
		return nil
	}
}

func (v *ClockCorrelationValidator) err(typ ClockCorrelationErrorType, actual *ir.ClockClass, streamClass *ir.StreamClass) error {
	return &ClockCorrelationError{
		Type:             typ,
		ActualClockClass: actual,
		RefClockClass:    v.refClock,
		StreamClass:      streamClass,
		mip:              v.mip,
	}
}
