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
	"github.com/tracemux/tracemux/internal/debug"
)

// LogLevel is the severity an event class attaches to its events.
type LogLevel int

const (
	LogLevelNone LogLevel = iota
	LogLevelEmergency
	LogLevelAlert
	LogLevelCritical
	LogLevelError
	LogLevelWarning
	LogLevelNotice
	LogLevelInfo
	LogLevelDebugSystem
	LogLevelDebugProgram
	LogLevelDebugProcess
	LogLevelDebugModule
	LogLevelDebugUnit
	LogLevelDebugFunction
	LogLevelDebugLine
	LogLevelDebug
)

// EventClass describes a class of events of a stream class: its name, log
// level, and per-event field classes.
type EventClass struct {
	userAttrs

	streamClass *StreamClass
	id          uint64
	name        string
	logLevel    LogLevel

	specificContext *StructureFieldClass
	payload         *StructureFieldClass

	frozen bool
}

// StreamClass returns the stream class which owns this event class.
func (ec *EventClass) StreamClass() *StreamClass { return ec.streamClass }

// ID returns this event class's numeric id, unique within its stream
// class.
func (ec *EventClass) ID() uint64 { return ec.id }

// Name returns this event class's name, or the empty string.
func (ec *EventClass) Name() string { return ec.name }

// SetName sets this event class's name.
func (ec *EventClass) SetName(name string) {
	ec.checkMutable("set name")
	ec.name = name
}

// LogLevel returns this event class's log level, or [LogLevelNone].
func (ec *EventClass) LogLevel() LogLevel { return ec.logLevel }

// SetLogLevel sets this event class's log level.
func (ec *EventClass) SetLogLevel(level LogLevel) {
	ec.checkMutable("set log level")
	ec.logLevel = level
}

// SetUserAttributes replaces this event class's user attributes with a
// deep copy of attrs.
func (ec *EventClass) SetUserAttributes(attrs Attributes) error {
	ec.checkMutable("set user attributes")
	return ec.setUserAttributes(attrs)
}

// SpecificContextFieldClass returns the specific context field class, or
// nil.
func (ec *EventClass) SpecificContextFieldClass() *StructureFieldClass { return ec.specificContext }

// SetSpecificContextFieldClass installs fc as the context specific to this
// event class's events.
//
// fc must not already be part of a trace class; it is frozen together with
// its descendants, and under MIP 0 the field paths of its dependent field
// classes are resolved.
func (ec *EventClass) SetSpecificContextFieldClass(fc *StructureFieldClass) error {
	ec.checkMutable("set specific context field class")
	if err := ec.streamClass.installScope(ec, ScopeEventSpecificContext, fc); err != nil {
		return err
	}
	ec.specificContext = fc
	return nil
}

// PayloadFieldClass returns the payload field class, or nil.
func (ec *EventClass) PayloadFieldClass() *StructureFieldClass { return ec.payload }

// SetPayloadFieldClass installs fc as the payload of this event class's
// events.
//
// fc must not already be part of a trace class; it is frozen together with
// its descendants, and under MIP 0 the field paths of its dependent field
// classes are resolved.
func (ec *EventClass) SetPayloadFieldClass(fc *StructureFieldClass) error {
	ec.checkMutable("set payload field class")
	if err := ec.streamClass.installScope(ec, ScopeEventPayload, fc); err != nil {
		return err
	}
	ec.payload = fc
	return nil
}

// Frozen reports whether this event class has been frozen.
func (ec *EventClass) Frozen() bool { return ec.frozen }

func (ec *EventClass) freeze() { ec.frozen = true }

func (ec *EventClass) checkMutable(op string) {
	debug.Assert(!ec.frozen, "cannot %s: event class %d is frozen", op, ec.id)
}
