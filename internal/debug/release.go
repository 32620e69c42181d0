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

//go:build !debug

// Package debug includes development-mode helpers.
//
// Precondition and postcondition checks throughout the library compile to
// nothing unless the debug tag is enabled. With the tag, a violated check
// logs a structured line and panics; without it, the behavior of a program
// that violates a documented precondition is unspecified.
package debug

// Enabled is true if the library is being built with the debug tag, which
// enables assertions and debug logging.
const Enabled = false

// Log prints debugging information to stderr. No-op in release mode.
func Log(operation, format string, args ...any) {}

// Assert panics if cond is false, but only in debug mode.
func Assert(cond bool, format string, args ...any) {}

// Value is a value of any type that only exists when the debug tag is
// enabled. When disabled, this struct is replaced with an empty struct.
type Value[T any] struct{}

// Get returns a pointer to this value. Panics if not in debug mode.
func (v *Value[T]) Get() *T {
	panic("tracemux: debug.Value.Get() called in release mode")
}
