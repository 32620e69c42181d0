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

import "sync/atomic"

// Interrupter is a graph interruption flag.
//
// Graph execution is single-threaded, but an interrupter may be set from
// any goroutine (typically a signal handler). There is no forcible
// cancellation: sources are expected to check [Interrupter.IsSet] between
// produced messages and return [ErrTryAgain] when it is set, and the
// muxer checks before each merge step.
type Interrupter struct {
	set atomic.Bool
}

// NewInterrupter returns a new, unset interrupter.
func NewInterrupter() *Interrupter { return new(Interrupter) }

// Set sets the interruption flag.
func (i *Interrupter) Set() { i.set.Store(true) }

// Reset clears the interruption flag.
func (i *Interrupter) Reset() { i.set.Store(false) }

// IsSet reports whether the interruption flag is set.
func (i *Interrupter) IsSet() bool {
	return i != nil && i.set.Load()
}
