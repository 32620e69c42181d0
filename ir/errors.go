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
	"errors"
	"fmt"
)

// ErrOverflow is reported when integer math overflows during a cycle and
// nanosecond conversion.
var ErrOverflow = errors.New("tracemux/ir: value overflows the signed 64-bit integer range")

// InstallError is reported when a field class cannot be appended to a
// composite or installed into a scope.
type InstallError struct {
	Op    string
	Class FieldClass
	Cause string
}

// Error implements [error].
func (e *InstallError) Error() string {
	return fmt.Sprintf("tracemux/ir: cannot %s (%s): %s", e.Op, e.Class.Type(), e.Cause)
}

// DuplicateLabelError is reported when a bit-array flag, an enumeration
// mapping, a structure member, or a variant option reuses a name already
// present in its container.
type DuplicateLabelError struct {
	Container FieldClassType
	Label     string
}

// Error implements [error].
func (e *DuplicateLabelError) Error() string {
	return fmt.Sprintf("tracemux/ir: %s field class already has an entry named %q", e.Container, e.Label)
}

// RangeOverlapError is reported when a variant option's integer ranges
// overlap the ranges of the options already appended to the same variant.
type RangeOverlapError struct {
	Container FieldClassType
	Label     string
}

// Error implements [error].
func (e *RangeOverlapError) Error() string {
	label := e.Label
	if label == "" {
		label = "(nameless)"
	}
	return fmt.Sprintf("tracemux/ir: option %s of %s field class has ranges which overlap another option's ranges",
		label, e.Container)
}

// ResolveError is reported when the field path of a dependent field class
// cannot be resolved, or when a field location does not designate a valid
// anterior field.
type ResolveError struct {
	Dependent FieldClass
	Detail    string
}

// Error implements [error].
func (e *ResolveError) Error() string {
	return fmt.Sprintf("tracemux/ir: cannot resolve link of %s field class: %s", e.Dependent.Type(), e.Detail)
}
