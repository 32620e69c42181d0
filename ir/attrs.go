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
	"fmt"

	"github.com/tiendc/go-deepcopy"
)

// Attributes is a free-form user attribute map carried by most IR objects.
//
// Values are expected to be strings, booleans, integers, floats, or nested
// maps and slices thereof.
type Attributes map[string]any

// Clone returns a deep copy of a.
func (a Attributes) Clone() (Attributes, error) {
	if a == nil {
		return nil, nil
	}
	var out Attributes
	if err := deepcopy.Copy(&out, a); err != nil {
		return nil, fmt.Errorf("tracemux/ir: cannot copy user attributes: %w", err)
	}
	return out, nil
}

// userAttrs is the embedded user-attribute slot shared by IR objects.
type userAttrs struct {
	attrs Attributes
}

// UserAttributes returns the object's user attributes. The returned map
// must not be modified; use SetUserAttributes instead.
func (u *userAttrs) UserAttributes() Attributes { return u.attrs }

func (u *userAttrs) setUserAttributes(attrs Attributes) error {
	clone, err := attrs.Clone()
	if err != nil {
		return err
	}
	u.attrs = clone
	return nil
}
