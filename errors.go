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
	stderrors "errors"
	"fmt"

	goerrors "github.com/go-errors/errors"
)

// ErrTryAgain is the cooperative "no progress now, call me later" signal.
//
// It is not a failure: the iterator stays usable and the caller is
// expected to re-enter the same operation later.
var ErrTryAgain = stderrors.New("tracemux: try again")

// ErrEnd reports that an iterator terminated normally: it has delivered
// every message it ever will.
var ErrEnd = stderrors.New("tracemux: end of iteration")

// ErrMemory reports a failed allocation in a user method.
var ErrMemory = stderrors.New("tracemux: memory error")

// isStatus reports whether err is one of the non-failure statuses, which
// propagate as-is and never grow a cause chain.
func isStatus(err error) bool {
	return stderrors.Is(err, ErrTryAgain) || stderrors.Is(err, ErrEnd)
}

// wrapCause appends a causal message to err on its way up: each layer
// that rethrows names itself, so the topmost cause identifies the failing
// layer and the chain below it the reason.
//
// Statuses ([ErrTryAgain], [ErrEnd]) and nil pass through untouched.
func wrapCause(err error, format string, args ...any) error {
	if err == nil || isStatus(err) {
		return err
	}
	return goerrors.WrapPrefix(err, fmt.Sprintf(format, args...), 1)
}
