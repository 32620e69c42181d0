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
	"io"

	"github.com/sirupsen/logrus"
)

// log is the package logger. It discards everything until the application
// opts in with [SetLogger].
var log = func() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}()

// SetLogger routes the library's logs to logger.
//
// The library logs iterator state transitions and muxer scheduling
// decisions at trace level; nothing is logged by default. Protocol
// violations are not logged through this logger: they are debug-build
// assertions.
func SetLogger(logger *logrus.Logger) {
	log = logger
}
