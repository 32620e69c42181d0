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
	_ "embed"
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/tracemux/tracemux/msg"
)

//go:embed testdata/muxer_scenarios.yaml
var muxerScenariosYAML []byte

type muxerScenarioFile struct {
	Scenarios []muxerScenario `yaml:"scenarios"`
}

type muxerScenario struct {
	Name    string     `yaml:"name"`
	Sources [][]string `yaml:"sources"`
	Expect  []string   `yaml:"expect"`
}

// parseScenarioMessage splits "kind@ts".
func parseScenarioMessage(t *testing.T, s string) (kind string, ts uint64) {
	t.Helper()
	kind, tsStr, ok := strings.Cut(s, "@")
	require.True(t, ok, "malformed scenario message %q", s)
	n, err := strconv.ParseUint(tsStr, 10, 64)
	require.NoError(t, err)
	return kind, n
}

func (e *testStreamEnv) scenarioMessage(t *testing.T, spec string) msg.Message {
	t.Helper()
	kind, ts := parseScenarioMessage(t, spec)
	switch kind {
	case "stream-beginning":
		return e.streamBegin(ts)
	case "event":
		return e.event(ts)
	case "stream-end":
		return e.streamEnd(ts)
	case "inactivity":
		return msg.NewMessageIteratorInactivity(e.clockClass, ts)
	default:
		t.Fatalf("unknown scenario message kind %q", kind)
		return nil
	}
}

func TestMuxerScenarios(t *testing.T) {
	t.Parallel()

	var file muxerScenarioFile
	require.NoError(t, yaml.Unmarshal(muxerScenariosYAML, &file))
	require.NotEmpty(t, file.Scenarios)

	for _, scenario := range file.Scenarios {
		t.Run(scenario.Name, func(t *testing.T) {
			t.Parallel()

			envs := make([]*testStreamEnv, len(scenario.Sources))
			sources := make([]SourceIterator, len(scenario.Sources))
			for i, specs := range scenario.Sources {
				envs[i] = newStreamEnv(t)
				batch := make([]msg.Message, len(specs))
				for j, spec := range specs {
					batch[j] = envs[i].scenarioMessage(t, spec)
				}
				sources[i] = &fakeSource{steps: []fakeStep{{msgs: batch}}}
			}

			it := muxOver(t, MuxerOptions{}, sources...)
			got, err := pull(t, it, 16)
			require.ErrorIs(t, err, ErrEnd)

			var rendered []string
			for _, m := range got {
				src := -1
				if stream := m.Stream(); stream != nil {
					for i, e := range envs {
						if e.stream == stream {
							src = i
						}
					}
				} else {
					inactivity := m.(*msg.MessageIteratorInactivity)
					for i, e := range envs {
						if e.clockClass == inactivity.ClockClass() {
							src = i
						}
					}
				}
				require.GreaterOrEqual(t, src, 0, "message from unknown source")

				ns, ok, err := messageTimestamp(m)
				require.NoError(t, err)
				require.True(t, ok)

				name := m.Kind().String()
				if m.Kind() == msg.KindMessageIteratorInactivity {
					name = "inactivity"
				}
				rendered = append(rendered, fmt.Sprintf("%d/%s@%d", src, name, ns))
			}
			require.Equal(t, scenario.Expect, rendered)
		})
	}
}
