// Copyright 2026 The DashGate Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package audit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsSecret(t *testing.T) {
	tests := []struct {
		key      string
		isSecret bool
	}{
		{"password", true},
		{"Password", true},
		{"PASSWORD", true},
		{"token", true},
		{"access_token", true},
		{"secret", true},
		{"api_key", true},
		{"hash", true},
		{"password_hash", true},
		{"credential", true},
		{"private_key", true},
		{"user_id", false},
		{"email", false},
		{"status", false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.isSecret, isSecret(tt.key))
		})
	}
}

func TestRecorderKeepsNewestFirst(t *testing.T) {
	rec := NewRecorder(NewSlogLogger(), 3)
	ctx := context.Background()

	rec.Log(ctx, Event{Type: TypeUserCreated, ActorID: "a"})
	rec.Log(ctx, Event{Type: TypeLoginSuccess, ActorID: "b"})

	recent := rec.Recent(10)
	assert.Len(t, recent, 2)
	assert.Equal(t, "b", recent[0].ActorID)
	assert.Equal(t, "a", recent[1].ActorID)
}

func TestRecorderWrapsAtCapacity(t *testing.T) {
	rec := NewRecorder(NewSlogLogger(), 3)
	ctx := context.Background()

	for _, id := range []string{"1", "2", "3", "4", "5"} {
		rec.Log(ctx, Event{Type: TypeLoginSuccess, ActorID: id})
	}

	recent := rec.Recent(0)
	assert.Len(t, recent, 3)
	assert.Equal(t, "5", recent[0].ActorID)
	assert.Equal(t, "4", recent[1].ActorID)
	assert.Equal(t, "3", recent[2].ActorID)

	limited := rec.Recent(2)
	assert.Len(t, limited, 2)
	assert.Equal(t, "5", limited[0].ActorID)
}
