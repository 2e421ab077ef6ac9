// Copyright 2024 Google LLC
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

package alerts

import (
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishAndDrain(t *testing.T) {
	l := logrus.New()
	l.Out = io.Discard
	b := NewBus(4, l)
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return fixed }

	require.True(t, b.Success("added to cart"))
	require.True(t, b.Errorf("/login", "session expired"))

	got := b.Drain()
	require.Len(t, got, 2)
	assert.Equal(t, Alert{Level: Success, Message: "added to cart", Time: fixed}, got[0])
	assert.Equal(t, "/login", got[1].Redirect)
	assert.Empty(t, b.Drain())
}

func TestPublishDropsWhenFull(t *testing.T) {
	l, hook := test.NewNullLogger()
	b := NewBus(1, l)

	assert.True(t, b.Success("one"))
	assert.False(t, b.Success("two"))
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)

	a := <-b.Alerts()
	assert.Equal(t, "one", a.Message)
}
