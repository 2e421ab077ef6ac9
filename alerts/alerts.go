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

// Package alerts carries user-facing messages from non-UI code to whatever
// presents them, over a bounded channel.
package alerts

import (
	"time"

	"github.com/sirupsen/logrus"
)

type Level string

const (
	Info    Level = "info"
	Success Level = "success"
	Warning Level = "warning"
	Error   Level = "error"
)

type Alert struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`

	// Redirect is where the presentation layer should navigate, e.g. the
	// login page after a 401.
	Redirect string    `json:"redirect,omitempty"`
	Time     time.Time `json:"time"`
}

const DefaultBuffer = 32

type Bus struct {
	ch  chan Alert
	log logrus.FieldLogger
	now func() time.Time
}

func NewBus(buffer int, log logrus.FieldLogger) *Bus {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Bus{ch: make(chan Alert, buffer), log: log, now: time.Now}
}

// Publish queues a without blocking. When nobody drains the bus and the
// buffer is full the alert is dropped.
func (b *Bus) Publish(a Alert) bool {
	if a.Time.IsZero() {
		a.Time = b.now()
	}
	select {
	case b.ch <- a:
		return true
	default:
		b.log.WithField("level", a.Level).WithField("message", a.Message).Warn("alert buffer full, dropping alert")
		return false
	}
}

func (b *Bus) Alerts() <-chan Alert { return b.ch }

// Drain returns every queued alert without waiting for more.
func (b *Bus) Drain() []Alert {
	var out []Alert
	for {
		select {
		case a := <-b.ch:
			out = append(out, a)
		default:
			return out
		}
	}
}

func (b *Bus) Errorf(redirect, message string) bool {
	return b.Publish(Alert{Level: Error, Message: message, Redirect: redirect})
}

func (b *Bus) Success(message string) bool {
	return b.Publish(Alert{Level: Success, Message: message})
}
