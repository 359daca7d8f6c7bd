// Copyright (C) 2023 The Atari VCS Authors.
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

package log

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Message is a single logging record.
type Message struct {
	// Text is the message text.
	Text string
	// Time is the time the message was logged.
	Time time.Time
	// Severity is the severity of the message.
	Severity Severity
	// Tag is the tag of the logger that created the message.
	Tag string
	// StopProcess is true if the message indicates the process should stop.
	StopProcess bool
	// Values is the full list of values attached to the message.
	Values []*Value
}

// Value is a single key-value pair attached to a Message.
type Value struct {
	Name  string
	Value interface{}
}

// Message returns a new Message with the given text.
func (l *Logger) Message(s Severity, stopProcess bool, text string) *Message {
	m := &Message{
		Text:        text,
		Time:        l.clockNow(),
		Severity:    s,
		Tag:         l.tag,
		StopProcess: stopProcess,
	}
	for n, v := range l.values {
		m.Values = append(m.Values, &Value{Name: n, Value: v})
	}
	sort.Slice(m.Values, func(i, j int) bool { return m.Values[i].Name < m.Values[j].Name })
	return m
}

// Messagef returns a new Message with the given printf-style text.
func (l *Logger) Messagef(s Severity, stopProcess bool, f string, args ...interface{}) *Message {
	return l.Message(s, stopProcess, fmt.Sprintf(f, args...))
}

func (l *Logger) clockNow() time.Time {
	if l.clock != nil {
		return l.clock()
	}
	return time.Now()
}

// String returns the message in a human-readable single-line form.
func (m *Message) String() string {
	b := strings.Builder{}
	b.WriteString(m.Severity.Short())
	if m.Tag != "" {
		b.WriteString(" [")
		b.WriteString(m.Tag)
		b.WriteString("]")
	}
	b.WriteString(" ")
	b.WriteString(m.Text)
	for _, v := range m.Values {
		fmt.Fprintf(&b, " <%s:%v>", v.Name, v.Value)
	}
	return b.String()
}
