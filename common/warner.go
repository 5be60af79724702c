/*
 *
 * capybara - driver and server registry for browser tests
 * Copyright (C) 2021 Load Impact
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Affero General Public License as
 * published by the Free Software Foundation, either version 3 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU Affero General Public License for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program.  If not, see <http://www.gnu.org/licenses/>.
 *
 */

package common

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
)

// Warner receives advisory notices, such as deprecations.
// Warnings never change control flow.
type Warner interface {
	Warn(msg string)
}

// WarnFunc adapts a plain function to the Warner interface.
type WarnFunc func(msg string)

// Warn calls f(msg).
func (f WarnFunc) Warn(msg string) { f(msg) }

// ConsoleWarner prints warnings in yellow and mirrors them to a logger.
type ConsoleWarner struct {
	mu     sync.Mutex
	out    io.Writer
	color  *color.Color
	logger *Logger
}

// NewConsoleWarner returns a warner writing to out, or stderr when out is nil.
func NewConsoleWarner(out io.Writer, logger *Logger) *ConsoleWarner {
	if out == nil {
		out = os.Stderr
	}
	return &ConsoleWarner{
		out:    out,
		color:  color.New(color.FgYellow),
		logger: logger,
	}
}

// Warn prints msg.
func (w *ConsoleWarner) Warn(msg string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	_, _ = w.color.Fprintln(w.out, msg)
	w.logger.Warnf("deprecation", "%s", msg)
}

// WarningRecorder keeps every warning it receives.
type WarningRecorder struct {
	mu   sync.Mutex
	msgs []string
}

// Warn records msg.
func (r *WarningRecorder) Warn(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
}

// Messages returns a copy of the recorded warnings.
func (r *WarningRecorder) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.msgs...)
}

func (r *WarningRecorder) String() string {
	return fmt.Sprintf("%q", r.Messages())
}
