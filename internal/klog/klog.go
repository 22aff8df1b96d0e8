// Copyright 2024 The Kernelcore Authors.
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

// Package klog wraps logrus with the field conventions used across the
// kernel core: where applicable, a line carries the pid and cpu it
// concerns.
package klog

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New returns a logger preconfigured with the kernel core's text format.
// Components should not reach for logrus directly; they take a *Logger.
func New() *Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.InfoLevel)
	return &Logger{entry: logrus.NewEntry(l)}
}

// Logger is a thin wrapper around *logrus.Entry restricting callers to the
// field-based call style used throughout this repository.
type Logger struct {
	entry *logrus.Entry
}

// With returns a derived Logger carrying the given fields in addition to
// any the receiver already carries.
func (l *Logger) With(fields logrus.Fields) *Logger {
	return &Logger{entry: l.entry.WithFields(fields)}
}

// Warn logs at warning level, used for recoverable programmer errors such
// as an FSM event that is invalid in the current state.
func (l *Logger) Warn(msg string) { l.entry.Warn(msg) }

// Error logs at error level, used for lock-discipline violations and other
// conditions that return failure but do not halt the kernel.
func (l *Logger) Error(msg string) { l.entry.Error(msg) }

// Fatal logs at error level with a "fatal" marker field. Unlike logrus's
// own Fatal, this does not call os.Exit: the kernel core halts only the
// affected CPU's scheduling loop, never the whole process, so callers
// must still return after calling this.
func (l *Logger) Fatal(msg string) { l.entry.WithField("fatal", true).Error(msg) }

// Info logs at info level, used for lifecycle events (CPU boot, task
// creation, session start/stop).
func (l *Logger) Info(msg string) { l.entry.Info(msg) }

// Debug logs at debug level, used for per-tick and per-schedule detail.
func (l *Logger) Debug(msg string) { l.entry.Debug(msg) }
