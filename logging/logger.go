// Copyright 2025 The Solaris Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package logging

import "sync/atomic"

type (
	// Logger interface exposes the methods for writing leveled log
	// messages from the library code
	Logger interface {
		// Errorf prints an Error-level message
		Errorf(format string, args ...any)
		// Warnf prints a Warn-level message
		Warnf(format string, args ...any)
		// Infof prints an Info-level message
		Infof(format string, args ...any)
		// Debugf prints a Debug-level message
		Debugf(format string, args ...any)
		// Tracef prints a Trace-level message
		Tracef(format string, args ...any)
	}

	// Config defines the pluggable logging settings. An application may
	// redirect the library logging to its own stack by providing the
	// three functions and calling SetConfig
	Config struct {
		// NewLoggerF constructs a new Logger by its name
		NewLoggerF func(name string) Logger
		// SetLevelF sets the logging level
		SetLevelF func(lvl Level)
		// GetLevelF returns the current logging level
		GetLevelF func() Level
	}

	// Level is one of ERROR, WARN, INFO, DEBUG or TRACE
	Level int32
)

const (
	ERROR Level = iota
	WARN
	INFO
	DEBUG
	TRACE
)

var settings atomic.Value

func init() {
	SetConfig(Config{NewLoggerF: stdNewLogger, SetLevelF: stdSetLevel, GetLevelF: stdGetLevel})
}

// NewLogger returns a Logger instance for the name provided
func NewLogger(name string) Logger {
	return settings.Load().(Config).NewLoggerF(name)
}

// SetLevel sets the logging level for the current configuration
func SetLevel(lvl Level) {
	settings.Load().(Config).SetLevelF(lvl)
}

// GetLevel returns the current logging level
func GetLevel() Level {
	return settings.Load().(Config).GetLevelF()
}

// SetConfig overwrites the current logging settings
func SetConfig(cfg Config) {
	settings.Store(cfg)
}
