/*
Copyright 2025 Guided Traffic.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package cli

import (
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// newLogger builds a sugared zap logger writing to w.
// Debug selects the development encoder at debug level, verbose the
// production encoder at info level. Otherwise only warnings are shown.
func newLogger(w io.Writer, verbose, debug bool) *zap.SugaredLogger {
	var (
		encoderConfig zapcore.EncoderConfig
		level         zapcore.Level
	)

	switch {
	case debug:
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		level = zapcore.DebugLevel
	case verbose:
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		level = zapcore.InfoLevel
	default:
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		level = zapcore.WarnLevel
	}

	var encoder zapcore.Encoder
	if debug {
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(w), zap.NewAtomicLevelAt(level))
	opts := []zap.Option{zap.ErrorOutput(zapcore.AddSync(w))}
	if debug {
		opts = append(opts, zap.AddCaller(), zap.Development())
	}

	return zap.New(core, opts...).Sugar()
}
