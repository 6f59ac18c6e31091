// Package logging builds the shared zap logger for querydeck.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a production logger writing JSON to the given file path.
// Logs go to a file rather than stderr so they never bleed into the TUI.
// An empty path discards output entirely; debug widens the level.
func New(path string, debug bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	if path == "" {
		return zap.NewNop(), nil
	}
	cfg.OutputPaths = []string{path}
	cfg.ErrorOutputPaths = []string{path}
	return cfg.Build()
}
