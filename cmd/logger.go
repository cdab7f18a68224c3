package cmd

import (
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// newLogger returns the console logger of a run. Every line carries the run
// id so that runs can be told apart in a shared log.
func newLogger(level zerolog.Level) zerolog.Logger {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	return zerolog.New(out).Level(level).With().
		Timestamp().
		Str("run", uuid.NewString()[:8]).
		Logger()
}
