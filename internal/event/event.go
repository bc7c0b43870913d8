// Package event owns the shared logger. Library packages declare
// `var log = event.Log` and prefix messages with their component name
// ("corpus: ...", "train: ..."), so a host can redirect or silence the
// whole library in one place.
package event

import (
	"io"

	"github.com/sirupsen/logrus"
)

// Log is the library-wide logger. Defaults to Info level on stderr.
var Log = logrus.New()

func init() {
	Log.SetLevel(logrus.InfoLevel)
	Log.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: false,
		FullTimestamp:    true,
	})
}

// SetLevel adjusts the library log level ("debug", "info", "warn",
// "error"). Unknown names leave the level unchanged.
func SetLevel(name string) {
	level, err := logrus.ParseLevel(name)
	if err != nil {
		Log.Warnf("event: unknown log level %q", name)
		return
	}
	Log.SetLevel(level)
}

// SetOutput redirects library logging, e.g. to a host-owned file or to
// io.Discard in tests.
func SetOutput(w io.Writer) {
	Log.SetOutput(w)
}
