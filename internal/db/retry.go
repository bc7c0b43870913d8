package db

import (
	"strings"
	"time"
)

const (
	busyRetries = 5
	busyBackoff = 50 * time.Millisecond
)

// RetryOnBusy runs fn, retrying a handful of times with linear backoff
// when SQLite reports the database is locked. WAL mode and the
// busy_timeout pragma absorb most contention; this covers the rest of
// the short writer overlap between children.
func RetryOnBusy(fn func() error) error {
	var err error
	for attempt := 0; attempt < busyRetries; attempt++ {
		err = fn()
		if err == nil || !IsBusy(err) {
			return err
		}
		time.Sleep(busyBackoff * time.Duration(attempt+1))
	}
	return err
}

// IsBusy reports whether err is a SQLite busy or locked error.
func IsBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "SQLITE_BUSY")
}
