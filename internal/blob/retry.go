package blob

import (
	"strings"
	"time"
)

// Transient-write retry. WAL-mode SQLite can surface SQLITE_BUSY or
// SQLITE_LOCKED when the maintenance job and a trigger commit land at the
// same moment; busy_timeout covers most of it, this covers the rest.

const (
	retryAttempts = 3
	retryBase     = 50 * time.Millisecond
)

func isTransient(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, pattern := range []string{
		"SQLITE_BUSY",
		"SQLITE_LOCKED",
		"database is locked",
		"database table is locked",
	} {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

func retryTransient(fn func() error) error {
	var err error
	for attempt := 0; attempt <= retryAttempts; attempt++ {
		err = fn()
		if err == nil || !isTransient(err) {
			return err
		}
		if attempt < retryAttempts {
			time.Sleep(retryBase << uint(attempt))
		}
	}
	return err
}
