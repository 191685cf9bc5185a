//go:build windows

package journal

import "os"

// lockFile is a no-op on Windows; Append still holds the journal mutex.
func lockFile(_ *os.File) error   { return nil }
func unlockFile(_ *os.File) error { return nil }
