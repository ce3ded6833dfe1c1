// Package secure holds secret values in protected memory while they are in
// flight between an env file and the remote store CLI. Values are encrypted
// at rest in memory via memguard and wiped on destroy, so a crash dump or
// swap never carries plaintext.
package secure

import (
	"errors"
	"sync"

	"github.com/awnumar/memguard"
)

// ErrDestroyed is returned when a value is opened after Destroy.
var ErrDestroyed = errors.New("secure value already destroyed")

// Value wraps a memguard enclave around one secret value. Destroy is
// idempotent; an opened buffer must be destroyed by the caller.
type Value struct {
	enclave   *memguard.Enclave
	mu        sync.RWMutex
	destroyed bool
}

// NewValue seals s into protected memory. The caller's copy of s is not
// touched; s should go out of scope promptly after sealing.
func NewValue(s string) *Value {
	return &Value{
		enclave: memguard.NewEnclave([]byte(s)),
	}
}

// Open decrypts the value into a locked buffer. The caller MUST call
// Destroy() on the returned buffer when done:
//
//	locked, err := v.Open()
//	if err != nil {
//	    return err
//	}
//	defer locked.Destroy()
//	stdin.Write(locked.Bytes())
func (v *Value) Open() (*memguard.LockedBuffer, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	if v.destroyed {
		return nil, ErrDestroyed
	}
	return v.enclave.Open()
}

// Destroy marks the value as destroyed and prevents further use. Safe to
// call more than once. Full cleanup of all memguard data happens via
// memguard.Purge() at process exit.
func (v *Value) Destroy() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.destroyed {
		return
	}
	v.enclave = nil
	v.destroyed = true
}
