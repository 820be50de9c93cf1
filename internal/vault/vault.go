// Package vault holds the database encryption secret outside the database it
// protects.
//
// A Vault is the trusted, OS-backed side of the trust boundary. The core only
// relies on three methods: IsAvailable, GetItem and SetItem.
package vault

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	// FileMode is the permission of every item file (owner read/write only).
	FileMode = 0600

	// DirMode is the permission of the vault directory.
	DirMode = 0700
)

var (
	// ErrInvalidItemID is returned for ids that are not plain file names.
	ErrInvalidItemID = errors.New("vault: invalid item id")

	// ErrUnavailable is returned by item operations on an unavailable vault.
	ErrUnavailable = errors.New("vault: unavailable")
)

// Vault is a minimal secret holder.
type Vault interface {
	// IsAvailable reports whether the vault can hold secrets at all.
	IsAvailable(ctx context.Context) bool

	// GetItem returns the item stored under id; ok is false if absent.
	GetItem(ctx context.Context, id string) (value string, ok bool, err error)

	// SetItem stores value under id, replacing any previous value.
	SetItem(ctx context.Context, id, value string) error
}

// FileVault stores each item as a file in a private directory.
type FileVault struct {
	dir string
}

// NewFileVault returns a vault rooted at dir. The directory is created on
// first use.
func NewFileVault(dir string) *FileVault {
	return &FileVault{dir: dir}
}

// Dir returns the vault directory.
func (v *FileVault) Dir() string {
	return v.dir
}

// IsAvailable creates the directory if needed and probes that it is writable.
func (v *FileVault) IsAvailable(ctx context.Context) bool {
	if v.dir == "" {
		return false
	}
	if err := os.MkdirAll(v.dir, DirMode); err != nil {
		return false
	}
	f, err := os.CreateTemp(v.dir, ".probe-*")
	if err != nil {
		return false
	}
	name := f.Name()
	f.Close()
	return os.Remove(name) == nil
}

// GetItem reads the item file. A missing file is reported as ok=false.
func (v *FileVault) GetItem(ctx context.Context, id string) (string, bool, error) {
	path, err := v.itemPath(id)
	if err != nil {
		return "", false, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("vault: read %s: %w", id, err)
	}
	return string(data), true, nil
}

// SetItem writes the item through a temp file and rename so a crash never
// leaves a truncated secret behind.
func (v *FileVault) SetItem(ctx context.Context, id, value string) error {
	path, err := v.itemPath(id)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(v.dir, DirMode); err != nil {
		return fmt.Errorf("vault: create dir: %w", err)
	}

	tmp, err := os.CreateTemp(v.dir, "."+id+".tmp-*")
	if err != nil {
		return fmt.Errorf("vault: write %s: %w", id, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // No-op after a successful rename

	if err := tmp.Chmod(FileMode); err != nil {
		tmp.Close()
		return fmt.Errorf("vault: chmod %s: %w", id, err)
	}
	if _, err := tmp.WriteString(value); err != nil {
		tmp.Close()
		return fmt.Errorf("vault: write %s: %w", id, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("vault: sync %s: %w", id, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("vault: close %s: %w", id, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("vault: rename %s: %w", id, err)
	}
	return nil
}

// itemPath maps id to a file inside the vault directory, rejecting anything
// that could escape it.
func (v *FileVault) itemPath(id string) (string, error) {
	if id == "" || id == "." || id == ".." ||
		strings.ContainsAny(id, `/\`) || strings.HasPrefix(id, ".") {
		return "", fmt.Errorf("%w: %q", ErrInvalidItemID, id)
	}
	return filepath.Join(v.dir, id), nil
}

// MemoryVault is an in-process vault for tests and ephemeral runs.
type MemoryVault struct {
	mu        sync.Mutex
	items     map[string]string
	available bool
	setErr    error
}

// NewMemoryVault returns an available, empty vault.
func NewMemoryVault() *MemoryVault {
	return &MemoryVault{items: make(map[string]string), available: true}
}

// SetAvailable toggles availability.
func (v *MemoryVault) SetAvailable(available bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.available = available
}

// FailSet makes every subsequent SetItem return err (nil clears it).
func (v *MemoryVault) FailSet(err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.setErr = err
}

// Remove deletes an item, simulating loss of the vault entry.
func (v *MemoryVault) Remove(id string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.items, id)
}

func (v *MemoryVault) IsAvailable(ctx context.Context) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.available
}

func (v *MemoryVault) GetItem(ctx context.Context, id string) (string, bool, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.available {
		return "", false, ErrUnavailable
	}
	value, ok := v.items[id]
	return value, ok, nil
}

func (v *MemoryVault) SetItem(ctx context.Context, id, value string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.available {
		return ErrUnavailable
	}
	if v.setErr != nil {
		return v.setErr
	}
	v.items[id] = value
	return nil
}
