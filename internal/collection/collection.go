// Package collection holds the ordered, capacity-bounded list of files a
// merge is built from. Order in the collection is the only ordering signal:
// rows are rendered in it and pages are merged in it.
package collection

import (
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// DefaultCapacity is the maximum number of files a collection holds.
const DefaultCapacity = 20

// ErrIndexOutOfRange is returned for any position outside [0, len) and for
// positions that are not integers at all.
var ErrIndexOutOfRange = errors.New("index out of range")

// Collection is safe for concurrent use. Every mutator is atomic: readers
// never observe a half-applied change.
type Collection struct {
	mu       sync.RWMutex
	files    []PendingFile
	capacity int
	revision uint64
}

// New returns an empty collection. A capacity <= 0 selects DefaultCapacity.
func New(capacity int) *Collection {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Collection{capacity: capacity}
}

// Cap returns the maximum number of files.
func (c *Collection) Cap() int { return c.capacity }

// Len returns the current number of files.
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.files)
}

// Revision increments on every successful mutation.
func (c *Collection) Revision() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.revision
}

// Files returns a snapshot of the sequence in order.
func (c *Collection) Files() []PendingFile {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]PendingFile, len(c.files))
	copy(out, c.files)
	return out
}

// Get looks a file up by identity.
func (c *Collection) Get(id string) (PendingFile, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, f := range c.files {
		if f.ID == id {
			return f, true
		}
	}
	return PendingFile{}, false
}

// Contains reports whether a file with the given identity is present.
func (c *Collection) Contains(id string) bool {
	_, ok := c.Get(id)
	return ok
}

// Append adds files to the end in their relative order. Files that do not fit
// under the capacity are not appended; they are counted in dropped.
// Files already present are never evicted.
func (c *Collection) Append(files ...PendingFile) (added []PendingFile, dropped int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	room := c.capacity - len(c.files)
	if room < 0 {
		room = 0
	}
	if len(files) > room {
		dropped = len(files) - room
		files = files[:room]
	}
	if len(files) == 0 {
		return nil, dropped
	}

	c.files = append(c.files, files...)
	c.revision++

	added = make([]PendingFile, len(files))
	copy(added, files)
	return added, dropped
}

// RemoveAt deletes the file at index; later files shift down by one.
func (c *Collection) RemoveAt(index int) (PendingFile, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if index < 0 || index >= len(c.files) {
		return PendingFile{}, errors.Wrapf(ErrIndexOutOfRange, "remove %d of %d", index, len(c.files))
	}
	removed := c.files[index]
	c.files = slices.Delete(c.files, index, index+1)
	c.revision++
	return removed, nil
}

// MoveTo takes the file at from out of the sequence and reinserts it at to,
// where to is read against the sequence after removal.
func (c *Collection) MoveTo(from, to int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.files)
	if from < 0 || from >= n || to < 0 || to >= n {
		return errors.Wrapf(ErrIndexOutOfRange, "move %d to %d of %d", from, to, n)
	}
	if from == to {
		return nil
	}

	moved := c.files[from]
	c.files = slices.Delete(c.files, from, from+1)
	c.files = slices.Insert(c.files, to, moved)
	c.revision++
	return nil
}

// ParseIndex converts an externally supplied position, e.g. a drag payload,
// into an int. Anything that is not a plain non-negative base-10 integer is
// ErrIndexOutOfRange; range against a concrete length is checked by the
// mutators.
func ParseIndex(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" || s[0] == '+' || s[0] == '-' {
		return 0, errors.Wrapf(ErrIndexOutOfRange, "malformed index %q", s)
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.Wrapf(ErrIndexOutOfRange, "malformed index %q", s)
	}
	return i, nil
}
