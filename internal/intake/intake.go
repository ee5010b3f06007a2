// Package intake turns raw file selections into accepted PendingFiles.
package intake

import (
	"encoding/hex"
	"mime"
	"net/http"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/text/unicode/norm"

	"github.com/bradsaid/pdf-merger/internal/collection"
)

var (
	// ErrNoValidFiles means a batch contained no PDF or image.
	ErrNoValidFiles = errors.New("no valid files")
	// ErrCapacityExceeded means the tail of a batch did not fit.
	ErrCapacityExceeded = errors.New("capacity exceeded")
)

// RawFile is an unvalidated input as delivered by a picker, a drop, the
// command line or a manifest.
type RawFile struct {
	DeclaredType string
	Name         string
	Content      []byte
}

// Result describes what one Accept call did.
type Result struct {
	Added    []collection.PendingFile
	Rejected int // wrong media type
	Dropped  int // did not fit under capacity
}

// Normalizer filters raw files and appends the accepted ones to a collection.
type Normalizer struct {
	newID func() string
}

// New returns a Normalizer that assigns random UUIDs.
func New() *Normalizer {
	return &Normalizer{newID: uuid.NewString}
}

// Accept appends every acceptable file of raw to c, in order. When nothing
// is acceptable c is left untouched and ErrNoValidFiles is returned. When the
// batch does not fit, the leading files that fit are kept and
// ErrCapacityExceeded is returned together with the Result.
func (n *Normalizer) Accept(raw []RawFile, c *collection.Collection) (Result, error) {
	var (
		res      Result
		accepted []collection.PendingFile
	)
	for _, rf := range raw {
		t, ok := Classify(rf.DeclaredType)
		if !ok {
			res.Rejected++
			continue
		}
		accepted = append(accepted, n.pending(rf, t))
	}
	if len(accepted) == 0 {
		return res, ErrNoValidFiles
	}

	res.Added, res.Dropped = c.Append(accepted...)
	if res.Dropped > 0 {
		return res, errors.Wrapf(ErrCapacityExceeded, "%d of %d files dropped at %d", res.Dropped, len(accepted), c.Cap())
	}
	return res, nil
}

func (n *Normalizer) pending(rf RawFile, t collection.MediaType) collection.PendingFile {
	sum := blake2b.Sum256(rf.Content)
	return collection.PendingFile{
		ID:      n.newID(),
		Name:    displayName(rf.Name),
		Type:    t,
		Content: rf.Content,
		Digest:  hex.EncodeToString(sum[:]),
	}
}

// Classify maps a declared media type to a MediaType. Only application/pdf
// and image/* are accepted.
func Classify(declared string) (collection.MediaType, bool) {
	mt := strings.ToLower(strings.TrimSpace(declared))
	if parsed, _, err := mime.ParseMediaType(mt); err == nil {
		mt = parsed
	}
	switch {
	case mt == "application/pdf":
		return collection.PDF, true
	case mt == "image/jpeg", mt == "image/jpg", mt == "image/pjpeg":
		return collection.ImageJPEG, true
	case mt == "image/png":
		return collection.ImagePNG, true
	case strings.HasPrefix(mt, "image/"):
		return collection.ImageOther, true
	}
	return 0, false
}

// DeclaredTypeFor guesses the declared type of a file that did not come with
// one, by extension first and by content second.
func DeclaredTypeFor(name string, content []byte) string {
	if t := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); t != "" {
		return t
	}
	return http.DetectContentType(content)
}

func displayName(name string) string {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), `\`, "/"))
	name = norm.NFC.String(name)
	if name == "" || name == "." || name == "/" {
		return "untitled"
	}
	return name
}
