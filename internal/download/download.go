// Package download hands a merged document to the user, either as an HTTP
// attachment or as a file on disk.
package download

import (
	"bytes"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/pkg/errors"
)

// ContentType of every merged document.
const ContentType = "application/pdf"

// Serve writes data as an attachment named name.
func Serve(w http.ResponseWriter, r *http.Request, data []byte, name string) {
	w.Header().Set("Content-Type", ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+quotable(name)+`"`)
	w.Header().Set("Cache-Control", "no-store")
	http.ServeContent(w, r, name, time.Time{}, bytes.NewReader(data))
}

// quotable drops the characters that cannot appear inside a quoted filename.
func quotable(name string) string {
	return strings.Map(func(r rune) rune {
		if r == '"' || r == '\\' || unicode.IsControl(r) {
			return -1
		}
		return r
	}, name)
}

// SaveFile writes data to path through a temporary file in the same
// directory, so path either keeps its old content or holds all of data.
func SaveFile(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "create output dir")
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	tmp := f.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmp)
		}
	}()

	if _, err = f.Write(data); err != nil {
		f.Close()
		return errors.Wrap(err, "write temp file")
	}
	if err = f.Sync(); err != nil {
		f.Close()
		return errors.Wrap(err, "sync temp file")
	}
	if err = f.Close(); err != nil {
		return errors.Wrap(err, "close temp file")
	}
	if err = os.Chmod(tmp, 0o644); err != nil {
		return errors.Wrap(err, "chmod temp file")
	}
	if err = os.Rename(tmp, path); err != nil {
		return errors.Wrap(err, "rename temp file")
	}
	return nil
}
