// Package merge concatenates pending files into one PDF.
package merge

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/bradsaid/pdf-merger/internal/collection"
)

var (
	// ErrInsufficientFiles means fewer than two files were given.
	ErrInsufficientFiles = errors.New("at least 2 files are required")
	// ErrMergeInProgress means another merge holds the engine.
	ErrMergeInProgress = errors.New("merge already in progress")
)

// Error reports the file a merge failed on. Cause is logged, not shown.
type Error struct {
	Index int // -1 when serializing the output failed
	Name  string
	Cause error
}

func (e *Error) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("merge output: %v", e.Cause)
	}
	return fmt.Sprintf("merge file %d (%s): %v", e.Index, e.Name, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

// Document is one decoded input, ready to be appended.
type Document interface {
	PageCount() int
}

// Assembly is the output document under construction.
type Assembly interface {
	Append(doc Document) error
	PageCount() int
	Write(w io.Writer) error
}

// Backend decodes inputs and assembles output.
type Backend interface {
	LoadPDF(content []byte) (Document, error)
	ImagePage(content []byte, t collection.MediaType) (Document, error)
	NewAssembly() Assembly
}

// Engine runs at most one merge at a time.
type Engine struct {
	backend Backend
	sem     *semaphore.Weighted
	log     *zap.SugaredLogger
}

// NewEngine returns an Engine over backend.
func NewEngine(backend Backend, log *zap.SugaredLogger) *Engine {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Engine{backend: backend, sem: semaphore.NewWeighted(1), log: log}
}

// Merge appends every page of files, in order, to a fresh document and
// returns its serialized bytes. Images become one page each. Nothing is
// returned on failure.
func (e *Engine) Merge(ctx context.Context, files []collection.PendingFile) ([]byte, error) {
	if len(files) < 2 {
		return nil, ErrInsufficientFiles
	}
	if !e.sem.TryAcquire(1) {
		return nil, ErrMergeInProgress
	}
	defer e.sem.Release(1)

	out := e.backend.NewAssembly()
	for i, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, e.fail(i, f, err)
		}
		doc, err := e.load(f)
		if err != nil {
			return nil, e.fail(i, f, err)
		}
		if err := out.Append(doc); err != nil {
			return nil, e.fail(i, f, errors.Wrap(err, "append pages"))
		}
		e.log.Debugw("[merge] appended", "index", i, "name", f.Name, "pages", doc.PageCount())
	}

	var buf bytes.Buffer
	if err := out.Write(&buf); err != nil {
		e.log.Errorw("[merge] write failed", "error", err)
		return nil, &Error{Index: -1, Cause: errors.Wrap(err, "write merged pdf")}
	}
	e.log.Infow("[merge] done", "files", len(files), "pages", out.PageCount(), "bytes", buf.Len())
	return buf.Bytes(), nil
}

func (e *Engine) load(f collection.PendingFile) (doc Document, err error) {
	defer func() {
		if r := recover(); r != nil {
			doc, err = nil, errors.Errorf("decoder panicked: %v", r)
		}
	}()
	if f.Type == collection.PDF {
		return e.backend.LoadPDF(f.Content)
	}
	return e.backend.ImagePage(f.Content, f.Type)
}

func (e *Engine) fail(i int, f collection.PendingFile, cause error) error {
	e.log.Errorw("[merge] failed", "index", i, "name", f.Name, "type", f.Type.String(), "error", cause)
	return &Error{Index: i, Name: f.Name, Cause: cause}
}
