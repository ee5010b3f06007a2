// Package workspace ties one collection to its preview board and merge
// engine. It is the only place that mutates the collection.
package workspace

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/bradsaid/pdf-merger/internal/collection"
	"github.com/bradsaid/pdf-merger/internal/intake"
	"github.com/bradsaid/pdf-merger/internal/merge"
	"github.com/bradsaid/pdf-merger/internal/preview"
	"github.com/bradsaid/pdf-merger/internal/view"
)

// Workspace is safe for concurrent use.
type Workspace struct {
	// mu pairs each collection change with its preview board change so a
	// board entry never outlives its file.
	mu     sync.Mutex
	files  *collection.Collection
	intake *intake.Normalizer
	board  *preview.Board
	engine *merge.Engine
	log    *zap.SugaredLogger
}

// New returns an empty Workspace holding at most maxFiles files.
func New(maxFiles int, board *preview.Board, engine *merge.Engine, log *zap.SugaredLogger) *Workspace {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Workspace{
		files:  collection.New(maxFiles),
		intake: intake.New(),
		board:  board,
		engine: engine,
		log:    log,
	}
}

// Add accepts raw into the collection and schedules previews for every file
// that made it in. Previews outlive ctx's cancellation.
func (w *Workspace) Add(ctx context.Context, raw []intake.RawFile) (intake.Result, error) {
	w.mu.Lock()
	res, err := w.intake.Accept(raw, w.files)
	if len(res.Added) > 0 {
		w.board.Schedule(context.WithoutCancel(ctx), res.Added...)
	}
	w.mu.Unlock()
	w.log.Infow("[files] add",
		"offered", len(raw), "added", len(res.Added), "rejected", res.Rejected,
		"dropped", res.Dropped, "total", w.files.Len())
	return res, err
}

// Remove deletes the file at the position given as a decimal string.
// Malformed or out of range positions are logged and ignored.
func (w *Workspace) Remove(index string) bool {
	i, err := collection.ParseIndex(index)
	if err != nil {
		w.log.Warnw("[files] remove ignored", "index", index, "error", err)
		return false
	}
	w.mu.Lock()
	f, err := w.files.RemoveAt(i)
	if err == nil {
		w.board.Forget(f.ID)
	}
	w.mu.Unlock()
	if err != nil {
		w.log.Warnw("[files] remove ignored", "index", i, "error", err)
		return false
	}
	w.log.Infow("[files] removed", "index", i, "name", f.Name)
	return true
}

// Move relocates the file at from to position to.
// Malformed or out of range positions are logged and ignored.
func (w *Workspace) Move(from, to string) bool {
	fi, err := collection.ParseIndex(from)
	if err != nil {
		w.log.Warnw("[files] move ignored", "from", from, "to", to, "error", err)
		return false
	}
	ti, err := collection.ParseIndex(to)
	if err != nil {
		w.log.Warnw("[files] move ignored", "from", from, "to", to, "error", err)
		return false
	}
	if err := w.files.MoveTo(fi, ti); err != nil {
		w.log.Warnw("[files] move ignored", "from", fi, "to", ti, "error", err)
		return false
	}
	w.log.Debugw("[files] moved", "from", fi, "to", ti)
	return true
}

// Rows projects the current collection.
func (w *Workspace) Rows() []view.Row {
	return view.Project(w.files.Files(), w.board.State)
}

// Revision changes after every successful mutation.
func (w *Workspace) Revision() uint64 { return w.files.Revision() }

// MaxFiles is the collection capacity.
func (w *Workspace) MaxFiles() int { return w.files.Cap() }

// Len is the number of files held.
func (w *Workspace) Len() int { return w.files.Len() }

// Preview returns the preview of a file still in the collection.
func (w *Workspace) Preview(id string) (preview.Preview, bool) {
	if !w.files.Contains(id) {
		return preview.Preview{}, false
	}
	return w.board.Get(id)
}

// Placeholder is the bitmap shown for failed previews.
func (w *Workspace) Placeholder() []byte { return w.board.Placeholder() }

// Merge merges a snapshot of the collection. The collection is not consumed.
func (w *Workspace) Merge(ctx context.Context) ([]byte, error) {
	return w.engine.Merge(ctx, w.files.Files())
}

// WaitPreviews blocks until no preview is rendering.
func (w *Workspace) WaitPreviews() { w.board.Wait() }
