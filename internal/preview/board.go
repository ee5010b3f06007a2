package preview

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/bradsaid/pdf-merger/internal/collection"
)

// State of one thumbnail.
type State int

const (
	Pending State = iota
	Ready
	Failed
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Preview is the board's view of one file's thumbnail.
type Preview struct {
	State  State
	PNG    []byte // set when Ready
	Width  int
	Height int
	Digest string // content digest of the source file
}

// Board keeps one Preview per file ID and renders them in the background.
type Board struct {
	renderer Renderer
	opts     Options
	sem      *semaphore.Weighted
	log      *zap.SugaredLogger

	mu      sync.Mutex
	entries map[string]*Preview
	wg      sync.WaitGroup

	placeholderOnce sync.Once
	placeholder     []byte
}

// NewBoard returns a Board running at most opts.Workers renders at a time.
func NewBoard(r Renderer, opts Options, log *zap.SugaredLogger) *Board {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Board{
		renderer: r,
		opts:     opts,
		sem:      semaphore.NewWeighted(int64(opts.Workers)),
		log:      log,
		entries:  make(map[string]*Preview),
	}
}

// Schedule marks each file Pending and starts rendering it. It does not wait.
func (b *Board) Schedule(ctx context.Context, files ...collection.PendingFile) {
	for _, f := range files {
		entry := &Preview{State: Pending, Digest: f.Digest}
		b.mu.Lock()
		b.entries[f.ID] = entry
		b.mu.Unlock()

		b.wg.Add(1)
		go b.run(ctx, f, entry)
	}
}

func (b *Board) run(ctx context.Context, f collection.PendingFile, entry *Preview) {
	defer b.wg.Done()

	if err := b.sem.Acquire(ctx, 1); err != nil {
		b.complete(f.ID, entry, nil, 0, 0, err)
		return
	}
	defer b.sem.Release(1)

	// Skip work for files removed while queued.
	if !b.current(f.ID, entry) {
		return
	}

	img, err := b.render(ctx, f)
	if err != nil {
		b.complete(f.ID, entry, nil, 0, 0, err)
		return
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		b.complete(f.ID, entry, nil, 0, 0, errors.Wrap(err, "encode thumbnail"))
		return
	}
	bounds := img.Bounds()
	b.complete(f.ID, entry, buf.Bytes(), bounds.Dx(), bounds.Dy(), nil)
}

func (b *Board) render(ctx context.Context, f collection.PendingFile) (img image.Image, err error) {
	defer func() {
		if r := recover(); r != nil {
			img, err = nil, errors.Errorf("render panicked: %v", r)
		}
	}()
	return b.renderer.Render(ctx, f)
}

func (b *Board) current(id string, entry *Preview) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.entries[id] == entry
}

// complete records the outcome unless id was forgotten or already settled.
func (b *Board) complete(id string, entry *Preview, data []byte, w, h int, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.entries[id] != entry || entry.State != Pending {
		b.log.Debugw("[preview] stale completion ignored", "id", id)
		return
	}
	if err != nil {
		b.log.Warnw("[preview] render failed", "id", id, "error", err)
		b.entries[id] = &Preview{State: Failed, Digest: entry.Digest}
		return
	}
	b.entries[id] = &Preview{State: Ready, PNG: data, Width: w, Height: h, Digest: entry.Digest}
}

// Forget drops the entry for id. A render still running for it is discarded.
func (b *Board) Forget(id string) {
	b.mu.Lock()
	delete(b.entries, id)
	b.mu.Unlock()
}

// Get returns a copy of the entry for id.
func (b *Board) Get(id string) (Preview, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.entries[id]
	if !ok {
		return Preview{}, false
	}
	return *p, true
}

// State returns the state for id, or Pending for unknown IDs.
func (b *Board) State(id string) State {
	p, ok := b.Get(id)
	if !ok {
		return Pending
	}
	return p.State
}

// Wait blocks until every scheduled render has finished.
func (b *Board) Wait() { b.wg.Wait() }

// Placeholder returns the PNG served for failed previews.
func (b *Board) Placeholder() []byte {
	b.placeholderOnce.Do(func() {
		img, err := DrawPlaceholder(b.opts.BoxWidth, b.opts.BoxHeight, "Preview", "unavailable")
		if err != nil {
			b.log.Errorw("[preview] placeholder", "error", err)
			return
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			b.log.Errorw("[preview] placeholder", "error", err)
			return
		}
		b.placeholder = buf.Bytes()
	})
	return b.placeholder
}
