package preview

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/bradsaid/pdf-merger/internal/collection"
)

// gatedRenderer blocks each render until its ID is released.
type gatedRenderer struct {
	mu      sync.Mutex
	gates   map[string]chan struct{}
	fail    map[string]bool
	panic   map[string]bool
	started chan string
}

func newGated() *gatedRenderer {
	return &gatedRenderer{
		gates:   map[string]chan struct{}{},
		fail:    map[string]bool{},
		panic:   map[string]bool{},
		started: make(chan string, 16),
	}
}

func (g *gatedRenderer) gate(id string) chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch, ok := g.gates[id]
	if !ok {
		ch = make(chan struct{})
		g.gates[id] = ch
	}
	return ch
}

func (g *gatedRenderer) release(id string) { close(g.gate(id)) }

func (g *gatedRenderer) Render(ctx context.Context, f collection.PendingFile) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.started <- f.ID
	<-g.gate(f.ID)
	g.mu.Lock()
	fail, boom := g.fail[f.ID], g.panic[f.ID]
	g.mu.Unlock()
	if boom {
		panic("decoder exploded")
	}
	if fail {
		return nil, errors.New("corrupt")
	}
	img := image.NewRGBA(image.Rect(0, 0, 10, 13))
	img.Set(0, 0, color.Black)
	return img, nil
}

func file(id string) collection.PendingFile {
	return collection.PendingFile{ID: id, Name: id + ".png", Type: collection.ImagePNG, Digest: "d-" + id}
}

func TestBoardCompletesOutOfOrder(t *testing.T) {
	g := newGated()
	b := NewBoard(g, DefaultOptions(), nil)

	b.Schedule(context.Background(), file("a"), file("b"), file("c"))
	for _, id := range []string{"a", "b", "c"} {
		assert.Equal(t, Pending, b.State(id))
	}

	g.release("c")
	g.release("a")
	g.release("b")
	b.Wait()

	for _, id := range []string{"a", "b", "c"} {
		p, ok := b.Get(id)
		require.True(t, ok)
		assert.Equal(t, Ready, p.State, id)
		assert.Equal(t, 10, p.Width)
		assert.Equal(t, 13, p.Height)
		assert.Equal(t, "d-"+id, p.Digest)
		_, err := png.Decode(bytes.NewReader(p.PNG))
		assert.NoError(t, err)
	}
}

func TestBoardIgnoresCompletionForForgottenFile(t *testing.T) {
	g := newGated()
	b := NewBoard(g, Options{Workers: 2}, nil)

	b.Schedule(context.Background(), file("gone"), file("kept"))
	b.Forget("gone")
	g.release("gone")
	g.release("kept")
	b.Wait()

	_, ok := b.Get("gone")
	assert.False(t, ok)
	assert.Equal(t, Ready, b.State("kept"))
}

func TestBoardFailureIsIsolated(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	g := newGated()
	g.fail["bad"] = true
	g.panic["boom"] = true
	b := NewBoard(g, DefaultOptions(), zap.New(core).Sugar())

	b.Schedule(context.Background(), file("bad"), file("boom"), file("good"))
	g.release("bad")
	g.release("boom")
	g.release("good")
	b.Wait()

	assert.Equal(t, Failed, b.State("bad"))
	assert.Equal(t, Failed, b.State("boom"))
	assert.Equal(t, Ready, b.State("good"))
	assert.Equal(t, 2, logs.FilterMessage("[preview] render failed").Len())
}

func TestBoardCancelledBeforeStartFails(t *testing.T) {
	g := newGated()
	b := NewBoard(g, Options{Workers: 1}, nil)

	b.Schedule(context.Background(), file("first"))
	require.Equal(t, "first", <-g.started)

	ctx, cancel := context.WithCancel(context.Background())
	b.Schedule(ctx, file("queued"))
	cancel()
	g.release("first")
	g.release("queued")
	b.Wait()

	assert.Equal(t, Ready, b.State("first"))
	assert.Equal(t, Failed, b.State("queued"))
}

func TestPlaceholder(t *testing.T) {
	b := NewBoard(newGated(), DefaultOptions(), nil)
	data := b.Placeholder()
	require.NotEmpty(t, data)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 100, 130), img.Bounds())

	// the text is drawn in the foreground colour somewhere
	var inked bool
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y && !inked; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if color.RGBAModel.Convert(img.At(x, y)) != placeholderBg {
				inked = true
				break
			}
		}
	}
	assert.True(t, inked)
	assert.Equal(t, data, b.Placeholder())
}
