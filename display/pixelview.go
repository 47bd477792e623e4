// Package display is an optional, host-side live viewer for a
// PixelBlock: it is never imported by package machine or package
// canvas, only a consumer of canvas.Controller like the original
// browser UI was. Grounded on bdwalton-gintendo's console.Bus, the
// only ebiten.Game implementation in the retrieved corpus: a Layout
// that reports a fixed logical resolution, a Draw that blits the
// current buffer, and an Update that does nothing because the actual
// stepping happens on a separate goroutine instead of ebiten's frame
// callback.
package display

import (
	"context"
	"image"
	"math"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/hajimehoshi/ebiten/v2"
	"golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"

	"github.com/heypoom/machine-canvas/canvas"
	"github.com/heypoom/machine-canvas/machine"
)

// View renders one PixelBlock's buffer as a square window, upscaled
// with nearest-neighbor so individual pixels stay sharp.
type View struct {
	mu      sync.Mutex
	c       *canvas.Canvas
	blockID machine.Word
	scale   int

	side int // cached logical side length, recomputed each Draw
}

// NewView returns a View over the PixelBlock at blockID within c,
// upscaled by the given integer scale (e.g. 8 means one logical pixel
// becomes an 8x8 square on screen).
func NewView(c *canvas.Canvas, blockID machine.Word, scale int) *View {
	if scale <= 0 {
		scale = 8
	}
	return &View{c: c, blockID: blockID, scale: scale}
}

// Layout reports the window's logical resolution, forcing ebiten to
// scale the screen rather than the game logic on resize — the same
// trade bdwalton-gintendo's Bus.Layout makes.
func (v *View) Layout(int, int) (int, int) {
	v.mu.Lock()
	side := v.side
	v.mu.Unlock()
	if side == 0 {
		side = 1
	}
	return side * v.scale, side * v.scale
}

// Update is a no-op: the simulation loop stepping the canvas runs on
// its own goroutine, started by Run, not on ebiten's callback.
func (v *View) Update() error { return nil }

// Draw snapshots the PixelBlock's current buffer and blits it,
// nearest-neighbor upscaled to the window size.
func (v *View) Draw(screen *ebiten.Image) {
	pixels, ok := v.snapshot()
	if !ok || len(pixels) == 0 {
		return
	}

	side := int(math.Sqrt(float64(len(pixels))))
	if side == 0 {
		return
	}

	src := image.NewGray(image.Rect(0, 0, side, side))
	for i, w := range pixels {
		src.Pix[i] = byte(w)
	}

	dst := screen.SubImage(screen.Bounds()).(*ebiten.Image)
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
}

func (v *View) snapshot() ([]machine.Word, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	block, err := v.c.GetBlock(v.blockID)
	if err != nil {
		return nil, false
	}
	pixel, ok := block.Data.(*canvas.PixelBlock)
	if !ok {
		return nil, false
	}

	v.side = int(math.Sqrt(float64(len(pixel.Pixels))))
	out := make([]machine.Word, len(pixel.Pixels))
	copy(out, pixel.Pixels)
	return out, true
}

// tick advances the canvas by one tick under the view's lock, so Draw
// never observes a torn write.
func (v *View) tick() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.c.Tick()
}

// Run starts the simulation loop on its own goroutine and blocks on
// ebiten's render loop until the window closes; closing the window
// cancels the simulation loop, so Run then returns context.Canceled.
// If a tick fails or ctx is canceled first, the simulation loop stops
// and that error is what Run returns, but only once the window has
// been closed. golang.org/x/sync/errgroup supervises the pair — the
// one concurrency use in this entire repository outside of what a
// host-supplied effect handler does on its own.
func (v *View) Run(ctx context.Context, tickInterval time.Duration) error {
	ebiten.SetWindowTitle("machine canvas — pixel view")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		ticker := time.NewTicker(tickInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				if err := v.tick(); err != nil {
					glog.Warningf("display: tick failed: %v", err)
					return err
				}
			}
		}
	})

	g.Go(func() error {
		defer cancel()
		return ebiten.RunGame(v)
	})

	return g.Wait()
}
