package imagevariant

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"time"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/chai2010/webp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"

	types "github.com/yungbote/cms-backend/internal/domain/media"
	"github.com/yungbote/cms-backend/internal/platform/logger"
)

// Rendition is one encoded WebP variant. Err is set when this variant alone failed.
type Rendition struct {
	Name   string
	Data   []byte
	Width  int
	Height int
	Err    error
}

// Result carries the original's dimensions and one Rendition per configured variant,
// in the order of types.VariantNames.
type Result struct {
	Width      int
	Height     int
	Renditions []Rendition
}

// DefaultMaxEdges bounds the longest edge of each variant in pixels.
var DefaultMaxEdges = map[string]int{
	types.VariantThumb:  300,
	types.VariantMedium: 800,
	types.VariantLarge:  1600,
}

type Config struct {
	MaxEdges map[string]int
	Quality  float32
}

type Generator struct {
	log      *logger.Logger
	maxEdges map[string]int
	quality  float32
}

func New(log *logger.Logger, cfg Config) *Generator {
	edges := cfg.MaxEdges
	if len(edges) == 0 {
		edges = DefaultMaxEdges
	}
	q := cfg.Quality
	if q <= 0 || q > 100 {
		q = 80
	}
	return &Generator{log: log.With("service", "ImageVariantGenerator"), maxEdges: edges, quality: q}
}

// Generate decodes src once and renders every variant concurrently. The returned error is
// non-nil only when the original cannot be decoded; per-variant failures land in
// Rendition.Err so the caller can keep whatever succeeded.
func (g *Generator) Generate(ctx context.Context, src []byte) (Result, error) {
	img, _, err := image.Decode(bytes.NewReader(src))
	if err != nil {
		return Result{}, fmt.Errorf("decode original: %w", err)
	}
	b := img.Bounds()
	res := Result{
		Width:      b.Dx(),
		Height:     b.Dy(),
		Renditions: make([]Rendition, len(types.VariantNames)),
	}

	var eg errgroup.Group
	eg.SetLimit(len(types.VariantNames))
	for i, name := range types.VariantNames {
		i, name := i, name
		eg.Go(func() error {
			start := time.Now()
			r := g.render(ctx, img, name)
			if r.Err == nil {
				g.log.Debug("Rendered variant",
					"variant", name,
					"width", r.Width,
					"height", r.Height,
					"bytes", len(r.Data),
					"duration_ms", time.Since(start).Milliseconds(),
				)
			}
			res.Renditions[i] = r
			return nil
		})
	}
	_ = eg.Wait()
	return res, nil
}

func (g *Generator) render(ctx context.Context, img image.Image, name string) (out Rendition) {
	out.Name = name
	defer func() {
		if r := recover(); r != nil {
			out = Rendition{Name: name, Err: fmt.Errorf("render %s: panic: %v", name, r)}
		}
	}()
	if err := ctx.Err(); err != nil {
		out.Err = err
		return out
	}
	maxEdge, ok := g.maxEdges[name]
	if !ok || maxEdge <= 0 {
		out.Err = fmt.Errorf("no size configured for variant %q", name)
		return out
	}

	b := img.Bounds()
	w, h := Fit(b.Dx(), b.Dy(), maxEdge)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)

	var buf bytes.Buffer
	if err := webp.Encode(&buf, dst, &webp.Options{Quality: g.quality}); err != nil {
		out.Err = fmt.Errorf("encode %s: %w", name, err)
		return out
	}
	out.Data = buf.Bytes()
	out.Width = w
	out.Height = h
	return out
}

// Fit scales (w, h) so the longest edge is at most maxEdge, preserving aspect ratio.
// Images already within bounds keep their size.
func Fit(w, h, maxEdge int) (int, int) {
	if w <= 0 || h <= 0 || maxEdge <= 0 {
		return w, h
	}
	longest := w
	if h > longest {
		longest = h
	}
	if longest <= maxEdge {
		return w, h
	}
	nw := w * maxEdge / longest
	nh := h * maxEdge / longest
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}
	return nw, nh
}
