package atlas

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"log"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func quiet() *log.Logger { return log.New(&bytes.Buffer{}, "", 0) }

func TestShelfPacking(t *testing.T) {
	sizes := []image.Point{{16, 16}, {32, 32}, {16, 16}, {64, 16}}
	slots, pages, err := pack(sizes, 64)
	require.NoError(t, err)
	assert.Equal(t, 1, pages)

	// Mais alto primeiro (32x32), depois o mais largo da altura 16.
	assert.Equal(t, image.Rect(0, 0, 32, 32), slots[1].rect)
	assert.Equal(t, image.Rect(0, 32, 64, 48), slots[3].rect)
	assert.Equal(t, image.Rect(0, 48, 16, 64), slots[0].rect)
	assert.Equal(t, image.Rect(16, 48, 32, 64), slots[2].rect)

	for i := range slots {
		for j := i + 1; j < len(slots); j++ {
			if slots[i].page == slots[j].page {
				assert.False(t, slots[i].rect.Overlaps(slots[j].rect), "%d e %d sobrepostos", i, j)
			}
		}
	}
}

func TestShelfPackingOpensPages(t *testing.T) {
	sizes := []image.Point{{32, 32}, {32, 32}, {32, 32}, {32, 32}, {32, 32}}
	slots, pages, err := pack(sizes, 64)
	require.NoError(t, err)
	assert.Equal(t, 2, pages)
	assert.Equal(t, 1, slots[4].page)
	assert.Equal(t, image.Rect(0, 0, 32, 32), slots[4].rect)
}

func TestPackRejectsOversize(t *testing.T) {
	_, _, err := pack([]image.Point{{65, 1}}, 64)
	assert.Error(t, err)
}

func TestBuildPlacementsAndPixels(t *testing.T) {
	red := solid(16, 16, color.RGBA{255, 0, 0, 255})
	blue := solid(32, 16, color.RGBA{0, 0, 255, 255})

	a, err := Build([]image.Image{red, blue}, 64, quiet())
	require.NoError(t, err)
	require.Len(t, a.Pages, 1)
	require.Len(t, a.Placements, 2)

	// blue é mais largo, vai primeiro.
	assert.Equal(t, mgl32.Vec2{0, 0}, a.Placements[1].Offset)
	assert.Equal(t, mgl32.Vec2{0.5, 0.25}, a.Placements[1].Scale)
	assert.Equal(t, mgl32.Vec2{0.5, 0}, a.Placements[0].Offset)
	assert.Equal(t, mgl32.Vec2{0.25, 0.25}, a.Placements[0].Scale)
	assert.Equal(t, uint32(16), a.Placements[0].Width)

	assert.Equal(t, color.RGBA{0, 0, 255, 255}, a.Pages[0].RGBAAt(5, 5))
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, a.Pages[0].RGBAAt(40, 5))
	assert.Equal(t, color.RGBA{}, a.Pages[0].RGBAAt(5, 40))
}

func TestBuildDownscalesOversize(t *testing.T) {
	big := solid(128, 64, color.RGBA{0, 255, 0, 255})
	a, err := Build([]image.Image{big}, 64, quiet())
	require.NoError(t, err)

	pl := a.Placements[0]
	assert.Equal(t, mgl32.Vec2{1, 0.5}, pl.Scale)
	// Tamanho original é preservado para recortes em pixels.
	assert.Equal(t, uint32(128), pl.Width)
	assert.Equal(t, uint32(64), pl.Height)
}

func TestBuildInvalidPageSize(t *testing.T) {
	_, err := Build(nil, 0, quiet())
	assert.Error(t, err)
}

func writePNG(t *testing.T, fs billy.Basic, name string, img image.Image) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, util.WriteFile(fs, name, buf.Bytes(), 0o644))
}

func TestFetchWaitsForAllTextures(t *testing.T) {
	fs := memfs.New()
	writePNG(t, fs, "stone.png", solid(8, 8, color.RGBA{1, 2, 3, 255}))
	writePNG(t, fs, "dirt/mud.png", solid(4, 2, color.RGBA{9, 9, 9, 255}))

	imgs, err := Fetch(context.Background(), fs, []string{"stone.png", "dirt/mud.png"}, 2, quiet()).Wait(context.Background())
	require.NoError(t, err)
	require.Len(t, imgs, 2)
	assert.Equal(t, image.Pt(8, 8), imgs[0].Bounds().Size())
	assert.Equal(t, image.Pt(4, 2), imgs[1].Bounds().Size())
}

func TestFetchFailureIsFatal(t *testing.T) {
	fs := memfs.New()
	writePNG(t, fs, "stone.png", solid(8, 8, color.RGBA{1, 2, 3, 255}))
	require.NoError(t, util.WriteFile(fs, "broken.png", []byte("não é png"), 0o644))

	_, err := Fetch(context.Background(), fs, []string{"stone.png", "missing.png", "broken.png"}, 1, quiet()).Wait(context.Background())
	require.Error(t, err)
}

func TestWaitHonorsContext(t *testing.T) {
	p := &Pending{done: make(chan struct{})}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
