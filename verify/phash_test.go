package verify

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func uniformImage(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func gradientImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8((x * 255) / w)
			img.Set(x, y, color.RGBA{v, uint8((y * 255) / h), 255 - v, 255})
		}
	}
	return img
}

func invertedGradientImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8((x * 255) / w)
			img.Set(x, y, color.RGBA{255 - v, uint8(255 - (y*255)/h), v, 255})
		}
	}
	return img
}

func TestHammingDistance(t *testing.T) {
	assert.Equal(t, 0, HammingDistance(0, 0))
	assert.Equal(t, 1, HammingDistance(0, 1))
	assert.Equal(t, 64, HammingDistance(0, ^uint64(0)))
	assert.Equal(t, 2, HammingDistance(0b1010, 0b0110))
}

func TestAverageHash_Stable(t *testing.T) {
	img := gradientImage(160, 120)

	assert.Equal(t, AverageHash(img), AverageHash(img))
}

func TestAverageHash_DistinguishesContent(t *testing.T) {
	a := AverageHash(gradientImage(160, 120))
	b := AverageHash(invertedGradientImage(160, 120))

	assert.GreaterOrEqual(t, HammingDistance(a, b), 5)
}

func TestAverageHash_ScaleInvariant(t *testing.T) {
	small := AverageHash(gradientImage(80, 60))
	large := AverageHash(gradientImage(800, 600))

	assert.LessOrEqual(t, HammingDistance(small, large), 4)
}

func TestDominantColorRatio_Blank(t *testing.T) {
	img := uniformImage(100, 100, color.RGBA{10, 20, 30, 255})

	assert.InDelta(t, 1.0, DominantColorRatio(img), 0.001)
}

func TestDominantColorRatio_Varied(t *testing.T) {
	img := gradientImage(100, 100)

	assert.Less(t, DominantColorRatio(img), 0.5)
}
