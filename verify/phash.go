package verify

import (
	"image"
	"math/bits"
)

// AverageHash computes a 64-bit perceptual hash: the image is box-sampled
// down to 8x8 grayscale and each bit records whether a cell is brighter than
// the mean. Near-duplicate frames produce hashes within a small hamming
// distance of each other.
func AverageHash(img image.Image) uint64 {
	var cells [64]uint64
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return 0
	}

	var counts [64]uint64
	for y := 0; y < h; y++ {
		cy := y * 8 / h
		for x := 0; x < w; x++ {
			cx := x * 8 / w
			r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			// ITU-R BT.601 luma, 16-bit channels
			luma := (299*uint64(r) + 587*uint64(g) + 114*uint64(bl)) / 1000
			cells[cy*8+cx] += luma
			counts[cy*8+cx]++
		}
	}

	var total uint64
	for i := range cells {
		if counts[i] > 0 {
			cells[i] /= counts[i]
		}
		total += cells[i]
	}
	mean := total / 64

	var hash uint64
	for i, v := range cells {
		if v > mean {
			hash |= 1 << uint(i)
		}
	}
	return hash
}

// HammingDistance counts differing bits between two hashes
func HammingDistance(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}

// DominantColorRatio returns the share of the most common color among
// sampled pixels. Blank captures approach 1.0.
func DominantColorRatio(img image.Image) float64 {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return 1.0
	}

	// Sample at most ~64k pixels so large frames stay cheap
	step := 1
	for (w/step)*(h/step) > 1<<16 {
		step++
	}

	counts := make(map[uint32]int)
	total := 0
	for y := 0; y < h; y += step {
		for x := 0; x < w; x += step {
			r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			key := (r>>8)<<16 | (g>>8)<<8 | bl>>8
			counts[key]++
			total++
		}
	}

	max := 0
	for _, c := range counts {
		if c > max {
			max = c
		}
	}
	return float64(max) / float64(total)
}
