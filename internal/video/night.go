package video

import (
	"image"
	"math"
)

// DefaultNightTolerance is the maximum channel-mean spread for a frame to
// count as grayscale.
const DefaultNightTolerance = 2.0

// ClassifyNight reports whether a representative frame looks like a
// night-time (infrared) capture. It computes the mean of each color channel
// over the full image and classifies as night when the pairwise absolute
// differences among the three means are all within the tolerance, i.e. the
// frame is effectively grayscale.
func ClassifyNight(img image.Image, tolerance float64) bool {
	meanR, meanG, meanB := channelMeans(img)
	return math.Abs(meanR-meanG) <= tolerance &&
		math.Abs(meanR-meanB) <= tolerance &&
		math.Abs(meanG-meanB) <= tolerance
}

// channelMeans returns the per-channel means on the 0-255 scale.
func channelMeans(img image.Image) (meanR, meanG, meanB float64) {
	bounds := img.Bounds()
	pixels := bounds.Dx() * bounds.Dy()
	if pixels == 0 {
		return 0, 0, 0
	}

	var sumR, sumG, sumB float64
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			// RGBA returns 16-bit channels
			sumR += float64(r >> 8)
			sumG += float64(g >> 8)
			sumB += float64(b >> 8)
		}
	}
	n := float64(pixels)
	return sumR / n, sumG / n, sumB / n
}
