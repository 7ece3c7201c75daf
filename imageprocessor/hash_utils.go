package imageprocessor

import (
	"errors"
	"fmt"
	"image"
	"math"
	"sort"

	"imagesync/types"

	"github.com/corona10/goimagehash"
	"github.com/disintegration/imaging"
	"github.com/rivo/duplo/haar"
)

// Perceptual fingerprint family names
const (
	FamilyAverage    = "ahash"
	FamilyPerception = "phash"
	FamilyDifference = "dhash"
	FamilyWavelet    = "whash"
)

// Families lists every perceptual family in evaluation order
var Families = []string{FamilyAverage, FamilyPerception, FamilyDifference, FamilyWavelet}

// DefaultHashSize is the side length of the hash grid (16x16 = 256 bits)
const DefaultHashSize = 16

// ErrInvalidHashSize is returned for hash sizes that are not a power of two in [8, 64]
var ErrInvalidHashSize = errors.New("hash size must be a power of two between 8 and 64")

// ValidateHashSize checks the hash grid side length
func ValidateHashSize(size int) error {
	if size < 8 || size > 64 || size&(size-1) != 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidHashSize, size)
	}
	return nil
}

// ComputeHashes calculates all four perceptual families for an already
// decoded image
func ComputeHashes(img image.Image, hashSize int) (map[string]types.Fingerprint, error) {
	if img == nil {
		return nil, errors.New("cannot compute hash for nil image")
	}
	if err := ValidateHashSize(hashSize); err != nil {
		return nil, err
	}

	// Canonical pixel layout regardless of the source colour model
	nrgba := imaging.Clone(img)
	if nrgba.Bounds().Empty() {
		return nil, errors.New("cannot compute hash for empty image")
	}

	hashes := make(map[string]types.Fingerprint, len(Families))

	ahash, err := goimagehash.ExtAverageHash(nrgba, hashSize, hashSize)
	if err != nil {
		return nil, fmt.Errorf("average hash: %w", err)
	}
	hashes[FamilyAverage] = fromExtHash(ahash)

	phash, err := goimagehash.ExtPerceptionHash(nrgba, hashSize, hashSize)
	if err != nil {
		return nil, fmt.Errorf("perception hash: %w", err)
	}
	hashes[FamilyPerception] = fromExtHash(phash)

	dhash, err := goimagehash.ExtDifferenceHash(nrgba, hashSize, hashSize)
	if err != nil {
		return nil, fmt.Errorf("difference hash: %w", err)
	}
	hashes[FamilyDifference] = fromExtHash(dhash)

	hashes[FamilyWavelet] = ComputeWaveletHash(nrgba, hashSize)

	return hashes, nil
}

// fromExtHash copies a goimagehash result into a Fingerprint. Both use the
// same most-significant-bit-first word layout.
func fromExtHash(h *goimagehash.ExtImageHash) types.Fingerprint {
	words := h.GetHash()
	fp := types.Fingerprint{Bits: h.Bits(), Words: make([]uint64, len(words))}
	copy(fp.Words, words)
	return fp
}

// waveletScale is how much larger than the hash grid the image is sampled
// before the Haar transform
const waveletScale = 8

// ComputeWaveletHash computes a Haar wavelet hash. The grayscale image is
// transformed at waveletScale times the grid size, the low-frequency block
// is inverted back into an approximation image at grid resolution, and each
// cell is compared against the median.
func ComputeWaveletHash(img image.Image, hashSize int) types.Fingerprint {
	side := hashSize * waveletScale
	gray := imaging.Grayscale(imaging.Resize(img, side, side, imaging.Box))

	matrix := haar.Transform(gray)
	width := int(matrix.Width)

	values := make([]float64, hashSize*hashSize)
	for y := 0; y < hashSize; y++ {
		for x := 0; x < hashSize; x++ {
			// Channel 0 is luminance in YIQ
			values[y*hashSize+x] = matrix.Coefs[y*width+x][0]
		}
	}
	inverseHaar2D(values, hashSize)

	median := calculateMedian(values)
	fp := types.NewFingerprint(hashSize * hashSize)
	for i, v := range values {
		if v > median {
			fp.Set(i)
		}
	}
	return fp
}

// inverseHaar2D undoes a standard Haar decomposition of an n x n block in place
func inverseHaar2D(values []float64, n int) {
	column := make([]float64, n)
	for x := 0; x < n; x++ {
		for y := 0; y < n; y++ {
			column[y] = values[y*n+x]
		}
		inverseHaar1D(column)
		for y := 0; y < n; y++ {
			values[y*n+x] = column[y]
		}
	}
	for y := 0; y < n; y++ {
		inverseHaar1D(values[y*n : (y+1)*n])
	}
}

func inverseHaar1D(data []float64) {
	tmp := make([]float64, len(data))
	for step := 1; step < len(data); step *= 2 {
		for i := 0; i < step; i++ {
			sum, diff := data[i], data[i+step]
			tmp[2*i] = (sum + diff) / math.Sqrt2
			tmp[2*i+1] = (sum - diff) / math.Sqrt2
		}
		copy(data[:2*step], tmp[:2*step])
	}
}

// calculateMedian calculates the median value of a float64 slice
func calculateMedian(values []float64) float64 {
	// Make a copy to avoid modifying the original slice
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	length := len(sorted)
	switch {
	case length == 0:
		return 0
	case length%2 == 0:
		return (sorted[length/2-1] + sorted[length/2]) / 2
	default:
		return sorted[length/2]
	}
}
