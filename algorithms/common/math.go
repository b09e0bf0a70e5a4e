package common

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Basic statistical functions used across algorithms using gonum for robustness

// Mean calculates the arithmetic mean of a slice using gonum
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return stat.Mean(data, nil)
}

// Variance calculates the sample variance of a slice using gonum
func Variance(data []float64) float64 {
	if len(data) < 2 {
		return 0.0
	}
	return stat.Variance(data, nil)
}

// StandardDeviation calculates the sample standard deviation
func StandardDeviation(data []float64) float64 {
	if len(data) < 2 {
		return 0.0
	}
	return math.Sqrt(Variance(data))
}

// Percentile calculates the p-th percentile (p between 0 and 1)
func Percentile(data []float64, p float64) float64 {
	if len(data) == 0 || p < 0 || p > 1 {
		return 0.0
	}

	// Make a copy and sort
	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)

	// Use gonum's quantile function
	return stat.Quantile(p, stat.Empirical, sorted, nil)
}

// RMS calculates root mean square
func RMS(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}

	sumSquares := 0.0
	for _, val := range data {
		sumSquares += val * val
	}

	return math.Sqrt(sumSquares / float64(len(data)))
}

// MaxNormalize scales data so its maximum absolute value is 1
func MaxNormalize(data []float64) []float64 {
	if len(data) == 0 {
		return data
	}

	maxAbs := floats.Norm(data, math.Inf(1))

	normalized := make([]float64, len(data))
	if maxAbs < 1e-10 {
		return normalized // All zeros
	}

	for i, val := range data {
		normalized[i] = val / maxAbs
	}

	return normalized
}

// MovingAverage calculates simple moving average with given window size
func MovingAverage(data []float64, windowSize int) []float64 {
	if len(data) == 0 || windowSize <= 0 || windowSize > len(data) {
		return data
	}

	result := make([]float64, len(data))

	// Handle initial window
	for i := 0; i < windowSize; i++ {
		sum := 0.0
		for j := 0; j <= i; j++ {
			sum += data[j]
		}
		result[i] = sum / float64(i+1)
	}

	// Sliding window for the rest
	for i := windowSize; i < len(data); i++ {
		sum := 0.0
		for j := i - windowSize + 1; j <= i; j++ {
			sum += data[j]
		}
		result[i] = sum / float64(windowSize)
	}

	return result
}

// MedianFilter applies median filtering with given window size
func MedianFilter(data []float64, windowSize int) []float64 {
	if len(data) == 0 || windowSize <= 0 {
		return data
	}

	if windowSize > len(data) {
		windowSize = len(data)
	}

	result := make([]float64, len(data))
	halfWindow := windowSize / 2

	for i := range data {
		// Define window bounds
		start := i - halfWindow
		end := i + halfWindow + 1

		if start < 0 {
			start = 0
		}
		if end > len(data) {
			end = len(data)
		}

		// Extract window and find median
		window := make([]float64, end-start)
		copy(window, data[start:end])
		sort.Float64s(window)

		// Get median
		mid := len(window) / 2
		if len(window)%2 == 0 {
			result[i] = (window[mid-1] + window[mid]) / 2.0
		} else {
			result[i] = window[mid]
		}
	}

	return result
}

// FindPeaks finds local maxima in data above minHeight, at least
// minDistance samples apart. When two candidate peaks are closer than
// minDistance the higher one wins.
func FindPeaks(data []float64, minHeight, minDistance float64) []int {
	if len(data) < 3 {
		return []int{}
	}

	var peaks []int

	for i := 1; i < len(data)-1; i++ {
		// Check if it's a local maximum
		if data[i] > data[i-1] && data[i] > data[i+1] && data[i] >= minHeight {
			// Check minimum distance constraint
			validPeak := true
			for _, existingPeak := range peaks {
				if math.Abs(float64(i-existingPeak)) < minDistance {
					// If new peak is higher, replace the old one
					if data[i] > data[existingPeak] {
						// Remove the old peak
						for j, peak := range peaks {
							if peak == existingPeak {
								peaks = append(peaks[:j], peaks[j+1:]...)
								break
							}
						}
					} else {
						validPeak = false
					}
					break
				}
			}

			if validPeak {
				peaks = append(peaks, i)
			}
		}
	}

	return peaks
}

// Clamp constrains a value to a range
func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
