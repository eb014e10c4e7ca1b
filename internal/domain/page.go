package domain

import "math"

const (
	DefaultPageSize = 10
	MaxPageSize     = 100

	// MaxPageNumber keeps Offset from overflowing at any page size.
	MaxPageNumber = math.MaxInt32
)

// MaxAmount is the largest monetary value stored with cent precision.
const MaxAmount = 99999999.99

// Page is a 1-indexed page request, clamped to sane bounds.
type Page struct {
	Number int
	Size   int
}

func NewPage(number, size int) Page {
	if number < 1 {
		number = 1
	}
	if number > MaxPageNumber {
		number = MaxPageNumber
	}
	if size < 1 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return Page{Number: number, Size: size}
}

func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// RoundCents rounds a monetary amount to two decimals.
func RoundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
