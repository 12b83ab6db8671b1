package ui

import "math"

// cellResolution is how many dots one braille cell can show.
const cellResolution = 8

// cellRunes maps a dot count to its braille cell, U+2800 block.
var cellRunes = [cellResolution + 1]rune{
	'⠀', // ⠀
	'⡀', // ⡀
	'⣀', // ⣀
	'⣄', // ⣄
	'⣤', // ⣤
	'⣦', // ⣦
	'⣶', // ⣶
	'⣷', // ⣷
	'⣿', // ⣿
}

// Meter renders fraction (0..1) as a fixed-width run of braille cells,
// filled from the middle outward.
func Meter(fraction float64, width int) string {
	return cellString(middleFill(fill(fraction, width)))
}

// Cell renders fraction as a single braille cell, for history trails.
func Cell(fraction float64) string {
	return cellString(fill(fraction, 1))
}

// fill converts a fraction into per-cell dot counts, left to right: full
// cells, then the remainder, then blanks.
func fill(fraction float64, width int) []int {
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}

	amount := int(math.Round(float64(cellResolution*width) * fraction))
	filled := amount / cellResolution
	rem := amount % cellResolution

	cells := make([]int, 0, width)
	for i := 0; i < filled && len(cells) < width; i++ {
		cells = append(cells, cellResolution)
	}
	if len(cells) < width {
		cells = append(cells, rem)
	}
	for len(cells) < width {
		cells = append(cells, 0)
	}
	return cells
}

// middleFill reorders cells so the meter grows from the center out:
// even-indexed cells extend one end, odd-indexed cells the other.
func middleFill(cells []int) []int {
	out := make([]int, 0, len(cells))
	for i := len(cells) - 1; i >= 0; i-- {
		if i%2 == 1 {
			out = append(out, cells[i])
		}
	}
	for i, c := range cells {
		if i%2 == 0 {
			out = append(out, c)
		}
	}
	return out
}

func cellString(cells []int) string {
	runes := make([]rune, len(cells))
	for i, c := range cells {
		runes[i] = cellRunes[c]
	}
	return string(runes)
}
