// Package partition splits the columns of the plate across a cohort.
//
// Every rank receives cols/size columns; the remainder goes to the last rank.
package partition

import "github.com/san-kum/haloplate/internal/plate"

// LocalWidth returns the number of columns owned by rank.
func LocalWidth(cols, size, rank int) (int, error) {
	if size < 1 {
		return 0, plate.Configf("ranks", "cohort size must be positive, got %d", size)
	}
	if rank < 0 || rank >= size {
		return 0, plate.Configf("rank", "rank %d outside cohort of %d", rank, size)
	}
	if size > cols {
		return 0, plate.Configf("ranks", "%d ranks for %d columns leaves a rank without columns", size, cols)
	}

	width := cols / size
	if rank == size-1 {
		width += cols % size
	}
	if width < 1 {
		return 0, plate.Configf("ranks", "rank %d resolves to width %d", rank, width)
	}
	return width, nil
}

// Widths returns the width of every rank in rank order.
func Widths(cols, size int) ([]int, error) {
	if size < 1 {
		return nil, plate.Configf("ranks", "cohort size must be positive, got %d", size)
	}
	widths := make([]int, size)
	for r := range widths {
		w, err := LocalWidth(cols, size, r)
		if err != nil {
			return nil, err
		}
		widths[r] = w
	}
	return widths, nil
}

// Offset returns the first global column owned by rank.
func Offset(cols, size, rank int) (int, error) {
	if _, err := LocalWidth(cols, size, rank); err != nil {
		return 0, err
	}
	return rank * (cols / size), nil
}

// MaxWidth is the widest subdomain, always held by the last rank.
func MaxWidth(cols, size int) (int, error) {
	return LocalWidth(cols, size, size-1)
}
