package game

// BoardSize is the side length of every board.
const BoardSize = 5

// TotalTiles is the number of cells on a board.
const TotalTiles = BoardSize * BoardSize

// Line is one winning index set: a row, a column or a diagonal.
type Line struct {
	Indices []int
	Mask    uint64
}

// ComputeLines builds the rows, columns and both diagonals of a size×size grid
// in that order. Boards larger than 8×8 do not fit the mask and are rejected.
func ComputeLines(size int) []Line {
	if size <= 0 || size*size > 64 {
		return nil
	}
	lines := make([]Line, 0, 2*size+2)
	build := func(at func(i int) int) Line {
		l := Line{Indices: make([]int, size)}
		for i := 0; i < size; i++ {
			idx := at(i)
			l.Indices[i] = idx
			l.Mask |= 1 << uint(idx)
		}
		return l
	}
	for r := 0; r < size; r++ {
		lines = append(lines, build(func(c int) int { return r*size + c }))
	}
	for c := 0; c < size; c++ {
		lines = append(lines, build(func(r int) int { return r*size + c }))
	}
	lines = append(lines, build(func(i int) int { return i*size + i }))
	lines = append(lines, build(func(i int) int { return i*size + (size - 1 - i) }))
	return lines
}

// bingoLines is shared by every room.
var bingoLines = ComputeLines(BoardSize)

// Lines returns the catalog for the standard board.
func Lines() []Line {
	return bingoLines
}

// hasLine reports whether owned covers at least one line of the catalog.
func hasLine(owned uint64, lines []Line) bool {
	for _, l := range lines {
		if owned&l.Mask == l.Mask {
			return true
		}
	}
	return false
}
