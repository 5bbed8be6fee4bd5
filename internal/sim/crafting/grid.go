package crafting

import "strings"

const (
	GridSide  = 3
	GridCells = GridSide * GridSide
)

// Grid is a row-major 3x3 crafting grid; cell (x, y) lives at y*3+x.
type Grid [GridCells]ItemID

func CellIndex(x, y int) int { return y*GridSide + x }

func (g Grid) At(x, y int) ItemID { return g[CellIndex(x, y)] }

func (g Grid) IsEmpty() bool {
	for _, c := range g {
		if c != Empty {
			return false
		}
	}
	return true
}

func (g Grid) String() string {
	var b strings.Builder
	for y := 0; y < GridSide; y++ {
		if y > 0 {
			b.WriteByte('/')
		}
		for x := 0; x < GridSide; x++ {
			if x > 0 {
				b.WriteByte(',')
			}
			if c := g.At(x, y); c == Empty {
				b.WriteByte('.')
			} else {
				b.WriteString(string(c))
			}
		}
	}
	return b.String()
}
