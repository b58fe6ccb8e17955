package chart

import "math"

// canvas is a grid of braille cells, each 2 dots wide and 4 dots tall.
type canvas struct {
	cells [][]uint8
}

func newCanvas(width, height int) *canvas {
	cells := make([][]uint8, height)
	for y := range cells {
		cells[y] = make([]uint8, width)
	}
	return &canvas{cells: cells}
}

func (c *canvas) dotRows() int {
	return len(c.cells) * 4
}

// trace draws values (one per cell column) scaled between lo and hi.
func (c *canvas) trace(values []float64, lo, hi float64, d dash) {
	rows := c.dotRows()
	prevX, prevY := -1, -1
	for col, v := range values {
		x, y := col*2, dotRow(v, lo, hi, rows)
		if prevX < 0 {
			if d.visible(x) {
				c.set(x, y)
			}
		} else {
			bresenham(prevX, prevY, x, y, func(px, py int) {
				if d.visible(px) {
					c.set(px, py)
				}
			})
		}
		prevX, prevY = x, y
	}
}

func (c *canvas) set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	cy, cx := y/4, x/2
	if cy >= len(c.cells) || cx >= len(c.cells[cy]) {
		return
	}
	c.cells[cy][cx] |= dotBit(x%2, y%4)
}

func (d dash) visible(x int) bool {
	if d.period <= 1 {
		return true
	}
	if x < 0 {
		x = -x
	}
	return x%d.period < d.on
}

// dotRow maps v onto a dot row, 0 at the top.
func dotRow(v, lo, hi float64, rows int) int {
	if rows <= 1 {
		return 0
	}
	pos := (v - lo) / (hi - lo)
	row := int(math.Round((1 - pos) * float64(rows-1)))
	if row < 0 {
		return 0
	}
	if row >= rows {
		return rows - 1
	}
	return row
}

// compose merges the layers at a cell; owner is the first layer with a dot.
func compose(layers []*canvas, x, y int) (uint8, int) {
	var mask uint8
	owner := -1
	for i, layer := range layers {
		if y >= len(layer.cells) || x >= len(layer.cells[y]) {
			continue
		}
		bits := layer.cells[y][x]
		if bits == 0 {
			continue
		}
		if owner < 0 {
			owner = i
		}
		mask |= bits
	}
	return mask, owner
}

func bresenham(x0, y0, x1, y1 int, plot func(x, y int)) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := -1, -1
	if x0 < x1 {
		sx = 1
	}
	if y0 < y1 {
		sy = 1
	}
	err := dx + dy
	for {
		plot(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// dotBit returns the Unicode braille bit for a dot inside a cell.
func dotBit(x, y int) uint8 {
	if x == 0 {
		return [4]uint8{0x01, 0x02, 0x04, 0x40}[y]
	}
	return [4]uint8{0x08, 0x10, 0x20, 0x80}[y]
}

func brailleRune(mask uint8) rune {
	return rune(0x2800 + int(mask))
}
