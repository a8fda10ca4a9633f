package viz

import (
	"math"
	"strings"

	"github.com/san-kum/particlesim/internal/vec"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
const blank = 0x2800

var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

// Canvas is a grid of braille cells. Pixel coordinates address the dots, so
// a canvas of Width x Height cells has (Width*2) x (Height*4) pixels.
type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

func (c *Canvas) IsSet(x, y int) bool {
	if x < 0 || y < 0 {
		return false
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return false
	}
	return c.Grid[row][col]&rune(pixelMap[y%4][x%2]) != 0
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = blank
		}
	}
}

// DrawLine draws a line using Bresenham's algorithm. With dash > 1 only
// every dash-th pixel is set.
func (c *Canvas) DrawLine(x0, y0, x1, y1, dash int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for n := 0; ; n++ {
		if dash <= 1 || n%dash == 0 {
			c.Set(x0, y0)
		}
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

// DrawCircle outlines a circle of radius r pixels. Radii under one pixel
// collapse to a single dot.
func (c *Canvas) DrawCircle(cx, cy int, r float64) {
	if r < 1 {
		c.Set(cx, cy)
		return
	}
	// a multiple of four lands a sample on each axis point
	steps := (max(int(2*math.Pi*r), 8) + 3) / 4 * 4
	for i := 0; i < steps; i++ {
		a := 2 * math.Pi * float64(i) / float64(steps)
		c.Set(cx+int(math.Round(r*math.Cos(a))), cy+int(math.Round(r*math.Sin(a))))
	}
}

func (c *Canvas) DrawRect(x0, y0, x1, y1 int) {
	c.DrawLine(x0, y0, x1, y0, 1)
	c.DrawLine(x1, y0, x1, y1, 1)
	c.DrawLine(x1, y1, x0, y1, 1)
	c.DrawLine(x0, y1, x0, y0, 1)
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row))
		b.WriteByte('\n')
	}
	return b.String()
}

// Viewport maps stage coordinates onto canvas pixels. The whole stage fits
// the canvas at zoom 1, centred; larger zooms magnify around the centre.
type Viewport struct {
	Stage vec.Vector
	Cols  int
	Rows  int
	Zoom  float64
}

func (v Viewport) Scale() float64 {
	if v.Stage.X <= 0 || v.Stage.Y <= 0 {
		return 1
	}
	fit := math.Min(float64(v.Cols*2)/v.Stage.X, float64(v.Rows*4)/v.Stage.Y)
	if v.Zoom > 0 {
		fit *= v.Zoom
	}
	return fit
}

func (v Viewport) Project(p vec.Vector) (int, int) {
	s := v.Scale()
	cx, cy := float64(v.Cols*2)/2, float64(v.Rows*4)/2
	x := cx + (p.X-v.Stage.X/2)*s
	y := cy + (p.Y-v.Stage.Y/2)*s
	return int(math.Round(x)), int(math.Round(y))
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
