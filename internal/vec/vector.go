// Package vec provides the two-dimensional vector used for every directional
// quantity in the engine: position, velocity, acceleration and force.
//
// Vectors are immutable values. Every operation returns a new Vector.
package vec

import (
	"fmt"
	"math"
)

// Vector is a magnitude along the x and y axes.
type Vector struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Zero is the shared zero vector.
var Zero = Vector{}

func New(x, y float64) Vector {
	return Vector{X: x, Y: y}
}

func Add(a, b Vector) Vector {
	return Vector{X: a.X + b.X, Y: a.Y + b.Y}
}

func Subtract(a, b Vector) Vector {
	return Vector{X: a.X - b.X, Y: a.Y - b.Y}
}

func Negative(v Vector) Vector {
	return Vector{X: -v.X, Y: -v.Y}
}

// Equals reports exact component-wise equality.
func Equals(a, b Vector) bool {
	return a.X == b.X && a.Y == b.Y
}

// Sum folds vs with Add starting from Zero.
func Sum(vs ...Vector) Vector {
	total := Zero
	for _, v := range vs {
		total = Add(total, v)
	}
	return total
}

func (v Vector) Scale(factor float64) Vector {
	return Vector{X: v.X * factor, Y: v.Y * factor}
}

// Div divides each component by divisor. A zero divisor yields Inf or NaN
// components, which callers must rule out beforehand.
func (v Vector) Div(divisor float64) Vector {
	return Vector{X: v.X / divisor, Y: v.Y / divisor}
}

func (v Vector) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y)
}

func (v Vector) IsFinite() bool {
	return !math.IsNaN(v.X) && !math.IsNaN(v.Y) && !math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0)
}

func (v Vector) String() string {
	return fmt.Sprintf("{x: %g, y: %g}", v.X, v.Y)
}
