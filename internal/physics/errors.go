package physics

import (
	"errors"
	"fmt"

	"github.com/san-kum/particlesim/internal/shape"
)

var (
	// ErrInvalidMass indicates a particle mass that is zero, negative or not finite.
	ErrInvalidMass = errors.New("physics: particle mass must be positive")

	// ErrInvalidScale indicates a non-positive meters-per-pixel scale.
	ErrInvalidScale = errors.New("physics: meters per pixel must be positive")

	ErrDuplicateParticle = errors.New("physics: shape already backs a particle")
)

// UnsupportedShapeError is returned when collision geometry is requested for a
// shape kind that has no outline.
type UnsupportedShapeError struct {
	Kind shape.Kind
}

func (e *UnsupportedShapeError) Error() string {
	return fmt.Sprintf("physics: boundary not implemented for shape kind %q", e.Kind)
}
