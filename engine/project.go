package engine

import (
	"errors"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/mat"
)

// ErrProjectionAccuracy is returned when the constrained coordinate
// projection cannot reach the requested accuracy.
var ErrProjectionAccuracy = errors.New("engine: coordinate projection did not achieve requested accuracy")

const maxProjectIterations = 20

// ProjectCoordinates performs a least-change correction of the generalized
// coordinates so that every listed body-fixed station lies on the ground
// plane (world height zero) to within tol. Velocities are left untouched.
//
// Each Gauss-Newton step solves the height-error rows with a minimum-norm
// solve, so the accumulated coordinate change approximates the smallest
// correction satisfying the enabled constraints.
func ProjectCoordinates(s *State, stations []mgl64.Vec3, tol float64) error {
	if len(stations) == 0 {
		return nil
	}

	n := len(stations)
	errVec := mat.NewVecDense(n, nil)
	J := mat.NewDense(n, NU, nil)

	for iter := 0; iter < maxProjectIterations; iter++ {
		maxErr := 0.0
		for i, station := range stations {
			h := s.Position.Z() + s.Rotation.Rotate(station).Z()
			errVec.SetVec(i, -h)
			maxErr = math.Max(maxErr, math.Abs(h))
		}
		if maxErr <= tol {
			return nil
		}

		// Height rows of the station Jacobians: d h_i / d u.
		J.Zero()
		for i, station := range stations {
			r := s.Rotation.Rotate(station)
			J.Set(i, 0, r.Y())
			J.Set(i, 1, -r.X())
			J.Set(i, 5, 1)
		}

		du, err := LeastSquaresSolve(J, errVec)
		if err != nil {
			return ErrProjectionAccuracy
		}

		s.ApplySmallRotation(mgl64.Vec3{du.AtVec(0), du.AtVec(1), du.AtVec(2)})
		s.Position = s.Position.Add(
			mgl64.Vec3{du.AtVec(3), du.AtVec(4), du.AtVec(5)})
	}
	return ErrProjectionAccuracy
}
