package engine

import (
	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/mat"
)

// Body holds the constant dynamic properties of a single free rigid body.
// The body origin coincides with the center of mass, so the mass matrix is
// block diagonal in the (angular, linear) speed ordering.
type Body struct {
	Mass                float64
	InertiaLocal        mgl64.Mat3
	InverseInertiaLocal mgl64.Mat3
}

// NewBody creates a body from its mass and body-frame inertia tensor.
func NewBody(mass float64, inertiaLocal mgl64.Mat3) Body {
	return Body{
		Mass:                mass,
		InertiaLocal:        inertiaLocal,
		InverseInertiaLocal: inertiaLocal.Inv(),
	}
}

// RotationMatrix returns the body-to-ground rotation matrix.
func (b *Body) RotationMatrix(s *State) mgl64.Mat3 {
	return s.Rotation.Mat4().Mat3()
}

// InertiaWorld returns the inertia tensor resolved in the ground frame:
// I_world = R * I_local * R^T
func (b *Body) InertiaWorld(s *State) mgl64.Mat3 {
	R := b.RotationMatrix(s)
	return R.Mul3(b.InertiaLocal).Mul3(R.Transpose())
}

// MassMatrix returns the 6x6 system mass matrix at the given state.
func (b *Body) MassMatrix(s *State) *mat.Dense {
	M := mat.NewDense(NU, NU, nil)
	I := b.InertiaWorld(s)
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			M.Set(r, c, I.At(r, c))
		}
	}
	for i := 3; i < NU; i++ {
		M.Set(i, i, b.Mass)
	}
	return M
}

// StationLocation returns the world-frame position of a body-fixed station.
func (b *Body) StationLocation(s *State, station mgl64.Vec3) mgl64.Vec3 {
	return s.Position.Add(s.Rotation.Rotate(station))
}

// StationVelocity returns the world-frame velocity of a body-fixed station:
// v + w x r, where r is the station offset from the mass center.
func (b *Body) StationVelocity(s *State, station mgl64.Vec3) mgl64.Vec3 {
	r := s.Rotation.Rotate(station)
	return s.LinearVel.Add(s.AngularVel.Cross(r))
}

// StationToBody converts a world-frame point into a body-fixed station.
func (b *Body) StationToBody(s *State, pointInGround mgl64.Vec3) mgl64.Vec3 {
	return s.Rotation.Inverse().Rotate(pointInGround.Sub(s.Position))
}

// StationJacobian returns the 3x6 Jacobian mapping generalized speeds to
// the world-frame velocity of a body-fixed station: [-skew(r) | I3].
func (b *Body) StationJacobian(s *State, station mgl64.Vec3) *mat.Dense {
	r := s.Rotation.Rotate(station)
	J := mat.NewDense(3, NU, nil)
	setStationJacobianRows(J, 0, r)
	return J
}

// ConstraintJacobian assembles the Jacobian of an ordered set of point
// (ball) constraints, three rows per station.
func (b *Body) ConstraintJacobian(s *State, stations []mgl64.Vec3) *mat.Dense {
	J := mat.NewDense(3*len(stations), NU, nil)
	for i, station := range stations {
		r := s.Rotation.Rotate(station)
		setStationJacobianRows(J, 3*i, r)
	}
	return J
}

func setStationJacobianRows(J *mat.Dense, row int, r mgl64.Vec3) {
	// w x r = -skew(r) w
	J.Set(row, 1, r.Z())
	J.Set(row, 2, -r.Y())
	J.Set(row+1, 0, -r.Z())
	J.Set(row+1, 2, r.X())
	J.Set(row+2, 0, r.Y())
	J.Set(row+2, 1, -r.X())
	for k := 0; k < 3; k++ {
		J.Set(row+k, 3+k, 1)
	}
}

// Integrate advances the state by dt of unconstrained free flight under a
// uniform gravitational acceleration, using semi-implicit Euler for the
// translational coordinates and a first-order quaternion update.
func (b *Body) Integrate(s *State, dt float64, gravity mgl64.Vec3) {
	s.LinearVel = s.LinearVel.Add(gravity.Mul(dt))
	s.Position = s.Position.Add(s.LinearVel.Mul(dt))

	// Free body: no torque, angular velocity carries over.
	omegaQuat := mgl64.Quat{W: 0, V: s.AngularVel}
	qDot := omegaQuat.Mul(s.Rotation).Scale(0.5)
	s.Rotation = s.Rotation.Add(qDot.Scale(dt)).Normalize()
}

// BrickInertia returns the body-frame inertia tensor of a uniform solid
// brick of the given mass and half-lengths, about its mass center.
func BrickInertia(mass float64, halfLengths mgl64.Vec3) mgl64.Mat3 {
	hx2 := halfLengths.X() * halfLengths.X()
	hy2 := halfLengths.Y() * halfLengths.Y()
	hz2 := halfLengths.Z() * halfLengths.Z()
	k := mass / 3.0
	return mgl64.Mat3{
		k * (hy2 + hz2), 0, 0,
		0, k * (hx2 + hz2), 0,
		0, 0, k * (hx2 + hy2),
	}
}

// DiagInertia returns a diagonal inertia tensor; useful for tests and for
// bodies whose principal axes align with the body frame.
func DiagInertia(ixx, iyy, izz float64) mgl64.Mat3 {
	return mgl64.Mat3{ixx, 0, 0, 0, iyy, 0, 0, 0, izz}
}
