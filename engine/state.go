package engine

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/mat"
)

// NU is the number of generalized speeds of a free rigid body: three
// angular components followed by three linear components.
const NU = 6

// State holds the generalized coordinates (rotation quaternion and
// position) and generalized speeds (angular and linear velocity) of a
// single free rigid body. All quantities are expressed in the ground frame.
type State struct {
	Rotation mgl64.Quat
	Position mgl64.Vec3

	AngularVel mgl64.Vec3
	LinearVel  mgl64.Vec3
}

// NewState returns a state at the origin with identity orientation and
// zero velocities.
func NewState() *State {
	return &State{Rotation: mgl64.QuatIdent()}
}

// Clone returns an independent copy of the state, for trial evaluations
// that must not disturb the caller's state.
func (s *State) Clone() *State {
	c := *s
	return &c
}

// U returns the generalized speeds as a 6-vector (angular, then linear).
func (s *State) U() *mat.VecDense {
	return mat.NewVecDense(NU, []float64{
		s.AngularVel.X(), s.AngularVel.Y(), s.AngularVel.Z(),
		s.LinearVel.X(), s.LinearVel.Y(), s.LinearVel.Z(),
	})
}

// SetU overwrites the generalized speeds from a 6-vector.
func (s *State) SetU(u mat.Vector) {
	if u.Len() != NU {
		panic("engine: generalized speed vector must have length 6")
	}
	s.AngularVel = mgl64.Vec3{u.AtVec(0), u.AtVec(1), u.AtVec(2)}
	s.LinearVel = mgl64.Vec3{u.AtVec(3), u.AtVec(4), u.AtVec(5)}
}

// AddScaledU applies u += step*du to the generalized speeds.
func (s *State) AddScaledU(step float64, du mat.Vector) {
	if du.Len() != NU {
		panic("engine: generalized speed change must have length 6")
	}
	s.AngularVel = s.AngularVel.Add(mgl64.Vec3{
		step * du.AtVec(0), step * du.AtVec(1), step * du.AtVec(2)})
	s.LinearVel = s.LinearVel.Add(mgl64.Vec3{
		step * du.AtVec(3), step * du.AtVec(4), step * du.AtVec(5)})
}

// CoordinateDistance returns the 2-norm of the difference in generalized
// coordinates (four quaternion components and three position components)
// between s and o. This is the minimal-change metric used when comparing
// candidate position projections.
func (s *State) CoordinateDistance(o *State) float64 {
	dq := [4]float64{
		s.Rotation.W - o.Rotation.W,
		s.Rotation.V.X() - o.Rotation.V.X(),
		s.Rotation.V.Y() - o.Rotation.V.Y(),
		s.Rotation.V.Z() - o.Rotation.V.Z(),
	}
	dp := s.Position.Sub(o.Position)
	sum := dp.Dot(dp)
	for _, d := range dq {
		sum += d * d
	}
	return math.Sqrt(sum)
}

// ApplySmallRotation perturbs the orientation by the small rotation vector
// dTheta. For a small angle the rotation quaternion is q_delta = [1, dTheta/2].
func (s *State) ApplySmallRotation(dTheta mgl64.Vec3) {
	qDelta := mgl64.Quat{W: 1.0, V: dTheta.Mul(0.5)}
	qDelta = qDelta.Normalize()
	s.Rotation = qDelta.Mul(s.Rotation).Normalize()
}
