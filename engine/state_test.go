package engine

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/mat"
)

func TestState_U_RoundTrip(t *testing.T) {
	s := NewState()
	s.AngularVel = mgl64.Vec3{1, 2, 3}
	s.LinearVel = mgl64.Vec3{4, 5, 6}

	u := s.U()
	for i := 0; i < NU; i++ {
		if u.AtVec(i) != float64(i+1) {
			t.Errorf("u[%d] = %v, want %v", i, u.AtVec(i), i+1)
		}
	}

	s2 := NewState()
	s2.SetU(u)
	if s2.AngularVel != s.AngularVel || s2.LinearVel != s.LinearVel {
		t.Errorf("SetU round trip mismatch: %+v vs %+v", s2, s)
	}
}

func TestState_AddScaledU(t *testing.T) {
	s := NewState()
	s.LinearVel = mgl64.Vec3{1, 0, 0}

	du := mat.NewVecDense(NU, []float64{0, 0, 2, 4, 0, -2})
	s.AddScaledU(0.5, du)

	if s.AngularVel != (mgl64.Vec3{0, 0, 1}) {
		t.Errorf("angular velocity = %v, want (0 0 1)", s.AngularVel)
	}
	if s.LinearVel != (mgl64.Vec3{3, 0, -1}) {
		t.Errorf("linear velocity = %v, want (3 0 -1)", s.LinearVel)
	}
}

func TestState_AddScaledU_WrongLengthPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for wrong-length velocity change")
		}
	}()
	NewState().AddScaledU(1, mat.NewVecDense(3, nil))
}

func TestState_CoordinateDistance(t *testing.T) {
	a := NewState()
	b := NewState()
	b.Position = mgl64.Vec3{3, 0, 4}

	if got := a.CoordinateDistance(b); math.Abs(got-5) > 1e-12 {
		t.Errorf("distance = %v, want 5", got)
	}
	if got := a.CoordinateDistance(a.Clone()); got != 0 {
		t.Errorf("distance to identical state = %v, want 0", got)
	}
}

func TestState_Clone_Independent(t *testing.T) {
	s := NewState()
	c := s.Clone()
	c.Position = mgl64.Vec3{1, 1, 1}
	c.LinearVel = mgl64.Vec3{9, 9, 9}

	if s.Position != (mgl64.Vec3{}) || s.LinearVel != (mgl64.Vec3{}) {
		t.Error("mutating a clone disturbed the original state")
	}
}

func TestState_ApplySmallRotation(t *testing.T) {
	s := NewState()
	s.ApplySmallRotation(mgl64.Vec3{0, 0, 0.02})

	// A small rotation about Z moves an X-axis station mostly along Y.
	p := s.Rotation.Rotate(mgl64.Vec3{1, 0, 0})
	if math.Abs(p.Y()-0.02) > 1e-4 || math.Abs(p.Z()) > 1e-12 {
		t.Errorf("rotated station = %v, want approximately (1, 0.02, 0)", p)
	}
}
