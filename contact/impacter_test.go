package contact

import (
	"errors"
	"math"
	"testing"

	"github.com/akmonengine/impact/actor"
	"github.com/akmonengine/impact/engine"
	"github.com/go-gl/mathgl/mgl64"
)

func newTestBrick() *actor.Brick {
	return actor.NewBrick(mgl64.Vec3{0.2, 0.3, 0.4}, 0.1, 2.0,
		actor.NewMaterial(0.6, 1e-6, 0.1, 0.5))
}

// restingState poses the brick so its four bottom spheres touch the ground.
func restingState() *engine.State {
	s := engine.NewState()
	s.Position = mgl64.Vec3{0, 0, 0.5}
	return s
}

// newRestingImpacter builds an impacter over the chosen bottom vertices of
// a brick whose inertia is large enough that impulses barely rotate it,
// which makes single-point outcomes predictable.
func newRestingImpacter(t *testing.T, vertices []int) *Impacter {
	t.Helper()
	brick := newTestBrick()
	brick.Body = engine.NewBody(brick.Body.Mass, engine.DiagInertia(1e9, 1e9, 1e9))

	s := restingState()
	proximal := make([]actor.VertexIndex, len(vertices))
	for i, v := range vertices {
		proximal[i] = actor.VertexIndex(v)
	}
	return NewImpacter(brick, DefaultParams(), s, brick.AllLowestPointLocations(s), proximal)
}

func TestPerformImpactExhaustive_PanicsOnMismatchedSlices(t *testing.T) {
	imp := newRestingImpacter(t, []int{0, 2})

	defer func() {
		if recover() == nil {
			t.Error("no panic with mismatched slice lengths")
		}
	}()
	imp.PerformImpactExhaustive(restingState(), []mgl64.Vec3{{}}, []bool{false, false})
}

func TestPerformImpactExhaustive_NormalRebound(t *testing.T) {
	imp := newRestingImpacter(t, []int{0})

	s := restingState()
	s.LinearVel = mgl64.Vec3{0, 0, -1}
	vels := []mgl64.Vec3{imp.brick.LowestPointVelocity(s, 0)}
	hasRebounded := []bool{false}

	if err := imp.PerformImpactExhaustive(s, vels, hasRebounded); err != nil {
		t.Fatalf("impact: %v", err)
	}

	// COR at 1 m/s closing is the plastic minimum, 0.5.
	if math.Abs(s.LinearVel.Z()-0.5) > 1e-6 {
		t.Errorf("rebound vz = %v, want 0.5", s.LinearVel.Z())
	}
	if !hasRebounded[0] {
		t.Error("rebound not recorded")
	}
	if imp.brick.Impacting(vels) {
		t.Error("still impacting after resolution")
	}
}

func TestPerformImpactExhaustive_SlowImpactIsPlastic(t *testing.T) {
	brick := newTestBrick()
	brick.Body = engine.NewBody(brick.Body.Mass, engine.DiagInertia(1e9, 1e9, 1e9))
	brick.Material = actor.NewMaterial(0.6, 0.01, 0.1, 0.5)

	// Closing slower than VMinRebound: compression only, no rebound.
	s := restingState()
	s.LinearVel = mgl64.Vec3{0, 0, -0.005}
	imp := NewImpacter(brick, DefaultParams(), s,
		brick.AllLowestPointLocations(s), []actor.VertexIndex{0})
	vels := []mgl64.Vec3{imp.brick.LowestPointVelocity(s, 0)}
	hasRebounded := []bool{false}

	if err := imp.PerformImpactExhaustive(s, vels, hasRebounded); err != nil {
		t.Fatalf("impact: %v", err)
	}
	if hasRebounded[0] {
		t.Error("plastic impact recorded a rebound")
	}
	if math.Abs(s.LinearVel.Z()) > 1e-6 {
		t.Errorf("vz = %v, want 0 after a plastic impact", s.LinearVel.Z())
	}
}

func TestPerformImpactExhaustive_SlowTangentialSticks(t *testing.T) {
	imp := newRestingImpacter(t, []int{0})

	// Tangential speed below MaxStickingTangVel: the point rolls, and the
	// impact removes the tangential velocity entirely.
	s := restingState()
	s.LinearVel = mgl64.Vec3{0.05, 0, -1}
	vels := []mgl64.Vec3{imp.brick.LowestPointVelocity(s, 0)}
	hasRebounded := []bool{false}

	if err := imp.PerformImpactExhaustive(s, vels, hasRebounded); err != nil {
		t.Fatalf("impact: %v", err)
	}
	if math.Abs(s.LinearVel.X()) > 1e-6 {
		t.Errorf("vx = %v, want 0 (sticking)", s.LinearVel.X())
	}
	if math.Abs(s.LinearVel.Z()-0.5) > 1e-6 {
		t.Errorf("rebound vz = %v, want 0.5", s.LinearVel.Z())
	}
}

func TestPerformImpactExhaustive_FastTangentialSlides(t *testing.T) {
	imp := newRestingImpacter(t, []int{0})

	// Tangential speed far above MaxStickingTangVel: the point must slide,
	// losing some but not all of its tangential velocity to friction.
	s := restingState()
	s.LinearVel = mgl64.Vec3{5, 0, -1}
	vels := []mgl64.Vec3{imp.brick.LowestPointVelocity(s, 0)}
	hasRebounded := []bool{false}

	if err := imp.PerformImpactExhaustive(s, vels, hasRebounded); err != nil {
		t.Fatalf("impact: %v", err)
	}
	if vx := s.LinearVel.X(); vx <= 0.5*5 || vx >= 5 {
		t.Errorf("vx = %v, want reduced but still positive sliding", vx)
	}
	if s.LinearVel.Z() < -imp.brick.VelocityTol {
		t.Errorf("vz = %v, still closing after resolution", s.LinearVel.Z())
	}
}

func TestPerformImpactExhaustive_FourPointSymmetric(t *testing.T) {
	brick := newTestBrick()
	s := restingState()
	s.LinearVel = mgl64.Vec3{0, 0, -1}

	points := brick.AllLowestPointLocations(s)
	proximal := brick.ProximalVertexIndices(points)
	if len(proximal) != 4 {
		t.Fatalf("%d proximal points, want 4", len(proximal))
	}

	imp := NewImpacter(brick, DefaultParams(), s, points, proximal)
	vels := make([]mgl64.Vec3, len(proximal))
	for i, v := range proximal {
		vels[i] = brick.LowestPointVelocity(s, v)
	}
	hasRebounded := make([]bool, len(proximal))

	if err := imp.PerformImpactExhaustive(s, vels, hasRebounded); err != nil {
		t.Fatalf("impact: %v", err)
	}

	// The symmetric flat impact rebounds straight up without spin.
	if math.Abs(s.LinearVel.Z()-0.5) > 1e-6 {
		t.Errorf("rebound vz = %v, want 0.5", s.LinearVel.Z())
	}
	if math.Hypot(s.LinearVel.X(), s.LinearVel.Y()) > 1e-6 {
		t.Errorf("horizontal velocity %v appeared from a symmetric impact", s.LinearVel)
	}
	if s.AngularVel.Len() > 1e-6 {
		t.Errorf("angular velocity %v appeared from a symmetric impact", s.AngularVel)
	}
	for i := range hasRebounded {
		if !hasRebounded[i] {
			t.Errorf("point %d did not record its rebound", i)
		}
	}
}

func TestPerformImpactExhaustive_ParallelMatchesSequential(t *testing.T) {
	run := func(workers int) *engine.State {
		brick := newTestBrick()
		s := restingState()
		// Tilted about Y so one bottom edge (two spheres) is proximal.
		s.Rotation = mgl64.QuatRotate(0.2, mgl64.Vec3{0, 1, 0})
		s.Position = mgl64.Vec3{0, 0, 0.5317}
		s.LinearVel = mgl64.Vec3{0.3, 0, -1}

		points := brick.AllLowestPointLocations(s)
		proximal := brick.ProximalVertexIndices(points)
		if len(proximal) == 0 {
			t.Fatal("no proximal points in test pose")
		}

		params := DefaultParams()
		params.Workers = workers
		imp := NewImpacter(brick, params, s, points, proximal)

		vels := make([]mgl64.Vec3, len(proximal))
		for i, v := range proximal {
			vels[i] = brick.LowestPointVelocity(s, v)
		}
		hasRebounded := make([]bool, len(proximal))
		if err := imp.PerformImpactExhaustive(s, vels, hasRebounded); err != nil {
			t.Fatalf("impact with %d workers: %v", workers, err)
		}
		return s
	}

	sequential := run(1)
	parallel := run(4)

	if sequential.LinearVel.Sub(parallel.LinearVel).Len() > 1e-12 ||
		sequential.AngularVel.Sub(parallel.AngularVel).Len() > 1e-12 {
		t.Errorf("parallel evaluation changed the outcome: %v vs %v",
			sequential.LinearVel, parallel.LinearVel)
	}
}

func TestPerformImpactPruning_NotImplemented(t *testing.T) {
	imp := newRestingImpacter(t, []int{0})
	err := imp.PerformImpactPruning(restingState(), []mgl64.Vec3{{}}, []bool{false})
	if !errors.Is(err, ErrNotImplemented) {
		t.Errorf("err = %v, want ErrNotImplemented", err)
	}
}

func TestGenerateAndSolve_RollingSinglePoint(t *testing.T) {
	imp := newRestingImpacter(t, []int{0})
	s := restingState()
	s.LinearVel = mgl64.Vec3{0, 0, -1}

	asc := &ActiveSetCandidate{
		TangentialStates: []TangentialState{Rolling},
		Category:         SolCatNotEvaluated,
		Fitness:          math.Inf(1),
	}
	imp.generateAndSolveLinearSystem(s, Compression, []float64{0}, asc)
	imp.evaluateLinearSystemSolution(s, Compression, []float64{0}, asc)

	if asc.Category != SolCatNoViolations {
		t.Fatalf("category = %v, want no violations", asc.Category)
	}
	// The normal impulse stops a mass of 2 closing at 1 m/s.
	if math.Abs(asc.LocalImpulses[2]-(-2)) > 1e-6 {
		t.Errorf("normal impulse = %v, want -2", asc.LocalImpulses[2])
	}
	// Full step cancels the closing velocity.
	if math.Abs(asc.VelocityChange.AtVec(5)-1) > 1e-6 {
		t.Errorf("delta vz = %v, want 1", asc.VelocityChange.AtVec(5))
	}
}

func TestEvaluate_AttractiveImpulseFlagged(t *testing.T) {
	imp := newRestingImpacter(t, []int{0})

	// A separating point still actively constrained needs an attractive
	// (positive) normal impulse to pin it, which must be deprioritized.
	s := restingState()
	s.LinearVel = mgl64.Vec3{0, 0, 0.5}

	asc := &ActiveSetCandidate{
		TangentialStates: []TangentialState{Rolling},
		Category:         SolCatNotEvaluated,
		Fitness:          math.Inf(1),
	}
	imp.generateAndSolveLinearSystem(s, Compression, []float64{0}, asc)
	imp.evaluateLinearSystemSolution(s, Compression, []float64{0}, asc)

	if asc.Category != SolCatGroundAppliesAttractiveImpulse {
		t.Errorf("category = %v, want attractive impulse", asc.Category)
	}
}

func TestEvaluate_StictionLimitFlagged(t *testing.T) {
	brick := newTestBrick()
	brick.Body = engine.NewBody(brick.Body.Mass, engine.DiagInertia(1e9, 1e9, 1e9))
	brick.Material = actor.NewMaterial(0.01, 1e-6, 0.1, 0.5) // nearly frictionless

	s := restingState()
	s.LinearVel = mgl64.Vec3{0.05, 0, -1}
	imp := NewImpacter(brick, DefaultParams(), s,
		brick.AllLowestPointLocations(s), []actor.VertexIndex{0})

	// Sticking would need a tangential impulse far beyond mu times the
	// normal impulse.
	asc := &ActiveSetCandidate{
		TangentialStates: []TangentialState{Rolling},
		Category:         SolCatNotEvaluated,
		Fitness:          math.Inf(1),
	}
	imp.generateAndSolveLinearSystem(s, Compression, []float64{0}, asc)
	imp.evaluateLinearSystemSolution(s, Compression, []float64{0}, asc)

	if asc.Category != SolCatStickingImpulseExceedsStictionLimit {
		t.Errorf("category = %v, want stiction limit exceeded", asc.Category)
	}
}

func TestEvaluate_TangentialVelocityTooLargeToStick(t *testing.T) {
	imp := newRestingImpacter(t, []int{0})

	// Fast enough that sticking is implausible, but with the tangential
	// impulse still inside the friction cone so the stiction check passes.
	s := restingState()
	s.LinearVel = mgl64.Vec3{0.2, 0, -1}

	asc := &ActiveSetCandidate{
		TangentialStates: []TangentialState{Rolling},
		Category:         SolCatNotEvaluated,
		Fitness:          math.Inf(1),
	}
	imp.generateAndSolveLinearSystem(s, Compression, []float64{0}, asc)
	imp.evaluateLinearSystemSolution(s, Compression, []float64{0}, asc)

	if asc.Category != SolCatTangentialVelocityTooLargeToStick {
		t.Errorf("category = %v, want sticking not possible", asc.Category)
	}
}

func TestEvaluate_NoImpulsesApplied(t *testing.T) {
	imp := newRestingImpacter(t, []int{0})

	// Nothing closing, nothing sliding: the solve produces no impulses.
	s := restingState()

	asc := &ActiveSetCandidate{
		TangentialStates: []TangentialState{Rolling},
		Category:         SolCatNotEvaluated,
		Fitness:          math.Inf(1),
	}
	imp.generateAndSolveLinearSystem(s, Compression, []float64{0}, asc)
	imp.evaluateLinearSystemSolution(s, Compression, []float64{0}, asc)

	if asc.Category != SolCatNoImpulsesApplied {
		t.Errorf("category = %v, want no impulses applied", asc.Category)
	}
}
