package contact

import (
	"math"

	"github.com/akmonengine/impact/actor"
	"github.com/akmonengine/impact/engine"
	"github.com/go-gl/mathgl/mgl64"
)

// PositionProjector removes interpenetration by searching over subsets of
// active plane constraints for the smallest coordinate change that leaves
// every contact point at or above the ground plane.
//
// It borrows the brick for the duration of one call and mutates only the
// state passed to its Project methods.
type PositionProjector struct {
	brick    *actor.Brick
	params   Params
	proximal []actor.VertexIndex
}

// NewPositionProjector records the proximal subset of the given lowest
// points and anchors the brick's plane constraints there.
func NewPositionProjector(brick *actor.Brick, params Params, s0 *engine.State, lowestPoints []mgl64.Vec3) *PositionProjector {
	p := &PositionProjector{
		brick:    brick,
		params:   params,
		proximal: brick.ProximalVertexIndices(lowestPoints),
	}
	for _, v := range p.proximal {
		brick.SetPlaneConstraintLocation(s0, v, lowestPoints[v])
	}
	return p
}

// NumProximal returns the size of the proximal subset.
func (p *PositionProjector) NumProximal() int { return len(p.proximal) }

// ProjectExhaustive tries every non-empty subset of the proximal plane
// constraints and commits the converged, penetration-free projection with
// the smallest change in generalized coordinates. Ties within the
// projection tolerance favor the subset with more active constraints.
func (p *PositionProjector) ProjectExhaustive(s *engine.State) error {
	if len(p.proximal) == 0 {
		return nil // nothing proximal, nothing to project
	}

	subsets := proximalIndexSubsets(len(p.proximal))

	minDist := math.Inf(1)
	minIdx := -1
	var minState *engine.State

	for comb, subset := range subsets {
		trial := s.Clone()
		dist := p.evaluateProjection(trial, s, subset)

		if dist < minDist ||
			(math.Abs(dist-minDist) < p.params.ProjectTol &&
				minIdx >= 0 && len(subset) > len(subsets[minIdx])) {
			minDist = dist
			minIdx = comb
			minState = trial
		}
	}

	if math.IsInf(minDist, 1) {
		return ErrNoValidProjection
	}

	s.Rotation = minState.Rotation
	s.Position = minState.Position
	return nil
}

// ProjectPruning starts with every proximal constraint active and, on
// failure, drops the constraint of the most-penetrating point and retries.
// An O(n) approximation of the exhaustive search.
func (p *PositionProjector) ProjectPruning(s *engine.State) error {
	if len(p.proximal) == 0 {
		return nil
	}

	active := make([]ProximalIndex, len(p.proximal))
	for i := range active {
		active[i] = ProximalIndex(i)
	}

	for len(active) > 0 {
		trial := s.Clone()
		dist := p.evaluateProjection(trial, s, active)
		if !math.IsInf(dist, 1) {
			s.Rotation = trial.Rotation
			s.Position = trial.Position
			return nil
		}

		// Drop the constraint of the most-penetrating point.
		minHeight := math.Inf(1)
		minIdx := 0
		for i, idx := range active {
			h := p.brick.PlaneConstraintHeight(s, p.proximal[idx])
			if h < minHeight {
				minHeight = h
				minIdx = i
			}
		}
		active = append(active[:minIdx], active[minIdx+1:]...)
	}
	return ErrNoValidProjection
}

// evaluateProjection enables the listed constraints, attempts the
// constrained coordinate projection on trial, and returns the coordinate
// distance from orig (infinity if the projection fails or leaves
// penetration).
func (p *PositionProjector) evaluateProjection(trial, orig *engine.State, subset []ProximalIndex) float64 {
	p.brick.DisableAllPlaneConstraints()
	for _, idx := range subset {
		p.brick.EnablePlaneConstraint(p.proximal[idx])
	}
	stations := p.brick.EnabledPlaneStations()

	err := engine.ProjectCoordinates(trial, stations, p.params.ProjectTol)
	p.brick.DisableAllPlaneConstraints()

	if err != nil || p.brick.InterpenetratingState(trial) {
		return math.Inf(1)
	}
	return orig.CoordinateDistance(trial)
}

// proximalIndexSubsets lists every non-empty subset of [0, n) as index
// arrays, 2^n - 1 in total, in bitmask order.
func proximalIndexSubsets(n int) [][]ProximalIndex {
	numSubsets := (1 << n) - 1
	subsets := make([][]ProximalIndex, 0, numSubsets)
	for mask := 1; mask <= numSubsets; mask++ {
		var subset []ProximalIndex
		for idx := 0; idx < n; idx++ {
			if mask&(1<<idx) != 0 {
				subset = append(subset, ProximalIndex(idx))
			}
		}
		subsets = append(subsets, subset)
	}
	return subsets
}
