// Package impact resolves unilateral, frictional contact between a free
// rigid brick and the horizontal ground plane. Interpenetration is removed
// by a minimal-change position projection over subsets of active plane
// constraints; inward closing velocities are removed by a staged
// compression/restitution impact over active-set candidates with
// per-point separating, sticking, or sliding behavior.
package impact

import (
	"github.com/akmonengine/impact/actor"
	"github.com/akmonengine/impact/contact"
	"github.com/akmonengine/impact/engine"
	"github.com/go-gl/mathgl/mgl64"
)

// World ties the brick, its environment, and the contact solvers together
// and advances the simulation one step at a time.
type World struct {
	Brick *actor.Brick
	// Gravity acceleration (m/s²)
	Gravity mgl64.Vec3
	Params  contact.Params
	// ExhaustiveProjection selects the exhaustive subset search for
	// position projection instead of the pruning heuristic.
	ExhaustiveProjection bool

	Events Events
}

// NewWorld creates a world with the reference solver tuning.
func NewWorld(brick *actor.Brick, gravity mgl64.Vec3) *World {
	return &World{
		Brick:   brick,
		Gravity: gravity,
		Params:  contact.DefaultParams(),
		Events:  NewEvents(),
	}
}

// Step advances the state by dt: free-flight integration, then, if any
// contact point interpenetrates, position projection followed by impact
// resolution until no proximal point is closing.
//
// On successful return no contact point lies below the penetration
// tolerance and no proximal point's normal velocity is below the velocity
// tolerance. A failure of the search procedures aborts the step and is
// unrecoverable for this configuration.
func (w *World) Step(s *engine.State, dt float64) error {
	w.Brick.Body.Integrate(s, dt, w.Gravity)

	// Phase 1: position-level violations.
	preProjectionPos := w.Brick.AllLowestPointLocations(s)
	projectedPositions := false

	if w.Brick.Interpenetrating(preProjectionPos) {
		orig := s.Clone()
		projector := contact.NewPositionProjector(w.Brick, w.Params, s, preProjectionPos)

		var err error
		if w.ExhaustiveProjection {
			err = projector.ProjectExhaustive(s)
		} else {
			err = projector.ProjectPruning(s)
		}
		if err != nil {
			return err
		}
		projectedPositions = true
		w.Events.emit(PositionsProjectedEvent{Distance: orig.CoordinateDistance(s)})
	}

	// Phase 2: velocity-level violations. Impacts can only follow an
	// interpenetration.
	if projectedPositions {
		allPositions := w.Brick.AllLowestPointLocations(s)
		proximal := w.Brick.ProximalVertexIndices(allPositions)

		proximalVels := make([]mgl64.Vec3, len(proximal))
		for i, v := range proximal {
			proximalVels[i] = w.Brick.LowestPointVelocity(s, v)
		}

		if w.Brick.Impacting(proximalVels) {
			// Points that complete a restitution phase get a coefficient
			// of restitution of zero on any follow-up impact within this
			// step, preventing energy injection from repeated handling.
			hasRebounded := make([]bool, len(proximal))
			episodes := 0

			for w.Brick.Impacting(proximalVels) {
				impacter := contact.NewImpacter(w.Brick, w.Params, s, allPositions, proximal)
				if err := impacter.PerformImpactExhaustive(s, proximalVels, hasRebounded); err != nil {
					return err
				}
				episodes++
			}
			w.Events.emit(ImpactResolvedEvent{
				Episodes:    episodes,
				NumProximal: len(proximal),
			})
		}
	}

	w.Events.flush()
	return nil
}
