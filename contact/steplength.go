package contact

import (
	"math"

	"github.com/akmonengine/impact/engine"
	"github.com/go-gl/mathgl/mgl64"
)

// intervalStepLength bounds how far along the winning candidate's
// velocity-change direction the system may move within one interval. Each
// sliding point limits the step so its slip direction stays valid; the
// minimum-intervals policy and the global floor are then enforced.
// Returns NaN if the per-point search exhausts its iteration budget.
func (imp *Impacter) intervalStepLength(s0 *engine.State,
	currVels []mgl64.Vec3, asc *ActiveSetCandidate, intervalCtr int) float64 {

	stepLength := 1.0

	// Proposed system velocities at the full step.
	sProp := s0.Clone()
	sProp.AddScaledU(1.0, asc.VelocityChange)

	for i, v := range imp.proximal {
		if asc.TangentialStates[i] != Sliding {
			continue
		}

		numIter := 0
		for {
			numIter++
			if numIter > imp.params.MaxIterStepLength {
				return math.NaN()
			}

			propVel := imp.brick.LowestPointVelocity(sProp, v)

			ang0 := imp.brick.TangentialAngle(currVels[i])
			ang1 := imp.brick.TangentialAngle(propVel)

			// A step ending with negligible tangential velocity means this
			// point is transitioning to rolling; accept.
			if math.IsNaN(ang1) ||
				math.Hypot(propVel.X(), propVel.Y()) < imp.params.MaxStickingTangVel {
				break
			}

			absAngDif := absDiffBetweenAngles(ang0, ang1)

			if absAngDif <= imp.params.MaxSlidingDirChange {
				// (a) Direction change small enough to proceed.
				break

			} else if absAngDif <= 0.5*math.Pi {
				// (b) Sliding is changing direction; shrink the step so the
				// change respects the allowed bound. Subtracting the minimum
				// step keeps the sequence strictly decreasing.
				newStepLength := stepLength * (imp.params.MaxSlidingDirChange / absAngDif)
				stepLength = math.Min(newStepLength,
					stepLength-imp.params.MinIntervalStepLength)

				sProp = s0.Clone()
				sProp.AddScaledU(stepLength, asc.VelocityChange)

			} else {
				// (c) The point may be stopping or reversing; land the end
				// of the interval at the tangential velocity closest to the
				// origin on the segment from current to proposed velocity.
				stepLength *= imp.slidingStepLengthToOrigin(
					mgl64.Vec2{currVels[i].X(), currVels[i].Y()},
					mgl64.Vec2{propVel.X(), propVel.Y()})

				sProp = s0.Clone()
				sProp.AddScaledU(stepLength, asc.VelocityChange)

				if stepLength == 1 {
					break
				}
			}
		}
	}

	// Ensure at least the minimum desired number of intervals per phase.
	if intervalCtr < imp.params.MinIntervalsPerPhase {
		minAllowed := 1.0 / float64(imp.params.MinIntervalsPerPhase-intervalCtr+1)
		if stepLength > minAllowed {
			stepLength = minAllowed
		}
	}

	// Enforce the global minimum step length.
	if stepLength < imp.params.MinIntervalStepLength {
		stepLength = imp.params.MinIntervalStepLength
	}

	return stepLength
}

// slidingStepLengthToOrigin finds the point on segment AB closest to the
// origin and returns its normalized position along the segment, clamped
// to [0, 1]. A and B are the current and proposed tangential velocities;
// the returned ratio approximates the moment the point stops sliding or
// reverses.
func (imp *Impacter) slidingStepLengthToOrigin(a, b mgl64.Vec2) float64 {
	// Take the full step if the initial tangential velocity was already
	// small (impending slip).
	if a.Len() < imp.params.MaxStickingTangVel {
		return 1.0
	}

	aToB := b.Sub(a)
	abSqr := aToB.Dot(aToB)

	// Degenerate segment.
	if abSqr < 1.0e-14 {
		return 1.0
	}

	aToOrigin := a.Mul(-1)
	return clamp(0, aToOrigin.Dot(aToB)/abSqr, 1)
}

// absDiffBetweenAngles returns the absolute difference between two angles
// in [-pi, pi] radians, accounting for periodicity; the result lies in
// [0, pi].
func absDiffBetweenAngles(a, b float64) float64 {
	twoPi := 2 * math.Pi
	if a < 0 {
		a += twoPi
	}
	if b < 0 {
		b += twoPi
	}
	absDif := math.Abs(a - b)
	if absDif < math.Pi {
		return absDif
	}
	return twoPi - absDif
}

func clamp(lo, v, hi float64) float64 {
	return math.Min(math.Max(lo, v), hi)
}
