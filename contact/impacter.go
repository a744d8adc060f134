package contact

import (
	"math"

	"github.com/akmonengine/impact/actor"
	"github.com/akmonengine/impact/engine"
	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/mat"
)

// Impacter resolves a multi-point simultaneous impact with Coulomb
// friction. Each impact interval enumerates every assignment of
// tangential states over the proximal points, solves an impulse-balance
// system per candidate, classifies the solutions, and applies the winner
// over a bounded step length. The episode runs a compression phase until
// no point is closing, then a restitution phase until the stored rebound
// impulses are spent.
//
// The impacter borrows the brick for one call and mutates only the passed
// state, velocity slice, and rebound flags.
type Impacter struct {
	brick    *actor.Brick
	params   Params
	proximal []actor.VertexIndex
}

// NewImpacter anchors the brick's ball constraints at the proximal points
// and prepares an impacter over them.
func NewImpacter(brick *actor.Brick, params Params, s0 *engine.State,
	allPositions []mgl64.Vec3, proximal []actor.VertexIndex) *Impacter {

	imp := &Impacter{brick: brick, params: params, proximal: proximal}
	for _, v := range proximal {
		brick.SetBallConstraintLocation(s0, v, allPositions[v])
	}
	return imp
}

// NumProximal returns the size of the proximal subset.
func (imp *Impacter) NumProximal() int { return len(imp.proximal) }

// PerformImpactExhaustive drives every proximal point's normal velocity
// above -VelocityTol, mutating s, proximalVels, and hasRebounded in place.
// proximalVels and hasRebounded are indexed by ProximalIndex and must
// match the proximal subset the impacter was constructed with; points
// flagged as rebounded get a coefficient of restitution of zero.
func (imp *Impacter) PerformImpactExhaustive(s *engine.State,
	proximalVels []mgl64.Vec3, hasRebounded []bool) error {

	n := len(imp.proximal)
	if len(proximalVels) != n || len(hasRebounded) != n {
		panic("contact: proximal velocity and rebound slices must match the proximal set")
	}

	// Coefficients of restitution are fixed for the whole episode.
	cors := make([]float64, n)
	for i := range imp.proximal {
		if !hasRebounded[i] {
			cors[i] = imp.brick.Material.COR(proximalVels[i].Z())
		}
	}

	candidates := enumerateActiveSets(n)

	impactPhase := Compression
	restitutionImpulses := make([]float64, n)
	intervalCtr := 0

	for {
		intervalCtr++

		for i := range candidates {
			candidates[i].reset()
		}

		// Evaluate every candidate. Candidates are independent; only the
		// winner is applied, sequentially, below.
		task(imp.params.Workers, indexRange(len(candidates)), func(i int) {
			asc := &candidates[i]
			imp.generateAndSolveLinearSystem(s, impactPhase, restitutionImpulses, asc)
			imp.evaluateLinearSystemSolution(s, impactPhase, restitutionImpulses, asc)
		})

		// Select from the best category containing any candidate, best
		// (lowest) fitness first. Forbidden categories are never selected.
		bestIdx := -1
		bestFitness := math.Inf(1)
		for solCat := SolCatNoViolations; solCat <= worstTolerableCategory; solCat++ {
			for i := range candidates {
				if candidates[i].Category == solCat && candidates[i].Fitness < bestFitness {
					bestIdx = i
					bestFitness = candidates[i].Fitness
				}
			}
			if !math.IsInf(bestFitness, 1) {
				break
			}
		}
		if bestIdx < 0 || math.IsInf(bestFitness, 1) {
			return ErrNoUsableActiveSet
		}
		winner := &candidates[bestIdx]

		stepLength := imp.intervalStepLength(s, proximalVels, winner, intervalCtr)
		if math.IsNaN(stepLength) {
			return ErrNoStepLength
		}

		s.AddScaledU(stepLength, winner.VelocityChange)

		for i, v := range imp.proximal {
			proximalVels[i] = imp.brick.LowestPointVelocity(s, v)
		}

		// Phase bookkeeping.
		if impactPhase == Compression {

			constraintIdx := -1
			for i := range imp.proximal {
				if winner.TangentialStates[i] > Observing {
					constraintIdx++
					restitutionImpulses[i] += -winner.LocalImpulses[constraintIdx*3+2] *
						cors[i] * stepLength
				}
			}

			if !imp.brick.Impacting(proximalVels) {
				maxRestImpulse := 0.0
				for _, p := range restitutionImpulses {
					maxRestImpulse = math.Max(maxRestImpulse, p)
				}
				if maxRestImpulse < imp.params.MinMeaningfulImpulse {
					return nil // episode complete, nothing to restore
				}
				impactPhase = Restitution
				intervalCtr = 0
			}

		} else {

			constraintIdx := -1
			for i := range imp.proximal {
				if winner.TangentialStates[i] > Observing {
					constraintIdx++
					normImpulse := -winner.LocalImpulses[constraintIdx*3+2]
					restitutionImpulses[i] -= normImpulse * stepLength
					if math.Abs(normImpulse) > imp.params.MinMeaningfulImpulse {
						hasRebounded[i] = true
					}
				}
			}

			maxRestImpulse := 0.0
			for _, p := range restitutionImpulses {
				maxRestImpulse = math.Max(maxRestImpulse, p)
			}
			if maxRestImpulse < imp.params.MinMeaningfulImpulse {
				return nil
			}
		}
	}
}

// PerformImpactPruning is a placeholder: a pruning search over active
// sets has no defined semantics for impacts.
func (imp *Impacter) PerformImpactPruning(s *engine.State,
	proximalVels []mgl64.Vec3, hasRebounded []bool) error {
	return ErrNotImplemented
}

//---------------------------- Linear system -------------------------------

// generateAndSolveLinearSystem builds and solves the saddle-point
// impulse-balance system for one candidate, resolving unknown sliding
// directions iteratively, and stores the velocity change and impulses.
func (imp *Impacter) generateAndSolveLinearSystem(s0 *engine.State,
	impactPhase ImpactPhase, restitutionImpulses []float64,
	asc *ActiveSetCandidate) {

	s := s0.Clone()

	// Ordered stations of the actively-constrained points.
	var activeStations []mgl64.Vec3
	for i, v := range imp.proximal {
		if asc.TangentialStates[i] > Observing {
			activeStations = append(activeStations, imp.brick.BallConstraintStation(v))
		}
	}

	const N = engine.NU
	M := 3 * len(activeStations)

	massMatrix := imp.brick.Body.MassMatrix(s)
	G := imp.brick.Body.ConstraintJacobian(s, activeStations)

	// Saddle-point block structure: [M G^T; G 0].
	A := mat.NewDense(N+M, N+M, nil)
	for r := 0; r < N; r++ {
		for c := 0; c < N; c++ {
			A.Set(r, c, massMatrix.At(r, c))
		}
	}
	for r := 0; r < M; r++ {
		for c := 0; c < N; c++ {
			A.Set(N+r, c, G.At(r, c))
			A.Set(c, N+r, G.At(r, c))
		}
	}
	b := mat.NewVecDense(N+M, nil)

	// Row indices into A of the sliding points, aligned with the
	// slidingDirections array.
	type slidingRows struct {
		prox       int
		rowX, rowZ int
	}
	var sliding []slidingRows
	var slidingDirections []float64

	constraintIdx := -1
	for i, v := range imp.proximal {
		if asc.TangentialStates[i] == Observing {
			continue
		}
		constraintIdx++

		currVel := imp.brick.LowestPointVelocity(s, v)
		rowX := N + constraintIdx*3
		rowY := rowX + 1
		rowZ := rowY + 1

		switch asc.TangentialStates[i] {
		case Rolling:
			// Drive both tangential velocity components to zero.
			b.SetVec(rowX, -currVel.X())
			b.SetVec(rowY, -currVel.Y())

		case Sliding:
			// Replace the tangential constraint rows: fix the tangential
			// impulse components along the friction cone boundary opposing
			// the slip direction. Points with unknown directions start with
			// zero friction coupling.
			for c := 0; c < N; c++ {
				A.Set(rowX, c, 0)
				A.Set(rowY, c, 0)
			}
			A.Set(rowX, rowX, 1)
			A.Set(rowY, rowY, 1)
			b.SetVec(rowX, 0)
			b.SetVec(rowY, 0)

			theta := imp.brick.TangentialAngle(currVel)
			sliding = append(sliding, slidingRows{prox: i, rowX: rowX, rowZ: rowZ})
			slidingDirections = append(slidingDirections, theta)

			if !math.IsNaN(theta) {
				impulseDir := theta + math.Pi
				A.Set(rowX, rowZ, -imp.brick.Material.MuDyn*math.Cos(impulseDir))
				A.Set(rowY, rowZ, -imp.brick.Material.MuDyn*math.Sin(impulseDir))
			}
		}

		if impactPhase == Compression {
			// Drive the normal velocity of the impacting point to zero.
			b.SetVec(rowZ, -currVel.Z())
		} else {
			// Fix the normal impulse to the stored restitution impulse.
			for c := 0; c < N; c++ {
				A.Set(rowZ, c, 0)
			}
			A.Set(rowZ, rowZ, 1)
			b.SetVec(rowZ, -restitutionImpulses[i])
		}
	}

	// Iterate to find sliding directions, if necessary.
	if len(sliding) > 0 {
		numIter := 0
		for {
			numIter++
			if numIter > imp.params.MaxIterSlipDirection {
				asc.Category = SolCatUnableToResolveUnknownSlipDirection
				asc.Fitness = math.Inf(1)
				break
			}

			sol, err := engine.LeastSquaresSolve(A, b)
			if err != nil {
				asc.Category = SolCatUnableToResolveUnknownSlipDirection
				asc.Fitness = math.Inf(1)
				break
			}
			deltaU := sol.SliceVec(0, N)

			// Trial sub-step at the minimum step length, then re-measure
			// each sliding point's tangential angle.
			sTemp := s.Clone()
			sTemp.AddScaledU(imp.params.MinIntervalStepLength, deltaU)

			maxAngleDif := 0.0
			for k, sl := range sliding {
				vTemp := imp.brick.LowestPointVelocity(sTemp, imp.proximal[sl.prox])
				newAngle := imp.brick.TangentialAngle(vTemp)

				oldAngle := slidingDirections[k]
				slidingDirections[k] = newAngle

				if math.IsNaN(oldAngle) || math.IsNaN(newAngle) {
					maxAngleDif = math.Inf(1)
				} else {
					maxAngleDif = math.Max(maxAngleDif,
						absDiffBetweenAngles(oldAngle, newAngle))
				}

				if !math.IsNaN(newAngle) {
					impulseDir := newAngle + math.Pi
					A.Set(sl.rowX, sl.rowZ, -imp.brick.Material.MuDyn*math.Cos(impulseDir))
					A.Set(sl.rowX+1, sl.rowZ, -imp.brick.Material.MuDyn*math.Sin(impulseDir))
				} else {
					A.Set(sl.rowX, sl.rowZ, 0)
					A.Set(sl.rowX+1, sl.rowZ, 0)
				}
			}

			if maxAngleDif < imp.params.MaxDirIterDiff {
				break // converged
			}

			// A direction flipping under the minimum step indicates the
			// point should be sticking, not sliding.
			if math.Abs(maxAngleDif-math.Pi) < imp.params.MaxDirIterDiff {
				asc.Category = SolCatMinStepCausesSlipDirectionReversal
				asc.Fitness = math.Inf(1)
				break
			}
		}
	}

	// Final solve reconciles the friction impulses with the newest
	// directions (or performs the only solve when nothing slides).
	sol, err := engine.LeastSquaresSolve(A, b)
	if err != nil {
		if asc.Category == SolCatNotEvaluated {
			asc.Category = SolCatNoImpulsesApplied
			asc.Fitness = math.Inf(1)
		}
		return
	}

	asc.LocalImpulses = make([]float64, M)
	for i := 0; i < M; i++ {
		asc.LocalImpulses[i] = sol.AtVec(N + i)
	}
	asc.VelocityChange = mat.NewVecDense(N, nil)
	asc.VelocityChange.CopyVec(sol.SliceVec(0, N))
}

//---------------------------- Classification ------------------------------

// evaluateLinearSystemSolution assigns the severity-ordered solution
// category and fitness to a candidate, unless the slip-direction
// resolution already disqualified it.
func (imp *Impacter) evaluateLinearSystemSolution(s *engine.State,
	impactPhase ImpactPhase, restitutionImpulses []float64,
	asc *ActiveSetCandidate) {

	if asc.Category < SolCatNotEvaluated {
		return
	}

	if len(asc.LocalImpulses)%3 != 0 {
		panic("contact: impulse count must be a multiple of three")
	}
	numConstraints := len(asc.LocalImpulses) / 3

	// Proximal point velocities after a full step.
	sFull := s.Clone()
	sFull.AddScaledU(1.0, asc.VelocityChange)
	fullStepVel := make([]mgl64.Vec3, len(imp.proximal))
	for i, v := range imp.proximal {
		fullStepVel[i] = imp.brick.LowestPointVelocity(sFull, v)
	}

	// No impulses applied; no progress made.
	if impulseNorm(asc.LocalImpulses) < imp.params.MinMeaningfulImpulse {
		asc.Category = SolCatNoImpulsesApplied
		asc.Fitness = math.Inf(1)
		return
	}

	// Post-compression normal velocity is negative: the solution is wrong.
	if impactPhase == Compression {
		minNormVel := math.Inf(1)
		for _, v := range fullStepVel {
			minNormVel = math.Min(minNormVel, v.Z())
		}
		if minNormVel < -imp.brick.VelocityTol {
			asc.Category = SolCatNegativePostCompressionNormalVelocity
			asc.Fitness = -minNormVel
			return
		}
	}

	// The normal impulse must never be attractive (note the sign
	// convention: a valid normal impulse component is non-positive).
	maxNormImpulse := 0.0
	for c := 0; c < numConstraints; c++ {
		maxNormImpulse = math.Max(maxNormImpulse, asc.LocalImpulses[c*3+2])
	}
	if maxNormImpulse > imp.params.MinMeaningfulImpulse {
		asc.Category = SolCatGroundAppliesAttractiveImpulse
		asc.Fitness = maxNormImpulse
		return
	}

	// A sticking impulse beyond the stiction limit means the point should
	// be sliding instead.
	maxExcessiveImpulse := 0.0
	constraintIdx := -1
	for i := range imp.proximal {
		if asc.TangentialStates[i] > Observing {
			constraintIdx++
		}
		if asc.TangentialStates[i] != Rolling {
			continue
		}
		xIdx := constraintIdx * 3
		impTangMag := math.Hypot(asc.LocalImpulses[xIdx], asc.LocalImpulses[xIdx+1])
		impNormMag := -asc.LocalImpulses[xIdx+2]
		excessive := impTangMag - imp.brick.Material.MuDyn*impNormMag
		if excessive > imp.params.MinMeaningfulImpulse {
			maxExcessiveImpulse = math.Max(maxExcessiveImpulse, excessive)
		}
	}
	if maxExcessiveImpulse > imp.params.MinMeaningfulImpulse {
		asc.Category = SolCatStickingImpulseExceedsStictionLimit
		asc.Fitness = maxExcessiveImpulse
		return
	}

	// Sticking is only physically plausible below a maximum tangential
	// speed.
	maxTangVelMag := 0.0
	for i, v := range imp.proximal {
		if asc.TangentialStates[i] == Rolling {
			vel := imp.brick.LowestPointVelocity(s, v)
			maxTangVelMag = math.Max(maxTangVelMag, math.Hypot(vel.X(), vel.Y()))
		}
	}
	if maxTangVelMag > imp.params.MaxStickingTangVel {
		asc.Category = SolCatTangentialVelocityTooLargeToStick
		asc.Fitness = maxTangVelMag
		return
	}

	// Restitution impulses must be applied simultaneously, not spread
	// across intervals.
	if impactPhase == Restitution {
		ignoredImpulse := 0.0
		for _, p := range restitutionImpulses {
			ignoredImpulse += p
		}
		for c := 0; c < numConstraints; c++ {
			ignoredImpulse -= -asc.LocalImpulses[c*3+2]
		}
		if ignoredImpulse > imp.params.MinMeaningfulImpulse*float64(len(restitutionImpulses)) {
			asc.Category = SolCatRestitutionImpulsesIgnored
			asc.Fitness = ignoredImpulse
			return
		}
	}

	// An active constraint applying no impulse marks a non-minimal active
	// set; deprioritize.
	for c := 0; c < numConstraints; c++ {
		p := asc.LocalImpulses[c*3 : c*3+3]
		if impulseNorm(p) < imp.params.MinMeaningfulImpulse {
			asc.Category = SolCatActiveConstraintDoesNothing
			asc.Fitness = impulseNorm(asc.LocalImpulses)
			return
		}
	}

	// Ideal: prefer the smallest total impulse among valid candidates.
	asc.Category = SolCatNoViolations
	asc.Fitness = impulseNorm(asc.LocalImpulses)
}

// indexRange returns [0, 1, ..., n-1]; fan-out helper input.
func indexRange(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}
