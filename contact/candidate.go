package contact

import (
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// ProximalIndex identifies a point within the ordered proximal subset of
// an episode. It indexes proximal-sized arrays only and is distinct from
// actor.VertexIndex on purpose.
type ProximalIndex int

// TangentialState is the per-point friction behavior assigned by an
// active-set candidate.
type TangentialState int

const (
	// Observing leaves the point unconstrained (free separation).
	Observing TangentialState = iota
	// Rolling drives the point's tangential velocity to zero (sticking).
	Rolling
	// Sliding applies a friction impulse opposing the slip direction.
	Sliding
)

func (t TangentialState) String() string {
	switch t {
	case Observing:
		return "O"
	case Rolling:
		return "R"
	case Sliding:
		return "S"
	default:
		return "?"
	}
}

// SolutionCategory classifies the solution of one active-set candidate,
// ordered from ideal to worst. Candidates beyond the worst tolerable
// category are never selected.
type SolutionCategory int

const (
	SolCatNoViolations SolutionCategory = iota
	SolCatActiveConstraintDoesNothing   // non-minimal active set
	SolCatRestitutionImpulsesIgnored    // simultaneity is lost
	SolCatTangentialVelocityTooLargeToStick
	SolCatStickingImpulseExceedsStictionLimit
	SolCatGroundAppliesAttractiveImpulse // worst tolerable
	SolCatNegativePostCompressionNormalVelocity
	SolCatNoImpulsesApplied
	SolCatUnableToResolveUnknownSlipDirection
	SolCatMinStepCausesSlipDirectionReversal
	SolCatNotEvaluated
)

// worstTolerableCategory is the last category from which a winning
// candidate may still be drawn.
const worstTolerableCategory = SolCatGroundAppliesAttractiveImpulse

func (c SolutionCategory) String() string {
	switch c {
	case SolCatNoViolations:
		return "No violations"
	case SolCatActiveConstraintDoesNothing:
		return "Active constraint is doing nothing"
	case SolCatRestitutionImpulsesIgnored:
		return "Restitution impulses were ignored"
	case SolCatTangentialVelocityTooLargeToStick:
		return "Sticking not possible at this velocity"
	case SolCatStickingImpulseExceedsStictionLimit:
		return "Sticking impulse exceeds stiction limit"
	case SolCatGroundAppliesAttractiveImpulse:
		return "Ground applying attractive impulse"
	case SolCatNegativePostCompressionNormalVelocity:
		return "Post-compression velocity is negative"
	case SolCatNoImpulsesApplied:
		return "No impulses applied; no progress made"
	case SolCatUnableToResolveUnknownSlipDirection:
		return "Unable to calculate unknown slip direction"
	case SolCatMinStepCausesSlipDirectionReversal:
		return "Slip direction reverses with minimum step"
	case SolCatNotEvaluated:
		return "Not yet evaluated"
	default:
		return "Unrecognized solution category"
	}
}

// ImpactPhase distinguishes the two stages of an impact episode.
type ImpactPhase int

const (
	// Compression drives all inward normal velocities to zero.
	Compression ImpactPhase = iota
	// Restitution applies the stored rebound impulses.
	Restitution
)

// ActiveSetCandidate is one assignment of tangential states over the
// proximal points, together with the solved velocity change, the local
// constraint impulses (x, y tangential and z normal per active point),
// and the classification of that solution. Candidates are transient:
// generated fresh each interval and discarded after the winner is applied.
type ActiveSetCandidate struct {
	TangentialStates []TangentialState

	VelocityChange *mat.VecDense
	LocalImpulses  []float64
	Category       SolutionCategory
	Fitness        float64
}

// NumActive counts the actively-constrained points (Rolling or Sliding).
func (asc *ActiveSetCandidate) NumActive() int {
	n := 0
	for _, ts := range asc.TangentialStates {
		if ts > Observing {
			n++
		}
	}
	return n
}

// Format renders the candidate's tangential states in compact form, e.g.
// "(cRSO)" for a compression interval with a rolling, a sliding, and an
// observing point.
func (asc *ActiveSetCandidate) Format(prefix string) string {
	var sb strings.Builder
	sb.WriteString("(")
	sb.WriteString(prefix)
	for _, ts := range asc.TangentialStates {
		sb.WriteString(ts.String())
	}
	sb.WriteString(")")
	return sb.String()
}

// reset clears the solution data before an interval begins.
func (asc *ActiveSetCandidate) reset() {
	asc.VelocityChange = nil
	asc.LocalImpulses = nil
	asc.Category = SolCatNotEvaluated
	asc.Fitness = math.Inf(1)
}

// addInBaseN adds addThis to the little-endian base-N counter held in vec;
// it reports false on overflow past the most significant digit.
func addInBaseN(n int, vec []int, addThis int) bool {
	vec[0] += addThis
	for i := range vec {
		if vec[i] >= n && i == len(vec)-1 {
			return false
		}
		for vec[i] >= n {
			vec[i+1]++
			vec[i] -= n
		}
	}
	return true
}

// enumerateActiveSets generates the 3^n - 1 candidate assignments of
// tangential states over n proximal points by counting in base 3; the
// all-Observing assignment is excluded since at least one point must be
// constrained.
func enumerateActiveSets(n int) []ActiveSetCandidate {
	counter := make([]int, n)
	var candidates []ActiveSetCandidate
	for addInBaseN(3, counter, 1) {
		states := make([]TangentialState, n)
		for i, d := range counter {
			states[i] = TangentialState(d)
		}
		candidates = append(candidates, ActiveSetCandidate{
			TangentialStates: states,
			Category:         SolCatNotEvaluated,
			Fitness:          math.Inf(1),
		})
	}
	return candidates
}

// impulseNorm is the Euclidean norm over all impulse components.
func impulseNorm(impulses []float64) float64 {
	sum := 0.0
	for _, p := range impulses {
		sum += p * p
	}
	return math.Sqrt(sum)
}
