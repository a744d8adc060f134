package contact

import (
	"math"
	"testing"
)

func TestEnumerateActiveSets_Counts(t *testing.T) {
	for _, n := range []int{1, 2, 3, 4} {
		want := int(math.Pow(3, float64(n))) - 1
		got := enumerateActiveSets(n)
		if len(got) != want {
			t.Errorf("n=%d: %d candidates, want %d", n, len(got), want)
		}
	}
}

func TestEnumerateActiveSets_UniqueAndNoneObserving(t *testing.T) {
	candidates := enumerateActiveSets(3)

	seen := map[string]bool{}
	for _, asc := range candidates {
		key := asc.Format("")
		if seen[key] {
			t.Errorf("duplicate candidate %s", key)
		}
		seen[key] = true

		if asc.NumActive() == 0 {
			t.Error("all-observing candidate generated")
		}
		if asc.Category != SolCatNotEvaluated {
			t.Errorf("fresh candidate category = %v", asc.Category)
		}
	}
}

func TestAddInBaseN(t *testing.T) {
	vec := []int{0, 0}

	var sequences [][2]int
	for addInBaseN(3, vec, 1) {
		sequences = append(sequences, [2]int{vec[0], vec[1]})
	}
	if len(sequences) != 8 {
		t.Fatalf("counter produced %d values, want 8", len(sequences))
	}
	// Little-endian base 3: 01, 02, 10, ...
	if sequences[0] != [2]int{1, 0} || sequences[2] != [2]int{0, 1} {
		t.Errorf("unexpected counting order %v", sequences[:3])
	}

	// Overflow with a carry across multiple digits.
	vec = []int{2, 2, 2}
	if addInBaseN(3, vec, 1) {
		t.Error("overflow not reported")
	}
}

func TestSolutionCategory_Ordering(t *testing.T) {
	if SolCatNoViolations >= SolCatActiveConstraintDoesNothing {
		t.Error("no-violations must rank best")
	}
	if worstTolerableCategory != SolCatGroundAppliesAttractiveImpulse {
		t.Errorf("worst tolerable category = %v", worstTolerableCategory)
	}
	if SolCatNegativePostCompressionNormalVelocity <= worstTolerableCategory {
		t.Error("negative post-compression velocity must be forbidden")
	}
	if SolCatNotEvaluated <= SolCatMinStepCausesSlipDirectionReversal {
		t.Error("not-evaluated must rank last")
	}
}

func TestSolutionCategory_Strings(t *testing.T) {
	for c := SolCatNoViolations; c <= SolCatNotEvaluated; c++ {
		s := c.String()
		if s == "" || s == "Unrecognized solution category" {
			t.Errorf("category %d has no description", c)
		}
	}
	if SolutionCategory(99).String() != "Unrecognized solution category" {
		t.Error("out-of-range category not flagged")
	}
}

func TestActiveSetCandidate_Format(t *testing.T) {
	asc := ActiveSetCandidate{
		TangentialStates: []TangentialState{Rolling, Sliding, Observing},
	}
	if got := asc.Format("c"); got != "(cRSO)" {
		t.Errorf("Format = %q, want (cRSO)", got)
	}
	if asc.NumActive() != 2 {
		t.Errorf("NumActive = %d, want 2", asc.NumActive())
	}
}

func TestActiveSetCandidate_Reset(t *testing.T) {
	asc := enumerateActiveSets(2)[0]
	asc.Category = SolCatNoViolations
	asc.Fitness = 1.5
	asc.LocalImpulses = []float64{1, 2, 3}

	asc.reset()
	if asc.Category != SolCatNotEvaluated || !math.IsInf(asc.Fitness, 1) ||
		asc.LocalImpulses != nil || asc.VelocityChange != nil {
		t.Errorf("reset left stale solution data: %+v", asc)
	}
}

func TestImpulseNorm(t *testing.T) {
	if got := impulseNorm([]float64{3, 4}); got != 5 {
		t.Errorf("norm = %v, want 5", got)
	}
	if got := impulseNorm(nil); got != 0 {
		t.Errorf("norm of empty = %v, want 0", got)
	}
}
