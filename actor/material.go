package actor

import "math"

// Material carries the frictional and restitutional properties shared by
// all contact spheres of a body.
type Material struct {
	// MuDyn is the dynamic (Coulomb) friction coefficient.
	MuDyn float64
	// VMinRebound is the normal closing speed below which no rebound
	// occurs (coefficient of restitution is zero).
	VMinRebound float64
	// VPlasticDeform is the normal closing speed at which plastic
	// deformation saturates the coefficient of restitution at MinCOR.
	VPlasticDeform float64
	// MinCOR is the smallest coefficient of restitution, reached at and
	// beyond VPlasticDeform.
	MinCOR float64
}

// NewMaterial clamps the parameters to physically reasonable ranges:
// muDyn >= 0, 0 <= vMinRebound <= vPlasticDeform, minCOR in [0, 1].
func NewMaterial(muDyn, vMinRebound, vPlasticDeform, minCOR float64) Material {
	m := Material{
		MuDyn:          math.Max(0, muDyn),
		VPlasticDeform: math.Max(0, vPlasticDeform),
	}
	m.VMinRebound = clamp(0, vMinRebound, m.VPlasticDeform)
	m.MinCOR = clamp(0, minCOR, 1)
	return m
}

// COR returns the coefficient of restitution for a pre-impact normal
// velocity (negative when closing). Below VMinRebound the impact is fully
// plastic; the COR then decreases linearly from 1 at zero speed, clamped
// from below at MinCOR once the closing speed reaches VPlasticDeform.
func (m Material) COR(vNormal float64) float64 {
	if -vNormal < m.VMinRebound {
		return 0
	}
	corLine := ((m.MinCOR-1)/m.VPlasticDeform)*(-vNormal) + 1
	return math.Max(corLine, m.MinCOR)
}

func clamp(lo, v, hi float64) float64 {
	return math.Min(math.Max(lo, v), hi)
}
