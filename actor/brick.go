package actor

import (
	"math"

	"github.com/akmonengine/impact/engine"
	"github.com/go-gl/mathgl/mgl64"
)

// VertexIndex identifies one of the eight contact spheres by the brick
// vertex it is attached to. It is fixed at construction and must never be
// confused with an index into the proximal subset, which has its own type
// in the contact package.
type VertexIndex int

// NumVertices is the number of candidate contact points on the brick.
const NumVertices = 8

// Default geometry-query tolerances.
const (
	DefaultPositionTol    = 1.0e-4 // expected position accuracy
	DefaultVelocityTol    = 1.0e-5 // expected velocity accuracy
	DefaultReliableDirTol = 1.0e-4 // below this tangential speed, direction is unreliable
)

// planeConstraint holds a body-fixed follower station constrained to the
// ground plane during position projection. Disabled by default.
type planeConstraint struct {
	follower mgl64.Vec3
	enabled  bool
}

// ballConstraint pins a body-fixed follower station to a ground-frame
// target point during impact resolution. Locations are set per episode.
type ballConstraint struct {
	target   mgl64.Vec3
	follower mgl64.Vec3
}

// Brick is a free rigid brick with a contact sphere attached to each of
// its eight vertices. Each sphere can contact the horizontal ground plane
// at Z=0. All spheres share one radius and one material.
//
// The brick owns the temporary constraints used to realize contact
// behavior; the position projector and the impacter adjust and read them
// for the duration of one call.
type Brick struct {
	HalfLengths  mgl64.Vec3
	SphereRadius float64
	Material     Material
	Body         engine.Body

	PositionTol    float64
	VelocityTol    float64
	ReliableDirTol float64

	vertices         [NumVertices]mgl64.Vec3
	planeConstraints [NumVertices]planeConstraint
	ballConstraints  [NumVertices]ballConstraint
}

// NewBrick creates a brick with the given half-lengths, contact sphere
// radius, mass, and material. The inertia tensor is that of a uniform
// solid brick; tests may override Body.InertiaLocal directly.
func NewBrick(halfLengths mgl64.Vec3, sphereRadius, mass float64, material Material) *Brick {
	b := &Brick{
		HalfLengths:    halfLengths,
		SphereRadius:   math.Max(0, sphereRadius),
		Material:       material,
		Body:           engine.NewBody(mass, engine.BrickInertia(mass, halfLengths)),
		PositionTol:    DefaultPositionTol,
		VelocityTol:    DefaultVelocityTol,
		ReliableDirTol: DefaultReliableDirTol,
	}

	v := 0
	for i := -1.0; i <= 1; i += 2 {
		for j := -1.0; j <= 1; j += 2 {
			for k := -1.0; k <= 1; k += 2 {
				b.vertices[v] = mgl64.Vec3{
					i * halfLengths.X(), j * halfLengths.Y(), k * halfLengths.Z()}
				v++
			}
		}
	}
	return b
}

// Vertex returns the body-frame position of the ith vertex.
func (b *Brick) Vertex(i VertexIndex) mgl64.Vec3 {
	return b.vertices[i]
}

//------------------------- Position-level queries -------------------------

// LowestPointLocation returns the location of the lowest point on the ith
// sphere, measured from the ground origin and resolved in the ground frame.
func (b *Brick) LowestPointLocation(s *engine.State, i VertexIndex) mgl64.Vec3 {
	return b.Body.StationLocation(s, b.vertices[i]).
		Add(mgl64.Vec3{0, 0, -b.SphereRadius})
}

// LowestPointBodyStation returns the body-frame station of the lowest
// point on the ith sphere at the current orientation.
func (b *Brick) LowestPointBodyStation(s *engine.State, i VertexIndex) mgl64.Vec3 {
	return b.Body.StationToBody(s, b.LowestPointLocation(s, i))
}

// AllLowestPointLocations appends the lowest point of every sphere, in
// vertex order, to an empty slice.
func (b *Brick) AllLowestPointLocations(s *engine.State) []mgl64.Vec3 {
	points := make([]mgl64.Vec3, 0, NumVertices)
	for i := VertexIndex(0); i < NumVertices; i++ {
		points = append(points, b.LowestPointLocation(s, i))
	}
	return points
}

// Interpenetrating reports whether any lowest point lies below the
// penetration tolerance.
func (b *Brick) Interpenetrating(lowestPoints []mgl64.Vec3) bool {
	for _, p := range lowestPoints {
		if p.Z() < -b.PositionTol {
			return true
		}
	}
	return false
}

// InterpenetratingState is Interpenetrating evaluated at a state.
func (b *Brick) InterpenetratingState(s *engine.State) bool {
	for i := VertexIndex(0); i < NumVertices; i++ {
		if b.LowestPointLocation(s, i).Z() < -b.PositionTol {
			return true
		}
	}
	return false
}

// PointProximal reports whether a lowest point is within tolerance of the
// ground plane, making it eligible for projection and impact.
func (b *Brick) PointProximal(lowestPoint mgl64.Vec3) bool {
	return lowestPoint.Z() < b.PositionTol
}

// ProximalVertexIndices appends the vertex index of every proximal point,
// in vertex order.
func (b *Brick) ProximalVertexIndices(lowestPoints []mgl64.Vec3) []VertexIndex {
	var proximal []VertexIndex
	for i, p := range lowestPoints {
		if b.PointProximal(p) {
			proximal = append(proximal, VertexIndex(i))
		}
	}
	return proximal
}

//------------------------- Velocity-level queries -------------------------

// LowestPointVelocity returns the ground-frame velocity of the lowest
// point on the ith sphere.
func (b *Brick) LowestPointVelocity(s *engine.State, i VertexIndex) mgl64.Vec3 {
	return b.Body.StationVelocity(s, b.LowestPointBodyStation(s, i))
}

// TangentialAngle returns the angle between the ground X-axis and the
// tangential velocity vector, in [-pi, pi]. Returns NaN if the tangential
// speed is too small to provide a reliable direction.
func (b *Brick) TangentialAngle(vel mgl64.Vec3) float64 {
	if math.Hypot(vel.X(), vel.Y()) < b.ReliableDirTol {
		return math.NaN()
	}
	return math.Atan2(vel.Y(), vel.X())
}

// Impacting reports whether any proximal point still has an inward normal
// velocity beyond tolerance.
func (b *Brick) Impacting(proximalVels []mgl64.Vec3) bool {
	for _, v := range proximalVels {
		if v.Z() < -b.VelocityTol {
			return true
		}
	}
	return false
}

//---------------------- Temporary plane constraints -----------------------

// SetPlaneConstraintLocation anchors the ith plane constraint's follower
// at a ground-frame position, converted to the body frame at state s.
func (b *Brick) SetPlaneConstraintLocation(s *engine.State, i VertexIndex, positionInGround mgl64.Vec3) {
	b.planeConstraints[i].follower = b.Body.StationToBody(s, positionInGround)
}

// EnablePlaneConstraint activates the ith plane constraint.
func (b *Brick) EnablePlaneConstraint(i VertexIndex) {
	b.planeConstraints[i].enabled = true
}

// DisableAllPlaneConstraints deactivates every plane constraint.
func (b *Brick) DisableAllPlaneConstraints() {
	for i := range b.planeConstraints {
		b.planeConstraints[i].enabled = false
	}
}

// EnabledPlaneStations returns the follower stations of the enabled plane
// constraints, in vertex order.
func (b *Brick) EnabledPlaneStations() []mgl64.Vec3 {
	var stations []mgl64.Vec3
	for i := range b.planeConstraints {
		if b.planeConstraints[i].enabled {
			stations = append(stations, b.planeConstraints[i].follower)
		}
	}
	return stations
}

// PlaneConstraintHeight returns the current world height of the ith plane
// constraint's follower station.
func (b *Brick) PlaneConstraintHeight(s *engine.State, i VertexIndex) float64 {
	return b.Body.StationLocation(s, b.planeConstraints[i].follower).Z()
}

//----------------------- Temporary ball constraints -----------------------

// SetBallConstraintLocation anchors the ith ball constraint at a
// ground-frame position, recording both the ground target and the
// corresponding body-frame follower at state s.
func (b *Brick) SetBallConstraintLocation(s *engine.State, i VertexIndex, positionInGround mgl64.Vec3) {
	b.ballConstraints[i].target = positionInGround
	b.ballConstraints[i].follower = b.Body.StationToBody(s, positionInGround)
}

// BallConstraintStation returns the body-frame follower station of the
// ith ball constraint.
func (b *Brick) BallConstraintStation(i VertexIndex) mgl64.Vec3 {
	return b.ballConstraints[i].follower
}
