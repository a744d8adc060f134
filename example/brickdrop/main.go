// Command brickdrop drops a brick with contact spheres at its vertices
// onto the ground plane under a series of initial conditions, exercising
// position projection and impact resolution.
package main

import (
	"fmt"
	"log"
	"math"

	"github.com/akmonengine/impact"
	"github.com/akmonengine/impact/actor"
	"github.com/akmonengine/impact/engine"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	stepSize    = 1.0e-3
	simDuration = 1.8
)

func buildWorld() *impact.World {
	brick := actor.NewBrick(
		mgl64.Vec3{0.2, 0.3, 0.4}, // half lengths
		0.1,                       // sphere radius
		2.0,                       // mass
		actor.NewMaterial(0.6, 1.0e-6, 0.1, 0.5),
	)
	return impact.NewWorld(brick, mgl64.Vec3{0, 0, -9.81})
}

func simulate(description string, s *engine.State) {
	fmt.Printf("\n============================================================\n")
	fmt.Printf("%s\n", description)
	fmt.Printf("============================================================\n")

	w := buildWorld()

	projections := 0
	impacts := 0
	w.Events.Subscribe(impact.POSITIONS_PROJECTED, func(impact.Event) { projections++ })
	w.Events.Subscribe(impact.IMPACT_RESOLVED, func(e impact.Event) {
		impacts += e.(impact.ImpactResolvedEvent).Episodes
	})

	steps := float64(simDuration) / stepSize
	totalSteps := int(steps + 0.5)
	fmt.Printf("Simulating for %0.1f seconds (%d steps of size %0.3f)\n",
		simDuration, totalSteps, stepSize)

	for stepNum := 1; stepNum < totalSteps; stepNum++ {
		if err := w.Step(s, stepSize); err != nil {
			log.Fatalf("step %d: %v", stepNum, err)
		}
	}

	fmt.Printf("Simulation complete: %d projection(s), %d impact episode(s)\n",
		projections, impacts)
	fmt.Printf("Final position: %v\n", s.Position)
	fmt.Printf("Final velocity: %v\n", s.LinearVel)
}

func main() {
	rx := mgl64.QuatRotate(math.Pi/4, mgl64.Vec3{1, 0, 0})
	ry := mgl64.QuatRotate(math.Pi/6, mgl64.Vec3{0, 1, 0})

	// 1. One point, no tangential velocity.
	s := engine.NewState()
	s.Rotation = rx.Mul(ry)
	s.Position = mgl64.Vec3{0, 1, 0.8}
	s.LinearVel = mgl64.Vec3{0, 0, 6}
	simulate("Test 1: One point, no tangential velocity", s)

	// 2. One point, small tangential velocity.
	s = engine.NewState()
	s.Rotation = rx.Mul(ry)
	s.Position = mgl64.Vec3{0, 1, 0.8}
	s.LinearVel = mgl64.Vec3{0.5, 0, 6}
	simulate("Test 2: One point, small tangential velocity", s)

	// 3. Two points, no tangential velocity.
	s = engine.NewState()
	s.Rotation = rx
	s.Position = mgl64.Vec3{0, 1, 0.8}
	s.LinearVel = mgl64.Vec3{0, 0, 6}
	simulate("Test 3: Two points, no tangential velocity", s)

	// 4. Two points, small tangential velocity.
	s = engine.NewState()
	s.Rotation = rx
	s.Position = mgl64.Vec3{0, 1, 0.8}
	s.LinearVel = mgl64.Vec3{0, -1, 6}
	simulate("Test 4: Two points, small tangential velocity", s)

	// 5. Four points, no tangential velocity.
	s = engine.NewState()
	s.Position = mgl64.Vec3{0, 1, 0.8}
	s.LinearVel = mgl64.Vec3{0, 0, 6}
	simulate("Test 5: Four points, no tangential velocity", s)

	// 6. Four points, small tangential velocity.
	s = engine.NewState()
	s.Position = mgl64.Vec3{0, 1, 0.8}
	s.LinearVel = mgl64.Vec3{0.5, 0, 6}
	simulate("Test 6: Four points, small tangential velocity", s)
}
