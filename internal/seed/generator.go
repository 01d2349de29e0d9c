package seed

import (
	"fmt"
	"math"
	"math/rand"
	"strings"

	"github.com/okian/rally/internal/domain/model"
)

const membersPerTeam = 3

// CarDraft is a generated car and the index of its team in Fleet.Teams,
// or -1 when it stays unassigned.
type CarDraft struct {
	Car       model.Car
	TeamIndex int
}

// Fleet is the output of Generate, ready to be persisted.
type Fleet struct {
	Teams []model.Team
	Cars  []CarDraft
}

// Generate builds the fleet described by plan. The result depends only on plan.
func Generate(plan Plan) (Fleet, error) {
	if err := plan.Validate(); err != nil {
		return Fleet{}, err
	}
	rng := rand.New(rand.NewSource(plan.Seed)) //nolint:gosec // demo data

	fleet := Fleet{Teams: make([]model.Team, 0, plan.Teams)}
	names := rng.Perm(len(teamNames))
	for i := 0; i < plan.Teams; i++ {
		name := teamNames[names[i%len(names)]]
		if i >= len(names) {
			name = fmt.Sprintf("%s %d", name, i/len(names)+1)
		}
		fleet.Teams = append(fleet.Teams, model.Team{Name: name, Members: members(rng)})
	}

	serial := 0
	for ti := range fleet.Teams {
		for j := 0; j < plan.CarsPerTeam; j++ {
			serial++
			fleet.Cars = append(fleet.Cars, CarDraft{Car: car(rng, serial), TeamIndex: ti})
		}
	}
	for j := 0; j < plan.Unassigned; j++ {
		serial++
		fleet.Cars = append(fleet.Cars, CarDraft{Car: car(rng, serial), TeamIndex: -1})
	}
	return fleet, nil
}

func members(rng *rand.Rand) string {
	idx := rng.Perm(len(memberNames))[:membersPerTeam]
	out := make([]string, 0, membersPerTeam)
	for _, i := range idx {
		out = append(out, memberNames[i])
	}
	return strings.Join(out, ", ")
}

func car(rng *rand.Rand, serial int) model.Car {
	c := classes[rng.Intn(classCount)]
	return model.Car{
		Name:        fmt.Sprintf("%s %03d", c.label, serial),
		TopSpeed:    pick(rng, c.topSpeed, 0),
		Accel:       pick(rng, c.accel, 1),
		Reliability: pick(rng, c.reliability, 2),
		Handling:    pick(rng, c.handling, 0),
		Weight:      pick(rng, c.weight, 0),
	}
}

// pick draws uniformly from r and rounds to places decimals.
func pick(rng *rand.Rand, r attrRange, places int) float64 {
	v := r.min + rng.Float64()*(r.max-r.min)
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
