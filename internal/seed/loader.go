package seed

import (
	"context"
	"fmt"

	"github.com/okian/rally/internal/domain/model"
	"github.com/okian/rally/pkg/logger"
)

// Catalog is the subset of the service used to persist a fleet.
type Catalog interface {
	CreateTeam(ctx context.Context, name, members string) (model.Team, error)
	CreateCar(ctx context.Context, car model.Car) (model.Car, error)
}

// Summary reports what Load wrote.
type Summary struct {
	Teams      []model.Team
	Cars       []model.Car
	Assigned   int
	Unassigned int
}

// Load persists fleet through cat. Teams are created first so cars can
// reference their ids. It stops at the first error.
func Load(ctx context.Context, cat Catalog, fleet Fleet) (Summary, error) {
	log := logger.Get().Named("seed")
	var sum Summary

	for _, t := range fleet.Teams {
		created, err := cat.CreateTeam(ctx, t.Name, t.Members)
		if err != nil {
			return sum, fmt.Errorf("create team %q: %w", t.Name, err)
		}
		sum.Teams = append(sum.Teams, created)
	}

	for _, d := range fleet.Cars {
		c := d.Car
		if d.TeamIndex >= 0 {
			if d.TeamIndex >= len(sum.Teams) {
				return sum, fmt.Errorf("car %q: team index %d out of range", c.Name, d.TeamIndex)
			}
			id := sum.Teams[d.TeamIndex].ID
			c.TeamID = &id
		}
		created, err := cat.CreateCar(ctx, c)
		if err != nil {
			return sum, fmt.Errorf("create car %q: %w", c.Name, err)
		}
		sum.Cars = append(sum.Cars, created)
		if created.TeamID != nil {
			sum.Assigned++
		} else {
			sum.Unassigned++
		}
	}

	log.Info(ctx, "demo fleet loaded",
		logger.Int("teams", len(sum.Teams)),
		logger.Int("assigned_cars", sum.Assigned),
		logger.Int("unassigned_cars", sum.Unassigned))
	return sum, nil
}
