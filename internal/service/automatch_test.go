package service

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/Pallinder/go-randomdata"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pastoral-familiar/pastoral-api/internal/models"
)

func elder(id, neighborhood string) models.Elder {
	return models.Elder{ID: models.ID(id), FullName: "Elder " + id, Neighborhood: neighborhood, Active: true}
}

func driver(id, neighborhood string) models.Member {
	return models.Member{ID: models.ID(id), FullName: "Driver " + id, Neighborhood: neighborhood, HasVehicle: true}
}

func TestAutoMatchSameNeighborhood(t *testing.T) {
	elders := []models.Elder{
		elder("1", "Centro"), elder("2", "Sul"), elder("3", "Centro"), elder("4", "Norte"), elder("5", "Sul"),
	}
	created := AutoMatch(elders, []models.Member{driver("D", "Centro")}, nil, "ev")

	want := []models.ScheduleEntry{
		models.NewScheduleEntry("ev", "D", "1"),
		models.NewScheduleEntry("ev", "D", "3"),
	}
	if diff := cmp.Diff(want, created); diff != "" {
		t.Fatalf("unexpected entries (-want +got):\n%s", diff)
	}
}

func TestAutoMatchFallsBackToLargestPile(t *testing.T) {
	elders := []models.Elder{elder("1", "Sul"), elder("2", "Sul"), elder("3", "Sul"), elder("4", "Sul")}
	created := AutoMatch(elders, []models.Member{driver("D", "Norte")}, nil, "ev")

	require.Len(t, created, 3)
	for _, entry := range created {
		assert.Equal(t, models.ID("D"), entry.DriverID)
		assert.Equal(t, models.EntryStatusPlanned, entry.Status)
		assert.Equal(t, models.TripBoth, entry.TripType)
	}
	remaining := UnassignedElders(elders, created)
	require.Len(t, remaining, 1)
	assert.Equal(t, models.ID("4"), remaining[0].ID)
}

func TestAutoMatchLargestPileTieBreaksByFirstSeen(t *testing.T) {
	elders := []models.Elder{elder("1", "Leste"), elder("2", "Oeste"), elder("3", "Oeste"), elder("4", "Leste")}
	created := AutoMatch(elders, []models.Member{driver("D", "")}, nil, "ev")

	require.Len(t, created, 2)
	assert.Equal(t, models.ID("1"), created[0].ElderID)
	assert.Equal(t, models.ID("4"), created[1].ElderID)
}

func TestAutoMatchEmptyNeighborhoodGroupsAsOutros(t *testing.T) {
	elders := []models.Elder{elder("1", ""), elder("2", "  ")}
	created := AutoMatch(elders, []models.Member{driver("D", models.DefaultNeighborhood)}, nil, "ev")
	assert.Len(t, created, 2)
}

func TestAutoMatchSkipsInactiveAndAssigned(t *testing.T) {
	inactive := elder("1", "Centro")
	inactive.Active = false
	elders := []models.Elder{inactive, elder("2", "Centro"), elder("3", "Centro")}
	existing := []models.ScheduleEntry{models.NewScheduleEntry("ev", "X", "2")}

	created := AutoMatch(elders, []models.Member{driver("D", "Centro")}, existing, "ev")
	require.Len(t, created, 1)
	assert.Equal(t, models.ID("3"), created[0].ElderID)
}

func TestAutoMatchDriversDrainInOrder(t *testing.T) {
	var elders []models.Elder
	for i := 0; i < 7; i++ {
		elders = append(elders, elder(fmt.Sprint(i), "Sul"))
	}
	drivers := []models.Member{driver("A", "Norte"), driver("B", "Sul"), driver("C", "Sul")}

	created := AutoMatch(elders, drivers, nil, "ev")
	require.Len(t, created, 7)
	counts := map[models.ID]int{}
	for _, entry := range created {
		counts[entry.DriverID]++
	}
	assert.Equal(t, map[models.ID]int{"A": 3, "B": 3, "C": 1}, counts)
	assert.Equal(t, models.ID("0"), created[0].ElderID)
}

func TestAutoMatchNoDriversNoElders(t *testing.T) {
	assert.Empty(t, AutoMatch(nil, []models.Member{driver("D", "Centro")}, nil, "ev"))
	assert.Empty(t, AutoMatch([]models.Elder{elder("1", "Centro")}, nil, nil, "ev"))
}

func TestAutoMatchInvariantsOnRandomBoards(t *testing.T) {
	neighborhoods := []string{"Centro", "Sul", "Norte", "Leste", "", "Vila Nova"}
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 200; round++ {
		var elders []models.Elder
		elderCount, driverCount := rng.Intn(25), rng.Intn(6)
		for i := 0; i < elderCount; i++ {
			e := elder(fmt.Sprintf("e%d", i), neighborhoods[rng.Intn(len(neighborhoods))])
			e.FullName = randomdata.FullName(randomdata.RandomGender)
			e.Active = models.Flag(rng.Intn(5) > 0)
			elders = append(elders, e)
		}
		var drivers []models.Member
		for i := 0; i < driverCount; i++ {
			d := driver(fmt.Sprintf("d%d", i), neighborhoods[rng.Intn(len(neighborhoods))])
			d.FullName = randomdata.FullName(randomdata.RandomGender)
			drivers = append(drivers, d)
		}
		var existing []models.ScheduleEntry
		for _, e := range elders {
			if len(drivers) > 0 && rng.Intn(4) == 0 {
				existing = append(existing, models.NewScheduleEntry("ev", drivers[0].ID, e.ID))
			}
		}

		created := AutoMatch(elders, drivers, existing, "ev")

		before := map[models.ID]bool{}
		for _, entry := range existing {
			before[entry.ElderID] = true
		}
		perDriver := map[models.ID]int{}
		seen := map[models.ID]bool{}
		for _, entry := range created {
			assert.False(t, before[entry.ElderID], "elder %s was already assigned", entry.ElderID)
			assert.False(t, seen[entry.ElderID], "elder %s assigned twice", entry.ElderID)
			seen[entry.ElderID] = true
			perDriver[entry.DriverID]++
		}
		for id, n := range perDriver {
			assert.LessOrEqual(t, n, AutoMatchCapacity, "driver %s", id)
		}

		// determinism
		again := AutoMatch(elders, drivers, existing, "ev")
		if diff := cmp.Diff(created, again); diff != "" {
			t.Fatalf("auto-match is not deterministic:\n%s", diff)
		}
	}
}
