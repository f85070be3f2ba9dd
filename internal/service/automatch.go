package service

import "github.com/pastoral-familiar/pastoral-api/internal/models"

// AutoMatchCapacity is the most new passengers a driver receives in one auto-match pass.
const AutoMatchCapacity = 3

// UnassignedElders returns active elders without an entry, in input order.
func UnassignedElders(elders []models.Elder, entries []models.ScheduleEntry) []models.Elder {
	assigned := make(map[models.ID]struct{}, len(entries))
	for _, entry := range entries {
		assigned[entry.ElderID] = struct{}{}
	}

	result := make([]models.Elder, 0, len(elders))
	for _, elder := range elders {
		if !elder.Active {
			continue
		}
		if _, ok := assigned[elder.ID]; ok {
			continue
		}
		// the same id listed twice must not yield two entries
		assigned[elder.ID] = struct{}{}
		result = append(result, elder)
	}
	return result
}

// AutoMatch seeds assignments for unassigned elders. Drivers are visited in the given order;
// each takes up to AutoMatchCapacity elders from its own neighborhood, or from the largest
// remaining neighborhood group when its own is empty. It is a greedy seed for manual
// correction and may leave elders unassigned. Only the new entries are returned.
func AutoMatch(elders []models.Elder, drivers []models.Member, entries []models.ScheduleEntry, eventID models.ID) []models.ScheduleEntry {
	groups := make(map[string][]models.Elder)
	var order []string
	for _, elder := range UnassignedElders(elders, entries) {
		key := elder.NeighborhoodKey()
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], elder)
	}

	var created []models.ScheduleEntry
	for _, driver := range drivers {
		key := driver.Neighborhood
		if len(groups[key]) == 0 {
			key = largestGroup(groups, order)
		}
		candidates := groups[key]
		if len(candidates) == 0 {
			continue
		}

		n := AutoMatchCapacity
		if len(candidates) < n {
			n = len(candidates)
		}
		for _, elder := range candidates[:n] {
			created = append(created, models.NewScheduleEntry(eventID, driver.ID, elder.ID))
		}
		groups[key] = candidates[n:]
	}
	return created
}

// largestGroup picks the group with the most elders; ties go to the neighborhood seen first.
func largestGroup(groups map[string][]models.Elder, order []string) string {
	best, bestLen := "", 0
	for _, key := range order {
		if l := len(groups[key]); l > bestLen {
			best, bestLen = key, l
		}
	}
	return best
}
