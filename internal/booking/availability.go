package booking

import (
	"sort"

	"github.com/xtrntr/ihome/internal/models"
)

// OrderRange returns the booked interval of an order
func OrderRange(o models.Order) DateRange {
	return DateRange{Begin: day(o.BeginDate), End: day(o.EndDate)}
}

// IsAvailable reports whether r is free of every occupying order in orders.
// Orders are expected to belong to the same house.
func IsAvailable(orders []models.Order, r DateRange) bool {
	for _, o := range orders {
		if !Occupying(o.Status) {
			continue
		}
		if OrderRange(o).Overlaps(r) {
			return false
		}
	}
	return true
}

// ConflictingHouseIDs returns the sorted ids of houses holding an occupying
// order that overlaps w. For every house h it agrees with
// !IsAvailable(orders of h, w) when w is bounded on both sides.
func ConflictingHouseIDs(orders []models.Order, w Window) []int {
	seen := make(map[int]bool)
	for _, o := range orders {
		if seen[o.HouseID] || !Occupying(o.Status) {
			continue
		}
		if w.Overlaps(OrderRange(o)) {
			seen[o.HouseID] = true
		}
	}

	ids := make([]int, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
