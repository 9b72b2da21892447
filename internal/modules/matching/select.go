// README: Candidate ranking: rating first, capacity as tie-break.
package matching

import (
	"sort"

	"haulmatch/internal/modules/transporter"
)

// SelectBest ranks candidates descending by (rating, vehicle capacity) and
// returns the winner, or nil for an empty pool. The sort is stable, so
// candidates equal on both keys keep their input order and selection is
// deterministic for identical inputs.
func SelectBest(candidates []transporter.Candidate) *transporter.Candidate {
	if len(candidates) == 0 {
		return nil
	}
	ranked := make([]transporter.Candidate, len(candidates))
	copy(ranked, candidates)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Rating != ranked[j].Rating {
			return ranked[i].Rating > ranked[j].Rating
		}
		return ranked[i].VehicleCapacityKg > ranked[j].VehicleCapacityKg
	})
	return &ranked[0]
}
