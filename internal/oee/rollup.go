package oee

import "github.com/platformbuilds/lineboard/internal/models"

// Rollup combines unit summaries into a cross-unit total. Performance is the
// average of unit performances weighted by each unit's targeted output, the
// same weighting Combine applies across models.
func Rollup(units []models.UnitSummary) models.ReportRollup {
	var r models.ReportRollup
	actual := make([]int64, len(units))
	var totalActual int64
	for i, u := range units {
		r.SuccessQty += u.SuccessQty
		r.FailQty += u.FailQty
		r.TotalQty += u.TotalQty
		r.TheoreticalQty += u.TheoreticalQty
		for _, m := range u.Models {
			if m.HasTarget() {
				actual[i] += m.TotalQty
			}
		}
		totalActual += actual[i]
	}
	if processed := r.SuccessQty + r.FailQty; processed > 0 {
		r.Quality = float64(r.SuccessQty) / float64(processed)
	}
	if totalActual == 0 {
		return r
	}
	for i, u := range units {
		if actual[i] == 0 {
			continue
		}
		r.Performance += float64(actual[i]) / float64(totalActual) * u.Performance
	}
	return r
}
