package boq

import (
	"github.com/aryaintel/pricing-engine/pricing"
)

// =============================================================================
// BOQ TOTALS - element-wise aggregation over line values
// =============================================================================

// TotalsOptions controls aggregation scope. Inactive lines are INCLUDED by
// default: the active flag is advisory for display. Estimators who want
// committed-only figures set ActiveOnly explicitly.
type TotalsOptions struct {
	ActiveOnly bool
}

// Totals sums revenue, COGS, and gross margin across the lines. The margin
// total always equals revenue total minus COGS total.
func Totals(lines []Line, opts TotalsOptions) pricing.LineValue {
	var total pricing.LineValue
	for i := range lines {
		if opts.ActiveOnly && !lines[i].Active {
			continue
		}
		total = total.Add(lines[i].Valuate())
	}
	return total
}
