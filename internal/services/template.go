package services

import (
	"fmt"
	"math"

	"paydash/internal/core"
)

// ApplyTemplate resolves a budget template against a total income figure.
// Fixed entries pass through unchanged; percentage entries share the income
// left after all fixed entries, floored at zero. Output order matches entry
// order. Per-entry rounding means the allocated total may drift from income
// by up to one cent per percentage entry; that drift is accepted, not
// redistributed.
func ApplyTemplate(template core.BudgetTemplate, incomeCents int64) ([]core.TemplateAllocation, error) {
	if err := template.Validate(); err != nil {
		return nil, fmt.Errorf("validate template %q: %w", template.Name, err)
	}

	var fixedTotal int64
	for _, e := range template.Entries {
		if fixed, ok := e.Amount.(core.FixedCents); ok {
			fixedTotal += int64(fixed)
		}
	}

	remaining := incomeCents - fixedTotal
	if remaining < 0 {
		remaining = 0
	}

	out := make([]core.TemplateAllocation, 0, len(template.Entries))
	for _, e := range template.Entries {
		var cents int64
		switch a := e.Amount.(type) {
		case core.FixedCents:
			cents = int64(a)
		case core.Percentage:
			cents = int64(math.Round(float64(remaining) * float64(a) / 100))
		}
		out = append(out, core.TemplateAllocation{
			CategoryID:     e.CategoryID,
			AllocatedCents: cents,
		})
	}
	return out, nil
}
