package core

import (
	"encoding/json"
	"fmt"
	"strings"
)

// TemplateAmount is the tagged variant for a template entry: either a fixed
// cent amount or a percentage of remaining income, never both. Making this a
// closed interface turns the old "two optional fields" convention into a
// compile-time invariant.
type TemplateAmount interface {
	isTemplateAmount()
}

// FixedCents allocates an absolute amount regardless of income.
type FixedCents int64

func (FixedCents) isTemplateAmount() {}

// Percentage allocates a share (0-100) of income remaining after all fixed
// entries are taken out.
type Percentage float64

func (Percentage) isTemplateAmount() {}

// TemplateEntry binds one category to its amount rule. Output order of
// template application follows entry order.
type TemplateEntry struct {
	CategoryID string
	Amount     TemplateAmount
}

// BudgetTemplate is a named list of allocation rules.
type BudgetTemplate struct {
	Name    string          `json:"name"`
	Entries []TemplateEntry `json:"allocations"`
}

// TemplateAllocation is one resolved entry of an applied template.
type TemplateAllocation struct {
	CategoryID     string `json:"categoryId"`
	AllocatedCents int64  `json:"allocatedCents"`
}

// Validate checks every entry carries a category and a well-formed amount.
func (t BudgetTemplate) Validate() error {
	for i, e := range t.Entries {
		if strings.TrimSpace(e.CategoryID) == "" {
			return fmt.Errorf("entry %d: %w", i, ErrEmptyCategoryID)
		}
		switch a := e.Amount.(type) {
		case FixedCents:
			if a < 0 {
				return fmt.Errorf("entry %d (%s): %w", i, e.CategoryID, ErrInvalidFixedCents)
			}
		case Percentage:
			if a < 0 || a > 100 {
				return fmt.Errorf("entry %d (%s): %w", i, e.CategoryID, ErrInvalidPercentage)
			}
		default:
			return fmt.Errorf("entry %d (%s): %w", i, e.CategoryID, ErrMissingAmount)
		}
	}
	return nil
}

// templateEntryJSON is the wire form of a TemplateEntry. Exactly one of
// fixedCents and percentage must be present.
type templateEntryJSON struct {
	CategoryID string   `json:"categoryId"`
	FixedCents *int64   `json:"fixedCents,omitempty"`
	Percentage *float64 `json:"percentage,omitempty"`
}

func (e TemplateEntry) MarshalJSON() ([]byte, error) {
	out := templateEntryJSON{CategoryID: e.CategoryID}
	switch a := e.Amount.(type) {
	case FixedCents:
		v := int64(a)
		out.FixedCents = &v
	case Percentage:
		v := float64(a)
		out.Percentage = &v
	}
	return json.Marshal(out)
}

func (e *TemplateEntry) UnmarshalJSON(data []byte) error {
	var in templateEntryJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	if in.FixedCents != nil && in.Percentage != nil {
		return fmt.Errorf("entry %s: fixedCents and percentage are mutually exclusive", in.CategoryID)
	}
	e.CategoryID = in.CategoryID
	switch {
	case in.FixedCents != nil:
		e.Amount = FixedCents(*in.FixedCents)
	case in.Percentage != nil:
		e.Amount = Percentage(*in.Percentage)
	default:
		e.Amount = nil
	}
	return nil
}
