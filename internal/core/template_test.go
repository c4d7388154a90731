package core

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestBudgetTemplateValidate(t *testing.T) {
	tests := []struct {
		name    string
		tpl     BudgetTemplate
		wantErr error
	}{
		{
			name: "valid mixed template",
			tpl: BudgetTemplate{
				Name: "default",
				Entries: []TemplateEntry{
					{CategoryID: "rent", Amount: FixedCents(212900)},
					{CategoryID: "food", Amount: Percentage(50)},
				},
			},
		},
		{
			name: "empty category id",
			tpl: BudgetTemplate{
				Entries: []TemplateEntry{{CategoryID: "  ", Amount: FixedCents(100)}},
			},
			wantErr: ErrEmptyCategoryID,
		},
		{
			name: "negative fixed amount",
			tpl: BudgetTemplate{
				Entries: []TemplateEntry{{CategoryID: "rent", Amount: FixedCents(-1)}},
			},
			wantErr: ErrInvalidFixedCents,
		},
		{
			name: "percentage above 100",
			tpl: BudgetTemplate{
				Entries: []TemplateEntry{{CategoryID: "food", Amount: Percentage(101)}},
			},
			wantErr: ErrInvalidPercentage,
		},
		{
			name: "missing amount",
			tpl: BudgetTemplate{
				Entries: []TemplateEntry{{CategoryID: "food"}},
			},
			wantErr: ErrMissingAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.tpl.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("expected ok, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestTemplateEntryJSON(t *testing.T) {
	tpl := BudgetTemplate{
		Name: "payday split",
		Entries: []TemplateEntry{
			{CategoryID: "rent", Amount: FixedCents(212900)},
			{CategoryID: "food", Amount: Percentage(50)},
		},
	}

	b, err := json.Marshal(tpl)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var back BudgetTemplate
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(back.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(back.Entries))
	}
	if fixed, ok := back.Entries[0].Amount.(FixedCents); !ok || fixed != 212900 {
		t.Errorf("entry 0 = %#v, want FixedCents(212900)", back.Entries[0].Amount)
	}
	if pct, ok := back.Entries[1].Amount.(Percentage); !ok || pct != 50 {
		t.Errorf("entry 1 = %#v, want Percentage(50)", back.Entries[1].Amount)
	}
}

func TestTemplateEntryJSONMutuallyExclusive(t *testing.T) {
	var e TemplateEntry
	raw := []byte(`{"categoryId":"rent","fixedCents":100,"percentage":10}`)
	if err := json.Unmarshal(raw, &e); err == nil {
		t.Fatal("expected error when both fixedCents and percentage are set")
	}
}
