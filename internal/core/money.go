// Package core defines the domain types shared by the budget engine.
//
// This file contains the Money value type. Amounts are integer
// minor-currency units (cents) in a single currency per computation;
// floating point only appears in derived percentages.
package core

import (
	"fmt"
	"math"
	"strconv"
)

// Money is an amount in cents. Signed: negative values are spend.
type Money struct {
	Cents int64
}

// Abs returns the absolute amount.
func (m Money) Abs() Money {
	if m.Cents < 0 {
		return Money{Cents: -m.Cents}
	}
	return m
}

// Format renders the amount as a dollar string for display and anomaly
// descriptions, e.g. -1234 -> "-$12.34".
func (m Money) Format() string {
	cents := m.Cents
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s$%d.%02d", sign, cents/100, cents%100)
}

// Money marshals as a bare integer so wire fields read as plain cents.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatInt(m.Cents, 10)), nil
}

func (m *Money) UnmarshalJSON(data []byte) error {
	cents, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("money must be integer cents: %w", err)
	}
	m.Cents = cents
	return nil
}

// Round1 rounds to one decimal place, half away from zero. Used for
// percentUsed and savings-rate figures.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
