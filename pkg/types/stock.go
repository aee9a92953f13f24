package types

import (
	"encoding/json"
	"fmt"
)

// Stock is either a tracked non-negative quantity or untracked (unlimited).
// The zero value is Tracked(0).
type Stock struct {
	quantity  int
	untracked bool
}

// Tracked returns a stock level with a finite quantity. Negative input clamps to zero.
func Tracked(quantity int) Stock {
	if quantity < 0 {
		quantity = 0
	}
	return Stock{quantity: quantity}
}

// Untracked returns a stock level that never blocks a purchase.
func Untracked() Stock {
	return Stock{untracked: true}
}

func (s Stock) IsTracked() bool {
	return !s.untracked
}

// Quantity returns the tracked quantity and whether the stock is tracked.
func (s Stock) Quantity() (int, bool) {
	if s.untracked {
		return 0, false
	}
	return s.quantity, true
}

// Allows reports whether a line of the given quantity may be added.
func (s Stock) Allows(quantity int) bool {
	if s.untracked {
		return true
	}
	return quantity <= s.quantity
}

// IsLow reports 0 < quantity < threshold. Untracked and depleted stock are never low.
func (s Stock) IsLow(threshold int) bool {
	if s.untracked {
		return false
	}
	return s.quantity > 0 && s.quantity < threshold
}

func (s Stock) String() string {
	if s.untracked {
		return "untracked"
	}
	return fmt.Sprintf("%d", s.quantity)
}

// MarshalJSON renders tracked stock as a number and untracked stock as null.
func (s Stock) MarshalJSON() ([]byte, error) {
	if s.untracked {
		return []byte("null"), nil
	}
	return json.Marshal(s.quantity)
}

// UnmarshalJSON accepts a non-negative integer or null (untracked).
func (s *Stock) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = Untracked()
		return nil
	}
	var qty int
	if err := json.Unmarshal(data, &qty); err != nil {
		return fmt.Errorf("stock: %w", err)
	}
	if qty < 0 {
		return fmt.Errorf("stock: negative quantity %d", qty)
	}
	*s = Tracked(qty)
	return nil
}
