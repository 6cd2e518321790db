package menu

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// MenuItemRequest is the create and update payload.
type MenuItemRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Available   *bool           `json:"available"`
}

func ValidateMenuItem(req MenuItemRequest) []ValidationError {
	var errors []ValidationError

	if strings.TrimSpace(req.Name) == "" {
		errors = append(errors, ValidationError{Field: "name", Message: "name is required"})
	}
	if strings.TrimSpace(req.Category) == "" {
		errors = append(errors, ValidationError{Field: "category", Message: "category is required"})
	}
	if req.Price.IsNegative() {
		errors = append(errors, ValidationError{Field: "price", Message: "price cannot be negative"})
	}
	if req.Price.Exponent() < -2 && !req.Price.Equal(req.Price.Round(2)) {
		errors = append(errors, ValidationError{Field: "price", Message: "price supports at most two decimals"})
	}

	return errors
}

// Apply copies the request onto item, keeping availability when omitted.
func (req MenuItemRequest) Apply(item *MenuItem) {
	item.Name = strings.TrimSpace(req.Name)
	item.Description = strings.TrimSpace(req.Description)
	item.Price = req.Price
	item.Category = strings.TrimSpace(req.Category)
	if req.Available != nil {
		item.Available = *req.Available
	}
}
