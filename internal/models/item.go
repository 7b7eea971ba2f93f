package models

import (
	"errors"
	"fmt"
	"time"
)

// Units a shopping-list item can be measured in. "szt" (pieces) is the
// default; "inna" is the catch-all.
const (
	UnitSzt  = "szt"
	UnitKg   = "kg"
	UnitG    = "g"
	UnitL    = "l"
	UnitMl   = "ml"
	UnitOpak = "opak"
	UnitInna = "inna"
)

// Units lists every accepted unit value, in display order.
var Units = []string{UnitSzt, UnitKg, UnitG, UnitL, UnitMl, UnitOpak, UnitInna}

// ValidUnit reports whether u is one of the accepted units.
func ValidUnit(u string) bool {
	for _, v := range Units {
		if u == v {
			return true
		}
	}
	return false
}

var (
	ErrEmptyText       = errors.New("text is required")
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
)

// Item represents a row in the PostgreSQL items table. CompletedAt is
// set when the item is checked off and cleared when it is unchecked.
type Item struct {
	ID          string     `json:"id"`
	UserID      string     `json:"-"`
	Text        string     `json:"text"`
	Quantity    int        `json:"quantity"`
	Unit        string     `json:"unit"`
	Description string     `json:"description"`
	Completed   bool       `json:"completed"`
	AddedAt     time.Time  `json:"added_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// AddItemRequest is the JSON body for POST /api/items and the element
// type of a replace-list request.
type AddItemRequest struct {
	Text        string `json:"text"`
	Quantity    int    `json:"quantity"`
	Unit        string `json:"unit"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
}

// Validate checks the request against the item field rules.
func (r *AddItemRequest) Validate() error {
	if r.Text == "" {
		return ErrEmptyText
	}
	if r.Quantity < 1 {
		return ErrInvalidQuantity
	}
	if r.Unit == "" {
		r.Unit = UnitSzt
	}
	if !ValidUnit(r.Unit) {
		return fmt.Errorf("invalid unit: %s", r.Unit)
	}
	return nil
}

// ItemPatch is the JSON body for PUT /api/items?id=ID. Only the fields
// present in the request are applied; the updatable set is fixed to
// exactly these five columns.
type ItemPatch struct {
	Text        *string `json:"text,omitempty"`
	Quantity    *int    `json:"quantity,omitempty"`
	Unit        *string `json:"unit,omitempty"`
	Description *string `json:"description,omitempty"`
	Completed   *bool   `json:"completed,omitempty"`
}

// IsEmpty reports whether the patch carries no fields at all.
func (p *ItemPatch) IsEmpty() bool {
	return p.Text == nil && p.Quantity == nil && p.Unit == nil &&
		p.Description == nil && p.Completed == nil
}

// Validate checks every field that is present; absent fields are fine.
func (p *ItemPatch) Validate() error {
	if p.Text != nil && *p.Text == "" {
		return ErrEmptyText
	}
	if p.Quantity != nil && *p.Quantity < 1 {
		return ErrInvalidQuantity
	}
	if p.Unit != nil && !ValidUnit(*p.Unit) {
		return fmt.Errorf("invalid unit: %s", *p.Unit)
	}
	return nil
}

// ReplaceRequest is the JSON body for PUT /api/items?action=replace.
type ReplaceRequest struct {
	Items []AddItemRequest `json:"items"`
}
