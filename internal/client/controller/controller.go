// Package controller owns the client's in-memory copy of the shopping
// list and the rules for mutating it. It is the single writer of the
// rendered view.
//
// Two modes. In normal mode every action is pessimistic: the server is
// asked first and local state changes only on success, so a failed
// toggle leaves the pre-toggle view intact. Edit mode is fully
// client-buffered: entering takes a snapshot, per-row edits and
// deletes touch only the local list, Save commits the whole list in
// one replace-list call, and Cancel restores the snapshot without any
// server traffic.
package controller

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/mzurek/zakupy/internal/models"
)

var (
	// ErrEditing is returned by normal-mode actions while edit mode is active.
	ErrEditing = errors.New("not available in edit mode")
	// ErrNotEditing is returned by edit-mode actions in normal mode.
	ErrNotEditing = errors.New("edit mode is not active")
	// ErrItemNotFound means the id is not in the local list.
	ErrItemNotFound = errors.New("item not in list")
)

// Mode is the controller's render/interaction mode.
type Mode int

const (
	ModeNormal Mode = iota
	ModeEditing
)

// API is the slice of the backend the controller needs.
type API interface {
	ListItems(ctx context.Context) ([]models.Item, error)
	AddItem(ctx context.Context, req models.AddItemRequest) (*models.Item, error)
	UpdateItem(ctx context.Context, id string, patch models.ItemPatch) error
	DeleteItem(ctx context.Context, id string) error
	RemoveChecked(ctx context.Context) (int64, error)
	ClearList(ctx context.Context) (int64, error)
	ReplaceList(ctx context.Context, items []models.AddItemRequest) error
}

// Controller holds the authoritative client-side list state.
type Controller struct {
	api      API
	mode     Mode
	items    []models.Item
	snapshot []models.Item
}

func New(api API) *Controller {
	return &Controller{api: api}
}

func (c *Controller) Mode() Mode {
	return c.mode
}

// Items returns a deep copy of the current list.
func (c *Controller) Items() []models.Item {
	return copyItems(c.items)
}

func copyItems(items []models.Item) []models.Item {
	out := make([]models.Item, len(items))
	for i, it := range items {
		out[i] = it
		if it.CompletedAt != nil {
			t := *it.CompletedAt
			out[i].CompletedAt = &t
		}
	}
	return out
}

func (c *Controller) find(id string) int {
	for i := range c.items {
		if c.items[i].ID == id {
			return i
		}
	}
	return -1
}

// Refresh reloads the list from the server.
func (c *Controller) Refresh(ctx context.Context) error {
	if c.mode == ModeEditing {
		return ErrEditing
	}
	items, err := c.api.ListItems(ctx)
	if err != nil {
		return err
	}
	c.items = items
	return nil
}

// Add creates an item server-side and inserts it at the top of its
// group, matching the server's unchecked-first, newest-first order.
func (c *Controller) Add(ctx context.Context, req models.AddItemRequest) (*models.Item, error) {
	if c.mode == ModeEditing {
		return nil, ErrEditing
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	item, err := c.api.AddItem(ctx, req)
	if err != nil {
		return nil, err
	}
	if item.Completed {
		c.items = append(c.items, *item)
	} else {
		c.items = append([]models.Item{*item}, c.items...)
	}
	return item, nil
}

// Toggle flips an item's completion state. The local flip happens only
// after the server confirms; on failure the view stays as it was.
func (c *Controller) Toggle(ctx context.Context, id string) error {
	if c.mode == ModeEditing {
		return ErrEditing
	}
	i := c.find(id)
	if i < 0 {
		return ErrItemNotFound
	}
	next := !c.items[i].Completed
	if err := c.api.UpdateItem(ctx, id, models.ItemPatch{Completed: &next}); err != nil {
		return err
	}
	c.items[i].Completed = next
	if next {
		now := time.Now()
		c.items[i].CompletedAt = &now
	} else {
		c.items[i].CompletedAt = nil
	}
	c.items[i].UpdatedAt = time.Now()
	return nil
}

func (c *Controller) Delete(ctx context.Context, id string) error {
	if c.mode == ModeEditing {
		return ErrEditing
	}
	i := c.find(id)
	if i < 0 {
		return ErrItemNotFound
	}
	if err := c.api.DeleteItem(ctx, id); err != nil {
		return err
	}
	c.items = append(c.items[:i], c.items[i+1:]...)
	return nil
}

// RemoveChecked sweeps completed items and returns the server's count.
func (c *Controller) RemoveChecked(ctx context.Context) (int64, error) {
	if c.mode == ModeEditing {
		return 0, ErrEditing
	}
	count, err := c.api.RemoveChecked(ctx)
	if err != nil {
		return 0, err
	}
	kept := c.items[:0]
	for _, it := range c.items {
		if !it.Completed {
			kept = append(kept, it)
		}
	}
	c.items = kept
	return count, nil
}

func (c *Controller) Clear(ctx context.Context) (int64, error) {
	if c.mode == ModeEditing {
		return 0, ErrEditing
	}
	count, err := c.api.ClearList(ctx)
	if err != nil {
		return 0, err
	}
	c.items = nil
	return count, nil
}

// EnterEdit snapshots the list and switches to edit mode.
func (c *Controller) EnterEdit() error {
	if c.mode == ModeEditing {
		return ErrEditing
	}
	c.snapshot = copyItems(c.items)
	c.mode = ModeEditing
	return nil
}

// EditItem applies a field patch to the local list only. Nothing is
// sent to the server until Save.
func (c *Controller) EditItem(id string, patch models.ItemPatch) error {
	if c.mode != ModeEditing {
		return ErrNotEditing
	}
	if err := patch.Validate(); err != nil {
		return err
	}
	i := c.find(id)
	if i < 0 {
		return ErrItemNotFound
	}
	it := &c.items[i]
	if patch.Text != nil {
		it.Text = *patch.Text
	}
	if patch.Quantity != nil {
		it.Quantity = *patch.Quantity
	}
	if patch.Unit != nil {
		it.Unit = *patch.Unit
	}
	if patch.Description != nil {
		it.Description = *patch.Description
	}
	if patch.Completed != nil {
		it.Completed = *patch.Completed
	}
	return nil
}

// RemoveEdited drops a row from the local list only.
func (c *Controller) RemoveEdited(id string) error {
	if c.mode != ModeEditing {
		return ErrNotEditing
	}
	i := c.find(id)
	if i < 0 {
		return ErrItemNotFound
	}
	c.items = append(c.items[:i], c.items[i+1:]...)
	return nil
}

// Save commits the buffered list with one replace-list call, then
// reloads so the local copy picks up the freshly assigned ids. The
// controller stays in edit mode when the commit fails.
func (c *Controller) Save(ctx context.Context) error {
	if c.mode != ModeEditing {
		return ErrNotEditing
	}
	reqs := make([]models.AddItemRequest, len(c.items))
	for i, it := range c.items {
		reqs[i] = models.AddItemRequest{
			Text:        it.Text,
			Quantity:    it.Quantity,
			Unit:        it.Unit,
			Description: it.Description,
			Completed:   it.Completed,
		}
		if err := reqs[i].Validate(); err != nil {
			return fmt.Errorf("item %d: %w", i+1, err)
		}
	}
	if err := c.api.ReplaceList(ctx, reqs); err != nil {
		return err
	}
	c.mode = ModeNormal
	c.snapshot = nil
	return c.Refresh(ctx)
}

// Cancel restores the entry snapshot and leaves edit mode. No server
// call: nothing was persisted while editing.
func (c *Controller) Cancel() error {
	if c.mode != ModeEditing {
		return ErrNotEditing
	}
	c.items = c.snapshot
	c.snapshot = nil
	c.mode = ModeNormal
	return nil
}

// Render writes the view for the current (list, mode) pair.
func (c *Controller) Render(w io.Writer) {
	if len(c.items) == 0 {
		fmt.Fprintln(w, "  (list is empty)")
		return
	}
	for i, it := range c.items {
		if c.mode == ModeEditing {
			fmt.Fprintf(w, "%3d. text=%q quantity=%d unit=%s description=%q completed=%t\n",
				i+1, it.Text, it.Quantity, it.Unit, it.Description, it.Completed)
			continue
		}
		box := "[ ]"
		name := it.Text
		if it.Completed {
			box = "[x]"
			name = "~" + name + "~"
		}
		fmt.Fprintf(w, "%3d. %s %s (%d %s)\n", i+1, box, name, it.Quantity, it.Unit)
		if it.Description != "" {
			fmt.Fprintf(w, "       %s\n", it.Description)
		}
	}
}
