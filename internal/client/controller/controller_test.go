package controller

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mzurek/zakupy/internal/models"
)

// fakeAPI is a scriptable in-memory backend. failNext makes the next
// call fail once.
type fakeAPI struct {
	items    []models.Item
	nextID   int
	failNext error
	calls    []string
}

func (f *fakeAPI) fail() error {
	err := f.failNext
	f.failNext = nil
	return err
}

func (f *fakeAPI) ListItems(context.Context) ([]models.Item, error) {
	f.calls = append(f.calls, "list")
	if err := f.fail(); err != nil {
		return nil, err
	}
	out := make([]models.Item, len(f.items))
	copy(out, f.items)
	return out, nil
}

func (f *fakeAPI) AddItem(_ context.Context, req models.AddItemRequest) (*models.Item, error) {
	f.calls = append(f.calls, "add")
	if err := f.fail(); err != nil {
		return nil, err
	}
	f.nextID++
	it := models.Item{
		ID:        string(rune('a' + f.nextID)),
		Text:      req.Text,
		Quantity:  req.Quantity,
		Unit:      req.Unit,
		Completed: req.Completed,
	}
	f.items = append(f.items, it)
	return &it, nil
}

func (f *fakeAPI) UpdateItem(_ context.Context, id string, patch models.ItemPatch) error {
	f.calls = append(f.calls, "update")
	if err := f.fail(); err != nil {
		return err
	}
	for i := range f.items {
		if f.items[i].ID == id && patch.Completed != nil {
			f.items[i].Completed = *patch.Completed
		}
	}
	return nil
}

func (f *fakeAPI) DeleteItem(_ context.Context, id string) error {
	f.calls = append(f.calls, "delete")
	if err := f.fail(); err != nil {
		return err
	}
	for i := range f.items {
		if f.items[i].ID == id {
			f.items = append(f.items[:i], f.items[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeAPI) RemoveChecked(context.Context) (int64, error) {
	f.calls = append(f.calls, "remove_checked")
	if err := f.fail(); err != nil {
		return 0, err
	}
	var n int64
	kept := f.items[:0]
	for _, it := range f.items {
		if it.Completed {
			n++
		} else {
			kept = append(kept, it)
		}
	}
	f.items = kept
	return n, nil
}

func (f *fakeAPI) ClearList(context.Context) (int64, error) {
	f.calls = append(f.calls, "clear")
	if err := f.fail(); err != nil {
		return 0, err
	}
	n := int64(len(f.items))
	f.items = nil
	return n, nil
}

func (f *fakeAPI) ReplaceList(_ context.Context, items []models.AddItemRequest) error {
	f.calls = append(f.calls, "replace")
	if err := f.fail(); err != nil {
		return err
	}
	f.items = nil
	for _, req := range items {
		f.nextID++
		f.items = append(f.items, models.Item{
			ID:        string(rune('a' + f.nextID)),
			Text:      req.Text,
			Quantity:  req.Quantity,
			Unit:      req.Unit,
			Completed: req.Completed,
		})
	}
	return nil
}

func seeded(t *testing.T) (*Controller, *fakeAPI) {
	t.Helper()
	api := &fakeAPI{}
	api.AddItem(context.Background(), models.AddItemRequest{Text: "Milk", Quantity: 2, Unit: "l"})
	api.AddItem(context.Background(), models.AddItemRequest{Text: "Bread", Quantity: 1, Unit: "szt"})
	c := New(api)
	require.NoError(t, c.Refresh(context.Background()))
	api.calls = nil
	return c, api
}

func TestAddPrependsIncomplete(t *testing.T) {
	c, _ := seeded(t)
	item, err := c.Add(context.Background(), models.AddItemRequest{Text: "Eggs", Quantity: 10, Unit: "szt"})
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, "Eggs", c.Items()[0].Text)
}

func TestAddValidatesLocally(t *testing.T) {
	c, api := seeded(t)
	_, err := c.Add(context.Background(), models.AddItemRequest{Text: "", Quantity: 1, Unit: "szt"})
	require.Error(t, err)
	assert.Empty(t, api.calls, "invalid item never reaches the server")
}

func TestToggleIsPessimistic(t *testing.T) {
	c, api := seeded(t)
	id := c.Items()[0].ID

	api.failNext = errors.New("boom")
	require.Error(t, c.Toggle(context.Background(), id))
	assert.False(t, c.Items()[0].Completed, "failed toggle leaves the view untouched")
	assert.Nil(t, c.Items()[0].CompletedAt)

	require.NoError(t, c.Toggle(context.Background(), id))
	assert.True(t, c.Items()[0].Completed)
	assert.NotNil(t, c.Items()[0].CompletedAt)

	require.NoError(t, c.Toggle(context.Background(), id))
	assert.False(t, c.Items()[0].Completed)
	assert.Nil(t, c.Items()[0].CompletedAt)
}

func TestDeleteRemovesLocallyOnSuccessOnly(t *testing.T) {
	c, api := seeded(t)
	id := c.Items()[0].ID

	api.failNext = errors.New("boom")
	require.Error(t, c.Delete(context.Background(), id))
	assert.Len(t, c.Items(), 2)

	require.NoError(t, c.Delete(context.Background(), id))
	assert.Len(t, c.Items(), 1)
}

func TestEditModeBuffersLocally(t *testing.T) {
	c, api := seeded(t)
	require.NoError(t, c.EnterEdit())
	assert.Equal(t, ModeEditing, c.Mode())

	// normal-mode actions are refused while editing
	require.ErrorIs(t, c.Refresh(context.Background()), ErrEditing)
	_, err := c.Add(context.Background(), models.AddItemRequest{Text: "x", Quantity: 1, Unit: "szt"})
	require.ErrorIs(t, err, ErrEditing)
	require.ErrorIs(t, c.Toggle(context.Background(), "a"), ErrEditing)

	text := "Oat milk"
	require.NoError(t, c.EditItem(c.Items()[0].ID, models.ItemPatch{Text: &text}))
	require.NoError(t, c.RemoveEdited(c.Items()[1].ID))

	assert.Empty(t, api.calls, "edits stay local until save")
	assert.Equal(t, "Oat milk", c.Items()[0].Text)
	assert.Len(t, c.Items(), 1)
}

func TestEditModeCancelRestoresSnapshot(t *testing.T) {
	c, api := seeded(t)
	require.NoError(t, c.EnterEdit())

	text := "Oat milk"
	require.NoError(t, c.EditItem(c.Items()[0].ID, models.ItemPatch{Text: &text}))
	require.NoError(t, c.RemoveEdited(c.Items()[1].ID))

	require.NoError(t, c.Cancel())
	assert.Equal(t, ModeNormal, c.Mode())
	assert.Empty(t, api.calls, "cancel never talks to the server")

	items := c.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "Milk", items[0].Text)
}

func TestEditModeSaveCommitsWholeList(t *testing.T) {
	c, api := seeded(t)
	require.NoError(t, c.EnterEdit())

	qty := 4
	require.NoError(t, c.EditItem(c.Items()[0].ID, models.ItemPatch{Quantity: &qty}))
	require.NoError(t, c.Save(context.Background()))

	assert.Equal(t, ModeNormal, c.Mode())
	assert.Equal(t, []string{"replace", "list"}, api.calls)
	require.Len(t, api.items, 2)
	assert.Equal(t, 4, api.items[0].Quantity)
}

func TestEditItemValidatesFields(t *testing.T) {
	c, api := seeded(t)
	require.NoError(t, c.EnterEdit())

	qty := 0
	require.Error(t, c.EditItem(c.Items()[0].ID, models.ItemPatch{Quantity: &qty}))
	unit := "gallon"
	require.Error(t, c.EditItem(c.Items()[0].ID, models.ItemPatch{Unit: &unit}))

	assert.Empty(t, api.calls)
	assert.Equal(t, 2, c.Items()[0].Quantity, "rejected edits change nothing")
}

func TestEditModeSaveFailureKeepsEditing(t *testing.T) {
	c, api := seeded(t)
	require.NoError(t, c.EnterEdit())

	api.failNext = errors.New("boom")
	require.Error(t, c.Save(context.Background()))
	assert.Equal(t, ModeEditing, c.Mode())

	require.NoError(t, c.Save(context.Background()))
	assert.Equal(t, ModeNormal, c.Mode())
}

func TestEditActionsRequireEditMode(t *testing.T) {
	c, _ := seeded(t)
	text := "x"
	require.ErrorIs(t, c.EditItem("a", models.ItemPatch{Text: &text}), ErrNotEditing)
	require.ErrorIs(t, c.RemoveEdited("a"), ErrNotEditing)
	require.ErrorIs(t, c.Save(context.Background()), ErrNotEditing)
	require.ErrorIs(t, c.Cancel(), ErrNotEditing)
}

func TestRemoveCheckedAndClear(t *testing.T) {
	c, _ := seeded(t)
	require.NoError(t, c.Toggle(context.Background(), c.Items()[0].ID))

	count, err := c.RemoveChecked(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
	assert.Len(t, c.Items(), 1)

	count, err = c.Clear(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
	assert.Empty(t, c.Items())
}

func TestRenderEmptyAndModes(t *testing.T) {
	c := New(&fakeAPI{})
	var buf bytes.Buffer
	c.Render(&buf)
	assert.Contains(t, buf.String(), "list is empty")

	c, _ = seeded(t)
	require.NoError(t, c.Toggle(context.Background(), c.Items()[1].ID))

	buf.Reset()
	c.Render(&buf)
	out := buf.String()
	assert.Contains(t, out, "[ ] Milk (2 l)")
	assert.Contains(t, out, "[x] ~Bread~ (1 szt)")

	require.NoError(t, c.EnterEdit())
	buf.Reset()
	c.Render(&buf)
	assert.Contains(t, buf.String(), `text="Milk"`)
}
