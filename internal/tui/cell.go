package tui

import (
	"image"

	"github.com/foxstudiohua/AsynKingfisher/binder"
)

// cell is one gallery slot. It implements binder.Target by embedding a
// Binding, so its coordination state lives and dies with the cell.
type cell struct {
	binding binder.Binding
	img     image.Image

	// View state maintained by the model, all mutated on the update
	// loop.
	url     string
	loading bool
	err     error
}

func (c *cell) Slot() image.Image        { return c.img }
func (c *cell) SetSlot(img image.Image)  { c.img = img }
func (c *cell) Binding() *binder.Binding { return &c.binding }

var _ binder.Target = (*cell)(nil)
