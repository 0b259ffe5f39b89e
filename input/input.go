// Package input turns pointer and wheel events into pan and zoom changes of a
// view.State.
package input

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stewi1014/mandelview/view"
)

type Kind int

const (
	Press Kind = iota
	Move
	Release
	Leave
	Wheel
)

func (k Kind) String() string {
	switch k {
	case Press:
		return "press"
	case Move:
		return "move"
	case Release:
		return "release"
	case Leave:
		return "leave"
	case Wheel:
		return "wheel"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Event is a pointer or wheel event in screen coordinates relative to the
// viewport's top-left corner. DeltaY is only meaningful for Wheel events;
// positive values scroll away from the viewer.
type Event struct {
	Kind   Kind
	X, Y   float64
	DeltaY float64
}

type DragState int

const (
	Idle DragState = iota
	Dragging
)

// Controller applies events to a view.State. It owns the drag session.
type Controller struct {
	view     *view.State
	viewport view.Viewport

	state       DragState
	lastPointer mgl64.Vec2
}

func NewController(v *view.State, vp view.Viewport) *Controller {
	return &Controller{
		view:     v,
		viewport: vp,
	}
}

func (c *Controller) Resize(width, height int) {
	c.viewport = view.NewViewport(width, height)
}

func (c *Controller) Viewport() view.Viewport { return c.viewport }

func (c *Controller) State() DragState { return c.state }

// Handle applies ev and reports whether the view changed and needs redrawing.
func (c *Controller) Handle(ev Event) bool {
	switch ev.Kind {
	case Press:
		c.state = Dragging
		c.lastPointer = mgl64.Vec2{ev.X, ev.Y}
		return false

	case Move:
		if c.state != Dragging {
			return false
		}
		pos := mgl64.Vec2{ev.X, ev.Y}
		d := pos.Sub(c.lastPointer)
		c.lastPointer = pos
		if d[0] == 0 && d[1] == 0 {
			return false
		}
		c.view.Pan(c.viewport, d[0], d[1])
		return true

	case Release, Leave:
		c.state = Idle
		return false

	case Wheel:
		return c.view.ZoomAt(c.viewport, ev.X, ev.Y, ev.DeltaY)
	}
	return false
}
