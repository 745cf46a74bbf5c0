// Command API: player input applied between ticks.
package engine

import (
	"fmt"
	"log/slog"

	"github.com/talgya/underkeep/internal/economy"
	"github.com/talgya/underkeep/internal/world"
)

// DragResult reports what one drag changed.
type DragResult struct {
	Tagging   bool         `json:"tagging"` // Mode chosen from the start tile
	Tagged    int          `json:"tagged"`
	Untagged  int          `json:"untagged"`
	Room      economy.Room `json:"room"`
	Converted int          `json:"converted"`
	Cost      int          `json:"cost"`
	Purchased bool         `json:"purchased"` // False when the room could not be paid for
}

// TagRegion tags or untags every taggable tile in the rectangle spanned by
// a and b, and returns how many tiles changed. One call shares one stamp.
func (c *Colony) TagRegion(a, b world.Cell, tag bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tagRegion(c.clampRect(a, b), tag)
}

func (c *Colony) tagRegion(rect world.Rect, tag bool) int {
	var stamp uint64
	if tag {
		stamp = c.grid.NextTagStamp()
	}
	n := 0
	rect.Each(func(cell world.Cell) {
		t := c.grid.Get(cell)
		if t == nil || !t.Kind.Taggable() || t.Tagged == tag {
			return
		}
		if tag {
			c.grid.Tag(cell, stamp)
		} else {
			c.grid.Untag(cell)
		}
		n++
	})
	return n
}

// AssignRoom stamps room over the floor tiles of the rectangle. The whole
// region is paid for up front; nothing changes if the colony cannot afford
// it.
func (c *Colony) AssignRoom(a, b world.Cell, room economy.Room) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, ok := c.purchase(c.clampRect(a, b), room)
	return n, ok
}

func (c *Colony) purchase(rect world.Rect, room economy.Room) (int, bool) {
	if room == economy.RoomNone {
		return 0, false
	}
	spent := c.ledger.Spent
	n, ok := economy.Purchase(c.grid, c.ledger, rect, room)
	cost := c.ledger.Spent - spent
	if !ok {
		c.emit("command", fmt.Sprintf("Not enough gold to build %s", room))
		slog.Info("room purchase refused", "tick", c.tick, "room", room, "secured_gold", c.ledger.SecuredGold(c.grid))
		return 0, false
	}
	if n > 0 {
		c.emit("command", fmt.Sprintf("Built %d tiles of %s for %d gold", n, room, cost))
		slog.Info("room built", "tick", c.tick, "room", room, "tiles", n, "cost", cost)
	}
	return n, true
}

// Drag applies one drag gesture from a to b. Solid tiles are tagged, or
// untagged when the drag starts on a tagged tile; floor tiles receive the
// selected room, if any.
func (c *Colony) Drag(a, b world.Cell) DragResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	rect := c.clampRect(a, b)
	res := DragResult{Tagging: true, Room: c.room}
	if t := c.grid.Get(a); t != nil && t.Tagged {
		res.Tagging = false
	}
	if res.Tagging {
		res.Tagged = c.tagRegion(rect, true)
	} else {
		res.Untagged = c.tagRegion(rect, false)
	}

	if c.room == economy.RoomNone {
		return res
	}
	spent := c.ledger.Spent
	res.Converted, res.Purchased = c.purchase(rect, c.room)
	res.Cost = c.ledger.Spent - spent
	return res
}

// SelectRoom sets the room stamped by subsequent drags.
func (c *Colony) SelectRoom(room economy.Room) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.room = room
}

// SetPaused sets the pause flag.
func (c *Colony) SetPaused(paused bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setPaused(paused)
}

// TogglePause flips the pause flag and returns the new value.
func (c *Colony) TogglePause() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setPaused(!c.paused)
	return c.paused
}

func (c *Colony) setPaused(paused bool) {
	if c.paused == paused {
		return
	}
	c.paused = paused
	slog.Info("pause changed", "tick", c.tick, "paused", paused)
}

// Paused reports whether the tick clock is paused.
func (c *Colony) Paused() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.paused
}

// Pan moves the view origin, keeping the viewport inside the grid.
func (c *Colony) Pan(dx, dy int) world.Cell {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.view.X = clamp(c.view.X+dx, 0, c.grid.Width-c.viewW)
	c.view.Y = clamp(c.view.Y+dy, 0, c.grid.Height-c.viewH)
	return c.view
}

// SelectAt selects a creature standing on cell. Repeated selection of the
// same cell cycles through the creatures there in roster order; an empty
// cell clears the selection.
func (c *Colony) SelectAt(cell world.Cell) (CreatureView, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	here := c.roster.At(cell)
	if len(here) == 0 {
		c.selected = 0
		return CreatureView{}, false
	}
	next := here[0]
	for i, cr := range here {
		if cr.ID == c.selected {
			next = here[(i+1)%len(here)]
			break
		}
	}
	c.selected = next.ID
	return viewOf(next), true
}

// ClearSelection drops the selected creature and room.
func (c *Colony) ClearSelection() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selected = 0
	c.room = economy.RoomNone
}

// Selected returns the selected creature, if any.
func (c *Colony) Selected() (CreatureView, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cr := c.roster.Get(c.selected)
	if cr == nil {
		return CreatureView{}, false
	}
	return viewOf(cr), true
}

// clampRect normalizes the corners and intersects them with the grid. A
// rectangle entirely off the grid comes back empty.
func (c *Colony) clampRect(a, b world.Cell) world.Rect {
	r := world.RectFrom(a, b)
	r.Min.X = max(r.Min.X, 0)
	r.Min.Y = max(r.Min.Y, 0)
	r.Max.X = min(r.Max.X, c.grid.Width-1)
	r.Max.Y = min(r.Max.Y, c.grid.Height-1)
	return r
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	return max(lo, min(hi, v))
}
