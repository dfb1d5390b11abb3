// Package playback advances a preview frame index on a timed cadence.
// The controller reads the frame count but never mutates project state.
package playback

import (
	"sync"
	"time"
)

// State is the controller's playback state.
type State int

const (
	Stopped State = iota
	Playing
)

// Controller is a two-state machine (Stopped/Playing) over a circular
// frame index. With an empty project every operation is a no-op.
type Controller struct {
	mu sync.Mutex

	sched      Scheduler
	frameCount func() int
	onFrame    func(index int)

	fps     int
	tickFPS int // fps the running schedule was built with
	index   int
	state   State
}

// NewController builds a stopped controller. frameCount reads the live
// project length; onFrame (optional) receives the preview index on
// every advance.
func NewController(sched Scheduler, fps int, frameCount func() int, onFrame func(index int)) *Controller {
	if fps <= 0 {
		fps = 1
	}
	return &Controller{
		sched:      sched,
		frameCount: frameCount,
		onFrame:    onFrame,
		fps:        fps,
	}
}

func period(fps int) time.Duration {
	return time.Second / time.Duration(fps)
}

// Play transitions Stopped -> Playing and schedules the recurring tick
// at 1000/fps ms. A no-op when already playing or the project is empty.
func (c *Controller) Play() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Playing || c.frameCount() == 0 {
		return
	}
	c.state = Playing
	c.tickFPS = c.fps
	c.sched.Start(period(c.fps), c.tick)
}

// Pause transitions Playing -> Stopped and cancels the scheduled tick.
func (c *Controller) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Stopped {
		return
	}
	c.state = Stopped
	c.sched.Stop()
}

// Stop is an alias for Pause; the preview index is kept.
func (c *Controller) Stop() { c.Pause() }

// SetFPS changes the tick rate. While playing it takes effect on the
// next scheduled tick, never retroactively on one already in flight.
func (c *Controller) SetFPS(fps int) {
	if fps <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fps = fps
}

// Next advances the preview index circularly by one, in either state.
func (c *Controller) Next() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.advance(1)
}

// Prev retreats the preview index circularly by one, in either state.
func (c *Controller) Prev() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.advance(-1)
}

// Index returns the current preview index.
func (c *Controller) Index() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index
}

// CurrentState returns Stopped or Playing.
func (c *Controller) CurrentState() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) tick() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Playing {
		return
	}
	c.advance(1)
	if c.fps != c.tickFPS {
		c.tickFPS = c.fps
		c.sched.Reset(period(c.fps))
	}
}

// advance moves the index by delta modulo the live frame count. Caller
// holds c.mu.
func (c *Controller) advance(delta int) {
	n := c.frameCount()
	if n == 0 {
		return
	}
	c.index = ((c.index+delta)%n + n) % n
	if c.onFrame != nil {
		c.onFrame(c.index)
	}
}
