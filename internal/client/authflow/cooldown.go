package authflow

import (
	"context"
	"time"
)

// startCooldownLocked resets the cooldown and starts a task that decrements
// it every second until it reaches zero. Any previous task is cancelled.
func (c *Controller) startCooldownLocked() {
	c.stopCooldownLocked()
	c.cooldown = CooldownSeconds

	ctx, cancel := context.WithCancel(context.Background())
	ticks, stop := c.newTicker(time.Second)
	done := make(chan struct{})
	c.stopTick = cancel
	c.tickerDone = done

	go c.runCooldown(ctx, ticks, stop, done)
}

func (c *Controller) runCooldown(ctx context.Context, ticks <-chan time.Time, stop func(), done chan struct{}) {
	defer close(done)
	defer stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticks:
			c.mu.Lock()
			// cancelled while waiting for the lock
			if ctx.Err() != nil {
				c.mu.Unlock()
				return
			}
			if c.cooldown > 0 {
				c.cooldown--
			}
			finished := c.cooldown == 0
			c.mu.Unlock()
			if finished {
				return
			}
		}
	}
}

// stopCooldownLocked cancels the running task, if any, and returns a channel
// closed once it has exited. The caller must wait on it only after
// releasing c.mu.
func (c *Controller) stopCooldownLocked() chan struct{} {
	if c.stopTick == nil {
		return nil
	}
	c.stopTick()
	done := c.tickerDone
	c.stopTick = nil
	c.tickerDone = nil
	return done
}

func wait(done chan struct{}) {
	if done != nil {
		<-done
	}
}
