package chordring

import (
	"context"
	"sync"
	"time"
)

// coordinator runs the node's background workers.
type coordinator struct {
	node    *Node
	options options
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// newCoordinator creates a new coordinator.
func newCoordinator(node *Node, opts options) *coordinator {
	return &coordinator{
		node:    node,
		options: opts,
	}
}

// start launches the configured workers and returns the context they run
// under. Workers use a context detached from any caller and end on stop().
func (c *coordinator) start() context.Context {
	var workerCtx context.Context
	workerCtx, c.cancel = context.WithCancel(context.Background())

	if c.options.stabilizeInterval > 0 {
		c.spawn(workerCtx, c.options.stabilizeInterval, "stabilize", c.node.stabilize)
		c.spawn(workerCtx, c.options.stabilizeInterval, "fix fingers", c.node.fixNextFinger)
		c.spawn(workerCtx, c.options.stabilizeInterval, "check predecessor", c.node.checkPredecessor)
	}

	if c.options.directory != nil {
		c.spawn(workerCtx, c.options.memberTTL/3, "heartbeat", c.node.heartbeat)
	}

	return workerCtx
}

// stop cancels the workers and waits for them to return.
func (c *coordinator) stop() {
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()
}

// spawn runs task every interval until ctx is done.
func (c *coordinator) spawn(ctx context.Context, interval time.Duration, name string, task func(context.Context) error) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		var ticker = time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := task(ctx); err != nil && ctx.Err() == nil {
					c.options.logger.Error("background task failed",
						"task", name,
						"node_id", c.node.self.ID,
						"error", err)
				}
			}
		}
	}()
}
