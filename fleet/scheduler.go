package fleet

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
)

// Task is a resumable unit of ship work.
type Task interface {
	Name() string
	// Step performs one phase and reports whether the task has finished.
	Step(ctx context.Context) (bool, error)
}

// Scheduler drives tasks step by step.
type Scheduler struct {
	logger *log.Logger
}

// NewScheduler returns a Scheduler logging to logger.
func NewScheduler(logger *log.Logger) *Scheduler {
	if logger == nil {
		logger = log.Default()
	}
	return &Scheduler{logger: logger}
}

// Run steps every task concurrently until each is done. The first error
// cancels the rest.
func (s *Scheduler) Run(ctx context.Context, tasks ...Task) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, task := range tasks {
		g.Go(func() error {
			return s.drive(gctx, task)
		})
	}
	return g.Wait()
}

func (s *Scheduler) drive(ctx context.Context, task Task) error {
	s.logger.Info("Task started", "task", task.Name())
	steps := 0
	for {
		if err := ctx.Err(); err != nil {
			s.logger.Info("Task cancelled", "task", task.Name(), "steps", steps)
			return err
		}
		done, err := task.Step(ctx)
		steps++
		if err != nil {
			return fmt.Errorf("task %s: %w", task.Name(), err)
		}
		if done {
			s.logger.Info("Task finished", "task", task.Name(), "steps", steps)
			return nil
		}
	}
}
