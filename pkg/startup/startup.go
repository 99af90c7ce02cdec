// Package startup starts and stops process dependencies in order.
package startup

import (
	"context"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
)

type Dependency interface {
	GetName() string
	DependsOn() []string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

type status int

const (
	statusPending status = iota
	statusStarted
	statusStopped
	statusFailed
)

type Startup struct {
	dependencies map[string]Dependency
	order        []string
	statuses     map[string]status
	logger       ectologger.Logger
	maxAttempts  int
}

func New(logger ectologger.Logger, maxAttempts int) *Startup {
	return &Startup{
		logger:       logger,
		dependencies: make(map[string]Dependency),
		statuses:     make(map[string]status),
		maxAttempts:  maxAttempts,
	}
}

func (s *Startup) AddDependency(dependency Dependency) {
	s.dependencies[dependency.GetName()] = dependency
	s.order = append(s.order, dependency.GetName())
}

// Start brings every dependency up, honoring DependsOn ordering. Failed
// attempts are retried with fibonacci backoff up to the configured limit.
func (s *Startup) Start(ctx context.Context) error {
	var lastErr error

	a, b := 1, 1
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		s.logger.WithField("attempt", attempt).Infof("Beginning startup attempt %d", attempt)

		lastErr = nil
		for _, name := range s.order {
			if err := s.startDependency(ctx, s.dependencies[name]); err != nil {
				s.logger.WithError(err).Errorf("Startup dependency '%s' attempt %d failed", name, attempt)
				lastErr = err
				break
			}
		}

		if lastErr == nil {
			return nil
		}
		if attempt == s.maxAttempts {
			break
		}

		s.logger.Infof("Retrying in %d seconds (attempt %d/%d)", a, attempt, s.maxAttempts)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(a) * time.Second):
		}
		a, b = b, a+b
	}

	return fmt.Errorf("startup failed after %d attempts: %w", s.maxAttempts, lastErr)
}

func (s *Startup) startDependency(ctx context.Context, dependency Dependency) error {
	if s.statuses[dependency.GetName()] == statusStarted {
		return nil
	}

	for _, name := range dependency.DependsOn() {
		if s.statuses[name] != statusStarted {
			if err := s.startDependency(ctx, s.dependencies[name]); err != nil {
				return err
			}
		}
	}

	s.logger.WithField("dependency", dependency.GetName()).Infof("Starting dependency '%s'", dependency.GetName())
	if err := dependency.Start(ctx); err != nil {
		s.statuses[dependency.GetName()] = statusFailed
		return err
	}
	s.statuses[dependency.GetName()] = statusStarted
	return nil
}

// Stop stops started dependencies in reverse registration order.
func (s *Startup) Stop(ctx context.Context) error {
	for i := len(s.order) - 1; i >= 0; i-- {
		name := s.order[i]
		if s.statuses[name] != statusStarted {
			continue
		}
		dependency := s.dependencies[name]
		s.logger.WithField("dependency", name).Infof("Stopping dependency '%s'", name)
		if err := dependency.Stop(ctx); err != nil {
			s.logger.WithError(err).WithField("dependency", name).Errorf("Failed to stop dependency '%s'", name)
			return err
		}
		s.statuses[name] = statusStopped
	}
	return nil
}

// Func adapts plain start/stop closures into a Dependency.
type Func struct {
	Name      string
	Needs     []string
	StartFunc func(ctx context.Context) error
	StopFunc  func(ctx context.Context) error
}

func (f *Func) GetName() string     { return f.Name }
func (f *Func) DependsOn() []string { return f.Needs }

func (f *Func) Start(ctx context.Context) error {
	if f.StartFunc == nil {
		return nil
	}
	return f.StartFunc(ctx)
}

func (f *Func) Stop(ctx context.Context) error {
	if f.StopFunc == nil {
		return nil
	}
	return f.StopFunc(ctx)
}
