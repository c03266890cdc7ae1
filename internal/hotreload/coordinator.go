package hotreload

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Reloadable re-applies one group of settings.
type Reloadable interface {
	Reload(ctx context.Context) error
	Name() string
}

// Coordinator debounces watcher events and reloads every registered
// component once per burst.
type Coordinator struct {
	watcher      *Watcher
	logger       *zap.Logger
	reloadables  map[string]Reloadable
	eventChan    chan Event
	ctx          context.Context
	cancel       context.CancelFunc
	mu           sync.RWMutex
	debounceTime time.Duration
	wg           sync.WaitGroup
	isRunning    bool
	reloads      chan error
}

// NewCoordinator creates a new reload coordinator
func NewCoordinator(watcher *Watcher, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &Coordinator{
		watcher:      watcher,
		logger:       logger,
		reloadables:  make(map[string]Reloadable),
		eventChan:    make(chan Event, 100),
		ctx:          ctx,
		cancel:       cancel,
		debounceTime: 500 * time.Millisecond,
	}
}

// Register adds a reloadable component to the coordinator
func (c *Coordinator) Register(reloadable Reloadable) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	name := reloadable.Name()
	if _, exists := c.reloadables[name]; exists {
		return fmt.Errorf("reloadable %s already registered", name)
	}

	c.reloadables[name] = reloadable
	c.logger.Debug("Registered reloadable component", zap.String("name", name))
	return nil
}

// Unregister removes a reloadable component from the coordinator
func (c *Coordinator) Unregister(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.reloadables, name)
}

// Start begins the hot reload coordination
func (c *Coordinator) Start() error {
	c.mu.Lock()
	if c.isRunning {
		c.mu.Unlock()
		return fmt.Errorf("coordinator already running")
	}
	if c.ctx.Err() != nil {
		c.mu.Unlock()
		return fmt.Errorf("coordinator already stopped")
	}
	c.isRunning = true
	c.mu.Unlock()

	c.watcher.Start()

	c.wg.Add(2)
	go c.processEvents()
	go c.coordinateReloads()

	c.logger.Info("Hot reload coordinator started")
	return nil
}

// Stop cancels any reload in progress and waits for both loops to exit.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	if !c.isRunning {
		c.mu.Unlock()
		return
	}
	c.isRunning = false
	c.mu.Unlock()

	c.cancel()
	c.watcher.Stop()
	c.wg.Wait()

	c.logger.Info("Hot reload coordinator stopped")
}

func (c *Coordinator) processEvents() {
	defer c.wg.Done()

	for {
		select {
		case <-c.ctx.Done():
			return
		case event, ok := <-c.watcher.Events():
			if !ok {
				return
			}
			select {
			case c.eventChan <- event:
			case <-c.ctx.Done():
				return
			}
		}
	}
}

func (c *Coordinator) coordinateReloads() {
	defer c.wg.Done()

	var (
		timer  *time.Timer
		fire   <-chan time.Time
		events []Event
	)

	for {
		select {
		case <-c.ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return

		case event := <-c.eventChan:
			events = append(events, event)

			d := c.DebounceTime()
			if timer == nil {
				timer = time.NewTimer(d)
			} else {
				timer.Reset(d)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			if len(events) > 0 {
				err := c.triggerReload(events)
				events = events[:0]
				c.notify(err)
			}
		}
	}
}

func (c *Coordinator) notify(err error) {
	c.mu.RLock()
	ch := c.reloads
	c.mu.RUnlock()
	if ch == nil {
		return
	}
	select {
	case ch <- err:
	default:
	}
}

// Reloads returns a channel receiving the outcome of each completed reload
// burst. Outcomes are dropped when nobody is receiving.
func (c *Coordinator) Reloads() <-chan error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.reloads == nil {
		c.reloads = make(chan error, 1)
	}
	return c.reloads
}

// triggerReload reloads every registered component concurrently and joins
// their errors.
func (c *Coordinator) triggerReload(events []Event) error {
	c.mu.RLock()
	names := make([]string, 0, len(c.reloadables))
	for name := range c.reloadables {
		names = append(names, name)
	}
	reloadables := make([]Reloadable, 0, len(names))
	sort.Strings(names)
	for _, name := range names {
		reloadables = append(reloadables, c.reloadables[name])
	}
	c.mu.RUnlock()

	if len(reloadables) == 0 {
		return nil
	}

	c.logger.Info("Triggering hot reload", zap.Int("events", len(events)))
	for _, event := range events {
		c.logger.Debug("Reload triggered by", zap.String("path", event.Path), zap.String("operation", event.Op.String()))
	}

	var wg sync.WaitGroup
	errs := make([]error, len(reloadables))

	for i, reloadable := range reloadables {
		wg.Add(1)
		go func(i int, r Reloadable) {
			defer wg.Done()
			if err := r.Reload(c.ctx); err != nil {
				errs[i] = fmt.Errorf("failed to reload %s: %w", r.Name(), err)
				return
			}
			c.logger.Info("Successfully reloaded component", zap.String("name", r.Name()))
		}(i, reloadable)
	}
	wg.Wait()

	err := errors.Join(errs...)
	if err != nil {
		c.logger.Error("Hot reload completed with errors", zap.Error(err))
	} else {
		c.logger.Info("Hot reload completed successfully")
	}
	return err
}

// SetDebounceTime sets the debounce time for reload events
func (c *Coordinator) SetDebounceTime(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.debounceTime = d
}

func (c *Coordinator) DebounceTime() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.debounceTime
}

// IsRunning returns whether the coordinator is currently running
func (c *Coordinator) IsRunning() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isRunning
}
