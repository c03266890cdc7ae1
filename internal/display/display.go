// Package display holds the frontend state machine shared by the web page
// and the terminal dashboard.
package display

import (
	"context"
	"errors"
	"sync"

	"github.com/leslieo2/devstack/internal/client"
)

type Status string

const (
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Terminal reports whether s is absorbing.
func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusFailed
}

// View is a snapshot of the component state.
type View struct {
	Status         Status
	Message        string
	Environment    string
	RuntimeVersion string
	Error          string
}

// Fetcher performs the single backend call of a mount.
type Fetcher interface {
	FetchMessage(ctx context.Context) (client.Message, error)
}

// Component drives one mount: loading, then success or failed.
type Component struct {
	fetcher Fetcher

	mu        sync.Mutex
	view      View
	mounted   bool
	unmounted bool
	cancel    context.CancelFunc
	done      chan struct{}
}

func NewComponent(fetcher Fetcher) *Component {
	return &Component{
		fetcher: fetcher,
		view:    View{Status: StatusLoading},
		done:    make(chan struct{}),
	}
}

// Mount issues the fetch in the background. The request is bound to ctx and
// to the component; later calls are no-ops.
func (c *Component) Mount(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mounted || c.unmounted {
		return
	}
	c.mounted = true

	ctx, c.cancel = context.WithCancel(ctx)
	go c.run(ctx)
}

func (c *Component) run(ctx context.Context) {
	msg, err := c.fetcher.FetchMessage(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.unmounted || c.view.Status.Terminal() {
		return
	}
	if err != nil {
		c.view = View{Status: StatusFailed, Error: errorText(err)}
	} else {
		c.view = View{
			Status:         StatusSuccess,
			Message:        msg.Message,
			Environment:    msg.Environment,
			RuntimeVersion: msg.RuntimeVersion,
		}
	}
	close(c.done)
}

// Unmount cancels any in-flight request. The view is frozen from here on.
func (c *Component) Unmount() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.unmounted {
		return
	}
	c.unmounted = true
	if c.cancel != nil {
		c.cancel()
	}
}

// View returns the current snapshot.
func (c *Component) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

// Done is closed once the component reaches a terminal state. It stays open
// if the component is unmounted first.
func (c *Component) Done() <-chan struct{} {
	return c.done
}

// Wait blocks until a terminal state or until ctx ends.
func (c *Component) Wait(ctx context.Context) (View, error) {
	select {
	case <-c.done:
		return c.View(), nil
	case <-ctx.Done():
		return c.View(), ctx.Err()
	}
}

func errorText(err error) string {
	if errors.Is(err, client.ErrBackendUnavailable) {
		return client.ErrBackendUnavailable.Error()
	}
	if s := err.Error(); s != "" {
		return s
	}
	return "unknown error"
}
