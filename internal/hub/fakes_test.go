package hub

import (
	"context"
	"fmt"
	"sync"

	"github.com/containerd/errdefs"
	"github.com/vhpooya/remotehub/internal/capture"
	"github.com/vhpooya/remotehub/internal/domain"
)

// fakePeer records delivered events in order.
type fakePeer struct {
	id     string
	mu     sync.Mutex
	events []domain.Event
	full   bool
}

func (p *fakePeer) ID() string { return p.id }

func (p *fakePeer) Send(ev domain.Event) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.full {
		return false
	}
	p.events = append(p.events, ev)
	return true
}

func (p *fakePeer) Events() []domain.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.Event, len(p.events))
	copy(out, p.events)
	return out
}

// fakeDirectory serves canned users and a programmable permission answer.
type fakeDirectory struct {
	users map[int64]*domain.User
	// allow decides CanCommunicate; nil allows everything.
	allow func(from, to int64, kind string) bool
}

func (d *fakeDirectory) GetUser(_ context.Context, userID int64) (*domain.User, error) {
	if u, ok := d.users[userID]; ok {
		return u, nil
	}
	return nil, fmt.Errorf("user %d: %w", userID, errdefs.ErrNotFound)
}

func (d *fakeDirectory) CanCommunicate(_ context.Context, from, to int64, kind string) (bool, error) {
	if d.allow == nil {
		return true, nil
	}
	return d.allow(from, to, kind), nil
}

// fakeProvider records input calls and fails on demand.
type fakeProvider struct {
	mu         sync.Mutex
	err        error
	image      []byte
	lastMods   domain.Modifier
	lastKey    int
	lastButton domain.MouseButton
	lastDouble bool
	moveCalls  int
}

var _ capture.Provider = (*fakeProvider)(nil)

func (p *fakeProvider) fail(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

func (p *fakeProvider) current() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

func (p *fakeProvider) ScreenSize(context.Context) (capture.Size, error) {
	if err := p.current(); err != nil {
		return capture.Size{}, err
	}
	return capture.Size{Width: 1920, Height: 1080}, nil
}

func (p *fakeProvider) Monitors(context.Context) ([]domain.Monitor, error) {
	if err := p.current(); err != nil {
		return nil, err
	}
	return []domain.Monitor{{Index: 0, Width: 1920, Height: 1080, Primary: true}}, nil
}

func (p *fakeProvider) CaptureFull(context.Context, int) ([]byte, error) {
	if err := p.current(); err != nil {
		return nil, err
	}
	return p.image, nil
}

func (p *fakeProvider) CaptureRegion(context.Context, int, int, int, int, int) ([]byte, error) {
	if err := p.current(); err != nil {
		return nil, err
	}
	return p.image, nil
}

func (p *fakeProvider) CaptureMonitor(context.Context, int, int) ([]byte, error) {
	if err := p.current(); err != nil {
		return nil, err
	}
	return p.image, nil
}

func (p *fakeProvider) MouseClick(_ context.Context, _, _ int, button domain.MouseButton, double bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.lastButton = button
	p.lastDouble = double
	return nil
}

func (p *fakeProvider) MouseMove(context.Context, int, int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.moveCalls++
	return nil
}

func (p *fakeProvider) MouseDrag(_ context.Context, _, _, _, _ int, button domain.MouseButton) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.lastButton = button
	return nil
}

func (p *fakeProvider) MouseWheel(context.Context, int, int, int) error {
	return p.current()
}

func (p *fakeProvider) KeyPress(_ context.Context, keyCode int, _ bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.lastKey = keyCode
	return nil
}

func (p *fakeProvider) TypeText(context.Context, string) error {
	return p.current()
}

func (p *fakeProvider) KeyCombination(_ context.Context, mods domain.Modifier, keyCode int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.lastMods = mods
	p.lastKey = keyCode
	return nil
}
