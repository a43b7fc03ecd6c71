package capture

import (
	"context"

	"github.com/vhpooya/remotehub/internal/domain"
)

// Unavailable is the Provider used when the host has no capture capability
// configured. Every call fails with ErrUnavailable, which the protocol
// engine converts into a per-caller error event.
type Unavailable struct{}

var _ Provider = Unavailable{}

func (Unavailable) ScreenSize(context.Context) (Size, error) {
	return Size{}, ErrUnavailable
}

func (Unavailable) Monitors(context.Context) ([]domain.Monitor, error) {
	return nil, ErrUnavailable
}

func (Unavailable) CaptureFull(context.Context, int) ([]byte, error) {
	return nil, ErrUnavailable
}

func (Unavailable) CaptureRegion(context.Context, int, int, int, int, int) ([]byte, error) {
	return nil, ErrUnavailable
}

func (Unavailable) CaptureMonitor(context.Context, int, int) ([]byte, error) {
	return nil, ErrUnavailable
}

func (Unavailable) MouseClick(context.Context, int, int, domain.MouseButton, bool) error {
	return ErrUnavailable
}

func (Unavailable) MouseMove(context.Context, int, int) error { return ErrUnavailable }

func (Unavailable) MouseDrag(context.Context, int, int, int, int, domain.MouseButton) error {
	return ErrUnavailable
}

func (Unavailable) MouseWheel(context.Context, int, int, int) error { return ErrUnavailable }

func (Unavailable) KeyPress(context.Context, int, bool) error { return ErrUnavailable }

func (Unavailable) TypeText(context.Context, string) error { return ErrUnavailable }

func (Unavailable) KeyCombination(context.Context, domain.Modifier, int) error {
	return ErrUnavailable
}
