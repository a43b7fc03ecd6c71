// Package capture defines the contract for the external screen-capture and
// input-injection capability. The actual OS integration lives outside this
// repository; the service only needs something satisfying Provider.
package capture

import (
	"context"
	"errors"

	"github.com/vhpooya/remotehub/internal/domain"
)

// ErrUnavailable is returned by providers that have no OS capability wired.
var ErrUnavailable = errors.New("capture provider unavailable")

// Size is a screen dimension in pixels.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Provider exposes screen capture and input injection for the host machine.
// Calls may block on OS-level I/O; callers bound them with a context
// deadline. Image payloads are encoded bytes (typically JPEG at the
// requested quality).
type Provider interface {
	ScreenSize(ctx context.Context) (Size, error)
	Monitors(ctx context.Context) ([]domain.Monitor, error)

	CaptureFull(ctx context.Context, quality int) ([]byte, error)
	CaptureRegion(ctx context.Context, x, y, width, height, quality int) ([]byte, error)
	CaptureMonitor(ctx context.Context, index, quality int) ([]byte, error)

	MouseClick(ctx context.Context, x, y int, button domain.MouseButton, doubleClick bool) error
	MouseMove(ctx context.Context, x, y int) error
	MouseDrag(ctx context.Context, fromX, fromY, toX, toY int, button domain.MouseButton) error
	MouseWheel(ctx context.Context, x, y, delta int) error
	KeyPress(ctx context.Context, keyCode int, down bool) error
	TypeText(ctx context.Context, text string) error
	KeyCombination(ctx context.Context, modifiers domain.Modifier, keyCode int) error
}

// ClampQuality forces an image quality into the valid [1,100] range.
func ClampQuality(q int) int {
	if q < 1 {
		return 1
	}
	if q > 100 {
		return 100
	}
	return q
}
