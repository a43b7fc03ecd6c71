package domain

import "strings"

// MouseButton identifies a physical mouse button.
type MouseButton int

const (
	ButtonLeft MouseButton = iota
	ButtonRight
	ButtonMiddle
)

// ParseMouseButton maps a wire token to a button. Unrecognized tokens fall
// back to the left button rather than failing the command.
func ParseMouseButton(s string) MouseButton {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "right":
		return ButtonRight
	case "middle":
		return ButtonMiddle
	default:
		return ButtonLeft
	}
}

func (b MouseButton) String() string {
	switch b {
	case ButtonRight:
		return "right"
	case ButtonMiddle:
		return "middle"
	default:
		return "left"
	}
}

// Modifier is a bitmask of keyboard modifier keys.
type Modifier uint8

const (
	ModCtrl Modifier = 1 << iota
	ModAlt
	ModShift
	ModWin
)

// ParseModifiers parses a comma-separated modifier list ("ctrl, alt") into a
// bitmask. Unknown tokens contribute no bit and are not an error.
func ParseModifiers(csv string) Modifier {
	var m Modifier
	for _, tok := range strings.Split(csv, ",") {
		switch strings.ToLower(strings.TrimSpace(tok)) {
		case "ctrl", "control":
			m |= ModCtrl
		case "alt":
			m |= ModAlt
		case "shift":
			m |= ModShift
		case "win", "windows", "meta":
			m |= ModWin
		}
	}
	return m
}

// Has reports whether every bit in mask is set.
func (m Modifier) Has(mask Modifier) bool {
	return m&mask == mask
}
