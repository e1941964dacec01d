package effects

import (
	"fmt"

	"github.com/veskel/phosphene/pkg/params"
)

// New builds the named chain effect reading its configuration from ps.
// Names match preset-file section headers.
func New(name string, ps *params.Store) (Effect, error) {
	switch name {
	case "movement":
		return NewMovement(ps), nil
	case "warp":
		return NewWarp(ps), nil
	case "colormod":
		return NewColorMod(ps), nil
	}
	return nil, fmt.Errorf("unknown effect %q", name)
}
