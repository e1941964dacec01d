// Package effects implements the renderer's image transforms: the
// movement lookup-table engine, the scripted coordinate-grid warp and
// the scripted per-pixel color modifier, composed into an ordered chain.
//
// Every scripted effect owns its own script engine, because an engine's
// variable storage is single-goroutine state and the effects' script
// namespaces must not bleed into each other.
package effects

import (
	"github.com/veskel/phosphene/pkg/audio"
	"github.com/veskel/phosphene/pkg/midi"
	"github.com/veskel/phosphene/pkg/parallel"
	"github.com/veskel/phosphene/pkg/render"
)

// Context carries one frame's inputs through the chain. Buf holds the
// current image; Alt is a same-sized scratch buffer an effect may write
// to instead of working in place.
type Context struct {
	Frame *audio.Frame
	MIDI  *midi.State
	Buf   *render.Buffer
	Alt   *render.Buffer
	Pool  *parallel.Pool
}

// Effect is one transform in the chain. Render reads ctx.Buf and either
// modifies it in place (returning 0) or writes its output to ctx.Alt
// (returning 1); after a 1 the caller swaps the two buffers.
type Effect interface {
	Render(ctx *Context) int
}

// Chain runs effects in order, swapping buffers as they signal, and
// returns the buffer holding the final image.
type Chain struct {
	Effects []Effect
}

func (c *Chain) Render(ctx *Context) *render.Buffer {
	for _, e := range c.Effects {
		if e.Render(ctx) != 0 {
			ctx.Buf, ctx.Alt = ctx.Alt, ctx.Buf
		}
	}
	return ctx.Buf
}
