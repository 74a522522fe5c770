package webgpunative

import (
	"github.com/gogpu/webgpunative/internal/handle"
	"github.com/gogpu/webgpunative/internal/native"
)

// TextureView is a render-target or depth view of one Texture. It must not
// outlive the texture.
type TextureView struct {
	tex *Texture
	h   handle.Owned[native.View]
}

// Texture returns the viewed texture.
func (v *TextureView) Texture() *Texture { return v.tex }

// Release frees the view.
func (v *TextureView) Release() {
	v.h.Release()
}

// Move transfers the view to the returned value and empties v.
func (v *TextureView) Move() *TextureView {
	return &TextureView{tex: v.tex, h: v.h.Move()}
}
