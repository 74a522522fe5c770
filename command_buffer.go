package webgpunative

import (
	"github.com/gogpu/webgpunative/internal/handle"
	"github.com/gogpu/webgpunative/internal/native"
)

// CommandBuffer is a closed command list ready for Queue.Submit.
type CommandBuffer struct {
	label     string
	h         handle.Owned[native.CommandList]
	submitted bool
}

// Label returns the debug label of the encoder that produced it.
func (c *CommandBuffer) Label() string { return c.label }

// Release frees the command list.
func (c *CommandBuffer) Release() {
	c.h.Release()
}

// Move transfers the command buffer to the returned value and empties c.
func (c *CommandBuffer) Move() *CommandBuffer {
	return &CommandBuffer{label: c.label, h: c.h.Move(), submitted: c.submitted}
}
