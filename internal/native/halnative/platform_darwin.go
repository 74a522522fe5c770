//go:build darwin && !nogpu

package halnative

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/webgpunative/internal/native"

	_ "github.com/gogpu/wgpu/hal/metal"
)

func init() {
	native.Register(New(native.BackendMetal, gputypes.BackendMetal))
}
