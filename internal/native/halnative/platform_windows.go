//go:build windows && !nogpu

package halnative

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/webgpunative/internal/native"

	_ "github.com/gogpu/wgpu/hal/dx12"
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

func init() {
	native.Register(New(native.BackendDX12, gputypes.BackendDX12))
	native.Register(New(native.BackendVulkan, gputypes.BackendVulkan))
}
