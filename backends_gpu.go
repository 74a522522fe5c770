//go:build !nogpu

package webgpunative

import (
	"github.com/gogpu/wgpu/hal"

	// Import the hal backends so they register via init().
	_ "github.com/gogpu/webgpunative/internal/native/halnative"
)

func init() {
	onSetLogger(hal.SetLogger)
}
