package webgpunative

import (
	// The soft backend registers itself via init() and is always present.
	_ "github.com/gogpu/webgpunative/internal/native/soft"
)
