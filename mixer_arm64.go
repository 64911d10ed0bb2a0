//go:build cgo && arm64 && !purego

package chanmix

import (
	_ "github.com/chriskillpack/chanmix/internal/kernel/neon"
)
