//go:build !purego

package chanmix

import (
	_ "github.com/chriskillpack/chanmix/internal/kernel/lanes"
)
