package chanmix

// The kernel packages register themselves with the registry from init, so
// importing them is all it takes to make them available.

import (
	_ "github.com/chriskillpack/chanmix/internal/kernel/generic"
)
