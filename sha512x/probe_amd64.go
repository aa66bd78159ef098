package sha512x

import "golang.org/x/sys/cpu"

// Copyright © 2022 Matthew R Bonnette. Licensed under the Apache-2.0 license.

var hostLanes = featureCheck()

func featureCheck() int {
	switch {
	case cpu.X86.HasAVX2:
		return 4
	case cpu.X86.HasSSE2:
		return 2
	default:
		return 1
	}
}
