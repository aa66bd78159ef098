package sha512x

import "golang.org/x/sys/cpu"

// Copyright © 2022 Matthew R Bonnette. Licensed under the Apache-2.0 license.

var hostLanes = featureCheck()

func featureCheck() int {
	/* No four-wide path is worth it without SVE; NEON gets the two-lane interleave. */
	if cpu.ARM64.HasASIMD {
		return 2
	}
	return 1
}
