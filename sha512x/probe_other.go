//go:build !amd64 && !arm64

package sha512x

// Copyright © 2022 Matthew R Bonnette. Licensed under the Apache-2.0 license.

var hostLanes = 1
