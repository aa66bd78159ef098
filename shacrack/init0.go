//go:build windows

package main

import (
	"os"

	. "golang.org/x/sys/windows"
)

// Copyright © 2022 Matthew R Bonnette. Licensed under the Apache-2.0 license.

/* Found keys and summaries are coloured; older consoles need VT processing switched on first. */
func init() {
	for _, f := range [...]*os.File{os.Stdout, os.Stderr} {
		h := Handle(f.Fd())
		var mode uint32
		if err := GetConsoleMode(h, &mode); err != nil {
			pNoCodesDefault = true
			break
		}
		if mode&ENABLE_VIRTUAL_TERMINAL_PROCESSING != 0 {
			continue
		}
		if err := SetConsoleMode(h, mode|ENABLE_VIRTUAL_TERMINAL_PROCESSING); err != nil {
			pNoCodesDefault = true
			break
		}
	}
	pNoCodes = pNoCodesDefault
}
