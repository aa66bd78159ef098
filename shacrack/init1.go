package main

import (
	"os"
	"runtime"

	. "github.com/spf13/pflag"
)

// Copyright © 2022 Matthew R Bonnette. Licensed under the Apache-2.0 license.

var pBackend, pCharset, pDB, pSetting, pWordlist, pNoCodesDefault = "", "", "", "", "", false
var pMinLen, pMaxLen, pThreads, pRandom, pSeed = 0, 0, 0, uint64(0), uint64(0)
var pHelp, pBackends, pHash, pJSON, pNoCodes, pQuiet, pStrict, pUnique, pDebug bool
var yell, purp, und, zero = "\033[33m", "\033[35m", "\033[4m", "\033[0m"

func init() {
	for _, arg := range os.Args[1:] {
		switch arg {
		case "--no-codes=false":
			pNoCodes = false
		case "--quiet", "--quiet=true":
			pNoCodes, pQuiet = true, true
		case "--json", "--json=true":
			pNoCodes = true
		case "--no-codes", "--no-codes=true":
			pNoCodes = true
		}
	}
	if pNoCodes {
		yell, purp, und, zero = "", "", "", ""
	}

	BoolVarP(&pHelp, "help", "h", false,
		purp+"print this help menu"+zero+n)

	StringVarP(&pBackend, "backend", "b", "auto",
		purp+"hash with the named backend (see --backends)"+zero)

	BoolVar(&pBackends, "backends", false,
		purp+"describe this CPU and list the backends it can run"+zero)

	StringVarP(&pCharset, "charset", "c", "",
		purp+"try every key over these characters, from --min-len"+zero+
			n+purp+"to --max-len long"+zero)

	StringVar(&pDB, "db", "",
		purp+"keep targets, found keys and sessions in this SQLite"+zero+
			n+purp+"file; HASHFILEs are imported into it first"+zero)

	BoolVar(&pDebug, "debug", false, "")
	CommandLine.MarkHidden("debug")

	BoolVarP(&pHash, "hash", "H", false,
		purp+"print the crypt(3) hash of each argument instead"+zero)

	BoolVar(&pJSON, "json", false,
		purp+"print found keys and the summary as JSON lines"+zero+
			n+"(enables --no-codes)")

	IntVarP(&pMaxLen, "max-len", "M", 6,
		purp+"longest key --charset and --random produce"+zero)

	IntVarP(&pMinLen, "min-len", "m", 1,
		purp+"shortest key --charset and --random produce"+zero)

	Bool("no-codes", pNoCodesDefault,
		purp+"print to console w/o formatting codes or simplified"+zero+
			n+purp+"filepaths"+zero)

	Bool("quiet", false,
		purp+"suppress non-breaking errors and print ONLY found keys"+zero+
			n+"(enables --no-codes)")

	Uint64VarP(&pRandom, "random", "r", 0,
		purp+"try this many random keys over --charset"+zero)

	Uint64Var(&pSeed, "seed", 0,
		purp+"seed for --random and --hash salts"+zero+" (default random)")

	StringVarP(&pSetting, "setting", "S", "",
		purp+"salt and rounds for --hash, as $6$[rounds=N$]salt"+zero+
			n+"(default a random 16-character salt)")

	BoolVar(&pStrict, "strict", false,
		purp+"cause shacrack to panic on any error"+zero)

	IntVarP(&pThreads, "threads", "T", runtime.NumCPU(),
		purp+"number of engines hashing in parallel"+zero)

	BoolVarP(&pUnique, "unique", "u", false,
		purp+"skip repeated keys (costs memory per key)"+zero)

	StringVarP(&pWordlist, "wordlist", "w", "",
		purp+"try each line of this file as a key"+zero)

	/* Order flags alphabetically except for help, which is hoisted to the top. */
	CommandLine.SortFlags = false
	Parse()
	pStrict = pStrict || pDebug
}
