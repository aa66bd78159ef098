package main

import (
	"context"
	crand "crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"errors"
	. "fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/pprof"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/p7r0x7/shacrypt"
	"github.com/p7r0x7/shacrypt/crypt"
	"github.com/p7r0x7/shacrypt/keygen"
	"github.com/p7r0x7/shacrypt/sha512x"
	"github.com/p7r0x7/shacrypt/store"
	"github.com/p7r0x7/vainpath"
	. "github.com/spf13/pflag"
	"github.com/sugawarayuuta/sonnet"
)

// Copyright © 2022 Matthew R Bonnette. Licensed under the Apache-2.0 license.

const n = "\n"
const success, failure, invalid = 0, 1, 2
const defaultCharset = "abcdefghijklmnopqrstuvwxyz0123456789"

var warnings = 0

func main() { os.Exit(program()) }

// help prints a usage menu and quietly exits if no non-flag arguments are given. To consistently
// correctly render this menu in most terminal windows, its content should be no wider than 80
// columns.
func help() {
	origin, err := os.Executable()
	if err != nil {
		origin = "shacrack" /* Default binary name */
	} else {
		origin = filepath.Base(origin)
	}
	name := vainpath.Trim(origin, "…", 12)
	spaces := strings.Repeat(" ", utf8.RuneCountInString(name)+3)
	Fprint(os.Stderr, yell, "Recovers the keys behind SHA-512 crypt(3) ($6$) hashes.", zero, n+n+
		"Usage:"+n+
		"  ", name, " [-h] [--backends]"+n,
		spaces, "-w PATH|-c SET|-r N [-m <int>] [-M <int>] [-u] [-b NAME]"+n,
		spaces, "[-T <int>] [--db PATH] [--json|quiet|no-codes] [--strict] -|HASHFILE..."+n,
		spaces, "-H [-S SETTING] KEY..."+n+n+
			"Options:"+n)
	PrintDefaults()
	name = vainpath.Trim(origin, "…", 15)
	Fprint(os.Stderr, n+"Order of arguments placed after `", name, "` does not matter unless `--` is"+
		n+"specified, signaling the end of parsed flags. Long-form flag equivalents are"+n+
		"above. `-` is treated as a reference to ", os.Stdin.Name(), " on this platform."+n+
		"Keys longer than 27 bytes are skipped. With --db and no HASHFILE, the targets"+n+
		"are whatever the database has not cracked yet."+n)
}

// This program is a command-line interface for shacrypt: It loads target hashes, picks a key
// source from the flags and reports every key it recovers as it goes.
func program() int {
	if pDebug {
		cf, err := os.Create("cpu.prof")
		if err != nil {
			panic(err)
		}
		_ = pprof.StartCPUProfile(cf)
		defer pprof.StopCPUProfile()

		af, err := os.Create("allocs.prof")
		if err != nil {
			panic(err)
		}
		defer pprof.Lookup("allocs").WriteTo(af, 0)
	}

	switch {
	case pHelp:
		help()
		return success
	case pBackends:
		backends()
		return success
	case pHash:
		if NArg() == 0 {
			help()
			return success
		}
		return hashKeys()
	case NArg() == 0 && pDB == "":
		help()
		return success
	}
	return crack()
}

func backends() {
	Print(sha512x.Describe(), n)
	best := sha512x.Best()
	for _, b := range sha512x.Available() {
		Print("  ", yell, b.Name(), zero, "\t", b.Lanes(), " lane(s)")
		if b == best {
			Print(purp, "  (default)", zero)
		}
		Print(n)
	}
}

func seed() (s [32]byte) {
	if CommandLine.Changed("seed") {
		binary.LittleEndian.PutUint64(s[:], pSeed)
	} else if _, err := crand.Read(s[:]); err != nil {
		panic(err)
	}
	return s
}

func hashKeys() int {
	var salt crypt.Salt
	var err error
	if pSetting != "" {
		salt, err = crypt.ParseSetting(pSetting)
	} else {
		r, _ := keygen.NewRandom(seed(), crypt.Alphabet, crypt.MaxSaltLen, crypt.MaxSaltLen, 1)
		dst := make([][]byte, 1)
		r.Generate(dst, 0)
		salt, err = crypt.NewSalt(dst[0], crypt.DefaultRounds)
	}
	if err != nil {
		Fprint(os.Stderr, purp, err, zero, n)
		return invalid
	}

	for _, key := range Args() {
		h := shacrypt.Crypt([]byte(key), salt)
		switch {
		case pJSON:
			emit(foundLine{Hash: h.String(), Key: key})
		case pQuiet:
			Print(h, n)
		default:
			Print(yell, h, zero, `  "`, key, `"`, n)
		}
	}
	return success
}

/* generator returns the key source the flags ask for, a label for it, and a cleanup. */
func generator() (shacrypt.Generator, string, func() []byte, func(), error) {
	var gen shacrypt.Generator
	var source string
	sum, done := func() []byte { return nil }, func() {}

	switch {
	case pWordlist != "":
		var r io.Reader = os.Stdin
		if pWordlist != "-" && pWordlist != os.Stdin.Name() {
			f, err := os.Open(pWordlist)
			if err != nil {
				return nil, "", nil, nil, err
			}
			r, done = f, func() { f.Close() }
		}
		w := keygen.NewWordlist(r)
		gen, source = w, "wordlist:"+pWordlist
		sum = func() []byte {
			if err := w.Err(); err != nil {
				warn(err)
			}
			s := w.Sum()
			return s[:]
		}
	case pRandom > 0:
		set := pCharset
		if set == "" {
			set = defaultCharset
		}
		r, err := keygen.NewRandom(seed(), set, pMinLen, pMaxLen, pRandom)
		if err != nil {
			return nil, "", nil, nil, err
		}
		gen, source = r, Sprintf("random:%d:%d-%d:%s", pRandom, pMinLen, pMaxLen, set)
	case pCharset != "":
		c, err := keygen.NewCharset(pCharset, pMinLen, pMaxLen)
		if err != nil {
			return nil, "", nil, nil, err
		}
		gen, source = c, Sprintf("charset:%d-%d:%s", pMinLen, pMaxLen, pCharset)
	default:
		return nil, "", nil, nil, errors.New("no key source: use --wordlist, --charset or --random")
	}
	if pUnique {
		gen = keygen.NewUnique(gen)
	}
	return gen, source, sum, done, nil
}

func notes() *log.Logger {
	if pQuiet || pJSON {
		return nil
	}
	return log.New(os.Stderr, purp+"note: "+zero, 0)
}

func crack() int {
	gen, source, sum, done, err := generator()
	if err != nil {
		Fprint(os.Stderr, purp, err, zero, n)
		return invalid
	}
	defer done()

	path := pDB
	if path == "" {
		path = ":memory:"
	}
	s, err := store.Open(path, notes())
	if err != nil {
		Fprint(os.Stderr, purp, err, zero, n)
		return invalid
	}
	defer s.Close()
	for _, target := range Args() {
		load(s, target)
	}

	recs, err := s.Pending()
	if err != nil {
		warn(err)
		return failure
	}
	if len(recs) == 0 {
		if !pQuiet {
			Fprint(os.Stderr, purp, "Nothing left to crack.", zero, n)
		}
		return exit()
	}
	hashes := make([]crypt.Hash, len(recs))
	for i := range recs {
		hashes[i] = recs[i].Hash
	}
	ix, err := shacrypt.NewIndex(hashes)
	if err != nil {
		Fprint(os.Stderr, purp, err, zero, n)
		return invalid
	}
	session, err := s.BeginSession(ix.Fingerprint(), source)
	if err != nil {
		warn(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	stats, err := shacrypt.Crack(ctx, ix, gen, &reporter{s, recs}, shacrypt.WithBackendName(pBackend),
		shacrypt.WithThreads(pThreads), shacrypt.WithLogger(notes()))
	switch {
	case errors.Is(err, context.Canceled):
		if !pQuiet {
			Fprint(os.Stderr, n, purp, "Interrupted; totals so far:", zero, n)
		}
	case err != nil:
		Fprint(os.Stderr, purp, err, zero, n)
		return invalid
	}
	if err = s.EndSession(session, stats.Processed, stats.Found, sum()); err != nil {
		warn(err)
	}
	summary(stats, ix)
	return exit()
}

func load(s *store.Store, target string) {
	r, display := io.Reader(os.Stdin), os.Stdin.Name()
	if target != "-" && target != os.Stdin.Name() {
		f, err := os.Open(target)
		if err != nil {
			warn(err)
			return
		}
		defer f.Close()
		r, display = f, target
	}
	st, err := s.Import(r)
	if err != nil {
		warn(err)
		return
	}
	if pQuiet || pJSON {
		return
	}
	if pNoCodes {
		display = filepath.Clean(display)
	} else {
		display = vainpath.Simplify(display)
	}
	Fprint(os.Stderr, und, display, zero, ": ", st.Added, " new, ", st.Duplicates, " known, ",
		st.Malformed, " malformed", n)
}

type reporter struct {
	s    *store.Store
	recs []store.Record
}

func (r *reporter) ReportMatch(id uint32, key []byte) {
	rec := &r.recs[id]
	if err := r.s.MarkFound(rec.ID, key); err != nil {
		warn(err)
	}
	switch {
	case pJSON:
		emit(foundLine{User: rec.User, Hash: rec.Hash.String(), Key: string(key)})
	case pQuiet:
		Print(rec.Hash, ":", string(key), n)
	case rec.User != "":
		Print(yell, string(key), zero, "  ", und, rec.User, zero, n)
	default:
		Print(yell, string(key), zero, "  ", rec.Hash, n)
	}
}

func (*reporter) ReportProcessed(int) {}

type foundLine struct {
	User string `json:"user,omitempty"`
	Hash string `json:"hash"`
	Key  string `json:"key"`
}

type summaryLine struct {
	Processed     uint64  `json:"processed"`
	Found         uint64  `json:"found"`
	Targets       int     `json:"targets"`
	Dropped       uint64  `json:"dropped,omitempty"`
	Seconds       float64 `json:"seconds"`
	KeysPerSecond float64 `json:"keys_per_second"`
	Backend       string  `json:"backend"`
	Threads       int     `json:"threads"`
	Fingerprint   string  `json:"fingerprint"`
}

func emit(v any) {
	b, err := sonnet.Marshal(v)
	if err != nil {
		warn(err)
		return
	}
	os.Stdout.Write(append(b, '\n'))
}

func summary(stats shacrypt.Stats, ix *shacrypt.Index) {
	fp := ix.Fingerprint()
	if pJSON {
		emit(summaryLine{
			Processed: stats.Processed, Found: stats.Found, Targets: ix.NumHashes(),
			Dropped: stats.Dropped, Seconds: stats.Elapsed.Seconds(), KeysPerSecond: stats.KeysPerSecond(),
			Backend: stats.Backend, Threads: stats.Threads, Fingerprint: hex.EncodeToString(fp[:]),
		})
		return
	} else if pQuiet {
		return
	}

	d := stats.Elapsed
	if d > time.Second {
		d = d.Truncate(10 * time.Millisecond)
	}
	Fprint(os.Stderr, purp, stats.Found, "/", ix.NumHashes(), zero, " found; ", stats.Processed, " keys in ",
		d, Sprintf(" (%.0f/s) on %d×%s", stats.KeysPerSecond(), stats.Threads, stats.Backend), n,
		"targets ", hex.EncodeToString(fp[:8]), n)
	if stats.Dropped > 0 {
		Fprint(os.Stderr, stats.Dropped, " ", purp, "keys were longer than 27 bytes and skipped.", zero, n)
	}
}

func exit() int {
	if !(pQuiet || pJSON) {
		if warnings == 1 {
			Fprint(os.Stderr, "1 ", purp, "error was skipped over.", zero, n)
		} else if warnings > 1 {
			Fprint(os.Stderr, warnings, " ", purp, "errors were skipped over.", zero, n)
		}
	}
	if warnings > 0 {
		return failure
	}
	return success
}

func warn(err ...interface{}) {
	if pStrict {
		panic(err)
	}
	if !pQuiet {
		Fprint(os.Stderr, purp, Sprint(err...), zero, n)
	}
	warnings++
}
