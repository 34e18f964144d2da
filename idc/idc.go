// Package idc generates IDC scripts which name and annotate the symbols of a
// map report in the IDA disassembler.
package idc

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/mewrev/lldmap"
	"github.com/pkg/errors"
)

// Entry is a resolved symbol, ready to be emitted.
type Entry struct {
	// Address of symbol.
	Addr uint64
	// Identifier-safe name of symbol, unique within the script.
	Name string
	// Original name of symbol.
	Comment string
}

// Sort sorts the given symbols in ascending address order. Symbols at the same
// address keep their relative order.
func Sort(syms []*lldmap.Symbol) {
	sort.SliceStable(syms, func(i, j int) bool {
		return syms[i].Addr < syms[j].Addr
	})
}

// Dedup returns the given symbols with repeated (name, address) pairs removed,
// keeping the first occurrence of each pair.
func Dedup(syms []*lldmap.Symbol) []*lldmap.Symbol {
	type key struct {
		name string
		addr uint64
	}
	seen := make(map[key]bool)
	var unique []*lldmap.Symbol
	for _, sym := range syms {
		k := key{name: sym.Name, addr: sym.Addr}
		if seen[k] {
			continue
		}
		seen[k] = true
		unique = append(unique, sym)
	}
	return unique
}

// Sanitize replaces each character of name which is not an ASCII letter, digit
// or underscore with an underscore.
func Sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case 'a' <= r && r <= 'z', 'A' <= r && r <= 'Z', '0' <= r && r <= '9', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
}

// Registry tracks the names emitted so far, to keep them unique.
type Registry struct {
	// last maps from sanitized name to the last suffix assigned to it.
	last map[string]int
}

// NewRegistry returns a new empty name registry.
func NewRegistry() *Registry {
	return &Registry{last: make(map[string]int)}
}

// Name returns a unique name for the given sanitized name. The first use of a
// name is returned as is; subsequent uses are suffixed with 2, 3, and so on.
//
// Some linkers emit distinct symbols under one name (e.g. complete-object and
// base-object destructors), so collisions are expected.
func (reg *Registry) Name(clean string) string {
	suffix := reg.last[clean] + 1
	reg.last[clean] = suffix
	if suffix > 1 {
		return clean + strconv.Itoa(suffix)
	}
	return clean
}

// Resolve sorts and deduplicates the given symbols, and assigns them unique
// identifier-safe names. The given slice is sorted in place.
func Resolve(syms []*lldmap.Symbol) []Entry {
	Sort(syms)
	syms = Dedup(syms)
	reg := NewRegistry()
	entries := make([]Entry, 0, len(syms))
	for _, sym := range syms {
		entry := Entry{
			Addr:    sym.Addr,
			Name:    reg.Name(Sanitize(sym.Name)),
			Comment: sym.Name,
		}
		entries = append(entries, entry)
	}
	return entries
}

// Write writes an IDC script to w, which names each of the given symbols and
// attaches its original name as a repeatable comment.
func Write(w io.Writer, syms []*lldmap.Symbol) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "static main() {")
	for _, entry := range Resolve(syms) {
		// set_name(ea, name, flags); flags 0 is SN_CHECK.
		fmt.Fprintf(bw, "set_name(0x%02X, %s, 0);\n", entry.Addr, quote(entry.Name))
		// set_cmt(ea, comment, repeatable)
		fmt.Fprintf(bw, "set_cmt(0x%02X, %s, 1);\n", entry.Addr, quote(entry.Comment))
	}
	fmt.Fprintln(bw, "}")
	if err := bw.Flush(); err != nil {
		return errors.WithStack(err)
	}
	return nil
}

// quote returns s as an IDC string literal.
func quote(s string) string {
	return `"` + escaper.Replace(s) + `"`
}

var escaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)
