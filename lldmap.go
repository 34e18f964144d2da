// Package lldmap provides access to symbol map reports produced by the LLVM
// linker (LLD).
package lldmap

import (
	"bufio"
	"bytes"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/mewkiz/pkg/term"
	"github.com/pkg/errors"
)

var (
	// dbg is a logger with the "lldmap:" prefix which logs debug messages to
	// standard error.
	dbg = log.New(os.Stderr, term.CyanBold("lldmap:")+" ", 0)
	// warn is a logger with the "lldmap:" prefix which logs warning messages to
	// standard error.
	warn = log.New(os.Stderr, term.RedBold("lldmap:")+" ", 0)
)

// Note: this package supports the column-oriented map report produced by LLD
// prior to March 2017. The later tab-indented VMA/LMA format is not supported.

// Errors reported while parsing map reports.
var (
	// ErrMissingHeader is returned when the input holds no header line.
	ErrMissingHeader = errors.New("missing header line")
	// ErrShortRow is returned when a row ends within its numeric fields.
	ErrShortRow = errors.New("row too short for column layout")
	// ErrMalformedRow is returned when a numeric field of a row is not valid
	// hexadecimal.
	ErrMalformedRow = errors.New("malformed row")
)

// Map is a symbol map report.
type Map struct {
	// Column layout of the report, as derived from its header line.
	Layout Layout
	// Symbols, in input order.
	Syms []*Symbol
}

// Symbol is a symbol with linker information.
type Symbol struct {
	// Symbol name, as printed by the linker (possibly demangled).
	Name string
	// Virtual address of symbol.
	Addr uint64
	// Size of symbol in bytes.
	Size uint64
	// Alignment of symbol.
	Align uint64
}

// ParseString parses the given symbol map report, reading from s.
func ParseString(s string) (*Map, error) {
	r := strings.NewReader(s)
	return Parse(r)
}

// ParseBytes parses the given symbol map report, reading from buf.
func ParseBytes(buf []byte) (*Map, error) {
	r := bytes.NewReader(buf)
	return Parse(r)
}

// ParseFile parses the given symbol map report, reading from mapPath.
func ParseFile(mapPath string) (*Map, error) {
	f, err := os.Open(mapPath)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse parses the given symbol map report, reading from r.
func Parse(r io.Reader) (*Map, error) {
	// Example contents of foo.map file:
	//
	//    Address          Size             Align Out     In      File    Symbol
	//    =================================================================
	//    0000000000201000 0000000000000010     4 .text
	//    0000000000201000 0000000000000010     4         .text
	//    0000000000201000 0000000000000010     4                 foo.o
	//    0000000000201000 0000000000000000     0                         _start
	//    0000000000000000 0000000000000000     0                         __ehdr_start
	//    0000000000201008 0000000000000008     0                         MyClass::Foo()
	//    UNDEFINED        0000000000000000     0                         __cxa_atexit
	s := bufio.NewScanner(r)
	s.Buffer(nil, 1024*1024)
	if !s.Scan() {
		if err := s.Err(); err != nil {
			return nil, errors.WithStack(err)
		}
		return nil, errors.WithStack(ErrMissingHeader)
	}
	header := s.Text()
	layout, err := ParseLayout(header)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	m := &Map{Layout: layout}
	// Skip separator line.
	if !s.Scan() {
		warn.Printf("missing separator line after header %q", header)
	}
	zeros := 0
	for lineNum := 3; s.Scan(); lineNum++ {
		line := s.Text()
		if len(strings.TrimSpace(line)) == 0 {
			// skip empty lines.
			continue
		}
		sym, err := parseRow(line, layout)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", lineNum)
		}
		if sym == nil {
			continue
		}
		if skipZeroAddr(sym) {
			zeros++
			continue
		}
		m.Syms = append(m.Syms, sym)
	}
	if err := s.Err(); err != nil {
		return nil, errors.WithStack(err)
	}
	if zeros > 0 {
		dbg.Printf("skipped %d zero-address symbols", zeros)
	}
	return m, nil
}

// parseRow parses the given row of the symbol table. A nil symbol is returned
// for rows that do not denote a symbol of interest.
func parseRow(line string, layout Layout) (*Symbol, error) {
	if len(line) < layout.Size {
		return nil, errors.Wrapf(ErrShortRow, "length %d, Address field ends at %d", len(line), layout.Size)
	}
	// Address of symbol.
	//
	//    0000000000201008
	rawAddr := strings.TrimSpace(line[layout.Address:layout.Size])
	if rawAddr == "UNDEFINED" || len(rawAddr) == 0 {
		// undefined symbols carry no address to name.
		return nil, nil
	}
	addr, err := parseHex("address", rawAddr)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	// The remaining numeric fields end with the right-aligned Align field.
	if end := layout.Align + alignWidth; len(line) < end {
		return nil, errors.Wrapf(ErrShortRow, "length %d, Align field ends at %d", len(line), end)
	}
	// Size in bytes.
	//
	//    0000000000000008
	size, err := parseHex("size", strings.TrimSpace(line[layout.Size:layout.Align]))
	if err != nil {
		return nil, errors.WithStack(err)
	}
	// Alignment, right-aligned in a fixed-width field.
	//
	//        4
	align, err := parseHex("align", strings.TrimSpace(line[layout.Align:layout.Align+alignWidth]))
	if err != nil {
		return nil, errors.WithStack(err)
	}
	// Rows attributed to an output section, input section or file are the
	// section and file headers of the report.
	if !isBlank(line, layout.Out) || !isBlank(line, layout.In) || !isBlank(line, layout.File) {
		return nil, nil
	}
	if isBlank(line, layout.Symbol) {
		return nil, nil
	}
	sym := &Symbol{
		Name:  strings.TrimSpace(line[layout.Symbol:]),
		Addr:  addr,
		Size:  size,
		Align: align,
	}
	return sym, nil
}

// isBlank reports whether the character at offset i of line is a space. Offsets
// past the end of a line are blank.
func isBlank(line string, i int) bool {
	return i >= len(line) || line[i] == ' '
}

// alignWidth is the width in characters of the Align field.
const alignWidth = 5

// skipZeroAddr reports whether the given symbol is dropped for having a zero
// address. Many symbols of a report are placed at address zero; these are
// treated as noise, even though an absolute symbol could legitimately be
// defined at zero.
func skipZeroAddr(sym *Symbol) bool {
	return sym.Addr == 0
}

// parseHex parses the given hexadecimal field of a row.
func parseHex(field, s string) (uint64, error) {
	x, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, errors.Wrapf(ErrMalformedRow, "invalid %s %q", field, s)
	}
	return x, nil
}
