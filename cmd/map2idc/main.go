// The map2idc tool converts LLD map reports into IDC scripts, which name the
// symbols of the map report in IDA.
//
// Usage:
//
//    map2idc FILE.map
//
// The IDC script is written to FILE.map.idc.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/mewkiz/pkg/term"
	"github.com/mewrev/lldmap"
	"github.com/mewrev/lldmap/idc"
	"github.com/pkg/errors"
)

// dbg is a logger with the "map2idc:" prefix which logs debug messages to
// standard error.
var dbg = log.New(os.Stderr, term.CyanBold("map2idc:")+" ", 0)

func usage() {
	const use = `
Convert LLD map reports into IDC scripts.

Usage:

	map2idc FILE.map

The IDC script is written to FILE.map.idc.
`
	fmt.Fprintln(os.Stderr, use[1:])
}

func main() {
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}
	mapPath := flag.Arg(0)
	if err := map2idc(mapPath); err != nil {
		log.Fatalf("%+v", err)
	}
}

// idcExt is appended to the path of a map report to form the path of its IDC
// script.
const idcExt = ".idc"

// map2idc converts the given map report into an IDC script, written next to
// it. No script is written if the map report fails to parse.
func map2idc(mapPath string) error {
	m, err := lldmap.ParseFile(mapPath)
	if err != nil {
		return errors.WithStack(err)
	}
	buf := &bytes.Buffer{}
	if err := idc.Write(buf, m.Syms); err != nil {
		return errors.WithStack(err)
	}
	idcPath := mapPath + idcExt
	dbg.Printf("creating %q", idcPath)
	if err := os.WriteFile(idcPath, buf.Bytes(), 0644); err != nil {
		return errors.WithStack(err)
	}
	return nil
}
