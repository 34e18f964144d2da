// The map_dump tool pretty-prints the parsed contents of LLD map reports.
//
// Usage:
//
//    map_dump [-resolve] FILE.map...
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/kr/pretty"
	"github.com/mewrev/lldmap"
	"github.com/mewrev/lldmap/idc"
)

func main() {
	var (
		// resolve prints the named entries of the IDC script instead of the
		// parsed map report.
		resolve bool
	)
	flag.BoolVar(&resolve, "resolve", false, "print resolved IDC entries")
	flag.Parse()
	for _, mapPath := range flag.Args() {
		m, err := lldmap.ParseFile(mapPath)
		if err != nil {
			log.Fatalf("%+v", err)
		}
		fmt.Printf("%s: %d symbols\n", mapPath, len(m.Syms))
		if resolve {
			pretty.Println(idc.Resolve(m.Syms))
			continue
		}
		pretty.Println(m)
	}
}
