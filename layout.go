package lldmap

import (
	"strings"

	"github.com/pkg/errors"
)

var (
	// ErrColumnNotFound is returned when a column label is absent from the
	// header line.
	ErrColumnNotFound = errors.New("column not found")
	// ErrColumnOrder is returned when the column labels of the header line are
	// not in the expected left-to-right order.
	ErrColumnOrder = errors.New("columns out of order")
)

// Layout specifies the character offsets of the columns of a symbol table, as
// located by the labels of its header line.
type Layout struct {
	Address int
	Size    int
	Align   int // right-aligned
	Out     int
	In      int
	File    int
	Symbol  int
}

// columnLabels lists the header labels of a symbol table, from left to right.
var columnLabels = []string{"Address", "Size", "Align", "Out", "In", "File", "Symbol"}

// ParseLayout locates the columns of a symbol table from its header line.
func ParseLayout(header string) (Layout, error) {
	// Example:
	//
	//    Address          Size             Align Out     In      File    Symbol
	offsets := make([]int, len(columnLabels))
	for i, label := range columnLabels {
		offset := strings.Index(header, label)
		if offset == -1 {
			return Layout{}, errors.Wrapf(ErrColumnNotFound, "%q in header %q", label, header)
		}
		if i > 0 && offset <= offsets[i-1] {
			return Layout{}, errors.Wrapf(ErrColumnOrder, "%q at %d precedes %q at %d", label, offset, columnLabels[i-1], offsets[i-1])
		}
		offsets[i] = offset
	}
	layout := Layout{
		Address: offsets[0],
		Size:    offsets[1],
		Align:   offsets[2],
		Out:     offsets[3],
		In:      offsets[4],
		File:    offsets[5],
		Symbol:  offsets[6],
	}
	return layout, nil
}
