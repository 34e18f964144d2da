package idc_test

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/mewrev/lldmap"
	"github.com/mewrev/lldmap/idc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitize(t *testing.T) {
	golden := []struct {
		in   string
		want string
	}{
		{in: "main", want: "main"},
		{in: "Foo_Bar_123", want: "Foo_Bar_123"},
		{in: "MyClass::Foo", want: "MyClass__Foo"},
		{in: "MyClass::~MyClass()", want: "MyClass___MyClass__"},
		{in: "operator new(unsigned long)", want: "operator_new_unsigned_long_"},
		{in: "Bar!", want: "Bar_"},
		{in: "", want: ""},
		{in: "naïve", want: "na_ve"},
	}
	for _, g := range golden {
		got := idc.Sanitize(g.in)
		assert.Equal(t, g.want, got, g.in)
		// Sanitizing a clean name is a no-op.
		assert.Equal(t, got, idc.Sanitize(got), g.in)
	}
}

func TestRegistry(t *testing.T) {
	reg := idc.NewRegistry()
	assert.Equal(t, "Bar", reg.Name("Bar"))
	assert.Equal(t, "Foo", reg.Name("Foo"))
	assert.Equal(t, "Bar2", reg.Name("Bar"))
	assert.Equal(t, "Bar3", reg.Name("Bar"))
	assert.Equal(t, "bar", reg.Name("bar"))
	assert.Equal(t, "Foo2", reg.Name("Foo"))

	// Registries are independent.
	assert.Equal(t, "Bar", idc.NewRegistry().Name("Bar"))
}

func TestSort(t *testing.T) {
	syms := []*lldmap.Symbol{
		{Name: "c", Addr: 0x30},
		{Name: "a1", Addr: 0x10},
		{Name: "b", Addr: 0x20},
		{Name: "a2", Addr: 0x10},
		{Name: "a3", Addr: 0x10},
	}
	idc.Sort(syms)
	var names []string
	for _, sym := range syms {
		names = append(names, sym.Name)
	}
	assert.Equal(t, []string{"a1", "a2", "a3", "b", "c"}, names)
}

func TestDedup(t *testing.T) {
	syms := []*lldmap.Symbol{
		{Name: "a", Addr: 0x10},
		{Name: "b", Addr: 0x10},
		{Name: "a", Addr: 0x10, Size: 4},
		{Name: "a", Addr: 0x20},
		{Name: "b", Addr: 0x10},
	}
	got := idc.Dedup(syms)
	want := []*lldmap.Symbol{
		{Name: "a", Addr: 0x10},
		{Name: "b", Addr: 0x10},
		{Name: "a", Addr: 0x20},
	}
	assert.Equal(t, want, got)
}

func TestResolve(t *testing.T) {
	syms := []*lldmap.Symbol{
		{Name: "Foo::~Foo()", Addr: 0x40},
		{Name: "Bar!", Addr: 0x20},
		{Name: "Bar", Addr: 0x10},
		{Name: "Foo::~Foo()", Addr: 0x30},
		{Name: "Bar", Addr: 0x10},
		{Name: "Bar?", Addr: 0x20},
	}
	want := []idc.Entry{
		{Addr: 0x10, Name: "Bar", Comment: "Bar"},
		{Addr: 0x20, Name: "Bar_", Comment: "Bar!"},
		{Addr: 0x20, Name: "Bar_2", Comment: "Bar?"},
		{Addr: 0x30, Name: "Foo___Foo__", Comment: "Foo::~Foo()"},
		{Addr: 0x40, Name: "Foo___Foo__2", Comment: "Foo::~Foo()"},
	}
	assert.Equal(t, want, idc.Resolve(syms))
}

func TestWrite(t *testing.T) {
	syms := []*lldmap.Symbol{
		{Name: "Bar!", Addr: 0x201020},
		{Name: "Bar", Addr: 0x201010},
		{Name: "low", Addr: 0x5},
		{Name: `operator""_x`, Addr: 0xabc},
	}
	buf := &bytes.Buffer{}
	require.NoError(t, idc.Write(buf, syms))
	want := `static main() {
set_name(0x05, "low", 0);
set_cmt(0x05, "low", 1);
set_name(0xABC, "operator___x", 0);
set_cmt(0xABC, "operator\"\"_x", 1);
set_name(0x201010, "Bar", 0);
set_cmt(0x201010, "Bar", 1);
set_name(0x201020, "Bar_", 0);
set_cmt(0x201020, "Bar!", 1);
}
`
	assert.Equal(t, want, buf.String())
}

func TestWriteEmpty(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, idc.Write(buf, nil))
	assert.Equal(t, "static main() {\n}\n", buf.String())
}

func TestWriteReport(t *testing.T) {
	const rowFormat = "%-17s%-17s%5s %-8s%-8s%-8s%s"
	lines := []string{
		fmt.Sprintf(rowFormat, "Address", "Size", "Align", "Out", "In", "File", "Symbol"),
		"=================================================================",
		fmt.Sprintf(rowFormat, "00000010", "8", "4", "", "", "", "MyClass::Foo"),
		fmt.Sprintf(rowFormat, "00000020", "8", "4", "", "", "", "Bar!"),
		fmt.Sprintf(rowFormat, "00000030", "8", "4", "", "", "", "Bar?"),
	}
	m, err := lldmap.ParseString(strings.Join(lines, "\n"))
	require.NoError(t, err)
	buf := &bytes.Buffer{}
	require.NoError(t, idc.Write(buf, m.Syms))
	got := buf.String()
	assert.Contains(t, got, "set_name(0x10, \"MyClass__Foo\", 0);\n")
	assert.Contains(t, got, "set_cmt(0x10, \"MyClass::Foo\", 1);\n")
	assert.Contains(t, got, "set_name(0x20, \"Bar_\", 0);\n")
	assert.Contains(t, got, "set_cmt(0x20, \"Bar!\", 1);\n")
	assert.Contains(t, got, "set_name(0x30, \"Bar_2\", 0);\n")
	assert.Contains(t, got, "set_cmt(0x30, \"Bar?\", 1);\n")
}
