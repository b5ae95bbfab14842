package selftest

import (
	"errors"
	"strconv"
	"strings"
	"testing"

	"tk/arch"
	"tk/ddf"
	"tk/kernel"
)

type report struct {
	strings.Builder
}

func (r *report) RawPrintString(s string)  { r.WriteString(s) }
func (r *report) RawPrintDecimal(x uint64) { r.WriteString(strconv.FormatUint(x, 10)) }

func newKernel() *kernel.Kernel {
	return kernel.New(kernel.Config{}, arch.New())
}

func TestCasesPass(t *testing.T) {
	for _, c := range Cases(newKernel()) {
		if err := c.Run(); err != nil {
			t.Fatalf("%s: %v", c.Desc, err)
		}
	}
}

func TestRunReport(t *testing.T) {
	var out report
	passed, total := Run(&out, newKernel())
	if passed != total {
		t.Fatalf("passed = %d, want %d\n%s", passed, total, out.String())
	}
	if total != len(Cases(newKernel())) {
		t.Fatalf("total = %d, want %d", total, len(Cases(newKernel())))
	}

	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	if len(lines) != total+1 {
		t.Fatalf("report has %d lines, want %d", len(lines), total+1)
	}
	if lines[0] != "schedule with no threads... ok" {
		t.Fatalf("first line = %q", lines[0])
	}
	if got := lines[total]; got != "All tests pass!" {
		t.Fatalf("summary = %q, want %q", got, "All tests pass!")
	}
}

func TestRunReportsFailures(t *testing.T) {
	var out report
	cases := []Case{
		{"passes", func() error { return nil }},
		{"fails", func() error { return expect("op", nil, kernel.ErrFull) }},
	}
	passed, total := run(&out, cases)
	if passed != 1 || total != 2 {
		t.Fatalf("run() = %d, %d, want 1, 2", passed, total)
	}
	want := "passes... ok\nfails... fail! (op: got <nil>, want thread pool exhausted)\n1/2 tests passed.\n"
	if out.String() != want {
		t.Fatalf("report = %q, want %q", out.String(), want)
	}
}

func TestScratchLeavesUnplacedThreadsFree(t *testing.T) {
	s := newScratch(func(s *scratch) []placement {
		return []placement{{s.ready, kernel.PriorityNormal, 0}}
	})
	if got := s.free.Len(); got != PoolSize-1 {
		t.Fatalf("free = %d, want %d", got, PoolSize-1)
	}
	if s.thread(0).Queue() != s.ready {
		t.Fatal("thread 0 not in ready queue")
	}
}

func TestPowerUnsupported(t *testing.T) {
	d := driverCases{k: newKernel()}
	if err := d.powerUnsupported(); err != nil {
		t.Fatalf("powerUnsupported() error = %v", err)
	}

	// A driver without power control starts on, so the handle rejects
	// PowerUp before it checks for support.
	tbl, _, err := d.open()
	if err != nil {
		t.Fatalf("open() error = %v", err)
	}
	h, err := tbl.Open(fixedMajor, 0)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := h.PowerUp(); !errors.Is(err, ddf.ErrAlreadyPoweredOn) {
		t.Fatalf("PowerUp() error = %v, want %v", err, ddf.ErrAlreadyPoweredOn)
	}
}
