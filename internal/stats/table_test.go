package stats

import (
	"bytes"
	"testing"
)

func TestTextTableAlignsColumns(t *testing.T) {
	table := newTextTable(
		column{header: "Wrong", right: true},
		column{header: "Accuracy", right: true},
		column{header: "Content"},
	)
	table.add("12", "97.50%", "Hello.")
	table.add("3", "8.00%", "Bye")

	lines := table.lines()
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0] != "Wrong Accuracy Content" {
		t.Fatalf("unexpected header line: %q", lines[0])
	}
	if lines[1] != "   12   97.50% Hello." {
		t.Fatalf("unexpected row line: %q", lines[1])
	}
	if lines[2] != "    3    8.00% Bye" {
		t.Fatalf("unexpected row line: %q", lines[2])
	}
}

func TestTextTableCapsWideCells(t *testing.T) {
	table := newTextTable(column{header: "N", right: true}, column{header: "Text", max: 6})
	table.add("1", "abcdefghij")
	table.add("2")

	var buf bytes.Buffer
	if err := table.writeTo(&buf); err != nil {
		t.Fatalf("write: %v", err)
	}
	want := "N Text\n1 abc...\n2\n\n"
	if buf.String() != want {
		t.Fatalf("unexpected table:\n%q\nwant\n%q", buf.String(), want)
	}
}

func TestDisplayWidthCountsWideRunes(t *testing.T) {
	if got := displayWidth("中文"); got != 4 {
		t.Fatalf("expected width 4, got %d", got)
	}
	if got := truncateCell("中文中文", 6); displayWidth(got) > 6 {
		t.Fatalf("truncated cell too wide: %q", got)
	}
}
