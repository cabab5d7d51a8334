package utils

import "testing"

func TestAtoiDefault(t *testing.T) {
	cases := []struct {
		s    string
		def  int
		want int
	}{
		{"", 10, 10},
		{"42", 0, 42},
		{"-13", 1, -13},
		{"x", 5, 5},
		{" 42", 7, 7},
		{"999999999999999999999999", -1, -1},
	}
	for _, tc := range cases {
		if got := AtoiDefault(tc.s, tc.def); got != tc.want {
			t.Fatalf("AtoiDefault(%q, %d) = %d; want %d", tc.s, tc.def, got, tc.want)
		}
	}
}

func TestParseID(t *testing.T) {
	for in, want := range map[string]bool{"1": true, "42": true, "0": false, "-3": false, "abc": false, "": false} {
		if _, ok := ParseID(in); ok != want {
			t.Fatalf("ParseID(%q) ok=%v want %v", in, ok, want)
		}
	}
}

func TestClampPage(t *testing.T) {
	cases := []struct {
		page, size string
		want       Page
		offset     int
	}{
		{"", "", Page{1, 20}, 0},
		{"3", "10", Page{3, 10}, 20},
		{"0", "0", Page{1, 1}, 0},
		{"2", "500", Page{2, 100}, 100},
		{"x", "y", Page{1, 20}, 0},
	}
	for _, tc := range cases {
		got := ClampPage(tc.page, tc.size, 20, 100)
		if got != tc.want || got.Offset() != tc.offset {
			t.Fatalf("ClampPage(%q,%q) = %+v offset %d; want %+v offset %d", tc.page, tc.size, got, got.Offset(), tc.want, tc.offset)
		}
	}
}

func TestTotalPages(t *testing.T) {
	cases := []struct {
		total int64
		size  int
		want  int
	}{
		{0, 20, 0}, {1, 20, 1}, {20, 20, 1}, {21, 20, 2}, {5, 0, 0},
	}
	for _, tc := range cases {
		if got := TotalPages(tc.total, tc.size); got != tc.want {
			t.Fatalf("TotalPages(%d,%d)=%d want %d", tc.total, tc.size, got, tc.want)
		}
	}
}
