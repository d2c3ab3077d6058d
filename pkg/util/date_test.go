package util

import (
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	want := time.Date(1987, 5, 20, 0, 0, 0, 0, time.UTC)
	cases := []string{
		"1987-05-20",
		"1987/05/20",
		"05/20/1987",
		"20-May-87",
		"20-May-1987",
		" 1987-05-20 ",
		"1987-05-20T14:30:00",
		"1987-05-20T14:30:00Z",
	}
	for _, in := range cases {
		got, ok := ParseDate(in)
		if !ok {
			t.Fatalf("ParseDate(%q) failed", in)
		}
		if !got.Equal(want) {
			t.Fatalf("ParseDate(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestParseDateInvalid(t *testing.T) {
	for _, in := range []string{"", "  ", "not-a-date", "13/45/2020", "2020-15-99"} {
		if _, ok := ParseDate(in); ok {
			t.Fatalf("ParseDate(%q) should fail", in)
		}
	}
}

func TestParseDateDefault(t *testing.T) {
	def := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	if got := ParseDateDefault("garbage", def); !got.Equal(def) {
		t.Fatalf("expected the default, got %v", got)
	}
	if got := ParseDateDefault("2020-06-01", def); got.Equal(def) {
		t.Fatalf("valid input should not fall back to the default")
	}
}
