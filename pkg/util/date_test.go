package util

import (
	"testing"
	"time"
)

func TestFormatParseRoundTrip(t *testing.T) {
	d := time.Date(2016, 4, 25, 0, 0, 0, 0, time.UTC)
	s := FormatDate(d)
	if s != "2016-04-25" {
		t.Fatalf("format = %q", s)
	}
	got, err := ParseDate(s)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !got.Equal(d) {
		t.Fatalf("round trip = %v, want %v", got, d)
	}
}

func TestParseDateRejectsOtherLayouts(t *testing.T) {
	if _, err := ParseDate("25/04/2016"); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestDayUTC(t *testing.T) {
	loc := time.FixedZone("x", -5*3600)
	in := time.Date(2016, 4, 25, 23, 30, 0, 0, loc)
	got := DayUTC(in)
	want := time.Date(2016, 4, 26, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("day = %v, want %v", got, want)
	}
}

func TestDaysBetween(t *testing.T) {
	a := time.Date(2016, 4, 25, 10, 0, 0, 0, time.UTC)
	b := time.Date(2016, 4, 28, 1, 0, 0, 0, time.UTC)
	if d := DaysBetween(a, b); d != 3 {
		t.Fatalf("days = %d, want 3", d)
	}
	if d := DaysBetween(b, a); d != -3 {
		t.Fatalf("reverse days = %d, want -3", d)
	}
}

func TestParseIntDefault(t *testing.T) {
	if v := ParseIntDefault("", 7); v != 7 {
		t.Fatalf("empty = %d, want 7", v)
	}
	if v := ParseIntDefault("12", 7); v != 12 {
		t.Fatalf("valid = %d, want 12", v)
	}
	if v := ParseIntDefault("abc", 7); v != 7 {
		t.Fatalf("junk = %d, want 7", v)
	}
}
