package utils

import (
	"sort"
	"testing"
	"time"
)

func mustLoad(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Skipf("timezone data for %s not available: %v", name, err)
	}
	return loc
}

func TestLoadLocation(t *testing.T) {
	tests := []struct {
		name     string
		timezone string
		wantErr  bool
	}{
		{
			name:     "empty string returns local",
			timezone: "",
			wantErr:  false,
		},
		{
			name:     "Local returns local",
			timezone: "Local",
			wantErr:  false,
		},
		{
			name:     "valid timezone UTC",
			timezone: "UTC",
			wantErr:  false,
		},
		{
			name:     "valid timezone America/New_York",
			timezone: "America/New_York",
			wantErr:  false,
		},
		{
			name:     "invalid timezone",
			timezone: "Invalid/Timezone",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, err := LoadLocation(tt.timezone)
			if (err != nil) != tt.wantErr {
				t.Errorf("LoadLocation() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && loc == nil {
				t.Errorf("LoadLocation() returned nil location without error")
			}
		})
	}
}

func TestNormalizerRoundTrip(t *testing.T) {
	zones := []string{"UTC", "America/New_York", "Asia/Kolkata", "Pacific/Chatham"}
	instants := []time.Time{
		time.Date(2024, 1, 15, 23, 30, 0, 0, time.UTC),
		time.Date(2024, 3, 10, 6, 59, 59, 999999000, time.UTC),
		time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 11, 3, 5, 30, 0, 123456000, time.UTC),
	}

	for _, zone := range zones {
		loc := mustLoad(t, zone)
		n := NewNormalizer(loc, nil)
		for _, in := range instants {
			s := n.Format(in)
			out, err := n.Parse(s)
			if err != nil {
				t.Fatalf("%s: Parse(%q) failed: %v", zone, s, err)
			}
			if !out.Equal(in) {
				t.Errorf("%s: round trip of %v gave %v", zone, in, out)
			}
			local := in.In(loc)
			if out.Year() != local.Year() || out.YearDay() != local.YearDay() ||
				out.Hour() != local.Hour() || out.Minute() != local.Minute() || out.Second() != local.Second() {
				t.Errorf("%s: wall clock changed: wrote %v, read %v", zone, local, out)
			}
			if out.Location() != loc {
				t.Errorf("%s: parsed time is in %v, want %v", zone, out.Location(), loc)
			}
		}
	}
}

func TestNormalizerFormatIsLocal(t *testing.T) {
	loc := mustLoad(t, "America/New_York")
	n := NewNormalizer(loc, nil)

	// 02:00 UTC on Jan 16 is still Jan 15 in New York.
	got := n.Format(time.Date(2024, 1, 16, 2, 0, 0, 0, time.UTC))
	want := "2024-01-15T21:00:00.000000-05:00"
	if got != want {
		t.Errorf("Format() = %q, want %q", got, want)
	}
	if day := n.Day(time.Date(2024, 1, 16, 2, 0, 0, 0, time.UTC)); day != "2024-01-15" {
		t.Errorf("Day() = %q, want 2024-01-15", day)
	}
}

func TestNormalizerParseLegacy(t *testing.T) {
	loc := mustLoad(t, "Europe/Berlin")
	n := NewNormalizer(loc, nil)

	got, err := n.Parse("2024-05-01 08:15:00")
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}
	if got.Hour() != 8 || got.Minute() != 15 || got.Day() != 1 {
		t.Errorf("legacy value should keep its wall clock, got %v", got)
	}

	if _, err := n.Parse("not a time"); err == nil {
		t.Error("Parse() should fail on garbage input")
	}
}

func TestNormalizerLexicographicOrder(t *testing.T) {
	n := NewNormalizer(time.UTC, nil)
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	times := []time.Time{
		base.Add(1500 * time.Millisecond),
		base,
		base.Add(-36 * time.Hour),
		base.Add(time.Microsecond),
		base.Add(48 * time.Hour),
	}

	var strs []string
	for _, tm := range times {
		strs = append(strs, n.Format(tm))
	}
	sort.Strings(strs)
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })

	for i := range times {
		if strs[i] != n.Format(times[i]) {
			t.Errorf("position %d: string order %q does not match time order %q", i, strs[i], n.Format(times[i]))
		}
	}
}

func TestStartOfDay(t *testing.T) {
	loc := mustLoad(t, "Asia/Tokyo")
	n := NewNormalizer(loc, nil)

	got := n.StartOfDay(time.Date(2024, 2, 29, 16, 0, 0, 0, time.UTC)) // 01:00 Mar 1 in Tokyo
	want := time.Date(2024, 3, 1, 0, 0, 0, 0, loc)
	if !got.Equal(want) {
		t.Errorf("StartOfDay() = %v, want %v", got, want)
	}
}

func TestDaysBetween(t *testing.T) {
	loc := mustLoad(t, "America/New_York")
	n := NewNormalizer(loc, nil)

	tests := []struct {
		name    string
		later   time.Time
		earlier time.Time
		want    int
	}{
		{
			name:    "same day",
			later:   time.Date(2024, 5, 3, 23, 59, 0, 0, loc),
			earlier: time.Date(2024, 5, 3, 0, 1, 0, 0, loc),
			want:    0,
		},
		{
			name:    "late night to early morning is one day",
			later:   time.Date(2024, 5, 4, 0, 5, 0, 0, loc),
			earlier: time.Date(2024, 5, 3, 23, 55, 0, 0, loc),
			want:    1,
		},
		{
			name:    "across spring forward",
			later:   time.Date(2024, 3, 11, 0, 0, 0, 0, loc),
			earlier: time.Date(2024, 3, 9, 0, 0, 0, 0, loc),
			want:    2,
		},
		{
			name:    "across fall back",
			later:   time.Date(2024, 11, 4, 0, 0, 0, 0, loc),
			earlier: time.Date(2024, 11, 3, 0, 0, 0, 0, loc),
			want:    1,
		},
		{
			name:    "earlier in the future",
			later:   time.Date(2024, 5, 3, 12, 0, 0, 0, loc),
			earlier: time.Date(2024, 5, 5, 12, 0, 0, 0, loc),
			want:    -2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := n.DaysBetween(tt.later, tt.earlier); got != tt.want {
				t.Errorf("DaysBetween() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestNormalizerNowUsesClock(t *testing.T) {
	loc := mustLoad(t, "Australia/Sydney")
	pinned := time.Date(2024, 8, 1, 10, 0, 0, 0, time.UTC)
	clock := NewFixedClock(pinned)
	n := NewNormalizer(loc, clock)

	if !n.Now().Equal(pinned) {
		t.Errorf("Now() = %v, want %v", n.Now(), pinned)
	}
	if n.Now().Location() != loc {
		t.Errorf("Now() should be expressed in %v", loc)
	}

	clock.Advance(24 * time.Hour)
	if got := n.Day(n.Now()); got != "2024-08-02" {
		t.Errorf("Day(Now()) after advance = %q, want 2024-08-02", got)
	}
}

func TestParseInstant(t *testing.T) {
	n := NewNormalizer(time.UTC, nil)

	if got, err := n.ParseInstant("2024-04-02"); err != nil || !got.Equal(time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("ParseInstant(date) = %v, %v", got, err)
	}
	if got, err := n.ParseInstant("2024-04-02T10:00:00+02:00"); err != nil || got.Hour() != 8 {
		t.Errorf("ParseInstant(rfc3339) = %v, %v", got, err)
	}
	if _, err := n.ParseInstant("yesterday"); err == nil {
		t.Error("ParseInstant should reject free text")
	}
}

func TestValidateTimezone(t *testing.T) {
	if !ValidateTimezone("") || !ValidateTimezone("Local") || !ValidateTimezone("UTC") {
		t.Error("expected empty, Local and UTC to be valid")
	}
	if ValidateTimezone("Mars/Olympus_Mons") {
		t.Error("expected unknown zone to be invalid")
	}
}
