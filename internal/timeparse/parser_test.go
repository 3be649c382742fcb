package timeparse

import (
	"testing"
	"time"
)

func mustLoc(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Fatalf("load location %s: %v", name, err)
	}
	return loc
}

// Reference anchor used across tests: Monday 2024-01-01 at midnight local.
func mondayReference(loc *time.Location) time.Time {
	return time.Date(2024, time.January, 1, 0, 0, 0, 0, loc)
}

func TestParseBareAfternoonTime(t *testing.T) {
	loc := mustLoc(t, "America/New_York")
	p := NewParser("America/New_York")

	res := p.Parse("2pm", mondayReference(loc))
	if res.Status != StatusOK {
		t.Fatalf("status = %s, want ok", res.Status)
	}
	want := time.Date(2024, time.January, 1, 14, 0, 0, 0, loc)
	if !res.Start.Equal(want) {
		t.Errorf("start = %s, want %s", res.Start, want)
	}
	if *res.DurationMinutes != 60 {
		t.Errorf("duration = %d, want 60", *res.DurationMinutes)
	}
}

func TestParseWeekdayWithDuration(t *testing.T) {
	loc := mustLoc(t, "America/New_York")
	p := NewParser("America/New_York")

	res := p.Parse("Friday 2:30pm for 45 minutes", mondayReference(loc))
	if res.Status != StatusOK {
		t.Fatalf("status = %s, want ok", res.Status)
	}
	want := time.Date(2024, time.January, 5, 14, 30, 0, 0, loc)
	if !res.Start.Equal(want) {
		t.Errorf("start = %s, want %s", res.Start, want)
	}
	if res.Start.Weekday() != time.Friday {
		t.Errorf("weekday = %s, want Friday", res.Start.Weekday())
	}
	if *res.DurationMinutes != 45 {
		t.Errorf("duration = %d, want 45", *res.DurationMinutes)
	}
}

func TestParseNoTimeFound(t *testing.T) {
	p := NewParser("America/New_York")
	res := p.Parse("hello", mondayReference(mustLoc(t, "America/New_York")))
	if res.Status != StatusNoTimeFound {
		t.Fatalf("status = %s, want no_time_found", res.Status)
	}
	if res.Start != nil || res.DurationMinutes != nil {
		t.Errorf("expected nil start and duration, got %v / %v", res.Start, res.DurationMinutes)
	}
}

func TestParseEmptyText(t *testing.T) {
	p := NewParser("America/New_York")
	res := p.Parse("   ", mondayReference(mustLoc(t, "America/New_York")))
	if res.Status != StatusNoTimeFound {
		t.Fatalf("status = %s, want no_time_found", res.Status)
	}
}

func TestParseTomorrow(t *testing.T) {
	loc := mustLoc(t, "America/New_York")
	p := NewParser("America/New_York")

	res := p.Parse("tomorrow at 9:15am", mondayReference(loc))
	if res.Status != StatusOK {
		t.Fatalf("status = %s, want ok", res.Status)
	}
	want := time.Date(2024, time.January, 2, 9, 15, 0, 0, loc)
	if !res.Start.Equal(want) {
		t.Errorf("start = %s, want %s", res.Start, want)
	}
}

func TestParseWeekdaySameDayAllowed(t *testing.T) {
	loc := mustLoc(t, "America/New_York")
	p := NewParser("America/New_York")
	friday := time.Date(2024, time.January, 5, 8, 0, 0, 0, loc)

	res := p.Parse("friday 10am", friday)
	if res.Status != StatusOK {
		t.Fatalf("status = %s, want ok", res.Status)
	}
	want := time.Date(2024, time.January, 5, 10, 0, 0, 0, loc)
	if !res.Start.Equal(want) {
		t.Errorf("start = %s, want same-day %s", res.Start, want)
	}
}

func TestParseNextSkipsAWeekOnSameDay(t *testing.T) {
	loc := mustLoc(t, "America/New_York")
	p := NewParser("America/New_York")
	friday := time.Date(2024, time.January, 5, 8, 0, 0, 0, loc)

	res := p.Parse("next friday 10am", friday)
	if res.Status != StatusOK {
		t.Fatalf("status = %s, want ok", res.Status)
	}
	want := time.Date(2024, time.January, 12, 10, 0, 0, 0, loc)
	if !res.Start.Equal(want) {
		t.Errorf("start = %s, want following week %s", res.Start, want)
	}
}

func TestParseNextOnlyAffectsSameDayMatches(t *testing.T) {
	loc := mustLoc(t, "America/New_York")
	p := NewParser("America/New_York")
	friday := time.Date(2024, time.January, 5, 8, 0, 0, 0, loc)

	// "next monday" from a Friday is just the coming Monday.
	res := p.Parse("next monday 10am", friday)
	if res.Status != StatusOK {
		t.Fatalf("status = %s, want ok", res.Status)
	}
	want := time.Date(2024, time.January, 8, 10, 0, 0, 0, loc)
	if !res.Start.Equal(want) {
		t.Errorf("start = %s, want %s", res.Start, want)
	}
}

func TestParseWeekdayAliases(t *testing.T) {
	loc := mustLoc(t, "America/New_York")
	p := NewParser("America/New_York")
	ref := mondayReference(loc)

	cases := []struct {
		text string
		want time.Weekday
	}{
		{"tue 3pm", time.Tuesday},
		{"tues 3pm", time.Tuesday},
		{"tuesday 3pm", time.Tuesday},
		{"wed 3pm", time.Wednesday},
		{"thurs at 3pm", time.Thursday},
		{"sat 3pm", time.Saturday},
		{"sun 3pm", time.Sunday},
	}
	for _, tc := range cases {
		res := p.Parse(tc.text, ref)
		if res.Status != StatusOK {
			t.Errorf("Parse(%q) status = %s, want ok", tc.text, res.Status)
			continue
		}
		if res.Start.Weekday() != tc.want {
			t.Errorf("Parse(%q) weekday = %s, want %s", tc.text, res.Start.Weekday(), tc.want)
		}
	}
}

func TestParseMeridiemNormalization(t *testing.T) {
	loc := mustLoc(t, "America/New_York")
	p := NewParser("America/New_York")
	ref := mondayReference(loc)

	cases := []struct {
		text       string
		wantHour   int
		wantMinute int
	}{
		{"12pm", 12, 0},
		{"12am", 0, 0},
		{"1pm", 13, 0},
		{"11:59pm", 23, 59},
		{"7", 7, 0},
		{"14:30", 14, 30},
	}
	for _, tc := range cases {
		res := p.Parse(tc.text, ref)
		if res.Status != StatusOK {
			t.Errorf("Parse(%q) status = %s, want ok", tc.text, res.Status)
			continue
		}
		if res.Start.Hour() != tc.wantHour || res.Start.Minute() != tc.wantMinute {
			t.Errorf("Parse(%q) = %02d:%02d, want %02d:%02d",
				tc.text, res.Start.Hour(), res.Start.Minute(), tc.wantHour, tc.wantMinute)
		}
	}
}

func TestParseInvalidTime(t *testing.T) {
	loc := mustLoc(t, "America/New_York")
	p := NewParser("America/New_York")
	ref := mondayReference(loc)

	for _, text := range []string{"25:00", "10:75", "13pm"} {
		res := p.Parse(text, ref)
		if res.Status != StatusInvalidTime {
			t.Errorf("Parse(%q) status = %s, want invalid_time", text, res.Status)
		}
		if res.Start != nil {
			t.Errorf("Parse(%q) start = %v, want nil", text, res.Start)
		}
	}
}

func TestParseDurations(t *testing.T) {
	loc := mustLoc(t, "America/New_York")
	p := NewParser("America/New_York")
	ref := mondayReference(loc)

	cases := []struct {
		text string
		want int
	}{
		{"2pm", 60},
		{"2pm for 45 minutes", 45},
		{"2pm for 45 mins", 45},
		{"2pm for 90 min", 90},
		{"2pm for 1.5 hours", 90},
		{"2pm for 2 hours", 120},
		{"2pm for 1 hour", 60},
	}
	for _, tc := range cases {
		res := p.Parse(tc.text, ref)
		if res.Status != StatusOK {
			t.Errorf("Parse(%q) status = %s, want ok", tc.text, res.Status)
			continue
		}
		if *res.DurationMinutes != tc.want {
			t.Errorf("Parse(%q) duration = %d, want %d", tc.text, *res.DurationMinutes, tc.want)
		}
	}
}

func TestParseFirstAliasInScanOrderWins(t *testing.T) {
	loc := mustLoc(t, "America/New_York")
	p := NewParser("America/New_York")
	ref := mondayReference(loc)

	// Scan order is fixed by the alias table, not sentence position.
	res := p.Parse("wednesday or tuesday at 3pm", ref)
	if res.Status != StatusOK {
		t.Fatalf("status = %s, want ok", res.Status)
	}
	if res.Start.Weekday() != time.Tuesday {
		t.Errorf("weekday = %s, want Tuesday (earlier table entry)", res.Start.Weekday())
	}
}

func TestParserFallsBackToUTC(t *testing.T) {
	p := NewParser("Not/AZone")
	ref := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	res := p.Parse("2pm", ref)
	if res.Status != StatusOK {
		t.Fatalf("status = %s, want ok", res.Status)
	}
	want := time.Date(2024, time.January, 1, 14, 0, 0, 0, time.UTC)
	if !res.Start.Equal(want) {
		t.Errorf("start = %s, want %s", res.Start, want)
	}
}
