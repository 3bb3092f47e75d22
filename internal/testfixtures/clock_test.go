package testfixtures

import (
	"testing"
	"time"
)

func TestClockStartsAtReferenceTime(t *testing.T) {
	if got := NewClock(time.Time{}).Now(); !got.Equal(ReferenceTime()) {
		t.Fatalf("expected ReferenceTime, got %v", got)
	}

	var nilClock *Clock
	if got := nilClock.NowFunc()(); !got.Equal(ReferenceTime()) {
		t.Fatalf("expected nil clock to read ReferenceTime, got %v", got)
	}
}

func TestClockAdvance(t *testing.T) {
	start := time.Date(2021, time.June, 4, 14, 0, 0, 0, time.UTC)
	clock := NewClock(start)
	now := clock.NowFunc()

	if got := clock.Advance(19 * time.Hour); !got.Equal(start.Add(19 * time.Hour)) {
		t.Fatalf("expected %v, got %v", start.Add(19*time.Hour), got)
	}
	if !now().Equal(clock.Now()) {
		t.Fatalf("expected NowFunc to follow the clock, got %v", now())
	}

	clock.Set(start)
	if got := clock.AdvanceDays(7); !got.Equal(time.Date(2021, time.June, 11, 14, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected one week later, got %v", got)
	}
}

func TestClockAdvanceDaysKeepsLocalHourAcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("America/Denver")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	clock := NewClock(time.Date(2021, time.March, 13, 14, 0, 0, 0, loc))

	got := clock.AdvanceDays(1)
	if got.Hour() != 14 || got.Day() != 14 {
		t.Fatalf("expected 14:00 on March 14, got %v", got)
	}
}
