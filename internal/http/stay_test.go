package http

import (
	"errors"
	"testing"
	"time"

	"github.com/example/campground/internal/application"
	"github.com/example/campground/internal/testfixtures"
)

func TestStayRequestToInterval(t *testing.T) {
	t.Parallel()

	sydney := testfixtures.LoadLocation(t, "Australia/Sydney")

	t.Run("dates get check-in and check-out hours in the campground zone", func(t *testing.T) {
		t.Parallel()
		stay, err := stayRequest{Arrival: "2021-07-03", Departure: "2021-07-10"}.toInterval(sydney)
		if err != nil {
			t.Fatalf("expected valid stay, got %v", err)
		}
		if stay.Nights() != 7 || stay.Start.Hour() != 14 || stay.End.Hour() != 9 {
			t.Fatalf("expected 7 nights from 14:00 to 09:00, got %s (%d nights)", stay, stay.Nights())
		}
	})

	t.Run("instants with a UTC offset are counted in the campground zone", func(t *testing.T) {
		t.Parallel()
		stay, err := stayRequest{Start: "2021-07-03T04:00:00Z", End: "2021-07-09T23:00:00Z"}.toInterval(sydney)
		if err != nil {
			t.Fatalf("expected valid stay, got %v", err)
		}
		if got := stay.Nights(); got != 7 {
			t.Fatalf("expected 7 nights in Sydney, got %d", got)
		}
		if stay.Start.Location() != sydney {
			t.Fatalf("expected start expressed in Sydney, got %s", stay.Start.Location())
		}
		want := time.Date(2021, time.July, 3, 14, 0, 0, 0, sydney)
		if !stay.Start.Equal(want) {
			t.Fatalf("expected start %s, got %s", want, stay.Start)
		}
	})

	t.Run("nil location means UTC", func(t *testing.T) {
		t.Parallel()
		stay, err := stayRequest{Start: "2021-07-03T14:00:00+10:00", End: "2021-07-10T09:00:00+10:00"}.toInterval(nil)
		if err != nil {
			t.Fatalf("expected valid stay, got %v", err)
		}
		if stay.Start.Location() != time.UTC || stay.Nights() != 6 {
			t.Fatalf("expected a 6-night UTC stay, got %s (%d nights)", stay, stay.Nights())
		}
	})

	t.Run("malformed instants are field errors", func(t *testing.T) {
		t.Parallel()
		_, err := stayRequest{Start: "tomorrow", End: "2021-07-10T09:00:00Z"}.toInterval(sydney)
		var vErr *application.ValidationError
		if !errors.As(err, &vErr) || vErr.FieldErrors["start"] == "" {
			t.Fatalf("expected start field error, got %v", err)
		}
	})
}
