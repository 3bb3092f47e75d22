package http

import (
	"net/url"
	"strings"
	"time"

	"github.com/example/campground/internal/application"
	"github.com/example/campground/internal/interval"
)

const dateLayout = "2006-01-02"

// stayRequest accepts either calendar dates, which get the default check-in
// and check-out hours, or exact RFC 3339 instants.
type stayRequest struct {
	Arrival   string `json:"arrival,omitempty"`
	Departure string `json:"departure,omitempty"`
	Start     string `json:"start,omitempty"`
	End       string `json:"end,omitempty"`
}

func stayFromQuery(values url.Values) stayRequest {
	return stayRequest{
		Arrival:   values.Get("arrival"),
		Departure: values.Get("departure"),
		Start:     values.Get("start"),
		End:       values.Get("end"),
	}
}

func (s stayRequest) empty() bool {
	return strings.TrimSpace(s.Arrival+s.Departure+s.Start+s.End) == ""
}

func (s stayRequest) toInterval(loc *time.Location) (interval.Interval, error) {
	vErr := &application.ValidationError{FieldErrors: map[string]string{}}
	if loc == nil {
		loc = time.UTC
	}

	if strings.TrimSpace(s.Start) != "" || strings.TrimSpace(s.End) != "" {
		start, startErr := time.Parse(time.RFC3339, strings.TrimSpace(s.Start))
		if startErr != nil {
			vErr.FieldErrors["start"] = "must be an RFC 3339 timestamp"
		}
		end, endErr := time.Parse(time.RFC3339, strings.TrimSpace(s.End))
		if endErr != nil {
			vErr.FieldErrors["end"] = "must be an RFC 3339 timestamp"
		}
		if vErr.HasErrors() {
			return interval.Interval{}, vErr
		}
		// instants may carry any offset; nights are counted in loc
		return interval.New(start.In(loc), end.In(loc))
	}

	arrival, arrivalErr := time.ParseInLocation(dateLayout, strings.TrimSpace(s.Arrival), loc)
	if arrivalErr != nil {
		vErr.FieldErrors["arrival"] = "must be a date (YYYY-MM-DD)"
	}
	departure, departureErr := time.ParseInLocation(dateLayout, strings.TrimSpace(s.Departure), loc)
	if departureErr != nil {
		vErr.FieldErrors["departure"] = "must be a date (YYYY-MM-DD)"
	}
	if vErr.HasErrors() {
		return interval.Interval{}, vErr
	}
	return interval.ForStay(arrival, departure, loc)
}

type stayDTO struct {
	Start  string `json:"start"`
	End    string `json:"end"`
	Nights int    `json:"nights"`
}

func toStayDTO(stay interval.Interval) stayDTO {
	return stayDTO{
		Start:  formatTime(stay.Start),
		End:    formatTime(stay.End),
		Nights: stay.Nights(),
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
