package usecase

import (
	"errors"
	"testing"

	"github.com/DevRickLin/matchmate/internal/biz/domain"
)

func TestParseMeetingNullDate(t *testing.T) {
	for _, raw := range []string{`{"date":null}`, "  {\"date\": null}\n"} {
		c, err := ParseMeeting(raw)
		if err != nil {
			t.Fatalf("ParseMeeting(%q) failed: %v", raw, err)
		}
		if c.HasDate() {
			t.Errorf("Expected no date for %q, got %+v", raw, c)
		}
	}
}

func TestParseMeetingFullCommitment(t *testing.T) {
	c, err := ParseMeeting(`{"date":"2024-05-01","time":"19:30","location":"Cafe"}`)
	if err != nil {
		t.Fatalf("ParseMeeting failed: %v", err)
	}
	if c.Date != "2024-05-01" || c.Time != "19:30" || c.Location != "Cafe" {
		t.Errorf("Unexpected commitment: %+v", c)
	}
}

func TestParseMeetingEmptyLocation(t *testing.T) {
	c, err := ParseMeeting(`{"date":"2024-05-01","time":"09:00","location":""}`)
	if err != nil {
		t.Fatalf("ParseMeeting failed: %v", err)
	}
	if c.Location != "" {
		t.Errorf("Expected empty location, got %q", c.Location)
	}
}

func TestParseMeetingRejects(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"not json", "not json"},
		{"array", `[1,2]`},
		{"json null", `null`},
		{"missing date", `{"time":"19:30","location":"Cafe"}`},
		{"missing time", `{"date":"2024-05-01","location":"Cafe"}`},
		{"missing location", `{"date":"2024-05-01","time":"19:30"}`},
		{"unknown key", `{"date":"2024-05-01","time":"19:30","place":"Cafe"}`},
		{"extra key", `{"date":"2024-05-01","time":"19:30","location":"Cafe","note":"x"}`},
		{"extra key with null", `{"date":null,"time":"19:30"}`},
		{"number date", `{"date":20240501,"time":"19:30","location":"Cafe"}`},
		{"null time", `{"date":"2024-05-01","time":null,"location":"Cafe"}`},
		{"short month", `{"date":"2024-5-01","time":"19:30","location":"Cafe"}`},
		{"bad month", `{"date":"2024-13-01","time":"19:30","location":"Cafe"}`},
		{"bad day", `{"date":"2024-02-30","time":"19:30","location":"Cafe"}`},
		{"bad hour", `{"date":"2024-05-01","time":"25:00","location":"Cafe"}`},
		{"single digit hour", `{"date":"2024-05-01","time":"9:30","location":"Cafe"}`},
		{"seconds", `{"date":"2024-05-01","time":"19:30:00","location":"Cafe"}`},
		{"trailing prose", `{"date":null} sure!`},
		{"leading prose", `Here you go: {"date":null}`},
		{"two objects", `{"date":null}{"date":null}`},
		{"null location", `{"date":"2024-05-01","time":"19:30","location":null}`},
		{"number location", `{"date":"2024-05-01","time":"19:30","location":7}`},
		{"duplicate date", `{"date":"2024-05-01","time":"19:30","location":"x","date":"2024-06-01"}`},
		{"duplicate null date", `{"date":null,"date":null}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseMeeting(tt.raw)
			if err == nil {
				t.Fatalf("Expected error for %q", tt.raw)
			}
			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("Expected *ParseError, got %T", err)
			}
			if perr.Raw != tt.raw {
				t.Errorf("Expected raw %q, got %q", tt.raw, perr.Raw)
			}
		})
	}
}

func TestValidateCommitment(t *testing.T) {
	if err := ValidateCommitment(domain.MeetingCommitment{Date: "2024-02-29", Time: "00:00"}); err != nil {
		t.Errorf("Expected leap day to be valid, got %v", err)
	}
	for _, c := range []domain.MeetingCommitment{
		{},
		{Date: "2023-02-29", Time: "10:00"},
		{Date: "2024-05-01", Time: "24:00"},
		{Date: "2024-05-01"},
	} {
		if err := ValidateCommitment(c); err == nil {
			t.Errorf("Expected %+v to be rejected", c)
		}
	}
}
