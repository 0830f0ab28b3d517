package usecase

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/DevRickLin/matchmate/internal/biz/domain"
)

var (
	dateShape = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	timeShape = regexp.MustCompile(`^\d{2}:\d{2}$`)
)

// ParseError is returned when a model reply is not a well-formed meeting answer
type ParseError struct {
	Raw    string
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse meeting reply: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("parse meeting reply: %s", e.Reason)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func parseError(raw, reason string, err error) error {
	return &ParseError{Raw: raw, Reason: reason, Err: err}
}

// ParseMeeting parses the extraction reply.
//
// Two shapes are accepted, surrounding whitespace aside:
//
//	{"date":null}
//	{"date":"YYYY-MM-DD","time":"HH:MM","location":"..."}
//
// Anything else, including extra keys, prose around the object or
// impossible dates, yields a *ParseError. The first shape returns a
// commitment without a date.
func ParseMeeting(raw string) (domain.MeetingCommitment, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return domain.MeetingCommitment{}, parseError(raw, "empty reply", nil)
	}

	dec := json.NewDecoder(strings.NewReader(text))
	fields, err := decodeObject(dec)
	if err != nil {
		return domain.MeetingCommitment{}, parseError(raw, "not a JSON object", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return domain.MeetingCommitment{}, parseError(raw, "trailing data after object", err)
	}

	rawDate, ok := fields["date"]
	if !ok {
		return domain.MeetingCommitment{}, parseError(raw, "missing date", nil)
	}
	if bytes.Equal(bytes.TrimSpace(rawDate), []byte("null")) {
		if len(fields) != 1 {
			return domain.MeetingCommitment{}, parseError(raw, "unexpected keys next to null date", nil)
		}
		return domain.MeetingCommitment{}, nil
	}

	if len(fields) != 3 {
		return domain.MeetingCommitment{}, parseError(raw, "expected exactly date, time and location", nil)
	}

	var c domain.MeetingCommitment
	for key, target := range map[string]*string{"date": &c.Date, "time": &c.Time, "location": &c.Location} {
		value, ok := fields[key]
		if !ok {
			return domain.MeetingCommitment{}, parseError(raw, "missing "+key, nil)
		}
		if !bytes.HasPrefix(bytes.TrimSpace(value), []byte(`"`)) {
			return domain.MeetingCommitment{}, parseError(raw, key+" is not a string", nil)
		}
		if err := json.Unmarshal(value, target); err != nil {
			return domain.MeetingCommitment{}, parseError(raw, key+" is not a string", err)
		}
	}

	if err := validateCommitment(raw, c); err != nil {
		return domain.MeetingCommitment{}, err
	}
	return c, nil
}

// decodeObject reads one JSON object member by member, rejecting
// repeated keys.
func decodeObject(dec *json.Decoder) (map[string]json.RawMessage, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("unexpected %v", tok)
	}

	fields := make(map[string]json.RawMessage)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected %v", tok)
		}
		if _, dup := fields[key]; dup {
			return nil, fmt.Errorf("duplicate key %q", key)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}
		fields[key] = value
	}

	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return fields, nil
}

// ValidateCommitment checks that a commitment carries a real calendar date
// and time of day in the wire layouts
func ValidateCommitment(c domain.MeetingCommitment) error {
	return validateCommitment("", c)
}

func validateCommitment(raw string, c domain.MeetingCommitment) error {
	if !dateShape.MatchString(c.Date) {
		return parseError(raw, fmt.Sprintf("date %q is not YYYY-MM-DD", c.Date), nil)
	}
	if _, err := time.Parse(domain.DateLayout, c.Date); err != nil {
		return parseError(raw, "date out of range", err)
	}
	if !timeShape.MatchString(c.Time) {
		return parseError(raw, fmt.Sprintf("time %q is not HH:MM", c.Time), nil)
	}
	if _, err := time.Parse(domain.TimeLayout, c.Time); err != nil {
		return parseError(raw, "time out of range", err)
	}
	return nil
}
