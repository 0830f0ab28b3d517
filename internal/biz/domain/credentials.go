package domain

// Credentials are loaded once when the orchestrator starts
type Credentials struct {
	GenerationAPIKey string
	CalendarClientID string
}

// HasGenerationKey reports whether the generation service can be called
func (c Credentials) HasGenerationKey() bool {
	return c.GenerationAPIKey != ""
}

// HasCalendarClient reports whether a calendar token can be requested
func (c Credentials) HasCalendarClient() bool {
	return c.CalendarClientID != ""
}

// Masked returns a copy safe for display
func (c Credentials) Masked() Credentials {
	return Credentials{
		GenerationAPIKey: mask(c.GenerationAPIKey),
		CalendarClientID: mask(c.CalendarClientID),
	}
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 4 {
		return "****"
	}
	return "****" + s[len(s)-4:]
}
