package domain

const (
	// DateLayout is the wire format of MeetingCommitment.Date
	DateLayout = "2006-01-02"
	// TimeLayout is the wire format of MeetingCommitment.Time
	TimeLayout = "15:04"
)

// MeetingCommitment is a meeting extracted from a conversation.
// An empty Date means no meeting was agreed; Time and Location are then ignored.
type MeetingCommitment struct {
	Date     string
	Time     string
	Location string
}

// HasDate reports whether a meeting was found
func (m MeetingCommitment) HasDate() bool {
	return m.Date != ""
}
