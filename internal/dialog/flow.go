package dialog

import (
	"regexp"
	"strings"
	"time"
)

// DateTimeLayout is the literal input format for event dates and
// registration deadlines.
const DateTimeLayout = "2006-01-02 15:04"

var dateTimePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}$`)

// SkipInput advances the optional image step without storing an image.
const SkipInput = "skip"

// Input is one free-form answer from the operator: text and, for the image
// step, an optional attachment reference.
type Input struct {
	Text     string
	ImageRef string
}

// Outcome classifies the effect of feeding one input to a flow.
type Outcome int

const (
	// OutcomeNext: the input was accepted and the session advanced.
	OutcomeNext Outcome = iota
	// OutcomeInvalid: the input was rejected; the state did not change and
	// the same step must be prompted again.
	OutcomeInvalid
	// OutcomeCommitted: the flow reached its terminal step; the session's
	// draft is complete and the session must be cleared by the caller.
	OutcomeCommitted
)

// NewEventCreation returns a fresh event creation session at its first step.
func NewEventCreation() *Session {
	return &Session{Kind: KindEventCreation, State: StateAwaitingTitle}
}

// ParseDateTime validates the literal YYYY-MM-DD HH:MM pattern and parses it
// as UTC. The pattern check runs first so that inputs like "tomorrow at 3"
// fail the same way regardless of locale parsing quirks.
func ParseDateTime(input string) (time.Time, bool) {
	if !dateTimePattern.MatchString(input) {
		return time.Time{}, false
	}
	parsed, err := time.ParseInLocation(DateTimeLayout, input, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return parsed, true
}

// AdvanceEventCreation feeds one input to the creation flow. On OutcomeNext
// the session has moved to its next state; on OutcomeInvalid it is
// unchanged; on OutcomeCommitted the draft holds every collected field.
func AdvanceEventCreation(session *Session, input Input) Outcome {
	text := strings.TrimSpace(input.Text)

	switch session.State {
	case StateAwaitingTitle:
		if text == "" {
			return OutcomeInvalid
		}
		session.Draft.Title = text
		session.State = StateAwaitingDescription
		return OutcomeNext

	case StateAwaitingDescription:
		if text == "" {
			return OutcomeInvalid
		}
		session.Draft.Description = text
		session.State = StateAwaitingDateTime
		return OutcomeNext

	case StateAwaitingDateTime:
		parsed, ok := ParseDateTime(text)
		if !ok {
			return OutcomeInvalid
		}
		session.Draft.StartsAt = parsed
		session.State = StateAwaitingLocation
		return OutcomeNext

	case StateAwaitingLocation:
		if text == "" {
			return OutcomeInvalid
		}
		session.Draft.Location = text
		session.State = StateAwaitingImage
		return OutcomeNext

	case StateAwaitingImage:
		// Optional step: an attachment stores its reference, anything else
		// (explicit skip or plain text without an attachment) moves on.
		if input.ImageRef != "" {
			session.Draft.ImageRef = input.ImageRef
		}
		session.State = StateAwaitingDeadline
		return OutcomeNext

	case StateAwaitingDeadline:
		parsed, ok := ParseDateTime(text)
		if !ok {
			return OutcomeInvalid
		}
		session.Draft.RegistrationCloses = parsed
		return OutcomeCommitted
	}

	return OutcomeInvalid
}
