// Package deeplink encodes and decodes the payloads carried by shareable
// start links. The wire formats are fixed for interop with links already in
// circulation: a bare decimal user ID for profile views, and
// "checkin_<eventId>_<attendeeId>" for attendance check-in.
package deeplink

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrInvalidPayload = errors.New("malformed deep link payload")

const checkInPrefix = "checkin_"

// Request is the closed set of link payload variants. Exactly one of the
// concrete types below is returned by Parse.
type Request interface {
	isRequest()
}

// ProfileView asks to show the profile of UserID.
type ProfileView struct {
	UserID int64
}

// CheckIn asks to mark AttendeeID as attended on EventID.
type CheckIn struct {
	EventID    int64
	AttendeeID int64
}

// Unrecognized carries a payload that matched no known format.
type Unrecognized struct {
	Payload string
}

func (ProfileView) isRequest()  {}
func (CheckIn) isRequest()      {}
func (Unrecognized) isRequest() {}

// Parse decodes a link payload into one of the request variants. A payload
// that starts with the check-in tag but does not decode cleanly is an error,
// not an Unrecognized: it was meant to be a check-in and must be rejected
// without mutation.
func Parse(payload string) (Request, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return Unrecognized{Payload: payload}, nil
	}

	if strings.HasPrefix(payload, checkInPrefix) {
		parts := strings.Split(payload, "_")
		if len(parts) != 3 {
			return nil, ErrInvalidPayload
		}
		eventID, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return nil, ErrInvalidPayload
		}
		attendeeID, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil {
			return nil, ErrInvalidPayload
		}
		return CheckIn{EventID: eventID, AttendeeID: attendeeID}, nil
	}

	if userID, err := strconv.ParseInt(payload, 10, 64); err == nil && userID > 0 {
		return ProfileView{UserID: userID}, nil
	}

	return Unrecognized{Payload: payload}, nil
}

// ProfilePayload formats the profile link payload for a user.
func ProfilePayload(userID int64) string {
	return strconv.FormatInt(userID, 10)
}

// CheckInPayload formats the check-in link payload for an (event, attendee)
// pair.
func CheckInPayload(eventID, attendeeID int64) string {
	return fmt.Sprintf("checkin_%d_%d", eventID, attendeeID)
}

// Link builds the full shareable URL that re-enters the bot with the payload.
func Link(botUsername, payload string) string {
	return fmt.Sprintf("https://t.me/%s?start=%s", botUsername, payload)
}
