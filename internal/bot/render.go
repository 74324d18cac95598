package bot

import (
	"fmt"
	"strings"

	"github.com/abitohelp/abitbot/internal/dialog"
	"github.com/abitohelp/abitbot/internal/gateway"
	"github.com/abitohelp/abitbot/internal/models"
	"github.com/abitohelp/abitbot/internal/news"
)

// User-visible texts. Every rejection has its own distinguishable message.
const (
	msgWelcome = "Welcome to the applicant support bot!\n\n" +
		"Here you can:\n" +
		"• Get your personal QR card\n" +
		"• Register for events\n" +
		"• Manage notifications"
	msgAbout = "Applicant and student assistant bot.\n" +
		"Helps you find your way around the university and register for events."

	msgSelfQRVisit       = "You followed your own QR card!"
	msgUserNotFound      = "User not found."
	msgProfileNotFound   = "Profile not found. Send /start first."
	msgUnknownCommand    = "Unknown command. Send /start for the menu."
	msgUseMenu           = "Use the menu buttons, or send /start to open it."
	msgNoActiveDialog    = "Nothing to cancel: no operation in progress."
	msgDialogCancelled   = "Operation cancelled. You can start over."
	msgNoActiveEvents    = "No upcoming events right now."
	msgGenericFailure    = "Something went wrong, please try again later."
	msgUnauthorized      = "This action is available to moderators only."
	msgCheckInDenied     = "Only a moderator can confirm attendance."
	msgMalformedCheckIn  = "This check-in link is malformed."
	msgNotRegistered     = "This user is not registered for the event."
	msgSelfNotRegistered = "You are not registered for this event."
	msgEventNotFound     = "Event not found."
	msgAlreadyRegistered = "You are already registered!"
	msgRegistrationOver  = "Registration for this event has closed."
	msgRegistered        = "Registration confirmed! Your entry QR code is available in your profile."
	msgNoRegistrations   = "You are not registered for any events."

	promptTitle       = "Enter the event title:"
	promptDescription = "Enter the event description:"
	promptDateTime    = "Enter the event date and time as YYYY-MM-DD HH:MM, for example 2025-12-10 15:30"
	promptLocation    = "Enter the event location:"
	promptImage       = "Attach an event image, or send \"skip\":"
	promptDeadline    = "Enter the registration deadline as YYYY-MM-DD HH:MM, for example 2025-12-09 18:00"
	promptBadDateTime = "Invalid format. Please use YYYY-MM-DD HH:MM"
	promptBadText     = "This field cannot be empty. Try again:"

	promptTargetUser  = "Enter the user ID:"
	promptBadUserID   = "Invalid ID. Try again:"
	promptTargetGone  = "User not found. Make sure they sent /start to the bot. Try again:"
	promptRole        = "Enter the new role: applicant, student, curator or moderator"
	promptBadRole     = "Invalid role. Use: applicant, student, curator, moderator"
	promptBroadcast   = "Send the broadcast text:"
	promptSearchQuery = "Enter a user ID or part of a name:"
)

func roleName(role models.Role) string {
	switch role {
	case models.RoleApplicant:
		return "Applicant"
	case models.RoleStudent:
		return "Student"
	case models.RoleCurator:
		return "Curator"
	case models.RoleModerator:
		return "Moderator"
	}
	return string(role)
}

// promptFor maps a creation flow state to the text of its step.
func promptFor(state dialog.State) string {
	switch state {
	case dialog.StateAwaitingTitle:
		return promptTitle
	case dialog.StateAwaitingDescription:
		return promptDescription
	case dialog.StateAwaitingDateTime:
		return promptDateTime
	case dialog.StateAwaitingLocation:
		return promptLocation
	case dialog.StateAwaitingImage:
		return promptImage
	case dialog.StateAwaitingDeadline:
		return promptDeadline
	}
	return promptTitle
}

// repromptFor is the rejection text for an invalid input at a step.
func repromptFor(state dialog.State) string {
	switch state {
	case dialog.StateAwaitingDateTime, dialog.StateAwaitingDeadline:
		return promptBadDateTime
	}
	return promptBadText
}

func mainMenu() []gateway.Row {
	return []gateway.Row{
		{{Text: "About", Token: tokenAbout}},
		{{Text: "My profile", Token: tokenMyProfile}},
		{{Text: "My QR card", Token: tokenMyQRCard}},
		{{Text: "Upcoming events", Token: tokenActiveEvents}},
		{{Text: "Notification settings", Token: tokenNotifSettings}},
	}
}

func moderMenu() []gateway.Row {
	return []gateway.Row{
		{{Text: "Statistics", Token: tokenModStats}},
		{{Text: "Create event", Token: tokenModCreateEvent}},
		{{Text: "Assign role", Token: tokenModSetRole}},
		{{Text: "Broadcast", Token: tokenModBroadcast}},
		{{Text: "Find user", Token: tokenModSearchUser}},
	}
}

func backRow() gateway.Row {
	return gateway.Row{{Text: "Back", Token: tokenBackToMain}}
}

func backToModerRow() gateway.Row {
	return gateway.Row{{Text: "Back", Token: tokenBackToModer}}
}

func registerRow(eventID int64) gateway.Row {
	return gateway.Row{{Text: "Register", Token: registerToken(eventID)}}
}

func notifMenu(pref *models.NotificationPreference) []gateway.Row {
	onOff := func(enabled bool) string {
		if enabled {
			return "on"
		}
		return "off"
	}
	return []gateway.Row{
		{{Text: fmt.Sprintf("Events: %s", onOff(pref.EventsEnabled)), Token: tokenToggleEvents}},
		{{Text: fmt.Sprintf("News: %s", onOff(pref.NewsEnabled)), Token: tokenToggleNews}},
		backRow(),
	}
}

func renderEvent(event *models.Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n%s\n\n", event.Title, event.Description)
	fmt.Fprintf(&b, "When: %s\n", event.StartsAt.Format(dialog.DateTimeLayout))
	fmt.Fprintf(&b, "Where: %s\n", event.Location)
	fmt.Fprintf(&b, "Register until: %s", event.RegistrationCloses.Format(dialog.DateTimeLayout))
	return b.String()
}

func renderAnnouncement(event *models.Event) string {
	return "New event!\n\n" + renderEvent(event)
}

func renderProfile(header string, user *models.User, registered []models.Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (ID: %d)\n\nName: %s\nRole: %s", header, user.ID, user.Name, roleName(user.Role))
	if user.Status != "" {
		fmt.Fprintf(&b, "\nStatus: %s", user.Status)
	}
	if len(registered) == 0 {
		b.WriteString("\n\nNot registered for any events.")
		return b.String()
	}
	b.WriteString("\n\nRegistered for:")
	for _, event := range registered {
		fmt.Fprintf(&b, "\n• %s (%s)", event.Title, event.StartsAt.Format(dialog.DateTimeLayout))
	}
	return b.String()
}

func renderSearchResults(users []models.User) string {
	if len(users) == 0 {
		return "No users found."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d users:\n", len(users))
	for _, user := range users {
		handle := ""
		if user.Handle != "" {
			handle = " (@" + user.Handle + ")"
		}
		fmt.Fprintf(&b, "\n• %s%s | ID: %d | %s", user.Name, handle, user.ID, roleName(user.Role))
	}
	return b.String()
}

func renderStats(users, events, registrations int64) string {
	return fmt.Sprintf("Statistics\n\nUsers: %d\nEvents: %d\nRegistrations: %d", users, events, registrations)
}

func renderNewsItem(item news.Item) string {
	var b strings.Builder
	fmt.Fprintf(&b, "News: %s", item.Title)
	if item.Summary != "" {
		fmt.Fprintf(&b, "\n\n%s", item.Summary)
	}
	if item.Link != "" {
		fmt.Fprintf(&b, "\n\n%s", item.Link)
	}
	return b.String()
}

func renderCheckInSuccess(attendee *models.User, event *models.Event) string {
	return fmt.Sprintf("Attendance confirmed!\n\n%s\n%s", attendee.Name, event.Title)
}

func renderBroadcastReport(attempted, succeeded int) string {
	return fmt.Sprintf("Broadcast delivered to %d of %d users.", succeeded, attempted)
}
