package bot

import (
	"context"
	"errors"

	"github.com/abitohelp/abitbot/internal/deeplink"
	"github.com/abitohelp/abitbot/internal/events"
	"github.com/abitohelp/abitbot/internal/gateway"
	"github.com/abitohelp/abitbot/internal/media"
)

// Panels are the stable screens behind the menus. Each one prefers its
// registered media asset and falls back to plain text.

func (h *Handler) sendWelcome(ctx context.Context, recipientID int64) error {
	return h.sendPanel(ctx, recipientID, media.KeyWelcome, msgWelcome, mainMenu())
}

func (h *Handler) sendModerPanel(ctx context.Context, recipientID int64) error {
	return h.sendPanel(ctx, recipientID, media.KeyModerator, "Moderator panel", moderMenu())
}

func (h *Handler) sendPanel(ctx context.Context, recipientID int64, mediaKey, text string, rows []gateway.Row) error {
	fileRef, err := h.media.Get(ctx, mediaKey)
	if err != nil {
		return h.fail(ctx, recipientID, err)
	}
	if fileRef != "" {
		return h.sender.SendMedia(ctx, recipientID, fileRef, text, rows...)
	}
	return h.reply(ctx, recipientID, text, rows...)
}

// sendActiveEvents lists events the user can still register for, one message
// per event with its register button.
func (h *Handler) sendActiveEvents(ctx context.Context, recipientID int64) error {
	active, err := h.events.ListActive(ctx, recipientID, h.now())
	if err != nil {
		return h.fail(ctx, recipientID, err)
	}
	if len(active) == 0 {
		return h.reply(ctx, recipientID, msgNoActiveEvents, backRow())
	}

	for i := range active {
		event := &active[i]
		rows := []gateway.Row{registerRow(event.ID)}
		if i == len(active)-1 {
			rows = append(rows, backRow())
		}
		if event.ImageRef != "" {
			if err := h.sender.SendMedia(ctx, recipientID, event.ImageRef, renderEvent(event), rows...); err != nil {
				return err
			}
			continue
		}
		if err := h.reply(ctx, recipientID, renderEvent(event), rows...); err != nil {
			return err
		}
	}
	return nil
}

// sendProfile renders the user's own profile screen with the QR shortcuts.
func (h *Handler) sendProfile(ctx context.Context, recipientID, userID int64) error {
	user, err := h.identity.Get(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return h.reply(ctx, recipientID, msgProfileNotFound)
		}
		return h.fail(ctx, recipientID, err)
	}
	registered, err := h.events.RegistrationsFor(ctx, userID)
	if err != nil {
		return h.fail(ctx, recipientID, err)
	}

	rows := []gateway.Row{
		{{Text: "My QR card", Token: tokenMyQRCard}},
		{{Text: "Entry QR for an event", Token: tokenQRForCheckIn}},
		backRow(),
	}
	return h.reply(ctx, recipientID, renderProfile("My profile", user, registered), rows...)
}

// sendQRCard sends the user's shareable profile QR card.
func (h *Handler) sendQRCard(ctx context.Context, recipientID int64) error {
	link := deeplink.Link(h.botUsername, deeplink.ProfilePayload(recipientID))
	png, err := deeplink.QRPNG(link)
	if err != nil {
		return h.fail(ctx, recipientID, err)
	}
	caption := "Your personal QR card. Anyone who scans it opens your profile."
	return h.sender.SendPhoto(ctx, recipientID, png, caption, backRow())
}

// sendCheckInQRMenu asks which registered event to produce an entry QR for.
func (h *Handler) sendCheckInQRMenu(ctx context.Context, recipientID int64) error {
	registered, err := h.events.RegistrationsFor(ctx, recipientID)
	if err != nil {
		return h.fail(ctx, recipientID, err)
	}
	if len(registered) == 0 {
		return h.reply(ctx, recipientID, msgNoRegistrations, backRow())
	}

	rows := make([]gateway.Row, 0, len(registered)+1)
	for _, event := range registered {
		rows = append(rows, gateway.Row{{Text: event.Title, Token: checkInQRToken(event.ID)}})
	}
	rows = append(rows, backRow())
	return h.reply(ctx, recipientID, "Choose the event:", rows...)
}

// sendCheckInQR sends the entry QR that a moderator scans at the door. The
// payload binds this user to this event; only registrants get one.
func (h *Handler) sendCheckInQR(ctx context.Context, recipientID, eventID int64) error {
	registered, err := h.events.IsRegistered(ctx, recipientID, eventID)
	if err != nil {
		return h.fail(ctx, recipientID, err)
	}
	if !registered {
		return h.reply(ctx, recipientID, msgSelfNotRegistered, backRow())
	}
	event, err := h.events.Get(ctx, eventID)
	if errors.Is(err, events.ErrEventNotFound) {
		return h.reply(ctx, recipientID, msgEventNotFound)
	}
	if err != nil {
		return h.fail(ctx, recipientID, err)
	}

	link := deeplink.Link(h.botUsername, deeplink.CheckInPayload(eventID, recipientID))
	png, err := deeplink.QRPNG(link)
	if err != nil {
		return h.fail(ctx, recipientID, err)
	}
	return h.sender.SendPhoto(ctx, recipientID, png, "Entry QR for: "+event.Title+". Show it at the door.", backRow())
}

func (h *Handler) sendNotifSettings(ctx context.Context, recipientID int64) error {
	pref, err := h.identity.Preferences(ctx, recipientID)
	if err != nil {
		return h.fail(ctx, recipientID, err)
	}
	return h.reply(ctx, recipientID, "Notification settings. Tap a category to toggle it.", notifMenu(pref)...)
}

func (h *Handler) sendStats(ctx context.Context, recipientID int64) error {
	users, err := h.identity.Count(ctx)
	if err != nil {
		return h.fail(ctx, recipientID, err)
	}
	eventCount, err := h.events.CountEvents(ctx)
	if err != nil {
		return h.fail(ctx, recipientID, err)
	}
	registrations, err := h.events.CountRegistrations(ctx)
	if err != nil {
		return h.fail(ctx, recipientID, err)
	}
	return h.reply(ctx, recipientID, renderStats(users, eventCount, registrations), backToModerRow())
}
