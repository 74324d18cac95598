package bot

import (
	"context"
	"errors"

	"github.com/abitohelp/abitbot/internal/events"
	"github.com/abitohelp/abitbot/internal/gateway"
	"github.com/abitohelp/abitbot/internal/metrics"
	"github.com/abitohelp/abitbot/internal/models"
)

func (h *Handler) handleButton(ctx context.Context, update gateway.Update) error {
	senderID := update.SenderID

	switch update.Token {
	case tokenNoop:
		return nil
	case tokenAbout:
		return h.reply(ctx, senderID, msgAbout, backRow())
	case tokenBackToMain:
		return h.sendWelcome(ctx, senderID)
	case tokenBackToModer:
		return h.requireAdmin(ctx, senderID, h.sendModerPanel)
	case tokenMyProfile:
		return h.sendProfile(ctx, senderID, senderID)
	case tokenMyQRCard:
		return h.sendQRCard(ctx, senderID)
	case tokenActiveEvents:
		return h.sendActiveEvents(ctx, senderID)
	case tokenNotifSettings:
		return h.sendNotifSettings(ctx, senderID)
	case tokenToggleEvents:
		return h.togglePreference(ctx, senderID, models.CategoryEvents)
	case tokenToggleNews:
		return h.togglePreference(ctx, senderID, models.CategoryNews)
	case tokenQRForCheckIn:
		return h.sendCheckInQRMenu(ctx, senderID)
	case tokenModStats:
		return h.requireAdmin(ctx, senderID, h.sendStats)
	case tokenModCreateEvent:
		return h.requireAdmin(ctx, senderID, h.startEventCreation)
	case tokenModSetRole:
		return h.requireAdmin(ctx, senderID, h.startRoleAssignment)
	case tokenModBroadcast:
		return h.requireAdmin(ctx, senderID, h.startBroadcast)
	case tokenModSearchUser:
		return h.requireAdmin(ctx, senderID, h.startUserSearch)
	}

	if eventID, ok := parseSuffixID(update.Token, registerPrefix); ok {
		return h.handleRegister(ctx, senderID, eventID)
	}
	if eventID, ok := parseSuffixID(update.Token, checkInQRPrefix); ok {
		return h.sendCheckInQR(ctx, senderID, eventID)
	}

	// Stale buttons from old messages are dropped quietly.
	h.logger.Debug("unknown button token", "token", update.Token, "sender_id", senderID)
	return h.reply(ctx, senderID, msgUseMenu)
}

// handleRegister registers the sender for an event. The deadline is checked
// here; the repository's composite key settles simultaneous duplicates.
func (h *Handler) handleRegister(ctx context.Context, senderID, eventID int64) error {
	event, err := h.events.Get(ctx, eventID)
	if errors.Is(err, events.ErrEventNotFound) {
		return h.reply(ctx, senderID, msgEventNotFound)
	}
	if err != nil {
		return h.fail(ctx, senderID, err)
	}
	if !event.RegistrationOpen(h.now()) {
		return h.reply(ctx, senderID, msgRegistrationOver)
	}

	_, err = h.events.Register(ctx, senderID, eventID)
	if errors.Is(err, events.ErrAlreadyRegistered) {
		return h.reply(ctx, senderID, msgAlreadyRegistered)
	}
	if errors.Is(err, events.ErrEventNotFound) {
		return h.reply(ctx, senderID, msgEventNotFound)
	}
	if err != nil {
		return h.fail(ctx, senderID, err)
	}

	metrics.Registrations.Inc()
	h.logger.Info("registration created", "user_id", senderID, "event_id", eventID)
	return h.reply(ctx, senderID, msgRegistered)
}

func (h *Handler) togglePreference(ctx context.Context, senderID int64, category string) error {
	if _, err := h.identity.TogglePreference(ctx, senderID, category); err != nil {
		return h.fail(ctx, senderID, err)
	}
	return h.sendNotifSettings(ctx, senderID)
}
