// Package bot is the conversational dispatcher: it maps inbound gateway
// updates to identity, event, dialogue and notification operations and
// renders the replies. All authorization checks live here.
package bot

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/abitohelp/abitbot/internal/deeplink"
	"github.com/abitohelp/abitbot/internal/dialog"
	"github.com/abitohelp/abitbot/internal/events"
	"github.com/abitohelp/abitbot/internal/gateway"
	"github.com/abitohelp/abitbot/internal/identity"
	"github.com/abitohelp/abitbot/internal/media"
	"github.com/abitohelp/abitbot/internal/metrics"
	"github.com/abitohelp/abitbot/internal/models"
	"github.com/abitohelp/abitbot/internal/news"
	"github.com/abitohelp/abitbot/internal/notify"
)

// Deps collects the handler's collaborators. EnqueueAnnounce defers the
// announcement fan-out to the background worker so the webhook reply stays
// fast; it is a plain function to keep the worker package out of here.
type Deps struct {
	Identity IdentityStore
	Events   EventStore
	Media    MediaStore
	Sessions dialog.Store
	Sender   Sender
	Notifier *notify.Notifier

	EnqueueAnnounce func(eventID int64) error
	BotUsername     string
	Logger          *slog.Logger

	// Now overrides the clock in tests. Nil means time.Now.
	Now func() time.Time
}

type Handler struct {
	identity IdentityStore
	events   EventStore
	media    MediaStore
	sessions dialog.Store
	sender   Sender
	notifier *notify.Notifier

	enqueueAnnounce func(eventID int64) error
	botUsername     string
	logger          *slog.Logger
	now             func() time.Time
}

func New(deps Deps) *Handler {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Handler{
		identity:        deps.Identity,
		events:          deps.Events,
		media:           deps.Media,
		sessions:        deps.Sessions,
		sender:          deps.Sender,
		notifier:        deps.Notifier,
		enqueueAnnounce: deps.EnqueueAnnounce,
		botUsername:     deps.BotUsername,
		logger:          deps.Logger,
		now:             now,
	}
}

// HandleUpdate processes one inbound update. Business rejections (bad input,
// closed registration, missing permissions) are answered with a user-facing
// message and a nil error; only infrastructure failures propagate.
func (h *Handler) HandleUpdate(ctx context.Context, update gateway.Update) error {
	// Every contact refreshes the sender's identity record.
	if err := h.identity.Upsert(ctx, update.SenderID, update.SenderName, update.SenderHandle); err != nil {
		return h.fail(ctx, update.SenderID, err)
	}

	switch update.Kind {
	case gateway.UpdateCommand:
		return h.handleCommand(ctx, update)
	case gateway.UpdateFreeText:
		return h.handleFreeText(ctx, update)
	case gateway.UpdateButtonPress:
		return h.handleButton(ctx, update)
	}

	h.logger.Warn("dropping update of unknown kind", "kind", update.Kind, "sender_id", update.SenderID)
	return nil
}

func (h *Handler) handleCommand(ctx context.Context, update gateway.Update) error {
	switch update.Command {
	case "start":
		return h.handleStart(ctx, update)
	case "events":
		return h.sendActiveEvents(ctx, update.SenderID)
	case "cancel":
		return h.handleCancel(ctx, update.SenderID)
	case "moder":
		return h.requireAdmin(ctx, update.SenderID, h.sendModerPanel)
	case "add_event":
		return h.requireAdmin(ctx, update.SenderID, h.startEventCreation)
	case "set_role":
		return h.requireAdmin(ctx, update.SenderID, h.startRoleAssignment)
	case "broadcast":
		return h.requireAdmin(ctx, update.SenderID, h.startBroadcast)
	case "search_user":
		return h.requireAdmin(ctx, update.SenderID, h.startUserSearch)
	case "set_media":
		return h.handleSetMedia(ctx, update)
	}
	return h.reply(ctx, update.SenderID, msgUnknownCommand)
}

// handleStart routes the start command by its deep-link payload: no payload
// shows the welcome panel, a bare user ID shows that profile, and a check-in
// payload confirms attendance for moderators.
func (h *Handler) handleStart(ctx context.Context, update gateway.Update) error {
	// Starting over always abandons an unfinished dialogue.
	if err := h.sessions.Clear(ctx, update.SenderID); err != nil {
		return h.fail(ctx, update.SenderID, err)
	}

	if update.Argument == "" {
		return h.sendWelcome(ctx, update.SenderID)
	}

	request, err := deeplink.Parse(update.Argument)
	if errors.Is(err, deeplink.ErrInvalidPayload) {
		return h.reply(ctx, update.SenderID, msgMalformedCheckIn)
	}
	if err != nil {
		return h.fail(ctx, update.SenderID, err)
	}

	switch req := request.(type) {
	case deeplink.ProfileView:
		return h.handleProfileVisit(ctx, update.SenderID, req.UserID)
	case deeplink.CheckIn:
		return h.handleCheckIn(ctx, update.SenderID, req)
	case deeplink.Unrecognized:
		// Stale or foreign payload: fall back to a plain start.
		h.logger.Debug("unrecognized start payload", "payload", req.Payload, "sender_id", update.SenderID)
		return h.sendWelcome(ctx, update.SenderID)
	}
	return h.sendWelcome(ctx, update.SenderID)
}

// handleCheckIn marks the attendee from a scanned QR card as attended. Only
// admins may confirm; a denied or failed check-in never mutates anything.
func (h *Handler) handleCheckIn(ctx context.Context, operatorID int64, req deeplink.CheckIn) error {
	admin, err := h.identity.HasAdminAccess(ctx, operatorID)
	if err != nil {
		return h.fail(ctx, operatorID, err)
	}
	if !admin {
		h.logger.Warn("check-in denied", "operator_id", operatorID, "event_id", req.EventID)
		return h.reply(ctx, operatorID, msgCheckInDenied)
	}

	event, err := h.events.Get(ctx, req.EventID)
	if errors.Is(err, events.ErrEventNotFound) {
		return h.reply(ctx, operatorID, msgEventNotFound)
	}
	if err != nil {
		return h.fail(ctx, operatorID, err)
	}

	attendee, err := h.identity.Get(ctx, req.AttendeeID)
	if err != nil {
		if isNotFound(err) {
			return h.reply(ctx, operatorID, msgUserNotFound)
		}
		return h.fail(ctx, operatorID, err)
	}

	err = h.events.MarkAttended(ctx, req.AttendeeID, req.EventID)
	if errors.Is(err, events.ErrNotRegistered) {
		return h.reply(ctx, operatorID, msgNotRegistered)
	}
	if err != nil {
		return h.fail(ctx, operatorID, err)
	}

	metrics.CheckIns.Inc()
	h.logger.Info("attendance confirmed",
		"operator_id", operatorID,
		"attendee_id", req.AttendeeID,
		"event_id", req.EventID,
	)
	return h.reply(ctx, operatorID, renderCheckInSuccess(attendee, event))
}

// handleProfileVisit shows the profile behind a scanned QR card.
func (h *Handler) handleProfileVisit(ctx context.Context, viewerID, targetID int64) error {
	if viewerID == targetID {
		if err := h.reply(ctx, viewerID, msgSelfQRVisit); err != nil {
			return err
		}
		return h.sendProfile(ctx, viewerID, viewerID)
	}

	target, err := h.identity.Get(ctx, targetID)
	if err != nil {
		if isNotFound(err) {
			return h.reply(ctx, viewerID, msgUserNotFound)
		}
		return h.fail(ctx, viewerID, err)
	}

	registered, err := h.events.RegistrationsFor(ctx, target.ID)
	if err != nil {
		return h.fail(ctx, viewerID, err)
	}
	return h.reply(ctx, viewerID, renderProfile("Profile", target, registered))
}

func (h *Handler) handleCancel(ctx context.Context, senderID int64) error {
	session, err := h.sessions.Get(ctx, senderID)
	if err != nil {
		return h.fail(ctx, senderID, err)
	}
	if session == nil {
		return h.reply(ctx, senderID, msgNoActiveDialog)
	}
	if err := h.sessions.Clear(ctx, senderID); err != nil {
		return h.fail(ctx, senderID, err)
	}
	return h.reply(ctx, senderID, msgDialogCancelled)
}

// handleSetMedia registers the attached file reference under a well-known
// panel key, e.g. "/set_media welcome" sent together with an animation.
func (h *Handler) handleSetMedia(ctx context.Context, update gateway.Update) error {
	admin, err := h.identity.HasAdminAccess(ctx, update.SenderID)
	if err != nil {
		return h.fail(ctx, update.SenderID, err)
	}
	if !admin {
		return h.reply(ctx, update.SenderID, msgUnauthorized)
	}

	key := update.Argument
	switch key {
	case media.KeyWelcome, media.KeyModerator, media.KeyProfile, media.KeyNotifications:
	default:
		return h.reply(ctx, update.SenderID, "Unknown media key. Use: welcome, moder, profile, notifications")
	}
	if update.ImageRef == "" {
		return h.reply(ctx, update.SenderID, "Attach the media file to the command message.")
	}

	if err := h.media.Set(ctx, key, update.ImageRef, "panel media for "+key); err != nil {
		return h.fail(ctx, update.SenderID, err)
	}
	return h.reply(ctx, update.SenderID, "Media for \""+key+"\" updated.")
}

func (h *Handler) handleFreeText(ctx context.Context, update gateway.Update) error {
	session, err := h.sessions.Get(ctx, update.SenderID)
	if err != nil {
		return h.fail(ctx, update.SenderID, err)
	}
	if session == nil {
		return h.reply(ctx, update.SenderID, msgUseMenu)
	}

	input := dialog.Input{Text: update.Text, ImageRef: update.ImageRef}
	switch session.Kind {
	case dialog.KindEventCreation:
		return h.advanceEventCreation(ctx, update.SenderID, session, input)
	case dialog.KindRoleAssignment:
		return h.advanceRoleAssignment(ctx, update.SenderID, session, input)
	case dialog.KindBroadcast:
		return h.finishBroadcast(ctx, update.SenderID, input)
	case dialog.KindUserSearch:
		return h.finishUserSearch(ctx, update.SenderID, input)
	}

	// A session of a kind this build no longer knows is dropped.
	if err := h.sessions.Clear(ctx, update.SenderID); err != nil {
		return h.fail(ctx, update.SenderID, err)
	}
	return h.reply(ctx, update.SenderID, msgUseMenu)
}

// requireAdmin runs next only for admins; everyone else gets a rejection
// message and no side effects.
func (h *Handler) requireAdmin(ctx context.Context, senderID int64, next func(ctx context.Context, senderID int64) error) error {
	admin, err := h.identity.HasAdminAccess(ctx, senderID)
	if err != nil {
		return h.fail(ctx, senderID, err)
	}
	if !admin {
		h.logger.Warn("privileged action denied", "sender_id", senderID)
		return h.reply(ctx, senderID, msgUnauthorized)
	}
	return next(ctx, senderID)
}

// DeliverEvent sends one event announcement to one recipient. The worker
// drives the fan-out; this is the per-recipient leg.
func (h *Handler) DeliverEvent(ctx context.Context, recipientID int64, event *models.Event) error {
	text := renderAnnouncement(event)
	rows := []gateway.Row{registerRow(event.ID)}
	if event.ImageRef != "" {
		return h.sender.SendMedia(ctx, recipientID, event.ImageRef, text, rows...)
	}
	return h.sender.SendMessage(ctx, recipientID, text, rows...)
}

// DeliverNews sends one news digest message to one recipient.
func (h *Handler) DeliverNews(ctx context.Context, recipientID int64, item news.Item) error {
	return h.sender.SendMessage(ctx, recipientID, renderNewsItem(item))
}

// reply sends a plain answer to the sender. Send failures propagate so the
// webhook surfaces them.
func (h *Handler) reply(ctx context.Context, recipientID int64, text string, rows ...gateway.Row) error {
	return h.sender.SendMessage(ctx, recipientID, text, rows...)
}

// fail reports an infrastructure error: best-effort generic message to the
// user, original error to the caller for logging.
func (h *Handler) fail(ctx context.Context, recipientID int64, err error) error {
	if sendErr := h.sender.SendMessage(ctx, recipientID, msgGenericFailure); sendErr != nil {
		h.logger.Debug("failure notice undeliverable", "recipient_id", recipientID, "error", sendErr.Error())
	}
	return err
}

func isNotFound(err error) bool {
	return errors.Is(err, identity.ErrUserNotFound)
}
