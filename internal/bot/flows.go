package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/abitohelp/abitbot/internal/dialog"
	"github.com/abitohelp/abitbot/internal/events"
	"github.com/abitohelp/abitbot/internal/metrics"
	"github.com/abitohelp/abitbot/internal/models"
)

// Guided flow entry points. Each replaces whatever session the operator had
// before, so flows never interleave.

func (h *Handler) startEventCreation(ctx context.Context, operatorID int64) error {
	if err := h.sessions.Put(ctx, operatorID, dialog.NewEventCreation()); err != nil {
		return h.fail(ctx, operatorID, err)
	}
	return h.reply(ctx, operatorID, promptTitle)
}

func (h *Handler) startRoleAssignment(ctx context.Context, operatorID int64) error {
	session := &dialog.Session{Kind: dialog.KindRoleAssignment, State: dialog.StateAwaitingUserID}
	if err := h.sessions.Put(ctx, operatorID, session); err != nil {
		return h.fail(ctx, operatorID, err)
	}
	return h.reply(ctx, operatorID, promptTargetUser)
}

func (h *Handler) startBroadcast(ctx context.Context, operatorID int64) error {
	session := &dialog.Session{Kind: dialog.KindBroadcast, State: dialog.StateAwaitingBroadcast}
	if err := h.sessions.Put(ctx, operatorID, session); err != nil {
		return h.fail(ctx, operatorID, err)
	}
	return h.reply(ctx, operatorID, promptBroadcast)
}

func (h *Handler) startUserSearch(ctx context.Context, operatorID int64) error {
	session := &dialog.Session{Kind: dialog.KindUserSearch, State: dialog.StateAwaitingSearchQuery}
	if err := h.sessions.Put(ctx, operatorID, session); err != nil {
		return h.fail(ctx, operatorID, err)
	}
	return h.reply(ctx, operatorID, promptSearchQuery)
}

// advanceEventCreation feeds one answer into the creation flow. Invalid
// input re-prompts the same step; the final valid answer persists the event,
// clears the session and hands the announcement to the worker.
func (h *Handler) advanceEventCreation(ctx context.Context, operatorID int64, session *dialog.Session, input dialog.Input) error {
	rejected := session.State

	switch dialog.AdvanceEventCreation(session, input) {
	case dialog.OutcomeInvalid:
		return h.reply(ctx, operatorID, repromptFor(rejected))

	case dialog.OutcomeNext:
		if err := h.sessions.Put(ctx, operatorID, session); err != nil {
			return h.fail(ctx, operatorID, err)
		}
		return h.reply(ctx, operatorID, promptFor(session.State))

	case dialog.OutcomeCommitted:
		return h.commitEvent(ctx, operatorID, session.Draft)
	}
	return nil
}

func (h *Handler) commitEvent(ctx context.Context, operatorID int64, draft dialog.EventDraft) error {
	eventID, err := h.events.Create(ctx, events.Draft{
		Title:              draft.Title,
		Description:        draft.Description,
		StartsAt:           draft.StartsAt,
		Location:           draft.Location,
		RegistrationCloses: draft.RegistrationCloses,
		ImageRef:           draft.ImageRef,
		CreatedBy:          operatorID,
	})
	if err != nil {
		return h.fail(ctx, operatorID, err)
	}
	metrics.EventsCreated.Inc()

	if err := h.sessions.Clear(ctx, operatorID); err != nil {
		return h.fail(ctx, operatorID, err)
	}

	// The event exists even when enqueueing the announcement fails; the
	// operator is told so the announcement can be retried manually.
	if err := h.enqueueAnnounce(eventID); err != nil {
		h.logger.Warn("announcement enqueue failed", "event_id", eventID, "error", err.Error())
		return h.reply(ctx, operatorID, fmt.Sprintf("Event #%d created, but the announcement could not be scheduled.", eventID))
	}

	h.logger.Info("event created", "event_id", eventID, "created_by", operatorID)
	return h.reply(ctx, operatorID, fmt.Sprintf("Event #%d created. The announcement is on its way to subscribers.", eventID), backToModerRow())
}

// advanceRoleAssignment runs the two-step role flow: pick the user, then the
// role. The target must already be known to the bot.
func (h *Handler) advanceRoleAssignment(ctx context.Context, operatorID int64, session *dialog.Session, input dialog.Input) error {
	text := strings.TrimSpace(input.Text)

	switch session.State {
	case dialog.StateAwaitingUserID:
		targetID, err := strconv.ParseInt(text, 10, 64)
		if err != nil || targetID <= 0 {
			return h.reply(ctx, operatorID, promptBadUserID)
		}
		if _, err := h.identity.Get(ctx, targetID); err != nil {
			if isNotFound(err) {
				return h.reply(ctx, operatorID, promptTargetGone)
			}
			return h.fail(ctx, operatorID, err)
		}
		session.TargetUserID = targetID
		session.State = dialog.StateAwaitingRole
		if err := h.sessions.Put(ctx, operatorID, session); err != nil {
			return h.fail(ctx, operatorID, err)
		}
		return h.reply(ctx, operatorID, promptRole)

	case dialog.StateAwaitingRole:
		role := models.Role(strings.ToLower(text))
		if !models.ValidRole(role) {
			return h.reply(ctx, operatorID, promptBadRole)
		}
		if err := h.identity.SetRole(ctx, session.TargetUserID, role); err != nil {
			if isNotFound(err) {
				return h.reply(ctx, operatorID, promptTargetGone)
			}
			return h.fail(ctx, operatorID, err)
		}
		if err := h.sessions.Clear(ctx, operatorID); err != nil {
			return h.fail(ctx, operatorID, err)
		}
		h.logger.Info("role assigned", "target_id", session.TargetUserID, "role", role, "operator_id", operatorID)

		// Telling the target is a courtesy, not part of the operation.
		if err := h.sender.SendMessage(ctx, session.TargetUserID, "Your role is now: "+roleName(role)); err != nil {
			h.logger.Debug("role notice undeliverable", "target_id", session.TargetUserID, "error", err.Error())
		}
		return h.reply(ctx, operatorID,
			fmt.Sprintf("User %d is now %s.", session.TargetUserID, roleName(role)), backToModerRow())
	}

	return h.reply(ctx, operatorID, promptBadText)
}

// finishBroadcast delivers the operator's text to every known recipient and
// reports the outcome synchronously. A recipient with both notification
// categories disabled is left alone.
func (h *Handler) finishBroadcast(ctx context.Context, operatorID int64, input dialog.Input) error {
	text := strings.TrimSpace(input.Text)
	if text == "" {
		return h.reply(ctx, operatorID, promptBadText)
	}
	if err := h.sessions.Clear(ctx, operatorID); err != nil {
		return h.fail(ctx, operatorID, err)
	}

	recipients, err := h.broadcastRecipients(ctx)
	if err != nil {
		return h.fail(ctx, operatorID, err)
	}

	report := h.notifier.FanOut(ctx, recipients, func(ctx context.Context, recipientID int64) error {
		return h.sender.SendMessage(ctx, recipientID, text)
	})
	h.logger.Info("broadcast finished",
		"operator_id", operatorID,
		"attempted", report.Attempted,
		"succeeded", report.Succeeded,
	)
	return h.reply(ctx, operatorID, renderBroadcastReport(report.Attempted, report.Succeeded), backToModerRow())
}

// broadcastRecipients is the deduplicated union of both category audiences,
// in stable order.
func (h *Handler) broadcastRecipients(ctx context.Context) ([]int64, error) {
	eventsAudience, err := h.identity.Recipients(ctx, models.CategoryEvents)
	if err != nil {
		return nil, err
	}
	newsAudience, err := h.identity.Recipients(ctx, models.CategoryNews)
	if err != nil {
		return nil, err
	}

	seen := make(map[int64]struct{}, len(eventsAudience)+len(newsAudience))
	merged := make([]int64, 0, len(eventsAudience)+len(newsAudience))
	for _, id := range append(eventsAudience, newsAudience...) {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		merged = append(merged, id)
	}
	return merged, nil
}

const searchLimit = 10

func (h *Handler) finishUserSearch(ctx context.Context, operatorID int64, input dialog.Input) error {
	query := strings.TrimSpace(input.Text)
	if query == "" {
		return h.reply(ctx, operatorID, promptBadText)
	}
	if err := h.sessions.Clear(ctx, operatorID); err != nil {
		return h.fail(ctx, operatorID, err)
	}

	found, err := h.identity.Search(ctx, query, searchLimit)
	if err != nil {
		return h.fail(ctx, operatorID, err)
	}
	return h.reply(ctx, operatorID, renderSearchResults(found), backToModerRow())
}
