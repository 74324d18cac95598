package bot

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/abitohelp/abitbot/internal/dialog"
	"github.com/abitohelp/abitbot/internal/events"
	"github.com/abitohelp/abitbot/internal/gateway"
	"github.com/abitohelp/abitbot/internal/identity"
	"github.com/abitohelp/abitbot/internal/models"
	"github.com/abitohelp/abitbot/internal/notify"
)

var testNow = time.Date(2025, 12, 1, 12, 0, 0, 0, time.UTC)

type fakeIdentity struct {
	users map[int64]*models.User
	prefs map[int64]*models.NotificationPreference
}

func newFakeIdentity() *fakeIdentity {
	return &fakeIdentity{
		users: make(map[int64]*models.User),
		prefs: make(map[int64]*models.NotificationPreference),
	}
}

func (f *fakeIdentity) add(id int64, name string, role models.Role) {
	f.users[id] = &models.User{ID: id, Name: name, Role: role}
	f.prefs[id] = &models.NotificationPreference{UserID: id, EventsEnabled: true, NewsEnabled: true}
}

func (f *fakeIdentity) Upsert(_ context.Context, id int64, name, handle string) error {
	if user, ok := f.users[id]; ok {
		user.Name = name
		user.Handle = handle
		return nil
	}
	f.users[id] = &models.User{ID: id, Name: name, Handle: handle, Role: models.RoleApplicant}
	f.prefs[id] = &models.NotificationPreference{UserID: id, EventsEnabled: true, NewsEnabled: true}
	return nil
}

func (f *fakeIdentity) Get(_ context.Context, id int64) (*models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, identity.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (f *fakeIdentity) SetRole(_ context.Context, id int64, role models.Role) error {
	user, ok := f.users[id]
	if !ok {
		return identity.ErrUserNotFound
	}
	user.Role = role
	return nil
}

func (f *fakeIdentity) HasAdminAccess(_ context.Context, id int64) (bool, error) {
	user, ok := f.users[id]
	if !ok {
		return false, nil
	}
	return user.Role.Admin(), nil
}

func (f *fakeIdentity) Preferences(_ context.Context, id int64) (*models.NotificationPreference, error) {
	if pref, ok := f.prefs[id]; ok {
		copied := *pref
		return &copied, nil
	}
	return &models.NotificationPreference{UserID: id, EventsEnabled: true, NewsEnabled: true}, nil
}

func (f *fakeIdentity) TogglePreference(_ context.Context, id int64, category string) (bool, error) {
	pref := f.prefs[id]
	if category == models.CategoryNews {
		pref.NewsEnabled = !pref.NewsEnabled
		return pref.NewsEnabled, nil
	}
	pref.EventsEnabled = !pref.EventsEnabled
	return pref.EventsEnabled, nil
}

func (f *fakeIdentity) Recipients(_ context.Context, category string) ([]int64, error) {
	var out []int64
	for id, pref := range f.prefs {
		if (category == models.CategoryEvents && pref.EventsEnabled) ||
			(category == models.CategoryNews && pref.NewsEnabled) {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (f *fakeIdentity) Search(_ context.Context, query string, limit int) ([]models.User, error) {
	var out []models.User
	for _, user := range f.users {
		if strings.Contains(strings.ToLower(user.Name), strings.ToLower(query)) {
			out = append(out, *user)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeIdentity) Count(_ context.Context) (int64, error) {
	return int64(len(f.users)), nil
}

type regKey struct{ userID, eventID int64 }

type fakeEvents struct {
	nextID int64
	items  map[int64]*models.Event
	regs   map[regKey]*models.Registration
}

func newFakeEvents() *fakeEvents {
	return &fakeEvents{items: make(map[int64]*models.Event), regs: make(map[regKey]*models.Registration)}
}

func (f *fakeEvents) add(title string, closes time.Time) int64 {
	f.nextID++
	f.items[f.nextID] = &models.Event{
		ID: f.nextID, Title: title, StartsAt: closes.Add(24 * time.Hour), RegistrationCloses: closes,
	}
	return f.nextID
}

func (f *fakeEvents) Create(_ context.Context, draft events.Draft) (int64, error) {
	f.nextID++
	f.items[f.nextID] = &models.Event{
		ID:                 f.nextID,
		Title:              draft.Title,
		Description:        draft.Description,
		StartsAt:           draft.StartsAt,
		Location:           draft.Location,
		RegistrationCloses: draft.RegistrationCloses,
		ImageRef:           draft.ImageRef,
		CreatedBy:          draft.CreatedBy,
	}
	return f.nextID, nil
}

func (f *fakeEvents) Get(_ context.Context, eventID int64) (*models.Event, error) {
	event, ok := f.items[eventID]
	if !ok {
		return nil, events.ErrEventNotFound
	}
	copied := *event
	return &copied, nil
}

func (f *fakeEvents) ListActive(_ context.Context, excludingRegistrantsOf int64, now time.Time) ([]models.Event, error) {
	var out []models.Event
	for _, event := range f.items {
		if event.RegistrationCloses.Before(now) {
			continue
		}
		if _, ok := f.regs[regKey{excludingRegistrantsOf, event.ID}]; ok {
			continue
		}
		out = append(out, *event)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RegistrationCloses.Before(out[j].RegistrationCloses) })
	return out, nil
}

func (f *fakeEvents) Register(_ context.Context, userID, eventID int64) (*models.Registration, error) {
	if _, ok := f.items[eventID]; !ok {
		return nil, events.ErrEventNotFound
	}
	key := regKey{userID, eventID}
	if _, ok := f.regs[key]; ok {
		return nil, events.ErrAlreadyRegistered
	}
	reg := &models.Registration{UserID: userID, EventID: eventID, Status: "confirmed"}
	f.regs[key] = reg
	return reg, nil
}

func (f *fakeEvents) MarkAttended(_ context.Context, attendeeID, eventID int64) error {
	reg, ok := f.regs[regKey{attendeeID, eventID}]
	if !ok {
		return events.ErrNotRegistered
	}
	reg.Attended = true
	return nil
}

func (f *fakeEvents) IsRegistered(_ context.Context, userID, eventID int64) (bool, error) {
	_, ok := f.regs[regKey{userID, eventID}]
	return ok, nil
}

func (f *fakeEvents) RegistrationsFor(_ context.Context, userID int64) ([]models.Event, error) {
	var out []models.Event
	for key := range f.regs {
		if key.userID == userID {
			out = append(out, *f.items[key.eventID])
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeEvents) CountEvents(_ context.Context) (int64, error) { return int64(len(f.items)), nil }
func (f *fakeEvents) CountRegistrations(_ context.Context) (int64, error) {
	return int64(len(f.regs)), nil
}

type fakeMedia struct{ refs map[string]string }

func newFakeMedia() *fakeMedia { return &fakeMedia{refs: make(map[string]string)} }

func (f *fakeMedia) Set(_ context.Context, key, fileRef, _ string) error {
	f.refs[key] = fileRef
	return nil
}

func (f *fakeMedia) Get(_ context.Context, key string) (string, error) {
	return f.refs[key], nil
}

type sentMessage struct {
	recipientID int64
	text        string
	rows        []gateway.Row
	photo       []byte
	fileRef     string
}

type recorderSender struct {
	sent    []sentMessage
	failFor map[int64]bool
}

func (r *recorderSender) record(msg sentMessage) error {
	if r.failFor[msg.recipientID] {
		return fmt.Errorf("recipient %d unreachable", msg.recipientID)
	}
	r.sent = append(r.sent, msg)
	return nil
}

func (r *recorderSender) SendMessage(_ context.Context, recipientID int64, text string, rows ...gateway.Row) error {
	return r.record(sentMessage{recipientID: recipientID, text: text, rows: rows})
}

func (r *recorderSender) SendPhoto(_ context.Context, recipientID int64, photo []byte, caption string, rows ...gateway.Row) error {
	return r.record(sentMessage{recipientID: recipientID, text: caption, rows: rows, photo: photo})
}

func (r *recorderSender) SendMedia(_ context.Context, recipientID int64, fileRef, caption string, rows ...gateway.Row) error {
	return r.record(sentMessage{recipientID: recipientID, text: caption, rows: rows, fileRef: fileRef})
}

func (r *recorderSender) lastTo(t *testing.T, recipientID int64) sentMessage {
	t.Helper()
	for i := len(r.sent) - 1; i >= 0; i-- {
		if r.sent[i].recipientID == recipientID {
			return r.sent[i]
		}
	}
	t.Fatalf("nothing sent to %d", recipientID)
	return sentMessage{}
}

type testEnv struct {
	handler  *Handler
	identity *fakeIdentity
	events   *fakeEvents
	media    *fakeMedia
	sender   *recorderSender
	sessions *dialog.MemoryStore
	enqueued []int64
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		identity: newFakeIdentity(),
		events:   newFakeEvents(),
		media:    newFakeMedia(),
		sender:   &recorderSender{failFor: make(map[int64]bool)},
		sessions: dialog.NewMemoryStore(),
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	env.handler = New(Deps{
		Identity: env.identity,
		Events:   env.events,
		Media:    env.media,
		Sessions: env.sessions,
		Sender:   env.sender,
		Notifier: notify.New(logger, 0),
		EnqueueAnnounce: func(eventID int64) error {
			env.enqueued = append(env.enqueued, eventID)
			return nil
		},
		BotUsername: "abitbot",
		Logger:      logger,
		Now:         func() time.Time { return testNow },
	})
	return env
}

func command(senderID int64, cmd, arg string) gateway.Update {
	return gateway.Update{Kind: gateway.UpdateCommand, SenderID: senderID, SenderName: "Sender", Command: cmd, Argument: arg}
}

func freeText(senderID int64, text string) gateway.Update {
	return gateway.Update{Kind: gateway.UpdateFreeText, SenderID: senderID, SenderName: "Sender", Text: text}
}

func buttonPress(senderID int64, token string) gateway.Update {
	return gateway.Update{Kind: gateway.UpdateButtonPress, SenderID: senderID, SenderName: "Sender", Token: token}
}

func mustHandle(t *testing.T, env *testEnv, update gateway.Update) {
	t.Helper()
	if err := env.handler.HandleUpdate(context.Background(), update); err != nil {
		t.Fatalf("HandleUpdate(%+v): %v", update, err)
	}
}

func TestStartCreatesUserAndShowsWelcome(t *testing.T) {
	env := newTestEnv(t)

	mustHandle(t, env, command(100, "start", ""))

	if _, ok := env.identity.users[100]; !ok {
		t.Fatal("sender was not upserted")
	}
	msg := env.sender.lastTo(t, 100)
	if !strings.Contains(msg.text, "Welcome") {
		t.Errorf("welcome text missing, got %q", msg.text)
	}
	if len(msg.rows) == 0 {
		t.Error("welcome panel has no menu")
	}
}

func TestCheckInDeniedForNonAdmin(t *testing.T) {
	env := newTestEnv(t)
	env.identity.add(1, "Visitor", models.RoleApplicant)
	env.identity.add(2, "Attendee", models.RoleApplicant)
	eventID := env.events.add("Open Day", testNow.Add(time.Hour))
	if _, err := env.events.Register(context.Background(), 2, eventID); err != nil {
		t.Fatal(err)
	}

	mustHandle(t, env, command(1, "start", fmt.Sprintf("checkin_%d_%d", eventID, 2)))

	if env.sender.lastTo(t, 1).text != msgCheckInDenied {
		t.Errorf("expected denial, got %q", env.sender.lastTo(t, 1).text)
	}
	if env.events.regs[regKey{2, eventID}].Attended {
		t.Error("denied check-in must not mark attendance")
	}
}

func TestCheckInMarksAttendance(t *testing.T) {
	env := newTestEnv(t)
	env.identity.add(1, "Moderator", models.RoleModerator)
	env.identity.add(2, "Attendee", models.RoleApplicant)
	eventID := env.events.add("Open Day", testNow.Add(time.Hour))
	if _, err := env.events.Register(context.Background(), 2, eventID); err != nil {
		t.Fatal(err)
	}

	mustHandle(t, env, command(1, "start", fmt.Sprintf("checkin_%d_%d", eventID, 2)))

	if !env.events.regs[regKey{2, eventID}].Attended {
		t.Fatal("registration was not marked attended")
	}
	msg := env.sender.lastTo(t, 1)
	if !strings.Contains(msg.text, "Attendee") || !strings.Contains(msg.text, "Open Day") {
		t.Errorf("confirmation should name attendee and event, got %q", msg.text)
	}
}

func TestCheckInWithoutRegistration(t *testing.T) {
	env := newTestEnv(t)
	env.identity.add(1, "Moderator", models.RoleModerator)
	env.identity.add(2, "Attendee", models.RoleApplicant)
	eventID := env.events.add("Open Day", testNow.Add(time.Hour))

	mustHandle(t, env, command(1, "start", fmt.Sprintf("checkin_%d_%d", eventID, 2)))

	if env.sender.lastTo(t, 1).text != msgNotRegistered {
		t.Errorf("expected %q, got %q", msgNotRegistered, env.sender.lastTo(t, 1).text)
	}
}

func TestCheckInMalformedPayload(t *testing.T) {
	env := newTestEnv(t)
	env.identity.add(1, "Moderator", models.RoleModerator)

	for _, payload := range []string{"checkin_5", "checkin_5_x", "checkin__", "checkin_1_2_3"} {
		mustHandle(t, env, command(1, "start", payload))
		if got := env.sender.lastTo(t, 1).text; got != msgMalformedCheckIn {
			t.Errorf("payload %q: expected %q, got %q", payload, msgMalformedCheckIn, got)
		}
	}
}

func TestProfileVisitUnknownUser(t *testing.T) {
	env := newTestEnv(t)

	mustHandle(t, env, command(1, "start", "999"))

	if env.sender.lastTo(t, 1).text != msgUserNotFound {
		t.Errorf("expected %q, got %q", msgUserNotFound, env.sender.lastTo(t, 1).text)
	}
}

func TestProfileVisitShowsTarget(t *testing.T) {
	env := newTestEnv(t)
	env.identity.add(2, "Dana", models.RoleStudent)

	mustHandle(t, env, command(1, "start", "2"))

	msg := env.sender.lastTo(t, 1)
	if !strings.Contains(msg.text, "Dana") || !strings.Contains(msg.text, "Student") {
		t.Errorf("profile should show name and role, got %q", msg.text)
	}
}

func TestEventCreationUnauthorized(t *testing.T) {
	env := newTestEnv(t)
	env.identity.add(5, "Applicant", models.RoleApplicant)

	mustHandle(t, env, command(5, "add_event", ""))

	if env.sender.lastTo(t, 5).text != msgUnauthorized {
		t.Errorf("expected %q, got %q", msgUnauthorized, env.sender.lastTo(t, 5).text)
	}
	session, _ := env.sessions.Get(context.Background(), 5)
	if session != nil {
		t.Error("no session may be created for an unauthorized sender")
	}
}

func TestEventCreationFlow(t *testing.T) {
	env := newTestEnv(t)
	env.identity.add(7, "Curator", models.RoleCurator)

	mustHandle(t, env, buttonPress(7, tokenModCreateEvent))
	if env.sender.lastTo(t, 7).text != promptTitle {
		t.Fatalf("expected title prompt, got %q", env.sender.lastTo(t, 7).text)
	}

	mustHandle(t, env, freeText(7, "Open Day"))
	mustHandle(t, env, freeText(7, "Campus tour for applicants"))

	// Conversational input must be rejected without losing progress.
	mustHandle(t, env, freeText(7, "tomorrow at 3"))
	if env.sender.lastTo(t, 7).text != promptBadDateTime {
		t.Fatalf("expected datetime reprompt, got %q", env.sender.lastTo(t, 7).text)
	}
	session, _ := env.sessions.Get(context.Background(), 7)
	if session.State != dialog.StateAwaitingDateTime {
		t.Fatalf("invalid input advanced the flow to %q", session.State)
	}

	mustHandle(t, env, freeText(7, "2025-12-10 15:30"))
	mustHandle(t, env, freeText(7, "Main hall"))
	mustHandle(t, env, freeText(7, "skip"))
	mustHandle(t, env, freeText(7, "2025-12-09 18:00"))

	if len(env.events.items) != 1 {
		t.Fatalf("expected 1 event, found %d", len(env.events.items))
	}
	var created *models.Event
	for _, event := range env.events.items {
		created = event
	}
	if created.Title != "Open Day" || created.Location != "Main hall" {
		t.Errorf("draft fields lost: %+v", created)
	}
	if !created.StartsAt.Equal(time.Date(2025, 12, 10, 15, 30, 0, 0, time.UTC)) {
		t.Errorf("wrong start time: %v", created.StartsAt)
	}
	if !created.RegistrationCloses.Equal(time.Date(2025, 12, 9, 18, 0, 0, 0, time.UTC)) {
		t.Errorf("wrong deadline: %v", created.RegistrationCloses)
	}
	if created.CreatedBy != 7 {
		t.Errorf("creator not recorded: %d", created.CreatedBy)
	}

	if len(env.enqueued) != 1 || env.enqueued[0] != created.ID {
		t.Errorf("announcement not enqueued for event %d: %v", created.ID, env.enqueued)
	}
	if session, _ := env.sessions.Get(context.Background(), 7); session != nil {
		t.Error("session must be cleared after commit")
	}
}

func TestCancelAbandonsFlow(t *testing.T) {
	env := newTestEnv(t)
	env.identity.add(7, "Curator", models.RoleCurator)

	mustHandle(t, env, command(7, "add_event", ""))
	mustHandle(t, env, command(7, "cancel", ""))

	if session, _ := env.sessions.Get(context.Background(), 7); session != nil {
		t.Error("cancel must clear the session")
	}
	if env.sender.lastTo(t, 7).text != msgDialogCancelled {
		t.Errorf("expected %q, got %q", msgDialogCancelled, env.sender.lastTo(t, 7).text)
	}
}

func TestRegisterButton(t *testing.T) {
	env := newTestEnv(t)
	env.identity.add(3, "Applicant", models.RoleApplicant)
	eventID := env.events.add("Open Day", testNow.Add(time.Hour))

	mustHandle(t, env, buttonPress(3, registerToken(eventID)))
	if env.sender.lastTo(t, 3).text != msgRegistered {
		t.Fatalf("expected confirmation, got %q", env.sender.lastTo(t, 3).text)
	}

	mustHandle(t, env, buttonPress(3, registerToken(eventID)))
	if env.sender.lastTo(t, 3).text != msgAlreadyRegistered {
		t.Errorf("duplicate press: expected %q, got %q", msgAlreadyRegistered, env.sender.lastTo(t, 3).text)
	}
	if len(env.events.regs) != 1 {
		t.Errorf("expected a single registration, found %d", len(env.events.regs))
	}
}

func TestRegisterAfterDeadline(t *testing.T) {
	env := newTestEnv(t)
	env.identity.add(3, "Applicant", models.RoleApplicant)
	eventID := env.events.add("Open Day", testNow.Add(-time.Minute))

	mustHandle(t, env, buttonPress(3, registerToken(eventID)))

	if env.sender.lastTo(t, 3).text != msgRegistrationOver {
		t.Errorf("expected %q, got %q", msgRegistrationOver, env.sender.lastTo(t, 3).text)
	}
	if len(env.events.regs) != 0 {
		t.Error("closed registration must not create a row")
	}
}

func TestRegisterMissingEvent(t *testing.T) {
	env := newTestEnv(t)
	env.identity.add(3, "Applicant", models.RoleApplicant)

	mustHandle(t, env, buttonPress(3, registerToken(404)))

	if env.sender.lastTo(t, 3).text != msgEventNotFound {
		t.Errorf("expected %q, got %q", msgEventNotFound, env.sender.lastTo(t, 3).text)
	}
}

func TestRoleAssignmentFlow(t *testing.T) {
	env := newTestEnv(t)
	env.identity.add(1, "Moderator", models.RoleModerator)
	env.identity.add(9, "Newcomer", models.RoleApplicant)

	mustHandle(t, env, command(1, "set_role", ""))
	mustHandle(t, env, freeText(1, "not a number"))
	if env.sender.lastTo(t, 1).text != promptBadUserID {
		t.Fatalf("expected %q, got %q", promptBadUserID, env.sender.lastTo(t, 1).text)
	}

	mustHandle(t, env, freeText(1, "9"))
	mustHandle(t, env, freeText(1, "banana"))
	if env.sender.lastTo(t, 1).text != promptBadRole {
		t.Fatalf("expected %q, got %q", promptBadRole, env.sender.lastTo(t, 1).text)
	}

	mustHandle(t, env, freeText(1, "curator"))
	if env.identity.users[9].Role != models.RoleCurator {
		t.Errorf("role not applied: %q", env.identity.users[9].Role)
	}
	if session, _ := env.sessions.Get(context.Background(), 1); session != nil {
		t.Error("session must be cleared after commit")
	}
	if env.sender.lastTo(t, 9).text != "Your role is now: Curator" {
		t.Errorf("target was not told, got %q", env.sender.lastTo(t, 9).text)
	}
}

func TestBroadcastReportsDeliveries(t *testing.T) {
	env := newTestEnv(t)
	env.identity.add(1, "Moderator", models.RoleModerator)
	env.identity.add(2, "A", models.RoleApplicant)
	env.identity.add(3, "B", models.RoleApplicant)
	env.sender.failFor[3] = true

	mustHandle(t, env, command(1, "broadcast", ""))
	mustHandle(t, env, freeText(1, "Doors open at nine."))

	if got := env.sender.lastTo(t, 1).text; got != renderBroadcastReport(3, 2) {
		t.Errorf("expected %q, got %q", renderBroadcastReport(3, 2), got)
	}
	if env.sender.lastTo(t, 2).text != "Doors open at nine." {
		t.Errorf("recipient 2 missed the broadcast, got %q", env.sender.lastTo(t, 2).text)
	}
}

func TestToggleNewsPreference(t *testing.T) {
	env := newTestEnv(t)
	env.identity.add(4, "Reader", models.RoleApplicant)

	mustHandle(t, env, buttonPress(4, tokenToggleNews))

	if env.identity.prefs[4].NewsEnabled {
		t.Error("news preference should be off after one toggle")
	}
	msg := env.sender.lastTo(t, 4)
	var found bool
	for _, row := range msg.rows {
		for _, button := range row {
			if button.Token == tokenToggleNews && strings.Contains(button.Text, "off") {
				found = true
			}
		}
	}
	if !found {
		t.Errorf("settings panel should reflect the new state, rows: %+v", msg.rows)
	}
}

func TestQRCardIsSentAsPhoto(t *testing.T) {
	env := newTestEnv(t)
	env.identity.add(4, "Holder", models.RoleApplicant)

	mustHandle(t, env, buttonPress(4, tokenMyQRCard))

	msg := env.sender.lastTo(t, 4)
	if len(msg.photo) == 0 {
		t.Fatal("QR card must be sent as an image")
	}
}

func TestCheckInQRRequiresRegistration(t *testing.T) {
	env := newTestEnv(t)
	env.identity.add(4, "Holder", models.RoleApplicant)
	eventID := env.events.add("Open Day", testNow.Add(time.Hour))

	mustHandle(t, env, buttonPress(4, checkInQRToken(eventID)))
	if env.sender.lastTo(t, 4).text != msgSelfNotRegistered {
		t.Fatalf("expected %q, got %q", msgSelfNotRegistered, env.sender.lastTo(t, 4).text)
	}

	if _, err := env.events.Register(context.Background(), 4, eventID); err != nil {
		t.Fatal(err)
	}
	mustHandle(t, env, buttonPress(4, checkInQRToken(eventID)))
	if len(env.sender.lastTo(t, 4).photo) == 0 {
		t.Error("registrant should receive the entry QR image")
	}
}

func TestActiveEventsListAndPanelMedia(t *testing.T) {
	env := newTestEnv(t)
	env.identity.add(4, "Visitor", models.RoleApplicant)
	env.events.add("Past Event", testNow.Add(-time.Hour))
	env.events.add("Open Day", testNow.Add(time.Hour))

	mustHandle(t, env, buttonPress(4, tokenActiveEvents))

	msg := env.sender.lastTo(t, 4)
	if !strings.Contains(msg.text, "Open Day") {
		t.Errorf("active event missing from listing: %q", msg.text)
	}
	if strings.Contains(msg.text, "Past Event") {
		t.Error("closed event leaked into listing")
	}
}

func TestSetMediaUpdatesPanel(t *testing.T) {
	env := newTestEnv(t)
	env.identity.add(1, "Moderator", models.RoleModerator)

	update := command(1, "set_media", "welcome")
	update.ImageRef = "file-ref-42"
	mustHandle(t, env, update)

	if env.media.refs["welcome"] != "file-ref-42" {
		t.Fatalf("media not registered: %+v", env.media.refs)
	}

	mustHandle(t, env, command(1, "start", ""))
	if env.sender.lastTo(t, 1).fileRef != "file-ref-42" {
		t.Error("welcome panel should use the registered media")
	}
}
