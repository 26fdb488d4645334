package repository_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"availability/cmd/internal/domain/entity"
	"availability/cmd/internal/domain/store"
	"availability/cmd/internal/domain/store/repository"

	"golang.org/x/crypto/bcrypt"
)

var t0 = time.Date(2030, 3, 4, 9, 0, 0, 0, time.UTC)

func newTestDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.Open(store.Config{URL: ":memory:"})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := db.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func ptr[T any](v T) *T {
	return &v
}

func createUser(t *testing.T, users *repository.DefaultUserRepository, email string) *entity.User {
	t.Helper()
	user := &entity.User{Email: email, HashedPassword: "hash", Role: entity.RoleClient}
	if err := users.Create(context.Background(), user); err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return user
}

func createSchedule(t *testing.T, schedules *repository.DefaultScheduleRepository, professionalID string, start time.Time, d time.Duration) *entity.Schedule {
	t.Helper()
	schedule := &entity.Schedule{
		ProfessionalID: professionalID,
		Start:          start,
		End:            start.Add(d),
		Status:         entity.StatusAvailable,
		TimeBlock:      entity.BlockMorning,
		TimeZone:       "UTC",
	}
	if err := schedules.Create(context.Background(), schedule); err != nil {
		t.Fatalf("create schedule: %v", err)
	}
	return schedule
}

func TestUserEmailIsUnique(t *testing.T) {
	db := newTestDB(t)
	users := repository.NewUserRepository(db)
	ctx := context.Background()

	first := &entity.User{Email: "a@x.com", HashedPassword: "h", Role: entity.RoleClient}
	if err := users.Create(ctx, first); err != nil {
		t.Fatalf("create: %v", err)
	}
	if first.ID == "" {
		t.Fatal("expected generated id")
	}

	dup := &entity.User{Email: "a@x.com", HashedPassword: "h2", Role: entity.RoleAdmin}
	err := users.Create(ctx, dup)
	if !errors.Is(err, store.ErrConstraintViolation) {
		t.Fatalf("expected constraint violation, got %v", err)
	}
}

func TestConcurrentDuplicateEmailOnlyOneWins(t *testing.T) {
	db := newTestDB(t)
	users := repository.NewUserRepository(db)

	const writers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		violated  int
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := users.Create(context.Background(), &entity.User{Email: "race@x.com", HashedPassword: "h", Role: entity.RoleClient})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, store.ErrConstraintViolation):
				violated++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if succeeded != 1 || violated != writers-1 {
		t.Fatalf("succeeded=%d violated=%d", succeeded, violated)
	}
}

func TestUnknownRoleIsConstraintViolation(t *testing.T) {
	db := newTestDB(t)
	users := repository.NewUserRepository(db)

	err := users.Create(context.Background(), &entity.User{Email: "b@x.com", HashedPassword: "h", Role: "Owner"})
	if !errors.Is(err, store.ErrConstraintViolation) {
		t.Fatalf("expected constraint violation, got %v", err)
	}
}

func TestProfilePairIsUnique(t *testing.T) {
	db := newTestDB(t)
	profiles := repository.NewProfileRepository(db)
	ctx := context.Background()

	first := &entity.Profile{FirstName: "Ada", LastName: "L", ProfessionalID: ptr("P1"), ClientID: ptr("C1")}
	if err := profiles.Create(ctx, first); err != nil {
		t.Fatalf("create: %v", err)
	}

	second := &entity.Profile{FirstName: "Bob", LastName: "M", ProfessionalID: ptr("P1"), ClientID: ptr("C1")}
	if err := profiles.Create(ctx, second); !errors.Is(err, store.ErrConstraintViolation) {
		t.Fatalf("expected constraint violation, got %v", err)
	}

	// The pair only collides when both values are present.
	for i := 0; i < 2; i++ {
		p := &entity.Profile{FirstName: "Solo", LastName: "P", ProfessionalID: ptr("P1")}
		if err := profiles.Create(ctx, p); err != nil {
			t.Fatalf("create profile without client #%d: %v", i, err)
		}
	}

	other := &entity.Profile{FirstName: "Cy", LastName: "N", ProfessionalID: ptr("P1"), ClientID: ptr("C2")}
	if err := profiles.Create(ctx, other); err != nil {
		t.Fatalf("create distinct pair: %v", err)
	}
	_, err := profiles.Update(ctx, other.ID, repository.ProfilePatch{ClientID: ptr("C1")})
	if !errors.Is(err, store.ErrConstraintViolation) {
		t.Fatalf("expected constraint violation on update, got %v", err)
	}
}

func TestProfileUserMustExist(t *testing.T) {
	db := newTestDB(t)
	profiles := repository.NewProfileRepository(db)

	err := profiles.Create(context.Background(), &entity.Profile{FirstName: "A", LastName: "B", UserID: ptr("missing")})
	if !errors.Is(err, store.ErrForeignKeyViolation) {
		t.Fatalf("expected foreign key violation, got %v", err)
	}
}

func TestScheduleAndAppointmentScenario(t *testing.T) {
	db := newTestDB(t)
	users := repository.NewUserRepository(db)
	schedules := repository.NewScheduleRepository(db)
	appts := repository.NewAppointmentRepository(db)
	ctx := context.Background()

	client := createUser(t, users, "a@x.com")
	schedule := createSchedule(t, schedules, "P1", t0, time.Hour)

	appt := &entity.Appointment{ScheduleID: schedule.ID, ClientID: client.ID, StartTime: t0, EndTime: t0.Add(30 * time.Minute)}
	if err := appts.Create(ctx, appt); err != nil {
		t.Fatalf("create appointment: %v", err)
	}

	tests := []struct {
		name string
		appt *entity.Appointment
		want error
	}{
		{"missing schedule", &entity.Appointment{ScheduleID: "nonexistent", ClientID: client.ID, StartTime: t0, EndTime: t0.Add(time.Minute)}, store.ErrForeignKeyViolation},
		{"missing client", &entity.Appointment{ScheduleID: schedule.ID, ClientID: "nobody", StartTime: t0, EndTime: t0.Add(time.Minute)}, store.ErrForeignKeyViolation},
		{"empty interval", &entity.Appointment{ScheduleID: schedule.ID, ClientID: client.ID, StartTime: t0, EndTime: t0}, store.ErrConstraintViolation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := appts.Create(ctx, tt.appt); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}

	count, err := appts.CountBySchedule(ctx, schedule.ID)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 appointment, got %d", count)
	}
}

func TestScheduleRoundTrip(t *testing.T) {
	db := newTestDB(t)
	schedules := repository.NewScheduleRepository(db)
	profiles := repository.NewProfileRepository(db)
	ctx := context.Background()

	profile := &entity.Profile{FirstName: "Ada", LastName: "L", ProfessionalID: ptr("P1")}
	if err := profiles.Create(ctx, profile); err != nil {
		t.Fatalf("create profile: %v", err)
	}

	berlin := time.FixedZone("CET", 3600)
	in := &entity.Schedule{
		ProfessionalID: "P1",
		Start:          t0.In(berlin),
		End:            t0.Add(90 * time.Minute).In(berlin),
		Status:         entity.StatusUnavailable,
		TimeBlock:      entity.BlockEvening,
		TimeZone:       "Europe/Berlin",
		ProfileID:      &profile.ID,
	}
	if err := schedules.Create(ctx, in); err != nil {
		t.Fatalf("create: %v", err)
	}

	out, err := schedules.FindByID(ctx, in.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if out.ProfessionalID != "P1" || out.Status != entity.StatusUnavailable || out.TimeBlock != entity.BlockEvening || out.TimeZone != "Europe/Berlin" {
		t.Fatalf("fields differ: %+v", out)
	}
	if !out.Start.Equal(t0) || !out.End.Equal(t0.Add(90*time.Minute)) {
		t.Fatalf("interval differs: %v - %v", out.Start, out.End)
	}
	if out.ProfileID == nil || *out.ProfileID != profile.ID {
		t.Fatalf("profile id differs: %v", out.ProfileID)
	}
	if !out.CreatedAt.Equal(in.CreatedAt) {
		t.Fatalf("created at differs: %v vs %v", out.CreatedAt, in.CreatedAt)
	}
}

func TestScheduleIntervalMustBeOrdered(t *testing.T) {
	db := newTestDB(t)
	schedules := repository.NewScheduleRepository(db)

	bad := &entity.Schedule{ProfessionalID: "P1", Start: t0, End: t0.Add(-time.Hour), Status: entity.StatusAvailable, TimeBlock: entity.BlockMorning, TimeZone: "UTC"}
	if err := schedules.Create(context.Background(), bad); !errors.Is(err, store.ErrConstraintViolation) {
		t.Fatalf("expected constraint violation, got %v", err)
	}
}

func TestUpdateRefreshesUpdatedAt(t *testing.T) {
	db := newTestDB(t)
	// A frozen clock still has to yield strictly later stamps.
	db.SetClock(func() time.Time { return t0 })
	users := repository.NewUserRepository(db)
	ctx := context.Background()

	user := createUser(t, users, "c@x.com")
	created := user.CreatedAt
	prev := user.UpdatedAt

	for i, role := range []entity.UserRole{entity.RoleProfessional, entity.RoleAdmin, entity.RoleAdmin} {
		updated, err := users.Update(ctx, user.ID, repository.UserPatch{Role: ptr(role)})
		if err != nil {
			t.Fatalf("update #%d: %v", i, err)
		}
		if !updated.UpdatedAt.After(prev) {
			t.Fatalf("update #%d: updatedAt %v not after %v", i, updated.UpdatedAt, prev)
		}
		if !updated.CreatedAt.Equal(created) {
			t.Fatalf("update #%d: createdAt changed to %v", i, updated.CreatedAt)
		}
		prev = updated.UpdatedAt
	}

	stored, err := users.FindByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if !stored.UpdatedAt.Equal(prev) || stored.Role != entity.RoleAdmin {
		t.Fatalf("stored record is stale: %+v", stored)
	}
}

func TestMissingRecords(t *testing.T) {
	db := newTestDB(t)
	users := repository.NewUserRepository(db)
	ctx := context.Background()

	if _, err := users.FindByID(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("find: expected not found, got %v", err)
	}
	if _, err := users.Update(ctx, "missing", repository.UserPatch{Email: ptr("z@x.com")}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("update: expected not found, got %v", err)
	}
	if err := users.Delete(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("delete: expected not found, got %v", err)
	}
}

func TestDeleteIsRestrictedByDependents(t *testing.T) {
	db := newTestDB(t)
	users := repository.NewUserRepository(db)
	notifications := repository.NewNotificationRepository(db)
	ctx := context.Background()

	user := createUser(t, users, "d@x.com")
	notif := &entity.Notification{UserID: user.ID, Type: entity.NotificationInApp, Message: "hi"}
	if err := notifications.Create(ctx, notif); err != nil {
		t.Fatalf("create notification: %v", err)
	}

	if err := users.Delete(ctx, user.ID); !errors.Is(err, store.ErrForeignKeyViolation) {
		t.Fatalf("expected foreign key violation, got %v", err)
	}
	if err := notifications.Delete(ctx, notif.ID); err != nil {
		t.Fatalf("delete notification: %v", err)
	}
	if err := users.Delete(ctx, user.ID); err != nil {
		t.Fatalf("delete user: %v", err)
	}
}

func TestScheduleQueries(t *testing.T) {
	db := newTestDB(t)
	schedules := repository.NewScheduleRepository(db)
	ctx := context.Background()

	late := createSchedule(t, schedules, "P1", t0.Add(4*time.Hour), time.Hour)
	early := createSchedule(t, schedules, "P1", t0, 2*time.Hour)
	createSchedule(t, schedules, "P2", t0, time.Hour)
	if _, err := schedules.SetStatus(ctx, late.ID, entity.StatusBooked); err != nil {
		t.Fatalf("set status: %v", err)
	}

	got, err := schedules.List(ctx, repository.ScheduleFilter{ProfessionalID: "P1", Page: repository.Page{OrderBy: "-start"}})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 || got[0].ID != late.ID || got[1].ID != early.ID {
		t.Fatalf("unexpected order: %v", ids(got))
	}

	got, err = schedules.List(ctx, repository.ScheduleFilter{ProfessionalID: "P1", Status: entity.StatusAvailable})
	if err != nil {
		t.Fatalf("list available: %v", err)
	}
	if len(got) != 1 || got[0].ID != early.ID {
		t.Fatalf("unexpected available schedules: %v", ids(got))
	}

	got, err = schedules.List(ctx, repository.ScheduleFilter{ProfessionalID: "P1", From: t0.Add(3 * time.Hour), To: t0.Add(10 * time.Hour)})
	if err != nil {
		t.Fatalf("list window: %v", err)
	}
	if len(got) != 1 || got[0].ID != late.ID {
		t.Fatalf("unexpected window result: %v", ids(got))
	}

	if _, err := schedules.List(ctx, repository.ScheduleFilter{Page: repository.Page{OrderBy: "hashed_password"}}); !errors.Is(err, store.ErrInvalidFilter) {
		t.Fatalf("expected invalid filter, got %v", err)
	}

	covering, err := schedules.FindCovering(ctx, "P1", t0.Add(30*time.Minute), t0.Add(90*time.Minute))
	if err != nil {
		t.Fatalf("find covering: %v", err)
	}
	if covering.ID != early.ID {
		t.Fatalf("expected %s, got %s", early.ID, covering.ID)
	}
	if _, err := schedules.FindCovering(ctx, "P1", t0.Add(4*time.Hour), t0.Add(5*time.Hour)); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("booked schedule must not cover, got %v", err)
	}

	overlap, err := schedules.HasOverlap(ctx, "P1", t0.Add(time.Hour), t0.Add(3*time.Hour))
	if err != nil || !overlap {
		t.Fatalf("expected overlap, got %v %v", overlap, err)
	}
	overlap, err = schedules.HasOverlap(ctx, "P1", t0.Add(2*time.Hour), t0.Add(4*time.Hour))
	if err != nil || overlap {
		t.Fatalf("adjacent intervals must not overlap, got %v %v", overlap, err)
	}
}

func TestIntegrationPayloads(t *testing.T) {
	db := newTestDB(t)
	externals := repository.NewExternalIntegrationRepository(db)
	integrations := repository.NewIntegrationRepository(db)
	ctx := context.Background()

	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	ext := &entity.ExternalIntegration{Name: "SystemA", APIKey: string(hash), KeyHint: "**cret"}
	if err := externals.Create(ctx, ext); err != nil {
		t.Fatalf("create external: %v", err)
	}

	event := &entity.Integration{ExternalIntegrationID: ext.ID}
	err = event.SetPayload(entity.ScheduleChangePayload{ScheduleID: "S1", ProfessionalID: "P1", Status: entity.StatusBooked, Start: t0, End: t0.Add(time.Hour)})
	if err != nil {
		t.Fatalf("set payload: %v", err)
	}
	if err := integrations.Create(ctx, event); err != nil {
		t.Fatalf("create event: %v", err)
	}

	stored, err := integrations.FindByID(ctx, event.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	payload, err := stored.DecodePayload()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	change, ok := payload.(entity.ScheduleChangePayload)
	if !ok || change.ScheduleID != "S1" || !change.Start.Equal(t0) {
		t.Fatalf("unexpected payload: %#v", payload)
	}

	wrongKind := &entity.Integration{ExternalIntegrationID: ext.ID, EventType: entity.IntegrationBookingConfirmation, Payload: stored.Payload}
	if err := integrations.Create(ctx, wrongKind); !errors.Is(err, store.ErrConstraintViolation) {
		t.Fatalf("expected constraint violation for mismatched payload, got %v", err)
	}

	if err := externals.Delete(ctx, ext.ID); !errors.Is(err, store.ErrForeignKeyViolation) {
		t.Fatalf("expected foreign key violation, got %v", err)
	}

	found, err := externals.FindByCredentials(ctx, "SystemA", "secret")
	if err != nil || found.ID != ext.ID {
		t.Fatalf("find by credentials: %v %v", found, err)
	}
	if _, err := externals.FindByCredentials(ctx, "SystemA", "wrong"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := externals.FindByCredentials(ctx, "SystemB", "secret"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found for another name, got %v", err)
	}
	if _, err := externals.FindByCredentials(ctx, "SystemA", string(hash)); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("the stored hash must not work as a key, got %v", err)
	}
}

func TestAnalyticsData(t *testing.T) {
	db := newTestDB(t)
	analytics := repository.NewAnalyticsRepository(db)
	ctx := context.Background()

	event := &entity.Analytics{}
	if err := event.SetData(entity.SystemPerformanceData{Metric: "p99_latency", Value: 12.5, Unit: "ms"}); err != nil {
		t.Fatalf("set data: %v", err)
	}
	if err := analytics.Create(ctx, event); err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := analytics.UpdateData(ctx, event.ID, entity.UserEngagementData{UserID: "U1", Action: "open"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Type != entity.AnalyticsUserEngagement {
		t.Fatalf("type not switched: %s", updated.Type)
	}

	if _, err := analytics.UpdateData(ctx, event.ID, entity.UserEngagementData{}); !errors.Is(err, store.ErrConstraintViolation) {
		t.Fatalf("expected constraint violation, got %v", err)
	}

	list, err := analytics.List(ctx, repository.AnalyticsFilter{Type: entity.AnalyticsUserEngagement})
	if err != nil || len(list) != 1 {
		t.Fatalf("list: %d %v", len(list), err)
	}
}

func TestWithinTxRollsBack(t *testing.T) {
	db := newTestDB(t)
	users := repository.NewUserRepository(db)
	ctx := context.Background()

	boom := errors.New("boom")
	err := db.WithinTx(ctx, func(ctx context.Context) error {
		user := &entity.User{Email: "tx2@x.com", HashedPassword: "h", Role: entity.RoleClient}
		if err := users.Create(ctx, user); err != nil {
			return err
		}
		if _, err := users.FindByEmail(ctx, "tx2@x.com"); err != nil {
			t.Errorf("write not visible inside the transaction: %v", err)
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if _, err := users.FindByEmail(ctx, "tx2@x.com"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected rollback, got %v", err)
	}
}

func ids(schedules []*entity.Schedule) []string {
	out := make([]string, len(schedules))
	for i, s := range schedules {
		out[i] = s.ID
	}
	return out
}
