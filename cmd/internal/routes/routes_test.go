package routes_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"availability/cmd/internal/domain/store"
	"availability/cmd/internal/domain/store/repository"
	"availability/cmd/internal/events"
	"availability/cmd/internal/routes"
	"availability/cmd/internal/service"
	"availability/cmd/internal/utils/validators"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
)

func newTestServer(t *testing.T) (*echo.Echo, *events.MemoryPublisher) {
	t.Helper()
	db, err := store.Open(store.Config{URL: ":memory:"})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := db.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	pub := &events.MemoryPublisher{}
	emitter := events.NewEmitter(pub)
	validate := validators.New()

	userRepo := repository.NewUserRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	apptRepo := repository.NewAppointmentRepository(db)
	notifRepo := repository.NewNotificationRepository(db)
	externalRepo := repository.NewExternalIntegrationRepository(db)
	integrationRepo := repository.NewIntegrationRepository(db)
	analyticsRepo := repository.NewAnalyticsRepository(db)

	userService := service.NewUserService(userRepo, profileRepo, db, validate, emitter)
	userService.HashCost = bcrypt.MinCost

	e := routes.NewRouter(routes.Handlers{
		Users:         routes.NewUserDefault(userService),
		Profiles:      routes.NewProfileDefault(service.NewProfileService(profileRepo, validate, emitter)),
		Schedules:     routes.NewScheduleDefault(service.NewScheduleService(scheduleRepo, apptRepo, db, validate, emitter)),
		Appointments:  routes.NewAppointmentDefault(service.NewAppointmentService(apptRepo, scheduleRepo, notifRepo, db, validate, emitter)),
		Notifications: routes.NewNotificationDefault(service.NewNotificationService(notifRepo, validate, emitter)),
		Integrations:  routes.NewIntegrationDefault(service.NewIntegrationService(externalRepo, integrationRepo, scheduleRepo, db, validate, emitter)),
		Analytics:     routes.NewAnalyticsDefault(service.NewAnalyticsService(analyticsRepo, validate, emitter)),
		DB:            db,
	})
	return e, pub
}

func do(t *testing.T, e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestBookingFlow(t *testing.T) {
	e, pub := newTestServer(t)

	rec := do(t, e, http.MethodPost, "/api/users", `{"email":"client@example.com","password":"Secret123","firstName":"Cli","lastName":"Ent","role":"Client"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: %d %s", rec.Code, rec.Body)
	}
	user := decode[service.RegisterUserResponse](t, rec)

	rec = do(t, e, http.MethodPost, "/api/schedules", `{"professionalId":"pro-1","start":"2030-03-04T09:00:00Z","end":"2030-03-04T10:00:00Z","timeZone":"UTC"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create schedule: %d %s", rec.Code, rec.Body)
	}
	slot := decode[service.ScheduleResponse](t, rec)

	rec = do(t, e, http.MethodGet, "/api/professionals/pro-1/availability", "")
	avail := decode[struct {
		Slots []service.ScheduleResponse `json:"slots"`
	}](t, rec)
	if rec.Code != http.StatusOK || len(avail.Slots) != 1 || avail.Slots[0].ID != slot.ID {
		t.Fatalf("availability: %d %s", rec.Code, rec.Body)
	}

	body := `{"professionalId":"pro-1","clientId":"` + user.UserID + `","startTime":"2030-03-04T09:00:00Z","endTime":"2030-03-04T09:30:00Z"}`
	rec = do(t, e, http.MethodPost, "/api/appointments", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("book: %d %s", rec.Code, rec.Body)
	}
	appt := decode[service.AppointmentResponse](t, rec)

	rec = do(t, e, http.MethodPost, "/api/appointments", body)
	if rec.Code != http.StatusConflict {
		t.Fatalf("double booking: expected 409, got %d %s", rec.Code, rec.Body)
	}

	rec = do(t, e, http.MethodGet, "/api/appointments?clientId="+user.UserID, "")
	list := decode[struct {
		Appointments []service.AppointmentResponse `json:"appointments"`
	}](t, rec)
	if len(list.Appointments) != 1 || list.Appointments[0].ID != appt.ID {
		t.Fatalf("list appointments: %s", rec.Body)
	}

	if rec := do(t, e, http.MethodDelete, "/api/appointments/"+appt.ID, ""); rec.Code != http.StatusNoContent {
		t.Fatalf("cancel: %d %s", rec.Code, rec.Body)
	}
	rec = do(t, e, http.MethodGet, "/api/schedules/"+slot.ID, "")
	if got := decode[service.ScheduleResponse](t, rec); got.Status != "Available" {
		t.Errorf("expected slot reopened, got %s", got.Status)
	}

	keys := map[string]bool{}
	for _, evt := range pub.Events() {
		keys[evt.RoutingKey()] = true
	}
	for _, want := range []string{"user.created", "schedule.created", "appointment.created", "notification.created", "appointment.deleted", "schedule.updated"} {
		if !keys[want] {
			t.Errorf("missing %s event", want)
		}
	}
}

func TestErrorResponses(t *testing.T) {
	e, _ := newTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		code   int
	}{
		{"malformed body", http.MethodPost, "/api/users", `{"email":`, http.StatusBadRequest},
		{"validation", http.MethodPost, "/api/users", `{"email":"nope","password":"x","firstName":"a","lastName":"b","role":"Client"}`, http.StatusUnprocessableEntity},
		{"missing user", http.MethodGet, "/api/users/unknown", "", http.StatusNotFound},
		{"missing schedule", http.MethodDelete, "/api/schedules/unknown", "", http.StatusNotFound},
		{"unknown sort key", http.MethodGet, "/api/schedules?orderBy=password", "", http.StatusBadRequest},
		{"non numeric limit", http.MethodGet, "/api/schedules?limit=ten", "", http.StatusBadRequest},
		{"bad credentials", http.MethodPost, "/api/integrations/sync", `{"externalSystemName":"x","apiKey":"y","professionalId":"p","syncStartDate":"2030-01-01T00:00:00Z","syncEndDate":"2030-01-02T00:00:00Z"}`, http.StatusForbidden},
		{"notification for unknown user", http.MethodPost, "/api/notifications", `{"userId":"ghost","type":"Email","message":"hi"}`, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, e, tt.method, tt.path, tt.body)
			if rec.Code != tt.code {
				t.Fatalf("expected %d, got %d %s", tt.code, rec.Code, rec.Body)
			}
		})
	}
}

func TestHealthAndMetrics(t *testing.T) {
	e, _ := newTestServer(t)

	if rec := do(t, e, http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK {
		t.Fatalf("healthz: %d", rec.Code)
	}
	do(t, e, http.MethodGet, "/api/users", "")

	rec := do(t, e, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "http_request_duration_seconds") {
		t.Fatalf("metrics endpoint missing request histogram: %d", rec.Code)
	}
}
