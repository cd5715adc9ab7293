package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fitbook/internal/adapters/http/middleware"
	"fitbook/internal/adapters/persistence/models"
	"fitbook/internal/config"
	"fitbook/internal/core/domain"
	"fitbook/internal/pkg/password"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type apiEnvelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

func newTestApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, models.AutoMigrate(db))
	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
	})

	cfg := &config.Config{
		AppMode:       "dev",
		TimetablePath: filepath.Join(t.TempDir(), "timetable.json"),
		JWT: config.JWTConfig{
			Secret:           "test-secret",
			RefreshSecret:    "test-refresh-secret",
			AccessTokenMins:  15,
			RefreshTokenDays: 7,
		},
		Cookie: config.CookieConfig{SameSite: "lax"},
	}
	config.AppConfig = cfg

	app := fiber.New(fiber.Config{ErrorHandler: middleware.CustomErrorHandler})
	Setup(app, db, cfg)
	return app, db
}

func seedAccount(t *testing.T, db *gorm.DB, username, role string) *models.User {
	t.Helper()

	hash, err := password.Hash("password123")
	require.NoError(t, err)
	user := &models.User{Username: username, Password: hash, Role: role, IsActive: true}
	require.NoError(t, db.Create(user).Error)
	return user
}

func seedOccurrence(t *testing.T, db *gorm.DB, maxCapacity int) *models.Occurrence {
	t.Helper()

	class := &models.GymClass{
		Name:       "Spin",
		Instructor: "Maria",
		Occurrences: []models.Occurrence{
			{Day: "Monday", Time: "07:00", MaxCapacity: maxCapacity},
		},
	}
	require.NoError(t, db.Create(class).Error)
	return &class.Occurrences[0]
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (int, apiEnvelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var envelope apiEnvelope
	// Not every endpoint uses the envelope; ignore unmarshal failures
	_ = json.Unmarshal(raw, &envelope)
	return resp.StatusCode, envelope
}

func login(t *testing.T, app *fiber.App, username string) string {
	t.Helper()

	status, envelope := doJSON(t, app, http.MethodPost, "/api/v1/auth/login", "", fiber.Map{
		"username": username,
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, status)

	var data struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(envelope.Data, &data))
	require.NotEmpty(t, data.AccessToken)
	return data.AccessToken
}

func TestHealthAndRoot(t *testing.T) {
	app, _ := newTestApp(t)

	status, _ := doJSON(t, app, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = doJSON(t, app, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestBookingLifecycle(t *testing.T) {
	app, db := newTestApp(t)
	seedAccount(t, db, "alice", "MEMBER")
	occ := seedOccurrence(t, db, 2)
	token := login(t, app, "alice")

	path := fmt.Sprintf("/api/v1/bookings/%d", occ.ID)

	// Book
	status, envelope := doJSON(t, app, http.MethodPost, path, token, nil)
	require.Equal(t, http.StatusCreated, status)

	var result struct {
		CurrentCapacity int `json:"current_capacity"`
		MaxCapacity     int `json:"max_capacity"`
	}
	require.NoError(t, json.Unmarshal(envelope.Data, &result))
	assert.Equal(t, 1, result.CurrentCapacity)
	assert.Equal(t, 2, result.MaxCapacity)

	// Duplicate booking
	status, _ = doJSON(t, app, http.MethodPost, path, token, nil)
	assert.Equal(t, http.StatusConflict, status)

	// List
	status, envelope = doJSON(t, app, http.MethodGet, "/api/v1/bookings/", token, nil)
	require.Equal(t, http.StatusOK, status)
	var bookings []models.BookingResponse
	require.NoError(t, json.Unmarshal(envelope.Data, &bookings))
	require.Len(t, bookings, 1)
	assert.Equal(t, "Spin", bookings[0].ClassName)

	// Cancel
	status, _ = doJSON(t, app, http.MethodDelete, path, token, nil)
	assert.Equal(t, http.StatusOK, status)

	// Cancel again
	status, _ = doJSON(t, app, http.MethodDelete, path, token, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestBookingFullClassConflictBody(t *testing.T) {
	app, db := newTestApp(t)
	seedAccount(t, db, "alice", "MEMBER")
	seedAccount(t, db, "bob", "MEMBER")
	occ := seedOccurrence(t, db, 1)

	path := fmt.Sprintf("/api/v1/bookings/%d", occ.ID)

	aliceToken := login(t, app, "alice")
	status, _ := doJSON(t, app, http.MethodPost, path, aliceToken, nil)
	require.Equal(t, http.StatusCreated, status)

	bobToken := login(t, app, "bob")
	status, envelope := doJSON(t, app, http.MethodPost, path, bobToken, nil)
	require.Equal(t, http.StatusConflict, status)

	var data struct {
		CurrentCapacity int `json:"current_capacity"`
		MaxCapacity     int `json:"max_capacity"`
	}
	require.NoError(t, json.Unmarshal(envelope.Data, &data))
	assert.Equal(t, 1, data.CurrentCapacity)
	assert.Equal(t, 1, data.MaxCapacity)
}

func TestBookingRequiresAuth(t *testing.T) {
	app, db := newTestApp(t)
	occ := seedOccurrence(t, db, 5)

	status, _ := doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/v1/bookings/%d", occ.ID), "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestAdminRoutesForbiddenForMembers(t *testing.T) {
	app, db := newTestApp(t)
	seedAccount(t, db, "alice", "MEMBER")
	token := login(t, app, "alice")

	status, _ := doJSON(t, app, http.MethodGet, "/api/v1/admin/users", token, nil)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestAdminClassAndUserManagement(t *testing.T) {
	app, db := newTestApp(t)
	seedAccount(t, db, "admin", "ADMIN")
	token := login(t, app, "admin")

	// Create a class
	status, envelope := doJSON(t, app, http.MethodPost, "/api/v1/admin/classes", token, fiber.Map{
		"name":       "Yoga",
		"instructor": "Priya",
		"occurrences": []fiber.Map{
			{"day": "Tuesday", "time": "06:30", "max_capacity": 15},
		},
	})
	require.Equal(t, http.StatusCreated, status)

	var class models.GymClass
	require.NoError(t, json.Unmarshal(envelope.Data, &class))
	require.Len(t, class.Occurrences, 1)

	// The public timetable shows it
	status, envelope = doJSON(t, app, http.MethodGet, "/api/v1/classes", "", nil)
	require.Equal(t, http.StatusOK, status)
	var classes []models.GymClass
	require.NoError(t, json.Unmarshal(envelope.Data, &classes))
	assert.Len(t, classes, 1)

	// Provision a member account
	status, _ = doJSON(t, app, http.MethodPost, "/api/v1/admin/users", token, fiber.Map{
		"username":          "alice",
		"password":          "password123",
		"name":              "Alice Smith",
		"membership_number": "MEM100",
		"date_of_birth":     "15/03/1992",
		"member_since":      "01/06/2024",
	})
	require.Equal(t, http.StatusCreated, status)

	// The new member can log in and see their profile
	memberToken := login(t, app, "alice")
	status, envelope = doJSON(t, app, http.MethodGet, "/api/v1/member", memberToken, nil)
	require.Equal(t, http.StatusOK, status)

	var member models.MemberResponse
	require.NoError(t, json.Unmarshal(envelope.Data, &member))
	assert.Equal(t, "MEM100", member.MembershipNumber)
	assert.Equal(t, "15/03/1992", member.DateOfBirth)
}

func TestPublicOccurrenceEndpoints(t *testing.T) {
	app, db := newTestApp(t)
	occ := seedOccurrence(t, db, 20)

	status, envelope := doJSON(t, app, http.MethodGet, "/api/v1/classes/occurrences", "", nil)
	require.Equal(t, http.StatusOK, status)

	var occs []models.Occurrence
	require.NoError(t, json.Unmarshal(envelope.Data, &occs))
	require.Len(t, occs, 1)
	assert.Equal(t, occ.ID, occs[0].ID)

	status, envelope = doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/v1/classes/occurrences/%d", occ.ID), "", nil)
	require.Equal(t, http.StatusOK, status)

	var single models.Occurrence
	require.NoError(t, json.Unmarshal(envelope.Data, &single))
	assert.Equal(t, 20, single.MaxCapacity)

	status, _ = doJSON(t, app, http.MethodGet, "/api/v1/classes/occurrences/999", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestReconcileOccurrenceEndpoint(t *testing.T) {
	app, db := newTestApp(t)
	seedAccount(t, db, "admin", "ADMIN")
	occ := seedOccurrence(t, db, 10)
	token := login(t, app, "admin")

	// Drift the counter away from the live booking count
	require.NoError(t, db.Model(&models.Occurrence{}).Where("id = ?", occ.ID).
		UpdateColumn("current_capacity", 5).Error)

	path := fmt.Sprintf("/api/v1/admin/occurrences/%d/reconcile", occ.ID)
	status, envelope := doJSON(t, app, http.MethodPost, path, token, nil)
	require.Equal(t, http.StatusOK, status)

	var data struct {
		CurrentCapacity int `json:"current_capacity"`
	}
	require.NoError(t, json.Unmarshal(envelope.Data, &data))
	assert.Equal(t, 0, data.CurrentCapacity)
}

func TestSetCapacityEndpoint(t *testing.T) {
	app, db := newTestApp(t)
	seedAccount(t, db, "admin", "ADMIN")
	occ := seedOccurrence(t, db, 10)
	token := login(t, app, "admin")

	path := fmt.Sprintf("/api/v1/admin/occurrences/%d/capacity", occ.ID)
	status, envelope := doJSON(t, app, http.MethodPut, path, token, fiber.Map{"max_capacity": 4})
	require.Equal(t, http.StatusOK, status)

	var updated models.Occurrence
	require.NoError(t, json.Unmarshal(envelope.Data, &updated))
	assert.Equal(t, 4, updated.MaxCapacity)

	// The capacity edit rewrites the timetable snapshot file
	raw, err := os.ReadFile(config.AppConfig.TimetablePath)
	require.NoError(t, err)
	var doc domain.Timetable
	require.NoError(t, json.Unmarshal(raw, &doc))
	require.Len(t, doc, 1)
	require.Len(t, doc[0].Occurrences, 1)
	assert.Equal(t, 4, doc[0].Occurrences[0].MaxCapacity)

	status, _ = doJSON(t, app, http.MethodPut, path, token, fiber.Map{"max_capacity": 0})
	assert.Equal(t, http.StatusBadRequest, status)
}
