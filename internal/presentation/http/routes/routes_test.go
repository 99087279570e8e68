package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/connectingdots/erp-backend/internal/application/container"
	"github.com/connectingdots/erp-backend/internal/application/services"
	"github.com/connectingdots/erp-backend/internal/infrastructure/caching/stores"
	"github.com/connectingdots/erp-backend/internal/infrastructure/observability/logging"
	"github.com/connectingdots/erp-backend/internal/infrastructure/observability/metrics"
	"github.com/connectingdots/erp-backend/internal/infrastructure/persistence/database"
	"github.com/connectingdots/erp-backend/internal/infrastructure/security"
	"github.com/connectingdots/erp-backend/pkg/config"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPassword = "correct-horse"

type testEnv struct {
	t      *testing.T
	router http.Handler
	c      *container.Container
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	config.BcryptCost = 4
	config.MaxLoginAttempts = 3
	config.MediaDir = t.TempDir()

	db, err := database.NewInMemory("routes_" + security.GenerateULID())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	tc := database.NewTableCreator()
	require.NoError(t, tc.CreateSchema(ctx, db.DB))
	_, err = tc.SeedDefaults(ctx, db.DB)
	require.NoError(t, err)

	logger := logging.NewDiscardLogger()
	cache := stores.NewSettingsStore(config.SettingsCacheTTL, logger)
	c := container.NewContainer(db, cache, nil, logger, metrics.New())
	return &testEnv{t: t, router: SetupRoutes(c), c: c}
}

func (e *testEnv) do(method, path, token string, body any, headers ...string) *httptest.ResponseRecorder {
	e.t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(e.t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func (e *testEnv) createAdmin(username, role string) string {
	e.t.Helper()
	acct, err := e.c.AdminService.Create(context.Background(), services.Caller{}, services.NewAdmin{
		Username: username,
		Password: testPassword,
		Role:     role,
	})
	require.NoError(e.t, err)
	return acct.ID
}

func (e *testEnv) login(username string) string {
	e.t.Helper()
	rec := e.do(http.MethodPost, "/api/admin-login", "", map[string]string{"username": username, "password": testPassword})
	require.Equal(e.t, http.StatusOK, rec.Code, rec.Body.String())
	return decode[map[string]any](e.t, rec)["token"].(string)
}

func (e *testEnv) submitLead(name, email, contact string) {
	e.t.Helper()
	rec := e.do(http.MethodPost, "/api/contact-form", "", map[string]string{
		"name": name, "email": email, "contact": contact, "coursename": "Data Science",
	})
	require.Equal(e.t, http.StatusCreated, rec.Code, rec.Body.String())
}

func (e *testEnv) leadIDs(token string) []string {
	e.t.Helper()
	rec := e.do(http.MethodGet, "/api/leads", token, nil)
	require.Equal(e.t, http.StatusOK, rec.Code, rec.Body.String())
	var ids []string
	for _, l := range decode[[]map[string]any](e.t, rec) {
		ids = append(ids, l["_id"].(string))
	}
	return ids
}

func TestPublicEndpoints(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/api/ping", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Server is awake!", decode[map[string]string](t, rec)["message"])

	rec = env.do(http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(http.MethodGet, "/api/blogs/ping", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `erp_http_requests_total{method="GET",route="/api/ping",status="200"} 1`)
}

func TestOriginGuard(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/api/ping", "", nil, "Origin", "https://evil.example")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(http.MethodGet, "/api/ping", "", nil, "Origin", "http://localhost:3000")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestLoginLockout(t *testing.T) {
	env := newTestEnv(t)
	env.createAdmin("counselor", "EditMode")

	attempt := func(password string) (int, string) {
		rec := env.do(http.MethodPost, "/api/admin-login", "", map[string]string{"username": "counselor", "password": password})
		return rec.Code, decode[map[string]any](t, rec)["message"].(string)
	}

	code, msg := attempt("wrong")
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Invalid username/email or password. You have 2 attempts remaining.", msg)

	_, msg = attempt("wrong")
	assert.Equal(t, "Invalid username/email or password. You have 1 attempts remaining.", msg)

	_, msg = attempt("wrong")
	assert.Equal(t, "Invalid password. Your account has been deactivated due to 3 failed login attempts. Please contact an administrator.", msg)

	code, msg = attempt(testPassword)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Your account is currently inactive. Please contact an administrator.", msg)

	rec := env.do(http.MethodPost, "/api/admin-login", "", map[string]string{"username": "counselor"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	env.createAdmin("root", "SuperAdmin")
	token := env.login("root")
	rec = env.do(http.MethodGet, "/api/login-history", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[map[string]any](t, rec)
	assert.EqualValues(t, 5, page["totalItems"])

	rec = env.do(http.MethodGet, "/api/audit-logs?action=account_deactivated", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode[map[string]any](t, rec)["totalItems"])
}

func TestSubmitRejectsDuplicatesButContactFormDoesNot(t *testing.T) {
	env := newTestEnv(t)
	form := map[string]string{"name": "Asha", "email": "Asha@Example.com", "contact": "9876543210"}

	rec := env.do(http.MethodPost, "/api/submit", "", form)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = env.do(http.MethodPost, "/api/submit", "", map[string]string{"name": "Asha", "email": "asha@example.com", "contact": "1112223334"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "This email address is already registered. Please use a different email.", decode[map[string]string](t, rec)["message"])

	rec = env.do(http.MethodPost, "/api/submit", "", map[string]string{"name": "Ravi", "email": "ravi@example.com", "contact": "9876543210"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodPost, "/api/submit", "", map[string]string{"name": "Ravi"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	env.submitLead("Asha", "asha@example.com", "9876543210")
	env.submitLead("Asha", "asha@example.com", "9876543210")

	rec = env.do(http.MethodPost, "/api/contact-form", "", map[string]string{"name": "Asha"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	env.createAdmin("root", "SuperAdmin")
	rec = env.do(http.MethodGet, "/api/leads/count", env.login("root"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 3, decode[map[string]any](t, rec)["count"])
}

func TestDashboardRequiresTokenAndRole(t *testing.T) {
	env := newTestEnv(t)
	env.createAdmin("viewer", "ViewMode")
	token := env.login("viewer")

	rec := env.do(http.MethodGet, "/api/leads", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(http.MethodGet, "/api/leads", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(http.MethodGet, "/api/leads", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(http.MethodGet, "/api/admins", token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Forbidden", decode[map[string]string](t, rec)["message"])

	rec = env.do(http.MethodGet, "/api/system/log-levels", token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(http.MethodGet, "/api/current-admin", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "viewer", decode[map[string]any](t, rec)["username"])
}

func TestRestrictedLeadEditing(t *testing.T) {
	env := newTestEnv(t)
	env.createAdmin("root", "SuperAdmin")
	editorID := env.createAdmin("editor", "EditMode")
	root := env.login("root")
	editor := env.login("editor")

	env.submitLead("Meera", "meera@example.com", "9000000001")
	ids := env.leadIDs(root)
	require.Len(t, ids, 1)
	path := "/api/leads/" + ids[0]

	rec := env.do(http.MethodPut, "/api/settings/restrictLeadEditing", root, map[string]any{"value": true})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(http.MethodPatch, path, editor, map[string]any{"status": "Contacted"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, true, decode[map[string]any](t, rec)["restricted"])

	rec = env.do(http.MethodPatch, path, root, map[string]any{"assignedTo": editorID})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(http.MethodPatch, path, editor, map[string]any{"status": "Contacted", "contactedScore": 8})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[map[string]any](t, rec)["lead"].(map[string]any)
	assert.Equal(t, "Contacted", updated["status"])
	assert.EqualValues(t, 8, updated["contactedScore"])

	rec = env.do(http.MethodPatch, path, root, map[string]any{"assignedTo": security.NewObjectID()})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodPatch, "/api/leads/not-an-id", root, map[string]any{"status": "New"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodPatch, "/api/leads/"+security.NewObjectID(), root, map[string]any{"status": "New"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFilterAndBulkOperations(t *testing.T) {
	env := newTestEnv(t)
	env.createAdmin("root", "SuperAdmin")
	root := env.login("root")

	env.submitLead("Kiran Rao", "kiran@example.com", "9000000011")
	env.submitLead("Leela Das", "leela@example.com", "9000000012")
	env.submitLead("Mohan Iyer", "mohan@example.com", "9000000013")

	rec := env.do(http.MethodGet, "/api/leads/filter?search=leela", root, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	found := decode[[]map[string]any](t, rec)
	require.Len(t, found, 1)
	assert.Equal(t, "Leela Das", found[0]["name"])

	rec = env.do(http.MethodGet, "/api/leads/filter?assignedTo=unassigned&status=New", root, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]map[string]any](t, rec), 3)

	ids := env.leadIDs(root)
	require.Len(t, ids, 3)

	rec = env.do(http.MethodPut, "/api/leads/bulk-update", root, map[string]any{
		"leadIds":    ids[:2],
		"updateData": map[string]any{"status": "Rejected"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.EqualValues(t, 2, decode[map[string]any](t, rec)["modifiedCount"])

	rec = env.do(http.MethodPut, "/api/leads/bulk-update", root, map[string]any{"leadIds": ids, "updateData": map[string]any{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodDelete, "/api/leads/bulk-delete", root, map[string]any{"leadIds": []string{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodDelete, "/api/leads/bulk-delete", root, map[string]any{"leadIds": []string{"bogus"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodDelete, "/api/leads/bulk-delete", root, map[string]any{"leadIds": ids})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.EqualValues(t, 3, decode[map[string]any](t, rec)["deletedCount"])
	assert.Empty(t, env.leadIDs(root))

	rec = env.do(http.MethodGet, "/api/audit-logs?action=bulk_delete_leads", root, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[map[string]any](t, rec)
	assert.EqualValues(t, 1, page["totalItems"])
	assert.EqualValues(t, 1, page["currentPage"])

	rec = env.do(http.MethodGet, "/api/audit-logs?adminId=nope", root, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 0, decode[map[string]any](t, rec)["totalItems"])
}

func TestSettingsEndpoints(t *testing.T) {
	env := newTestEnv(t)
	env.createAdmin("root", "SuperAdmin")
	root := env.login("root")

	rec := env.do(http.MethodGet, "/api/settings", root, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]map[string]any](t, rec), 5)

	rec = env.do(http.MethodPost, "/api/settings", root, map[string]any{"key": "banner"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodPost, "/api/settings", root, map[string]any{"key": "banner", "value": "Admissions open", "description": "Top banner"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = env.do(http.MethodPost, "/api/settings", root, map[string]any{"key": "banner", "value": "again"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(http.MethodPut, "/api/settings/maxLeadsToDisplay", root, map[string]any{"value": "lots"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodPut, "/api/settings/maxLeadsToDisplay", root, map[string]any{"value": 25})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(http.MethodGet, "/api/settings/maxLeadsToDisplay", root, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 25, decode[map[string]any](t, rec)["value"])

	rec = env.do(http.MethodGet, "/api/settings/unknownKey", root, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestActivityTracking(t *testing.T) {
	env := newTestEnv(t)
	env.createAdmin("root", "SuperAdmin")
	root := env.login("root")

	rec := env.do(http.MethodPost, "/api/activity", root, map[string]any{"page": "/leads"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodPost, "/api/activity", root, map[string]any{"action": "view", "page": "/leads", "details": map[string]int{"rows": 3}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(http.MethodGet, "/api/admin-activity", root, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode[map[string]any](t, rec)["totalItems"])
}

func TestBlogAuthentication(t *testing.T) {
	env := newTestEnv(t)
	env.createAdmin("root", "SuperAdmin")
	root := env.login("root")

	rec := env.do(http.MethodPost, "/api/blogs-auth", "", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodPost, "/api/blogs-auth", "", map[string]string{"token": "garbage"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(http.MethodPost, "/api/blogs-auth", "", map[string]string{"token": root})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	blogToken := decode[map[string]any](t, rec)["blogToken"].(string)

	rec = env.do(http.MethodPost, "/api/blogs", root, map[string]string{"title": "x"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	post := map[string]string{
		"title": "Why SQL", "slug": " Why-SQL ", "content": "<p>Because.</p>",
		"category": "Data", "subcategory": "Databases", "author": "Root",
	}
	rec = env.do(http.MethodPost, "/api/blogs", blogToken, post)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = env.do(http.MethodPost, "/api/blogs", blogToken, post)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(http.MethodGet, "/api/blogs/slug/why-sql", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(http.MethodGet, "/api/blogs", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[map[string]any](t, rec)["data"], 1)

	rec = env.do(http.MethodPost, "/api/auth/register", "", map[string]string{"username": "writer", "password": "secret1", "role": "superadmin"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	user := decode[map[string]any](t, rec)["user"].(map[string]any)
	assert.Equal(t, "user", user["role"])

	rec = env.do(http.MethodPost, "/api/auth/register", "", map[string]string{"username": "writer", "password": "secret1"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(http.MethodPost, "/api/auth/register", "", map[string]string{"username": "scribe", "email": "not-an-email", "password": "abc"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	invalid := decode[map[string]any](t, rec)
	assert.Equal(t, "Validation failed", invalid["message"])
	assert.Len(t, invalid["errors"], 2)

	rec = env.do(http.MethodPost, "/api/auth/login", "", map[string]string{"username": "writer", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(http.MethodPost, "/api/auth/login", "", map[string]string{"username": "writer", "password": "secret1"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	writerToken := decode[map[string]any](t, rec)["token"].(string)

	rec = env.do(http.MethodGet, "/api/auth/validate-token", writerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode[map[string]any](t, rec)["valid"])

	rec = env.do(http.MethodPost, "/api/blogs", writerToken, post)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(http.MethodGet, "/api/auth/users", writerToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(http.MethodGet, "/api/auth/users", blogToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[map[string]any](t, rec)["users"], 1)

	rec = env.do(http.MethodGet, "/api/auth/validate-token", root, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogLevelEndpoints(t *testing.T) {
	env := newTestEnv(t)
	env.createAdmin("root", "SuperAdmin")
	root := env.login("root")

	rec := env.do(http.MethodPut, "/api/system/log-levels", root, map[string]string{"channel": "leads", "level": "DEBUG"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	channels := decode[map[string]map[string]string](t, rec)["channels"]
	assert.Equal(t, "DEBUG", channels["leads"])

	rec = env.do(http.MethodPut, "/api/system/log-levels", root, map[string]string{"channel": "billing", "level": "DEBUG"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodPut, "/api/system/log-levels", root, map[string]string{"channel": "leads", "level": "LOUD"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodGet, "/api/system/logs/stream", root, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAdminManagement(t *testing.T) {
	env := newTestEnv(t)
	rootID := env.createAdmin("root", "SuperAdmin")
	root := env.login("root")

	rec := env.do(http.MethodPost, "/api/admins", root, map[string]string{"username": "asst", "password": "pw123456", "role": "Admin", "location": "Pune"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[map[string]any](t, rec)["admin"].(map[string]any)
	id := created["id"].(string)
	assert.NotContains(t, rec.Body.String(), "password")

	rec = env.do(http.MethodPost, "/api/admins", root, map[string]string{"username": "asst", "password": "pw123456", "role": "Admin"})
	assert.GreaterOrEqual(t, rec.Code, http.StatusBadRequest)

	asst := env.do(http.MethodPost, "/api/admin-login", "", map[string]string{"username": "asst", "password": "pw123456"})
	require.Equal(t, http.StatusOK, asst.Code)
	asstToken := decode[map[string]any](t, asst)["token"].(string)

	rec = env.do(http.MethodGet, "/api/admins", asstToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(http.MethodDelete, fmt.Sprintf("/api/admins/%s", id), asstToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(http.MethodDelete, fmt.Sprintf("/api/admins/%s", id), root, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(http.MethodDelete, "/api/admins/"+rootID, root, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "You cannot delete yourself.", decode[map[string]string](t, rec)["message"])

	rec = env.do(http.MethodGet, "/api/audit-logs", root, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "delete_admin"))
}

func TestLocationBasedAssignment(t *testing.T) {
	env := newTestEnv(t)
	env.createAdmin("root", "SuperAdmin")
	campID := env.createAdmin("camp", "EditMode")
	puneID := env.createAdmin("pune", "EditMode")
	root := env.login("root")

	mapping := json.RawMessage(fmt.Sprintf(`{%q:["Pune Camp"],%q:["pune"]}`, campID, puneID))
	rec := env.do(http.MethodPut, "/api/settings/locationAssignments", root, map[string]any{"value": mapping})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = env.do(http.MethodPut, "/api/settings/locationBasedAssignment", root, map[string]any{"value": true})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assigneeOf := func(name, location string) any {
		rec := env.do(http.MethodPost, "/api/contact-form", "", map[string]string{
			"name": name, "email": strings.ToLower(name) + "@example.com", "contact": "90000" + name, "location": location,
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		rec = env.do(http.MethodGet, "/api/leads/filter?search="+name, root, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		found := decode[[]map[string]any](t, rec)
		require.Len(t, found, 1)
		assignee, ok := found[0]["assignedTo"].(map[string]any)
		if !ok {
			return nil
		}
		return assignee["_id"]
	}

	assert.Equal(t, puneID, assigneeOf("Exact", "Pune"))
	assert.Equal(t, campID, assigneeOf("Camp", "pune camp"))
	assert.Equal(t, puneID, assigneeOf("Partial", "Pune East"))
	assert.Nil(t, assigneeOf("Nowhere", "Nagpur"))

	rec = env.do(http.MethodPut, "/api/admins/"+puneID, root, map[string]any{"active": false})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Nil(t, assigneeOf("Inactive", "Pune"))

	rec = env.do(http.MethodPut, "/api/settings/locationAssignments", root, map[string]any{"value": map[string]any{"not-an-id": []string{"Pune"}}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSuccessfulLoginResetsAttempts(t *testing.T) {
	env := newTestEnv(t)
	env.createAdmin("counselor", "EditMode")

	attempt := func(password string) int {
		rec := env.do(http.MethodPost, "/api/admin-login", "", map[string]string{"username": "counselor", "password": password})
		return rec.Code
	}

	for round := 0; round < 2; round++ {
		assert.Equal(t, http.StatusUnauthorized, attempt("wrong"))
		assert.Equal(t, http.StatusUnauthorized, attempt("wrong"))
		assert.Equal(t, http.StatusOK, attempt(testPassword), "round %d", round)
	}

	rec := env.do(http.MethodGet, "/api/current-admin", env.login("counselor"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	current := decode[map[string]any](t, rec)
	assert.True(t, current["active"].(bool))
	assert.NotEmpty(t, current["lastLogin"])
	assert.NotContains(t, current, "loginAttempts")
}

func TestLeadListHonorsDisplaySettings(t *testing.T) {
	env := newTestEnv(t)
	env.createAdmin("root", "SuperAdmin")
	editorID := env.createAdmin("editor", "EditMode")
	root := env.login("root")
	editor := env.login("editor")

	env.submitLead("Anil", "anil@example.com", "9000000021")
	env.submitLead("Bela", "bela@example.com", "9000000022")
	env.submitLead("Chetan", "chetan@example.com", "9000000023")
	ids := env.leadIDs(root)
	require.Len(t, ids, 3)

	rec := env.do(http.MethodPatch, "/api/leads/"+ids[0], root, map[string]any{"assignedTo": editorID})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(http.MethodPut, "/api/settings/restrictCounselorView", root, map[string]any{"value": true})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []string{ids[0]}, env.leadIDs(editor))
	assert.Len(t, env.leadIDs(root), 3)

	rec = env.do(http.MethodPut, "/api/settings/maxLeadsToDisplay", root, map[string]any{"value": 2})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, ids[:2], env.leadIDs(root))
}

func TestEditEchoesStoredTimestamp(t *testing.T) {
	env := newTestEnv(t)
	env.createAdmin("root", "SuperAdmin")
	root := env.login("root")
	env.submitLead("Devika", "devika@example.com", "9000000031")
	ids := env.leadIDs(root)
	require.Len(t, ids, 1)

	rec := env.do(http.MethodPut, "/api/leads/"+ids[0], root, map[string]any{"notes": "call back"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	echoed := decode[map[string]any](t, rec)["lead"].(map[string]any)["updatedAt"]

	rec = env.do(http.MethodGet, "/api/leads", root, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	listed := decode[[]map[string]any](t, rec)
	require.Len(t, listed, 1)
	assert.Equal(t, echoed, listed[0]["updatedAt"])
}

func TestMalformedBodyIsRejected(t *testing.T) {
	env := newTestEnv(t)
	env.createAdmin("counselor", "EditMode")

	for _, path := range []string{"/api/admin-login", "/api/submit", "/api/contact-form"} {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(`{"username": "counselor",`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
		assert.Equal(t, "Malformed JSON request body.", decode[map[string]string](t, rec)["message"], path)
	}

	// the malformed login did not count as a failed attempt
	rec := env.do(http.MethodPost, "/api/admin-login", "", map[string]string{"username": "counselor", "password": "wrong"})
	assert.Equal(t, "Invalid username/email or password. You have 2 attempts remaining.", decode[map[string]any](t, rec)["message"])
}
