package http_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/lemonhall/oa-mvp/internal/config"
	internal_http "github.com/lemonhall/oa-mvp/internal/http"
	"github.com/lemonhall/oa-mvp/internal/log"
	"github.com/lemonhall/oa-mvp/internal/seed"
	internal_storage "github.com/lemonhall/oa-mvp/internal/storage"
	"github.com/lemonhall/oa-mvp/internal/testutil"
)

func TestE2EServer(t *testing.T) {
	gin.SetMode(gin.TestMode)

	testDB := testutil.SetupTestDB(t)
	defer testDB.Teardown(t)

	store, err := internal_storage.InitStore(testDB.ConnStr)
	assert.NoError(t, err)
	defer store.Close()
	assert.NoError(t, seed.Run(store, log.GetLogger()))

	settings := config.Settings{
		SecretKey:      "e2e-test-secret",
		AccessTokenTTL: time.Hour,
	}
	srv := httptest.NewServer(internal_http.NewServer(store, settings).Router())
	defer srv.Close()

	do := func(t *testing.T, method, path, token string, body interface{}) (*http.Response, map[string]interface{}) {
		t.Helper()
		var buf bytes.Buffer
		if body != nil {
			assert.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
		req, err := http.NewRequest(method, srv.URL+path, &buf)
		assert.NoError(t, err)
		req.Header.Set("Content-Type", "application/json")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		resp, err := srv.Client().Do(req)
		assert.NoError(t, err)
		defer resp.Body.Close()

		out := map[string]interface{}{}
		_ = json.NewDecoder(resp.Body).Decode(&out)
		return resp, out
	}

	doList := func(t *testing.T, path, token string) (*http.Response, []map[string]interface{}) {
		t.Helper()
		req, err := http.NewRequest(http.MethodGet, srv.URL+path, nil)
		assert.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := srv.Client().Do(req)
		assert.NoError(t, err)
		defer resp.Body.Close()

		var out []map[string]interface{}
		_ = json.NewDecoder(resp.Body).Decode(&out)
		return resp, out
	}

	login := func(t *testing.T, username, password string) string {
		t.Helper()
		resp, body := do(t, http.MethodPost, "/api/auth/login", "",
			map[string]string{"username": username, "password": password})
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		token, _ := body["access_token"].(string)
		assert.NotEmpty(t, token)
		return token
	}

	t.Run("HealthCheck", func(t *testing.T) {
		resp, body := do(t, http.MethodGet, "/api/health", "", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, true, body["ok"])
	})

	t.Run("LoginAndMe", func(t *testing.T) {
		token := login(t, "admin", "admin123")
		resp, body := do(t, http.MethodGet, "/api/auth/me", token, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "admin", body["username"])
		assert.Equal(t, "admin", body["role"])
		// The password hash never leaves the server.
		_, leaked := body["password_hash"]
		assert.False(t, leaked)
	})

	t.Run("BadLogin", func(t *testing.T) {
		resp, body := do(t, http.MethodPost, "/api/auth/login", "",
			map[string]string{"username": "admin", "password": "wrong"})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "UNAUTHORIZED", body["code"])
	})

	t.Run("MissingToken", func(t *testing.T) {
		resp, _ := do(t, http.MethodGet, "/api/requests", "", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("AdminRoutesRejectNonAdmins", func(t *testing.T) {
		token := login(t, "employee", "employee123")
		resp, _ := do(t, http.MethodGet, "/api/users", token, nil)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		resp, _ = do(t, http.MethodPost, "/api/workflows", token,
			map[string]interface{}{"name": "Sneaky", "request_type": "leave"})
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("ProcessCatalog", func(t *testing.T) {
		token := login(t, "employee", "employee123")
		resp, items := doList(t, "/api/process-types", token)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Len(t, items, 2)

		// The seeded reimburse type carries its form schema.
		var reimburse map[string]interface{}
		for _, it := range items {
			if it["code"] == "reimburse" {
				reimburse = it
			}
		}
		assert.NotNil(t, reimburse)
		assert.Equal(t, true, reimburse["requires_amount"])
		fields, _ := reimburse["fields"].([]interface{})
		assert.NotEmpty(t, fields)
	})

	t.Run("RequestLifecycle", func(t *testing.T) {
		employee := login(t, "employee", "employee123")
		approver := login(t, "approver", "approver123")
		finance := login(t, "finance", "finance123")

		resp, created := do(t, http.MethodPost, "/api/requests", employee, map[string]interface{}{
			"type":    "reimburse",
			"title":   "Team offsite travel",
			"content": "Train tickets",
			"amount":  86.40,
			"form":    map[string]interface{}{"category": "travel", "expense_date": "2026-08-20"},
		})
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		assert.Equal(t, "pending", created["status"])
		reqID := int64(created["id"].(float64))

		// Parked in the manager's inbox, not in finance's.
		resp, inbox := doList(t, "/api/approvals/pending", approver)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Len(t, inbox, 1)
		resp, inbox = doList(t, "/api/approvals/pending", finance)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Len(t, inbox, 0)

		// Finance cannot decide yet.
		resp, _ = do(t, http.MethodPost, fmt.Sprintf("/api/approvals/%d/decide", reqID), finance,
			map[string]string{"decision": "approved"})
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)

		// Manager approves; the request advances to the finance node.
		resp, decided := do(t, http.MethodPost, fmt.Sprintf("/api/approvals/%d/decide", reqID), approver,
			map[string]string{"decision": "approved", "comment": "ok"})
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "pending", decided["status"])

		resp, inbox = doList(t, "/api/approvals/pending", finance)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Len(t, inbox, 1)

		// Finance approves; the request is terminal.
		resp, decided = do(t, http.MethodPost, fmt.Sprintf("/api/approvals/%d/decide", reqID), finance,
			map[string]string{"decision": "approved", "comment": "receipts attached"})
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "approved", decided["status"])

		// A second decision bounces.
		resp, body := do(t, http.MethodPost, fmt.Sprintf("/api/approvals/%d/decide", reqID), finance,
			map[string]string{"decision": "rejected"})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_STATE", body["code"])

		// The detail view shows the full trail.
		resp, detail := do(t, http.MethodGet, fmt.Sprintf("/api/requests/%d/detail", reqID), employee, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		nodes, _ := detail["nodes"].([]interface{})
		assert.Len(t, nodes, 2)
		first, _ := nodes[0].(map[string]interface{})
		second, _ := nodes[1].(map[string]interface{})
		assert.Equal(t, "approved", first["status"])
		assert.Equal(t, "approver", first["decided_by_username"])
		assert.Equal(t, "approved", second["status"])
		history, _ := detail["history"].([]interface{})
		assert.Len(t, history, 2)
		form, _ := detail["form"].(map[string]interface{})
		assert.Equal(t, "travel", form["category"])
	})

	t.Run("ValidationOverHTTP", func(t *testing.T) {
		employee := login(t, "employee", "employee123")

		resp, body := do(t, http.MethodPost, "/api/requests", employee, map[string]interface{}{
			"type": "reimburse", "title": "No amount",
			"form": map[string]interface{}{"category": "travel", "expense_date": "2026-08-20"},
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "VALIDATION_ERROR", body["code"])

		resp, body = do(t, http.MethodPost, "/api/requests", employee, map[string]interface{}{
			"type": "reimburse", "title": "No category", "amount": 10,
			"form": map[string]interface{}{"expense_date": "2026-08-20"},
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, body["error"], "category")
	})

	t.Run("AdminWorkflowManagement", func(t *testing.T) {
		admin := login(t, "admin", "admin123")

		resp, pos := do(t, http.MethodPost, "/api/positions", admin,
			map[string]string{"name": "Director", "description": "Second level sign-off"})
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		posID := int64(pos["id"].(float64))

		resp, wf := do(t, http.MethodPost, "/api/workflows", admin,
			map[string]interface{}{"name": "Travel approval draft", "request_type": "travel", "is_active": false})
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		wfID := int64(wf["id"].(float64))

		resp, _ = do(t, http.MethodPost, fmt.Sprintf("/api/workflows/%d/nodes", wfID), admin,
			map[string]interface{}{"step_order": 1, "position_id": posID, "name": "Director review"})
		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		// Duplicate step order is a conflict.
		resp, body := do(t, http.MethodPost, fmt.Sprintf("/api/workflows/%d/nodes", wfID), admin,
			map[string]interface{}{"step_order": 1, "position_id": posID, "name": "Again"})
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		assert.Equal(t, "CONFLICT", body["code"])

		// A second active leave workflow is a conflict.
		resp, body = do(t, http.MethodPost, "/api/workflows", admin,
			map[string]interface{}{"name": "Leave v2", "request_type": "leave", "is_active": true})
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		assert.Equal(t, "CONFLICT", body["code"])
	})

	t.Run("Announcements", func(t *testing.T) {
		admin := login(t, "admin", "admin123")
		employee := login(t, "employee", "employee123")

		resp, _ := do(t, http.MethodPost, "/api/announcements", employee,
			map[string]string{"title": "Not allowed", "content": "x"})
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)

		resp, _ = do(t, http.MethodPost, "/api/announcements", admin,
			map[string]string{"title": "Office closed Friday", "content": "National holiday"})
		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		resp, items := doList(t, "/api/announcements", employee)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Len(t, items, 1)
		assert.Equal(t, "Office closed Friday", items[0]["title"])
	})
}
