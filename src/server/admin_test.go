package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"market-dashboard/src/helpers"
	"market-dashboard/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubAccounts records every call as "Method arg".
type stubAccounts struct {
	mu    sync.Mutex
	calls []string
	// err is returned by the user actions
	err error
}

func (a *stubAccounts) record(format string, args ...interface{}) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, fmt.Sprintf(format, args...))
}

func (a *stubAccounts) Calls() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.calls...)
}

func (a *stubAccounts) Register(ctx context.Context, data models.MRegisterData) (models.MMessageResponse, error) {
	a.record("Register %s", data.Username)
	return models.MMessageResponse{Message: "registered"}, nil
}

func (a *stubAccounts) Profile(ctx context.Context) (models.MUser, error) {
	a.record("Profile")
	return models.MUser{ID: "1", Username: "admin", Role: "admin"}, nil
}

func (a *stubAccounts) Me(ctx context.Context) (models.MUser, error) {
	a.record("Me")
	return models.MUser{ID: "1", Username: "admin", Role: "admin"}, nil
}

func (a *stubAccounts) Tickers(ctx context.Context) ([]string, error) {
	a.record("Tickers")
	return []string{"GAZP", "SBER"}, nil
}

func (a *stubAccounts) UploadLinearData(ctx context.Context, filename string, content io.Reader) (models.MUploadStats, error) {
	raw, _ := io.ReadAll(content)
	a.record("UploadLinearData %s %s", filename, raw)
	return models.MUploadStats{Message: "ok"}, nil
}

func (a *stubAccounts) UploadCandlestickData(ctx context.Context, filename string, content io.Reader) (models.MUploadStats, error) {
	raw, _ := io.ReadAll(content)
	a.record("UploadCandlestickData %s %s", filename, raw)
	return models.MUploadStats{Message: "ok"}, nil
}

func (a *stubAccounts) ResetData(ctx context.Context, ticker string) (models.MMessageResponse, error) {
	a.record("ResetData %s", ticker)
	return models.MMessageResponse{Message: "reset"}, nil
}

func (a *stubAccounts) SetIndicators(ctx context.Context, settings models.MIndicatorSettings) (models.MMessageResponse, error) {
	a.record("SetIndicators %v %d", settings.EmaPeriods, settings.RsiPeriod)
	return models.MMessageResponse{Message: "saved"}, nil
}

func (a *stubAccounts) CreateInvite(ctx context.Context, req models.MInviteRequest) (models.MInvite, error) {
	a.record("CreateInvite %s", req.UsernameFor)
	return models.MInvite{ID: "inv-1", InviteCode: "CODE"}, nil
}

func (a *stubAccounts) MyInvites(ctx context.Context) ([]models.MInvite, error) {
	a.record("MyInvites")
	return []models.MInvite{{ID: "inv-1"}}, nil
}

func (a *stubAccounts) ValidateInvite(ctx context.Context, code string) (map[string]interface{}, error) {
	a.record("ValidateInvite %s", code)
	return map[string]interface{}{"valid": true}, nil
}

func (a *stubAccounts) DeleteInvite(ctx context.Context, id string) (models.MMessageResponse, error) {
	a.record("DeleteInvite %s", id)
	return models.MMessageResponse{Message: "deleted"}, nil
}

func (a *stubAccounts) Users(ctx context.Context) ([]models.MApiUser, error) {
	a.record("Users")
	return []models.MApiUser{{ID: 1, Username: "admin"}, {ID: 2, Username: "viewer"}}, nil
}

func (a *stubAccounts) DeleteUser(ctx context.Context, id int) (models.MMessageResponse, error) {
	a.record("DeleteUser %d", id)
	return models.MMessageResponse{}, a.err
}

func (a *stubAccounts) ToggleUserActive(ctx context.Context, id int) (models.MMessageResponse, error) {
	a.record("ToggleUserActive %d", id)
	return models.MMessageResponse{}, a.err
}

func (a *stubAccounts) MakeUserAdmin(ctx context.Context, id int) (models.MMessageResponse, error) {
	a.record("MakeUserAdmin %d", id)
	return models.MMessageResponse{}, a.err
}

// -----------------------------------------------------------------------------

func newAdminServer(t *testing.T, acc *stubAccounts) *DashboardServer {
	t.Helper()
	s := newTestServer(t, &stubBackend{})
	s.deps.Accounts = acc
	return s
}

func upload(t *testing.T, s *DashboardServer, path, filename, content string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestAdminRoutesNeedAccountBackend(t *testing.T) {
	s := newTestServer(t, &stubBackend{})

	assert.Equal(t, http.StatusServiceUnavailable, do(t, s, http.MethodGet, "/api/admin/users", "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, do(t, s, http.MethodGet, "/api/auth/me", "").Code)
}

func TestAuthRoutes(t *testing.T) {
	acc := &stubAccounts{}
	s := newAdminServer(t, acc)

	w := do(t, s, http.MethodPost, "/api/auth/register", `{"username":"bob","password":"pw","invite_code":"CODE"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "registered")

	w = do(t, s, http.MethodPost, "/api/auth/register", `{"username":"bob"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, s, http.MethodGet, "/api/auth/me", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"role":"admin"`)
	require.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/api/auth/profile", "").Code)

	w = do(t, s, http.MethodGet, "/api/tickers", "")
	assert.JSONEq(t, `{"tickers":["GAZP","SBER"]}`, w.Body.String())

	assert.Equal(t, []string{"Register bob", "Me", "Profile", "Tickers"}, acc.Calls())
}

func TestUploadPicksImporter(t *testing.T) {
	acc := &stubAccounts{}
	s := newAdminServer(t, acc)

	require.Equal(t, http.StatusOK, upload(t, s, "/api/admin/upload", "prices.xlsx", "linear").Code)
	require.Equal(t, http.StatusOK, upload(t, s, "/api/admin/upload?type=candlestick", "ohlc.xlsx", "candles").Code)

	assert.Equal(t, []string{
		"UploadLinearData prices.xlsx linear",
		"UploadCandlestickData ohlc.xlsx candles",
	}, acc.Calls())

	w := do(t, s, http.MethodPost, "/api/admin/upload", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestResetAndIndicatorSettings(t *testing.T) {
	acc := &stubAccounts{}
	s := newAdminServer(t, acc)
	indicatorsOf(t, s, "A")

	require.Equal(t, http.StatusOK, do(t, s, http.MethodPost, "/api/admin/reset?ticker=GAZP", "").Code)

	w := do(t, s, http.MethodPut, "/api/admin/indicators", `{"ema_periods":[10,30],"rsi_period":7}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	// the stub backend still reports its own settings after the refetch
	assert.Contains(t, w.Body.String(), `"ema_periods":[20]`)
	assert.Empty(t, s.deps.Indicators.LoadedTickers())

	w = do(t, s, http.MethodPut, "/api/admin/indicators", `{"ema_periods":[],"rsi_period":7}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Equal(t, []string{"ResetData GAZP", "SetIndicators [10 30] 7"}, acc.Calls())
}

func TestInviteAndUserRoutes(t *testing.T) {
	acc := &stubAccounts{}
	s := newAdminServer(t, acc)

	require.Equal(t, http.StatusCreated, do(t, s, http.MethodPost, "/api/admin/invites", `{"username_for":"bob"}`).Code)
	require.Equal(t, http.StatusCreated, do(t, s, http.MethodPost, "/api/admin/invites", "").Code)
	require.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/api/admin/invites", "").Code)
	require.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/api/admin/invites/CODE/validate", "").Code)
	require.Equal(t, http.StatusOK, do(t, s, http.MethodDelete, "/api/admin/invites/inv-1", "").Code)

	w := do(t, s, http.MethodGet, "/api/admin/users", "")
	require.Equal(t, http.StatusOK, w.Code)
	var users struct {
		Users []models.MApiUser `json:"users"`
		Total int               `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &users))
	assert.Equal(t, 2, users.Total)

	require.Equal(t, http.StatusOK, do(t, s, http.MethodDelete, "/api/admin/users/2", "").Code)
	require.Equal(t, http.StatusOK, do(t, s, http.MethodPost, "/api/admin/users/2/toggle-active", "").Code)
	require.Equal(t, http.StatusOK, do(t, s, http.MethodPost, "/api/admin/users/2/make-admin", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodDelete, "/api/admin/users/two", "").Code)

	assert.Equal(t, []string{
		"CreateInvite bob", "CreateInvite ", "MyInvites", "ValidateInvite CODE", "DeleteInvite inv-1",
		"Users", "DeleteUser 2", "ToggleUserActive 2", "MakeUserAdmin 2",
	}, acc.Calls())
}

func TestAdminBackendRejectionKeepsStatus(t *testing.T) {
	acc := &stubAccounts{err: helpers.NewBackendError(http.StatusForbidden, "admin role required")}
	s := newAdminServer(t, acc)

	w := do(t, s, http.MethodPost, "/api/admin/users/3/make-admin", "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "error"))
}
