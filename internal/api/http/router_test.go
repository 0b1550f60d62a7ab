package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	nethttp "net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/KLAI0I/icu-nurse-dashboard/internal/api/http/handlers"
	"github.com/KLAI0I/icu-nurse-dashboard/internal/audit"
	"github.com/KLAI0I/icu-nurse-dashboard/internal/auth"
	"github.com/KLAI0I/icu-nurse-dashboard/internal/domain"
	"github.com/KLAI0I/icu-nurse-dashboard/internal/events"
	"github.com/KLAI0I/icu-nurse-dashboard/internal/observability"
	"github.com/KLAI0I/icu-nurse-dashboard/internal/policy"
	"github.com/KLAI0I/icu-nurse-dashboard/internal/repository/memory"
	"github.com/KLAI0I/icu-nurse-dashboard/internal/service"
	"github.com/KLAI0I/icu-nurse-dashboard/internal/storage"
	"github.com/KLAI0I/icu-nurse-dashboard/internal/temporal"
)

const (
	adminEmail    = "admin@icu.local"
	adminPassword = "Admin@12345"
	baseURL       = "http://files.test"
)

type testServer struct {
	app   *fiber.App
	cal   temporal.Calendar
	users *service.UserService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cal, err := temporal.NewCalendar("Asia/Riyadh")
	require.NoError(t, err)

	store := memory.NewStore()
	staffRepo := memory.NewStaffRepository(store)
	docRepo := memory.NewDocumentRepository(store)
	userRepo := memory.NewUserRepository(store)

	dispatcher := events.NewInMemoryDispatcher(zap.NewNop())
	metrics := observability.NewMetrics()
	metrics.Subscribe(dispatcher)

	local, err := storage.NewLocal(t.TempDir(), baseURL, "file-secret")
	require.NoError(t, err)

	core := service.Core{
		Tx:         store,
		Policy:     policy.New(),
		Ledger:     audit.NewLedger(memory.NewAuditRepository(store), cal),
		Calendar:   cal,
		Dispatcher: dispatcher,
	}
	tokens := auth.NewTokenManager("access", "refresh", 15*time.Minute, 24*time.Hour)

	staffSvc := service.NewStaffService(core, service.StaffDependencies{StaffRepo: staffRepo, DocumentRepo: docRepo})
	docSvc := service.NewDocumentService(core, service.DocumentDependencies{
		DocumentRepo: docRepo,
		StaffRepo:    staffRepo,
		Storage:      local,
		Scanner:      storage.NopScanner{},
		MaxFileBytes: 1 << 20,
		AllowedTypes: []string{"application/pdf", "image/jpeg", "image/png"},
		SignedURLTTL: time.Minute,
	})
	userSvc := service.NewUserService(core, service.UserDependencies{
		UserRepo: userRepo, StaffRepo: staffRepo, BcryptCost: bcrypt.MinCost,
	})
	authSvc := service.NewAuthService(core, service.AuthDependencies{
		UserRepo: userRepo, Sessions: memory.NewSessionStore(time.Now), Tokens: tokens, BcryptCost: bcrypt.MinCost,
	})

	created, err := userSvc.EnsureAdmin(context.Background(), adminEmail, adminPassword)
	require.NoError(t, err)
	require.True(t, created)

	app := fiber.New()
	RegisterMiddlewares(app, MiddlewareConfig{Metrics: metrics, Timeout: 5 * time.Second})
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("icu-staff-records", "test"),
		Auth:           handlers.NewAuthHandler(authSvc, false),
		Staff:          handlers.NewStaffHandler(staffSvc, cal),
		Users:          handlers.NewUsersHandler(userSvc),
		Documents:      handlers.NewDocumentsHandler(docSvc, cal),
		Audit:          handlers.NewAuditHandler(service.NewAuditService(core)),
		Files:          handlers.NewFilesHandler(local),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, userRepo),
		Metrics:        metrics.Handler(),
	})
	return &testServer{app: app, cal: cal, users: userSvc}
}

type apiResponse struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (int, apiResponse) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	return resp.StatusCode, decode(t, resp.Body)
}

func decode(t *testing.T, r io.Reader) apiResponse {
	t.Helper()
	raw, err := io.ReadAll(r)
	require.NoError(t, err)
	var out apiResponse
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &out)
	}
	return out
}

func (s *testServer) login(t *testing.T, email, password string) string {
	t.Helper()
	status, resp := s.do(t, fiber.MethodPost, "/api/auth/login", "", map[string]string{
		"email": email, "password": password,
	})
	require.Equal(t, fiber.StatusOK, status)
	var data struct {
		AccessToken string `json:"accessToken"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	require.NotEmpty(t, data.AccessToken)
	return data.AccessToken
}

func (s *testServer) date(days int) string {
	return s.cal.FormatDate(s.cal.AddDays(s.cal.StartOfDay(time.Now()), days))
}

func (s *testServer) staffPayload(idNo string) map[string]any {
	return map[string]any{
		"idNo":           idNo,
		"staffName":      "Nurse A Ahmed",
		"currentArea":    "ICU A",
		"currentPost":    "RN",
		"gender":         "FEMALE",
		"birthday":       "1990-03-10",
		"nationality":    "Saudi",
		"joiningDate":    s.date(-800),
		"contractExpire": s.date(200),
		"contractType":   "Full-time",
		"mobileNo":       "+966500000001",
		"personalEmail":  "nurse@example.com",
		"careEmail":      "nurse@hospital.local",
	}
}

func (s *testServer) createStaff(t *testing.T, token, idNo string) string {
	t.Helper()
	status, resp := s.do(t, fiber.MethodPost, "/api/staff", token, s.staffPayload(idNo))
	require.Equal(t, fiber.StatusCreated, status, "%+v", resp.Error)
	var data struct {
		ID             string `json:"id"`
		ContractStatus string `json:"contractStatus"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.Equal(t, "ACTIVE", data.ContractStatus)
	return data.ID
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	status, _ := s.do(t, fiber.MethodGet, "/health/live", "", nil)
	assert.Equal(t, fiber.StatusOK, status)

	resp, err := s.app.Test(httptest.NewRequest(fiber.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "icu_staff_http_requests_total")
}

func TestErrorEnvelope(t *testing.T) {
	s := newTestServer(t)

	status, resp := s.do(t, fiber.MethodGet, "/api/staff", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "UNAUTHORIZED", resp.Error.Code)

	status, resp = s.do(t, fiber.MethodGet, "/api/nope", "", nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)

	status, resp = s.do(t, fiber.MethodPost, "/api/auth/login", "", map[string]string{
		"email": adminEmail, "password": "wrong-password",
	})
	assert.Equal(t, fiber.StatusUnauthorized, status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "UNAUTHORIZED", resp.Error.Code)
}

func TestStaffValidation(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, adminEmail, adminPassword)

	payload := s.staffPayload("ICU-1")
	payload["personalEmail"] = "not-an-email"
	delete(payload, "staffName")
	status, resp := s.do(t, fiber.MethodPost, "/api/staff", token, payload)
	assert.Equal(t, fiber.StatusBadRequest, status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_FAILED", resp.Error.Code)
	assert.Equal(t, "email", resp.Error.Details["personalEmail"])
	assert.Equal(t, "required", resp.Error.Details["staffName"])

	payload = s.staffPayload("ICU-1")
	payload["birthday"] = "10/03/1990"
	status, resp = s.do(t, fiber.MethodPost, "/api/staff", token, payload)
	assert.Equal(t, fiber.StatusBadRequest, status)
	require.NotNil(t, resp.Error)
	assert.Contains(t, resp.Error.Details, "birthday")

	s.createStaff(t, token, "ICU-1")
	status, resp = s.do(t, fiber.MethodPost, "/api/staff", token, s.staffPayload("ICU-1"))
	assert.Equal(t, fiber.StatusConflict, status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "CONFLICT", resp.Error.Code)
}

func TestStaffRoleBoundaries(t *testing.T) {
	s := newTestServer(t)
	admin := s.login(t, adminEmail, adminPassword)
	own := s.createStaff(t, admin, "ICU-1001")
	other := s.createStaff(t, admin, "ICU-1002")

	status, resp := s.do(t, fiber.MethodPost, "/api/users", admin, map[string]any{
		"email": "staff0@icu.local", "password": "Staff@12345", "role": "STAFF", "staffId": own,
	})
	require.Equal(t, fiber.StatusCreated, status, "%+v", resp.Error)

	nurse := s.login(t, "staff0@icu.local", "Staff@12345")

	status, _ = s.do(t, fiber.MethodGet, "/api/staff", nurse, nil)
	assert.Equal(t, fiber.StatusForbidden, status)
	status, _ = s.do(t, fiber.MethodGet, "/api/staff/"+own, nurse, nil)
	assert.Equal(t, fiber.StatusOK, status)
	status, _ = s.do(t, fiber.MethodGet, "/api/staff/"+other, nurse, nil)
	assert.Equal(t, fiber.StatusForbidden, status)
	status, _ = s.do(t, fiber.MethodGet, "/api/audit", nurse, nil)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, resp = s.do(t, fiber.MethodPatch, "/api/staff/"+own+"/self", nurse, map[string]any{"mobileNo": "+966511111111"})
	assert.Equal(t, fiber.StatusOK, status, "%+v", resp.Error)

	status, _ = s.do(t, fiber.MethodPatch, "/api/staff/"+other+"/self", nurse, map[string]any{"mobileNo": "+966511111111"})
	assert.Equal(t, fiber.StatusForbidden, status)
}

func TestDocumentUploadAndDownload(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, adminEmail, adminPassword)
	staffID := s.createStaff(t, token, "ICU-2001")

	status, resp := s.do(t, fiber.MethodPost, "/api/docs/"+staffID, token, map[string]any{
		"docType": "IQAMA", "issueDate": s.date(-300), "expiryDate": s.date(10),
	})
	require.Equal(t, fiber.StatusCreated, status, "%+v", resp.Error)
	var doc struct {
		ID                 string `json:"id"`
		Status             string `json:"status"`
		RemainingDays      int    `json:"remainingDays"`
		VerificationStatus string `json:"verificationStatus"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &doc))
	assert.Equal(t, "ENDING_SOON", doc.Status)
	assert.Equal(t, 10, doc.RemainingDays)

	status, resp = s.do(t, fiber.MethodPost, "/api/docs/"+staffID, token, map[string]any{"docType": "PASSPORT"})
	assert.Equal(t, fiber.StatusBadRequest, status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_FAILED", resp.Error.Code)

	status, resp = s.upload(t, token, doc.ID, "scan copy.pdf", "application/pdf", []byte("%PDF-1.4 test"))
	require.Equal(t, fiber.StatusCreated, status, "%+v", resp.Error)
	var uploaded struct {
		Version struct {
			FileKey  string `json:"fileKey"`
			FileName string `json:"fileName"`
		} `json:"version"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &uploaded))
	assert.True(t, strings.HasSuffix(uploaded.Version.FileKey, "-scan_copy.pdf"))
	assert.Equal(t, "scan copy.pdf", uploaded.Version.FileName)

	status, resp = s.upload(t, token, doc.ID, "notes.txt", "text/plain", []byte("hello"))
	assert.Equal(t, fiber.StatusUnsupportedMediaType, status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_FILE_KIND", resp.Error.Code)

	status, resp = s.do(t, fiber.MethodGet, "/api/docs/"+doc.ID+"/signed-url", token, nil)
	require.Equal(t, fiber.StatusOK, status, "%+v", resp.Error)
	var link struct {
		URL string `json:"url"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &link))
	require.True(t, strings.HasPrefix(link.URL, baseURL+"/files/"))

	u, err := url.Parse(link.URL)
	require.NoError(t, err)
	fileResp, err := s.app.Test(httptest.NewRequest(fiber.MethodGet, u.RequestURI(), nil), -1)
	require.NoError(t, err)
	content, _ := io.ReadAll(fileResp.Body)
	assert.Equal(t, fiber.StatusOK, fileResp.StatusCode)
	assert.Equal(t, "%PDF-1.4 test", string(content))

	fileResp, err = s.app.Test(httptest.NewRequest(fiber.MethodGet, u.Path+"?token=forged", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, fileResp.StatusCode)

	status, resp = s.do(t, fiber.MethodPost, "/api/docs/"+doc.ID+"/verify", token, map[string]any{
		"status": "APPROVED", "note": "checked against original",
	})
	require.Equal(t, fiber.StatusOK, status, "%+v", resp.Error)
	require.NoError(t, json.Unmarshal(resp.Data, &doc))
	assert.Equal(t, "APPROVED", doc.VerificationStatus)

	status, resp = s.do(t, fiber.MethodGet, "/api/docs/"+doc.ID+"/versions", token, nil)
	require.Equal(t, fiber.StatusOK, status)
	var versions []json.RawMessage
	require.NoError(t, json.Unmarshal(resp.Data, &versions))
	assert.Len(t, versions, 1)

	status, resp = s.do(t, fiber.MethodGet, "/api/audit?document_id="+doc.ID, token, nil)
	require.Equal(t, fiber.StatusOK, status)
	var entries []struct {
		Action string `json:"action"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &entries))
	actions := make([]string, 0, len(entries))
	for _, e := range entries {
		actions = append(actions, e.Action)
	}
	assert.Contains(t, actions, string(domain.ActionDocUpload))
	assert.Contains(t, actions, string(domain.ActionDocVerify))
}

func (s *testServer) upload(t *testing.T, token, docID, name, contentType string, body []byte) (int, apiResponse) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+name+`"`)
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(body)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(fiber.MethodPost, "/api/docs/"+docID+"/upload", &buf)
	req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	return resp.StatusCode, decode(t, resp.Body)
}

func TestRefreshRotatesCookie(t *testing.T) {
	s := newTestServer(t)

	raw, _ := json.Marshal(map[string]string{"email": adminEmail, "password": adminPassword})
	req := httptest.NewRequest(fiber.MethodPost, "/api/auth/login", bytes.NewReader(raw))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	cookie := refreshCookie(t, resp.Cookies())

	refresh := func(value string) int {
		req := httptest.NewRequest(fiber.MethodPost, "/api/auth/refresh", nil)
		req.Header.Set(fiber.HeaderCookie, handlers.RefreshCookie+"="+value)
		resp, err := s.app.Test(req, -1)
		require.NoError(t, err)
		return resp.StatusCode
	}
	assert.Equal(t, fiber.StatusOK, refresh(cookie))
	assert.Equal(t, fiber.StatusUnauthorized, refresh(cookie), "rotated token is spent")
}

func refreshCookie(t *testing.T, cookies []*nethttp.Cookie) string {
	t.Helper()
	for _, c := range cookies {
		if c.Name == handlers.RefreshCookie {
			assert.True(t, c.HttpOnly)
			return c.Value
		}
	}
	t.Fatalf("refresh cookie not set")
	return ""
}

func TestExportCSV(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, adminEmail, adminPassword)
	s.createStaff(t, token, "ICU-3001")

	req := httptest.NewRequest(fiber.MethodGet, "/api/staff/export/csv", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentType), "text/csv")
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), service.ExportFileName)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "ICU-3001")
}

func TestRateLimiterPerClient(t *testing.T) {
	rl := NewRateLimiter(2)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.allow("10.0.0.1"))
	assert.True(t, rl.allow("10.0.0.1"))
	assert.False(t, rl.allow("10.0.0.1"))
	assert.True(t, rl.allow("10.0.0.2"), "buckets are per client")

	now = now.Add(30 * time.Second)
	assert.True(t, rl.allow("10.0.0.1"))

	now = now.Add(limiterIdleTTL + time.Minute)
	rl.allow("10.0.0.3")
	assert.Len(t, rl.clients, 1, "idle clients are swept")

	app := fiber.New()
	RegisterMiddlewares(app, MiddlewareConfig{})
	app.Use(NewRateLimiter(1).Handle)
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("ok") })
	first, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, first.StatusCode)
	second, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, second.StatusCode)
}

func TestQueryParamsAcceptBothSpellings(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, adminEmail, adminPassword)
	first := s.createStaff(t, token, "ICU-4001")
	s.createStaff(t, token, "ICU-4002")

	for _, key := range []string{"staff_id", "staffId"} {
		status, resp := s.do(t, fiber.MethodGet, "/api/audit?"+key+"="+first, token, nil)
		require.Equal(t, fiber.StatusOK, status, key)
		var entries []struct {
			StaffID *string `json:"staffId"`
		}
		require.NoError(t, json.Unmarshal(resp.Data, &entries))
		require.NotEmpty(t, entries, key)
		for _, e := range entries {
			require.NotNil(t, e.StaffID)
			assert.Equal(t, first, *e.StaffID, key)
		}
	}

	for _, key := range []string{"contract_status", "contractStatus"} {
		status, resp := s.do(t, fiber.MethodGet, "/api/staff?"+key+"=expired", token, nil)
		require.Equal(t, fiber.StatusOK, status, key)
		var page struct {
			Total int `json:"total"`
		}
		require.NoError(t, json.Unmarshal(resp.Data, &page))
		assert.Equal(t, 0, page.Total, key)
	}

	status, resp := s.do(t, fiber.MethodGet, "/api/audit?staffId=abc", token, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_FAILED", resp.Error.Code)

	status, resp = s.do(t, fiber.MethodGet, "/api/staff/abc", token, nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
}

func TestUploadChecksKindBeforeSize(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, adminEmail, adminPassword)
	staffID := s.createStaff(t, token, "ICU-5001")

	status, resp := s.do(t, fiber.MethodPost, "/api/docs/"+staffID, token, map[string]any{"docType": "DATA_FLOW"})
	require.Equal(t, fiber.StatusCreated, status, "%+v", resp.Error)
	var doc struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &doc))

	big := bytes.Repeat([]byte("a"), 1<<20+1)
	status, resp = s.upload(t, token, doc.ID, "huge.txt", "text/plain", big)
	assert.Equal(t, fiber.StatusUnsupportedMediaType, status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_FILE_KIND", resp.Error.Code)

	status, resp = s.upload(t, token, doc.ID, "huge.pdf", "application/pdf", big)
	assert.Equal(t, fiber.StatusRequestEntityTooLarge, status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "FILE_TOO_LARGE", resp.Error.Code)
}
