package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"

	"tablet-checkout/internal/auth"
	"tablet-checkout/internal/checkout"
	"tablet-checkout/internal/config"
	"tablet-checkout/internal/directory"
	"tablet-checkout/internal/storage"
)

const testAdminPassword = "test-admin-pw"

func init() {
	gin.SetMode(gin.TestMode)
}

type RoutesSuite struct {
	suite.Suite
	store  *storage.MemoryProvider
	signer *auth.Signer
	router *gin.Engine
	ctx    context.Context
}

func TestRoutesSuite(t *testing.T) {
	suite.Run(t, new(RoutesSuite))
}

func (s *RoutesSuite) SetupTest() {
	s.store = storage.NewMemoryProvider()
	s.signer = auth.NewSigner("test-secret", 7)
	s.ctx = context.Background()
	s.router = s.buildRouter(s.store)

	s.seedTablet("t1", "Tablet 1", true)
	s.seedTablet("t2", "Tablet 2", true)
	s.seedMember("m1", "Alice", "E001", "1234", true)
	s.seedMember("m2", "Bob", "E002", "5678", false)
}

// API routes only; page routes need the HTML template set and are not
// exercised here.
func (s *RoutesSuite) buildRouter(store storage.Provider) *gin.Engine {
	api := &API{
		Store:     store,
		Engine:    checkout.NewEngine(store),
		Directory: directory.New(store),
		Signer:    s.signer,
		Cfg:       &config.Config{AdminPassword: testAdminPassword},
	}

	r := gin.New()
	r.Use(ErrorHandler())
	apiGroup := r.Group("/api")
	api.TabletRoutes(apiGroup)
	api.MemberRoutes(apiGroup)
	api.LogRoutes(apiGroup)
	api.AuthRoutes(apiGroup.Group("/auth"))
	return r
}

func (s *RoutesSuite) seedTablet(id, name string, active bool) {
	s.Require().NoError(s.store.CreateTablet(s.ctx, storage.Tablet{ID: id, Name: name, IsActive: active}))
}

func (s *RoutesSuite) seedMember(id, name, empID, pin string, active bool) {
	now := time.Now().UTC()
	s.Require().NoError(s.store.CreateMember(s.ctx, storage.Member{
		ID: id, Name: name, EmpID: empID, Pin: pin,
		IsActive: active, CreatedAt: now, UpdatedAt: now,
	}))
}

func (s *RoutesSuite) request(method, path string, body any, cookie string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: ADMIN_COOKIE_NAME, Value: cookie})
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *RoutesSuite) adminToken() string {
	token, err := s.signer.GenerateAdminToken()
	s.Require().NoError(err)
	return token
}

func (s *RoutesSuite) decode(w *httptest.ResponseRecorder) map[string]any {
	var resp map[string]any
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

// Tablet listing

func (s *RoutesSuite) TestListTablets() {
	s.Require().NoError(s.store.ClaimTablet(s.ctx, "t1", "m1", time.Now()))

	w := s.request(http.MethodGet, "/api/tablets", nil, "")
	s.Require().Equal(http.StatusOK, w.Code)

	resp := s.decode(w)
	tablets := resp["tablets"].([]any)
	s.Require().Len(tablets, 2)

	first := tablets[0].(map[string]any)
	s.Equal("t1", first["id"])
	s.Equal(false, first["isAvailable"])
	holder := first["takenBy"].(map[string]any)
	s.Equal("Alice", holder["name"])

	second := tablets[1].(map[string]any)
	s.Equal(true, second["isAvailable"])
	s.Nil(second["takenBy"])
}

// Checkout endpoint

func (s *RoutesSuite) TestCheckoutTake() {
	w := s.request(http.MethodPost, "/api/checkout", gin.H{
		"tabletId": "t1", "action": "TAKE", "memberId": "m1",
	}, "")
	s.Require().Equal(http.StatusOK, w.Code)

	resp := s.decode(w)
	s.Equal(true, resp["success"])
	s.Equal("Tablet 1 checked out successfully", resp["message"])
	s.NotContains(resp, "warning")
}

func (s *RoutesSuite) TestCheckoutMissingParameters() {
	w := s.request(http.MethodPost, "/api/checkout", gin.H{"action": "TAKE"}, "")
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *RoutesSuite) TestCheckoutUnknownTablet() {
	w := s.request(http.MethodPost, "/api/checkout", gin.H{
		"tabletId": "nope", "action": "TAKE", "memberId": "m1",
	}, "")
	s.Equal(http.StatusNotFound, w.Code)
	s.Equal("Tablet not found", s.decode(w)["message"])
}

func (s *RoutesSuite) TestCheckoutInvalidAction() {
	w := s.request(http.MethodPost, "/api/checkout", gin.H{
		"tabletId": "t1", "action": "BORROW", "memberId": "m1",
	}, "")
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *RoutesSuite) TestCheckoutConflict() {
	s.Require().NoError(s.store.ClaimTablet(s.ctx, "t1", "m2", time.Now()))

	w := s.request(http.MethodPost, "/api/checkout", gin.H{
		"tabletId": "t1", "action": "TAKE", "memberId": "m1",
	}, "")
	s.Equal(http.StatusConflict, w.Code)
	s.Equal("Tablet is already taken", s.decode(w)["message"])
}

func (s *RoutesSuite) TestReturnNotCheckedOut() {
	w := s.request(http.MethodPost, "/api/checkout", gin.H{
		"tabletId": "t1", "action": "RETURN",
	}, "")
	s.Equal(http.StatusConflict, w.Code)
}

type failingLogStore struct {
	*storage.MemoryProvider
}

func (f *failingLogStore) AppendActivity(ctx context.Context, entry storage.ActivityLogEntry) error {
	return errors.New("disk full")
}

// The transition commits even when the log write fails; the client gets a
// success with a warning attached.
func (s *RoutesSuite) TestCheckoutAuditWarning() {
	s.router = s.buildRouter(&failingLogStore{s.store})

	w := s.request(http.MethodPost, "/api/checkout", gin.H{
		"tabletId": "t1", "action": "TAKE", "memberId": "m1",
	}, "")
	s.Require().Equal(http.StatusOK, w.Code)

	resp := s.decode(w)
	s.Equal(true, resp["success"])
	s.Equal("Activity log entry could not be written", resp["warning"])

	tablet, err := s.store.GetTablet(s.ctx, "t1")
	s.Require().NoError(err)
	s.Require().NotNil(tablet.TakenBy)
	s.Equal("m1", *tablet.TakenBy)
}

// PIN verification

func (s *RoutesSuite) TestVerifyPin() {
	w := s.request(http.MethodPost, "/api/verify-pin", gin.H{
		"memberId": "m1", "pin": "1234",
	}, "")
	s.Require().Equal(http.StatusOK, w.Code)

	resp := s.decode(w)
	member := resp["member"].(map[string]any)
	s.Equal("Alice", member["name"])
	s.NotContains(member, "pin")
}

func (s *RoutesSuite) TestVerifyPinWrong() {
	w := s.request(http.MethodPost, "/api/verify-pin", gin.H{
		"memberId": "m1", "pin": "0000",
	}, "")
	s.Equal(http.StatusUnauthorized, w.Code)
	s.Equal("Incorrect PIN", s.decode(w)["message"])
}

func (s *RoutesSuite) TestVerifyPinDeactivated() {
	w := s.request(http.MethodPost, "/api/verify-pin", gin.H{
		"memberId": "m2", "pin": "5678",
	}, "")
	s.Equal(http.StatusForbidden, w.Code)
}

// Admin authentication

func (s *RoutesSuite) TestLoginSetsCookie() {
	w := s.request(http.MethodPost, "/api/auth/login", gin.H{"password": testAdminPassword}, "")
	s.Require().Equal(http.StatusOK, w.Code)

	cookies := w.Result().Cookies()
	s.Require().Len(cookies, 1)
	s.Equal(ADMIN_COOKIE_NAME, cookies[0].Name)
	s.True(cookies[0].HttpOnly)

	_, err := s.signer.VerifyAdminToken(cookies[0].Value)
	s.NoError(err)
}

func (s *RoutesSuite) TestLoginWrongPassword() {
	w := s.request(http.MethodPost, "/api/auth/login", gin.H{"password": "guess"}, "")
	s.Equal(http.StatusUnauthorized, w.Code)
	s.Equal("Invalid password", s.decode(w)["message"])
}

func (s *RoutesSuite) TestLoginDisabledWithoutPassword() {
	s.router = gin.New()
	s.router.Use(ErrorHandler())
	api := &API{Signer: s.signer, Cfg: &config.Config{}}
	api.AuthRoutes(s.router.Group("/api/auth"))

	w := s.request(http.MethodPost, "/api/auth/login", gin.H{"password": "anything"}, "")
	s.Equal(http.StatusServiceUnavailable, w.Code)
}

func (s *RoutesSuite) TestLogoutClearsCookie() {
	w := s.request(http.MethodPost, "/api/auth/logout", nil, s.adminToken())
	s.Require().Equal(http.StatusOK, w.Code)

	cookies := w.Result().Cookies()
	s.Require().Len(cookies, 1)
	s.Equal(ADMIN_COOKIE_NAME, cookies[0].Name)
	s.Empty(cookies[0].Value)
}

// Admin gate

func (s *RoutesSuite) TestAdminGateWithoutCookie() {
	w := s.request(http.MethodGet, "/api/logs", nil, "")
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *RoutesSuite) TestAdminGateWithGarbageToken() {
	w := s.request(http.MethodGet, "/api/logs", nil, "not-a-token")
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *RoutesSuite) TestAdminGateWithValidToken() {
	w := s.request(http.MethodGet, "/api/logs", nil, s.adminToken())
	s.Equal(http.StatusOK, w.Code)
}

// Member endpoints

func (s *RoutesSuite) TestActiveMembersIsPublic() {
	w := s.request(http.MethodGet, "/api/members/active", nil, "")
	s.Require().Equal(http.StatusOK, w.Code)

	resp := s.decode(w)
	members := resp["members"].([]any)
	s.Require().Len(members, 1, "deactivated members are hidden")
	s.Equal("Alice", members[0].(map[string]any)["name"])
}

func (s *RoutesSuite) TestMemberListingRequiresAdmin() {
	w := s.request(http.MethodGet, "/api/members", nil, "")
	s.Equal(http.StatusUnauthorized, w.Code)

	w = s.request(http.MethodGet, "/api/members", nil, s.adminToken())
	s.Require().Equal(http.StatusOK, w.Code)
	s.Len(s.decode(w)["members"].([]any), 2)
}

func (s *RoutesSuite) TestCreateMember() {
	w := s.request(http.MethodPost, "/api/members", gin.H{
		"name": "Carol", "empId": "E003", "pin": "9999",
	}, s.adminToken())
	s.Require().Equal(http.StatusOK, w.Code)

	member := s.decode(w)["member"].(map[string]any)
	s.Equal("Carol", member["name"])
	s.NotContains(member, "pin")
}

func (s *RoutesSuite) TestCreateMemberDuplicateEmpID() {
	w := s.request(http.MethodPost, "/api/members", gin.H{
		"name": "Carol", "empId": "E001", "pin": "9999",
	}, s.adminToken())
	s.Equal(http.StatusConflict, w.Code)
	s.Equal("Employee ID already exists", s.decode(w)["message"])
}

func (s *RoutesSuite) TestUpdateMember() {
	w := s.request(http.MethodPut, "/api/members", gin.H{
		"id": "m2", "isActive": true,
	}, s.adminToken())
	s.Require().Equal(http.StatusOK, w.Code)

	member := s.decode(w)["member"].(map[string]any)
	s.Equal(true, member["isActive"])
}

func (s *RoutesSuite) TestDeleteMemberBlockedWhileHolding() {
	s.Require().NoError(s.store.ClaimTablet(s.ctx, "t1", "m1", time.Now()))

	w := s.request(http.MethodDelete, "/api/members?id=m1", nil, s.adminToken())
	s.Equal(http.StatusConflict, w.Code)
	s.Contains(s.decode(w)["message"], "Tablet 1")
}

func (s *RoutesSuite) TestDeleteMember() {
	w := s.request(http.MethodDelete, "/api/members?id=m1", nil, s.adminToken())
	s.Require().Equal(http.StatusOK, w.Code)

	_, err := s.store.GetMember(s.ctx, "m1")
	s.ErrorIs(err, storage.ErrNotFound)
}

// Activity log endpoint

func (s *RoutesSuite) TestLogsFilteredByTablet() {
	base := time.Now().UTC()
	for i, tabletID := range []string{"t1", "t2", "t1"} {
		s.Require().NoError(s.store.AppendActivity(s.ctx, storage.ActivityLogEntry{
			ID: string(rune('a' + i)), TabletID: tabletID, MemberID: "m1",
			Action: storage.ActionTake, MemberName: "Alice", TabletName: "Tablet",
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}

	w := s.request(http.MethodGet, "/api/logs?tabletId=t1", nil, s.adminToken())
	s.Require().Equal(http.StatusOK, w.Code)

	logs := s.decode(w)["logs"].([]any)
	s.Require().Len(logs, 2)
	s.Equal("c", logs[0].(map[string]any)["id"])
}
