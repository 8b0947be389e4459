package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/karvix-api/internal/application/session"
	"github.com/karvix-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mock ---

type mockUserSvc struct{ mock.Mock }

func (m *mockUserSvc) Register(ctx context.Context, req domain.CreateUserRequest) (*session.LoginResult, error) {
	args := m.Called(ctx, req)
	if res, _ := args.Get(0).(*session.LoginResult); res != nil {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserSvc) Get(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserSvc) UpdateProfile(ctx context.Context, userID string, req domain.UpdateProfileRequest) (*domain.User, error) {
	args := m.Called(ctx, userID, req)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserSvc) UploadProfileImage(ctx context.Context, userID string, r io.Reader, filename, contentType string) (*domain.User, error) {
	args := m.Called(ctx, userID, r, filename, contentType)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserSvc) ListBrokers(ctx context.Context) ([]domain.User, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.User), args.Error(1)
}

func (m *mockUserSvc) ListWorkersByBroker(ctx context.Context, brokerID string) ([]domain.User, error) {
	args := m.Called(ctx, brokerID)
	return args.Get(0).([]domain.User), args.Error(1)
}

func (m *mockUserSvc) ListWorkers(ctx context.Context) ([]domain.User, error) {
	args := m.Called(ctx)
	users, _ := args.Get(0).([]domain.User)
	return users, args.Error(1)
}

func (m *mockUserSvc) SearchWorkers(ctx context.Context, f domain.WorkerFilter) ([]domain.User, error) {
	args := m.Called(ctx, f)
	users, _ := args.Get(0).([]domain.User)
	return users, args.Error(1)
}

func validRegistration() domain.CreateUserRequest {
	return domain.CreateUserRequest{
		Name: "Alice", Email: "alice@example.com", Password: "secret123", Role: domain.RoleCustomer,
	}
}

// --- Register tests ---

func TestRegister_InvalidBody(t *testing.T) {
	svc := &mockUserSvc{}
	h := NewUserHandler(svc)
	r := httptest.NewRequest(http.MethodPost, "/v1/users", bytes.NewBufferString("not-json"))
	rr := httptest.NewRecorder()
	h.Register(rr, r)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRegister_ValidationFailure(t *testing.T) {
	svc := &mockUserSvc{}
	h := NewUserHandler(svc)
	body, _ := json.Marshal(domain.CreateUserRequest{Name: "Alice", Email: "alice@example.com", Password: "x", Role: "admin"})
	r := httptest.NewRequest(http.MethodPost, "/v1/users", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	h.Register(rr, r)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "Password")
	svc.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
}

func TestRegister_UnverifiedEmail(t *testing.T) {
	svc := &mockUserSvc{}
	svc.On("Register", mock.Anything, validRegistration()).
		Return(nil, fmt.Errorf("Email verification required.: %w", domain.ErrBadRequest))
	h := NewUserHandler(svc)
	body, _ := json.Marshal(validRegistration())
	r := httptest.NewRequest(http.MethodPost, "/v1/users", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	h.Register(rr, r)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	var resp MessageEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "Email verification required.", resp.Error)
}

func TestRegister_ServiceConflict(t *testing.T) {
	svc := &mockUserSvc{}
	svc.On("Register", mock.Anything, mock.Anything).Return(nil, domain.ErrConflict)
	h := NewUserHandler(svc)
	body, _ := json.Marshal(validRegistration())
	r := httptest.NewRequest(http.MethodPost, "/v1/users", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	h.Register(rr, r)
	assert.Equal(t, http.StatusConflict, rr.Code)
	svc.AssertExpectations(t)
}

func TestRegister_HappyPath(t *testing.T) {
	svc := &mockUserSvc{}
	res := &session.LoginResult{
		Bearer:       "access-token",
		RefreshToken: "refresh-token",
		Session: &domain.Session{SessionID: "s1", UserID: "u1",
			User: &domain.User{UserID: "u1", Name: "Alice", Email: "alice@example.com"}},
	}
	svc.On("Register", mock.Anything, mock.Anything).Return(res, nil)
	h := NewUserHandler(svc)
	body, _ := json.Marshal(validRegistration())
	r := httptest.NewRequest(http.MethodPost, "/v1/users", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	h.Register(rr, r)
	assert.Equal(t, http.StatusCreated, rr.Code)
	var resp AuthEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "access-token", resp.AccessToken)
	assert.Equal(t, "refresh-token", resp.RefreshToken)
	assert.Equal(t, "alice@example.com", resp.User.Email)
	svc.AssertExpectations(t)
}

// --- Get tests ---

func TestGet_MissingClaims(t *testing.T) {
	svc := &mockUserSvc{}
	h := NewUserHandler(svc)
	r := withChiID(httptest.NewRequest(http.MethodGet, "/v1/users/u1", nil), "u1")
	rr := httptest.NewRecorder()
	h.Get(rr, r) // called directly, no claims in context
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestGet_Owner_SeesFullUser(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockUserSvc{}
	u := &domain.User{UserID: "u1", Name: "Alice", Email: "alice@example.com", Role: domain.RoleCustomer}
	svc.On("Get", mock.Anything, "u1").Return(u, nil)
	h := NewUserHandler(svc)

	r := bearerReq(t, p, http.MethodGet, "/v1/users/u1", "u1", domain.RoleCustomer, nil)
	r = withChiID(r, "u1")
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.Get), rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp SafeUser
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "alice@example.com", resp.Email)
	svc.AssertExpectations(t)
}

func TestGet_OtherUser_SeesPublicOnly(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockUserSvc{}
	u := &domain.User{UserID: "w1", Name: "Bob", Email: "bob@example.com", Role: domain.RoleWorker, Skills: []string{"plumbing"}}
	svc.On("Get", mock.Anything, "w1").Return(u, nil)
	h := NewUserHandler(svc)

	r := bearerReq(t, p, http.MethodGet, "/v1/users/w1", "c1", domain.RoleCustomer, nil)
	r = withChiID(r, "w1")
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.Get), rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp map[string]interface{}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	_, hasEmail := resp["email"]
	assert.False(t, hasEmail, "other users should not see email in response")
	assert.Equal(t, []interface{}{"plumbing"}, resp["skills"])
}

func TestGet_NotFound(t *testing.T) {
	svc := &mockUserSvc{}
	svc.On("Get", mock.Anything, "nope").Return(nil, fmt.Errorf("user nope: %w", domain.ErrNotFound))
	h := NewUserHandler(svc)
	r := asUser(withChiID(httptest.NewRequest(http.MethodGet, "/v1/users/nope", nil), "nope"), "u1", domain.RoleCustomer)
	rr := httptest.NewRecorder()
	h.Get(rr, r)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

// --- UpdateMe tests ---

func TestUpdateMe_MissingClaims(t *testing.T) {
	h := NewUserHandler(&mockUserSvc{})
	r := httptest.NewRequest(http.MethodPut, "/v1/users/me", bytes.NewBufferString("{}"))
	rr := httptest.NewRecorder()
	h.UpdateMe(rr, r)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestUpdateMe_InvalidPhone(t *testing.T) {
	svc := &mockUserSvc{}
	h := NewUserHandler(svc)
	r := asUser(httptest.NewRequest(http.MethodPut, "/v1/users/me", bytes.NewBufferString(`{"phone":"12"}`)), "w1", domain.RoleWorker)
	rr := httptest.NewRecorder()
	h.UpdateMe(rr, r)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	svc.AssertNotCalled(t, "UpdateProfile", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateMe_UnknownBroker(t *testing.T) {
	svc := &mockUserSvc{}
	svc.On("UpdateProfile", mock.Anything, "w1", mock.Anything).
		Return(nil, fmt.Errorf("broker b9 not found: %w", domain.ErrBadRequest))
	h := NewUserHandler(svc)
	r := asUser(httptest.NewRequest(http.MethodPut, "/v1/users/me", bytes.NewBufferString(`{"broker_id":"b9"}`)), "w1", domain.RoleWorker)
	rr := httptest.NewRecorder()
	h.UpdateMe(rr, r)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "broker b9 not found")
}

func TestUpdateMe_HappyPath(t *testing.T) {
	svc := &mockUserSvc{}
	updated := &domain.User{UserID: "w1", Name: "Bob", Email: "bob@example.com", Skills: []string{"painting"}}
	svc.On("UpdateProfile", mock.Anything, "w1", mock.MatchedBy(func(req domain.UpdateProfileRequest) bool {
		return len(req.Skills) == 1 && req.Skills[0] == "painting"
	})).Return(updated, nil)
	h := NewUserHandler(svc)
	r := asUser(httptest.NewRequest(http.MethodPut, "/v1/users/me", bytes.NewBufferString(`{"skills":["painting"]}`)), "w1", domain.RoleWorker)
	rr := httptest.NewRecorder()
	h.UpdateMe(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp SafeUser
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, []string{"painting"}, resp.Skills)
	svc.AssertExpectations(t)
}

// --- UploadProfileImage tests ---

func multipartImage(t *testing.T, field, filename, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename))
	hdr.Set("Content-Type", contentType)
	part, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return buf, mw.FormDataContentType()
}

func TestUploadProfileImage_HappyPath(t *testing.T) {
	svc := &mockUserSvc{}
	svc.On("UploadProfileImage", mock.Anything, "u1", mock.Anything, "me.png", "image/png").
		Return(&domain.User{UserID: "u1", ProfileImage: "https://bucket/profiles/u1/me.png"}, nil)
	h := NewUserHandler(svc)

	body, ct := multipartImage(t, "image", "me.png", "image/png", []byte("png-bytes"))
	r := httptest.NewRequest(http.MethodPost, "/v1/users/me/profile-image", body)
	r.Header.Set("Content-Type", ct)
	r = asUser(r, "u1", domain.RoleCustomer)
	rr := httptest.NewRecorder()
	h.UploadProfileImage(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "profiles/u1/me.png")
	svc.AssertExpectations(t)
}

func TestUploadProfileImage_MissingField(t *testing.T) {
	svc := &mockUserSvc{}
	h := NewUserHandler(svc)
	body, ct := multipartImage(t, "avatar", "me.png", "image/png", []byte("png-bytes"))
	r := httptest.NewRequest(http.MethodPost, "/v1/users/me/profile-image", body)
	r.Header.Set("Content-Type", ct)
	r = asUser(r, "u1", domain.RoleCustomer)
	rr := httptest.NewRecorder()
	h.UploadProfileImage(rr, r)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestUploadProfileImage_UnsupportedType(t *testing.T) {
	svc := &mockUserSvc{}
	svc.On("UploadProfileImage", mock.Anything, "u1", mock.Anything, "me.gif", "image/gif").
		Return(nil, fmt.Errorf("unsupported image type %q: %w", "image/gif", domain.ErrBadRequest))
	h := NewUserHandler(svc)
	body, ct := multipartImage(t, "image", "me.gif", "image/gif", []byte("gif"))
	r := httptest.NewRequest(http.MethodPost, "/v1/users/me/profile-image", body)
	r.Header.Set("Content-Type", ct)
	r = asUser(r, "u1", domain.RoleCustomer)
	rr := httptest.NewRecorder()
	h.UploadProfileImage(rr, r)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

// --- listing tests ---

func TestListBrokers_PublicView(t *testing.T) {
	svc := &mockUserSvc{}
	svc.On("ListBrokers", mock.Anything).Return([]domain.User{
		{UserID: "b1", Name: "Acme", Email: "acme@example.com", Role: domain.RoleBroker},
	}, nil)
	h := NewUserHandler(svc)
	rr := httptest.NewRecorder()
	h.ListBrokers(rr, httptest.NewRequest(http.MethodGet, "/v1/brokers", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotContains(t, rr.Body.String(), "acme@example.com")
	var resp UsersEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "b1", resp.Data[0].ID)
}

func TestListMyWorkers_UsesCallerID(t *testing.T) {
	svc := &mockUserSvc{}
	svc.On("ListWorkersByBroker", mock.Anything, "b1").Return([]domain.User{{UserID: "w1"}, {UserID: "w2"}}, nil)
	h := NewUserHandler(svc)
	r := asUser(httptest.NewRequest(http.MethodGet, "/v1/brokers/me/workers", nil), "b1", domain.RoleBroker)
	rr := httptest.NewRecorder()
	h.ListMyWorkers(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp UsersEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Len(t, resp.Data, 2)
	svc.AssertExpectations(t)
}

func TestListWorkers_PublicView(t *testing.T) {
	svc := &mockUserSvc{}
	svc.On("ListWorkers", mock.Anything).Return([]domain.User{
		{UserID: "w1", Email: "w1@example.com", Role: domain.RoleWorker, Skills: []string{"plumbing"}},
	}, nil)
	h := NewUserHandler(svc)
	rr := httptest.NewRecorder()
	h.ListWorkers(rr, httptest.NewRequest(http.MethodGet, "/v1/users/workers/all", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotContains(t, rr.Body.String(), "w1@example.com")
	var resp UsersEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "w1", resp.Data[0].ID)
}

func TestSearchWorkers_ParsesQuery(t *testing.T) {
	svc := &mockUserSvc{}
	want := domain.WorkerFilter{Skills: []string{"plumbing", "tiling"}, City: "Austin", State: "TX", MinRating: 4.5}
	svc.On("SearchWorkers", mock.Anything, want).Return([]domain.User{{UserID: "w1"}}, nil)
	h := NewUserHandler(svc)
	rr := httptest.NewRecorder()
	h.SearchWorkers(rr, httptest.NewRequest(http.MethodGet, "/v1/users/search?skills=plumbing,+tiling,&city=Austin&state=TX&rating=4.5", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	svc.AssertExpectations(t)
}

func TestSearchWorkers_BadRating(t *testing.T) {
	svc := &mockUserSvc{}
	h := NewUserHandler(svc)
	rr := httptest.NewRecorder()
	h.SearchWorkers(rr, httptest.NewRequest(http.MethodGet, "/v1/users/search?rating=high", nil))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	svc.AssertNotCalled(t, "SearchWorkers", mock.Anything, mock.Anything)
}

func TestSearchWorkers_RatingOutOfRange(t *testing.T) {
	svc := &mockUserSvc{}
	svc.On("SearchWorkers", mock.Anything, domain.WorkerFilter{MinRating: 9}).
		Return(nil, fmt.Errorf("rating must be between 0 and 5: %w", domain.ErrBadRequest))
	h := NewUserHandler(svc)
	rr := httptest.NewRecorder()
	h.SearchWorkers(rr, httptest.NewRequest(http.MethodGet, "/v1/users/search?rating=9", nil))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
