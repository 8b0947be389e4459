package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/karvix-api/internal/application/user"
	"github.com/karvix-api/internal/domain"
	"github.com/karvix-api/internal/transport/http/middleware"
)

const maxProfileImageBytes = 5 << 20

// UserHandler handles registration, profiles and broker listings.
type UserHandler struct {
	svc user.Service
}

func NewUserHandler(svc user.Service) *UserHandler { return &UserHandler{svc: svc} }

func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateUserRequest
	if !decodeValid(w, r, &req) {
		return
	}
	result, err := h.svc.Register(r.Context(), req)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, authEnvelope(result))
}

// Get returns the full profile to its owner and the public view to everyone else.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	u, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, r, err)
		return
	}
	if claims.UserID == u.UserID {
		writeJSON(w, http.StatusOK, toSafeUser(u))
		return
	}
	writeJSON(w, http.StatusOK, toPublicUser(u))
}

func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req domain.UpdateProfileRequest
	if !decodeValid(w, r, &req) {
		return
	}
	u, err := h.svc.UpdateProfile(r.Context(), claims.UserID, req)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSafeUser(u))
}

func (h *UserHandler) UploadProfileImage(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxProfileImageBytes+1024)
	if err := r.ParseMultipartForm(maxProfileImageBytes); err != nil {
		writeError(w, http.StatusBadRequest, "image too large or malformed form")
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "image field required")
		return
	}
	defer file.Close()

	u, err := h.svc.UploadProfileImage(r.Context(), claims.UserID, file, header.Filename, header.Header.Get("Content-Type"))
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSafeUser(u))
}

func (h *UserHandler) ListBrokers(w http.ResponseWriter, r *http.Request) {
	brokers, err := h.svc.ListBrokers(r.Context())
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, UsersEnvelope{Data: toPublicUsers(brokers)})
}

// ListMyWorkers lists the workers attached to the calling broker.
func (h *UserHandler) ListMyWorkers(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	workers, err := h.svc.ListWorkersByBroker(r.Context(), claims.UserID)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, UsersEnvelope{Data: toPublicUsers(workers)})
}

// ListWorkers is the public worker directory.
func (h *UserHandler) ListWorkers(w http.ResponseWriter, r *http.Request) {
	workers, err := h.svc.ListWorkers(r.Context())
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, UsersEnvelope{Data: toPublicUsers(workers)})
}

// SearchWorkers accepts ?skills=a,b&city=&state=&rating=.
func (h *UserHandler) SearchWorkers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := domain.WorkerFilter{
		City:  strings.TrimSpace(q.Get("city")),
		State: strings.TrimSpace(q.Get("state")),
	}
	for _, s := range strings.Split(q.Get("skills"), ",") {
		if s = strings.TrimSpace(s); s != "" {
			f.Skills = append(f.Skills, s)
		}
	}
	if raw := q.Get("rating"); raw != "" {
		rating, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid search parameters")
			return
		}
		f.MinRating = rating
	}
	workers, err := h.svc.SearchWorkers(r.Context(), f)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, UsersEnvelope{Data: toPublicUsers(workers)})
}
