// Package httpmux implements the HTTP/JSON adapter for the blog API.
//
// Routes adapt the same auth and post services the gRPC adapter uses; the
// only logic here is decoding requests, authenticating callers, and mapping
// domain errors onto HTTP statuses.
package httpmux

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/inkstream/inkstream/internal/blog/auth"
	"github.com/inkstream/inkstream/internal/blog/post"
	"github.com/inkstream/inkstream/internal/blog/user"
	apperrors "github.com/inkstream/inkstream/internal/platform/errors"
	"github.com/inkstream/inkstream/internal/platform/httpx"
)

// New builds the HTTP handler tree for the blog API.
func New(authService *auth.Service, postService *post.Service, tokens *auth.TokenService) http.Handler {
	h := handlers{auth: authService, posts: postService, tokens: tokens}

	mux := http.NewServeMux()
	mux.HandleFunc(http.MethodPost+" /auth/register", h.handleRegister)
	mux.HandleFunc(http.MethodPost+" /auth/login", h.handleLogin)
	mux.HandleFunc(http.MethodGet+" /posts", h.handleListPosts)
	mux.HandleFunc(http.MethodPost+" /posts", h.requireAuth(h.handleCreatePost))
	mux.HandleFunc(http.MethodGet+" /posts/{id}", h.handleGetPost)
	mux.HandleFunc(http.MethodPut+" /posts/{id}", h.requireAuth(h.handleUpdatePost))
	mux.HandleFunc(http.MethodDelete+" /posts/{id}", h.requireAuth(h.handleDeletePost))

	return httpx.Chain(mux,
		httpx.RequestID(),
		httpx.RecoverPanic(),
		httpx.RequestLogger(),
		httpx.CORS([]string{"*"}),
	)
}

type handlers struct {
	auth   *auth.Service
	posts  *post.Service
	tokens *auth.TokenService
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type postRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// sessionResponse pairs an account with a fresh token. The user record
// serializes without its password hash.
type sessionResponse struct {
	User  user.User `json:"user"`
	Token string    `json:"token"`
}

func (h handlers) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	created, token, err := h.auth.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		h.writeError(w, err)
		return
	}

	_ = httpx.WriteJSON(w, http.StatusCreated, sessionResponse{User: created, Token: token})
}

func (h handlers) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	found, token, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.writeError(w, err)
		return
	}

	_ = httpx.WriteJSON(w, http.StatusOK, sessionResponse{User: found, Token: token})
}

func (h handlers) handleCreatePost(w http.ResponseWriter, r *http.Request, caller auth.Claims) {
	var req postRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	created, err := h.posts.Create(r.Context(), caller.UserID, req.Title, req.Content)
	if err != nil {
		h.writeError(w, err)
		return
	}

	_ = httpx.WriteJSON(w, http.StatusCreated, created)
}

func (h handlers) handleGetPost(w http.ResponseWriter, r *http.Request) {
	id, err := postIDFromPath(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	found, err := h.posts.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}

	_ = httpx.WriteJSON(w, http.StatusOK, found)
}

func (h handlers) handleUpdatePost(w http.ResponseWriter, r *http.Request, caller auth.Claims) {
	id, err := postIDFromPath(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	var req postRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	updated, err := h.posts.Update(r.Context(), id, caller.UserID, req.Title, req.Content)
	if err != nil {
		h.writeError(w, err)
		return
	}

	_ = httpx.WriteJSON(w, http.StatusOK, updated)
}

func (h handlers) handleDeletePost(w http.ResponseWriter, r *http.Request, caller auth.Claims) {
	id, err := postIDFromPath(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if err := h.posts.Delete(r.Context(), id, caller.UserID); err != nil {
		h.writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h handlers) handleListPosts(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt64(r, "limit")
	if err != nil {
		h.writeError(w, err)
		return
	}
	offset, err := queryInt64(r, "offset")
	if err != nil {
		h.writeError(w, err)
		return
	}

	page, err := h.posts.List(r.Context(), limit, offset)
	if err != nil {
		h.writeError(w, err)
		return
	}

	_ = httpx.WriteJSON(w, http.StatusOK, page)
}

// requireAuth authenticates the caller before invoking the wrapped handler.
func (h handlers) requireAuth(next func(w http.ResponseWriter, r *http.Request, caller auth.Claims)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := h.callerFromRequest(r)
		if err != nil {
			h.writeError(w, err)
			return
		}
		next(w, r, caller)
	}
}

// callerFromRequest authenticates the calling user from the request header.
//
// The token travels in the standard Authorization header with an optional
// Bearer prefix, matching what the gRPC adapter accepts in its metadata.
func (h handlers) callerFromRequest(r *http.Request) (auth.Claims, error) {
	header := r.Header.Get("Authorization")
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		return auth.Claims{}, apperrors.New(apperrors.CodeInvalidToken, "authorization token is required")
	}
	return h.tokens.Verify(token)
}

func (h handlers) writeError(w http.ResponseWriter, err error) {
	statusCode, message := apperrors.HandleHTTP(err, apperrors.DefaultLocale)
	_ = httpx.WriteJSONError(w, statusCode, message)
}

// decodeJSON decodes a request body, reporting malformed payloads as
// invalid-argument errors rather than internal ones.
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperrors.WrapWithMetadata(
			apperrors.CodeInvalidArgument,
			"decode request body",
			map[string]string{"Field": "body"},
			err,
		)
	}
	return nil
}

// postIDFromPath parses the {id} path segment as a positive integer.
func postIDFromPath(r *http.Request) (int64, error) {
	raw := strings.TrimSpace(r.PathValue("id"))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.WithMetadata(
			apperrors.CodeInvalidArgument,
			"post id must be a positive integer",
			map[string]string{"Field": "id"},
		)
	}
	return id, nil
}

// queryInt64 parses an optional integer query parameter, defaulting to zero.
func queryInt64(r *http.Request, name string) (int64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, nil
	}
	parsed, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apperrors.WithMetadata(
			apperrors.CodeInvalidArgument,
			name+" must be an integer",
			map[string]string{"Field": name},
		)
	}
	return parsed, nil
}
