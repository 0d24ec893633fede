package httpmux

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/inkstream/inkstream/internal/blog/auth"
	"github.com/inkstream/inkstream/internal/blog/post"
	"github.com/inkstream/inkstream/internal/blog/storage"
	"github.com/inkstream/inkstream/internal/blog/user"
)

type fakeUserStore struct {
	byUsername map[string]user.User
	emails     map[string]struct{}
	nextID     int64
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		byUsername: make(map[string]user.User),
		emails:     make(map[string]struct{}),
	}
}

func (s *fakeUserStore) CreateUser(_ context.Context, username, email, passwordHash string) (user.User, error) {
	if _, ok := s.byUsername[username]; ok {
		return user.User{}, storage.ErrAlreadyExists
	}
	if _, ok := s.emails[email]; ok {
		return user.User{}, storage.ErrAlreadyExists
	}
	s.nextID++
	created := user.User{
		ID:           s.nextID,
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC),
	}
	s.byUsername[username] = created
	s.emails[email] = struct{}{}
	return created, nil
}

func (s *fakeUserStore) GetUserByUsername(_ context.Context, username string) (user.User, error) {
	found, ok := s.byUsername[username]
	if !ok {
		return user.User{}, storage.ErrNotFound
	}
	return found, nil
}

type fakePostStore struct {
	posts  map[int64]post.Post
	order  []int64
	nextID int64
}

func newFakePostStore() *fakePostStore {
	return &fakePostStore{posts: make(map[int64]post.Post)}
}

func (s *fakePostStore) CreatePost(_ context.Context, title, content string, authorID int64) (post.Post, error) {
	s.nextID++
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC).Add(time.Duration(s.nextID) * time.Minute)
	created := post.Post{
		ID:        s.nextID,
		Title:     title,
		Content:   content,
		AuthorID:  authorID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.posts[created.ID] = created
	s.order = append(s.order, created.ID)
	return created, nil
}

func (s *fakePostStore) GetPost(_ context.Context, id int64) (post.Post, error) {
	found, ok := s.posts[id]
	if !ok {
		return post.Post{}, storage.ErrNotFound
	}
	return found, nil
}

func (s *fakePostStore) UpdatePost(_ context.Context, id int64, title, content string, authorID int64) (post.Post, error) {
	found, ok := s.posts[id]
	if !ok || found.AuthorID != authorID {
		return post.Post{}, storage.ErrNotFound
	}
	found.Title = title
	found.Content = content
	found.UpdatedAt = found.UpdatedAt.Add(time.Minute)
	s.posts[id] = found
	return found, nil
}

func (s *fakePostStore) DeletePost(_ context.Context, id, authorID int64) error {
	found, ok := s.posts[id]
	if !ok || found.AuthorID != authorID {
		return storage.ErrNotFound
	}
	delete(s.posts, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *fakePostStore) ListPosts(_ context.Context, limit, offset int64) ([]post.Post, error) {
	var page []post.Post
	for i := len(s.order) - 1; i >= 0; i-- {
		if offset > 0 {
			offset--
			continue
		}
		if int64(len(page)) >= limit {
			break
		}
		page = append(page, s.posts[s.order[i]])
	}
	return page, nil
}

func (s *fakePostStore) CountPosts(_ context.Context) (int64, error) {
	return int64(len(s.posts)), nil
}

type sessionBody struct {
	User  user.User `json:"user"`
	Token string    `json:"token"`
}

type errorBody struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}

func newTestHandler() http.Handler {
	tokens := auth.NewTokenService("test-secret")
	return New(
		auth.NewService(newFakeUserStore(), tokens),
		post.NewService(newFakePostStore()),
		tokens,
	)
}

func doRequest(t *testing.T, handler http.Handler, method, target, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var decoded T
	if err := json.Unmarshal(rec.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return decoded
}

func registerUser(t *testing.T, handler http.Handler, username string) sessionBody {
	t.Helper()
	payload := fmt.Sprintf(`{"username":%q,"email":"%s@example.com","password":"hunter2"}`, username, username)
	rec := doRequest(t, handler, http.MethodPost, "/auth/register", "", payload)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register %q: status = %d, body = %s", username, rec.Code, rec.Body.String())
	}
	return decodeBody[sessionBody](t, rec)
}

func TestRegister_CreatedWithToken(t *testing.T) {
	handler := newTestHandler()

	rec := doRequest(t, handler, http.MethodPost, "/auth/register", "",
		`{"username":"alice","email":"alice@example.com","password":"hunter2"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusCreated)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/json; charset=utf-8" {
		t.Fatalf("content type = %q", got)
	}

	body := decodeBody[sessionBody](t, rec)
	if body.User.ID == 0 || body.User.Username != "alice" {
		t.Fatalf("unexpected user: %+v", body.User)
	}
	if body.Token == "" {
		t.Fatal("expected session token")
	}
	if body.User.CreatedAt.IsZero() {
		t.Fatal("expected created_at in response")
	}

	if strings.Contains(rec.Body.String(), "password") {
		t.Fatalf("response leaks credential material: %s", rec.Body.String())
	}
}

func TestRegister_DuplicateConflict(t *testing.T) {
	handler := newTestHandler()
	registerUser(t, handler, "alice")

	rec := doRequest(t, handler, http.MethodPost, "/auth/register", "",
		`{"username":"alice","email":"fresh@example.com","password":"hunter2"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusConflict)
	}

	body := decodeBody[errorBody](t, rec)
	if body.Status != http.StatusConflict || body.Error == "" {
		t.Fatalf("unexpected error body: %+v", body)
	}
}

func TestRegister_MalformedJSON(t *testing.T) {
	handler := newTestHandler()

	rec := doRequest(t, handler, http.MethodPost, "/auth/register", "", `{"username":`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestLogin_FailuresAreIndistinguishable(t *testing.T) {
	handler := newTestHandler()
	registerUser(t, handler, "alice")

	unknown := doRequest(t, handler, http.MethodPost, "/auth/login", "",
		`{"username":"nobody","password":"hunter2"}`)
	wrong := doRequest(t, handler, http.MethodPost, "/auth/login", "",
		`{"username":"alice","password":"wrong"}`)

	if unknown.Code != http.StatusUnauthorized {
		t.Fatalf("unknown user status = %d, want %d", unknown.Code, http.StatusUnauthorized)
	}
	if wrong.Code != unknown.Code {
		t.Fatalf("statuses differ: %d vs %d", unknown.Code, wrong.Code)
	}
	if unknown.Body.String() != wrong.Body.String() {
		t.Fatalf("bodies differ: %s vs %s", unknown.Body.String(), wrong.Body.String())
	}
}

func TestLogin_Success(t *testing.T) {
	handler := newTestHandler()
	registered := registerUser(t, handler, "alice")

	rec := doRequest(t, handler, http.MethodPost, "/auth/login", "",
		`{"username":"alice","password":"hunter2"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	body := decodeBody[sessionBody](t, rec)
	if body.User.ID != registered.User.ID {
		t.Fatalf("user id = %d, want %d", body.User.ID, registered.User.ID)
	}
	if body.Token == "" {
		t.Fatal("expected session token")
	}
}

func TestCreatePost_RequiresAuth(t *testing.T) {
	handler := newTestHandler()
	payload := `{"title":"First Post","content":"Hello"}`

	rec := doRequest(t, handler, http.MethodPost, "/posts", "", payload)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token: status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}

	rec = doRequest(t, handler, http.MethodPost, "/posts", "garbage", payload)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("garbage token: status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestPostLifecycle(t *testing.T) {
	handler := newTestHandler()
	registered := registerUser(t, handler, "alice")

	rec := doRequest(t, handler, http.MethodPost, "/posts", registered.Token,
		`{"title":"First Post","content":"Hello"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	created := decodeBody[post.Post](t, rec)
	if created.AuthorID != registered.User.ID {
		t.Fatalf("author id = %d, want %d", created.AuthorID, registered.User.ID)
	}

	target := fmt.Sprintf("/posts/%d", created.ID)

	rec = doRequest(t, handler, http.MethodGet, target, "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get without token: status = %d", rec.Code)
	}
	if got := decodeBody[post.Post](t, rec); got.Title != "First Post" {
		t.Fatalf("title = %q, want %q", got.Title, "First Post")
	}

	rec = doRequest(t, handler, http.MethodPut, target, registered.Token,
		`{"title":"Edited","content":"Hello again"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if got := decodeBody[post.Post](t, rec); got.Title != "Edited" {
		t.Fatalf("title = %q, want Edited", got.Title)
	}

	rec = doRequest(t, handler, http.MethodDelete, target, registered.Token, "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if rec.Body.Len() != 0 {
		t.Fatalf("delete body = %q, want empty", rec.Body.String())
	}

	rec = doRequest(t, handler, http.MethodGet, target, "", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete: status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestUpdatePost_WrongAuthor(t *testing.T) {
	handler := newTestHandler()
	alice := registerUser(t, handler, "alice")
	bob := registerUser(t, handler, "bob")

	rec := doRequest(t, handler, http.MethodPost, "/posts", alice.Token,
		`{"title":"First Post","content":"Hello"}`)
	created := decodeBody[post.Post](t, rec)
	target := fmt.Sprintf("/posts/%d", created.ID)

	rec = doRequest(t, handler, http.MethodPut, target, bob.Token,
		`{"title":"Hijacked","content":"Nope"}`)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("update: status = %d, want %d", rec.Code, http.StatusForbidden)
	}

	rec = doRequest(t, handler, http.MethodDelete, target, bob.Token, "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("delete: status = %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestGetPost_BadID(t *testing.T) {
	handler := newTestHandler()

	for _, target := range []string{"/posts/abc", "/posts/0", "/posts/-3"} {
		rec := doRequest(t, handler, http.MethodGet, target, "", "")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: status = %d, want %d", target, rec.Code, http.StatusBadRequest)
		}
	}
}

func TestListPosts_DefaultsAndPaging(t *testing.T) {
	handler := newTestHandler()
	registered := registerUser(t, handler, "alice")

	for _, title := range []string{"one", "two", "three"} {
		payload := fmt.Sprintf(`{"title":%q,"content":"body"}`, title)
		if rec := doRequest(t, handler, http.MethodPost, "/posts", registered.Token, payload); rec.Code != http.StatusCreated {
			t.Fatalf("create %q: status = %d", title, rec.Code)
		}
	}

	rec := doRequest(t, handler, http.MethodGet, "/posts", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list: status = %d", rec.Code)
	}
	page := decodeBody[post.Page](t, rec)
	if page.Total != 3 || page.Limit != 10 || page.Offset != 0 {
		t.Fatalf("unexpected page meta: %+v", page)
	}
	if len(page.Posts) != 3 || page.Posts[0].Title != "three" {
		t.Fatalf("unexpected posts: %+v", page.Posts)
	}

	rec = doRequest(t, handler, http.MethodGet, "/posts?limit=2&offset=2", "", "")
	page = decodeBody[post.Page](t, rec)
	if len(page.Posts) != 1 || page.Posts[0].Title != "one" {
		t.Fatalf("unexpected second page: %+v", page.Posts)
	}
	if page.Limit != 2 || page.Offset != 2 {
		t.Fatalf("echoed limit=%d offset=%d, want limit=2 offset=2", page.Limit, page.Offset)
	}

	rec = doRequest(t, handler, http.MethodGet, "/posts?limit=abc", "", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad limit: status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestListPosts_EmptySerializesAsArray(t *testing.T) {
	handler := newTestHandler()

	rec := doRequest(t, handler, http.MethodGet, "/posts", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if !strings.Contains(rec.Body.String(), `"posts":[]`) {
		t.Fatalf("body = %s, want empty posts array", rec.Body.String())
	}
}

func TestMethodNotAllowedOnKnownPath(t *testing.T) {
	handler := newTestHandler()

	rec := doRequest(t, handler, http.MethodPatch, "/posts/1", "", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}
}

func TestCORSPreflight(t *testing.T) {
	handler := newTestHandler()

	req := httptest.NewRequest(http.MethodOptions, "/posts", nil)
	req.Header.Set("Origin", "https://blog.example.com")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("allow origin = %q, want *", got)
	}
}
