package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	blogv1 "github.com/inkstream/inkstream/api/gen/go/blog/v1"
	platformgrpc "github.com/inkstream/inkstream/internal/platform/grpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
)

func testConfig(t *testing.T) Config {
	t.Helper()
	return Config{
		GRPCPort:  0,
		HTTPAddr:  "127.0.0.1:0",
		DBPath:    filepath.Join(t.TempDir(), "blog.db"),
		JWTSecret: "test-secret",
	}
}

func dialableAddr(t *testing.T, addr string) string {
	t.Helper()
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		t.Fatalf("split address %q: %v", addr, err)
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return net.JoinHostPort(host, port)
}

func postJSON(t *testing.T, url, payload string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(payload))
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

// TestServeStopsOnContext verifies the server serves and stops on cancel.
func TestServeStopsOnContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	blogServer, err := New(testConfig(t))
	if err != nil {
		t.Fatalf("new server: %v", err)
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- blogServer.Serve(ctx)
	}()

	conn, err := grpc.NewClient(
		dialableAddr(t, blogServer.Addr()),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.WaitForReady(true)),
	)
	if err != nil {
		t.Fatalf("dial server: %v", err)
	}
	defer conn.Close()

	client := blogv1.NewBlogServiceClient(conn)
	callCtx, callCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer callCancel()
	if err := platformgrpc.WaitForHealth(callCtx, conn, "blog.v1.BlogService"); err != nil {
		t.Fatalf("wait for health: %v", err)
	}
	if _, err := client.GetPosts(callCtx, &blogv1.GetPostsRequest{}); err != nil {
		t.Fatalf("get posts: %v", err)
	}

	cancel()

	select {
	case err := <-serveErr:
		if err != nil {
			t.Fatalf("serve returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop in time")
	}
}

// TestServeServesBothTransports verifies the gRPC and HTTP APIs share one store.
func TestServeServesBothTransports(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	blogServer, err := New(testConfig(t))
	if err != nil {
		t.Fatalf("new server: %v", err)
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- blogServer.Serve(ctx)
	}()

	conn, err := grpc.NewClient(
		dialableAddr(t, blogServer.Addr()),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.WaitForReady(true)),
	)
	if err != nil {
		t.Fatalf("dial server: %v", err)
	}
	defer conn.Close()
	client := blogv1.NewBlogServiceClient(conn)

	callCtx, callCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer callCancel()

	registered, err := client.Register(callCtx, &blogv1.RegisterRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "hunter2",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if registered.GetToken() == "" {
		t.Fatal("expected session token")
	}

	authedCtx := metadata.AppendToOutgoingContext(callCtx, "authorization", "Bearer "+registered.GetToken())
	created, err := client.CreatePost(authedCtx, &blogv1.CreatePostRequest{
		Title:   "First Post",
		Content: "Hello",
	})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
	if created.GetPost().GetAuthorId() != registered.GetUser().GetId() {
		t.Fatalf("author id = %d, want %d", created.GetPost().GetAuthorId(), registered.GetUser().GetId())
	}

	base := "http://" + dialableAddr(t, blogServer.HTTPAddr())

	// The account registered over gRPC can log in over HTTP.
	resp := postJSON(t, base+"/auth/login", `{"username":"alice","password":"hunter2"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("http login: status = %d", resp.StatusCode)
	}
	var session struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		t.Fatalf("decode login body: %v", err)
	}
	if session.Token == "" {
		t.Fatal("expected session token over http")
	}

	// The post created over gRPC is listed over HTTP.
	listResp, err := http.Get(base + "/posts")
	if err != nil {
		t.Fatalf("http list: %v", err)
	}
	defer listResp.Body.Close()
	var page struct {
		Posts []struct {
			Title string `json:"title"`
		} `json:"posts"`
		Total int64 `json:"total"`
	}
	if err := json.NewDecoder(listResp.Body).Decode(&page); err != nil {
		t.Fatalf("decode list body: %v", err)
	}
	if page.Total != 1 || len(page.Posts) != 1 || page.Posts[0].Title != "First Post" {
		t.Fatalf("unexpected page: %+v", page)
	}

	dup := postJSON(t, base+"/auth/register", `{"username":"alice","email":"other@example.com","password":"hunter2"}`)
	if dup.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate register: status = %d, want %d", dup.StatusCode, http.StatusConflict)
	}

	cancel()

	select {
	case err := <-serveErr:
		if err != nil {
			t.Fatalf("serve returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop in time")
	}
}

// TestRunPortInUse verifies Run returns an error when the port is occupied.
func TestRunPortInUse(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer listener.Close()

	_, port, err := net.SplitHostPort(listener.Addr().String())
	if err != nil {
		t.Fatalf("split address %q: %v", listener.Addr().String(), err)
	}
	portNumber, err := strconv.Atoi(port)
	if err != nil {
		t.Fatalf("parse port %q: %v", port, err)
	}

	cfg := testConfig(t)
	cfg.GRPCPort = portNumber
	if err := Run(context.Background(), cfg); err == nil {
		t.Fatal("expected error when port is already in use")
	}
}

// TestNewRequiresJWTSecret verifies construction fails without a signing secret.
func TestNewRequiresJWTSecret(t *testing.T) {
	cfg := testConfig(t)
	cfg.JWTSecret = "   "
	if _, err := New(cfg); err == nil {
		t.Fatal("expected error for missing jwt secret")
	}
}

// TestServeReportsClosedListener verifies Serve surfaces listener errors and
// stops the sibling HTTP listener instead of leaving it accepting.
func TestServeReportsClosedListener(t *testing.T) {
	blogServer, err := New(testConfig(t))
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	if err := blogServer.listener.Close(); err != nil {
		t.Fatalf("close listener: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := blogServer.Serve(ctx); err == nil {
		t.Fatal("expected serve error after closed listener")
	}
}
