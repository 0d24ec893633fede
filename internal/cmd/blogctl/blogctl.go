// Package blogctl implements the blog command line client.
//
// Commands talk to the blog gRPC API and keep the session token in a local
// dotfile so authenticated calls work across invocations.
package blogctl

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	blogv1 "github.com/inkstream/inkstream/api/gen/go/blog/v1"
	entrypoint "github.com/inkstream/inkstream/internal/platform/cmd"
	platformgrpc "github.com/inkstream/inkstream/internal/platform/grpc"
	"github.com/inkstream/inkstream/internal/platform/timeouts"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const defaultTokenFile = ".inkstream_token"

const usage = "usage: blogctl [flags] <register|login|logout|create|get|update|delete|list> [command flags]"

// Config holds blogctl command configuration.
type Config struct {
	ServerAddr string `env:"INKSTREAM_SERVER_ADDR" envDefault:"localhost:50051"`
	TokenPath  string `env:"INKSTREAM_TOKEN_PATH"`
	Command    string
	Args       []string
}

// ParseConfig parses environment, flags and the subcommand into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.ServerAddr, "server", cfg.ServerAddr, "The blog gRPC server address")
	fs.StringVar(&cfg.TokenPath, "token-file", cfg.TokenPath, "Path to the saved session token")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	if strings.TrimSpace(cfg.TokenPath) == "" {
		cfg.TokenPath = defaultTokenFile
	}
	rest := fs.Args()
	if len(rest) == 0 {
		return Config{}, errors.New(usage)
	}
	cfg.Command = rest[0]
	cfg.Args = rest[1:]
	return cfg, nil
}

// Run executes the blogctl command and writes output to out.
func Run(ctx context.Context, cfg Config, out io.Writer) error {
	if out == nil {
		out = io.Discard
	}

	// Logout never needs a server round-trip.
	if cfg.Command == "logout" {
		if err := deleteToken(cfg.TokenPath); err != nil {
			return err
		}
		fmt.Fprintln(out, "logged out")
		return nil
	}

	conn, err := platformgrpc.Dial(cfg.ServerAddr)
	if err != nil {
		return err
	}
	defer conn.Close()
	client := blogv1.NewBlogServiceClient(conn)

	callCtx, cancel := context.WithTimeout(ctx, timeouts.GRPCRequest)
	defer cancel()

	err = runCommand(callCtx, client, cfg, out)
	if err == nil {
		return nil
	}
	if status.Code(err) == codes.Unauthenticated {
		// A rejected token will not become valid later; drop it so the next
		// call starts from a fresh login.
		_ = deleteToken(cfg.TokenPath)
	}
	if st, ok := status.FromError(err); ok {
		return errors.New(userMessage(st))
	}
	return err
}

// userMessage prefers the localized message the server attaches to status
// details over the raw status message, which carries internal wording.
func userMessage(st *status.Status) string {
	for _, detail := range st.Details() {
		if localized, ok := detail.(*errdetails.LocalizedMessage); ok && localized.GetMessage() != "" {
			return localized.GetMessage()
		}
	}
	return st.Message()
}

func runCommand(ctx context.Context, client blogv1.BlogServiceClient, cfg Config, out io.Writer) error {
	switch cfg.Command {
	case "register":
		return runRegister(ctx, client, cfg, out)
	case "login":
		return runLogin(ctx, client, cfg, out)
	case "create":
		return runCreate(ctx, client, cfg, out)
	case "get":
		return runGet(ctx, client, cfg, out)
	case "update":
		return runUpdate(ctx, client, cfg, out)
	case "delete":
		return runDelete(ctx, client, cfg, out)
	case "list":
		return runList(ctx, client, cfg, out)
	default:
		return fmt.Errorf("unknown command %q\n%s", cfg.Command, usage)
	}
}

func runRegister(ctx context.Context, client blogv1.BlogServiceClient, cfg Config, out io.Writer) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	username := fs.String("username", "", "account username")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	if err := fs.Parse(cfg.Args); err != nil {
		return err
	}

	resp, err := client.Register(ctx, &blogv1.RegisterRequest{
		Username: *username,
		Email:    *email,
		Password: *password,
	})
	if err != nil {
		return err
	}
	if err := saveToken(cfg.TokenPath, resp.GetToken()); err != nil {
		return err
	}
	fmt.Fprintf(out, "registered as %s\n", resp.GetUser().GetUsername())
	return nil
}

func runLogin(ctx context.Context, client blogv1.BlogServiceClient, cfg Config, out io.Writer) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	username := fs.String("username", "", "account username")
	password := fs.String("password", "", "account password")
	if err := fs.Parse(cfg.Args); err != nil {
		return err
	}

	resp, err := client.Login(ctx, &blogv1.LoginRequest{
		Username: *username,
		Password: *password,
	})
	if err != nil {
		return err
	}
	if err := saveToken(cfg.TokenPath, resp.GetToken()); err != nil {
		return err
	}
	fmt.Fprintf(out, "logged in as %s\n", resp.GetUser().GetUsername())
	return nil
}

func runCreate(ctx context.Context, client blogv1.BlogServiceClient, cfg Config, out io.Writer) error {
	fs := flag.NewFlagSet("create", flag.ContinueOnError)
	title := fs.String("title", "", "post title")
	content := fs.String("content", "", "post content")
	if err := fs.Parse(cfg.Args); err != nil {
		return err
	}

	authedCtx, err := authedContext(ctx, cfg)
	if err != nil {
		return err
	}
	resp, err := client.CreatePost(authedCtx, &blogv1.CreatePostRequest{
		Title:   *title,
		Content: *content,
	})
	if err != nil {
		return err
	}
	return printPost(out, resp.GetPost())
}

func runGet(ctx context.Context, client blogv1.BlogServiceClient, cfg Config, out io.Writer) error {
	fs := flag.NewFlagSet("get", flag.ContinueOnError)
	id := fs.Int64("id", 0, "post id")
	if err := fs.Parse(cfg.Args); err != nil {
		return err
	}

	resp, err := client.GetPost(ctx, &blogv1.GetPostRequest{PostId: *id})
	if err != nil {
		return err
	}
	return printPost(out, resp.GetPost())
}

func runUpdate(ctx context.Context, client blogv1.BlogServiceClient, cfg Config, out io.Writer) error {
	fs := flag.NewFlagSet("update", flag.ContinueOnError)
	id := fs.Int64("id", 0, "post id")
	title := fs.String("title", "", "post title")
	content := fs.String("content", "", "post content")
	if err := fs.Parse(cfg.Args); err != nil {
		return err
	}

	authedCtx, err := authedContext(ctx, cfg)
	if err != nil {
		return err
	}
	resp, err := client.UpdatePost(authedCtx, &blogv1.UpdatePostRequest{
		PostId:  *id,
		Title:   *title,
		Content: *content,
	})
	if err != nil {
		return err
	}
	return printPost(out, resp.GetPost())
}

func runDelete(ctx context.Context, client blogv1.BlogServiceClient, cfg Config, out io.Writer) error {
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	id := fs.Int64("id", 0, "post id")
	if err := fs.Parse(cfg.Args); err != nil {
		return err
	}

	authedCtx, err := authedContext(ctx, cfg)
	if err != nil {
		return err
	}
	if _, err := client.DeletePost(authedCtx, &blogv1.DeletePostRequest{PostId: *id}); err != nil {
		return err
	}
	fmt.Fprintf(out, "deleted post %d\n", *id)
	return nil
}

func runList(ctx context.Context, client blogv1.BlogServiceClient, cfg Config, out io.Writer) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	limit := fs.Int64("limit", 0, "page size (0 = server default)")
	offset := fs.Int64("offset", 0, "posts to skip")
	if err := fs.Parse(cfg.Args); err != nil {
		return err
	}

	resp, err := client.GetPosts(ctx, &blogv1.GetPostsRequest{
		Limit:  *limit,
		Offset: *offset,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%d of %d posts (limit %d, offset %d)\n",
		len(resp.GetPosts()), resp.GetTotal(), resp.GetLimit(), resp.GetOffset())
	for _, item := range resp.GetPosts() {
		fmt.Fprintf(out, "#%d %s (author %d, %s)\n",
			item.GetId(), item.GetTitle(), item.GetAuthorId(), formatMillis(item.GetCreatedAt()))
	}
	return nil
}

// authedContext attaches the saved session token to outgoing metadata.
func authedContext(ctx context.Context, cfg Config) (context.Context, error) {
	token, err := loadToken(cfg.TokenPath)
	if err != nil {
		return nil, err
	}
	return metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+token), nil
}

type postOutput struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	AuthorID  int64  `json:"author_id"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func printPost(out io.Writer, item *blogv1.Post) error {
	encoded, err := json.MarshalIndent(postOutput{
		ID:        item.GetId(),
		Title:     item.GetTitle(),
		Content:   item.GetContent(),
		AuthorID:  item.GetAuthorId(),
		CreatedAt: formatMillis(item.GetCreatedAt()),
		UpdatedAt: formatMillis(item.GetUpdatedAt()),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode post: %w", err)
	}
	_, err = fmt.Fprintln(out, string(encoded))
	return err
}

func formatMillis(millis int64) string {
	return time.UnixMilli(millis).UTC().Format(time.RFC3339)
}

func saveToken(path, token string) error {
	if err := os.WriteFile(path, []byte(token), 0o600); err != nil {
		return fmt.Errorf("save session token: %w", err)
	}
	return nil
}

func loadToken(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.New("not logged in: run blogctl register or login first")
		}
		return "", fmt.Errorf("read session token: %w", err)
	}
	token := strings.TrimSpace(string(raw))
	if token == "" {
		return "", errors.New("not logged in: run blogctl register or login first")
	}
	return token, nil
}

func deleteToken(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove session token: %w", err)
	}
	return nil
}
