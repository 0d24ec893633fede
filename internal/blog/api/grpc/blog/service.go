// Package blog implements the blog.v1.BlogService gRPC API.
package blog

import (
	"context"
	"strings"

	blogv1 "github.com/inkstream/inkstream/api/gen/go/blog/v1"
	"github.com/inkstream/inkstream/internal/blog/auth"
	"github.com/inkstream/inkstream/internal/blog/post"
	"github.com/inkstream/inkstream/internal/blog/user"
	apperrors "github.com/inkstream/inkstream/internal/platform/errors"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// BlogService implements the blog.v1.BlogService gRPC API.
//
// It is the wire-facing twin of the HTTP mux: both adapt the same auth and
// post services, so behavior can only differ by transport mechanics.
type BlogService struct {
	blogv1.UnimplementedBlogServiceServer
	auth   *auth.Service
	posts  *post.Service
	tokens *auth.TokenService
}

// NewBlogService builds a service over the shared auth and post services.
func NewBlogService(authService *auth.Service, postService *post.Service, tokens *auth.TokenService) *BlogService {
	return &BlogService{
		auth:   authService,
		posts:  postService,
		tokens: tokens,
	}
}

// Register creates an account and returns it with a fresh session token.
func (s *BlogService) Register(ctx context.Context, in *blogv1.RegisterRequest) (*blogv1.RegisterResponse, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "register request is required")
	}
	if s.auth == nil {
		return nil, status.Error(codes.Internal, "auth service is not configured")
	}

	created, token, err := s.auth.Register(ctx, in.GetUsername(), in.GetEmail(), in.GetPassword())
	if err != nil {
		return nil, handleDomainError(err)
	}

	return &blogv1.RegisterResponse{User: userToProto(created), Token: token}, nil
}

// Login verifies credentials and returns the account with a fresh token.
func (s *BlogService) Login(ctx context.Context, in *blogv1.LoginRequest) (*blogv1.LoginResponse, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "login request is required")
	}
	if s.auth == nil {
		return nil, status.Error(codes.Internal, "auth service is not configured")
	}

	found, token, err := s.auth.Login(ctx, in.GetUsername(), in.GetPassword())
	if err != nil {
		return nil, handleDomainError(err)
	}

	return &blogv1.LoginResponse{User: userToProto(found), Token: token}, nil
}

// CreatePost publishes a new post authored by the calling user.
func (s *BlogService) CreatePost(ctx context.Context, in *blogv1.CreatePostRequest) (*blogv1.CreatePostResponse, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "create post request is required")
	}
	if s.posts == nil {
		return nil, status.Error(codes.Internal, "post service is not configured")
	}

	caller, err := s.callerFromContext(ctx)
	if err != nil {
		return nil, handleDomainError(err)
	}

	created, err := s.posts.Create(ctx, caller.UserID, in.GetTitle(), in.GetContent())
	if err != nil {
		return nil, handleDomainError(err)
	}

	return &blogv1.CreatePostResponse{Post: postToProto(created)}, nil
}

// GetPost resolves a post id to its record. No authentication is required.
func (s *BlogService) GetPost(ctx context.Context, in *blogv1.GetPostRequest) (*blogv1.GetPostResponse, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "get post request is required")
	}
	if s.posts == nil {
		return nil, status.Error(codes.Internal, "post service is not configured")
	}
	if in.GetPostId() <= 0 {
		return nil, status.Error(codes.InvalidArgument, "post id is required")
	}

	found, err := s.posts.Get(ctx, in.GetPostId())
	if err != nil {
		return nil, handleDomainError(err)
	}

	return &blogv1.GetPostResponse{Post: postToProto(found)}, nil
}

// UpdatePost replaces the title and content of a post owned by the caller.
func (s *BlogService) UpdatePost(ctx context.Context, in *blogv1.UpdatePostRequest) (*blogv1.UpdatePostResponse, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "update post request is required")
	}
	if s.posts == nil {
		return nil, status.Error(codes.Internal, "post service is not configured")
	}
	if in.GetPostId() <= 0 {
		return nil, status.Error(codes.InvalidArgument, "post id is required")
	}

	caller, err := s.callerFromContext(ctx)
	if err != nil {
		return nil, handleDomainError(err)
	}

	updated, err := s.posts.Update(ctx, in.GetPostId(), caller.UserID, in.GetTitle(), in.GetContent())
	if err != nil {
		return nil, handleDomainError(err)
	}

	return &blogv1.UpdatePostResponse{Post: postToProto(updated)}, nil
}

// DeletePost removes a post owned by the caller.
func (s *BlogService) DeletePost(ctx context.Context, in *blogv1.DeletePostRequest) (*blogv1.DeletePostResponse, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "delete post request is required")
	}
	if s.posts == nil {
		return nil, status.Error(codes.Internal, "post service is not configured")
	}
	if in.GetPostId() <= 0 {
		return nil, status.Error(codes.InvalidArgument, "post id is required")
	}

	caller, err := s.callerFromContext(ctx)
	if err != nil {
		return nil, handleDomainError(err)
	}

	if err := s.posts.Delete(ctx, in.GetPostId(), caller.UserID); err != nil {
		return nil, handleDomainError(err)
	}

	return &blogv1.DeletePostResponse{}, nil
}

// GetPosts returns a page of posts in reverse chronological order.
// No authentication is required; zero limit and offset use server defaults.
func (s *BlogService) GetPosts(ctx context.Context, in *blogv1.GetPostsRequest) (*blogv1.GetPostsResponse, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "get posts request is required")
	}
	if s.posts == nil {
		return nil, status.Error(codes.Internal, "post service is not configured")
	}

	page, err := s.posts.List(ctx, in.GetLimit(), in.GetOffset())
	if err != nil {
		return nil, handleDomainError(err)
	}

	response := &blogv1.GetPostsResponse{
		Total:  page.Total,
		Limit:  page.Limit,
		Offset: page.Offset,
	}
	if len(page.Posts) == 0 {
		return response, nil
	}

	response.Posts = make([]*blogv1.Post, 0, len(page.Posts))
	for _, p := range page.Posts {
		response.Posts = append(response.Posts, postToProto(p))
	}
	return response, nil
}

// callerFromContext authenticates the calling user from request metadata.
//
// The token travels in the standard "authorization" key with an optional
// Bearer prefix, matching what the HTTP adapter accepts in its header.
func (s *BlogService) callerFromContext(ctx context.Context) (auth.Claims, error) {
	if s.tokens == nil {
		return auth.Claims{}, status.Error(codes.Internal, "token service is not configured")
	}

	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return auth.Claims{}, apperrors.New(apperrors.CodeInvalidToken, "authorization token is required")
	}

	values := md.Get("authorization")
	if len(values) == 0 {
		return auth.Claims{}, apperrors.New(apperrors.CodeInvalidToken, "authorization token is required")
	}

	token := strings.TrimSpace(strings.TrimPrefix(values[0], "Bearer "))
	if token == "" {
		return auth.Claims{}, apperrors.New(apperrors.CodeInvalidToken, "authorization token is required")
	}

	return s.tokens.Verify(token)
}

func userToProto(u user.User) *blogv1.User {
	return &blogv1.User{
		Id:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt.UnixMilli(),
	}
}

func postToProto(p post.Post) *blogv1.Post {
	return &blogv1.Post{
		Id:        p.ID,
		Title:     p.Title,
		Content:   p.Content,
		AuthorId:  p.AuthorID,
		CreatedAt: p.CreatedAt.UnixMilli(),
		UpdatedAt: p.UpdatedAt.UnixMilli(),
	}
}

// handleDomainError converts domain errors to gRPC status using the structured error system.
func handleDomainError(err error) error {
	return apperrors.HandleError(err, apperrors.DefaultLocale)
}
