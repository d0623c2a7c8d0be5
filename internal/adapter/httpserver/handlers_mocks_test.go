package httpserver

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/pscheid92/veritas/internal/domain"
	"github.com/pscheid92/veritas/internal/platform/config"
)

// --- Mock implementations ---

type mockAppService struct {
	authenticateFn func(ctx context.Context, userID uuid.UUID) (*domain.User, error)
	createRumorFn  func(ctx context.Context, authorID uuid.UUID, content string) (*domain.CreatedRumor, error)
	castVoteFn     func(ctx context.Context, userID, rumorID uuid.UUID, voteType domain.VoteType) (*domain.VoteResult, error)
	feedFn         func(ctx context.Context, viewerID uuid.UUID, filter domain.FeedFilter) (*domain.Feed, error)
	settleRumorFn  func(ctx context.Context, rumorID uuid.UUID) (domain.Status, error)
	profileFn      func(ctx context.Context, userID uuid.UUID) (*domain.Profile, error)
}

func (m *mockAppService) Authenticate(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	if m.authenticateFn != nil {
		return m.authenticateFn(ctx, userID)
	}
	return &domain.User{ID: userID, Reputation: 50}, nil
}

func (m *mockAppService) CreateRumor(ctx context.Context, authorID uuid.UUID, content string) (*domain.CreatedRumor, error) {
	if m.createRumorFn != nil {
		return m.createRumorFn(ctx, authorID, content)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAppService) CastVote(ctx context.Context, userID, rumorID uuid.UUID, voteType domain.VoteType) (*domain.VoteResult, error) {
	if m.castVoteFn != nil {
		return m.castVoteFn(ctx, userID, rumorID, voteType)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAppService) Feed(ctx context.Context, viewerID uuid.UUID, filter domain.FeedFilter) (*domain.Feed, error) {
	if m.feedFn != nil {
		return m.feedFn(ctx, viewerID, filter)
	}
	return &domain.Feed{}, nil
}

func (m *mockAppService) SettleRumor(ctx context.Context, rumorID uuid.UUID) (domain.Status, error) {
	if m.settleRumorFn != nil {
		return m.settleRumorFn(ctx, rumorID)
	}
	return "", errors.New("not implemented")
}

func (m *mockAppService) Profile(ctx context.Context, userID uuid.UUID) (*domain.Profile, error) {
	if m.profileFn != nil {
		return m.profileFn(ctx, userID)
	}
	return nil, errors.New("not implemented")
}

// --- Test helpers ---

func testConfig() *config.Config {
	return &config.Config{
		Port:               "0",
		RateLimitPerSecond: 1000,
		RateLimitBurst:     1000,
	}
}

func newTestServer(t *testing.T, app appService, opts ...Option) *Server {
	t.Helper()
	return NewServer(testConfig(), app, opts...)
}

// serve runs a request through the full middleware and routing stack.
func serve(srv *Server, method, path string, userID *uuid.UUID, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != nil {
		req.Header.Set(headerUserID, userID.String())
	}
	return record(srv, req)
}

// serveRaw sends rawUserID verbatim, or no identity header when it is empty.
func serveRaw(srv *Server, method, path, rawUserID string) *httptest.ResponseRecorder {
	req := newRequest(method, path)
	if rawUserID != "" {
		req.Header.Set(headerUserID, rawUserID)
	}
	return record(srv, req)
}

func newRequest(method, path string) *http.Request {
	return httptest.NewRequest(method, path, nil)
}

func record(srv *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)
	return rec
}

var _ http.Handler = (*mockHandler)(nil)

type mockHandler struct {
	called bool
}

func (m *mockHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	m.called = true
	w.WriteHeader(http.StatusOK)
}
