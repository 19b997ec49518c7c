package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aksdemo/go-msg-backend/internal/domain"
	"github.com/aksdemo/go-msg-backend/internal/http/middleware"
	"github.com/aksdemo/go-msg-backend/internal/services"
)

// stubMsgSvc satisfies MessageService with configurable funcs.
type stubMsgSvc struct {
	save       func(ctx context.Context, userID uint, actor, body string) (*domain.Message, error)
	saveLegacy func(ctx context.Context, actor, body string) (*domain.Message, error)
	list       func(ctx context.Context, actor string) ([]domain.MessageView, error)
	search     func(ctx context.Context, actor, q, userFilter string) ([]domain.MessageView, error)
	byUser     func(ctx context.Context, actor, username string) ([]domain.MessageView, error)
}

func (s stubMsgSvc) Save(ctx context.Context, userID uint, actor, body string) (*domain.Message, error) {
	return s.save(ctx, userID, actor, body)
}
func (s stubMsgSvc) SaveLegacy(ctx context.Context, actor, body string) (*domain.Message, error) {
	return s.saveLegacy(ctx, actor, body)
}
func (s stubMsgSvc) List(ctx context.Context, actor string) ([]domain.MessageView, error) {
	return s.list(ctx, actor)
}
func (s stubMsgSvc) Search(ctx context.Context, actor, q, userFilter string) ([]domain.MessageView, error) {
	return s.search(ctx, actor, q, userFilter)
}
func (s stubMsgSvc) ByUser(ctx context.Context, actor, username string) ([]domain.MessageView, error) {
	return s.byUser(ctx, actor, username)
}

// noopAuthSvc keeps Handlers.New satisfied when auth routes are unused.
type noopAuthSvc struct{}

func (noopAuthSvc) Register(context.Context, string, string) (*domain.User, error) { return nil, nil }
func (noopAuthSvc) Login(context.Context, string, string) (*domain.User, error)    { return nil, nil }
func (noopAuthSvc) Logout(context.Context, string)                                 {}

// asSessionUser imitates the session gate by injecting the identity keys.
func asSessionUser(username string, id uint) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserKey, username)
		c.Set(middleware.ContextUserDBKey, id)
		c.Next()
	}
}

func msgRouter(svc stubMsgSvc) *gin.Engine {
	r := gin.New()
	r.Use(asSessionUser("alice", 7))

	h := New(noopAuthSvc{}, svc, nil, nil, HealthDeps{})
	r.POST("/messages", h.SaveMessage)
	r.GET("/messages", h.ListMessages)
	r.GET("/messages/search", h.SearchMessages)
	r.GET("/messages/user/:username", h.UserMessages)
	r.POST("/db/message", h.SaveLegacyMessage)
	r.GET("/db/messages", h.ListLegacyMessages)
	return r
}

func TestSaveMessage_AttributesToSessionUser(t *testing.T) {
	var gotUserID uint
	var gotActor, gotBody string
	r := msgRouter(stubMsgSvc{
		save: func(_ context.Context, userID uint, actor, body string) (*domain.Message, error) {
			gotUserID, gotActor, gotBody = userID, actor, body
			return &domain.Message{ID: 1, Body: body}, nil
		},
	})

	w := postJSON(r, "/messages", `{"message":"hello"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if gotUserID != 7 || gotActor != "alice" || gotBody != "hello" {
		t.Fatalf("service called with (%d, %q, %q)", gotUserID, gotActor, gotBody)
	}
	if env := decodeEnvelope(t, w); env.Message != "message saved" {
		t.Fatalf("envelope = %+v", env)
	}
}

func TestSaveMessage_EmptyBody(t *testing.T) {
	r := msgRouter(stubMsgSvc{
		save: func(context.Context, uint, string, string) (*domain.Message, error) {
			return nil, services.ErrEmptyMessage
		},
	})

	w := postJSON(r, "/messages", `{"message":""}`, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if env := decodeEnvelope(t, w); env.Message != "message body is required" {
		t.Fatalf("envelope = %+v", env)
	}
}

func TestSaveMessage_DBErrorIs500(t *testing.T) {
	r := msgRouter(stubMsgSvc{
		save: func(context.Context, uint, string, string) (*domain.Message, error) {
			return nil, errors.New("disk full")
		},
	})

	w := postJSON(r, "/messages", `{"message":"x"}`, nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
}

func TestListMessages_ReturnsDataEnvelope(t *testing.T) {
	now := time.Now().UTC()
	r := msgRouter(stubMsgSvc{
		list: func(_ context.Context, actor string) ([]domain.MessageView, error) {
			if actor != "alice" {
				t.Fatalf("actor = %q", actor)
			}
			return []domain.MessageView{
				{ID: 2, Body: "newer", CreatedAt: now, Username: "alice"},
				{ID: 1, Body: "older", CreatedAt: now.Add(-time.Minute), Username: "bob"},
			}, nil
		},
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/messages", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	env := decodeEnvelope(t, w)
	rows, ok := env.Data.([]any)
	if !ok || len(rows) != 2 {
		t.Fatalf("data = %#v", env.Data)
	}
}

func TestSearchMessages_PassesQueryParams(t *testing.T) {
	var gotQ, gotUser string
	r := msgRouter(stubMsgSvc{
		search: func(_ context.Context, _ string, q, userFilter string) ([]domain.MessageView, error) {
			gotQ, gotUser = q, userFilter
			return nil, nil
		},
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/messages/search?q=deploy&user=bob", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if gotQ != "deploy" || gotUser != "bob" {
		t.Fatalf("service called with q=%q user=%q", gotQ, gotUser)
	}
}

func TestUserMessages_PassesPathParam(t *testing.T) {
	var gotUsername string
	r := msgRouter(stubMsgSvc{
		byUser: func(_ context.Context, _ string, username string) ([]domain.MessageView, error) {
			gotUsername = username
			return nil, nil
		},
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/messages/user/bob", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if gotUsername != "bob" {
		t.Fatalf("username = %q", gotUsername)
	}
}

func TestSaveLegacyMessage_UsesLegacyPath(t *testing.T) {
	var legacyCalled bool
	r := msgRouter(stubMsgSvc{
		saveLegacy: func(_ context.Context, actor, body string) (*domain.Message, error) {
			legacyCalled = true
			return &domain.Message{ID: 3, Body: body}, nil
		},
	})

	w := postJSON(r, "/db/message", `{"message":"legacy"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !legacyCalled {
		t.Fatalf("expected SaveLegacy to be called")
	}
}

func TestListLegacyMessages_AliasesListing(t *testing.T) {
	var listCalled bool
	r := msgRouter(stubMsgSvc{
		list: func(context.Context, string) ([]domain.MessageView, error) {
			listCalled = true
			return nil, nil
		},
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/db/messages", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !listCalled {
		t.Fatalf("expected the alias to hit the same listing")
	}
}
