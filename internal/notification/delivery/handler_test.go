package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	notifdomain "portal-backend/internal/notification/domain"
	"portal-backend/internal/notification/dto"
	"portal-backend/internal/notification/repository"
	"portal-backend/internal/notification/usecase"
	subdomain "portal-backend/internal/subscription/domain"
	subrepo "portal-backend/internal/subscription/repository"
	subusecase "portal-backend/internal/subscription/usecase"
	"portal-backend/pkg/webpush"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type staticPush map[string]int

func (s staticPush) Deliver(_ context.Context, sub webpush.Subscription, _ []byte, _ webpush.Options) webpush.Outcome {
	status := s[sub.Endpoint]
	return webpush.Outcome{Class: webpush.ClassifyStatus(status), StatusCode: status}
}

type fixture struct {
	router   *gin.Engine
	inbox    repository.InboxRepository
	registry subusecase.Registry
}

func setupRouter(t *testing.T, push staticPush) fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&subdomain.Subscription{}, &notifdomain.Notification{}))

	registry := subusecase.NewRegistry(subrepo.NewGormSubscriptionRepository(db), nil)
	inbox := repository.NewGormInboxRepository(db)
	dispatcher := usecase.NewDispatcher(registry, push, usecase.PayloadDefaults{URL: "/employee-portal", TTL: 3600, Urgency: "high"}, 4, nil)
	handler := NewNotificationHandler(usecase.NewNotificationUsecase(inbox, dispatcher, 50, nil))

	r := gin.New()
	authed := r.Group("/api/notifications", func(c *gin.Context) {
		c.Set("userID", "emp-42")
		c.Next()
	})
	authed.GET("", handler.GetInbox)
	authed.PATCH("/read-all", handler.MarkAllRead)
	authed.PATCH("/:id/read", handler.MarkRead)
	authed.DELETE("", handler.ClearAll)

	internal := r.Group("/api/internal")
	internal.POST("/notifications", handler.Notify)
	internal.POST("/push/dispatch", handler.Dispatch)

	return fixture{router: r, inbox: inbox, registry: registry}
}

func doJSON(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func (f fixture) register(t *testing.T, subscriber, endpoint string) {
	t.Helper()
	_, err := f.registry.Register(context.Background(), subscriber, subdomain.DeviceSubscription{
		Endpoint: endpoint,
		Keys:     subdomain.Keys{P256dh: "BPub", Auth: "secret"},
	})
	require.NoError(t, err)
}

func TestDispatchEndpointReportsSummary(t *testing.T) {
	deviceA := "https://push.example.com/a"
	deviceB := "https://push.example.com/b"
	f := setupRouter(t, staticPush{deviceA: 201, deviceB: 404})
	f.register(t, "emp-42", deviceA)
	f.register(t, "emp-42", deviceB)

	w := doJSON(f.router, http.MethodPost, "/api/internal/push/dispatch", map[string]any{
		"event":      map[string]any{"category": "task", "action": "assigned", "title": "New task", "body": "Review PR #12"},
		"recipients": []string{"emp-42"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"sent":1,"failed":1,"expired":1,"expiredRecipients":[{"recipient":"emp-42","endpoint":"https://push.example.com/b"}]}`, w.Body.String())

	subs, err := f.registry.ListForSubscriber(context.Background(), "emp-42")
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, deviceA, subs[0].Endpoint)

	// dispatch never writes the inbox
	items, err := f.inbox.FindByRecipient(context.Background(), "emp-42", 10)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestDispatchEndpointRejectsMissingTitle(t *testing.T) {
	f := setupRouter(t, staticPush{})

	w := doJSON(f.router, http.MethodPost, "/api/internal/push/dispatch", map[string]any{
		"event":      map[string]any{"category": "task"},
		"recipients": []string{"emp-42"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestNotifyThenReadInbox(t *testing.T) {
	f := setupRouter(t, staticPush{})

	w := doJSON(f.router, http.MethodPost, "/api/internal/notifications", map[string]any{
		"event": map[string]any{
			"category": "discussion",
			"action":   "replied",
			"title":    "New reply",
			"data":     map[string]string{"url": "/employee-portal/discussions/7"},
		},
		"recipients": []string{"emp-42"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result notifdomain.NotifyResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, 1, result.Stored)
	require.NotNil(t, result.Dispatch)
	assert.Zero(t, result.Dispatch.Attempts())

	w = doJSON(f.router, http.MethodGet, "/api/notifications", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var inbox dto.InboxResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &inbox))
	require.Len(t, inbox.Notifications, 1)
	assert.EqualValues(t, 1, inbox.Unread)
	assert.Equal(t, "/employee-portal/discussions/7", inbox.Notifications[0].URL)

	w = doJSON(f.router, http.MethodPatch, "/api/notifications/"+inbox.Notifications[0].ID+"/read", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(f.router, http.MethodGet, "/api/notifications", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &inbox))
	assert.Zero(t, inbox.Unread)
	assert.True(t, inbox.Notifications[0].Read)
}

func TestMarkReadErrors(t *testing.T) {
	f := setupRouter(t, staticPush{})
	require.NoError(t, f.inbox.Create(context.Background(), &notifdomain.Notification{
		ID:          "someone-elses",
		RecipientID: "emp-7",
		Category:    notifdomain.CategoryTask,
		Title:       "Private",
		CreatedAt:   time.Now(),
	}))

	w := doJSON(f.router, http.MethodPatch, "/api/notifications/missing/read", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(f.router, http.MethodPatch, "/api/notifications/someone-elses/read", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestInboxBadLimit(t *testing.T) {
	f := setupRouter(t, staticPush{})

	w := doJSON(f.router, http.MethodGet, "/api/notifications?limit=ten", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMarkAllReadAndClear(t *testing.T) {
	f := setupRouter(t, staticPush{})
	for _, id := range []string{"n-1", "n-2"} {
		require.NoError(t, f.inbox.Create(context.Background(), &notifdomain.Notification{
			ID:          id,
			RecipientID: "emp-42",
			Category:    notifdomain.CategoryCalendar,
			Title:       "Meeting",
			CreatedAt:   time.Now(),
		}))
	}

	w := doJSON(f.router, http.MethodPatch, "/api/notifications/read-all", nil)
	require.Equal(t, http.StatusOK, w.Code)
	unread, err := f.inbox.CountUnread(context.Background(), "emp-42")
	require.NoError(t, err)
	assert.Zero(t, unread)

	w = doJSON(f.router, http.MethodDelete, "/api/notifications", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"removed":2}`, w.Body.String())
}
