package usage

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"

	"legalassist-backend/internal/conversation"
)

func intPtr(n int) *int { return &n }

func TestRecordMergesReports(t *testing.T) {
	svc := NewService()
	ctx := context.Background()

	u, err := svc.Get(ctx, "u1")
	if err != nil || u.RemainingMessages != nil {
		t.Fatalf("expected empty usage, got %+v err=%v", u, err)
	}

	if err := svc.Record(ctx, "u1", conversation.UsageReport{Remaining: intPtr(5), SubscriptionStatus: "free"}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := svc.Record(ctx, "u1", conversation.UsageReport{Remaining: intPtr(4)}); err != nil {
		t.Fatalf("record: %v", err)
	}
	u, _ = svc.Get(ctx, "u1")
	if *u.RemainingMessages != 4 || u.SubscriptionStatus != "free" || u.Exhausted {
		t.Fatalf("unexpected usage %+v", u)
	}

	if err := svc.Record(ctx, "u1", conversation.UsageReport{Exhausted: true}); err != nil {
		t.Fatalf("record: %v", err)
	}
	u, _ = svc.Get(ctx, "u1")
	if *u.RemainingMessages != 0 || !u.Exhausted {
		t.Fatalf("expected exhausted usage, got %+v", u)
	}
}

func TestGetReturnsCopy(t *testing.T) {
	svc := NewService()
	ctx := context.Background()
	_ = svc.Record(ctx, "u1", conversation.UsageReport{Remaining: intPtr(3)})

	u, _ := svc.Get(ctx, "u1")
	*u.RemainingMessages = 99
	again, _ := svc.Get(ctx, "u1")
	if *again.RemainingMessages != 3 {
		t.Fatalf("stored usage was mutated: %+v", again)
	}
}

func TestPGStoreRoundTrip(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	svc := NewPostgresService(NewPGStore(db))
	svc.Now = func() time.Time { return now }

	mock.ExpectQuery("SELECT remaining_messages").
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"remaining_messages", "subscription_status", "exhausted", "updated_at"}))
	mock.ExpectExec("INSERT INTO usage_snapshots").
		WithArgs("u1", int64(7), "pro", false, now).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := svc.Record(context.Background(), "u1", conversation.UsageReport{Remaining: intPtr(7), SubscriptionStatus: "pro"}); err != nil {
		t.Fatalf("record: %v", err)
	}

	mock.ExpectQuery("SELECT remaining_messages").
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"remaining_messages", "subscription_status", "exhausted", "updated_at"}).
			AddRow(int64(7), "pro", false, now))

	u, err := svc.Get(context.Background(), "u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if u.RemainingMessages == nil || *u.RemainingMessages != 7 || u.SubscriptionStatus != "pro" {
		t.Fatalf("unexpected usage %+v", u)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestUsageHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := NewService()
	_ = svc.Record(context.Background(), "guest:g1", conversation.UsageReport{Remaining: intPtr(2), SubscriptionStatus: "free"})

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userId", "guest:"+c.GetHeader("X-Guest-Id"))
		c.Next()
	})
	NewHandler(svc).RegisterRoutes(r.Group("/api/v1"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/usage", nil)
	req.Header.Set("X-Guest-Id", "g1")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var body Usage
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.RemainingMessages == nil || *body.RemainingMessages != 2 || body.SubscriptionStatus != "free" {
		t.Fatalf("unexpected body %+v", body)
	}
}
