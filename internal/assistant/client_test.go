package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"legalassist-backend/internal/conversation"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewClient(Options{BaseURL: srv.URL + "/", Token: "secret", Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	if _, err := NewClient(Options{}); err == nil {
		t.Fatalf("expected error without base URL")
	}
}

func TestSendMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/chat/message" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("expected bearer token, got %q", got)
		}
		var req conversation.MessageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		if req.Text != "rent agreement" || req.IntentOverride != "create_document" {
			t.Errorf("unexpected body: %+v", req)
		}
		w.Write([]byte(`{"response":"Fill the form","mode":"waiting_for_details","templatePath":"rental/rent","missingFields":["tenant"],"remainingMessages":3}`))
	})

	reply, err := c.SendMessage(context.Background(), conversation.MessageRequest{
		SessionID: "s1", Text: "rent agreement", Language: "en", IntentOverride: "create_document",
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if reply.Mode != conversation.ModeWaitingForDetails || reply.TemplatePath != "rental/rent" {
		t.Fatalf("unexpected reply: %+v", reply)
	}
	if reply.RemainingMessages == nil || *reply.RemainingMessages != 3 {
		t.Fatalf("expected remaining messages")
	}
}

func TestQuotaErrorsMapToSentinel(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
	}{
		{"payment required", http.StatusPaymentRequired, `{"detail":"upgrade"}`},
		{"error code", http.StatusForbidden, `{"error":{"code":"quota_exhausted","message":"no messages left"}}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			})
			_, err := c.SendMessage(context.Background(), conversation.MessageRequest{Text: "hi"})
			if !errors.Is(err, conversation.ErrQuotaExhausted) {
				t.Fatalf("expected quota error, got %v", err)
			}
		})
	}
}

func TestOtherErrorsAreNotQuota(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"bad template"}`))
	})
	_, err := c.Generate(context.Background(), conversation.GenerateRequest{TemplatePath: "x"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusBadRequest || apiErr.Message != "bad template" {
		t.Fatalf("unexpected error: %v", err)
	}
	if errors.Is(err, conversation.ErrQuotaExhausted) {
		t.Fatalf("400 must not map to quota")
	}
}

func TestTemplateSchemaRetriesOnce(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("path") != "rental/rent" {
			t.Errorf("unexpected path query %q", r.URL.RawQuery)
		}
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"displayTitle":"Rent Agreement","fields":[{"key":"tenant","label":"Tenant","type":"text","required":true}]}`))
	})

	schema, err := c.TemplateSchema(context.Background(), "rental/rent")
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected one retry, got %d calls", calls.Load())
	}
	if schema.TemplatePath != "rental/rent" || len(schema.Fields) != 1 || !schema.Fields[0].Required {
		t.Fatalf("unexpected schema: %+v", schema)
	}
}

func TestDesignsDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	})
	if _, err := c.Designs(context.Background(), "rental"); err == nil {
		t.Fatalf("expected error")
	}
	if calls.Load() != 1 {
		t.Fatalf("expected no retry, got %d calls", calls.Load())
	}
}

func TestDesignsAndGenerate(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/designs":
			if r.URL.Query().Get("category") != "rental" {
				t.Errorf("expected category query")
			}
			w.Write([]byte(`{"designs":[{"id":"classic","name":"Classic","isDefault":true,"config":{"font":"serif"}}]}`))
		case "/complaints/generate":
			var req conversation.ComplaintRequest
			json.NewDecoder(r.Body).Decode(&req)
			if req.ComplaintData["relief_sought"] != "refund" {
				t.Errorf("unexpected complaint body: %+v", req)
			}
			w.Write([]byte(`{"message":"done","file":"https://files/c.pdf","document":{"id":"d1"}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	designs, err := c.Designs(context.Background(), "rental")
	if err != nil || len(designs) != 1 || designs[0].Config["font"] != "serif" {
		t.Fatalf("unexpected designs: %+v %v", designs, err)
	}
	res, err := c.GenerateComplaint(context.Background(), conversation.ComplaintRequest{
		ComplaintData: map[string]string{"relief_sought": "refund"},
	})
	if err != nil || res.FileURL != "https://files/c.pdf" || res.Document["id"] != "d1" {
		t.Fatalf("unexpected result: %+v %v", res, err)
	}
}

func TestExitFeedbackAndAnalyze(t *testing.T) {
	var paths []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		if r.URL.Path == "/files/analyze" {
			w.Write([]byte(`{"analysis":"A lease deed."}`))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	if err := c.ExitDocumentMode(context.Background(), "s1"); err != nil {
		t.Fatalf("exit: %v", err)
	}
	if err := c.SubmitFeedback(context.Background(), conversation.Feedback{DocumentID: "d1", Positive: true}); err != nil {
		t.Fatalf("feedback: %v", err)
	}
	text, err := c.AnalyzeText(context.Background(), FileAnalysisRequest{FileName: "a.pdf", Text: "lease"})
	if err != nil || text != "A lease deed." {
		t.Fatalf("analyze: %q %v", text, err)
	}
	want := []string{"/chat/exit-document-mode", "/feedback", "/files/analyze"}
	for i, p := range want {
		if paths[i] != p {
			t.Fatalf("expected %s, got %s", p, paths[i])
		}
	}
}

func TestShouldRetry(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{&APIError{Status: 503}, true},
		{&APIError{Status: 402}, false},
		{context.Canceled, false},
		{context.DeadlineExceeded, true},
		{errors.New("read: connection reset by peer"), true},
		{errors.New("invalid template"), false},
	}
	for _, tc := range cases {
		if got := shouldRetry(tc.err); got != tc.want {
			t.Fatalf("shouldRetry(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}
