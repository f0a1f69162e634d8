package conversation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"legalassist-backend/internal/i18n"
)

var errBackend = errors.New("backend unavailable")

type fakeMessenger struct {
	mu       sync.Mutex
	requests []MessageRequest
	exits    int
	reply    func(MessageRequest) (MessageReply, error)
	gate     chan struct{}
	entered  chan struct{}
}

func (f *fakeMessenger) SendMessage(ctx context.Context, req MessageRequest) (MessageReply, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	reply, gate, entered := f.reply, f.gate, f.entered
	f.mu.Unlock()
	if entered != nil {
		entered <- struct{}{}
	}
	if gate != nil {
		<-gate
	}
	if reply == nil {
		return MessageReply{Response: "ok", Mode: ModeAutoDetect}, nil
	}
	return reply(req)
}

func (f *fakeMessenger) ExitDocumentMode(ctx context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.exits++
	return nil
}

func (f *fakeMessenger) sent() []MessageRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]MessageRequest(nil), f.requests...)
}

func (f *fakeMessenger) exitCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.exits
}

type fakeSchemas struct {
	mu      sync.Mutex
	schemas map[string]TemplateSchema
	calls   int
	gate    chan struct{}
	entered chan struct{}
}

func (f *fakeSchemas) TemplateSchema(ctx context.Context, path string) (TemplateSchema, error) {
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	s, ok := f.schemas[path]
	if !ok {
		return TemplateSchema{}, fmt.Errorf("schema %s: %w", path, errBackend)
	}
	return s, nil
}

type fakeDesigns struct {
	calls   atomic.Int32
	designs []Design
	err     error
}

func (f *fakeDesigns) Designs(ctx context.Context, category string) ([]Design, error) {
	f.calls.Add(1)
	return f.designs, f.err
}

type fakeGenerator struct {
	calls          atomic.Int32
	complaintCalls atomic.Int32
	gate           chan struct{}
	err            error
	panicWith      any

	mu   sync.Mutex
	last GenerateRequest
}

func (f *fakeGenerator) Generate(ctx context.Context, req GenerateRequest) (GenerateResult, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.last = req
	f.mu.Unlock()
	if f.gate != nil {
		<-f.gate
	}
	if f.panicWith != nil {
		panic(f.panicWith)
	}
	if f.err != nil {
		return GenerateResult{}, f.err
	}
	return GenerateResult{Message: "Here is your document.", FileURL: "https://files.example/doc.pdf"}, nil
}

func (f *fakeGenerator) GenerateComplaint(ctx context.Context, req ComplaintRequest) (GenerateResult, error) {
	f.complaintCalls.Add(1)
	if f.err != nil {
		return GenerateResult{}, f.err
	}
	return GenerateResult{Message: "Complaint drafted."}, nil
}

func (f *fakeGenerator) lastRequest() GenerateRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last
}

type fakeAnalyzer struct {
	text string
	err  error
}

func (f *fakeAnalyzer) AnalyzeFile(ctx context.Context, file FileRef, lang string) (string, error) {
	return f.text, f.err
}

type fakeFeedback struct {
	got chan Feedback
}

func (f *fakeFeedback) SubmitFeedback(ctx context.Context, fb Feedback) error {
	f.got <- fb
	return nil
}

type fakeDocuments struct {
	mu   sync.Mutex
	docs []GeneratedDocument
}

func (f *fakeDocuments) Record(ctx context.Context, userID string, doc GeneratedDocument) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs = append(f.docs, doc)
	return nil
}

type fakeUsage struct {
	mu      sync.Mutex
	reports []UsageReport
}

func (f *fakeUsage) Record(ctx context.Context, userID string, r UsageReport) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reports = append(f.reports, r)
	return nil
}

const rentPath = "rental/rent_agreement"

func rentSchema() TemplateSchema {
	return TemplateSchema{
		TemplatePath: rentPath,
		DisplayTitle: "Rent Agreement",
		Fields: []FieldSpec{
			{Key: "landlord", Label: "Landlord", Type: "text", Required: true},
			{Key: "tenant", Label: "Tenant", Type: "text", Required: true},
			{Key: "address", Label: "Address", Type: "textarea", Required: true},
			{Key: "rent", Label: "Monthly rent", Type: "number", Required: true},
			{Key: "start_date", Label: "Start date", Type: "date", Required: true},
			{Key: "notes", Label: "Notes", Type: "textarea"},
		},
	}
}

type testEnv struct {
	msg      *fakeMessenger
	schemas  *fakeSchemas
	designs  *fakeDesigns
	gen      *fakeGenerator
	analyzer *fakeAnalyzer
	feedback *fakeFeedback
	docs     *fakeDocuments
	usage    *fakeUsage
	deps     Deps
	conv     *Conversation
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	var seq atomic.Int64
	e := &testEnv{
		msg: &fakeMessenger{},
		schemas: &fakeSchemas{schemas: map[string]TemplateSchema{
			rentPath: rentSchema(),
		}},
		designs: &fakeDesigns{designs: []Design{
			{ID: "classic", Name: "Classic", IsDefault: true, Config: map[string]any{"font": "serif"}},
			{ID: "modern", Name: "Modern", Config: map[string]any{"font": "sans"}},
		}},
		gen:      &fakeGenerator{},
		analyzer: &fakeAnalyzer{text: "This is a lease deed."},
		feedback: &fakeFeedback{got: make(chan Feedback, 4)},
		docs:     &fakeDocuments{},
		usage:    &fakeUsage{},
	}
	e.deps = Deps{
		Messenger: e.msg,
		Schemas:   e.schemas,
		Designs:   e.designs,
		Generator: e.gen,
		Analyzer:  e.analyzer,
		Feedback:  e.feedback,
		Documents: e.docs,
		Usage:     e.usage,
		Catalog:   i18n.MustLoad(),
		Now:       func() time.Time { return time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC) },
		NewID:     func() string { return fmt.Sprintf("id-%d", seq.Add(1)) },
	}
	e.conv = New(e.deps, "session-1", "user-1", "en")
	return e
}

// replyWith makes the messenger answer every message with r.
func (e *testEnv) replyWith(r MessageReply) {
	e.msg.mu.Lock()
	defer e.msg.mu.Unlock()
	e.msg.reply = func(MessageRequest) (MessageReply, error) { return r, nil }
}

func (e *testEnv) failWith(err error) {
	e.msg.mu.Lock()
	defer e.msg.mu.Unlock()
	e.msg.reply = func(MessageRequest) (MessageReply, error) { return MessageReply{}, err }
}
