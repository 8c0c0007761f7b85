package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jonathan/pin-pipeline/internal/blog"
	"github.com/jonathan/pin-pipeline/internal/db"
	"github.com/jonathan/pin-pipeline/internal/imagehost"
	"github.com/jonathan/pin-pipeline/internal/templater"
	"github.com/jonathan/pin-pipeline/internal/types"
)

// memLedger is an in-memory ledger with the same uniqueness rule as the
// topics table.
type memLedger struct {
	mu     sync.Mutex
	runs   map[int64]*db.Run
	topics []*db.Topic
	posts  []db.PostInput
	assets []db.AssetInput
	pins   []db.PinInput
	logs   []db.LogEvent

	failAppendLog bool
	failFinish    bool
	// raceKeyword simulates another run inserting the keyword between
	// lookup and insert.
	raceKeyword string
}

func newMemLedger() *memLedger {
	return &memLedger{runs: map[int64]*db.Run{}}
}

func (m *memLedger) CreateRun(_ context.Context, scheduled *time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := int64(len(m.runs) + 1)
	m.runs[id] = &db.Run{ID: id, ScheduledTime: scheduled, StartedAt: time.Now(), Status: db.RunStatusRunning}
	return id, nil
}

func (m *memLedger) FinishRun(_ context.Context, runID int64, status string, summary *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failFinish {
		return errors.New("ledger unavailable")
	}
	run := m.runs[runID]
	if run.FinishedAt != nil {
		return nil
	}
	now := time.Now()
	run.Status = status
	run.ErrorSummary = summary
	run.FinishedAt = &now
	return nil
}

func (m *memLedger) FindTopicByKeyword(_ context.Context, keyword string) (*db.Topic, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.topics {
		if strings.EqualFold(t.PrimaryKeyword, keyword) {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memLedger) CreateTopic(_ context.Context, primary string, supporting []string, status string) (*db.Topic, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if strings.EqualFold(primary, m.raceKeyword) {
		m.topics = append(m.topics, &db.Topic{ID: int64(len(m.topics) + 1), PrimaryKeyword: primary, Status: db.TopicStatusSelected})
	}
	for _, t := range m.topics {
		if strings.EqualFold(t.PrimaryKeyword, primary) {
			return nil, &db.TopicClaimedError{Keyword: primary}
		}
	}
	t := &db.Topic{
		ID:                 int64(len(m.topics) + 1),
		PrimaryKeyword:     primary,
		SupportingKeywords: supporting,
		Status:             status,
		SelectedAt:         time.Now(),
	}
	m.topics = append(m.topics, t)
	cp := *t
	return &cp, nil
}

func (m *memLedger) MarkTopicUsed(_ context.Context, topicID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.topics {
		if t.ID == topicID {
			now := time.Now()
			t.Status = db.TopicStatusUsed
			t.UsedAt = &now
			return nil
		}
	}
	return fmt.Errorf("topic not found: %d", topicID)
}

func (m *memLedger) CreatePost(_ context.Context, in db.PostInput) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.posts = append(m.posts, in)
	return int64(len(m.posts)), nil
}

func (m *memLedger) CreateAsset(_ context.Context, in db.AssetInput) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assets = append(m.assets, in)
	return int64(len(m.assets)), nil
}

func (m *memLedger) CreatePin(_ context.Context, in db.PinInput) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pins = append(m.pins, in)
	return int64(len(m.pins)), nil
}

func (m *memLedger) AppendLog(_ context.Context, runID int64, step, level, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAppendLog {
		return errors.New("logs table locked")
	}
	m.logs = append(m.logs, db.LogEvent{ID: int64(len(m.logs) + 1), RunID: runID, Step: step, Level: level, Message: message})
	return nil
}

func (m *memLedger) seedTopic(primary, status string) {
	m.topics = append(m.topics, &db.Topic{ID: int64(len(m.topics) + 1), PrimaryKeyword: primary, Status: status})
}

func (m *memLedger) topic(primary string) *db.Topic {
	for _, t := range m.topics {
		if strings.EqualFold(t.PrimaryKeyword, primary) {
			return t
		}
	}
	return nil
}

func (m *memLedger) logsAt(level string) []db.LogEvent {
	var out []db.LogEvent
	for _, l := range m.logs {
		if l.Level == level {
			out = append(out, l)
		}
	}
	return out
}

type fakeTrends struct {
	items []types.TrendItem
	err   error
}

func (f *fakeTrends) Name() string { return "fake" }

func (f *fakeTrends) Fetch(context.Context) ([]types.TrendItem, error) {
	return f.items, f.err
}

type fakeContext struct {
	sc  *types.StoreContext
	err error
}

func (f *fakeContext) Fetch(context.Context) (*types.StoreContext, error) {
	return f.sc, f.err
}

type fakeContent struct {
	out  *types.GeneratedContent
	err  error
	reqs []types.ContentRequest
}

func (f *fakeContent) Generate(_ context.Context, req types.ContentRequest) (*types.GeneratedContent, error) {
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return nil, f.err
	}
	cp := *f.out
	return &cp, nil
}

type fakeBlog struct {
	article   *types.PublishedArticle
	err       error
	setImages []string
	setErr    error
	published []blog.Article
}

func (f *fakeBlog) Publish(_ context.Context, a blog.Article) (*types.PublishedArticle, error) {
	f.published = append(f.published, a)
	if f.err != nil {
		return nil, f.err
	}
	return f.article, nil
}

func (f *fakeBlog) SetImage(_ context.Context, _, imageURL string) error {
	f.setImages = append(f.setImages, imageURL)
	return f.setErr
}

type fakeImages struct {
	rawErr, editErr, recreateErr error
	calls                        []string
}

func (f *fakeImages) Raw(context.Context, string) (types.Image, error) {
	f.calls = append(f.calls, "raw")
	if f.rawErr != nil {
		return types.Image{}, f.rawErr
	}
	return types.Image{Data: []byte("raw"), MIMEType: "image/png"}, nil
}

func (f *fakeImages) EditTemplate(context.Context, types.Image, string) (types.Image, error) {
	f.calls = append(f.calls, "edit")
	if f.editErr != nil {
		return types.Image{}, f.editErr
	}
	return types.Image{Data: []byte("edited"), MIMEType: "image/png"}, nil
}

func (f *fakeImages) Recreate(_ context.Context, raw, rendered types.Image, _ string) (types.Image, error) {
	f.calls = append(f.calls, "recreate:"+string(raw.Data)+"+"+string(rendered.Data))
	if f.recreateErr != nil {
		return types.Image{}, f.recreateErr
	}
	return types.Image{Data: []byte("recreated"), MIMEType: "image/png"}, nil
}

// fakeHost names uploads after their bytes.
type fakeHost struct {
	err      error
	uploaded []string
}

func (f *fakeHost) Upload(_ context.Context, img types.Image) (*imagehost.Hosted, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.uploaded = append(f.uploaded, string(img.Data))
	return &imagehost.Hosted{
		URL:      "https://cdn.test/" + string(img.Data) + img.Extension(),
		Key:      string(img.Data),
		Checksum: "sum-" + string(img.Data),
	}, nil
}

type fakeRenderer struct {
	err  error
	reqs []templater.Request
}

func (f *fakeRenderer) Render(_ context.Context, req templater.Request) (*templater.Result, error) {
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return nil, f.err
	}
	return &templater.Result{
		Render: types.Render{URL: "https://canva.test/export.png", Width: 1000, Height: 1500},
		Image:  types.Image{Data: []byte("rendered"), MIMEType: "image/png"},
	}, nil
}

type fakePoster struct {
	out  *types.PublishedPin
	err  error
	reqs []types.PinRequest
}

func (f *fakePoster) Name() string { return "fake_poster" }

func (f *fakePoster) Post(_ context.Context, req types.PinRequest) (*types.PublishedPin, error) {
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.out, nil
}
