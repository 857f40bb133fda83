package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/backsoul/quizdeck/pkg/cache"
	"github.com/backsoul/quizdeck/pkg/fetch"
	"github.com/backsoul/quizdeck/pkg/fetch/fetchtest"
	"github.com/backsoul/quizdeck/pkg/models"
)

const sampleQuizCSV = `순환기 기초,M1
문제,정답,이미지
심장의 방은 몇 개인가?,4
이 구조의 이름은?,대동맥, aorta.png 
,빈 문제
빈 정답,
"쉼표, 포함된 문제",정답
`

// fakeClock reloj manual compartido por la caché y el catálogo
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	origin  *fetchtest.Server
	clock   *fakeClock
	quizzes *QuizService
	catalog *CatalogService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	origin := fetchtest.NewServer(t)
	clock := newFakeClock()
	logger := zaptest.NewLogger(t)

	quizzes := NewQuizService(origin.Client("utf-8"), cache.NewMemoryStore(cache.WithClock(clock.Now)), 10*time.Minute, logger)
	catalog := NewCatalogService(origin.Client("utf-8"), quizzes, CatalogOptions{TTL: 5 * time.Minute, Concurrency: 4}, logger)
	catalog.now = clock.Now

	return &fixture{origin: origin, clock: clock, quizzes: quizzes, catalog: catalog}
}

// errSource origen que siempre falla a nivel de red
type errSource struct{}

func (errSource) Get(context.Context, string, ...fetch.RequestOption) (*fetch.Response, error) {
	return nil, errors.New("connection refused")
}

func (errSource) Head(context.Context, string, ...fetch.RequestOption) (*fetch.Response, error) {
	return nil, errors.New("connection refused")
}

type recordingNotifier struct {
	mu    sync.Mutex
	calls [][]string
}

func (n *recordingNotifier) CatalogChanged(quizzes []models.QuizMetadata) {
	n.mu.Lock()
	defer n.mu.Unlock()
	names := make([]string, len(quizzes))
	for i, q := range quizzes {
		names[i] = q.Filename
	}
	n.calls = append(n.calls, names)
}

func (n *recordingNotifier) Calls() [][]string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls
}
