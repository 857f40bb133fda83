package handlers

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap/zaptest"

	"github.com/backsoul/quizdeck/pkg/cache"
	"github.com/backsoul/quizdeck/pkg/fetch/fetchtest"
	"github.com/backsoul/quizdeck/pkg/services"
)

const quizCSV = `순환기 기초,M1
문제,정답,이미지
심장의 방은 몇 개인가?,4
이 구조의 이름은?,대동맥,aorta.png
혈액을 온몸으로 보내는 방은?,좌심실
`

const manifestCSV = `folder_name,title,grade
m1_sample_quiz,순환기 기초,M1
m9_missing_quiz,없는 퀴즈,M9
`

type testEnv struct {
	origin  *fetchtest.Server
	quizzes *services.QuizService
	catalog *services.CatalogService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	origin := fetchtest.NewServer(t)
	origin.Put(services.ManifestPath, manifestCSV)
	origin.Put(services.QuizPath("m1_sample_quiz"), quizCSV)

	logger := zaptest.NewLogger(t)
	client := origin.Client("utf-8")
	quizzes := services.NewQuizService(client, cache.NewMemoryStore(), 10*time.Minute, logger)
	catalog := services.NewCatalogService(client, quizzes, services.CatalogOptions{TTL: 5 * time.Minute, Concurrency: 2}, logger)

	return &testEnv{origin: origin, quizzes: quizzes, catalog: catalog}
}

func newRequestCtx(method, uri, body string) *fasthttp.RequestCtx {
	var req fasthttp.Request
	req.Header.SetMethod(method)
	req.SetRequestURI(uri)
	if body != "" {
		req.Header.SetContentType("application/json")
		req.SetBodyString(body)
	}

	ctx := &fasthttp.RequestCtx{}
	ctx.Init(&req, nil, nil)
	return ctx
}

// envelope APIResponse con los datos sin decodificar
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

func decodeEnvelope(t *testing.T, ctx *fasthttp.RequestCtx, data interface{}) envelope {
	t.Helper()

	var env envelope
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &env), string(ctx.Response.Body()))
	if data != nil {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}
