package handlers

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap/zaptest"

	"github.com/backsoul/quizdeck/pkg/models"
)

func newResultHandler(t *testing.T) *ResultHandler {
	env := newTestEnv(t)
	return NewResultHandler(env.quizzes, zaptest.NewLogger(t))
}

func TestSubmitResult(t *testing.T) {
	h := newResultHandler(t)
	body := `{
		"quiz": "m1_sample_quiz",
		"settings": {"mode": "complete", "enableImages": true, "timeLimit": 20},
		"answers": [
			{"question": "심장의 방은 몇 개인가?", "answer": "4", "timeSpent": 5},
			{"question": "이 구조의 이름은?", "image": "m1_sample_quiz/aorta.png", "answer": "대동맥", "timeSpent": 25},
			{"question": "혈액을 온몸으로 보내는 방은?", "answer": "좌심실", "timeSpent": 3.5}
		]
	}`
	ctx := newRequestCtx(fasthttp.MethodPost, "/api/results", body)

	h.SubmitResult(ctx)

	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode(), string(ctx.Response.Body()))
	var result models.QuizResult
	decodeEnvelope(t, ctx, &result)

	_, err := uuid.Parse(result.ID)
	assert.NoError(t, err)
	assert.Equal(t, "m1_sample_quiz", result.Quiz)
	assert.Equal(t, 3, result.TotalQuestions)
	assert.Equal(t, 2, result.CorrectAnswers)
	assert.Equal(t, 67, result.Score)
	assert.InDelta(t, 33.5, result.TotalTimeSpent, 0.001)
	assert.False(t, result.Answers[1].IsCorrect, "over the time limit")
}

func TestSubmitResult_PartialSettingsKeepImageQuestions(t *testing.T) {
	h := newResultHandler(t)
	body := `{
		"quiz": "m1_sample_quiz",
		"settings": {"mode": "complete"},
		"answers": [
			{"question": "이 구조의 이름은?", "image": "m1_sample_quiz/aorta.png", "answer": "대동맥"}
		]
	}`
	ctx := newRequestCtx(fasthttp.MethodPost, "/api/results", body)

	h.SubmitResult(ctx)

	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode(), string(ctx.Response.Body()))
	var result models.QuizResult
	decodeEnvelope(t, ctx, &result)
	assert.Equal(t, 1, result.CorrectAnswers)
	assert.Equal(t, 100, result.Score)
}

func TestSubmitResult_Rejects(t *testing.T) {
	h := newResultHandler(t)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{name: "bad json", body: `[`, status: fasthttp.StatusBadRequest},
		{name: "missing quiz", body: `{"answers":[{"question":"q","answer":"a"}]}`, status: fasthttp.StatusBadRequest},
		{name: "no answers", body: `{"quiz":"m1_sample_quiz","answers":[]}`, status: fasthttp.StatusBadRequest},
		{name: "bad mode", body: `{"quiz":"m1_sample_quiz","settings":{"mode":"later"},"answers":[{"question":"q","answer":"a"}]}`, status: fasthttp.StatusBadRequest},
		{name: "unknown question", body: `{"quiz":"m1_sample_quiz","answers":[{"question":"없는 문제","answer":"a"}]}`, status: fasthttp.StatusBadRequest},
		{name: "unknown quiz", body: `{"quiz":"m9_missing_quiz","answers":[{"question":"q","answer":"a"}]}`, status: fasthttp.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := newRequestCtx(fasthttp.MethodPost, "/api/results", tt.body)
			h.SubmitResult(ctx)
			assert.Equal(t, tt.status, ctx.Response.StatusCode())
		})
	}
}

func TestGetScore(t *testing.T) {
	h := newResultHandler(t)

	tests := []struct {
		query  string
		status int
		score  int
	}{
		{query: "?total=3&correct=2", status: fasthttp.StatusOK, score: 67},
		{query: "?total=8&correct=1", status: fasthttp.StatusOK, score: 13},
		{query: "?total=0&correct=0", status: fasthttp.StatusOK, score: 0},
		{query: "?total=3", status: fasthttp.StatusBadRequest},
		{query: "?total=x&correct=1", status: fasthttp.StatusBadRequest},
		{query: "?total=2&correct=3", status: fasthttp.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			ctx := newRequestCtx(fasthttp.MethodGet, "/api/score"+tt.query, "")

			h.GetScore(ctx)

			require.Equal(t, tt.status, ctx.Response.StatusCode())
			if tt.status == fasthttp.StatusOK {
				var data map[string]int
				decodeEnvelope(t, ctx, &data)
				assert.Equal(t, tt.score, data["score"])
			}
		})
	}
}
