package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backsoul/quizdeck/pkg/fetch/fetchtest"
	"github.com/backsoul/quizdeck/pkg/models"
)

func TestLoadQuiz_ParsesRows(t *testing.T) {
	f := newFixture(t)
	f.origin.Put("/quizzes/m1_sample_quiz/m1_sample_quiz.csv", sampleQuizCSV)

	quiz, err := f.quizzes.LoadQuiz(context.Background(), "m1_sample_quiz", true)
	require.NoError(t, err)

	want := models.Quiz{
		Title: "순환기 기초",
		Grade: "M1",
		Questions: []models.QuizQuestion{
			{Question: "심장의 방은 몇 개인가?", Answer: "4"},
			{Question: "이 구조의 이름은?", Answer: "대동맥", Image: "m1_sample_quiz/aorta.png"},
			{Question: "쉼표, 포함된 문제", Answer: "정답"},
		},
	}
	if diff := cmp.Diff(want, quiz); diff != "" {
		t.Errorf("quiz mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadQuiz_ImagesDisabledDropsImageQuestions(t *testing.T) {
	f := newFixture(t)
	f.origin.Put("/quizzes/m1_sample_quiz/m1_sample_quiz.csv", sampleQuizCSV)

	quiz, err := f.quizzes.LoadQuiz(context.Background(), "m1_sample_quiz", false)
	require.NoError(t, err)

	require.Len(t, quiz.Questions, 2)
	assert.False(t, quiz.HasImages())
}

func TestLoadQuiz_CachesPerImageSetting(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	path := "/quizzes/m1_sample_quiz/m1_sample_quiz.csv"
	f.origin.Put(path, sampleQuizCSV)

	_, err := f.quizzes.LoadQuiz(ctx, "m1_sample_quiz", true)
	require.NoError(t, err)
	_, err = f.quizzes.LoadQuiz(ctx, "m1_sample_quiz", true)
	require.NoError(t, err)
	assert.Equal(t, 1, f.origin.Hits("GET", path))

	_, err = f.quizzes.LoadQuiz(ctx, "m1_sample_quiz", false)
	require.NoError(t, err)
	assert.Equal(t, 2, f.origin.Hits("GET", path), "images=false is a separate cache entry")
}

func TestLoadQuiz_RefetchesAfterTTL(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	path := "/quizzes/m1_sample_quiz/m1_sample_quiz.csv"
	f.origin.Put(path, sampleQuizCSV)

	_, err := f.quizzes.LoadQuiz(ctx, "m1_sample_quiz", true)
	require.NoError(t, err)

	f.clock.Advance(9 * time.Minute)
	_, err = f.quizzes.LoadQuiz(ctx, "m1_sample_quiz", true)
	require.NoError(t, err)
	assert.Equal(t, 1, f.origin.Hits("GET", path))

	f.origin.Put(path, "새 제목,M2\n문제,정답\nQ,A\n")
	f.clock.Advance(time.Minute)
	quiz, err := f.quizzes.LoadQuiz(ctx, "m1_sample_quiz", true)
	require.NoError(t, err)
	assert.Equal(t, 2, f.origin.Hits("GET", path))
	assert.Equal(t, "새 제목", quiz.Title)
	assert.Equal(t, "M2", quiz.Grade)
}

func TestLoadQuiz_DefaultTitleAndGrade(t *testing.T) {
	f := newFixture(t)
	f.origin.Put("/quizzes/m2_neurology_quiz/m2_neurology_quiz.csv", ",\n문제,정답\n뇌신경은 몇 쌍?,12\n")

	quiz, err := f.quizzes.LoadQuiz(context.Background(), "m2_neurology_quiz", true)
	require.NoError(t, err)

	assert.Equal(t, "m2 neurology", quiz.Title)
	assert.Equal(t, "M1", quiz.Grade)
	assert.Len(t, quiz.Questions, 1)
}

func TestLoadQuiz_StripsBOM(t *testing.T) {
	f := newFixture(t)
	f.origin.Put("/quizzes/a_quiz/a_quiz.csv", "\ufeff해부학 기초,M1\n문제,정답\nQ,A\n")

	quiz, err := f.quizzes.LoadQuiz(context.Background(), "a_quiz", true)
	require.NoError(t, err)
	assert.Equal(t, "해부학 기초", quiz.Title)
}

func TestLoadQuiz_TooFewRowsIsNotCached(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	path := "/quizzes/short_quiz/short_quiz.csv"
	f.origin.Put(path, "제목,M1\n문제,정답\n")

	_, err := f.quizzes.LoadQuiz(ctx, "short_quiz", true)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrQuizUnavailable)
	assert.ErrorIs(t, err, ErrInvalidFormat)

	_, err = f.quizzes.LoadQuiz(ctx, "short_quiz", true)
	require.Error(t, err)
	assert.Equal(t, 2, f.origin.Hits("GET", path))
}

func TestLoadQuiz_HeaderOnlyQuizHasNoQuestions(t *testing.T) {
	f := newFixture(t)
	f.origin.Put("/quizzes/empty_quiz/empty_quiz.csv", "제목,M3\n문제,정답\n,\n")

	quiz, err := f.quizzes.LoadQuiz(context.Background(), "empty_quiz", true)
	require.NoError(t, err)
	assert.Empty(t, quiz.Questions)
}

func TestLoadQuiz_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.quizzes.LoadQuiz(context.Background(), "missing_quiz", true)
	assert.ErrorIs(t, err, ErrQuizUnavailable)
}

func TestLoadQuiz_ServerError(t *testing.T) {
	f := newFixture(t)
	f.origin.PutFile("/quizzes/broken_quiz/broken_quiz.csv", fetchtest.File{Status: 500, Body: "boom"})

	_, err := f.quizzes.LoadQuiz(context.Background(), "broken_quiz", true)
	assert.ErrorIs(t, err, ErrQuizUnavailable)
}

func TestLoadQuiz_RejectsPathLikeNames(t *testing.T) {
	f := newFixture(t)

	for _, name := range []string{"", "..", "a/b", `a\b`} {
		_, err := f.quizzes.LoadQuiz(context.Background(), name, true)
		assert.ErrorIs(t, err, ErrQuizUnavailable, name)
	}
}

func TestLoadQuiz_UnreachableOrigin(t *testing.T) {
	f := newFixture(t)
	quizzes := NewQuizService(errSource{}, f.quizzes.store, time.Minute, f.quizzes.logger)

	_, err := quizzes.LoadQuiz(context.Background(), "m1_sample_quiz", true)
	assert.ErrorIs(t, err, ErrQuizUnavailable)
}

func TestPrepareQuiz_Shuffle(t *testing.T) {
	f := newFixture(t)
	f.origin.Put("/quizzes/m1_sample_quiz/m1_sample_quiz.csv", sampleQuizCSV)

	quiz, err := f.quizzes.PrepareQuiz(context.Background(), "m1_sample_quiz", models.QuizSettings{
		ShuffleQuestions: true,
		EnableImages:     true,
	})
	require.NoError(t, err)

	original, err := f.quizzes.LoadQuiz(context.Background(), "m1_sample_quiz", true)
	require.NoError(t, err)
	assert.ElementsMatch(t, original.Questions, quiz.Questions)
}

func TestInvalidate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	path := "/quizzes/m1_sample_quiz/m1_sample_quiz.csv"
	f.origin.Put(path, sampleQuizCSV)

	_, err := f.quizzes.LoadQuiz(ctx, "m1_sample_quiz", true)
	require.NoError(t, err)
	require.NoError(t, f.quizzes.Invalidate(ctx))
	_, err = f.quizzes.LoadQuiz(ctx, "m1_sample_quiz", true)
	require.NoError(t, err)

	assert.Equal(t, 2, f.origin.Hits("GET", path))
	assert.NoError(t, f.quizzes.HealthCheck(ctx))
}

func TestGradeAttempt(t *testing.T) {
	f := newFixture(t)
	f.origin.Put("/quizzes/m1_sample_quiz/m1_sample_quiz.csv", sampleQuizCSV)

	result, err := f.quizzes.GradeAttempt(context.Background(), models.ResultRequest{
		Quiz: "m1_sample_quiz",
		Answers: []models.SubmittedAnswer{
			{Question: "심장의 방은 몇 개인가?", Answer: " 4 ", TimeSpent: 3},
			{Question: "이 구조의 이름은?", Answer: "폐동맥", TimeSpent: 5},
			{Question: "쉼표, 포함된 문제", Answer: "정답", TimeSpent: 2},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "m1_sample_quiz", result.Quiz)
	assert.Equal(t, 3, result.TotalQuestions)
	assert.Equal(t, 2, result.CorrectAnswers)
	assert.Equal(t, 67, result.Score)
	assert.Equal(t, 10.0, result.TotalTimeSpent)
	assert.NotEmpty(t, result.ID)
}

func TestCheck(t *testing.T) {
	f := newFixture(t)
	f.origin.Put("/quizzes/m1_sample_quiz/m1_sample_quiz.csv", sampleQuizCSV)

	resp, err := f.quizzes.Check(context.Background(), "m1_sample_quiz", models.CheckRequest{
		Question: "이 구조의 이름은?",
		Answer:   "대동맥",
	})
	require.NoError(t, err)
	assert.True(t, resp.IsCorrect)
	assert.Equal(t, "대동맥", resp.CorrectAnswer)

	noImages := false
	_, err = f.quizzes.Check(context.Background(), "m1_sample_quiz", models.CheckRequest{
		Question:     "이 구조의 이름은?",
		Answer:       "대동맥",
		EnableImages: &noImages,
	})
	assert.ErrorIs(t, err, ErrUnknownQuestion)
}
