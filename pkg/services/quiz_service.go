package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/backsoul/quizdeck/pkg/cache"
	"github.com/backsoul/quizdeck/pkg/fetch"
	"github.com/backsoul/quizdeck/pkg/models"
)

// Source origen HTTP de los CSV
type Source interface {
	Get(ctx context.Context, path string, opts ...fetch.RequestOption) (*fetch.Response, error)
	Head(ctx context.Context, path string, opts ...fetch.RequestOption) (*fetch.Response, error)
}

// QuizService carga quizzes desde su CSV y los guarda en caché
type QuizService struct {
	source Source
	store  cache.QuizStore
	ttl    time.Duration
	logger *zap.Logger
	group  singleflight.Group
}

// NewQuizService crea una nueva instancia del servicio
func NewQuizService(source Source, store cache.QuizStore, ttl time.Duration, logger *zap.Logger) *QuizService {
	return &QuizService{
		source: source,
		store:  store,
		ttl:    ttl,
		logger: logger.Named("quiz"),
	}
}

// CacheKey clave de caché; incluye el ajuste de imágenes porque cambia el filtrado
func CacheKey(folder string, enableImages bool) string {
	return fmt.Sprintf("%s_images_%t", folder, enableImages)
}

// QuizPath ruta del CSV de una carpeta: /quizzes/{carpeta}/{carpeta}.csv
func QuizPath(folder string) string {
	escaped := url.PathEscape(folder)
	return "/quizzes/" + escaped + "/" + escaped + ".csv"
}

func validFolder(folder string) bool {
	if folder == "" || folder == "." || folder == ".." {
		return false
	}
	return !strings.ContainsAny(folder, `/\`)
}

// LoadQuiz devuelve el quiz de la carpeta. Con enableImages en false se
// descartan las preguntas que llevan imagen.
func (s *QuizService) LoadQuiz(ctx context.Context, folder string, enableImages bool) (models.Quiz, error) {
	if !validFolder(folder) {
		return models.Quiz{}, fmt.Errorf("%w: nombre de carpeta inválido %q", ErrQuizUnavailable, folder)
	}

	key := CacheKey(folder, enableImages)
	quiz, ok, err := s.store.Get(ctx, key)
	if err != nil {
		s.logger.Warn("error leyendo caché", zap.String("key", key), zap.Error(err))
	} else if ok {
		return quiz, nil
	}

	// la carga compartida no depende del ctx de quien la inició: si ese
	// llamador cancela, los demás siguen esperando el resultado
	fetchCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key, func() (interface{}, error) {
		return s.fetchQuiz(fetchCtx, folder, enableImages, key)
	})

	select {
	case <-ctx.Done():
		return models.Quiz{}, fmt.Errorf("%w: %s: %w", ErrQuizUnavailable, folder, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			s.logger.Error("error cargando quiz", zap.String("folder", folder), zap.Error(res.Err))
			return models.Quiz{}, fmt.Errorf("%w: %s: %w", ErrQuizUnavailable, folder, res.Err)
		}
		return res.Val.(models.Quiz).Clone(), nil
	}
}

func (s *QuizService) fetchQuiz(ctx context.Context, folder string, enableImages bool, key string) (models.Quiz, error) {
	resp, err := s.source.Get(ctx, QuizPath(folder))
	if err != nil {
		return models.Quiz{}, err
	}
	if !resp.OK() {
		return models.Quiz{}, fmt.Errorf("no se puede obtener el archivo del quiz: %d", resp.Status)
	}

	rows, err := readQuizRows(resp.Reader())
	if err != nil {
		s.logger.Warn("error de parseo CSV, se conservan las filas leídas",
			zap.String("folder", folder),
			zap.Int("rows", len(rows)),
			zap.Error(err))
	}

	quiz, err := buildQuiz(folder, rows, enableImages)
	if err != nil {
		return models.Quiz{}, err
	}

	if err := s.store.Set(ctx, key, quiz, s.ttl); err != nil {
		s.logger.Warn("error guardando en caché", zap.String("key", key), zap.Error(err))
	}

	s.logger.Debug("quiz cargado",
		zap.String("folder", folder),
		zap.Bool("images", enableImages),
		zap.Int("questions", len(quiz.Questions)))
	return quiz, nil
}

// PrepareQuiz carga el quiz aplicando los ajustes de imágenes y orden
func (s *QuizService) PrepareQuiz(ctx context.Context, folder string, settings models.QuizSettings) (models.Quiz, error) {
	quiz, err := s.LoadQuiz(ctx, folder, settings.EnableImages)
	if err != nil {
		return models.Quiz{}, err
	}
	if settings.ShuffleQuestions {
		quiz.Questions = Shuffle(quiz.Questions)
	}
	return quiz, nil
}

// GradeAttempt corrige un intento completo contra el quiz indicado
func (s *QuizService) GradeAttempt(ctx context.Context, req models.ResultRequest) (models.QuizResult, error) {
	settings := models.DefaultSettings()
	if req.Settings != nil {
		settings = *req.Settings
	}

	quiz, err := s.LoadQuiz(ctx, req.Quiz, settings.EnableImages)
	if err != nil {
		return models.QuizResult{}, err
	}

	return GradeAnswers(req.Quiz, quiz, req.Answers, settings)
}

// Check corrige una sola respuesta (modo immediate)
func (s *QuizService) Check(ctx context.Context, folder string, req models.CheckRequest) (models.CheckResponse, error) {
	enableImages := true
	if req.EnableImages != nil {
		enableImages = *req.EnableImages
	}

	quiz, err := s.LoadQuiz(ctx, folder, enableImages)
	if err != nil {
		return models.CheckResponse{}, err
	}

	return CheckAnswer(quiz, req)
}

// Invalidate vacía la caché de quizzes
func (s *QuizService) Invalidate(ctx context.Context) error {
	if err := s.store.Purge(ctx); err != nil {
		return fmt.Errorf("error vaciando caché de quizzes: %w", err)
	}
	s.logger.Info("🔄 Caché de quizzes vaciada")
	return nil
}

// HealthCheck verifica el almacén de caché
func (s *QuizService) HealthCheck(ctx context.Context) error {
	if err := s.store.HealthCheck(ctx); err != nil {
		return fmt.Errorf("error en health check de la caché: %w", err)
	}
	return nil
}
