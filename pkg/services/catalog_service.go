package services

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/backsoul/quizdeck/pkg/fetch"
	"github.com/backsoul/quizdeck/pkg/models"
)

// ManifestPath ruta del catálogo de quizzes en el origen
const ManifestPath = "/quizzes.csv"

const defaultConcurrency = 8

// fallbackMetadata catálogo usado cuando quizzes.csv no se puede cargar
var fallbackMetadata = []models.QuizMetadata{
	{Filename: "m1_sample_quiz", Title: "순환기 기초", Grade: "M1"},
	{Filename: "m1_anatomy_quiz", Title: "해부학 기초", Grade: "M1"},
	{Filename: "m2_neurology_quiz", Title: "신경계학", Grade: "M2"},
	{Filename: "m2_pathology_quiz", Title: "병리학 기초", Grade: "M2"},
}

// knownQuizFolders carpetas que prueba Discover
var knownQuizFolders = []string{
	"m1_sample_quiz",
	"m1_anatomy_quiz",
	"m2_neurology_quiz",
	"m2_pathology_quiz",
	"m3_respiratory_quiz",
	"m4_clinical_quiz",
}

// FallbackMetadata copia del catálogo de respaldo
func FallbackMetadata() []models.QuizMetadata {
	return slices.Clone(fallbackMetadata)
}

// Notifier recibe el catálogo cada vez que cambia
type Notifier interface {
	CatalogChanged(quizzes []models.QuizMetadata)
}

// CatalogOptions ajustes del servicio de catálogo
type CatalogOptions struct {
	TTL         time.Duration
	Concurrency int
}

// CatalogService resuelve la lista de quizzes disponibles
type CatalogService struct {
	source      Source
	quizzes     *QuizService
	ttl         time.Duration
	concurrency int
	logger      *zap.Logger
	now         func() time.Time

	mu           sync.Mutex
	cached       []models.QuizMetadata
	fetchedAt    time.Time
	lastModified string
	fromFallback bool
	notifier     Notifier
}

// NewCatalogService crea el servicio de catálogo
func NewCatalogService(source Source, quizzes *QuizService, opts CatalogOptions, logger *zap.Logger) *CatalogService {
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultConcurrency
	}
	return &CatalogService{
		source:      source,
		quizzes:     quizzes,
		ttl:         opts.TTL,
		concurrency: opts.Concurrency,
		logger:      logger.Named("catalog"),
		now:         time.Now,
	}
}

// SetNotifier registra quién recibe los cambios de catálogo
func (c *CatalogService) SetNotifier(n Notifier) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notifier = n
}

// Metadata devuelve el catálogo a partir de quizzes.csv. Nunca falla: si el
// origen o el parseo fallan se devuelve (y se cachea) el catálogo de respaldo.
func (c *CatalogService) Metadata(ctx context.Context) []models.QuizMetadata {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if c.cached != nil && now.Sub(c.fetchedAt) < c.ttl {
		return slices.Clone(c.cached)
	}

	list, err := c.refresh(ctx, now)
	if err != nil {
		c.logger.Error("carga dinámica del catálogo falló, usando respaldo", zap.Error(err))
		c.update(FallbackMetadata(), now, c.lastModified, true)
		return FallbackMetadata()
	}
	return list
}

func (c *CatalogService) refresh(ctx context.Context, now time.Time) ([]models.QuizMetadata, error) {
	head, err := c.source.Head(ctx, ManifestPath, fetch.NoCache())
	if err != nil {
		return nil, err
	}
	lastModified := head.LastModified

	// Sin Last-Modified no hay forma de saber si cambió, y el respaldo nunca
	// se reutiliza. Renovar fetchedAt evita un HEAD por llamada tras el TTL.
	if c.cached != nil && !c.fromFallback && lastModified != "" && lastModified == c.lastModified {
		c.fetchedAt = now
		return slices.Clone(c.cached), nil
	}

	resp, err := c.source.Get(ctx, ManifestPath)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, fmt.Errorf("no se encuentra quizzes.csv: %d", resp.Status)
	}

	metadata, err := parseManifest(resp.Reader())
	if err != nil {
		return nil, err
	}

	validated := c.validate(ctx, metadata)
	c.update(validated, now, lastModified, false)

	c.logger.Info("📚 Catálogo cargado",
		zap.Int("quizzes", len(validated)),
		zap.String("lastModified", lastModified))
	return slices.Clone(validated), nil
}

func (c *CatalogService) update(list []models.QuizMetadata, now time.Time, lastModified string, fallback bool) {
	previous := c.cached

	c.cached = list
	c.fetchedAt = now
	c.lastModified = lastModified
	c.fromFallback = fallback

	if c.notifier != nil && previous != nil && !slices.Equal(previous, list) {
		c.notifier.CatalogChanged(slices.Clone(list))
	}
}

// validate conserva, en el orden del manifiesto, solo los quizzes cuyo CSV existe
func (c *CatalogService) validate(ctx context.Context, metadata []models.QuizMetadata) []models.QuizMetadata {
	exists := make([]bool, len(metadata))

	var g errgroup.Group
	g.SetLimit(c.concurrency)
	for i, quiz := range metadata {
		g.Go(func() error {
			exists[i] = c.exists(ctx, quiz.Filename)
			return nil
		})
	}
	_ = g.Wait()

	valid := make([]models.QuizMetadata, 0, len(metadata))
	var missing []string
	for i, quiz := range metadata {
		if exists[i] {
			valid = append(valid, quiz)
		} else {
			missing = append(missing, quiz.Filename)
		}
	}

	if len(missing) > 0 {
		c.logger.Warn("⚠️ Algunos quizzes no tienen archivo", zap.Strings("missing", missing))
	}
	return valid
}

func (c *CatalogService) exists(ctx context.Context, folder string) bool {
	if !validFolder(folder) {
		return false
	}
	resp, err := c.source.Head(ctx, QuizPath(folder))
	if err != nil {
		return false
	}
	return resp.OK()
}

// IsQuizValid indica si el CSV del quiz existe en el origen
func (c *CatalogService) IsQuizValid(ctx context.Context, folder string) bool {
	return c.exists(ctx, folder)
}

// Discover es la variante antigua: prueba una lista fija de carpetas y lee
// título y curso cargando cada quiz. Devuelve una lista vacía si no encuentra nada.
func (c *CatalogService) Discover(ctx context.Context) []models.QuizMetadata {
	available := make([]models.QuizMetadata, 0, len(knownQuizFolders))

	for _, folder := range knownQuizFolders {
		if !c.exists(ctx, folder) {
			c.logger.Info("carpeta de quiz no encontrada", zap.String("folder", folder))
			continue
		}

		quiz, err := c.quizzes.LoadQuiz(ctx, folder, true)
		if err != nil {
			c.logger.Info("carpeta de quiz no encontrada", zap.String("folder", folder), zap.Error(err))
			continue
		}

		available = append(available, models.QuizMetadata{
			Filename: folder,
			Title:    quiz.Title,
			Grade:    quiz.Grade,
		})
	}

	return available
}

// Invalidate descarta el catálogo en caché; la próxima llamada va al origen
func (c *CatalogService) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.fetchedAt = time.Time{}
	c.lastModified = ""
}
