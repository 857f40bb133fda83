// Package cache guarda quizzes ya parseados con vigencia por tiempo.
package cache

import (
	"context"
	"time"

	"github.com/backsoul/quizdeck/pkg/models"
)

// QuizStore almacén de quizzes parseados. Una entrada solo es un acierto
// mientras no haya superado su ttl.
type QuizStore interface {
	Get(ctx context.Context, key string) (models.Quiz, bool, error)
	Set(ctx context.Context, key string, quiz models.Quiz, ttl time.Duration) error
	Purge(ctx context.Context) error
	HealthCheck(ctx context.Context) error
}
