package app

import (
	"context"
	"strconv"

	"golang.org/x/sync/singleflight"

	"quizboard-service/internal/domain"
)

// sharedLoader coalesces concurrent loads of the same quiz into one backend
// call. Nothing is retained once the call returns. The shared call runs
// detached from any single caller's cancellation; each caller stops waiting
// when its own context ends.
type sharedLoader struct {
	loader QuizLoader
	sf     singleflight.Group
}

func newSharedLoader(loader QuizLoader) *sharedLoader {
	return &sharedLoader{loader: loader}
}

func (l *sharedLoader) LoadQuiz(ctx context.Context, quizID int64) (domain.Quiz, error) {
	shared := context.WithoutCancel(ctx)
	ch := l.sf.DoChan(strconv.FormatInt(quizID, 10), func() (interface{}, error) {
		return l.loader.LoadQuiz(shared, quizID)
	})
	select {
	case <-ctx.Done():
		return domain.Quiz{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return domain.Quiz{}, res.Err
		}
		return res.Val.(domain.Quiz), nil
	}
}
