package retrieval

import (
	"context"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/anirag/core"
)

// BatchAnswer is the outcome for one question in a batch run.
type BatchAnswer struct {
	Question string
	Results  []core.RetrievalResult
	Err      error
}

// RetrieveBatch answers many independent questions concurrently under
// a bounded worker pool. Answers come back in question order. A failed
// question fails only its own answer. Cancelling the context stops
// dispatching new questions; questions already running finish, and
// questions never dispatched carry the context error.
func (e *Engine) RetrieveBatch(ctx context.Context, questions []string, limit int, thresholds Thresholds, maxConcurrency int) ([]BatchAnswer, error) {
	if maxConcurrency < 1 {
		return nil, ErrInvalidConcurrency
	}
	if err := thresholds.Validate(); err != nil {
		return nil, err
	}

	pool, err := ants.NewPool(maxConcurrency)
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	answers := make([]BatchAnswer, len(questions))
	var wg sync.WaitGroup

	for i, question := range questions {
		answers[i].Question = question

		if err := ctx.Err(); err != nil {
			answers[i].Err = err
			continue
		}

		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			answers[i].Results, answers[i].Err = e.Retrieve(ctx, question, limit, thresholds)
		})
		if submitErr != nil {
			wg.Done()
			answers[i].Err = submitErr
		}
	}

	wg.Wait()
	return answers, nil
}
