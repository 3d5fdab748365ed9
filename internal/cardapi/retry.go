package cardapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	log "github.com/sirupsen/logrus"
)

var ErrNotFound = errors.New("card api: not found")

// StatusError is returned for any non-2xx answer.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("card api: status %d: %s", e.StatusCode, e.Body)
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}

// Retry runs op with exponential backoff until it succeeds, returns a
// permanent error, the window elapses or ctx is done.
func Retry(ctx context.Context, initial, maxElapsed time.Duration, op func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = initial
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = maxElapsed

	attempt := 0
	return backoff.RetryNotify(func() error {
		attempt++
		return op()
	}, backoff.WithContext(b, ctx), func(err error, wait time.Duration) {
		log.WithFields(log.Fields{"attempt": attempt, "wait": wait.String()}).
			Warnf("card api call failed, retrying: %s", err)
	})
}
