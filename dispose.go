package spill

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/teenjuna/spill/internal/rolling"
)

// guard releases the segments of a subscription exactly once. It is triggered by downstream
// cancellation, by a delivered terminal signal and by fatal errors.
type guard struct {
	queue  *rolling.Queue
	logger *logrus.Entry
	once   sync.Once
}

// dispose never fails. Errors and panics of segment deletion are logged.
func (g *guard) dispose() {
	g.once.Do(func() {
		defer func() {
			if r := recover(); r != nil {
				g.logger.WithField("panic", r).Error("dispose segments")
			}
		}()

		if err := g.queue.Close(); err != nil {
			g.logger.WithError(err).Error("dispose segments")
		}
		g.logger.Debug("segments disposed")
	})
}

func (g *guard) disposed() bool {
	return g.queue.Closed()
}
