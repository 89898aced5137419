package store

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// RunPurger calls st.Purge every interval until ctx is done. Purge errors
// are logged and do not stop the loop.
func RunPurger(ctx context.Context, st Store, every time.Duration, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	if every <= 0 {
		every = time.Hour
	}
	t := time.NewTicker(every)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			n, err := st.Purge(ctx)
			if err != nil {
				log.Warn("purge failed", zap.Error(err))
				continue
			}
			if n > 0 {
				log.Info("purged expired results", zap.Int("count", n))
			}
		}
	}
}
