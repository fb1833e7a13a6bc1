package stores

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Sweep deletes expired KV entries every interval until ctx is cancelled.
func (s *KVStore) Sweep(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.SweepExpired(ctx); err != nil {
				log.Debug().Err(err).Msg("kv sweep failed")
			}
		}
	}
}
