package worker

// retry_cron.go
// Background goroutine that periodically redrains the dead letter queues
// back onto their source queues, so jobs parked during an SMTP outage get
// re-attempted once the circuit breaker recovers.

import (
	"context"
	"encoding/json"
	"time"

	"playpos/internal/infra"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	redrainTickInterval = 30 * time.Second
	redrainBatchSize    = 10
)

// RedrainConfig holds the dependencies of the redrain goroutine.
type RedrainConfig struct {
	RDB *redis.Client
	CB  *infra.CircuitBreaker
}

// StartDLQRedrain launches a background goroutine that ticks every 30s and
// moves a small batch of DLQ entries back to their original queues. It
// respects the context for graceful shutdown.
func StartDLQRedrain(ctx context.Context, cfg RedrainConfig) {
	go func() {
		ticker := time.NewTicker(redrainTickInterval)
		defer ticker.Stop()

		log.Info().Msg("dlq_redrain: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("dlq_redrain: shutting down")
				return
			case <-ticker.C:
				redrain(ctx, cfg)
			}
		}
	}()
}

func redrain(ctx context.Context, cfg RedrainConfig) {
	// If CB is open the relay is still down — don't requeue, it would bounce
	// straight back to the DLQ.
	if cfg.CB.State() == infra.CBOpen {
		log.Debug().Msg("dlq_redrain: circuit breaker is open, skipping tick")
		return
	}

	for _, queue := range []string{QueueReceipt, QueueEmail} {
		dlqKey := DLQPrefix + queue
		moved := 0

		for moved < redrainBatchSize {
			raw, err := cfg.RDB.RPop(ctx, dlqKey).Result()
			if err != nil {
				break // empty or redis unavailable
			}

			var entry DLQEntry
			if err := json.Unmarshal([]byte(raw), &entry); err != nil {
				log.Error().Err(err).Str("dlq_key", dlqKey).Msg("dlq_redrain: corrupt entry dropped")
				continue
			}

			job := Job{Type: entry.JobType, Payload: entry.Payload}
			encoded, err := json.Marshal(job)
			if err != nil {
				log.Error().Err(err).Msg("dlq_redrain: marshal failed")
				continue
			}
			if err := cfg.RDB.LPush(ctx, queue, encoded).Err(); err != nil {
				// Requeue failed — push the raw entry back so nothing is lost.
				_ = cfg.RDB.LPush(ctx, dlqKey, raw).Err()
				log.Error().Err(err).Str("queue", queue).Msg("dlq_redrain: requeue failed")
				return
			}
			moved++
		}

		if moved > 0 {
			log.Info().Int("count", moved).Str("queue", queue).Msg("dlq_redrain: jobs requeued")
		}
	}
}
