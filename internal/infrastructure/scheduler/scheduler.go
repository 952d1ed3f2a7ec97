package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/JoaquimMateus0404/VendaFlex-sub000/internal/application/inventory"
)

// verifyTimeout tope de una corrida de verificación.
const verifyTimeout = 5 * time.Minute

// Start programa la verificación de consistencia con la expresión spec (sintaxis robfig/cron,
// acepta descriptores como "@every 1h"). Una corrida que sigue en curso hace saltar la siguiente.
func Start(spec string, uc *inventory.ConsistencyUseCase, log zerolog.Logger) (*cron.Cron, error) {
	log = log.With().Str("component", "scheduler").Logger()
	c := cron.New(cron.WithChain(
		cron.Recover(cron.PrintfLogger(&log)),
		cron.SkipIfStillRunning(cron.PrintfLogger(&log)),
	))
	if _, err := c.AddFunc(spec, VerifyJob(uc, log)); err != nil {
		return nil, fmt.Errorf("programar verificación %q: %w", spec, err)
	}
	c.Start()
	log.Info().Str("schedule", spec).Msg("verificación de consistencia programada")
	return c, nil
}

// VerifyJob corrida única: registra el resultado, nunca corrige datos.
func VerifyJob(uc *inventory.ConsistencyUseCase, log zerolog.Logger) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), verifyTimeout)
		defer cancel()
		start := time.Now()
		list, err := uc.Verify(ctx)
		if err != nil {
			log.Error().Err(err).Msg("verificación de consistencia fallida")
			return
		}
		ev := log.Info()
		if len(list) > 0 {
			ev = log.Warn()
		}
		ev.Int("discrepancies", len(list)).
			Dur("duration", time.Since(start)).
			Msg("verificación de consistencia completada")
	}
}
