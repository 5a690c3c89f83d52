package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// Sweeper libera periódicamente las reservas vencidas. Es la única operación recurrente.
type Sweeper struct {
	manager  *ReservationManager
	interval time.Duration
	batch    int
	log      *logger.Logger
}

// NewSweeper construye el barrido; interval <= 0 usa un minuto.
func NewSweeper(manager *ReservationManager, interval time.Duration, batch int, log *logger.Logger) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{manager: manager, interval: interval, batch: batch, log: log.Component("sweeper")}
}

// Start corre el barrido hasta que ctx se cancele. Un error en una vuelta se registra y el
// ciclo continúa en la siguiente.
func (s *Sweeper) Start(ctx context.Context) error {
	s.log.Info().Dur("interval", s.interval).Int("batch", s.batch).Msg("barrido de reservas iniciado")
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("barrido de reservas detenido")
			return nil
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce ejecuta una vuelta del barrido y devuelve cuántas reservas liberó.
func (s *Sweeper) RunOnce(ctx context.Context) int {
	n, err := s.manager.SweepExpired(ctx, s.manager.clock(), s.batch)
	if err != nil {
		if ctx.Err() == nil {
			s.log.Error().Err(err).Msg("falló el barrido de reservas vencidas")
		}
		return 0
	}
	if n > 0 {
		s.log.Info().Int("released", n).Msg("reservas vencidas liberadas")
	}
	return n
}
