package worker

import (
	"context"
	"time"

	"pgnest/config"
	"pgnest/infras/otel"
	"pgnest/internal/domains/booking/model"
	"pgnest/internal/domains/booking/repository"
	"pgnest/shared/constant"
	gDto "pgnest/shared/dto"
	"pgnest/shared/timezone"

	"github.com/rs/zerolog/log"
)

// Retention periodically purges terminal bookings past the retention
// window. Occupant rows go with them through the FK cascade. Live
// sessions never matter here: a terminal booking cannot hold one.
type Retention struct {
	cfg  *config.Config
	repo repository.Booking
	otel otel.Otel
}

func NewRetention(cfg *config.Config, repo repository.Booking, otel otel.Otel) *Retention {
	return &Retention{
		cfg:  cfg,
		repo: repo,
		otel: otel,
	}
}

// Run blocks until the context is canceled. Intended to be started in
// its own goroutine from main.
func (w *Retention) Run(ctx context.Context) {
	if !w.cfg.Retention.Enable {
		log.Info().Msg("Retention sweep disabled")

		return
	}

	interval := time.Duration(w.cfg.Retention.SweepHours) * time.Hour

	log.Info().
		Int("sweep_hours", w.cfg.Retention.SweepHours).
		Int("max_age_days", w.cfg.Retention.MaxAgeDays).
		Msg("Retention sweep started")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Retention sweep stopped")

			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *Retention) sweep(ctx context.Context) {
	ctx, scope := w.otel.NewScope(ctx, constant.OtelWorkerScopeName, constant.OtelWorkerScopeName+".retention.sweep")
	defer scope.End()

	cutoff := timezone.Now().AddDate(0, 0, -w.cfg.Retention.MaxAgeDays)

	filter := gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters: []any{
			gDto.FilterGroup{
				Operator: gDto.FilterGroupOperatorOr,
				Filters: []any{
					gDto.Filter{Field: model.FieldCanceledAt, Table: model.TableName, Operator: gDto.FilterIsNotNull},
					gDto.Filter{Field: model.FieldDeclinedAt, Table: model.TableName, Operator: gDto.FilterIsNotNull},
					gDto.Filter{Field: model.FieldRevokedAt, Table: model.TableName, Operator: gDto.FilterIsNotNull},
				},
			},
			gDto.Filter{Field: constant.FieldCreatedAt, Table: model.TableName, Operator: gDto.FilterOperatorLessEq, Value: cutoff},
		},
	}

	count, err := w.repo.Count(ctx, filter)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("retention sweep failed to count bookings")

		return
	}

	if count == 0 {
		return
	}

	if err := w.repo.Delete(ctx, filter); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("retention sweep failed to delete bookings")

		return
	}

	log.Info().Int("count", count).Time("cutoff", cutoff).Msg("Retention sweep purged terminal bookings")
}
