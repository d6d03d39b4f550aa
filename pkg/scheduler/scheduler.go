// Package scheduler runs the periodic reapers that purge expired rooms,
// expired tapins and idle rate-limit keys.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/tapin-app/tapin-backend/app/queries"
	"github.com/tapin-app/tapin-backend/pkg/metrics"
	"github.com/tapin-app/tapin-backend/pkg/ratelimit"
)

const jobTimeout = time.Minute

type Reaper struct {
	DB        *sqlx.DB
	Limiters  []*ratelimit.Limiter
	IdleAfter time.Duration
	now       func() time.Time
}

func NewReaper(db *sqlx.DB, idleAfter time.Duration, limiters ...*ratelimit.Limiter) *Reaper {
	return &Reaper{DB: db, Limiters: limiters, IdleAfter: idleAfter, now: time.Now}
}

// PurgeRooms deletes expired rooms together with their messages and participants.
func (r *Reaper) PurgeRooms(ctx context.Context) (int64, error) {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	q := queries.RoomQueries{DB: tx}
	n, err := q.DeleteExpiredRooms(ctx, r.now())
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	metrics.ReaperDeleted.WithLabelValues("rooms").Add(float64(n))
	return n, nil
}

func (r *Reaper) PurgeTapins(ctx context.Context) (int64, error) {
	q := queries.TapinQueries{DB: r.DB}
	n, err := q.DeleteExpired(ctx, r.now())
	if err != nil {
		return 0, err
	}
	metrics.ReaperDeleted.WithLabelValues("tapins").Add(float64(n))
	return n, nil
}

// SweepLimiters drops rate-limit keys idle for longer than IdleAfter.
func (r *Reaper) SweepLimiters() int {
	total := 0
	for _, l := range r.Limiters {
		total += l.Sweep(r.IdleAfter)
	}
	metrics.ReaperDeleted.WithLabelValues("rate_limit_keys").Add(float64(total))
	return total
}

func (r *Reaper) run(name string, fn func(ctx context.Context) (int64, error)) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		n, err := fn(ctx)
		if err != nil {
			log.Error().Err(err).Str("event", "reaper_failed").Str("job", name).Msg("")
			return
		}
		if n > 0 {
			log.Info().Str("event", "reaper_deleted").Str("job", name).Int64("deleted", n).Msg("")
		}
	}
}

// Start schedules every reaper at the given interval and starts the scheduler.
// Callers must Shutdown the returned scheduler.
func Start(r *Reaper, every time.Duration) (gocron.Scheduler, error) {
	s, err := gocron.NewScheduler(
		gocron.WithLocation(time.UTC),
		gocron.WithLogger(gocronLogger{}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	jobs := map[string]func(){
		"purge_expired_rooms":  r.run("purge_expired_rooms", r.PurgeRooms),
		"purge_expired_tapins": r.run("purge_expired_tapins", r.PurgeTapins),
		"sweep_rate_limits": r.run("sweep_rate_limits", func(context.Context) (int64, error) {
			return int64(r.SweepLimiters()), nil
		}),
	}
	for name, task := range jobs {
		if _, err := s.NewJob(
			gocron.DurationJob(every),
			gocron.NewTask(task),
			gocron.WithName(name),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		); err != nil {
			_ = s.Shutdown()
			return nil, fmt.Errorf("failed to schedule job %q: %w", name, err)
		}
		log.Info().Str("event", "job_scheduled").Str("job", name).Dur("every", every).Msg("")
	}

	s.Start()
	return s, nil
}

// gocronLogger forwards scheduler logs to zerolog.
type gocronLogger struct{}

func (gocronLogger) Debug(msg string, args ...any) { log.Debug().Fields(args).Msg(msg) }
func (gocronLogger) Info(msg string, args ...any)  { log.Info().Fields(args).Msg(msg) }
func (gocronLogger) Warn(msg string, args ...any)  { log.Warn().Fields(args).Msg(msg) }
func (gocronLogger) Error(msg string, args ...any) { log.Error().Fields(args).Msg(msg) }
