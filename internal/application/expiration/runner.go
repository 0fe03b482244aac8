package expiration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jhoicas/Comercial-api/internal/application/dto"
	"github.com/jhoicas/Comercial-api/pkg/logger"
)

const defaultInterval = time.Hour

// Nombres de job (etiqueta de métricas y logs).
const (
	JobExpireLeads  = "expire_leads"
	JobExpireQuotes = "expire_quotes"
	JobPurgeDrafts  = "purge_drafts"
)

// Job tarea periódica.
type Job struct {
	Name string
	Run  func(ctx context.Context) error
}

// DraftPurger elimina borradores vencidos.
type DraftPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// RunnerParams configuración del Runner. Lock y Metrics son opcionales.
type RunnerParams struct {
	Logger   *logger.Logger
	Lock     Lock
	Metrics  JobMetrics
	Interval time.Duration
	Jobs     []Job
}

// Runner ejecuta los jobs registrados cada Interval hasta que se cancele el contexto.
type Runner struct {
	log      *logger.Logger
	lock     Lock
	metrics  JobMetrics
	interval time.Duration
	jobs     []Job
}

// NewRunner construye el runner.
func NewRunner(p RunnerParams) (*Runner, error) {
	if len(p.Jobs) == 0 {
		return nil, errors.New("runner: sin jobs")
	}
	log := p.Logger
	if log == nil {
		log = logger.Nop()
	}
	interval := p.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Runner{
		log:      log.Named("runner"),
		lock:     p.Lock,
		metrics:  p.Metrics,
		interval: interval,
		jobs:     append([]Job(nil), p.Jobs...),
	}, nil
}

// Run ejecuta un ciclo inmediato y luego uno por tick.
func (r *Runner) Run(ctx context.Context) error {
	if err := r.RunOnce(ctx); err != nil {
		r.log.Error().Err(err).Msg("ciclo de barrido fallido")
	}
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.Info().Msg("runner detenido")
			return ctx.Err()
		case <-ticker.C:
			if err := r.RunOnce(ctx); err != nil {
				r.log.Error().Err(err).Msg("ciclo de barrido fallido")
			}
		}
	}
}

// RunOnce toma el lock (si hay) y ejecuta todos los jobs en orden.
// Un job fallido no impide los siguientes.
func (r *Runner) RunOnce(ctx context.Context) error {
	if r.lock != nil {
		locked, err := r.lock.Acquire(ctx)
		if err != nil {
			return fmt.Errorf("lock acquire: %w", err)
		}
		if !locked {
			r.log.Info().Msg("otra instancia está barriendo; se omite el ciclo")
			return nil
		}
		defer func() {
			if err := r.lock.Release(ctx); err != nil {
				r.log.Error().Err(err).Msg("no se pudo liberar el lock")
			}
		}()
	}
	for _, job := range r.jobs {
		r.runJob(ctx, job)
	}
	return nil
}

func (r *Runner) runJob(ctx context.Context, job Job) {
	start := time.Now()
	err := job.Run(ctx)
	d := time.Since(start)
	if r.metrics != nil {
		r.metrics.ObserveDuration(job.Name, d)
	}
	if err != nil {
		r.log.Error().Err(err).Str("job", job.Name).Int64("duration_ms", d.Milliseconds()).Msg("job fallido")
		if r.metrics != nil {
			r.metrics.IncFailure(job.Name)
		}
		return
	}
	r.log.Info().Str("job", job.Name).Int64("duration_ms", d.Milliseconds()).Msg("job completado")
	if r.metrics != nil {
		r.metrics.IncSuccess(job.Name)
	}
}

// StandardJobs jobs de vencimiento de leads, presupuestos y purga de borradores.
// drafts puede ser nil.
func StandardJobs(s *Sweeper, drafts DraftPurger) []Job {
	jobs := []Job{
		{Name: JobExpireLeads, Run: func(ctx context.Context) error {
			res, err := s.ExpireLeads(ctx)
			s.logResult(JobExpireLeads, res)
			return err
		}},
		{Name: JobExpireQuotes, Run: func(ctx context.Context) error {
			res, err := s.ExpireQuotes(ctx)
			s.logResult(JobExpireQuotes, res)
			return err
		}},
	}
	if drafts != nil {
		jobs = append(jobs, Job{Name: JobPurgeDrafts, Run: func(ctx context.Context) error {
			_, err := drafts.PurgeExpired(ctx)
			return err
		}})
	}
	return jobs
}

func (s *Sweeper) logResult(job string, res SweepResult) {
	s.log.Info().
		Str("job", job).
		Int("processed", res.Processed).
		Int("notifications_created", res.NotificationsCreated).
		Int("failed", res.Failed).
		Msg("barrido terminado")
}

// SweepAll ejecuta ambos barridos y la purga de borradores en el momento (endpoint admin).
func (s *Sweeper) SweepAll(ctx context.Context, drafts DraftPurger) (*dto.SweepResponse, error) {
	leads, err := s.ExpireLeads(ctx)
	if err != nil {
		return nil, err
	}
	quotes, err := s.ExpireQuotes(ctx)
	if err != nil {
		return nil, err
	}
	resp := &dto.SweepResponse{Leads: toDTO(leads), Quotes: toDTO(quotes)}
	if drafts != nil {
		n, err := drafts.PurgeExpired(ctx)
		if err != nil {
			return nil, err
		}
		resp.DraftsPurged = n
	}
	return resp, nil
}

func toDTO(r SweepResult) dto.SweepResultDTO {
	return dto.SweepResultDTO{Processed: r.Processed, NotificationsCreated: r.NotificationsCreated, Failed: r.Failed}
}
