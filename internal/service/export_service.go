package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"formbuilder/internal/domain"
	"formbuilder/internal/export"
	"formbuilder/internal/secret"
)

var (
	ErrExportRunning      = errors.New("export already running")
	ErrInvalidDestination = errors.New("invalid export destination")
)

// SinkOpener connects to an export destination.
type SinkOpener func(dest *domain.ExportDestination, password string) (export.Sink, error)

// ─────────────────────────────────────────────────────────────
// Export Service — copies submissions to external databases
// ─────────────────────────────────────────────────────────────

// ExportService manages export destinations and runs exports on demand or on
// their cron schedule. Each run copies the submissions made since the
// destination's last export.
type ExportService struct {
	dests   domain.ExportDestinationStore
	subs    domain.SubmissionStore
	forms   *FormService
	secrets secret.SecretStore
	open    SinkOpener
	emitter EventEmitter
	running runningJobsGuard
	timeout time.Duration
	newID   func() string

	cronSched *cron.Cron
}

func NewExportService(
	dests domain.ExportDestinationStore,
	subs domain.SubmissionStore,
	forms *FormService,
	secrets secret.SecretStore,
	emitter EventEmitter,
) *ExportService {
	return &ExportService{
		dests:   dests,
		subs:    subs,
		forms:   forms,
		secrets: secrets,
		open:    export.Open,
		emitter: emitterOrNop(emitter),
		timeout: 5 * time.Minute,
		newID:   uuid.NewString,
	}
}

// SetSinkOpener replaces export.Open, for tests.
func (s *ExportService) SetSinkOpener(open SinkOpener) { s.open = open }

// ── Destination CRUD ───────────────────────────────────────

type DestinationInput struct {
	FormID   string              `json:"formId"`
	Name     string              `json:"name"`
	Driver   domain.ExportDriver `json:"driver"`
	Host     string              `json:"host"`
	Port     int                 `json:"port"`
	Database string              `json:"database"`
	Username string              `json:"username"`
	Password string              `json:"password"`
	SSLMode  string              `json:"sslMode"`
	Table    string              `json:"table"`
	Schedule string              `json:"schedule"`
	Enabled  bool                `json:"enabled"`
}

func (in DestinationInput) validate() error {
	var problems []string
	if strings.TrimSpace(in.Name) == "" {
		problems = append(problems, "name is required")
	}
	switch in.Driver {
	case domain.ExportDriverMySQL, domain.ExportDriverPostgres, domain.ExportDriverMongoDB, domain.ExportDriverSQLite:
	default:
		problems = append(problems, fmt.Sprintf("unsupported driver %q", in.Driver))
	}
	if in.Host == "" {
		problems = append(problems, "host is required")
	}
	if in.Table == "" {
		problems = append(problems, "table is required")
	}
	if in.Schedule != "" {
		if _, err := cron.ParseStandard(in.Schedule); err != nil {
			problems = append(problems, fmt.Sprintf("schedule: %v", err))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidDestination, strings.Join(problems, "; "))
	}
	return nil
}

func (in DestinationInput) apply(d *domain.ExportDestination) {
	d.Name = strings.TrimSpace(in.Name)
	d.Driver = in.Driver
	d.Host = in.Host
	d.Port = in.Port
	d.Database = in.Database
	d.Username = in.Username
	d.SSLMode = in.SSLMode
	d.Table = in.Table
	d.Schedule = in.Schedule
	d.Enabled = in.Enabled
}

func (s *ExportService) CreateDestination(ctx context.Context, in DestinationInput) (*domain.ExportDestination, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if _, err := s.forms.GetForm(in.FormID); err != nil {
		return nil, err
	}
	d := &domain.ExportDestination{ID: s.newID(), FormID: in.FormID}
	in.apply(d)
	if err := s.dests.CreateDestination(d); err != nil {
		return nil, err
	}
	if in.Password != "" {
		if err := s.secrets.Set(d.SecretKey(), []byte(in.Password)); err != nil {
			return nil, fmt.Errorf("store password: %w", err)
		}
	}
	s.RestartSchedules(ctx)
	return d, nil
}

func (s *ExportService) GetDestination(id string) (*domain.ExportDestination, error) {
	return s.dests.GetDestination(id)
}

func (s *ExportService) ListDestinations(formID string) ([]domain.ExportDestination, error) {
	return s.dests.ListDestinations(formID)
}

// UpdateDestination replaces the settings. An empty password keeps the stored one.
func (s *ExportService) UpdateDestination(ctx context.Context, id string, in DestinationInput) error {
	if err := in.validate(); err != nil {
		return err
	}
	d, err := s.dests.GetDestination(id)
	if err != nil {
		return err
	}
	in.apply(d)
	if err := s.dests.UpdateDestination(d); err != nil {
		return err
	}
	if in.Password != "" {
		if err := s.secrets.Set(d.SecretKey(), []byte(in.Password)); err != nil {
			return fmt.Errorf("store password: %w", err)
		}
	}
	s.RestartSchedules(ctx)
	return nil
}

func (s *ExportService) DeleteDestination(ctx context.Context, id string) error {
	d, err := s.dests.GetDestination(id)
	if err != nil {
		return err
	}
	if err := s.dests.DeleteDestination(id); err != nil {
		return err
	}
	s.secrets.Delete(d.SecretKey())
	s.RestartSchedules(ctx)
	return nil
}

// ── Runs ───────────────────────────────────────────────────

type ExportResult struct {
	DestinationID string    `json:"destinationId"`
	Status        string    `json:"status"` // "success" | "error"
	Rows          int       `json:"rows"`
	StartedAt     time.Time `json:"startedAt"`
	FinishedAt    time.Time `json:"finishedAt"`
	Error         string    `json:"error,omitempty"`
}

// TestDestination opens the destination and pings it.
func (s *ExportService) TestDestination(ctx context.Context, id string) error {
	d, err := s.dests.GetDestination(id)
	if err != nil {
		return err
	}
	sink, err := s.connect(d)
	if err != nil {
		return err
	}
	defer sink.Close()
	return sink.Ping(ctx)
}

func (s *ExportService) connect(d *domain.ExportDestination) (export.Sink, error) {
	password, err := s.secrets.Get(d.SecretKey())
	if err != nil {
		return nil, fmt.Errorf("load password: %w", err)
	}
	sink, err := s.open(d, string(password))
	if err != nil {
		return nil, fmt.Errorf("open %s destination: %w", d.Driver, err)
	}
	return sink, nil
}

// RunExport copies the submissions made since the last export of destination id.
func (s *ExportService) RunExport(ctx context.Context, id string) (*ExportResult, error) {
	if !s.running.TryLock(id) {
		return nil, fmt.Errorf("destination %s: %w", id, ErrExportRunning)
	}
	defer s.running.Unlock(id)

	d, err := s.dests.GetDestination(id)
	if err != nil {
		return nil, err
	}
	s.emitter.Emit(ctx, EventExportStarted, id)

	result := &ExportResult{DestinationID: id, StartedAt: time.Now()}
	rows, last, runErr := s.run(ctx, d)
	result.Rows = rows
	result.FinishedAt = time.Now()
	if runErr != nil {
		result.Status = "error"
		result.Error = runErr.Error()
		log.Printf("[export] destination %s failed: %v", id, runErr)
		s.emitter.Emit(ctx, EventExportFailed, result)
		return result, runErr
	}
	if !last.IsZero() {
		if err := s.dests.MarkExported(id, last); err != nil {
			return result, fmt.Errorf("mark exported: %w", err)
		}
	}
	result.Status = "success"
	s.emitter.Emit(ctx, EventExportCompleted, result)
	return result, nil
}

func (s *ExportService) run(ctx context.Context, d *domain.ExportDestination) (int, time.Time, error) {
	subs, err := s.subs.ListSubmissionsSince(d.FormID, d.LastExport)
	if err != nil {
		return 0, time.Time{}, err
	}
	if len(subs) == 0 {
		return 0, time.Time{}, nil
	}
	def, err := s.forms.Definition(d.FormID)
	if err != nil {
		return 0, time.Time{}, err
	}

	sink, err := s.connect(d)
	if err != nil {
		return 0, time.Time{}, err
	}
	defer sink.Close()

	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	n, err := sink.Write(runCtx, def, subs)
	if err != nil {
		return 0, time.Time{}, err
	}
	return n, subs[len(subs)-1].CreatedAt, nil
}

// Running lists the destinations with an export in flight.
func (s *ExportService) Running() []string {
	return s.running.Running()
}

// ── Schedules ──────────────────────────────────────────────

// RestartSchedules rebuilds the cron scheduler from the enabled destinations.
func (s *ExportService) RestartSchedules(ctx context.Context) {
	s.stopSchedules()

	dests, err := s.dests.ListScheduledDestinations()
	if err != nil {
		log.Printf("[export] cron: failed to list destinations: %v", err)
		return
	}
	if len(dests) == 0 {
		return
	}

	c := cron.New()
	for _, d := range dests {
		id := d.ID
		if _, err := c.AddFunc(d.Schedule, func() {
			log.Printf("[export] cron: running destination %s", id)
			if _, err := s.RunExport(ctx, id); err != nil {
				log.Printf("[export] cron: destination %s failed: %v", id, err)
			}
		}); err != nil {
			log.Printf("[export] cron: invalid expression %q for destination %s: %v", d.Schedule, id, err)
		}
	}
	c.Start()
	s.cronSched = c
	log.Printf("[export] cron: scheduled %d destination(s)", len(dests))
}

// Scheduled reports how many cron entries are active.
func (s *ExportService) Scheduled() int {
	if s.cronSched == nil {
		return 0
	}
	return len(s.cronSched.Entries())
}

// WaitRunning blocks until in-flight exports finish or ctx is done.
func (s *ExportService) WaitRunning(ctx context.Context) {
	s.running.WaitAll(ctx)
}

func (s *ExportService) Stop() {
	s.stopSchedules()
}

func (s *ExportService) stopSchedules() {
	if s.cronSched != nil {
		s.cronSched.Stop()
		s.cronSched = nil
	}
}
