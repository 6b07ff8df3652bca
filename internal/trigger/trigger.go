// Package trigger creates entries on cron schedules.
package trigger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/me/prodigy/internal/config"
	"github.com/robfig/cron/v3"
)

// Creator is the Scheduler operation a firing trigger calls.
type Creator interface {
	Create(ctx context.Context, payloadRef string) (string, error)
}

// Status describes one registered trigger.
type Status struct {
	Name       string    `json:"name"`
	Schedule   string    `json:"schedule"`
	PayloadRef string    `json:"payload_ref"`
	Next       time.Time `json:"next"`
}

// Service runs named cron triggers. Apply may be called at any time,
// before or after Start.
type Service struct {
	mu      sync.Mutex
	parser  cron.Parser
	creator Creator
	log     *slog.Logger

	defs []config.TriggerConfig
	loc  *time.Location

	c      *cron.Cron
	ids    map[string]cron.EntryID
	runCtx context.Context
}

// New creates a stopped Service with no triggers.
func New(creator Creator, log *slog.Logger) *Service {
	return &Service{
		// SecondOptional allows both 5-field and 6-field (with seconds) cron specs.
		parser:  cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
		creator: creator,
		log:     log.With("component", "trigger"),
		loc:     time.UTC,
		ids:     map[string]cron.EntryID{},
	}
}

// Apply replaces the trigger set. Every schedule and the timezone are
// checked first; on error nothing changes.
func (s *Service) Apply(triggers []config.TriggerConfig, timezone string) error {
	loc, err := loadLocation(timezone)
	if err != nil {
		return err
	}
	var problems []string
	for _, tr := range triggers {
		if _, err := s.parser.Parse(tr.Schedule); err != nil {
			problems = append(problems, fmt.Sprintf("trigger %q: %v", tr.Name, err))
		}
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.defs = append([]config.TriggerConfig(nil), triggers...)
	s.loc = loc
	if s.c != nil {
		s.restartLocked()
	}
	return nil
}

// Start begins firing triggers. Entries are created with ctx, so cancelling
// it makes later firings fail fast; call Stop to halt the cron itself.
func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.c != nil {
		return
	}
	s.runCtx = ctx
	s.startLocked()
	s.log.Info("triggers started", "tz", s.loc.String(), "triggers", len(s.defs))
}

// Stop halts the cron and waits for running firings, or until ctx ends.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	c := s.c
	s.c = nil
	s.ids = map[string]cron.EntryID{}
	s.mu.Unlock()
	if c == nil {
		return
	}

	select {
	case <-c.Stop().Done():
		s.log.Info("triggers stopped")
	case <-ctx.Done():
		s.log.Warn("trigger stop timed out", "error", ctx.Err())
	}
}

// Run starts the service and blocks until ctx is cancelled.
func (s *Service) Run(ctx context.Context) error {
	s.Start(ctx)
	<-ctx.Done()
	stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.Stop(stopCtx)
	return nil
}

// Triggers reports the registered triggers. Next is zero while stopped.
func (s *Service) Triggers() []Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Status, 0, len(s.defs))
	for _, d := range s.defs {
		st := Status{Name: d.Name, Schedule: d.Schedule, PayloadRef: d.PayloadRef}
		if id, ok := s.ids[d.Name]; ok && s.c != nil {
			st.Next = s.c.Entry(id).Next
		}
		out = append(out, st)
	}
	return out
}

func (s *Service) startLocked() {
	logger := cronLogger{s.log}
	s.c = cron.New(
		cron.WithParser(s.parser),
		cron.WithLocation(s.loc),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	s.ids = make(map[string]cron.EntryID, len(s.defs))
	ctx := s.runCtx
	for _, d := range s.defs {
		d := d
		id, err := s.c.AddFunc(d.Schedule, func() { s.fire(ctx, d) })
		if err != nil {
			// Schedules were parsed in Apply; this only happens on a parser change.
			s.log.Error("register trigger", "trigger", d.Name, "error", err)
			continue
		}
		s.ids[d.Name] = id
	}
	s.c.Start()
}

func (s *Service) restartLocked() {
	<-s.c.Stop().Done()
	s.startLocked()
	s.log.Info("triggers reloaded", "tz", s.loc.String(), "triggers", len(s.defs))
}

// fire must not take s.mu: restartLocked holds it while waiting for jobs.
func (s *Service) fire(ctx context.Context, d config.TriggerConfig) {
	id, err := s.creator.Create(ctx, d.PayloadRef)
	if err != nil {
		s.log.Error("trigger create failed", "trigger", d.Name, "error", err)
		return
	}
	s.log.Info("trigger fired", "trigger", d.Name, "entry_id", id)
}

func loadLocation(tz string) (*time.Location, error) {
	tz = strings.TrimSpace(tz)
	if tz == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", tz, err)
	}
	return loc, nil
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error(msg, append(keysAndValues, "error", err)...)
}
