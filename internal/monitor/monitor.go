// Package monitor periodically evaluates every venue, keeps the latest
// status in memory and records closure transitions.
package monitor

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/pcdogyu/market-closure/internal/config"
	"github.com/pcdogyu/market-closure/internal/memstore"
	"github.com/pcdogyu/market-closure/internal/service"
	"github.com/pcdogyu/market-closure/internal/store/sqlite"
)

type CfgProvider interface {
	Get() config.Config
}

type Monitor struct {
	cfgp CfgProvider
	reg  *service.Registry
	mem  *memstore.Store
	db   *sql.DB // nil disables history
	log  *zap.Logger
	now  func() time.Time
}

func New(cfgp CfgProvider, reg *service.Registry, mem *memstore.Store, db *sql.DB, logger *zap.Logger) *Monitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{cfgp: cfgp, reg: reg, mem: mem, db: db, log: logger, now: time.Now}
}

// Run checks all venues every monitor.interval_seconds until ctx is done.
// The interval is re-read from the config provider on each tick.
func (m *Monitor) Run(ctx context.Context) error {
	var lastInterval int
	for {
		interval := m.cfgp.Get().Monitor.IntervalSeconds
		if interval <= 0 {
			interval = 30
		}
		if interval != lastInterval {
			m.log.Info("monitor interval", zap.Int("seconds", interval))
			lastInterval = interval
		}

		if err := m.CheckOnce(ctx); err != nil {
			m.log.Error("monitor tick", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(interval) * time.Second):
		}
	}
}

// CheckOnce rebuilds the registry from the current config, so holidays
// imported into the store since the last tick apply, then evaluates every
// venue once. A failed rebuild keeps the previous evaluators.
func (m *Monitor) CheckOnce(ctx context.Context) error {
	cfg := m.cfgp.Get()
	onlyChanges := cfg.Monitor.OnlyRecordChanges == nil || *cfg.Monitor.OnlyRecordChanges

	if err := m.reg.Reload(cfg); err != nil {
		m.log.Warn("registry reload", zap.Error(err))
	}

	statuses := m.reg.StatusAll()
	names := make([]string, 0, len(statuses))
	var errs []error
	for _, st := range statuses {
		if err := ctx.Err(); err != nil {
			return err
		}
		names = append(names, st.Venue)

		prev, seen := m.mem.Set(st)
		changed := !seen || prev.Halted != st.Halted || prev.InHours != st.InHours || prev.InHoliday != st.InHoliday
		if changed {
			fields := []zap.Field{
				zap.String("venue", st.Venue),
				zap.Bool("halted", st.Halted),
				zap.Bool("in_hours", st.InHours),
				zap.Bool("in_holiday", st.InHoliday),
				zap.String("local", st.Local.Format(time.RFC3339)),
			}
			if st.Error != "" {
				fields = append(fields, zap.String("error", st.Error))
			}
			if seen {
				m.log.Info("closure changed", fields...)
			} else {
				m.log.Info("closure status", fields...)
			}
		}

		if m.db == nil || (onlyChanges && !changed) {
			continue
		}
		if err := sqlite.InsertStatus(m.db, st.CheckedAt, st.Venue, st.Status); err != nil {
			errs = append(errs, fmt.Errorf("store status venue=%s: %w", st.Venue, err))
		}
	}
	m.mem.Retain(names)
	return errors.Join(errs...)
}

// RunCleanup deletes history older than retention_days once a day after
// cleanup.run_at (UTC).
func (m *Monitor) RunCleanup(ctx context.Context) error {
	if m.db == nil {
		return nil
	}
	var lastRunDay string
	for {
		cfg := m.cfgp.Get()
		enabled := cfg.Cleanup.Enabled == nil || *cfg.Cleanup.Enabled

		now := m.now().UTC()
		today := now.Format("2006-01-02")
		if enabled && lastRunDay != today && now.After(runTimeToday(now, cfg.Cleanup.RunAt)) {
			if err := sqlite.CleanupOldData(m.db, now, cfg.RetentionDays); err != nil {
				m.log.Error("cleanup", zap.Error(err))
			} else {
				m.log.Info("cleanup ok", zap.Int("retention_days", cfg.RetentionDays))
			}
			lastRunDay = today
		}

		// Tick at 1-minute granularity; this is a once-per-day job.
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Minute):
		}
	}
}

func runTimeToday(now time.Time, runAt string) time.Time {
	h, mm := 3, 10
	if v, err := time.Parse("15:04", runAt); err == nil {
		h, mm = v.Hour(), v.Minute()
	}
	return time.Date(now.Year(), now.Month(), now.Day(), h, mm, 0, 0, now.Location())
}
