package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/kpp-site/internal/model"
	"github.com/olegiv/kpp-site/internal/service"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSchedulerAdd(t *testing.T) {
	s := New(testLogger())
	noop := func(context.Context) error { return nil }

	require.NoError(t, s.Add(Job{Name: "a", Schedule: "@daily", Run: noop}))
	require.NoError(t, s.Add(Job{Name: "disabled", Schedule: "", Run: noop}))

	assert.Error(t, s.Add(Job{Name: "a", Schedule: "@hourly", Run: noop}), "duplicate name")
	assert.Error(t, s.Add(Job{Name: "bad", Schedule: "every day", Run: noop}), "invalid expression")
	assert.Error(t, s.Add(Job{Name: "", Schedule: "@daily", Run: noop}), "missing name")
	assert.Error(t, s.Add(Job{Name: "norun", Schedule: "@daily"}), "missing run")

	jobs := s.List()
	require.Len(t, jobs, 1)
	assert.Equal(t, "a", jobs[0].Name)
	assert.Equal(t, "@daily", jobs[0].Schedule)
}

func TestSchedulerStartStop(t *testing.T) {
	s := New(testLogger())
	require.NoError(t, s.Add(Job{Name: "tick", Schedule: "0 3 * * *", Run: func(context.Context) error { return nil }}))

	s.Start()
	jobs := s.List()
	require.Len(t, jobs, 1)
	assert.False(t, jobs[0].NextRun.IsZero(), "next run is set once started")
	s.Stop()
}

func TestTriggerNow(t *testing.T) {
	s := New(testLogger())
	runs := 0
	require.NoError(t, s.Add(Job{Name: "count", Schedule: "@yearly", Run: func(context.Context) error {
		runs++
		return nil
	}}))
	boom := errors.New("boom")
	require.NoError(t, s.Add(Job{Name: "fail", Schedule: "@yearly", Run: func(context.Context) error { return boom }}))

	require.NoError(t, s.TriggerNow("count"))
	assert.Equal(t, 1, runs)
	assert.ErrorIs(t, s.TriggerNow("fail"), boom)
	assert.ErrorIs(t, s.TriggerNow("missing"), ErrJobNotFound)
}

type fakePruner struct {
	days int
	n    int64
	err  error
}

func (p *fakePruner) DeleteOlderThan(_ context.Context, days int) (int64, error) {
	p.days = days
	return p.n, p.err
}

type fakeEvents struct {
	entries []string
	meta    []map[string]any
}

func (e *fakeEvents) LogSystem(_ context.Context, level, category, message string, metadata map[string]any) error {
	e.entries = append(e.entries, level+"/"+category+"/"+message)
	e.meta = append(e.meta, metadata)
	return nil
}

func TestPruneJob(t *testing.T) {
	audit := &fakePruner{n: 3}
	logs := &fakePruner{err: errors.New("locked")}
	analytics := &fakePruner{n: 7}
	skipped := &fakePruner{}
	events := &fakeEvents{}

	jobs := MaintenanceJobs(MaintenanceConfig{
		PruneSchedule: DefaultPruneSchedule,
		Retention: []Retention{
			{Table: "audit_logs", Pruner: audit, Days: 365},
			{Table: "events", Pruner: logs, Days: 90},
			{Table: "analytics_events", Pruner: analytics, Days: 180},
			{Table: "disabled", Pruner: skipped, Days: 0},
		},
		Events: events,
	})
	require.Len(t, jobs, 1)
	assert.Equal(t, "prune-logs", jobs[0].Name)

	err := jobs[0].Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pruning events")

	assert.Equal(t, 365, audit.days)
	assert.Equal(t, 180, analytics.days, "a failing table does not stop the others")
	assert.Zero(t, skipped.days)

	require.Len(t, events.entries, 1)
	assert.Equal(t, model.EventLevelInfo+"/"+model.EventCategorySystem+"/Old log rows pruned", events.entries[0])
	assert.Equal(t, map[string]any{"audit_logs": int64(3), "analytics_events": int64(7)}, events.meta[0])
}

type fakeBackups struct {
	created, pruned int
	err             error
}

func (b *fakeBackups) Create(context.Context) (service.BackupInfo, error) {
	if b.err != nil {
		return service.BackupInfo{}, b.err
	}
	b.created++
	return service.BackupInfo{Name: "kpp-backup-20250101-030000.db", Size: 42}, nil
}

func (b *fakeBackups) Prune() (int, error) {
	b.pruned++
	return 2, nil
}

type fakeReloader struct{ reloads int }

func (r *fakeReloader) Reload() error {
	r.reloads++
	return nil
}

func TestBackupAndGeoIPJobs(t *testing.T) {
	backups := &fakeBackups{}
	geo := &fakeReloader{}
	events := &fakeEvents{}

	jobs := MaintenanceJobs(MaintenanceConfig{
		BackupSchedule: "0 3 * * *",
		Backups:        backups,
		GeoIPSchedule:  DefaultGeoIPSchedule,
		GeoIP:          geo,
		Events:         events,
	})
	require.Len(t, jobs, 2)

	s := New(testLogger())
	for _, j := range jobs {
		require.NoError(t, s.Add(j))
	}
	require.NoError(t, s.TriggerNow("backup"))
	require.NoError(t, s.TriggerNow("geoip-reload"))

	assert.Equal(t, 1, backups.created)
	assert.Equal(t, 1, backups.pruned)
	assert.Equal(t, 1, geo.reloads)
	require.Len(t, events.entries, 1)
	assert.Equal(t, 2, events.meta[0]["pruned"])

	backups.err = errors.New("disk full")
	assert.Error(t, s.TriggerNow("backup"))
	assert.Equal(t, model.EventLevelError+"/"+model.EventCategoryBackup+"/Scheduled backup failed", events.entries[1])
}
