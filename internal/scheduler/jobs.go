package scheduler

import (
	"context"
	"fmt"

	"github.com/olegiv/kpp-site/internal/model"
	"github.com/olegiv/kpp-site/internal/service"
)

// Default schedules of the maintenance jobs.
const (
	DefaultPruneSchedule = "30 2 * * *"
	DefaultGeoIPSchedule = "0 4 * * 0"
)

// Pruner deletes rows older than a number of days.
type Pruner interface {
	DeleteOlderThan(ctx context.Context, days int) (int64, error)
}

// Backuper creates database backups and applies retention.
type Backuper interface {
	Create(ctx context.Context) (service.BackupInfo, error)
	Prune() (int, error)
}

// Reloader reloads an external data file.
type Reloader interface {
	Reload() error
}

// EventLogger records job outcomes in the system event log.
type EventLogger interface {
	LogSystem(ctx context.Context, level, category, message string, metadata map[string]any) error
}

// Retention holds a pruner and its retention in days. Days below 1
// disables pruning of that table.
type Retention struct {
	Table  string
	Pruner Pruner
	Days   int
}

// MaintenanceConfig wires the maintenance jobs to their services. Nil
// services and empty schedules leave the job out.
type MaintenanceConfig struct {
	PruneSchedule string
	Retention     []Retention

	BackupSchedule string
	Backups        Backuper

	GeoIPSchedule string
	GeoIP         Reloader

	Events EventLogger
}

// MaintenanceJobs builds the jobs described by cfg.
func MaintenanceJobs(cfg MaintenanceConfig) []Job {
	var jobs []Job

	if len(cfg.Retention) > 0 {
		jobs = append(jobs, Job{
			Name:        "prune-logs",
			Description: "Delete audit, event and analytics rows past their retention",
			Schedule:    cfg.PruneSchedule,
			Run: func(ctx context.Context) error {
				return prune(ctx, cfg.Retention, cfg.Events)
			},
		})
	}

	if cfg.Backups != nil {
		jobs = append(jobs, Job{
			Name:        "backup",
			Description: "Snapshot the database and remove backups beyond the keep count",
			Schedule:    cfg.BackupSchedule,
			Run: func(ctx context.Context) error {
				return backup(ctx, cfg.Backups, cfg.Events)
			},
		})
	}

	if cfg.GeoIP != nil {
		jobs = append(jobs, Job{
			Name:        "geoip-reload",
			Description: "Pick up an updated GeoIP country database",
			Schedule:    cfg.GeoIPSchedule,
			Run: func(context.Context) error {
				return cfg.GeoIP.Reload()
			},
		})
	}
	return jobs
}

// prune applies every retention rule, continuing past failures.
func prune(ctx context.Context, rules []Retention, events EventLogger) error {
	deleted := make(map[string]any, len(rules))
	var firstErr error
	for _, rule := range rules {
		if rule.Days < 1 || rule.Pruner == nil {
			continue
		}
		n, err := rule.Pruner.DeleteOlderThan(ctx, rule.Days)
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("pruning %s: %w", rule.Table, err)
			}
			continue
		}
		deleted[rule.Table] = n
	}

	if events != nil && len(deleted) > 0 {
		_ = events.LogSystem(ctx, model.EventLevelInfo, model.EventCategorySystem, "Old log rows pruned", deleted)
	}
	return firstErr
}

func backup(ctx context.Context, backups Backuper, events EventLogger) error {
	b, err := backups.Create(ctx)
	if err != nil {
		if events != nil {
			_ = events.LogSystem(ctx, model.EventLevelError, model.EventCategoryBackup, "Scheduled backup failed",
				map[string]any{"error": err.Error()})
		}
		return fmt.Errorf("creating backup: %w", err)
	}

	removed, err := backups.Prune()
	if err != nil {
		return fmt.Errorf("pruning backups: %w", err)
	}
	if events != nil {
		_ = events.LogSystem(ctx, model.EventLevelInfo, model.EventCategoryBackup, "Scheduled backup created",
			map[string]any{"name": b.Name, "size": b.Size, "pruned": removed})
	}
	return nil
}
