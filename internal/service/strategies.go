package service

import (
	"fmt"

	"stride-sync-server/internal/domain"
)

// Resolution is the pure outcome of applying a strategy to a conflict: the
// version to persist and the destinations it must reach before the record
// may be marked resolved.
type Resolution struct {
	Version domain.Snapshot
	Targets []domain.WriteTarget
}

// ApplyStrategy maps a conflict record and a strategy to a resolution.
// No I/O: write-back is the service's job.
func ApplyStrategy(rec *domain.ConflictRecord, strategy domain.Strategy, manual domain.Attributes, schema domain.EntitySchema) (Resolution, error) {
	switch strategy {
	case domain.StrategyUseLocal:
		// The local cache already holds this value; only the server needs it.
		return Resolution{
			Version: rec.LocalVersion.Clone(),
			Targets: []domain.WriteTarget{domain.TargetServer},
		}, nil

	case domain.StrategyUseServer:
		return Resolution{
			Version: rec.ServerVersion.Clone(),
			Targets: []domain.WriteTarget{domain.TargetLocal},
		}, nil

	case domain.StrategyMerge:
		if rec.LocalVersion.Gone() || rec.ServerVersion.Gone() {
			return Resolution{}, &StrategyFailedError{}
		}

		var baseline domain.Attributes
		if rec.BaselineVersion != nil {
			baseline = rec.BaselineVersion.Attributes
		}

		result := Merge(rec.LocalVersion.Attributes, rec.ServerVersion.Attributes, baseline, schema)
		if !result.OK() {
			return Resolution{}, &StrategyFailedError{Fields: result.Unmergeable}
		}

		return Resolution{
			Version: domain.PresentSnapshot(result.Merged),
			Targets: []domain.WriteTarget{domain.TargetLocal, domain.TargetServer},
		}, nil

	case domain.StrategyManual:
		if missing := schema.MissingRequired(manual); len(missing) > 0 {
			return Resolution{}, &ValidationError{Missing: missing}
		}

		return Resolution{
			Version: domain.PresentSnapshot(manual.Clone()),
			Targets: []domain.WriteTarget{domain.TargetLocal, domain.TargetServer},
		}, nil

	default:
		return Resolution{}, fmt.Errorf("unknown resolution strategy: %s", strategy)
	}
}
