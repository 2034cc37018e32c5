package service

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"stride-sync-server/internal/domain"
	"stride-sync-server/internal/repository"
)

// Notifier receives conflict lifecycle events, e.g. to fan them out over
// websocket connections. Implementations must not block.
type Notifier interface {
	ConflictDetected(record *domain.ConflictRecord)
	ConflictResolved(record *domain.ConflictRecord)
}

// pendingWriteBack remembers which targets a failed resolution attempt has
// already committed, so a retry with the same strategy and value does not
// re-run a successful write.
type pendingWriteBack struct {
	strategy  domain.Strategy
	version   domain.Snapshot
	committed map[domain.WriteTarget]bool
}

// ConflictService owns the active and resolved conflict sets and coordinates
// detection, resolution, and write-back. All state mutations are serialized
// behind a single mutex scoped to the service instance.
type ConflictService struct {
	mu sync.Mutex

	active      []*domain.ConflictRecord
	activeByKey map[string]*domain.ConflictRecord
	resolved    []*domain.ConflictRecord
	pending     map[string]*pendingWriteBack

	localCache  repository.EntityStore
	remoteStore repository.EntityStore
	authorizer  Authorizer
	schemas     domain.SchemaRegistry
	history     repository.HistoryRepository
	notifier    Notifier

	historyCap int
}

func NewConflictService(
	localCache repository.EntityStore,
	remoteStore repository.EntityStore,
	authorizer Authorizer,
	schemas domain.SchemaRegistry,
	history repository.HistoryRepository,
	historyCap int,
) *ConflictService {
	if historyCap <= 0 {
		historyCap = 200
	}
	return &ConflictService{
		activeByKey: make(map[string]*domain.ConflictRecord),
		pending:     make(map[string]*pendingWriteBack),
		localCache:  localCache,
		remoteStore: remoteStore,
		authorizer:  authorizer,
		schemas:     schemas,
		history:     history,
		historyCap:  historyCap,
	}
}

func (s *ConflictService) SetNotifier(n Notifier) {
	s.notifier = n
}

// Report runs classification on a snapshot triple. At most one active record
// exists per entity: re-detection while a record is active returns the
// existing record unchanged.
func (s *ConflictService) Report(ctx context.Context, userID string, req *domain.ReportConflictRequest) (*domain.ConflictRecord, error) {
	authorized := true
	if s.authorizer != nil {
		ok, err := s.authorizer.IsAuthorized(ctx, userID, req.EntityType, req.EntityID, req.Local)
		if err != nil {
			return nil, err
		}
		authorized = ok
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := req.EntityType + "/" + req.EntityID
	if existing, ok := s.activeByKey[key]; ok {
		return existing.Clone(), nil
	}

	record := Classify(ClassifyInput{
		EntityType: req.EntityType,
		EntityID:   req.EntityID,
		Local:      req.Local,
		Server:     req.Server,
		Baseline:   req.Baseline,
		Authorized: authorized,
	})
	if record == nil {
		return nil, nil
	}

	s.active = append(s.active, record)
	s.activeByKey[key] = record

	if s.notifier != nil {
		s.notifier.ConflictDetected(record.Clone())
	}

	return record.Clone(), nil
}

// Resolve applies a strategy to one active conflict. The record is marked
// resolved only after write-back succeeds for every target; on partial
// failure it stays active with the failed target identified so the caller
// can retry just that leg.
func (s *ConflictService) Resolve(ctx context.Context, userID, conflictID string, strategy domain.Strategy, manual domain.Attributes) (*domain.ConflictRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.resolveLocked(ctx, userID, conflictID, strategy, manual)
}

func (s *ConflictService) resolveLocked(ctx context.Context, userID, conflictID string, strategy domain.Strategy, manual domain.Attributes) (*domain.ConflictRecord, error) {
	record := s.findActiveLocked(conflictID)
	if record == nil {
		return nil, ErrConflictNotFound
	}

	resolution, err := ApplyStrategy(record, strategy, manual, s.schemas.Schema(record.EntityType))
	if err != nil {
		record.LastError = err.Error()
		return nil, err
	}

	// A permission conflict's resolution may itself be unauthorized when it
	// applies anything beyond the server's own state.
	if record.Type == domain.ConflictTypePermission && strategy != domain.StrategyUseServer && s.authorizer != nil {
		ok, authErr := s.authorizer.IsAuthorized(ctx, userID, record.EntityType, record.EntityID, resolution.Version)
		if authErr != nil {
			record.LastError = authErr.Error()
			return nil, authErr
		}
		if !ok {
			record.LastError = ErrPermissionDenied.Error()
			return nil, ErrPermissionDenied
		}
	}

	pending := s.pending[conflictID]
	if pending == nil || pending.strategy != strategy || !pending.version.Equal(resolution.Version) {
		pending = &pendingWriteBack{
			strategy:  strategy,
			version:   resolution.Version,
			committed: make(map[domain.WriteTarget]bool),
		}
	}

	for _, target := range resolution.Targets {
		if pending.committed[target] {
			continue
		}

		// Cancellation abandons the attempt before the next commit; targets
		// that already committed stay committed.
		if err := ctx.Err(); err != nil {
			record.LastError = err.Error()
			s.pending[conflictID] = pending
			return nil, err
		}

		store := s.remoteStore
		if target == domain.TargetLocal {
			store = s.localCache
		}

		if err := store.Write(ctx, record.EntityType, record.EntityID, resolution.Version); err != nil {
			wbErr := &WriteBackError{Target: target, Err: err}
			record.LastError = wbErr.Error()
			s.pending[conflictID] = pending
			return nil, wbErr
		}
		pending.committed[target] = true
	}

	now := time.Now()
	record.ResolvedAt = &now
	record.ResolutionStrategy = strategy
	record.ResolvedVersion = resolution.Version.Attributes.Clone()
	record.LastError = ""

	s.removeActiveLocked(record)
	delete(s.pending, conflictID)
	s.pushResolvedLocked(record)

	if s.history != nil {
		if err := s.history.Append(ctx, record.Clone()); err != nil {
			log.Printf("failed to persist resolved conflict %s: %v", record.ID, err)
		}
	}

	if s.notifier != nil {
		s.notifier.ConflictResolved(record.Clone())
	}

	return record.Clone(), nil
}

// AutoResolveAll walks the active set in detection order applying the default
// policy per conflict type. Permission conflicts are never auto-resolved.
// Outcomes are independent: one failure does not abort the batch. On context
// cancellation, already-resolved entries stay resolved and the remainder is
// left unprocessed.
func (s *ConflictService) AutoResolveAll(ctx context.Context, userID string) []domain.AutoResolveOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := make([]*domain.ConflictRecord, len(s.active))
	copy(snapshot, s.active)

	var outcomes []domain.AutoResolveOutcome
	for _, record := range snapshot {
		if ctx.Err() != nil {
			break
		}

		outcome := domain.AutoResolveOutcome{
			ConflictID: record.ID,
			EntityType: record.EntityType,
			EntityID:   record.EntityID,
			Type:       record.Type,
		}

		switch record.Type {
		case domain.ConflictTypePermission:
			// Security-sensitive: always routed to a human.
			outcome.Strategy = domain.StrategyManual
			outcome.Error = "permission conflicts require manual resolution"

		case domain.ConflictTypeDelete:
			// Prefer not resurrecting deleted data.
			outcome.Strategy = domain.StrategyUseServer
			s.applyAutoLocked(ctx, userID, record, &outcome)

		case domain.ConflictTypeCreate:
			// Keep the earlier-created copy as canonical.
			outcome.Strategy = domain.StrategyUseServer
			if record.PreferredSide == domain.SideLocal {
				outcome.Strategy = domain.StrategyUseLocal
			}
			s.applyAutoLocked(ctx, userID, record, &outcome)

		default:
			outcome.Strategy = domain.StrategyMerge
			s.applyAutoLocked(ctx, userID, record, &outcome)
		}

		outcomes = append(outcomes, outcome)
	}

	return outcomes
}

func (s *ConflictService) applyAutoLocked(ctx context.Context, userID string, record *domain.ConflictRecord, outcome *domain.AutoResolveOutcome) {
	_, err := s.resolveLocked(ctx, userID, record.ID, outcome.Strategy, nil)
	if err == nil {
		outcome.Resolved = true
		return
	}

	// A non-mergeable update falls back to the server copy; every other
	// failure is surfaced as-is.
	var strategyErr *StrategyFailedError
	if outcome.Strategy == domain.StrategyMerge && errors.As(err, &strategyErr) {
		outcome.Strategy = domain.StrategyUseServer
		if _, retryErr := s.resolveLocked(ctx, userID, record.ID, domain.StrategyUseServer, nil); retryErr == nil {
			outcome.Resolved = true
			return
		} else {
			err = retryErr
		}
	}

	outcome.Error = err.Error()
}

// ActiveConflicts returns a snapshot of unresolved records in detection
// order. Callers receive deep copies, never the service's own state.
func (s *ConflictService) ActiveConflicts() []*domain.ConflictRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*domain.ConflictRecord, len(s.active))
	for i, record := range s.active {
		out[i] = record.Clone()
	}
	return out
}

// ResolvedConflicts returns the bounded resolved history, most recent first.
func (s *ConflictService) ResolvedConflicts() []*domain.ConflictRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*domain.ConflictRecord, len(s.resolved))
	for i, record := range s.resolved {
		out[i] = record.Clone()
	}
	return out
}

func (s *ConflictService) findActiveLocked(conflictID string) *domain.ConflictRecord {
	for _, record := range s.active {
		if record.ID == conflictID {
			return record
		}
	}
	return nil
}

func (s *ConflictService) removeActiveLocked(record *domain.ConflictRecord) {
	for i, r := range s.active {
		if r.ID == record.ID {
			s.active = append(s.active[:i], s.active[i+1:]...)
			break
		}
	}
	delete(s.activeByKey, record.EntityKey())
}

func (s *ConflictService) pushResolvedLocked(record *domain.ConflictRecord) {
	s.resolved = append([]*domain.ConflictRecord{record}, s.resolved...)
	if len(s.resolved) > s.historyCap {
		s.resolved = s.resolved[:s.historyCap]
	}
}
