package domain

import "time"

type ConflictType string

const (
	ConflictTypeUpdate     ConflictType = "update"
	ConflictTypeDelete     ConflictType = "delete"
	ConflictTypeCreate     ConflictType = "create"
	ConflictTypePermission ConflictType = "permission"
)

type Strategy string

const (
	StrategyUseLocal  Strategy = "useLocal"
	StrategyUseServer Strategy = "useServer"
	StrategyMerge     Strategy = "merge"
	StrategyManual    Strategy = "manual"
)

func (s Strategy) Valid() bool {
	switch s {
	case StrategyUseLocal, StrategyUseServer, StrategyMerge, StrategyManual:
		return true
	default:
		return false
	}
}

// WriteTarget names a write-back destination for a resolved version.
type WriteTarget string

const (
	TargetLocal  WriteTarget = "local"
	TargetServer WriteTarget = "server"
)

// Side marks which copy of a create conflict is preferred as canonical.
type Side string

const (
	SideLocal  Side = "local"
	SideServer Side = "server"
)

// ConflictRecord describes a single divergence between the local and server
// copies of one entity. Immutable once detected; resolution fields are set
// exactly once, by the service, when resolution commits.
type ConflictRecord struct {
	ID         string       `json:"id"`
	EntityType string       `json:"entity_type"`
	EntityID   string       `json:"entity_id"`
	Type       ConflictType `json:"type"`

	LocalVersion    Snapshot  `json:"local_version"`
	ServerVersion   Snapshot  `json:"server_version"`
	BaselineVersion *Snapshot `json:"baseline_version,omitempty"`

	// PreferredSide is set for create conflicts: the copy with the earlier
	// createdAt is the canonical candidate shown to the user.
	PreferredSide Side `json:"preferred_side,omitempty"`

	DetectedAt time.Time `json:"detected_at"`

	ResolvedAt         *time.Time `json:"resolved_at,omitempty"`
	ResolutionStrategy Strategy   `json:"resolution_strategy,omitempty"`
	ResolvedVersion    Attributes `json:"resolved_version,omitempty"`

	// LastError carries the most recent failed resolution attempt for
	// display. Cleared when resolution commits.
	LastError string `json:"last_error,omitempty"`
}

// Active reports whether the record still awaits resolution.
func (c *ConflictRecord) Active() bool {
	return c.ResolvedAt == nil
}

// EntityKey identifies the logical entity a record is about.
func (c *ConflictRecord) EntityKey() string {
	return c.EntityType + "/" + c.EntityID
}

func (c *ConflictRecord) Clone() *ConflictRecord {
	cloned := *c
	cloned.LocalVersion = c.LocalVersion.Clone()
	cloned.ServerVersion = c.ServerVersion.Clone()
	if c.BaselineVersion != nil {
		b := c.BaselineVersion.Clone()
		cloned.BaselineVersion = &b
	}
	cloned.ResolvedVersion = c.ResolvedVersion.Clone()
	if c.ResolvedAt != nil {
		t := *c.ResolvedAt
		cloned.ResolvedAt = &t
	}
	return &cloned
}

type ReportConflictRequest struct {
	EntityType string    `json:"entity_type" validate:"required"`
	EntityID   string    `json:"entity_id" validate:"required"`
	Local      Snapshot  `json:"local"`
	Server     Snapshot  `json:"server"`
	Baseline   *Snapshot `json:"baseline,omitempty"`
}

type ResolveConflictRequest struct {
	Strategy Strategy   `json:"strategy" validate:"required,oneof=useLocal useServer merge manual"`
	Manual   Attributes `json:"manual,omitempty"`
}

// AutoResolveOutcome reports one entry of a batch auto-resolution pass.
type AutoResolveOutcome struct {
	ConflictID string       `json:"conflict_id"`
	EntityType string       `json:"entity_type"`
	EntityID   string       `json:"entity_id"`
	Type       ConflictType `json:"type"`
	Strategy   Strategy     `json:"strategy,omitempty"`
	Resolved   bool         `json:"resolved"`
	Error      string       `json:"error,omitempty"`
}
