package domain

// Snapshot is one side's view of an entity at detection time: present with a
// body, explicitly deleted, or never seen (no baseline after an offline create).
type Snapshot struct {
	Attributes Attributes `json:"attributes,omitempty"`
	Tombstone  bool       `json:"tombstone,omitempty"`
	Missing    bool       `json:"missing,omitempty"`
}

func PresentSnapshot(attrs Attributes) Snapshot {
	return Snapshot{Attributes: attrs}
}

func TombstoneSnapshot() Snapshot {
	return Snapshot{Tombstone: true}
}

func MissingSnapshot() Snapshot {
	return Snapshot{Missing: true}
}

// Exists reports whether this side holds a live copy of the entity.
func (s Snapshot) Exists() bool {
	return !s.Tombstone && !s.Missing
}

// Gone reports whether this side has no live copy, by deletion or absence.
func (s Snapshot) Gone() bool {
	return s.Tombstone || s.Missing
}

func (s Snapshot) Equal(other Snapshot) bool {
	if s.Gone() || other.Gone() {
		return s.Gone() == other.Gone()
	}
	return s.Attributes.Equal(other.Attributes)
}

func (s Snapshot) Clone() Snapshot {
	return Snapshot{
		Attributes: s.Attributes.Clone(),
		Tombstone:  s.Tombstone,
		Missing:    s.Missing,
	}
}
