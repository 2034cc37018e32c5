package service

import (
	"testing"

	"stride-sync-server/internal/domain"
)

var goalSchema = domain.EntitySchema{
	EntityType: "Goal",
	Mergeable:  []string{"title", "description", "tags", "progress"},
	Required:   []string{"title"},
}

func TestMerge_DisjointChanges(t *testing.T) {
	baseline := attrs(map[string]domain.Value{
		"title":    domain.String("run"),
		"progress": domain.Number(40),
	})
	local := attrs(map[string]domain.Value{
		"title":    domain.String("run far"),
		"progress": domain.Number(40),
	})
	server := attrs(map[string]domain.Value{
		"title":    domain.String("run"),
		"progress": domain.Number(70),
	})

	result := Merge(local, server, baseline, goalSchema)
	if !result.OK() {
		t.Fatalf("expected merge to succeed, unmergeable: %v", result.Unmergeable)
	}

	if got := result.Merged["title"]; !got.Equal(domain.String("run far")) {
		t.Errorf("expected local title change, got %+v", got)
	}
	if got := result.Merged["progress"]; !got.Equal(domain.Number(70)) {
		t.Errorf("expected server progress change, got %+v", got)
	}
}

func TestMerge_ConvergentChange(t *testing.T) {
	baseline := attrs(map[string]domain.Value{"title": domain.String("run")})
	local := attrs(map[string]domain.Value{"title": domain.String("sprint")})
	server := attrs(map[string]domain.Value{"title": domain.String("sprint")})

	result := Merge(local, server, baseline, goalSchema)
	if !result.OK() {
		t.Fatalf("expected merge to succeed, unmergeable: %v", result.Unmergeable)
	}
	if got := result.Merged["title"]; !got.Equal(domain.String("sprint")) {
		t.Errorf("expected converged value, got %+v", got)
	}
}

func TestMerge_ConflictingStringsUnmergeable(t *testing.T) {
	baseline := attrs(map[string]domain.Value{"title": domain.String("run")})
	local := attrs(map[string]domain.Value{"title": domain.String("sprint")})
	server := attrs(map[string]domain.Value{"title": domain.String("jog")})

	result := Merge(local, server, baseline, goalSchema)
	if result.OK() {
		t.Fatal("expected unmergeable result")
	}
	if len(result.Unmergeable) != 1 || result.Unmergeable[0] != "title" {
		t.Errorf("expected [title] unmergeable, got %v", result.Unmergeable)
	}
}

func TestMerge_NonMergeableFieldAlwaysConflicts(t *testing.T) {
	baseline := attrs(map[string]domain.Value{"totalSpent": domain.Number(100)})
	local := attrs(map[string]domain.Value{"totalSpent": domain.Number(150)})
	server := attrs(map[string]domain.Value{"totalSpent": domain.Number(120)})

	result := Merge(local, server, baseline, goalSchema)
	if result.OK() {
		t.Fatal("expected derived field to stay unmergeable")
	}
	if result.Unmergeable[0] != "totalSpent" {
		t.Errorf("expected [totalSpent], got %v", result.Unmergeable)
	}
}

func TestMerge_NumericLastWriterWins(t *testing.T) {
	baseline := attrs(map[string]domain.Value{
		"progress":  domain.Number(40),
		"updatedAt": domain.String("2026-02-01T00:00:00Z"),
	})
	local := attrs(map[string]domain.Value{
		"progress":  domain.Number(55),
		"updatedAt": domain.String("2026-02-03T00:00:00Z"),
	})
	server := attrs(map[string]domain.Value{
		"progress":  domain.Number(70),
		"updatedAt": domain.String("2026-02-02T00:00:00Z"),
	})

	result := Merge(local, server, baseline, goalSchema)
	if !result.OK() {
		t.Fatalf("expected merge to succeed, unmergeable: %v", result.Unmergeable)
	}
	if got := result.Merged["progress"]; !got.Equal(domain.Number(55)) {
		t.Errorf("expected later local write to win, got %+v", got)
	}
	if got := result.Merged["updatedAt"]; !got.Equal(domain.String("2026-02-03T00:00:00Z")) {
		t.Errorf("expected later timestamp kept, got %+v", got)
	}
}

func TestMerge_NumericWithoutTimestampsUnmergeable(t *testing.T) {
	baseline := attrs(map[string]domain.Value{"progress": domain.Number(40)})
	local := attrs(map[string]domain.Value{"progress": domain.Number(55)})
	server := attrs(map[string]domain.Value{"progress": domain.Number(70)})

	result := Merge(local, server, baseline, goalSchema)
	if result.OK() {
		t.Fatal("expected unmergeable result without updatedAt on both sides")
	}
}

func TestMerge_ListUnion(t *testing.T) {
	baseline := attrs(map[string]domain.Value{
		"tags": domain.List(domain.String("health")),
	})
	local := attrs(map[string]domain.Value{
		"tags": domain.List(domain.String("health"), domain.String("running")),
	})
	server := attrs(map[string]domain.Value{
		"tags": domain.List(domain.String("health"), domain.String("outdoors")),
	})

	result := Merge(local, server, baseline, goalSchema)
	if !result.OK() {
		t.Fatalf("expected merge to succeed, unmergeable: %v", result.Unmergeable)
	}

	got := result.Merged["tags"]
	want := []string{"health", "running", "outdoors"}
	if len(got.List) != len(want) {
		t.Fatalf("expected %d tags, got %d", len(want), len(got.List))
	}
	for i, w := range want {
		if !got.List[i].Equal(domain.String(w)) {
			t.Errorf("tag %d: expected %q, got %+v", i, w, got.List[i])
		}
	}
}

func TestMerge_FieldDeletion(t *testing.T) {
	baseline := attrs(map[string]domain.Value{
		"title":       domain.String("run"),
		"description": domain.String("old notes"),
	})
	local := attrs(map[string]domain.Value{
		"title": domain.String("run"),
	})
	server := attrs(map[string]domain.Value{
		"title":       domain.String("run far"),
		"description": domain.String("old notes"),
	})

	result := Merge(local, server, baseline, goalSchema)
	if !result.OK() {
		t.Fatalf("expected merge to succeed, unmergeable: %v", result.Unmergeable)
	}
	if _, ok := result.Merged["description"]; ok {
		t.Error("expected locally deleted field to stay deleted")
	}
	if got := result.Merged["title"]; !got.Equal(domain.String("run far")) {
		t.Errorf("expected server title change, got %+v", got)
	}
}

func TestMerge_Deterministic(t *testing.T) {
	baseline := attrs(map[string]domain.Value{"title": domain.String("run"), "progress": domain.Number(1)})
	local := attrs(map[string]domain.Value{"title": domain.String("a"), "progress": domain.Number(2)})
	server := attrs(map[string]domain.Value{"title": domain.String("b"), "progress": domain.Number(3)})

	first := Merge(local, server, baseline, goalSchema)
	for i := 0; i < 10; i++ {
		again := Merge(local, server, baseline, goalSchema)
		if first.OK() != again.OK() {
			t.Fatal("merge result flipped between calls")
		}
		if len(first.Unmergeable) != len(again.Unmergeable) {
			t.Fatalf("unmergeable set changed: %v vs %v", first.Unmergeable, again.Unmergeable)
		}
		for j := range first.Unmergeable {
			if first.Unmergeable[j] != again.Unmergeable[j] {
				t.Fatalf("unmergeable order changed: %v vs %v", first.Unmergeable, again.Unmergeable)
			}
		}
	}
}
