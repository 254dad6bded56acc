package approval

import (
	"testing"
	"time"

	"github.com/Chatblanccc/PersonnelManagement/internal/errs"
	"github.com/Chatblanccc/PersonnelManagement/internal/models"
)

func TestList_IdentityScope(t *testing.T) {
	f := newFixture(t)
	tasks := f.newRecord(t, "r-1", "Chen Jie", "Math")
	f.newRecord(t, "r-2", "Liu Yang", "Physics")
	if _, err := Approve(f.db, f.cat, tasks["a"].ID, admin, ""); err != nil {
		t.Fatalf("Approve: %v", err)
	}

	tests := []struct {
		identity string
		dormant  bool
		want     int
	}{
		{"Zhang Wei", false, 2}, // owns a of both records
		{"Li Na", false, 3},     // assistant on both a tasks, owner of r-1/b
		{"Li", false, 0},        // partial names never match
		{"Wang Fang", false, 0}, // c is dormant everywhere
		{"Wang Fang", true, 2},
		{"Nobody", true, 0},
	}
	for _, tt := range tests {
		got, total, err := List(f.db, f.cat, ListFilters{Identity: tt.identity, IncludeDormant: tt.dormant}, 1, 50)
		if err != nil {
			t.Fatalf("List(%s): %v", tt.identity, err)
		}
		if int(total) != tt.want || len(got) != tt.want {
			t.Errorf("List(%s, dormant=%v) = %d (total %d), want %d", tt.identity, tt.dormant, len(got), total, tt.want)
		}
		for _, task := range got {
			if !CanOperate(&task, Actor{Name: tt.identity}) {
				t.Errorf("List(%s) returned task %s owned by %q", tt.identity, task.ID, task.Owner)
			}
		}
	}
}

func TestList_Filters(t *testing.T) {
	f := newFixture(t)
	f.newRecord(t, "r-1", "Chen Jie", "Math")
	f.newRecord(t, "r-2", "Liu Yang", "Physics")

	tests := []struct {
		name    string
		filters ListFilters
		want    int
	}{
		{"keyword name case-insensitive", ListFilters{Keyword: "chen"}, 1},
		{"keyword group", ListFilters{Keyword: "PHYS"}, 1},
		{"keyword owner", ListFilters{Keyword: "zhang"}, 2},
		{"keyword no match", ListFilters{Keyword: "biology"}, 0},
		{"status pending", ListFilters{Status: StatusPending}, 2},
		{"status completed", ListFilters{Status: StatusCompleted}, 0},
		{"stage a", ListFilters{Stage: "a"}, 2},
		{"stage b gated", ListFilters{Stage: "b"}, 0},
		{"stage b dormant view", ListFilters{Stage: "b", IncludeDormant: true}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, total, err := List(f.db, f.cat, tt.filters, 1, 20)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if int(total) != tt.want {
				t.Errorf("total = %d, want %d", total, tt.want)
			}
		})
	}
}

func TestList_SortAndPaging(t *testing.T) {
	db := testDB(t)
	cat := seedCatalog(t, db, []models.Stage{{Key: "a", Name: "A", OrderIndex: 1, IsActive: true}})
	due := day(2026, 6, 1)
	rows := []models.ApprovalTask{
		{ID: "late", SubjectName: "s", StageKey: "a", Status: StatusPending, Priority: PriorityHigh, Owner: "o", DueDate: due.AddDate(0, 0, 2)},
		{ID: "low", SubjectName: "s", StageKey: "a", Status: StatusPending, Priority: PriorityLow, Owner: "o", DueDate: due},
		{ID: "high", SubjectName: "s", StageKey: "a", Status: StatusPending, Priority: PriorityHigh, Owner: "o", DueDate: due},
		{ID: "medium", SubjectName: "s", StageKey: "a", Status: StatusPending, Priority: PriorityMedium, Owner: "o", DueDate: due},
	}
	for i := range rows {
		if err := db.Create(&rows[i]).Error; err != nil {
			t.Fatalf("create task: %v", err)
		}
	}

	want := []string{"high", "medium", "low", "late"}
	got, total, err := List(db, cat, ListFilters{}, 1, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 4 {
		t.Errorf("total = %d, want 4", total)
	}
	for i := range want {
		if got[i].ID != want[i] {
			t.Errorf("position %d = %s, want %s", i, got[i].ID, want[i])
		}
	}

	page2, total, err := List(db, cat, ListFilters{}, 2, 3)
	if err != nil {
		t.Fatalf("List page 2: %v", err)
	}
	if total != 4 || len(page2) != 1 || page2[0].ID != "late" {
		t.Errorf("page 2 = %d tasks (total %d), want [late]", len(page2), total)
	}

	beyond, _, err := List(db, cat, ListFilters{}, 5, 3)
	if err != nil {
		t.Fatalf("List beyond: %v", err)
	}
	if len(beyond) != 0 {
		t.Errorf("page beyond end = %d tasks, want 0", len(beyond))
	}
}

func TestList_AttachesDetails(t *testing.T) {
	f := newFixture(t)
	f.newRecord(t, "r-1", "Chen Jie", "Math")

	got, _, err := List(f.db, f.cat, ListFilters{}, 1, 20)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	if names := got[0].AssigneeNames(); len(names) != 2 || names[0] != "Zhang Wei" {
		t.Errorf("assignees = %v", names)
	}
	if len(got[0].CheckItems) != 2 {
		t.Errorf("check items = %d, want 2", len(got[0].CheckItems))
	}
}

func TestOverview(t *testing.T) {
	f := newFixture(t)
	r1 := f.newRecord(t, "r-1", "Chen Jie", "Math")
	r2 := f.newRecord(t, "r-2", "Liu Yang", "Physics")
	if _, err := Approve(f.db, f.cat, r1["a"].ID, admin, ""); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if _, err := Return(f.db, f.cat, r2["a"].ID, admin, ""); err != nil {
		t.Fatalf("Return: %v", err)
	}

	c, err := Overview(f.db, f.cat, "")
	if err != nil {
		t.Fatalf("Overview: %v", err)
	}
	// r-1: a completed, b pending (active), c dormant. r-2: a returned, rest dormant.
	want := Counts{Pending: 1, Completed: 1, Returned: 1}
	if c != want {
		t.Errorf("Overview = %+v, want %+v", c, want)
	}

	scoped, err := Overview(f.db, f.cat, "Li Na")
	if err != nil {
		t.Fatalf("Overview scoped: %v", err)
	}
	// Li Na owns r-1/b and assists on both a tasks.
	if scoped != (Counts{Pending: 1, Completed: 1, Returned: 1}) {
		t.Errorf("Overview(Li Na) = %+v", scoped)
	}

	none, err := Overview(f.db, f.cat, "Wang Fang")
	if err != nil {
		t.Fatalf("Overview none: %v", err)
	}
	if none != (Counts{}) {
		t.Errorf("Overview(Wang Fang) = %+v, want zero", none)
	}
}

func TestStageSummary(t *testing.T) {
	f := newFixture(t)
	r1 := f.newRecord(t, "r-1", "Chen Jie", "Math") // a due 2026-03-03, b due 2026-03-04
	f.newRecord(t, "r-2", "Liu Yang", "Physics")
	if _, err := Approve(f.db, f.cat, r1["a"].ID, admin, ""); err != nil {
		t.Fatalf("Approve: %v", err)
	}

	summary, err := StageSummary(f.db, f.cat, "", time.Date(2026, 3, 4, 15, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("StageSummary: %v", err)
	}
	want := []StageCount{
		{Stage: "a", Total: 2, Pending: 1, Completed: 1, Overdue: 2},
		{Stage: "b", Total: 1, Pending: 1, Overdue: 0},
	}
	if len(summary) != len(want) {
		t.Fatalf("summary = %+v, want %+v", summary, want)
	}
	for i := range want {
		if summary[i] != want[i] {
			t.Errorf("summary[%d] = %+v, want %+v", i, summary[i], want[i])
		}
	}
}

func TestHistory_NotFound(t *testing.T) {
	f := newFixture(t)
	_, err := History(f.db, "missing")
	if !errs.Is(err, errs.KindNotFound) {
		t.Errorf("err = %v, want NotFound", err)
	}
}

func TestForRecord(t *testing.T) {
	f := newFixture(t)
	f.newRecord(t, "r-1", "Chen Jie", "Math")
	f.newRecord(t, "r-2", "Liu Yang", "Physics")

	got, err := ForRecord(f.db, f.cat, "r-1")
	if err != nil {
		t.Fatalf("ForRecord: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	for i, key := range []string{"a", "b", "c"} {
		if got[i].StageKey != key {
			t.Errorf("got[%d].StageKey = %q, want %q", i, got[i].StageKey, key)
		}
	}
	if len(got[0].CheckItems) != 2 || len(got[0].Assignees) != 2 {
		t.Errorf("details not attached: %+v", got[0])
	}

	none, err := ForRecord(f.db, f.cat, "missing")
	if err != nil || len(none) != 0 {
		t.Errorf("ForRecord(missing) = %v, %v", none, err)
	}
}
