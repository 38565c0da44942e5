package googletasks

import (
	"reflect"
	"testing"

	"taskledger/internal/tasklist"
)

func TestParseMarker(t *testing.T) {
	tests := []struct {
		notes  string
		wantID uint64
		wantOK bool
	}{
		{"taskledger:id=7", 7, true},
		{"bring bags\n  taskledger:id=12  \n", 12, true},
		{"taskledger:id=", 0, false},
		{"taskledger:id=x1", 0, false},
		{"just notes", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		id, ok := ParseMarker(tt.notes)
		if id != tt.wantID || ok != tt.wantOK {
			t.Errorf("ParseMarker(%q): expected (%d, %v), got (%d, %v)", tt.notes, tt.wantID, tt.wantOK, id, ok)
		}
	}
	if id, ok := ParseMarker(Marker(99)); !ok || id != 99 {
		t.Errorf("Marker(99) does not parse back: %d %v", id, ok)
	}
}

func TestPlan(t *testing.T) {
	local := []tasklist.Task{
		{ID: 0, Description: "in sync"},
		{ID: 2, Description: "done locally", Completed: true},
		{ID: 3, Description: "renamed"},
		{ID: 5, Description: "new"},
	}
	remote := []RemoteTask{
		{ID: "r0", Title: "in sync", Notes: Marker(0), Status: StatusNeedsAction},
		{ID: "r1", Title: "removed locally", Notes: Marker(1), Status: StatusNeedsAction},
		{ID: "r2", Title: "done locally", Notes: Marker(2), Status: StatusNeedsAction},
		{ID: "r3", Title: "old name", Notes: Marker(3), Status: StatusNeedsAction},
		{ID: "mine", Title: "user task", Status: StatusNeedsAction},
		{ID: "r0b", Title: "in sync", Notes: Marker(0), Status: StatusNeedsAction},
	}

	got := Plan(local, remote)
	want := []Change{
		{Kind: Patch, TaskID: 2, RemoteID: "r2", Title: "done locally", Status: StatusCompleted},
		{Kind: Patch, TaskID: 3, RemoteID: "r3", Title: "renamed", Status: StatusNeedsAction},
		{Kind: Insert, TaskID: 5, Title: "new", Status: StatusNeedsAction},
		{Kind: Delete, TaskID: 1, RemoteID: "r1"},
		{Kind: Delete, TaskID: 0, RemoteID: "r0b"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("unexpected plan\nwant: %+v\ngot:  %+v", want, got)
	}
}

func TestPlan_InSync(t *testing.T) {
	local := []tasklist.Task{{ID: 4, Description: "a", Completed: true}}
	remote := []RemoteTask{{ID: "x", Title: "a", Notes: Marker(4), Status: StatusCompleted}}
	if got := Plan(local, remote); len(got) != 0 {
		t.Errorf("expected no changes, got %+v", got)
	}
}

func TestPlan_ReopenedRemotely(t *testing.T) {
	local := []tasklist.Task{{ID: 1, Description: "a"}}
	remote := []RemoteTask{{ID: "x", Title: "a", Notes: Marker(1), Status: StatusCompleted}}
	got := Plan(local, remote)
	if len(got) != 1 || got[0].Kind != Patch || got[0].Status != StatusNeedsAction {
		t.Errorf("expected patch back to needsAction, got %+v", got)
	}
}

func TestPlan_EmptyLocalClearsMarkedOnly(t *testing.T) {
	remote := []RemoteTask{
		{ID: "a", Notes: Marker(0)},
		{ID: "b", Notes: "keep me"},
	}
	got := Plan(nil, remote)
	if len(got) != 1 || got[0].RemoteID != "a" || got[0].Kind != Delete {
		t.Errorf("expected single delete of a, got %+v", got)
	}
}
