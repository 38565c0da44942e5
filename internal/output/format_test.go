package output

import (
	"bytes"
	"testing"

	"taskledger/internal/tasklist"
)

func TestFormatter_Task(t *testing.T) {
	tests := []struct {
		name string
		task tasklist.Task
		want string
	}{
		{"open", tasklist.Task{ID: 3, Description: "buy milk"}, "#3    [ ] buy milk\n"},
		{"completed", tasklist.Task{ID: 12, Description: "call mom", Completed: true}, "#12   [x] call mom\n"},
		{"wide id", tasklist.Task{ID: 123456, Description: "x"}, "#123456 [ ] x\n"},
		{"empty", tasklist.Task{ID: 0}, "#0    [ ] (untitled)\n"},
		{"newlines", tasklist.Task{ID: 1, Description: "a\nb\r\nc"}, "#1    [ ] a b  c\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			New(&buf).Task(tt.task)
			if got := buf.String(); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestFormatter_Summary(t *testing.T) {
	l := tasklist.TaskList{
		TaskCount: 5,
		Tasks: []tasklist.Task{
			{ID: 1, Description: "a"},
			{ID: 3, Description: "b", Completed: true},
			{ID: 4, Description: "c"},
		},
	}
	var buf bytes.Buffer
	New(&buf).Summary(l)
	want := "2 open, 1 done, 3/40 slots used\n"
	if got := buf.String(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}
