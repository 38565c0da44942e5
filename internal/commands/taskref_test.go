package commands

import (
	"testing"
)

func TestParseTaskID(t *testing.T) {
	tests := []struct {
		args []string
		want uint64
	}{
		{[]string{"5"}, 5},
		{[]string{"#5"}, 5},
		{[]string{"0"}, 0},
		{[]string{"007"}, 7},
		{[]string{"18446744073709551615"}, 18446744073709551615},
	}
	for _, tt := range tests {
		got, err := ParseTaskID(tt.args)
		if err != nil {
			t.Errorf("ParseTaskID(%q): unexpected error: %v", tt.args, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseTaskID(%q): expected %d, got %d", tt.args, tt.want, got)
		}
	}
}

func TestParseTaskID_Required(t *testing.T) {
	_, err := ParseTaskID(nil)
	if err != ErrTaskRefRequired {
		t.Errorf("expected ErrTaskRefRequired, got %v", err)
	}
}

func TestParseTaskID_Invalid(t *testing.T) {
	tests := []struct {
		args    []string
		wantMsg string
	}{
		{[]string{"a1"}, "invalid task id: a1"},
		{[]string{"#"}, "invalid task id: #"},
		{[]string{"##3"}, "invalid task id: ##3"},
		{[]string{"-1"}, "invalid task id: -1"},
		{[]string{"1.5"}, "invalid task id: 1.5"},
		{[]string{"18446744073709551616"}, "invalid task id: 18446744073709551616"},
		{[]string{"1", "2"}, "too many arguments: 2"},
	}
	for _, tt := range tests {
		_, err := ParseTaskID(tt.args)
		if err == nil {
			t.Errorf("ParseTaskID(%q): expected error", tt.args)
			continue
		}
		if err.Error() != tt.wantMsg {
			t.Errorf("ParseTaskID(%q): expected %q, got %q", tt.args, tt.wantMsg, err.Error())
		}
	}
}

func TestIsAllDigits(t *testing.T) {
	tests := map[string]bool{
		"":     false,
		"123":  true,
		"12a":  false,
		"١٢٣": false,
	}
	for in, want := range tests {
		if got := isAllDigits(in); got != want {
			t.Errorf("isAllDigits(%q): expected %v, got %v", in, want, got)
		}
	}
}
