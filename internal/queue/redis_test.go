package queue

import (
	"errors"
	"testing"
)

func TestIsBusyGroupErr(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"server string", errors.New("BUSYGROUP Consumer Group name already exists"), true},
		{"lowercase wrapped", errors.New("xgroup create: busygroup consumer group name already exists"), true},
		{"other error", errors.New("NOGROUP No such consumer group"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := isBusyGroupErr(tc.err); got != tc.want {
				t.Fatalf("isBusyGroupErr(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}
