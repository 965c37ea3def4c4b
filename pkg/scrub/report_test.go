package scrub

import (
	"strings"
	"testing"
	"time"

	"mercator-hq/relayscrub/pkg/types"
)

func TestReport_String(t *testing.T) {
	r := &Report{
		Project:       "acme",
		ConfigVersion: "3f2a",
		Remarks: []RemarkCount{
			{RuleID: "@email", Kind: types.RemarkReplace, Count: 2},
		},
		Errors:   map[types.ErrorKind]int{types.ErrorValueTooLong: 1},
		Duration: 1500 * time.Microsecond,
	}

	got := r.String()
	for _, want := range []string{
		"event - (project acme, config 3f2a): 2 remark(s), 1 error(s) in 1.5ms",
		"@email",
		"value_too_long",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("String() = %q, want it to contain %q", got, want)
		}
	}
}

func TestReport_Totals(t *testing.T) {
	r := &Report{
		Remarks: []RemarkCount{
			{RuleID: "a", Kind: types.RemarkReplace, Count: 2},
			{RuleID: "b", Kind: types.RemarkRemove, Count: 3},
		},
		Errors: map[types.ErrorKind]int{types.ErrorValueTooLong: 1, types.ErrorTooDeep: 2},
	}
	if got := r.TotalRemarks(); got != 5 {
		t.Errorf("TotalRemarks() = %d, want 5", got)
	}
	if got := r.TotalErrors(); got != 3 {
		t.Errorf("TotalErrors() = %d, want 3", got)
	}
}
