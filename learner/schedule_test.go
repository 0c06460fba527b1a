package learner_test

import (
	"testing"

	"github.com/sw965/qdrive/learner"
)

func TestParamsFor(t *testing.T) {
	s := learner.DefaultSchedule
	tests := []struct {
		name    string
		counter int64
		want    learner.Params
	}{
		{name: "正常_開始", counter: 0, want: s[0].Params},
		{name: "正常_境界は含む", counter: 30000, want: s[0].Params},
		{name: "正常_次の段階", counter: 30001, want: s[1].Params},
		{name: "正常_学習率の低下", counter: 50001, want: s[2].Params},
		{name: "正常_最後の段階", counter: 75000, want: s[3].Params},
		{name: "正常_終了後は0", counter: 75001, want: learner.Params{}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := s.ParamsFor(tc.counter); got != tc.want {
				t.Errorf("want: %+v, got: %+v", tc.want, got)
			}
		})
	}

	if got := s[0].Params.Epsilon; got != 1.0/256 {
		t.Errorf("first stage epsilon = %v", got)
	}
	if got := s[3].Params.Epsilon; got != 0 {
		t.Errorf("last stage epsilon = %v", got)
	}
}

func TestScheduleLastBound(t *testing.T) {
	if got := learner.DefaultSchedule.LastBound(); got != 75000 {
		t.Errorf("LastBound = %d", got)
	}
	if got := (learner.Schedule{}).LastBound(); got != 0 {
		t.Errorf("empty LastBound = %d", got)
	}
	if got := (learner.Schedule{}).ParamsFor(0); got != (learner.Params{}) {
		t.Errorf("empty ParamsFor = %+v", got)
	}
}

func TestScheduleValidate(t *testing.T) {
	if err := learner.DefaultSchedule.Validate(); err != nil {
		t.Errorf("DefaultSchedule: %v", err)
	}
	bad := learner.Schedule{{UpperBound: 10}, {UpperBound: 10}}
	if err := bad.Validate(); err == nil {
		t.Errorf("want an error for non-increasing bounds")
	}
	bad = learner.Schedule{{UpperBound: 10, Params: learner.Params{Discount: 1.5}}}
	if err := bad.Validate(); err == nil {
		t.Errorf("want an error for discount 1.5")
	}
}
