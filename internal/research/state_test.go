package research

import (
	"errors"
	"testing"
)

func TestStateTransitions(t *testing.T) {
	tests := []struct {
		from, to State
		want     bool
	}{
		{StateInit, StatePlanning, true},
		{StatePlanning, StateSearching, true},
		{StatePlanning, StateFailed, true},
		{StateSearching, StateWriting, true},
		{StateSearching, StateFailed, false},
		{StateSearching, StateCanceled, true},
		{StateWriting, StateFailed, true},
		{StateNotifying, StateDone, true},
		{StateDone, StateFailed, false},
		{StateInit, StateWriting, false},
	}
	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
	for _, s := range []State{StateDone, StateFailed, StateCanceled} {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
}

func TestFailureWithoutErrorIsStillFailed(t *testing.T) {
	item := SearchPlanItem{Query: "q"}
	outcome := Failure(item, nil)
	if outcome.OK() || !errors.Is(outcome.Err, ErrSearchTask) {
		t.Fatalf("expected failed outcome, got %+v", outcome)
	}
	if !Success(item, "text").OK() {
		t.Fatal("expected success outcome")
	}
}

func TestSearchPlanCloneIsIndependent(t *testing.T) {
	plan := SearchPlan{Searches: []SearchPlanItem{{Query: "a"}}}
	clone := plan.clone()
	plan.Searches[0].Query = "mutated"
	if clone.Searches[0].Query != "a" {
		t.Fatal("clone shares backing array with source plan")
	}
}
