package eventlog

import "testing"

func TestBoundedCapacityEvictsOldest(t *testing.T) {
	l := New(3)
	for i := 0; i < 5; i++ {
		l.Emit(float64(i), Info, "k", "event %d", i)
	}
	got := l.Events()
	if len(got) != 3 {
		t.Fatalf("expected 3 retained events, got %d", len(got))
	}
	if got[0].Seq != 2 || got[2].Seq != 4 {
		t.Errorf("wrong window: first seq %d, last seq %d", got[0].Seq, got[2].Seq)
	}
	if l.Count(Info) != 5 {
		t.Errorf("severity count should include evicted events, got %d", l.Count(Info))
	}
}

func TestEmitLimitedSuppressesWithinInterval(t *testing.T) {
	l := New(16)
	if !l.EmitLimited(0, 60, Warning, "solver_no_converge", "first") {
		t.Fatal("first emission must pass")
	}
	if l.EmitLimited(30, 60, Warning, "solver_no_converge", "suppressed") {
		t.Error("emission inside the interval must be suppressed")
	}
	if !l.EmitLimited(61, 60, Warning, "solver_no_converge", "second") {
		t.Error("emission after the interval must pass")
	}
	l.EmitLimited(61, 60, Warning, "other_key", "independent")
	if len(l.Events()) != 3 {
		t.Errorf("keys must rate-limit independently, got %d events", len(l.Events()))
	}
}

func TestTail(t *testing.T) {
	l := New(10)
	for i := 0; i < 6; i++ {
		l.Emit(float64(i), Alarm, "k", "e%d", i)
	}
	tail := l.Tail(2)
	if len(tail) != 2 || tail[1].Seq != 5 {
		t.Errorf("tail wrong: %+v", tail)
	}
}
