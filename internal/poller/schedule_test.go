package poller

import (
	"testing"
	"time"
)

var testTimings = Timings{
	Grace:    3 * time.Minute,
	Interval: 30 * time.Second,
	Budget:   8 * time.Minute,
}

func TestDecideWaitsOutGracePeriod(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	d := testTimings.Decide(t0, time.Time{}, t0)
	if d.Action != ActionWait || d.Wait != 3*time.Minute {
		t.Fatalf("Decide at T0 = %+v, want wait 3m", d)
	}

	d = testTimings.Decide(t0, time.Time{}, t0.Add(2*time.Minute))
	if d.Action != ActionWait || d.Wait != time.Minute {
		t.Fatalf("Decide at T0+2m = %+v, want wait 1m", d)
	}

	// First poll is allowed exactly at the grace boundary, not before.
	d = testTimings.Decide(t0, time.Time{}, t0.Add(3*time.Minute-time.Nanosecond))
	if d.Action != ActionWait {
		t.Fatalf("Decide just before grace end = %+v, want wait", d)
	}
	d = testTimings.Decide(t0, time.Time{}, t0.Add(3*time.Minute))
	if d.Action != ActionPoll {
		t.Fatalf("Decide at grace end = %+v, want poll", d)
	}
}

func TestDecideFixedInterval(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	lastPoll := t0.Add(4 * time.Minute)

	d := testTimings.Decide(t0, lastPoll, lastPoll.Add(10*time.Second))
	if d.Action != ActionWait || d.Wait != 20*time.Second {
		t.Fatalf("Decide mid-interval = %+v, want wait 20s", d)
	}
	d = testTimings.Decide(t0, lastPoll, lastPoll.Add(30*time.Second))
	if d.Action != ActionPoll {
		t.Fatalf("Decide at interval = %+v, want poll", d)
	}
}

func TestDecideTimeoutBoundary(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	d := testTimings.Decide(t0, t0.Add(7*time.Minute+50*time.Second), t0.Add(8*time.Minute-time.Nanosecond))
	if d.Action == ActionStop {
		t.Fatal("Decide just before budget must not stop")
	}
	d = testTimings.Decide(t0, t0.Add(7*time.Minute+30*time.Second), t0.Add(8*time.Minute))
	if d.Action != ActionStop {
		t.Fatalf("Decide at budget = %+v, want stop", d)
	}
}

func TestDecideNeverSleepsPastDeadline(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	// Last poll 10s before the deadline: the next interval would end
	// 20s past it.
	lastPoll := t0.Add(8*time.Minute - 10*time.Second)
	now := lastPoll.Add(time.Second)

	d := testTimings.Decide(t0, lastPoll, now)
	if d.Action != ActionWait {
		t.Fatalf("Decide = %+v, want wait", d)
	}
	if now.Add(d.Wait).After(t0.Add(8 * time.Minute)) {
		t.Fatalf("wait %s sleeps past the budget deadline", d.Wait)
	}
}

func TestDecideResumeAfterRestartKeepsOriginalDeadline(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	// Process restarted at T0+5m: lastPoll is zero again, but the
	// budget still runs out at T0+8m, not T0+13m.
	restart := t0.Add(5 * time.Minute)

	d := testTimings.Decide(t0, time.Time{}, restart)
	if d.Action != ActionPoll {
		t.Fatalf("Decide at restart = %+v, want immediate poll (grace already served)", d)
	}
	d = testTimings.Decide(t0, restart, t0.Add(8*time.Minute))
	if d.Action != ActionStop {
		t.Fatalf("Decide at original deadline = %+v, want stop", d)
	}
}
