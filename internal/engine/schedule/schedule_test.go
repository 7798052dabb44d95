package schedule

import (
	"errors"
	"testing"
	"time"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func at(ms int) time.Time {
	return epoch.Add(time.Duration(ms) * time.Millisecond)
}

func TestAfterRunsOnce(t *testing.T) {
	s := New(epoch)
	calls := 0
	task, err := s.After(200*time.Millisecond, func() { calls++ })
	if err != nil {
		t.Fatalf("After: %v", err)
	}

	if n := s.Advance(at(199)); n != 0 || calls != 0 {
		t.Fatalf("ran early: n=%d calls=%d", n, calls)
	}
	s.Advance(at(200))
	s.Advance(at(5000))

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if task.Active() {
		t.Error("one-shot task still active after running")
	}
	if s.Pending() != 0 {
		t.Errorf("pending = %d, want 0", s.Pending())
	}
}

func TestEveryCatchesUp(t *testing.T) {
	s := New(epoch)
	var times []time.Time
	if _, err := s.Every(time.Second, func() { times = append(times, s.Now()) }); err != nil {
		t.Fatalf("Every: %v", err)
	}

	s.Advance(at(3500))

	if len(times) != 3 {
		t.Fatalf("ran %d times, want 3", len(times))
	}
	for i, got := range times {
		if want := at((i + 1) * 1000); !got.Equal(want) {
			t.Errorf("run %d at %v, want %v", i, got, want)
		}
	}
}

func TestNestedAfterUsesTaskClock(t *testing.T) {
	s := New(epoch)
	var order []string
	_, _ = s.Every(time.Second, func() {
		order = append(order, "pulse")
		_, _ = s.After(200*time.Millisecond, func() { order = append(order, "restore") })
	})

	s.Advance(at(2100))

	want := []string{"pulse", "restore", "pulse"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
	if s.Pending() != 2 {
		t.Errorf("pending = %d, want interval + restore", s.Pending())
	}
}

func TestCancel(t *testing.T) {
	s := New(epoch)
	calls := 0
	task, _ := s.Every(100*time.Millisecond, func() { calls++ })

	s.Advance(at(250))
	task.Cancel()
	task.Cancel()
	s.Advance(at(1000))

	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
	if task.Active() {
		t.Error("cancelled task reports active")
	}
}

func TestCancelFromCallback(t *testing.T) {
	s := New(epoch)
	calls := 0
	var task *Task
	task, _ = s.Every(100*time.Millisecond, func() {
		calls++
		task.Cancel()
	})

	s.Advance(at(1000))

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestTiesRunInScheduleOrder(t *testing.T) {
	s := New(epoch)
	var order []int
	for i := 0; i < 4; i++ {
		i := i
		_, _ = s.After(time.Second, func() { order = append(order, i) })
	}

	s.Advance(at(1000))

	for i, got := range order {
		if got != i {
			t.Fatalf("order = %v", order)
		}
	}
}

func TestClose(t *testing.T) {
	s := New(epoch)
	calls := 0
	task, _ := s.After(time.Millisecond, func() { calls++ })

	s.Close()
	s.Advance(at(1000))

	if calls != 0 {
		t.Errorf("task ran after Close")
	}
	if task.Active() {
		t.Error("task active after Close")
	}
	if _, err := s.After(0, func() {}); !errors.Is(err, ErrClosed) {
		t.Errorf("After on closed scheduler: err = %v, want ErrClosed", err)
	}
}

func TestEveryRejectsNonPositive(t *testing.T) {
	s := New(epoch)
	if _, err := s.Every(0, func() {}); err == nil {
		t.Error("expected error for zero interval")
	}
}
