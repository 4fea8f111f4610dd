package session

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type failingSweeper struct {
	calls atomic.Int32
}

func (f *failingSweeper) SweepExpired(time.Time) ([]Record, error) {
	f.calls.Add(1)
	return []Record{newRecord("partial", "web")}, errors.New("partition exploded")
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestReaperSweepOnceReportsRemoved(t *testing.T) {
	s := NewMemoryStore()
	mustInsert(t, s, newRecord("s1", "web"), 0, epoch)

	var got []Record
	r := NewReaper(s, ReaperConfig{
		Now:     func() time.Time { return epoch.Add(time.Hour) },
		OnSweep: func(removed []Record) { got = removed },
		Logger:  quietLogger(),
	})

	if removed := r.SweepOnce(); len(removed) != 1 {
		t.Fatalf("expected one record swept, got %d", len(removed))
	}
	if len(got) != 1 || got[0].ID != "s1" {
		t.Fatalf("expected OnSweep to receive s1, got %+v", got)
	}
}

func TestReaperContinuesAfterErrors(t *testing.T) {
	sweeper := &failingSweeper{}
	var errCount atomic.Int32
	var sweptCount atomic.Int32

	r := NewReaper(sweeper, ReaperConfig{
		Interval: 5 * time.Millisecond,
		OnError:  func(error) { errCount.Add(1) },
		OnSweep:  func([]Record) { sweptCount.Add(1) },
		Logger:   quietLogger(),
	})
	r.Start()

	deadline := time.Now().Add(2 * time.Second)
	for sweeper.calls.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	r.Stop()

	if sweeper.calls.Load() < 3 {
		t.Fatalf("expected loop to keep sweeping after errors, got %d calls", sweeper.calls.Load())
	}
	if errCount.Load() < 3 || sweptCount.Load() < 3 {
		t.Fatalf("expected errors and partial results reported, got errors=%d swept=%d", errCount.Load(), sweptCount.Load())
	}
}

func TestReaperStopIsIdempotent(t *testing.T) {
	r := NewReaper(NewMemoryStore(), ReaperConfig{Interval: time.Millisecond, Logger: quietLogger()})
	r.Start()
	r.Start()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Stop()
		}()
	}
	wg.Wait()

	unstarted := NewReaper(NewMemoryStore(), ReaperConfig{})
	unstarted.Stop()
}
