package resilience

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestSingleFlight_SharesConcurrentCalls(t *testing.T) {
	var g SingleFlight[[]byte]
	var runs atomic.Int32
	var sharedCount atomic.Int32

	const callers = 16
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			got, err, shared := g.Do("session:venue-1", func() ([]byte, error) {
				runs.Add(1)
				time.Sleep(20 * time.Millisecond)
				return []byte(`{"venue_id":"venue-1"}`), nil
			})
			if err != nil || string(got) != `{"venue_id":"venue-1"}` {
				t.Errorf("unexpected result %q err=%v", got, err)
			}
			if shared {
				sharedCount.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	if got := runs.Load(); got != 1 {
		t.Fatalf("expected one execution, got %d", got)
	}
	if got := sharedCount.Load(); got != callers-1 && got != callers {
		t.Fatalf("expected the other callers to share, got %d", got)
	}
}

func TestSingleFlight_ErrorsAreNotRemembered(t *testing.T) {
	var g SingleFlight[int]
	boom := errors.New("boom")

	if _, err, _ := g.Do("k", func() (int, error) { return 0, boom }); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	v, err, _ := g.Do("k", func() (int, error) { return 7, nil })
	if err != nil || v != 7 {
		t.Fatalf("expected a fresh call, got %d err=%v", v, err)
	}
}
