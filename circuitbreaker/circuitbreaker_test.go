package circuitbreaker

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"
)

var errFetchFailed = errors.New("fetch failed")

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestBreaker(cfg Config) (*breaker, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	b := New(cfg).(*breaker)
	b.now = clock.Now
	return b, clock
}

func fail() error    { return errFetchFailed }
func succeed() error { return nil }

func TestNew_Defaults(t *testing.T) {
	tests := []struct {
		name      string
		config    Config
		threshold int
		timeout   time.Duration
		halfOpen  int
	}{
		{"explicit values", Config{FailureThreshold: 3, Timeout: 10 * time.Second, HalfOpenRequests: 2}, 3, 10 * time.Second, 2},
		{"zero values", Config{}, 5, 30 * time.Second, 1},
		{"negative values", Config{FailureThreshold: -1, Timeout: -time.Second, HalfOpenRequests: -4}, 5, 30 * time.Second, 1},
		{"partial", Config{FailureThreshold: 10}, 10, 30 * time.Second, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New(tt.config).(*breaker)
			if b.State() != StateClosed {
				t.Errorf("State() = %s, want CLOSED", b.State())
			}
			if b.config.FailureThreshold != tt.threshold {
				t.Errorf("FailureThreshold = %d, want %d", b.config.FailureThreshold, tt.threshold)
			}
			if b.config.Timeout != tt.timeout {
				t.Errorf("Timeout = %v, want %v", b.config.Timeout, tt.timeout)
			}
			if b.config.HalfOpenRequests != tt.halfOpen {
				t.Errorf("HalfOpenRequests = %d, want %d", b.config.HalfOpenRequests, tt.halfOpen)
			}
		})
	}
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateClosed, "CLOSED"},
		{StateOpen, "OPEN"},
		{StateHalfOpen, "HALF-OPEN"},
		{State(42), "UNKNOWN"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", int(tt.state), got, tt.want)
		}
	}
}

func TestExecute_OpensAfterThreshold(t *testing.T) {
	b, _ := newTestBreaker(Config{FailureThreshold: 3})

	for i := 0; i < 2; i++ {
		if err := b.Execute(fail); !errors.Is(err, errFetchFailed) {
			t.Fatalf("call %d: err = %v, want errFetchFailed", i, err)
		}
		if b.State() != StateClosed {
			t.Fatalf("call %d: State() = %s, want CLOSED", i, b.State())
		}
	}

	_ = b.Execute(fail)
	if b.State() != StateOpen {
		t.Fatalf("State() = %s, want OPEN", b.State())
	}

	called := false
	err := b.Execute(func() error { called = true; return nil })
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("err = %v, want ErrCircuitOpen", err)
	}
	if called {
		t.Error("function ran while circuit was open")
	}
}

func TestExecute_SuccessResetsFailureCount(t *testing.T) {
	b, _ := newTestBreaker(Config{FailureThreshold: 2})

	_ = b.Execute(fail)
	_ = b.Execute(succeed)
	_ = b.Execute(fail)

	if b.State() != StateClosed {
		t.Errorf("State() = %s, want CLOSED", b.State())
	}
}

func TestExecute_HalfOpenRecovery(t *testing.T) {
	b, clock := newTestBreaker(Config{FailureThreshold: 1, Timeout: time.Minute, HalfOpenRequests: 2})

	_ = b.Execute(fail)
	clock.Advance(59 * time.Second)
	if err := b.Execute(succeed); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("before timeout: err = %v, want ErrCircuitOpen", err)
	}

	clock.Advance(time.Second)
	if err := b.Execute(succeed); err != nil {
		t.Fatalf("first trial: err = %v", err)
	}
	if b.State() != StateHalfOpen {
		t.Fatalf("State() = %s, want HALF-OPEN", b.State())
	}
	if err := b.Execute(succeed); err != nil {
		t.Fatalf("second trial: err = %v", err)
	}
	if b.State() != StateClosed {
		t.Errorf("State() = %s, want CLOSED", b.State())
	}
}

func TestExecute_HalfOpenFailureReopens(t *testing.T) {
	b, clock := newTestBreaker(Config{FailureThreshold: 1, Timeout: time.Second})

	_ = b.Execute(fail)
	clock.Advance(time.Second)

	if err := b.Execute(fail); !errors.Is(err, errFetchFailed) {
		t.Fatalf("err = %v, want errFetchFailed", err)
	}
	if b.State() != StateOpen {
		t.Fatalf("State() = %s, want OPEN", b.State())
	}
	if err := b.Execute(succeed); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("err = %v, want ErrCircuitOpen", err)
	}
}

func TestExecute_HalfOpenLimit(t *testing.T) {
	b, clock := newTestBreaker(Config{FailureThreshold: 1, Timeout: time.Second, HalfOpenRequests: 1})

	_ = b.Execute(fail)
	clock.Advance(time.Second)

	release := make(chan struct{})
	started := make(chan struct{})
	done := make(chan error)
	go func() {
		done <- b.Execute(func() error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	if err := b.Execute(succeed); !errors.Is(err, ErrHalfOpenLimitReached) {
		t.Errorf("err = %v, want ErrHalfOpenLimitReached", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Errorf("trial err = %v", err)
	}
	if b.State() != StateClosed {
		t.Errorf("State() = %s, want CLOSED", b.State())
	}
}

func TestReset(t *testing.T) {
	b, _ := newTestBreaker(Config{FailureThreshold: 1})

	_ = b.Execute(fail)
	b.Reset()

	if b.State() != StateClosed {
		t.Fatalf("State() = %s, want CLOSED", b.State())
	}
	if err := b.Execute(succeed); err != nil {
		t.Errorf("err = %v", err)
	}
}

func TestStateChange_NotifiesAndLogs(t *testing.T) {
	var buf bytes.Buffer
	type change struct {
		name     string
		from, to State
	}
	var changes []change

	b, clock := newTestBreaker(Config{
		Name:             "playlist-proxy",
		FailureThreshold: 1,
		Timeout:          time.Second,
		Logger:           slog.New(slog.NewTextHandler(&buf, nil)),
		OnStateChange: func(name string, from, to State) {
			changes = append(changes, change{name, from, to})
		},
	})

	_ = b.Execute(fail)
	clock.Advance(time.Second)
	_ = b.Execute(succeed)

	want := []change{
		{"playlist-proxy", StateClosed, StateOpen},
		{"playlist-proxy", StateOpen, StateHalfOpen},
		{"playlist-proxy", StateHalfOpen, StateClosed},
	}
	if len(changes) != len(want) {
		t.Fatalf("got %d changes, want %d: %+v", len(changes), len(want), changes)
	}
	for i := range want {
		if changes[i] != want[i] {
			t.Errorf("change %d = %+v, want %+v", i, changes[i], want[i])
		}
	}
	if !strings.Contains(buf.String(), "breaker=playlist-proxy") {
		t.Errorf("log output missing breaker name: %s", buf.String())
	}
}

func TestExecute_Concurrent(t *testing.T) {
	b, _ := newTestBreaker(Config{FailureThreshold: 1000})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				_ = b.Execute(fail)
			} else {
				_ = b.Execute(succeed)
			}
		}(i)
	}
	wg.Wait()

	if b.State() != StateClosed {
		t.Errorf("State() = %s, want CLOSED", b.State())
	}
}

func TestExecute_IgnoredErrorsAreNotCounted(t *testing.T) {
	t.Run("closed", func(t *testing.T) {
		b, _ := newTestBreaker(Config{FailureThreshold: 2})
		ignored := func() error { return Ignore(errFetchFailed) }

		for i := 0; i < 5; i++ {
			if err := b.Execute(ignored); !errors.Is(err, errFetchFailed) {
				t.Fatalf("err = %v, want errFetchFailed", err)
			}
		}
		if b.State() != StateClosed {
			t.Errorf("State() = %s, want CLOSED", b.State())
		}

		_ = b.Execute(fail)
		if b.State() != StateClosed {
			t.Errorf("State() = %s, one counted failure must not open", b.State())
		}
	})

	t.Run("half-open keeps its trial slot", func(t *testing.T) {
		b, clock := newTestBreaker(Config{FailureThreshold: 1, Timeout: time.Second, HalfOpenRequests: 1})
		_ = b.Execute(fail)
		clock.Advance(time.Second)

		_ = b.Execute(func() error { return Ignore(errFetchFailed) })
		if b.State() != StateHalfOpen {
			t.Fatalf("State() = %s, want HALF-OPEN", b.State())
		}
		if err := b.Execute(succeed); err != nil {
			t.Fatalf("trial after ignored error: err = %v", err)
		}
		if b.State() != StateClosed {
			t.Errorf("State() = %s, want CLOSED", b.State())
		}
	})

	if Ignore(nil) != nil {
		t.Error("Ignore(nil) must be nil")
	}
}
