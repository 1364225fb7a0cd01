package upstream

import (
	"context"
	"errors"
	"testing"
	"time"
)

func testPolicy() Policy {
	return Policy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 4 * time.Millisecond}
}

func TestPolicyDo(t *testing.T) {
	tests := map[string]struct {
		errs      []error
		wantCalls int
		wantErr   bool
	}{
		"first try succeeds": {
			errs:      []error{nil},
			wantCalls: 1,
		},
		"transient then success": {
			errs:      []error{NewTransient("op", errors.New("conn reset")), nil},
			wantCalls: 2,
		},
		"transient exhausts attempts": {
			errs: []error{
				NewStatusError("op", 503, errors.New("unavailable")),
				NewStatusError("op", 503, errors.New("unavailable")),
				NewStatusError("op", 503, errors.New("unavailable")),
			},
			wantCalls: 3,
			wantErr:   true,
		},
		"permanent failure not retried": {
			errs:      []error{NewStatusError("op", 400, errors.New("bad amount"))},
			wantCalls: 1,
			wantErr:   true,
		},
		"plain error not retried": {
			errs:      []error{errors.New("not a gateway error")},
			wantCalls: 1,
			wantErr:   true,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			calls := 0
			err := testPolicy().Do(context.Background(), func(ctx context.Context) error {
				e := tt.errs[calls]
				calls++
				return e
			})

			if calls != tt.wantCalls {
				t.Fatalf("op called %d times, want %d", calls, tt.wantCalls)
			}
			if tt.wantErr && err == nil {
				t.Fatalf("expected error")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestPolicyDoStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	err := testPolicy().Do(ctx, func(ctx context.Context) error {
		calls++
		cancel()
		return NewTransient("op", errors.New("conn reset"))
	})

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Fatalf("op called %d times after cancel, want 1", calls)
	}
}

func TestErrorClassification(t *testing.T) {
	if !IsTransient(NewTransient("op", errors.New("timeout"))) {
		t.Error("network error should be transient")
	}
	if !IsTransient(NewStatusError("op", 502, errors.New("bad gateway"))) {
		t.Error("5xx should be transient")
	}
	if IsTransient(NewStatusError("op", 401, errors.New("unauthorized"))) {
		t.Error("4xx should be permanent")
	}
	if IsTransient(errors.New("plain")) {
		t.Error("plain error should not be transient")
	}
}
