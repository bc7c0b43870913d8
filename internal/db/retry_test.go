package db

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsBusy(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "nil error",
			err:  nil,
			want: false,
		},
		{
			name: "locked database",
			err:  errors.New("database is locked (5) (SQLITE_BUSY)"),
			want: true,
		},
		{
			name: "busy code only",
			err:  errors.New("SQLITE_BUSY"),
			want: true,
		},
		{
			name: "wrapped locked error",
			err:  fmt.Errorf("inserting clip: %w", errors.New("database is locked")),
			want: true,
		},
		{
			name: "unrelated error",
			err:  errors.New("UNIQUE constraint failed: model_records.id"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsBusy(tt.err); got != tt.want {
				t.Errorf("IsBusy(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestRetryOnBusy(t *testing.T) {
	t.Run("succeeds immediately", func(t *testing.T) {
		calls := 0
		err := RetryOnBusy(func() error {
			calls++
			return nil
		})
		if err != nil {
			t.Fatalf("RetryOnBusy() error = %v", err)
		}
		if calls != 1 {
			t.Errorf("calls = %d, want 1", calls)
		}
	})

	t.Run("succeeds after transient busy", func(t *testing.T) {
		calls := 0
		err := RetryOnBusy(func() error {
			calls++
			if calls < 3 {
				return errors.New("database is locked")
			}
			return nil
		})
		if err != nil {
			t.Fatalf("RetryOnBusy() error = %v", err)
		}
		if calls != 3 {
			t.Errorf("calls = %d, want 3", calls)
		}
	})

	t.Run("non-busy error returns without retry", func(t *testing.T) {
		calls := 0
		wantErr := errors.New("NOT NULL constraint failed")
		err := RetryOnBusy(func() error {
			calls++
			return wantErr
		})
		if !errors.Is(err, wantErr) {
			t.Fatalf("RetryOnBusy() error = %v, want %v", err, wantErr)
		}
		if calls != 1 {
			t.Errorf("calls = %d, want 1", calls)
		}
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		calls := 0
		err := RetryOnBusy(func() error {
			calls++
			return errors.New("SQLITE_BUSY")
		})
		if err == nil {
			t.Fatal("RetryOnBusy() expected error after exhausting retries")
		}
		if calls != busyRetries {
			t.Errorf("calls = %d, want %d", calls, busyRetries)
		}
	})
}
