package ledger

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/rpbridge/rpbridge-go/pkg/native"
	"github.com/rpbridge/rpbridge-go/pkg/native/mocks"
)

func openTestLedger(t *testing.T) *Ledger {
	t.Helper()
	l, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Failed to open ledger: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func TestLedgerAcquireAndRelease(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()

	rec := Record{SubscriptionID: "sub-1", Kind: "import", Source: "app-1", Handle: 42}
	if err := l.Acquired(ctx, rec); err != nil {
		t.Fatalf("Acquired failed: %v", err)
	}

	out, err := l.Outstanding(ctx)
	if err != nil {
		t.Fatalf("Outstanding failed: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("Expected 1 outstanding record, got %d", len(out))
	}
	got := out[0]
	if got.SubscriptionID != "sub-1" || got.Handle != 42 || got.Kind != "import" || got.Source != "app-1" {
		t.Errorf("Unexpected record: %+v", got)
	}
	if !got.Outstanding() {
		t.Error("Record should be outstanding")
	}
	if got.AcquiredAt.IsZero() {
		t.Error("AcquiredAt should be set")
	}

	if err := l.Released(ctx, "sub-1", 42); err != nil {
		t.Fatalf("Released failed: %v", err)
	}
	out, err = l.Outstanding(ctx)
	if err != nil {
		t.Fatalf("Outstanding failed: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("Expected no outstanding records, got %d", len(out))
	}

	hist, err := l.History(ctx, 10)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(hist) != 1 || hist[0].ReleasedAt == nil {
		t.Errorf("Expected one released record in history, got %+v", hist)
	}
}

func TestLedgerRejectsZeroHandle(t *testing.T) {
	l := openTestLedger(t)
	if err := l.Acquired(context.Background(), Record{SubscriptionID: "sub-1"}); err == nil {
		t.Error("Expected error for zero handle")
	}
}

func TestLedgerReleaseUnknownIsNoop(t *testing.T) {
	l := openTestLedger(t)
	if err := l.Released(context.Background(), "nobody", 7); err != nil {
		t.Errorf("Expected nil error, got %v", err)
	}
}

func TestLedgerReacquireSameHandle(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()

	rec := Record{SubscriptionID: "sub-1", Handle: 9}
	for i := 0; i < 2; i++ {
		if err := l.Acquired(ctx, rec); err != nil {
			t.Fatalf("Acquired failed: %v", err)
		}
		if err := l.Released(ctx, "sub-1", 9); err != nil {
			t.Fatalf("Released failed: %v", err)
		}
	}
	if err := l.Acquired(ctx, rec); err != nil {
		t.Fatalf("Acquired failed: %v", err)
	}

	out, _ := l.Outstanding(ctx)
	if len(out) != 1 {
		t.Errorf("Expected 1 outstanding record, got %d", len(out))
	}
}

func TestLedgerPersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "handles.db")
	ctx := context.Background()

	l, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := l.Acquired(ctx, Record{SubscriptionID: "sub-1", Handle: 3, AcquiredAt: time.Now()}); err != nil {
		t.Fatalf("Acquired failed: %v", err)
	}
	l.Close()

	l, err = Open(path)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	defer l.Close()

	out, err := l.Outstanding(ctx)
	if err != nil {
		t.Fatalf("Outstanding failed: %v", err)
	}
	if len(out) != 1 || out[0].Handle != 3 {
		t.Errorf("Expected handle 3 to survive reopen, got %+v", out)
	}
}

func TestSweepReleasesOutstanding(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()

	for i, h := range []native.Handle{11, 12, 13} {
		rec := Record{SubscriptionID: "sub", Handle: h, AcquiredAt: time.Now().Add(time.Duration(i) * time.Second)}
		if err := l.Acquired(ctx, rec); err != nil {
			t.Fatalf("Acquired failed: %v", err)
		}
	}
	if err := l.Released(ctx, "sub", 12); err != nil {
		t.Fatalf("Released failed: %v", err)
	}

	nat := mocks.NewMockNative[string](t)
	nat.EXPECT().Unadvise(mock.Anything, native.Handle(11)).Return(nil).Once()
	nat.EXPECT().Unadvise(mock.Anything, native.Handle(13)).Return(errors.New("stale handle")).Once()

	n, err := Sweep(ctx, nat, l)
	if n != 2 {
		t.Errorf("Expected 2 swept, got %d", n)
	}
	if err == nil {
		t.Error("Expected the failed unadvise to be reported")
	}

	out, _ := l.Outstanding(ctx)
	if len(out) != 0 {
		t.Errorf("Expected nothing outstanding after sweep, got %d", len(out))
	}
}

func TestSweepEmptyLedger(t *testing.T) {
	l := openTestLedger(t)
	nat := mocks.NewMockNative[string](t)

	n, err := Sweep(context.Background(), nat, l)
	if n != 0 || err != nil {
		t.Errorf("Expected (0, nil), got (%d, %v)", n, err)
	}
}
