package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestSQLiteStore_IncomingRefs(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	ref := &PaymentRef{
		Identifier:     "deadbeef",
		PaymentRequest: "lnbc25u1pexample",
		AmountSats:     2500,
		CreatedAt:      time.Now().UTC(),
	}
	if err := st.SaveIncomingRef(ctx, ref); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	got, err := st.GetIncomingRef(ctx, "deadbeef")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.PaymentRequest != ref.PaymentRequest {
		t.Errorf("expected payment request %q, got %q", ref.PaymentRequest, got.PaymentRequest)
	}
	if got.AmountSats != 2500 {
		t.Errorf("expected 2500 sats, got %d", got.AmountSats)
	}

	_, err = st.GetIncomingRef(ctx, "unknown")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSQLiteStore_SaveIsIdempotent(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	ref := &PaymentRef{Identifier: "cafe01", PaymentRequest: "lnbc1pfirst", AmountSats: 1, CreatedAt: time.Now().UTC()}
	if err := st.SaveOutgoingRef(ctx, ref); err != nil {
		t.Fatalf("first save failed: %v", err)
	}
	ref.PaymentRequest = "lnbc1psecond"
	if err := st.SaveOutgoingRef(ctx, ref); err != nil {
		t.Fatalf("second save failed: %v", err)
	}

	got, err := st.GetOutgoingRef(ctx, "cafe01")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.PaymentRequest != "lnbc1psecond" {
		t.Errorf("expected replaced row, got %q", got.PaymentRequest)
	}
}

func TestSQLiteStore_ListIncomingRefs(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC()
	for i, id := range []string{"aa", "bb", "cc"} {
		err := st.SaveIncomingRef(ctx, &PaymentRef{
			Identifier:     id,
			PaymentRequest: "lnbc1p" + id,
			CreatedAt:      base.Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("save %s failed: %v", id, err)
		}
	}

	refs, err := st.ListIncomingRefs(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(refs) != 3 {
		t.Fatalf("expected 3 refs, got %d", len(refs))
	}
	if refs[0].Identifier != "aa" || refs[2].Identifier != "cc" {
		t.Errorf("expected creation order, got %v %v %v", refs[0].Identifier, refs[1].Identifier, refs[2].Identifier)
	}
}

func TestSQLiteStore_TablesAreSeparate(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	ref := &PaymentRef{Identifier: "beef02", PaymentRequest: "lnbc1pexample", CreatedAt: time.Now().UTC()}
	if err := st.SaveIncomingRef(ctx, ref); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	if _, err := st.GetOutgoingRef(ctx, "beef02"); !errors.Is(err, ErrNotFound) {
		t.Errorf("incoming ref leaked into outgoing table: %v", err)
	}
}
