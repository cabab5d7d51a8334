package repo

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestGetIdempotency_BlankKeyOrMissing(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	if rec, err := GetIdempotency(ctx, db, 1, "   ", now); rec != nil || !errors.Is(err, ErrNotFound) {
		t.Fatalf("blank key: (%v, %v)", rec, err)
	}
	if rec, err := GetIdempotency(ctx, db, 1, "k1", now); rec != nil || !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing key: (%v, %v)", rec, err)
	}
}

func TestCreateIdempotency_RoundTripAndDuplicate(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	rec, err := CreateIdempotency(ctx, db, 3, "k1", 42, 201, time.Hour)
	if err != nil || rec.ID == "" {
		t.Fatalf("CreateIdempotency: %+v %v", rec, err)
	}
	got, err := GetIdempotency(ctx, db, 3, "k1", time.Now().UTC())
	if err != nil || got.SubmissionID != 42 || got.Status != 201 {
		t.Fatalf("GetIdempotency: %+v %v", got, err)
	}
	// Same key on another form is independent.
	if _, err := GetIdempotency(ctx, db, 4, "k1", time.Now().UTC()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected other form to miss, got %v", err)
	}
	if _, err := CreateIdempotency(ctx, db, 3, "k1", 43, 201, time.Hour); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestIdempotency_ExpiryAndPurge(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if _, err := CreateIdempotency(ctx, db, 1, "old", 1, 201, time.Minute); err != nil {
		t.Fatalf("create: %v", err)
	}
	later := time.Now().UTC().Add(2 * time.Minute)
	if _, err := GetIdempotency(ctx, db, 1, "old", later); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expired record should miss, got %v", err)
	}
	n, err := PurgeIdempotency(ctx, db, later)
	if err != nil || n != 1 {
		t.Fatalf("PurgeIdempotency = %d, %v", n, err)
	}
}
