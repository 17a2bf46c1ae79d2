package db

import (
	"context"
	"testing"
)

func TestPostedMatchesRoundTrip(t *testing.T) {
	dbx := openTestDB(t)
	ctx := context.Background()
	if err := Migrate(ctx, dbx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if _, err := dbx.ExecContext(ctx, `DELETE FROM posted_matches`); err != nil {
		t.Fatalf("reset: %v", err)
	}

	store := &PostedMatches{DB: dbx}
	ids, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("Load on empty table = %v", ids)
	}

	if err := store.Save(ctx, []string{"m1", "m2"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	// overlapping snapshot; existing rows are kept, new ones added
	if err := store.Save(ctx, []string{"m1", "m2", "m3"}); err != nil {
		t.Fatalf("second Save: %v", err)
	}
	// a shorter snapshot never deletes
	if err := store.Save(ctx, []string{"m1"}); err != nil {
		t.Fatalf("third Save: %v", err)
	}

	ids, err = store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	got := map[string]bool{}
	for _, id := range ids {
		got[id] = true
	}
	if len(ids) != 3 || !got["m1"] || !got["m2"] || !got["m3"] {
		t.Errorf("Load = %v, want m1 m2 m3", ids)
	}

	if err := store.Ping(ctx); err != nil {
		t.Errorf("Ping: %v", err)
	}
}

func TestPostedMatchesSaveEmptyIsNoop(t *testing.T) {
	// a nil DB would panic if Save touched it
	store := &PostedMatches{}
	if err := store.Save(context.Background(), nil); err != nil {
		t.Errorf("Save(nil) = %v, want nil", err)
	}
}
