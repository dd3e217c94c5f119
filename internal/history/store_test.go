package history

import (
	"context"
	"testing"
)

func TestNilStoreIsNoOp(t *testing.T) {
	var s *Store
	ctx := context.Background()

	if err := s.RecordWin(ctx, "solo", 5, 7, 5, "Great job! Very efficient solution!"); err != nil {
		t.Fatalf("nil store RecordWin: %v", err)
	}
	results, err := s.Recent(ctx, 10)
	if err != nil || results != nil {
		t.Fatalf("nil store Recent: %v, %v", results, err)
	}
	stats, err := s.FetchStats(ctx)
	if err != nil || stats.Played != 0 || stats.Perfect != 0 {
		t.Fatalf("nil store FetchStats: %+v, %v", stats, err)
	}
}

func TestNewStoreNilDB(t *testing.T) {
	if NewStore(nil) != nil {
		t.Fatalf("NewStore(nil) must return the disabled store")
	}
}
