package database_test

import (
	"context"
	"errors"
	"testing"

	"grandpa/internal/database/dbtest"
)

func TestPingContext(t *testing.T) {
	db := dbtest.New(t)

	if err := db.PingContext(context.Background()); err != nil {
		t.Fatalf("PingContext: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := db.PingContext(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("PingContext with cancelled ctx = %v, want context.Canceled", err)
	}
}
