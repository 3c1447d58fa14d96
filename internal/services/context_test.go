package services_test

import (
	"context"
	"testing"

	"mgdl/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithManga(ctx, "one_piece")
	ctx = services.WithOperation(ctx, "update")
	ctx = services.WithRequestID(ctx, "req-123")

	if name, ok := services.MangaFromContext(ctx); !ok || name != "one_piece" {
		t.Fatalf("unexpected manga: %v %v", name, ok)
	}
	if op, ok := services.OperationFromContext(ctx); !ok || op != "update" {
		t.Fatalf("unexpected operation: %v %v", op, ok)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithManga(ctx, "")
	ctx = services.WithOperation(ctx, "")
	if _, ok := services.MangaFromContext(ctx); ok {
		t.Fatal("expected no manga value")
	}
	if _, ok := services.OperationFromContext(ctx); ok {
		t.Fatal("expected no operation value")
	}
}
