package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestResolvePrefersContextLogger(t *testing.T) {
	t.Parallel()

	var ctxBuf, fallbackBuf bytes.Buffer
	ctxLogger := slog.New(slog.NewTextHandler(&ctxBuf, nil))
	fallback := slog.New(slog.NewTextHandler(&fallbackBuf, nil))

	if got := Resolve(context.Background(), nil, fallback); got != fallback {
		t.Fatal("expected first non-nil fallback without a context logger")
	}

	ctx := ContextWithLogger(context.Background(), ctxLogger)
	Resolve(ctx, fallback).Info("hello")
	if ctxBuf.Len() == 0 || fallbackBuf.Len() != 0 {
		t.Fatalf("expected context logger to be used, got ctx=%q fallback=%q", ctxBuf.String(), fallbackBuf.String())
	}

	if Resolve(context.Background()) != slog.Default() {
		t.Fatal("expected slog.Default when nothing else is available")
	}
}

func TestWithExtendsResolvedLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, nil))

	ctx := With(context.Background(), base, "run_id", "r-1")
	ctx = With(ctx, nil, "campsite_id", "A1")
	FromContext(ctx).Info("assigned")

	out := buf.String()
	if !strings.Contains(out, "run_id=r-1") || !strings.Contains(out, "campsite_id=A1") {
		t.Fatalf("expected both attributes in %q", out)
	}
}

func TestContextWithLoggerIgnoresNil(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	if ContextWithLogger(ctx, nil) != ctx {
		t.Fatal("expected context unchanged for nil logger")
	}
	if FromContext(ctx) != nil {
		t.Fatal("expected no logger on a bare context")
	}
}
