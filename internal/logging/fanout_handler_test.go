package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
)

func TestNewFanoutHandlerNilHandlers(t *testing.T) {
	if _, ok := newFanoutHandler(nil, nil).(NoopHandler); !ok {
		t.Fatal("expected NoopHandler for all nil handlers")
	}
}

func TestNewFanoutHandlerSingleHandler(t *testing.T) {
	inner := slog.NewJSONHandler(&bytes.Buffer{}, nil)
	if h := newFanoutHandler(nil, inner); h != inner {
		t.Fatal("expected single non-nil handler to be returned unwrapped")
	}
}

func TestFanoutHandlerRespectsPerHandlerLevels(t *testing.T) {
	var infoBuf, debugBuf bytes.Buffer
	h := newFanoutHandler(
		slog.NewJSONHandler(&infoBuf, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewJSONHandler(&debugBuf, &slog.HandlerOptions{Level: slog.LevelDebug}),
	)
	if !h.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("expected fanout enabled for debug")
	}

	logger := slog.New(h).With("component", "test")
	logger.Debug("debug only")
	logger.Info("both")

	if bytes.Contains(infoBuf.Bytes(), []byte("debug only")) {
		t.Fatal("info handler received debug record")
	}
	if !bytes.Contains(debugBuf.Bytes(), []byte("debug only")) {
		t.Fatal("debug handler missed debug record")
	}
	for _, buf := range []*bytes.Buffer{&infoBuf, &debugBuf} {
		if !bytes.Contains(buf.Bytes(), []byte(`"component":"test"`)) {
			t.Fatalf("expected attrs propagated, got %s", buf.String())
		}
	}
}
