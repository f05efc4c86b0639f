//go:build !integration

package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestWith(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)

	ctx := WithTraceID(context.Background(), "abc")
	ctx = WithTgID(ctx, 42)
	ctx = WithChatID(ctx, -100)
	With(ctx, &base).Info().Msg("hello")

	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid log line %q: %v", buf.String(), err)
	}
	if got["trace_id"] != "abc" || got["tg_id"] != float64(42) || got["chat_id"] != float64(-100) {
		t.Errorf("missing context fields: %v", got)
	}
	if TraceID(ctx) != "abc" {
		t.Errorf("TraceID = %q", TraceID(ctx))
	}
}

func TestRedact(t *testing.T) {
	if Redact("123456:ABCDEFGH", false) != "1234...GH" {
		t.Errorf("unexpected redaction %q", Redact("123456:ABCDEFGH", false))
	}
	if Redact("short", false) != "***" {
		t.Error("short values are fully hidden")
	}
	if Redact("secret-token", true) != "secret-token" {
		t.Error("dev mode keeps values")
	}
}
