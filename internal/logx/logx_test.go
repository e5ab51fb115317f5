package logx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"pkt.systems/pslog"
)

func newCaptureLogger(capture *logCapture) pslog.Logger {
	return pslog.NewWithOptions(capture, pslog.Options{
		Mode:          pslog.ModeStructured,
		NoColor:       true,
		MinLevel:      pslog.InfoLevel,
		VerboseFields: true,
	})
}

func TestWithRoomAndConnAddFields(t *testing.T) {
	capture := &logCapture{}
	log := WithConn(WithRoom(newCaptureLogger(capture), "lobby"), 7)
	log.Info("hello")

	entry := capture.firstEntry(t)
	if entry["room"] != "lobby" {
		t.Fatalf("expected room field, got %+v", entry)
	}
	if fmt.Sprint(entry["conn"]) != "7" {
		t.Fatalf("expected conn field, got %+v", entry)
	}
}

func TestEmptyValuesAreSkipped(t *testing.T) {
	capture := &logCapture{}
	log := WithSite(WithConn(WithRoom(newCaptureLogger(capture), ""), 0), "")
	log.Info("hello")

	entry := capture.firstEntry(t)
	for _, key := range []string{"room", "conn", "site"} {
		if _, ok := entry[key]; ok {
			t.Fatalf("did not expect %s field, got %+v", key, entry)
		}
	}
}

func TestCtxUsesContextLogger(t *testing.T) {
	capture := &logCapture{}
	ctx := pslog.ContextWithLogger(context.Background(), newCaptureLogger(capture))
	WithSite(Ctx(ctx), "s1").Info("hello")

	entry := capture.firstEntry(t)
	if entry["site"] != "s1" {
		t.Fatalf("expected site field, got %+v", entry)
	}
}

func TestOrDefaultNeverNil(t *testing.T) {
	if OrDefault(nil) == nil {
		t.Fatalf("expected fallback logger")
	}
}

type logCapture struct {
	buf bytes.Buffer
}

func (c *logCapture) Write(p []byte) (int, error) {
	return c.buf.Write(p)
}

func (c *logCapture) firstEntry(t *testing.T) map[string]any {
	t.Helper()
	data := c.buf.Bytes()
	idx := bytes.IndexByte(data, '\n')
	if idx == -1 {
		idx = len(data)
	}
	line := bytes.TrimSpace(data[:idx])
	entry := map[string]any{}
	if err := json.Unmarshal(line, &entry); err != nil {
		t.Fatalf("parse log entry: %v", err)
	}
	return entry
}
