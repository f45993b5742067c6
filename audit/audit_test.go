package audit

import (
	"os"
	"testing"
	"time"

	"github.com/go-git/go-billy/v6/memfs"
)

func TestRecordAndTail(t *testing.T) {
	recorder := NewFileRecorder(memfs.New(), "audit.log")
	recorder.now = func() time.Time {
		return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	}

	events := []Event{
		{User: "alice", Action: "create_table", Detail: "users"},
		{User: "alice", Action: "insert", Detail: "users"},
		{User: "bob", Action: "select", Detail: "users"},
	}
	for _, event := range events {
		if err := recorder.Record(event); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	got, err := recorder.Tail(0)
	if err != nil {
		t.Fatalf("Tail failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 events, got %d", len(got))
	}
	if got[0].User != "alice" || got[0].Action != "create_table" {
		t.Errorf("unexpected first event: %+v", got[0])
	}
	if got[0].Time.IsZero() {
		t.Error("recorded event should carry a timestamp")
	}
}

func TestTailLimit(t *testing.T) {
	recorder := NewFileRecorder(memfs.New(), "audit.log")

	for _, action := range []string{"one", "two", "three", "four"} {
		if err := recorder.Record(Event{User: "alice", Action: action}); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	got, err := recorder.Tail(2)
	if err != nil {
		t.Fatalf("Tail failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d", len(got))
	}
	if got[0].Action != "three" || got[1].Action != "four" {
		t.Errorf("expected the newest events oldest first, got %+v", got)
	}
}

func TestTailMissingFile(t *testing.T) {
	recorder := NewFileRecorder(memfs.New(), "absent.log")

	got, err := recorder.Tail(10)
	if err != nil {
		t.Fatalf("Tail failed: %v", err)
	}
	if got != nil {
		t.Errorf("expected no events, got %+v", got)
	}
}

func TestTailSkipsMalformedLines(t *testing.T) {
	fs := memfs.New()
	f, err := fs.OpenFile("audit.log", os.O_WRONLY|os.O_CREATE, 0o644)
	if err != nil {
		t.Fatalf("OpenFile failed: %v", err)
	}
	if _, err := f.Write([]byte("not json\n{\"user\":\"alice\",\"action\":\"select\"}\n")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	f.Close()

	recorder := NewFileRecorder(fs, "audit.log")
	got, err := recorder.Tail(0)
	if err != nil {
		t.Fatalf("Tail failed: %v", err)
	}
	if len(got) != 1 || got[0].User != "alice" {
		t.Errorf("expected the one valid event, got %+v", got)
	}
}
