package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	logx "notifyd/pkg/logx"
)

func TestOpenDisabled(t *testing.T) {
	t.Parallel()
	for _, driver := range []string{"", "none"} {
		st, err := Open(Config{Driver: driver}, logx.Nop())
		if err != nil || st != nil {
			t.Fatalf("Open(%q) = (%v, %v), want (nil, nil)", driver, st, err)
		}
	}
	if _, err := Open(Config{Driver: "redis"}, logx.Nop()); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func testStoreRoundTrip(t *testing.T, st Store) {
	t.Helper()
	ctx := context.Background()

	if _, ok, err := st.LastSentDate(ctx); err != nil || ok {
		t.Fatalf("fresh store: ok=%v err=%v, want no recorded send", ok, err)
	}
	if err := st.SetLastSentDate(ctx, "2024-01-01"); err != nil {
		t.Fatalf("SetLastSentDate: %v", err)
	}
	day, ok, err := st.LastSentDate(ctx)
	if err != nil || !ok || day != "2024-01-01" {
		t.Fatalf("LastSentDate = (%q, %v, %v)", day, ok, err)
	}
	if err := st.SetLastSentDate(ctx, "2024-01-02"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if day, _, _ = st.LastSentDate(ctx); day != "2024-01-02" {
		t.Fatalf("after overwrite: %q", day)
	}

	err = st.AppendSent(ctx, SentEntry{
		At:        time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC),
		Recipient: "alice@aivres.com",
		Subject:   "待辦更新提醒 (2024-01-02)",
		TaskCount: 2,
	})
	if err != nil {
		t.Fatalf("AppendSent: %v", err)
	}
}

func TestFileStore(t *testing.T) {
	t.Parallel()
	prefix := filepath.Join(t.TempDir(), "notifyd_store")
	st, err := Open(Config{Driver: "file", Path: prefix}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	testStoreRoundTrip(t, st)
	if err := st.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// State survives reopen.
	st, err = Open(Config{Driver: "file", Path: prefix}, logx.Nop())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer st.Close()
	day, ok, err := st.LastSentDate(context.Background())
	if err != nil || !ok || day != "2024-01-02" {
		t.Fatalf("after reopen: (%q, %v, %v)", day, ok, err)
	}

	// The sent log is one JSON object per line.
	f, err := os.Open(prefix + ".sent.jsonl")
	if err != nil {
		t.Fatalf("open sent log: %v", err)
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	lines := 0
	for sc.Scan() {
		var rec map[string]any
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			t.Fatalf("line %d not JSON: %v", lines, err)
		}
		lines++
	}
	if lines != 1 {
		t.Fatalf("sent log has %d lines, want 1", lines)
	}
}

func TestSQLiteStore(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "notifyd.db")
	st, err := Open(Config{Driver: "sqlite", Path: path, BusyTimeout: time.Second}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	testStoreRoundTrip(t, st)
	if err := st.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	st, err = Open(Config{Driver: "sqlite", Path: path}, logx.Nop())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer st.Close()
	day, ok, err := st.LastSentDate(context.Background())
	if err != nil || !ok || day != "2024-01-02" {
		t.Fatalf("after reopen: (%q, %v, %v)", day, ok, err)
	}
}
