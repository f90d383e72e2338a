package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFileSourceYAML(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "export.yaml", `
tasks:
  - title: 修正報表
    status: On-going
    assignee: alice
    dueDate: "2024-12-31"
  - status: Done
    assignee: bob
userEmails:
  - alice@aivres.com
  - bob@aivres.com
`)
	src, err := Open(Config{Driver: "file", Path: path})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	ctx := context.Background()
	tasks, err := src.Tasks(ctx)
	if err != nil {
		t.Fatalf("Tasks: %v", err)
	}
	if len(tasks) != 2 || tasks[0].Title != "修正報表" || tasks[0].DueDate != "2024-12-31" {
		t.Fatalf("tasks = %+v", tasks)
	}
	if tasks[1].Title != "" || tasks[1].Status != "Done" {
		t.Fatalf("optional fields: %+v", tasks[1])
	}

	emails, err := src.UserEmails(ctx)
	if err != nil {
		t.Fatalf("UserEmails: %v", err)
	}
	if len(emails) != 2 || emails[0] != "alice@aivres.com" {
		t.Fatalf("emails = %v", emails)
	}
}

func TestFileSourceJSON(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "export.json", `{
  "tasks": [{"title": "狀態更新", "status": "ongoing", "assignee": "alice", "dueDate": ""}],
  "userEmails": ["alice@aivres.com"]
}`)
	src, err := Open(Config{Driver: "file", Path: path})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	tasks, err := src.Tasks(context.Background())
	if err != nil || len(tasks) != 1 || tasks[0].Title != "狀態更新" {
		t.Fatalf("tasks = %+v, err = %v", tasks, err)
	}
}

func TestOpenErrors(t *testing.T) {
	t.Parallel()
	if _, err := Open(Config{Driver: "file"}); err == nil {
		t.Fatal("expected error for missing path")
	}
	if _, err := Open(Config{Driver: "firestore"}); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestFileSourceMissingFile(t *testing.T) {
	t.Parallel()
	src, err := Open(Config{Driver: "file", Path: filepath.Join(t.TempDir(), "nope.yaml")})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := src.Tasks(context.Background()); err == nil {
		t.Fatal("expected read error")
	}
}
