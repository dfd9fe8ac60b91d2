package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tidwall/gjson"
)

func TestAtomicWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "channels.json")

	if err := AtomicWriteFile(path, []byte(`{"version":1}`), 0600); err != nil {
		t.Fatalf("AtomicWriteFile() error = %v", err)
	}
	if err := AtomicWriteFile(path, []byte(`{"version":1,"channels":[]}`), 0600); err != nil {
		t.Fatalf("AtomicWriteFile() second write error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(data) != `{"version":1,"channels":[]}` {
		t.Errorf("unexpected content %q", data)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("permissions = %v, want 0600", info.Mode().Perm())
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("temporary files left behind: %d entries", len(entries))
	}
}

func TestMergeDocument(t *testing.T) {
	channels := []byte(`[{"id":"a","name":"A"}]`)

	t.Run("empty original", func(t *testing.T) {
		out, err := MergeDocument(nil, 1, channels)
		if err != nil {
			t.Fatalf("MergeDocument() error = %v", err)
		}
		if gjson.GetBytes(out, "version").Int() != 1 {
			t.Errorf("version not set: %s", out)
		}
		if gjson.GetBytes(out, "channels.0.id").String() != "a" {
			t.Errorf("channels not set: %s", out)
		}
	})

	t.Run("unknown keys preserved", func(t *testing.T) {
		original := []byte(`{"version":1,"channels":[],"defaultChannelId":"x","ui":{"collapsed":true}}`)
		out, err := MergeDocument(original, 1, channels)
		if err != nil {
			t.Fatalf("MergeDocument() error = %v", err)
		}
		if gjson.GetBytes(out, "defaultChannelId").String() != "x" {
			t.Errorf("defaultChannelId lost: %s", out)
		}
		if !gjson.GetBytes(out, "ui.collapsed").Bool() {
			t.Errorf("nested unknown key lost: %s", out)
		}
		if gjson.GetBytes(out, "channels.#").Int() != 1 {
			t.Errorf("channels not replaced: %s", out)
		}
	})

	t.Run("invalid original replaced", func(t *testing.T) {
		out, err := MergeDocument([]byte(`{"version":`), 1, channels)
		if err != nil {
			t.Fatalf("MergeDocument() error = %v", err)
		}
		if err := ValidateDocument(out); err != nil {
			t.Errorf("output invalid: %v", err)
		}
	})

	t.Run("channels must be an array", func(t *testing.T) {
		if _, err := MergeDocument(nil, 1, []byte(`{}`)); err == nil {
			t.Error("expected error for non-array channels")
		}
	})

	t.Run("output is indented", func(t *testing.T) {
		out, err := MergeDocument(nil, 1, channels)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(out), "\n  ") {
			t.Errorf("expected pretty printed output, got %s", out)
		}
	})
}

func TestValidateDocument(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{`{"version":1,"channels":[]}`, false},
		{`{}`, false},
		{`[]`, true},
		{`"text"`, true},
		{`{"version":1,`, true},
		{`not json`, true},
	}

	for _, tt := range tests {
		err := ValidateDocument([]byte(tt.input))
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateDocument(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
	}
}

func TestBackupRotation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "channels.json")
	if err := os.WriteFile(path, []byte(`{"version":1,"channels":[]}`), 0600); err != nil {
		t.Fatal(err)
	}

	bm := NewBackupManager(2)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		stamp := base.Add(time.Duration(i) * time.Second)
		bm.now = func() time.Time { return stamp }
		if _, err := bm.CreateBackup(path); err != nil {
			t.Fatalf("CreateBackup() error = %v", err)
		}
	}

	if err := bm.CleanupOldBackups(path); err != nil {
		t.Fatalf("CleanupOldBackups() error = %v", err)
	}

	backups, err := bm.ListBackups(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(backups) != 2 {
		t.Fatalf("expected 2 backups after cleanup, got %d", len(backups))
	}
	if !strings.Contains(backups[1], "20250101000004") {
		t.Errorf("newest backup should be kept, got %v", backups)
	}

	latest, err := bm.LatestBackup(path)
	if err != nil {
		t.Fatal(err)
	}
	if latest != backups[1] {
		t.Errorf("LatestBackup() = %s, want %s", latest, backups[1])
	}

	info, err := os.Stat(latest)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("backup permissions = %v, want 0600", info.Mode().Perm())
	}
}

func TestReadBackupRejectsForeignPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "channels.json")
	foreign := filepath.Join(dir, "other.json")
	if err := os.WriteFile(foreign, []byte(`{}`), 0600); err != nil {
		t.Fatal(err)
	}

	bm := NewBackupManager(0)
	if _, err := bm.ReadBackup(path, foreign); err == nil {
		t.Error("expected error for a file that is not a backup")
	}
	if _, err := bm.LatestBackup(path); err == nil {
		t.Error("expected error when no backups exist")
	}
}

func TestPreserveCorrupt(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "channels.json")
	content := []byte(`{broken`)
	if err := os.WriteFile(path, content, 0600); err != nil {
		t.Fatal(err)
	}

	bm := NewBackupManager(DefaultBackupRetention)
	saved, err := bm.PreserveCorrupt(path, content)
	if err != nil {
		t.Fatalf("PreserveCorrupt() error = %v", err)
	}
	if !strings.HasSuffix(saved, ".bak") {
		t.Errorf("preserved file should end in .bak: %s", saved)
	}

	data, err := os.ReadFile(saved)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{broken` {
		t.Errorf("preserved content = %q", data)
	}

	again, err := bm.PreserveCorrupt(path, content)
	if err != nil {
		t.Fatal(err)
	}
	if again != saved {
		t.Errorf("same content should map to the same file: %s vs %s", again, saved)
	}

	matches, _ := filepath.Glob(path + ".corrupt-*.bak")
	if len(matches) != 1 {
		t.Errorf("expected one preserved copy, got %v", matches)
	}

	backups, _ := bm.ListBackups(path)
	if len(backups) != 0 {
		t.Errorf("corrupt copies must not be part of rotation: %v", backups)
	}
}
