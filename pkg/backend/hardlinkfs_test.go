package backend

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestHardlinkFSGenesisCommit(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	fs := NewHardlinkFS(root, nil)

	if err := fs.CreateDataset(ctx); err != nil {
		t.Fatalf("CreateDataset failed: %v", err)
	}

	staging, err := fs.StageClone(ctx, "")
	if err != nil {
		t.Fatalf("StageClone failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(staging.Path, "a.txt"), []byte("hello"), 0644); err != nil {
		t.Fatalf("unable to write staged file: %v", err)
	}

	name, err := fs.NextSnapshotName("")
	if err != nil {
		t.Fatalf("NextSnapshotName failed: %v", err)
	}
	if name != "s1" {
		t.Fatalf("expected genesis snapshot name s1, got %q", name)
	}

	if err := fs.Commit(ctx, staging, name); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(root, "live", "a.txt"))
	if err != nil {
		t.Fatalf("expected live tree to contain committed file: %v", err)
	}
	if string(data) != "hello" {
		t.Fatalf("unexpected content: %q", data)
	}

	if _, err := os.Stat(filepath.Join(root, "s1", "a.txt")); err != nil {
		t.Fatalf("expected snapshot directory to contain committed file: %v", err)
	}

	snapshots, err := fs.ListSnapshots(ctx)
	if err != nil {
		t.Fatalf("ListSnapshots failed: %v", err)
	}
	if len(snapshots) != 1 || snapshots[0] != "s1" {
		t.Fatalf("unexpected snapshot list: %v", snapshots)
	}
}

func TestHardlinkFSRollbackLeavesLiveUntouched(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	fs := NewHardlinkFS(root, nil)
	if err := fs.CreateDataset(ctx); err != nil {
		t.Fatalf("CreateDataset failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "live", "original.txt"), []byte("v1"), 0644); err != nil {
		t.Fatalf("unable to seed live tree: %v", err)
	}

	staging, err := fs.StageClone(ctx, "")
	if err != nil {
		t.Fatalf("StageClone failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(staging.Path, "new.txt"), []byte("staged"), 0644); err != nil {
		t.Fatalf("unable to write staged file: %v", err)
	}

	if err := fs.Rollback(ctx, staging); err != nil {
		t.Fatalf("Rollback failed: %v", err)
	}

	if _, err := os.Stat(staging.Path); !os.IsNotExist(err) {
		t.Fatal("expected staging directory to be removed after rollback")
	}
	data, err := os.ReadFile(filepath.Join(root, "live", "original.txt"))
	if err != nil || string(data) != "v1" {
		t.Fatal("rollback must leave the live tree untouched")
	}
}

func TestNextSequentialNameProgression(t *testing.T) {
	tests := []struct {
		previous string
		want     string
	}{
		{"", "s1"},
		{"s1", "s2"},
		{"s9", "s10"},
	}
	for _, test := range tests {
		got, err := nextSequentialName(test.previous)
		if err != nil {
			t.Fatalf("nextSequentialName(%q) failed: %v", test.previous, err)
		}
		if got != test.want {
			t.Fatalf("nextSequentialName(%q) = %q, want %q", test.previous, got, test.want)
		}
	}
}
