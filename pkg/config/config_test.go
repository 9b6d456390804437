package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestProjectLoadSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".dsgconfig.yml")

	project := &Project{
		Name:      "example",
		Transport: TransportSSH,
		SSH:       SSHEndpoint{Host: "backend.example.com", Path: "/data/example", Type: RepositoryZFS},
		DataDirs:  []string{"input", "output"},
		Ignore:    Ignore{Names: []string{".DS_Store"}},
	}
	if err := project.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := LoadProject(path)
	if err != nil {
		t.Fatalf("LoadProject failed: %v", err)
	}
	if loaded.Name != project.Name || loaded.SSH.Host != project.SSH.Host {
		t.Fatalf("round trip mismatch: %+v", loaded)
	}
}

func TestProjectEnsureValidRejectsBadTransport(t *testing.T) {
	project := &Project{Name: "x", Transport: "ftp"}
	if err := project.EnsureValid(); err == nil {
		t.Fatal("expected unrecognized transport to be rejected")
	}
}

func TestProjectEnsureValidRequiresSSHFields(t *testing.T) {
	project := &Project{Name: "x", Transport: TransportSSH}
	if err := project.EnsureValid(); err == nil {
		t.Fatal("expected missing ssh host/path to be rejected")
	}
}

func TestProjectEnsureValidRejectsEmptyName(t *testing.T) {
	project := &Project{Transport: TransportLocal}
	if err := project.EnsureValid(); err == nil {
		t.Fatal("expected empty name to be rejected")
	}
}

func TestLoadProjectMissingFile(t *testing.T) {
	if _, err := LoadProject(filepath.Join(t.TempDir(), "missing.yml")); err == nil {
		t.Fatal("expected missing file to be rejected")
	}
}

func TestUserEnsureValidRequiresEmailUserID(t *testing.T) {
	user := &User{UserName: "jane", UserID: "not-an-email"}
	if err := user.EnsureValid(false); err == nil {
		t.Fatal("expected non-email user_id to be rejected")
	}
}

func TestUserEnsureValidRequiresHostAndPathTogether(t *testing.T) {
	user := &User{UserName: "jane", UserID: "jane@example.com", DefaultHost: "host"}
	if err := user.EnsureValid(false); err == nil {
		t.Fatal("expected default_host without default_path to be rejected")
	}
}

func TestSystemWideConfigRejectsPersonalFields(t *testing.T) {
	user := &User{UserName: "jane"}
	if err := user.EnsureValid(true); err == nil {
		t.Fatal("expected system-wide config with personal fields to be rejected")
	}
}

func TestUserLoadSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "user.yml")

	user := &User{UserName: "jane", UserID: "jane@example.com", DefaultHost: "backend", DefaultPath: "/data"}
	if err := user.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	loaded, err := LoadUser(path)
	if err != nil {
		t.Fatalf("LoadUser failed: %v", err)
	}
	if loaded.UserName != "jane" || loaded.DefaultPath != "/data" {
		t.Fatalf("round trip mismatch: %+v", loaded)
	}
}

func TestLoadSystemDefaultsMissingFileIsNotError(t *testing.T) {
	defaults, err := LoadSystemDefaults(filepath.Join(t.TempDir(), "missing.yml"))
	if err != nil {
		t.Fatalf("expected missing system defaults to be treated as empty, got error: %v", err)
	}
	if defaults.DefaultHost != "" {
		t.Fatal("expected empty defaults")
	}
}

func TestWithSystemDefaultsFillsUnsetFields(t *testing.T) {
	user := User{UserName: "jane", UserID: "jane@example.com"}
	defaults := &User{DefaultHost: "backend", DefaultPath: "/data"}

	merged := user.WithSystemDefaults(defaults)
	if merged.DefaultHost != "backend" || merged.DefaultPath != "/data" {
		t.Fatalf("expected defaults to fill unset fields, got %+v", merged)
	}
}

func TestUserConfigPathUnderHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	path, err := UserConfigPath()
	if err != nil {
		t.Fatalf("UserConfigPath failed: %v", err)
	}
	if filepath.Dir(path) != home {
		t.Fatalf("expected path under %q, got %q", home, path)
	}
}

func TestSaveCreatesFileWithRestrictedPermissions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "user.yml")
	user := &User{UserName: "jane", UserID: "jane@example.com"}
	if err := user.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Fatalf("expected 0600 permissions, got %v", info.Mode().Perm())
	}
}
