package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dsg-dev/dsg-sync/pkg/dsgerrors"
	"github.com/dsg-dev/dsg-sync/pkg/filesystem"
)

// UserConfigFileName is the per-user configuration file name, read from the
// user's home directory (spec §6, "A separate per-user file").
const UserConfigFileName = ".dsgconfig-user.yml"

// SystemConfigPath is the system-wide defaults file (spec §6, "A
// system-wide file may provide defaults for the latter only; personal
// fields are rejected there").
const SystemConfigPath = "/etc/dsg/config.yml"

// User is the per-user configuration (spec §6): identity plus optional
// default remote host and path.
type User struct {
	UserName    string `yaml:"user_name"`
	UserID      string `yaml:"user_id"`
	DefaultHost string `yaml:"default_host,omitempty"`
	DefaultPath string `yaml:"default_path,omitempty"`
}

// UserConfigPath returns the path to the current user's configuration file
// under their home directory.
func UserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", dsgerrors.Wrap(dsgerrors.KindConfig, "unable to compute home directory", err)
	}
	return filepath.Join(home, UserConfigFileName), nil
}

// LoadUser loads and validates the per-user configuration at path.
func LoadUser(path string) (*User, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, dsgerrors.Wrap(dsgerrors.KindConfig, "missing user configuration", err)
		}
		return nil, dsgerrors.Wrap(dsgerrors.KindConfig, "unable to read user configuration", err)
	}

	user := &User{}
	if err := yaml.Unmarshal(data, user); err != nil {
		return nil, dsgerrors.Wrap(dsgerrors.KindConfig, "unable to parse user configuration", err)
	}
	if err := user.EnsureValid(false); err != nil {
		return nil, err
	}
	return user, nil
}

// Save marshals and atomically writes the user configuration to path.
func (u *User) Save(path string) error {
	if err := u.EnsureValid(false); err != nil {
		return err
	}
	data, err := yaml.Marshal(u)
	if err != nil {
		return fmt.Errorf("unable to marshal user configuration: %w", err)
	}
	if err := filesystem.WriteFileAtomic(path, data, 0600, nil); err != nil {
		return fmt.Errorf("unable to write user configuration: %w", err)
	}
	return nil
}

// EnsureValid validates the user configuration (spec §6). When systemWide
// is true, personal fields (UserName, UserID) must be absent, since a
// system-wide file may only provide host/path defaults.
func (u *User) EnsureValid(systemWide bool) error {
	if systemWide {
		if u.UserName != "" || u.UserID != "" {
			return dsgerrors.New(dsgerrors.KindConfig, "system-wide configuration must not set personal fields")
		}
		return nil
	}

	if u.UserName == "" {
		return dsgerrors.New(dsgerrors.KindConfig, "user_name must not be empty")
	}
	if u.UserID == "" || !strings.Contains(u.UserID, "@") {
		return dsgerrors.New(dsgerrors.KindConfig, "user_id must be an email-form identifier")
	}
	if (u.DefaultHost == "") != (u.DefaultPath == "") {
		return dsgerrors.New(dsgerrors.KindConfig, "default_host and default_path must be set together")
	}
	return nil
}

// LoadSystemDefaults loads the system-wide configuration file, if present,
// applying systemWide validation. A missing file is not an error: callers
// treat it as "no system defaults".
func LoadSystemDefaults(path string) (*User, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &User{}, nil
		}
		return nil, dsgerrors.Wrap(dsgerrors.KindConfig, "unable to read system configuration", err)
	}

	defaults := &User{}
	if err := yaml.Unmarshal(data, defaults); err != nil {
		return nil, dsgerrors.Wrap(dsgerrors.KindConfig, "unable to parse system configuration", err)
	}
	if err := defaults.EnsureValid(true); err != nil {
		return nil, err
	}
	return defaults, nil
}

// WithSystemDefaults returns a copy of u with DefaultHost/DefaultPath filled
// in from defaults when u leaves them unset.
func (u User) WithSystemDefaults(defaults *User) User {
	if defaults == nil {
		return u
	}
	if u.DefaultHost == "" {
		u.DefaultHost = defaults.DefaultHost
	}
	if u.DefaultPath == "" {
		u.DefaultPath = defaults.DefaultPath
	}
	return u
}
