// Package config implements the project and user configuration files (spec
// §6): .dsgconfig.yml at a working copy root, and a separate per-user (or
// system-wide) configuration, both YAML-backed and validated with an
// EnsureValid method in the style of the teacher's configuration.Load /
// session.Configuration.EnsureValid pair.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dsg-dev/dsg-sync/pkg/dsgerrors"
	"github.com/dsg-dev/dsg-sync/pkg/filesystem"
)

// Transport identifies the kind of transport a project config names.
type Transport string

const (
	TransportLocal  Transport = "local"
	TransportSSH    Transport = "ssh"
	TransportRclone Transport = "rclone"
	TransportIPFS   Transport = "ipfs"
)

func (t Transport) valid() bool {
	switch t {
	case TransportLocal, TransportSSH, TransportRclone, TransportIPFS:
		return true
	default:
		return false
	}
}

// RepositoryType identifies the backend filesystem kind a repository
// section names (spec §6, "richer variant that names a repository type").
type RepositoryType string

const (
	RepositoryZFS   RepositoryType = "zfs"
	RepositoryXFS   RepositoryType = "xfs"
	RepositoryLocal RepositoryType = "local"
)

func (r RepositoryType) valid() bool {
	switch r {
	case RepositoryZFS, RepositoryXFS, RepositoryLocal:
		return true
	default:
		return false
	}
}

// SSHEndpoint describes the `ssh:` section used when Transport is
// TransportSSH (spec §6, "{host, path, name?, type}").
type SSHEndpoint struct {
	Host string         `yaml:"host"`
	Path string         `yaml:"path"`
	Name string         `yaml:"name,omitempty"`
	Type RepositoryType `yaml:"type"`
}

// Repository describes an explicit backend repository variant (spec §6,
// "names a repository type and its parameters").
type Repository struct {
	Type RepositoryType `yaml:"type"`
	// Pool is the ZFS pool name, used when Type is RepositoryZFS.
	Pool string `yaml:"pool,omitempty"`
	// Dataset is the dataset (or XFS subvolume) name.
	Dataset string `yaml:"dataset,omitempty"`
	// Mountpoint is the backend-side mount path.
	Mountpoint string `yaml:"mountpoint,omitempty"`
	// DID is the IPFS decentralized identifier, used when the transport is
	// TransportIPFS.
	DID string `yaml:"did,omitempty"`
	// RcloneRemote names the configured rclone remote, used when the
	// transport is TransportRclone.
	RcloneRemote string `yaml:"rclone_remote,omitempty"`
}

// Ignore describes the ignore section (spec §6, "{names, suffixes, paths}").
type Ignore struct {
	Names    []string `yaml:"names,omitempty"`
	Suffixes []string `yaml:"suffixes,omitempty"`
	Paths    []string `yaml:"paths,omitempty"`
}

// Project is the parsed form of .dsgconfig.yml (spec §6).
type Project struct {
	Name       string      `yaml:"name"`
	Transport  Transport   `yaml:"transport"`
	SSH        SSHEndpoint `yaml:"ssh,omitempty"`
	Repository Repository  `yaml:"repository,omitempty"`
	DataDirs   []string    `yaml:"data_dirs,omitempty"`
	Ignore     Ignore      `yaml:"ignore,omitempty"`
}

// LoadProject loads and validates the project configuration at path,
// typically filesystem.ProjectConfigName under a working copy root.
func LoadProject(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, dsgerrors.Wrap(dsgerrors.KindConfig, "missing project configuration", err)
		}
		return nil, dsgerrors.Wrap(dsgerrors.KindConfig, "unable to read project configuration", err)
	}

	project := &Project{}
	if err := yaml.Unmarshal(data, project); err != nil {
		return nil, dsgerrors.Wrap(dsgerrors.KindConfig, "unable to parse project configuration", err)
	}

	if err := project.EnsureValid(); err != nil {
		return nil, err
	}

	return project, nil
}

// Save marshals and atomically writes the project configuration to path.
func (p *Project) Save(path string) error {
	if err := p.EnsureValid(); err != nil {
		return err
	}
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("unable to marshal project configuration: %w", err)
	}
	if err := filesystem.WriteFileAtomic(path, data, 0644, nil); err != nil {
		return fmt.Errorf("unable to write project configuration: %w", err)
	}
	return nil
}

// EnsureValid validates the project configuration's invariants (spec §6):
// a non-empty name, a recognized transport, an ssh section when the
// transport is ssh, and a recognized repository type when one is given.
func (p *Project) EnsureValid() error {
	if p.Name == "" {
		return dsgerrors.New(dsgerrors.KindConfig, "project name must not be empty")
	}
	if !p.Transport.valid() {
		return dsgerrors.New(dsgerrors.KindConfig, fmt.Sprintf("unrecognized transport %q", p.Transport))
	}
	if p.Transport == TransportSSH {
		if p.SSH.Host == "" || p.SSH.Path == "" {
			return dsgerrors.New(dsgerrors.KindConfig, "ssh transport requires host and path")
		}
		if p.SSH.Type != "" && !p.SSH.Type.valid() {
			return dsgerrors.New(dsgerrors.KindConfig, fmt.Sprintf("unrecognized ssh repository type %q", p.SSH.Type))
		}
	}
	if p.Repository.Type != "" && !p.Repository.Type.valid() {
		return dsgerrors.New(dsgerrors.KindConfig, fmt.Sprintf("unrecognized repository type %q", p.Repository.Type))
	}
	for _, dir := range p.DataDirs {
		if dir == "" {
			return dsgerrors.New(dsgerrors.KindConfig, "data_dirs entries must not be empty")
		}
	}
	return nil
}
