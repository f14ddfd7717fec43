// Package fileio persists rendered documents and reads input files, optionally
// under an alternate identity supplied by the host.
package fileio

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Sentinel errors for file operations.
var (
	ErrFileExists               = errors.New("fileio: file already exists")
	ErrInvalidCredentials       = errors.New(`fileio: user name must be of format domain\username`)
	ErrImpersonationUnsupported = errors.New("fileio: writing as another identity is not supported on this host")
	ErrInvalidExistsAction      = errors.New("fileio: invalid file exists action")
)

// ExistsAction selects what happens when the target file already exists.
type ExistsAction int

const (
	ExistsError ExistsAction = iota
	ExistsOverwrite
	ExistsRename
)

var existsActionNames = []string{"Error", "Overwrite", "Rename"}

func (a ExistsAction) String() string {
	if a >= 0 && int(a) < len(existsActionNames) {
		return existsActionNames[a]
	}
	return fmt.Sprintf("ExistsAction(%d)", int(a))
}

// ParseExistsAction parses a case-insensitive action name.
func ParseExistsAction(s string) (ExistsAction, error) {
	for i, n := range existsActionNames {
		if strings.EqualFold(strings.TrimSpace(s), n) {
			return ExistsAction(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidExistsAction, s)
}

// MarshalText implements encoding.TextMarshaler.
func (a ExistsAction) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *ExistsAction) UnmarshalText(b []byte) error {
	v, err := ParseExistsAction(string(b))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// Exists reports whether path names an existing file.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// ResolvePath joins dir and name and applies action when the file exists.
// Rename appends "_(1)", "_(2)", ... before the extension until exists
// reports a free name.
func ResolvePath(dir, name string, action ExistsAction, exists func(string) bool) (string, error) {
	if exists == nil {
		exists = Exists
	}
	path := filepath.Join(dir, name)
	if !exists(path) {
		return path, nil
	}
	switch action {
	case ExistsOverwrite:
		return path, nil
	case ExistsRename:
		ext := filepath.Ext(name)
		stem := strings.TrimSuffix(name, ext)
		for i := 1; ; i++ {
			candidate := filepath.Join(dir, fmt.Sprintf("%s_(%d)%s", stem, i, ext))
			if !exists(candidate) {
				return candidate, nil
			}
		}
	case ExistsError:
		return "", fmt.Errorf("%w: %s", ErrFileExists, path)
	default:
		return "", fmt.Errorf("%w: %d", ErrInvalidExistsAction, int(action))
	}
}

// Identity is an alternate account used for file access.
type Identity struct {
	Domain   string
	User     string
	Password string
}

// String returns domain\user without the password.
func (id *Identity) String() string {
	return id.Domain + `\` + id.User
}

// ParseIdentity splits a domain\username pair.
func ParseIdentity(userName, password string) (*Identity, error) {
	parts := strings.Split(userName, `\`)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return nil, fmt.Errorf("%w, was: %s", ErrInvalidCredentials, userName)
	}
	return &Identity{Domain: parts[0], User: parts[1], Password: password}, nil
}

// Impersonator runs fn while acting as id.
type Impersonator func(id *Identity, fn func() error) error

// Writer persists bytes to a path, optionally as another identity.
type Writer interface {
	WriteFile(path string, data []byte, id *Identity) error
}

// WriterFunc adapts a function to Writer.
type WriterFunc func(path string, data []byte, id *Identity) error

// WriteFile calls f.
func (f WriterFunc) WriteFile(path string, data []byte, id *Identity) error {
	return f(path, data, id)
}

// Reader reads a file, optionally as another identity.
type Reader interface {
	ReadFile(path string, id *Identity) ([]byte, error)
}

// Local reads and writes the local filesystem. A nil Impersonate rejects
// any request carrying an identity.
type Local struct {
	Impersonate Impersonator
	Perm        fs.FileMode
}

// NewLocal returns a Local using mode 0644 for new files.
func NewLocal(imp Impersonator) *Local {
	return &Local{Impersonate: imp, Perm: 0o644}
}

func (l *Local) as(id *Identity, fn func() error) error {
	if id == nil {
		return fn()
	}
	if l.Impersonate == nil {
		return ErrImpersonationUnsupported
	}
	return l.Impersonate(id, fn)
}

// WriteFile writes data to a temporary file next to path and renames it
// into place, so a failed write never leaves a truncated document behind.
func (l *Local) WriteFile(path string, data []byte, id *Identity) error {
	return l.as(id, func() error {
		tmp, err := os.CreateTemp(filepath.Dir(path), ".pdftemplate-*")
		if err != nil {
			return fmt.Errorf("fileio: creating temp file: %w", err)
		}
		tmpName := tmp.Name()
		cleanup := func() { _ = os.Remove(tmpName) }

		if _, err := tmp.Write(data); err != nil {
			_ = tmp.Close()
			cleanup()
			return fmt.Errorf("fileio: writing %s: %w", path, err)
		}
		if err := tmp.Close(); err != nil {
			cleanup()
			return fmt.Errorf("fileio: closing %s: %w", path, err)
		}
		perm := l.Perm
		if perm == 0 {
			perm = 0o644
		}
		if err := os.Chmod(tmpName, perm); err != nil {
			cleanup()
			return fmt.Errorf("fileio: chmod %s: %w", path, err)
		}
		if err := os.Rename(tmpName, path); err != nil {
			cleanup()
			return fmt.Errorf("fileio: renaming into %s: %w", path, err)
		}
		return nil
	})
}

// ReadFile reads the whole file at path.
func (l *Local) ReadFile(path string, id *Identity) ([]byte, error) {
	var data []byte
	err := l.as(id, func() error {
		var err error
		data, err = os.ReadFile(path)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("fileio: reading %s: %w", path, err)
	}
	return data, nil
}
