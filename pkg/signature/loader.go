package signature

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/praetorian-inc/sniff/pkg/types"
	"gopkg.in/yaml.v3"
)

// Loader handles loading signatures from YAML files.
type Loader struct {
	fs fs.FS // embedded filesystem for built-in signatures
}

// NewLoader creates a loader with built-in signatures from embedded filesystem.
func NewLoader() *Loader {
	return &Loader{
		fs: builtinSignaturesFS,
	}
}

// NewLoaderWithFS creates a loader with a custom filesystem. Built-in
// signatures are read from its "signatures" directory.
func NewLoaderWithFS(fsys fs.FS) *Loader {
	return &Loader{
		fs: fsys,
	}
}

// LoadSignature loads a single signature from YAML bytes.
// Returns error if YAML is invalid or multiple signatures are present.
func (l *Loader) LoadSignature(data []byte) (*types.Signature, error) {
	sigs, err := l.LoadSignatures(data)
	if err != nil {
		return nil, err
	}
	if len(sigs) > 1 {
		return nil, fmt.Errorf("expected single signature, found %d", len(sigs))
	}
	return sigs[0], nil
}

// LoadSignatures loads every signature in YAML bytes.
func (l *Loader) LoadSignatures(data []byte) ([]*types.Signature, error) {
	var yamlFile yamlSignaturesFile
	if err := yaml.Unmarshal(data, &yamlFile); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if len(yamlFile.Signatures) == 0 {
		return nil, fmt.Errorf("no signatures found in YAML")
	}

	sigs := make([]*types.Signature, 0, len(yamlFile.Signatures))
	for _, ys := range yamlFile.Signatures {
		s, err := convertYAMLSignature(ys)
		if err != nil {
			return nil, err
		}
		sigs = append(sigs, s)
	}
	return sigs, nil
}

// LoadSignatureFile loads every signature from a YAML file path.
func (l *Loader) LoadSignatureFile(path string) ([]*types.Signature, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	sigs, err := l.LoadSignatures(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return sigs, nil
}

// LoadSignaturePath loads signatures from a YAML file, or from every .yml and
// .yaml file below a directory.
func (l *Loader) LoadSignaturePath(path string) ([]*types.Signature, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if !info.IsDir() {
		return l.LoadSignatureFile(path)
	}

	var sigs []*types.Signature
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isYAML(p) {
			return nil
		}
		loaded, err := l.LoadSignatureFile(p)
		if err != nil {
			return err
		}
		sigs = append(sigs, loaded...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(sigs) == 0 {
		return nil, fmt.Errorf("no signature files found in %s", path)
	}
	return sigs, nil
}

// LoadBuiltinSignatures loads all built-in signatures from embedded filesystem.
func (l *Loader) LoadBuiltinSignatures() ([]*types.Signature, error) {
	var sigs []*types.Signature

	err := fs.WalkDir(l.fs, "signatures", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isYAML(path) {
			return nil
		}

		data, err := fs.ReadFile(l.fs, path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		loaded, err := l.LoadSignatures(data)
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
		sigs = append(sigs, loaded...)
		return nil
	})

	if err != nil {
		return nil, err
	}

	return sigs, nil
}

func isYAML(path string) bool {
	ext := filepath.Ext(path)
	return ext == ".yml" || ext == ".yaml"
}
