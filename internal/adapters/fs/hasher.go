// Package fs provides filesystem-backed hashing for build fingerprints.
package fs

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/cespare/xxhash/v2"
	"github.com/gantryproject/gantry/internal/core/domain"
	"github.com/gantryproject/gantry/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.FingerprintHasher = (*Hasher)(nil)

// Hasher computes build fingerprints with xxhash. The fingerprint covers
// the substituted build commands, the build environment and the content of
// the declared source files; run-only and deferred variables never reach
// any of those, so they cannot affect it.
type Hasher struct{}

// NewHasher creates a new Hasher.
func NewHasher() *Hasher {
	return &Hasher{}
}

// Fingerprint hashes the instance's build inputs.
func (h *Hasher) Fingerprint(inst *domain.Instance) (domain.Fingerprint, error) {
	hasher := xxhash.New()

	for _, cmd := range inst.BuildCommands {
		_, _ = hasher.WriteString(cmd)
		_, _ = hasher.Write([]byte{0})
	}
	_, _ = hasher.Write([]byte{0}) // Section separator

	hashEnv(inst.BuildEnv, hasher)

	if err := h.hashSources(inst.Template, hasher); err != nil {
		return "", err
	}

	return domain.Fingerprint(fmt.Sprintf("%016x", hasher.Sum64())), nil
}

// hashEnv hashes environment variables in a deterministic order.
func hashEnv(env map[string]string, hasher *xxhash.Digest) {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		_, _ = hasher.WriteString(k)
		_, _ = hasher.Write([]byte{'='})
		_, _ = hasher.WriteString(env[k])
		_, _ = hasher.Write([]byte{0})
	}
	_, _ = hasher.Write([]byte{0})
}

// hashSources hashes the declared source files by path and content, so the
// fingerprint changes whenever a build input changes on disk.
func (h *Hasher) hashSources(tmpl *domain.Template, hasher *xxhash.Digest) error {
	for _, src := range tmpl.Build.Source {
		path := filepath.Join(tmpl.Root, src)

		_, _ = hasher.WriteString(src)
		_, _ = hasher.Write([]byte{0})

		if err := hashFile(path, hasher); err != nil {
			return err
		}
	}
	return nil
}

func hashFile(path string, hasher *xxhash.Digest) error {
	f, err := os.Open(path) //nolint:gosec // Path comes from the suite file
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrSourceNotFound.Error()), "path", path)
	}
	defer f.Close() //nolint:errcheck // Best effort close in defer

	if _, err := io.Copy(hasher, f); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to hash source content"), "path", path)
	}
	return nil
}
