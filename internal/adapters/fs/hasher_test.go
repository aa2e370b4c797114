package fs_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gantryproject/gantry/internal/adapters/fs"
	"github.com/gantryproject/gantry/internal/core/domain"
)

func instance(t *testing.T, root string) *domain.Instance {
	t.Helper()
	return &domain.Instance{
		ID:            "smoke.stream.0000",
		Template:      &domain.Template{Root: root, Build: domain.BuildSpec{Source: []string{"stream.c"}}},
		BuildCommands: []string{"cc -O2 -o stream $GANTRY_SRC/stream.c"},
		BuildEnv:      map[string]string{"CC": "cc"},
		RunCommands:   []string{"./stream 4"},
	}
}

func writeSource(t *testing.T, root, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(root, "stream.c"), []byte(content), 0o644))
}

func TestFingerprint_PureFunctionOfBuildInputs(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "int main() { return 0; }")
	hasher := fs.NewHasher()

	first, err := hasher.Fingerprint(instance(t, root))
	require.NoError(t, err)
	require.Len(t, string(first), 16)

	// A different instance with identical build inputs hashes identically.
	other := instance(t, root)
	other.ID = "smoke.stream.0042"
	other.RunCommands = []string{"./stream 99"}
	other.RunEnv = map[string]string{"OMP_NUM_THREADS": "16"}
	other.DeferredVars = map[string]string{"nnodes": domain.FactNodes}

	second, err := hasher.Fingerprint(other)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestFingerprint_ChangesWithBuildInputs(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "int main() { return 0; }")
	hasher := fs.NewHasher()

	base, err := hasher.Fingerprint(instance(t, root))
	require.NoError(t, err)

	command := instance(t, root)
	command.BuildCommands = []string{"cc -O3 -o stream $GANTRY_SRC/stream.c"}
	changed, err := hasher.Fingerprint(command)
	require.NoError(t, err)
	assert.NotEqual(t, base, changed)

	env := instance(t, root)
	env.BuildEnv = map[string]string{"CC": "clang"}
	changed, err = hasher.Fingerprint(env)
	require.NoError(t, err)
	assert.NotEqual(t, base, changed)

	writeSource(t, root, "int main() { return 1; }")
	changed, err = hasher.Fingerprint(instance(t, root))
	require.NoError(t, err)
	assert.NotEqual(t, base, changed)
}

func TestFingerprint_MissingSource(t *testing.T) {
	root := t.TempDir()

	_, err := fs.NewHasher().Fingerprint(instance(t, root))
	require.Error(t, err)
	assert.Contains(t, err.Error(), domain.ErrSourceNotFound.Error())
}
