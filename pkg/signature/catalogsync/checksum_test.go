package catalogsync

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChecksum(t *testing.T) {
	sum := Checksum([]byte("abc"))
	assert.Equal(t, "sha256:ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", sum)

	require.NoError(t, VerifyChecksum([]byte("abc"), sum))
	require.NoError(t, VerifyChecksum([]byte("abc"), strings.ToUpper(strings.TrimPrefix(sum, "sha256:"))))
	assert.ErrorIs(t, VerifyChecksum([]byte("abd"), sum), ErrChecksumMismatch)
	assert.Error(t, VerifyChecksum([]byte("abc"), "  "))
}

func TestService_SyncVerifiesChecksum(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.yaml")
	require.NoError(t, os.WriteFile(src, []byte(catalogYAML), 0o644))

	store := &memStore{}
	_, err := Service{Source: FileSource{Path: src}, Store: store, Checksum: "sha256:00"}.Sync(context.Background())
	assert.ErrorIs(t, err, ErrChecksumMismatch)
	assert.Nil(t, store.saved)

	_, err = Service{Source: FileSource{Path: src}, Store: store, Checksum: Checksum([]byte(catalogYAML))}.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, catalogYAML, string(store.saved))
}
