package srcpack

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePackaged(t *testing.T) *Packaged {
	t.Helper()
	binary := make([]byte, 256)
	for i := range binary {
		binary[i] = byte(i)
	}
	a, err := NewEntry("src/lib.rs", []byte("pub fn add(a: u32, b: u32) -> u32 { a + b }\n"),
		EntryWithModule("."), EntryWithDependencyDepth(0))
	require.NoError(t, err)
	b, err := NewEntry("assets/blob.bin", binary, EntryWithDependencyDepth(1))
	require.NoError(t, err)
	c, err := NewEntry("tests/empty.rs", nil, EntryWithTestFile(true))
	require.NoError(t, err)
	return New(Metadata{"name": "adder", "version": "0.1.0"}, []Entry{c, b, a})
}

func TestSaveAndLoad(t *testing.T) {
	p := samplePackaged(t)

	for _, tc := range []struct {
		name string
		file string
		opts []SaveOption
	}{
		{"plain", "adder.source.json", nil},
		{"zst suffix", "adder.source.json.zst", nil},
		{"forced compression", "adder.source.json", []SaveOption{SaveWithCompression(true)}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tc.file)
			require.NoError(t, p.SaveToFile(path, tc.opts...))

			loaded, err := FromFile(path)
			require.NoError(t, err)
			assert.Equal(t, p.Metadata(), loaded.Metadata())
			assert.Equal(t, entryPaths(p.Entries()), entryPaths(loaded.Entries()))
			for _, want := range p.Entries() {
				got, ok := loaded.Entry(want.Path())
				require.True(t, ok)
				assert.Equal(t, want.Content(), got.Content())
				assert.Equal(t, want.DependencyDepth(), got.DependencyDepth())
				assert.Equal(t, want.IsTestFile(), got.IsTestFile())
				wm, wok := want.Module()
				gm, gok := got.Module()
				assert.Equal(t, wok, gok)
				assert.Equal(t, wm, gm)
			}
		})
	}
}

func TestSaveCompressionDetection(t *testing.T) {
	p := samplePackaged(t)
	dir := t.TempDir()

	plain := filepath.Join(dir, "plain.json")
	packed := filepath.Join(dir, "packed.json.zst")
	require.NoError(t, p.SaveToFile(plain))
	require.NoError(t, p.SaveToFile(packed))

	plainData, err := os.ReadFile(plain)
	require.NoError(t, err)
	packedData, err := os.ReadFile(packed)
	require.NoError(t, err)

	assert.Equal(t, byte('{'), plainData[0])
	assert.True(t, bytes.HasPrefix(packedData, zstdMagic))

	off := filepath.Join(dir, "off.json.zst")
	require.NoError(t, p.SaveToFile(off, SaveWithCompression(false)))
	offData, err := os.ReadFile(off)
	require.NoError(t, err)
	assert.Equal(t, plainData, offData)
}

func TestSaveDoesNotCreateDirectories(t *testing.T) {
	p := samplePackaged(t)
	path := filepath.Join(t.TempDir(), "missing", "out.json")

	err := p.SaveToFile(path)
	require.ErrorIs(t, err, ErrWrite)
	_, statErr := os.Stat(filepath.Dir(path))
	assert.True(t, os.IsNotExist(statErr))
}

func TestSaveReplacesExistingFile(t *testing.T) {
	p := samplePackaged(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "out.json")
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0o644))

	require.NoError(t, p.SaveToFile(path))
	loaded, err := FromFile(path)
	require.NoError(t, err)
	assert.Equal(t, p.Len(), loaded.Len())

	leftovers, err := filepath.Glob(filepath.Join(dir, ".srcpack-*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestFromFileErrors(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing", func(t *testing.T) {
		_, err := FromFile(filepath.Join(dir, "nope.json"))
		assert.ErrorIs(t, err, ErrRead)
	})

	t.Run("garbage", func(t *testing.T) {
		path := filepath.Join(dir, "garbage.json")
		require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))
		_, err := FromFile(path)
		assert.ErrorIs(t, err, ErrMalformedManifest)
	})

	t.Run("truncated zstd", func(t *testing.T) {
		path := filepath.Join(dir, "broken.zst")
		require.NoError(t, os.WriteFile(path, append(bytes.Clone(zstdMagic), 0x00, 0x01), 0o644))
		_, err := FromFile(path)
		assert.ErrorIs(t, err, ErrMalformedManifest)
	})

	t.Run("too large", func(t *testing.T) {
		path := filepath.Join(dir, "big.json")
		require.NoError(t, samplePackaged(t).SaveToFile(path))
		_, err := FromFile(path, LoadWithMaxSize(16))
		assert.ErrorIs(t, err, ErrRead)
	})
}

func TestEncodeDecode(t *testing.T) {
	p := samplePackaged(t)

	for _, compress := range []bool{false, true} {
		var buf bytes.Buffer
		require.NoError(t, p.Encode(&buf, SaveWithCompression(compress)))

		loaded, err := Decode(&buf)
		require.NoError(t, err)
		assert.Equal(t, entryPaths(p.Entries()), entryPaths(loaded.Entries()))
	}
}

func TestDecodeExpectedDigest(t *testing.T) {
	p := samplePackaged(t)
	want, err := p.Digest()
	require.NoError(t, err)

	t.Run("match plain", func(t *testing.T) {
		data, err := p.MarshalJSON()
		require.NoError(t, err)
		_, err = Decode(bytes.NewReader(data), LoadWithExpectedDigest(want))
		assert.NoError(t, err)
	})

	t.Run("match compressed", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, p.Encode(&buf, SaveWithCompression(true)))
		_, err := Decode(&buf, LoadWithExpectedDigest(want))
		assert.NoError(t, err)
	})

	t.Run("mismatch", func(t *testing.T) {
		data, err := p.MarshalJSON()
		require.NoError(t, err)
		loaded, err := Decode(bytes.NewReader(data), LoadWithExpectedDigest(digest.FromString("other")))
		assert.Nil(t, loaded)
		assert.ErrorIs(t, err, ErrDigestMismatch)
	})

	t.Run("invalid expected digest", func(t *testing.T) {
		data, err := p.MarshalJSON()
		require.NoError(t, err)
		_, err = Decode(bytes.NewReader(data), LoadWithExpectedDigest("sha256:nothex"))
		assert.Error(t, err)
	})
}
