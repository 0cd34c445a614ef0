package filesystem

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func buildTarGz(t *testing.T, headers []*tar.Header, contents []string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for i, hdr := range headers {
		require.NoError(t, tw.WriteHeader(hdr))
		if contents[i] != "" {
			_, err := tw.Write([]byte(contents[i]))
			require.NoError(t, err)
		}
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

func TestExtractArchive_Zip(t *testing.T) {
	dest := t.TempDir()
	data := buildZip(t, map[string]string{
		"skill/index.js": "eval(x)",
		"skill/SKILL.md": "# skill",
	})

	n, err := ExtractArchive("bundle.zip", data, dest)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	b, err := os.ReadFile(filepath.Join(dest, "skill", "index.js"))
	require.NoError(t, err)
	assert.Equal(t, "eval(x)", string(b))
}

func TestExtractArchive_TarGz(t *testing.T) {
	dest := t.TempDir()
	data := buildTarGz(t, []*tar.Header{
		{Name: "pkg/", Typeflag: tar.TypeDir, Mode: 0o755},
		{Name: "pkg/run.sh", Typeflag: tar.TypeReg, Mode: 0o644, Size: 9},
	}, []string{"", "rm -rf /x"})

	n, err := ExtractArchive("bundle.TGZ", data, dest)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.FileExists(t, filepath.Join(dest, "pkg", "run.sh"))
}

func TestExtractArchive_Rejects(t *testing.T) {
	tests := []struct {
		name string
		file string
		data func(t *testing.T) []byte
	}{
		{"traversal in zip", "x.zip", func(t *testing.T) []byte {
			return buildZip(t, map[string]string{"../escape.js": "x"})
		}},
		{"absolute path in zip", "x.zip", func(t *testing.T) []byte {
			return buildZip(t, map[string]string{"/etc/cron.d/x.sh": "x"})
		}},
		{"symlink in tar", "x.tar.gz", func(t *testing.T) []byte {
			return buildTarGz(t, []*tar.Header{
				{Name: "link", Typeflag: tar.TypeSymlink, Linkname: "/etc/passwd"},
			}, []string{""})
		}},
		{"corrupt zip", "x.zip", func(t *testing.T) []byte { return []byte("not a zip") }},
		{"empty", "x.zip", func(t *testing.T) []byte { return nil }},
		{"unsupported", "x.rar", func(t *testing.T) []byte { return []byte("rar") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ExtractArchive(tt.file, tt.data(t), t.TempDir())
			assert.Error(t, err)
		})
	}
}

func TestExtractor_Budget(t *testing.T) {
	t.Run("entry over limit", func(t *testing.T) {
		dest := t.TempDir()
		x := &extractor{dest: dest, maxEntry: 4, maxTotal: 100}
		err := x.zip(buildZip(t, map[string]string{"big.js": "0123456789"}))
		assert.True(t, errors.Is(err, errEntryTooLarge), err)
		assert.Equal(t, 0, x.files)
	})

	t.Run("bundle over limit", func(t *testing.T) {
		dest := t.TempDir()
		x := &extractor{dest: dest, maxEntry: 8, maxTotal: 10}
		err := x.tarGz(buildTarGz(t, []*tar.Header{
			{Name: "a.js", Typeflag: tar.TypeReg, Mode: 0o644, Size: 6},
			{Name: "b.js", Typeflag: tar.TypeReg, Mode: 0o644, Size: 6},
		}, []string{"aaaaaa", "bbbbbb"}))
		assert.True(t, errors.Is(err, errBundleTooLarge), err)
		assert.Equal(t, 1, x.files)
		assert.Equal(t, int64(11), x.total)
	})

	t.Run("within limits", func(t *testing.T) {
		dest := t.TempDir()
		x := &extractor{dest: dest, maxEntry: 8, maxTotal: 12}
		require.NoError(t, x.tarGz(buildTarGz(t, []*tar.Header{
			{Name: "a.js", Typeflag: tar.TypeReg, Mode: 0o644, Size: 6},
			{Name: "b.js", Typeflag: tar.TypeReg, Mode: 0o644, Size: 6},
		}, []string{"aaaaaa", "bbbbbb"})))
		assert.Equal(t, 2, x.files)
		assert.Equal(t, int64(12), x.total)
	})
}

func TestEntryPath(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{"a/b.js", "a/b.js", false},
		{"./a//b.js", "a/b.js", false},
		{`dir\file.sh`, "dir/file.sh", false},
		{"../x", "", true},
		{"a/../../x", "", true},
		{"/abs", "", true},
		{"./", "", true},
		{"a\x00b", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := entryPath(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsArchive(t *testing.T) {
	assert.True(t, IsArchive("a.zip"))
	assert.True(t, IsArchive("a.tar.gz"))
	assert.True(t, IsArchive("A.TGZ"))
	assert.False(t, IsArchive("index.js"))
}
