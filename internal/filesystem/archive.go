package filesystem

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Extraction limits for uploaded skill bundles
const (
	MaxArchiveEntryBytes = 5 << 20  // 5 MiB per archive entry
	MaxArchiveTotalBytes = 40 << 20 // 40 MiB total extracted bytes
)

var (
	// ErrUnsupportedArchive is returned for uploads that are not zip or tar.gz
	ErrUnsupportedArchive = errors.New("unsupported archive format (expected .zip or .tar.gz/.tgz)")

	errEntryTooLarge  = errors.New("archive entry too large")
	errBundleTooLarge = errors.New("archive too large when extracted")
)

// IsArchive reports whether name carries an archive extension
func IsArchive(name string) bool {
	return archiveKind(name) != ""
}

func archiveKind(name string) string {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".zip"):
		return "zip"
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"):
		return "tgz"
	}
	return ""
}

// ExtractArchive unpacks a zip or tar.gz bundle below dest and returns the
// number of files written. Links, absolute paths and traversal segments are
// rejected. Entries are streamed to disk; on error dest may hold a partial tree.
func ExtractArchive(name string, data []byte, dest string) (int, error) {
	if len(data) == 0 {
		return 0, errors.New("empty archive")
	}

	x := &extractor{dest: dest, maxEntry: MaxArchiveEntryBytes, maxTotal: MaxArchiveTotalBytes}
	var err error
	switch archiveKind(name) {
	case "zip":
		err = x.zip(data)
	case "tgz":
		err = x.tarGz(data)
	default:
		return 0, ErrUnsupportedArchive
	}
	return x.files, err
}

// extractor writes archive members below dest within a byte budget
type extractor struct {
	dest     string
	maxEntry int64
	maxTotal int64

	total int64
	files int
}

func (x *extractor) zip(data []byte) error {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return err
	}
	for _, f := range zr.File {
		mode := f.Mode()
		switch {
		case mode.IsDir():
			continue
		case mode&os.ModeSymlink != 0:
			return fmt.Errorf("symlink entry not allowed: %s", f.Name)
		case !mode.IsRegular():
			return fmt.Errorf("unsupported zip entry type for %s", f.Name)
		}
		if f.UncompressedSize64 > uint64(x.maxEntry) {
			return fmt.Errorf("%w: %s", errEntryTooLarge, f.Name)
		}

		rc, err := f.Open()
		if err != nil {
			return err
		}
		err = x.write(f.Name, rc)
		rc.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func (x *extractor) tarGz(data []byte) error {
	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return err
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		switch hdr.Typeflag {
		case tar.TypeDir, tar.TypeXGlobalHeader, tar.TypeXHeader:
		case tar.TypeSymlink, tar.TypeLink:
			return fmt.Errorf("link entry not allowed: %s", hdr.Name)
		case tar.TypeReg:
			if hdr.Size > x.maxEntry {
				return fmt.Errorf("%w: %s", errEntryTooLarge, hdr.Name)
			}
			if err := x.write(hdr.Name, tr); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unsupported tar entry type for %s", hdr.Name)
		}
	}
}

// write copies one member to disk, counting the bytes actually read rather
// than the size the archive header claims.
func (x *extractor) write(name string, r io.Reader) error {
	rel, err := entryPath(name)
	if err != nil {
		return fmt.Errorf("unsafe archive path %q: %w", name, err)
	}
	target := filepath.Join(x.dest, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	limit := x.maxEntry
	if left := x.maxTotal - x.total; left < limit {
		limit = left
	}
	n, err := io.Copy(out, io.LimitReader(r, limit+1))
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}

	x.total += n
	switch {
	case n > x.maxEntry:
		return fmt.Errorf("%w: %s", errEntryTooLarge, name)
	case x.total > x.maxTotal:
		return errBundleTooLarge
	}
	x.files++
	return nil
}

// entryPath turns an archive member name into a clean slash-separated path
// that stays below the extraction root.
func entryPath(name string) (string, error) {
	p := strings.ReplaceAll(strings.TrimSpace(name), `\`, "/")
	switch {
	case p == "":
		return "", errors.New("empty name")
	case strings.IndexByte(p, 0) >= 0:
		return "", errors.New("NUL byte in name")
	case strings.HasPrefix(p, "/"), filepath.VolumeName(p) != "":
		return "", errors.New("absolute name")
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return "", errors.New("parent directory segment")
		}
	}

	clean := path.Clean(p)
	if clean == "." {
		return "", errors.New("name resolves to the root")
	}
	return clean, nil
}
