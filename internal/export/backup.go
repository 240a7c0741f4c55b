package export

import (
	"crypto/md5"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/golang/snappy"

	"github.com/gridb/gridb/internal/errors"
)

// Backup copies the database file to destPath and returns the md5
// checksum of the bytes written, for callers that record it alongside
// the copy. The copy is of the main database file only; with the
// editor's autocommit connection there is no WAL to carry over.
func Backup(srcPath, destPath string) (checksum string, err error) {
	src, err := os.Open(srcPath)
	if err != nil {
		return "", errors.StorageError("backup: open source", err)
	}
	defer src.Close()

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return "", errors.StorageError("backup: create destination dir", err)
	}
	dst, err := os.Create(destPath)
	if err != nil {
		return "", errors.StorageError("backup: create destination", err)
	}
	defer dst.Close()

	h := md5.New()
	if _, err := io.Copy(io.MultiWriter(dst, h), src); err != nil {
		return "", errors.StorageError("backup: copy", err)
	}
	if err := dst.Sync(); err != nil {
		return "", errors.StorageError("backup: sync destination", err)
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// CompressedBackup writes a snappy-framed copy of the database file.
// The checksum covers the uncompressed bytes so it stays comparable
// with the plain Backup checksum for the same source.
func CompressedBackup(srcPath, destPath string) (checksum string, err error) {
	src, err := os.Open(srcPath)
	if err != nil {
		return "", errors.StorageError("backup: open source", err)
	}
	defer src.Close()

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return "", errors.StorageError("backup: create destination dir", err)
	}
	dst, err := os.Create(destPath)
	if err != nil {
		return "", errors.StorageError("backup: create destination", err)
	}
	defer dst.Close()

	sw := snappy.NewBufferedWriter(dst)
	h := md5.New()
	if _, err := io.Copy(io.MultiWriter(sw, h), src); err != nil {
		return "", errors.StorageError("backup: compress", err)
	}
	if err := sw.Close(); err != nil {
		return "", errors.StorageError("backup: finalize compression", err)
	}
	if err := dst.Sync(); err != nil {
		return "", errors.StorageError("backup: sync destination", err)
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// RestoreCompressed expands a snappy-framed backup back into a plain
// database file.
func RestoreCompressed(srcPath, destPath string) error {
	src, err := os.Open(srcPath)
	if err != nil {
		return errors.StorageError("restore: open backup", err)
	}
	defer src.Close()

	dst, err := os.Create(destPath)
	if err != nil {
		return errors.StorageError("restore: create destination", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, snappy.NewReader(src)); err != nil {
		return errors.StorageError("restore: decompress", err)
	}
	if err := dst.Sync(); err != nil {
		return errors.StorageError("restore: sync destination", err)
	}
	return nil
}
