package msgsize

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// backupStamp is the timestamp layout embedded in backup file names.
const backupStamp = "20060102-150405"

// BackupError is returned for failed backup reads and writes.
type BackupError struct {
	// true if error was caused by an attempt to read a non-existent backup.
	NonExistent bool

	Path string
	Err  error
}

// Unwrap implements Unwrap() for Go 1.13 'errors'.
func (err BackupError) Unwrap() error {
	return err.Err
}

// Cause implements Cause() for pkg/errors.
func (err BackupError) Cause() error {
	return err.Err
}

func (err BackupError) Error() string {
	if err.NonExistent {
		return fmt.Sprintf("backup: non-existent copy %s", err.Path)
	}
	return fmt.Sprintf("backup: %v", err.Err)
}

// BackupStore writes timestamped copies of configuration files before they
// are overwritten.
//
// Always use field names on initialization because new fields may be added
// without a major version change.
type BackupStore struct {
	// Dir is the directory copies are written to. Empty string means next
	// to the original file, which is what operators usually want when they
	// inspect a server by hand.
	Dir string

	// Compression names a registered compression algorithm ("lz4", "zstd")
	// to apply to copies. Empty string stores plain copies.
	Compression       string
	CompressionParams string

	// Now is the time source used for the name stamp. nil means time.Now.
	// Meant for tests.
	Now func() time.Time
}

func (s *BackupStore) algo() (CompressionAlgo, error) {
	if s.Compression == "" {
		return nullCompression{}, nil
	}
	algo, ok := compressionAlgos[s.Compression]
	if !ok {
		return nil, fmt.Errorf("backup: unknown compression algorithm %s", s.Compression)
	}
	return algo, nil
}

func (s *BackupStore) ext() string {
	switch s.Compression {
	case "":
		return ""
	case "zstd":
		return ".zst"
	default:
		return "." + s.Compression
	}
}

// Create copies the file at path into the store, returning the location of
// the copy. The original is read but never modified, so calling Create right
// before an overwrite preserves the pre-change content.
//
// Copy names look like web.config.20060102-150405.bak and sort
// chronologically within one directory.
func (s *BackupStore) Create(path string) (string, error) {
	algo, err := s.algo()
	if err != nil {
		return "", err
	}

	src, err := os.Open(path)
	if err != nil {
		return "", BackupError{Path: path, Err: err}
	}
	defer src.Close()

	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	dir := s.Dir
	if dir == "" {
		dir = filepath.Dir(path)
	}
	target := filepath.Join(dir, filepath.Base(path)+"."+now().Format(backupStamp)+".bak"+s.ext())

	dst, err := os.Create(target)
	if err != nil {
		return "", BackupError{Path: target, Err: err}
	}

	compressW, err := algo.WrapCompress(dst, s.CompressionParams)
	if err != nil {
		dst.Close()
		return "", BackupError{Path: target, Err: err}
	}

	_, err = io.Copy(compressW, src)
	if err == nil {
		err = compressW.Close()
	} else {
		compressW.Close()
	}
	if err == nil {
		err = dst.Close()
	} else {
		dst.Close()
	}
	if err != nil {
		return "", BackupError{Path: target, Err: err}
	}
	return target, nil
}

// Open returns a reader over the decompressed contents of a backup copy
// made by the same store configuration.
//
// If no such copy exists - BackupError with NonExistent = true is returned.
func (s *BackupStore) Open(path string) (io.ReadCloser, error) {
	algo, err := s.algo()
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, BackupError{NonExistent: os.IsNotExist(err), Path: path, Err: err}
	}

	r, err := algo.WrapDecompress(f)
	if err != nil {
		f.Close()
		return nil, BackupError{Path: path, Err: err}
	}
	return backupReader{r, f}, nil
}

type backupReader struct {
	io.Reader
	f *os.File
}

func (r backupReader) Close() error {
	return r.f.Close()
}
