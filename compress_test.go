package msgsize

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gotest.tools/assert"
)

func testBackupRoundtrip(t *testing.T, algo, params string) {
	dir, err := ioutil.TempDir("", "go-msgsize-tests-")
	assert.NilError(t, err, "TempDir")
	defer os.RemoveAll(dir)

	content := strings.Repeat(`<add key="padding" value="aaaaaaaaaaaaaaaa"/>`+"\n", 200)
	orig := filepath.Join(dir, "web.config")
	assert.NilError(t, ioutil.WriteFile(orig, []byte(content), 0644), "WriteFile")

	s := BackupStore{
		Compression:       algo,
		CompressionParams: params,
	}

	target, err := s.Create(orig)
	assert.NilError(t, err, "Create")

	r, err := s.Open(target)
	assert.NilError(t, err, "Open")
	defer r.Close()

	blob, err := ioutil.ReadAll(r)
	assert.NilError(t, err, "ReadAll")
	assert.Equal(t, string(blob), content)
}

func TestBackupPlain(t *testing.T) { testBackupRoundtrip(t, "", "") }

func TestBackupLZ4(t *testing.T) { testBackupRoundtrip(t, "lz4", "") }

func TestBackupLZ4Level(t *testing.T) { testBackupRoundtrip(t, "lz4", "9") }

func TestBackupZstd(t *testing.T) { testBackupRoundtrip(t, "zstd", "") }

func TestBackupZstdLevel(t *testing.T) { testBackupRoundtrip(t, "zstd", "19") }

func TestBackupNameStamp(t *testing.T) {
	dir, err := ioutil.TempDir("", "go-msgsize-tests-")
	assert.NilError(t, err, "TempDir")
	defer os.RemoveAll(dir)

	orig := filepath.Join(dir, "web.config")
	assert.NilError(t, ioutil.WriteFile(orig, []byte(`<configuration/>`), 0644), "WriteFile")

	s := BackupStore{
		Now: func() time.Time { return time.Date(2020, 5, 14, 13, 34, 11, 0, time.UTC) },
	}
	target, err := s.Create(orig)
	assert.NilError(t, err, "Create")
	assert.Equal(t, filepath.Base(target), "web.config.20200514-133411.bak")
	assert.Equal(t, filepath.Dir(target), dir)

	s.Compression = "zstd"
	target, err = s.Create(orig)
	assert.NilError(t, err, "Create")
	assert.Equal(t, filepath.Base(target), "web.config.20200514-133411.bak.zst")
}

func TestBackupSeparateDir(t *testing.T) {
	dir, err := ioutil.TempDir("", "go-msgsize-tests-")
	assert.NilError(t, err, "TempDir")
	defer os.RemoveAll(dir)

	bdir := filepath.Join(dir, "backups")
	assert.NilError(t, os.MkdirAll(bdir, os.ModeDir|os.ModePerm), "MkdirAll")

	orig := filepath.Join(dir, "web.config")
	assert.NilError(t, ioutil.WriteFile(orig, []byte(`<configuration/>`), 0644), "WriteFile")

	s := BackupStore{Dir: bdir}
	target, err := s.Create(orig)
	assert.NilError(t, err, "Create")
	assert.Equal(t, filepath.Dir(target), bdir)
}

func TestBackupUnknownAlgo(t *testing.T) {
	s := BackupStore{Compression: "rar"}
	_, err := s.Create("web.config")
	assert.Assert(t, err != nil)
}

func TestBackupOpenNonExistent(t *testing.T) {
	dir, err := ioutil.TempDir("", "go-msgsize-tests-")
	assert.NilError(t, err, "TempDir")
	defer os.RemoveAll(dir)

	s := BackupStore{}
	_, err = s.Open(filepath.Join(dir, "nope.bak"))
	berr, ok := err.(BackupError)
	assert.Assert(t, ok)
	assert.Assert(t, berr.NonExistent)
}
