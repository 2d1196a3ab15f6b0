package msgsize

import (
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"
)

// Opts structure specifies additional settings that may be set
// for Patcher.
//
// Please use names to reference structure members on creation,
// fields may be reordered or added without major version increment.
type Opts struct {
	// Adding unexported name to structures makes it impossible to
	// reference fields without naming them explicitly.
	disallowUnnamedFields struct{}

	// Skip the timestamped backup copy normally written right before a
	// configuration file is overwritten.
	NoBackup bool

	// Directory backup copies go to. Empty string means the directory of
	// the file being patched.
	BackupDir string

	// Compression algorithm for backup copies, by registry name ("lz4",
	// "zstd"). Empty string stores plain copies.
	BackupCompression string

	// Implementation-defined parameters for the compression algorithm,
	// usually the level as a string.
	BackupCompressionParams string

	// Logger for the audit trail and debug messages. No messages are
	// dropped silently: if unset, stdlib log is used.
	Log Logger
}

// Patcher applies message size limits to service configuration files.
//
// Each file goes through an independent load/modify/save cycle; Patcher
// itself keeps no per-file state and can be reused across servers. It is not
// meant to be used from multiple goroutines at once.
type Patcher struct {
	// Opts structure used to construct this Patcher object.
	Opts Opts

	backups BackupStore
}

// NewPatcher creates a Patcher instance using provided options.
func NewPatcher(opts Opts) (*Patcher, error) {
	p := &Patcher{Opts: opts}
	if p.Opts.Log == nil {
		p.Opts.Log = globalLogger{}
	}

	p.backups = BackupStore{
		Dir:               opts.BackupDir,
		Compression:       opts.BackupCompression,
		CompressionParams: opts.BackupCompressionParams,
	}
	if _, err := p.backups.algo(); err != nil {
		return nil, errors.Wrap(err, "NewPatcher")
	}

	return p, nil
}

// Change is one attribute edit applied to a configuration file.
type Change struct {
	// Path of the edited element, as requested by the rule.
	Path string
	Attr string

	// Prev is the attribute value before the edit. nil means the attribute
	// (or part of the element path) did not exist.
	Prev *string
	New  string
}

// Changed reports whether the edit actually modified the attribute.
func (c Change) Changed() bool {
	return c.Prev == nil || *c.Prev != c.New
}

func (c Change) prevForLog() string {
	if c.Prev == nil {
		return "n/a"
	}
	return strconv.Quote(*c.Prev)
}

// FileReport is the outcome of patching one configuration file.
type FileReport struct {
	File string

	// Backup is the path of the pre-change copy, empty when backups are
	// disabled.
	Backup string

	Changes []Change
}

// Changed reports whether any attribute in the file was modified.
func (r FileReport) Changed() bool {
	for _, ch := range r.Changes {
		if ch.Changed() {
			return true
		}
	}
	return false
}

// ApplyLimit patches the configuration file of svc under the server
// installation root so the service accepts messages up to limitBytes bytes.
//
// The file is loaded, every edit rule of the service is applied to the tree
// (creating missing elements), the original is backed up unless disabled and
// the tree is written back in place. Applying the same limit twice is
// idempotent: the second report carries Changed() == false.
//
// On error the returned report still describes everything done up to the
// failure point.
func (p *Patcher) ApplyLimit(root string, svc Service, limitBytes int64) (FileReport, error) {
	file := filepath.Join(root, filepath.FromSlash(svc.ConfigPath))
	rep := FileReport{File: file}

	doc, err := LoadDocument(file)
	if err != nil {
		p.logFileErr(err, "ApplyLimit", file)
		return rep, err
	}

	for _, rule := range svc.Edits {
		value := rule.Render(limitBytes)
		ch := Change{
			Path: rule.Path,
			Attr: rule.Attr,
			Prev: SetAttribute(&doc.Element, rule.Path, rule.Attr, value),
			New:  value,
		}
		rep.Changes = append(rep.Changes, ch)
		p.logChange(file, ch)
	}

	// The file on disk is still pristine at this point, so the copy made
	// here preserves the pre-change content.
	if !p.Opts.NoBackup {
		rep.Backup, err = p.backups.Create(file)
		if err != nil {
			p.logFileErr(err, "ApplyLimit", file)
			return rep, err
		}
	}

	if err := SaveDocument(doc, file); err != nil {
		p.logFileErr(err, "ApplyLimit", file)
		return rep, err
	}
	return rep, nil
}

// Reading is the current value of one tracked attribute.
type Reading struct {
	Path string
	Attr string

	// Value is nil when the element path or the attribute is missing.
	Value *string
}

// ReadLimits reports the current values of the attributes ApplyLimit would
// modify, without touching the file.
func (p *Patcher) ReadLimits(root string, svc Service) (string, []Reading, error) {
	file := filepath.Join(root, filepath.FromSlash(svc.ConfigPath))

	doc, err := LoadDocument(file)
	if err != nil {
		p.logFileErr(err, "ReadLimits", file)
		return file, nil, err
	}

	readings := make([]Reading, 0, len(svc.Edits))
	for _, rule := range svc.Edits {
		readings = append(readings, Reading{
			Path:  rule.Path,
			Attr:  rule.Attr,
			Value: GetAttribute(&doc.Element, rule.Path, rule.Attr),
		})
	}
	return file, readings, nil
}
