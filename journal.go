package msgsize

import (
	"database/sql"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

// JournalOpts structure specifies additional settings that may be set
// for the change journal.
//
// Please use names to reference structure members on creation,
// fields may be reordered or added without major version increment.
type JournalOpts struct {
	// Adding unexported name to structures makes it impossible to
	// reference fields without naming them explicitly.
	disallowUnnamedFields struct{}

	// (SQLite3 only) Don't force WAL journaling mode.
	NoWAL bool

	// (SQLite3 only) Use different value for busy_timeout. Default is 50000.
	// To set to 0, use -1 (you probably don't want this).
	BusyTimeout int

	// (SQLite3 only) Use EXCLUSIVE locking mode.
	ExclusiveLock bool

	// (SQLite3 only) Repack database file into minimal amount of disk space on
	// Close.
	// It runs VACUUM and PRAGMA wal_checkpoint(TRUNCATE).
	// Failures of these operations are ignored and don't affect return value
	// of Close.
	MinimizeOnClose bool

	// Custom clock for record timestamps. Used in tests.
	Now func() time.Time

	// Automatically update journal schema on msgsize.NewJournal.
	AllowSchemaUpgrade bool
}

// ChangeRecord is one attribute rewrite as stored in the journal.
type ChangeRecord struct {
	ID      int64
	Time    time.Time
	Server  string
	Service string
	File    string
	Path    string
	Attr    string

	// Prev is nil when the attribute did not exist before the rewrite.
	Prev *string
	New  string

	// LimitBytes is the limit that was being applied, before any unit
	// conversion.
	LimitBytes int64
}

// Journal records applied configuration changes in a SQL database so that
// fleet-wide rollouts can be audited and rolled back by hand.
type Journal struct {
	db db

	// JournalOpts structure used to construct this Journal object.
	Opts JournalOpts

	// database/sql.DB object created by NewJournal.
	DB *sql.DB

	addChange         *sql.Stmt
	listChanges       *sql.Stmt
	listChangesServer *sql.Stmt
	exportChanges     *sql.Stmt
	pruneChanges      *sql.Stmt
}

// NewJournal opens the change journal database, creating or upgrading the
// schema as needed.
//
// driver and dsn arguments are passed directly to sql.Open.
func NewJournal(driver, dsn string, opts JournalOpts) (*Journal, error) {
	j := &Journal{}
	var err error

	j.Opts = opts
	if j.Opts.Now == nil {
		j.Opts.Now = time.Now
	}

	j.db.driver = driver
	j.db.dsn = dsn

	j.db.DB, err = sql.Open(driver, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "NewJournal")
	}
	j.DB = j.db.DB

	ver, err := j.schemaVersion()
	if err != nil {
		return nil, errors.Wrap(err, "NewJournal")
	}
	// Zero version indicates "empty database".
	if ver > SchemaVersion {
		return nil, errors.Errorf("incompatible journal schema, too new (%d > %d)", ver, SchemaVersion)
	}
	if ver < SchemaVersion && ver != 0 {
		if !opts.AllowSchemaUpgrade {
			return nil, errors.Errorf("incompatible journal schema, upgrade required (%d < %d)", ver, SchemaVersion)
		}
		if err := j.upgradeSchema(ver); err != nil {
			return nil, errors.Wrap(err, "NewJournal")
		}
	}
	if err := j.setSchemaVersion(SchemaVersion); err != nil {
		return nil, errors.Wrap(err, "NewJournal")
	}

	if err := j.configureEngine(); err != nil {
		return nil, errors.Wrap(err, "NewJournal")
	}

	if err := j.initSchema(); err != nil {
		return nil, errors.Wrap(err, "NewJournal")
	}
	if err := j.prepareStmts(); err != nil {
		return nil, errors.Wrap(err, "NewJournal")
	}

	return j, nil
}

func (j *Journal) configureEngine() error {
	if j.db.driver == "sqlite3" {
		// For testing purposes, it is important that only one memory DB will
		// be used (otherwise each connection will get its own DB)
		if j.db.dsn == ":memory:" {
			j.db.DB.SetMaxOpenConns(1)
		}

		if j.Opts.ExclusiveLock {
			if _, err := j.db.Exec(`PRAGMA locking_mode=EXCLUSIVE`); err != nil {
				return err
			}
		}

		if !j.Opts.NoWAL {
			if _, err := j.db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
				return err
			}
			if _, err := j.db.Exec(`PRAGMA synchronous=NORMAL`); err != nil {
				return err
			}
		}

		if j.Opts.BusyTimeout == 0 {
			j.Opts.BusyTimeout = 50000
		}
		if j.Opts.BusyTimeout == -1 {
			j.Opts.BusyTimeout = 0
		}

		if _, err := j.db.Exec(`PRAGMA busy_timeout=` + strconv.Itoa(j.Opts.BusyTimeout)); err != nil {
			return err
		}
	}

	if j.db.driver == "mysql" {
		// Make MySQL more ANSI SQL compatible.
		_, err := j.db.Exec(`SET SESSION sql_mode = 'ansi,no_backslash_escapes'`)
		if err != nil {
			return err
		}
	}

	return nil
}

func (j *Journal) prepareStmts() error {
	var err error

	j.addChange, err = j.db.Prepare(`
		INSERT INTO changes(ts, server, service, file, elem_path, attr, prev_value, new_value, limit_bytes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return errors.Wrap(err, "addChange prep")
	}
	j.listChanges, err = j.db.Prepare(`
		SELECT id, ts, server, service, file, elem_path, attr, prev_value, new_value, limit_bytes
		FROM changes
		ORDER BY id DESC
		LIMIT ?`)
	if err != nil {
		return errors.Wrap(err, "listChanges prep")
	}
	j.listChangesServer, err = j.db.Prepare(`
		SELECT id, ts, server, service, file, elem_path, attr, prev_value, new_value, limit_bytes
		FROM changes
		WHERE server = ?
		ORDER BY id DESC
		LIMIT ?`)
	if err != nil {
		return errors.Wrap(err, "listChangesServer prep")
	}
	j.exportChanges, err = j.db.Prepare(`
		SELECT id, ts, server, service, file, elem_path, attr, prev_value, new_value, limit_bytes
		FROM changes
		ORDER BY id ASC`)
	if err != nil {
		return errors.Wrap(err, "exportChanges prep")
	}
	j.pruneChanges, err = j.db.Prepare(`
		DELETE FROM changes
		WHERE ts < ?`)
	if err != nil {
		return errors.Wrap(err, "pruneChanges prep")
	}

	return nil
}

// Add appends a single record to the journal. Zero Time is replaced by the
// current time.
func (j *Journal) Add(rec ChangeRecord) error {
	ts := rec.Time
	if ts.IsZero() {
		ts = j.Opts.Now()
	}

	var prev sql.NullString
	if rec.Prev != nil {
		prev = sql.NullString{String: *rec.Prev, Valid: true}
	}

	_, err := j.addChange.Exec(ts.Unix(), rec.Server, rec.Service, rec.File,
		rec.Path, rec.Attr, prev, rec.New, rec.LimitBytes)
	return errors.Wrap(err, "Add")
}

// Record stores all effective rewrites from a file report. No-op rewrites
// (attribute already carried the wanted value) are not journaled.
func (j *Journal) Record(server, service string, limitBytes int64, rep FileReport) error {
	now := j.Opts.Now()
	for _, ch := range rep.Changes {
		if !ch.Changed() {
			continue
		}
		err := j.Add(ChangeRecord{
			Time:       now,
			Server:     server,
			Service:    service,
			File:       rep.File,
			Path:       ch.Path,
			Attr:       ch.Attr,
			Prev:       ch.Prev,
			New:        ch.New,
			LimitBytes: limitBytes,
		})
		if err != nil {
			return errors.Wrap(err, "Record")
		}
	}
	return nil
}

// List returns up to limit journal records, newest first. Empty server
// selects records for all servers.
func (j *Journal) List(server string, limit int) ([]ChangeRecord, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if server == "" {
		rows, err = j.listChanges.Query(limit)
	} else {
		rows, err = j.listChangesServer.Query(server, limit)
	}
	if err != nil {
		return nil, errors.Wrap(err, "List")
	}
	defer rows.Close()

	return j.scanRecords(rows, "List")
}

// Export returns all journal records in chronological order.
func (j *Journal) Export() ([]ChangeRecord, error) {
	rows, err := j.exportChanges.Query()
	if err != nil {
		return nil, errors.Wrap(err, "Export")
	}
	defer rows.Close()

	return j.scanRecords(rows, "Export")
}

// Prune deletes records older than the passed time and reports how many
// were removed.
func (j *Journal) Prune(olderThan time.Time) (int64, error) {
	info, err := j.pruneChanges.Exec(olderThan.Unix())
	if err != nil {
		return 0, errors.Wrap(err, "Prune")
	}
	affected, err := info.RowsAffected()
	return affected, errors.Wrap(err, "Prune")
}

func (j *Journal) scanRecords(rows *sql.Rows, opName string) ([]ChangeRecord, error) {
	res := []ChangeRecord{}
	for rows.Next() {
		var (
			rec  ChangeRecord
			ts   int64
			prev sql.NullString
		)
		err := rows.Scan(&rec.ID, &ts, &rec.Server, &rec.Service, &rec.File,
			&rec.Path, &rec.Attr, &prev, &rec.New, &rec.LimitBytes)
		if err != nil {
			return nil, errors.Wrap(err, opName)
		}
		rec.Time = time.Unix(ts, 0)
		if prev.Valid {
			val := prev.String
			rec.Prev = &val
		}
		res = append(res, rec)
	}
	return res, errors.Wrap(rows.Err(), opName)
}

func (j *Journal) Close() error {
	if j.db.driver == "sqlite3" {
		// These operations are not critical, so it's not a problem if they fail.
		if j.Opts.MinimizeOnClose {
			j.db.Exec(`VACUUM`)
			j.db.Exec(`PRAGMA wal_checkpoint(TRUNCATE)`)
		}

		j.db.Exec(`PRAGMA optimize`)
	}

	return j.db.Close()
}
