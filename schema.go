package msgsize

import (
	"database/sql"

	"github.com/pkg/errors"
)

func (j *Journal) schemaVersion() (int, error) {
	_, err := j.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version ( version INTEGER NOT NULL )`)
	if err != nil {
		return 0, err
	}

	row := j.db.QueryRow(`SELECT version FROM schema_version`)
	var version int
	if err := row.Scan(&version); err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}
		return 0, err
	}
	return version, nil
}

func (j *Journal) setSchemaVersion(newVer int) error {
	_, err := j.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version ( version INTEGER NOT NULL )`)
	if err != nil {
		return err
	}

	info, err := j.db.Exec(`UPDATE schema_version SET version = ?`, newVer)
	if err != nil {
		return err
	}
	affected, err := info.RowsAffected()
	if err != nil {
		return err
	}

	if affected == 0 {
		_, err = j.db.Exec(`INSERT INTO schema_version VALUES (?)`, newVer)
	}

	return err
}

func (j *Journal) initSchema() error {
	_, err := j.db.Exec(`
		CREATE TABLE IF NOT EXISTS changes (
			id BIGSERIAL NOT NULL PRIMARY KEY AUTOINCREMENT,
			ts BIGINT NOT NULL,
			server VARCHAR(255) NOT NULL,
			service VARCHAR(255) NOT NULL,
			file VARCHAR(255) NOT NULL,
			elem_path VARCHAR(255) NOT NULL,
			attr VARCHAR(255) NOT NULL,
			prev_value VARCHAR(255) DEFAULT NULL,
			new_value VARCHAR(255) NOT NULL,
			limit_bytes BIGINT NOT NULL
		)`)
	if err != nil {
		return errors.Wrap(err, "create table changes")
	}
	return nil
}

func (j *Journal) upgradeSchema(currentVer int) error {
	tx, err := j.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Functions for schema upgrade go here. Example:
	//if currentVer == 1 {
	//	if err := j.schemaUpgrade1To2(tx); err != nil {
	//		return errors.Wrap(err, "1->2 upgrade")
	//	}
	//	currentVer = 2
	//}

	if currentVer != SchemaVersion {
		return errors.New("journal schema version is too old and can't be upgraded using this go-msgsize version")
	}
	return tx.Commit()
}
