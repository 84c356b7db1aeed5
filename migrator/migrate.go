package migrate

import (
	"database/sql"
	"embed"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/kycklingar/dbsession/db"
	"go.uber.org/zap"
)

//go:embed sql/*.sql
var embedded embed.FS

type (
	ExecQuery interface {
		Exec(string, ...any) (sql.Result, error)
		Query(string, ...any) (*sql.Rows, error)
	}

	// Migrator applies schema upgrades to the database
	Migrator struct {
		applied map[fileIdentifier]struct{}
		files   files
		queue   fileQueue
	}

	files map[fileIdentifier]file
)

// Embedded returns a Migrator for the session schema shipped with the binary
func Embedded() (Migrator, error) {
	return FromFS(embedded, "sql")
}

// FromFS recursively reads the .sql files below root
func FromFS(fsys fs.FS, root string) (Migrator, error) {
	var mig = Migrator{
		applied: make(map[fileIdentifier]struct{}),
		files:   make(files),
	}

	return mig, fs.WalkDir(fsys, root, func(p string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		var (
			filename = entry.Name()
			ext      = path.Ext(filename)
		)

		if entry.IsDir() || ext != ".sql" {
			return nil
		}

		fid := fileIdentifier(strings.TrimSuffix(filename, ext))
		if _, ok := mig.files[fid]; ok {
			return ErrDuplicateEntry(filename)
		}

		mig.files[fid], err = parseFile(fsys, p)
		return err
	})
}

// Initialize creates the migration bookkeeping table
func (mig Migrator) Initialize(q ExecQuery) error {
	_, err := q.Exec(
		`CREATE TABLE IF NOT EXISTS schema_migrations(
			applied TEXT NOT NULL,
			timestamp TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
	)

	return err
}

func (mig *Migrator) FetchApplied(q ExecQuery) error {
	return db.QueryRows(
		q,
		`SELECT applied
		FROM schema_migrations`,
	)(func(scan db.Scanner) error {
		var fid fileIdentifier
		err := scan(&fid)
		mig.applied[fid] = struct{}{}
		return err
	})
}

// EnqueueMigrations queues every pending migration after its dependencies
func (mig *Migrator) EnqueueMigrations() error {
	// Map order is random, sort for a reproducible run order
	fids := make([]string, 0, len(mig.files))
	for fid := range mig.files {
		fids = append(fids, string(fid))
	}
	sort.Strings(fids)

	for _, fid := range fids {
		if err := mig.enqueueFile(fileIdentifier(fid)); err != nil {
			return err
		}
	}

	return nil
}

// Pending is the number of queued migrations
func (mig *Migrator) Pending() int {
	return mig.queue.len()
}

// True if there are migrations left to run
func (mig *Migrator) Next() bool {
	return mig.queue.next()
}

// Execute applies the next queued migration and returns its name
func (mig *Migrator) Execute(q ExecQuery) (string, error) {
	fid := mig.queue.dequeue()
	return string(fid), mig.executeFile(q, fid)
}

func (mig *Migrator) enqueueFile(fid fileIdentifier) error {
	if _, ok := mig.files[fid]; !ok {
		return ErrDependencyMissing(fid)
	}

	if mig.queue.has(fid) {
		return nil
	}

	if _, ok := mig.applied[fid]; ok {
		return nil
	}

	for _, dependency := range mig.files[fid].dependencies {
		if err := mig.enqueueFile(dependency); err != nil {
			return err
		}
	}

	mig.queue.enqueue(fid)
	return nil
}

func (mig *Migrator) executeFile(q ExecQuery, fid fileIdentifier) error {
	file := mig.files[fid]

	if _, err := q.Exec(file.sql); err != nil {
		return ErrFailedMigration{string(fid), err}
	}

	_, err := q.Exec(
		`INSERT INTO schema_migrations(applied)
		VALUES($1)`,
		string(fid),
	)
	if err != nil {
		return err
	}

	mig.applied[fid] = struct{}{}
	return nil
}

// Apply brings the database schema up to date, one transaction per migration
func Apply(conn *sql.DB, mig Migrator, log *zap.Logger) error {
	if err := mig.Initialize(conn); err != nil {
		return err
	}

	if err := mig.FetchApplied(conn); err != nil {
		return err
	}

	if err := mig.EnqueueMigrations(); err != nil {
		return err
	}

	for mig.Next() {
		tx, err := conn.Begin()
		if err != nil {
			return err
		}

		name, err := mig.Execute(tx)
		if err != nil {
			tx.Rollback()
			return err
		}

		if err = tx.Commit(); err != nil {
			return err
		}

		log.Info("applied migration", zap.String("file", name+".sql"))
	}

	return nil
}
