package migrate

import "fmt"

type (
	// A file names a dependency that does not exist
	ErrDependencyMissing string

	// Two migration files share a name
	ErrDuplicateEntry string

	ErrFailedMigration struct {
		File string
		Err  error
	}
)

func (e ErrDependencyMissing) Error() string {
	return fmt.Sprintf("migration dependency '%s' not found", string(e))
}

func (e ErrDuplicateEntry) Error() string {
	return fmt.Sprintf("duplicate migration '%s'", string(e))
}

func (e ErrFailedMigration) Error() string {
	return fmt.Sprintf("migration '%s' failed: %v", e.File, e.Err)
}

func (e ErrFailedMigration) Unwrap() error { return e.Err }
