package repository

import "strings"

// containsSQLState reports whether err carries the given Postgres SQLSTATE.
// The pgx stdlib driver embeds the code in the error text.
func containsSQLState(err error, code string) bool {
	return err != nil && strings.Contains(err.Error(), "SQLSTATE "+code)
}

// isUniqueViolation reports a unique constraint violation (SQLSTATE 23505)
func isUniqueViolation(err error) bool {
	return containsSQLState(err, "23505")
}
