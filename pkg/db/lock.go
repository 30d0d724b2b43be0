package db

import "gorm.io/gorm"

// LockSuffix returns the row-lock clause for SELECT statements that take part
// in a read-modify-write transaction. SQLite serializes writers on its own and
// does not parse FOR UPDATE, so the clause is omitted there.
func LockSuffix(tx *gorm.DB) string {
	if tx.Dialector.Name() == "sqlite" {
		return ""
	}
	return " FOR UPDATE"
}
