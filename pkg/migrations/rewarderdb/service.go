// Package rewarderdb holds all the migrations for the rewarder database
package rewarderdb

import (
	"github.com/uptrace/bun/migrate"
)

// Migrations is the collection of all migrations for the rewarder database
var Migrations = migrate.NewMigrations()
