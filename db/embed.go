// Package db provides the embedded goose migrations.
package db

import "embed"

// MigrationsDir is the directory inside Migrations holding the SQL files.
const MigrationsDir = "migrations"

// Migrations contains the goose migration files for all application tables.
//
//go:embed migrations/*.sql
var Migrations embed.FS
