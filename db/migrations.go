// Package db menyimpan file migrasi SQL agar bisa di-embed ke binary.
package db

import "embed"

// Migrations berisi semua file migrasi golang-migrate.
//
//go:embed migrations/*.sql
var Migrations embed.FS
