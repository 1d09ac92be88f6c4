// Package db provides the embedded database schema and seed data.
package db

import _ "embed"

// Schema contains the DDL statements for all application tables.
//
//go:embed migrations/001_schema.sql
var Schema string

// Products is the seed catalog, a JSON array of products.
//
//go:embed seed/products.json
var Products []byte

// Coupons is the seed list of coupon rules.
//
//go:embed seed/coupons.json
var Coupons []byte
