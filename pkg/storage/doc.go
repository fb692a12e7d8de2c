// Package storage defines the read-only Store interface the search service
// depends on, plus shared storage configuration. The PostgreSQL
// implementation lives in the postgres subpackage.
package storage
