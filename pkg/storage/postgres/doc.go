// Package postgres implements the catalog Store against PostgreSQL with
// primary/replica connection management, plus construction of the Redis
// client used by the response cache.
package postgres
