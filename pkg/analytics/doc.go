// Package analytics records search history and aggregates it into daily
// statistics and popular-query rankings.
package analytics
