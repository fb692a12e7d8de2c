// Package config loads service configuration from environment variables,
// with an optional YAML overlay file that can be watched for live
// log-level changes.
package config
