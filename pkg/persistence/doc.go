// Package persistence saves and restores device tree configuration.
//
// A Snapshot holds the values of every Configuration-class variable of a
// subtree, keyed by device path. Snapshots are written as YAML, or as JSON when
// the file name ends in ".json".
package persistence
