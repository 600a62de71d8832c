// Package storage persists submitted jobs.
//
// JobStore is a thin layer over an embedded Badger database. The server
// owns exactly one store, connects it during startup and closes it after
// every listener has stopped, so Close also stops the background value-log
// GC loop before the database is released.
package storage
