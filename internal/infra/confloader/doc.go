// Package confloader provides configuration loading mechanism.
//
// This package implements a configuration loader that supports multiple
// sources using koanf as the underlying library, plus an fsnotify based
// watcher for configuration files.
//
// Priority (highest to lowest):
//
//  1. Overrides (command-line flags)
//  2. Environment variables (JOBRUNNER_ prefix)
//  3. Configuration file (YAML)
//  4. Values already present in the target struct
package confloader
