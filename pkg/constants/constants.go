// Package constants provides shared constants used throughout the ribbonsync codebase.
// This includes file permissions, cache settings, and the default naming
// conventions that describe an extension tree on disk.
package constants

import "time"

// Product identity
const (
	// ProductName is the fixed product identifier used in cache file names.
	ProductName = "ribbonsync"

	// CacheVersion is the snapshot format version. Snapshots written with a
	// different version are rejected on load.
	CacheVersion = "1.2.0"
)

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)

// Cache constants
const (
	// CacheTTL is how long a snapshot stays memoized in process.
	CacheTTL = 15 * time.Minute

	// CacheCleanupInterval is how often to clean expired cache entries
	CacheCleanupInterval = 5 * time.Minute
)

// Watch constants
const (
	// WatchDebounce is how long the watcher waits for filesystem events to settle.
	WatchDebounce = 750 * time.Millisecond

	// CommandTimeout is the default timeout for a single sync run
	CommandTimeout = 2 * time.Minute
)

// Naming convention defaults
const (
	// DefaultDelimiter separates tokens in leaf file names.
	DefaultDelimiter = "_"

	// DefaultTabSuffix marks a bundled tab directory.
	DefaultTabSuffix = ".tab"

	// DefaultPanelSuffix marks a bundled panel directory.
	DefaultPanelSuffix = ".panel"

	// DefaultIconExt is the extension of icon and group descriptor files.
	DefaultIconExt = ".png"

	// DefaultScriptExt is the extension of command scripts.
	DefaultScriptExt = ".py"

	// DefaultInitScriptName is the reserved init identifier of the loader script.
	DefaultInitScriptName = "__init__"

	// DefaultMasterScope is the reserved scope that holds the reload command.
	DefaultMasterScope = "master"

	// DefaultReloadGroup is the script group of the reload command.
	DefaultReloadGroup = "pyRevit"

	// DefaultReloadCommand is the command name of the reload command.
	DefaultReloadCommand = "reloadScripts"

	// DefaultDocParam is the script variable holding a command description.
	DefaultDocParam = "__doc__"

	// DefaultAuthorParam is the script variable holding a command author.
	DefaultAuthorParam = "__author__"
)

// Format constants
const (
	// TimeFormatHuman is a human-readable time format
	TimeFormatHuman = "Jan 2, 2006 at 3:04pm MST"
)
