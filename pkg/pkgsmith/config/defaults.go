package config

// Default configuration values.
const (
	// DefaultDistDir is the fallback build output directory used when
	// tsconfig.json does not specify one.
	DefaultDistDir = "dist"

	// DefaultWorkers is the fastwalk worker count (0 = automatic).
	DefaultWorkers = 0

	// DefaultRetentionDays is how long journal entries are kept.
	DefaultRetentionDays = 30

	// DefaultMaxDepth bounds discovery traversal (0 = unbounded).
	DefaultMaxDepth = 0

	// DefaultRemoteTimeoutSeconds is the secrets API request timeout.
	DefaultRemoteTimeoutSeconds = 30
)

// DefaultExclusions are directory names skipped during discovery.
var DefaultExclusions = []string{
	"node_modules",
	".git",
	"dist",
	"build",
	"coverage",
}

// DefaultEnvFiles are the env files loaded by the env runner, in order.
// Later files override earlier ones.
var DefaultEnvFiles = []string{".env", ".env.local"}
