package config

// Version is the application version, injected at build time via
// -ldflags "-X github.com/cinephage/cinephage/internal/config.Version=1.2.3".
// Defaults to "dev" if not set.
var Version = "dev"
