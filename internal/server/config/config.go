// Package config handles configuration for the server and the admin CLI,
// including defaults, JSON overlay, and command-line flags.
package config

import "github.com/dmitrijs2005/tokenkeeper/internal/cryptox"

// Config holds runtime settings for TokenKeeper.
//
// Fields:
//   - EndpointAddrGRPC: bind address for the public gRPC endpoint.
//   - DatabaseDriver: "sqlite" (modernc.org/sqlite) or "pgx" (PostgreSQL).
//   - DatabaseDSN: file path / DSN for SQLite, connection URL for PostgreSQL.
//   - LogLevel / LogFormat: slog level name and "text" or "json".
//   - Argon2Time / Argon2MemoryKiB / Argon2Threads: cost of password hashing
//     and token key derivation.
type Config struct {
	EndpointAddrGRPC string
	DatabaseDriver   string
	DatabaseDSN      string
	LogLevel         string
	LogFormat        string
	Argon2Time       uint32
	Argon2MemoryKiB  uint32
	Argon2Threads    uint8
}

// LoadDefaults populates Config with development defaults.
func (c *Config) LoadDefaults() {
	c.EndpointAddrGRPC = ":50051"
	c.DatabaseDriver = "sqlite"
	c.DatabaseDSN = "data/tokenkeeper.sqlite"
	c.LogLevel = "info"
	c.LogFormat = "json"
	c.Argon2Time = cryptox.DefaultParams.Time
	c.Argon2MemoryKiB = cryptox.DefaultParams.MemoryKiB
	c.Argon2Threads = cryptox.DefaultParams.Threads
}

// Argon2Params returns the configured hashing cost.
func (c *Config) Argon2Params() cryptox.Params {
	return cryptox.Params{Time: c.Argon2Time, MemoryKiB: c.Argon2MemoryKiB, Threads: c.Argon2Threads}
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
