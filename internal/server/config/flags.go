package config

import (
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/dmitrijs2005/tokenkeeper/internal/flagx"
)

var valueFlags = []string{"-a", "-k", "-d", "-l", "-f", "-t", "-m", "-p"}

// Flags lists every flag the configuration reads, the JSON file flags
// included. Other programs sharing the command line strip these first.
var Flags = append(append([]string{}, valueFlags...), flagx.ConfigFlags...)

// parseFlags populates Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   gRPC bind address (e.g., ":50051")
//	-k string   database driver: sqlite or pgx
//	-d string   database DSN
//	-l string   log level
//	-f string   log format: text or json
//	-t uint     argon2 passes
//	-m uint     argon2 memory, KiB
//	-p uint     argon2 threads
//
// Only these flags are taken from os.Args (see flagx.FilterArgs), so the CLI
// can define its own flags next to them. Bad values panic.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], valueFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "address and port to run server")
	fs.StringVar(&config.DatabaseDriver, "k", config.DatabaseDriver, "database driver (sqlite or pgx)")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.LogFormat, "f", config.LogFormat, "log format (text or json)")

	argonTime := fs.Uint("t", uint(config.Argon2Time), "argon2 time cost")
	argonMemory := fs.Uint("m", uint(config.Argon2MemoryKiB), "argon2 memory cost (KiB)")
	argonThreads := fs.Uint("p", uint(config.Argon2Threads), "argon2 parallelism")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	if *argonTime > math.MaxUint32 || *argonMemory > math.MaxUint32 || *argonThreads > math.MaxUint8 {
		panic(fmt.Sprintf("argon2 parameters out of range: t=%d m=%d p=%d", *argonTime, *argonMemory, *argonThreads))
	}

	config.Argon2Time = uint32(*argonTime)
	config.Argon2MemoryKiB = uint32(*argonMemory)
	config.Argon2Threads = uint8(*argonThreads)
}
