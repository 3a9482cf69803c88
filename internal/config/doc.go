// Package config provides configuration management for the genflow server.
//
// Configuration is loaded from environment variables using the env package.
// All configuration values have sensible defaults for development use: both
// backends default to memory, so no Redis is needed to start.
//
// Example usage:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Printf("HTTP server will listen on %s\n", cfg.GetHTTPAddr())
package config
