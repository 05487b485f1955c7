// Package config defines configuration structures for the sign-addon CLI.
//
// Configuration can be provided via:
//   - Command-line flags
//   - Environment variables (SIGN_ADDON_ prefix)
//   - YAML configuration file
//
// Later layers override earlier ones: file, then environment, then flags.
//
// # Structure
//
//	type Config struct {
//	    APIKey       string
//	    APISecret    string
//	    BaseURL      string
//	    ProxyURL     string
//	    PollInterval time.Duration
//	    PhaseTimeout time.Duration
//	    TokenExpiry  time.Duration
//	    DownloadDir  string
//	    Channel      string
//	    Debug        bool
//	}
package config
