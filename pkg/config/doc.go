// Package config provides configuration management for relayscrub.
//
// This package handles loading, validating, and managing configuration from
// YAML files with environment variable overrides. Per-project scrubbing
// rules are not part of this configuration; they live in their own files
// under pii.dir and are compiled by package pii.
//
// # Configuration Loading
//
// Configuration can be loaded in two ways:
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("relayscrub.yaml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("relayscrub.yaml")
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention RELAYSCRUB_SECTION_FIELD.
// For example:
//
//   - RELAYSCRUB_PII_DIR overrides pii.dir
//   - RELAYSCRUB_LIMITS_MAX_DEPTH overrides limits.max_depth
//   - RELAYSCRUB_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// Environment variables always take precedence over file-based configuration.
//
// # Configuration Precedence
//
// Configuration values are applied in the following order (later overrides earlier):
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Loading
//
// Commands load the configuration once and pass it down explicitly:
//
//	cfg, err := config.LoadConfigWithEnvOverrides("relayscrub.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Validation
//
// Validation errors include field paths and helpful messages:
//
//	configuration validation failed with 2 errors:
//	  - limits.max_string_chars: must be at least 4
//	  - pii.resync_schedule: invalid cron expression "every minute": ...
//
// # Example Configuration
//
//	telemetry:
//	  logging:
//	    level: info
//	    format: json
//	  metrics:
//	    enabled: true
//	    listen_address: "127.0.0.1:9102"
//
//	limits:
//	  max_depth: 64
//	  max_string_chars: 16384
//
//	pii:
//	  dir: /etc/relayscrub/pii
//	  watch: true
//	  resync_schedule: "*/5 * * * *"
package config
