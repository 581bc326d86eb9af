// Package config loads typeintro configuration.
//
// Configuration comes from three layers, later ones winning:
//
//  1. DefaultConfig()
//  2. an optional YAML file
//  3. TYPEINTRO_* environment variables
//
// The result is checked with go-playground/validator struct tags and, for
// SSH mode, the transport's own validation.
//
// # File format
//
//	scripts_path: /opt/typeintro/scripts
//	tool: ros2
//	interpreter: python3
//	command_timeout: 30s
//	executor:
//	  mode: ssh
//	  ssh:
//	    host: robot.local
//	    user: ros
//	    private_key_path: ~/.ssh/id_ed25519
//	journal:
//	  path: ~/.typeintro/journal.db
//	telemetry:
//	  logging:
//	    level: debug
//
// SSH fields left out of the file take their ssh.DefaultConfig values,
// except strict_host_key_checking, which defaults to false. An empty
// scripts_path is valid and disables schema retrieval.
package config
