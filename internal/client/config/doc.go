// Package config loads runtime configuration for the ImpactHands client.
//
// Sources, later ones winning:
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or -config.
//  3. Command-line flags -a, -o and -i.
//
// Example file:
//
//	{
//	  "server_base_url": "http://localhost:8080",
//	  "redirect_origin": "http://localhost:5173",
//	  "session_check_interval": "30s"
//	}
package config
