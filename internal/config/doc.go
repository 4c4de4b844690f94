// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for chatbot.
//
// TOML, JSON, and YAML files are supported, with built-in defaults,
// CHATBOT_* environment overrides (a .env file in the working directory is
// read first), and validation.
//
// Configuration file locations (first match wins):
//   - $CHATBOT_HOME/config.toml (default ~/.chatbot/config.toml)
//   - $CHATBOT_HOME/config.json
//   - $CHATBOT_HOME/config.yaml
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Printf("config: %v", err)
//	}
//	url := cfg.Backend.BaseURL
//
// Dot-notation access is available for the CLI:
//
//	v, _ := cfg.Get("backend.base_url")
//	_ = cfg.Set("uploads.clear_delay_ms", "0")
package config
