// Package config loads runtime configuration for the chat client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Environment variables, with a .env file loaded first if present (see parseEnv).
//  3. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  4. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   backend API base URL
//	-d string   local SQLite database path
//	-i int      session check interval (seconds)
//	-l string   log level
//
// # Environment
//
//	ROOMCHAT_API_URL, ROOMCHAT_DB_PATH, ROOMCHAT_SESSION_CHECK_INTERVAL,
//	ROOMCHAT_GUARD_BAND, ROOMCHAT_REQUEST_TIMEOUT, ROOMCHAT_HANDSHAKE_TIMEOUT,
//	ROOMCHAT_LOG_LEVEL
//
// Durations use time.ParseDuration syntax ("30s").
//
// # JSON schema
//
// The JSON loader uses timex.Duration for intervals, so values can be either
// strings like "30s" or integer nanoseconds:
//
//	{
//	  "api_base_url": "http://localhost:8000",
//	  "database_path": "chat.db",
//	  "session_check_interval": "30s",
//	  "guard_band": "1s",
//	  "request_timeout": "10s",
//	  "handshake_timeout": "10s",
//	  "log_level": "info"
//	}
//
// The websocket base URL is not configured separately; (*Config).WebsocketURL
// derives it from the API URL.
package config
