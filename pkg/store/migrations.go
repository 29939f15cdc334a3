package store

import "github.com/sheetrtd/sheetrt/pkg/db"

// Migrations returns the ordered schema for every table this package
// owns. Pass to db.Migrate once per opened Adapter.
func Migrations() []db.Migration {
	return []db.Migration{
		{
			Version:     1,
			Description: "sessions and messages",
			Statements: []string{
				`CREATE TABLE IF NOT EXISTS sessions (
					id TEXT PRIMARY KEY,
					title TEXT NOT NULL DEFAULT '',
					title_source TEXT NOT NULL DEFAULT 'unset',
					created_at TIMESTAMP NOT NULL,
					updated_at TIMESTAMP NOT NULL,
					message_count INTEGER NOT NULL DEFAULT 0,
					status TEXT NOT NULL DEFAULT 'active',
					user_id TEXT
				)`,
				`CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions (user_id)`,
				`CREATE TABLE IF NOT EXISTS messages (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					session_id TEXT NOT NULL,
					role TEXT NOT NULL,
					content TEXT NOT NULL,
					turn_number INTEGER NOT NULL DEFAULT 0,
					tool_call_id TEXT NOT NULL DEFAULT '',
					created_at TIMESTAMP NOT NULL
				)`,
				`CREATE INDEX IF NOT EXISTS idx_messages_session ON messages (session_id, id)`,
			},
		},
		{
			Version:     2,
			Description: "memory entries and vectors",
			Statements: []string{
				`CREATE TABLE IF NOT EXISTS memory_entries (
					id TEXT PRIMARY KEY,
					category TEXT NOT NULL,
					content TEXT NOT NULL,
					timestamp TIMESTAMP NOT NULL,
					source TEXT NOT NULL DEFAULT '',
					user_id TEXT
				)`,
				`CREATE INDEX IF NOT EXISTS idx_memory_user_category ON memory_entries (user_id, category)`,
				`CREATE TABLE IF NOT EXISTS vector_records (
					content_hash TEXT PRIMARY KEY,
					text TEXT NOT NULL,
					metadata TEXT NOT NULL DEFAULT '{}',
					vector BLOB NOT NULL,
					dimensions INTEGER NOT NULL,
					user_id TEXT
				)`,
			},
		},
		{
			Version:     3,
			Description: "approvals and audit logs",
			Statements: []string{
				`CREATE TABLE IF NOT EXISTS approvals (
					id TEXT PRIMARY KEY,
					tool_name TEXT NOT NULL,
					arguments TEXT NOT NULL DEFAULT '{}',
					tool_scope TEXT NOT NULL DEFAULT '',
					status TEXT NOT NULL DEFAULT 'pending',
					undoable BOOLEAN NOT NULL DEFAULT 0,
					artefact_paths TEXT NOT NULL DEFAULT '',
					user_id TEXT,
					session_id TEXT,
					created_at TIMESTAMP NOT NULL
				)`,
				`CREATE TABLE IF NOT EXISTS tool_call_logs (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					session_id TEXT NOT NULL,
					turn INTEGER NOT NULL,
					iteration INTEGER NOT NULL,
					tool_name TEXT NOT NULL,
					latency_ms INTEGER NOT NULL DEFAULT 0,
					success BOOLEAN NOT NULL DEFAULT 0,
					user_id TEXT,
					created_at TIMESTAMP NOT NULL
				)`,
				`CREATE TABLE IF NOT EXISTS llm_call_logs (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					session_id TEXT NOT NULL,
					turn INTEGER NOT NULL,
					iteration INTEGER NOT NULL,
					model_name TEXT NOT NULL,
					tokens INTEGER NOT NULL DEFAULT 0,
					latency_ms INTEGER NOT NULL DEFAULT 0,
					ttft_ms INTEGER NOT NULL DEFAULT 0,
					success BOOLEAN NOT NULL DEFAULT 0,
					user_id TEXT,
					created_at TIMESTAMP NOT NULL
				)`,
			},
		},
		{
			Version:     4,
			Description: "workspace files, checkpoints, rules, config",
			Statements: []string{
				`CREATE TABLE IF NOT EXISTS workspace_files (
					workspace_root TEXT NOT NULL,
					path TEXT NOT NULL,
					name TEXT NOT NULL,
					size INTEGER NOT NULL DEFAULT 0,
					mod_time TIMESTAMP NOT NULL,
					sheets_json TEXT NOT NULL DEFAULT '[]',
					PRIMARY KEY (workspace_root, path)
				)`,
				`CREATE TABLE IF NOT EXISTS checkpoints (
					session_id TEXT NOT NULL,
					state_json TEXT NOT NULL,
					task_list_json TEXT NOT NULL DEFAULT '[]',
					turn_number INTEGER NOT NULL,
					created_at TIMESTAMP NOT NULL,
					PRIMARY KEY (session_id, turn_number)
				)`,
				`CREATE TABLE IF NOT EXISTS rules (
					id TEXT PRIMARY KEY,
					content TEXT NOT NULL,
					enabled BOOLEAN NOT NULL DEFAULT 1,
					scope TEXT NOT NULL,
					session_id TEXT NOT NULL DEFAULT '',
					created_at TIMESTAMP NOT NULL
				)`,
				`CREATE TABLE IF NOT EXISTS config_entries (
					key TEXT NOT NULL,
					value TEXT NOT NULL,
					user_id TEXT,
					updated_at TIMESTAMP NOT NULL,
					PRIMARY KEY (key, user_id)
				)`,
			},
		},
	}
}
