package db

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"aether/internal/models"
	_ "modernc.org/sqlite"
)

// HistoryLimit caps how many history rows GetHistory returns.
const HistoryLimit = 1000

func Open(dbPath string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	// One connection: the pragma below is per connection, and history
	// writes arrive from background goroutines.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		_ = db.Close()
		return nil, err
	}

	schema := []string{
		`CREATE TABLE IF NOT EXISTS history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			url TEXT NOT NULL UNIQUE,
			title TEXT NOT NULL DEFAULT '',
			visit_count INTEGER NOT NULL DEFAULT 1,
			last_visit INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_history_last_visit ON history(last_visit DESC);`,
		`CREATE TABLE IF NOT EXISTS bookmarks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			url TEXT NOT NULL,
			title TEXT NOT NULL,
			folder_id INTEGER,
			created_at INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`INSERT OR IGNORE INTO settings (key, value) VALUES
			('theme', 'light'),
			('default_search_engine', 'google'),
			('ai_provider', 'openai'),
			('ai_model', 'gpt-4o'),
			('agent_mode_enabled', 'false');`,
		`CREATE TABLE IF NOT EXISTS conversations (
			id TEXT PRIMARY KEY,
			tab_id TEXT NOT NULL DEFAULT '',
			model_provider TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			conversation_id TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			FOREIGN KEY(conversation_id) REFERENCES conversations(id) ON DELETE CASCADE
		);`,
		`CREATE INDEX IF NOT EXISTS idx_messages_conversation_id ON messages(conversation_id, id);`,
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	return db, nil
}

// AddHistoryEntry records a visit. Repeat visits bump visit_count and keep
// the old title when the new one is empty.
func AddHistoryEntry(db *sql.DB, url, title string, nowUnix int64) error {
	_, err := db.Exec(
		`INSERT INTO history(url, title, visit_count, last_visit) VALUES(?, ?, 1, ?)
		ON CONFLICT(url) DO UPDATE SET
			visit_count = visit_count + 1,
			last_visit = excluded.last_visit,
			title = CASE WHEN excluded.title = '' THEN history.title ELSE excluded.title END`,
		url,
		title,
		nowUnix,
	)
	return err
}

func GetHistory(db *sql.DB) ([]models.HistoryEntry, error) {
	rows, err := db.Query(
		"SELECT id, url, title, visit_count, last_visit FROM history ORDER BY last_visit DESC, id DESC LIMIT ?",
		HistoryLimit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []models.HistoryEntry{}
	for rows.Next() {
		var e models.HistoryEntry
		var lastVisit int64
		if err := rows.Scan(&e.ID, &e.URL, &e.Title, &e.VisitCount, &lastVisit); err != nil {
			return nil, err
		}
		e.LastVisit = time.Unix(lastVisit, 0)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func ClearHistory(db *sql.DB) error {
	_, err := db.Exec("DELETE FROM history")
	return err
}

func AddBookmark(db *sql.DB, url, title string, folderID *int64, nowUnix int64) (models.Bookmark, error) {
	res, err := db.Exec(
		"INSERT INTO bookmarks(url, title, folder_id, created_at) VALUES(?, ?, ?, ?)",
		url,
		title,
		folderID,
		nowUnix,
	)
	if err != nil {
		return models.Bookmark{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Bookmark{}, err
	}
	return models.Bookmark{
		ID:        id,
		URL:       url,
		Title:     title,
		FolderID:  folderID,
		CreatedAt: time.Unix(nowUnix, 0),
	}, nil
}

// GetBookmarks returns bookmarks newest first.
func GetBookmarks(db *sql.DB) ([]models.Bookmark, error) {
	rows, err := db.Query("SELECT id, url, title, folder_id, created_at FROM bookmarks ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookmarks := []models.Bookmark{}
	for rows.Next() {
		var b models.Bookmark
		var folder sql.NullInt64
		var createdAt int64
		if err := rows.Scan(&b.ID, &b.URL, &b.Title, &folder, &createdAt); err != nil {
			return nil, err
		}
		if folder.Valid {
			f := folder.Int64
			b.FolderID = &f
		}
		b.CreatedAt = time.Unix(createdAt, 0)
		bookmarks = append(bookmarks, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return bookmarks, nil
}

func DeleteBookmark(db *sql.DB, id int64) error {
	_, err := db.Exec("DELETE FROM bookmarks WHERE id = ?", id)
	return err
}

func GetSettings(db *sql.DB) (models.Settings, error) {
	rows, err := db.Query("SELECT key, value FROM settings")
	if err != nil {
		return models.Settings{}, err
	}
	defer rows.Close()

	s := models.DefaultSettings()
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return models.Settings{}, err
		}
		switch key {
		case "theme":
			s.Theme = models.Theme(value)
		case "default_search_engine":
			s.DefaultSearchEngine = value
		case "ai_provider":
			s.AIProvider = value
		case "ai_model":
			s.AIModel = value
		case "agent_mode_enabled":
			s.AgentModeEnabled, _ = strconv.ParseBool(value)
		}
	}
	if err := rows.Err(); err != nil {
		return models.Settings{}, err
	}
	return s, nil
}

// UpdateSettings writes every key in one transaction.
func UpdateSettings(db *sql.DB, s models.Settings) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	values := [][2]string{
		{"theme", string(s.Theme)},
		{"default_search_engine", s.DefaultSearchEngine},
		{"ai_provider", s.AIProvider},
		{"ai_model", s.AIModel},
		{"agent_mode_enabled", strconv.FormatBool(s.AgentModeEnabled)},
	}
	for _, kv := range values {
		if _, err := tx.Exec("INSERT OR REPLACE INTO settings(key, value) VALUES(?, ?)", kv[0], kv[1]); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func CreateConversation(db *sql.DB, id, tabID, provider string, nowUnix int64) error {
	_, err := db.Exec(
		"INSERT INTO conversations(id, tab_id, model_provider, created_at, updated_at) VALUES(?, ?, ?, ?, ?)",
		id,
		tabID,
		provider,
		nowUnix,
		nowUnix,
	)
	return err
}

// InsertMessage appends a message and touches the conversation.
func InsertMessage(db *sql.DB, conversationID, role, content string, nowUnix int64) error {
	if _, err := db.Exec(
		"INSERT INTO messages(conversation_id, role, content, created_at) VALUES(?, ?, ?, ?)",
		conversationID,
		role,
		content,
		nowUnix,
	); err != nil {
		return err
	}
	_, err := db.Exec("UPDATE conversations SET updated_at = ? WHERE id = ?", nowUnix, conversationID)
	return err
}

// GetRecentConversations returns the total number of conversations and one
// page of them, most recently updated first.
func GetRecentConversations(db *sql.DB, limit, offset int) (int, []models.ConversationSummary, error) {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM conversations").Scan(&count); err != nil {
		return 0, nil, err
	}

	rows, err := db.Query(
		`SELECT c.id, c.tab_id, c.model_provider, c.updated_at,
			COALESCE((SELECT content FROM messages
				WHERE conversation_id = c.id AND role = ?
				ORDER BY id DESC LIMIT 1), ''),
			(SELECT COUNT(*) FROM messages WHERE conversation_id = c.id)
		FROM conversations c
		ORDER BY c.updated_at DESC, c.rowid DESC
		LIMIT ? OFFSET ?`,
		models.RoleUser,
		limit,
		offset,
	)
	if err != nil {
		return 0, nil, err
	}
	defer rows.Close()

	items := make([]models.ConversationSummary, 0, limit)
	for rows.Next() {
		var it models.ConversationSummary
		var updatedAt int64
		if err := rows.Scan(&it.ID, &it.TabID, &it.ModelProvider, &updatedAt, &it.LastUserPrompt, &it.MessageCount); err != nil {
			return 0, nil, err
		}
		it.UpdatedAt = time.Unix(updatedAt, 0)
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return 0, nil, err
	}
	return count, items, nil
}

// GetConversation returns nil, nil when no conversation has the id.
func GetConversation(db *sql.DB, id string) (*models.Conversation, error) {
	conv := &models.Conversation{}
	err := db.QueryRow(
		"SELECT id, tab_id, model_provider FROM conversations WHERE id = ?",
		id,
	).Scan(&conv.ID, &conv.TabID, &conv.ModelProvider)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(
		"SELECT role, content, created_at FROM messages WHERE conversation_id = ? ORDER BY id ASC",
		id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	conv.Messages = []models.Message{}
	for rows.Next() {
		var m models.Message
		var createdAt int64
		if err := rows.Scan(&m.Role, &m.Content, &createdAt); err != nil {
			return nil, err
		}
		m.Timestamp = time.Unix(createdAt, 0)
		conv.Messages = append(conv.Messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return conv, nil
}
