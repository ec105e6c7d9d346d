package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultRegion is assigned to users who never picked one.
const DefaultRegion = "Global"

// User is a registered learner.
type User struct {
	ID              string    `json:"user_id"`
	Username        string    `json:"username"`
	Email           string    `json:"email,omitempty"`
	PreferredRegion string    `json:"preferred_region"`
	CreatedAt       time.Time `json:"created_at"`
	LastActive      time.Time `json:"last_active"`
}

// Session is one learning conversation between a user and a persona.
type Session struct {
	ID            int64      `json:"session_id"`
	UserID        string     `json:"user_id"`
	Topic         string     `json:"topic"`
	Persona       string     `json:"persona"`
	Region        string     `json:"region"`
	StudentLevel  string     `json:"student_level"`
	IsCustomGuide bool       `json:"is_custom_guide"`
	StartedAt     time.Time  `json:"started_at"`
	EndedAt       *time.Time `json:"ended_at,omitempty"`
	MessageCount  int        `json:"message_count"`
}

// ChatMessage is one stored chat turn.
type ChatMessage struct {
	ID        int64     `json:"message_id"`
	SessionID int64     `json:"session_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// SessionDetails is a session with its full transcript.
type SessionDetails struct {
	Session
	Messages []ChatMessage `json:"messages"`
}

// Preferences holds a user's saved favorites and level.
type Preferences struct {
	UserID           string   `json:"user_id"`
	FavoritePersonas []string `json:"favorite_personas"`
	FavoriteTopics   []string `json:"favorite_topics"`
	PreferredLevel   string   `json:"preferred_level"`
}

// TopicCount ranks a topic by how often it was studied.
type TopicCount struct {
	Topic string `json:"topic"`
	Count int    `json:"count"`
}

// PersonaCount ranks a persona by how often it taught.
type PersonaCount struct {
	Persona string `json:"persona"`
	Count   int    `json:"count"`
}

// UserStats aggregates a user's learning history.
type UserStats struct {
	TotalSessions    int            `json:"total_sessions"`
	TotalMessages    int            `json:"total_messages"`
	FavoriteTopics   []TopicCount   `json:"favorite_topics"`
	FavoritePersonas []PersonaCount `json:"favorite_personas"`
	RecentSessions   []Session      `json:"recent_sessions"`
	AllSessions      []Session      `json:"all_sessions"`
}

// UserParams identifies or describes a user for GetOrCreateUser.
type UserParams struct {
	UserID          string
	Username        string
	Email           string
	PreferredRegion string
}

// GetOrCreateUser finds a user by email first, then by ID, creating one
// when neither matches. Found users get their last_active touched; a found
// user whose username changed is renamed.
func (s *Store) GetOrCreateUser(ctx context.Context, p UserParams) (*User, error) {
	if p.Username == "" {
		p.Username = "Anonymous"
	}
	if p.PreferredRegion == "" {
		p.PreferredRegion = DefaultRegion
	}

	var user *User
	var err error

	if p.Email != "" {
		user, err = s.userByEmail(ctx, p.Email)
		if err != nil {
			return nil, err
		}
		if user != nil && p.Username != user.Username {
			if _, err := s.db.ExecContext(ctx,
				`UPDATE users SET username = ? WHERE user_id = ?`, p.Username, user.ID); err != nil {
				return nil, fmt.Errorf("rename user: %w", err)
			}
		}
	}
	if user == nil && p.UserID != "" {
		user, err = s.userByID(ctx, p.UserID)
		if err != nil {
			return nil, err
		}
	}

	if user == nil {
		id := p.UserID
		if id == "" {
			id = uuid.NewString()
		}
		now := time.Now()
		err = s.WithTx(ctx, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO users (user_id, username, email, preferred_region, created_at, last_active)
				 VALUES (?, ?, ?, ?, ?, ?)`,
				id, p.Username, nullString(p.Email), p.PreferredRegion, now, now); err != nil {
				return fmt.Errorf("insert user: %w", err)
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO user_preferences (user_id, favorite_personas, favorite_topics)
				 VALUES (?, ?, ?)`,
				id, "[]", "[]"); err != nil {
				return fmt.Errorf("insert preferences: %w", err)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		s.log.Info("created user %s (%s)", p.Username, id)
		return s.userByID(ctx, id)
	}

	if _, err := s.db.ExecContext(ctx,
		`UPDATE users SET last_active = ? WHERE user_id = ?`, time.Now(), user.ID); err != nil {
		return nil, fmt.Errorf("touch last_active: %w", err)
	}
	return s.userByID(ctx, user.ID)
}

func (s *Store) userByEmail(ctx context.Context, email string) (*User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT user_id, username, email, preferred_region, created_at, last_active
		 FROM users WHERE email = ?`, email))
}

func (s *Store) userByID(ctx context.Context, id string) (*User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT user_id, username, email, preferred_region, created_at, last_active
		 FROM users WHERE user_id = ?`, id))
}

// scanUser reads one user row; a missing row is (nil, nil), not an error.
func (s *Store) scanUser(row *sql.Row) (*User, error) {
	var u User
	var username, email sql.NullString
	err := row.Scan(&u.ID, &username, &email, &u.PreferredRegion, &u.CreatedAt, &u.LastActive)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	u.Username = username.String
	u.Email = email.String
	return &u, nil
}

// SessionParams describes a new learning session.
type SessionParams struct {
	UserID        string
	Topic         string
	Persona       string
	Region        string
	StudentLevel  string
	IsCustomGuide bool
}

// CreateSession records the start of a learning session and returns its ID.
func (s *Store) CreateSession(ctx context.Context, p SessionParams) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO learning_sessions (user_id, topic, persona, region, student_level, is_custom_guide, started_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.UserID, p.Topic, p.Persona, p.Region, p.StudentLevel, boolToInt(p.IsCustomGuide), time.Now())
	if err != nil {
		return 0, fmt.Errorf("insert session: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("session id: %w", err)
	}
	s.log.Debug("created session %d: topic=%q persona=%q", id, p.Topic, p.Persona)
	return id, nil
}

// AddMessage appends a chat turn to a session and bumps its message count.
func (s *Store) AddMessage(ctx context.Context, sessionID int64, role, content string) error {
	return s.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO chat_messages (session_id, role, content, timestamp)
			 VALUES (?, ?, ?, ?)`,
			sessionID, role, content, time.Now()); err != nil {
			return fmt.Errorf("insert message: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE learning_sessions SET message_count = message_count + 1
			 WHERE session_id = ?`, sessionID); err != nil {
			return fmt.Errorf("bump message count: %w", err)
		}
		return nil
	})
}

// EndSession marks a session as finished.
func (s *Store) EndSession(ctx context.Context, sessionID int64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE learning_sessions SET ended_at = ? WHERE session_id = ?`,
		time.Now(), sessionID)
	if err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return fmt.Errorf("session not found: %d", sessionID)
	}
	return nil
}

// ChatHistory returns a session's transcript in chronological order.
func (s *Store) ChatHistory(ctx context.Context, sessionID int64) ([]ChatMessage, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT message_id, session_id, role, content, timestamp
		 FROM chat_messages WHERE session_id = ? ORDER BY timestamp ASC, message_id ASC`,
		sessionID)
	if err != nil {
		return nil, fmt.Errorf("query chat history: %w", err)
	}
	defer rows.Close()

	var messages []ChatMessage
	for rows.Next() {
		var m ChatMessage
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// GetSession returns one session's metadata.
func (s *Store) GetSession(ctx context.Context, sessionID int64) (*Session, error) {
	row := s.db.QueryRowContext(ctx, sessionQuery+` WHERE session_id = ?`, sessionID)
	sess, err := scanSession(row.Scan)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("session not found: %d", sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("query session: %w", err)
	}
	return sess, nil
}

// SessionDetails returns a session together with its transcript.
func (s *Store) SessionDetails(ctx context.Context, sessionID int64) (*SessionDetails, error) {
	sess, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	messages, err := s.ChatHistory(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return &SessionDetails{Session: *sess, Messages: messages}, nil
}

// DeleteSession removes a session and its messages.
func (s *Store) DeleteSession(ctx context.Context, sessionID int64) error {
	return s.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM chat_messages WHERE session_id = ?`, sessionID); err != nil {
			return fmt.Errorf("delete messages: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM learning_sessions WHERE session_id = ?`, sessionID); err != nil {
			return fmt.Errorf("delete session: %w", err)
		}
		return nil
	})
}

// UserStats aggregates totals, favorites, and history for one user.
func (s *Store) UserStats(ctx context.Context, userID string) (*UserStats, error) {
	stats := &UserStats{}

	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(message_count), 0)
		 FROM learning_sessions WHERE user_id = ?`, userID).
		Scan(&stats.TotalSessions, &stats.TotalMessages)
	if err != nil {
		return nil, fmt.Errorf("query totals: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT topic, COUNT(*) AS count FROM learning_sessions
		 WHERE user_id = ? GROUP BY topic ORDER BY count DESC LIMIT 5`, userID)
	if err != nil {
		return nil, fmt.Errorf("query favorite topics: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var tc TopicCount
		if err := rows.Scan(&tc.Topic, &tc.Count); err != nil {
			return nil, fmt.Errorf("scan topic count: %w", err)
		}
		stats.FavoriteTopics = append(stats.FavoriteTopics, tc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.db.QueryContext(ctx,
		`SELECT persona, COUNT(*) AS count FROM learning_sessions
		 WHERE user_id = ? GROUP BY persona ORDER BY count DESC LIMIT 5`, userID)
	if err != nil {
		return nil, fmt.Errorf("query favorite personas: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var pc PersonaCount
		if err := rows.Scan(&pc.Persona, &pc.Count); err != nil {
			return nil, fmt.Errorf("scan persona count: %w", err)
		}
		stats.FavoritePersonas = append(stats.FavoritePersonas, pc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	all, err := s.userSessions(ctx, userID)
	if err != nil {
		return nil, err
	}
	stats.AllSessions = all
	if len(all) > 5 {
		stats.RecentSessions = all[:5]
	} else {
		stats.RecentSessions = all
	}

	return stats, nil
}

// userSessions returns a user's sessions, newest first.
func (s *Store) userSessions(ctx context.Context, userID string) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx,
		sessionQuery+` WHERE user_id = ? ORDER BY started_at DESC, session_id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		sess, err := scanSession(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, *sess)
	}
	return sessions, rows.Err()
}

// LogEvent appends an analytics event with optional JSON payload.
func (s *Store) LogEvent(ctx context.Context, eventType string, data map[string]any) error {
	var payload any
	if data != nil {
		encoded, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("marshal event data: %w", err)
		}
		payload = string(encoded)
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO analytics (event_type, event_data, timestamp) VALUES (?, ?, ?)`,
		eventType, payload, time.Now()); err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// PopularTopics returns the most-studied topics across all users.
func (s *Store) PopularTopics(ctx context.Context, limit int) ([]TopicCount, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT topic, COUNT(*) AS count FROM learning_sessions
		 GROUP BY topic ORDER BY count DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query popular topics: %w", err)
	}
	defer rows.Close()

	var topics []TopicCount
	for rows.Next() {
		var tc TopicCount
		if err := rows.Scan(&tc.Topic, &tc.Count); err != nil {
			return nil, fmt.Errorf("scan topic count: %w", err)
		}
		topics = append(topics, tc)
	}
	return topics, rows.Err()
}

// PopularPersonas returns the most-used personas across all users.
func (s *Store) PopularPersonas(ctx context.Context, limit int) ([]PersonaCount, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT persona, COUNT(*) AS count FROM learning_sessions
		 GROUP BY persona ORDER BY count DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query popular personas: %w", err)
	}
	defer rows.Close()

	var personas []PersonaCount
	for rows.Next() {
		var pc PersonaCount
		if err := rows.Scan(&pc.Persona, &pc.Count); err != nil {
			return nil, fmt.Errorf("scan persona count: %w", err)
		}
		personas = append(personas, pc)
	}
	return personas, rows.Err()
}

// PreferenceUpdate is a partial preferences change; nil slices and empty
// strings mean "leave unchanged".
type PreferenceUpdate struct {
	FavoriteTopics   []string
	FavoritePersonas []string
	PreferredLevel   string
}

// UpdatePreferences applies a partial preferences change.
func (s *Store) UpdatePreferences(ctx context.Context, userID string, p PreferenceUpdate) error {
	var sets []string
	var args []any

	if p.FavoriteTopics != nil {
		encoded, err := json.Marshal(p.FavoriteTopics)
		if err != nil {
			return fmt.Errorf("marshal favorite topics: %w", err)
		}
		sets = append(sets, "favorite_topics = ?")
		args = append(args, string(encoded))
	}
	if p.FavoritePersonas != nil {
		encoded, err := json.Marshal(p.FavoritePersonas)
		if err != nil {
			return fmt.Errorf("marshal favorite personas: %w", err)
		}
		sets = append(sets, "favorite_personas = ?")
		args = append(args, string(encoded))
	}
	if p.PreferredLevel != "" {
		sets = append(sets, "preferred_level = ?")
		args = append(args, p.PreferredLevel)
	}
	if len(sets) == 0 {
		return nil
	}

	args = append(args, userID)
	query := "UPDATE user_preferences SET " + strings.Join(sets, ", ") + " WHERE user_id = ?"
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update preferences: %w", err)
	}
	return nil
}

// Preferences returns a user's saved preferences.
func (s *Store) Preferences(ctx context.Context, userID string) (*Preferences, error) {
	var p Preferences
	var personasJSON, topicsJSON sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, favorite_personas, favorite_topics, preferred_level
		 FROM user_preferences WHERE user_id = ?`, userID).
		Scan(&p.UserID, &personasJSON, &topicsJSON, &p.PreferredLevel)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("preferences not found for user: %s", userID)
	}
	if err != nil {
		return nil, fmt.Errorf("query preferences: %w", err)
	}

	if personasJSON.Valid && personasJSON.String != "" {
		if err := json.Unmarshal([]byte(personasJSON.String), &p.FavoritePersonas); err != nil {
			return nil, fmt.Errorf("unmarshal favorite personas: %w", err)
		}
	}
	if topicsJSON.Valid && topicsJSON.String != "" {
		if err := json.Unmarshal([]byte(topicsJSON.String), &p.FavoriteTopics); err != nil {
			return nil, fmt.Errorf("unmarshal favorite topics: %w", err)
		}
	}
	return &p, nil
}

// sessionQuery selects the full session column set in scanSession order.
const sessionQuery = `SELECT session_id, user_id, topic, persona, region, student_level,
	is_custom_guide, started_at, ended_at, message_count FROM learning_sessions`

// scanSession reads one session row from a row or rows scanner.
func scanSession(scan func(dest ...any) error) (*Session, error) {
	var sess Session
	var userID, region, level sql.NullString
	var isCustom int64
	var endedAt sql.NullTime
	err := scan(&sess.ID, &userID, &sess.Topic, &sess.Persona, &region, &level,
		&isCustom, &sess.StartedAt, &endedAt, &sess.MessageCount)
	if err != nil {
		return nil, err
	}
	sess.UserID = userID.String
	sess.Region = region.String
	sess.StudentLevel = level.String
	sess.IsCustomGuide = isCustom != 0
	if endedAt.Valid {
		sess.EndedAt = &endedAt.Time
	}
	return &sess, nil
}

// nullString maps "" to NULL for nullable text columns.
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// boolToInt stores Go bools in SQLite's 0/1 convention.
func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
