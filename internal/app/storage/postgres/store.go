package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/jarvisfi/jarvisfi/internal/app/domain/alert"
	"github.com/jarvisfi/jarvisfi/internal/app/domain/chat"
	"github.com/jarvisfi/jarvisfi/internal/app/domain/finance"
	"github.com/jarvisfi/jarvisfi/internal/app/domain/forum"
	"github.com/jarvisfi/jarvisfi/internal/app/domain/user"
	"github.com/jarvisfi/jarvisfi/internal/app/storage"
)

// Store implements the storage interfaces backed by PostgreSQL.
type Store struct {
	db *sql.DB
}

var _ storage.UserStore = (*Store)(nil)
var _ storage.SessionStore = (*Store)(nil)
var _ storage.ConversationStore = (*Store)(nil)
var _ storage.FinanceStore = (*Store)(nil)
var _ storage.ForumStore = (*Store)(nil)
var _ storage.AlertStore = (*Store)(nil)

// New creates a Store using the provided database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// --- UserStore --------------------------------------------------------------

func (s *Store) CreateUser(ctx context.Context, u user.User) (user.User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	profileJSON, err := json.Marshal(u.Profile)
	if err != nil {
		return user.User{}, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO app_users (id, email, password_hash, name, role, profile, created_at, updated_at)
		VALUES ($1, lower($2), $3, $4, $5, $6, $7, $8)
	`, u.ID, u.Email, u.PasswordHash, u.Name, u.Role, profileJSON, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return user.User{}, err
	}
	return u, nil
}

func (s *Store) UpdateUser(ctx context.Context, u user.User) (user.User, error) {
	existing, err := s.GetUser(ctx, u.ID)
	if err != nil {
		return user.User{}, err
	}

	u.CreatedAt = existing.CreatedAt
	u.UpdatedAt = time.Now().UTC()

	profileJSON, err := json.Marshal(u.Profile)
	if err != nil {
		return user.User{}, err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE app_users
		SET email = lower($2), password_hash = $3, name = $4, role = $5, profile = $6, updated_at = $7
		WHERE id = $1
	`, u.ID, u.Email, u.PasswordHash, u.Name, u.Role, profileJSON, u.UpdatedAt)
	if err != nil {
		return user.User{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return user.User{}, sql.ErrNoRows
	}
	return u, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (user.User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, name, role, profile, created_at, updated_at
		FROM app_users
		WHERE id = $1
	`, id)
	return scanUser(row)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, name, role, profile, created_at, updated_at
		FROM app_users
		WHERE email = lower($1)
	`, email)
	return scanUser(row)
}

func (s *Store) ListUsers(ctx context.Context) ([]user.User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, email, password_hash, name, role, profile, created_at, updated_at
		FROM app_users
		ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []user.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (user.User, error) {
	var (
		u          user.User
		profileRaw []byte
	)
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Role, &profileRaw, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return user.User{}, err
	}
	if len(profileRaw) > 0 {
		_ = json.Unmarshal(profileRaw, &u.Profile)
	}
	return u, nil
}

// --- SessionStore -----------------------------------------------------------

func (s *Store) CreateSession(ctx context.Context, sess user.Session) (user.Session, error) {
	if sess.ID == "" {
		sess.ID = uuid.NewString()
	}
	sess.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO app_sessions (id, user_id, token_hash, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, sess.ID, sess.UserID, sess.TokenHash, sess.ExpiresAt, sess.CreatedAt)
	if err != nil {
		return user.Session{}, err
	}
	return sess, nil
}

func (s *Store) GetSessionByTokenHash(ctx context.Context, tokenHash string) (user.Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, token_hash, expires_at, created_at
		FROM app_sessions
		WHERE token_hash = $1
	`, tokenHash)

	var sess user.Session
	if err := row.Scan(&sess.ID, &sess.UserID, &sess.TokenHash, &sess.ExpiresAt, &sess.CreatedAt); err != nil {
		return user.Session{}, err
	}
	return sess, nil
}

func (s *Store) DeleteSession(ctx context.Context, tokenHash string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM app_sessions WHERE token_hash = $1`, tokenHash)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *Store) DeleteUserSessions(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM app_sessions WHERE user_id = $1`, userID)
	return err
}

// --- ConversationStore ------------------------------------------------------

func (s *Store) CreateConversation(ctx context.Context, c chat.Conversation) (chat.Conversation, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO app_conversations (id, user_id, title, language, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, c.ID, c.UserID, c.Title, c.Language, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return chat.Conversation{}, err
	}
	return c, nil
}

func (s *Store) GetConversation(ctx context.Context, id string) (chat.Conversation, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, title, language, created_at, updated_at
		FROM app_conversations
		WHERE id = $1
	`, id)

	var c chat.Conversation
	if err := row.Scan(&c.ID, &c.UserID, &c.Title, &c.Language, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return chat.Conversation{}, err
	}
	return c, nil
}

func (s *Store) ListConversations(ctx context.Context, userID string) ([]chat.Conversation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, title, language, created_at, updated_at
		FROM app_conversations
		WHERE user_id = $1
		ORDER BY updated_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var convs []chat.Conversation
	for rows.Next() {
		var c chat.Conversation
		if err := rows.Scan(&c.ID, &c.UserID, &c.Title, &c.Language, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		convs = append(convs, c)
	}
	return convs, rows.Err()
}

func (s *Store) DeleteConversation(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM app_messages WHERE conversation_id = $1`, id); err != nil {
		return err
	}
	result, err := s.db.ExecContext(ctx, `DELETE FROM app_conversations WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *Store) CreateMessage(ctx context.Context, m chat.Message) (chat.Message, error) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	m.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO app_messages (id, conversation_id, role, content, language, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, m.ID, m.ConversationID, string(m.Role), m.Content, m.Language, m.CreatedAt)
	if err != nil {
		return chat.Message{}, err
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE app_conversations SET updated_at = $2 WHERE id = $1
	`, m.ConversationID, m.CreatedAt)
	if err != nil {
		return chat.Message{}, err
	}
	return m, nil
}

func (s *Store) ListMessages(ctx context.Context, conversationID string) ([]chat.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, conversation_id, role, content, language, created_at
		FROM app_messages
		WHERE conversation_id = $1
		ORDER BY created_at
	`, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []chat.Message
	for rows.Next() {
		var (
			m    chat.Message
			role string
		)
		if err := rows.Scan(&m.ID, &m.ConversationID, &role, &m.Content, &m.Language, &m.CreatedAt); err != nil {
			return nil, err
		}
		m.Role = chat.Role(role)
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// --- FinanceStore -----------------------------------------------------------

func (s *Store) CreateBudget(ctx context.Context, b finance.Budget) (finance.Budget, error) {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	b.CreatedAt = now
	b.UpdatedAt = now

	limitsJSON, err := json.Marshal(b.Limits)
	if err != nil {
		return finance.Budget{}, err
	}
	spentJSON, err := json.Marshal(b.Spent)
	if err != nil {
		return finance.Budget{}, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO app_budgets (id, user_id, month, monthly_income, limits, spent, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, b.ID, b.UserID, b.Month, b.MonthlyIncome, limitsJSON, spentJSON, b.CreatedAt, b.UpdatedAt)
	if err != nil {
		return finance.Budget{}, err
	}
	return b, nil
}

func (s *Store) UpdateBudget(ctx context.Context, b finance.Budget) (finance.Budget, error) {
	existing, err := s.GetBudget(ctx, b.ID)
	if err != nil {
		return finance.Budget{}, err
	}
	b.CreatedAt = existing.CreatedAt
	b.UpdatedAt = time.Now().UTC()

	limitsJSON, err := json.Marshal(b.Limits)
	if err != nil {
		return finance.Budget{}, err
	}
	spentJSON, err := json.Marshal(b.Spent)
	if err != nil {
		return finance.Budget{}, err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE app_budgets
		SET month = $2, monthly_income = $3, limits = $4, spent = $5, updated_at = $6
		WHERE id = $1
	`, b.ID, b.Month, b.MonthlyIncome, limitsJSON, spentJSON, b.UpdatedAt)
	if err != nil {
		return finance.Budget{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return finance.Budget{}, sql.ErrNoRows
	}
	return b, nil
}

func (s *Store) GetBudget(ctx context.Context, id string) (finance.Budget, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, month, monthly_income, limits, spent, created_at, updated_at
		FROM app_budgets
		WHERE id = $1
	`, id)
	return scanBudget(row)
}

func (s *Store) ListBudgets(ctx context.Context, userID string) ([]finance.Budget, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, month, monthly_income, limits, spent, created_at, updated_at
		FROM app_budgets
		WHERE user_id = $1
		ORDER BY month
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var budgets []finance.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, err
		}
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}

func scanBudget(row rowScanner) (finance.Budget, error) {
	var (
		b         finance.Budget
		limitsRaw []byte
		spentRaw  []byte
	)
	if err := row.Scan(&b.ID, &b.UserID, &b.Month, &b.MonthlyIncome, &limitsRaw, &spentRaw, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return finance.Budget{}, err
	}
	if len(limitsRaw) > 0 {
		_ = json.Unmarshal(limitsRaw, &b.Limits)
	}
	if len(spentRaw) > 0 {
		_ = json.Unmarshal(spentRaw, &b.Spent)
	}
	return b, nil
}

func (s *Store) CreateGoal(ctx context.Context, g finance.Goal) (finance.Goal, error) {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	g.CreatedAt = now
	g.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO app_goals (id, user_id, name, target_amount, saved_amount, target_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, g.ID, g.UserID, g.Name, g.TargetAmount, g.SavedAmount, g.TargetDate, g.CreatedAt, g.UpdatedAt)
	if err != nil {
		return finance.Goal{}, err
	}
	return g, nil
}

func (s *Store) UpdateGoal(ctx context.Context, g finance.Goal) (finance.Goal, error) {
	existing, err := s.GetGoal(ctx, g.ID)
	if err != nil {
		return finance.Goal{}, err
	}
	g.CreatedAt = existing.CreatedAt
	g.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE app_goals
		SET name = $2, target_amount = $3, saved_amount = $4, target_date = $5, updated_at = $6
		WHERE id = $1
	`, g.ID, g.Name, g.TargetAmount, g.SavedAmount, g.TargetDate, g.UpdatedAt)
	if err != nil {
		return finance.Goal{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return finance.Goal{}, sql.ErrNoRows
	}
	return g, nil
}

func (s *Store) GetGoal(ctx context.Context, id string) (finance.Goal, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, target_amount, saved_amount, target_date, created_at, updated_at
		FROM app_goals
		WHERE id = $1
	`, id)

	var g finance.Goal
	if err := row.Scan(&g.ID, &g.UserID, &g.Name, &g.TargetAmount, &g.SavedAmount, &g.TargetDate, &g.CreatedAt, &g.UpdatedAt); err != nil {
		return finance.Goal{}, err
	}
	return g, nil
}

func (s *Store) ListGoals(ctx context.Context, userID string) ([]finance.Goal, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, name, target_amount, saved_amount, target_date, created_at, updated_at
		FROM app_goals
		WHERE user_id = $1
		ORDER BY target_date
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var goals []finance.Goal
	for rows.Next() {
		var g finance.Goal
		if err := rows.Scan(&g.ID, &g.UserID, &g.Name, &g.TargetAmount, &g.SavedAmount, &g.TargetDate, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, err
		}
		goals = append(goals, g)
	}
	return goals, rows.Err()
}

func (s *Store) DeleteGoal(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM app_goals WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// --- ForumStore -------------------------------------------------------------

func (s *Store) CreatePost(ctx context.Context, p forum.Post) (forum.Post, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO app_posts (id, user_id, topic, title, body, language, flags, hidden, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, p.ID, p.UserID, p.Topic, p.Title, p.Body, p.Language, p.Flags, p.Hidden, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return forum.Post{}, err
	}
	return p, nil
}

func (s *Store) UpdatePost(ctx context.Context, p forum.Post) (forum.Post, error) {
	existing, err := s.GetPost(ctx, p.ID)
	if err != nil {
		return forum.Post{}, err
	}
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE app_posts
		SET topic = $2, title = $3, body = $4, language = $5, flags = $6, hidden = $7, updated_at = $8
		WHERE id = $1
	`, p.ID, p.Topic, p.Title, p.Body, p.Language, p.Flags, p.Hidden, p.UpdatedAt)
	if err != nil {
		return forum.Post{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return forum.Post{}, sql.ErrNoRows
	}
	return p, nil
}

func (s *Store) GetPost(ctx context.Context, id string) (forum.Post, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, topic, title, body, language, flags, hidden, created_at, updated_at
		FROM app_posts
		WHERE id = $1
	`, id)

	var p forum.Post
	if err := row.Scan(&p.ID, &p.UserID, &p.Topic, &p.Title, &p.Body, &p.Language, &p.Flags, &p.Hidden, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return forum.Post{}, err
	}
	return p, nil
}

func (s *Store) ListPosts(ctx context.Context, includeHidden bool, limit, offset int) ([]forum.Post, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, topic, title, body, language, flags, hidden, created_at, updated_at
		FROM app_posts
		WHERE $1 OR NOT hidden
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, includeHidden, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []forum.Post
	for rows.Next() {
		var p forum.Post
		if err := rows.Scan(&p.ID, &p.UserID, &p.Topic, &p.Title, &p.Body, &p.Language, &p.Flags, &p.Hidden, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

func (s *Store) CreateReply(ctx context.Context, r forum.Reply) (forum.Reply, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	r.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO app_replies (id, post_id, user_id, body, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, r.ID, r.PostID, r.UserID, r.Body, r.CreatedAt)
	if err != nil {
		return forum.Reply{}, err
	}
	return r, nil
}

func (s *Store) ListReplies(ctx context.Context, postID string) ([]forum.Reply, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, post_id, user_id, body, created_at
		FROM app_replies
		WHERE post_id = $1
		ORDER BY created_at
	`, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var replies []forum.Reply
	for rows.Next() {
		var r forum.Reply
		if err := rows.Scan(&r.ID, &r.PostID, &r.UserID, &r.Body, &r.CreatedAt); err != nil {
			return nil, err
		}
		replies = append(replies, r)
	}
	return replies, rows.Err()
}

// --- AlertStore -------------------------------------------------------------

func (s *Store) CreateAlert(ctx context.Context, a alert.Alert) (alert.Alert, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	a.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO app_alerts (id, user_id, kind, message, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, a.ID, a.UserID, string(a.Kind), a.Message, a.CreatedAt)
	if err != nil {
		return alert.Alert{}, err
	}
	return a, nil
}

func (s *Store) ListAlerts(ctx context.Context, userID string) ([]alert.Alert, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, kind, message, created_at
		FROM app_alerts
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []alert.Alert
	for rows.Next() {
		var (
			a    alert.Alert
			kind string
		)
		if err := rows.Scan(&a.ID, &a.UserID, &kind, &a.Message, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.Kind = alert.Kind(kind)
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}
