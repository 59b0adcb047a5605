package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jarvisfi/jarvisfi/internal/app/domain/alert"
	"github.com/jarvisfi/jarvisfi/internal/app/domain/chat"
	"github.com/jarvisfi/jarvisfi/internal/app/domain/finance"
	"github.com/jarvisfi/jarvisfi/internal/app/domain/forum"
	"github.com/jarvisfi/jarvisfi/internal/app/domain/user"
	"github.com/jarvisfi/jarvisfi/internal/app/storage"
)

// Store is an in-memory implementation of the storage interfaces. It is safe
// for concurrent use and is primarily intended for tests and local
// development.
type Store struct {
	mu            sync.RWMutex
	nextID        int64
	users         map[string]user.User
	usersByEmail  map[string]string
	sessions      map[string]user.Session
	conversations map[string]chat.Conversation
	messages      map[string][]chat.Message
	budgets       map[string]finance.Budget
	goals         map[string]finance.Goal
	posts         map[string]forum.Post
	replies       map[string][]forum.Reply
	alerts        map[string][]alert.Alert
}

var _ storage.UserStore = (*Store)(nil)
var _ storage.SessionStore = (*Store)(nil)
var _ storage.ConversationStore = (*Store)(nil)
var _ storage.FinanceStore = (*Store)(nil)
var _ storage.ForumStore = (*Store)(nil)
var _ storage.AlertStore = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		nextID:        1,
		users:         make(map[string]user.User),
		usersByEmail:  make(map[string]string),
		sessions:      make(map[string]user.Session),
		conversations: make(map[string]chat.Conversation),
		messages:      make(map[string][]chat.Message),
		budgets:       make(map[string]finance.Budget),
		goals:         make(map[string]finance.Goal),
		posts:         make(map[string]forum.Post),
		replies:       make(map[string][]forum.Reply),
		alerts:        make(map[string][]alert.Alert),
	}
}

func (s *Store) nextIDLocked() string {
	id := s.nextID
	s.nextID++
	return fmt.Sprintf("%d", id)
}

// UserStore implementation ----------------------------------------------------

func (s *Store) CreateUser(_ context.Context, u user.User) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(u.Email)
	if _, exists := s.usersByEmail[email]; exists {
		return user.User{}, fmt.Errorf("user with email %s already exists", u.Email)
	}
	if u.ID == "" {
		u.ID = s.nextIDLocked()
	} else if _, exists := s.users[u.ID]; exists {
		return user.User{}, fmt.Errorf("user %s already exists", u.ID)
	}

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	s.users[u.ID] = u
	s.usersByEmail[email] = u.ID
	return u, nil
}

func (s *Store) UpdateUser(_ context.Context, u user.User) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.users[u.ID]
	if !ok {
		return user.User{}, fmt.Errorf("user %s not found", u.ID)
	}

	u.CreatedAt = original.CreatedAt
	u.UpdatedAt = time.Now().UTC()

	if !strings.EqualFold(original.Email, u.Email) {
		newEmail := strings.ToLower(u.Email)
		if _, exists := s.usersByEmail[newEmail]; exists {
			return user.User{}, fmt.Errorf("user with email %s already exists", u.Email)
		}
		delete(s.usersByEmail, strings.ToLower(original.Email))
		s.usersByEmail[newEmail] = u.ID
	}

	s.users[u.ID] = u
	return u, nil
}

func (s *Store) GetUser(_ context.Context, id string) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return user.User{}, fmt.Errorf("user %s not found", id)
	}
	return u, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.usersByEmail[strings.ToLower(email)]
	if !ok {
		return user.User{}, fmt.Errorf("user with email %s not found", email)
	}
	return s.users[id], nil
}

func (s *Store) ListUsers(_ context.Context) ([]user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]user.User, 0, len(s.users))
	for _, u := range s.users {
		result = append(result, u)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

// SessionStore implementation -------------------------------------------------

func (s *Store) CreateSession(_ context.Context, sess user.Session) (user.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess.TokenHash == "" {
		return user.Session{}, fmt.Errorf("session token hash is required")
	}
	if sess.ID == "" {
		sess.ID = s.nextIDLocked()
	}
	sess.CreatedAt = time.Now().UTC()
	s.sessions[sess.TokenHash] = sess
	return sess, nil
}

func (s *Store) GetSessionByTokenHash(_ context.Context, tokenHash string) (user.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[tokenHash]
	if !ok {
		return user.Session{}, fmt.Errorf("session not found")
	}
	return sess, nil
}

func (s *Store) DeleteSession(_ context.Context, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[tokenHash]; !ok {
		return fmt.Errorf("session not found")
	}
	delete(s.sessions, tokenHash)
	return nil
}

func (s *Store) DeleteUserSessions(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for hash, sess := range s.sessions {
		if sess.UserID == userID {
			delete(s.sessions, hash)
		}
	}
	return nil
}

// ConversationStore implementation --------------------------------------------

func (s *Store) CreateConversation(_ context.Context, c chat.Conversation) (chat.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.ID == "" {
		c.ID = s.nextIDLocked()
	} else if _, exists := s.conversations[c.ID]; exists {
		return chat.Conversation{}, fmt.Errorf("conversation %s already exists", c.ID)
	}

	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	s.conversations[c.ID] = c
	return c, nil
}

func (s *Store) GetConversation(_ context.Context, id string) (chat.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.conversations[id]
	if !ok {
		return chat.Conversation{}, fmt.Errorf("conversation %s not found", id)
	}
	return c, nil
}

func (s *Store) ListConversations(_ context.Context, userID string) ([]chat.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]chat.Conversation, 0)
	for _, c := range s.conversations {
		if userID == "" || c.UserID == userID {
			result = append(result, c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].UpdatedAt.After(result[j].UpdatedAt) })
	return result, nil
}

func (s *Store) DeleteConversation(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.conversations[id]; !ok {
		return fmt.Errorf("conversation %s not found", id)
	}
	delete(s.conversations, id)
	delete(s.messages, id)
	return nil
}

func (s *Store) CreateMessage(_ context.Context, m chat.Message) (chat.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[m.ConversationID]
	if !ok {
		return chat.Message{}, fmt.Errorf("conversation %s not found", m.ConversationID)
	}
	if m.ID == "" {
		m.ID = s.nextIDLocked()
	}
	m.CreatedAt = time.Now().UTC()
	s.messages[m.ConversationID] = append(s.messages[m.ConversationID], m)

	conv.UpdatedAt = m.CreatedAt
	s.conversations[conv.ID] = conv
	return m, nil
}

func (s *Store) ListMessages(_ context.Context, conversationID string) ([]chat.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs := s.messages[conversationID]
	result := make([]chat.Message, len(msgs))
	copy(result, msgs)
	return result, nil
}

// FinanceStore implementation -------------------------------------------------

func (s *Store) CreateBudget(_ context.Context, b finance.Budget) (finance.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.budgets {
		if existing.UserID == b.UserID && existing.Month == b.Month {
			return finance.Budget{}, fmt.Errorf("budget for %s already exists", b.Month)
		}
	}
	if b.ID == "" {
		b.ID = s.nextIDLocked()
	}
	now := time.Now().UTC()
	b.CreatedAt = now
	b.UpdatedAt = now
	b.Limits = cloneFloatMap(b.Limits)
	b.Spent = cloneFloatMap(b.Spent)
	s.budgets[b.ID] = b
	return cloneBudget(b), nil
}

func (s *Store) UpdateBudget(_ context.Context, b finance.Budget) (finance.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.budgets[b.ID]
	if !ok {
		return finance.Budget{}, fmt.Errorf("budget %s not found", b.ID)
	}
	b.CreatedAt = original.CreatedAt
	b.UpdatedAt = time.Now().UTC()
	b.Limits = cloneFloatMap(b.Limits)
	b.Spent = cloneFloatMap(b.Spent)
	s.budgets[b.ID] = b
	return cloneBudget(b), nil
}

func (s *Store) GetBudget(_ context.Context, id string) (finance.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.budgets[id]
	if !ok {
		return finance.Budget{}, fmt.Errorf("budget %s not found", id)
	}
	return cloneBudget(b), nil
}

func (s *Store) ListBudgets(_ context.Context, userID string) ([]finance.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]finance.Budget, 0)
	for _, b := range s.budgets {
		if userID == "" || b.UserID == userID {
			result = append(result, cloneBudget(b))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Month < result[j].Month })
	return result, nil
}

func (s *Store) CreateGoal(_ context.Context, g finance.Goal) (finance.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if g.ID == "" {
		g.ID = s.nextIDLocked()
	}
	now := time.Now().UTC()
	g.CreatedAt = now
	g.UpdatedAt = now
	s.goals[g.ID] = g
	return g, nil
}

func (s *Store) UpdateGoal(_ context.Context, g finance.Goal) (finance.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.goals[g.ID]
	if !ok {
		return finance.Goal{}, fmt.Errorf("goal %s not found", g.ID)
	}
	g.CreatedAt = original.CreatedAt
	g.UpdatedAt = time.Now().UTC()
	s.goals[g.ID] = g
	return g, nil
}

func (s *Store) GetGoal(_ context.Context, id string) (finance.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.goals[id]
	if !ok {
		return finance.Goal{}, fmt.Errorf("goal %s not found", id)
	}
	return g, nil
}

func (s *Store) ListGoals(_ context.Context, userID string) ([]finance.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]finance.Goal, 0)
	for _, g := range s.goals {
		if userID == "" || g.UserID == userID {
			result = append(result, g)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].TargetDate.Before(result[j].TargetDate) })
	return result, nil
}

func (s *Store) DeleteGoal(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.goals[id]; !ok {
		return fmt.Errorf("goal %s not found", id)
	}
	delete(s.goals, id)
	return nil
}

// ForumStore implementation ---------------------------------------------------

func (s *Store) CreatePost(_ context.Context, p forum.Post) (forum.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == "" {
		p.ID = s.nextIDLocked()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	s.posts[p.ID] = p
	return p, nil
}

func (s *Store) UpdatePost(_ context.Context, p forum.Post) (forum.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.posts[p.ID]
	if !ok {
		return forum.Post{}, fmt.Errorf("post %s not found", p.ID)
	}
	p.CreatedAt = original.CreatedAt
	p.UpdatedAt = time.Now().UTC()
	s.posts[p.ID] = p
	return p, nil
}

func (s *Store) GetPost(_ context.Context, id string) (forum.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.posts[id]
	if !ok {
		return forum.Post{}, fmt.Errorf("post %s not found", id)
	}
	return p, nil
}

func (s *Store) ListPosts(_ context.Context, includeHidden bool, limit, offset int) ([]forum.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]forum.Post, 0, len(s.posts))
	for _, p := range s.posts {
		if p.Hidden && !includeHidden {
			continue
		}
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	if offset >= len(all) {
		return []forum.Post{}, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (s *Store) CreateReply(_ context.Context, r forum.Reply) (forum.Reply, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[r.PostID]; !ok {
		return forum.Reply{}, fmt.Errorf("post %s not found", r.PostID)
	}
	if r.ID == "" {
		r.ID = s.nextIDLocked()
	}
	r.CreatedAt = time.Now().UTC()
	s.replies[r.PostID] = append(s.replies[r.PostID], r)
	return r, nil
}

func (s *Store) ListReplies(_ context.Context, postID string) ([]forum.Reply, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	replies := s.replies[postID]
	result := make([]forum.Reply, len(replies))
	copy(result, replies)
	return result, nil
}

// AlertStore implementation ---------------------------------------------------

func (s *Store) CreateAlert(_ context.Context, a alert.Alert) (alert.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a.ID == "" {
		a.ID = s.nextIDLocked()
	}
	a.CreatedAt = time.Now().UTC()
	s.alerts[a.UserID] = append(s.alerts[a.UserID], a)
	return a, nil
}

func (s *Store) ListAlerts(_ context.Context, userID string) ([]alert.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	alerts := s.alerts[userID]
	result := make([]alert.Alert, len(alerts))
	copy(result, alerts)
	return result, nil
}

// helpers ---------------------------------------------------------------------

func cloneBudget(b finance.Budget) finance.Budget {
	b.Limits = cloneFloatMap(b.Limits)
	b.Spent = cloneFloatMap(b.Spent)
	return b
}

func cloneFloatMap(in map[string]float64) map[string]float64 {
	if in == nil {
		return nil
	}
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
