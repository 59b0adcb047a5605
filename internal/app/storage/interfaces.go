package storage

import (
	"context"

	"github.com/jarvisfi/jarvisfi/internal/app/domain/alert"
	"github.com/jarvisfi/jarvisfi/internal/app/domain/chat"
	"github.com/jarvisfi/jarvisfi/internal/app/domain/finance"
	"github.com/jarvisfi/jarvisfi/internal/app/domain/forum"
	"github.com/jarvisfi/jarvisfi/internal/app/domain/user"
)

// UserStore persists user records.
type UserStore interface {
	CreateUser(ctx context.Context, u user.User) (user.User, error)
	UpdateUser(ctx context.Context, u user.User) (user.User, error)
	GetUser(ctx context.Context, id string) (user.User, error)
	GetUserByEmail(ctx context.Context, email string) (user.User, error)
	ListUsers(ctx context.Context) ([]user.User, error)
}

// SessionStore persists issued sessions keyed by token hash.
type SessionStore interface {
	CreateSession(ctx context.Context, s user.Session) (user.Session, error)
	GetSessionByTokenHash(ctx context.Context, tokenHash string) (user.Session, error)
	DeleteSession(ctx context.Context, tokenHash string) error
	DeleteUserSessions(ctx context.Context, userID string) error
}

// ConversationStore persists chat conversations and messages.
type ConversationStore interface {
	CreateConversation(ctx context.Context, c chat.Conversation) (chat.Conversation, error)
	GetConversation(ctx context.Context, id string) (chat.Conversation, error)
	ListConversations(ctx context.Context, userID string) ([]chat.Conversation, error)
	DeleteConversation(ctx context.Context, id string) error

	CreateMessage(ctx context.Context, m chat.Message) (chat.Message, error)
	ListMessages(ctx context.Context, conversationID string) ([]chat.Message, error)
}

// FinanceStore persists budgets and savings goals.
type FinanceStore interface {
	CreateBudget(ctx context.Context, b finance.Budget) (finance.Budget, error)
	UpdateBudget(ctx context.Context, b finance.Budget) (finance.Budget, error)
	GetBudget(ctx context.Context, id string) (finance.Budget, error)
	ListBudgets(ctx context.Context, userID string) ([]finance.Budget, error)

	CreateGoal(ctx context.Context, g finance.Goal) (finance.Goal, error)
	UpdateGoal(ctx context.Context, g finance.Goal) (finance.Goal, error)
	GetGoal(ctx context.Context, id string) (finance.Goal, error)
	ListGoals(ctx context.Context, userID string) ([]finance.Goal, error)
	DeleteGoal(ctx context.Context, id string) error
}

// ForumStore persists community posts and replies.
type ForumStore interface {
	CreatePost(ctx context.Context, p forum.Post) (forum.Post, error)
	UpdatePost(ctx context.Context, p forum.Post) (forum.Post, error)
	GetPost(ctx context.Context, id string) (forum.Post, error)
	ListPosts(ctx context.Context, includeHidden bool, limit, offset int) ([]forum.Post, error)

	CreateReply(ctx context.Context, r forum.Reply) (forum.Reply, error)
	ListReplies(ctx context.Context, postID string) ([]forum.Reply, error)
}

// AlertStore persists smart alerts.
type AlertStore interface {
	CreateAlert(ctx context.Context, a alert.Alert) (alert.Alert, error)
	ListAlerts(ctx context.Context, userID string) ([]alert.Alert, error)
}
