package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/jarvisfi/jarvisfi/internal/app/domain/chat"
	"github.com/jarvisfi/jarvisfi/internal/app/storage"
	"github.com/jarvisfi/jarvisfi/pkg/logger"
)

const maxPromptLength = 4000

// Service manages conversations and produces assistant replies.
type Service struct {
	store    storage.ConversationStore
	advisor  Advisor
	fallback Advisor
	log      *logger.Logger
}

// New constructs a chat service. advisor may be nil, in which case every
// reply comes from the rule-based fallback.
func New(store storage.ConversationStore, advisor Advisor, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("chat")
	}
	return &Service{
		store:    store,
		advisor:  advisor,
		fallback: RuleAdvisor{},
		log:      log,
	}
}

// StartConversation creates an empty conversation for a user.
func (s *Service) StartConversation(ctx context.Context, userID, title, language string) (chat.Conversation, error) {
	if userID == "" {
		return chat.Conversation{}, fmt.Errorf("user_id is required")
	}
	if title = strings.TrimSpace(title); title == "" {
		title = "New conversation"
	}
	if language == "" {
		language = "en"
	}
	return s.store.CreateConversation(ctx, chat.Conversation{
		UserID:   userID,
		Title:    title,
		Language: strings.ToLower(language),
	})
}

// Send appends a user message to a conversation and returns the assistant
// reply. When the external advisor fails, the rule-based fallback answers so
// chat keeps working offline.
func (s *Service) Send(ctx context.Context, userID, conversationID, content string) (chat.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return chat.Message{}, fmt.Errorf("message content is required")
	}
	if len(content) > maxPromptLength {
		return chat.Message{}, fmt.Errorf("message exceeds %d characters", maxPromptLength)
	}

	conv, err := s.ownedConversation(ctx, userID, conversationID)
	if err != nil {
		return chat.Message{}, err
	}

	if _, err := s.store.CreateMessage(ctx, chat.Message{
		ConversationID: conv.ID,
		Role:           chat.RoleUser,
		Content:        content,
		Language:       conv.Language,
	}); err != nil {
		return chat.Message{}, err
	}

	reply, err := s.advise(ctx, content, conv.Language)
	if err != nil {
		return chat.Message{}, err
	}

	return s.store.CreateMessage(ctx, chat.Message{
		ConversationID: conv.ID,
		Role:           chat.RoleAssistant,
		Content:        reply,
		Language:       conv.Language,
	})
}

func (s *Service) advise(ctx context.Context, prompt, language string) (string, error) {
	if s.advisor != nil {
		reply, err := s.advisor.Advise(ctx, prompt, language)
		if err == nil {
			return reply, nil
		}
		s.log.WithError(err).Warn("advisor unavailable; using fallback")
	}
	return s.fallback.Advise(ctx, prompt, language)
}

// History returns the messages of a conversation owned by userID.
func (s *Service) History(ctx context.Context, userID, conversationID string) ([]chat.Message, error) {
	conv, err := s.ownedConversation(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}
	return s.store.ListMessages(ctx, conv.ID)
}

// GetConversation returns a single conversation owned by userID.
func (s *Service) GetConversation(ctx context.Context, userID, conversationID string) (chat.Conversation, error) {
	return s.ownedConversation(ctx, userID, conversationID)
}

// ListConversations returns a user's conversations, most recent first.
func (s *Service) ListConversations(ctx context.Context, userID string) ([]chat.Conversation, error) {
	return s.store.ListConversations(ctx, userID)
}

// DeleteConversation removes a conversation and its messages.
func (s *Service) DeleteConversation(ctx context.Context, userID, conversationID string) error {
	if _, err := s.ownedConversation(ctx, userID, conversationID); err != nil {
		return err
	}
	return s.store.DeleteConversation(ctx, conversationID)
}

func (s *Service) ownedConversation(ctx context.Context, userID, conversationID string) (chat.Conversation, error) {
	conv, err := s.store.GetConversation(ctx, conversationID)
	if err != nil {
		return chat.Conversation{}, err
	}
	if conv.UserID != userID {
		return chat.Conversation{}, fmt.Errorf("conversation %s not found", conversationID)
	}
	return conv, nil
}
