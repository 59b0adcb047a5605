package community

import (
	"context"
	"fmt"
	"strings"

	"github.com/jarvisfi/jarvisfi/internal/app/domain/forum"
	"github.com/jarvisfi/jarvisfi/internal/app/storage"
	"github.com/jarvisfi/jarvisfi/pkg/logger"
)

// FlagThreshold is the number of flags that hides a post pending review.
const FlagThreshold = 3

const (
	maxTitleLength = 200
	maxBodyLength  = 10000
)

// Service manages the community forum.
type Service struct {
	store storage.ForumStore
	log   *logger.Logger
}

// New constructs a community service.
func New(store storage.ForumStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("community")
	}
	return &Service{store: store, log: log}
}

// CreatePost publishes a new forum post.
func (s *Service) CreatePost(ctx context.Context, userID, topic, title, body, language string) (forum.Post, error) {
	title = strings.TrimSpace(title)
	body = strings.TrimSpace(body)
	topic = strings.TrimSpace(strings.ToLower(topic))

	if userID == "" {
		return forum.Post{}, fmt.Errorf("user_id is required")
	}
	if title == "" || body == "" {
		return forum.Post{}, fmt.Errorf("title and body are required")
	}
	if len(title) > maxTitleLength {
		return forum.Post{}, fmt.Errorf("title exceeds %d characters", maxTitleLength)
	}
	if len(body) > maxBodyLength {
		return forum.Post{}, fmt.Errorf("body exceeds %d characters", maxBodyLength)
	}
	if topic == "" {
		topic = "general"
	}
	if language == "" {
		language = "en"
	}

	return s.store.CreatePost(ctx, forum.Post{
		UserID:   userID,
		Topic:    topic,
		Title:    title,
		Body:     body,
		Language: strings.ToLower(language),
	})
}

// ListPosts returns visible posts, newest first. Hidden posts are excluded
// before pagination is applied.
func (s *Service) ListPosts(ctx context.Context, limit, offset int) ([]forum.Post, error) {
	return s.store.ListPosts(ctx, false, limit, offset)
}

// GetPost returns a post with its replies. Hidden posts are not served.
func (s *Service) GetPost(ctx context.Context, postID string) (forum.Post, []forum.Reply, error) {
	p, err := s.store.GetPost(ctx, postID)
	if err != nil {
		return forum.Post{}, nil, err
	}
	if p.Hidden {
		return forum.Post{}, nil, fmt.Errorf("post %s not found", postID)
	}
	replies, err := s.store.ListReplies(ctx, postID)
	if err != nil {
		return forum.Post{}, nil, err
	}
	return p, replies, nil
}

// Reply adds a reply to a visible post.
func (s *Service) Reply(ctx context.Context, userID, postID, body string) (forum.Reply, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return forum.Reply{}, fmt.Errorf("body is required")
	}
	if len(body) > maxBodyLength {
		return forum.Reply{}, fmt.Errorf("body exceeds %d characters", maxBodyLength)
	}

	p, err := s.store.GetPost(ctx, postID)
	if err != nil {
		return forum.Reply{}, err
	}
	if p.Hidden {
		return forum.Reply{}, fmt.Errorf("post %s not found", postID)
	}

	return s.store.CreateReply(ctx, forum.Reply{
		PostID: postID,
		UserID: userID,
		Body:   body,
	})
}

// Flag reports a post. Reaching the threshold hides it from listings until a
// moderator reviews it.
func (s *Service) Flag(ctx context.Context, postID string) (forum.Post, error) {
	p, err := s.store.GetPost(ctx, postID)
	if err != nil {
		return forum.Post{}, err
	}

	p.Flags++
	if p.Flags >= FlagThreshold && !p.Hidden {
		p.Hidden = true
		s.log.WithFields(map[string]interface{}{
			"post_id": p.ID,
			"flags":   p.Flags,
		}).Warn("post hidden pending review")
	}
	return s.store.UpdatePost(ctx, p)
}

// Restore unhides a post and clears its flags. Intended for moderators.
func (s *Service) Restore(ctx context.Context, postID string) (forum.Post, error) {
	p, err := s.store.GetPost(ctx, postID)
	if err != nil {
		return forum.Post{}, err
	}
	p.Flags = 0
	p.Hidden = false
	return s.store.UpdatePost(ctx, p)
}
