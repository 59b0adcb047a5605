package community

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/jarvisfi/jarvisfi/internal/app/storage/memory"
	"github.com/jarvisfi/jarvisfi/pkg/logger"
)

func quietLogger() *logger.Logger {
	log := logger.NewDefault("community-test")
	log.SetOutput(io.Discard)
	return log
}

func TestPostAndReply(t *testing.T) {
	ctx := context.Background()
	svc := New(memory.New(), quietLogger())

	p, err := svc.CreatePost(ctx, "u1", "Savings", "How much should I save?", "Starting my first job next month.", "en")
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
	if p.Topic != "savings" {
		t.Fatalf("expected lowercased topic, got %q", p.Topic)
	}

	if _, err := svc.Reply(ctx, "u2", p.ID, "Start with 20% and build an emergency fund first."); err != nil {
		t.Fatalf("reply: %v", err)
	}

	got, replies, err := svc.GetPost(ctx, p.ID)
	if err != nil {
		t.Fatalf("get post: %v", err)
	}
	if got.ID != p.ID || len(replies) != 1 {
		t.Fatalf("unexpected post fetch: %+v replies=%d", got, len(replies))
	}
}

func TestCreatePostValidation(t *testing.T) {
	ctx := context.Background()
	svc := New(memory.New(), quietLogger())

	if _, err := svc.CreatePost(ctx, "", "t", "title", "body", "en"); err == nil {
		t.Fatalf("expected missing user rejection")
	}
	if _, err := svc.CreatePost(ctx, "u1", "t", "", "body", "en"); err == nil {
		t.Fatalf("expected missing title rejection")
	}
	if _, err := svc.CreatePost(ctx, "u1", "t", strings.Repeat("a", maxTitleLength+1), "body", "en"); err == nil {
		t.Fatalf("expected oversized title rejection")
	}
}

func TestFlagThresholdHidesPost(t *testing.T) {
	ctx := context.Background()
	svc := New(memory.New(), quietLogger())

	p, err := svc.CreatePost(ctx, "u1", "general", "spammy", "buy now", "en")
	if err != nil {
		t.Fatalf("create post: %v", err)
	}

	for i := 0; i < FlagThreshold-1; i++ {
		flagged, err := svc.Flag(ctx, p.ID)
		if err != nil {
			t.Fatalf("flag: %v", err)
		}
		if flagged.Hidden {
			t.Fatalf("post hidden before threshold at flag %d", i+1)
		}
	}

	flagged, err := svc.Flag(ctx, p.ID)
	if err != nil {
		t.Fatalf("flag: %v", err)
	}
	if !flagged.Hidden {
		t.Fatalf("expected hidden post at threshold")
	}

	// Hidden posts disappear from listings and direct fetches.
	posts, err := svc.ListPosts(ctx, 10, 0)
	if err != nil {
		t.Fatalf("list posts: %v", err)
	}
	if len(posts) != 0 {
		t.Fatalf("expected hidden post excluded from listing")
	}
	if _, _, err := svc.GetPost(ctx, p.ID); err == nil {
		t.Fatalf("expected hidden post fetch rejection")
	}
	if _, err := svc.Reply(ctx, "u2", p.ID, "hi"); err == nil {
		t.Fatalf("expected hidden post reply rejection")
	}

	// Moderator restore brings it back.
	restored, err := svc.Restore(ctx, p.ID)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if restored.Hidden || restored.Flags != 0 {
		t.Fatalf("unexpected restored post: %+v", restored)
	}
}

func TestListPostsPagination(t *testing.T) {
	ctx := context.Background()
	svc := New(memory.New(), quietLogger())

	for i := 0; i < 5; i++ {
		if _, err := svc.CreatePost(ctx, "u1", "general", "title", "body", "en"); err != nil {
			t.Fatalf("create post: %v", err)
		}
	}

	page, err := svc.ListPosts(ctx, 2, 0)
	if err != nil {
		t.Fatalf("list posts: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("expected 2 posts, got %d", len(page))
	}

	rest, err := svc.ListPosts(ctx, 10, 2)
	if err != nil {
		t.Fatalf("list posts: %v", err)
	}
	if len(rest) != 3 {
		t.Fatalf("expected 3 posts, got %d", len(rest))
	}
}

func TestListPostsPaginatesAfterHiding(t *testing.T) {
	ctx := context.Background()
	svc := New(memory.New(), quietLogger())

	var posts []string
	for i := 0; i < 4; i++ {
		p, err := svc.CreatePost(ctx, "u1", "general", "title", "body", "en")
		if err != nil {
			t.Fatalf("create post: %v", err)
		}
		posts = append(posts, p.ID)
	}

	// Hide one post; pages must stay full of visible posts.
	for i := 0; i < FlagThreshold; i++ {
		if _, err := svc.Flag(ctx, posts[1]); err != nil {
			t.Fatalf("flag: %v", err)
		}
	}

	page, err := svc.ListPosts(ctx, 2, 0)
	if err != nil {
		t.Fatalf("list posts: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("expected a full first page of 2, got %d", len(page))
	}

	rest, err := svc.ListPosts(ctx, 10, 2)
	if err != nil {
		t.Fatalf("list posts: %v", err)
	}
	if len(rest) != 1 {
		t.Fatalf("expected 1 remaining visible post, got %d", len(rest))
	}
	for _, p := range append(page, rest...) {
		if p.Hidden {
			t.Fatalf("hidden post leaked into listing: %+v", p)
		}
		if p.ID == posts[1] {
			t.Fatalf("hidden post id appeared in listing")
		}
	}
}
