package admin

import (
	"context"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/jarvisfi/jarvisfi/internal/app/domain/alert"
	"github.com/jarvisfi/jarvisfi/internal/app/domain/user"
	"github.com/jarvisfi/jarvisfi/internal/app/storage"
	"github.com/jarvisfi/jarvisfi/pkg/logger"
)

// Overview summarizes platform usage for the admin dashboard.
type Overview struct {
	Users         int `json:"users"`
	Conversations int `json:"conversations"`
	Budgets       int `json:"budgets"`
	Goals         int `json:"goals"`
	Posts         int `json:"posts"`
}

// SystemStats reports host resource usage.
type SystemStats struct {
	Hostname      string  `json:"hostname"`
	UptimeSeconds uint64  `json:"uptime_seconds"`
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
	MemoryUsedMB  uint64  `json:"memory_used_mb"`
	MemoryTotalMB uint64  `json:"memory_total_mb"`
	Goroutines    int     `json:"goroutines"`
	GoVersion     string  `json:"go_version"`
}

// Service exposes administrative views over the stores and the host.
type Service struct {
	users         storage.UserStore
	conversations storage.ConversationStore
	finance       storage.FinanceStore
	forum         storage.ForumStore
	alerts        storage.AlertStore
	log           *logger.Logger
	started       time.Time
}

// New constructs an admin service.
func New(users storage.UserStore, conversations storage.ConversationStore, finance storage.FinanceStore, forum storage.ForumStore, alerts storage.AlertStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("admin")
	}
	return &Service{
		users:         users,
		conversations: conversations,
		finance:       finance,
		forum:         forum,
		alerts:        alerts,
		log:           log,
		started:       time.Now(),
	}
}

// Overview counts the main entity types. Counting is done by listing; the
// stores are small enough that dedicated count queries are not worth it yet.
func (s *Service) Overview(ctx context.Context) (Overview, error) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return Overview{}, err
	}

	ov := Overview{Users: len(users)}

	for _, u := range users {
		if convs, err := s.conversations.ListConversations(ctx, u.ID); err == nil {
			ov.Conversations += len(convs)
		}
		if budgets, err := s.finance.ListBudgets(ctx, u.ID); err == nil {
			ov.Budgets += len(budgets)
		}
		if goals, err := s.finance.ListGoals(ctx, u.ID); err == nil {
			ov.Goals += len(goals)
		}
	}

	if posts, err := s.forum.ListPosts(ctx, true, 0, 0); err == nil {
		ov.Posts = len(posts)
	}
	return ov, nil
}

// ListUsers returns every registered user.
func (s *Service) ListUsers(ctx context.Context) ([]user.User, error) {
	return s.users.ListUsers(ctx)
}

// UserAlerts returns the alerts recorded for one user.
func (s *Service) UserAlerts(ctx context.Context, userID string) ([]alert.Alert, error) {
	return s.alerts.ListAlerts(ctx, userID)
}

// Stats samples host CPU, memory, and uptime. Individual probe failures
// leave their fields zeroed rather than failing the whole call.
func (s *Service) Stats(ctx context.Context) SystemStats {
	stats := SystemStats{
		Goroutines: runtime.NumGoroutine(),
		GoVersion:  runtime.Version(),
	}

	if info, err := host.InfoWithContext(ctx); err == nil {
		stats.Hostname = info.Hostname
		stats.UptimeSeconds = info.Uptime
	} else {
		s.log.WithError(err).Debug("host info probe failed")
	}

	if percentages, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(percentages) > 0 {
		stats.CPUPercent = percentages[0]
	} else if err != nil {
		s.log.WithError(err).Debug("cpu probe failed")
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		stats.MemoryPercent = vm.UsedPercent
		stats.MemoryUsedMB = vm.Used / (1 << 20)
		stats.MemoryTotalMB = vm.Total / (1 << 20)
	} else {
		s.log.WithError(err).Debug("memory probe failed")
	}

	return stats
}
