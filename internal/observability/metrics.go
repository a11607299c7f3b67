package observability

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"yatube/internal/repository"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/robfig/cron/v3"
)

var (
	UsersTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "yatube_users_total",
		Help: "Number of registered users",
	})
	GroupsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "yatube_groups_total",
		Help: "Number of groups",
	})
	PostsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "yatube_posts_total",
		Help: "Number of posts",
	})
	CommentsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "yatube_comments_total",
		Help: "Number of comments",
	})
	FollowsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "yatube_follows_total",
		Help: "Number of follow edges",
	})

	// StatsCollectionDuration records how long one refresh of the gauges takes.
	StatsCollectionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "yatube_stats_collection_seconds",
		Help:    "Time spent refreshing content gauges",
		Buckets: prometheus.DefBuckets,
	})
)

const DefaultStatsSchedule = "@every 1m"

// StatsCollector refreshes the content gauges on a cron schedule.
type StatsCollector struct {
	stats    repository.StatsRepository
	logger   *slog.Logger
	schedule string
	cron     *cron.Cron
	timeout  time.Duration
}

// NewStatsCollector creates a collector. An empty schedule means DefaultStatsSchedule.
func NewStatsCollector(stats repository.StatsRepository, logger *slog.Logger, schedule string) *StatsCollector {
	if schedule == "" {
		schedule = DefaultStatsSchedule
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &StatsCollector{
		stats:    stats,
		logger:   logger,
		schedule: schedule,
		timeout:  10 * time.Second,
	}
}

// Collect reads the totals once and publishes them.
func (c *StatsCollector) Collect(ctx context.Context) error {
	start := time.Now()
	defer func() { StatsCollectionDuration.Observe(time.Since(start).Seconds()) }()

	totals, err := c.stats.Totals(ctx)
	if err != nil {
		return err
	}
	UsersTotal.Set(float64(totals.Users))
	GroupsTotal.Set(float64(totals.Groups))
	PostsTotal.Set(float64(totals.Posts))
	CommentsTotal.Set(float64(totals.Comments))
	FollowsTotal.Set(float64(totals.Follows))
	return nil
}

// Start collects once, then on every tick of the schedule.
func (c *StatsCollector) Start() error {
	c.cron = cron.New()
	if _, err := c.cron.AddFunc(c.schedule, c.tick); err != nil {
		return fmt.Errorf("invalid STATS_SCHEDULE %q: %w", c.schedule, err)
	}
	c.tick()
	c.cron.Start()
	c.logger.Info("Stats collector started", slog.String("schedule", c.schedule))
	return nil
}

// Stop halts the schedule and waits for a running collection to finish.
func (c *StatsCollector) Stop() {
	if c.cron == nil {
		return
	}
	<-c.cron.Stop().Done()
}

func (c *StatsCollector) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	if err := c.Collect(ctx); err != nil {
		c.logger.Warn("Stats collection failed", slog.String("error", err.Error()))
	}
}
