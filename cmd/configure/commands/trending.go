package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/benvon/postcraft/internal/cache"
	"github.com/benvon/postcraft/internal/database"
	"github.com/benvon/postcraft/internal/queue"
	"github.com/benvon/postcraft/internal/services/trending"
	"github.com/spf13/cobra"
)

// NewTrendingCmd creates the trending command
func NewTrendingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trending",
		Short: "Manage trending topics",
	}
	cmd.AddCommand(newTrendingRefreshCmd())
	return cmd
}

func newTrendingRefreshCmd() *cobra.Command {
	var async bool

	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Refresh trending topics from the configured feeds",
		Long:  "Refresh trending topics inline, or with --async enqueue a trending_refresh job for the worker.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(false)
			if err != nil {
				return err
			}
			defer e.close()
			ctx := cmd.Context()

			if async {
				return enqueueTrendingRefresh(ctx, e)
			}

			clients, err := aiClients(e.cfg, e.logger)
			if err != nil {
				return fmt.Errorf("failed to create AI clients: %w", err)
			}

			// The topic cache is only invalidated when Redis is configured
			var topicCache trending.Cache
			if e.cfg.RedisURL != "" {
				redisCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
				client, err := cache.NewRedisClient(redisCtx, e.cfg.RedisURL)
				cancel()
				if err != nil {
					return fmt.Errorf("failed to connect to redis: %w", err)
				}
				defer func() { _ = client.Close() }()
				topicCache = cache.New(client, "postcraft:")
			}

			refresher := trending.NewRefresher(
				trending.NewFeedFetcher(nil, e.cfg.TrendingFeeds, e.logger),
				clients.Generator,
				clients.Embedder,
				database.NewTrendingTopicRepository(e.db),
				topicCache,
				e.logger,
			)
			n, err := refresher.Refresh(ctx)
			if err != nil {
				return fmt.Errorf("refresh failed: %w", err)
			}
			fmt.Printf("Inserted %d trending topics\n", n)
			return nil
		},
	}

	cmd.Flags().BoolVar(&async, "async", false, "Enqueue a job instead of refreshing inline")

	return cmd
}

func enqueueTrendingRefresh(ctx context.Context, e *env) error {
	if e.cfg.RabbitMQURL == "" {
		return fmt.Errorf("RABBITMQ_URL is required for --async")
	}
	q, err := queue.NewRabbitMQQueue(e.cfg.RabbitMQURL, e.logger)
	if err != nil {
		return fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}
	defer func() { _ = q.Close() }()

	job := queue.NewTrendingRefreshJob()
	if err := q.Enqueue(ctx, job); err != nil {
		return fmt.Errorf("failed to enqueue job: %w", err)
	}
	fmt.Printf("Enqueued trending refresh job %s\n", job.ID)
	return nil
}
