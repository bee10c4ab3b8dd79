package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/filesmanager/filesmanager/internal/config"
	"github.com/filesmanager/filesmanager/internal/kv"
	"github.com/filesmanager/filesmanager/internal/logger"
	"github.com/filesmanager/filesmanager/internal/model"
	"github.com/filesmanager/filesmanager/internal/queue"
	"github.com/spf13/cobra"
)

var queueNames = []string{model.QueueFile, model.QueueUser}

func QueueCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and repair job queues",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Print pending, processing, delayed and failed counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withQueue(cmd, func(q *queue.Queue) error {
				all := map[string]queue.Stats{}
				for _, name := range queueNames {
					stats, err := q.Stats(cmd.Context(), name)
					if err != nil {
						return err
					}
					all[name] = stats
				}
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(all)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:       "retry-failed <queue>",
		Short:     "Move failed jobs back to the pending list",
		Args:      cobra.ExactArgs(1),
		ValidArgs: queueNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withQueue(cmd, func(q *queue.Queue) error {
				n, err := q.RetryFailed(cmd.Context(), args[0])
				fmt.Printf("requeued %d job(s) on %s\n", n, args[0])
				return err
			})
		},
	})

	return cmd
}

func withQueue(cmd *cobra.Command, fn func(q *queue.Queue) error) error {
	cfg := config.Load()
	logger.Init(cfg.IsDevelopment(), "", "do")

	client, err := kv.Init(cmd.Context(), kv.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	return fn(queue.New(client, queue.Options{
		MaxAttempts: cfg.QueueMaxAttempts,
		BackoffBase: cfg.QueueBackoffBase,
		BackoffMax:  cfg.QueueBackoffMax,
	}))
}
