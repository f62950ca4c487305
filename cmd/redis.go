package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"voicecmd/cache"
	"voicecmd/logger"
)

var redisCmd = &cobra.Command{
	Use:   "redis",
	Short: "Check the Redis prediction cache connection",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Redis: %s:%s, DB: %d\n", cfg.RedisHost, cfg.RedisPort, cfg.RedisDB)

		if err := cache.ConnectRedis(cfg); err != nil {
			return err
		}
		defer func() {
			if err := cache.CloseRedis(); err != nil {
				logger.Warn("close redis failed", logger.ErrorField(err))
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := cache.TestRedis(ctx); err != nil {
			return err
		}
		fmt.Fprintln(out, "Redis read/write check passed.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(redisCmd)
}
