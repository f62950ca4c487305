package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"voicecmd/cache"
	"voicecmd/core/audio"
	"voicecmd/core/events"
	"voicecmd/core/inference"
	"voicecmd/db"
	"voicecmd/logger"
	"voicecmd/repository"
	"voicecmd/server"
	"voicecmd/storage"
)

var serverAddr string

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Serve predictions over HTTP and WebSocket",
	RunE: func(cmd *cobra.Command, args []string) error {
		if serverAddr != "" {
			cfg.ServerAddr = serverAddr
		}

		labels, err := loadLabels()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		opts := []inference.Option{
			inference.WithTempDir(cfg.TempDir),
			inference.WithSaveDir(cfg.SavedAudioDir),
		}
		if cfg.NormalizeUploads {
			opts = append(opts, inference.WithNormalizer(audio.NewFFmpegProcessor(cfg.FFmpegPath), cfg.SampleRate))
		}

		if cfg.RedisEnabled {
			if err := cache.ConnectRedis(cfg); err != nil {
				return err
			}
			defer cache.CloseRedis()
			ttl := time.Duration(cfg.CacheTTLHours) * time.Hour
			opts = append(opts,
				inference.WithCache(cache.NewPredictionCache(cache.RedisClient, ttl)),
				inference.WithModelID(modelID()))
		}

		if cfg.MinioEnabled {
			client, err := storage.NewMinioClient(cfg)
			if err != nil {
				return err
			}
			if err := client.EnsureBucket(ctx); err != nil {
				return err
			}
			opts = append(opts, inference.WithArchiver(client))
		}

		var history repository.PredictionRepository
		if cfg.DBEnabled {
			if err := db.InitHistory(cfg); err != nil {
				return err
			}
			defer db.CloseGormDB()
			history = repository.NewGormPredictionRepository(db.GormDB)
			opts = append(opts, inference.WithRecorder(history))
		}

		hub := events.NewHub()
		go hub.Run(ctx)

		dispatcher := inference.NewDispatcher(newTranscriber(), labels, opts...)
		srv := server.New(dispatcher, server.Options{
			History:        history,
			Events:         hub,
			JWTSecret:      []byte(cfg.JWTSecret),
			MaxUploadBytes: int64(cfg.MaxUploadMB) << 20,
		})

		logger.Info("prediction server configured",
			logger.Int("labels", len(labels)),
			logger.String("savedAudioDir", cfg.SavedAudioDir),
			logger.Bool("cache", cfg.RedisEnabled),
			logger.Bool("history", cfg.DBEnabled),
			logger.Bool("archive", cfg.MinioEnabled),
			logger.Bool("auth", cfg.JWTSecret != ""))

		return server.ListenAndServe(ctx, cfg.ServerAddr, srv.Router())
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
	serverCmd.Flags().StringVar(&serverAddr, "addr", "", "listen address (overrides SERVER_ADDR)")
}
