package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"notelink/config"
	"notelink/config/database"
	"notelink/internal/chatbot"
	"notelink/internal/identity"
	"notelink/internal/note/repository"
	"notelink/internal/note/service"
	"notelink/pkg/logger"
	"notelink/pkg/response"
	"notelink/router"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			defer logger.Sync()
			if addr != "" {
				cfg.Addr = addr
			}
			return runServe(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides PORT (e.g. :8080)")
	return cmd
}

func runServe(ctx context.Context, cfg config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	response.ExposeInternalDetails(cfg.IsDevelopment())

	repo, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	verifier, err := newVerifier(ctx, cfg)
	if err != nil {
		return err
	}

	bridge, closeBridge := newBridge(ctx, cfg)
	defer closeBridge()

	srv := &http.Server{
		Addr: cfg.Addr,
		Handler: router.Setup(router.Dependencies{
			Notes:      service.NewNoteService(repo, cfg.RetentionDays),
			Verifier:   verifier,
			Bridge:     bridge,
			CORSOrigin: cfg.CORSOrigin,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Sugar.Infof("NoteLink API listening on %s (env=%s, store=%s, auth=%s)",
			cfg.Addr, cfg.AppEnv, cfg.NoteStore, cfg.AuthProvider)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Sugar.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openStore(ctx context.Context, cfg config.Config) (repository.NoteRepository, func(), error) {
	switch cfg.NoteStore {
	case config.StorePostgres:
		db, err := database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := database.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, nil, err
		}
		return repository.NewPostgresRepository(db), func() { db.Close() }, nil

	case config.StoreMongo:
		client, err := repository.ConnectMongo(ctx, cfg.MongoURI)
		if err != nil {
			return nil, nil, err
		}
		repo := repository.NewMongoRepository(client.Database(cfg.MongoDatabase))
		if err := repo.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, nil, err
		}
		return repo, func() { _ = client.Disconnect(context.Background()) }, nil
	}
	return nil, nil, fmt.Errorf("unknown NOTE_STORE %q (want %s or %s)", cfg.NoteStore, config.StorePostgres, config.StoreMongo)
}

func newVerifier(ctx context.Context, cfg config.Config) (identity.Verifier, error) {
	switch cfg.AuthProvider {
	case config.AuthJWT:
		return identity.NewJWTVerifier(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience)
	case config.AuthFirebase:
		return identity.NewFirebaseVerifier(ctx, cfg.FirebaseProjectID, cfg.FirebaseCredentials)
	}
	return nil, fmt.Errorf("unknown AUTH_PROVIDER %q (want %s or %s)", cfg.AuthProvider, config.AuthJWT, config.AuthFirebase)
}

// newBridge connects to Dialogflow when it is configured. Without it the
// chatbot routes answer 500 and the rest of the API runs normally.
func newBridge(ctx context.Context, cfg config.Config) (*chatbot.Bridge, func()) {
	if cfg.DialogflowProjectID == "" {
		logger.Sugar.Warn("DIALOGFLOW_PROJECT_ID not set, chatbot disabled")
		return chatbot.NewBridge(nil), func() {}
	}
	client, err := chatbot.NewDialogflowClient(ctx, cfg.DialogflowProjectID, cfg.DialogflowKeyFile, cfg.DialogflowLanguage)
	if err != nil {
		logger.Sugar.Errorf("Chatbot disabled: %v", err)
		return chatbot.NewBridge(nil), func() {}
	}
	return chatbot.NewBridge(client), func() { _ = client.Close() }
}
