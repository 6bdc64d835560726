package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	config "github.com/vibecreator/mixpost-api/configs"
	"github.com/vibecreator/mixpost-api/internal/repository"
	"github.com/vibecreator/mixpost-api/internal/service"
	"github.com/vibecreator/mixpost-api/migrations"
	"github.com/vibecreator/mixpost-api/pkg/logger"
	"github.com/vibecreator/mixpost-api/pkg/utils"
)

var (
	version   = "0.1.0"
	gitCommit = "unknown"
	buildTime = "unknown"
)

var (
	tokenUserID int64
	tokenEmail  string
	tokenName   string
	tokenTTL    time.Duration
)

var rootCmd = &cobra.Command{
	Use:          "mixpost",
	Short:        "Mixpost - social media scheduling API",
	Long:         `Mixpost composes, schedules and organises posts for connected social accounts.`,
	SilenceUsage: true,
	RunE:         runServer,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, the queue worker and the scheduler",
	RunE:  runServer,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema",
	RunE:  runMigrate,
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an access token for a user",
	RunE:  runToken,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("Mixpost %s\n", version)
		fmt.Printf("Git commit: %s\n", gitCommit)
		fmt.Printf("Build time: %s\n", buildTime)
	},
}

func init() {
	tokenCmd.Flags().Int64Var(&tokenUserID, "user-id", 0, "user id")
	tokenCmd.Flags().StringVar(&tokenEmail, "email", "", "user email, created when missing")
	tokenCmd.Flags().StringVar(&tokenName, "name", "", "name of a created user")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 30*24*time.Hour, "token lifetime")
	tokenCmd.MarkFlagsMutuallyExclusive("user-id", "email")
	tokenCmd.MarkFlagsOneRequired("user-id", "email")

	rootCmd.AddCommand(serveCmd, migrateCmd, tokenCmd, versionCmd)
}

// bootstrap loads the environment, the logger and the database.
func bootstrap() (*config.Config, *zap.Logger, *sql.DB, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Warning: failed to load .env: %v\n", err)
	}
	cfg := config.LoadConfig()

	log, err := logger.NewLogger(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, nil, fmt.Errorf("database is unreachable: %w", err)
	}
	return cfg, log, db, nil
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	_, log, db, err := bootstrap()
	if err != nil {
		return err
	}
	defer log.Sync()
	defer closeDB(log, db)

	if err := migrations.Apply(cmd.Context(), db); err != nil {
		return err
	}
	log.Info("Schema applied")
	return nil
}

func runToken(cmd *cobra.Command, _ []string) error {
	cfg, log, db, err := bootstrap()
	if err != nil {
		return err
	}
	defer log.Sync()
	defer closeDB(log, db)

	users := service.NewUserService(log, repository.NewUserRepository(db, log))

	userID := tokenUserID
	if tokenEmail != "" {
		user, err := users.FindOrCreate(cmd.Context(), tokenEmail, tokenName)
		if err != nil {
			return err
		}
		userID = user.ID
	} else if _, err := users.GetUserInfo(cmd.Context(), userID); err != nil {
		return fmt.Errorf("user %d: %w", userID, err)
	}

	token, err := utils.GenerateToken(cfg.SecretKey, strconv.FormatInt(userID, 10), tokenTTL)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}

func closeDB(log *zap.Logger, db *sql.DB) {
	if err := db.Close(); err != nil {
		log.Error("Failed to close database", zap.Error(err))
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
