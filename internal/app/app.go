package app

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/trakapp/trak/internal/config"
	"github.com/trakapp/trak/internal/db"
	"github.com/trakapp/trak/internal/markdown"
	"github.com/trakapp/trak/internal/metrics"
	"github.com/trakapp/trak/internal/repository"
	"github.com/trakapp/trak/internal/service"
	"github.com/trakapp/trak/internal/storage"
)

type App struct {
	Cfg                *config.Config
	DB                 *sqlx.DB
	Metrics            *metrics.Metrics
	AuthService        *service.AuthService
	PasswordResets     *service.PasswordResetService
	UserService        *service.UserService
	EmailService       *service.EmailService
	CommuteService     *service.CommuteService
	ChallengeService   *service.ChallengeService
	RewardService      *service.RewardService
	LeaderboardService *service.LeaderboardService
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	err = db.RunMigrations(database.DB, cfg.DBDriver)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	exportStorage, err := storage.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	return Wire(cfg, database, exportStorage)
}

// Wire builds the service graph on an already migrated database.
func Wire(cfg *config.Config, database *sqlx.DB, exportStorage storage.Storage) (*App, error) {
	// Repositories
	userRepository, err := repository.NewUserStore(cfg.UserStore, database)
	if err != nil {
		return nil, err
	}
	commuteRepository := repository.NewCommuteRepository(database)
	challengeRepository := repository.NewChallengeRepository(database)
	rewardRepository := repository.NewRewardRepository(database)

	m := metrics.New()

	// Services
	emailService := service.NewEmailService(
		cfg.ResendAPIKey,
		cfg.EmailFrom,
		cfg.AppURL,
		cfg.AppName,
		cfg.IsDevelopment(),
	)
	authService := service.NewAuthService(
		userRepository,
		emailService,
		cfg.JWTSecret,
		cfg.JWTExpiry,
		cfg.CookieSecure,
		cfg.AdminUsernames,
	)
	passwordResets := service.NewPasswordResetService(
		userRepository,
		repository.NewTokenRepository(database),
		authService,
		emailService,
		cfg.ResetExpiry,
	)
	userService := service.NewUserService(userRepository, commuteRepository, challengeRepository, authService)
	commuteService := service.NewCommuteService(commuteRepository, userRepository, challengeRepository, emailService, exportStorage, m)
	challengeService := service.NewChallengeService(challengeRepository, markdown.NewParser(), m)
	rewardService := service.NewRewardService(rewardRepository, userRepository, emailService, m)
	leaderboardService := service.NewLeaderboardService(userRepository, cfg.LeaderboardDefaultLimit)

	return &App{
		Cfg:                cfg,
		DB:                 database,
		Metrics:            m,
		AuthService:        authService,
		PasswordResets:     passwordResets,
		UserService:        userService,
		EmailService:       emailService,
		CommuteService:     commuteService,
		ChallengeService:   challengeService,
		RewardService:      rewardService,
		LeaderboardService: leaderboardService,
	}, nil
}

func (a *App) Close() error {
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}
