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

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/strawberrymilktea0604/HealthSync-sub001/config"
	"github.com/strawberrymilktea0604/HealthSync-sub001/controllers"
	"github.com/strawberrymilktea0604/HealthSync-sub001/llm"
	"github.com/strawberrymilktea0604/HealthSync-sub001/logger"
	"github.com/strawberrymilktea0604/HealthSync-sub001/models"
	"github.com/strawberrymilktea0604/HealthSync-sub001/routes"
	"github.com/strawberrymilktea0604/HealthSync-sub001/services"
	"github.com/strawberrymilktea0604/HealthSync-sub001/utils"
)

func main() {
	root := &cobra.Command{
		Use:          "healthsync",
		Short:        "HealthSync API server",
		SilenceUsage: true,
		RunE:         runServe,
	}
	root.AddCommand(
		&cobra.Command{Use: "serve", Short: "Migrate, seed and start the HTTP server", RunE: runServe},
		&cobra.Command{Use: "migrate", Short: "Apply schema migrations", RunE: runMigrate},
		&cobra.Command{Use: "seed", Short: "Insert permissions, roles and catalog data", RunE: runSeed},
		&cobra.Command{
			Use:   "grant-role <email> [role]",
			Short: "Assign a role (Admin by default) to an existing user",
			Args:  cobra.RangeArgs(1, 2),
			RunE:  runGrantRole,
		},
	)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func bootstrap() (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logger.InitializeLogger(cfg.Env)
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	db, err := config.OpenDB(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	defer logger.Close()
	_, db, err := bootstrap()
	if err != nil {
		return err
	}
	if err := config.Migrate(db); err != nil {
		return err
	}
	logger.Info("migrations applied")
	return nil
}

func runSeed(cmd *cobra.Command, _ []string) error {
	defer logger.Close()
	_, db, err := bootstrap()
	if err != nil {
		return err
	}
	if err := config.Migrate(db); err != nil {
		return err
	}
	return config.Seed(db)
}

func runGrantRole(cmd *cobra.Command, args []string) error {
	defer logger.Close()
	_, db, err := bootstrap()
	if err != nil {
		return err
	}
	role := models.RoleAdmin
	if len(args) > 1 {
		role = args[1]
	}
	actions := services.NewActionLogService(db)
	roles := services.NewRoleService(db, services.NewNotificationService(db, nil, nil), actions)
	if err := roles.AssignRoleByName(cmd.Context(), args[0], role); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "granted %s to %s\n", role, args[0])
	return nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	defer logger.Close()
	cfg, db, err := bootstrap()
	if err != nil {
		return err
	}
	if err := config.Migrate(db); err != nil {
		return err
	}
	if err := config.Seed(db); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return fmt.Errorf("failed to load AWS config: %w", err)
	}

	storage, err := newStorage(cfg, awsCfg)
	if err != nil {
		// Avatar upload reports the missing backend; everything else keeps working.
		logger.Warn("object storage unavailable", zap.Error(err))
	}

	var mailer utils.Mailer = utils.LogMailer{}
	if cfg.SESEmail != "" {
		mailer = utils.NewSESMailer(awsCfg, cfg.SESEmail)
	}

	var snsClient services.SNSAPI
	if cfg.SNSFCMArn != "" {
		snsClient = sns.NewFromConfig(awsCfg)
	}

	var google utils.GoogleOAuth
	if cfg.GoogleEnabled() {
		google = utils.NewGoogleOAuth(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)
	}

	hub := services.NewRealtimeHub()
	push := services.NewPushService(db, snsClient, cfg.SNSFCMArn)
	notify := services.NewNotificationService(db, hub, push)
	actions := services.NewActionLogService(db)
	perms := services.NewPermissionService(db)
	roles := services.NewRoleService(db, notify, actions)

	if cfg.AdminEmail != "" {
		if err := roles.AssignRoleByName(ctx, cfg.AdminEmail, models.RoleAdmin); err != nil {
			logger.Warn("could not grant admin role", zap.String("email", cfg.AdminEmail), zap.Error(err))
		}
	}

	authSvc := services.NewAuthService(db, perms, mailer, actions, cfg.JWTSecret, cfg.JWTTTL)
	chatSvc := services.NewChatService(db, llm.NewClient(cfg.LLMAPIKey, cfg.LLMBaseURL, cfg.LLMModel), cfg.ChatHistoryLimit)
	if cfg.LLMAPIKey == "" {
		logger.Warn("LLM_API_KEY not set; chat requests will fail")
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := routes.SetupRouter(routes.Deps{
		JWTSecret:      cfg.JWTSecret,
		CORSOrigins:    cfg.CORSOrigins,
		Permissions:    perms,
		Users:          perms,
		Auth:           controllers.NewAuthController(authSvc, google, cfg.FrontendURL, cfg.IsProduction()),
		Profile:        controllers.NewProfileController(services.NewProfileService(db, storage, actions)),
		Goals:          controllers.NewGoalController(services.NewGoalService(db, notify, actions)),
		Workouts:       controllers.NewWorkoutController(services.NewWorkoutService(db, actions)),
		Nutrition:      controllers.NewNutritionController(services.NewNutritionService(db, actions), services.NewFoodRecognitionService(db, services.NewRekognitionService(awsCfg))),
		Chat:           controllers.NewChatController(chatSvc),
		Notifications:  controllers.NewNotificationController(notify, push, hub, cfg.CORSOrigins),
		Admin:          controllers.NewAdminController(services.NewAdminService(db, perms, actions), services.NewStatisticsService(db), actions),
		UserManagement: controllers.NewUserManagementController(roles),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newStorage(cfg *config.Config, awsCfg aws.Config) (utils.ObjectStorage, error) {
	if cfg.StorageProvider == "cloudinary" {
		cld, err := utils.NewCloudinaryStorage(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
		if err != nil {
			return nil, err
		}
		return cld, nil
	}
	s3Cfg := awsCfg.Copy()
	s3Cfg.Region = cfg.S3Region
	st, err := utils.NewS3Storage(s3Cfg, cfg.S3Bucket, cfg.CloudFrontURL)
	if err != nil {
		return nil, err
	}
	return st, nil
}
