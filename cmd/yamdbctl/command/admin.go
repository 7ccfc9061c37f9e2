package command

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"yamdb/database"
	"yamdb/internal/config"
	"yamdb/internal/logging"
	"yamdb/internal/microservices/http-api/dto"
	"yamdb/internal/microservices/http-api/handler"
	"yamdb/internal/microservices/http-api/models"
	"yamdb/internal/microservices/http-api/repository"
	"yamdb/internal/microservices/http-api/service"
)

var errIdentityTaken = errors.New("username or email already belongs to another user")

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(db *gorm.DB, log zerolog.Logger) error {
			return database.Migrate(db, log)
		})
	},
}

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an admin account, or promote an existing one",
	Long: `create-admin makes sure an admin with the given username and email exists.
The admin then signs in like everyone else: auth signup mails a code,
auth token exchanges it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		username, _ := cmd.Flags().GetString("username")
		email, _ := cmd.Flags().GetString("email")

		return withDB(func(db *gorm.DB, log zerolog.Logger) error {
			created, err := ensureAdmin(cmd.Context(), repository.NewUserRepository(db), username, email)
			if err != nil {
				return err
			}
			if created {
				log.Info().Str("username", username).Msg("admin created")
			} else {
				log.Info().Str("username", username).Msg("user is an admin")
			}
			return nil
		})
	},
}

// ensureAdmin creates username/email as an admin or promotes the existing
// account holding exactly that pair. It reports whether a user was created.
func ensureAdmin(ctx context.Context, users repository.UserRepository, username, email string) (bool, error) {
	if err := validateIdentity(username, email); err != nil {
		return false, err
	}

	matches, err := users.FindByUsernameOrEmail(ctx, username, email)
	if err != nil {
		return false, fmt.Errorf("look up user: %w", err)
	}

	switch {
	case len(matches) == 0:
		admin := &models.User{Username: username, Email: email, Role: models.RoleAdmin}
		if err := users.Create(ctx, admin); err != nil {
			return false, fmt.Errorf("create admin: %w", err)
		}
		return true, nil
	case len(matches) == 1 && matches[0].Username == username && matches[0].Email == email:
		user := matches[0]
		if user.Role == models.RoleAdmin {
			return false, nil
		}
		user.Role = models.RoleAdmin
		if err := users.Update(ctx, &user); err != nil {
			return false, fmt.Errorf("promote user: %w", err)
		}
		return false, nil
	}
	return false, errIdentityTaken
}

// validateIdentity applies the rules the API enforces on signup.
func validateIdentity(username, email string) error {
	if strings.EqualFold(username, service.ReservedUsername) {
		return fmt.Errorf("%q cannot be used as a username", username)
	}
	if err := handler.RegisterValidators(); err != nil {
		return fmt.Errorf("register validators: %w", err)
	}
	err := binding.Validator.ValidateStruct(&dto.SignupRequest{Username: username, Email: email})
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fmt.Sprintf("%s fails %q", fe.Field(), fe.Tag()))
		}
		return fmt.Errorf("invalid admin identity: %s", strings.Join(msgs, ", "))
	}
	return err
}

func withDB(fn func(db *gorm.DB, log zerolog.Logger) error) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("could not load config: %w", err)
	}
	log := logging.New(logging.Config{Level: cfg.LogLevel, Format: "console"})

	db, err := database.Open(cfg, log)
	if err != nil {
		return err
	}
	defer database.Close(db)

	return fn(db, log)
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(createAdminCmd)

	createAdminCmd.Flags().StringP("username", "u", "", "admin username")
	createAdminCmd.Flags().StringP("email", "e", "", "admin email address")
	_ = createAdminCmd.MarkFlagRequired("username")
	_ = createAdminCmd.MarkFlagRequired("email")
}
