package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"yamdb/internal/config"
	"yamdb/internal/mailer"
	"yamdb/internal/metrics"
	"yamdb/internal/microservices/http-api/dto"
	"yamdb/internal/microservices/http-api/models"
	"yamdb/internal/microservices/http-api/repository"
	"yamdb/internal/middleware/auth"
)

// ReservedUsername is the path segment used for self-service and so cannot
// name a real account.
const ReservedUsername = "me"

const mailFailureMessage = "could not send confirmation code, please try again later"

type AuthService interface {
	// Signup creates or fetches the account and mails it a fresh confirmation code.
	Signup(ctx context.Context, req dto.SignupRequest) (*dto.SignupResponse, error)
	// ExchangeToken trades a pending confirmation code for an access token.
	ExchangeToken(ctx context.Context, req dto.TokenRequest) (*dto.TokenResponse, error)
	// Authenticate resolves a bearer token to its current user.
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

type authService struct {
	userRepo    repository.UserRepository
	tokens      *TokenIssuer
	sender      mailer.Sender
	log         zerolog.Logger
	codeTTL     time.Duration
	mailTimeout time.Duration
	now         func() time.Time
}

func NewAuthService(
	userRepo repository.UserRepository,
	tokens *TokenIssuer,
	sender mailer.Sender,
	cfg *config.Config,
	log zerolog.Logger,
) AuthService {
	return &authService{
		userRepo:    userRepo,
		tokens:      tokens,
		sender:      sender,
		log:         log.With().Str("service", "auth").Logger(),
		codeTTL:     cfg.ConfirmationCodeTTL,
		mailTimeout: cfg.MailTimeout,
		now:         time.Now,
	}
}

func (s *authService) Signup(ctx context.Context, req dto.SignupRequest) (*dto.SignupResponse, error) {
	if strings.EqualFold(req.Username, ReservedUsername) {
		return nil, NewValidationError("username", fmt.Sprintf("%q cannot be used as a username", ReservedUsername))
	}

	user, err := s.findOrCreate(ctx, req.Username, req.Email)
	if err != nil {
		return nil, err
	}

	code, err := auth.GenerateCode()
	if err != nil {
		return nil, fmt.Errorf("generate confirmation code: %w", err)
	}
	hash, err := auth.HashCode(code)
	if err != nil {
		return nil, fmt.Errorf("hash confirmation code: %w", err)
	}
	sentAt := s.now()
	user.ConfirmationCode = &hash
	user.ConfirmationSentAt = &sentAt
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("store confirmation code: %w", err)
	}

	if err := s.sendCode(ctx, user, code); err != nil {
		return nil, err
	}
	return &dto.SignupResponse{Username: user.Username, Email: user.Email}, nil
}

// findOrCreate returns the user owning exactly this username/email pair,
// creating it when neither value is taken.
func (s *authService) findOrCreate(ctx context.Context, username, email string) (*models.User, error) {
	existing, err := s.userRepo.FindByUsernameOrEmail(ctx, username, email)
	if err != nil {
		return nil, err
	}

	ve := &ValidationError{}
	for i := range existing {
		u := existing[i]
		switch {
		case u.Username == username && u.Email == email:
			return &u, nil
		case u.Username == username:
			ve.Add("username", "a user with this username already exists")
		case u.Email == email:
			ve.Add("email", "a user with this email already exists")
		}
	}
	if len(ve.Fields) > 0 {
		return nil, ve
	}

	user := &models.User{Username: username, Email: email, Role: models.RoleUser}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, NewValidationError("username", "a user with this username or email already exists")
		}
		return nil, err
	}
	s.log.Info().Str("user_id", user.ID).Str("username", user.Username).Msg("user registered")
	return user, nil
}

func (s *authService) sendCode(ctx context.Context, user *models.User, code string) error {
	mailCtx, cancel := context.WithTimeout(ctx, s.mailTimeout)
	defer cancel()

	err := s.sender.Send(mailCtx, mailer.Message{
		To:      user.Email,
		Subject: "YaMDb confirmation code",
		Body: fmt.Sprintf(
			"Hello %s,\n\nyour confirmation code is: %s\n\nExchange it at /api/v1/auth/token within %s.\n",
			user.Username, code, s.codeTTL),
	})
	if err != nil {
		result := "failed"
		if errors.Is(err, mailer.ErrUnavailable) {
			result = "unavailable"
		}
		metrics.RecordConfirmationEmail(result)
		s.log.Error().Err(err).Str("user_id", user.ID).Msg("failed to send confirmation code")
		return newPublicError(ErrUpstream, mailFailureMessage)
	}
	metrics.RecordConfirmationEmail("sent")
	s.log.Info().Str("user_id", user.ID).Msg("confirmation code sent")
	return nil
}

func (s *authService) ExchangeToken(ctx context.Context, req dto.TokenRequest) (*dto.TokenResponse, error) {
	user, err := s.userRepo.FindByUsername(ctx, req.Username)
	if err != nil {
		return nil, notFound(err, "user")
	}

	if !auth.VerifyCode(user.ConfirmationCode, req.ConfirmationCode) {
		return nil, newPublicError(ErrInvalidCode, "invalid confirmation code")
	}
	now := s.now()
	if user.ConfirmationSentAt == nil || now.After(user.ConfirmationSentAt.Add(s.codeTTL)) {
		return nil, newPublicError(ErrInvalidCode, "confirmation code has expired")
	}

	// conditional on the stored hash so two concurrent exchanges cannot both win
	if err := s.userRepo.Activate(ctx, user.ID, *user.ConfirmationCode, now); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newPublicError(ErrInvalidCode, "invalid confirmation code")
		}
		return nil, err
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("user_id", user.ID).Msg("access token issued")
	return &dto.TokenResponse{Token: token}, nil
}

func (s *authService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	userID, err := s.tokens.Parse(token)
	if err != nil {
		return nil, newPublicError(ErrUnauthenticated, err.Error())
	}
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newPublicError(ErrUnauthenticated, "user no longer exists")
		}
		return nil, err
	}
	return user, nil
}
