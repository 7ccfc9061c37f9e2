package service

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"yamdb/internal/config"
	"yamdb/internal/mailer"
	"yamdb/internal/microservices/http-api/dto"
	"yamdb/internal/microservices/http-api/models"
	"yamdb/internal/microservices/http-api/repository"
	"yamdb/internal/middleware/auth"
)

var codePattern = regexp.MustCompile(`confirmation code is: (\S+)`)

func newTestAuthService(users *MockUserRepository, sender *MockSender) (*authService, *TokenIssuer) {
	cfg := &config.Config{
		ConfirmationCodeTTL: time.Hour,
		MailTimeout:         time.Second,
	}
	tokens := NewTokenIssuer("test-secret-test-secret-test-secret", 15*time.Minute)
	svc := NewAuthService(users, tokens, sender, cfg, zerolog.Nop()).(*authService)
	return svc, tokens
}

func TestSignup_ReservedUsername(t *testing.T) {
	users := new(MockUserRepository)
	sender := new(MockSender)
	svc, _ := newTestAuthService(users, sender)

	for _, name := range []string{"me", "ME", "Me"} {
		_, err := svc.Signup(context.Background(), dto.SignupRequest{Username: name, Email: "me@example.com"})

		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Contains(t, ve.Fields, "username")
		assert.ErrorIs(t, err, ErrValidation)
	}
	users.AssertNotCalled(t, "FindByUsernameOrEmail", mock.Anything, mock.Anything, mock.Anything)
	sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestSignup_NewUserThenExchange(t *testing.T) {
	users := new(MockUserRepository)
	sender := new(MockSender)
	svc, tokens := newTestAuthService(users, sender)
	ctx := context.Background()

	var stored *models.User
	var mailed mailer.Message

	users.On("FindByUsernameOrEmail", ctx, "alice", "alice@example.com").Return([]models.User{}, nil)
	users.On("Create", ctx, mock.AnythingOfType("*models.User")).
		Run(func(args mock.Arguments) { args.Get(1).(*models.User).ID = "user-1" }).
		Return(nil)
	users.On("Update", ctx, mock.AnythingOfType("*models.User")).
		Run(func(args mock.Arguments) { stored = args.Get(1).(*models.User) }).
		Return(nil)
	sender.On("Send", mock.Anything, mock.AnythingOfType("mailer.Message")).
		Run(func(args mock.Arguments) { mailed = args.Get(1).(mailer.Message) }).
		Return(nil)

	resp, err := svc.Signup(ctx, dto.SignupRequest{Username: "alice", Email: "alice@example.com"})
	require.NoError(t, err)
	assert.Equal(t, &dto.SignupResponse{Username: "alice", Email: "alice@example.com"}, resp)
	assert.Equal(t, "alice@example.com", mailed.To)

	m := codePattern.FindStringSubmatch(mailed.Body)
	require.Len(t, m, 2)
	code := m[1]

	require.NotNil(t, stored)
	require.NotNil(t, stored.ConfirmationCode)
	assert.NotEqual(t, code, *stored.ConfirmationCode, "code must be stored hashed")
	assert.True(t, auth.VerifyCode(stored.ConfirmationCode, code))

	users.On("FindByUsername", ctx, "alice").Return(stored, nil)
	users.On("Activate", ctx, "user-1", *stored.ConfirmationCode, mock.AnythingOfType("time.Time")).Return(nil)

	tok, err := svc.ExchangeToken(ctx, dto.TokenRequest{Username: "alice", ConfirmationCode: code})
	require.NoError(t, err)

	sub, err := tokens.Parse(tok.Token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", sub)
	users.AssertExpectations(t)
	sender.AssertExpectations(t)
}

func TestSignup_ExistingPairReissuesCode(t *testing.T) {
	users := new(MockUserRepository)
	sender := new(MockSender)
	svc, _ := newTestAuthService(users, sender)
	ctx := context.Background()

	oldHash, err := auth.HashCode("old-code")
	require.NoError(t, err)
	existing := models.User{ID: "user-1", Username: "bob", Email: "bob@example.com", ConfirmationCode: &oldHash}

	users.On("FindByUsernameOrEmail", ctx, "bob", "bob@example.com").Return([]models.User{existing}, nil)
	users.On("Update", ctx, mock.MatchedBy(func(u *models.User) bool {
		return u.ID == "user-1" && !auth.VerifyCode(u.ConfirmationCode, "old-code")
	})).Return(nil)
	sender.On("Send", mock.Anything, mock.Anything).Return(nil)

	_, err = svc.Signup(ctx, dto.SignupRequest{Username: "bob", Email: "bob@example.com"})
	require.NoError(t, err)
	users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	users.AssertExpectations(t)
}

func TestSignup_CrossUniqueness(t *testing.T) {
	users := new(MockUserRepository)
	sender := new(MockSender)
	svc, _ := newTestAuthService(users, sender)
	ctx := context.Background()

	users.On("FindByUsernameOrEmail", ctx, "carol", "dave@example.com").Return([]models.User{
		{ID: "1", Username: "carol", Email: "carol@example.com"},
		{ID: "2", Username: "dave", Email: "dave@example.com"},
	}, nil)

	_, err := svc.Signup(ctx, dto.SignupRequest{Username: "carol", Email: "dave@example.com"})

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "username")
	assert.Contains(t, ve.Fields, "email")
	users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSignup_CreateRaceIsValidationError(t *testing.T) {
	users := new(MockUserRepository)
	sender := new(MockSender)
	svc, _ := newTestAuthService(users, sender)
	ctx := context.Background()

	users.On("FindByUsernameOrEmail", ctx, "erin", "erin@example.com").Return([]models.User{}, nil)
	users.On("Create", ctx, mock.Anything).Return(repository.ErrDuplicate)

	_, err := svc.Signup(ctx, dto.SignupRequest{Username: "erin", Email: "erin@example.com"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestSignup_MailFailureIsGeneric(t *testing.T) {
	users := new(MockUserRepository)
	sender := new(MockSender)
	svc, _ := newTestAuthService(users, sender)
	ctx := context.Background()

	users.On("FindByUsernameOrEmail", ctx, "frank", "frank@example.com").Return([]models.User{}, nil)
	users.On("Create", ctx, mock.Anything).Return(nil)
	users.On("Update", ctx, mock.Anything).Return(nil)
	sender.On("Send", mock.Anything, mock.Anything).Return(errors.New("dial tcp 10.0.0.5:587: i/o timeout"))

	_, err := svc.Signup(ctx, dto.SignupRequest{Username: "frank", Email: "frank@example.com"})
	require.ErrorIs(t, err, ErrUpstream)
	assert.Equal(t, mailFailureMessage, err.Error())
	assert.NotContains(t, err.Error(), "10.0.0.5")
}

func TestSignup_MailBoundedByTimeout(t *testing.T) {
	users := new(MockUserRepository)
	sender := new(MockSender)
	svc, _ := newTestAuthService(users, sender)
	svc.mailTimeout = 20 * time.Millisecond
	ctx := context.Background()

	users.On("FindByUsernameOrEmail", ctx, "gina", "gina@example.com").Return([]models.User{}, nil)
	users.On("Create", ctx, mock.Anything).Return(nil)
	users.On("Update", ctx, mock.Anything).Return(nil)
	sender.On("Send", mock.Anything, mock.Anything).Return(func(ctx context.Context, _ mailer.Message) error {
		<-ctx.Done()
		return ctx.Err()
	})

	start := time.Now()
	_, err := svc.Signup(ctx, dto.SignupRequest{Username: "gina", Email: "gina@example.com"})
	assert.ErrorIs(t, err, ErrUpstream)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestExchangeToken_UnknownUser(t *testing.T) {
	users := new(MockUserRepository)
	svc, _ := newTestAuthService(users, new(MockSender))
	ctx := context.Background()

	users.On("FindByUsername", ctx, "ghost").Return(nil, repository.ErrNotFound)

	_, err := svc.ExchangeToken(ctx, dto.TokenRequest{Username: "ghost", ConfirmationCode: "whatever"})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrInvalidCode)
}

func TestExchangeToken_WrongCode(t *testing.T) {
	users := new(MockUserRepository)
	svc, _ := newTestAuthService(users, new(MockSender))
	ctx := context.Background()

	hash, err := auth.HashCode("right-code")
	require.NoError(t, err)
	sentAt := time.Now()
	users.On("FindByUsername", ctx, "henry").Return(&models.User{
		ID: "u", Username: "henry", ConfirmationCode: &hash, ConfirmationSentAt: &sentAt,
	}, nil)

	_, err = svc.ExchangeToken(ctx, dto.TokenRequest{Username: "henry", ConfirmationCode: "wrong-code"})
	assert.ErrorIs(t, err, ErrInvalidCode)
	users.AssertNotCalled(t, "Activate", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestExchangeToken_UsedCode(t *testing.T) {
	users := new(MockUserRepository)
	svc, _ := newTestAuthService(users, new(MockSender))
	ctx := context.Background()

	users.On("FindByUsername", ctx, "ivy").Return(&models.User{ID: "u", Username: "ivy", Confirmed: true}, nil)

	_, err := svc.ExchangeToken(ctx, dto.TokenRequest{Username: "ivy", ConfirmationCode: "anything"})
	assert.ErrorIs(t, err, ErrInvalidCode)
}

func TestExchangeToken_ExpiredCode(t *testing.T) {
	users := new(MockUserRepository)
	svc, _ := newTestAuthService(users, new(MockSender))
	ctx := context.Background()

	hash, err := auth.HashCode("code")
	require.NoError(t, err)
	sentAt := time.Now().Add(-2 * time.Hour)
	users.On("FindByUsername", ctx, "jack").Return(&models.User{
		ID: "u", Username: "jack", ConfirmationCode: &hash, ConfirmationSentAt: &sentAt,
	}, nil)

	_, err = svc.ExchangeToken(ctx, dto.TokenRequest{Username: "jack", ConfirmationCode: "code"})
	assert.ErrorIs(t, err, ErrInvalidCode)
	assert.Equal(t, "confirmation code has expired", err.Error())
}

func TestExchangeToken_ConcurrentUseLoses(t *testing.T) {
	users := new(MockUserRepository)
	svc, _ := newTestAuthService(users, new(MockSender))
	ctx := context.Background()

	hash, err := auth.HashCode("code")
	require.NoError(t, err)
	sentAt := time.Now()
	users.On("FindByUsername", ctx, "kim").Return(&models.User{
		ID: "u", Username: "kim", ConfirmationCode: &hash, ConfirmationSentAt: &sentAt,
	}, nil)
	users.On("Activate", ctx, "u", hash, mock.Anything).Return(repository.ErrNotFound)

	_, err = svc.ExchangeToken(ctx, dto.TokenRequest{Username: "kim", ConfirmationCode: "code"})
	assert.ErrorIs(t, err, ErrInvalidCode)
}

func TestAuthenticate(t *testing.T) {
	users := new(MockUserRepository)
	svc, tokens := newTestAuthService(users, new(MockSender))
	ctx := context.Background()

	user := &models.User{ID: "user-9", Username: "lee", Role: models.RoleModerator}
	token, err := tokens.Issue(user)
	require.NoError(t, err)

	users.On("FindByID", ctx, "user-9").Return(user, nil).Once()
	got, err := svc.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, models.RoleModerator, got.Role)

	_, err = svc.Authenticate(ctx, "not-a-jwt")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	users.On("FindByID", ctx, "user-9").Return(nil, repository.ErrNotFound).Once()
	_, err = svc.Authenticate(ctx, token)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestTokenIssuer_Expired(t *testing.T) {
	tokens := NewTokenIssuer("test-secret-test-secret-test-secret", time.Minute)
	tokens.now = func() time.Time { return time.Now().Add(-time.Hour) }
	token, err := tokens.Issue(&models.User{ID: "u"})
	require.NoError(t, err)

	tokens.now = time.Now
	_, err = tokens.Parse(token)
	assert.ErrorIs(t, err, ErrExpiredToken)

	other := NewTokenIssuer("another-secret-another-secret-xx", time.Minute)
	fresh, err := other.Issue(&models.User{ID: "u"})
	require.NoError(t, err)
	_, err = tokens.Parse(fresh)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
