package services

//go:generate mockgen -source=auth.go -destination=auth_mock.go -package=services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sbilibin2017/rental-auth/internal/hasher"
	"github.com/sbilibin2017/rental-auth/internal/logger"
	"github.com/sbilibin2017/rental-auth/internal/models"
	"github.com/sbilibin2017/rental-auth/internal/repositories"
	"github.com/segmentio/kafka-go"
)

// Error variables. Together with jwt.ErrInvalidToken they are every domain
// failure the auth service reports; anything else is an infrastructure error.
var (
	ErrValidation        = errors.New("email, name and password are required")
	ErrUserAlreadyExists = errors.New("user with this email already exists")
	ErrUserDoesNotExist  = errors.New("user does not exist")
	ErrInvalidPassword   = errors.New("invalid password")
)

// UserReader defines read-only operations for users.
type UserReader interface {
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
}

// UserWriter defines write operations for users.
type UserWriter interface {
	Save(ctx context.Context, user *models.User) (*models.User, error)
}

// TokenGenerator issues access tokens.
type TokenGenerator interface {
	Generate(ctx context.Context, user *models.User) (string, error)
}

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Matches(password, hash string) (bool, error)
}

// KafkaWriter defines a Kafka writer abstraction.
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// AuthService handles registration, login and identity resolution.
type AuthService struct {
	reader      UserReader
	writer      UserWriter
	jwt         TokenGenerator
	hasher      PasswordHasher
	kafkaWriter KafkaWriter
	now         func() time.Time
}

// NewAuthService creates a new AuthService instance. kafkaWriter may be nil.
func NewAuthService(
	reader UserReader,
	writer UserWriter,
	jwt TokenGenerator,
	hasher PasswordHasher,
	kafkaWriter KafkaWriter,
) *AuthService {
	return &AuthService{
		reader:      reader,
		writer:      writer,
		jwt:         jwt,
		hasher:      hasher,
		kafkaWriter: kafkaWriter,
		now:         time.Now,
	}
}

func validateRegistration(email, name, password string) error {
	var missing []string
	if strings.TrimSpace(email) == "" {
		missing = append(missing, "email")
	}
	if strings.TrimSpace(name) == "" {
		missing = append(missing, "name")
	}
	if password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrValidation, strings.Join(missing, ", "))
	}
	if len(password) > hasher.MaxPasswordLength {
		return fmt.Errorf("%w: password longer than %d bytes", ErrValidation, hasher.MaxPasswordLength)
	}
	return nil
}

// Register creates a user and returns a token for it.
func (svc *AuthService) Register(ctx context.Context, email, name, password string) (string, error) {
	if err := validateRegistration(email, name, password); err != nil {
		logger.Log.Infow("invalid registration request", "email", email, "err", err)
		return "", err
	}

	// Fast path only; the unique constraint decides on Save.
	exists, err := svc.reader.ExistsByEmail(ctx, email)
	if err != nil {
		logger.Log.Errorw("failed to check user exists", "err", err)
		return "", err
	}
	if exists {
		logger.Log.Infow("user already exists", "email", email)
		return "", ErrUserAlreadyExists
	}

	hashedPassword, err := svc.hasher.Hash(password)
	if err != nil {
		logger.Log.Errorw("failed to hash password", "err", err)
		return "", err
	}

	// TIMESTAMPTZ keeps microseconds; the token must carry what is stored.
	now := svc.now().UTC().Truncate(time.Microsecond)
	user, err := svc.writer.Save(ctx, &models.User{
		Email:        email,
		Name:         name,
		PasswordHash: hashedPassword,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if errors.Is(err, repositories.ErrDuplicateEmail) {
		logger.Log.Infow("user already exists", "email", email)
		return "", ErrUserAlreadyExists
	}
	if err != nil {
		logger.Log.Errorw("failed to save user", "err", err)
		return "", err
	}

	token, err := svc.jwt.Generate(ctx, user)
	if err != nil {
		logger.Log.Errorw("failed to generate JWT", "err", err)
		return "", err
	}

	// Published after the last fallible step of registration.
	svc.publishUserEvent(ctx, user, models.UserEventRegistered)

	logger.Log.Infow("user registered", "user_id", user.ID)
	return token, nil
}

// Login authenticates a user and returns a JWT token.
func (svc *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := svc.reader.GetByEmail(ctx, email)
	if err != nil {
		logger.Log.Errorw("failed to get user", "err", err)
		return "", err
	}
	if user == nil {
		logger.Log.Infow("user does not exist", "email", email)
		return "", ErrUserDoesNotExist
	}

	ok, err := svc.hasher.Matches(password, user.PasswordHash)
	if err != nil {
		logger.Log.Errorw("failed to verify password", "user_id", user.ID, "err", err)
		return "", err
	}
	if !ok {
		logger.Log.Infow("invalid password", "user_id", user.ID)
		return "", ErrInvalidPassword
	}

	token, err := svc.jwt.Generate(ctx, user)
	if err != nil {
		logger.Log.Errorw("failed to generate JWT", "err", err)
		return "", err
	}

	return token, nil
}

// Me resolves an authenticated user id to its public profile.
func (svc *AuthService) Me(ctx context.Context, userID int64) (*models.UserProfile, error) {
	user, err := svc.reader.GetByID(ctx, userID)
	if err != nil {
		logger.Log.Errorw("failed to get user", "user_id", userID, "err", err)
		return nil, err
	}
	if user == nil {
		logger.Log.Infow("user does not exist", "user_id", userID)
		return nil, ErrUserDoesNotExist
	}
	return user.Profile(), nil
}

// List returns the public profiles of all users.
func (svc *AuthService) List(ctx context.Context) ([]*models.UserProfile, error) {
	users, err := svc.reader.List(ctx)
	if err != nil {
		logger.Log.Errorw("failed to list users", "err", err)
		return nil, err
	}

	profiles := make([]*models.UserProfile, 0, len(users))
	for i := range users {
		profiles = append(profiles, users[i].Profile())
	}
	return profiles, nil
}

// publishUserEvent publishes a user event to Kafka. Failures are logged only.
func (svc *AuthService) publishUserEvent(ctx context.Context, user *models.User, eventType string) {
	if svc.kafkaWriter == nil {
		logger.Log.Debugw("Kafka writer not configured, skipping publishing", "type", eventType)
		return
	}

	event := models.UserEvent{
		EventID:    uuid.NewString(),
		Type:       eventType,
		UserID:     user.ID,
		Email:      user.Email,
		OccurredAt: svc.now().Unix(),
	}

	data, err := json.Marshal(event)
	if err != nil {
		logger.Log.Errorw("Failed to marshal user event for Kafka", "event_id", event.EventID, "error", err)
		return
	}

	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(user.ID, 10)),
		Value: data,
	}

	if err := svc.kafkaWriter.WriteMessages(ctx, msg); err != nil {
		logger.Log.Errorw("Failed to publish user event to Kafka", "event_id", event.EventID, "error", err)
	} else {
		logger.Log.Infow("User event published to Kafka", "event_id", event.EventID, "type", eventType)
	}
}
