package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"budgettracker/internal/auth"
	"budgettracker/internal/core"
	"budgettracker/internal/log"
)

// ErrInvalidCredentials is returned when username and password do not match an account.
var ErrInvalidCredentials = errors.New("no active account found with the given credentials")

const (
	msgPasswordMismatch = "Password fields didn't match."
	msgUsernameTaken    = "A user with that username already exists."
	msgEmailTaken       = "This field must be unique."
)

type UserStore interface {
	CreateUser(ctx context.Context, u core.User) (core.User, error)
	UserByID(ctx context.Context, id int64) (core.User, error)
	UserByUsername(ctx context.Context, username string) (core.User, error)
	UsernameTaken(ctx context.Context, username string, exceptID int64) (bool, error)
	EmailTaken(ctx context.Context, email string, exceptID int64) (bool, error)
	UpdateUser(ctx context.Context, u core.User) (core.User, error)
}

// RegisterInput is the sign-up payload. Every field is required.
type RegisterInput struct {
	Username  string `json:"username" validate:"required,max=150,username"`
	Password  string `json:"password" validate:"required"`
	Password2 string `json:"password2" validate:"required"`
	Email     string `json:"email" validate:"required,max=254,email"`
	FirstName string `json:"first_name" validate:"required,max=150"`
	LastName  string `json:"last_name" validate:"required,max=150"`
}

// ProfileInput carries profile changes. Nil fields are left unchanged.
type ProfileInput struct {
	Username  *string `json:"username"`
	Email     *string `json:"email"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

type profileFields struct {
	Username  string `json:"username" validate:"required,max=150,username"`
	Email     string `json:"email" validate:"required,max=254,email"`
	FirstName string `json:"first_name" validate:"max=150"`
	LastName  string `json:"last_name" validate:"max=150"`
}

// AccountService handles sign-up, token exchange and the user's own profile.
type AccountService struct {
	users  UserStore
	tokens *auth.Issuer
	logger *log.Logger
}

func NewAccountService(users UserStore, tokens *auth.Issuer, logger *log.Logger) *AccountService {
	if logger == nil {
		logger = log.Discard()
	}
	return &AccountService{
		users:  users,
		tokens: tokens,
		logger: logger.WithComponent(log.ComponentAccount),
	}
}

// Register creates a user after checking field rules, uniqueness and the
// password policy. Nothing is stored when any check fails.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (core.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)

	verr := &ValidationError{}
	checkStruct(in, verr)

	if err := s.checkUnique(ctx, in.Username, in.Email, 0, verr); err != nil {
		return core.User{}, err
	}

	if in.Password != "" {
		for _, msg := range auth.ValidatePassword(in.Password,
			auth.UserAttribute{Name: "username", Value: in.Username},
			auth.UserAttribute{Name: "email address", Value: in.Email},
			auth.UserAttribute{Name: "first name", Value: in.FirstName},
			auth.UserAttribute{Name: "last name", Value: in.LastName},
		) {
			verr.Add("password", msg)
		}
	}

	if err := verr.OrNil(); err != nil {
		return core.User{}, err
	}
	if in.Password != in.Password2 {
		return core.User{}, FieldError("password", msgPasswordMismatch)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return core.User{}, err
	}

	user, err := s.users.CreateUser(ctx, core.User{
		Username:     in.Username,
		Email:        in.Email,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PasswordHash: hash,
	})
	if errors.Is(err, core.ErrConflict) {
		return core.User{}, s.conflictError(ctx, in.Username, in.Email, 0)
	}
	if err != nil {
		return core.User{}, fmt.Errorf("register: %w", err)
	}

	s.logger.InfoContext(ctx, "User registered",
		log.FieldUserID, user.ID,
		log.FieldUsername, user.Username)
	return user, nil
}

func (s *AccountService) checkUnique(ctx context.Context, username, email string, exceptID int64, verr *ValidationError) error {
	if username != "" && !verr.Has("username") {
		taken, err := s.users.UsernameTaken(ctx, username, exceptID)
		if err != nil {
			return err
		}
		if taken {
			verr.Add("username", msgUsernameTaken)
		}
	}
	if email != "" && !verr.Has("email") {
		taken, err := s.users.EmailTaken(ctx, email, exceptID)
		if err != nil {
			return err
		}
		if taken {
			verr.Add("email", msgEmailTaken)
		}
	}
	return nil
}

// conflictError names the field behind a unique violation that slipped past
// the pre-checks because of a concurrent write.
func (s *AccountService) conflictError(ctx context.Context, username, email string, exceptID int64) error {
	verr := &ValidationError{}
	if err := s.checkUnique(ctx, username, email, exceptID, verr); err != nil {
		return err
	}
	if err := verr.OrNil(); err != nil {
		return err
	}
	return FieldError("username", msgUsernameTaken)
}

// Authenticate exchanges credentials for an access/refresh pair.
func (s *AccountService) Authenticate(ctx context.Context, username, password string) (auth.TokenPair, error) {
	user, err := s.users.UserByUsername(ctx, username)
	if errors.Is(err, core.ErrNotFound) {
		s.logger.InfoContext(ctx, "Login failed",
			log.FieldUsername, username,
			log.FieldOperation, log.OpLogin,
			log.FieldErrorType, log.ErrorTypeAuth)
		return auth.TokenPair{}, ErrInvalidCredentials
	}
	if err != nil {
		return auth.TokenPair{}, err
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		s.logger.InfoContext(ctx, "Login failed",
			log.FieldUsername, username,
			log.FieldOperation, log.OpLogin,
			log.FieldErrorType, log.ErrorTypeAuth)
		return auth.TokenPair{}, ErrInvalidCredentials
	}

	pair, err := s.tokens.IssuePair(user.ID)
	if err != nil {
		return auth.TokenPair{}, fmt.Errorf("issue tokens: %w", err)
	}
	return pair, nil
}

// Refresh issues a new access token for a valid refresh token whose user still exists.
func (s *AccountService) Refresh(ctx context.Context, refresh string) (string, error) {
	userID, err := s.tokens.Parse(refresh, auth.RefreshToken)
	if err != nil {
		s.logger.InfoContext(ctx, "Token refresh rejected",
			log.FieldOperation, log.OpRefresh,
			log.FieldError, err,
			log.FieldErrorType, log.ErrorTypeAuth)
		return "", err
	}
	if _, err := s.users.UserByID(ctx, userID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			s.logger.InfoContext(ctx, "Token refresh rejected, user is gone",
				log.FieldOperation, log.OpRefresh,
				log.FieldUserID, userID,
				log.FieldErrorType, log.ErrorTypeAuth)
			return "", auth.ErrInvalidToken
		}
		return "", err
	}
	access, err := s.tokens.Issue(userID, auth.AccessToken)
	if err != nil {
		return "", fmt.Errorf("issue access token: %w", err)
	}
	return access, nil
}

// UserForToken resolves the owner of an access token.
func (s *AccountService) UserForToken(ctx context.Context, access string) (core.User, error) {
	userID, err := s.tokens.Parse(access, auth.AccessToken)
	if err != nil {
		return core.User{}, err
	}
	user, err := s.users.UserByID(ctx, userID)
	if errors.Is(err, core.ErrNotFound) {
		return core.User{}, auth.ErrInvalidToken
	}
	return user, err
}

func (s *AccountService) Profile(ctx context.Context, userID int64) (core.User, error) {
	return s.users.UserByID(ctx, userID)
}

// UpdateProfile applies in to the user's identity fields. Unless partial,
// username and email must be supplied.
func (s *AccountService) UpdateProfile(ctx context.Context, userID int64, in ProfileInput, partial bool) (core.User, error) {
	user, err := s.users.UserByID(ctx, userID)
	if err != nil {
		return core.User{}, err
	}

	f := profileFields{
		Username:  user.Username,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	}
	merge := func(dst *string, src *string) {
		switch {
		case src != nil:
			*dst = strings.TrimSpace(*src)
		case !partial:
			*dst = ""
		}
	}
	merge(&f.Username, in.Username)
	merge(&f.Email, in.Email)
	if in.FirstName != nil {
		f.FirstName = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		f.LastName = strings.TrimSpace(*in.LastName)
	}

	verr := &ValidationError{}
	checkStruct(f, verr)
	if err := s.checkUnique(ctx, f.Username, f.Email, userID, verr); err != nil {
		return core.User{}, err
	}
	if err := verr.OrNil(); err != nil {
		return core.User{}, err
	}

	user.Username, user.Email, user.FirstName, user.LastName = f.Username, f.Email, f.FirstName, f.LastName
	updated, err := s.users.UpdateUser(ctx, user)
	if errors.Is(err, core.ErrConflict) {
		return core.User{}, s.conflictError(ctx, f.Username, f.Email, userID)
	}
	if err != nil {
		return core.User{}, err
	}
	return updated, nil
}
