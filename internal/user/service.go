package user

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// tokenTTL keeps issued tokens short-lived; clients re-login to refresh.
const tokenTTL = 15 * time.Minute

type Service struct {
	store     Store
	jwtSecret string
}

type Claims struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

func NewService(store Store, secret string) *Service {
	return &Service{
		store:     store,
		jwtSecret: secret,
	}
}

func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*RegisterResponse, error) {
	hashedPwd, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	u := &User{
		Username: req.Username,
		Password: string(hashedPwd),
	}

	if _, err := s.store.CreateUser(ctx, u); err != nil {
		return nil, err
	}

	return &RegisterResponse{ID: u.ID, Username: u.Username}, nil
}

func (s *Service) Login(ctx context.Context, req *RegisterRequest) (*LoginResponse, error) {
	u, err := s.store.GetUserByUsername(ctx, req.Username)
	if err != nil {
		return nil, ErrBadCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(req.Password)); err != nil {
		return nil, ErrBadCredentials
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		ID:       u.ID,
		Username: u.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "go-inbox",
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenTTL)),
		},
	})

	ss, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return nil, err
	}

	return &LoginResponse{
		AccessToken: ss,
		ID:          u.ID,
		Username:    u.Username,
	}, nil
}

func (s *Service) ValidateToken(tokenString string) (int64, string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		return 0, "", err
	}
	if !token.Valid {
		return 0, "", jwt.ErrTokenUnverifiable
	}

	return claims.ID, claims.Username, nil
}

// IDOf resolves a username to its id.
func (s *Service) IDOf(ctx context.Context, username string) (int64, error) {
	u, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		return 0, err
	}
	return u.ID, nil
}

// UsernameOf resolves an id to its username.
func (s *Service) UsernameOf(ctx context.Context, id int64) (string, error) {
	u, err := s.store.GetUserByID(ctx, id)
	if err != nil {
		return "", err
	}
	return u.Username, nil
}

// Exists reports whether a username is registered.
func (s *Service) Exists(ctx context.Context, username string) (bool, error) {
	_, err := s.store.GetUserByUsername(ctx, username)
	if err == ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ExistsID reports whether a user id is registered.
func (s *Service) ExistsID(ctx context.Context, id int64) (bool, error) {
	_, err := s.store.GetUserByID(ctx, id)
	if err == ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
