package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ariefcatur/go-cafe-orders.git/internal/store"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Provider failures are mapped to these before they reach a user.
var (
	ErrBadCredentials   = errors.New("incorrect email or password")
	ErrEmailTaken       = errors.New("email already exists")
	ErrInvalidEmail     = errors.New("invalid email")
	ErrWeakPassword     = errors.New("password should be at least 6 characters")
	ErrPasswordMismatch = errors.New("passwords do not match")
	ErrBadPhone         = errors.New("phone number should be 10 digits")
	ErrNotSignedIn      = errors.New("not signed in")
)

// User is one UserData document, keyed by email and owned by uid so both
// sign-in lookup and profile queries stay cheap.
type User struct {
	UID          string `json:"uid"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Address      string `json:"address"`
	PasswordHash string `json:"password_hash"`
}

type Session struct {
	UID       string    `json:"uid"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Sessions is the live-session registry keyed by token id. The Redis
// implementation lives in sessions.go; tests use a map fake.
type Sessions interface {
	Put(ctx context.Context, jti, uid string, ttl time.Duration) error
	Delete(ctx context.Context, jti string) error
	Active(ctx context.Context, jti string) (bool, error)
	Announce(ctx context.Context, uid string, signedIn bool) error
	WatchUser(ctx context.Context, uid string, fn func(signedIn bool)) (store.Unsubscribe, error)
}

type Service struct {
	Store      store.Store
	Sessions   Sessions
	Secret     []byte
	TTL        time.Duration
	BcryptCost int
}

type SignUpParams struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	Address         string `json:"address"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (s *Service) SignUp(ctx context.Context, p SignUpParams) (Session, error) {
	if p.Password != p.ConfirmPassword {
		return Session{}, ErrPasswordMismatch
	}
	if len(p.Phone) != 10 {
		return Session{}, ErrBadPhone
	}
	if !strings.Contains(p.Email, "@") {
		return Session{}, ErrInvalidEmail
	}
	if len(p.Password) < 6 {
		return Session{}, ErrWeakPassword
	}

	var existing User
	err := s.Store.Get(ctx, store.CollUserData, p.Email, &existing)
	if err == nil {
		return Session{}, ErrEmailTaken
	}
	if !errors.Is(err, store.ErrNotFound) {
		return Session{}, fmt.Errorf("lookup user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(p.Password), s.cost())
	if err != nil {
		return Session{}, err
	}
	u := User{
		UID:          uuid.NewString(),
		Name:         p.Name,
		Email:        p.Email,
		Phone:        p.Phone,
		Address:      p.Address,
		PasswordHash: string(hash),
	}
	if err := s.Store.Upsert(ctx, store.CollUserData, u.Email, u.UID, u); err != nil {
		return Session{}, fmt.Errorf("persist user: %w", err)
	}
	return s.startSession(ctx, u.UID)
}

func (s *Service) SignIn(ctx context.Context, email, password string) (Session, error) {
	var u User
	err := s.Store.Get(ctx, store.CollUserData, email, &u)
	if errors.Is(err, store.ErrNotFound) {
		return Session{}, ErrBadCredentials
	}
	if err != nil {
		return Session{}, fmt.Errorf("lookup user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return Session{}, ErrBadCredentials
	}
	return s.startSession(ctx, u.UID)
}

func (s *Service) SignOut(ctx context.Context, token string) error {
	uid, jti, err := s.parse(token)
	if err != nil {
		return ErrNotSignedIn
	}
	if err := s.Sessions.Delete(ctx, jti); err != nil {
		return err
	}
	return s.Sessions.Announce(ctx, uid, false)
}

// Verify returns the uid behind a token, rejecting expired, forged and
// signed-out tokens alike.
func (s *Service) Verify(ctx context.Context, token string) (string, error) {
	uid, jti, err := s.parse(token)
	if err != nil {
		return "", ErrNotSignedIn
	}
	active, err := s.Sessions.Active(ctx, jti)
	if err != nil {
		return "", err
	}
	if !active {
		return "", ErrNotSignedIn
	}
	return uid, nil
}

// OnSessionChange fires fn(true) on sign-in and fn(false) on sign-out for
// the given user. Call the Unsubscribe on teardown.
func (s *Service) OnSessionChange(ctx context.Context, uid string, fn func(signedIn bool)) (store.Unsubscribe, error) {
	return s.Sessions.WatchUser(ctx, uid, fn)
}

// UserByUID resolves the profile owning a session, mirroring the
// where-uid-equals query the client runs.
func (s *Service) UserByUID(ctx context.Context, uid string) (User, error) {
	docs, err := s.Store.ListOwned(ctx, store.CollUserData, uid)
	if err != nil {
		return User{}, err
	}
	if len(docs) == 0 {
		return User{}, store.ErrNotFound
	}
	var u User
	if err := json.Unmarshal(docs[0], &u); err != nil {
		return User{}, err
	}
	return u, nil
}

func (s *Service) startSession(ctx context.Context, uid string) (Session, error) {
	now := time.Now()
	exp := now.Add(s.TTL)
	jti := uuid.NewString()
	claims := jwt.MapClaims{
		"sub": uid,
		"jti": jti,
		"exp": exp.Unix(),
		"iat": now.Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.Secret)
	if err != nil {
		return Session{}, err
	}
	if err := s.Sessions.Put(ctx, jti, uid, s.TTL); err != nil {
		return Session{}, err
	}
	if err := s.Sessions.Announce(ctx, uid, true); err != nil {
		return Session{}, err
	}
	return Session{UID: uid, Token: token, ExpiresAt: exp}, nil
}

func (s *Service) parse(token string) (uid, jti string, err error) {
	t, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.Secret, nil
	})
	if err != nil || !t.Valid {
		return "", "", ErrNotSignedIn
	}
	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return "", "", ErrNotSignedIn
	}
	uid, _ = claims["sub"].(string)
	jti, _ = claims["jti"].(string)
	if uid == "" || jti == "" {
		return "", "", ErrNotSignedIn
	}
	return uid, jti, nil
}

func (s *Service) cost() int {
	if s.BcryptCost > 0 {
		return s.BcryptCost
	}
	return bcrypt.DefaultCost
}
