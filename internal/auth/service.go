package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/geocoder89/taskhub/internal/domain/user"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const dummyPassword = "taskhub-timing-equalizer"

type Result struct {
	User        user.User
	AccessToken string
	ExpiresAt   time.Time
}

type Option func(*Service)

// WithDenylist turns on server-side revocation: Logout records the token id
// and Authenticate rejects revoked ids.
func WithDenylist(d Denylist) Option {
	return func(s *Service) { s.denylist = d }
}

func WithRecorder(r OutcomeRecorder) Option {
	return func(s *Service) { s.recorder = r }
}

func WithNow(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

type Service struct {
	cfg      Config
	users    UserDirectory
	hasher   PasswordHasher
	tokens   TokenCodec
	denylist Denylist
	recorder OutcomeRecorder
	validate *inputValidator
	log      *slog.Logger
	tracer   trace.Tracer
	now      func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

func NewService(cfg Config, users UserDirectory, hasher PasswordHasher, tokens TokenCodec, log *slog.Logger, opts ...Option) *Service {
	if log == nil {
		log = slog.Default()
	}

	s := &Service{
		cfg:      cfg,
		users:    users,
		hasher:   hasher,
		tokens:   tokens,
		validate: newInputValidator(cfg.PasswordPolicy),
		log:      log.With("component", "auth"),
		tracer:   otel.Tracer("github.com/geocoder89/taskhub/internal/auth"),
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *Service) RevocationEnabled() bool { return s.denylist != nil }

// Register validates the input, enforces unique email and username, stores the
// user with a fresh bcrypt hash and returns it with an access token.
func (s *Service) Register(ctx context.Context, in RegisterInput) (res Result, err error) {
	ctx, span := s.tracer.Start(ctx, "auth.Register")
	defer func() { s.finish(span, "register", err) }()

	in = in.Normalize()

	if err := s.validate.register(in); err != nil {
		return Result{}, err
	}

	if err := s.ensureAvailable(ctx, in.Email, in.Username); err != nil {
		return Result{}, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return Result{}, fmt.Errorf("register: %w", err)
	}

	now := s.now().UTC()

	created, err := s.users.Insert(ctx, user.User{
		Email:        in.Email,
		Username:     in.Username,
		FullName:     in.FullName,
		PasswordHash: hash,
		IsActive:     true,
		IsVerified:   false,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		switch {
		case errors.Is(err, user.ErrEmailTaken):
			return Result{}, &DuplicateUserError{Field: FieldEmail}
		case errors.Is(err, user.ErrUsernameTaken):
			return Result{}, &DuplicateUserError{Field: FieldUsername}
		default:
			return Result{}, unavailable("insert user", err)
		}
	}

	res, err = s.issue(created)
	if err != nil {
		return Result{}, err
	}

	span.SetAttributes(attribute.String("user.id", created.ID))
	s.log.InfoContext(ctx, "user registered", "user_id", created.ID)

	return res, nil
}

func (s *Service) ensureAvailable(ctx context.Context, email, username string) error {
	_, err := s.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return &DuplicateUserError{Field: FieldEmail}
	case !errors.Is(err, user.ErrNotFound):
		return unavailable("find by email", err)
	}

	_, err = s.users.FindByUsername(ctx, username)
	switch {
	case err == nil:
		return &DuplicateUserError{Field: FieldUsername}
	case !errors.Is(err, user.ErrNotFound):
		return unavailable("find by username", err)
	}

	return nil
}

// Login checks email and password. Unknown email and wrong password are
// indistinguishable to the caller; the active flag is checked only after the
// password matched.
func (s *Service) Login(ctx context.Context, email, password string) (res Result, err error) {
	ctx, span := s.tracer.Start(ctx, "auth.Login")
	defer func() { s.finish(span, "login", err) }()

	in := LoginInput{Email: NormalizeEmail(email), Password: password}
	if err := s.validate.login(in); err != nil {
		return Result{}, err
	}

	u, err := s.users.FindByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			// spend one comparison so unknown emails cost the same as wrong passwords
			s.hasher.Verify(in.Password, s.timingHash())
			return Result{}, ErrInvalidCredentials
		}
		return Result{}, unavailable("find by email", err)
	}

	if !s.hasher.Verify(in.Password, u.PasswordHash) {
		return Result{}, ErrInvalidCredentials
	}

	if !u.IsActive {
		return Result{}, ErrAccountDisabled
	}

	res, err = s.issue(u)
	if err != nil {
		return Result{}, err
	}

	span.SetAttributes(attribute.String("user.id", u.ID))
	s.log.InfoContext(ctx, "user logged in", "user_id", u.ID)

	return res, nil
}

// Authenticate resolves a bearer token to an active user.
func (s *Service) Authenticate(ctx context.Context, token string) (u user.User, err error) {
	ctx, span := s.tracer.Start(ctx, "auth.Authenticate")
	defer func() { s.finish(span, "authenticate", err) }()

	if token == "" {
		return user.User{}, ErrUnauthenticated
	}

	claims, err := s.tokens.Verify(token)
	if err != nil {
		return user.User{}, err
	}

	if s.denylist != nil && claims.JTI != "" {
		revoked, err := s.denylist.IsRevoked(ctx, claims.JTI)
		if err != nil {
			return user.User{}, unavailable("denylist lookup", err)
		}
		if revoked {
			s.log.DebugContext(ctx, "revoked token presented", "jti", claims.JTI)
			return user.User{}, ErrUnauthorized
		}
	}

	u, err = s.users.FindByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.User{}, ErrUnauthorized
		}
		return user.User{}, unavailable("find by id", err)
	}

	if !u.IsActive {
		return user.User{}, ErrUnauthorized
	}

	span.SetAttributes(attribute.String("user.id", u.ID))
	return u, nil
}

// Logout is a no-op unless a denylist is configured. With one, a verifiable
// token's id is revoked until its expiry. Unverifiable tokens are ignored.
func (s *Service) Logout(ctx context.Context, token string) (err error) {
	ctx, span := s.tracer.Start(ctx, "auth.Logout")
	defer func() { s.finish(span, "logout", err) }()

	if s.denylist == nil || token == "" {
		return nil
	}

	claims, verr := s.tokens.Verify(token)
	if verr != nil || claims.JTI == "" {
		return nil
	}

	if err := s.denylist.Revoke(ctx, claims.JTI, claims.ExpiresAt); err != nil {
		return unavailable("denylist revoke", err)
	}

	s.log.InfoContext(ctx, "token revoked", "user_id", claims.Subject, "jti", claims.JTI)
	return nil
}

func (s *Service) issue(u user.User) (Result, error) {
	token, err := s.tokens.Issue(u.ID, s.cfg.AccessTTL)
	if err != nil {
		return Result{}, fmt.Errorf("issue token: %w", err)
	}

	return Result{
		User:        u,
		AccessToken: token,
		ExpiresAt:   s.now().UTC().Add(effectiveTTL(s.cfg.AccessTTL, DefaultAccessTTL)),
	}, nil
}

func (s *Service) timingHash() string {
	s.dummyOnce.Do(func() {
		h, err := s.hasher.Hash(dummyPassword)
		if err != nil {
			s.log.Warn("could not prepare timing hash", "err", err)
			return
		}
		s.dummyHash = h
	})
	return s.dummyHash
}

func (s *Service) finish(span trace.Span, op string, err error) {
	kind := Kind(err)

	if s.recorder != nil {
		s.recorder.AuthOutcome(op, kind)
	}

	span.SetAttributes(attribute.String("auth.outcome", kind))
	if kind == "service_unavailable" || kind == "internal" {
		span.RecordError(err)
		span.SetStatus(codes.Error, kind)
	}
	span.End()
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrServiceUnavailable, op, err)
}
