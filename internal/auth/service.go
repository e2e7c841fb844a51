package auth

import (
	"context"
	"strings"

	"github.com/averroes-labs/storefront-gateway/internal/backend"
	pkgerrors "github.com/averroes-labs/storefront-gateway/pkg/errors"
	"github.com/averroes-labs/storefront-gateway/pkg/logger"
)

// User is the backend account projection exposed to the storefront.
type User struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Verified  bool   `json:"verified"`
}

type RegisterParams struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// Service passes session authentication through to the backend. The
// session itself lives in the shared cookie jar; this service only shapes
// the requests and maps the failures. Credentials are never persisted or
// logged on this side.
type Service struct {
	client *backend.Client
	logger *logger.Logger
}

func NewService(client *backend.Client, logg *logger.Logger) (*Service, error) {
	if client == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "auth service requires a backend client")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "auth service requires a logger")
	}
	return &Service{client: client, logger: logg}, nil
}

// BootstrapCSRF primes the cookie jar with a CSRF token. Unsafe requests
// made before this call go out without the token header and the backend
// rejects them.
func (s *Service) BootstrapCSRF(ctx context.Context) error {
	if _, err := s.client.Get(ctx, "/auth/csrf/"); err != nil {
		return s.mapFailure(err, "bootstrapping csrf token")
	}
	if _, ok := s.client.CSRF().ReadToken(); !ok {
		return pkgerrors.New(pkgerrors.CodeDependency, "backend did not set a csrf cookie")
	}
	return nil
}

// ensureCSRF bootstraps lazily so callers can log in without an explicit
// bootstrap round trip first.
func (s *Service) ensureCSRF(ctx context.Context) error {
	if _, ok := s.client.CSRF().ReadToken(); ok {
		return nil
	}
	return s.BootstrapCSRF(ctx)
}

func (s *Service) Register(ctx context.Context, params RegisterParams) (*User, error) {
	if strings.TrimSpace(params.Email) == "" || params.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email and password are required")
	}
	if err := s.ensureCSRF(ctx); err != nil {
		return nil, err
	}
	resp, err := s.client.Post(ctx, "/auth/register/", params)
	if err != nil {
		return nil, s.mapFailure(err, "registration rejected by backend")
	}
	return decodeUser(resp)
}

// VerifyEmail redeems the token mailed out after registration.
func (s *Service) VerifyEmail(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "verification token is required")
	}
	if err := s.ensureCSRF(ctx); err != nil {
		return err
	}
	if _, err := s.client.Post(ctx, "/auth/verify-email/", map[string]string{"token": token}); err != nil {
		return s.mapFailure(err, "email verification rejected by backend")
	}
	return nil
}

func (s *Service) Login(ctx context.Context, email, password string) (*User, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email and password are required")
	}
	if err := s.ensureCSRF(ctx); err != nil {
		return nil, err
	}
	resp, err := s.client.Post(ctx, "/auth/login/", map[string]string{"email": email, "password": password})
	if err != nil {
		if backend.IsStatus(err, 400, 401, 403) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid credentials")
		}
		return nil, s.mapFailure(err, "login rejected by backend")
	}
	s.logger.Info(ctx, "session established")
	return decodeUser(resp)
}

func (s *Service) Logout(ctx context.Context) error {
	if err := s.ensureCSRF(ctx); err != nil {
		return err
	}
	if _, err := s.client.Post(ctx, "/auth/logout/", nil); err != nil {
		// An already-expired session is a successful logout.
		if backend.IsAuthFailure(err) {
			return nil
		}
		return s.mapFailure(err, "logout rejected by backend")
	}
	return nil
}

func (s *Service) Me(ctx context.Context) (*User, error) {
	resp, err := s.client.Get(ctx, "/auth/me/")
	if err != nil {
		if backend.IsAuthFailure(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "no active session")
		}
		return nil, s.mapFailure(err, "fetching session user")
	}
	return decodeUser(resp)
}

func decodeUser(resp *backend.Response) (*User, error) {
	var user User
	if err := resp.DecodeJSON(&user); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding user")
	}
	return &user, nil
}

func (s *Service) mapFailure(err error, msg string) error {
	if backend.IsAuthFailure(err) {
		return pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, msg)
	}
	if statusErr := backend.AsStatusError(err); statusErr != nil && statusErr.StatusCode == 400 {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, msg).
			WithDetails(map[string]any{"server": strings.TrimSpace(string(statusErr.Body))})
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg)
}
