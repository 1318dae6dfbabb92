package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	identitydomain "agrimarket/backend/internal/identity/domain"
	membershipdomain "agrimarket/backend/internal/membership/domain"
	orgdomain "agrimarket/backend/internal/organization/domain"
	"agrimarket/backend/internal/security"
	"agrimarket/backend/internal/server/reqctx"
	sessiondomain "agrimarket/backend/internal/session/domain"
	userdomain "agrimarket/backend/internal/user/domain"
)

// Sentinel errors for auth service; handler maps them to HTTP status codes.
var (
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrInvalidRefreshToken    = errors.New("invalid or expired refresh token")
	ErrRefreshTokenReuse      = errors.New("refresh token reuse detected; all sessions revoked")
	ErrNotOrgMember           = errors.New("user is not an active member of the organization")
	ErrOrgSuspended           = errors.New("organization is suspended")
)

// AuthResult holds the outcome of Register (user_id only), Login, or Refresh (tokens + user/org).
type AuthResult struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	UserID       string
	OrgID        string
}

// UserRepo is the minimal user repository needed by the auth service.
type UserRepo interface {
	GetUserByEmail(ctx context.Context, email string) (*userdomain.User, error)
	CreateUser(ctx context.Context, u *userdomain.User) error
}

// IdentityRepo is the minimal identity repository needed by the auth service.
type IdentityRepo interface {
	GetIdentityByUserAndProvider(ctx context.Context, userID string, provider identitydomain.IdentityProvider) (*identitydomain.Identity, error)
	CreateIdentity(ctx context.Context, i *identitydomain.Identity) error
}

// SessionRepo is the minimal session repository needed by the auth service.
type SessionRepo interface {
	GetSessionByID(ctx context.Context, id string) (*sessiondomain.Session, error)
	CreateSession(ctx context.Context, s *sessiondomain.Session) error
	RotateRefresh(ctx context.Context, id, jti, tokenHash string) error
	RevokeSession(ctx context.Context, id string) error
	RevokeSessionsForUser(ctx context.Context, userID string) error
	TouchSession(ctx context.Context, id string) error
}

// MembershipRepo is the minimal membership repository needed by the auth service.
type MembershipRepo interface {
	GetMembershipByUserAndOrg(ctx context.Context, userID, orgID string) (*membershipdomain.Membership, error)
}

// OrgRepo is the minimal organization repository needed by the auth service.
type OrgRepo interface {
	GetOrgByID(ctx context.Context, id string) (*orgdomain.Org, error)
}

// AuthService implements password-only register, login, refresh, and logout.
type AuthService struct {
	userRepo       UserRepo
	identityRepo   IdentityRepo
	sessionRepo    SessionRepo
	membershipRepo MembershipRepo
	orgRepo        OrgRepo
	hasher         *security.Hasher
	tokens         *security.TokenProvider
	refreshTTL     time.Duration
}

// NewAuthService returns an AuthService with the given dependencies.
func NewAuthService(
	userRepo UserRepo,
	identityRepo IdentityRepo,
	sessionRepo SessionRepo,
	membershipRepo MembershipRepo,
	orgRepo OrgRepo,
	hasher *security.Hasher,
	tokens *security.TokenProvider,
	refreshTTL time.Duration,
) *AuthService {
	return &AuthService{
		userRepo:       userRepo,
		identityRepo:   identityRepo,
		sessionRepo:    sessionRepo,
		membershipRepo: membershipRepo,
		orgRepo:        orgRepo,
		hasher:         hasher,
		tokens:         tokens,
		refreshTTL:     refreshTTL,
	}
}

// Register creates a user and local identity with the given email and password.
// Returns AuthResult with UserID only (no tokens/org). The caller then logs in:
// with an org_id for full org-scoped access, or without one to bootstrap their
// first organization.
func (s *AuthService) Register(ctx context.Context, email, password, name, phone string) (*AuthResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	existing, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailAlreadyRegistered
	}
	userID := uuid.New().String()
	now := time.Now().UTC()
	user := &userdomain.User{
		ID:        userID,
		Email:     email,
		Name:      strings.TrimSpace(name),
		Phone:     strings.TrimSpace(phone),
		Status:    userdomain.UserStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}
	hashed, err := s.hasher.Hash([]byte(password))
	if err != nil {
		return nil, err
	}
	identity := &identitydomain.Identity{
		ID:           uuid.New().String(),
		UserID:       userID,
		Provider:     identitydomain.IdentityProviderLocal,
		ProviderID:   email,
		PasswordHash: hashed,
		CreatedAt:    now,
	}
	if err := s.userRepo.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	if err := s.identityRepo.CreateIdentity(ctx, identity); err != nil {
		return nil, err
	}
	return &AuthResult{UserID: userID}, nil
}

// Login authenticates with email/password, creates a session, and returns tokens.
// With a non-empty orgID the caller must hold an active membership in an active
// org and the tokens are scoped to it. With an empty orgID the tokens carry no
// org claim; such a session can only create or list organizations, every
// guarded route rejects it.
func (s *AuthService) Login(ctx context.Context, email, password, orgID string) (*AuthResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	orgID = strings.TrimSpace(orgID)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	user, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil || user.Status != userdomain.UserStatusActive {
		return nil, ErrInvalidCredentials
	}
	ident, err := s.identityRepo.GetIdentityByUserAndProvider(ctx, user.ID, identitydomain.IdentityProviderLocal)
	if err != nil {
		return nil, err
	}
	if ident == nil || ident.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if err := s.hasher.Compare(ident.PasswordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if orgID != "" {
		org, err := s.orgRepo.GetOrgByID(ctx, orgID)
		if err != nil {
			return nil, err
		}
		if org == nil {
			return nil, ErrNotOrgMember
		}
		if org.Status != orgdomain.OrgStatusActive {
			return nil, ErrOrgSuspended
		}
		membership, err := s.membershipRepo.GetMembershipByUserAndOrg(ctx, user.ID, orgID)
		if err != nil {
			return nil, err
		}
		if membership == nil || !membership.IsActive {
			return nil, ErrNotOrgMember
		}
	}
	sessionID := uuid.New().String()
	expiresAt := time.Now().UTC().Add(s.refreshTTL)
	refreshToken, jti, _, err := s.tokens.IssueRefresh(sessionID, user.ID, orgID)
	if err != nil {
		return nil, err
	}
	accessToken, _, accessExp, err := s.tokens.IssueAccess(sessionID, user.ID, orgID)
	if err != nil {
		return nil, err
	}
	sess := &sessiondomain.Session{
		ID:               sessionID,
		UserID:           user.ID,
		OrgID:            orgID,
		RefreshJti:       jti,
		RefreshTokenHash: security.HashToken(refreshToken),
		ExpiresAt:        expiresAt,
		CreatedAt:        time.Now().UTC(),
	}
	if err := s.sessionRepo.CreateSession(ctx, sess); err != nil {
		return nil, err
	}
	return &AuthResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    accessExp,
		UserID:       user.ID,
		OrgID:        orgID,
	}, nil
}

// Refresh validates the refresh token, rotates it, and returns new tokens.
// Presenting a stale jti for a live session is treated as token theft and
// revokes every session the user holds.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	if refreshToken == "" {
		return nil, ErrInvalidRefreshToken
	}
	sessionID, jti, userID, orgID, err := s.tokens.ValidateRefresh(refreshToken)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}
	sess, err := s.sessionRepo.GetSessionByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess == nil || !sess.Active(time.Now().UTC()) {
		return nil, ErrInvalidRefreshToken
	}
	if sess.RefreshJti != jti {
		_ = s.sessionRepo.RevokeSessionsForUser(ctx, userID)
		return nil, ErrRefreshTokenReuse
	}
	if sess.RefreshTokenHash != "" && !security.TokenHashEqual(refreshToken, sess.RefreshTokenHash) {
		return nil, ErrInvalidRefreshToken
	}
	newRefresh, newJti, _, err := s.tokens.IssueRefresh(sessionID, userID, orgID)
	if err != nil {
		return nil, err
	}
	if err := s.sessionRepo.RotateRefresh(ctx, sessionID, newJti, security.HashToken(newRefresh)); err != nil {
		return nil, err
	}
	accessToken, _, accessExp, err := s.tokens.IssueAccess(sessionID, userID, orgID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{
		AccessToken:  accessToken,
		RefreshToken: newRefresh,
		ExpiresAt:    accessExp,
		UserID:       userID,
		OrgID:        orgID,
	}, nil
}

// Logout revokes the session identified by the refresh token or by the access token in context.
// If refreshToken is non-empty, validates it and revokes that session.
// If refreshToken is empty and the auth middleware set session_id in context, revokes that session.
// Otherwise no-op.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken != "" {
		sessionID, _, _, _, err := s.tokens.ValidateRefresh(refreshToken)
		if err != nil {
			return nil
		}
		return s.sessionRepo.RevokeSession(ctx, sessionID)
	}
	sessionID, ok := reqctx.GetSessionID(ctx)
	if !ok {
		return nil
	}
	return s.sessionRepo.RevokeSession(ctx, sessionID)
}

func validateEmail(email string) error {
	if email == "" {
		return errors.New("email is required")
	}
	const simpleEmail = `^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`
	ok, _ := regexp.MatchString(simpleEmail, email)
	if !ok {
		return errors.New("invalid email format")
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < 12 {
		return errors.New("password must be at least 12 characters")
	}
	var hasUpper, hasLower, hasNumber, hasSymbol bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= '0' && r <= '9':
			hasNumber = true
		case r < '0' || (r > '9' && r < 'A') || (r > 'Z' && r < 'a') || r > 'z':
			hasSymbol = true
		}
	}
	if !hasUpper {
		return errors.New("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return errors.New("password must contain at least one lowercase letter")
	}
	if !hasNumber {
		return errors.New("password must contain at least one number")
	}
	if !hasSymbol {
		return errors.New("password must contain at least one symbol")
	}
	return nil
}
