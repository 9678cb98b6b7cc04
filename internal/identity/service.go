// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keyward Contributors

package identity

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"time"

	"github.com/samber/oops"

	"github.com/keyward/keyward/internal/eventbus"
)

// msgInvalidCredentials is the uniform authentication failure message.
// It is deliberately identical whether the email was unknown, the
// credential was missing, or the password was wrong, so callers cannot
// enumerate accounts.
const msgInvalidCredentials = "invalid credentials supplied"

// dummyPasswordHash is verified when the identity or credential does
// not exist, so lookups and mismatches take comparable time. It is not
// a real credential and matches no password.
//
//nolint:gosec // G101: fake hash for timing-attack prevention, not a credential.
const dummyPasswordHash = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// HostResolver resolves a network address to a hostname. Resolution is
// best-effort; an error leaves the session's hostname empty.
type HostResolver func(ctx context.Context, addr string) (string, error)

func defaultHostResolver(ctx context.Context, addr string) (string, error) {
	names, err := net.DefaultResolver.LookupAddr(ctx, addr)
	if err != nil || len(names) == 0 {
		return "", err
	}
	return names[0], nil
}

// ServiceConfig carries the collaborators a Service needs.
type ServiceConfig struct {
	Identities  IdentityStore
	Credentials CredentialStore
	Sessions    SessionStore
	Tokens      TokenStore
	Roles       RoleAuthority
	Hasher      PasswordHasher
	Bus         *eventbus.Bus

	// Resolver defaults to a reverse DNS lookup.
	Resolver HostResolver

	// Logger defaults to slog.Default.
	Logger *slog.Logger

	// Observer, when set, receives the name and outcome of every
	// lifecycle operation.
	Observer func(operation string, success bool)

	// RoleGated enables the administrator check on Deregister.
	RoleGated bool
}

// Service orchestrates the stores, hashing policy, and event bus to
// implement the identity lifecycle operations.
type Service struct {
	identities  IdentityStore
	credentials CredentialStore
	sessions    SessionStore
	tokens      TokenStore
	roles       RoleAuthority
	hasher      PasswordHasher
	bus         *eventbus.Bus
	resolver    HostResolver
	logger      *slog.Logger
	observer    func(operation string, success bool)
	roleGated   bool
}

// NewService creates a Service, validating required collaborators.
func NewService(cfg ServiceConfig) (*Service, error) {
	switch {
	case cfg.Identities == nil:
		return nil, oops.Code("SERVICE_CONFIG_INVALID").Errorf("identity store is required")
	case cfg.Credentials == nil:
		return nil, oops.Code("SERVICE_CONFIG_INVALID").Errorf("credential store is required")
	case cfg.Sessions == nil:
		return nil, oops.Code("SERVICE_CONFIG_INVALID").Errorf("session store is required")
	case cfg.Tokens == nil:
		return nil, oops.Code("SERVICE_CONFIG_INVALID").Errorf("token store is required")
	case cfg.Roles == nil:
		return nil, oops.Code("SERVICE_CONFIG_INVALID").Errorf("role authority is required")
	case cfg.Hasher == nil:
		return nil, oops.Code("SERVICE_CONFIG_INVALID").Errorf("password hasher is required")
	case cfg.Bus == nil:
		return nil, oops.Code("SERVICE_CONFIG_INVALID").Errorf("event bus is required")
	}

	resolver := cfg.Resolver
	if resolver == nil {
		resolver = defaultHostResolver
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		identities:  cfg.Identities,
		credentials: cfg.Credentials,
		sessions:    cfg.Sessions,
		tokens:      cfg.Tokens,
		roles:       cfg.Roles,
		hasher:      cfg.Hasher,
		bus:         cfg.Bus,
		resolver:    resolver,
		logger:      logger,
		observer:    cfg.Observer,
		roleGated:   cfg.RoleGated,
	}, nil
}

// observed reports the operation outcome to the configured observer
// and passes the result through unchanged.
func (s *Service) observed(operation string, res *Result) *Result {
	if s.observer != nil {
		s.observer(operation, res.Success)
	}
	return res
}

// verifyCredentials resolves the identity by email and checks the
// password against the basic credential. On failure it returns a
// uniform authentication failure; the matched identity and credential
// are returned on success.
func (s *Service) verifyCredentials(ctx context.Context, email, password string) (*Identity, *Credential, *Result) {
	ident, err := s.identities.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			return nil, nil, failure(FailurePersistence, "unable to verify credentials")
		}
		// Burn a verification anyway so unknown emails cost the same
		// as wrong passwords.
		_, _ = s.hasher.Verify(password, dummyPasswordHash) //nolint:errcheck
		return nil, nil, failure(FailureAuthentication, msgInvalidCredentials)
	}

	cred, err := s.credentials.Get(ctx, ident.ID, ProviderBasic)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			return nil, nil, failure(FailurePersistence, "unable to verify credentials")
		}
		_, _ = s.hasher.Verify(password, dummyPasswordHash) //nolint:errcheck
		return nil, nil, failure(FailureAuthentication, msgInvalidCredentials)
	}

	valid, err := s.hasher.Verify(password, cred.SecretHash)
	if err != nil || !valid {
		if err != nil {
			s.logger.Warn("stored hash unreadable during verification", "identity_id", ident.ID, "error", err)
		} else {
			s.logger.Warn("password mismatch", "email", email)
		}
		return nil, nil, failure(FailureAuthentication, msgInvalidCredentials)
	}

	return ident, cred, nil
}

// rehashIfStale recomputes the credential hash when the stored one was
// produced under an outdated policy. Best-effort: a stale-but-valid
// hash remains usable, so persistence failure is recorded as a soft
// failure.
func (s *Service) rehashIfStale(ctx context.Context, cred *Credential, password string, res *Result) {
	if !s.hasher.NeedsRehash(cred.SecretHash) {
		return
	}

	newHash, err := s.hasher.Hash(password)
	if err != nil {
		s.logger.Warn("rehash computation failed", "identity_id", cred.IdentityID, "error", err)
		res.soft("rehash", err)
		return
	}

	cred.SecretHash = newHash
	cred.UpdatedAt = time.Now().UTC()
	if err := s.credentials.Update(ctx, cred); err != nil {
		s.logger.Warn("rehash persistence failed", "identity_id", cred.IdentityID, "error", err)
		res.soft("rehash", err)
	}
}

// touchLastLogin stamps the identity's last login time. Best-effort.
func (s *Service) touchLastLogin(ctx context.Context, ident *Identity, res *Result) {
	now := time.Now().UTC()
	ident.LastLogin = &now
	if err := s.identities.Update(ctx, ident); err != nil {
		s.logger.Warn("last login update failed", "identity_id", ident.ID, "error", err)
		res.soft("last_login", err)
	}
}

// publish emits the lifecycle event as the operation's final step. All
// durable writes are already final, so a subscriber failure does not
// fail the operation; it is recorded as a soft failure.
func (s *Service) publish(ctx context.Context, kind eventbus.Kind, payload any, res *Result) {
	if err := s.bus.Publish(ctx, kind, payload); err != nil {
		s.logger.Warn("event publish failed", "kind", string(kind), "error", err)
		res.soft("publish", err)
	}
}

// Authenticate verifies an email/password pair. On success the stored
// hash is transparently rehashed if stale, the last login time is
// stamped, and the Authenticated event fires.
func (s *Service) Authenticate(ctx context.Context, p Params) *Result {
	return s.observed("authenticate", s.authenticate(ctx, p))
}

func (s *Service) authenticate(ctx context.Context, p Params) *Result {
	if !p.Has(ParamEmail) || !p.Has(ParamPassword) {
		return failure(FailureValidation, "missing parameters for authentication")
	}

	email := p.Get(ParamEmail, "")
	password := p.Get(ParamPassword, "")

	ident, cred, fail := s.verifyCredentials(ctx, email, password)
	if fail != nil {
		return fail
	}

	res := success(AuthenticatedPayload{IdentityID: ident.ID})
	s.rehashIfStale(ctx, cred, password, res)
	s.touchLastLogin(ctx, ident, res)
	s.publish(ctx, EventAuthenticated, AuthenticatedEvent{IdentityID: ident.ID}, res)

	return res
}

// Register creates an identity and its basic credential. The two
// creations appear atomic to the caller: if the credential cannot be
// persisted, the just-created identity is deleted again (best-effort)
// and the operation fails.
func (s *Service) Register(ctx context.Context, p Params) *Result {
	return s.observed("register", s.register(ctx, p))
}

func (s *Service) register(ctx context.Context, p Params) *Result {
	if !p.Has(ParamEmail) || !p.Has(ParamPassword) ||
		!p.Has(ParamPasswordConfirmation) || !p.Has(ParamDisplayName) {
		return failure(FailureValidation, "missing parameters for registration")
	}

	email := p.Get(ParamEmail, "")
	password := p.Get(ParamPassword, "")
	confirmation := p.Get(ParamPasswordConfirmation, "")
	displayName := p.Get(ParamDisplayName, "")

	if password != confirmation {
		return failure(FailureValidation, "password and confirmation do not match")
	}
	if !ValidEmail(email) {
		return failure(FailureValidation, "invalid email address")
	}
	if !ValidDisplayName(displayName) {
		return failure(FailureValidation, "invalid display name")
	}

	// Hash before any write so a hashing failure has no side effects.
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return failure(FailureValidation, "invalid password")
	}

	ident := &Identity{
		Email:          email,
		EmailConfirmed: p.GetBool(ParamEmailConfirmed, false),
		DisplayName:    displayName,
		DateJoined:     time.Now().UTC(),
	}

	if err := s.identities.Create(ctx, ident); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return failure(FailureDuplicate, "an account with that email already exists")
		}
		s.logger.Error("identity creation failed", "email", email, "error", err)
		return failure(FailurePersistence, "failed to create account")
	}

	cred := &Credential{
		IdentityID: ident.ID,
		Provider:   ProviderBasic,
		SecretHash: hash,
		UpdatedAt:  time.Now().UTC(),
	}

	if err := s.credentials.Create(ctx, cred); err != nil {
		s.logger.Error("credential creation failed", "identity_id", ident.ID, "error", err)
		res := failure(FailurePersistence, "failed to create account")
		// Compensating delete; its own failure must not mask the
		// original one.
		if delErr := s.identities.Delete(ctx, ident.ID); delErr != nil {
			s.logger.Warn("compensating identity delete failed", "identity_id", ident.ID, "error", delErr)
			res.soft("compensating_delete", delErr)
		}
		return res
	}

	res := success(nil)
	s.publish(ctx, EventRegistered, RegisteredEvent{Identity: ident}, res)

	return res
}

// Deregister removes the target identity and cascades its credentials,
// sessions, tokens, and role assignments. Self-deletion is forbidden;
// in role-gated deployments the actor must hold Administrator in the
// global scope.
func (s *Service) Deregister(ctx context.Context, actorID, targetID int64) *Result {
	return s.observed("deregister", s.deregister(ctx, actorID, targetID))
}

func (s *Service) deregister(ctx context.Context, actorID, targetID int64) *Result {
	if actorID == targetID {
		return failure(FailureValidation, "an account cannot deregister itself")
	}

	if s.roleGated {
		isAdmin, err := s.roles.HasRole(ctx, actorID, RoleAdministrator, GlobalScope)
		if err != nil {
			s.logger.Error("role check failed", "actor_id", actorID, "error", err)
			return failure(FailurePersistence, "failed to verify permissions")
		}
		if !isAdmin {
			return failure(FailureAuthorization, "administrator role required")
		}
	}

	target, err := s.identities.GetByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return failure(FailureNotFound, "no such account")
		}
		return failure(FailurePersistence, "failed to resolve account")
	}
	snapshot := *target

	if err := s.identities.Delete(ctx, targetID); err != nil {
		s.logger.Error("identity delete failed", "identity_id", targetID, "error", err)
		return failure(FailurePersistence, "failed to delete account")
	}

	res := success(nil)

	// The schema cascades on identity deletion; these explicit sweeps
	// are best-effort cleanup for stores without that guarantee.
	cascades := []struct {
		step string
		fn   func(context.Context, int64) error
	}{
		{"cascade_roles", s.roles.DeleteAssignmentsForIdentity},
		{"cascade_credentials", s.credentials.DeleteByIdentity},
		{"cascade_sessions", s.sessions.DeleteByIdentity},
		{"cascade_tokens", s.tokens.DeleteByIdentity},
	}
	for _, c := range cascades {
		if err := c.fn(ctx, targetID); err != nil {
			s.logger.Warn("deregistration cascade failed", "step", c.step, "identity_id", targetID, "error", err)
			res.soft(c.step, err)
		}
	}

	s.publish(ctx, EventDeregistered, DeregisteredEvent{Identity: &snapshot}, res)

	return res
}

// Login is the superset of Authenticate for flows that establish a
// Session: it additionally requires a confirmed email and a role
// (requiredRole, or any assignment when requiredRole is empty), then
// creates a session bound to the caller's network address.
func (s *Service) Login(ctx context.Context, p Params, sctx SessionContext, requiredRole string) *Result {
	return s.observed("login", s.login(ctx, p, sctx, requiredRole))
}

func (s *Service) login(ctx context.Context, p Params, sctx SessionContext, requiredRole string) *Result {
	if !p.Has(ParamEmail) || !p.Has(ParamPassword) {
		return failure(FailureValidation, "missing parameters for login")
	}

	email := p.Get(ParamEmail, "")
	password := p.Get(ParamPassword, "")

	ident, cred, fail := s.verifyCredentials(ctx, email, password)
	if fail != nil {
		return fail
	}

	if !ident.EmailConfirmed {
		return failure(FailureAuthentication, msgInvalidCredentials)
	}

	if requiredRole != "" {
		held, err := s.roles.HasRole(ctx, ident.ID, requiredRole, GlobalScope)
		if err != nil {
			s.logger.Error("role check failed", "identity_id", ident.ID, "error", err)
			return failure(FailurePersistence, "failed to verify permissions")
		}
		if !held {
			return failure(FailureAuthorization, "required role not held")
		}
	} else {
		assignments, err := s.roles.ListAssignments(ctx, ident.ID)
		if err != nil {
			s.logger.Error("assignment listing failed", "identity_id", ident.ID, "error", err)
			return failure(FailurePersistence, "failed to verify permissions")
		}
		if len(assignments) == 0 {
			return failure(FailureAuthorization, "no roles assigned")
		}
	}

	// All checks passed; what remains is a pure write epilogue.
	res := success(nil)
	s.rehashIfStale(ctx, cred, password, res)
	s.touchLastLogin(ctx, ident, res)

	token, tokenHash, err := GenerateToken()
	if err != nil {
		s.logger.Error("session token generation failed", "error", err)
		return failure(FailurePersistence, "failed to establish session")
	}

	hostname := ""
	if sctx.RemoteAddr != "" {
		if name, err := s.resolver(ctx, sctx.RemoteAddr); err == nil {
			hostname = name
		}
	}

	sess := &Session{
		IdentityID: ident.ID,
		TokenHash:  tokenHash,
		RemoteAddr: sctx.RemoteAddr,
		RemoteHost: hostname,
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.sessions.Create(ctx, sess); err != nil {
		s.logger.Error("session creation failed", "identity_id", ident.ID, "error", err)
		return failure(FailurePersistence, "failed to establish session")
	}

	res.Payload = LoginPayload{Identity: ident, Session: sess, Token: token}
	s.publish(ctx, EventLoggedIn, LoggedInEvent{Identity: ident, Session: sess}, res)

	return res
}

// Logout deletes the session named by the caller's session context.
// With no ambient session the operation succeeds without touching any
// store; a session that is already gone also counts as success.
func (s *Service) Logout(ctx context.Context, sctx SessionContext) *Result {
	return s.observed("logout", s.logout(ctx, sctx))
}

func (s *Service) logout(ctx context.Context, sctx SessionContext) *Result {
	if !sctx.Present() {
		return success(nil)
	}

	sess, err := s.sessions.FindByToken(ctx, sctx.IdentityID, HashToken(sctx.Token))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return success(nil)
		}
		return failure(FailurePersistence, "failed to resolve session")
	}

	if err := s.sessions.Delete(ctx, sess.ID); err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Error("session delete failed", "session_id", sess.ID, "error", err)
			return failure(FailurePersistence, "failed to end session")
		}
	}

	res := success(nil)
	s.publish(ctx, EventLoggedOut, LoggedOutEvent{Session: sess}, res)

	return res
}

// ResetCredential sets a new password for an identity without
// requiring the old one (administrative / forgotten-password flow).
// Creates the basic credential if none exists yet.
func (s *Service) ResetCredential(ctx context.Context, p Params) *Result {
	return s.observed("reset_credential", s.resetCredential(ctx, p))
}

func (s *Service) resetCredential(ctx context.Context, p Params) *Result {
	if !p.Has(ParamID) || !p.Has(ParamNewPassword) || !p.Has(ParamPasswordConfirmation) {
		return failure(FailureValidation, "missing parameters for credential reset")
	}

	newPassword := p.Get(ParamNewPassword, "")
	if newPassword != p.Get(ParamPasswordConfirmation, "") {
		return failure(FailureValidation, "password and confirmation do not match")
	}

	ident, err := s.identities.GetByID(ctx, p.GetInt(ParamID, 0))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return failure(FailureNotFound, "no such account")
		}
		return failure(FailurePersistence, "failed to resolve account")
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return failure(FailureValidation, "invalid password")
	}

	cred, err := s.credentials.Get(ctx, ident.ID, ProviderBasic)
	switch {
	case errors.Is(err, ErrNotFound):
		cred = &Credential{
			IdentityID: ident.ID,
			Provider:   ProviderBasic,
			SecretHash: hash,
			UpdatedAt:  time.Now().UTC(),
		}
		err = s.credentials.Create(ctx, cred)
	case err == nil:
		cred.SecretHash = hash
		cred.UpdatedAt = time.Now().UTC()
		err = s.credentials.Update(ctx, cred)
	}
	if err != nil {
		s.logger.Error("credential reset failed", "identity_id", ident.ID, "error", err)
		return failure(FailurePersistence, "failed to reset credential")
	}

	res := success(IdentityPayload{Identity: ident})
	s.publish(ctx, EventCredentialReset, CredentialResetEvent{Identity: ident}, res)

	return res
}

// UpdateIdentity applies profile and password changes. A well-formed
// new email replaces the old one and resets the confirmation flag
// unless the flag is explicitly re-supplied; a malformed or absent
// email leaves the stored value untouched. An embedded password change
// requires the current password, except when a distinct administrator
// acts on someone else's behalf.
func (s *Service) UpdateIdentity(ctx context.Context, p Params, sctx SessionContext) *Result {
	return s.observed("update_identity", s.updateIdentity(ctx, p, sctx))
}

func (s *Service) updateIdentity(ctx context.Context, p Params, sctx SessionContext) *Result {
	if !p.Has(ParamID) {
		return failure(FailureValidation, "missing account identifier")
	}

	targetID := p.GetInt(ParamID, 0)
	current, err := s.identities.GetByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return failure(FailureNotFound, "no such account")
		}
		return failure(FailurePersistence, "failed to resolve account")
	}

	updated := *current

	if email := p.Get(ParamEmail, ""); email != "" && ValidEmail(email) {
		updated.Email = email
	}
	if updated.Email != current.Email {
		updated.EmailConfirmed = false
	}
	if p.Has(ParamEmailConfirmed) {
		updated.EmailConfirmed = p.GetBool(ParamEmailConfirmed, updated.EmailConfirmed)
	}
	if name := p.Get(ParamDisplayName, ""); name != "" {
		updated.DisplayName = name
	}

	if p.Has(ParamNewPassword) || p.Has(ParamPasswordConfirmation) || p.Has(ParamCurrentPassword) {
		if fail := s.changePassword(ctx, &updated, p, sctx); fail != nil {
			return fail
		}
	}

	if err := s.identities.Update(ctx, &updated); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return failure(FailureDuplicate, "an account with that email already exists")
		}
		s.logger.Error("identity update failed", "identity_id", updated.ID, "error", err)
		return failure(FailurePersistence, "failed to update account")
	}

	res := success(IdentityPayload{Identity: &updated})
	s.publish(ctx, EventUpdated, UpdatedEvent{Identity: &updated}, res)

	return res
}

// changePassword handles the password branch of UpdateIdentity.
// Returns a failure result, or nil when the change was applied.
func (s *Service) changePassword(ctx context.Context, ident *Identity, p Params, sctx SessionContext) *Result {
	newPassword := p.Get(ParamNewPassword, "")
	if newPassword == "" || newPassword != p.Get(ParamPasswordConfirmation, "") {
		return failure(FailureValidation, "invalid password information supplied")
	}

	cred, err := s.credentials.Get(ctx, ident.ID, ProviderBasic)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return failure(FailureValidation, "invalid password information supplied")
		}
		return failure(FailurePersistence, "failed to resolve credential")
	}

	// A distinct administrator updating someone else's account skips
	// the current-password check.
	adminOverride := false
	if sctx.IdentityID > 0 && sctx.IdentityID != ident.ID {
		isAdmin, err := s.roles.HasRole(ctx, sctx.IdentityID, RoleAdministrator, GlobalScope)
		if err != nil {
			s.logger.Error("role check failed", "actor_id", sctx.IdentityID, "error", err)
			return failure(FailurePersistence, "failed to verify permissions")
		}
		adminOverride = isAdmin
	}

	if !adminOverride {
		valid, err := s.hasher.Verify(p.Get(ParamCurrentPassword, ""), cred.SecretHash)
		if err != nil || !valid {
			return failure(FailureAuthentication, "invalid password information supplied")
		}
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return failure(FailureValidation, "invalid password information supplied")
	}

	cred.SecretHash = hash
	cred.UpdatedAt = time.Now().UTC()
	if err := s.credentials.Update(ctx, cred); err != nil {
		s.logger.Error("credential update failed", "identity_id", ident.ID, "error", err)
		return failure(FailurePersistence, "failed to update credential")
	}

	return nil
}

// IssueToken creates a purpose-tagged one-off token for an identity
// and returns the plaintext value for out-of-band delivery. Only the
// hash is stored.
func (s *Service) IssueToken(ctx context.Context, identityID int64, purpose TokenPurpose) (string, error) {
	if _, err := s.identities.GetByID(ctx, identityID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", oops.Code("TOKEN_IDENTITY_UNKNOWN").Wrap(ErrNotFound)
		}
		return "", oops.Code("TOKEN_ISSUE_FAILED").With("operation", "resolve identity").Wrap(err)
	}

	token, hash, err := GenerateToken()
	if err != nil {
		return "", oops.Code("TOKEN_ISSUE_FAILED").With("operation", "generate token").Wrap(err)
	}

	tok := &Token{
		IdentityID: identityID,
		Purpose:    purpose,
		TokenHash:  hash,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.tokens.Create(ctx, tok); err != nil {
		return "", oops.Code("TOKEN_ISSUE_FAILED").With("operation", "persist token").Wrap(err)
	}

	return token, nil
}

// ConsumeToken validates and deletes a one-off token. Returns
// ErrNotFound (wrapped) when no matching token exists.
func (s *Service) ConsumeToken(ctx context.Context, identityID int64, purpose TokenPurpose, token string) error {
	if token == "" {
		return oops.Code("TOKEN_EMPTY").Errorf("token cannot be empty")
	}

	hash := HashToken(token)
	tok, err := s.tokens.Find(ctx, identityID, purpose, hash)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return oops.Code("TOKEN_INVALID").Wrap(err)
		}
		return oops.Code("TOKEN_CONSUME_FAILED").With("operation", "find token").Wrap(err)
	}

	if err := s.tokens.Delete(ctx, tok.IdentityID, tok.Purpose, tok.TokenHash); err != nil {
		return oops.Code("TOKEN_CONSUME_FAILED").With("operation", "delete token").Wrap(err)
	}

	return nil
}
