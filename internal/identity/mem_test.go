// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keyward Contributors

package identity

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/keyward/keyward/internal/eventbus"
)

// In-memory store fakes. Each fake exposes error fields that, when
// set, are returned by the corresponding method so tests can force
// persistence failures at specific steps.

type memIdentities struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]*Identity

	getErr    error
	createErr error
	updateErr error
	deleteErr error

	deletes int
}

func newMemIdentities() *memIdentities {
	return &memIdentities{rows: make(map[int64]*Identity)}
}

func (m *memIdentities) GetByID(_ context.Context, id int64) (*Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	row, ok := m.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *row
	return &cp, nil
}

func (m *memIdentities) GetByEmail(_ context.Context, email string) (*Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	for _, row := range m.rows {
		if strings.EqualFold(row.Email, email) {
			cp := *row
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memIdentities) Create(_ context.Context, ident *Identity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	for _, row := range m.rows {
		if strings.EqualFold(row.Email, ident.Email) {
			return ErrDuplicate
		}
	}
	m.nextID++
	ident.ID = m.nextID
	cp := *ident
	m.rows[ident.ID] = &cp
	return nil
}

func (m *memIdentities) Update(_ context.Context, ident *Identity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	if _, ok := m.rows[ident.ID]; !ok {
		return ErrNotFound
	}
	for id, row := range m.rows {
		if id != ident.ID && strings.EqualFold(row.Email, ident.Email) {
			return ErrDuplicate
		}
	}
	cp := *ident
	m.rows[ident.ID] = &cp
	return nil
}

func (m *memIdentities) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes++
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, ok := m.rows[id]; !ok {
		return ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *memIdentities) List(_ context.Context, limit, offset int) ([]*Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]int64, 0, len(m.rows))
	for id := range m.rows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var out []*Identity
	for i, id := range ids {
		if i < offset {
			continue
		}
		if limit > 0 && len(out) == limit {
			break
		}
		cp := *m.rows[id]
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memIdentities) Count(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.rows)), nil
}

type credKey struct {
	identityID int64
	provider   Provider
}

type memCredentials struct {
	mu   sync.Mutex
	rows map[credKey]*Credential

	getErr    error
	createErr error
	updateErr error
	deleteErr error
}

func newMemCredentials() *memCredentials {
	return &memCredentials{rows: make(map[credKey]*Credential)}
}

func (m *memCredentials) Get(_ context.Context, identityID int64, provider Provider) (*Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	row, ok := m.rows[credKey{identityID, provider}]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *row
	return &cp, nil
}

func (m *memCredentials) Create(_ context.Context, cred *Credential) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	key := credKey{cred.IdentityID, cred.Provider}
	if _, ok := m.rows[key]; ok {
		return ErrDuplicate
	}
	cp := *cred
	m.rows[key] = &cp
	return nil
}

func (m *memCredentials) Update(_ context.Context, cred *Credential) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	key := credKey{cred.IdentityID, cred.Provider}
	if _, ok := m.rows[key]; !ok {
		return ErrNotFound
	}
	cp := *cred
	m.rows[key] = &cp
	return nil
}

func (m *memCredentials) DeleteByIdentity(_ context.Context, identityID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	for key := range m.rows {
		if key.identityID == identityID {
			delete(m.rows, key)
		}
	}
	return nil
}

type memSessions struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]*Session

	createErr error
	findErr   error
	deleteErr error

	finds   int
	deletes int
}

func newMemSessions() *memSessions {
	return &memSessions{rows: make(map[int64]*Session)}
}

func (m *memSessions) Create(_ context.Context, sess *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	for _, row := range m.rows {
		if row.TokenHash == sess.TokenHash {
			return ErrDuplicate
		}
	}
	m.nextID++
	sess.ID = m.nextID
	cp := *sess
	m.rows[sess.ID] = &cp
	return nil
}

func (m *memSessions) GetByID(_ context.Context, id int64) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *row
	return &cp, nil
}

func (m *memSessions) FindByToken(_ context.Context, identityID int64, tokenHash string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.finds++
	if m.findErr != nil {
		return nil, m.findErr
	}
	for _, row := range m.rows {
		if row.IdentityID == identityID && row.TokenHash == tokenHash {
			cp := *row
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memSessions) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes++
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, ok := m.rows[id]; !ok {
		return ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *memSessions) DeleteByIdentity(_ context.Context, identityID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, row := range m.rows {
		if row.IdentityID == identityID {
			delete(m.rows, id)
		}
	}
	return nil
}

type tokenKey struct {
	identityID int64
	purpose    TokenPurpose
	hash       string
}

type memTokens struct {
	mu   sync.Mutex
	rows map[tokenKey]*Token

	createErr error
	findErr   error
	deleteErr error
}

func newMemTokens() *memTokens {
	return &memTokens{rows: make(map[tokenKey]*Token)}
}

func (m *memTokens) Create(_ context.Context, tok *Token) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	key := tokenKey{tok.IdentityID, tok.Purpose, tok.TokenHash}
	if _, ok := m.rows[key]; ok {
		return ErrDuplicate
	}
	cp := *tok
	m.rows[key] = &cp
	return nil
}

func (m *memTokens) Find(_ context.Context, identityID int64, purpose TokenPurpose, tokenHash string) (*Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	row, ok := m.rows[tokenKey{identityID, purpose, tokenHash}]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *row
	return &cp, nil
}

func (m *memTokens) Delete(_ context.Context, identityID int64, purpose TokenPurpose, tokenHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	key := tokenKey{identityID, purpose, tokenHash}
	if _, ok := m.rows[key]; !ok {
		return ErrNotFound
	}
	delete(m.rows, key)
	return nil
}

func (m *memTokens) DeleteByIdentity(_ context.Context, identityID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.rows {
		if key.identityID == identityID {
			delete(m.rows, key)
		}
	}
	return nil
}

type memRoles struct {
	mu          sync.Mutex
	nextID      int64
	roles       map[string]*Role
	assignments []*RoleAssignment

	hasRoleErr error
	listErr    error
	assignErr  error
	deleteErr  error
}

func newMemRoles() *memRoles {
	return &memRoles{roles: make(map[string]*Role)}
}

func (m *memRoles) GetRole(_ context.Context, name string) (*Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	role, ok := m.roles[name]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *role
	return &cp, nil
}

func (m *memRoles) EnsureRole(_ context.Context, name string) (*Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if role, ok := m.roles[name]; ok {
		cp := *role
		return &cp, nil
	}
	m.nextID++
	role := &Role{ID: m.nextID, Name: name}
	m.roles[name] = role
	cp := *role
	return &cp, nil
}

func (m *memRoles) ListRoles(_ context.Context) ([]*Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.roles))
	for name := range m.roles {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]*Role, 0, len(names))
	for _, name := range names {
		cp := *m.roles[name]
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memRoles) Assign(_ context.Context, identityID, roleID, scope int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.assignErr != nil {
		return m.assignErr
	}
	for _, a := range m.assignments {
		if a.IdentityID == identityID && a.RoleID == roleID && a.Scope == scope {
			return ErrDuplicate
		}
	}
	m.assignments = append(m.assignments, &RoleAssignment{
		IdentityID: identityID,
		RoleID:     roleID,
		Scope:      scope,
	})
	return nil
}

func (m *memRoles) HasRole(_ context.Context, identityID int64, name string, scope int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.hasRoleErr != nil {
		return false, m.hasRoleErr
	}
	role, ok := m.roles[name]
	if !ok {
		return false, nil
	}
	for _, a := range m.assignments {
		if a.IdentityID == identityID && a.RoleID == role.ID && a.Scope == scope {
			return true, nil
		}
	}
	return false, nil
}

func (m *memRoles) ListAssignments(_ context.Context, identityID int64) ([]*RoleAssignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []*RoleAssignment
	for _, a := range m.assignments {
		if a.IdentityID == identityID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memRoles) DeleteAssignmentsForIdentity(_ context.Context, identityID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	kept := m.assignments[:0]
	for _, a := range m.assignments {
		if a.IdentityID != identityID {
			kept = append(kept, a)
		}
	}
	m.assignments = kept
	return nil
}

// testHashPolicy keeps argon2id cheap enough for unit tests.
var testHashPolicy = HashPolicy{Memory: 1024, Time: 1, Threads: 1}

// fixture bundles a Service with its fakes for inspection.
type fixture struct {
	svc         *Service
	identities  *memIdentities
	credentials *memCredentials
	sessions    *memSessions
	tokens      *memTokens
	roles       *memRoles
	bus         *eventbus.Bus
}

// seedAccount registers a confirmed account directly through the fakes
// and returns its id.
func (f *fixture) seedAccount(t testingT, email, password string, confirmed bool) int64 {
	t.Helper()

	hasher := NewArgon2idHasher(testHashPolicy)
	hash, err := hasher.Hash(password)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	ident := &Identity{
		Email:          email,
		EmailConfirmed: confirmed,
		DisplayName:    "Test Account",
		DateJoined:     time.Now().UTC(),
	}
	if err := f.identities.Create(context.Background(), ident); err != nil {
		t.Fatalf("create identity: %v", err)
	}
	cred := &Credential{
		IdentityID: ident.ID,
		Provider:   ProviderBasic,
		SecretHash: hash,
		UpdatedAt:  time.Now().UTC(),
	}
	if err := f.credentials.Create(context.Background(), cred); err != nil {
		t.Fatalf("create credential: %v", err)
	}
	return ident.ID
}

// testingT is the subset of *testing.T the fixture helpers need.
type testingT interface {
	Helper()
	Fatalf(format string, args ...any)
}

// newFixture builds a Service over fresh in-memory fakes. A fixed
// resolver replaces reverse DNS; opts mutate the config before
// construction.
func newFixture(t testingT, opts ...func(*ServiceConfig)) *fixture {
	t.Helper()

	f := &fixture{
		identities:  newMemIdentities(),
		credentials: newMemCredentials(),
		sessions:    newMemSessions(),
		tokens:      newMemTokens(),
		roles:       newMemRoles(),
		bus:         eventbus.New(),
	}

	cfg := ServiceConfig{
		Identities:  f.identities,
		Credentials: f.credentials,
		Sessions:    f.sessions,
		Tokens:      f.tokens,
		Roles:       f.roles,
		Hasher:      NewArgon2idHasher(testHashPolicy),
		Bus:         f.bus,
		Resolver: func(_ context.Context, _ string) (string, error) {
			return "client.example.com.", nil
		},
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	svc, err := NewService(cfg)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	f.svc = svc
	return f
}
