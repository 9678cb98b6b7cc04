// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keyward Contributors

package store

import (
	"errors"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keyward/keyward/pkg/errutil"
)

func TestNewMigrator_InvalidURL(t *testing.T) {
	_, err := NewMigrator("invalid://url")
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "MIGRATION_INIT_FAILED")
}

// TestNewMigrator_PostgresqlScheme verifies that postgresql:// URLs are
// rewritten to pgx5:// for golang-migrate. Connection still fails against
// the nonexistent host, but the driver must be recognized.
func TestNewMigrator_PostgresqlScheme(t *testing.T) {
	_, err := NewMigrator("postgresql://localhost:5432/testdb")
	require.Error(t, err, "should fail due to connection, not URL scheme")
	errutil.AssertErrorCode(t, err, "MIGRATION_INIT_FAILED")
	assert.NotContains(t, err.Error(), "unknown driver")
}

// mockMigrate implements migrateIface for testing.
type mockMigrate struct {
	upErr          error
	downErr        error
	stepsErr       error
	versionVal     uint
	versionErr     error
	dirty          bool
	forceErr       error
	closeSourceErr error
	closeDbErr     error
}

func (m *mockMigrate) Up() error                    { return m.upErr }
func (m *mockMigrate) Down() error                  { return m.downErr }
func (m *mockMigrate) Steps(_ int) error            { return m.stepsErr }
func (m *mockMigrate) Version() (uint, bool, error) { return m.versionVal, m.dirty, m.versionErr }
func (m *mockMigrate) Force(_ int) error            { return m.forceErr }
func (m *mockMigrate) Close() (error, error)        { return m.closeSourceErr, m.closeDbErr }

func TestMigrator_Up_Success(t *testing.T) {
	m := &Migrator{m: &mockMigrate{}}
	require.NoError(t, m.Up())
}

func TestMigrator_Up_NoChange(t *testing.T) {
	m := &Migrator{m: &mockMigrate{upErr: migrate.ErrNoChange}}
	require.NoError(t, m.Up(), "ErrNoChange should be treated as success")
}

func TestMigrator_Up_Error(t *testing.T) {
	m := &Migrator{m: &mockMigrate{upErr: errors.New("database locked")}}
	err := m.Up()
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "MIGRATION_UP_FAILED")
}

func TestMigrator_Down_Success(t *testing.T) {
	m := &Migrator{m: &mockMigrate{}}
	require.NoError(t, m.Down())
}

func TestMigrator_Down_NoChange(t *testing.T) {
	m := &Migrator{m: &mockMigrate{downErr: migrate.ErrNoChange}}
	require.NoError(t, m.Down())
}

func TestMigrator_Down_Error(t *testing.T) {
	m := &Migrator{m: &mockMigrate{downErr: errors.New("constraint violation")}}
	err := m.Down()
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "MIGRATION_DOWN_FAILED")
}

func TestMigrator_Steps_Success(t *testing.T) {
	m := &Migrator{m: &mockMigrate{}}
	require.NoError(t, m.Steps(1))
}

func TestMigrator_Steps_NoChange(t *testing.T) {
	m := &Migrator{m: &mockMigrate{stepsErr: migrate.ErrNoChange}}
	require.NoError(t, m.Steps(-1))
}

func TestMigrator_Steps_Error(t *testing.T) {
	m := &Migrator{m: &mockMigrate{stepsErr: errors.New("invalid step")}}
	err := m.Steps(5)
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "MIGRATION_STEPS_FAILED")
	errutil.AssertErrorContext(t, err, "steps", 5)
}

func TestMigrator_Version_Success(t *testing.T) {
	m := &Migrator{m: &mockMigrate{versionVal: 1, dirty: false}}
	version, dirty, err := m.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)
}

func TestMigrator_Version_Dirty(t *testing.T) {
	m := &Migrator{m: &mockMigrate{versionVal: 1, dirty: true}}
	version, dirty, err := m.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.True(t, dirty)
}

func TestMigrator_Version_NilVersion(t *testing.T) {
	m := &Migrator{m: &mockMigrate{versionErr: migrate.ErrNilVersion}}
	version, dirty, err := m.Version()
	require.NoError(t, err, "ErrNilVersion should return 0, false, nil")
	assert.Equal(t, uint(0), version)
	assert.False(t, dirty)
}

func TestMigrator_Version_Error(t *testing.T) {
	m := &Migrator{m: &mockMigrate{versionErr: errors.New("connection lost")}}
	_, _, err := m.Version()
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "MIGRATION_VERSION_FAILED")
}

func TestMigrator_Force_Success(t *testing.T) {
	m := &Migrator{m: &mockMigrate{}}
	require.NoError(t, m.Force(1))
}

func TestMigrator_Force_Error(t *testing.T) {
	m := &Migrator{m: &mockMigrate{forceErr: errors.New("invalid version")}}
	err := m.Force(1)
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "MIGRATION_FORCE_FAILED")
}

func TestMigrator_Force_NegativeVersionRejected(t *testing.T) {
	m := &Migrator{m: &mockMigrate{}}
	err := m.Force(-1)
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "INVALID_VERSION")
}

func TestMigrator_Close_Success(t *testing.T) {
	m := &Migrator{m: &mockMigrate{}}
	require.NoError(t, m.Close())
}

func TestMigrator_Close_SourceError(t *testing.T) {
	m := &Migrator{m: &mockMigrate{closeSourceErr: errors.New("source close failed")}}
	err := m.Close()
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "MIGRATION_CLOSE_FAILED")
	errutil.AssertErrorContext(t, err, "component", "source")
}

func TestMigrator_Close_DatabaseError(t *testing.T) {
	m := &Migrator{m: &mockMigrate{closeDbErr: errors.New("db close failed")}}
	err := m.Close()
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "MIGRATION_CLOSE_FAILED")
	errutil.AssertErrorContext(t, err, "component", "database")
}

func TestMigrator_Close_BothErrors(t *testing.T) {
	m := &Migrator{m: &mockMigrate{
		closeSourceErr: errors.New("source close failed"),
		closeDbErr:     errors.New("db close failed"),
	}}
	err := m.Close()
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "MIGRATION_CLOSE_FAILED")
	assert.Contains(t, err.Error(), "source close failed")
	assert.Contains(t, err.Error(), "db close failed")
}

func TestMigrator_PendingMigrations_Fresh(t *testing.T) {
	m := &Migrator{m: &mockMigrate{versionErr: migrate.ErrNilVersion}}
	pending, err := m.PendingMigrations()
	require.NoError(t, err)
	assert.Equal(t, []uint{1}, pending)
}

func TestMigrator_PendingMigrations_AtLatest(t *testing.T) {
	m := &Migrator{m: &mockMigrate{versionVal: 1}}
	pending, err := m.PendingMigrations()
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestMigrator_PendingMigrations_VersionError(t *testing.T) {
	m := &Migrator{m: &mockMigrate{versionErr: errors.New("connection lost")}}
	_, err := m.PendingMigrations()
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "MIGRATION_VERSION_FAILED")
}

func TestMigrationName_Known(t *testing.T) {
	name, err := MigrationName(1)
	require.NoError(t, err)
	assert.Equal(t, "000001_identity_schema", name)
}

func TestMigrationName_Unknown(t *testing.T) {
	name, err := MigrationName(99)
	require.NoError(t, err)
	assert.Empty(t, name)
}

func TestAllMigrationVersions(t *testing.T) {
	versions, err := allMigrationVersions()
	require.NoError(t, err)
	require.NotEmpty(t, versions)
	assert.Equal(t, uint(1), versions[0])
	assert.IsIncreasing(t, versions)
}
