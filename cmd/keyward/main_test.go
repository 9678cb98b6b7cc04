// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keyward Contributors

package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasExpectedSubcommands(t *testing.T) {
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--help"})

	require.NoError(t, cmd.Execute())

	output := buf.String()
	subcommands := []string{"migrate", "seed", "serve", "status"}
	for _, sub := range subcommands {
		assert.Contains(t, output, sub, "Help missing %q command", sub)
	}
}

func TestRootCommand_Properties(t *testing.T) {
	cmd := NewRootCmd()

	assert.Equal(t, "keyward", cmd.Use)
	assert.Contains(t, cmd.Long, "PostgreSQL")
	assert.True(t, cmd.SilenceUsage)
}

func TestRootCommand_PersistentFlags(t *testing.T) {
	cmd := NewRootCmd()

	for _, name := range []string{"config", "database.url", "log.level", "log.format", "observability.addr"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), "missing persistent flag %q", name)
	}
}

func TestRootCommand_VersionFlag(t *testing.T) {
	cmd := NewRootCmd()
	cmd.Version = "test-version"
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--version"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "test-version")
}

func TestRootCommand_NoArgs(t *testing.T) {
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{})

	// Root command with no args shows help.
	require.NoError(t, cmd.Execute())
}
