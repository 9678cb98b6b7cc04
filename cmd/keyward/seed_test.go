// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keyward Contributors

package main

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keyward/keyward/pkg/errutil"
)

func TestSeedCommand_Properties(t *testing.T) {
	cmd := NewSeedCmd()

	assert.Equal(t, "seed", cmd.Use)
	assert.Contains(t, cmd.Short, "roles")
	assert.Contains(t, cmd.Long, "idempotent")
}

func TestSeedCommand_Flags(t *testing.T) {
	cmd := NewSeedCmd()

	for _, name := range []string{"timeout", "admin-email", "admin-password", "admin-name"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), "missing flag %q", name)
	}

	name := cmd.Flags().Lookup("admin-name")
	require.NotNil(t, name)
	assert.Equal(t, "Administrator", name.DefValue)
}

func TestSeedCommand_AdminFlagsMustPair(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{
			name: "email without password",
			args: []string{"seed", "--admin-email", "root@example.com"},
		},
		{
			name: "password without email",
			args: []string{"seed", "--admin-password", "hunter2hunter2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := NewRootCmd()
			cmd.SetOut(io.Discard)
			cmd.SetErr(io.Discard)
			cmd.SetArgs(tt.args)

			err := cmd.Execute()
			require.Error(t, err)
			errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
		})
	}
}

func TestSeedCommand_Help(t *testing.T) {
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"seed", "--help"})

	require.NoError(t, cmd.Execute())

	output := buf.String()
	assert.Contains(t, output, "--admin-email")
	assert.Contains(t, output, "--admin-password")
}
