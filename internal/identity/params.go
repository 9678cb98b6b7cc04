// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keyward Contributors

package identity

import "strconv"

// Parameter keys shared by the lifecycle operations.
const (
	ParamID                   = "id"
	ParamEmail                = "email"
	ParamEmailConfirmed       = "email_confirmed"
	ParamDisplayName          = "display_name"
	ParamPassword             = "password"
	ParamCurrentPassword      = "current_password"
	ParamNewPassword          = "new_password"
	ParamPasswordConfirmation = "password_confirmation"
)

// Params is the flat, string-keyed parameter set every operation
// accepts. Callers validate and flatten their transport-specific input
// into one of these before invoking the service.
type Params map[string]string

// Has reports whether the key is present with a non-empty value.
func (p Params) Has(key string) bool {
	return p[key] != ""
}

// Get returns the value for key, or fallback when absent or empty.
func (p Params) Get(key, fallback string) string {
	if v, ok := p[key]; ok && v != "" {
		return v
	}
	return fallback
}

// GetInt returns the integer value for key, or fallback when absent
// or unparseable.
func (p Params) GetInt(key string, fallback int64) int64 {
	v, ok := p[key]
	if !ok {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

// GetBool returns the boolean value for key, or fallback when absent
// or unparseable.
func (p Params) GetBool(key string, fallback bool) bool {
	v, ok := p[key]
	if !ok {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
