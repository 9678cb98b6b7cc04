// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keyward Contributors

package identity

import "errors"

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when a store-level uniqueness constraint
// rejects a write. The constraint is the authority for uniqueness;
// services do not pre-check.
var ErrDuplicate = errors.New("duplicate")
