// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keyward Contributors

package errutil_test

import (
	"fmt"
	"testing"

	"github.com/samber/oops"

	"github.com/keyward/keyward/pkg/errutil"
)

func TestAssertErrorCode_MatchingCode(t *testing.T) {
	err := oops.Code("MY_CODE").Errorf("test error")
	// Should not fail
	errutil.AssertErrorCode(t, err, "MY_CODE")
}

func TestAssertErrorContext_MatchingKeyValue(t *testing.T) {
	err := oops.With("identity_id", "123").Errorf("test error")
	// Should not fail
	errutil.AssertErrorContext(t, err, "identity_id", "123")
}

func TestAssertErrorCode_WrappedError(t *testing.T) {
	inner := oops.Code("INNER_CODE").Errorf("inner")
	errutil.AssertErrorCode(t, fmt.Errorf("outer: %w", inner), "INNER_CODE")
}

func TestAsserts_ShareOneError(t *testing.T) {
	err := oops.Code("SEED_FAILED").With("attempts", 3).Errorf("test error")

	errutil.AssertErrorCode(t, err, "SEED_FAILED")
	errutil.AssertErrorContext(t, err, "attempts", 3)
}
