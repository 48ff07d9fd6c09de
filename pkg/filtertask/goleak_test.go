// SPDX-License-Identifier: MIT

package filtertask

import (
	"testing"

	"go.uber.org/goleak"
)

// The worker goroutine must always terminate, success, failure, or
// abort alike.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
