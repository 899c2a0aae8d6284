// Package id generates the identifiers used to correlate contract runs
// and scenario executions in logs and reports.
package id

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/google/uuid"
)

// Run returns a UUID v4 identifying one harness run.
func Run() string {
	return uuid.NewString()
}

// Short returns a 16-character hex ID for per-scenario log lines.
func Short() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
