package asset

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidInput indicates an empty asset or user identifier.
	ErrInvalidInput = errors.New("invalid asset input")
	// ErrAssetNotFound indicates the asset doesn't exist.
	ErrAssetNotFound = errors.New("asset not found")
	// ErrContention indicates concurrent writers kept winning the
	// compare-and-swap. The call is safe to retry.
	ErrContention = errors.New("asset modified concurrently, retry")
)

// Steps of a claim operation, in execution order.
const (
	StepLoadAsset     = "load_asset"
	StepWriteAsset    = "write_asset"
	StepWriteConflict = "write_conflict"
	StepLinkAccount   = "link_account"
)

// StepError reports a store failure part-way through a multi-step claim
// operation. Completed lists the writes that were applied before Step failed.
// Every step is idempotent, so the operation can be re-invoked.
type StepError struct {
	Step      string
	Completed []string
	Err       error
}

func (e *StepError) Error() string {
	if len(e.Completed) == 0 {
		return fmt.Sprintf("%s: %v", e.Step, e.Err)
	}
	return fmt.Sprintf("%s (completed: %s): %v", e.Step, strings.Join(e.Completed, ", "), e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
