package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gearhub/internal/common"
)

var domainErrors = []error{
	common.ErrorNotFound,
	common.ErrorValidation,
	common.ErrorForbidden,
	common.ErrorUnauthenticated,
	common.ErrAlreadySettled,
	common.ErrInsufficientStock,
	common.ErrUpstream,
}

// storeErr passes domain errors through and marks everything else coming
// out of the store (driver errors, timeouts) as an upstream failure.
func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	for _, target := range domainErrors {
		if errors.Is(err, target) {
			return err
		}
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %v", op, common.ErrUpstream, err)
}
