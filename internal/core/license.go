package core

import (
	"context"
	"fmt"

	"github.com/guidepost/launchpad/pkg/errors"
	"github.com/guidepost/launchpad/pkg/structs"
)

// checkLicense tells whether a unit of work may run under the given
// license right now. It never mutates anything.
func (s *Service) checkLicense(l *structs.License) error {
	if l == nil {
		return fmt.Errorf("%w no license attached", errors.ErrForbidden)
	}
	if l.ExpiresAt > 0 && timeNow() > l.ExpiresAt {
		return fmt.Errorf("%w license %s expired", errors.ErrForbidden, l.ID)
	}
	switch l.Model {
	case structs.PricingQuota:
		if l.Remaining() <= 0 {
			return fmt.Errorf("%w license %s quota exhausted", errors.ErrForbidden, l.ID)
		}
	case structs.PricingConcurrent:
		return fmt.Errorf("%w concurrent licensing", errors.ErrNotImplemented)
	default:
		return fmt.Errorf("%w unknown pricing model %s", errors.ErrValidation, l.Model)
	}
	return nil
}

// consumeLicense re-checks and then commits exactly one unit. The
// re-check and commit run under a per-license lock, and the commit
// itself is conditional in the store, so two racing consumers can never
// both take the last unit.
func (s *Service) consumeLicense(ctx context.Context, id string) error {
	unlock := s.licenseLocks.Lock(id)
	defer unlock()

	lic, err := s.store.License(ctx, id)
	if err != nil {
		return err
	}
	if err := s.checkLicense(lic); err != nil {
		return err
	}

	ok, err := s.store.ConsumeLicenseUnit(ctx, id)
	if err != nil {
		return fmt.Errorf("%w consuming unit of license %s: %v", errors.ErrInternal, id, err)
	}
	if !ok {
		return fmt.Errorf("%w license %s quota exhausted", errors.ErrForbidden, id)
	}
	return nil
}
