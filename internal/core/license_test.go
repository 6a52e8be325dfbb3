package core

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/guidepost/launchpad/pkg/errors"
	"github.com/guidepost/launchpad/pkg/store"
	"github.com/guidepost/launchpad/pkg/structs"
)

func TestCheckLicense(t *testing.T) {
	cases := []struct {
		Name    string
		License *structs.License
		Expect  error
	}{
		{"NoLicense", nil, errors.ErrForbidden},
		{"Expired", &structs.License{ID: "l", ExpiresAt: 999999, Model: structs.PricingQuota, Limit: 10}, errors.ErrForbidden},
		{"QuotaHeadroom", &structs.License{ID: "l", Model: structs.PricingQuota, Limit: 10, Used: 9}, nil},
		{"QuotaExhausted", &structs.License{ID: "l", Model: structs.PricingQuota, Limit: 10, Used: 10}, errors.ErrForbidden},
		{"NoExpirySetNeverLapses", &structs.License{ID: "l", Model: structs.PricingQuota, Limit: 1}, nil},
		{"FutureExpiryPasses", &structs.License{ID: "l", ExpiresAt: 2000000, Model: structs.PricingQuota, Limit: 1}, nil},
		{"ConcurrentNotImplemented", &structs.License{ID: "l", Model: structs.PricingConcurrent, Limit: 5}, errors.ErrNotImplemented},
		{"UnknownModel", &structs.License{ID: "l", Model: "PAYG", Limit: 5}, errors.ErrValidation},
	}

	for _, c := range cases {
		t.Run(c.Name, func(t *testing.T) {
			svc := newTestService(t, store.NewMemory())

			err := svc.checkLicense(c.License)

			if c.Expect == nil {
				assert.Nil(t, err)
			} else {
				assert.ErrorIs(t, err, c.Expect)
			}
		})
	}
}

func TestConsumeLicense(t *testing.T) {
	m := store.NewMemory()
	m.SetLicense(&structs.License{ID: "lic-1", Model: structs.PricingQuota, Limit: 2})
	svc := newTestService(t, m)
	ctx := context.Background()

	assert.Nil(t, svc.consumeLicense(ctx, "lic-1"))
	assert.Nil(t, svc.consumeLicense(ctx, "lic-1"))

	err := svc.consumeLicense(ctx, "lic-1")

	assert.ErrorIs(t, err, errors.ErrForbidden)
	lic, _ := m.License(ctx, "lic-1")
	assert.Equal(t, int64(2), lic.Used)
}

func TestConsumeLicenseUnknown(t *testing.T) {
	svc := newTestService(t, store.NewMemory())

	err := svc.consumeLicense(context.Background(), "nope")

	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestConsumeLicenseConcurrently(t *testing.T) {
	// many racing consumers may win exactly Limit units between them
	m := store.NewMemory()
	m.SetLicense(&structs.License{ID: "lic-1", Model: structs.PricingQuota, Limit: 5})
	svc := newTestService(t, m)

	var wins int64
	mu := sync.Mutex{}
	wg := sync.WaitGroup{}
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if svc.consumeLicense(context.Background(), "lic-1") == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(5), wins)
	lic, _ := m.License(context.Background(), "lic-1")
	assert.Equal(t, int64(5), lic.Used)
}
