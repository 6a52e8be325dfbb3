package store

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/guidepost/launchpad/pkg/errors"
	"github.com/guidepost/launchpad/pkg/structs"
)

func TestMemoryJobRoundTrip(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	job := &structs.Job{ID: "j1", JobKey: "key1", Secret: "s", Status: structs.NEW}
	assert.Nil(t, m.CreateJob(ctx, job))

	got, err := m.Job(ctx, "j1")
	assert.Nil(t, err)
	assert.Equal(t, "key1", got.JobKey)
	assert.Equal(t, "s", got.Secret)

	byKey, err := m.JobByKey(ctx, "key1")
	assert.Nil(t, err)
	assert.Equal(t, "j1", byKey.ID)

	// mutating the returned value must not touch the stored one
	got.Status = structs.STARTED
	again, err := m.Job(ctx, "j1")
	assert.Nil(t, err)
	assert.Equal(t, structs.NEW, again.Status)
}

func TestMemoryNotFound(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	_, err := m.Job(ctx, "nope")
	assert.ErrorIs(t, err, errors.ErrNotFound)

	_, err = m.TaskByKey(ctx, "nope")
	assert.ErrorIs(t, err, errors.ErrNotFound)

	_, err = m.Workflow(ctx, "nope")
	assert.ErrorIs(t, err, errors.ErrNotFound)

	err = m.UpdateJob(ctx, &structs.Job{ID: "nope"})
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestMemoryConsumeLicenseUnit(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	m.SetLicense(&structs.License{ID: "l1", Model: structs.PricingQuota, Limit: 2, Used: 1})

	ok, err := m.ConsumeLicenseUnit(ctx, "l1")
	assert.Nil(t, err)
	assert.True(t, ok)

	// quota exhausted
	ok, err = m.ConsumeLicenseUnit(ctx, "l1")
	assert.Nil(t, err)
	assert.False(t, ok)

	lic, err := m.License(ctx, "l1")
	assert.Nil(t, err)
	assert.Equal(t, int64(2), lic.Used)
}

func TestMemoryConsumeLicenseUnitConcurrent(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	m.SetLicense(&structs.License{ID: "l1", Model: structs.PricingQuota, Limit: 10, Used: 0})

	wins := make(chan bool, 50)
	wg := sync.WaitGroup{}
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := m.ConsumeLicenseUnit(ctx, "l1")
			assert.Nil(t, err)
			wins <- ok
		}()
	}
	wg.Wait()
	close(wins)

	won := 0
	for ok := range wins {
		if ok {
			won++
		}
	}
	assert.Equal(t, 10, won)

	lic, err := m.License(ctx, "l1")
	assert.Nil(t, err)
	assert.Equal(t, int64(10), lic.Used)
}
