package structs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToLoginType(t *testing.T) {
	cases := []struct {
		Name   string
		Given  string
		Expect LoginType
	}{
		{"Undefined", "face", ""},
		{"None", "none", LoginNone},
		{"PIN", "PIN", LoginPIN},
		{"OTP", "Otp", LoginOTP},
		{"Google", "GOOGLE", LoginGoogle},
	}

	for _, c := range cases {
		t.Run(c.Name, func(t *testing.T) {
			assert.Equal(t, c.Expect, ToLoginType(c.Given))
		})
	}
}

func TestToPricingModel(t *testing.T) {
	cases := []struct {
		Name   string
		Given  string
		Expect PricingModel
	}{
		{"Undefined", "flatrate", ""},
		{"Quota", "quota", PricingQuota},
		{"Concurrent", "Concurrent", PricingConcurrent},
	}

	for _, c := range cases {
		t.Run(c.Name, func(t *testing.T) {
			assert.Equal(t, c.Expect, ToPricingModel(c.Given))
		})
	}
}

func TestToChannel(t *testing.T) {
	cases := []struct {
		Name   string
		Given  string
		Expect Channel
	}{
		{"Undefined", "pigeon", ""},
		{"Email", "email", ChannelEmail},
		{"SMS", "sms", ChannelSMS},
		{"WhatsApp", "WhatsApp", ChannelWhatsApp},
	}

	for _, c := range cases {
		t.Run(c.Name, func(t *testing.T) {
			assert.Equal(t, c.Expect, ToChannel(c.Given))
		})
	}
}

func TestLicenseRemaining(t *testing.T) {
	assert.Equal(t, int64(3), (&License{Limit: 5, Used: 2}).Remaining())
	assert.Equal(t, int64(0), (&License{Limit: 5, Used: 5}).Remaining())
}

func TestNotifyPolicyWants(t *testing.T) {
	n := &NotifyPolicy{
		Connect:   []Channel{ChannelEmail},
		LoginCode: []Channel{ChannelSMS},
	}

	assert.True(t, n.WantsConnect(ChannelEmail))
	assert.False(t, n.WantsConnect(ChannelSMS))
	assert.True(t, n.WantsLoginCode(ChannelSMS))
	assert.False(t, n.WantsLoginCode(ChannelWhatsApp))
}
