package core

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/guidepost/launchpad/pkg/notify"
	"github.com/guidepost/launchpad/pkg/structs"
)

// recipient returns the customer contact for a channel, or "" when the
// customer has none.
func recipient(c *structs.Customer, ch structs.Channel) string {
	switch ch {
	case structs.ChannelEmail:
		return c.Email
	case structs.ChannelSMS, structs.ChannelWhatsApp:
		return c.Mobile
	}
	return ""
}

// connectMessages builds the "here is your link" message for each enabled
// channel of the workflow's connect policy.
func connectMessages(job *structs.Job, policy *structs.NotifyPolicy, accessURL string) []*structs.Notification {
	body := fmt.Sprintf("Hello %s, please continue your request here: %s", job.Customer.Name, accessURL)
	msgs := []*structs.Notification{}
	for _, ch := range policy.Connect {
		msgs = append(msgs, &structs.Notification{
			Channel:   ch,
			Recipient: recipient(&job.Customer, ch),
			Subject:   "Your request is ready",
			Body:      body,
			JobID:     job.ID,
		})
	}
	return msgs
}

// loginCodeMessages builds the challenge-code message for each enabled
// channel of the workflow's login-code policy.
func loginCodeMessages(job *structs.Job, policy *structs.NotifyPolicy) []*structs.Notification {
	body := fmt.Sprintf("Hello %s, your access code is %s", job.Customer.Name, job.LoginCode)
	msgs := []*structs.Notification{}
	for _, ch := range policy.LoginCode {
		msgs = append(msgs, &structs.Notification{
			Channel:   ch,
			Recipient: recipient(&job.Customer, ch),
			Subject:   "Your access code",
			Body:      body,
			JobID:     job.ID,
		})
	}
	return msgs
}

// send fans messages out via the notifier and returns per-channel
// outcomes.
func (s *Service) send(ctx context.Context, msgs []*structs.Notification) map[structs.Channel]structs.DeliveryStatus {
	return notify.Dispatch(ctx, s.notifier, msgs)
}

// mergeDelivery folds fresh outcomes over earlier ones, keeping channels
// that were not retried.
func mergeDelivery(old, fresh map[structs.Channel]structs.DeliveryStatus) map[structs.Channel]structs.DeliveryStatus {
	if old == nil {
		return fresh
	}
	for ch, st := range fresh {
		old[ch] = st
	}
	return old
}

// deliverySummary renders outcomes as a stable "CHANNEL:STATUS" list for
// audit entries.
func deliverySummary(in map[structs.Channel]structs.DeliveryStatus) string {
	parts := []string{}
	for ch, st := range in {
		parts = append(parts, fmt.Sprintf("%s:%s", ch, st))
	}
	sort.Strings(parts)
	return strings.Join(parts, " ")
}
