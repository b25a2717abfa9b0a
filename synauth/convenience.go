package synauth

import (
	"context"
	"fmt"
)

// The Request* helpers below shape arguments for the common action
// categories and submit through RequestAction. Each fixes the category
// and a default risk level; the final variadic accepts functions that
// tweak the params before submission (risk overrides, metadata, expiry).

// RequestEmail asks to send an email. Category communication, risk low.
func (c *Client) RequestEmail(ctx context.Context, recipient, subject, preview string, overrides ...func(*ActionParams)) (*Action, error) {
	p := ActionParams{
		Type:        ActionCommunication,
		Title:       "Send email: " + subject,
		Description: preview,
		Recipient:   recipient,
		RiskLevel:   RiskLow,
	}
	return c.requestWith(ctx, p, overrides)
}

// RequestPurchase asks to spend money. Category purchase, risk medium.
func (c *Client) RequestPurchase(ctx context.Context, amount float64, merchant, description string, overrides ...func(*ActionParams)) (*Action, error) {
	p := ActionParams{
		Type:        ActionPurchase,
		Title:       "Purchase from " + merchant,
		Description: description,
		Amount:      &amount,
		Recipient:   merchant,
		RiskLevel:   RiskMedium,
	}
	return c.requestWith(ctx, p, overrides)
}

// RequestBooking asks to book a meeting or reservation. Category
// scheduling, risk low. Amount may be nil for free bookings.
func (c *Client) RequestBooking(ctx context.Context, title, description string, amount *float64, overrides ...func(*ActionParams)) (*Action, error) {
	p := ActionParams{
		Type:        ActionScheduling,
		Title:       title,
		Description: description,
		Amount:      amount,
		RiskLevel:   RiskLow,
	}
	return c.requestWith(ctx, p, overrides)
}

// RequestPost asks to publish to a social platform. Category social,
// risk medium.
func (c *Client) RequestPost(ctx context.Context, platform, contentPreview string, overrides ...func(*ActionParams)) (*Action, error) {
	p := ActionParams{
		Type:        ActionSocial,
		Title:       "Post to " + platform,
		Description: contentPreview,
		RiskLevel:   RiskMedium,
	}
	return c.requestWith(ctx, p, overrides)
}

// RequestDataAccess asks to read a protected resource. Category
// data_access, risk high.
func (c *Client) RequestDataAccess(ctx context.Context, resource, reason string, overrides ...func(*ActionParams)) (*Action, error) {
	p := ActionParams{
		Type:        ActionDataAccess,
		Title:       fmt.Sprintf("Access: %s", resource),
		Description: reason,
		RiskLevel:   RiskHigh,
	}
	return c.requestWith(ctx, p, overrides)
}

// RequestContract asks to sign something legally binding. Category legal,
// risk critical, and irreversible unless explicitly overridden.
func (c *Client) RequestContract(ctx context.Context, title, description string, overrides ...func(*ActionParams)) (*Action, error) {
	reversible := false
	p := ActionParams{
		Type:        ActionLegal,
		Title:       title,
		Description: description,
		Reversible:  &reversible,
		RiskLevel:   RiskCritical,
	}
	return c.requestWith(ctx, p, overrides)
}

func (c *Client) requestWith(ctx context.Context, p ActionParams, overrides []func(*ActionParams)) (*Action, error) {
	for _, o := range overrides {
		o(&p)
	}
	return c.RequestAction(ctx, p)
}
