package provider

import (
	"context"
	"fmt"

	"github.com/aussiebroadwan/ssop/internal/ssop/domain"
	"github.com/aussiebroadwan/ssop/internal/ssop/service"
	"github.com/aussiebroadwan/ssop/pkg/cryptox"
	"github.com/aussiebroadwan/ssop/pkg/slogx"
)

// InteractionDetails returns the live interaction addressed by uid.
func (p *Provider) InteractionDetails(ctx context.Context, uid string) (domain.Interaction, error) {
	if uid == "" {
		return domain.Interaction{}, service.ErrInteractionNotFound
	}

	var in domain.Interaction
	if err := p.interactions.LoadByUID(ctx, uid, &in); err != nil {
		if notFound(err) {
			return domain.Interaction{}, service.ErrInteractionNotFound
		}
		return domain.Interaction{}, fmt.Errorf("load interaction: %w", err)
	}
	return in, nil
}

// BoundInteraction returns the interaction addressed by uid when binding is
// the value handed to the browser that started it. Any other caller gets
// service.ErrInteractionNotFound.
func (p *Provider) BoundInteraction(ctx context.Context, uid, binding string) (domain.Interaction, error) {
	in, err := p.InteractionDetails(ctx, uid)
	if err != nil {
		return domain.Interaction{}, err
	}
	if binding == "" || in.Binding == "" || !cryptox.EqualSecret(in.Binding, cryptox.FingerprintToken(binding)) {
		slogx.FromContext(ctx).Warn("interaction binding mismatch", "uid", uid)
		return domain.Interaction{}, service.ErrInteractionNotFound
	}
	return in, nil
}

// FinishLogin records the login result on the interaction.
func (p *Provider) FinishLogin(ctx context.Context, uid string, result domain.LoginResult) (string, error) {
	return p.finish(ctx, uid, domain.PromptLogin, domain.InteractionResult{Login: &result})
}

// FinishConsent records the consent result on the interaction.
func (p *Provider) FinishConsent(ctx context.Context, uid, grantID string) (string, error) {
	return p.finish(ctx, uid, domain.PromptConsent, domain.InteractionResult{
		Consent: &domain.ConsentResult{GrantID: grantID},
	})
}

func (p *Provider) finish(ctx context.Context, uid string, prompt domain.Prompt, result domain.InteractionResult) (string, error) {
	in, err := p.InteractionDetails(ctx, uid)
	if err != nil {
		return "", err
	}
	if in.Prompt != prompt {
		return "", fmt.Errorf("%w: prompt is %q", service.ErrPromptMismatch, in.Prompt)
	}

	in.Result = &result

	// A zero ttl keeps the exp stamped when the interaction was created.
	if err := p.interactions.Save(ctx, in.JTI, in, 0); err != nil {
		return "", fmt.Errorf("save interaction: %w", err)
	}
	return in.ReturnTo, nil
}

// SaveGrant persists grant under its JTI.
func (p *Provider) SaveGrant(ctx context.Context, grant domain.Grant) (string, error) {
	if grant.JTI == "" {
		return "", fmt.Errorf("%w: grant without jti", ErrInvalidRequest)
	}
	if grant.GrantID == "" {
		grant.GrantID = grant.JTI
	}
	if err := p.grants.Save(ctx, grant.JTI, grant, domain.GrantTTL); err != nil {
		return "", fmt.Errorf("save grant: %w", err)
	}
	return grant.JTI, nil
}
