package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

const defaultBaseURL = "https://identitytoolkit.googleapis.com"

// HostedProvider talks to the hosted identity platform's phone-auth REST API.
// It holds no credential material beyond the project API key; codes, tokens
// and identity records all live on the platform side.
type HostedProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
	stateNotifier
}

// NewHostedProvider builds a provider against the platform API. baseURL may
// be empty to use the public endpoint.
func NewHostedProvider(baseURL, apiKey string) *HostedProvider {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &HostedProvider{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type platformError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (p *HostedProvider) post(ctx context.Context, endpoint string, req, resp any) error {
	body, err := json.Marshal(req)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/v1/%s?key=%s", p.baseURL, endpoint, p.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := p.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("platform request: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		var perr platformError
		_ = json.NewDecoder(httpResp.Body).Decode(&perr)
		return mapPlatformError(httpResp.StatusCode, perr.Error.Message)
	}

	if resp == nil {
		return nil
	}
	return json.NewDecoder(httpResp.Body).Decode(resp)
}

func mapPlatformError(status int, message string) error {
	switch message {
	case "INVALID_PHONE_NUMBER", "MISSING_PHONE_NUMBER":
		return ErrInvalidPhone
	case "CAPTCHA_CHECK_FAILED", "MISSING_RECAPTCHA_TOKEN":
		return ErrBadProof
	case "INVALID_CODE", "MISSING_CODE":
		return ErrCodeMismatch
	case "SESSION_EXPIRED", "INVALID_SESSION_INFO":
		return ErrChallengeExpired
	case "INVALID_ID_TOKEN", "TOKEN_EXPIRED", "CREDENTIAL_TOO_OLD_LOGIN_AGAIN":
		return ErrInvalidToken
	case "USER_NOT_FOUND":
		return ErrNotFound
	default:
		return fmt.Errorf("platform error: status %d: %s", status, message)
	}
}

// InitiateChallenge requests a one-time code for the number.
func (p *HostedProvider) InitiateChallenge(ctx context.Context, phoneNumber string, proof Proof) (Challenge, error) {
	req := struct {
		PhoneNumber    string `json:"phoneNumber"`
		RecaptchaToken string `json:"recaptchaToken"`
	}{PhoneNumber: phoneNumber, RecaptchaToken: string(proof)}

	var resp struct {
		SessionInfo string `json:"sessionInfo"`
	}
	if err := p.post(ctx, "accounts:sendVerificationCode", req, &resp); err != nil {
		return Challenge{}, err
	}
	return Challenge{Handle: resp.SessionInfo}, nil
}

// Confirm redeems the challenge and returns the authenticated session.
func (p *HostedProvider) Confirm(ctx context.Context, ch Challenge, code string) (Session, error) {
	req := struct {
		SessionInfo string `json:"sessionInfo"`
		Code        string `json:"code"`
	}{SessionInfo: ch.Handle, Code: code}

	var resp struct {
		IDToken     string `json:"idToken"`
		LocalID     string `json:"localId"`
		PhoneNumber string `json:"phoneNumber"`
	}
	if err := p.post(ctx, "accounts:signInWithPhoneNumber", req, &resp); err != nil {
		return Session{}, err
	}

	sess := Session{Token: resp.IDToken}
	ident, err := p.Lookup(ctx, resp.IDToken)
	if err != nil {
		// The sign-in itself succeeded. Fall back to what the response carried.
		ident = Identity{ID: resp.LocalID, PhoneNumber: resp.PhoneNumber}
	}
	sess.Identity = ident

	p.publish(&sess.Identity)
	return sess, nil
}

// Reauthenticate redeems a fresh challenge on behalf of an existing session.
func (p *HostedProvider) Reauthenticate(ctx context.Context, sess Session, ch Challenge, code string) (Session, error) {
	fresh, err := p.Confirm(ctx, ch, code)
	if err != nil {
		return Session{}, err
	}
	if fresh.Identity.ID != sess.Identity.ID {
		return Session{}, ErrInvalidToken
	}
	return fresh, nil
}

// Lookup resolves an opaque token to its identity.
func (p *HostedProvider) Lookup(ctx context.Context, token string) (Identity, error) {
	req := struct {
		IDToken string `json:"idToken"`
	}{IDToken: token}

	var resp struct {
		Users []struct {
			LocalID     string `json:"localId"`
			PhoneNumber string `json:"phoneNumber"`
			CreatedAt   string `json:"createdAt"`
			LastLoginAt string `json:"lastLoginAt"`
		} `json:"users"`
	}
	if err := p.post(ctx, "accounts:lookup", req, &resp); err != nil {
		return Identity{}, err
	}
	if len(resp.Users) == 0 {
		return Identity{}, ErrNotFound
	}

	u := resp.Users[0]
	return Identity{
		ID:          u.LocalID,
		PhoneNumber: u.PhoneNumber,
		CreatedAt:   millisToTime(u.CreatedAt),
		LastLoginAt: millisToTime(u.LastLoginAt),
	}, nil
}

// SignOut discards the session locally and publishes the signed-out state.
// Platform tokens are bearer-style; there is nothing to revoke remotely.
func (p *HostedProvider) SignOut(_ context.Context, _ Session) error {
	p.publish(nil)
	return nil
}

// DeleteIdentity removes the identity record from the platform.
func (p *HostedProvider) DeleteIdentity(ctx context.Context, sess Session) error {
	req := struct {
		IDToken string `json:"idToken"`
	}{IDToken: sess.Token}

	if err := p.post(ctx, "accounts:delete", req, nil); err != nil {
		return err
	}
	p.publish(nil)
	return nil
}

func millisToTime(s string) time.Time {
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil || ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
