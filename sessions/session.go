package sessions

import (
	"time"

	"github.com/jrsteele09/go-accounts-dashboard/internal/errors"
	"github.com/jrsteele09/go-accounts-dashboard/tenants"
	"golang.org/x/oauth2"
)

// TokenSet is the raw token response kept server-side for a browser session.
type TokenSet struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	IDToken      string    `json:"id_token,omitempty"`
	TokenType    string    `json:"token_type,omitempty"`
	Expiry       time.Time `json:"expiry"`
}

// FromOAuth2 copies an oauth2 token, including the id_token extra when present.
func FromOAuth2(tok *oauth2.Token) TokenSet {
	ts := TokenSet{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		Expiry:       tok.Expiry,
	}
	if idToken, ok := tok.Extra("id_token").(string); ok {
		ts.IDToken = idToken
	}
	return ts
}

// OAuth2 converts back for use with an oauth2.TokenSource.
func (t TokenSet) OAuth2() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		TokenType:    t.TokenType,
		Expiry:       t.Expiry,
	}
}

// State is everything a browser session knows about its user.
// Invariant: ActiveTenant, when set, is a member of AllTenants.
type State struct {
	ID                string           `json:"id"`
	IDTokenClaims     map[string]any   `json:"id_token_claims,omitempty"`
	AccessTokenClaims map[string]any   `json:"access_token_claims,omitempty"`
	Token             TokenSet         `json:"token"`
	AllTenants        []tenants.Tenant `json:"all_tenants"`
	ActiveTenant      *tenants.Tenant  `json:"active_tenant,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

// SetTenants replaces the authorised tenant list. The first tenant, in the
// order the platform returned them, becomes active.
func (s *State) SetTenants(list []tenants.Tenant) {
	s.AllTenants = append([]tenants.Tenant(nil), list...)
	s.ActiveTenant = nil
	if len(s.AllTenants) > 0 {
		first := s.AllTenants[0]
		s.ActiveTenant = &first
	}
}

// SetActiveTenant switches the active tenant; tenantID must be authorised.
func (s *State) SetActiveTenant(tenantID string) error {
	t, ok := tenants.Find(s.AllTenants, tenantID)
	if !ok {
		return errors.Wrapf(errors.ErrUnknownTenant, "tenant %s", tenantID)
	}
	s.ActiveTenant = &t
	return nil
}

// Clone returns a deep enough copy that repos can hand out without sharing
// slices or pointers with stored state.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	c := *s
	c.AllTenants = append([]tenants.Tenant(nil), s.AllTenants...)
	if s.ActiveTenant != nil {
		active := *s.ActiveTenant
		c.ActiveTenant = &active
	}
	c.IDTokenClaims = copyClaims(s.IDTokenClaims)
	c.AccessTokenClaims = copyClaims(s.AccessTokenClaims)
	return &c
}

func copyClaims(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
