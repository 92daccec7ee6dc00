package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Typenine/Discord-Meeting-App-sub000/internal/identity"
	"github.com/bwmarrin/discordgo"
	"golang.org/x/oauth2"
)

const (
	discordAuthURL  = "https://discord.com/oauth2/authorize"
	discordTokenURL = "https://discord.com/api/oauth2/token"
	oauthTimeout    = 10 * time.Second
)

// OAuthProvider runs the Embedded App SDK authorization-code exchange and
// resolves bearer tokens through the Discord REST API.
type OAuthProvider struct {
	conf   *oauth2.Config
	client *http.Client
}

func NewOAuthProvider(clientID, clientSecret, redirectURI string) *OAuthProvider {
	return &OAuthProvider{
		conf: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURI,
			Scopes:       []string{"identify"},
			Endpoint: oauth2.Endpoint{
				AuthURL:   discordAuthURL,
				TokenURL:  discordTokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		client: &http.Client{Timeout: oauthTimeout},
	}
}

func (p *OAuthProvider) Exchange(ctx context.Context, code string) (identity.Token, error) {
	if p.conf.ClientID == "" {
		return identity.Token{}, identity.ErrDisabled
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return identity.Token{}, identity.ErrInvalidCode
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.client)
	tok, err := p.conf.Exchange(ctx, code)
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) && re.Response != nil && re.Response.StatusCode < http.StatusInternalServerError {
			return identity.Token{}, identity.ErrInvalidCode
		}
		return identity.Token{}, fmt.Errorf("exchange discord code: %w", err)
	}
	out := identity.Token{
		AccessToken: tok.AccessToken,
		TokenType:   tok.TokenType,
		ExpiresIn:   tok.ExpiresIn,
	}
	if scope, ok := tok.Extra("scope").(string); ok {
		out.Scope = scope
	}
	return out, nil
}

func (p *OAuthProvider) CurrentUser(ctx context.Context, accessToken string) (identity.User, error) {
	accessToken = strings.TrimSpace(accessToken)
	if accessToken == "" {
		return identity.User{}, identity.ErrInvalidToken
	}
	s, err := discordgo.New("Bearer " + accessToken)
	if err != nil {
		return identity.User{}, err
	}
	s.Client = p.client
	u, err := s.User("@me", discordgo.WithContext(ctx))
	if err != nil {
		if isRESTUnauthorized(err) {
			return identity.User{}, identity.ErrInvalidToken
		}
		return identity.User{}, fmt.Errorf("fetch discord user: %w", err)
	}
	return identity.User{
		ID:         u.ID,
		Username:   u.Username,
		GlobalName: u.GlobalName,
		Avatar:     u.Avatar,
	}, nil
}

// disabledProvider answers every call with identity.ErrDisabled.
type disabledProvider struct{}

func (disabledProvider) Exchange(context.Context, string) (identity.Token, error) {
	return identity.Token{}, identity.ErrDisabled
}

func (disabledProvider) CurrentUser(context.Context, string) (identity.User, error) {
	return identity.User{}, identity.ErrDisabled
}
