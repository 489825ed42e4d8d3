package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

// RegisterRequest is the sign-up payload.
type RegisterRequest struct {
	CompanyName string `json:"company_name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
}

type loginResponse struct {
	AccessToken  string `json:"accessToken"`
	IsNewAccount bool   `json:"isNewAccount"`
}

// Account performs the login, sign-up and logout calls and records their
// outcome in the Store.
type Account struct {
	client *resty.Client
	store  *Store
}

func NewAccount(client *resty.Client, store *Store) *Account {
	return &Account{client: client, store: store}
}

// Login signs in with email and password.
func (a *Account) Login(ctx context.Context, email, password string) error {
	res, err := a.post(ctx, LoginPath, map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return err
	}
	a.store.SetAccessToken(res.AccessToken)
	a.store.SetIsNewAccount(res.IsNewAccount)
	return nil
}

// LoginWithGoogle signs in with a Google ID token.
func (a *Account) LoginWithGoogle(ctx context.Context, idToken string) error {
	res, err := a.post(ctx, GooglePath, map[string]string{"token": idToken})
	if err != nil {
		return err
	}
	a.store.SetAccessToken(res.AccessToken)
	a.store.SetIsNewAccount(res.IsNewAccount)
	return nil
}

// Register creates the company account. A fresh account is always new.
func (a *Account) Register(ctx context.Context, req RegisterRequest) error {
	res, err := a.post(ctx, RegisterPath, req)
	if err != nil {
		return err
	}
	a.store.SetAccessToken(res.AccessToken)
	a.store.SetIsNewAccount(true)
	return nil
}

// Logout tells the server to end the session and always clears local
// state, whatever the server says.
func (a *Account) Logout(ctx context.Context) {
	defer a.store.ClearAuth()

	res, err := a.client.R().SetContext(ctx).Post(LogoutPath)
	if err != nil {
		log.Warn().Err(err).Msg("logout request failed")
		return
	}
	if !res.IsSuccess() {
		log.Warn().Int("status", res.StatusCode()).Msg("logout rejected")
	}
}

func (a *Account) post(ctx context.Context, path string, body any) (*loginResponse, error) {
	result := &loginResponse{}
	failure := &messageBody{}

	res, err := a.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		SetResult(result).
		SetError(failure).
		Post(path)
	if err != nil {
		return nil, fmt.Errorf("%s failed: %w", path, err)
	}
	if !res.IsSuccess() {
		return nil, &APIError{
			Status:  res.StatusCode(),
			Method:  res.Request.Method,
			Path:    path,
			Message: failure.Message,
		}
	}
	if result.AccessToken == "" {
		return nil, errors.New("server returned no access token")
	}
	return result, nil
}
