package security

import (
	"context"

	errs "ChatHub/tools/errs"
)

// TokenVerifier is the auth collaborator handed to the gateway:
// session token in, user id out. The id is resolved once per
// connection and cached on it for the connection's lifetime.
type TokenVerifier struct {
	opts Options
}

func NewTokenVerifier(opts Options) *TokenVerifier {
	return &TokenVerifier{opts: opts}
}

func (v *TokenVerifier) Verify(_ context.Context, token string) (string, error) {
	if token == "" {
		return "", errs.ErrTokenNotExist.Wrap()
	}
	claims, err := Verify(v.opts, token)
	if err != nil {
		return "", errs.ErrTokenInvalid.WrapMsg(err.Error())
	}
	sub, err := claims.Subject()
	if err != nil {
		return "", errs.ErrTokenInvalid.WrapMsg(err.Error())
	}
	return sub, nil
}
