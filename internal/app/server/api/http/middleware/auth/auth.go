package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"
)

// CredentialVerifier checks an inbound key/secret pair against the
// instance's configured access key. Implemented by the settings
// repository.
type CredentialVerifier interface {
	VerifyAccessKey(ctx context.Context, key, secret string) (bool, error)
}

// Auth guards peer-facing and admin operations with the instance access
// key. Callers send "Authorization: Bearer <key>:<secret>".
type Auth struct {
	verifier CredentialVerifier
	log      *slog.Logger
}

func New(verifier CredentialVerifier, log *slog.Logger) *Auth {
	return &Auth{
		verifier: verifier,
		log:      log.With(slog.String("component", "auth_middleware")),
	}
}

// Middleware returns the huma middleware enforcing the access key.
func (a *Auth) Middleware() func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		token := ctx.Header("Authorization")
		if len(token) < 7 || token[:7] != "Bearer " {
			a.log.Warn("missing bearer token", slog.String("path", ctx.URL().Path))
			unauthorized(ctx)
			return
		}

		key, secret, _ := strings.Cut(token[7:], ":")
		ok, err := a.verifier.VerifyAccessKey(ctx.Context(), key, secret)
		if err != nil {
			a.log.Error("credential check failed", "error", err)
			unauthorized(ctx)
			return
		}
		if !ok {
			a.log.Warn("rejected access key", slog.String("key", key))
			unauthorized(ctx)
			return
		}

		next(ctx)
	}
}

func unauthorized(ctx huma.Context) {
	ctx.SetStatus(http.StatusUnauthorized)
	ctx.SetHeader("Content-Type", "application/json")
	_ = json.NewEncoder(ctx.BodyWriter()).Encode(map[string]string{
		"error": "Unauthorized",
	})
}
