// internal/config/secrets.go
//
// `vault:` reference resolution.
//
// Context
// -------
// Any string value in the merged Koanf tree of the form
//
//	vault:<mount>/<path>#<key>      e.g. vault:kv/demosite/db#password
//
// is replaced by the KV-v2 secret it names before unmarshalling.  The
// Vault client is created lazily, only when at least one reference exists,
// so local development runs without VAULT_ADDR.

package config

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	koanf "github.com/knadh/koanf/v2"
	"go.uber.org/zap"

	"github.com/yanizio/demosite/internal/vault"
)

const vaultPrefix = "vault:"

// secretGetter is the slice of *vault.Client the loader needs.
type secretGetter interface {
	GetKV(ctx context.Context, secretPath, key string, ttl time.Duration) (string, error)
}

// newSecretGetter is swapped in tests.
var newSecretGetter = func(ctx context.Context) (secretGetter, error) {
	return vault.New(ctx, zap.S().Infof)
}

// resolveSecrets rewrites every vault: reference in k.
func resolveSecrets(ctx context.Context, k *koanf.Koanf) error {
	refs := vaultRefs(k)
	if len(refs) == 0 {
		return nil
	}
	cli, err := newSecretGetter(ctx)
	if err != nil {
		return fmt.Errorf("vault client: %w", err)
	}
	return applySecrets(ctx, k, refs, cli)
}

// vaultRefs returns config keys whose value is a vault: reference, sorted
// for deterministic logging.
func vaultRefs(k *koanf.Koanf) []string {
	var keys []string
	for key, val := range k.All() {
		if s, ok := val.(string); ok && strings.HasPrefix(s, vaultPrefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

func applySecrets(ctx context.Context, k *koanf.Koanf, keys []string, cli secretGetter) error {
	for _, key := range keys {
		path, field, err := parseRef(k.String(key))
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		val, err := cli.GetKV(ctx, path, field, 0)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		if err := k.Set(key, val); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		zap.S().Debugw("config secret resolved", "key", key, "path", path)
	}
	return nil
}

// parseRef splits "vault:kv/app/db#password" into ("kv/app/db", "password").
func parseRef(ref string) (path, key string, err error) {
	body := strings.TrimPrefix(ref, vaultPrefix)
	i := strings.LastIndexByte(body, '#')
	if i <= 0 || i == len(body)-1 {
		return "", "", fmt.Errorf("malformed vault reference %q", ref)
	}
	return body[:i], body[i+1:], nil
}
