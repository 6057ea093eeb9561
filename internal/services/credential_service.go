package services

import (
	"context"
	"log/slog"
	"strings"

	"roadmapper/internal/models"
)

// CredentialLookup yields one candidate agent key for a roadmap, or "".
type CredentialLookup func(ctx context.Context, roadmap *models.Roadmap) string

// ResolveCredential walks lookups in order and returns the first non-blank key.
func ResolveCredential(ctx context.Context, roadmap *models.Roadmap, lookups ...CredentialLookup) string {
	for _, lookup := range lookups {
		if key := strings.TrimSpace(lookup(ctx, roadmap)); key != "" {
			return key
		}
	}
	return ""
}

// RoadmapField reads the key stored on the roadmap row itself.
func RoadmapField() CredentialLookup {
	return func(_ context.Context, roadmap *models.Roadmap) string {
		if roadmap == nil {
			return ""
		}
		return roadmap.AgentCredential
	}
}

// KeyringEntry reads a keyring entry whose name is derived from the roadmap.
func KeyringEntry(ring *KeyringService, name func(*models.Roadmap) string, log *slog.Logger) CredentialLookup {
	return func(_ context.Context, roadmap *models.Roadmap) string {
		if ring == nil {
			return ""
		}
		key := name(roadmap)
		if key == "" {
			return ""
		}
		secret, err := ring.GetCredential(key)
		if err != nil {
			log.Warn("keyring lookup failed", "key", key, "error", err)
			return ""
		}
		return secret
	}
}

// Static returns the same key for every roadmap.
func Static(key string) CredentialLookup {
	return func(context.Context, *models.Roadmap) string { return key }
}

// CredentialService resolves a roadmap's agent key: the roadmap's own field,
// then its keyring entry, then the keyring default, then the configured
// site-wide key.
type CredentialService struct {
	lookups []CredentialLookup
}

func NewCredentialService(ring *KeyringService, siteDefault string, log *slog.Logger) *CredentialService {
	if log == nil {
		log = slog.Default()
	}
	return &CredentialService{lookups: []CredentialLookup{
		RoadmapField(),
		KeyringEntry(ring, func(r *models.Roadmap) string {
			if r == nil || r.ID == 0 {
				return ""
			}
			return RoadmapCredentialKey(r.ID)
		}, log),
		KeyringEntry(ring, func(*models.Roadmap) string { return DefaultCredentialKey }, log),
		Static(siteDefault),
	}}
}

func (s *CredentialService) Resolve(ctx context.Context, roadmap *models.Roadmap) string {
	return ResolveCredential(ctx, roadmap, s.lookups...)
}
