package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/chromapages/support-gateway/internal/apierror"
	"github.com/chromapages/support-gateway/internal/auth"
	"github.com/chromapages/support-gateway/internal/config"
	"github.com/chromapages/support-gateway/internal/models"
	"github.com/chromapages/support-gateway/internal/repository"
	"github.com/chromapages/support-gateway/internal/storage"
	"github.com/google/uuid"
)

// APIKeyService manages issued API keys. It also implements
// auth.KeyDirectory, so the token issuer can resolve keys stored in
// postgres with a redis cache in front.
type APIKeyService struct {
	repository *repository.APIKeyRepository
	redis      *storage.RedisClient
	tiers      map[string]config.TierConfig
}

func NewAPIKeyService(repo *repository.APIKeyRepository, redis *storage.RedisClient, tiers []config.TierConfig) *APIKeyService {
	byName := make(map[string]config.TierConfig, len(tiers))
	for _, tier := range tiers {
		byName[tier.Name] = tier
	}

	return &APIKeyService{
		repository: repo,
		redis:      redis,
		tiers:      byName,
	}
}

// Create generates a new API key for a configured tier. The plain key is
// returned once; only its hash is stored.
func (s *APIKeyService) Create(ctx context.Context, name, createdBy, tier string) (string, error) {
	tierConfig, ok := s.tiers[tier]
	if !ok {
		return "", apierror.New(apierror.KindConfiguration,
			fmt.Sprintf("unknown tier %q", tier))
	}

	keyBytes := make([]byte, 32)
	if _, err := rand.Read(keyBytes); err != nil {
		return "", fmt.Errorf("failed to generate random key: %w", err)
	}

	key := "cp_" + base64.URLEncoding.EncodeToString(keyBytes)

	hash := sha256.Sum256([]byte(key))
	keyHash := hex.EncodeToString(hash[:])

	apiKey := models.APIKey{
		KeyHash:   keyHash,
		Name:      name,
		CreatedBy: createdBy,
		Tier:      tier,
		Scope:     tierConfig.Scope,
		IsActive:  true,
	}

	if err := s.repository.Create(ctx, &apiKey); err != nil {
		return "", fmt.Errorf("failed to create API key: %w", err)
	}

	return key, nil
}

// Lookup resolves a raw API key to its tier and scope. Satisfies
// auth.KeyDirectory. Results are cached in redis for a few minutes to keep
// token issuance off the database hot path.
func (s *APIKeyService) Lookup(ctx context.Context, key string) (auth.KeyInfo, error) {
	apiKey, err := s.find(ctx, key)
	if err != nil {
		return auth.KeyInfo{}, err
	}
	if apiKey == nil {
		return auth.KeyInfo{}, apierror.New(apierror.KindAuthentication, "Invalid API key")
	}

	go s.repository.UpdateLastUsed(context.WithoutCancel(ctx), apiKey.ID)

	return auth.KeyInfo{Tier: apiKey.Tier, Scope: apiKey.Scope}, nil
}

func (s *APIKeyService) find(ctx context.Context, key string) (*models.APIKey, error) {
	hash := sha256.Sum256([]byte(key))
	keyHash := hex.EncodeToString(hash[:])

	cacheKey := fmt.Sprintf("apikey:cache:%s", keyHash)
	if s.redis != nil {
		if cached, err := s.redis.Get(ctx, cacheKey); err == nil && cached != "" {
			var apiKey models.APIKey
			if err := json.Unmarshal([]byte(cached), &apiKey); err == nil {
				return &apiKey, nil
			}
		}
	}

	apiKey, err := s.repository.FindActiveByHash(ctx, keyHash)
	if err != nil {
		return nil, err
	}
	if apiKey == nil {
		return nil, nil
	}

	if s.redis != nil {
		if apiKeyJSON, err := json.Marshal(apiKey); err == nil {
			s.redis.Set(ctx, cacheKey, apiKeyJSON, 5*time.Minute)
		}
	}

	return apiKey, nil
}

func (s *APIKeyService) Get(ctx context.Context, id string) (*models.APIKey, error) {
	return s.repository.FindByID(ctx, id)
}

func (s *APIKeyService) List(ctx context.Context) ([]models.APIKey, error) {
	return s.repository.List(ctx)
}

func (s *APIKeyService) Update(ctx context.Context, id string, updates map[string]interface{}) error {
	// Tier changes must keep scope consistent with the tier table.
	if tier, ok := updates["tier"].(string); ok {
		tierConfig, found := s.tiers[tier]
		if !found {
			return apierror.New(apierror.KindConfiguration,
				fmt.Sprintf("unknown tier %q", tier))
		}
		updates["scope"] = tierConfig.Scope
	}

	if err := s.repository.Update(ctx, id, updates); err != nil {
		return err
	}

	s.invalidateCache(ctx, id)
	return nil
}

func (s *APIKeyService) Delete(ctx context.Context, id string) error {
	s.invalidateCache(ctx, id)

	return s.repository.Delete(ctx, id)
}

func (s *APIKeyService) UpdateLastUsed(ctx context.Context, id uuid.UUID) {
	s.repository.UpdateLastUsed(ctx, id)
}

func (s *APIKeyService) invalidateCache(ctx context.Context, id string) {
	apiKey, err := s.repository.FindByID(ctx, id)
	if err != nil || apiKey == nil {
		return
	}

	if s.redis != nil {
		cacheKey := fmt.Sprintf("apikey:cache:%s", apiKey.KeyHash)
		s.redis.Delete(ctx, cacheKey)
	}
}
