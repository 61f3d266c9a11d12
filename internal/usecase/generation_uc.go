package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"ai-image-studio/internal/domain"
	"ai-image-studio/internal/domain/model"
	"ai-image-studio/internal/domain/ports/adapter"
	"ai-image-studio/internal/domain/ports/repository"
	"ai-image-studio/internal/infra/logging"
	"ai-image-studio/internal/infra/metrics"
	"ai-image-studio/internal/infra/redis"
	"ai-image-studio/internal/infra/worker"
)

// Compile-time check
var _ GenerationUseCase = (*generationUC)(nil)

type GenerateParams struct {
	Prompt            string
	AspectRatio       string
	Model             string
	ImageReferenceURL string
}

// GenerationUseCase is the debit gate in front of the image providers: a
// generation only costs credits when the provider actually delivered, and the
// debit itself is a single conditional update so concurrent generations can
// never spend the same credit twice.
type GenerationUseCase interface {
	Generate(ctx context.Context, userID string, params GenerateParams) (*model.Asset, error)
}

type generationUC struct {
	credits   repository.CreditRepository
	assets    repository.AssetRepository
	generator adapter.ImageGenerator
	store     adapter.ObjectStore
	fetcher   adapter.RemoteFetcher
	limiter   *redis.RateLimiter
	pool      *worker.Pool

	cost   int64
	limit  int
	window time.Duration

	log *zerolog.Logger
}

func NewGenerationUseCase(
	credits repository.CreditRepository,
	assets repository.AssetRepository,
	generator adapter.ImageGenerator,
	store adapter.ObjectStore,
	fetcher adapter.RemoteFetcher,
	limiter *redis.RateLimiter,
	pool *worker.Pool,
	cost int64,
	limit int,
	window time.Duration,
	logger *zerolog.Logger,
) *generationUC {
	return &generationUC{
		credits:   credits,
		assets:    assets,
		generator: generator,
		store:     store,
		fetcher:   fetcher,
		limiter:   limiter,
		pool:      pool,
		cost:      cost,
		limit:     limit,
		window:    window,
		log:       logger,
	}
}

func (u *generationUC) Generate(ctx context.Context, userID string, params GenerateParams) (*model.Asset, error) {
	defer logging.TraceDuration(u.log, "GenerationUC.Generate")()

	if params.Prompt == "" {
		return nil, fmt.Errorf("%w: prompt is required", domain.ErrInvalidArgument)
	}

	if u.limiter != nil {
		ok, err := u.limiter.Allow(ctx, redis.UserActionKey(userID, "generate"), u.limit, u.window)
		if err != nil {
			u.log.Warn().Err(err).Msg("rate limiter unavailable, allowing request")
		} else if !ok {
			return nil, domain.ErrRateLimited
		}
	}

	// Cheap pre-check so the common broke-user case fails before we pay the
	// provider. The authoritative check is the conditional debit below.
	balance, err := u.credits.GetBalance(ctx, repository.NoTX, userID)
	if err != nil {
		return nil, err
	}
	if balance < u.cost {
		metrics.IncDebitDenied()
		return nil, domain.ErrInsufficientCredits
	}

	start := time.Now()
	img, err := u.generator.Generate(ctx, adapter.GenerationRequest{
		Prompt:            params.Prompt,
		ImageReferenceURL: params.ImageReferenceURL,
		AspectRatio:       params.AspectRatio,
		Model:             params.Model,
	})
	metrics.ObserveGeneration(u.generator.Name(), int(time.Since(start).Milliseconds()), err == nil)
	if err != nil {
		return nil, err
	}

	// Debit after success. The conditional update is the concurrency guard:
	// two racing generations cannot both pass once the balance hits zero.
	if err := u.credits.Adjust(ctx, repository.NoTX, userID, -u.cost); err != nil {
		if errors.Is(err, domain.ErrInsufficientCredits) {
			metrics.IncDebitDenied()
			u.log.Warn().Str("user_id", userID).Msg("balance spent concurrently, discarding generated image")
		}
		return nil, err
	}
	metrics.AddCreditsDebited(u.cost)

	asset := &model.Asset{
		ID:        uuid.NewString(),
		UserID:    userID,
		Prompt:    params.Prompt,
		CreatedAt: time.Now(),
	}

	if len(img.Data) > 0 {
		// Provider handed us bytes; store them immediately.
		url, err := u.store.Upload(ctx, generatedKey(img.ContentType), img.Data, img.ContentType)
		if err != nil {
			return nil, err
		}
		asset.URL = url
		asset.Mirrored = true
	} else {
		// Provider-hosted URLs expire; serve it now, mirror it in the
		// background.
		asset.URL = img.URL
	}

	if err := u.assets.Save(ctx, repository.NoTX, asset); err != nil {
		return nil, err
	}

	if !asset.Mirrored {
		u.scheduleMirror(asset.ID, asset.URL)
	}
	return asset, nil
}

func (u *generationUC) scheduleMirror(assetID, srcURL string) {
	err := u.pool.Submit(func(ctx context.Context) error {
		data, contentType, err := u.fetcher.Fetch(ctx, srcURL)
		if err != nil {
			return fmt.Errorf("mirror %s: %w", assetID, err)
		}
		url, err := u.store.Upload(ctx, generatedKey(contentType), data, contentType)
		if err != nil {
			return fmt.Errorf("mirror %s: %w", assetID, err)
		}
		return u.assets.SetMirrored(ctx, repository.NoTX, assetID, url)
	})
	if err != nil {
		// Not fatal: the asset still serves from the provider URL until the
		// next generation or a manual re-mirror.
		u.log.Warn().Err(err).Str("asset_id", assetID).Msg("mirror task not scheduled")
	}
}

func generatedKey(contentType string) string {
	return "generated/" + ulid.Make().String() + extFor(contentType)
}

func extFor(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ".png"
	}
}
