package usecase

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"ai-image-studio/internal/domain"
	"ai-image-studio/internal/domain/model"
	"ai-image-studio/internal/domain/ports/repository"
	"ai-image-studio/internal/infra/logging"
	"ai-image-studio/internal/infra/metrics"
)

// Compile-time check
var _ UserUseCase = (*userUC)(nil)

// UserUseCase exposes account lifecycle operations used by the auth flow.
type UserUseCase interface {
	// EnsureAccount registers the account on first sight and grants the
	// signup credits exactly once. Safe to call on every login.
	EnsureAccount(ctx context.Context, id, email string) (*model.User, bool, error)
	Get(ctx context.Context, id string) (*model.User, error)
	Count(ctx context.Context) (int, error)
}

type userUC struct {
	users       repository.UserRepository
	credits     repository.CreditRepository
	tm          repository.TransactionManager
	signupGrant int64
	log         *zerolog.Logger
}

func NewUserUseCase(users repository.UserRepository, credits repository.CreditRepository, tm repository.TransactionManager, signupGrant int64, logger *zerolog.Logger) *userUC {
	return &userUC{
		users:       users,
		credits:     credits,
		tm:          tm,
		signupGrant: signupGrant,
		log:         logger,
	}
}

func (u *userUC) EnsureAccount(ctx context.Context, id, email string) (*model.User, bool, error) {
	defer logging.TraceDuration(u.log, "UserUC.EnsureAccount")()

	var (
		user    *model.User
		created bool
	)
	// The find and the save must be one atomic unit so two concurrent first
	// logins cannot both take the "new account" path.
	txOpts := pgx.TxOptions{IsoLevel: pgx.Serializable}
	err := u.tm.WithTx(ctx, txOpts, func(ctx context.Context, tx repository.Tx) error {
		usr, err := u.users.FindByID(ctx, tx, id)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}

		if usr != nil {
			usr.Touch()
			if email != "" && usr.Email != email {
				usr.Email = email
			}
			if err := u.users.Save(ctx, tx, usr); err != nil {
				u.log.Error().Err(err).Msg("failed to update user")
				return err
			}
			user = usr
			return nil
		}

		nu, err := model.NewUser(id, email)
		if err != nil {
			return err
		}
		if err := u.users.Save(ctx, tx, nu); err != nil {
			return err
		}
		// Ledger row creation is idempotent: a concurrent signup that won the
		// race already holds the grant, which must not be issued twice.
		if err := u.credits.Initialize(ctx, tx, nu.ID, u.signupGrant); err != nil {
			if errors.Is(err, domain.ErrAlreadyExists) {
				user = nu
				return nil
			}
			return err
		}
		user = nu
		created = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	if created {
		metrics.AddCreditsGranted("signup", u.signupGrant)
		u.log.Info().Str("user_id", user.ID).Int64("credits", u.signupGrant).Msg("account created with signup grant")
	}
	return user, created, nil
}

func (u *userUC) Get(ctx context.Context, id string) (*model.User, error) {
	defer logging.TraceDuration(u.log, "UserUC.Get")()
	return u.users.FindByID(ctx, repository.NoTX, id)
}

func (u *userUC) Count(ctx context.Context) (int, error) {
	defer logging.TraceDuration(u.log, "UserUC.Count")()
	return u.users.CountUsers(ctx, repository.NoTX)
}
