package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"ai-image-studio/internal/config"
	pg "ai-image-studio/internal/infra/db/postgres"
	"ai-image-studio/internal/infra/logging"
	"ai-image-studio/internal/usecase"
)

// Seeds a demo account with starting credits so the payment and generation
// flows can be exercised locally without going through the auth provider.
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := logging.New(cfg.Log, true)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	userRepo := pg.NewUserRepo(pool)
	creditRepo := pg.NewCreditRepo(pool)
	txm := pg.NewTxManager(pool)
	userUC := usecase.NewUserUseCase(userRepo, creditRepo, txm, cfg.Credits.SignupGrant, logger)

	user, created, err := userUC.EnsureAccount(ctx, "demo-user", "demo@example.com")
	if err != nil {
		log.Fatalf("ensure demo account: %v", err)
	}
	if !created {
		fmt.Printf("demo account already present (id=%s). No changes.\n", user.ID)
		return
	}

	balance, err := usecase.NewCreditUseCase(creditRepo, logger).Balance(ctx, user.ID)
	if err != nil {
		log.Fatalf("read balance: %v", err)
	}
	fmt.Printf("seeded: %s (email=%s, credits=%d)\n", user.ID, user.Email, balance)
	fmt.Println("✅ Seeding complete.")
}
