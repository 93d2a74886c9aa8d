package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	_ "github.com/go-sql-driver/mysql"

	"LIBRA-backend/internal/library_mgmt/books"
	"LIBRA-backend/internal/library_mgmt/circulation"
	"LIBRA-backend/internal/library_mgmt/members"
	"LIBRA-backend/internal/platform/auth"
	"LIBRA-backend/internal/platform/db"
)

func main() {
	// 設定読み込み
	cfg, err := db.LoadConfig("config/config.yaml")
	if err != nil {
		panic(err)
	}

	// 動作モード取得
	mode := cfg.Mode
	log.Printf("[INFO] mode:%s\n", mode)

	if cfg.Mode != "dev" && cfg.Mode != "release" {
		fmt.Println("Usage: go run main.go [dev|release]")
		return
	}

	if cfg.Auth.JWTSecret == "" {
		log.Fatal("auth.jwt_secret must be set in config/config.yaml")
	}

	conn, err := db.Connect(cfg.DB)
	if err != nil {
		panic(err)
	}
	defer conn.Close()

	log.Printf("[INFO] connected to DB: %s", cfg.DB.DBName)
	log.Printf("[INFO] lending rules: period=%dd, fee=%.2f/day, grace=%dd",
		cfg.Lending.BorrowingPeriodDays, cfg.Lending.DailyLateFee, cfg.Lending.RenewalGraceDays)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	_ = r.SetTrustedProxies(nil)

	if mode == "dev" {
		// CORS（開発中のみ必要）
		r.Use(cors.New(cors.Config{
			AllowOrigins:     []string{"http://localhost:3000"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowCredentials: true,
		}))
	}

	// ヘルス
	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	secret := []byte(cfg.Auth.JWTSecret)
	authSvc := auth.NewService(conn, secret)

	rules := circulation.Rules{
		BorrowingPeriodDays: cfg.Lending.BorrowingPeriodDays,
		DailyLateFee:        cfg.Lending.DailyLateFee,
		RenewalGraceDays:    cfg.Lending.RenewalGraceDays,
	}

	// 認証なし
	auth.RegisterPublicRoutes(r.Group("/api/v1"), authSvc)

	// /api/v1（要ログイン）
	api := r.Group("/api/v1")
	api.Use(auth.RequireAuth(secret))
	books.RegisterRoutes(api, books.NewService(conn))
	members.RegisterRoutes(api, members.NewService(conn))
	circulation.RegisterRoutes(api, circulation.NewService(conn, rules))

	// ユーザー管理は admin のみ
	admin := r.Group("/api/v1")
	admin.Use(auth.RequireAuth(secret), auth.RequireRole(auth.RoleAdmin))
	auth.RegisterAdminRoutes(admin, authSvc)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: r,
	}

	go func() {
		log.Printf("[INFO] listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit
	log.Println("[INFO] shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal(err)
	}
}
