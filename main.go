package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"github.com/openhaus-dev/openhaus/backend/config"
	"github.com/openhaus-dev/openhaus/backend/controllers"
	"github.com/openhaus-dev/openhaus/backend/geocode"
	"github.com/openhaus-dev/openhaus/backend/mailer"
	"github.com/openhaus-dev/openhaus/backend/repository"
	"github.com/openhaus-dev/openhaus/backend/routes"
	"github.com/openhaus-dev/openhaus/backend/storage"
)

func loadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Error loading .env file: %v", err)
	}
}

func main() {
	loadEnv()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	client, err := config.ConnectDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to the database: %v", err)
	}
	defer config.CloseDBConnection(client)

	db := client.Database(cfg.DBName)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := repository.EnsureIndexes(ctx, db); err != nil {
		cancel()
		log.Fatalf("Failed to create indexes: %v", err)
	}
	cancel()

	redisClient, err := config.ConnectRedis(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	log.Println("Connected to Redis")

	geocoder, err := geocode.NewGoogleGeocoder(cfg.GoogleMapsKey)
	if err != nil {
		log.Fatalf("Failed to create geocoding client: %v", err)
	}

	uploader, err := storage.NewUploader(context.Background(), cfg.AWSRegion, cfg.S3Bucket)
	if err != nil {
		log.Fatalf("Failed to create storage client: %v", err)
	}

	sesMailer, err := mailer.NewSESMailer(context.Background(), cfg.AWSRegion, cfg.EmailFrom, cfg.EmailReply, cfg.AppName, cfg.ClientURL)
	if err != nil {
		log.Fatalf("Failed to create mail client: %v", err)
	}

	adCtrl := &controllers.AdController{
		Ads:    repository.NewAdRepo(db),
		Users:  repository.NewUserRepo(db),
		Geo:    geocoder,
		Images: uploader,
		Mail:   sesMailer,
		Cache:  redisClient,
	}
	authCtrl := &controllers.AuthController{
		Users:     repository.NewUserRepo(db),
		Mail:      sesMailer,
		JWTSecret: []byte(cfg.JWTSecret),
	}

	router := mux.NewRouter()
	routes.Routes(router, adCtrl, authCtrl, []byte(cfg.JWTSecret))

	corsOptions := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})
	handler := corsOptions.Handler(router)

	server := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        handler,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		log.Printf("Server running on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Error starting server: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	<-sigCh

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Error during server shutdown: %v", err)
	}
	log.Println("Server gracefully stopped")
}
