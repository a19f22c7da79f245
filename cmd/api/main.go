package main

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"scriptrack/internal/config"
	"scriptrack/internal/database"
	"scriptrack/internal/domain"
	"scriptrack/internal/integrity"
	"scriptrack/internal/middleware"
	"scriptrack/internal/modules/files"
	"scriptrack/internal/modules/scripts"
	jwtsvc "scriptrack/internal/pkg/jwt"
	"scriptrack/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if cfg.JWT.Secret == "" {
		log.Fatal("JWT_SECRET is empty")
	}

	db, err := database.Connect(cfg.Database.URL)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	if err := db.AutoMigrate(
		&domain.User{},
		&domain.Script{},
		&domain.ScriptFile{},
		&domain.Assignment{},
		&domain.Feedback{},
		&domain.Activity{},
		&domain.Meeting{},
		&domain.MeetingParticipant{},
	); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	var remote storage.Backend
	if cfg.S3.Configured() {
		s3b, err := storage.NewS3(cfg.S3)
		if err != nil {
			log.Fatalf("s3 init: %v", err)
		}
		remote = s3b
	} else {
		log.Println("no S3 credentials, running on local storage only")
	}

	primary := storage.NewLocal(cfg.Storage.UploadDir)
	legacy := storage.NewLocal(cfg.Storage.LegacyDir)
	store := storage.NewService(remote, primary, legacy)

	validator := integrity.NewValidator(primary, legacy)

	filesHandler := files.NewHandler(files.NewResolver(store))

	scriptsRepo := scripts.NewRepository(db)
	scriptsService := scripts.NewService(scriptsRepo, store, validator)
	scriptsHandler := scripts.NewHandler(scriptsService)

	j := jwtsvc.New(cfg.JWT.Secret, 24*time.Hour)

	r := gin.Default()
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorLogger())

	api := r.Group("/api")
	{
		// public: locators are embedded in rendered pages and mails
		files.RegisterRoutes(api, filesHandler)

		protected := api.Group("/")
		protected.Use(middleware.Auth(j))
		{
			scripts.RegisterRoutes(protected, scriptsHandler,
				middleware.RequireRole(domain.RoleProducer, domain.RoleAdmin))
		}
	}

	if err := r.Run(cfg.Server.Address); err != nil {
		log.Fatal(err)
	}
}
