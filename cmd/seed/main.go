// Command seed migrates the schema and creates the admin plus a few demo
// accounts and scripts for local development.
package main

import (
	"log"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"

	"scriptrack/internal/config"
	"scriptrack/internal/database"
	"scriptrack/internal/domain"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	db, err := database.Connect(cfg.Database.URL)
	if err != nil {
		log.Fatal("DB connection failed:", err)
	}

	log.Println("Running AutoMigrate...")
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
		log.Fatal("AutoMigrate failed:", err)
	}

	log.Println("Creating users...")

	adminHash, _ := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
	admin := domain.User{
		Email:            "admin@scriptrack.local",
		PasswordHash:     string(adminHash),
		Role:             domain.RoleAdmin,
		Name:             "Administrator",
		ProfileCompleted: true,
	}
	db.Where(domain.User{Email: admin.Email}).FirstOrCreate(&admin)
	log.Println("Admin ready: admin@scriptrack.local / admin123")

	users := []struct {
		email string
		name  string
		role  domain.UserRole
	}{
		{"producer@scriptrack.local", "Demo Producer", domain.RoleProducer},
		{"reviewer@scriptrack.local", "Demo Reviewer", domain.RoleReviewer},
		{"writer@scriptrack.local", "Demo Writer", domain.RoleWriter},
	}
	var writer domain.User
	for _, u := range users {
		hash, _ := bcrypt.GenerateFromPassword([]byte("demo123"), bcrypt.DefaultCost)
		user := domain.User{
			Email:            u.email,
			PasswordHash:     string(hash),
			Role:             u.role,
			Name:             u.name,
			ProfileCompleted: true,
		}
		db.Where(domain.User{Email: u.email}).FirstOrCreate(&user)
		if u.role == domain.RoleWriter {
			writer = user
		}
		log.Printf("User ready: %s / demo123 (%s)", u.email, u.role)
	}

	script := domain.Script{
		Title:    "The Long Take",
		Logline:  "A festival darling fights to finish one last shot.",
		Genre:    "drama",
		Status:   domain.ScriptSubmitted,
		WriterID: writer.ID,
	}
	db.Where(domain.Script{Title: script.Title, WriterID: writer.ID}).FirstOrCreate(&script)
	db.Where(domain.Activity{ScriptID: script.ID, Action: domain.ActivityScriptSubmitted}).
		FirstOrCreate(&domain.Activity{
			ScriptID: script.ID,
			ActorID:  writer.ID,
			Action:   domain.ActivityScriptSubmitted,
			Detail:   script.Title,
		})
	log.Printf("Demo script ready: %q (id=%d)", script.Title, script.ID)
}
