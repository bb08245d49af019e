package main

import (
	"log"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"github.com/skillswap/skillswap-backend/internal/config"
	"github.com/skillswap/skillswap-backend/internal/db"
	"github.com/skillswap/skillswap-backend/internal/models"
	"github.com/skillswap/skillswap-backend/internal/utils"
)

// Seeds an admin plus a demo client and freelancer for local development.
// Passwords are generated per run and printed once; rerunning skips accounts
// that already exist.
func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	gdb, err := db.Connect(cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}

	if err := gdb.AutoMigrate(
		&models.User{},
		&models.ClientProfile{},
		&models.FreelancerProfile{},
	); err != nil {
		log.Fatal(err)
	}

	seed(gdb, "Admin", "admin@skillswap.local", models.RoleAdmin)
	seed(gdb, "Demo Client", "client@skillswap.local", models.RoleClient)
	seed(gdb, "Demo Freelancer", "freelancer@skillswap.local", models.RoleFreelancer)
}

func seed(gdb *gorm.DB, name, email string, role models.Role) {
	var existing models.User
	if err := gdb.First(&existing, "email = ?", email).Error; err == nil {
		log.Printf("%s already exists, skipping", email)
		return
	}

	password := utils.RandomToken(12)
	hash, err := utils.HashPassword(password)
	if err != nil {
		log.Fatal(err)
	}

	user := models.User{
		ID:            uuid.New(),
		Name:          name,
		Email:         email,
		Password:      hash,
		Role:          role,
		AccountStatus: models.AccountActive,
	}
	if role == models.RoleAdmin {
		user.IsVerified = true
	}

	err = gdb.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		switch role {
		case models.RoleClient:
			return tx.Create(&models.ClientProfile{UserID: user.ID}).Error
		case models.RoleFreelancer:
			return tx.Create(&models.FreelancerProfile{UserID: user.ID}).Error
		}
		return nil
	})
	if err != nil {
		log.Fatal(err)
	}

	log.Printf("created %s (%s) password: %s", email, role, password)
}
