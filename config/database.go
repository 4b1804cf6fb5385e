package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"bitbucket.org/mmdatafocus/payables_backend/models"
	"github.com/joho/godotenv"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	db *gorm.DB
)

func GetDB() *gorm.DB {
	return db
}

func init() {
	// Load env from .env
	godotenv.Load()
	// Do NOT block startup in init() waiting for DB; the HTTP server must
	// start listening first. main() calls ConnectDatabaseWithRetry.
}

// ConnectDatabaseWithRetry connects, runs migrations, and sets the global DB.
// Call this from main() AFTER the HTTP server is listening.
func ConnectDatabaseWithRetry() {
	dbUser := os.Getenv("DB_USER")
	dbPassword := os.Getenv("DB_PASSWORD")
	dbHost := os.Getenv("DB_HOST")
	dbPort := os.Getenv("DB_PORT")
	dbName := os.Getenv("DB_NAME")

	if dbHost == "" || dbName == "" {
		log.Println("DB_* env vars not set; running without persistence")
		return
	}

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4", dbUser, dbPassword, dbHost, dbPort, dbName)

	var lastErr error
	for attempt := 1; attempt <= 10; attempt++ {
		conn, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Warn),
		})
		if err == nil {
			if err := migrate(conn); err != nil {
				log.Fatalf("database migration failed: %v", err)
			}
			db = conn
			log.Println("database connected")
			return
		}
		lastErr = err
		log.Printf("database connection attempt %d failed: %v", attempt, err)
		time.Sleep(time.Duration(attempt) * time.Second)
	}
	log.Fatalf("could not connect to database after retries: %v", lastErr)
}

func migrate(conn *gorm.DB) error {
	return conn.AutoMigrate(
		&models.Vendor{},
		&models.PurchaseOrder{},
		&models.POLineItem{},
		&models.Invoice{},
		&models.InvoiceLineItem{},
		&models.RecommendationRecord{},
	)
}
