// Command createadmin seeds a panel operator account.  There is no
// self-service registration; operators are provisioned from the shell:
//
//	createadmin -username jane -password secret -email jane@example.com
package main

import (
    "context"
    "flag"
    "time"

    "github.com/joho/godotenv"
    log "github.com/sirupsen/logrus"

    "github.com/jkamau/filamu/internal/config"
    "github.com/jkamau/filamu/internal/database"
    "github.com/jkamau/filamu/internal/repository"
)

func main() {
    username := flag.String("username", "", "admin username")
    password := flag.String("password", "", "admin password")
    email := flag.String("email", "", "admin email")
    flag.Parse()

    if *username == "" || *password == "" {
        log.Fatal("username and password are required")
    }

    _ = godotenv.Load()
    cfg := config.Load()

    db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
    if err != nil {
        log.Fatalf("database: %v", err)
    }
    defer db.Close()

    ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
    defer cancel()

    if err := database.Migrate(ctx, db); err != nil {
        log.Fatalf("migrate: %v", err)
    }

    id, err := repository.NewAdminRepo(db).Create(ctx, *username, *password, *email, cfg.BcryptCost)
    if err != nil {
        if err == repository.ErrAdminExists {
            log.Fatalf("admin %q already exists", *username)
        }
        log.Fatalf("create admin: %v", err)
    }
    log.Infof("created admin %q (id=%d)", *username, id)
}
