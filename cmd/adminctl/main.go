// Command adminctl bootstraps an admin account directly against the
// database, for deployments where self-service registration of admins is
// disabled. The password is read from the terminal without echo.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"

	"golang.org/x/term"

	"github.com/okovalenko/mediadrop/internal/server/config"
	"github.com/okovalenko/mediadrop/internal/server/models"
	"github.com/okovalenko/mediadrop/internal/server/repositories/repomanager"
	"github.com/okovalenko/mediadrop/internal/server/services"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	defaults := &config.Config{}
	defaults.LoadDefaults()

	dsn := flag.String("d", defaults.DatabaseDSN, "database dsn")
	username := flag.String("u", "", "admin username")
	flag.Parse()

	if *username == "" {
		log.Fatal("username is required (-u)")
	}

	fmt.Println("Enter password")
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		log.Fatalf("read password: %v", err)
	}
	if len(password) == 0 {
		log.Fatal("password must not be empty")
	}

	ctx := context.Background()

	db, err := sql.Open("pgx", *dsn)
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	defer db.Close()

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		log.Fatalf("migrations: %v", err)
	}

	svc := services.NewUserService(db, rm)
	user, err := svc.Register(ctx, *username, string(password), models.RoleAdmin)
	if err != nil {
		log.Fatalf("create admin: %v", err)
	}

	fmt.Printf("admin %q created (id %d)\n", user.Username, user.ID)
}
