package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/aussiebroadwan/authsession/internal/authsession/app"
	"github.com/aussiebroadwan/authsession/pkg/cryptox"
)

func main() {
	genSecret := flag.Bool("gen-secret", false, "print a random AUTH_SECRET_KEY and exit")
	addUser := flag.String("add-user", "", "register a user with this email so it can receive reset links, then exit")
	flag.Parse()

	if *genSecret {
		secret, err := cryptox.GenerateSecretHex(32)
		if err != nil {
			log.Fatalf("failed to generate secret: %v", err)
		}
		fmt.Println(secret)
		return
	}

	cfg := app.LoadConfig()

	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}

	if *addUser != "" {
		user, err := application.AddUser(context.Background(), *addUser)
		_ = application.Close()
		if err != nil {
			log.Fatalf("failed to add user: %v", err)
		}
		fmt.Println(user.ID)
		return
	}

	if err := application.Run(); err != nil {
		log.Fatalf("application error: %v", err)
	}
}
