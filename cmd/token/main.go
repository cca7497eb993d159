// Command token prints a signed bearer token for an API client.
//
//	JWT_SECRET=... token -client mobile-app -ttl 720h
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	jwtmw "face_cropper/internal/platform/jwt"
)

func main() {
	client := flag.String("client", "", "client name stored in the sub claim")
	ttl := flag.Duration("ttl", 30*24*time.Hour, "token lifetime")
	flag.Parse()

	secret := os.Getenv(jwtmw.EnvKeyJWTSecret)
	if secret == "" {
		log.Fatal("JWT_SECRET is not set")
	}

	token, err := jwtmw.NewGenerator(secret, *ttl).GenerateToken(*client)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(token)
}
