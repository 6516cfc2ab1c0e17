// Command createtoken prints a signed API token, for local testing and
// service accounts. The signing secret comes from JWT_SECRET.
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"guardpatrol.com/patrol/core"
	"guardpatrol.com/patrol/security"
)

func main() {
	id := flag.Int("id", 0, "guard or supervisor id")
	rut := flag.String("rut", "", "RUT of the identity")
	name := flag.String("name", "", "display name")
	role := flag.String("role", string(security.RoleGuard), "guard or supervisor")
	ttl := flag.Duration("ttl", time.Hour, "token lifetime")
	flag.Parse()

	r := security.Role(*role)
	if r != security.RoleGuard && r != security.RoleSupervisor {
		log.Fatalf("unknown role %q", *role)
	}
	if *id <= 0 {
		log.Fatal("-id is required")
	}

	cfg, err := core.LoadConfig(".")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	secret, err := security.DecodeSecret(cfg.JWTSecret)
	if err != nil {
		log.Fatalf("JWT_SECRET: %v", err)
	}

	token, err := security.CreateIdentityToken(&security.PatrolIdentity{
		ID:   int32(*id),
		Rut:  *rut,
		Name: *name,
		Role: r,
	}, secret, *ttl)
	if err != nil {
		log.Fatalf("create token: %v", err)
	}
	fmt.Println(token)
}
