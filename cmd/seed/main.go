// seed crea una empresa con un usuario y emite un JWT de desarrollo para ese usuario.
// Los tokens reales los emite el servicio de identidad; este comando es solo para entornos locales.
//
// Uso: go run ./cmd/seed -company "Acme" -email ana@acme.test -role ADMIN
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jhoicas/pedidos-api/internal/application/usecase"
	"github.com/jhoicas/pedidos-api/internal/domain/entity"
	"github.com/jhoicas/pedidos-api/internal/infrastructure/postgres"
	"github.com/jhoicas/pedidos-api/pkg/config"
	"github.com/jhoicas/pedidos-api/pkg/jwt"
)

func main() {
	companyName := flag.String("company", "Demo", "nombre de la empresa")
	email := flag.String("email", "admin@demo.test", "email del usuario")
	role := flag.String("role", entity.RoleAdmin, "ADMIN | OPERATOR | VIEWER")
	ttl := flag.Duration("ttl", 24*time.Hour, "vigencia del token")
	flag.Parse()

	in := usecase.BootstrapInput{CompanyName: *companyName, Email: *email, Role: *role}
	if err := run(context.Background(), in, *ttl); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, in usecase.BootstrapInput, ttl time.Duration) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("cargar configuración: %w", err)
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return fmt.Errorf("conectar a PostgreSQL: %w", err)
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, pool); err != nil {
		return fmt.Errorf("migrar: %w", err)
	}

	bootstrap := usecase.NewBootstrapUseCase(postgres.NewCompanyRepository(pool), postgres.NewUserRepository(pool))
	company, user, err := bootstrap.Run(ctx, in)
	if err != nil {
		return fmt.Errorf("crear empresa y usuario: %w", err)
	}

	token, err := jwt.Generate(cfg.JWT.Secret, user.ID, company.ID, user.Role, cfg.JWT.Issuer, ttl)
	if err != nil {
		return fmt.Errorf("firmar token: %w", err)
	}
	fmt.Printf("company_id=%s\nuser_id=%s\nrole=%s\ntoken=%s\n", company.ID, user.ID, user.Role, token)
	return nil
}
