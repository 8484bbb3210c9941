package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/pedidos-api/internal/domain"
	"github.com/jhoicas/pedidos-api/internal/domain/entity"
	"github.com/jhoicas/pedidos-api/internal/domain/repository"
)

// BootstrapInput empresa y primer usuario a crear.
type BootstrapInput struct {
	CompanyName string
	Email       string
	Role        string
}

// BootstrapUseCase crea una empresa con su primer usuario. Lo usan cmd/seed (PostgreSQL)
// y cmd/api al arrancar con el store en memoria.
type BootstrapUseCase struct {
	companies repository.CompanyRepository
	users     repository.UserRepository
}

// NewBootstrapUseCase construye el caso de uso.
func NewBootstrapUseCase(companies repository.CompanyRepository, users repository.UserRepository) *BootstrapUseCase {
	return &BootstrapUseCase{companies: companies, users: users}
}

// Run valida la entrada y persiste empresa y usuario.
func (uc *BootstrapUseCase) Run(ctx context.Context, in BootstrapInput) (*entity.Company, *entity.User, error) {
	name := normalizeName(in.CompanyName)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	role := strings.ToUpper(strings.TrimSpace(in.Role))
	if !validName(name) || !strings.Contains(email, "@") || !entity.ValidRole(role) {
		return nil, nil, domain.ErrInvalidInput
	}

	now := time.Now()
	company := &entity.Company{ID: uuid.New().String(), Name: name, CreatedAt: now}
	if err := uc.companies.Create(ctx, company); err != nil {
		return nil, nil, err
	}
	user := &entity.User{
		ID:        uuid.New().String(),
		CompanyID: company.ID,
		Email:     email,
		Role:      role,
		IsActive:  true,
		CreatedAt: now,
	}
	if err := uc.users.Create(ctx, user); err != nil {
		return nil, nil, err
	}
	return company, user, nil
}
