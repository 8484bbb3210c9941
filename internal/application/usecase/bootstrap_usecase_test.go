package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pedidos-api/internal/application/usecase"
	"github.com/jhoicas/pedidos-api/internal/domain"
	"github.com/jhoicas/pedidos-api/internal/domain/entity"
	"github.com/jhoicas/pedidos-api/internal/infrastructure/memory"
)

func TestBootstrapUseCase_CreaEmpresaYUsuario(t *testing.T) {
	s := memory.NewStore()
	users := memory.NewUserRepository(s)
	uc := usecase.NewBootstrapUseCase(memory.NewCompanyRepository(s), users)
	ctx := context.Background()

	company, user, err := uc.Run(ctx, usecase.BootstrapInput{CompanyName: " Demo ", Email: " Ana@Demo.Test ", Role: "operator"})
	require.NoError(t, err)
	assert.Equal(t, "Demo", company.Name)
	assert.Equal(t, company.ID, user.CompanyID)
	assert.Equal(t, "ana@demo.test", user.Email)
	assert.Equal(t, entity.RoleOperator, user.Role)

	stored, err := users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "ana@demo.test", stored.Email)

	_, _, err = uc.Run(ctx, usecase.BootstrapInput{CompanyName: "Demo", Email: "otro@demo.test", Role: "ADMIN"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestBootstrapUseCase_Valida(t *testing.T) {
	uc := usecase.NewBootstrapUseCase(memory.NewCompanyRepository(memory.NewStore()), memory.NewUserRepository(memory.NewStore()))

	tests := []struct {
		name string
		in   usecase.BootstrapInput
	}{
		{"sin empresa", usecase.BootstrapInput{CompanyName: " ", Email: "a@b.c", Role: "ADMIN"}},
		{"email inválido", usecase.BootstrapInput{CompanyName: "X", Email: "ana", Role: "ADMIN"}},
		{"rol desconocido", usecase.BootstrapInput{CompanyName: "X", Email: "a@b.c", Role: "ROOT"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := uc.Run(context.Background(), tt.in)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}
