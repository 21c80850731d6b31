package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/budgetguard/techops/internal/model"
)

func TestDeploymentStore_SaveDeployment(t *testing.T) {
	db := &mockDB{}
	s := NewDeploymentStore(db)
	ctx := context.Background()

	now := time.Now().UTC()
	rec := model.DeploymentRecord{
		Cell:         model.Cell{NodeType: "FLUX Dev", Provider: model.ProviderAWS, GpuTier: model.GpuTierA10G},
		Status:       model.StatusDeployed,
		InstanceName: "flux-dev-a10g-aws-1700000000",
		Endpoint:     "https://nim-flux-dev-a10g-aws-1700000000.us-east-1.aws.nim.api.nvidia.com",
		DeployedAt:   &now,
		UpdatedAt:    now,
	}

	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).Return(pgconn.CommandTag{}, nil)

	err := s.SaveDeployment(ctx, rec)
	require.NoError(t, err)
	db.AssertExpectations(t)
}

func TestDeploymentStore_SaveDeployment_DBError(t *testing.T) {
	db := &mockDB{}
	s := NewDeploymentStore(db)
	ctx := context.Background()

	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).Return(pgconn.CommandTag{}, errors.New("db error"))

	err := s.SaveDeployment(ctx, model.DeploymentRecord{
		Cell: model.Cell{NodeType: "SDXL", Provider: model.ProviderGCP, GpuTier: model.GpuTierT4},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "save deployment record")
}

func TestDeploymentStore_List(t *testing.T) {
	db := &mockDB{}
	s := NewDeploymentStore(db)
	ctx := context.Background()

	now := time.Now().UTC()
	rows := newMockRows(
		func(dest ...any) error {
			*dest[0].(*string) = "FLUX Dev"
			*dest[1].(*string) = "aws"
			*dest[2].(*string) = "a10g"
			*dest[3].(*string) = model.StatusDeployed
			*dest[4].(*string) = "flux-dev-a10g-aws-1700000000"
			*dest[5].(*string) = "https://example.test/v1"
			*dest[6].(*string) = ""
			*dest[7].(**time.Time) = &now
			*dest[8].(*time.Time) = now
			return nil
		},
		func(dest ...any) error {
			*dest[0].(*string) = "SDXL"
			*dest[1].(*string) = "local"
			*dest[2].(*string) = ""
			*dest[3].(*string) = model.StatusFailed
			*dest[4].(*string) = "sdxl-local-1700000001"
			*dest[5].(*string) = ""
			*dest[6].(*string) = "docker daemon unreachable"
			*dest[7].(**time.Time) = nil
			*dest[8].(*time.Time) = now
			return nil
		},
	)
	db.On("Query", ctx, mock.AnythingOfType("string"), mock.Anything).Return(rows, nil)

	records, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, model.ProviderAWS, records[0].Cell.Provider)
	assert.Equal(t, model.GpuTierA10G, records[0].Cell.GpuTier)
	assert.Equal(t, model.StatusDeployed, records[0].Status)

	assert.Equal(t, model.ProviderLocal, records[1].Cell.Provider)
	assert.Equal(t, model.GpuTierNone, records[1].Cell.GpuTier)
	assert.Equal(t, "docker daemon unreachable", records[1].LastError)
}

func TestDeploymentStore_List_Empty(t *testing.T) {
	db := &mockDB{}
	s := NewDeploymentStore(db)
	ctx := context.Background()

	db.On("Query", ctx, mock.AnythingOfType("string"), mock.Anything).Return(newEmptyMockRows(), nil)

	records, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)
}
