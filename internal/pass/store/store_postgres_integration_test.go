//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"cartera/internal/pass/models"
	"cartera/internal/pass/store"
	projectModel "cartera/internal/project/models"
	projectStore "cartera/internal/project/store"
	id "cartera/pkg/domain"
	"cartera/pkg/platform/sentinel"
	"cartera/pkg/testutil/containers"
)

type PassStorePostgresSuite struct {
	suite.Suite
	pg        *containers.PostgresContainer
	passes    *store.PostgresPassStore
	projects  *projectStore.Postgres
	projectID id.ProjectID
}

func TestPassStorePostgresSuite(t *testing.T) {
	suite.Run(t, new(PassStorePostgresSuite))
}

func (s *PassStorePostgresSuite) SetupSuite() {
	s.pg = containers.NewPostgresContainer(s.T())
	s.passes = store.NewPostgresPassStore(s.pg.Pool)
	s.projects = projectStore.NewPostgres(s.pg.Pool)
}

func (s *PassStorePostgresSuite) SetupTest() {
	ctx := context.Background()
	require.NoError(s.T(), s.pg.Truncate(ctx, "visits", "user_passes", "customers", "locations", "projects"))

	project, err := projectModel.NewProject(id.ProjectID(uuid.New()), "Cafe Teide", time.Now().UTC())
	require.NoError(s.T(), err)
	require.NoError(s.T(), s.projects.Create(ctx, project))
	s.projectID = project.ID
}

func (s *PassStorePostgresSuite) newPass(token, serial, claimCode string) *models.Pass {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &models.Pass{
		ID:           id.PassID(uuid.New()),
		ProjectID:    s.projectID,
		PassToken:    token,
		SerialNumber: serial,
		ClaimCode:    claimCode,
		Metadata:     map[string]string{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func (s *PassStorePostgresSuite) TestCreateAndFindByToken() {
	ctx := context.Background()
	pass := s.newPass("tok-1", "serial-1", "claim-1")
	pass.Metadata["origin"] = "issuance"
	require.NoError(s.T(), s.passes.Create(ctx, pass))

	found, err := s.passes.FindByToken(ctx, "tok-1")
	require.NoError(s.T(), err)
	require.Equal(s.T(), pass.ID, found.ID)
	require.Equal(s.T(), "issuance", found.Metadata["origin"])
	require.False(s.T(), found.Claimed())
}

func (s *PassStorePostgresSuite) TestDuplicateTokenConflicts() {
	ctx := context.Background()
	require.NoError(s.T(), s.passes.Create(ctx, s.newPass("tok-1", "serial-1", "")))

	err := s.passes.Create(ctx, s.newPass("tok-1", "serial-2", ""))
	require.ErrorIs(s.T(), err, sentinel.ErrConflict)
}

func (s *PassStorePostgresSuite) TestFindByClaimCode() {
	ctx := context.Background()
	require.NoError(s.T(), s.passes.Create(ctx, s.newPass("tok-1", "serial-1", "claim-1")))

	found, err := s.passes.FindByClaimCode(ctx, "claim-1")
	require.NoError(s.T(), err)
	require.Equal(s.T(), "tok-1", found.PassToken)

	_, err = s.passes.FindByClaimCode(ctx, "missing")
	require.ErrorIs(s.T(), err, sentinel.ErrNotFound)
}

func (s *PassStorePostgresSuite) TestUpdateClaimsPass() {
	ctx := context.Background()
	pass := s.newPass("tok-1", "serial-1", "claim-1")
	require.NoError(s.T(), s.passes.Create(ctx, pass))

	userID := id.UserID(uuid.New())
	pass.UserID = userID
	pass.Metadata["google_sub"] = "sub-123"
	pass.UpdatedAt = time.Now().UTC()
	require.NoError(s.T(), s.passes.Update(ctx, pass))

	found, err := s.passes.FindByToken(ctx, "tok-1")
	require.NoError(s.T(), err)
	require.True(s.T(), found.Claimed())
	require.Equal(s.T(), userID, found.UserID)
	require.Equal(s.T(), "sub-123", found.Metadata["google_sub"])
}

func (s *PassStorePostgresSuite) TestListByProject() {
	ctx := context.Background()
	require.NoError(s.T(), s.passes.Create(ctx, s.newPass("tok-1", "serial-1", "")))
	require.NoError(s.T(), s.passes.Create(ctx, s.newPass("tok-2", "serial-2", "")))

	passes, err := s.passes.ListByProject(ctx, s.projectID)
	require.NoError(s.T(), err)
	require.Len(s.T(), passes, 2)
}
