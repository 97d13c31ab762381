package service_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	passModel "cartera/internal/pass/models"
	"cartera/internal/pass/service"
	passStore "cartera/internal/pass/store"
	projectModel "cartera/internal/project/models"
	projectService "cartera/internal/project/service"
	projectStore "cartera/internal/project/store"
	id "cartera/pkg/domain"
	dErrors "cartera/pkg/domain-errors"
	"cartera/pkg/requestcontext"
)

const canonicalOrigin = "https://cards.example.com"

type PassServiceSuite struct {
	suite.Suite
	ctx     context.Context
	now     time.Time
	service *service.Service
	project *projectModel.Project
}

func (s *PassServiceSuite) SetupTest() {
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)

	projects := projectService.New(projectStore.NewInMemory(), projectStore.NewInMemory())
	project, err := projects.Create(s.ctx, projectModel.CreateProjectInput{
		Name:             "Cafe Aurora",
		ClaimURLTemplate: "/claim/{projectId}/{googleSub}",
	})
	s.Require().NoError(err)
	s.project = project

	s.service = service.New(passStore.NewInMemoryPassStore(), projects, canonicalOrigin)
}

func TestPassServiceSuite(t *testing.T) {
	suite.Run(t, new(PassServiceSuite))
}

func (s *PassServiceSuite) TestIssueGeneratesTokens() {
	pass, err := s.service.Issue(s.ctx, passModel.IssueInput{ProjectID: s.project.ID})
	s.Require().NoError(err)
	s.NotEmpty(pass.PassToken)
	s.NotEmpty(pass.SerialNumber)
	s.NotEmpty(pass.ClaimCode)
	s.False(pass.Claimed())
}

func (s *PassServiceSuite) TestGetBySerial() {
	pass, err := s.service.Issue(s.ctx, passModel.IssueInput{ProjectID: s.project.ID})
	s.Require().NoError(err)

	found, err := s.service.GetBySerial(s.ctx, pass.SerialNumber)
	s.Require().NoError(err)
	s.Equal(pass.PassToken, found.PassToken)

	_, err = s.service.GetBySerial(s.ctx, "missing-serial")
	s.Require().ErrorIs(err, dErrors.New(dErrors.CodeNotFound, "pass not found"))
}

func (s *PassServiceSuite) TestIssueRejectsUnknownProject() {
	_, err := s.service.Issue(s.ctx, passModel.IssueInput{ProjectID: id.ProjectID(uuid.New())})
	require.ErrorIs(s.T(), err, dErrors.New(dErrors.CodeNotFound, "project not found"))
}

func (s *PassServiceSuite) TestResolveDestination() {
	pass, err := s.service.Issue(s.ctx, passModel.IssueInput{ProjectID: s.project.ID, ClaimCode: "9f3a"})
	s.Require().NoError(err)

	s.Run("maps a claim code to destination and token", func() {
		destination, err := s.service.ResolveDestination(s.ctx, "9f3a")
		s.Require().NoError(err)
		s.Equal(pass.PassToken, destination.PassToken)
		s.Equal(canonicalOrigin+"/claim/"+s.project.ID.String()+"/me", destination.URL)
	})

	s.Run("rejects an unknown code", func() {
		_, err := s.service.ResolveDestination(s.ctx, "nope")
		require.ErrorIs(s.T(), err, dErrors.New(dErrors.CodeNotFound, "unknown claim code"))
	})

	s.Run("rejects an empty code", func() {
		_, err := s.service.ResolveDestination(s.ctx, "  ")
		require.ErrorIs(s.T(), err, dErrors.New(dErrors.CodeBadRequest, "claim code is required"))
	})
}

type failingPublisher struct{}

func (failingPublisher) Publish(context.Context, string, string, any) error {
	return errors.New("broker down")
}

func (s *PassServiceSuite) TestBindOwnerSurvivesPublishFailure() {
	pass, err := s.service.Issue(s.ctx, passModel.IssueInput{ProjectID: s.project.ID})
	s.Require().NoError(err)

	var logs bytes.Buffer
	s.service.SetLogger(slog.New(slog.NewTextHandler(&logs, nil)))
	s.service.SetPublisher(failingPublisher{})

	bound, err := s.service.BindOwner(s.ctx, pass.PassToken, id.UserID(uuid.New()),
		passModel.OwnerMetadata{GoogleSub: "sub-1"})
	s.Require().NoError(err)
	s.True(bound.Claimed())
	s.Contains(logs.String(), "pass claimed event publish failed")
}

func (s *PassServiceSuite) TestBindOwner() {
	pass, err := s.service.Issue(s.ctx, passModel.IssueInput{ProjectID: s.project.ID})
	s.Require().NoError(err)
	userID := id.UserID(uuid.New())

	s.Run("requires a google subject", func() {
		_, err := s.service.BindOwner(s.ctx, pass.PassToken, userID, passModel.OwnerMetadata{Email: "a@b.c"})
		require.ErrorIs(s.T(), err, dErrors.New(dErrors.CodeInvariantViolation, "google subject is required"))
	})

	s.Run("stamps owner metadata", func() {
		bound, err := s.service.BindOwner(s.ctx, pass.PassToken, userID, passModel.OwnerMetadata{
			GoogleSub: "sub-1",
			Email:     "ana@example.com",
			Name:      "Ana",
		})
		s.Require().NoError(err)
		s.True(bound.Claimed())
		s.Equal("sub-1", bound.Metadata["google_sub"])
		s.Equal("ana@example.com", bound.Metadata["email"])
		s.Equal(userID.String(), bound.Metadata["user_id"])
		s.Equal(s.now.Format(time.RFC3339), bound.Metadata["claimed_at"])
	})

	s.Run("is idempotent for the same user", func() {
		_, err := s.service.BindOwner(s.ctx, pass.PassToken, userID, passModel.OwnerMetadata{GoogleSub: "sub-1"})
		s.Require().NoError(err)
	})

	s.Run("rejects a second claimer", func() {
		_, err := s.service.BindOwner(s.ctx, pass.PassToken, id.UserID(uuid.New()), passModel.OwnerMetadata{GoogleSub: "sub-2"})
		require.ErrorIs(s.T(), err, dErrors.New(dErrors.CodeConflict, "pass already claimed by another user"))
	})
}

func (s *PassServiceSuite) TestFillClaimTemplate() {
	projectID := s.project.ID

	s.Run("prefixes relative templates with the canonical origin", func() {
		got := s.service.FillClaimTemplate("/claim/{projectId}/{googleSub}", projectID, "sub-1")
		s.Equal(canonicalOrigin+"/claim/"+projectID.String()+"/sub-1", got)
	})

	s.Run("substitutes me when the subject is unknown", func() {
		got := s.service.FillClaimTemplate("/claim/{projectId}/{googleSub}", projectID, "")
		s.Equal(canonicalOrigin+"/claim/"+projectID.String()+"/me", got)
	})

	s.Run("rewrites foreign origins to the canonical one", func() {
		got := s.service.FillClaimTemplate("https://old.example.org/claim/{projectId}/{googleSub}", projectID, "sub-1")
		s.Equal(canonicalOrigin+"/claim/"+projectID.String()+"/sub-1", got)
	})

	s.Run("keeps canonical absolute templates untouched", func() {
		template := canonicalOrigin + "/claim/{projectId}/{googleSub}"
		got := s.service.FillClaimTemplate(template, projectID, "sub-1")
		s.Equal(canonicalOrigin+"/claim/"+projectID.String()+"/sub-1", got)
	})

	s.Run("returns empty for an empty template", func() {
		s.Equal("", s.service.FillClaimTemplate("", projectID, "sub-1"))
	})
}
