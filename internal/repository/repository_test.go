package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/astra-care/internal/database/dbtest"
	"github.com/iliyamo/astra-care/internal/model"
	"github.com/iliyamo/astra-care/internal/utils"
)

func TestUserRepo(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepo(dbtest.New(t))

	u := model.User{Email: "  Ada@Station.io ", FullName: "Ada", Role: model.RoleAstronaut, AstronautID: "AST-001"}
	require.NoError(t, repo.Create(ctx, &u, "pw-123456", bcrypt.MinCost))
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "ada@station.io", u.Email)

	dup := model.User{Email: "ada@station.io", FullName: "Other", Role: model.RoleMedical, AstronautID: "AST-002"}
	assert.ErrorIs(t, repo.Create(ctx, &dup, "pw", bcrypt.MinCost), ErrEmailExists)

	rec, err := repo.GetByEmail(ctx, "ADA@station.io")
	require.NoError(t, err)
	assert.Equal(t, u.ID, rec.ID)
	assert.True(t, utils.VerifyPassword(rec.PasswordHash, "pw-123456"))
	assert.Nil(t, rec.LastLogin)

	now := time.Now().UTC().Truncate(time.Microsecond)
	require.NoError(t, repo.TouchLogin(ctx, u.ID, now))
	name, avatar := "Ada L.", "https://img/ada.png"
	got, err := repo.UpdateProfile(ctx, u.ID, model.ProfileUpdate{FullName: &name, AvatarURL: &avatar})
	require.NoError(t, err)
	assert.Equal(t, "Ada L.", got.FullName)
	require.NotNil(t, got.AvatarURL)
	assert.Equal(t, avatar, *got.AvatarURL)
	require.NotNil(t, got.LastLogin)
	assert.True(t, now.Equal(*got.LastLogin))

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestVitalsRepo(t *testing.T) {
	ctx := context.Background()
	repo := NewVitalsRepo(dbtest.New(t))

	latest, err := repo.Latest(ctx, "AST-001")
	require.NoError(t, err)
	assert.Nil(t, latest)

	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	batch := []model.VitalsSample{
		{AstronautID: "AST-001", HeartRate: 70, HRV: 50, StressLevel: 30, FatigueLevel: 20, Source: model.SourceSimulated, Confidence: 0.9, Timestamp: base.Add(2 * time.Hour)},
		{AstronautID: "AST-001", HeartRate: 72, HRV: 48, StressLevel: 35, FatigueLevel: 25, Source: model.SourceSimulated, Confidence: 0.9, Timestamp: base},
		{AstronautID: "AST-002", HeartRate: 80, HRV: 40, StressLevel: 50, FatigueLevel: 40, Source: model.SourceManual, Confidence: 1, Timestamp: base},
	}
	require.NoError(t, repo.InsertBatch(ctx, batch))

	latest, err = repo.Latest(ctx, "AST-001")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, 70.0, latest.HeartRate)
	assert.Equal(t, []string{}, latest.Validation.Issues)

	since, err := repo.Since(ctx, "AST-001", base)
	require.NoError(t, err)
	require.Len(t, since, 2)
	assert.True(t, since[0].Timestamp.Before(since[1].Timestamp))

	ids, err := repo.Subjects(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"AST-001", "AST-002"}, ids)
}

func TestBaselineAndContextUpsert(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)
	baselines, contexts := NewBaselineRepo(db), NewContextRepo(db)

	_, err := baselines.Get(ctx, "AST-001")
	assert.ErrorIs(t, err, ErrNotFound)

	b := model.DefaultBaseline("AST-001")
	b.UpdatedAt = time.Now()
	require.NoError(t, baselines.Upsert(ctx, &b))
	b.HRBaseline, b.IsDefault, b.DataPoints = 64, false, 12
	require.NoError(t, baselines.Upsert(ctx, &b))
	got, err := baselines.Get(ctx, "AST-001")
	require.NoError(t, err)
	assert.Equal(t, 64.0, got.HRBaseline)
	assert.False(t, got.IsDefault)
	assert.Equal(t, 12, got.DataPoints)

	m := model.DefaultMissionContext("AST-001")
	require.NoError(t, contexts.Upsert(ctx, m))
	m.MissionPhase = "eva"
	m.DaysSinceLaunch = 40
	require.NoError(t, contexts.Upsert(ctx, m))
	mc, err := contexts.Get(ctx, "AST-001")
	require.NoError(t, err)
	assert.Equal(t, "eva", mc.MissionPhase)
	assert.Equal(t, 40, mc.DaysSinceLaunch)
}

func TestAlertRepo(t *testing.T) {
	ctx := context.Background()
	repo := NewAlertRepo(dbtest.New(t))

	older := model.Alert{AstronautID: "AST-001", Level: 1, Message: "first", CreatedAt: time.Now().Add(-time.Minute)}
	newer := model.Alert{AstronautID: "AST-001", Level: 2, Message: "second",
		Factors: []model.AlertFactor{{Factor: "stress", Message: "Stress level elevated"}}, Recommendations: []string{"Rest"}}
	require.NoError(t, repo.Create(ctx, &older))
	require.NoError(t, repo.Create(ctx, &newer))

	active, err := repo.List(ctx, "AST-001", model.AlertActive, 20)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, newer.ID, active[0].ID)
	assert.Equal(t, "Stress level elevated", active[0].Factors[0].Message)

	require.NoError(t, repo.SetStatus(ctx, older.ID, "AST-001", model.AlertDismissed, "u-1", time.Now()))
	assert.ErrorIs(t, repo.SetStatus(ctx, older.ID, "AST-002", model.AlertDismissed, "u-1", time.Now()), ErrNotFound)

	active, err = repo.List(ctx, "AST-001", model.AlertActive, 20)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	all, err := repo.List(ctx, "AST-001", StatusAll, 20)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	got, err := repo.Get(ctx, older.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AlertDismissed, got.Status)
	assert.Equal(t, "u-1", got.AcknowledgedBy)
	assert.NotNil(t, got.AcknowledgedAt)
}

func TestChatRepoChronological(t *testing.T) {
	ctx := context.Background()
	repo := NewChatRepo(dbtest.New(t))
	start := time.Now().Add(-time.Hour)
	for i, msg := range []string{"one", "two", "three"} {
		reply := "re: " + msg
		c := model.ChatExchange{AstronautID: "AST-001", SessionID: "AST-001-20260301", UserMessage: msg,
			AssistantResponse: &reply, Timestamp: start.Add(time.Duration(i) * time.Minute)}
		require.NoError(t, repo.Insert(ctx, &c))
	}
	got, err := repo.Recent(ctx, "AST-001", "", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "two", got[0].UserMessage)
	assert.Equal(t, "three", got[1].UserMessage)
	assert.Equal(t, "re: three", *got[1].AssistantResponse)

	bySession, err := repo.Recent(ctx, "AST-001", "AST-001-20260301", 6)
	require.NoError(t, err)
	assert.Len(t, bySession, 3)

	other, err := repo.Recent(ctx, "AST-002", "AST-001-20260301", 6)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestFacialRepo(t *testing.T) {
	ctx := context.Background()
	repo := NewFacialRepo(dbtest.New(t))
	hr, mood := 72.5, "calm"
	f := model.FacialAnalysis{AstronautID: "AST-001", Timestamp: time.Now().UTC(), Disclaimer: model.FacialDisclaimer,
		VitalEstimates: model.VitalEstimates{HeartRate: &hr}, MentalIndicators: model.MentalIndicators{MoodState: &mood},
		ConfidenceScores: map[string]float64{"overall": 0.8}}
	require.NoError(t, repo.Insert(ctx, &f))

	got, err := repo.Latest(ctx, "AST-001")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, f.ID, got.ID)
	assert.Equal(t, 72.5, *got.VitalEstimates.HeartRate)
	assert.Equal(t, "calm", *got.MentalIndicators.MoodState)
	assert.Equal(t, 0.8, got.ConfidenceScores["overall"])

	none, err := repo.Latest(ctx, "AST-404")
	require.NoError(t, err)
	assert.Nil(t, none)
}
