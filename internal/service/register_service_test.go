package service

import (
	"context"
	"testing"

	"tillpos/internal/apperror"
	"tillpos/internal/dto"
	"tillpos/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRegisterFixture() (RegisterService, *stubRegisterRepo, *stubSessionRepo) {
	registers := newStubRegisterRepo()
	sessions := newStubSessionRepo()
	return NewRegisterService(registers, sessions, "ARS"), registers, sessions
}

func TestCreateRegister_DefaultCurrency(t *testing.T) {
	svc, _, _ := newRegisterFixture()

	resp, err := svc.Create(context.Background(), dto.CreateRegisterRequest{
		Name:           "Till 2",
		OpeningBalance: dec("500.00"),
	})
	require.NoError(t, err)

	assert.Equal(t, "ARS", resp.Currency)
	assert.True(t, resp.CurrentBalance.Equal(dec("500.00")))
	assert.True(t, resp.IsActive)
	assert.Nil(t, resp.OpenSessionID)
}

func TestRegisterResponse_ExposesOpenSession(t *testing.T) {
	svc, registers, sessions := newRegisterFixture()
	reg := &model.Register{ID: uuid.New(), Name: "Till 1", Currency: "ARS", IsActive: true}
	require.NoError(t, registers.Create(context.Background(), reg))

	session := &model.Session{
		ID:         uuid.New(),
		RegisterID: reg.ID,
		Status:     model.SessionOpen,
		Currency:   "ARS",
		OpenedBy:   uuid.New(),
	}
	require.NoError(t, sessions.Create(context.Background(), session))

	resp, err := svc.Get(context.Background(), reg.ID)
	require.NoError(t, err)
	require.NotNil(t, resp.OpenSessionID)
	assert.Equal(t, session.ID.String(), *resp.OpenSessionID)
}

func TestDeactivateRegister_RefusedWhileSessionOpen(t *testing.T) {
	svc, registers, sessions := newRegisterFixture()
	reg := &model.Register{ID: uuid.New(), Name: "Till 1", Currency: "ARS", IsActive: true}
	require.NoError(t, registers.Create(context.Background(), reg))
	require.NoError(t, sessions.Create(context.Background(), &model.Session{
		ID:         uuid.New(),
		RegisterID: reg.ID,
		Status:     model.SessionOpen,
		Currency:   "ARS",
		OpenedBy:   uuid.New(),
	}))

	err := svc.Deactivate(context.Background(), reg.ID)
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindInvalidState))

	// Still active.
	got, err := registers.FindByID(context.Background(), reg.ID)
	require.NoError(t, err)
	assert.True(t, got.IsActive)
}

func TestDeactivateRegister_AllowedWhenClosed(t *testing.T) {
	svc, registers, _ := newRegisterFixture()
	reg := &model.Register{ID: uuid.New(), Name: "Till 1", Currency: "ARS", IsActive: true}
	require.NoError(t, registers.Create(context.Background(), reg))

	require.NoError(t, svc.Deactivate(context.Background(), reg.ID))
	got, err := registers.FindByID(context.Background(), reg.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	require.NoError(t, svc.Reactivate(context.Background(), reg.ID))
	got, err = registers.FindByID(context.Background(), reg.ID)
	require.NoError(t, err)
	assert.True(t, got.IsActive)
}

func TestGetRegister_NotFound(t *testing.T) {
	svc, _, _ := newRegisterFixture()
	_, err := svc.Get(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}
