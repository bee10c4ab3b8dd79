package service

import (
	"context"
	"errors"
	"testing"

	"github.com/filesmanager/filesmanager/internal/model"
	"github.com/filesmanager/filesmanager/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	e := newEnv(t)
	svc := NewUserService(e.users, e.jobs)
	ctx := context.Background()

	user, err := svc.Register(ctx, validation.UserInput{Email: "bob@dylan.com", Password: "toto1234!"})
	require.NoError(t, err)
	assert.NotEqual(t, "toto1234!", user.PasswordHash)
	assert.NoError(t, ComparePassword("toto1234!", user.PasswordHash))

	require.Len(t, e.jobs.jobs, 1)
	assert.Equal(t, model.QueueUser, e.jobs.jobs[0].queue)
	assert.Equal(t, model.WelcomeJob{UserID: user.ID}, e.jobs.jobs[0].payload)

	_, err = svc.Register(ctx, validation.UserInput{Email: "bob@dylan.com", Password: "other"})
	var vErr *validation.Error
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, validation.MsgEmailAlreadyExist, vErr.Message)
}

func TestMe(t *testing.T) {
	e := newEnv(t)
	svc := NewUserService(e.users, e.jobs)
	ctx := context.Background()

	user, err := svc.Register(ctx, validation.UserInput{Email: "bob@dylan.com", Password: "toto1234!"})
	require.NoError(t, err)

	got, err := svc.Me(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "bob@dylan.com", got.Email)

	_, err = svc.Me(ctx, "missing")
	assert.ErrorIs(t, err, ErrUnauthorized)
}
