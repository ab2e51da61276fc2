package app_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexandresoro/ouca-sub007/internal/app"
	"github.com/alexandresoro/ouca-sub007/internal/config"
)

func TestRedactDSN(t *testing.T) {
	assert.Equal(t, "postgres://ouca:****@db:5432/ouca?sslmode=disable",
		app.RedactDSN("postgres://ouca:s3cr3t@db:5432/ouca?sslmode=disable"))
	assert.Equal(t, "postgres://db:5432/ouca", app.RedactDSN("postgres://db:5432/ouca"))
}

func TestNewUploads_Local(t *testing.T) {
	ctx := context.Background()
	uploads, err := app.NewUploads(ctx, config.UploadOptions{Backend: config.UploadLocal, Dir: t.TempDir()})
	require.NoError(t, err)

	id := uuid.NewString()
	require.NoError(t, uploads.Put(ctx, id, []byte("Alice\n")))
	got, err := uploads.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []byte("Alice\n"), got)
}
