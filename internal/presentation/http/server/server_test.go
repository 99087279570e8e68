package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/connectingdots/erp-backend/internal/application/container"
	"github.com/connectingdots/erp-backend/internal/infrastructure/observability/logging"
	"github.com/connectingdots/erp-backend/internal/infrastructure/persistence/database"
	"github.com/connectingdots/erp-backend/internal/infrastructure/security"
	"github.com/connectingdots/erp-backend/pkg/config"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServerServesRoutesAndStops(t *testing.T) {
	gin.SetMode(gin.TestMode)
	config.MediaDir = t.TempDir()

	db, err := database.NewInMemory("server_" + security.GenerateULID())
	require.NoError(t, err)
	defer db.Close()

	c := container.NewContainer(db, nil, nil, logging.NewDiscardLogger(), nil)
	srv := New("0", c)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/ping", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, config.ServerReadTimeout, srv.httpServer.ReadTimeout)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, srv.Stop(ctx))
}
