package syncserver

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	credentialsapp "github.com/Apurer/storelink-fic-sync/internal/domains/credentials/application"
	credentialsports "github.com/Apurer/storelink-fic-sync/internal/domains/credentials/ports"
)

// CredentialManager is the slice of the credentials service exposed over HTTP.
type CredentialManager interface {
	SaveCredentials(ctx context.Context, apiKey, companyID string) (credentialsapp.Status, error)
	SaveAndTest(ctx context.Context, apiKey, companyID string, tester credentialsports.ConnectionTester) (credentialsapp.Status, error)
	Revoke(ctx context.Context) error
	Status(ctx context.Context) credentialsapp.Status
}

// CredentialsPayload is the body accepted when storing credentials.
type CredentialsPayload struct {
	APIKey    string `json:"apiKey"`
	CompanyID string `json:"companyId"`
}

// CredentialsAPI manages the stored API key and company id.
type CredentialsAPI struct {
	service CredentialManager
	tester  credentialsports.ConnectionTester
}

func NewCredentialsAPI(service CredentialManager, tester credentialsports.ConnectionTester) CredentialsAPI {
	return CredentialsAPI{service: service, tester: tester}
}

// Get /v1/credentials
// Reports whether usable credentials are stored; the key is masked
func (api *CredentialsAPI) GetCredentials(c *gin.Context) {
	c.JSON(http.StatusOK, api.service.Status(c.Request.Context()))
}

// Post /v1/credentials
// Validates and stores credentials
func (api *CredentialsAPI) SaveCredentials(c *gin.Context) {
	var payload CredentialsPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBadRequest(c, err)
		return
	}
	status, err := api.service.SaveCredentials(c.Request.Context(), payload.APIKey, payload.CompanyID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// Delete /v1/credentials
// Removes both stored values
func (api *CredentialsAPI) DeleteCredentials(c *gin.Context) {
	if err := api.service.Revoke(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Post /v1/credentials/test
// Probes the accounting service. With a body the credentials are saved first.
func (api *CredentialsAPI) TestCredentials(c *gin.Context) {
	if api.tester == nil {
		respondError(c, errors.New("connection tester not configured"))
		return
	}
	ctx := c.Request.Context()
	var payload CredentialsPayload
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&payload); err != nil {
			respondBadRequest(c, err)
			return
		}
	}
	if payload.APIKey != "" || payload.CompanyID != "" {
		status, err := api.service.SaveAndTest(ctx, payload.APIKey, payload.CompanyID, api.tester)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"connected": true, "credentials": status})
		return
	}
	if err := api.tester.TestConnection(ctx); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"connected": true, "credentials": api.service.Status(ctx)})
}
