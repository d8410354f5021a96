package syncserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	credentialsapp "github.com/Apurer/storelink-fic-sync/internal/domains/credentials/application"
	"github.com/Apurer/storelink-fic-sync/internal/shared/errkind"
	apierrors "github.com/Apurer/storelink-fic-sync/internal/shared/errors"
)

var errCredentialsMissing = apierrors.ProblemDetail{
	Type:   "/problems/credentials-not-configured",
	Title:  "Credentials Not Configured",
	Status: http.StatusPreconditionFailed,
}

var responder = apierrors.NewChainedResponder("", credentialsMapper)

func credentialsMapper(err error) (apierrors.ProblemDetail, bool) {
	if errors.Is(err, credentialsapp.ErrNotConfigured) {
		problem := errCredentialsMissing.WithDetail(err.Error())
		problem.Kind = string(errkind.Of(err))
		return problem, true
	}
	return apierrors.ProblemDetail{}, false
}

// respondError renders err as a problem response.
func respondError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	responder.RespondError(c, err)
}

func respondBadRequest(c *gin.Context, err error) {
	responder.BadRequest(c, err.Error())
}

func parseRowParam(c *gin.Context) (int64, bool) {
	value := c.Param("rowId")
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil || id <= 0 {
		responder.BadRequest(c, "rowId must be a positive integer")
		return 0, false
	}
	return id, true
}
