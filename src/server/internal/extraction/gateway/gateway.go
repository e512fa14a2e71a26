package extractiongateway

import (
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/k0jin/acapella-maker/src/server/internal/errors/api"
	"github.com/k0jin/acapella-maker/src/server/internal/errors/gateway"
	"github.com/k0jin/acapella-maker/src/server/internal/extraction/errors"
	"github.com/k0jin/acapella-maker/src/server/internal/extraction/usecase"
	"github.com/k0jin/acapella-maker/src/server/internal/lib/request"
	"github.com/k0jin/acapella-maker/src/shared/extraction/entity"
	"github.com/labstack/echo/v4"
)

type Gateway struct {
	usecase extractionusecase.Usecase
}

func NewGateway(usecase extractionusecase.Usecase) Gateway {
	return Gateway{
		usecase: usecase,
	}
}

func (g Gateway) GetExtraction(c echo.Context, extractionID string) error {
	ctx := request.Context(c)

	extraction, apiErr := g.usecase.GetExtraction(ctx, extractionID)
	if apiErr != nil {
		apiErr = api.WrapError(apiErr, "Failed to get extraction")
		return gateway.ErrorResponse(c, apiErr)
	}

	return c.JSON(http.StatusOK, extraction)
}

func (g Gateway) CreateExtraction(c echo.Context) error {
	ctx := request.Context(c)

	extraction := extractionentity.Extraction{}
	err := c.Bind(&extraction)
	if err != nil {
		err = errors.Wrap(err, "Failed to bind request body to extraction object")
		apiErr := api.CommitError(err,
			extractionerrors.BadExtractionDataCode,
			"The extraction data received was malformed. Please contact the developer")
		return gateway.ErrorResponse(c, apiErr)
	}

	createdExtraction, apiErr := g.usecase.CreateExtraction(ctx, extraction)
	if apiErr != nil {
		return gateway.ErrorResponse(c, apiErr)
	}

	return c.JSON(http.StatusAccepted, createdExtraction)
}
