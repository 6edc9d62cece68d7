package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	apitags "github.com/loom-ml/loom-api-types/tags"
	apierr "github.com/loom-ml/loom/pkg/api/errors"
	domerr "github.com/loom-ml/loom/pkg/domain/errors"
	kdb "github.com/loom-ml/loom/pkg/domain/tracking/db"
)

func GetTagsForRunHandler(dbRun kdb.RunInterface, paramRunId string) echo.HandlerFunc {

	return func(c echo.Context) error {
		c.Response().Header().Add("Content-Type", "application/json")
		runId := c.Param(paramRunId)
		ctx := c.Request().Context()

		tags, err := dbRun.GetTags(ctx, runId)
		if errors.Is(err, domerr.ErrMissing) {
			return apierr.NotFound()
		}
		if err != nil {
			return apierr.InternalServerError(err)
		}

		return c.JSON(http.StatusOK, apitags.FromMap(tags))
	}
}

func PutTagsForRunHandler(dbRun kdb.RunInterface, paramRunId string) echo.HandlerFunc {

	return func(c echo.Context) error {
		c.Response().Header().Add("Content-Type", "application/json")
		runId := c.Param(paramRunId)

		update := apitags.Update{}
		if err := c.Bind(&update); err != nil {
			return apierr.BadRequest("request body should be a tag update", err)
		}

		ctx := c.Request().Context()
		err := dbRun.UpsertTags(ctx, runId, apitags.ToMap(update.Tags))
		if errors.Is(err, domerr.ErrMissing) {
			return apierr.NotFound()
		}
		if err != nil {
			return apierr.InternalServerError(err)
		}

		run, err := dbRun.Get(ctx, runId)
		if err != nil {
			return apierr.InternalServerError(err)
		}

		return c.JSON(http.StatusOK, composeDetail(run))
	}
}
