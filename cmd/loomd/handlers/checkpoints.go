package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/loom-ml/loom-api-types/misc/rfctime"
	apiruns "github.com/loom-ml/loom-api-types/runs"
	apierr "github.com/loom-ml/loom/pkg/api/errors"
	"github.com/loom-ml/loom/pkg/domain"
	domerr "github.com/loom-ml/loom/pkg/domain/errors"
	kdb "github.com/loom-ml/loom/pkg/domain/tracking/db"
	"github.com/loom-ml/loom/pkg/domain/tracking/store"
)

func ListCheckpointsOfRunHandler(dbRun kdb.RunInterface, paramRunId string) echo.HandlerFunc {

	return func(c echo.Context) error {
		c.Response().Header().Add("Content-Type", "application/json")
		runId := c.Param(paramRunId)
		ctx := c.Request().Context()

		records, err := dbRun.GetCheckpoints(ctx, runId)
		if errors.Is(err, domerr.ErrMissing) {
			return apierr.NotFound()
		}
		if err != nil {
			return apierr.InternalServerError(err)
		}

		resp := make([]apiruns.Checkpoint, 0, len(records))
		for _, cp := range records {
			resp = append(resp, apiruns.Checkpoint{
				Name:      cp.Name,
				Size:      cp.Size,
				UpdatedAt: rfctime.RFC3339(cp.UpdatedAt),
			})
		}

		return c.JSON(http.StatusOK, resp)
	}
}

func GetCheckpointHandler(blobs *store.Store, paramRunId string, paramName string) echo.HandlerFunc {

	return func(c echo.Context) error {
		runId := c.Param(paramRunId)
		name := c.Param(paramName)

		r, err := blobs.Get(runId, name)
		if errors.Is(err, domerr.ErrMissing) {
			return apierr.NotFound()
		}
		if err != nil {
			return apierr.InternalServerError(err)
		}
		defer r.Close()

		return c.Stream(http.StatusOK, "application/octet-stream", r)
	}
}

func PutCheckpointHandler(
	dbRun kdb.RunInterface, blobs *store.Store, paramRunId string, paramName string,
) echo.HandlerFunc {

	return func(c echo.Context) error {
		c.Response().Header().Add("Content-Type", "application/json")
		runId := c.Param(paramRunId)
		name := c.Param(paramName)

		if err := store.VerifyKey(name); err != nil {
			return apierr.BadRequest("checkpoint name is invalid", err)
		}

		ctx := c.Request().Context()

		// make sure the run exists before accepting the blob.
		if _, err := dbRun.Get(ctx, runId); err != nil {
			if errors.Is(err, domerr.ErrMissing) {
				return apierr.NotFound()
			}
			return apierr.InternalServerError(err)
		}

		size, err := blobs.Put(runId, name, c.Request().Body)
		if err != nil {
			return apierr.InternalServerError(err)
		}

		record := domain.CheckpointRecord{
			Name:      name,
			Size:      size,
			UpdatedAt: time.Now(),
		}
		if err := dbRun.AddCheckpoint(ctx, runId, record); err != nil {
			if errors.Is(err, domerr.ErrMissing) {
				return apierr.NotFound()
			}
			return apierr.InternalServerError(err)
		}

		return c.JSON(http.StatusOK, apiruns.Checkpoint{
			Name:      record.Name,
			Size:      record.Size,
			UpdatedAt: rfctime.RFC3339(record.UpdatedAt),
		})
	}
}
