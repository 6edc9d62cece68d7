package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/loom-ml/loom-api-types/misc/rfctime"
	apiruns "github.com/loom-ml/loom-api-types/runs"
	apitags "github.com/loom-ml/loom-api-types/tags"
	apierr "github.com/loom-ml/loom/pkg/api/errors"
	"github.com/loom-ml/loom/pkg/domain"
	domerr "github.com/loom-ml/loom/pkg/domain/errors"
	kdb "github.com/loom-ml/loom/pkg/domain/tracking/db"
)

func composeDetail(run domain.RunBody) apiruns.Detail {
	var exit *apiruns.Exit
	if run.Exit != nil {
		exit = &apiruns.Exit{Code: run.Exit.Code, Message: run.Exit.Message}
	}

	checkpoints := make([]apiruns.Checkpoint, 0, len(run.Checkpoints))
	for _, cp := range run.Checkpoints {
		checkpoints = append(checkpoints, apiruns.Checkpoint{
			Name:      cp.Name,
			Size:      cp.Size,
			UpdatedAt: rfctime.RFC3339(cp.UpdatedAt),
		})
	}

	return apiruns.Detail{
		Summary: apiruns.Summary{
			RunId:      run.Id,
			Experiment: run.Experiment,
			Status:     string(run.Status),
			UpdatedAt:  rfctime.RFC3339(run.UpdatedAt),
			Exit:       exit,
		},
		ParentRunId: run.ParentId,
		Tags:        apitags.FromMap(run.Tags),
		Checkpoints: checkpoints,
	}
}

func RegisterRunHandler(dbRun kdb.RunInterface) echo.HandlerFunc {

	return func(c echo.Context) error {
		c.Response().Header().Add("Content-Type", "application/json")

		spec := apiruns.RunSpec{}
		if err := c.Bind(&spec); err != nil {
			return apierr.BadRequest("request body should be a run spec", err)
		}
		if spec.RunId == "" {
			return apierr.BadRequest(`"runId" is required`, nil)
		}
		if spec.Experiment == "" {
			return apierr.BadRequest(`"experiment" is required`, nil)
		}

		ctx := c.Request().Context()
		err := dbRun.Register(ctx, domain.RunBody{
			Id:         spec.RunId,
			Experiment: spec.Experiment,
			ParentId:   spec.ParentRunId,
			Tags:       apitags.ToMap(spec.Tags),
		})
		if errors.Is(err, domerr.ErrConflict) {
			return apierr.Conflict(
				"run "+spec.RunId+" already exists", apierr.WithError(err),
			)
		}
		if err != nil {
			return apierr.InternalServerError(err)
		}

		registered, err := dbRun.Get(ctx, spec.RunId)
		if err != nil {
			return apierr.InternalServerError(err)
		}

		return c.JSON(http.StatusOK, composeDetail(registered))
	}
}

func GetRunHandler(dbRun kdb.RunInterface, paramRunId string) echo.HandlerFunc {

	return func(c echo.Context) error {
		c.Response().Header().Add("Content-Type", "application/json")
		runId := c.Param(paramRunId)
		ctx := c.Request().Context()

		run, err := dbRun.Get(ctx, runId)
		if errors.Is(err, domerr.ErrMissing) {
			return apierr.NotFound()
		}
		if err != nil {
			return apierr.InternalServerError(err)
		}

		return c.JSON(http.StatusOK, composeDetail(run))
	}
}

func SetRunStatusHandler(dbRun kdb.RunInterface, paramRunId string) echo.HandlerFunc {

	return func(c echo.Context) error {
		c.Response().Header().Add("Content-Type", "application/json")
		runId := c.Param(paramRunId)

		change := apiruns.StatusChange{}
		if err := c.Bind(&change); err != nil {
			return apierr.BadRequest("request body should be a status change", err)
		}
		status := domain.RunStatus(change.Status)
		if !status.Valid() {
			return apierr.BadRequest(
				`"status" should be one of "registered", "running", "done" or "failed"`,
				nil,
			)
		}
		var exit *domain.RunExit
		if change.Exit != nil {
			exit = &domain.RunExit{Code: change.Exit.Code, Message: change.Exit.Message}
		}

		ctx := c.Request().Context()
		err := dbRun.SetStatus(ctx, runId, status, exit)
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
