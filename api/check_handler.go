package api

import (
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/bastion"
	"github.com/xraph/bastion/middleware"
)

func (a *API) registerCheckRoutes(router forge.Router) error {
	g := router.Group("/v1/authz", forge.WithGroupTags("authorization"))

	if err := g.POST("/check", a.check,
		forge.WithSummary("Authorization check"),
		forge.WithDescription("Evaluates whether the calling actor can perform the action on the resource with the listed tenant permissions."),
		forge.WithOperationID("authzCheck"),
		forge.WithRequestSchema(CheckRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Check result", CheckResponse{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.POST("/enforce", a.enforce,
		forge.WithSummary("Enforce authorization"),
		forge.WithDescription("Returns 200 if allowed, 403 if denied."),
		forge.WithOperationID("authzEnforce"),
		forge.WithRequestSchema(CheckRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Allowed", CheckResponse{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.POST("/batch-check", a.batchCheck,
		forge.WithSummary("Batch authorization check"),
		forge.WithDescription("Evaluates multiple checks for the calling actor in one request."),
		forge.WithOperationID("authzBatchCheck"),
		forge.WithRequestSchema(BatchCheckRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Batch results", BatchCheckResponse{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) check(ctx forge.Context, req *CheckRequest) (*CheckResponse, error) {
	result, err := a.authorize(ctx, req)
	if result == nil {
		return nil, err
	}
	resp := toCheckResponse(result)
	return resp, ctx.JSON(http.StatusOK, resp)
}

func (a *API) enforce(ctx forge.Context, req *CheckRequest) (*CheckResponse, error) {
	result, err := a.authorize(ctx, req)
	if result == nil {
		return nil, err
	}
	resp := toCheckResponse(result)
	if !result.Allowed {
		return resp, ctx.JSON(http.StatusForbidden, resp)
	}
	return resp, ctx.JSON(http.StatusOK, resp)
}

func (a *API) batchCheck(ctx forge.Context, req *BatchCheckRequest) (*BatchCheckResponse, error) {
	if len(req.Checks) == 0 {
		return nil, forge.BadRequest("checks cannot be empty")
	}

	actor, err := a.resolve(ctx)
	if err != nil {
		return nil, middleware.WriteError(ctx, err)
	}

	results := make([]CheckResponse, len(req.Checks))
	for i := range req.Checks {
		c := &req.Checks[i]
		result, err := a.eng.Authorize(ctx.Context(), toRequest(actor, c))
		if err != nil {
			return nil, mapError(err)
		}
		results[i] = *toCheckResponse(result)
	}

	resp := &BatchCheckResponse{Results: results}
	return resp, ctx.JSON(http.StatusOK, resp)
}

// authorize evaluates req for the calling actor. A nil result means the
// response has already been decided.
func (a *API) authorize(ctx forge.Context, req *CheckRequest) (*bastion.Result, error) {
	if req.Resource == "" || req.Action == "" {
		return nil, forge.BadRequest("resource and action are required")
	}
	actor, err := a.resolve(ctx)
	if err != nil {
		return nil, middleware.WriteError(ctx, err)
	}
	result, err := a.eng.Authorize(ctx.Context(), toRequest(actor, req))
	if err != nil {
		return nil, middleware.WriteError(ctx, err)
	}
	return result, nil
}

func toRequest(actor *bastion.Actor, r *CheckRequest) *bastion.Request {
	return &bastion.Request{
		Actor:       actor,
		Resource:    r.Resource,
		Action:      r.Action,
		Permissions: r.Permissions,
	}
}
