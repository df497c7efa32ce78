package api

import "github.com/xraph/bastion"

// CheckResponse is the response for an authorization check.
type CheckResponse struct {
	Allowed           bool   `json:"allowed" description:"Whether the request is allowed"`
	Decision          string `json:"decision" description:"Decision code"`
	Reason            string `json:"reason,omitempty" description:"Human-readable reason"`
	Stage             string `json:"stage" description:"Layer that decided (global, tenant)"`
	MissingPermission string `json:"missing_permission,omitempty" description:"First tenant permission found missing"`
	EvalTimeNs        int64  `json:"eval_time_ns" description:"Evaluation time in nanoseconds"`
}

// ListResponse wraps a list of items with pagination metadata.
type ListResponse[T any] struct {
	Items  []T   `json:"items" description:"List of items"`
	Total  int64 `json:"total" description:"Total count"`
	Limit  int   `json:"limit" description:"Page size"`
	Offset int   `json:"offset" description:"Page offset"`
}

func toCheckResponse(r *bastion.Result) *CheckResponse {
	return &CheckResponse{
		Allowed:           r.Allowed,
		Decision:          string(r.Decision),
		Reason:            r.Reason,
		Stage:             string(r.Stage),
		MissingPermission: r.MissingPermission,
		EvalTimeNs:        r.EvalTimeNs,
	}
}

// BatchCheckResponse carries one result per requested check, in order.
type BatchCheckResponse struct {
	Results []CheckResponse `json:"results" description:"Check results"`
}
