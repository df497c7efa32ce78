// Package bastion is a two-level authorization core for multi-tenant
// platforms.
//
// A request is first checked against the global policy table, which decides
// whether the actor's global role may perform an action on a resource class
// at all. Only when that passes is the actor's tenant role consulted for the
// fine-grained permissions the caller requires.
//
//	eng, err := bastion.NewEngine(
//	    bastion.WithPolicy(policy.Default()),
//	    bastion.WithStore(memory.New()),
//	)
//	result, err := eng.Authorize(ctx, &bastion.Request{
//	    Actor:       actor,
//	    Resource:    "rfqs",
//	    Action:      "read",
//	    Permissions: []string{"view_rfqs"},
//	})
package bastion

import (
	"github.com/xraph/bastion/assignment"
	"github.com/xraph/bastion/principal"
)

// Actor is the authenticated identity being authorized.
type Actor = principal.Actor

// GlobalRole is a platform-wide role.
type GlobalRole = principal.GlobalRole

// Assignment is the actor's tenant role reference.
type Assignment = assignment.Assignment

// Request is the input to an authorization decision. Permissions lists the
// tenant permissions the operation requires, checked in order.
type Request struct {
	Actor       *Actor   `json:"actor"`
	Resource    string   `json:"resource"`
	Action      string   `json:"action"`
	Permissions []string `json:"permissions,omitempty"`
}

// Decision is the authorization outcome.
type Decision string

const (
	// DecisionAllow means the request is permitted.
	DecisionAllow Decision = "allow"

	// DecisionDenyGlobal means the global policy does not grant the
	// actor's role the action on the resource.
	DecisionDenyGlobal Decision = "deny_global"

	// DecisionDenyTenantPermission means the actor's tenant role lacks a
	// required permission. A missing or inactive role lacks every
	// permission.
	DecisionDenyTenantPermission Decision = "deny_tenant_permission"

	// DecisionDenyTenantRoleUnavailable means the assigned tenant role could
	// not be read from the store.
	DecisionDenyTenantRoleUnavailable Decision = "deny_tenant_role_unavailable"
)

// Stage names the layer that produced a decision.
type Stage string

const (
	// StageGlobal means the global policy check decided.
	StageGlobal Stage = "global"

	// StageTenant means the decision passed the global check and was
	// settled at the tenant layer.
	StageTenant Stage = "tenant"
)

// Result is the outcome of an authorization decision.
type Result struct {
	Allowed           bool     `json:"allowed"`
	Decision          Decision `json:"decision"`
	Reason            string   `json:"reason,omitempty"`
	Stage             Stage    `json:"stage"`
	MissingPermission string   `json:"missing_permission,omitempty"`
	EvalTimeNs        int64    `json:"eval_time_ns"`
}
