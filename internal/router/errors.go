package router

import "errors"

var (
	ErrCustomerNotFound   = errors.New("customer not found")
	ErrCustomerNotWaiting = errors.New("customer is not in the waiting queue")
	ErrAgentNotFound      = errors.New("agent not found")
	ErrAgentUnavailable   = errors.New("agent is not available")
	ErrAgentSaturated     = errors.New("agent is at maximum concurrent capacity")
	ErrResultNotFound     = errors.New("routing result not found")
	ErrResultNotActive    = errors.New("routing result is not active")
)
