package gateway

import (
	"context"
	"fmt"

	"transit-ticketing/internal/utils"
)

// Stub is a deterministic in-process gateway for local runs and tests. The
// outcome is fixed at construction instead of rolled per call, so tests can
// assert on both paths.
type Stub struct {
	Approves      bool
	DeclineReason string
}

func NewStub(approves bool) *Stub {
	return &Stub{Approves: approves, DeclineReason: "card declined"}
}

func (s *Stub) Name() string { return "Mock Gateway" }

func (s *Stub) Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", ErrGateway, ctx.Err())
	default:
	}

	if !s.Approves {
		return &ChargeResult{Approved: false, Reason: s.DeclineReason}, nil
	}
	return &ChargeResult{
		Approved:      true,
		TransactionID: utils.GenerateTransactionID(),
	}, nil
}
