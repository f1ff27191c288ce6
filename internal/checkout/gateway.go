package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	DefaultProcessingDelay = 2 * time.Second
	DefaultTimeout         = 10 * time.Second
)

var ErrPaymentDeclined = errors.New("payment declined")

type ChargeRequest struct {
	Amount  decimal.Decimal
	Email   string
	Payment Payment
}

type Receipt struct {
	Reference string
	Last4     string
}

type PaymentGateway interface {
	Charge(ctx context.Context, req ChargeRequest) (Receipt, error)
}

// SimulatedGateway approves every card after Delay except those listed in
// Declined, which model a processor rejection.
type SimulatedGateway struct {
	Delay    time.Duration
	Declined []string
}

// DeclinedTestCard is the conventional "always declined" test number.
const DeclinedTestCard = "4000000000000002"

func NewSimulatedGateway(delay time.Duration) *SimulatedGateway {
	return &SimulatedGateway{Delay: delay, Declined: []string{DeclinedTestCard}}
}

func (g *SimulatedGateway) Charge(ctx context.Context, req ChargeRequest) (Receipt, error) {
	t := time.NewTimer(g.Delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return Receipt{}, fmt.Errorf("payment processing: %w", ctx.Err())
	case <-t.C:
	}

	number := strings.ReplaceAll(req.Payment.CardNumber, " ", "")
	for _, d := range g.Declined {
		if number == d {
			return Receipt{}, ErrPaymentDeclined
		}
	}
	return Receipt{Reference: "sim_" + uuid.NewString(), Last4: req.Payment.Last4()}, nil
}
