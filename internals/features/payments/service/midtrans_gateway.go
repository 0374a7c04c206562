// file: internals/features/payments/service/midtrans_gateway.go
package service

import (
	"context"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	midtrans "github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
	"gorm.io/gorm"

	helper "miclinica_backend/internals/helpers"
	"miclinica_backend/internals/helpers/apperror"

	apptmodel "miclinica_backend/internals/features/appointments/model"
	"miclinica_backend/internals/features/payments/model"
)

// Gateway wraps the Midtrans Snap client for online card/transfer checkout.
// The payment id doubles as the Midtrans order id.
type Gateway struct {
	db        *gorm.DB
	payments  *Service
	client    snap.Client
	serverKey string
}

func NewGateway(db *gorm.DB, payments *Service, serverKey string, production bool) *Gateway {
	env := midtrans.Sandbox
	if production {
		env = midtrans.Production
	}
	g := &Gateway{db: db, payments: payments, serverKey: serverKey}
	g.client.New(serverKey, env)
	return g
}

type CheckoutResult struct {
	OrderID     string `json:"order_id"`
	Token       string `json:"token"`
	RedirectURL string `json:"redirect_url"`
	Amount      int64  `json:"amount"`
}

// CreateCheckout issues a Snap transaction for the pending payment of an
// appointment that is ready for payment.
func (g *Gateway) CreateCheckout(ctx context.Context, sess helper.Session, appointmentID uuid.UUID) (*CheckoutResult, error) {
	payment, err := g.payments.GetByAppointment(ctx, sess, appointmentID)
	if err != nil {
		return nil, err
	}
	if !payment.IsPending() {
		return nil, apperror.State("payment is not pending")
	}

	var appt apptmodel.Appointment
	if err := g.db.WithContext(ctx).
		First(&appt, "appointment_id = ?", appointmentID).Error; err != nil {
		return nil, err
	}
	if appt.AppointmentStatus != apptmodel.StatusReadyForPayment {
		return nil, apperror.State("appointment is not ready for payment")
	}

	req := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  payment.PaymentID.String(),
			GrossAmt: payment.PaymentAmount,
		},
	}
	resp, mErr := g.client.CreateTransaction(req)
	if mErr != nil {
		return nil, fmt.Errorf("midtrans checkout: %w", mErr)
	}

	return &CheckoutResult{
		OrderID:     payment.PaymentID.String(),
		Token:       resp.Token,
		RedirectURL: resp.RedirectURL,
		Amount:      payment.PaymentAmount,
	}, nil
}

/* ===================== Webhook ===================== */

// Notification is the subset of the Midtrans HTTP notification the webhook
// needs.
type Notification struct {
	OrderID           string `json:"order_id"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
	SignatureKey      string `json:"signature_key"`
	TransactionStatus string `json:"transaction_status"`
	FraudStatus       string `json:"fraud_status"`
}

// VerifySignature checks the sha512 notification signature
// (order_id + status_code + gross_amount + server_key).
func (g *Gateway) VerifySignature(n Notification) bool {
	sum := sha512.Sum512([]byte(n.OrderID + n.StatusCode + n.GrossAmount + g.serverKey))
	expected := hex.EncodeToString(sum[:])
	return subtle.ConstantTimeCompare([]byte(expected), []byte(n.SignatureKey)) == 1
}

// IsSettled reports whether the notification means the money arrived.
func (n Notification) IsSettled() bool {
	switch n.TransactionStatus {
	case "settlement":
		return true
	case "capture":
		return n.FraudStatus == "" || n.FraudStatus == "accept"
	default:
		return false
	}
}

// ResolveNotification validates the notification against the stored payment
// and returns it. The order id is the payment id; the gross amount must
// match the frozen amount exactly.
func (g *Gateway) ResolveNotification(ctx context.Context, n Notification) (*model.Payment, error) {
	if !g.VerifySignature(n) {
		return nil, apperror.Forbidden("invalid notification signature")
	}
	paymentID, err := uuid.Parse(n.OrderID)
	if err != nil {
		return nil, apperror.Validation("order id is not a payment id")
	}

	var payment model.Payment
	if err := g.db.WithContext(ctx).First(&payment, "payment_id = ?", paymentID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperror.NotFound("payment not found")
		}
		return nil, err
	}

	gross, err := strconv.ParseFloat(n.GrossAmount, 64)
	if err != nil || int64(gross) != payment.PaymentAmount {
		return nil, apperror.Conflict("gross amount does not match the payment")
	}
	return &payment, nil
}
