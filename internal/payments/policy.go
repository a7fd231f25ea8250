package payments

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/YayasanAt-Tauhid/Catering-At-Tauhid/pkg/config"
	"github.com/YayasanAt-Tauhid/Catering-At-Tauhid/pkg/enums"
)

var hundred = decimal.NewFromInt(100)

// FeeQuote is the admin fee decision for one charge: how much, over which
// channel, and the label shown to the customer.
type FeeQuote struct {
	Fee    int64
	Method enums.PaymentMethod
	Label  string
}

// FeePolicy decides the payment channel and admin fee from the base amount
// alone. Pure and deterministic; callers that reuse an older transaction read
// the fee back from storage instead of re-quoting, since the rule set here may
// have moved on.
type FeePolicy struct {
	threshold int64
	qrisRate  decimal.Decimal
	flatFee   int64
	qrisLabel string
	flatLabel string
}

// NewFeePolicy builds the policy from the configured rule set.
func NewFeePolicy(cfg config.PaymentsConfig) (*FeePolicy, error) {
	rate, err := cfg.QRISFeeRate()
	if err != nil {
		return nil, err
	}
	return &FeePolicy{
		threshold: cfg.QRISThreshold,
		qrisRate:  rate,
		flatFee:   cfg.BankTransferFee,
		qrisLabel: strings.TrimSpace(cfg.QRISFeePercent) + "%",
		flatLabel: formatRupiah(cfg.BankTransferFee),
	}, nil
}

// Quote returns the fee, channel, and label for the given base amount. The
// QRIS percent fee is rounded up to the next whole rupiah.
func (p *FeePolicy) Quote(baseAmount int64) FeeQuote {
	if baseAmount <= p.threshold {
		fee := decimal.NewFromInt(baseAmount).
			Mul(p.qrisRate).
			Div(hundred).
			Ceil().
			IntPart()
		return FeeQuote{Fee: fee, Method: enums.PaymentMethodQRIS, Label: p.qrisLabel}
	}
	return FeeQuote{Fee: p.flatFee, Method: enums.PaymentMethodBankTransfer, Label: p.flatLabel}
}

// LabelFor returns the fee label for a previously chosen method, used when a
// stored transaction is echoed back without re-quoting.
func (p *FeePolicy) LabelFor(method enums.PaymentMethod) string {
	switch method {
	case enums.PaymentMethodQRIS:
		return p.qrisLabel
	case enums.PaymentMethodBankTransfer:
		return p.flatLabel
	default:
		return ""
	}
}

// EnabledPayments lists the Snap channels opened for the chosen method, so the
// popup cannot drift to a channel the fee was not quoted for.
func EnabledPayments(method enums.PaymentMethod) []string {
	switch method {
	case enums.PaymentMethodQRIS:
		return []string{"qris"}
	case enums.PaymentMethodBankTransfer:
		return []string{"bca_va", "bni_va", "bri_va", "permata_va", "echannel", "other_va"}
	default:
		return nil
	}
}

// formatRupiah renders an amount the way receipts print it: Rp4.400.
func formatRupiah(amount int64) string {
	digits := fmt.Sprintf("%d", amount)
	var b strings.Builder
	b.WriteString("Rp")
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
		if len(digits) > lead {
			b.WriteString(".")
		}
	}
	for i := lead; i < len(digits); i += 3 {
		b.WriteString(digits[i : i+3])
		if i+3 < len(digits) {
			b.WriteString(".")
		}
	}
	return b.String()
}
