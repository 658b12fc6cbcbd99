// Package bip21 implements the BIP 21 payment request URI format.
//
// URI Format:
//
//	bitcoin:<address>?amount=<amount>&label=<label>&message=<message>
//
// Multiple recipients are supported with indexed parameters:
//
//	bitcoin:?address.1=<addr1>&amount.1=<amt1>&address.2=<addr2>&amount.2=<amt2>
//
// Amounts are decimal BTC with at most eight fractional digits and are
// held as satoshis. Parameters prefixed with "req-" that this package does
// not understand make the URI invalid.
//
// See: https://github.com/bitcoin/bips/blob/master/bip-0021.mediawiki
package bip21

import (
	"errors"
	"fmt"
	"maps"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcutil"

	"github.com/suffix-labs/btc-pst/pkg/network"
	"github.com/suffix-labs/btc-pst/pkg/tx"
)

// Scheme is the URI scheme of payment requests.
const Scheme = "bitcoin"

const maxIndex = 9999

var (
	// ErrInvalidAmount is returned for amounts that are not a non-negative
	// decimal BTC value representable in satoshis.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrRequiredParam is returned for unknown "req-" parameters.
	ErrRequiredParam = errors.New("unsupported required parameter")

	// ErrMissingAddress is returned when a payment has no address.
	ErrMissingAddress = errors.New("payment has no address")

	// ErrMissingAmount is returned when converting a payment without an
	// amount into an output.
	ErrMissingAmount = errors.New("payment has no amount")
)

// PaymentRequest represents a parsed BIP 21 payment request.
type PaymentRequest struct {
	Payments []Payment
}

// Payment represents a single payment within a request.
type Payment struct {
	Address string
	Amount  *btcutil.Amount // nil = user specifies
	Label   *string
	Message *string
}

// Parse parses a payment request URI.
//
// URI formats supported:
//  1. Single recipient: bitcoin:<address>?amount=1.5&label=shop
//  2. Multiple recipients: bitcoin:?address.1=addr1&amount.1=1.0&address.2=addr2&amount.2=2.0
//  3. No address (user specifies): bitcoin:?amount=1.5
//
// The scheme is optional and matched case-insensitively.
func Parse(uri string) (*PaymentRequest, error) {
	if len(uri) > len(Scheme) && strings.EqualFold(uri[:len(Scheme)+1], Scheme+":") {
		uri = uri[len(Scheme)+1:]
	}

	var baseAddress, query string
	if before, after, found := strings.Cut(uri, "?"); found {
		baseAddress, query = before, after
	} else if strings.Contains(uri, "=") {
		query = uri
	} else {
		baseAddress = uri
	}

	params, err := url.ParseQuery(query)
	if err != nil {
		return nil, fmt.Errorf("failed to parse query: %w", err)
	}
	for key := range params {
		if strings.HasPrefix(baseName(key), "req-") {
			return nil, fmt.Errorf("%w: %s", ErrRequiredParam, key)
		}
	}

	var payments []Payment
	if hasIndexedParams(params) {
		payments, err = parseIndexedPayments(params)
		if err != nil {
			return nil, err
		}
	} else {
		payment, err := parseSinglePayment(baseAddress, params)
		if err != nil {
			return nil, err
		}
		payments = []Payment{payment}
	}

	return &PaymentRequest{Payments: payments}, nil
}

func parseSinglePayment(address string, params url.Values) (Payment, error) {
	payment := Payment{Address: address}
	if addrParam := params.Get("address"); addrParam != "" {
		payment.Address = addrParam
	}
	if err := parseOptional(&payment, params, ""); err != nil {
		return payment, err
	}
	return payment, nil
}

// parseIndexedPayments parses recipients written as name.N. Index 0 may
// also be written without a suffix.
func parseIndexedPayments(params url.Values) ([]Payment, error) {
	indices := make(map[int]bool)
	for key := range params {
		if idx := extractIndex(key); idx >= 0 {
			indices[idx] = true
		}
	}
	if params.Has("address") {
		indices[0] = true
	}

	payments := make([]Payment, 0, len(indices))
	for _, idx := range slices.Sorted(maps.Keys(indices)) {
		suffix := fmt.Sprintf(".%d", idx)
		if idx == 0 && params.Has("address") {
			suffix = ""
		}
		address := getIndexedParam(params, "address", idx)
		if address == "" {
			return nil, fmt.Errorf("payment %d: %w", idx, ErrMissingAddress)
		}
		payment := Payment{Address: address}
		if err := parseOptional(&payment, params, suffix); err != nil {
			return nil, fmt.Errorf("payment %d: %w", idx, err)
		}
		payments = append(payments, payment)
	}
	return payments, nil
}

func parseOptional(payment *Payment, params url.Values, suffix string) error {
	if amountStr := params.Get("amount" + suffix); amountStr != "" {
		amount, err := ParseAmount(amountStr)
		if err != nil {
			return err
		}
		payment.Amount = &amount
	}
	if label := params.Get("label" + suffix); label != "" {
		payment.Label = &label
	}
	if message := params.Get("message" + suffix); message != "" {
		payment.Message = &message
	}
	return nil
}

func hasIndexedParams(params url.Values) bool {
	for key := range params {
		if extractIndex(key) >= 0 {
			return true
		}
	}
	return false
}

func baseName(paramName string) string {
	name, _, _ := strings.Cut(paramName, ".")
	return name
}

// extractIndex returns N for "name.N", or -1.
func extractIndex(paramName string) int {
	_, suffix, found := strings.Cut(paramName, ".")
	if !found {
		return -1
	}
	idx, err := strconv.Atoi(suffix)
	if err != nil || idx < 0 || idx > maxIndex {
		return -1
	}
	return idx
}

func getIndexedParam(params url.Values, name string, index int) string {
	if index == 0 {
		if val := params.Get(name); val != "" {
			return val
		}
	}
	return params.Get(fmt.Sprintf("%s.%d", name, index))
}

// ParseAmount parses a decimal BTC amount exactly.
//
// Valid formats:
//   - "1.5"
//   - "0.00000001"
//   - "21"
func ParseAmount(s string) (btcutil.Amount, error) {
	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" && frac == "" || len(frac) > 8 || !isDigits(whole) || !isDigits(frac) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}

	digits := strings.TrimLeft(whole+frac+strings.Repeat("0", 8-len(frac)), "0")
	if digits == "" {
		return 0, nil
	}
	sats, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	amount := btcutil.Amount(sats)
	if amount > btcutil.MaxSatoshi {
		return 0, fmt.Errorf("%w: %q exceeds the money supply", ErrInvalidAmount, s)
	}
	return amount, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// FormatAmount formats an amount as decimal BTC without trailing zeros.
func FormatAmount(a btcutil.Amount) string {
	whole := int64(a) / btcutil.SatoshiPerBitcoin
	frac := int64(a) % btcutil.SatoshiPerBitcoin
	if frac == 0 {
		return strconv.FormatInt(whole, 10)
	}
	return strings.TrimRight(fmt.Sprintf("%d.%08d", whole, frac), "0")
}

// Outputs resolves every payment into a transaction output using codec.
// Each payment must have an amount.
func (req *PaymentRequest) Outputs(codec *network.AddressCodec) ([]tx.TxOut, error) {
	outs := make([]tx.TxOut, 0, len(req.Payments))
	for i, p := range req.Payments {
		if p.Address == "" {
			return nil, fmt.Errorf("payment %d: %w", i, ErrMissingAddress)
		}
		if p.Amount == nil {
			return nil, fmt.Errorf("payment %d: %w", i, ErrMissingAmount)
		}
		script, err := codec.Decode(p.Address)
		if err != nil {
			return nil, fmt.Errorf("payment %d: %w", i, err)
		}
		outs = append(outs, tx.TxOut{Value: uint64(*p.Amount), PkScript: script})
	}
	return outs, nil
}

// Encode creates a URI from a PaymentRequest. It is the inverse of Parse.
func (req *PaymentRequest) Encode() string {
	switch len(req.Payments) {
	case 0:
		return Scheme + ":"
	case 1:
		return encodeSinglePayment(req.Payments[0])
	default:
		return encodeMultiplePayments(req.Payments)
	}
}

func encodeSinglePayment(p Payment) string {
	uri := Scheme + ":" + p.Address
	params := url.Values{}
	addOptional(params, p, "")
	if len(params) > 0 {
		uri += "?" + params.Encode()
	}
	return uri
}

func encodeMultiplePayments(payments []Payment) string {
	params := url.Values{}
	for i, p := range payments {
		suffix := fmt.Sprintf(".%d", i)
		params.Add("address"+suffix, p.Address)
		addOptional(params, p, suffix)
	}
	return Scheme + ":?" + params.Encode()
}

func addOptional(params url.Values, p Payment, suffix string) {
	if p.Amount != nil {
		params.Add("amount"+suffix, FormatAmount(*p.Amount))
	}
	if p.Label != nil {
		params.Add("label"+suffix, *p.Label)
	}
	if p.Message != nil {
		params.Add("message"+suffix, *p.Message)
	}
}
