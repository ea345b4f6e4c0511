package gateway

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	domain "github.com/intekaih/toystore-app-sub001/internal/entity"
	"github.com/intekaih/toystore-app-sub001/internal/usecase"
)

const sigParam = "signature"

type Config struct {
	BaseURL    string
	MerchantID string
	Secret     string
	ReturnURL  string
}

// SignedRedirectGateway builds redirect URLs for the third-party
// processor and verifies its return callbacks. The signature is
// HMAC-SHA512 over the canonically sorted parameter set.
type SignedRedirectGateway struct {
	cfg Config
	now func() time.Time
}

func New(cfg Config) *SignedRedirectGateway {
	return &SignedRedirectGateway{cfg: cfg, now: time.Now}
}

func (g *SignedRedirectGateway) BuildRedirectURL(b usecase.RedirectBuild) (string, error) {
	if b.OrderRef == "" || b.TxnRef == "" || b.AmountCents <= 0 {
		return "", fmt.Errorf("%w: order ref, txn ref and amount are required", domain.ErrValidation)
	}

	params := url.Values{}
	params.Set("merchantId", g.cfg.MerchantID)
	params.Set("orderRef", b.OrderRef)
	params.Set("txnRef", b.TxnRef)
	params.Set("amount", strconv.FormatInt(b.AmountCents, 10))
	params.Set("createdAt", g.now().UTC().Format("20060102150405"))
	params.Set("returnUrl", g.cfg.ReturnURL)
	if b.Locale != "" {
		params.Set("locale", b.Locale)
	}
	if b.BankCode != "" {
		params.Set("bankCode", b.BankCode)
	}
	if b.ClientIP != "" {
		params.Set("clientIp", b.ClientIP)
	}

	canonical := canonicalQuery(params)
	return g.cfg.BaseURL + "?" + canonical + "&" + sigParam + "=" + g.sign(canonical), nil
}

// VerifyCallback recomputes the signature over every parameter except
// the signature itself and compares in constant time. On mismatch the
// callback is rejected outright; intent is never guessed.
func (g *SignedRedirectGateway) VerifyCallback(raw map[string][]string) (usecase.GatewayCallback, error) {
	params := url.Values(raw)
	supplied := params.Get(sigParam)
	if supplied == "" {
		return usecase.GatewayCallback{}, fmt.Errorf("%w: signature missing", domain.ErrSignature)
	}

	rest := url.Values{}
	for k, vs := range params {
		// The canonical form holds one value per key; a repeated key
		// cannot round-trip it and is rejected outright.
		if len(vs) > 1 {
			return usecase.GatewayCallback{}, fmt.Errorf("%w: repeated parameter %q", domain.ErrSignature, k)
		}
		if k == sigParam || len(vs) == 0 {
			continue
		}
		rest.Set(k, vs[0])
	}
	canonical := canonicalQuery(rest)
	if !hmac.Equal([]byte(supplied), []byte(g.sign(canonical))) {
		return usecase.GatewayCallback{}, domain.ErrSignature
	}

	amount, err := strconv.ParseInt(params.Get("amount"), 10, 64)
	if err != nil {
		return usecase.GatewayCallback{}, fmt.Errorf("%w: bad amount", domain.ErrValidation)
	}
	cb := usecase.GatewayCallback{
		OrderRef:    params.Get("orderRef"),
		TxnRef:      params.Get("txnRef"),
		AmountCents: amount,
		ResultCode:  params.Get("resultCode"),
		Raw:         canonical,
	}
	if cb.OrderRef == "" || cb.TxnRef == "" {
		return usecase.GatewayCallback{}, fmt.Errorf("%w: missing order or txn ref", domain.ErrValidation)
	}
	return cb, nil
}

func (g *SignedRedirectGateway) sign(canonical string) string {
	mac := hmac.New(sha512.New, []byte(g.cfg.Secret))
	mac.Write([]byte(canonical))
	return hex.EncodeToString(mac.Sum(nil))
}

// canonicalQuery sorts keys and percent-encodes values so both sides
// sign byte-identical input.
func canonicalQuery(params url.Values) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(k))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(params.Get(k)))
	}
	return sb.String()
}

var _ usecase.RedirectGateway = (*SignedRedirectGateway)(nil)
