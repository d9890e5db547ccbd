package jimeng

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"
)

// Credits 账户积分余额，按来源拆分
type Credits struct {
	Total    float64 `json:"total"`
	Gift     float64 `json:"gift"`
	Purchase float64 `json:"purchase"`
	VIP      float64 `json:"vip"`
}

// QueryCredits reads the account balance from the commerce endpoint. Failures
// are reported as a credits error so callers can tell billing trouble apart
// from generation trouble.
func (s *Service) QueryCredits(ctx context.Context, credential string) (*Credits, error) {
	cred, err := ResolveRegion(credential)
	if err != nil {
		return nil, err
	}
	return s.queryCreditsWith(ctx, cred)
}

func (s *Service) queryCreditsWith(ctx context.Context, cred Credential) (*Credits, error) {
	resp, err := s.client.call(ctx, http.MethodPost, "/commerce/v1/benefits/user_credit", cred, callOptions{
		Body:         map[string]any{},
		CommerceHost: true,
	})
	if err != nil {
		return nil, wrapError(KindCredits, err, "query credits")
	}

	var payload struct {
		Credit struct {
			GiftCredit     float64 `json:"gift_credit"`
			PurchaseCredit float64 `json:"purchase_credit"`
			VipCredit      float64 `json:"vip_credit"`
		} `json:"credit"`
	}
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		return nil, wrapError(KindCredits, err, "decode credits response")
	}

	credits := &Credits{
		Gift:     payload.Credit.GiftCredit,
		Purchase: payload.Credit.PurchaseCredit,
		VIP:      payload.Credit.VipCredit,
	}
	credits.Total = credits.Gift + credits.Purchase + credits.VIP

	logrus.WithFields(logrus.Fields{
		"total":    credits.Total,
		"gift":     credits.Gift,
		"purchase": credits.Purchase,
		"vip":      credits.VIP,
	}).Debug("jimeng_credits_queried")
	return credits, nil
}

// ReceiveCredit claims the daily free credit grant. Best-effort: the endpoint
// rejects repeat claims within the same day, so failures are only logged.
func (s *Service) ReceiveCredit(ctx context.Context, credential string) {
	cred, err := ResolveRegion(credential)
	if err != nil {
		logrus.WithError(err).Warn("jimeng_credit_receive_skipped")
		return
	}

	_, err = s.client.call(ctx, http.MethodPost, "/commerce/v1/benefits/credit_receive", cred, callOptions{
		Body:         map[string]any{"time_zone": "Asia/Shanghai"},
		CommerceHost: true,
	})
	if err != nil {
		logrus.WithError(err).Debug("jimeng_credit_receive_failed")
		return
	}
	logrus.Info("jimeng_credit_received")
}

// EnsureCredits claims the daily grant when the balance dips below the given
// floor, then returns the refreshed balance.
func (s *Service) EnsureCredits(ctx context.Context, credential string, floor float64) (*Credits, error) {
	credits, err := s.QueryCredits(ctx, credential)
	if err != nil {
		return nil, err
	}
	if credits.Total >= floor {
		return credits, nil
	}
	s.ReceiveCredit(ctx, credential)
	return s.QueryCredits(ctx, credential)
}
