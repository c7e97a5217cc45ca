package auth

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	methodLocal     = "local"
	methodDirectory = "ldap"
	methodSSO       = "sso"
	methodTwoFactor = "2fa"

	outcomeSuccess   = "success"
	outcomeChallenge = "challenge"
	outcomeFailure   = "failure"
)

// loginsTotal counts login attempts by method and outcome.
var loginsTotal = promauto.NewCounterVec( //nolint:gochecknoglobals
	prometheus.CounterOpts{
		Name: "dirauth_logins_total",
		Help: "Number of login attempts, differentiated by method and outcome.",
	},
	[]string{"method", "outcome"},
)

func observeLogin(method string, err error) {
	outcome := outcomeSuccess
	if err != nil {
		outcome = outcomeFailure
	}

	loginsTotal.WithLabelValues(method, outcome).Inc()
}
