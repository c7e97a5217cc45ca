package directory

import (
	"context"

	"github.com/rs/zerolog/log"
)

// Connector opens the first working session of a candidate list.
type Connector struct {
	dialer Dialer
}

// NewConnector creates a connector dialing through d.
func NewConnector(d Dialer) *Connector {
	return &Connector{dialer: d}
}

// Connect tries the candidates of cfg strictly in order and returns the first
// session that accepts the connection and, if configured, the service bind.
// When every candidate fails the error of the last one is returned.
func (c *Connector) Connect(ctx context.Context, cfg Config) (Session, string, error) {
	var lastErr error

	for _, cand := range cfg.Candidates() {
		sess, err := c.dialer.Dial(ctx, cand.URL, cfg)
		if err != nil {
			log.Warn().Err(err).Str("server", cand.URL).Msg("LDAP server failed, trying next")

			lastErr = err

			continue
		}

		if cfg.HasServiceAccount() {
			if err = sess.Bind(cfg.BindDN, cfg.BindPassword); err != nil {
				sess.Close()
				log.Warn().Err(err).Str("server", cand.URL).Msg("LDAP service bind failed, trying next")

				lastErr = err

				continue
			}

			log.Info().Str("server", cand.URL).Msg("connected to LDAP server")
		}

		return sess, cand.URL, nil
	}

	if lastErr == nil {
		return nil, "", ErrNoServers
	}

	return nil, "", lastErr
}
