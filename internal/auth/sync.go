package auth

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

// SyncResult summarizes a bulk directory sync.
type SyncResult struct {
	Success bool   `json:"success"`
	Total   int    `json:"total"`
	Created int    `json:"created"`
	Updated int    `json:"updated"`
	Skipped int    `json:"skipped"`
	Message string `json:"message"`
}

// Sync reconciles every directory user matching the wildcard search filter.
// Users that fail to reconcile are counted as skipped.
func (s *Service) Sync(ctx context.Context) (*SyncResult, error) {
	cfg, err := s.dir.Config(ctx)
	if err != nil {
		return nil, err
	}

	ids, err := s.dir.SearchAll(ctx)
	if err != nil {
		return nil, err
	}

	res := &SyncResult{Success: true, Total: len(ids)}

	for i := range ids {
		rec, err := s.reconciler.ReconcileDirectory(ctx, cfg, &ids[i], true)
		if err != nil {
			log.Warn().Err(err).Str("email", ids[i].Email).Msg("failed to sync LDAP user")

			res.Skipped++

			continue
		}

		if rec.Created {
			res.Created++
		} else {
			res.Updated++
		}
	}

	res.Message = fmt.Sprintf("Synced %d LDAP users: %d created, %d updated, %d skipped",
		res.Total, res.Created, res.Updated, res.Skipped)

	log.Info().Int("total", res.Total).Int("created", res.Created).Int("updated", res.Updated).
		Int("skipped", res.Skipped).Msg("LDAP sync finished")

	return res, nil
}
