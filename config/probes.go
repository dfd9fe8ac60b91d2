package config

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"proma/config/models"
	"proma/config/validation"
	"proma/internal/crypto"
)

// TestAllConcurrency caps how many channels TestAll probes at once
const TestAllConcurrency = 4

// Test probes a stored channel. Only an unknown id is returned as an error;
// every other failure is carried in the result.
func (m *Manager) Test(ctx context.Context, id string) (models.TestResult, error) {
	ch, err := m.Get(id)
	if err != nil {
		return models.TestResult{}, err
	}
	return m.testChannel(ctx, *ch), nil
}

func (m *Manager) testChannel(ctx context.Context, ch models.Channel) models.TestResult {
	creds, err := m.credentials(ch)
	if err != nil {
		m.logger.Error("failed to decrypt API key", "id", ch.ID, "error", err)
		return decryptionFailure(err)
	}

	result := m.prober.Test(ctx, creds)
	m.logger.Debug("channel tested", "id", ch.ID, "success", result.Success, "kind", result.Kind)
	return result
}

func decryptionFailure(err error) models.TestResult {
	msg := "failed to decrypt API key"
	if errors.Is(err, crypto.ErrUnavailable) {
		msg = "encryption unavailable, cannot read stored API key"
	}
	return models.TestResult{Kind: models.FailureDecryption, Message: msg}
}

// TestDirect probes unsaved credentials. Nothing is persisted.
func (m *Manager) TestDirect(ctx context.Context, creds models.Credentials) models.TestResult {
	return m.prober.Test(ctx, creds)
}

// FetchModels lists the models of unsaved credentials. Nothing is persisted.
func (m *Manager) FetchModels(ctx context.Context, creds models.Credentials) models.FetchModelsResult {
	return m.prober.FetchModels(ctx, creds)
}

// FetchChannelModels lists the models offered by a stored channel
func (m *Manager) FetchChannelModels(ctx context.Context, id string) (models.FetchModelsResult, error) {
	ch, err := m.Get(id)
	if err != nil {
		return models.FetchModelsResult{}, err
	}

	creds, err := m.credentials(*ch)
	if err != nil {
		return models.FetchModelsResult{Models: []models.Model{}, Message: decryptionFailure(err).Message}, nil
	}
	return m.prober.FetchModels(ctx, creds), nil
}

// TestAll probes every enabled channel concurrently and reports in list order
func (m *Manager) TestAll(ctx context.Context) []models.ChannelTestReport {
	var enabled []models.Channel
	for _, ch := range m.List() {
		if ch.Enabled {
			enabled = append(enabled, ch)
		}
	}

	reports := make([]models.ChannelTestReport, len(enabled))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(TestAllConcurrency)

	for i, ch := range enabled {
		g.Go(func() error {
			reports[i] = models.ChannelTestReport{
				ChannelID: ch.ID,
				Name:      ch.Name,
				Provider:  ch.Provider,
				Result:    m.testChannel(gctx, ch),
			}
			return nil
		})
	}
	_ = g.Wait()

	return reports
}

// MergeFetchedModels adds fetched models the channel does not know yet,
// disabled, and keeps the enabled flag of the ones it does. It returns the
// number of models added.
func (m *Manager) MergeFetchedModels(id string, fetched []models.Model) (int, error) {
	added := 0
	err := m.mutate(func(doc *models.ChannelsConfig) (bool, error) {
		idx := indexOf(doc.Channels, id)
		if idx < 0 {
			return false, notFound(id)
		}
		ch := doc.Channels[idx]

		merged := m.models.MergeModels(ch.Models, fetched)
		added = len(merged) - len(m.models.NormalizeModels(ch.Models))
		if added == 0 {
			return false, nil
		}

		ch.Models = merged
		ch.UpdatedAt = m.nextUpdatedAt(ch.UpdatedAt)
		doc.Channels[idx] = ch
		return true, nil
	})
	if err != nil {
		return 0, err
	}

	if added > 0 {
		m.logger.Info("models merged", "id", id, "added", added)
	}
	return added, nil
}

// SetModelsEnabled enables or disables the named models of a channel
func (m *Manager) SetModelsEnabled(id string, ids []string, enabled bool) (*models.Channel, error) {
	var updated models.Channel
	err := m.mutate(func(doc *models.ChannelsConfig) (bool, error) {
		idx := indexOf(doc.Channels, id)
		if idx < 0 {
			return false, notFound(id)
		}
		ch := doc.Channels[idx]

		list, err := m.models.SetEnabled(ch.Models, ids, enabled)
		if err != nil {
			return false, fmt.Errorf("%w: %v", validation.ErrInvalidInput, err)
		}
		ch.Models = list
		ch.UpdatedAt = m.nextUpdatedAt(ch.UpdatedAt)
		doc.Channels[idx] = ch
		updated = ch
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}
