package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"voicenet/domain"
	apperrors "voicenet/errors"
)

type fakeSource struct {
	nets []domain.Net
	err  error
}

func (s fakeSource) ListNets(ctx context.Context) ([]domain.Net, error) {
	return s.nets, s.err
}

func (s fakeSource) SubscribeNets(ctx context.Context) (<-chan []domain.Net, error) {
	ch := make(chan []domain.Net)
	close(ch)
	return ch, nil
}

func TestCatalog_DefaultsWithoutSource(t *testing.T) {
	req := require.New(t)
	c := New(slog.Default(), nil)

	net, err := c.Resolve("COMMAND-1")
	req.NoError(err)
	req.Equal(domain.NetTypeCommand, net.Type)
	req.Len(c.All(), len(DefaultNets()))
}

func TestCatalog_RefreshFailureKeepsDefaults(t *testing.T) {
	req := require.New(t)
	c := New(slog.Default(), fakeSource{err: fmt.Errorf("backend down")})

	_ = c.Refresh(context.Background())

	_, err := c.Resolve("SQUAD-1")
	req.NoError(err)
}

func TestCatalog_RefreshReplacesAndValidates(t *testing.T) {
	req := require.New(t)
	c := New(slog.Default(), fakeSource{nets: []domain.Net{
		{ID: "net-ops", Code: "OPS-1", Label: "Ops", Type: domain.NetTypeSupport,
			DisciplineMode: domain.DisciplineRequestToSpeak},
		// Missing code and label: must be dropped by validation.
		{ID: "net-bad", Type: domain.NetTypeSquad, DisciplineMode: domain.DisciplineOpen},
	}})

	req.NoError(c.Refresh(context.Background()))

	net, err := c.Resolve("net-ops")
	req.NoError(err)
	req.Equal(domain.DisciplineRequestToSpeak, net.DisciplineMode)

	_, err = c.Resolve("net-bad")
	req.ErrorIs(err, apperrors.ErrNetNotFound)

	_, err = c.Resolve("COMMAND-1")
	req.ErrorIs(err, apperrors.ErrNetNotFound)
}

func TestCatalog_ResolveByLowercaseCode(t *testing.T) {
	req := require.New(t)
	c := New(slog.Default(), nil)

	net, err := c.Resolve("command-1")
	req.NoError(err)
	req.Equal("COMMAND-1", net.Code)
}
