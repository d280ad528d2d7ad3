package transport

import (
	"context"
	"log/slog"
	"strings"

	"voicenet/contract"
	"voicenet/domain"
)

// Factory picks the transport for a join. Token issuance failing or
// returning nothing is a deliberate degraded-mode path: the join proceeds
// on the local simulator instead of failing outright.
type Factory struct {
	log        *slog.Logger
	minter     contract.TokenMinter
	defaultURL string
}

func NewFactory(log *slog.Logger, minter contract.TokenMinter, defaultURL string) *Factory {
	return &Factory{log: log, minter: minter, defaultURL: defaultURL}
}

func (f *Factory) New(ctx context.Context, net domain.Net, user domain.User) (contract.Transport, contract.ConnectParams) {
	params := contract.ConnectParams{NetID: net.ID, User: user}

	token, url, err := f.minter.MintVoiceToken(ctx, net, user)
	if err != nil || token == "" {
		f.log.Warn("Voice token unavailable, falling back to simulator transport",
			"net", net.Code, "error", err)
		return NewSimulator(f.log, net), params
	}

	params.Token = token
	params.URL = url
	if params.URL == "" {
		params.URL = f.defaultURL
	}

	if strings.HasPrefix(params.URL, "sim://") || params.URL == "" {
		return NewSimulator(f.log, net), params
	}
	return NewMediaTransport(f.log, net), params
}
