package workers

import (
	"context"
	"log/slog"
	"time"

	"voicenet/contract"
	"voicenet/domain"
)

// AuthorityPollWorker refreshes the local read of the transmit-authority
// holder while a transmit net is set. The record is advisory: losing it
// updates UI feedback but never silences the local user.
type AuthorityPollWorker struct {
	log       *slog.Logger
	authority contract.AuthorityStore
	interval  time.Duration
	current   func() *domain.NetID
	update    func(netID domain.NetID, holder *domain.TransmitAuthority)
}

func NewAuthorityPollWorker(
	log *slog.Logger,
	authority contract.AuthorityStore,
	interval time.Duration,
	current func() *domain.NetID,
	update func(netID domain.NetID, holder *domain.TransmitAuthority),
) *AuthorityPollWorker {
	return &AuthorityPollWorker{
		log:       log,
		authority: authority,
		interval:  interval,
		current:   current,
		update:    update,
	}
}

func (w *AuthorityPollWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			netID := w.current()
			if netID == nil {
				continue
			}
			holder, err := w.authority.ReadAuthority(ctx, *netID)
			if err != nil {
				w.log.Debug("Authority poll failed", "net", *netID, "err", err)
				continue
			}
			w.update(*netID, holder)
		}
	}
}
