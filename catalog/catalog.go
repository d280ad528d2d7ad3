// Package catalog keeps the read-mostly list of net definitions, refreshed
// from the backend and kept live via subscription. When the backend is
// unreachable the catalog serves a small built-in default set so the core
// stays usable offline.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"voicenet/contract"
	"voicenet/domain"
	apperrors "voicenet/errors"
)

var validate = validator.New()

// DefaultNets is served when the backend source fails or returns nothing.
func DefaultNets() []domain.Net {
	return []domain.Net{
		{ID: "net-command-1", Code: "COMMAND-1", Label: "Command One", Type: domain.NetTypeCommand,
			DisciplineMode: domain.DisciplinePTT, MinRankToTx: domain.RankOperator},
		{ID: "net-squad-1", Code: "SQUAD-1", Label: "Squad One", Type: domain.NetTypeSquad,
			DisciplineMode: domain.DisciplineOpen},
		{ID: "net-general", Code: "GENERAL", Label: "General", Type: domain.NetTypeGeneral,
			DisciplineMode: domain.DisciplineOpen},
	}
}

type Catalog struct {
	mu     sync.RWMutex
	log    *slog.Logger
	source contract.NetSource
	nets   map[domain.NetID]domain.Net
	byCode map[string]domain.NetID
}

func New(log *slog.Logger, source contract.NetSource) *Catalog {
	c := &Catalog{
		log:    log,
		source: source,
		nets:   make(map[domain.NetID]domain.Net),
		byCode: make(map[string]domain.NetID),
	}
	c.replace(DefaultNets())
	return c
}

// Refresh pulls the full net list once. Failure keeps whatever is already
// loaded (the defaults on first call).
func (c *Catalog) Refresh(ctx context.Context) error {
	if c.source == nil {
		return nil
	}
	nets, err := c.source.ListNets(ctx)
	if err != nil || len(nets) == 0 {
		c.log.Warn("Net catalog refresh failed, keeping current set", "error", err)
		return err
	}
	valid := nets[:0]
	for _, net := range nets {
		if err := validate.Struct(net); err != nil {
			c.log.Warn("Dropping invalid net definition", "code", net.Code, "error", err)
			continue
		}
		valid = append(valid, net)
	}
	c.replace(valid)
	return nil
}

// Watch consumes the subscription stream until the context ends. Meant to
// run under the supervisor.
func (c *Catalog) Watch(ctx context.Context) error {
	if c.source == nil {
		return nil
	}
	updates, err := c.source.SubscribeNets(ctx)
	if err != nil {
		c.log.Warn("Net catalog subscription unavailable", "error", err)
		return nil
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case nets, ok := <-updates:
			if !ok {
				return nil
			}
			if len(nets) > 0 {
				c.replace(nets)
				c.log.Debug("Net catalog updated", "count", len(nets))
			}
		}
	}
}

func (c *Catalog) replace(nets []domain.Net) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nets = make(map[domain.NetID]domain.Net, len(nets))
	c.byCode = make(map[string]domain.NetID, len(nets))
	for _, net := range nets {
		c.nets[net.ID] = net
		c.byCode[strings.ToUpper(net.Code)] = net.ID
	}
}

// Resolve finds a net by id or by code.
func (c *Catalog) Resolve(idOrCode string) (domain.Net, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if net, ok := c.nets[domain.NetID(idOrCode)]; ok {
		return net, nil
	}
	if id, ok := c.byCode[strings.ToUpper(idOrCode)]; ok {
		return c.nets[id], nil
	}
	return domain.Net{}, fmt.Errorf("%w: %s", apperrors.ErrNetNotFound, idOrCode)
}

func (c *Catalog) All() []domain.Net {
	c.mu.RLock()
	defer c.mu.RUnlock()
	res := make([]domain.Net, 0, len(c.nets))
	for _, net := range c.nets {
		res = append(res, net)
	}
	return res
}
