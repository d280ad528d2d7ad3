package policy

import (
	"testing"

	"github.com/stretchr/testify/require"

	"voicenet/domain"
)

type approvals map[string]struct{}

func (a approvals) HasApprovedSpeakRequest(netID domain.NetID, userID string) bool {
	_, ok := a[string(netID)+"/"+userID]
	return ok
}

func commandNet() domain.Net {
	return domain.Net{
		ID:             "net-cmd",
		Code:           "COMMAND-1",
		Label:          "Command One",
		Type:           domain.NetTypeCommand,
		DisciplineMode: domain.DisciplineCommandOnly,
	}
}

func TestEvaluate_OpenDiscipline_AllowsAnyRank(t *testing.T) {
	req := require.New(t)
	e := NewEvaluator(nil)
	net := commandNet()
	net.DisciplineMode = domain.DisciplineOpen

	user := domain.User{ID: "u1", Callsign: "Ghost", ClientID: "c1", Rank: domain.RankVagrant}

	d := e.Evaluate(user, net, ActionTransmit)
	req.True(d.Allowed)
}

func TestEvaluate_CommandOnly_DeniesNonCommandRank(t *testing.T) {
	req := require.New(t)
	e := NewEvaluator(nil)
	user := domain.User{ID: "u1", Callsign: "Ghost", ClientID: "c1", Rank: domain.RankOperator}

	d := e.Evaluate(user, commandNet(), ActionTransmit)

	req.False(d.Allowed)
	req.Equal("Command-only net discipline active", d.Reason)
}

func TestEvaluate_CommandOnly_AllowsCommandRank(t *testing.T) {
	req := require.New(t)
	e := NewEvaluator(nil)
	user := domain.User{ID: "u1", Callsign: "Actual", ClientID: "c1", Rank: domain.RankCommander}

	d := e.Evaluate(user, commandNet(), ActionTransmit)
	req.True(d.Allowed)
}

func TestEvaluate_RequestToSpeak_RequiresApproval(t *testing.T) {
	req := require.New(t)
	net := commandNet()
	net.DisciplineMode = domain.DisciplineRequestToSpeak
	user := domain.User{ID: "u1", Callsign: "Ghost", ClientID: "c1", Rank: domain.RankScout}

	// Given no approved request
	e := NewEvaluator(approvals{})
	d := e.Evaluate(user, net, ActionTransmit)
	req.False(d.Allowed)
	req.Equal("Request-to-speak approval required", d.Reason)

	// When the request is approved
	e = NewEvaluator(approvals{"net-cmd/u1": {}})
	d = e.Evaluate(user, net, ActionTransmit)

	// Then transmit is permitted
	req.True(d.Allowed)
}

func TestEvaluate_FocusedNet_RxGateMessage(t *testing.T) {
	req := require.New(t)
	e := NewEvaluator(nil)
	net := commandNet()
	net.Focused = true
	net.MinRankToRx = domain.RankScout

	user := domain.User{ID: "u1", Callsign: "Drifter", ClientID: "c1", Rank: domain.RankVagrant}

	d := e.Evaluate(user, net, ActionReceive)
	req.False(d.Allowed)
	req.Contains(d.Reason, "Focused net requires Scout+ to receive")
}

func TestEvaluate_TxRankGate(t *testing.T) {
	req := require.New(t)
	e := NewEvaluator(nil)
	net := commandNet()
	net.DisciplineMode = domain.DisciplinePTT
	net.MinRankToTx = domain.RankOperator

	user := domain.User{ID: "u1", Callsign: "Ghost", ClientID: "c1", Rank: domain.RankScout}

	d := e.Evaluate(user, net, ActionTransmit)
	req.False(d.Allowed)
	req.Contains(d.Reason, "requires Operator+ to transmit")
}
