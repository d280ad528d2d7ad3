// Package policy centralizes every rank and discipline gate. Join access
// and PTT eligibility go through the same evaluator so the rules cannot
// drift apart.
package policy

import (
	"fmt"

	"voicenet/domain"
)

// Action is what the user intends to do on a net.
type Action string

const (
	ActionReceive  Action = "receive"
	ActionTransmit Action = "transmit"
	ActionWhisper  Action = "whisper"
)

// Decision is an allow/deny verdict with a human-readable reason suitable
// for direct display.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision { return Decision{Allowed: true} }

func deny(reason string) Decision { return Decision{Allowed: false, Reason: reason} }

// Evaluator decides whether a user may perform an action on a net.
// Approved speak requests are looked up through the provided reader.
type Evaluator struct {
	approvals ApprovalReader
}

// ApprovalReader reports whether an approved speak request exists for a
// user on a net. Nil readers behave as "no approvals".
type ApprovalReader interface {
	HasApprovedSpeakRequest(netID domain.NetID, userID string) bool
}

func NewEvaluator(approvals ApprovalReader) *Evaluator {
	return &Evaluator{approvals: approvals}
}

// Evaluate applies the net's rank gates and discipline mode to the intended
// action. Deny reasons are stable strings the UI shows verbatim.
func (e *Evaluator) Evaluate(user domain.User, net domain.Net, action Action) Decision {
	switch action {
	case ActionReceive:
		return e.evaluateReceive(user, net)
	case ActionTransmit, ActionWhisper:
		if d := e.evaluateReceive(user, net); !d.Allowed {
			return d
		}
		return e.evaluateTransmit(user, net)
	default:
		return deny(fmt.Sprintf("Unknown action %q", action))
	}
}

func (e *Evaluator) evaluateReceive(user domain.User, net domain.Net) Decision {
	if !user.Rank.AtLeast(net.MinRankToRx) {
		if net.RequiresJoinConfirmation() {
			return deny(fmt.Sprintf("Focused net requires %s+ to receive", net.MinRankToRx))
		}
		return deny(fmt.Sprintf("Net %s requires %s+ to receive", net.Code, net.MinRankToRx))
	}
	return allow()
}

func (e *Evaluator) evaluateTransmit(user domain.User, net domain.Net) Decision {
	if !user.Rank.AtLeast(net.MinRankToTx) {
		return deny(fmt.Sprintf("Net %s requires %s+ to transmit", net.Code, net.MinRankToTx))
	}

	switch net.DisciplineMode {
	case domain.DisciplineOpen, domain.DisciplinePTT:
		return allow()
	case domain.DisciplineCommandOnly:
		if user.Rank.CommandEquivalent() {
			return allow()
		}
		return deny("Command-only net discipline active")
	case domain.DisciplineRequestToSpeak:
		if user.Rank.CommandEquivalent() {
			return allow()
		}
		if e.approvals != nil && e.approvals.HasApprovedSpeakRequest(net.ID, user.ID) {
			return allow()
		}
		return deny("Request-to-speak approval required")
	default:
		return deny(fmt.Sprintf("Unknown discipline mode %q", net.DisciplineMode))
	}
}
