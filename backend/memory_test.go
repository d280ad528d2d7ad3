package backend

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"voicenet/domain"
	apperrors "voicenet/errors"
)

func newMemory() *Memory {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewMemory(log, nil, time.Minute)
}

var testNet = domain.Net{ID: "net-squad-1", Code: "SQUAD-1", Label: "Squad One",
	Type: domain.NetTypeSquad, DisciplineMode: domain.DisciplineOpen}

var testUser = domain.User{ID: "u-1", Callsign: "RAPTOR", ClientID: "c-1", Rank: domain.RankOperator}

func TestMintVoiceToken_OfflineFallsBackEmpty(t *testing.T) {
	// Given an offline backend
	mem := newMemory()
	mem.Offline = true

	// When minting a token
	token, url, err := mem.MintVoiceToken(context.Background(), testNet, testUser)

	// Then nothing is issued and no error is raised (simulator path)
	require.NoError(t, err)
	require.Empty(t, token)
	require.Empty(t, url)
}

func TestMintVoiceToken_OnlineIssuesToken(t *testing.T) {
	mem := newMemory()

	token, url, err := mem.MintVoiceToken(context.Background(), testNet, testUser)

	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.Equal(t, "sim://net-squad-1", url)
}

func TestSessionLifecycle(t *testing.T) {
	req := require.New(t)
	mem := newMemory()
	ctx := context.Background()

	// Given a registered session
	id, err := mem.AddVoiceSession(ctx, domain.VoiceSession{
		NetID: testNet.ID, UserID: testUser.ID, Callsign: testUser.Callsign, ClientID: testUser.ClientID,
	})
	req.NoError(err)
	req.NotEmpty(id)

	// When the heartbeat marks it speaking
	req.NoError(mem.UpdateSessionHeartbeat(ctx, id, time.Now().UTC(), true))

	// Then the net roster reflects it
	sessions, err := mem.GetNetSessions(ctx, testNet.ID)
	req.NoError(err)
	req.Len(sessions, 1)
	req.True(sessions[0].IsSpeaking)

	// And removal is final
	req.NoError(mem.RemoveVoiceSession(ctx, id))
	sessions, err = mem.GetNetSessions(ctx, testNet.ID)
	req.NoError(err)
	req.Empty(sessions)

	// Beating a removed session fails
	req.Error(mem.UpdateSessionHeartbeat(ctx, id, time.Now().UTC(), false))
}

func TestClaimAuthority_IdempotentPerHolder(t *testing.T) {
	req := require.New(t)
	mem := newMemory()
	ctx := context.Background()

	first := domain.TransmitAuthority{NetID: testNet.ID, UserID: "u-1", ClientID: "c-1",
		ClaimedAt: time.Now().UTC().Add(-time.Minute)}
	req.NoError(mem.ClaimAuthority(ctx, first))

	// Re-claiming by the same holder keeps the original timestamp
	req.NoError(mem.ClaimAuthority(ctx, domain.TransmitAuthority{NetID: testNet.ID, UserID: "u-1", ClientID: "c-1"}))
	holder, err := mem.ReadAuthority(ctx, testNet.ID)
	req.NoError(err)
	req.NotNil(holder)
	req.Equal(first.ClaimedAt, holder.ClaimedAt)

	// A different client wins the record (last write wins)
	req.NoError(mem.ClaimAuthority(ctx, domain.TransmitAuthority{NetID: testNet.ID, UserID: "u-2", ClientID: "c-9"}))
	holder, err = mem.ReadAuthority(ctx, testNet.ID)
	req.NoError(err)
	req.True(holder.HeldBy("u-2", "c-9"))
}

func TestInvoke_SpeakRequestFlow(t *testing.T) {
	req := require.New(t)
	mem := newMemory()
	ctx := context.Background()

	// Given a filed hail
	res, err := mem.Invoke(ctx, ActionRequestToSpeak, testNet.ID, map[string]any{
		"requester_id": "u-1", "reason": "contact report",
	})
	req.NoError(err)
	requestID, _ := res["request_id"].(string)
	req.NotEmpty(requestID)
	req.False(mem.HasApprovedSpeakRequest(testNet.ID, "u-1"))

	// When command approves it
	_, err = mem.Invoke(ctx, ActionResolveSpeakRequest, testNet.ID, map[string]any{
		"request_id": requestID, "status": string(domain.SpeakRequestApproved),
	})
	req.NoError(err)

	// Then the approval is visible to the policy evaluator
	req.True(mem.HasApprovedSpeakRequest(testNet.ID, "u-1"))
}

func TestInvoke_UnknownActionFails(t *testing.T) {
	mem := newMemory()

	_, err := mem.Invoke(context.Background(), "launch_the_fireworks", testNet.ID, nil)
	require.ErrorIs(t, err, apperrors.ErrUnknownConsoleAction)
}

func TestInvoke_AcknowledgedActionsSucceedWithoutState(t *testing.T) {
	mem := newMemory()

	res, err := mem.Invoke(context.Background(), ActionRecordVoiceTelemetry, testNet.ID, map[string]any{
		"rtt_ms": 20,
	})
	require.NoError(t, err)
	require.Equal(t, true, res["ok"])
}
