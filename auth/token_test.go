package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"voicenet/domain"
)

func TestGenerateVoiceToken_RoundTrip(t *testing.T) {
	req := require.New(t)
	user := domain.User{ID: "u1", Callsign: "Ghost", ClientID: "c1", Rank: domain.RankScout}

	token, err := GenerateVoiceToken(user, "net-1", time.Hour)
	req.NoError(err)
	req.NotEmpty(token)

	claims, err := ValidateVoiceToken(token)
	req.NoError(err)
	req.Equal("u1", claims.UserID)
	req.Equal("Ghost", claims.Callsign)
	req.Equal("net-1", claims.NetID)
	req.Equal("Scout", claims.Rank)
}

func TestValidateVoiceToken_Expired(t *testing.T) {
	req := require.New(t)
	user := domain.User{ID: "u1", Callsign: "Ghost", ClientID: "c1"}

	token, err := GenerateVoiceToken(user, "net-1", -time.Minute)
	req.NoError(err)

	_, err = ValidateVoiceToken(token)
	req.Error(err)
}
