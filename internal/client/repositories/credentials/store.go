// Package credentials persists the session identity and its credential.
//
// Four independent keys are stored: currentUser (JSON identity),
// accessToken, refreshToken (optional) and tokenExpiresAt (decimal epoch
// milliseconds). A partial record is reported as absent.
package credentials

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/dmitrijs2005/rainwise/internal/models"
	"github.com/dmitrijs2005/rainwise/internal/timex"
)

const (
	KeyCurrentUser    = "currentUser"
	KeyAccessToken    = "accessToken"
	KeyRefreshToken   = "refreshToken"
	KeyTokenExpiresAt = "tokenExpiresAt"
)

// Store is the credential store. Load returns (nil, nil) when there is no
// usable session.
type Store interface {
	Save(ctx context.Context, identity *models.Identity, accessToken, refreshToken string, expiresAt time.Time) error
	Load(ctx context.Context) (*models.StoredSession, error)
	Clear(ctx context.Context) error
}

// AllKeys lists every key owned by the store.
var AllKeys = []string{KeyCurrentUser, KeyAccessToken, KeyRefreshToken, KeyTokenExpiresAt}

// encode turns a session into the persisted key/value layout. A missing
// refresh token yields no entry for it.
func encode(identity *models.Identity, accessToken, refreshToken string, expiresAt time.Time) (map[string][]byte, error) {
	user, err := json.Marshal(identity)
	if err != nil {
		return nil, err
	}
	values := map[string][]byte{
		KeyCurrentUser:    user,
		KeyAccessToken:    []byte(accessToken),
		KeyTokenExpiresAt: []byte(strconv.FormatInt(expiresAt.UnixMilli(), 10)),
	}
	if refreshToken != "" {
		values[KeyRefreshToken] = []byte(refreshToken)
	}
	return values, nil
}

// decode is the inverse of encode. It returns nil for a partial or
// unreadable record.
func decode(values map[string][]byte) *models.StoredSession {
	access := string(values[KeyAccessToken])
	rawExp := string(values[KeyTokenExpiresAt])
	rawUser := values[KeyCurrentUser]
	if access == "" || rawExp == "" || len(rawUser) == 0 {
		return nil
	}

	ms, err := strconv.ParseInt(rawExp, 10, 64)
	if err != nil {
		return nil
	}

	var identity models.Identity
	if err := json.Unmarshal(rawUser, &identity); err != nil {
		return nil
	}

	return &models.StoredSession{
		Identity: &identity,
		Credential: models.Credential{
			AccessToken:  access,
			RefreshToken: string(values[KeyRefreshToken]),
			ExpiresAt:    timex.UnixMilli(ms),
		},
	}
}
