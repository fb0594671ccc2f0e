// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package utils

import (
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakepool/pool/reverts"
)

func TestWrapHandlerFunc(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"ok", nil, http.StatusOK},
		{"bad request", BadRequest(errors.New("bad")), http.StatusBadRequest},
		{"precondition", FromRevert(reverts.ErrInsufficientDeposit), http.StatusBadRequest},
		{"arithmetic", FromRevert(reverts.ErrNoStake), http.StatusBadRequest},
		{"owner", FromRevert(errors.Wrap(reverts.ErrNotOwner, "set venue")), http.StatusForbidden},
		{"venue", FromRevert(reverts.NewCollaborator("venue accept", errors.New("down"))), http.StatusBadGateway},
		{"internal", FromRevert(errors.New("disk full")), http.StatusInternalServerError},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WrapHandlerFunc(func(http.ResponseWriter, *http.Request) error {
				return c.err
			})(rec, httptest.NewRequest(http.MethodGet, "/", nil))
			assert.Equal(t, c.status, rec.Code)
		})
	}
	assert.Nil(t, FromRevert(nil))
}

func TestParseJSONStrict(t *testing.T) {
	var v struct {
		A int `json:"a"`
	}
	require.NoError(t, ParseJSON(strings.NewReader(`{"a":1}`), &v))
	assert.Equal(t, 1, v.A)
	assert.Error(t, ParseJSON(strings.NewReader(`{"b":1}`), &v))
}

func TestAmount(t *testing.T) {
	data, err := json.Marshal(Amount(uint256.NewInt(255)))
	require.NoError(t, err)
	assert.Equal(t, `"0xff"`, string(data))

	var h math.HexOrDecimal256
	require.NoError(t, json.Unmarshal([]byte(`"1000"`), &h))
	v, err := ParseAmount(&h)
	require.NoError(t, err)
	assert.Equal(t, uint256.NewInt(1000), v)

	_, err = ParseAmount(nil)
	assert.Error(t, err)

	neg := (*math.HexOrDecimal256)(big.NewInt(-1))
	_, err = ParseAmount(neg)
	assert.Error(t, err)

	huge := (*math.HexOrDecimal256)(new(big.Int).Lsh(big.NewInt(1), 256))
	_, err = ParseAmount(huge)
	assert.Error(t, err)
}
