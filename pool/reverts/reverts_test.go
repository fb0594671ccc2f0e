// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reverts

import (
	"fmt"
	"math/big"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func Test_Reverts(t *testing.T) {
	revert := New("test")
	assert.Equal(t, "test", revert.message)
	assert.Equal(t, revert.Error(), revert.message)
	assert.Equal(t, Precondition, revert.Kind())

	assert.True(t, IsRevertErr(revert))
	assert.False(t, IsRevertErr(nil))
	assert.False(t, IsRevertErr(fmt.Errorf("test")))
	assert.False(t, IsRevertErr(big.NewInt(0)))
}

func TestKindOf(t *testing.T) {
	cause := errors.New("connection refused")
	err := errors.WithMessage(NewCollaborator("venue accept failed", cause), "commit stake")

	kind, ok := KindOf(err)
	assert.True(t, ok)
	assert.Equal(t, Collaborator, kind)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "commit stake: venue accept failed: connection refused", err.Error())

	_, ok = KindOf(errors.New("plain"))
	assert.False(t, ok)
}

func TestSentinelMatching(t *testing.T) {
	wrapped := errors.Wrap(ErrInsufficientDeposit, "withdraw")
	assert.ErrorIs(t, wrapped, ErrInsufficientDeposit)
	assert.NotErrorIs(t, wrapped, ErrInsufficientStake)

	kind, _ := KindOf(ErrNoStake)
	assert.Equal(t, Arithmetic, kind)
	assert.Equal(t, "arithmetic", kind.String())
}
