// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package utils

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

// Amount converts a balance to its JSON form, a 0x-prefixed hex string.
func Amount(v *uint256.Int) *math.HexOrDecimal256 {
	if v == nil {
		return (*math.HexOrDecimal256)(new(big.Int))
	}
	return (*math.HexOrDecimal256)(v.ToBig())
}

// ParseAmount converts a JSON amount into a balance. A missing amount is an error.
func ParseAmount(h *math.HexOrDecimal256) (*uint256.Int, error) {
	if h == nil {
		return nil, errors.New("amount: missing")
	}
	b := (*big.Int)(h)
	if b.Sign() < 0 {
		return nil, errors.New("amount: negative")
	}
	v, overflow := uint256.FromBig(b)
	if overflow {
		return nil, errors.New("amount: exceeds 256 bits")
	}
	return v, nil
}
