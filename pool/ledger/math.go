// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"github.com/holiman/uint256"

	"github.com/vechain/stakepool/pool/reverts"
)

// Add returns x+y, or an arithmetic revert on overflow. The operands are not modified.
func Add(x, y *uint256.Int) (*uint256.Int, error) {
	z, overflow := new(uint256.Int).AddOverflow(x, y)
	if overflow {
		return nil, reverts.NewArithmetic("addition overflow", nil)
	}
	return z, nil
}

// Sub returns x-y, or an arithmetic revert on underflow. The operands are not modified.
func Sub(x, y *uint256.Int) (*uint256.Int, error) {
	z, underflow := new(uint256.Int).SubOverflow(x, y)
	if underflow {
		return nil, reverts.NewArithmetic("subtraction underflow", nil)
	}
	return z, nil
}

// MulDiv returns floor(x*y/d) using a 512-bit intermediate product.
// Division by zero and results wider than 256 bits are arithmetic reverts.
func MulDiv(x, y, d *uint256.Int) (*uint256.Int, error) {
	if d.IsZero() {
		return nil, reverts.NewArithmetic("division by zero", nil)
	}
	z, overflow := new(uint256.Int).MulDivOverflow(x, y, d)
	if overflow {
		return nil, reverts.NewArithmetic("multiplication overflow", nil)
	}
	return z, nil
}

// Mul returns x*y, or an arithmetic revert on overflow.
func Mul(x, y *uint256.Int) (*uint256.Int, error) {
	z, overflow := new(uint256.Int).MulOverflow(x, y)
	if overflow {
		return nil, reverts.NewArithmetic("multiplication overflow", nil)
	}
	return z, nil
}
