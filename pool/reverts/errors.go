// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reverts

var (
	ErrNotOwner             = New("caller is not the owner")
	ErrNotInitialized       = New("pool is not initialised")
	ErrNothingDeposited     = New("nothing deposited")
	ErrInsufficientDeposit  = New("insufficient deposited balance")
	ErrInsufficientStake    = New("insufficient staked balance")
	ErrZeroAmount           = New("amount must be greater than zero")
	ErrNoOwnerFee           = New("no owner fee to withdraw")
	ErrInvalidFeeRate       = New("fee rate exceeds 10000 basis points")
	ErrZeroAddress          = New("zero address")
	ErrInsufficientCustody  = New("insufficient custodial balance")
	ErrVenueNotSet          = New("venue address is not set")
	ErrVenueLoss            = NewArithmetic("venue balance below total staked", nil)
	ErrNoStake              = NewArithmetic("earnings with zero total staked", nil)
	ErrUnstakeOverCommitted = NewArithmetic("requested unstake exceeds staked balance", nil)
)
