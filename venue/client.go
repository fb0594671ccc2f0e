// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package venue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/vechain/stakepool/api/utils"
	"github.com/vechain/stakepool/thor"
)

var ErrNot200Status = errors.New("not 200 status code")

// Client talks to a venue served by Handler.
type Client struct {
	url string
	c   *http.Client
}

var _ Venue = (*Client)(nil)

// NewClient creates a client for the venue mounted at url, e.g. http://localhost:8700/venue.
func NewClient(url string) *Client {
	return NewClientWithHTTP(url, http.DefaultClient)
}

func NewClientWithHTTP(url string, c *http.Client) *Client {
	return &Client{url: strings.TrimRight(url, "/"), c: c}
}

func (c *Client) AcceptPrincipal(ctx context.Context, pool thor.Address, amount *uint256.Int) error {
	_, err := c.httpPOST(ctx, c.url+"/"+pool.String()+"/accept", &AmountRequest{Amount: utils.Amount(amount)})
	if err != nil {
		return errors.WithMessage(err, "accept principal")
	}
	return nil
}

func (c *Client) ReleasePrincipal(ctx context.Context, pool thor.Address, amount *uint256.Int) error {
	_, err := c.httpPOST(ctx, c.url+"/"+pool.String()+"/release", &AmountRequest{Amount: utils.Amount(amount)})
	if err != nil {
		return errors.WithMessage(err, "release principal")
	}
	return nil
}

// Accrue asks a simulated venue to add yield.
func (c *Client) Accrue(ctx context.Context, pool thor.Address, amount *uint256.Int) error {
	_, err := c.httpPOST(ctx, c.url+"/"+pool.String()+"/accrue", &AmountRequest{Amount: utils.Amount(amount)})
	if err != nil {
		return errors.WithMessage(err, "accrue")
	}
	return nil
}

func (c *Client) ReportedBalance(ctx context.Context, pool thor.Address) (*uint256.Int, error) {
	body, err := c.httpRequest(ctx, http.MethodGet, c.url+"/"+pool.String()+"/balance", nil)
	if err != nil {
		return nil, errors.WithMessage(err, "reported balance")
	}
	var res BalanceResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, errors.Wrap(err, "unable to unmarshal balance")
	}
	return utils.ParseAmount(res.Balance)
}

func (c *Client) httpPOST(ctx context.Context, url string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, "unable to marshal payload")
	}
	return c.httpRequest(ctx, http.MethodPost, url, bytes.NewReader(data))
}

func (c *Client) httpRequest(ctx context.Context, method, url string, payload io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, payload)
	if err != nil {
		return nil, errors.Wrap(err, "error creating request")
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.c.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "error performing request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "error reading response body")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("http error - status code %d - %s - %w", resp.StatusCode, strings.TrimSpace(string(body)), ErrNot200Status)
	}
	return body, nil
}
