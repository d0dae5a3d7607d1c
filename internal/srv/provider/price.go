package provider

import (
	"context"
	"fmt"
	"github.com/jypelle/btclcd/apimodel"
	"github.com/jypelle/btclcd/internal/srv/config"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// PriceClient reads the bitcoin price from CoinGecko or from an Umbrel node dashboard
type PriceClient struct {
	source  string
	baseUrl string
	auth    *basicAuth
	client  *http.Client
}

func NewPriceClient(param config.PriceParam, timeout time.Duration) *PriceClient {
	return &PriceClient{
		source:  param.Source,
		baseUrl: strings.TrimRight(param.Url, "/"),
		auth:    &basicAuth{username: param.Username, password: param.Password},
		client:  newHttpClient(timeout),
	}
}

// FetchPrice returns the price of one bitcoin in the given 3 letters currency
func (c *PriceClient) FetchPrice(ctx context.Context, currency string) (float64, error) {
	code := strings.ToLower(currency)

	switch c.source {
	case config.UmbrelPriceSource:
		var prices apimodel.UmbrelPrice
		if err := do(ctx, c.client, http.MethodGet, c.baseUrl+"/api/price", c.auth, nil, &prices); err != nil {
			return 0, err
		}
		price, ok := prices[code]
		if !ok {
			return 0, fmt.Errorf("no %s price in umbrel answer", currency)
		}
		return price, nil
	default:
		query := url.Values{}
		query.Set("ids", "bitcoin")
		query.Set("vs_currencies", code)
		var prices apimodel.CoingeckoSimplePrice
		if err := do(ctx, c.client, http.MethodGet, c.baseUrl+"/api/v3/simple/price?"+query.Encode(), nil, nil, &prices); err != nil {
			return 0, err
		}
		price, ok := prices["bitcoin"][code]
		if !ok {
			return 0, fmt.Errorf("no %s price in coingecko answer", currency)
		}
		return price, nil
	}
}
