package cointax

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/shopspring/decimal"
)

// KrakenFetcher fetches historical prices from the Kraken public Trades
// endpoint: the first trade at or after the requested time.
type KrakenFetcher struct {
	client *http.Client
}

func NewKrakenFetcher() *KrakenFetcher {
	return &KrakenFetcher{client: &http.Client{Timeout: 20 * time.Second}}
}

// krakenAsset maps common coin symbols to Kraken's asset codes.
var krakenAsset = map[string]string{
	"BTC":  "XBT",
	"DOGE": "XDG",
}

/*
	{
	    "error": [],
	    "result": {
	        "XXBTZEUR": [
	            ["50168.3", "0.011", 1614113801.21, "b", "l", "", 1234]
	        ],
	        "last": "1614113801214072569"
	    }
	}
*/
func (k *KrakenFetcher) Price(platform, coin, fiat string, at time.Time) (decimal.Decimal, error) {
	asset, ok := krakenAsset[coin]
	if !ok {
		asset = coin
	}
	pair := asset + fiat

	addr := "https://api.kraken.com/0/public/Trades?" + url.Values{
		"pair":  {pair},
		"since": {strconv.FormatInt(at.UTC().Unix(), 10)},
	}.Encode()

	var jobj any
	if err := jwget(k.client, addr, &jobj); err != nil {
		return decimal.Decimal{}, fmt.Errorf("error in wget %q: %w", pair, err)
	}

	if jerr, err := jsonpath.Get("$.error[0]", jobj); err == nil {
		return decimal.Decimal{}, fmt.Errorf("kraken error for %q: %v", pair, jerr)
	}

	// The result key is Kraken's internal pair name, unknown upfront; take
	// the price of the first trade of whichever pair list came back.
	path := "$.result.*[0][0]"
	jval, err := jsonpath.Get(path, jobj)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("error parsing %q: %q %w", pair, path, err)
	}
	// because jsonpath is never clear about whether it returns a list of 1
	// answer, or a single answer: by this call I keep the first one if any
	if jlist, ok := jval.([]any); ok && len(jlist) > 0 {
		jval = jlist[0]
	}
	text, ok := jval.(string)
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("error parsing %q: %q %s %v", pair, path, "not a price string", jval)
	}
	price, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("error parsing %q price %q: %w", pair, text, err)
	}
	return price, nil
}
