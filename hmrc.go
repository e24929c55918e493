package cgt

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
)

/*
	{
	    "data": [
	        {
	            "id": "USD-2024-6",
	            "type": "exchange_rate",
	            "attributes": {
	                "currency_code": "USD",
	                "currency_description": "United States Dollar",
	                "rate": 1.2672,
	                "validity_start_date": "2024-06-01"
	            }
	        }
	    ]
	}
*/

// HMRCMonthlyRate returns HMRC's published monthly exchange rate for the
// given currency: how many units of that currency one pound bought during
// that month. These are the rates HMRC accepts for converting foreign
// amounts to sterling on a tax return.
func HMRCMonthlyRate(currency string, year int, month time.Month) (float64, error) {
	addr := fmt.Sprintf("https://www.trade-tariff.service.gov.uk/api/v2/exchange_rates/period/%d/%d", year, int(month))

	var jobj any
	if err := jwget(daily(), addr, &jobj); err != nil {
		return math.NaN(), fmt.Errorf("error in wget %q: %w", currency, err)
	}

	path := "$.data[*].attributes"
	jval, err := jsonpath.Get(path, jobj)
	if err != nil {
		return math.NaN(), fmt.Errorf("error parsing rates for %d-%d: %q %w", year, int(month), path, err)
	}
	jlist, ok := jval.([]any)
	if !ok {
		return math.NaN(), fmt.Errorf("error parsing rates for %d-%d: %q not a list", year, int(month), path)
	}

	currency = strings.ToUpper(currency)
	for _, item := range jlist {
		attrs, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if code, _ := attrs["currency_code"].(string); code != currency {
			continue
		}
		return rateValue(currency, attrs["rate"])
	}
	return math.NaN(), fmt.Errorf("no HMRC rate for %q in %d-%d", currency, year, int(month))
}

// rateValue reads the published rate, which this API returns either as a
// float or as a string.
func rateValue(currency string, jval any) (float64, error) {
	val, ok := jval.(float64)
	if !ok {
		sval, ok := jval.(string)
		if !ok {
			return math.NaN(), fmt.Errorf("cannot read rate for %q: neither a float nor a string", currency)
		}
		sval = strings.ReplaceAll(sval, ",", ".")
		sval = strings.ReplaceAll(sval, " ", "")
		var err error
		val, err = strconv.ParseFloat(sval, 64)
		if err != nil {
			return math.NaN(), fmt.Errorf("cannot read rate for %q: invalid string %q: %w", currency, sval, err)
		}
	}
	if val == 0 {
		return math.NaN(), fmt.Errorf("empty rate for %q", currency)
	}
	return val, nil
}
