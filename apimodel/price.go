package apimodel

// CoingeckoSimplePrice is the /simple/price response: coin id -> currency -> value
type CoingeckoSimplePrice map[string]map[string]float64

// UmbrelPrice is the node dashboard /api/price response: currency -> value
type UmbrelPrice map[string]float64
